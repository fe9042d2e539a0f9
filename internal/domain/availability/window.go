package availability

// WindowsFor returns the UTC time ranges during which p is available on date.
// An override for the date replaces the weekly schedule entirely, so an
// override with no ranges blacks the date out.
func WindowsFor(p Provider, date Date) []TimeRange {
	if ranges, ok := p.Overrides[date]; ok {
		return ranges
	}
	day, ok := p.Weekly[date.Weekday()]
	if !ok || !day.Enabled {
		return nil
	}
	return day.Ranges
}

// availableFor reports whether any of p's windows on date fully contains the
// slot [start, end], both in minutes since midnight UTC.
func availableFor(p Provider, date Date, start, end int) bool {
	for _, w := range WindowsFor(p, date) {
		if w.Contains(start, end) {
			return true
		}
	}
	return false
}
