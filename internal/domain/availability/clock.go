package availability

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

var (
	clock24Pattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?$`)
	clock12Pattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*([AaPp])\.?[Mm]\.?$`)
)

// ParseClock converts "HH:MM" (24-hour, optional seconds) or "H:MM AM/PM" to
// minutes since midnight. "24:00" is accepted as end of day.
func ParseClock(s string) (int, error) {
	v := strings.TrimSpace(s)
	if m := clock12Pattern.FindStringSubmatch(v); m != nil {
		h, _ := strconv.Atoi(m[1])
		mins, _ := strconv.Atoi(m[2])
		if h < 1 || h > 12 || mins > 59 {
			return 0, fmt.Errorf("invalid 12-hour time %q", s)
		}
		h %= 12
		if strings.EqualFold(m[3], "p") {
			h += 12
		}
		return h*60 + mins, nil
	}
	if m := clock24Pattern.FindStringSubmatch(v); m != nil {
		h, _ := strconv.Atoi(m[1])
		mins, _ := strconv.Atoi(m[2])
		secs := 0
		if m[3] != "" {
			secs, _ = strconv.Atoi(m[3])
		}
		if h == 24 && mins == 0 && secs == 0 {
			return minutesPerDay, nil
		}
		if h > 23 || mins > 59 || secs > 59 {
			return 0, fmt.Errorf("invalid 24-hour time %q", s)
		}
		return h*60 + mins, nil
	}
	return 0, fmt.Errorf("unrecognized time format %q", s)
}

// ParseTimeRange parses a start/end pair and enforces start < end.
func ParseTimeRange(start, end string) (TimeRange, error) {
	s, err := ParseClock(start)
	if err != nil {
		return TimeRange{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return TimeRange{}, err
	}
	if s >= e {
		return TimeRange{}, fmt.Errorf("range %s-%s does not end after it starts", start, end)
	}
	return TimeRange{Start: s, End: e}, nil
}

// FormatClock renders minutes since midnight as HH:MM.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
