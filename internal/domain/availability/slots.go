package availability

import "time"

// SlotWindow is a generated candidate slot before matching.
type SlotWindow struct {
	Start time.Time
	End   time.Time
}

// startMinute and endMinute give the slot bounds as minutes since midnight UTC.
// Generated slots never cross midnight, so End is at most 1440.
func (w SlotWindow) startMinute() int {
	return w.Start.Hour()*60 + w.Start.Minute()
}

func (w SlotWindow) endMinute() int {
	return w.startMinute() + int(w.End.Sub(w.Start)/time.Minute)
}

// SlotsForDay produces count contiguous slots of durationMinutes each,
// starting at startOfDay minutes past midnight UTC on date. Slots that would
// run past midnight are not produced.
func SlotsForDay(date Date, startOfDay, durationMinutes, count int) []SlotWindow {
	if durationMinutes <= 0 || count <= 0 || startOfDay < 0 {
		return nil
	}
	midnight := date.Time()
	slots := make([]SlotWindow, 0, count)
	for i := 0; i < count; i++ {
		begin := startOfDay + i*durationMinutes
		finish := begin + durationMinutes
		if finish > minutesPerDay {
			break
		}
		slots = append(slots, SlotWindow{
			Start: midnight.Add(time.Duration(begin) * time.Minute),
			End:   midnight.Add(time.Duration(finish) * time.Minute),
		})
	}
	return slots
}

// slotCount is the number of whole slots that fit in the working day.
func slotCount(workingHours, durationMinutes int) int {
	if durationMinutes <= 0 {
		return 0
	}
	return workingHours * 60 / durationMinutes
}
