package availability

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		in   string
		want Weekday
	}{
		{"MONDAY", Monday},
		{"monday", Monday},
		{"Mon", Monday},
		{"sun", Sunday},
		{" Saturday ", Saturday},
	}
	for _, tt := range tests {
		got, err := ParseWeekday(tt.in)
		if err != nil {
			t.Fatalf("ParseWeekday(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseWeekday(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
	if _, err := ParseWeekday("Mo"); err == nil {
		t.Error("expected error for two-letter weekday")
	}
	if _, err := ParseWeekday("Funday"); err == nil {
		t.Error("expected error for unknown weekday")
	}
}

func TestParseProviderType(t *testing.T) {
	pt, err := ParseProviderType("interpreter")
	if err != nil || pt != ProviderInterpreter {
		t.Fatalf("expected INTERPRETER, got %v (%v)", pt, err)
	}
	if _, err := ParseProviderType("DRIVER"); err == nil {
		t.Error("expected error for unknown type")
	}
	if _, err := ProviderType(0).MarshalText(); err == nil {
		t.Error("expected error marshaling zero type")
	}
}

func TestDate(t *testing.T) {
	d, err := ParseDate("2026-10-19")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != testToday {
		t.Errorf("expected %v, got %v", testToday, d)
	}
	if d.Weekday() != Monday {
		t.Errorf("expected MONDAY, got %s", d.Weekday())
	}
	if got := d.AddDays(13); got.String() != "2026-11-01" {
		t.Errorf("expected 2026-11-01, got %s", got)
	}
	if !d.Before(d.AddDays(1)) || !d.AddDays(1).After(d) {
		t.Error("expected date ordering")
	}

	late := time.Date(2026, time.October, 19, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))
	if got := DateOf(late); got.String() != "2026-10-20" {
		t.Errorf("expected UTC date 2026-10-20, got %s", got)
	}

	if _, err := ParseDate("19/10/2026"); err == nil {
		t.Error("expected error for non-ISO date")
	}
}

func TestDayJSON(t *testing.T) {
	day := Day{Date: testToday, Weekday: Monday, Slots: []Slot{}}
	b, err := json.Marshal(day)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"date":"2026-10-19","weekday":"MONDAY","slots":[]}`
	if string(b) != want {
		t.Errorf("expected %s, got %s", want, b)
	}
}

func TestBookingStatus_HoldsSlot(t *testing.T) {
	held := map[BookingStatus]bool{
		BookingPending:   true,
		BookingAccepted:  true,
		BookingDeclined:  false,
		BookingCancelled: false,
		BookingCompleted: false,
	}
	for s, want := range held {
		if s.HoldsSlot() != want {
			t.Errorf("%s.HoldsSlot() = %v, want %v", s, !want, want)
		}
	}
}

func TestNormalizeProvider(t *testing.T) {
	rec := ProviderRecord{
		ID:   "ex-1",
		Type: "examiner",
		Weekly: []WeeklyDayRecord{
			{Weekday: "MONDAY", Enabled: true, Ranges: []RangeRecord{{Start: "1:00 PM", End: "5:00 PM"}, {Start: "09:00", End: "12:00"}}},
			{Weekday: "tue", Enabled: false, Ranges: []RangeRecord{{Start: "09:00", End: "17:00"}}},
		},
		Overrides: []OverrideRecord{{Date: "2026-10-26"}},
	}
	p, err := NormalizeProvider(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Type != ProviderExaminer {
		t.Errorf("expected EXAMINER, got %s", p.Type)
	}
	mon := p.Weekly[Monday]
	if !mon.Enabled || len(mon.Ranges) != 2 || mon.Ranges[0].Start != 540 || mon.Ranges[1].Start != 780 {
		t.Errorf("expected sorted Monday ranges, got %+v", mon)
	}
	if p.Weekly[Tuesday].Enabled {
		t.Error("expected Tuesday disabled")
	}
	blackout, ok := p.Overrides[Date{2026, time.October, 26}]
	if !ok || len(blackout) != 0 {
		t.Errorf("expected empty override for 2026-10-26, got %v (present=%v)", blackout, ok)
	}
}

func TestNormalizeProvider_DuplicateWeekday(t *testing.T) {
	rec := ProviderRecord{
		ID:   "ex-1",
		Type: "EXAMINER",
		Weekly: []WeeklyDayRecord{
			{Weekday: "MONDAY", Enabled: true, Ranges: []RangeRecord{{Start: "09:00", End: "12:00"}}},
			{Weekday: "monday", Enabled: false, Ranges: []RangeRecord{{Start: "13:00", End: "17:00"}}},
			{Weekday: "Friday", Enabled: false, Ranges: []RangeRecord{{Start: "09:00", End: "17:00"}}},
			{Weekday: "FRI", Enabled: true, Ranges: []RangeRecord{{Start: "10:00", End: "11:00"}}},
		},
	}
	p, err := NormalizeProvider(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		day  Date
		want []TimeRange
	}{
		{testToday, []TimeRange{{Start: 540, End: 720}}},
		{testToday.AddDays(4), []TimeRange{{Start: 600, End: 660}}},
	}
	for _, tt := range tests {
		got := WindowsFor(p, tt.day)
		if len(got) != len(tt.want) {
			t.Fatalf("WindowsFor(%s) = %v, want %v", tt.day, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("WindowsFor(%s)[%d] = %v, want %v", tt.day, i, got[i], tt.want[i])
			}
		}
	}
}

func TestNormalizeProvider_DataIntegrity(t *testing.T) {
	tests := []struct {
		name  string
		rec   ProviderRecord
		field string
	}{
		{"bad type", ProviderRecord{ID: "p", Type: "DRIVER"}, "type"},
		{"bad weekday", ProviderRecord{ID: "p", Type: "EXAMINER", Weekly: []WeeklyDayRecord{{Weekday: "Funday"}}}, "weekday"},
		{"bad clock", ProviderRecord{ID: "p", Type: "EXAMINER", Weekly: weekdays("nine", "17:00", "MONDAY")}, "time range"},
		{"inverted range", ProviderRecord{ID: "p", Type: "EXAMINER", Weekly: weekdays("17:00", "09:00", "MONDAY")}, "time range"},
		{"bad override date", ProviderRecord{ID: "p", Type: "EXAMINER", Overrides: []OverrideRecord{{Date: "tomorrow"}}}, "override date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeProvider(tt.rec)
			die, ok := err.(*DataIntegrityError)
			if !ok {
				t.Fatalf("expected *DataIntegrityError, got %T (%v)", err, err)
			}
			if die.Field != tt.field || die.ProviderID != "p" {
				t.Errorf("expected field %q for provider p, got %q/%q", tt.field, die.Field, die.ProviderID)
			}
		})
	}
}

func TestResolutionError_Is(t *testing.T) {
	err := newResolutionError(KindAllDeclined, "nobody left")
	if !errors.Is(err, ErrAllDeclined) {
		t.Error("expected errors.Is to match ErrAllDeclined")
	}
	if errors.Is(err, ErrNoSlotsGenerated) {
		t.Error("did not expect match for ErrNoSlotsGenerated")
	}
	if KindOf(err) != KindAllDeclined {
		t.Errorf("expected kind %s, got %s", KindAllDeclined, KindOf(err))
	}
	if KindOf(errStoreDown) != "" {
		t.Error("expected empty kind for plain error")
	}
}
