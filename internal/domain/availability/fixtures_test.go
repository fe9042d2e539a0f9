package availability

import (
	"context"
	"errors"
	"time"
)

// Monday 19 October 2026.
var testToday = Date{Year: 2026, Month: time.October, Day: 19}

func fixedClock(d Date) func() time.Time {
	return func() time.Time { return d.Time().Add(7 * time.Hour) }
}

func at(d Date, hhmm string) time.Time {
	m, err := ParseClock(hhmm)
	if err != nil {
		panic(err)
	}
	return d.Time().Add(time.Duration(m) * time.Minute)
}

func weekdays(start, end string, days ...string) []WeeklyDayRecord {
	out := make([]WeeklyDayRecord, len(days))
	for i, d := range days {
		out[i] = WeeklyDayRecord{Weekday: d, Enabled: true, Ranges: []RangeRecord{{Start: start, End: end}}}
	}
	return out
}

var orthoType = ExaminationType{ID: "type-ortho", Name: "Orthopedic"}

func examiner(id string, weekly []WeeklyDayRecord) ProviderRecord {
	return ProviderRecord{
		ID:          id,
		Type:        "EXAMINER",
		Name:        "Dr " + id,
		Clinic:      "Clinic " + id,
		Specialties: []Specialty{{ID: orthoType.ID, Name: "Orthopedic Surgery"}},
		Weekly:      weekly,
	}
}

func newTestStore(exam Examination, providers ...ProviderRecord) *MemoryStore {
	s := NewMemoryStore()
	s.AddExamination(exam)
	for _, p := range providers {
		s.AddProvider(p)
	}
	return s
}

func newTestService(store *MemoryStore, opts Options) *Service {
	return NewService(store, store, store, opts, WithClock(fixedClock(testToday)))
}

// failingStore wraps a MemoryStore and fails the chosen operation.
type failingStore struct {
	*MemoryStore
	failProviders bool
	failExam      bool
	failBookings  bool
	failDeclines  bool
}

var errStoreDown = errors.New("store unavailable")

func (f *failingStore) ListProviders(ctx context.Context, filter ProviderFilter) ([]ProviderRecord, error) {
	if f.failProviders {
		return nil, errStoreDown
	}
	return f.MemoryStore.ListProviders(ctx, filter)
}

func (f *failingStore) GetExamination(ctx context.Context, id string) (*Examination, error) {
	if f.failExam {
		return nil, errStoreDown
	}
	return f.MemoryStore.GetExamination(ctx, id)
}

func (f *failingStore) ListBookings(ctx context.Context, ids []string, from, to time.Time) ([]Booking, error) {
	if f.failBookings {
		return nil, errStoreDown
	}
	return f.MemoryStore.ListBookings(ctx, ids, from, to)
}

func (f *failingStore) ListDeclines(ctx context.Context, examinationID, claimantID string) ([]DeclineRecord, error) {
	if f.failDeclines {
		return nil, errStoreDown
	}
	return f.MemoryStore.ListDeclines(ctx, examinationID, claimantID)
}
