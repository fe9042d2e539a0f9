package availability

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultMaxExaminersPerSlot caps the examiner options listed for one slot.
// Options may lower it but never raise it.
const DefaultMaxExaminersPerSlot = 3

type examinerOption struct {
	provider  Provider
	specialty string
}

// matcher intersects examiner windows, bookings, declines and support
// provider windows for every generated slot. It holds only read-only data
// loaded before matching starts, so days can be matched concurrently.
type matcher struct {
	examiners    []examinerOption
	declined     map[string]struct{}
	conflicts    *ConflictIndex
	support      SupportRequirement
	interpreters []Provider
	chaperones   []Provider
	transporters []Provider

	startOfDay   int
	duration     int
	slotsPerDay  int
	maxExaminers int
}

// matchDays returns one Day per date, in the order given. Each day is
// independent, so work is spread over at most workers goroutines.
func (m *matcher) matchDays(ctx context.Context, dates []Date, workers int) ([]Day, error) {
	days := make([]Day, len(dates))
	g, _ := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, date := range dates {
		g.Go(func() error {
			days[i] = m.matchDay(date)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return days, nil
}

func (m *matcher) matchDay(date Date) Day {
	day := Day{Date: date, Weekday: date.Weekday(), Slots: []Slot{}}

	for _, sw := range SlotsForDay(date, m.startOfDay, m.duration, m.slotsPerDay) {
		start, end := sw.startMinute(), sw.endMinute()

		var (
			picked    []MatchedExaminer
			support   supportMatch
			supportOK bool
		)
		for _, ex := range m.examiners {
			if len(picked) == m.maxExaminers {
				break
			}
			if _, declined := m.declined[ex.provider.ID]; declined {
				continue
			}
			if !availableFor(ex.provider, date, start, end) {
				continue
			}
			if m.conflicts.IsBooked(ex.provider.ID, sw.Start, sw.End) {
				continue
			}
			if !supportOK {
				support = m.matchSupport(date, start, end)
				supportOK = true
			}
			picked = append(picked, MatchedExaminer{
				ExaminerID:  ex.provider.ID,
				Name:        ex.provider.Name,
				Specialty:   ex.specialty,
				Clinic:      ex.provider.Clinic,
				Interpreter: support.interpreter.clone(),
				Chaperone:   support.chaperone.clone(),
				Transporter: support.transporter.clone(),
			})
		}

		if len(picked) == 0 {
			continue
		}
		day.Slots = append(day.Slots, Slot{Start: sw.Start, End: sw.End, Examiners: picked})
	}
	return day
}

type supportMatch struct {
	interpreter *MatchedSupport
	chaperone   *MatchedSupport
	transporter *MatchedSupport
}

// matchSupport attaches, per required service, the first provider in listing
// order whose window contains the slot. Support providers are not checked
// against bookings.
func (m *matcher) matchSupport(date Date, start, end int) supportMatch {
	var sm supportMatch
	if m.support.InterpreterRequired {
		sm.interpreter = firstAvailable(m.interpreters, date, start, end)
	}
	if m.support.ChaperoneRequired {
		sm.chaperone = firstAvailable(m.chaperones, date, start, end)
	}
	if m.support.TransportRequired {
		sm.transporter = firstAvailable(m.transporters, date, start, end)
	}
	return sm
}

func firstAvailable(providers []Provider, date Date, start, end int) *MatchedSupport {
	for _, p := range providers {
		if availableFor(p, date, start, end) {
			return &MatchedSupport{ProviderID: p.ID, Name: p.Name}
		}
	}
	return nil
}

func (s *MatchedSupport) clone() *MatchedSupport {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
