package availability

import (
	"context"
	"fmt"
	"sort"
	"time"
)

type conflictKey struct {
	providerID string
	date       Date
}

// ConflictIndex answers "is this provider booked inside this slot" from a
// single preloaded batch of bookings.
type ConflictIndex struct {
	// instants per (provider, UTC date), sorted ascending
	byDay map[conflictKey][]time.Time
}

// LoadConflictIndex reads all held bookings for providerIDs between the start
// of rangeStart and the end of rangeEnd in one repository call. A booking
// whose ID equals excludeBookingID is left out so that the caller's own
// booking does not hide its slot.
func LoadConflictIndex(ctx context.Context, repo BookingRepository, providerIDs []string, rangeStart, rangeEnd Date, excludeBookingID string) (*ConflictIndex, error) {
	idx := &ConflictIndex{byDay: make(map[conflictKey][]time.Time)}
	if len(providerIDs) == 0 {
		return idx, nil
	}
	bookings, err := repo.ListBookings(ctx, providerIDs, rangeStart.Time(), rangeEnd.AddDays(1).Time())
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	idx.add(bookings, excludeBookingID)
	return idx, nil
}

// NewConflictIndex builds an index from bookings already in memory.
func NewConflictIndex(bookings []Booking, excludeBookingID string) *ConflictIndex {
	idx := &ConflictIndex{byDay: make(map[conflictKey][]time.Time)}
	idx.add(bookings, excludeBookingID)
	return idx
}

func (c *ConflictIndex) add(bookings []Booking, excludeBookingID string) {
	for _, b := range bookings {
		if !b.Status.HoldsSlot() {
			continue
		}
		if excludeBookingID != "" && b.ID == excludeBookingID {
			continue
		}
		at := b.Instant.UTC()
		key := conflictKey{providerID: b.ProviderID, date: DateOf(at)}
		c.byDay[key] = append(c.byDay[key], at)
	}
	for _, instants := range c.byDay {
		sort.Slice(instants, func(i, j int) bool { return instants[i].Before(instants[j]) })
	}
}

// IsBooked reports whether providerID holds a booking at an instant t with
// slotStart <= t < slotEnd.
func (c *ConflictIndex) IsBooked(providerID string, slotStart, slotEnd time.Time) bool {
	if c == nil {
		return false
	}
	start, end := slotStart.UTC(), slotEnd.UTC()
	for d := DateOf(start); !d.After(DateOf(end)); d = d.AddDays(1) {
		instants := c.byDay[conflictKey{providerID: providerID, date: d}]
		i := sort.Search(len(instants), func(i int) bool { return !instants[i].Before(start) })
		if i < len(instants) && instants[i].Before(end) {
			return true
		}
	}
	return false
}

// Len is the number of indexed bookings.
func (c *ConflictIndex) Len() int {
	n := 0
	for _, v := range c.byDay {
		n += len(v)
	}
	return n
}
