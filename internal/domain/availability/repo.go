package availability

import (
	"context"
	"errors"
	"sort"
	"time"
)

// ErrRecordNotFound is returned by repositories for a missing row.
var ErrRecordNotFound = errors.New("record not found")

// RangeRecord is a stored time range whose clock strings may be either
// 24-hour ("13:30") or 12-hour ("1:30 PM").
type RangeRecord struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// WeeklyDayRecord is the stored recurring schedule of one weekday.
type WeeklyDayRecord struct {
	Weekday string        `json:"weekday" yaml:"weekday"`
	Enabled bool          `json:"enabled" yaml:"enabled"`
	Ranges  []RangeRecord `json:"ranges" yaml:"ranges"`
}

// OverrideRecord is a stored date-specific schedule. No ranges means the
// provider is blacked out on that date.
type OverrideRecord struct {
	Date   string        `json:"date" yaml:"date"`
	Ranges []RangeRecord `json:"ranges" yaml:"ranges"`
}

// ProviderRecord is the raw ingestion shape of a provider as stored.
type ProviderRecord struct {
	ID          string            `json:"id" yaml:"id"`
	Type        string            `json:"type" yaml:"type"`
	Name        string            `json:"name" yaml:"name"`
	Specialties []Specialty       `json:"specialties,omitempty" yaml:"specialties"`
	Clinic      string            `json:"clinic,omitempty" yaml:"clinic"`
	Languages   []string          `json:"languages,omitempty" yaml:"languages"`
	Province    string            `json:"province,omitempty" yaml:"province"`
	Weekly      []WeeklyDayRecord `json:"weekly" yaml:"weekly"`
	Overrides   []OverrideRecord  `json:"overrides,omitempty" yaml:"overrides"`

	// decodeErr is set by stores that could not decode part of the record.
	decodeErr error
}

// ProviderFilter narrows a provider listing. Empty fields do not filter.
type ProviderFilter struct {
	Type       ProviderType
	LanguageID string
	Province   string
}

type ProviderRepository interface {
	ListProviders(ctx context.Context, filter ProviderFilter) ([]ProviderRecord, error)
}

type ExaminationRepository interface {
	GetExamination(ctx context.Context, id string) (*Examination, error)
}

type BookingRepository interface {
	// ListBookings returns bookings in held statuses for the given providers
	// whose instant falls in [from, to).
	ListBookings(ctx context.Context, providerIDs []string, from, to time.Time) ([]Booking, error)
	ListDeclines(ctx context.Context, examinationID, claimantID string) ([]DeclineRecord, error)
}

// NormalizeProvider converts a stored record into a Provider, parsing every
// clock string exactly once.
func NormalizeProvider(rec ProviderRecord) (Provider, error) {
	if rec.decodeErr != nil {
		return Provider{}, rec.decodeErr
	}
	pt, err := ParseProviderType(rec.Type)
	if err != nil {
		return Provider{}, &DataIntegrityError{ProviderID: rec.ID, Field: "type", Value: rec.Type, Err: err}
	}

	p := Provider{
		ID:          rec.ID,
		Type:        pt,
		Name:        rec.Name,
		Specialties: rec.Specialties,
		Clinic:      rec.Clinic,
		Languages:   rec.Languages,
		Province:    rec.Province,
		Weekly:      make(map[Weekday]WeeklyDay, len(rec.Weekly)),
		Overrides:   make(map[Date][]TimeRange, len(rec.Overrides)),
	}

	for _, wd := range rec.Weekly {
		day, err := ParseWeekday(wd.Weekday)
		if err != nil {
			return Provider{}, &DataIntegrityError{ProviderID: rec.ID, Field: "weekday", Value: wd.Weekday, Err: err}
		}
		ranges, err := parseRanges(rec.ID, wd.Ranges)
		if err != nil {
			return Provider{}, err
		}
		existing := p.Weekly[day]
		if !wd.Enabled {
			// A disabled entry never contributes hours, even when another
			// entry enables the same weekday.
			p.Weekly[day] = existing
			continue
		}
		p.Weekly[day] = WeeklyDay{
			Enabled: true,
			Ranges:  sortRanges(append(existing.Ranges, ranges...)),
		}
	}

	for _, ov := range rec.Overrides {
		date, err := ParseDate(ov.Date)
		if err != nil {
			return Provider{}, &DataIntegrityError{ProviderID: rec.ID, Field: "override date", Value: ov.Date, Err: err}
		}
		ranges, err := parseRanges(rec.ID, ov.Ranges)
		if err != nil {
			return Provider{}, err
		}
		p.Overrides[date] = sortRanges(append(p.Overrides[date], ranges...))
	}

	return p, nil
}

func parseRanges(providerID string, recs []RangeRecord) ([]TimeRange, error) {
	out := make([]TimeRange, 0, len(recs))
	for _, r := range recs {
		tr, err := ParseTimeRange(r.Start, r.End)
		if err != nil {
			return nil, &DataIntegrityError{ProviderID: providerID, Field: "time range", Value: r.Start + "-" + r.End, Err: err}
		}
		out = append(out, tr)
	}
	return out, nil
}

func sortRanges(rs []TimeRange) []TimeRange {
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].Start < rs[j].Start })
	return rs
}
