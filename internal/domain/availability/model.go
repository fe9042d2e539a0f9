package availability

import (
	"fmt"
	"strings"
	"time"
)

// ProviderType discriminates the four kinds of schedulable resources.
type ProviderType int

const (
	ProviderExaminer ProviderType = iota + 1
	ProviderInterpreter
	ProviderChaperone
	ProviderTransporter
)

var providerTypeNames = map[ProviderType]string{
	ProviderExaminer:    "EXAMINER",
	ProviderInterpreter: "INTERPRETER",
	ProviderChaperone:   "CHAPERONE",
	ProviderTransporter: "TRANSPORTER",
}

func (t ProviderType) String() string {
	if s, ok := providerTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("ProviderType(%d)", int(t))
}

// ParseProviderType accepts the type name in any case.
func ParseProviderType(s string) (ProviderType, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for t, name := range providerTypeNames {
		if name == upper {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown provider type %q", s)
}

func (t ProviderType) MarshalText() ([]byte, error) {
	if _, ok := providerTypeNames[t]; !ok {
		return nil, fmt.Errorf("invalid provider type %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *ProviderType) UnmarshalText(b []byte) error {
	parsed, err := ParseProviderType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Weekday mirrors time.Weekday so that UTC day-of-week conversions are a cast.
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdayNames = [...]string{"SUNDAY", "MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY"}

func (d Weekday) String() string {
	if d < Sunday || d > Saturday {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayNames[d]
}

// ParseWeekday accepts full or three-letter names in any case ("MONDAY", "mon", "Monday").
func ParseWeekday(s string) (Weekday, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for i, name := range weekdayNames {
		if upper == name || (len(upper) == 3 && strings.HasPrefix(name, upper)) {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

func (d Weekday) MarshalText() ([]byte, error) {
	if d < Sunday || d > Saturday {
		return nil, fmt.Errorf("invalid weekday %d", int(d))
	}
	return []byte(d.String()), nil
}

func (d *Weekday) UnmarshalText(b []byte) error {
	parsed, err := ParseWeekday(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Date is a UTC calendar date. It is comparable and usable as a map key.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

// DateOf returns the UTC calendar date of t.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Time returns midnight UTC at the start of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) AddDays(n int) Date { return DateOf(d.Time().AddDate(0, 0, n)) }

func (d Date) Before(o Date) bool { return d.Time().Before(o.Time()) }

func (d Date) After(o Date) bool { return d.Time().After(o.Time()) }

func (d Date) IsZero() bool { return d == Date{} }

// Weekday is computed from the UTC day-of-week.
func (d Date) Weekday() Weekday { return Weekday(d.Time().Weekday()) }

func (d Date) String() string { return d.Time().Format(dateLayout) }

func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// TimeRange is a pair of minutes since midnight UTC with Start < End.
type TimeRange struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Contains reports whether [start, end] lies fully inside the range.
func (r TimeRange) Contains(start, end int) bool {
	return start >= r.Start && end <= r.End
}

func (r TimeRange) String() string {
	return FormatClock(r.Start) + "-" + FormatClock(r.End)
}

// WeeklyDay is one weekday's recurring hours.
type WeeklyDay struct {
	Enabled bool
	Ranges  []TimeRange
}

// Provider is a normalized schedulable resource. All time values are already
// converted to minutes since midnight UTC.
type Provider struct {
	ID          string
	Type        ProviderType
	Name        string
	Specialties []Specialty
	Clinic      string
	Languages   []string
	Province    string
	Weekly      map[Weekday]WeeklyDay
	Overrides   map[Date][]TimeRange
}

// Specialty is one entry of an examiner's specialty list.
type Specialty struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// ExaminationType is the kind of examination being scheduled.
type ExaminationType struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// SupportRequirement lists the support services an examination needs.
type SupportRequirement struct {
	InterpreterRequired bool   `json:"interpreter_required" yaml:"interpreter_required"`
	LanguageID          string `json:"language_id,omitempty" yaml:"language_id"`
	ChaperoneRequired   bool   `json:"chaperone_required" yaml:"chaperone_required"`
	TransportRequired   bool   `json:"transport_required" yaml:"transport_required"`
	PickupProvince      string `json:"pickup_province,omitempty" yaml:"pickup_province"`
}

// Examination is the read-only view of an examination needed for resolution.
type Examination struct {
	ID         string             `json:"id" yaml:"id"`
	ClaimantID string             `json:"claimant_id" yaml:"claimant_id"`
	Type       ExaminationType    `json:"type" yaml:"type"`
	DueDate    *Date              `json:"due_date,omitempty" yaml:"due_date"`
	Support    SupportRequirement `json:"support" yaml:"support"`
}

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingAccepted  BookingStatus = "accepted"
	BookingDeclined  BookingStatus = "declined"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// HoldsSlot reports whether a booking in this status occupies its provider's time.
func (s BookingStatus) HoldsSlot() bool {
	return s == BookingPending || s == BookingAccepted
}

// HeldBookingStatuses are the statuses that count as conflicts.
var HeldBookingStatuses = []BookingStatus{BookingPending, BookingAccepted}

// Booking is an existing appointment for a provider at an instant.
type Booking struct {
	ID            string        `json:"id" yaml:"id"`
	ProviderID    string        `json:"provider_id" yaml:"provider_id"`
	ExaminationID string        `json:"examination_id" yaml:"examination_id"`
	ClaimantID    string        `json:"claimant_id" yaml:"claimant_id"`
	Instant       time.Time     `json:"instant" yaml:"instant"`
	Status        BookingStatus `json:"status" yaml:"status"`
}

// DeclineRecord permanently excludes an examiner for a (claimant, examination) pair.
type DeclineRecord struct {
	ExaminerID    string `json:"examiner_id" yaml:"examiner_id"`
	ClaimantID    string `json:"claimant_id" yaml:"claimant_id"`
	ExaminationID string `json:"examination_id" yaml:"examination_id"`
}

// Settings control the shape of the generated grid.
type Settings struct {
	WindowDays          int    `json:"window_days"`
	WorkingHoursPerDay  int    `json:"working_hours_per_day"`
	StartOfWorkingUTC   string `json:"start_of_working_utc"`
	SlotDurationMinutes int    `json:"slot_duration_minutes"`
}

// Request is one availability query.
type Request struct {
	ExaminationID    string   `json:"examination_id"`
	ClaimantID       string   `json:"claimant_id"`
	StartDate        Date     `json:"start_date"`
	ExcludeBookingID string   `json:"exclude_booking_id,omitempty"`
	Settings         Settings `json:"settings"`
}

// MatchedSupport is a support provider attached to an examiner option.
type MatchedSupport struct {
	ProviderID string `json:"provider_id"`
	Name       string `json:"name"`
}

// MatchedExaminer is one examiner option for a slot.
type MatchedExaminer struct {
	ExaminerID  string          `json:"examiner_id"`
	Name        string          `json:"name"`
	Specialty   string          `json:"specialty"`
	Clinic      string          `json:"clinic"`
	Interpreter *MatchedSupport `json:"interpreter,omitempty"`
	Chaperone   *MatchedSupport `json:"chaperone,omitempty"`
	Transporter *MatchedSupport `json:"transporter,omitempty"`
}

// Slot is a candidate appointment with at least one examiner option.
type Slot struct {
	Start     time.Time         `json:"start"`
	End       time.Time         `json:"end"`
	Examiners []MatchedExaminer `json:"examiners"`
}

// Day groups the matched slots of one calendar date.
type Day struct {
	Date    Date    `json:"date"`
	Weekday Weekday `json:"weekday"`
	Slots   []Slot  `json:"slots"`
}

// ServiceRequirements echoes the resolved support flags.
type ServiceRequirements struct {
	InterpreterRequired bool `json:"interpreter_required"`
	ChaperoneRequired   bool `json:"chaperone_required"`
	TransportRequired   bool `json:"transport_required"`
}

// ExcludedProvider records a provider dropped because its stored data could not be used.
type ExcludedProvider struct {
	ProviderID string `json:"provider_id"`
	Type       string `json:"type"`
	Reason     string `json:"reason"`
}

// Result is a successful resolution.
type Result struct {
	ExaminationID       string              `json:"examination_id"`
	StartDate           Date                `json:"start_date"`
	EndDate             Date                `json:"end_date"`
	DueDate             *Date               `json:"due_date,omitempty"`
	Days                []Day               `json:"days"`
	Settings            Settings            `json:"settings"`
	ServiceRequirements ServiceRequirements `json:"service_requirements"`
	Excluded            []ExcludedProvider  `json:"excluded_providers,omitempty"`
}

// TotalSlots counts slots across all days.
func (r *Result) TotalSlots() int {
	n := 0
	for _, d := range r.Days {
		n += len(d.Slots)
	}
	return n
}
