package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// MaxWindowDays bounds the resolved range regardless of the requested window.
const MaxWindowDays = 30

// DefaultSettings are applied to zero-valued request settings.
var DefaultSettings = Settings{
	WindowDays:          14,
	WorkingHoursPerDay:  8,
	StartOfWorkingUTC:   "09:00",
	SlotDurationMinutes: 60,
}

// Options tune a Service.
type Options struct {
	Defaults            Settings
	MaxExaminersPerSlot int
	MatchWorkers        int
	FuzzySpecialtyMatch bool
}

// Option configures optional Service collaborators.
type Option func(*Service)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock replaces time.Now, which decides "today" for due-date checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// Service resolves availability for one examination per call. It reads an
// immutable snapshot from its repositories and never writes.
type Service struct {
	exams     ExaminationRepository
	bookings  BookingRepository
	directory *Directory
	declines  *DeclineRegistry
	opts      Options
	now       func() time.Time
	logger    zerolog.Logger
	metrics   *Metrics
}

func NewService(providers ProviderRepository, exams ExaminationRepository, bookings BookingRepository, opts Options, options ...Option) *Service {
	s := &Service{
		exams:    exams,
		bookings: bookings,
		declines: NewDeclineRegistry(bookings),
		opts:     opts,
		now:      time.Now,
		logger:   zerolog.Nop(),
	}
	for _, o := range options {
		o(s)
	}
	if s.opts.MaxExaminersPerSlot <= 0 || s.opts.MaxExaminersPerSlot > DefaultMaxExaminersPerSlot {
		s.opts.MaxExaminersPerSlot = DefaultMaxExaminersPerSlot
	}
	s.directory = NewDirectory(providers, opts.FuzzySpecialtyMatch, s.logger)
	return s
}

// Resolve computes the day/slot grid for req. On failure it returns a
// *ResolutionError (or a wrapped repository error) and no result.
func (s *Service) Resolve(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()
	res, err := s.resolve(ctx, req)
	s.metrics.observe(err, res, time.Since(started))

	log := s.logger.With().Str("examination_id", req.ExaminationID).Logger()
	if err != nil {
		evt := log.Info()
		if KindOf(err) == "" {
			evt = log.Error()
		}
		evt.Err(err).Str("outcome", string(KindOf(err))).Msg("availability resolution failed")
		return nil, err
	}
	log.Debug().Int("days", len(res.Days)).Int("slots", res.TotalSlots()).Msg("availability resolved")
	return res, nil
}

func (s *Service) resolve(ctx context.Context, req Request) (*Result, error) {
	if req.ExaminationID == "" {
		return nil, newResolutionError(KindInvalidRequest, "examination_id is required")
	}
	settings, startOfDay, err := s.normalizeSettings(req.Settings)
	if err != nil {
		return nil, err
	}

	exam, err := s.exams.GetExamination(ctx, req.ExaminationID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, &ResolutionError{Kind: KindExaminationNotFound, Message: fmt.Sprintf("examination %s not found", req.ExaminationID), Err: err}
		}
		return nil, fmt.Errorf("load examination %s: %w", req.ExaminationID, err)
	}
	claimantID := req.ClaimantID
	if claimantID == "" {
		claimantID = exam.ClaimantID
	}

	startDate, endDate, err := s.resolveRange(req.StartDate, exam.DueDate, settings.WindowDays)
	if err != nil {
		return nil, err
	}

	// Phase 1: directory lookups and declines are independent reads.
	var (
		examiners, interpreters, chaperones, transporters Listing
		declined                                          map[string]struct{}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		examiners, err = s.directory.QualifiedExaminers(gctx, exam.Type)
		return err
	})
	if exam.Support.InterpreterRequired {
		g.Go(func() error {
			var err error
			interpreters, err = s.directory.Interpreters(gctx, exam.Support.LanguageID)
			return err
		})
	}
	if exam.Support.ChaperoneRequired {
		g.Go(func() error {
			var err error
			chaperones, err = s.directory.Chaperones(gctx)
			return err
		})
	}
	if exam.Support.TransportRequired {
		g.Go(func() error {
			var err error
			transporters, err = s.directory.Transporters(gctx, exam.Support.PickupProvince)
			return err
		})
	}
	g.Go(func() error {
		var err error
		declined, err = s.declines.DeclinedExaminerIDs(gctx, exam.ID, claimantID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(examiners.Providers) == 0 {
		return nil, newResolutionError(KindNoQualifiedProviders, "no examiners qualified for examination type %q", exam.Type.Name)
	}

	options := make([]examinerOption, 0, len(examiners.Providers))
	eligibleIDs := make([]string, 0, len(examiners.Providers))
	for _, p := range examiners.Providers {
		if _, ok := declined[p.ID]; ok {
			continue
		}
		spec, _ := QualifyingSpecialty(p, exam.Type, s.opts.FuzzySpecialtyMatch)
		options = append(options, examinerOption{provider: p, specialty: spec.Name})
		eligibleIDs = append(eligibleIDs, p.ID)
	}
	if len(options) == 0 {
		return nil, newResolutionError(KindAllDeclined, "all %d qualified examiners declined claimant %s for examination %s", len(examiners.Providers), claimantID, exam.ID)
	}

	// Phase 2: bookings for the examiners that can still be offered.
	conflicts, err := LoadConflictIndex(ctx, s.bookings, eligibleIDs, startDate, endDate, req.ExcludeBookingID)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("examination_id", exam.ID).
		Int("examiners", len(options)).
		Int("declined", len(examiners.Providers)-len(options)).
		Int("bookings", conflicts.Len()).
		Str("start", startDate.String()).
		Str("end", endDate.String()).
		Msg("matching availability")

	m := &matcher{
		examiners:    options,
		declined:     declined,
		conflicts:    conflicts,
		support:      exam.Support,
		interpreters: interpreters.Providers,
		chaperones:   chaperones.Providers,
		transporters: transporters.Providers,
		startOfDay:   startOfDay,
		duration:     settings.SlotDurationMinutes,
		slotsPerDay:  slotCount(settings.WorkingHoursPerDay, settings.SlotDurationMinutes),
		maxExaminers: s.opts.MaxExaminersPerSlot,
	}
	days, err := m.matchDays(ctx, datesBetween(startDate, endDate), s.opts.MatchWorkers)
	if err != nil {
		return nil, err
	}

	res := &Result{
		ExaminationID: exam.ID,
		StartDate:     startDate,
		EndDate:       endDate,
		DueDate:       exam.DueDate,
		Days:          days,
		Settings:      settings,
		ServiceRequirements: ServiceRequirements{
			InterpreterRequired: exam.Support.InterpreterRequired,
			ChaperoneRequired:   exam.Support.ChaperoneRequired,
			TransportRequired:   exam.Support.TransportRequired,
		},
	}
	for _, l := range []Listing{examiners, interpreters, chaperones, transporters} {
		res.Excluded = append(res.Excluded, l.Excluded...)
	}

	if res.TotalSlots() == 0 {
		return nil, newResolutionError(KindNoSlotsGenerated, "no slot between %s and %s has an available examiner", startDate, endDate)
	}
	return res, nil
}

// normalizeSettings fills defaults, caps the window and parses the start of
// the working day.
func (s *Service) normalizeSettings(in Settings) (Settings, int, error) {
	def := s.opts.Defaults
	if def == (Settings{}) {
		def = DefaultSettings
	}
	out := in
	if out.WindowDays == 0 {
		out.WindowDays = def.WindowDays
	}
	if out.WorkingHoursPerDay == 0 {
		out.WorkingHoursPerDay = def.WorkingHoursPerDay
	}
	if out.StartOfWorkingUTC == "" {
		out.StartOfWorkingUTC = def.StartOfWorkingUTC
	}
	if out.SlotDurationMinutes == 0 {
		out.SlotDurationMinutes = def.SlotDurationMinutes
	}

	switch {
	case out.WindowDays < 0:
		return Settings{}, 0, newResolutionError(KindInvalidRequest, "window_days must be positive, got %d", out.WindowDays)
	case out.WorkingHoursPerDay < 0 || out.WorkingHoursPerDay > 24:
		return Settings{}, 0, newResolutionError(KindInvalidRequest, "working_hours_per_day must be between 1 and 24, got %d", out.WorkingHoursPerDay)
	case out.SlotDurationMinutes < 0 || out.SlotDurationMinutes > minutesPerDay:
		return Settings{}, 0, newResolutionError(KindInvalidRequest, "slot_duration_minutes must be between 1 and %d, got %d", minutesPerDay, out.SlotDurationMinutes)
	}
	if out.WindowDays > MaxWindowDays {
		out.WindowDays = MaxWindowDays
	}

	startOfDay, err := ParseClock(out.StartOfWorkingUTC)
	if err != nil || startOfDay >= minutesPerDay {
		return Settings{}, 0, &ResolutionError{Kind: KindInvalidRequest, Message: fmt.Sprintf("invalid start_of_working_utc %q", out.StartOfWorkingUTC), Err: err}
	}
	return out, startOfDay, nil
}

// resolveRange computes [start, end]. A start before today is raised to
// today; a due date before the start (but not before today) becomes the
// start; the end is start+windowDays clamped to the due date.
func (s *Service) resolveRange(requested Date, due *Date, windowDays int) (Date, Date, error) {
	today := DateOf(s.now())
	start := requested
	if start.IsZero() || start.Before(today) {
		start = today
	}
	if due != nil {
		if due.Before(today) {
			return Date{}, Date{}, newResolutionError(KindDueDatePassed, "examination was due on %s", due)
		}
		if due.Before(start) {
			start = *due
		}
	}
	end := start.AddDays(windowDays)
	if due != nil && due.Before(end) {
		end = *due
	}
	return start, end, nil
}

func datesBetween(start, end Date) []Date {
	var dates []Date
	for d := start; !d.After(end); d = d.AddDays(1) {
		dates = append(dates, d)
	}
	return dates
}
