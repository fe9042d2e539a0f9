package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ime/scheduler/internal/domain/availability"
)

// Monday 19 October 2026.
var today = availability.Date{Year: 2026, Month: time.October, Day: 19}

func at(d availability.Date, hour, minute int) time.Time {
	return d.Time().Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func mondayExaminer(id string) availability.ProviderRecord {
	return availability.ProviderRecord{
		ID:          id,
		Type:        "EXAMINER",
		Name:        "Dr " + id,
		Clinic:      "Downtown",
		Specialties: []availability.Specialty{{ID: "type-ortho", Name: "Orthopedic Surgery"}},
		Weekly: []availability.WeeklyDayRecord{{
			Weekday: "MONDAY",
			Enabled: true,
			Ranges:  []availability.RangeRecord{{Start: "9:00 AM", End: "17:00"}},
		}},
	}
}

var orthoExam = availability.Examination{
	ID:         "exam-1",
	ClaimantID: "claimant-1",
	Type:       availability.ExaminationType{ID: "type-ortho", Name: "Orthopedic"},
}

func newService(store *availability.PostgresStore) *availability.Service {
	return availability.NewService(store, store, store, availability.Options{},
		availability.WithClock(func() time.Time { return today.Time() }))
}

func TestPostgres_ResolveMondayGrid(t *testing.T) {
	pool := requireDB(t)
	ctx := context.Background()
	resetTables(t, ctx, pool)

	insertProvider(t, ctx, pool, mondayExaminer("ex-1"))
	insertProvider(t, ctx, pool, mondayExaminer("ex-2"))
	insertExamination(t, ctx, pool, orthoExam)
	if err := insertBooking(ctx, pool, availability.Booking{
		ID: "b-1", ProviderID: "ex-1", ExaminationID: "exam-1", ClaimantID: "claimant-0",
		Instant: at(today, 11, 30), Status: availability.BookingAccepted,
	}); err != nil {
		t.Fatalf("insert booking: %v", err)
	}
	insertDecline(t, ctx, pool, availability.DeclineRecord{ExaminerID: "ex-2", ClaimantID: "claimant-1", ExaminationID: "exam-1"})

	res, err := newService(availability.NewPostgresStore(pool)).Resolve(ctx, availability.Request{
		ExaminationID: "exam-1",
		Settings:      availability.Settings{WindowDays: 6},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(res.Days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(res.Days))
	}
	monday := res.Days[0]
	if len(monday.Slots) != 7 {
		t.Fatalf("expected 7 Monday slots, got %d", len(monday.Slots))
	}
	for _, s := range monday.Slots {
		if s.Start.Equal(at(today, 11, 0)) {
			t.Error("11:00 slot should be booked")
		}
		if len(s.Examiners) != 1 || s.Examiners[0].ExaminerID != "ex-1" {
			t.Errorf("expected only ex-1 (ex-2 declined), got %+v", s.Examiners)
		}
	}
}

func TestPostgres_MalformedScheduleExcluded(t *testing.T) {
	pool := requireDB(t)
	ctx := context.Background()
	resetTables(t, ctx, pool)

	insertProvider(t, ctx, pool, mondayExaminer("ex-1"))
	bad := mondayExaminer("ex-bad")
	bad.Weekly[0].Ranges[0].End = "late"
	insertProvider(t, ctx, pool, bad)
	insertExamination(t, ctx, pool, orthoExam)

	res, err := newService(availability.NewPostgresStore(pool)).Resolve(ctx, availability.Request{ExaminationID: "exam-1"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(res.Excluded) != 1 || res.Excluded[0].ProviderID != "ex-bad" {
		t.Errorf("expected ex-bad excluded, got %+v", res.Excluded)
	}
}

func TestPostgres_SupportFilters(t *testing.T) {
	pool := requireDB(t)
	ctx := context.Background()
	resetTables(t, ctx, pool)

	weekly := mondayExaminer("x").Weekly
	insertProvider(t, ctx, pool, mondayExaminer("ex-1"))
	insertProvider(t, ctx, pool, availability.ProviderRecord{ID: "int-es", Type: "INTERPRETER", Name: "ES", Languages: []string{"es"}, Weekly: weekly})
	insertProvider(t, ctx, pool, availability.ProviderRecord{ID: "int-fr", Type: "INTERPRETER", Name: "FR", Languages: []string{"FR"}, Weekly: weekly})
	insertProvider(t, ctx, pool, availability.ProviderRecord{ID: "tr-on", Type: "TRANSPORTER", Name: "ON", Province: "ON", Weekly: weekly})

	exam := orthoExam
	exam.Support = availability.SupportRequirement{InterpreterRequired: true, LanguageID: "fr", TransportRequired: true, PickupProvince: "on"}
	insertExamination(t, ctx, pool, exam)

	res, err := newService(availability.NewPostgresStore(pool)).Resolve(ctx, availability.Request{ExaminationID: "exam-1"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	opt := res.Days[0].Slots[0].Examiners[0]
	if opt.Interpreter == nil || opt.Interpreter.ProviderID != "int-fr" {
		t.Errorf("expected int-fr, got %+v", opt.Interpreter)
	}
	if opt.Transporter == nil || opt.Transporter.ProviderID != "tr-on" {
		t.Errorf("expected tr-on, got %+v", opt.Transporter)
	}
}

func TestPostgres_HeldInstantIsUnique(t *testing.T) {
	pool := requireDB(t)
	ctx := context.Background()
	resetTables(t, ctx, pool)

	insertProvider(t, ctx, pool, mondayExaminer("ex-1"))
	insertExamination(t, ctx, pool, orthoExam)

	first := availability.Booking{
		ID: "b-1", ProviderID: "ex-1", ExaminationID: "exam-1", ClaimantID: "claimant-1",
		Instant: at(today, 10, 0), Status: availability.BookingPending,
	}
	if err := insertBooking(ctx, pool, first); err != nil {
		t.Fatalf("insert booking: %v", err)
	}

	second := first
	second.ID = "b-2"
	err := insertBooking(ctx, pool, second)
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		t.Fatalf("expected unique violation, got %v", err)
	}

	cancelled := first
	cancelled.ID = "b-3"
	cancelled.Status = availability.BookingCancelled
	if err := insertBooking(ctx, pool, cancelled); err != nil {
		t.Errorf("cancelled bookings must not hold the instant: %v", err)
	}
}

func TestPostgres_ExaminationNotFound(t *testing.T) {
	pool := requireDB(t)
	ctx := context.Background()
	resetTables(t, ctx, pool)

	_, err := newService(availability.NewPostgresStore(pool)).Resolve(ctx, availability.Request{ExaminationID: "missing"})
	if !errors.Is(err, availability.ErrExaminationNotFound) {
		t.Errorf("expected ErrExaminationNotFound, got %v", err)
	}
}
