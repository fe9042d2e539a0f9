package availability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// PostgresStore reads providers, examinations, bookings and declines from
// the tables created by migrations/001_availability.sql. Both *pgxpool.Pool
// and pgx.Tx satisfy its connection.
type PostgresStore struct{ db queryable }

func NewPostgresStore(db queryable) *PostgresStore { return &PostgresStore{db: db} }

const providerCols = `id, provider_type, name, clinic, province, languages,
	specialties, weekly_schedule, schedule_overrides`

func scanProvider(row pgx.Row) (ProviderRecord, error) {
	var (
		p                              ProviderRecord
		specialties, weekly, overrides []byte
	)
	if err := row.Scan(&p.ID, &p.Type, &p.Name, &p.Clinic, &p.Province, &p.Languages,
		&specialties, &weekly, &overrides); err != nil {
		return ProviderRecord{}, err
	}
	// A malformed document only disqualifies this provider; NormalizeProvider
	// reports it.
	if err := decodeJSONB(specialties, &p.Specialties); err != nil {
		p.decodeErr = &DataIntegrityError{ProviderID: p.ID, Field: "specialties", Value: string(specialties), Err: err}
	}
	if err := decodeJSONB(weekly, &p.Weekly); err != nil && p.decodeErr == nil {
		p.decodeErr = &DataIntegrityError{ProviderID: p.ID, Field: "weekly_schedule", Value: string(weekly), Err: err}
	}
	if err := decodeJSONB(overrides, &p.Overrides); err != nil && p.decodeErr == nil {
		p.decodeErr = &DataIntegrityError{ProviderID: p.ID, Field: "schedule_overrides", Value: string(overrides), Err: err}
	}
	return p, nil
}

func decodeJSONB(raw []byte, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func (s *PostgresStore) ListProviders(ctx context.Context, filter ProviderFilter) ([]ProviderRecord, error) {
	query := `SELECT ` + providerCols + ` FROM providers WHERE active AND upper(provider_type) = $1`
	args := []interface{}{filter.Type.String()}
	idx := 2

	if filter.LanguageID != "" {
		query += fmt.Sprintf(` AND EXISTS (SELECT 1 FROM unnest(languages) l WHERE lower(l) = lower($%d))`, idx)
		args = append(args, filter.LanguageID)
		idx++
	}
	if filter.Province != "" {
		query += fmt.Sprintf(` AND lower(province) = lower($%d)`, idx)
		args = append(args, filter.Province)
	}
	query += ` ORDER BY id`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ProviderRecord
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const examinationCols = `e.id, e.claimant_id, t.id, t.name, e.due_date,
	e.interpreter_required, COALESCE(e.language_id, ''), e.chaperone_required,
	e.transport_required, COALESCE(e.pickup_province, '')`

func (s *PostgresStore) GetExamination(ctx context.Context, id string) (*Examination, error) {
	var (
		e   Examination
		due *time.Time
	)
	err := s.db.QueryRow(ctx, `SELECT `+examinationCols+`
		FROM examinations e JOIN examination_types t ON t.id = e.examination_type_id
		WHERE e.id = $1`, id).Scan(
		&e.ID, &e.ClaimantID, &e.Type.ID, &e.Type.Name, &due,
		&e.Support.InterpreterRequired, &e.Support.LanguageID, &e.Support.ChaperoneRequired,
		&e.Support.TransportRequired, &e.Support.PickupProvince)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	if due != nil {
		d := DateOf(*due)
		e.DueDate = &d
	}
	return &e, nil
}

const bookingCols = `id, provider_id, examination_id, claimant_id, booked_at, status`

func (s *PostgresStore) ListBookings(ctx context.Context, providerIDs []string, from, to time.Time) ([]Booking, error) {
	if len(providerIDs) == 0 {
		return nil, nil
	}
	statuses := make([]string, len(HeldBookingStatuses))
	for i, st := range HeldBookingStatuses {
		statuses[i] = string(st)
	}

	rows, err := s.db.Query(ctx, `SELECT `+bookingCols+` FROM bookings
		WHERE provider_id = ANY($1) AND booked_at >= $2 AND booked_at < $3 AND status = ANY($4)
		ORDER BY provider_id, booked_at`, providerIDs, from, to, statuses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Booking
	for rows.Next() {
		var (
			b      Booking
			status string
		)
		if err := rows.Scan(&b.ID, &b.ProviderID, &b.ExaminationID, &b.ClaimantID, &b.Instant, &status); err != nil {
			return nil, err
		}
		b.Instant = b.Instant.UTC()
		b.Status = BookingStatus(status)
		items = append(items, b)
	}
	return items, rows.Err()
}

func (s *PostgresStore) ListDeclines(ctx context.Context, examinationID, claimantID string) ([]DeclineRecord, error) {
	rows, err := s.db.Query(ctx, `SELECT examiner_id, claimant_id, examination_id FROM examiner_declines
		WHERE examination_id = $1 AND claimant_id = $2`, examinationID, claimantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []DeclineRecord
	for rows.Next() {
		var d DeclineRecord
		if err := rows.Scan(&d.ExaminerID, &d.ClaimantID, &d.ExaminationID); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}
