package appointments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository stores appointments. Slot exclusivity is owned by the partial
// unique index appointments_slot_key; a concurrent double-book surfaces here
// as ErrSlotTaken no matter what the pre-check saw.
type Repository struct {
	db querier
}

// NewRepository initializes a repo backed by pgxpool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &Repository{db: pool}
}

func newRepositoryWithQuerier(db querier) *Repository {
	if db == nil {
		panic("appointments: querier required")
	}
	return &Repository{db: db}
}

const appointmentColumns = `
	a.id, a.patient_id, a.service_id,
	p.name, p.phone,
	to_char(a.date, 'YYYY-MM-DD'), to_char(a.time, 'HH24:MI'),
	a.duration_minutes, a.status, a.notes, a.created_at, a.updated_at
`

// Create inserts a new appointment row.
func (r *Repository) Create(ctx context.Context, a *Appointment) error {
	query := `
		INSERT INTO appointments (id, patient_id, service_id, date, time, duration_minutes, status, notes)
		VALUES ($1, $2, $3, $4::date, $5::time, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		a.ID,
		a.PatientID,
		a.ServiceID,
		a.Date,
		a.Time,
		a.Duration,
		a.Status,
		a.Notes,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("appointments: insert failed: %w", err)
	}
	return nil
}

// GetByID fetches one appointment joined with its patient.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		WHERE a.id = $1
	`
	a, err := scanAppointment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// ExistsActiveAt reports whether any non-cancelled appointment holds the
// (date, time) slot. This is the same predicate the availability engine
// serves, so the two can never disagree.
func (r *Repository) ExistsActiveAt(ctx context.Context, date, timeOfDay string) (bool, error) {
	query := `
		SELECT 1
		FROM appointments
		WHERE date = $1::date AND time = $2::time AND status <> 'cancelled'
	`
	var one int
	err := r.db.QueryRow(ctx, query, date, timeOfDay).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("appointments: slot check failed: %w", err)
	}
	return true, nil
}

// ActiveTimesByDate returns the HH:MM start times of non-cancelled
// appointments on the given date, in ascending order.
func (r *Repository) ActiveTimesByDate(ctx context.Context, date string) ([]string, error) {
	query := `
		SELECT to_char(time, 'HH24:MI')
		FROM appointments
		WHERE date = $1::date AND status <> 'cancelled'
		ORDER BY time
	`
	rows, err := r.db.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("appointments: times by date failed: %w", err)
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("appointments: scan time failed: %w", err)
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

// ListByDate returns all appointments on a date, cancelled included, with
// patient details joined.
func (r *Repository) ListByDate(ctx context.Context, date string) ([]*Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		WHERE a.date = $1::date
		ORDER BY a.time
	`
	rows, err := r.db.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("appointments: list by date failed: %w", err)
	}
	defer rows.Close()

	var list []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// UpdateStatus writes the new status. Transition legality is checked by the
// caller against the loaded row.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `
		UPDATE appointments
		SET status = $2, updated_at = now()
		WHERE id = $1
	`
	ct, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("appointments: update status failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	if err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.ServiceID,
		&a.PatientName,
		&a.PatientPhone,
		&a.Date,
		&a.Time,
		&a.Duration,
		&a.Status,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("appointments: scan failed: %w", err)
	}
	return &a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
