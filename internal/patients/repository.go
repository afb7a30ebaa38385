package patients

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

// Repository stores patients in the relational database. Phone uniqueness is
// owned by the patients_phone_key index; this layer translates the constraint
// violation into ErrPhoneExists.
type Repository struct {
	db querier
}

// NewRepository initializes a repo backed by pgxpool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("patients: pgx pool required")
	}
	return &Repository{db: pool}
}

func newRepositoryWithQuerier(db querier) *Repository {
	if db == nil {
		panic("patients: querier required")
	}
	return &Repository{db: db}
}

const patientColumns = `
	id, name, phone, email,
	to_char(date_of_birth, 'YYYY-MM-DD'),
	gender, address, medical_history, created_at, updated_at
`

// Create inserts a new patient row.
func (r *Repository) Create(ctx context.Context, p *Patient) error {
	query := `
		INSERT INTO patients (id, name, phone, email, date_of_birth, gender, address, medical_history)
		VALUES ($1, $2, $3, $4, $5::date, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		p.ID,
		p.Name,
		p.Phone,
		p.Email,
		p.DateOfBirth,
		p.Gender,
		p.Address,
		p.MedicalHistory,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrPhoneExists
		}
		return fmt.Errorf("patients: insert failed: %w", err)
	}
	return nil
}

// GetByID fetches a patient by id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

// GetByPhone fetches a patient by phone number.
func (r *Repository) GetByPhone(ctx context.Context, phone string) (*Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE phone = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, phone))
}

// Update persists the full mutable field set of p.
func (r *Repository) Update(ctx context.Context, p *Patient) error {
	query := `
		UPDATE patients
		SET name = $2, phone = $3, email = $4, date_of_birth = $5::date,
		    gender = $6, address = $7, medical_history = $8, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		p.ID,
		p.Name,
		p.Phone,
		p.Email,
		p.DateOfBirth,
		p.Gender,
		p.Address,
		p.MedicalHistory,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if isUniqueViolation(err) {
			return ErrPhoneExists
		}
		return fmt.Errorf("patients: update failed: %w", err)
	}
	return nil
}

// List returns patients, optionally filtered by gender, newest first.
func (r *Repository) List(ctx context.Context, gender string) ([]*Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients`
	args := []any{}
	if gender != "" {
		query += ` WHERE gender = $1`
		args = append(args, gender)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("patients: list failed: %w", err)
	}
	defer rows.Close()

	var list []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (r *Repository) scanOne(row pgx.Row) (*Patient, error) {
	p, err := scanPatient(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Phone,
		&p.Email,
		&p.DateOfBirth,
		&p.Gender,
		&p.Address,
		&p.MedicalHistory,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("patients: scan failed: %w", err)
	}
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
