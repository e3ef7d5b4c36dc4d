package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgxpool.Pool the repository needs; pgxmock
// satisfies it in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores appointments in the relational database.
type PostgresRepository struct {
	pool Querier
}

// NewPostgresRepository initializes a repo backed by pgx.
func NewPostgresRepository(pool Querier) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

const apptColumns = `id, user_id, provider_id, starts_at, duration_minutes, status, notes, cancelled_reason, rescheduled_from, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var status string
	if err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.ProviderID,
		&a.StartsAt,
		&a.DurationMinutes,
		&status,
		&a.Notes,
		&a.CancelledReason,
		&a.RescheduledFrom,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.Status = Status(status)
	return &a, nil
}

// Create inserts a new appointment row.
func (r *PostgresRepository) Create(ctx context.Context, appt *Appointment) error {
	query := `
		INSERT INTO appointments (id, user_id, provider_id, starts_at, duration_minutes, status, notes, cancelled_reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := r.pool.Exec(ctx, query,
		appt.ID,
		appt.UserID,
		appt.ProviderID,
		appt.StartsAt,
		appt.DurationMinutes,
		string(appt.Status),
		appt.Notes,
		appt.CancelledReason,
		appt.CreatedAt,
	); err != nil {
		return fmt.Errorf("appointments: insert: %w", err)
	}
	return nil
}

// GetByID fetches a single appointment.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	query := `SELECT ` + apptColumns + ` FROM appointments WHERE id = $1`
	appt, err := scanAppointment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: select by id: %w", err)
	}
	return appt, nil
}

// List returns appointments matching the filter, soonest first.
func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]*Appointment, error) {
	query := `SELECT ` + apptColumns + ` FROM appointments`
	var (
		clauses []string
		args    []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.UserID != "" {
		clauses = append(clauses, `user_id = `+arg(f.UserID))
	}
	if f.ProviderID != "" {
		clauses = append(clauses, `provider_id = `+arg(f.ProviderID))
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		clauses = append(clauses, `status = ANY(`+arg(statuses)+`)`)
	}
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY starts_at, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	defer rows.Close()

	var appts []*Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		appts = append(appts, appt)
	}
	return appts, rows.Err()
}

// UpdateStatus performs the conditional write: the UPDATE matches on both id
// and the expected current status, so a transition that lost a race updates
// zero rows instead of clobbering the winner.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expected Status, upd StatusUpdate) (*Appointment, bool, error) {
	query := `
		UPDATE appointments SET
			status = $3,
			cancelled_reason = CASE WHEN $3 = 'cancelled' THEN COALESCE($4, cancelled_reason) ELSE '' END,
			starts_at = COALESCE($5, starts_at),
			duration_minutes = COALESCE($6, duration_minutes),
			notes = COALESCE($7, notes),
			rescheduled_from = COALESCE($8, rescheduled_from),
			updated_at = now()
		WHERE id = $1 AND status = $2
		RETURNING ` + apptColumns
	appt, err := scanAppointment(r.pool.QueryRow(ctx, query,
		id,
		string(expected),
		string(upd.Status),
		upd.CancelledReason,
		upd.StartsAt,
		upd.DurationMinutes,
		upd.Notes,
		upd.RescheduledFrom,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("appointments: update status: %w", err)
	}
	return appt, true, nil
}
