package availability

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the repository needs; pgxmock
// satisfies it in tests.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores weekly availability in the relational database.
type PostgresRepository struct {
	pool PgxPool
}

// NewPostgresRepository initializes a repo backed by pgx.
func NewPostgresRepository(pool PgxPool) *PostgresRepository {
	if pool == nil {
		panic("availability: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// Get returns the provider's weekly slots ordered by day and start time.
func (r *PostgresRepository) Get(ctx context.Context, providerID string) ([]Slot, error) {
	query := `
		SELECT day_of_week, start_time, end_time
		FROM provider_availability
		WHERE provider_id = $1
		ORDER BY day_of_week, start_time
	`
	rows, err := r.pool.Query(ctx, query, providerID)
	if err != nil {
		return nil, fmt.Errorf("availability: select: %w", err)
	}
	defer rows.Close()

	var slots []Slot
	for rows.Next() {
		var slot Slot
		if err := rows.Scan(&slot.DayOfWeek, &slot.StartTime, &slot.EndTime); err != nil {
			return nil, fmt.Errorf("availability: scan: %w", err)
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// Replace swaps the provider's weekly slots inside a single transaction so
// readers never observe a partially applied week.
func (r *PostgresRepository) Replace(ctx context.Context, providerID string, slots []Slot) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("availability: begin replace: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM provider_availability WHERE provider_id = $1`, providerID); err != nil {
		return fmt.Errorf("availability: clear previous: %w", err)
	}

	for _, slot := range slots {
		if _, err := tx.Exec(ctx, `
			INSERT INTO provider_availability (provider_id, day_of_week, start_time, end_time)
			VALUES ($1, $2, $3, $4)
		`, providerID, slot.DayOfWeek, slot.StartTime, slot.EndTime); err != nil {
			return fmt.Errorf("availability: insert slot: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("availability: commit replace: %w", err)
	}
	return nil
}
