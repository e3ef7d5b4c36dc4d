package profiles

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spring2life/telehealth-portal/internal/identity"
)

// Querier is the subset of pgxpool.Pool the repository needs; pgxmock
// satisfies it in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores profiles in the relational database.
type PostgresRepository struct {
	pool Querier
}

// NewPostgresRepository initializes a repo backed by pgx.
func NewPostgresRepository(pool Querier) *PostgresRepository {
	if pool == nil {
		panic("profiles: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

const profileColumns = `id, email, full_name, role, phone, timezone, avatar_url, bio, specialty, telehealth, hourly_rate, is_active, created_at`

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	var role string
	if err := row.Scan(
		&p.ID,
		&p.Email,
		&p.FullName,
		&role,
		&p.Phone,
		&p.Timezone,
		&p.AvatarURL,
		&p.Bio,
		&p.Specialty,
		&p.Telehealth,
		&p.HourlyRate,
		&p.IsActive,
		&p.CreatedAt,
	); err != nil {
		return nil, err
	}
	p.Role = identity.Role(role)
	return &p, nil
}

// GetByID fetches a profile by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	profile, err := scanProfile(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("profiles: select by id: %w", err)
	}
	return profile, nil
}

// FindByEmail fetches a profile by email, case-insensitively.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE lower(email) = lower($1)`
	profile, err := scanProfile(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("profiles: select by email: %w", err)
	}
	return profile, nil
}

// ListProviders returns provider profiles ordered by display name.
func (r *PostgresRepository) ListProviders(ctx context.Context, activeOnly bool) ([]*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE role = 'provider'`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY full_name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("profiles: list providers: %w", err)
	}
	defer rows.Close()

	var providers []*Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("profiles: scan provider: %w", err)
		}
		providers = append(providers, profile)
	}
	return providers, rows.Err()
}

// Upsert inserts or replaces a profile keyed by id.
func (r *PostgresRepository) Upsert(ctx context.Context, profile *Profile) error {
	query := `
		INSERT INTO profiles (id, email, full_name, role, phone, timezone, avatar_url, bio, specialty, telehealth, hourly_rate, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			full_name = EXCLUDED.full_name,
			role = EXCLUDED.role,
			phone = EXCLUDED.phone,
			timezone = EXCLUDED.timezone,
			avatar_url = EXCLUDED.avatar_url,
			bio = EXCLUDED.bio,
			specialty = EXCLUDED.specialty,
			telehealth = EXCLUDED.telehealth,
			hourly_rate = EXCLUDED.hourly_rate,
			is_active = EXCLUDED.is_active,
			updated_at = now()
	`
	if _, err := r.pool.Exec(ctx, query,
		profile.ID,
		profile.Email,
		profile.FullName,
		string(profile.Role),
		profile.Phone,
		profile.Timezone,
		profile.AvatarURL,
		profile.Bio,
		profile.Specialty,
		profile.Telehealth,
		profile.HourlyRate,
		profile.IsActive,
	); err != nil {
		return fmt.Errorf("profiles: upsert: %w", err)
	}
	return nil
}
