package profiles

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"

	"github.com/spring2life/telehealth-portal/internal/identity"
)

func seedProfiles(t *testing.T, repo *InMemoryRepository) {
	t.Helper()
	ctx := context.Background()
	fixtures := []*Profile{
		{ID: "user-1", Email: "jane@example.com", FullName: "Jane Doe", Role: identity.RoleUser, IsActive: true},
		{ID: "provider-1", Email: "dr.smith@spring2life.com", FullName: "Dr. Sarah Smith", Role: identity.RoleProvider, Specialty: "Clinical Psychologist", IsActive: true},
		{ID: "provider-2", Email: "dr.jones@spring2life.com", FullName: "Dr. Michael Jones", Role: identity.RoleProvider, Specialty: "Psychiatrist", IsActive: false},
	}
	for _, p := range fixtures {
		if err := repo.Upsert(ctx, p); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func TestInMemoryGetByID(t *testing.T) {
	repo := NewInMemoryRepository()
	seedProfiles(t, repo)

	profile, err := repo.GetByID(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.FullName != "Jane Doe" {
		t.Errorf("unexpected profile: %+v", profile)
	}

	if _, err := repo.GetByID(context.Background(), "missing"); err != ErrProfileNotFound {
		t.Errorf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestInMemoryFindByEmail(t *testing.T) {
	repo := NewInMemoryRepository()
	seedProfiles(t, repo)

	profile, err := repo.FindByEmail(context.Background(), "DR.SMITH@spring2life.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.ID != "provider-1" {
		t.Errorf("expected provider-1, got %s", profile.ID)
	}
}

func TestInMemoryListProviders(t *testing.T) {
	repo := NewInMemoryRepository()
	seedProfiles(t, repo)

	all, err := repo.ListProviders(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(all))
	}

	active, err := repo.ListProviders(context.Background(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(active) != 1 || active[0].ID != "provider-1" {
		t.Fatalf("expected only provider-1 active, got %+v", active)
	}
}

func TestInMemoryCopiesOnRead(t *testing.T) {
	repo := NewInMemoryRepository()
	seedProfiles(t, repo)

	first, _ := repo.GetByID(context.Background(), "user-1")
	first.FullName = "Mutated"

	second, _ := repo.GetByID(context.Background(), "user-1")
	if second.FullName != "Jane Doe" {
		t.Error("repository must not expose internal state to callers")
	}
}

func profileRow(id, email, name, role string, active bool, created time.Time) []any {
	return []any{id, email, name, role, "", "", "", "", "", false, 0, active, created}
}

func TestPostgresGetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	now := time.Now().UTC()

	cols := []string{"id", "email", "full_name", "role", "phone", "timezone", "avatar_url", "bio", "specialty", "telehealth", "hourly_rate", "is_active", "created_at"}
	mock.ExpectQuery("SELECT (.+) FROM profiles WHERE id").
		WithArgs("provider-1").
		WillReturnRows(pgxmock.NewRows(cols).AddRow(profileRow("provider-1", "dr@x.com", "Dr. X", "provider", true, now)...))

	profile, err := repo.GetByID(context.Background(), "provider-1")
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if profile.Role != identity.RoleProvider || !profile.IsActive {
		t.Errorf("unexpected profile: %+v", profile)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresListProvidersActiveOnly(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	now := time.Now().UTC()

	cols := []string{"id", "email", "full_name", "role", "phone", "timezone", "avatar_url", "bio", "specialty", "telehealth", "hourly_rate", "is_active", "created_at"}
	mock.ExpectQuery("SELECT (.+) FROM profiles WHERE role = 'provider' AND is_active").
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(profileRow("provider-1", "a@x.com", "Dr. A", "provider", true, now)...).
			AddRow(profileRow("provider-2", "b@x.com", "Dr. B", "provider", true, now)...))

	providers, err := repo.ListProviders(context.Background(), true)
	if err != nil {
		t.Fatalf("list providers: %v", err)
	}
	if len(providers) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(providers))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
