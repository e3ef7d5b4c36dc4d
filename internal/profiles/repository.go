package profiles

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/spring2life/telehealth-portal/internal/identity"
)

// Repository defines the interface for profile storage
type Repository interface {
	GetByID(ctx context.Context, id string) (*Profile, error)
	FindByEmail(ctx context.Context, email string) (*Profile, error)
	ListProviders(ctx context.Context, activeOnly bool) ([]*Profile, error)
	Upsert(ctx context.Context, profile *Profile) error
}

// InMemoryRepository is the fallback Repository used when no database is
// configured, mirroring the original portal's local-storage mode.
type InMemoryRepository struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		profiles: make(map[string]*Profile),
	}
}

// GetByID retrieves a profile by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, ok := r.profiles[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	clone := *profile
	return &clone, nil
}

// FindByEmail retrieves a profile by email, case-insensitively.
func (r *InMemoryRepository) FindByEmail(ctx context.Context, email string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(email))
	for _, profile := range r.profiles {
		if strings.ToLower(profile.Email) == needle {
			clone := *profile
			return &clone, nil
		}
	}
	return nil, ErrProfileNotFound
}

// ListProviders returns provider profiles, optionally only active ones.
func (r *InMemoryRepository) ListProviders(ctx context.Context, activeOnly bool) ([]*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var providers []*Profile
	for _, profile := range r.profiles {
		if profile.Role != identity.RoleProvider {
			continue
		}
		if activeOnly && !profile.IsActive {
			continue
		}
		clone := *profile
		providers = append(providers, &clone)
	}
	sort.Slice(providers, func(i, j int) bool {
		return providers[i].FullName < providers[j].FullName
	})
	return providers, nil
}

// Upsert inserts or replaces a profile.
func (r *InMemoryRepository) Upsert(ctx context.Context, profile *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *profile
	r.profiles[profile.ID] = &clone
	return nil
}
