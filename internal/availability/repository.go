package availability

import (
	"context"
	"sync"
)

// Repository defines the interface for weekly availability storage.
// Replace has full-replace semantics: the new set entirely supersedes the
// old one, there is no partial merge.
type Repository interface {
	Get(ctx context.Context, providerID string) ([]Slot, error)
	Replace(ctx context.Context, providerID string, slots []Slot) error
}

// InMemoryRepository is the fallback Repository used when no database is
// configured.
type InMemoryRepository struct {
	mu    sync.RWMutex
	weeks map[string][]Slot
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		weeks: make(map[string][]Slot),
	}
}

// Get returns the provider's weekly slots; an unknown provider has none.
func (r *InMemoryRepository) Get(ctx context.Context, providerID string) ([]Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	slots := r.weeks[providerID]
	out := make([]Slot, len(slots))
	copy(out, slots)
	return out, nil
}

// Replace atomically swaps the provider's weekly slots.
func (r *InMemoryRepository) Replace(ctx context.Context, providerID string, slots []Slot) error {
	next := make([]Slot, len(slots))
	copy(next, slots)

	r.mu.Lock()
	r.weeks[providerID] = next
	r.mu.Unlock()
	return nil
}
