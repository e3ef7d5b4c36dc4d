package notify

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Repository is the persistence port for the notification feed.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]*Notification, error)

	// MarkRead flips the read flag. The userID guard keeps one user from
	// acknowledging another user's feed.
	MarkRead(ctx context.Context, id uuid.UUID, userID string) error
}

// InMemoryRepository keeps the feed in a map for local development and tests.
type InMemoryRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*Notification
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{items: make(map[uuid.UUID]*Notification)}
}

func (r *InMemoryRepository) Create(_ context.Context, n *Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *n
	r.items[n.ID] = &cp
	return nil
}

func (r *InMemoryRepository) ListForUser(_ context.Context, userID string, unreadOnly bool) ([]*Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Notification, 0)
	for _, n := range r.items {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		cp := *n
		out = append(out, &cp)
	}
	// Newest first, matching the feed the portal renders.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *InMemoryRepository) MarkRead(_ context.Context, id uuid.UUID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok || n.UserID != userID {
		return ErrNotificationNotFound
	}
	n.Read = true
	return nil
}
