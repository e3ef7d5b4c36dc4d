package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Filter narrows a listing. Zero-value fields are ignored.
type Filter struct {
	UserID     string
	ProviderID string
	Statuses   []Status
}

func (f Filter) matches(a *Appointment) bool {
	if f.UserID != "" && a.UserID != f.UserID {
		return false
	}
	if f.ProviderID != "" && a.ProviderID != f.ProviderID {
		return false
	}
	if len(f.Statuses) > 0 {
		ok := false
		for _, s := range f.Statuses {
			if a.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// StatusUpdate is the payload of a conditional status write. Nil pointer
// fields leave the column untouched.
type StatusUpdate struct {
	Status          Status
	CancelledReason *string
	StartsAt        *time.Time
	DurationMinutes *int
	Notes           *string
	RescheduledFrom *time.Time
}

// Repository is the persistence port for appointments.
type Repository interface {
	Create(ctx context.Context, appt *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	List(ctx context.Context, f Filter) ([]*Appointment, error)

	// UpdateStatus applies upd only if the row's current status still
	// equals expected. matched reports whether the guard held; when it did
	// not, updated is nil and the caller should re-read to classify the
	// conflict.
	UpdateStatus(ctx context.Context, id uuid.UUID, expected Status, upd StatusUpdate) (updated *Appointment, matched bool, err error)
}

// InMemoryRepository keeps appointments in a map. It backs local development
// and tests.
type InMemoryRepository struct {
	mu    sync.RWMutex
	appts map[uuid.UUID]*Appointment
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{appts: make(map[uuid.UUID]*Appointment)}
}

func (r *InMemoryRepository) Create(_ context.Context, appt *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *appt
	r.appts[appt.ID] = &cp
	return nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *InMemoryRepository) List(_ context.Context, f Filter) ([]*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Appointment, 0)
	for _, a := range r.appts {
		if f.matches(a) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].StartsAt.Before(out[j].StartsAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *InMemoryRepository) UpdateStatus(_ context.Context, id uuid.UUID, expected Status, upd StatusUpdate) (*Appointment, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appts[id]
	if !ok {
		return nil, false, ErrAppointmentNotFound
	}
	if a.Status != expected {
		return nil, false, nil
	}
	a.Status = upd.Status
	if upd.Status == StatusCancelled {
		if upd.CancelledReason != nil {
			a.CancelledReason = *upd.CancelledReason
		}
	} else {
		a.CancelledReason = ""
	}
	if upd.StartsAt != nil {
		a.StartsAt = *upd.StartsAt
	}
	if upd.DurationMinutes != nil {
		a.DurationMinutes = *upd.DurationMinutes
	}
	if upd.Notes != nil {
		a.Notes = *upd.Notes
	}
	if upd.RescheduledFrom != nil {
		from := *upd.RescheduledFrom
		a.RescheduledFrom = &from
	}
	now := time.Now().UTC()
	a.UpdatedAt = &now
	cp := *a
	return &cp, true, nil
}
