// Package appointments implements the booking coordinator and the
// appointment lifecycle engine.
package appointments

import (
	"time"

	"github.com/google/uuid"

	"github.com/spring2life/telehealth-portal/internal/availability"
)

// Status is an appointment's lifecycle state.
type Status string

const (
	StatusPending     Status = "pending"
	StatusConfirmed   Status = "confirmed"
	StatusCancelled   Status = "cancelled"
	StatusRescheduled Status = "rescheduled"
	StatusCompleted   Status = "completed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusRescheduled, StatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether no transition leads out of s.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// activeStatuses are the states that block a provider's calendar.
var activeStatuses = []Status{StatusPending, StatusConfirmed, StatusRescheduled}

// Appointment is a booking between a patient and a provider. Appointments
// are retained as history and never deleted; status changes go through the
// lifecycle engine only.
type Appointment struct {
	ID              uuid.UUID  `json:"id"`
	UserID          string     `json:"user_id"`
	ProviderID      string     `json:"provider_id"`
	StartsAt        time.Time  `json:"starts_at"`
	DurationMinutes int        `json:"duration_minutes"`
	Status          Status     `json:"status"`
	Notes           string     `json:"notes,omitempty"`
	CancelledReason string     `json:"cancelled_reason,omitempty"`
	RescheduledFrom *time.Time `json:"rescheduled_from,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// EndsAt returns the exclusive end of the appointment window.
func (a *Appointment) EndsAt() time.Time {
	return a.StartsAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Window returns the half-open busy interval this appointment occupies.
func (a *Appointment) Window() availability.Interval {
	return availability.Interval{Start: a.StartsAt, End: a.EndsAt()}
}

// View is an appointment hydrated with display names for the UI. Names are
// re-derived from profiles on every read; they are never the source of truth
// for identity and never persisted on the appointment row.
type View struct {
	Appointment
	ProviderName   string `json:"provider_name"`
	ProviderAvatar string `json:"provider_avatar,omitempty"`
	UserName       string `json:"user_name"`
}
