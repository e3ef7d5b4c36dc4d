package appointments

import (
	"fmt"
	"time"

	"github.com/spring2life/telehealth-portal/internal/identity"
)

// Operation is a lifecycle transition requested by an actor.
type Operation string

const (
	OpConfirm    Operation = "confirm"
	OpCancel     Operation = "cancel"
	OpReschedule Operation = "reschedule"
	OpComplete   Operation = "complete"
)

// ParseOperation validates a transition name from the wire.
func ParseOperation(raw string) (Operation, error) {
	op := Operation(raw)
	switch op {
	case OpConfirm, OpCancel, OpReschedule, OpComplete:
		return op, nil
	}
	return "", fmt.Errorf("%w: unknown operation %q", ErrInvalidTransition, raw)
}

// Target returns the status the operation moves an appointment into.
func (op Operation) Target() Status {
	switch op {
	case OpConfirm:
		return StatusConfirmed
	case OpCancel:
		return StatusCancelled
	case OpReschedule:
		return StatusRescheduled
	case OpComplete:
		return StatusCompleted
	}
	return ""
}

// TransitionInput carries everything the lifecycle rules need to decide a
// transition. Zero NewStartsAt means the start time is unchanged.
type TransitionInput struct {
	Operation          Operation
	Actor              identity.Role
	Reason             string
	NewStartsAt        time.Time
	NewDurationMinutes int
	Now                time.Time
}

// Decide applies the transition table to the appointment's current state.
// It returns the target status, or an error naming the violated guard.
// Decide is pure: the caller is responsible for the conditional write that
// makes the transition stick (see Repository.UpdateStatus).
//
//	pending    --confirm (provider, admin)-----------------> confirmed
//	pending    --cancel (user, provider, admin)------------> cancelled
//	pending    --reschedule (admin override)---------------> rescheduled
//	confirmed  --cancel (user, provider, admin; reason)----> cancelled
//	confirmed  --reschedule (user, provider, admin)--------> rescheduled
//	confirmed  --complete (system, admin; after end)-------> completed
//	rescheduled behaves as confirmed awaiting re-confirmation
//	cancelled, completed are terminal
func Decide(appt *Appointment, in TransitionInput) (Status, error) {
	target := in.Operation.Target()
	if target == "" {
		return "", fmt.Errorf("%w: unknown operation %q", ErrInvalidTransition, in.Operation)
	}
	if appt.Status == target {
		return "", fmt.Errorf("%w: %s", ErrAlreadyInState, appt.Status)
	}
	if appt.Status.Terminal() {
		return "", fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, appt.Status)
	}

	switch in.Operation {
	case OpConfirm:
		if in.Actor != identity.RoleProvider && in.Actor != identity.RoleAdmin {
			return "", fmt.Errorf("%w: %s may not confirm", ErrInvalidTransition, in.Actor)
		}
		if appt.Status != StatusPending && appt.Status != StatusRescheduled {
			return "", fmt.Errorf("%w: cannot confirm from %s", ErrInvalidTransition, appt.Status)
		}

	case OpCancel:
		switch in.Actor {
		case identity.RoleUser, identity.RoleProvider, identity.RoleAdmin:
		default:
			return "", fmt.Errorf("%w: %s may not cancel", ErrInvalidTransition, in.Actor)
		}
		// A patient withdrawing a request they just made needs no reason;
		// every other cancellation does.
		needsReason := appt.Status != StatusPending || in.Actor != identity.RoleUser
		if needsReason && in.Reason == "" {
			return "", ErrReasonRequired
		}

	case OpReschedule:
		switch appt.Status {
		case StatusConfirmed:
			switch in.Actor {
			case identity.RoleUser, identity.RoleProvider, identity.RoleAdmin:
			default:
				return "", fmt.Errorf("%w: %s may not reschedule", ErrInvalidTransition, in.Actor)
			}
		case StatusPending:
			// Administrative override only.
			if in.Actor != identity.RoleAdmin {
				return "", fmt.Errorf("%w: only an admin may reschedule a pending appointment", ErrInvalidTransition)
			}
		default:
			return "", fmt.Errorf("%w: cannot reschedule from %s", ErrInvalidTransition, appt.Status)
		}
		if !in.NewStartsAt.After(in.Now) {
			return "", ErrStartsAtNotFuture
		}
		if in.NewDurationMinutes < 0 {
			return "", ErrInvalidDuration
		}

	case OpComplete:
		if in.Actor != identity.RoleAdmin && in.Actor != identity.RoleSystem {
			return "", fmt.Errorf("%w: %s may not complete", ErrInvalidTransition, in.Actor)
		}
		if appt.Status != StatusConfirmed {
			return "", fmt.Errorf("%w: cannot complete from %s", ErrInvalidTransition, appt.Status)
		}
		if in.Now.Before(appt.EndsAt()) {
			return "", ErrNotYetElapsed
		}
	}

	return target, nil
}
