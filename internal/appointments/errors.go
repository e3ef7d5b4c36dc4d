package appointments

import "errors"

var (
	// ErrAppointmentNotFound is returned when no appointment matches the id.
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrUserNotFound is returned when the booking user cannot be resolved.
	ErrUserNotFound = errors.New("user profile not found")

	// ErrProviderNotFound is returned when the provider cannot be resolved.
	ErrProviderNotFound = errors.New("provider profile not found")

	// ErrInvalidDuration is returned for non-positive durations.
	ErrInvalidDuration = errors.New("duration must be a positive number of minutes")

	// ErrSlotUnavailable is returned when the requested time is not currently
	// bookable; callers should re-fetch slots and retry.
	ErrSlotUnavailable = errors.New("requested time is not available")

	// ErrInvalidTransition is returned when no transition rule matches the
	// appointment's current state, the operation, and the actor.
	ErrInvalidTransition = errors.New("transition not permitted")

	// ErrAlreadyInState is returned when the appointment is already in the
	// operation's target state, letting callers tell a lost race from a
	// duplicate request.
	ErrAlreadyInState = errors.New("appointment already in requested state")

	// ErrReasonRequired is returned when a cancellation needs a reason.
	ErrReasonRequired = errors.New("cancellation reason required")

	// ErrStartsAtNotFuture is returned when a reschedule target is not in
	// the future.
	ErrStartsAtNotFuture = errors.New("new start time must be in the future")

	// ErrNotYetElapsed is returned when completing an appointment whose
	// window has not finished.
	ErrNotYetElapsed = errors.New("appointment has not finished yet")

	// ErrForbidden is returned when the actor does not own the appointment.
	ErrForbidden = errors.New("actor may not modify this appointment")
)

// Kind maps an error to the stable machine-readable kind surfaced to
// clients alongside the human-readable reason.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrAppointmentNotFound),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrProviderNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidDuration),
		errors.Is(err, ErrReasonRequired),
		errors.Is(err, ErrStartsAtNotFuture):
		return "validation"
	case errors.Is(err, ErrSlotUnavailable):
		return "slot_unavailable"
	case errors.Is(err, ErrAlreadyInState):
		return "already_in_state"
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrNotYetElapsed):
		return "invalid_transition"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	default:
		return "storage"
	}
}
