package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/spring2life/telehealth-portal/internal/availability"
	"github.com/spring2life/telehealth-portal/internal/identity"
	"github.com/spring2life/telehealth-portal/internal/observability/metrics"
	"github.com/spring2life/telehealth-portal/internal/profiles"
	"github.com/spring2life/telehealth-portal/pkg/logging"
)

// Notifier delivers a notification to one recipient. Delivery is best
// effort: the service logs failures and never rolls back a transition
// because a notification could not be sent.
type Notifier interface {
	Notify(ctx context.Context, userID, message string, meta map[string]string) error
}

// BookRequest asks for a new pending appointment.
type BookRequest struct {
	UserID          string
	ProviderID      string
	StartsAt        time.Time
	DurationMinutes int
	Notes           string
}

// TransitionRequest asks for a lifecycle transition on an appointment.
type TransitionRequest struct {
	Operation          Operation
	Actor              identity.Actor
	Reason             string
	NewStartsAt        time.Time
	NewDurationMinutes int
	Notes              *string
}

// Service coordinates booking, slot generation, and the lifecycle engine.
type Service struct {
	repo     Repository
	profiles profiles.Repository
	avail    availability.Repository
	notifier Notifier
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger
	tracer   trace.Tracer

	horizonDays        int
	granularityMinutes int
	now                func() time.Time
}

// NewService constructs the appointment service. notifier and m may be nil.
func NewService(repo Repository, profileRepo profiles.Repository, availRepo availability.Repository, notifier Notifier, m *metrics.BookingMetrics, logger *logging.Logger, horizonDays, granularityMinutes int) *Service {
	if repo == nil {
		panic("appointments: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if horizonDays <= 0 {
		horizonDays = availability.DefaultHorizonDays
	}
	if granularityMinutes <= 0 {
		granularityMinutes = availability.DefaultGranularityMinutes
	}
	return &Service{
		repo:               repo,
		profiles:           profileRepo,
		avail:              availRepo,
		notifier:           notifier,
		metrics:            m,
		logger:             logger,
		tracer:             otel.Tracer("portal.internal.appointments"),
		horizonDays:        horizonDays,
		granularityMinutes: granularityMinutes,
		now:                time.Now,
	}
}

// SetClock overrides the service clock. Tests only.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// AvailableSlots expands the provider's weekly availability into bookable
// slots over the horizon, excluding windows held by active appointments.
// horizonDays and granularityMinutes override the configured defaults when
// positive.
func (s *Service) AvailableSlots(ctx context.Context, providerID string, horizonDays, granularityMinutes int) ([]availability.BookableSlot, error) {
	ctx, span := s.tracer.Start(ctx, "appointments.AvailableSlots",
		trace.WithAttributes(attribute.String("provider_id", providerID)))
	defer span.End()

	if _, err := s.requireProvider(ctx, providerID); err != nil {
		return nil, err
	}
	return s.generateSlots(ctx, providerID, horizonDays, granularityMinutes, nil)
}

// generateSlots builds the current slot sequence for a provider. Windows in
// exclude are removed from the busy set, which lets a reschedule treat the
// appointment's own window as free.
func (s *Service) generateSlots(ctx context.Context, providerID string, horizonDays, granularityMinutes int, exclude []availability.Interval) ([]availability.BookableSlot, error) {
	if horizonDays <= 0 {
		horizonDays = s.horizonDays
	}
	if granularityMinutes <= 0 {
		granularityMinutes = s.granularityMinutes
	}
	week, err := s.avail.Get(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("appointments: load availability: %w", err)
	}
	busy, err := s.busyWindows(ctx, providerID, exclude)
	if err != nil {
		return nil, err
	}

	started := s.now()
	slots := availability.Generate(week, horizonDays, granularityMinutes, started, busy)
	s.metrics.ObserveSlotGen(s.now().Sub(started).Seconds())
	return slots, nil
}

// busyWindows collects the half-open intervals held by the provider's
// pending, confirmed, and rescheduled appointments.
func (s *Service) busyWindows(ctx context.Context, providerID string, exclude []availability.Interval) ([]availability.Interval, error) {
	active, err := s.repo.List(ctx, Filter{ProviderID: providerID, Statuses: activeStatuses})
	if err != nil {
		return nil, fmt.Errorf("appointments: load busy windows: %w", err)
	}
	busy := make([]availability.Interval, 0, len(active))
	for _, a := range active {
		w := a.Window()
		if containsWindow(exclude, w) {
			continue
		}
		busy = append(busy, w)
	}
	return busy, nil
}

func containsWindow(set []availability.Interval, w availability.Interval) bool {
	for _, iv := range set {
		if iv.Start.Equal(w.Start) && iv.End.Equal(w.End) {
			return true
		}
	}
	return false
}

// Book validates the request against the provider's current slots and
// creates a pending appointment. Both parties are notified best-effort.
func (s *Service) Book(ctx context.Context, req BookRequest) (*View, error) {
	ctx, span := s.tracer.Start(ctx, "appointments.Book",
		trace.WithAttributes(
			attribute.String("provider_id", req.ProviderID),
			attribute.String("user_id", req.UserID),
		))
	defer span.End()

	view, err := s.book(ctx, req)
	if err != nil {
		s.metrics.RecordBooking(Kind(err))
		return nil, err
	}
	s.metrics.RecordBooking("booked")
	return view, nil
}

func (s *Service) book(ctx context.Context, req BookRequest) (*View, error) {
	if req.DurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}
	user, err := s.profiles.GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, profiles.ErrProfileNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("appointments: resolve user: %w", err)
	}
	provider, err := s.requireProvider(ctx, req.ProviderID)
	if err != nil {
		return nil, err
	}

	if err := s.checkBookable(ctx, req.ProviderID, req.StartsAt, req.DurationMinutes, nil); err != nil {
		return nil, err
	}

	appt := &Appointment{
		ID:              uuid.New(),
		UserID:          req.UserID,
		ProviderID:      req.ProviderID,
		StartsAt:        req.StartsAt,
		DurationMinutes: req.DurationMinutes,
		Status:          StatusPending,
		Notes:           req.Notes,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.repo.Create(ctx, appt); err != nil {
		return nil, err
	}
	s.logger.Info("appointment booked",
		"appointment_id", appt.ID.String(),
		"provider_id", appt.ProviderID,
		"user_id", appt.UserID,
		"starts_at", appt.StartsAt)

	meta := map[string]string{"appointment_id": appt.ID.String(), "status": string(appt.Status)}
	s.emit(ctx, appt.UserID, "Appointment request submitted.", meta)
	s.emit(ctx, appt.ProviderID, "New appointment request received.", meta)

	return s.hydrateWith(appt, provider, user), nil
}

// checkBookable verifies the start matches a currently generated slot and
// that the full requested window is clear of other active appointments.
func (s *Service) checkBookable(ctx context.Context, providerID string, startsAt time.Time, durationMinutes int, exclude []availability.Interval) error {
	slots, err := s.generateSlots(ctx, providerID, 0, 0, exclude)
	if err != nil {
		return err
	}
	found := false
	for _, slot := range slots {
		if slot.StartsAt.Equal(startsAt) {
			found = true
			break
		}
	}
	if !found {
		return ErrSlotUnavailable
	}

	// The slot check covers one granularity step; a longer appointment
	// must also clear the rest of its window.
	end := startsAt.Add(time.Duration(durationMinutes) * time.Minute)
	busy, err := s.busyWindows(ctx, providerID, exclude)
	if err != nil {
		return err
	}
	for _, iv := range busy {
		if iv.Overlaps(startsAt, end) {
			return ErrSlotUnavailable
		}
	}
	return nil
}

// Transition runs one lifecycle operation through the guard table and the
// conditional write, then notifies both parties best-effort.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, req TransitionRequest) (*View, error) {
	ctx, span := s.tracer.Start(ctx, "appointments.Transition",
		trace.WithAttributes(
			attribute.String("appointment_id", id.String()),
			attribute.String("operation", string(req.Operation)),
		))
	defer span.End()

	view, err := s.transition(ctx, id, req)
	if err != nil {
		s.metrics.RecordTransition(string(req.Operation), Kind(err))
		return nil, err
	}
	s.metrics.RecordTransition(string(req.Operation), "applied")
	return view, nil
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, req TransitionRequest) (*View, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(appt, req.Actor); err != nil {
		return nil, err
	}

	now := s.now()
	target, err := Decide(appt, TransitionInput{
		Operation:          req.Operation,
		Actor:              req.Actor.Role,
		Reason:             req.Reason,
		NewStartsAt:        req.NewStartsAt,
		NewDurationMinutes: req.NewDurationMinutes,
		Now:                now,
	})
	if err != nil {
		return nil, err
	}

	upd := StatusUpdate{Status: target, Notes: req.Notes}
	switch req.Operation {
	case OpCancel:
		reason := req.Reason
		upd.CancelledReason = &reason
	case OpReschedule:
		duration := appt.DurationMinutes
		if req.NewDurationMinutes > 0 {
			duration = req.NewDurationMinutes
		}
		// Admins may place an appointment outside published availability;
		// everyone else books from the live slot sequence, with this
		// appointment's own window treated as free.
		if req.Actor.Role != identity.RoleAdmin {
			exclude := []availability.Interval{appt.Window()}
			if err := s.checkBookable(ctx, appt.ProviderID, req.NewStartsAt, duration, exclude); err != nil {
				return nil, err
			}
		}
		starts := req.NewStartsAt
		from := appt.StartsAt
		upd.StartsAt = &starts
		upd.DurationMinutes = &duration
		upd.RescheduledFrom = &from
	}

	updated, matched, err := s.repo.UpdateStatus(ctx, id, appt.Status, upd)
	if err != nil {
		return nil, err
	}
	if !matched {
		// Lost a race. Re-read to tell a duplicate request from a
		// genuinely conflicting transition.
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.Status == target {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyInState, current.Status)
		}
		return nil, fmt.Errorf("%w: appointment moved to %s", ErrInvalidTransition, current.Status)
	}

	s.logger.Info("appointment transitioned",
		"appointment_id", id.String(),
		"operation", string(req.Operation),
		"from", string(appt.Status),
		"to", string(updated.Status))

	meta := map[string]string{"appointment_id": id.String(), "status": string(updated.Status)}
	userMsg, providerMsg := transitionMessages(req.Operation, req.Reason)
	s.emit(ctx, updated.UserID, userMsg, meta)
	s.emit(ctx, updated.ProviderID, providerMsg, meta)

	return s.hydrate(ctx, updated), nil
}

// authorize checks that the actor is a party to the appointment. Admins and
// the system sweeper may act on any appointment.
func authorize(appt *Appointment, actor identity.Actor) error {
	switch actor.Role {
	case identity.RoleAdmin, identity.RoleSystem:
		return nil
	case identity.RoleUser:
		if appt.UserID == actor.ID {
			return nil
		}
	case identity.RoleProvider:
		if appt.ProviderID == actor.ID {
			return nil
		}
	}
	return ErrForbidden
}

func transitionMessages(op Operation, reason string) (userMsg, providerMsg string) {
	switch op {
	case OpConfirm:
		return "Your appointment was confirmed.", "Appointment confirmed."
	case OpCancel:
		msg := "Appointment cancelled."
		if reason != "" {
			msg = fmt.Sprintf("Appointment cancelled: %s", reason)
		}
		return msg, msg
	case OpReschedule:
		return "Your appointment was rescheduled and needs re-confirmation.", "Appointment rescheduled."
	case OpComplete:
		return "Your appointment is complete.", "Appointment completed."
	}
	return "Appointment updated.", "Appointment updated."
}

// Get returns one hydrated appointment visible to the actor.
func (s *Service) Get(ctx context.Context, id uuid.UUID, actor identity.Actor) (*View, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(appt, actor); err != nil {
		return nil, err
	}
	return s.hydrate(ctx, appt), nil
}

// List returns hydrated appointments matching the filter, soonest first.
func (s *Service) List(ctx context.Context, f Filter) ([]*View, error) {
	appts, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	views := make([]*View, 0, len(appts))
	for _, a := range appts {
		views = append(views, s.hydrate(ctx, a))
	}
	return views, nil
}

// CompleteElapsed moves confirmed appointments whose windows have finished
// into completed. It returns how many rows it advanced; a row that loses
// its conditional write is skipped, not retried.
func (s *Service) CompleteElapsed(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "appointments.CompleteElapsed")
	defer span.End()

	confirmed, err := s.repo.List(ctx, Filter{Statuses: []Status{StatusConfirmed}})
	if err != nil {
		return 0, err
	}
	now := s.now()
	completed := 0
	for _, a := range confirmed {
		if now.Before(a.EndsAt()) {
			continue
		}
		_, matched, err := s.repo.UpdateStatus(ctx, a.ID, StatusConfirmed, StatusUpdate{Status: StatusCompleted})
		if err != nil {
			s.logger.Error("complete sweep write failed", "appointment_id", a.ID.String(), "error", err)
			continue
		}
		if matched {
			completed++
			s.metrics.RecordTransition(string(OpComplete), "applied")
		}
	}
	return completed, nil
}

// hydrate attaches display names to an appointment. Names are looked up on
// every read; a missing profile leaves them blank rather than failing the
// request.
func (s *Service) hydrate(ctx context.Context, appt *Appointment) *View {
	var provider, user *profiles.Profile
	if s.profiles != nil {
		provider, _ = s.profiles.GetByID(ctx, appt.ProviderID)
		user, _ = s.profiles.GetByID(ctx, appt.UserID)
	}
	return s.hydrateWith(appt, provider, user)
}

func (s *Service) hydrateWith(appt *Appointment, provider, user *profiles.Profile) *View {
	view := &View{Appointment: *appt}
	if provider != nil {
		view.ProviderName = provider.FullName
		view.ProviderAvatar = provider.AvatarURL
	}
	if user != nil {
		view.UserName = user.FullName
	}
	return view
}

func (s *Service) requireProvider(ctx context.Context, providerID string) (*profiles.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, profiles.ErrProfileNotFound) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("appointments: resolve provider: %w", err)
	}
	if !profile.IsProvider() {
		return nil, ErrProviderNotFound
	}
	return profile, nil
}

func (s *Service) emit(ctx context.Context, userID, message string, meta map[string]string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, message, meta); err != nil {
		s.logger.Error("notification delivery failed", "user_id", userID, "error", err)
	}
}
