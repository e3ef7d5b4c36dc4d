package appointments

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/spring2life/telehealth-portal/internal/availability"
	"github.com/spring2life/telehealth-portal/internal/identity"
	"github.com/spring2life/telehealth-portal/pkg/logging"
)

// Handler exposes booking, listing, slot browsing, and lifecycle transitions
// over HTTP.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new appointments handler
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// errorResponse pairs a stable machine-readable kind with a human-readable
// reason so clients can branch without string matching.
type errorResponse struct {
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

// Slots handles GET /providers/{providerID}/slots. The optional days and
// granularity query parameters override the configured defaults.
func (h *Handler) Slots(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "providerID")
	if providerID == "" {
		h.writeErrorMessage(w, http.StatusBadRequest, "validation", "missing provider id")
		return
	}
	days, ok := positiveQueryParam(r, "days")
	if !ok {
		h.writeErrorMessage(w, http.StatusBadRequest, "validation", "days must be a positive integer")
		return
	}
	granularity, ok := positiveQueryParam(r, "granularity")
	if !ok {
		h.writeErrorMessage(w, http.StatusBadRequest, "validation", "granularity must be a positive integer")
		return
	}

	slots, err := h.service.AvailableSlots(r.Context(), providerID, days, granularity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if slots == nil {
		slots = []availability.BookableSlot{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"provider_id": providerID, "slots": slots})
}

// positiveQueryParam reads an optional positive-integer query parameter.
// Absence returns (0, true); the service substitutes its default.
func positiveQueryParam(r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// BookingRequest is the body for POST /appointments.
type BookingRequest struct {
	ProviderID      string    `json:"provider_id"`
	StartsAt        time.Time `json:"starts_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Notes           string    `json:"notes,omitempty"`
}

// Book handles POST /appointments. The booking user is always the
// authenticated actor.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		h.writeErrorMessage(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorMessage(w, http.StatusBadRequest, "validation", "invalid request body")
		return
	}
	if req.ProviderID == "" || req.StartsAt.IsZero() {
		h.writeErrorMessage(w, http.StatusBadRequest, "validation", "provider_id and starts_at are required")
		return
	}

	view, err := h.service.Book(r.Context(), BookRequest{
		UserID:          actor.ID,
		ProviderID:      req.ProviderID,
		StartsAt:        req.StartsAt,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

// List handles GET /appointments. Patients see their own bookings, providers
// their own calendar; admins may filter freely.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		h.writeErrorMessage(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	f := Filter{}
	switch actor.Role {
	case identity.RoleUser:
		f.UserID = actor.ID
	case identity.RoleProvider:
		f.ProviderID = actor.ID
	case identity.RoleAdmin:
		f.UserID = r.URL.Query().Get("user_id")
		f.ProviderID = r.URL.Query().Get("provider_id")
	default:
		h.writeErrorMessage(w, http.StatusForbidden, "forbidden", "role may not list appointments")
		return
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := Status(raw)
		if !status.Valid() {
			h.writeErrorMessage(w, http.StatusBadRequest, "validation", "unknown status")
			return
		}
		f.Statuses = []Status{status}
	}

	views, err := h.service.List(r.Context(), f)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if views == nil {
		views = []*View{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": views})
}

// Get handles GET /appointments/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		h.writeErrorMessage(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeErrorMessage(w, http.StatusBadRequest, "validation", "invalid appointment id")
		return
	}

	view, err := h.service.Get(r.Context(), id, actor)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// TransitionBody is the body for POST /appointments/{id}/{op}.
type TransitionBody struct {
	Reason             string    `json:"reason,omitempty"`
	NewStartsAt        time.Time `json:"new_starts_at,omitempty"`
	NewDurationMinutes int       `json:"new_duration_minutes,omitempty"`
	Notes              *string   `json:"notes,omitempty"`
}

// Transition handles POST /appointments/{id}/{op} where op is one of
// confirm, cancel, reschedule, complete.
func (h *Handler) Transition(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		h.writeErrorMessage(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeErrorMessage(w, http.StatusBadRequest, "validation", "invalid appointment id")
		return
	}
	op, err := ParseOperation(chi.URLParam(r, "op"))
	if err != nil {
		h.writeErrorMessage(w, http.StatusBadRequest, "validation", "unknown operation")
		return
	}

	var body TransitionBody
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			h.writeErrorMessage(w, http.StatusBadRequest, "validation", "invalid request body")
			return
		}
	}

	view, err := h.service.Transition(r.Context(), id, TransitionRequest{
		Operation:          op,
		Actor:              actor,
		Reason:             body.Reason,
		NewStartsAt:        body.NewStartsAt,
		NewDurationMinutes: body.NewDurationMinutes,
		Notes:              body.Notes,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	kind := Kind(err)
	status := http.StatusServiceUnavailable
	switch kind {
	case "validation":
		status = http.StatusBadRequest
	case "not_found":
		status = http.StatusNotFound
	case "slot_unavailable", "already_in_state":
		status = http.StatusConflict
	case "invalid_transition":
		status = http.StatusUnprocessableEntity
	case "forbidden":
		status = http.StatusForbidden
	case "storage":
		h.logger.Error("appointment request failed", "error", err)
		writeJSON(w, status, errorResponse{Kind: kind, Reason: "storage failure, retry later"})
		return
	}
	writeJSON(w, status, errorResponse{Kind: kind, Reason: err.Error()})
}

func (h *Handler) writeErrorMessage(w http.ResponseWriter, status int, kind, reason string) {
	writeJSON(w, status, errorResponse{Kind: kind, Reason: reason})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
