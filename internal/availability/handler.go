package availability

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/spring2life/telehealth-portal/internal/identity"
	"github.com/spring2life/telehealth-portal/internal/profiles"
	"github.com/spring2life/telehealth-portal/pkg/logging"
)

// Handler handles HTTP requests for weekly availability
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new availability handler
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// GetWeek handles GET /providers/{providerID}/availability
func (h *Handler) GetWeek(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "providerID")
	if providerID == "" {
		http.Error(w, "missing provider id", http.StatusBadRequest)
		return
	}

	slots, err := h.service.Get(r.Context(), providerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if slots == nil {
		slots = []Slot{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"provider_id": providerID, "slots": slots})
}

// ReplaceWeekRequest is the body for PUT /providers/{providerID}/availability.
type ReplaceWeekRequest struct {
	Slots []Slot `json:"slots"`
}

// ReplaceWeek handles PUT /providers/{providerID}/availability. Only the
// provider themselves or an admin may replace a week.
func (h *Handler) ReplaceWeek(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "providerID")
	if providerID == "" {
		http.Error(w, "missing provider id", http.StatusBadRequest)
		return
	}

	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	if actor.Role != identity.RoleAdmin && actor.ID != providerID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var req ReplaceWeekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode availability request", "error", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.Replace(r.Context(), providerID, req.Slots); err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.Info("availability updated", "provider_id", providerID, "actor", actor.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidDay), errors.Is(err, ErrInvalidRange):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, profiles.ErrProfileNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		h.logger.Error("availability request failed", "error", err)
		http.Error(w, "storage failure, retry later", http.StatusServiceUnavailable)
	}
}
