package profiles

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/spring2life/telehealth-portal/pkg/logging"
)

// Handler exposes provider discovery over HTTP.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new profiles handler
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// ListProviders handles GET /providers. ?all=true includes inactive
// providers; the default view is what patients browse.
func (h *Handler) ListProviders(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") != "true"
	providers, err := h.repo.ListProviders(r.Context(), activeOnly)
	if err != nil {
		h.logger.Error("provider list failed", "error", err)
		http.Error(w, "storage failure, retry later", http.StatusServiceUnavailable)
		return
	}
	if providers == nil {
		providers = []*Profile{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"providers": providers})
}

// GetProvider handles GET /providers/{providerID}.
func (h *Handler) GetProvider(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "providerID")
	profile, err := h.repo.GetByID(r.Context(), providerID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("provider fetch failed", "error", err)
		http.Error(w, "storage failure, retry later", http.StatusServiceUnavailable)
		return
	}
	if !profile.IsProvider() {
		http.Error(w, ErrProfileNotFound.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profile)
}
