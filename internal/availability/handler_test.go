package availability

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/spring2life/telehealth-portal/internal/identity"
	"github.com/spring2life/telehealth-portal/pkg/logging"
)

func newHandlerFixture(t *testing.T) *Handler {
	t.Helper()
	svc, _ := newTestService(t)
	return NewHandler(svc, logging.Default())
}

func doReplace(t *testing.T, h *Handler, providerID string, actor *identity.Actor, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPut, "/providers/"+providerID+"/availability", bytes.NewReader(payload))

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("providerID", providerID)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if actor != nil {
		ctx = identity.WithActor(ctx, *actor)
	}
	req = req.WithContext(ctx)

	w := httptest.NewRecorder()
	h.ReplaceWeek(w, req)
	return w
}

func TestReplaceWeek_ProviderSelf(t *testing.T) {
	h := newHandlerFixture(t)

	w := doReplace(t, h, "provider-1",
		&identity.Actor{ID: "provider-1", Role: identity.RoleProvider},
		ReplaceWeekRequest{Slots: []Slot{{DayOfWeek: 1, StartTime: "09:00", EndTime: "11:00"}}})

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}
}

func TestReplaceWeek_AdminForAnyProvider(t *testing.T) {
	h := newHandlerFixture(t)

	w := doReplace(t, h, "provider-1",
		&identity.Actor{ID: "admin-1", Role: identity.RoleAdmin},
		ReplaceWeekRequest{Slots: []Slot{{DayOfWeek: 2, StartTime: "08:00", EndTime: "12:00"}}})

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
}

func TestReplaceWeek_ForbiddenForOtherActor(t *testing.T) {
	h := newHandlerFixture(t)

	w := doReplace(t, h, "provider-1",
		&identity.Actor{ID: "user-1", Role: identity.RoleUser},
		ReplaceWeekRequest{Slots: []Slot{{DayOfWeek: 1, StartTime: "09:00", EndTime: "11:00"}}})

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestReplaceWeek_Unauthenticated(t *testing.T) {
	h := newHandlerFixture(t)

	w := doReplace(t, h, "provider-1", nil,
		ReplaceWeekRequest{Slots: []Slot{{DayOfWeek: 1, StartTime: "09:00", EndTime: "11:00"}}})

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestReplaceWeek_InvalidSlots(t *testing.T) {
	h := newHandlerFixture(t)

	w := doReplace(t, h, "provider-1",
		&identity.Actor{ID: "provider-1", Role: identity.RoleProvider},
		ReplaceWeekRequest{Slots: []Slot{{DayOfWeek: 8, StartTime: "09:00", EndTime: "11:00"}}})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetWeek(t *testing.T) {
	h := newHandlerFixture(t)
	doReplace(t, h, "provider-1",
		&identity.Actor{ID: "provider-1", Role: identity.RoleProvider},
		ReplaceWeekRequest{Slots: []Slot{{DayOfWeek: 3, StartTime: "10:00", EndTime: "16:00"}}})

	req := httptest.NewRequest(http.MethodGet, "/providers/provider-1/availability", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("providerID", "provider-1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()
	h.GetWeek(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		ProviderID string `json:"provider_id"`
		Slots      []Slot `json:"slots"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Slots) != 1 || resp.Slots[0].DayOfWeek != 3 {
		t.Fatalf("unexpected slots: %+v", resp.Slots)
	}
}
