package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spring2life/telehealth-portal/internal/appointments"
	"github.com/spring2life/telehealth-portal/internal/availability"
	"github.com/spring2life/telehealth-portal/internal/identity"
	"github.com/spring2life/telehealth-portal/internal/notify"
	"github.com/spring2life/telehealth-portal/internal/profiles"
	"github.com/spring2life/telehealth-portal/pkg/logging"
)

const testSecret = "router-test-secret"

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	ctx := context.Background()
	logger := logging.New("error")

	profileRepo := profiles.NewInMemoryRepository()
	require.NoError(t, profileRepo.Upsert(ctx, &profiles.Profile{
		ID: "user-1", Email: "pat@example.com", FullName: "Pat Doe",
		Role: identity.RoleUser, IsActive: true,
	}))
	require.NoError(t, profileRepo.Upsert(ctx, &profiles.Profile{
		ID: "provider-1", Email: "dr.lee@example.com", FullName: "Dr. Lee",
		Role: identity.RoleProvider, IsActive: true,
	}))

	availRepo := availability.NewInMemoryRepository()
	notifyRepo := notify.NewInMemoryRepository()
	sink := notify.NewFeedSink(notifyRepo, profileRepo, nil, logger)
	apptRepo := appointments.NewInMemoryRepository()
	apptService := appointments.NewService(apptRepo, profileRepo, availRepo, sink, nil, logger, 10, 60)

	return New(&Config{
		Logger:               logger,
		ProfilesHandler:      profiles.NewHandler(profileRepo, logger),
		AvailabilityHandler:  availability.NewHandler(availability.NewService(availRepo, profileRepo, logger), logger),
		AppointmentsHandler:  appointments.NewHandler(apptService, logger),
		NotificationsHandler: notify.NewHandler(notifyRepo, logger),
		JWTSecret:            testSecret,
	})
}

func bearerFor(t *testing.T, subject string, role identity.Role) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": string(role),
		"exp":  time.Now().Add(5 * time.Minute).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func TestHealthAndProvidersArePublic(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/providers", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/providers/provider-1/slots", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBookingRequiresAuth(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/notifications", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFullBookingFlowThroughRouter(t *testing.T) {
	srv := newTestServer(t)

	// Provider publishes every weekday 09:00-10:00.
	var week strings.Builder
	week.WriteString(`{"slots":[`)
	for day := 0; day < 7; day++ {
		if day > 0 {
			week.WriteString(",")
		}
		week.WriteString(`{"day_of_week":` + string(rune('0'+day)) + `,"start_time":"09:00","end_time":"10:00"}`)
	}
	week.WriteString(`]}`)

	req := httptest.NewRequest(http.MethodPut, "/providers/provider-1/availability", strings.NewReader(week.String()))
	req.Header.Set("Authorization", bearerFor(t, "provider-1", identity.RoleProvider))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Patient browses slots and books the first one.
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/providers/provider-1/slots", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var slotsResp struct {
		Slots []struct {
			StartsAt time.Time `json:"starts_at"`
		} `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &slotsResp))
	require.NotEmpty(t, slotsResp.Slots)

	body, err := json.Marshal(map[string]any{
		"provider_id":      "provider-1",
		"starts_at":        slotsResp.Slots[0].StartsAt,
		"duration_minutes": 60,
	})
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(string(body)))
	req.Header.Set("Authorization", bearerFor(t, "user-1", identity.RoleUser))
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	var view appointments.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, appointments.StatusPending, view.Status)

	// Provider confirms.
	req = httptest.NewRequest(http.MethodPost, "/appointments/"+view.ID.String()+"/confirm", nil)
	req.Header.Set("Authorization", bearerFor(t, "provider-1", identity.RoleProvider))
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Both parties have feed entries.
	req = httptest.NewRequest(http.MethodGet, "/notifications", nil)
	req.Header.Set("Authorization", bearerFor(t, "user-1", identity.RoleUser))
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var feed struct {
		Notifications []notify.Notification `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
	require.Len(t, feed.Notifications, 2)

	// Mark the newest entry read.
	req = httptest.NewRequest(http.MethodPost, "/notifications/"+feed.Notifications[0].ID.String()+"/read", nil)
	req.Header.Set("Authorization", bearerFor(t, "user-1", identity.RoleUser))
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
