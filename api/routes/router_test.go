package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/selvamresidency/hotel-backend/api/controllers"
	"github.com/selvamresidency/hotel-backend/internal/bookings"
	"github.com/selvamresidency/hotel-backend/internal/inventory"
	"github.com/selvamresidency/hotel-backend/internal/notifications"
	"github.com/selvamresidency/hotel-backend/pkg/config"
	"github.com/selvamresidency/hotel-backend/pkg/docstore"
	"github.com/selvamresidency/hotel-backend/pkg/logger"
	"github.com/selvamresidency/hotel-backend/pkg/metrics"
	"github.com/selvamresidency/hotel-backend/pkg/security"
)

const adminPassword = "correct horse battery"

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testServer struct {
	handler http.Handler
}

func newTestServer(t *testing.T, health map[string]controllers.Pinger) *testServer {
	t.Helper()
	hash, err := security.HashPassword(adminPassword, config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	cfg := &config.Config{
		App: config.AppConfig{Env: "test", Timezone: "UTC"},
		Admin: config.AdminConfig{
			PasswordHash:    hash,
			JWTSecret:       "router-test-secret",
			JWTIssuer:       "hotel-test",
			TokenTTLMinutes: 5,
		},
	}
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	reg := prometheus.NewRegistry()
	hotelMetrics := metrics.NewHotelMetrics(reg)

	store := docstore.NewMemory()
	records, err := inventory.NewRepository(store)
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	inv, err := inventory.NewService(inventory.ServiceParams{Records: records, Logger: logg, Metrics: hotelMetrics})
	if err != nil {
		t.Fatalf("inventory: %v", err)
	}
	repo, err := bookings.NewRepository(store)
	if err != nil {
		t.Fatalf("bookings repo: %v", err)
	}
	svc, err := bookings.NewService(bookings.ServiceParams{
		Repo:      repo,
		Inventory: inv,
		Notifier:  notifications.NewDiscard(logg),
		Logger:    logg,
		Metrics:   hotelMetrics,
		Now:       func() time.Time { return time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("bookings service: %v", err)
	}

	return &testServer{handler: NewRouter(Deps{
		Config:    cfg,
		Logger:    logg,
		Inventory: inv,
		Bookings:  svc,
		Health:    health,
		Gatherer:  reg,
	})}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, rec.Body.String())
		}
	}
	return rec, env
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()
	rec, env := s.do(t, http.MethodPost, "/api/admin/v1/auth/login", "", `{"password":"`+adminPassword+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if out.AccessToken == "" || out.TokenType != "Bearer" {
		t.Fatalf("unexpected login payload %s", string(env.Data))
	}
	return out.AccessToken
}

func TestHealthRoutes(t *testing.T) {
	srv := newTestServer(t, map[string]controllers.Pinger{"docstore": stubPinger{}, "redis": nil})

	rec, _ := srv.do(t, http.MethodGet, "/health/live", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("live: expected 200 got %d", rec.Code)
	}
	rec, env := srv.do(t, http.MethodGet, "/health/ready", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("ready: expected 200 got %d", rec.Code)
	}
	if !strings.Contains(string(env.Data), `"docstore":"ok"`) {
		t.Fatalf("unexpected ready payload %s", string(env.Data))
	}

	failing := newTestServer(t, map[string]controllers.Pinger{"docstore": stubPinger{err: errors.New("down")}})
	rec, env = failing.do(t, http.MethodGet, "/health/ready", "", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("ready: expected 503 got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "DEPENDENCY_ERROR" {
		t.Fatalf("unexpected error payload %s", rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	rec, _ := srv.do(t, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestPublicAvailabilityRoutes(t *testing.T) {
	srv := newTestServer(t, nil)

	rec, env := srv.do(t, http.MethodGet, "/api/v1/rooms", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("rooms: expected 200 got %d", rec.Code)
	}
	var list []map[string]any
	if err := json.Unmarshal(env.Data, &list); err != nil || len(list) != 4 {
		t.Fatalf("expected 4 rooms, got %s (err=%v)", string(env.Data), err)
	}

	rec, env = srv.do(t, http.MethodGet, "/api/v1/availability?date=2024-06-01", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("availability: expected 200 got %d", rec.Code)
	}
	var day struct {
		Date             string `json:"date"`
		Closed           bool   `json:"closed"`
		AvailableRoomIDs []int  `json:"available_room_ids"`
	}
	if err := json.Unmarshal(env.Data, &day); err != nil {
		t.Fatalf("decode day: %v", err)
	}
	if day.Date != "2024-06-01" || day.Closed || len(day.AvailableRoomIDs) != 4 {
		t.Fatalf("unexpected day %+v", day)
	}

	rec, env = srv.do(t, http.MethodGet, "/api/v1/rooms/2/availability?date=2024-06-01", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(string(env.Data), `"rate":2000`) {
		t.Fatalf("room availability: %d %s", rec.Code, rec.Body.String())
	}

	rec, env = srv.do(t, http.MethodGet, "/api/v1/rooms/1/quote?check_in=2024-06-01&check_out=2024-06-03", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(string(env.Data), `"total_price":3600`) {
		t.Fatalf("quote: %d %s", rec.Code, rec.Body.String())
	}

	rec, env = srv.do(t, http.MethodGet, "/api/v1/rooms/abc/quote?check_in=2024-06-01&check_out=2024-06-03", "", "")
	if rec.Code != http.StatusBadRequest || env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("bad room id: %d %s", rec.Code, rec.Body.String())
	}

	rec, _ = srv.do(t, http.MethodGet, "/api/v1/rooms/1/quote?check_in=2024-06-01", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing check_out: expected 400 got %d", rec.Code)
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t, nil)
	rec, _ := srv.do(t, http.MethodGet, "/api/admin/v1/bookings", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
	rec, _ = srv.do(t, http.MethodPost, "/api/admin/v1/auth/login", "", `{"password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password got %d", rec.Code)
	}
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t, nil)

	rec, env := srv.do(t, http.MethodPost, "/api/v1/bookings", "", `{
		"room_id": 1,
		"name": "Asha Kumar",
		"email": "asha@example.com",
		"phone": "+91 98400 00000",
		"address": "12 Beach Road, Chennai",
		"check_in": "2024-06-01",
		"check_out": "2024-06-03"
	}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID         string `json:"id"`
		Status     string `json:"status"`
		TotalPrice int    `json:"total_price"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode booking: %v", err)
	}
	if created.ID == "" || created.Status != "pending" || created.TotalPrice != 3600 {
		t.Fatalf("unexpected booking %+v", created)
	}

	rec, _ = srv.do(t, http.MethodPost, "/api/v1/bookings", "", `{"room_id":1,"name":"","email":"bad"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid create: expected 400 got %d", rec.Code)
	}

	token := srv.login(t)

	rec, env = srv.do(t, http.MethodGet, "/api/admin/v1/bookings?sort=checkin", token, "")
	if rec.Code != http.StatusOK || !strings.Contains(string(env.Data), created.ID) {
		t.Fatalf("list: %d %s", rec.Code, rec.Body.String())
	}
	rec, _ = srv.do(t, http.MethodGet, "/api/admin/v1/bookings?sort=cheapest", token, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad sort: expected 400 got %d", rec.Code)
	}

	rec, env = srv.do(t, http.MethodPost, "/api/admin/v1/bookings/"+created.ID+"/approve", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(string(env.Data), `"changed":true`) {
		t.Fatalf("unexpected decision %s", string(env.Data))
	}

	rec, env = srv.do(t, http.MethodGet, "/api/v1/rooms/1/availability?date=2024-06-02", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(string(env.Data), `"available_rooms":4`) {
		t.Fatalf("expected decremented stock: %s", rec.Body.String())
	}

	rec, _ = srv.do(t, http.MethodPost, "/api/admin/v1/bookings/"+created.ID+"/reject", token, `{"reason":"too late"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("reject after approve: expected 422 got %d", rec.Code)
	}

	rec, env = srv.do(t, http.MethodGet, "/api/admin/v1/bookings/stats", token, "")
	if rec.Code != http.StatusOK || !strings.Contains(string(env.Data), `"approved":1`) {
		t.Fatalf("stats: %d %s", rec.Code, rec.Body.String())
	}

	rec, _ = srv.do(t, http.MethodDelete, "/api/admin/v1/bookings/"+created.ID, token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200 got %d", rec.Code)
	}
	rec, _ = srv.do(t, http.MethodGet, "/api/admin/v1/bookings/"+created.ID, token, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get deleted: expected 404 got %d", rec.Code)
	}
}

func TestAdminInventoryRoutes(t *testing.T) {
	srv := newTestServer(t, nil)
	token := srv.login(t)

	rec, env := srv.do(t, http.MethodPut, "/api/admin/v1/inventory/days/2024-06-10", token, `{"rates":{"1":2500},"blocking":{"2":true}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("save day: expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(string(env.Data), `"rates":{"1":2500}`) {
		t.Fatalf("unexpected day %s", string(env.Data))
	}

	rec, env = srv.do(t, http.MethodGet, "/api/v1/rooms/2/availability?date=2024-06-10", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(string(env.Data), `"is_blocked":true`) {
		t.Fatalf("expected blocked room: %s", rec.Body.String())
	}

	rec, env = srv.do(t, http.MethodPost, "/api/admin/v1/inventory/bulk", token, `{
		"room_ids": [3, 4],
		"start_date": "2024-06-10",
		"end_date": "2024-06-12",
		"rate": {"mode": "PERCENT", "value": 10}
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("bulk: expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(string(env.Data), `"updated_dates":3`) {
		t.Fatalf("unexpected bulk result %s", string(env.Data))
	}

	rec, env = srv.do(t, http.MethodGet, "/api/v1/rooms/3/availability?date=2024-06-11", "", "")
	if !strings.Contains(string(env.Data), `"rate":2420`) {
		t.Fatalf("expected +10%% rate: %s", rec.Body.String())
	}

	rec, _ = srv.do(t, http.MethodDelete, "/api/admin/v1/inventory/days/2024-06-10", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("reset: expected 200 got %d", rec.Code)
	}
	rec, env = srv.do(t, http.MethodGet, "/api/admin/v1/inventory/days/2024-06-10", token, "")
	if rec.Code != http.StatusOK || strings.Contains(string(env.Data), `"all_blocked":true`) {
		t.Fatalf("get day after reset: %d %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(string(env.Data), `"rates":{}`) {
		t.Fatalf("expected empty overrides after reset: %s", string(env.Data))
	}

	rec, _ = srv.do(t, http.MethodGet, "/api/admin/v1/inventory/days/not-a-date", token, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad date: expected 400 got %d", rec.Code)
	}
}
