package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"resto-admin-services/internal/auth"
	"resto-admin-services/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type fakeSessions struct {
	session store.Session
	err     error
}

func (f fakeSessions) GetActiveSession(_ context.Context, sessionID, userID int64) (store.Session, error) {
	if f.err != nil {
		return store.Session{}, f.err
	}
	if f.session.ID != sessionID || f.session.UserID != userID {
		return store.Session{}, store.ErrNotFound
	}
	return f.session, nil
}

func issue(t *testing.T, role auth.UserRole) string {
	t.Helper()
	token, err := auth.IssueAccessToken("secret", 3, 9, role, "user@example.com", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return token
}

func TestAdminAuth(t *testing.T) {
	staff := store.Session{ID: 9, UserID: 3, Role: "STAFF", Email: "user@example.com", Permissions: []string{"kitchen"}}
	admin := store.Session{ID: 9, UserID: 3, Role: "ADMIN", Email: "user@example.com"}
	cashier := store.Session{ID: 9, UserID: 3, Role: "STAFF", Email: "user@example.com", Permissions: []string{"payments"}}

	cases := []struct {
		name     string
		sessions SessionStore
		token    string
		method   string
		path     string
		expected int
	}{
		{"missing token", fakeSessions{session: admin}, "", "GET", "/api/admin/orders", http.StatusUnauthorized},
		{"admin any route", fakeSessions{session: admin}, issue(t, auth.RoleAdmin), "GET", "/api/admin/reports/sales", http.StatusOK},
		{"staff allowed", fakeSessions{session: staff}, issue(t, auth.RoleStaff), "GET", "/api/admin/kitchen", http.StatusOK},
		{"staff forbidden", fakeSessions{session: staff}, issue(t, auth.RoleStaff), "POST", "/api/admin/payments", http.StatusForbidden},
		{"cashier previews bill", fakeSessions{session: cashier}, issue(t, auth.RoleStaff), "POST", "/api/admin/payments/preview", http.StatusOK},
		{"cashier records payment", fakeSessions{session: cashier}, issue(t, auth.RoleStaff), "POST", "/api/admin/payments", http.StatusOK},
		{"kitchen staff cannot preview", fakeSessions{session: staff}, issue(t, auth.RoleStaff), "POST", "/api/admin/payments/preview", http.StatusForbidden},
		{"revoked session", fakeSessions{err: store.ErrNotFound}, issue(t, auth.RoleAdmin), "GET", "/api/admin/orders", http.StatusUnauthorized},
		{"store failure", fakeSessions{err: errors.New("db down")}, issue(t, auth.RoleAdmin), "GET", "/api/admin/orders", http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var seen *AuthContext
			h := AdminAuth(tc.sessions, "secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = GetAuthContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tc.expected {
				t.Fatalf("expected %d, got %d: %s", tc.expected, rec.Code, rec.Body.String())
			}
			if tc.expected == http.StatusOK && (seen == nil || seen.UserID != 3 || seen.SessionID != 9) {
				t.Fatalf("auth context not populated: %+v", seen)
			}
		})
	}
}

func TestAdminAuthWebsocketQueryToken(t *testing.T) {
	admin := store.Session{ID: 9, UserID: 3, Role: "ADMIN"}
	h := AdminAuth(fakeSessions{session: admin}, "secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/admin/ws/kitchen?token="+issue(t, auth.RoleAdmin), nil)
	req.Header.Set("Upgrade", "websocket")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected websocket query token to be accepted, got %d", rec.Code)
	}

	plain := httptest.NewRequest("GET", "/api/admin/orders?token="+issue(t, auth.RoleAdmin), nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, plain)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected query token to be ignored on plain requests, got %d", rec.Code)
	}
}

func TestAuthContextCan(t *testing.T) {
	staff := &AuthContext{Role: auth.RoleStaff, Permissions: []string{"orders"}}
	if !staff.Can(auth.PermOrders) || staff.Can(auth.PermSettings) {
		t.Fatalf("unexpected staff permissions")
	}
	admin := &AuthContext{Role: auth.RoleAdmin}
	if !admin.Can(auth.PermSettings) {
		t.Fatalf("admin should have every permission")
	}
}

func TestRequestID(t *testing.T) {
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("expected a generated request id")
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Correlation-Id", "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "abc" {
		t.Fatalf("expected correlation id to be reused, got %q", got)
	}
}

func TestPercentile(t *testing.T) {
	values := []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if got := percentile(values, 0.5); got != 5 {
		t.Fatalf("expected p50 5, got %d", got)
	}
	if got := percentile(values, 0.95); got != 10 {
		t.Fatalf("expected p95 10, got %d", got)
	}
	if got := percentile(nil, 0.5); got != 0 {
		t.Fatalf("expected 0 for empty input, got %d", got)
	}
}

func TestTelemetryRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(Telemetry(zap.NewNop(), metrics))
	r.Get("/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/orders/1", nil))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, mf := range families {
		if mf.GetName() != "resto_admin_http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["route"] == "/orders/{id}" && labels["status"] == "418" && m.GetCounter().GetValue() == 1 {
				found = true
			}
		}
	}
	if !found {
		t.Fatalf("expected request counter for /orders/{id}")
	}
}
