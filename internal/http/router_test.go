package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"resto-admin-services/internal/config"
	"resto-admin-services/internal/http/handlers"
	"resto-admin-services/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type noSessions struct{}

func (noSessions) GetActiveSession(context.Context, int64, int64) (store.Session, error) {
	return store.Session{}, store.ErrNotFound
}

func testRouter(registry *prometheus.Registry) http.Handler {
	cfg := config.Config{Env: "test", JWTSecret: "secret"}
	h := &handlers.Handler{Logger: zap.NewNop(), Config: cfg, Location: time.UTC}
	return NewRouter(zap.NewNop(), cfg, Deps{Handler: h, Sessions: noSessions{}, Registry: registry})
}

func TestRouterPublicAndProtectedRoutes(t *testing.T) {
	router := testRouter(nil)

	cases := []struct {
		name     string
		method   string
		path     string
		expected int
	}{
		{"health", http.MethodGet, "/health", http.StatusOK},
		{"orders need auth", http.MethodGet, "/api/admin/orders", http.StatusUnauthorized},
		{"payments need auth", http.MethodPost, "/api/admin/payments", http.StatusUnauthorized},
		{"logout needs auth", http.MethodPost, "/api/auth/logout", http.StatusUnauthorized},
		{"metrics disabled", http.MethodGet, "/metrics", http.StatusNotFound},
		{"kitchen ws needs auth", http.MethodGet, "/api/admin/ws/kitchen", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
			if rec.Code != tc.expected {
				t.Fatalf("expected %d, got %d", tc.expected, rec.Code)
			}
			if rec.Header().Get("X-Request-Id") == "" {
				t.Fatalf("expected a request id header")
			}
		})
	}
}

func TestRouterServesMetrics(t *testing.T) {
	router := testRouter(prometheus.NewRegistry())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "resto_admin_http_requests_total") {
		t.Fatalf("expected request counter in metrics output")
	}
}
