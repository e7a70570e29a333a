package httpapi

import (
	"net/http"

	"resto-admin-services/internal/config"
	"resto-admin-services/internal/http/handlers"
	"resto-admin-services/internal/middleware"
	"resto-admin-services/internal/ws"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Deps struct {
	Handler  *handlers.Handler
	Sessions middleware.SessionStore
	Hub      *ws.Hub
	// Registry is nil when metrics are disabled.
	Registry *prometheus.Registry
}

func NewRouter(logger *zap.Logger, cfg config.Config, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID())

	var metrics *middleware.Metrics
	if deps.Registry != nil {
		metrics = middleware.NewMetrics(deps.Registry)
	}
	r.Use(middleware.Telemetry(logger, metrics))

	if cfg.Env == "development" || len(cfg.CorsAllowedOrigins) > 0 {
		options := cors.Options{
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{
				"Accept",
				"Authorization",
				"Content-Type",
				"X-Requested-With",
				"X-Request-Id",
			},
			ExposedHeaders:   []string{"X-Request-Id", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}

		if cfg.Env == "development" {
			options.AllowOriginFunc = func(_ *http.Request, origin string) bool {
				return true
			}
		} else {
			options.AllowedOrigins = cfg.CorsAllowedOrigins
		}

		r.Use(cors.Handler(options))
	}

	h := deps.Handler

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if deps.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Post("/api/auth/login", h.AuthLogin)
	r.With(middleware.AdminAuth(deps.Sessions, cfg.JWTSecret)).Post("/api/auth/logout", h.AuthLogout)

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.AdminAuth(deps.Sessions, cfg.JWTSecret))

		r.Get("/orders", h.AdminOrdersList)
		r.Get("/orders/{orderId}", h.AdminOrderDetail)
		r.Put("/orders/{orderId}/status", h.AdminOrderUpdateStatus)
		r.Delete("/orders/{orderId}/items/{itemId}", h.AdminOrderCancelItem)

		r.Get("/kitchen", h.AdminKitchenTickets)
		r.Put("/kitchen/tickets/{ticketId}/status", h.AdminKitchenTicketStatus)

		r.Post("/payments/preview", h.AdminPaymentPreview)
		r.Post("/payments", h.AdminPaymentRecord)
		r.Get("/payments/{paymentId}", h.AdminPaymentDetail)
		r.Get("/payments/{paymentId}/receipt", h.AdminPaymentReceipt)

		r.Get("/tables", h.AdminTablesList)

		r.Get("/reports/sales", h.AdminSalesReport)

		r.Get("/settings/tax", h.AdminTaxSettingsGet)
		r.Put("/settings/tax", h.AdminTaxSettingsPut)

		if deps.Hub != nil {
			r.Get("/ws/kitchen", deps.Hub.KitchenWS)
		}
	})

	return r
}
