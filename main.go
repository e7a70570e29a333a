package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"resto-admin-services/internal/billing"
	"resto-admin-services/internal/config"
	"resto-admin-services/internal/db"
	httpapi "resto-admin-services/internal/http"
	"resto-admin-services/internal/http/handlers"
	"resto-admin-services/internal/logger"
	"resto-admin-services/internal/queue"
	"resto-admin-services/internal/storage"
	"resto-admin-services/internal/store"
	"resto-admin-services/internal/utils"
	"resto-admin-services/internal/ws"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	st := store.New(pool)
	if cfg.AutoMigrate {
		if err := st.EnsureSchema(ctx); err != nil {
			log.Fatal("schema migration failed", zap.Error(err))
		}
	}
	if err := seedTaxConfig(ctx, st, cfg); err != nil {
		log.Fatal("tax settings seed failed", zap.Error(err))
	}

	h := &handlers.Handler{
		Store:    st,
		Logger:   log,
		Config:   cfg,
		Location: utils.LoadLocation(cfg.Timezone),
	}
	hub := ws.NewHub(log, cfg.WSHeartbeatInterval, h.KitchenSnapshot)
	processor := &queue.ActivityProcessor{Logs: st, Hub: hub, Logger: log}
	h.Events = &queue.LocalPublisher{Processor: processor}

	if cfg.RabbitMQURL != "" {
		log.Info("rabbitmq enabled", zap.String("exchange", queue.EventsExchange), zap.String("queue", queue.ActivityQueue))
		qc, err := connectQueue(cfg.RabbitMQURL)
		if err != nil {
			if cfg.IsProduction() {
				log.Fatal("rabbitmq setup failed", zap.Error(err))
			}
			log.Warn("rabbitmq setup failed; applying events in-process", zap.Error(err))
		}
		if qc != nil {
			defer qc.Close()
			h.Events = &queue.BrokerPublisher{Client: qc, Exchange: queue.EventsExchange}

			if cfg.RabbitMQWorkerMode == "daemon" {
				log.Info("activity consumer enabled", zap.String("mode", "daemon"))
				go func() {
					err := qc.ConsumeWithRetry(ctx, queue.ActivityQueue, processor.Handle, queue.ActivityRetries, 5*time.Second)
					if err != nil && !errors.Is(err, context.Canceled) {
						log.Error("activity consumer stopped", zap.Error(err))
					}
				}()
			} else {
				log.Info("activity consumer disabled", zap.String("mode", cfg.RabbitMQWorkerMode))
			}
		}
	} else {
		log.Info("activity events applied in-process (RABBITMQ_URL is empty)")
	}

	if cfg.ObjectStoreEnabled() {
		objects, err := storage.NewObjectStore(ctx, storage.Config{
			Endpoint:        cfg.ObjectStoreEndpoint,
			Region:          cfg.ObjectStoreRegion,
			AccessKeyID:     cfg.ObjectStoreAccessKeyID,
			SecretAccessKey: cfg.ObjectStoreSecretAccessKey,
			Bucket:          cfg.ObjectStoreBucket,
			ReportPrefix:    cfg.ObjectStoreReportPrefix,
			LinkExpiry:      cfg.ObjectStoreLinkExpiry,
		})
		if err != nil {
			log.Fatal("object store setup failed", zap.Error(err))
		}
		h.Archive = objects
		log.Info("report archive enabled", zap.String("bucket", cfg.ObjectStoreBucket))
	}

	var registry *prometheus.Registry
	if cfg.MetricsEnabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	apiServer := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewRouter(log, cfg, httpapi.Deps{
			Handler:  h,
			Sessions: st,
			Hub:      hub,
			Registry: registry,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("admin api ready", zap.String("base", "/api/admin"))
		log.Info("kitchen ws ready", zap.String("path", "/api/admin/ws/kitchen"))
		log.Info("resto admin listening", zap.String("addr", cfg.HTTPAddr))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctxShutdown); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}
}

func connectQueue(url string) (*queue.Client, error) {
	qc, err := queue.New(url)
	if err != nil {
		return nil, err
	}
	if err := queue.EnsureActivityTopology(qc); err != nil {
		_ = qc.Close()
		return nil, err
	}
	return qc, nil
}

// seedTaxConfig writes the configured defaults only when no settings row exists.
func seedTaxConfig(ctx context.Context, st *store.Store, cfg config.Config) error {
	taxRate, err := decimal.NewFromString(cfg.DefaultTaxRate)
	if err != nil {
		return err
	}
	serviceRate, err := decimal.NewFromString(cfg.DefaultServiceTaxRate)
	if err != nil {
		return err
	}
	defaults := billing.TaxConfig{
		TaxRate:        taxRate,
		ServiceTaxRate: serviceRate,
		TaxName:        cfg.DefaultTaxName,
		CurrencySymbol: cfg.DefaultCurrencySymbol,
	}
	if err := defaults.Validate(); err != nil {
		return err
	}
	return st.SeedTaxConfig(ctx, defaults)
}
