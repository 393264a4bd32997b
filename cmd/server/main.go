package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Simplici0/tarifario/internal/config"
	"github.com/Simplici0/tarifario/internal/db"
	"github.com/Simplici0/tarifario/internal/logger"
	"github.com/Simplici0/tarifario/internal/metrics"
	"github.com/Simplici0/tarifario/internal/migrations"
	"github.com/Simplici0/tarifario/internal/seed"
	"github.com/Simplici0/tarifario/internal/store"
)

const serviceName = "tarifario-api"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})
	ctx := context.Background()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.LogLevel),
		Format:      cfg.LogFormat,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.Env, "db_path": cfg.DBPath})
	for _, warning := range cfg.Warnings() {
		logg.Warn(ctx, warning)
	}

	database, err := db.Open(cfg.DBPath)
	requireResource(ctx, logg, "database", err)
	defer database.Close()

	if cfg.AutoMigrate {
		migrations.SetLogger(logg)
		requireResource(ctx, logg, "migrations", migrations.Up(database))
	}

	stats, err := seed.Run(database, seed.Config{Policy: cfg.Policy.PricingPolicy()})
	requireResource(ctx, logg, "seed", err)
	logg.Info(logg.WithFields(ctx, map[string]any{"inserts": stats.Inserts, "skipped": stats.Skipped}), "seed complete")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := &server{
		store:      store.New(database, logg),
		log:        logg,
		metrics:    metrics.NewPricingMetrics(registry),
		currency:   cfg.Currency,
		anchorMode: true,
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(srv, promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
		ReadHeaderTimeout: 5 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logg.Info(logg.WithField(ctx, "addr", httpServer.Addr), "listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "server stopped", err)
			stop()
		}
	}()

	<-runCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "graceful shutdown failed", err)
	}
}

func newRouter(srv *server, metricsHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(srv.requestLogger)

	r.Get("/healthz", srv.handleHealth)
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/policy", srv.handlePolicy)
		r.Put("/policy", srv.handleSavePolicy)
		r.Get("/tier-rules", srv.handleTierRules)
		r.Post("/tier-rules", srv.handleAddTierRule)
		r.Get("/records", srv.handleRecords)
		r.Post("/quote", srv.handleQuote)
		r.Post("/bulk/preview", srv.handleBulk(false))
		r.Post("/bulk/commit", srv.handleBulk(true))
		r.Post("/records/wholesale", srv.handleWholesaleBatch)
		r.Post("/records/{sku}/wholesale", srv.handleSetWholesale)
	})
	return r
}

// requestLogger attaches request fields to the context logger and logs one
// line per request.
func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := s.log.WithFields(r.Context(), map[string]any{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
		})
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		s.log.Info(s.log.WithFields(ctx, map[string]any{
			"status":      ww.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		}), "request")
	})
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
