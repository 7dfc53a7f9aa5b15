// Command server runs the assessment core with its operational HTTP surface
// (health and metrics). Storage backends degrade gracefully: without a
// PostgreSQL URL the service runs on in-memory stores, without Redis it uses
// in-process locking, and without Kafka brokers audit events stay local.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sglgb/internal/assessment/service"
	assessmentstore "sglgb/internal/assessment/store"
	"sglgb/internal/audit"
	"sglgb/internal/deadline"
	indicatorstore "sglgb/internal/indicator/store"
	"sglgb/internal/platform/config"
	"sglgb/internal/platform/httpserver"
	"sglgb/internal/platform/logger"
	"sglgb/internal/platform/metrics"
	"sglgb/internal/platform/middleware"
	"sglgb/internal/platform/postgres"
	"sglgb/internal/platform/redis"
	"sglgb/internal/rating"
	"sglgb/pkg/domain"
	dErrors "sglgb/pkg/domain-errors"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		logger.New("json", slog.LevelInfo).Error("failed to load config", "error", err)
		return err
	}
	log := logger.New(cfg.Log.Format, cfg.Log.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(cfg.Postgres)
	if err != nil {
		log.Error("failed to open postgres", "error", err)
		return err
	}
	if db != nil {
		defer db.Close()
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	indicators, err := indicatorstore.NewInMemory(indicatorstore.Seed())
	if err != nil {
		log.Error("invalid indicator seed", "error", err)
		return err
	}

	var (
		assessments service.AssessmentStore
		responses   service.ResponseStore
		evidence    service.EvidenceStore
		extensions  service.ExtensionStore
		auditStore  audit.Store
		snapshots   rating.SnapshotStore
	)
	if db != nil {
		assessments = assessmentstore.NewPostgresAssessments(db)
		responses = assessmentstore.NewPostgresResponses(db)
		evidence = assessmentstore.NewPostgresEvidence(db)
		extensions = deadline.NewPostgresExtensionStore(db)
		auditStore = audit.NewPostgresStore(db)
		snapshots = rating.NewPostgresSnapshotStore(db)
	} else {
		log.Warn("no postgres URL configured; running on in-memory stores")
		assessments = assessmentstore.NewInMemoryAssessments()
		responses = assessmentstore.NewInMemoryResponses()
		evidence = assessmentstore.NewInMemoryEvidence()
		extensions = deadline.NewInMemoryExtensionStore()
		auditStore = audit.NewInMemoryStore()
		snapshots = rating.NewInMemorySnapshotStore()
	}

	var relay chan audit.Event
	if len(cfg.Kafka.Brokers) > 0 {
		relay = make(chan audit.Event, 256)
		kafkaRelay, err := audit.NewKafkaRelay(cfg.Kafka.Brokers, cfg.Kafka.Topic, relay, log)
		if err != nil {
			log.Error("failed to connect kafka relay", "error", err)
			return err
		}
		go func() {
			if err := kafkaRelay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("kafka relay stopped", "error", err)
			}
		}()
	}
	publisher := audit.NewPublisher(auditStore, relay)

	ratingService, err := rating.New(indicators, responses,
		rating.NewInMemoryBBIStore(rating.SeedBBIs()), snapshots,
		rating.WithLogger(log),
	)
	if err != nil {
		log.Error("failed to build rating service", "error", err)
		return err
	}

	m := metrics.New()
	window := deadline.Window{
		CycleYear:       cfg.Deadline.CycleYear,
		SubmissionDays:  cfg.Deadline.SubmissionDays,
		ReworkDays:      cfg.Deadline.ReworkDays,
		CalibrationDays: cfg.Deadline.CalibrationDays,
		GraceDays:       cfg.Deadline.GraceDays,
	}
	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithAuditPublisher(publisher),
		service.WithRatingComputer(ratingService),
		service.WithExtensionStore(extensions),
	}
	if redisClient != nil {
		opts = append(opts, service.WithLocker(redis.NewMutex(redisClient, cfg.Redis.LockTTL)))
	}
	workflow, err := service.New(assessments, responses, evidence, indicators,
		window, cfg.Rounds.MaxRecalibrations, opts...)
	if err != nil {
		log.Error("failed to build workflow service", "error", err)
		return err
	}

	router := chi.NewRouter()
	router.Use(chimw.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.Actor(log))
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	// Operator-facing status probe; the full assessment API transport lives in
	// a separate service.
	router.Get("/assessments/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		assessmentID, err := domain.ParseAssessmentID(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "invalid assessment id", http.StatusBadRequest)
			return
		}
		a, err := workflow.GetAssessment(r.Context(), assessmentID)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeNotFound) {
				http.Error(w, "assessment not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":            a.ID,
			"global_status": a.GlobalStatus,
			"locked":        a.Deadlines.Locked,
			"version":       a.Version,
		})
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				http.Error(w, "postgres unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Server.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Server.Addr, "cycle_year", cfg.Deadline.CycleYear)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Error("server failed", "error", err)
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "error", err)
		return err
	}
	log.Info("server stopped")
	return nil
}
