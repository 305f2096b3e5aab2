// Package app wires the Tenant Data Store, Probe Engine, Background Job
// System, Failover Controller, and SLA Manager into one running process.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/m00npl/guardant/internal/audit"
	"github.com/m00npl/guardant/internal/config"
	"github.com/m00npl/guardant/internal/platform"
	"github.com/m00npl/guardant/internal/telemetry"
	"github.com/m00npl/guardant/pkg/failover"
	"github.com/m00npl/guardant/pkg/jobs"
	"github.com/m00npl/guardant/pkg/monitor"
	"github.com/m00npl/guardant/pkg/notify"
	"github.com/m00npl/guardant/pkg/sla"
	"github.com/m00npl/guardant/pkg/store"
)

const (
	shutdownGrace       = 15 * time.Second
	jobsShutdownGrace   = 30 * time.Second
	defaultProbeNominal = 5 * time.Minute
)

// slaCalculationRequest is the Data payload of a "sla.calculate" job: derive
// and persist a measurement for one target over its reporting window, then
// hand the resulting report to the configured FileGenerator.
type slaCalculationRequest struct {
	Target sla.SLATarget
	Start  time.Time
	End    time.Time
}

// Run reads configuration, connects to infrastructure, and starts every
// engine. It blocks until ctx is cancelled, then shuts every engine down
// within a bounded grace period.
func Run(ctx context.Context, cfg *config.Config) error {
	logger := telemetry.NewLogger(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting guardant", "listen", cfg.ListenAddr())

	_, shutdownTracer, err := telemetry.NewTracerProvider(ctx, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			logger.Error("shutting down tracer", "error", err)
		}
	}()

	db, err := platform.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	rdb, err := platform.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("closing redis", "error", err)
		}
	}()

	if err := platform.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("migrations applied")

	metricsReg := telemetry.NewMetricsRegistry()

	tenantStore := store.NewPostgresStore(db)

	auditWriter := audit.NewWriter(tenantStore, logger)
	auditWriter.Start(ctx)
	defer auditWriter.Close()

	// Notification sinks. Either may be disabled by leaving its env var
	// unset; a disabled sink's Send logs at debug level and returns nil.
	slackSink := notify.NewSlackSink(cfg.SlackBotToken, cfg.SlackAlertChannel, logger)
	webhookSink := notify.NewWebhookSink(cfg.WebhookURL, logger)
	sink := auditingSink{
		inner:  notify.NewMultiSink(logger, slackSink, webhookSink),
		writer: auditWriter,
	}

	probeEngine := monitor.NewEngine(monitor.Config{
		MaxRetries:               cfg.MonitoringMaxRetries,
		RetryDelay:               cfg.MonitoringRetryDelay,
		CheckTimeout:             cfg.MonitoringCheckTimeout,
		ConcurrentChecks:         cfg.MonitoringConcurrentChecks,
		NetworkConnectivityCheck: cfg.MonitoringNetworkConnectivityCheck,
		NetworkTestURLs:          cfg.MonitoringNetworkTestURLs,
		StoreMetrics:             cfg.MonitoringStoreMetrics,
	}, tenantStore, logger)

	trafficRouter := failover.NewWebhookRouter(cfg.WebhookURL, &http.Client{Timeout: 10 * time.Second}, logger)
	failoverController := failover.NewController(failover.Config{
		HealthCheckInterval:    cfg.FailoverHealthCheckInterval,
		HealthCheckTimeout:     cfg.FailoverHealthCheckTimeout,
		HealthCheckRetries:     cfg.FailoverHealthCheckRetries,
		DetectionInterval:      cfg.FailoverDetectionInterval,
		MaxConcurrentFailovers: cfg.FailoverMaxConcurrent,
		MetricsRetentionPeriod: cfg.FailoverMetricsRetentionPeriod,
	}, tenantStore, trafficRouter, sink, logger)

	slaManager := sla.NewManager(tenantStore, logger)
	reportGen := sla.LocalFileGenerator{Dir: cfg.SLAReportOutputDir}

	rateLimiter := jobs.NewRateLimiter(rdb)
	queueCfg := jobs.QueueConfig{
		MaxConcurrency:     cfg.JobsMaxConcurrency,
		DefaultTimeout:     cfg.JobsDefaultTimeout,
		RateLimitPerSecond: cfg.JobsRateLimitPerSecond,
	}
	jobManager := jobs.NewManager(logger, rateLimiter, map[jobs.Priority]jobs.QueueConfig{
		jobs.PriorityCritical: queueCfg,
		jobs.PriorityHigh:     queueCfg,
		jobs.PriorityNormal:   queueCfg,
		jobs.PriorityLow:      queueCfg,
		jobs.PriorityBulk:     queueCfg,
	})
	jobManager.RegisterProcessor("sla.calculate", slaCalculateProcessor(slaManager, reportGen, auditWriter, logger))

	mux := buildOpsMux(metricsReg, db, rdb, logger)
	httpSrv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	runErrCh := make(chan error, 1)
	go func() {
		logger.Info("ops server listening", "addr", cfg.ListenAddr())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErrCh <- fmt.Errorf("ops http server: %w", err)
			return
		}
		runErrCh <- nil
	}()

	go failoverController.Run(ctx)
	go jobManager.Run(ctx)

	logger.Info("guardant started",
		"probe_concurrency", cfg.MonitoringConcurrentChecks,
		"failover_max_concurrent", cfg.FailoverMaxConcurrent,
	)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case runErr = <-runErrCh:
		logger.Error("ops server exited unexpectedly", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutting down ops server", "error", err)
	}

	probeEngine.Shutdown(shutdownGrace)
	failoverController.Shutdown(shutdownGrace)
	jobManager.Shutdown(jobsShutdownGrace)

	return runErr
}

// buildOpsMux exposes the process's operational surface. GuardAnt has no
// tenant-facing HTTP API; this mux exists only for liveness/readiness
// checks and metric scraping.
func buildOpsMux(metricsReg *prometheus.Registry, db *pgxpool.Pool, rdb *redis.Client, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := db.Ping(ctx); err != nil {
			logger.Error("readiness check: database ping failed", "error", err)
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "database not ready"})
			return
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error("readiness check: redis ping failed", "error", err)
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "redis not ready"})
			return
		}

		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	r.Handle("/metrics", promhttp.HandlerFor(metricsReg, promhttp.HandlerOpts{}))

	return r
}

func respondJSON(w http.ResponseWriter, status int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// auditingSink wraps a notify.Sink so every delivered notification also
// leaves an audit trail entry, without requiring the failover controller
// itself to know about auditing.
type auditingSink struct {
	inner  notify.Sink
	writer *audit.Writer
}

func (s auditingSink) Send(ctx context.Context, channel notify.Channel, payload notify.Payload) error {
	s.writer.Log(store.SystemNamespace, "notification.sent", string(channel), map[string]string{
		"title": payload.Title,
	})
	return s.inner.Send(ctx, channel, payload)
}

// slaCalculateProcessor builds the Processor run for "sla.calculate" jobs:
// measure a target's window, persist the measurement, build a report, and
// hand it to the file generator.
func slaCalculateProcessor(mgr *sla.Manager, gen sla.FileGenerator, auditWriter *audit.Writer, logger *slog.Logger) jobs.Processor {
	return func(h *jobs.Handle, job jobs.Job) error {
		req, ok := job.Data.(slaCalculationRequest)
		if !ok {
			return fmt.Errorf("sla.calculate: unexpected job data type %T", job.Data)
		}

		ctx := h.Context()
		measurement, err := mgr.Measure(ctx, req.Target, req.Start, req.End, 0, defaultProbeNominal)
		if err != nil {
			return fmt.Errorf("measuring sla target %s: %w", req.Target.ID, err)
		}

		report, err := mgr.GenerateReport(ctx, req.Target, req.Start, req.End)
		if err != nil {
			return fmt.Errorf("generating sla report for %s: %w", req.Target.ID, err)
		}

		path, err := gen.Generate(sla.ReportFileRequest{Report: report, Format: sla.FormatJSON})
		if err != nil {
			return fmt.Errorf("writing sla report file for %s: %w", req.Target.ID, err)
		}

		auditWriter.Log(req.Target.NestID, "sla.measured", "sla-target:"+req.Target.ID, map[string]string{
			"complianceScore": fmt.Sprintf("%.0f", measurement.ComplianceScore),
			"reportPath":      path,
		})
		logger.Info("sla measurement complete", "target", req.Target.ID, "complianceScore", measurement.ComplianceScore, "report", path)
		return nil
	}
}
