// Package monitor implements the Probe Engine: service registration,
// per-service scheduling, retry-with-network-sanity-check orchestration, and
// result persistence through the Tenant Data Store.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/m00npl/guardant/internal/telemetry"
	"github.com/m00npl/guardant/pkg/domain"
	"github.com/m00npl/guardant/pkg/probe"
	"github.com/m00npl/guardant/pkg/store"
)

// Config tunes the retry and concurrency behavior of the engine.
type Config struct {
	MaxRetries              int
	RetryDelay              time.Duration
	CheckTimeout            time.Duration
	ConcurrentChecks        int
	NetworkConnectivityCheck bool
	NetworkTestURLs         []string

	// StoreMetrics gates whether a ProbeResult is persisted to the Tenant
	// Data Store. The service's last-known status row is always updated
	// regardless, since failover/alerting depend on it.
	StoreMetrics bool
}

// DefaultConfig returns the engine's documented default tuning.
func DefaultConfig() Config {
	return Config{
		MaxRetries:               3,
		RetryDelay:               5 * time.Second,
		CheckTimeout:             10 * time.Second,
		ConcurrentChecks:         10,
		NetworkConnectivityCheck: true,
		NetworkTestURLs:          []string{"https://dns.google", "https://cloudflare.com", "https://google.com"},
		StoreMetrics:             true,
	}
}

type scheduledService struct {
	service  domain.NestService
	ticker   *time.Ticker
	cancel   context.CancelFunc
	inFlight *atomic.Bool
}

// Engine owns the service registry and per-service tickers. Re-registering a
// service (same id) atomically replaces its timer; exactly one timer remains
// per service.
type Engine struct {
	cfg      Config
	store    store.Store
	registry *probe.Registry
	logger   *slog.Logger

	mu       sync.Mutex
	services map[string]*scheduledService

	sem chan struct{}

	wg sync.WaitGroup
}

// NewEngine builds an Engine bounded by cfg.ConcurrentChecks in-flight probes.
func NewEngine(cfg Config, st store.Store, logger *slog.Logger) *Engine {
	if cfg.ConcurrentChecks <= 0 {
		cfg.ConcurrentChecks = 1
	}
	return &Engine{
		cfg:      cfg,
		store:    st,
		registry: probe.NewRegistry(),
		logger:   logger,
		services: make(map[string]*scheduledService),
		sem:      make(chan struct{}, cfg.ConcurrentChecks),
	}
}

// RegisterService persists svc through the Tenant Data Store and installs
// a periodic ticker at svc.IntervalSeconds. Re-registration cancels the
// prior timer atomically.
func (e *Engine) RegisterService(ctx context.Context, svc domain.NestService) error {
	if err := ValidateService(svc); err != nil {
		return fmt.Errorf("validating service %s: %w", svc.ID, err)
	}

	if err := e.store.Put(ctx, svc.NestID, store.DataTypeConfiguration, svc.ConfigurationKey(), svc); err != nil {
		return fmt.Errorf("persisting service %s: %w", svc.ID, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if existing, ok := e.services[svc.ID]; ok {
		existing.ticker.Stop()
		existing.cancel()
	}

	interval := time.Duration(svc.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}

	tickCtx, cancel := context.WithCancel(ctx)
	sched := &scheduledService{
		service:  svc,
		ticker:   time.NewTicker(interval),
		cancel:   cancel,
		inFlight: atomic.NewBool(false),
	}
	e.services[svc.ID] = sched

	e.wg.Add(1)
	go e.runSchedule(tickCtx, sched)

	return nil
}

// UnregisterService cancels svc's timer; callers are responsible for
// invoking this when a service is destroyed.
func (e *Engine) UnregisterService(serviceID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sched, ok := e.services[serviceID]
	if !ok {
		return
	}
	sched.ticker.Stop()
	sched.cancel()
	delete(e.services, serviceID)
}

func (e *Engine) runSchedule(ctx context.Context, sched *scheduledService) {
	defer e.wg.Done()
	defer sched.ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sched.ticker.C:
			e.tick(ctx, sched)
		}
	}
}

// tick drops the scheduled check (does not queue it) if the previous run is
// still in flight, preventing unbounded pile-up under a slow target.
func (e *Engine) tick(ctx context.Context, sched *scheduledService) {
	if !sched.inFlight.CompareAndSwap(false, true) {
		telemetry.ProbesDroppedTotal.Inc()
		e.logger.Warn("dropped tick, previous check still in flight", "service_id", sched.service.ID)
		return
	}

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		sched.inFlight.Store(false)
		return
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() { <-e.sem }()
		defer sched.inFlight.Store(false)

		e.runCheck(ctx, sched.service)
	}()
}

// runCheck times one probe execution (including retries) and records it.
func (e *Engine) runCheck(ctx context.Context, svc domain.NestService) {
	start := time.Now()
	result := e.executeWithRetry(ctx, svc, start)
	duration := time.Since(start)

	telemetry.ProbeDuration.WithLabelValues(string(svc.Type)).Observe(duration.Seconds())
	telemetry.ProbesExecutedTotal.WithLabelValues(string(svc.Type), string(result.Status)).Inc()

	e.persistResult(ctx, svc, result)
}

func (e *Engine) executeWithRetry(ctx context.Context, svc domain.NestService, start time.Time) domain.ProbeResult {
	executor, ok := e.registry.Get(svc.Type)
	if !ok {
		return e.synthesize(svc, 1, start, probe.Result{Status: domain.StatusDown, Message: "Unknown service type"})
	}

	maxRetries := e.cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}

	var last probe.Result
	for attempt := 1; attempt <= maxRetries; attempt++ {
		checkCtx, cancel := context.WithTimeout(ctx, e.cfg.CheckTimeout)
		last = executor.Check(checkCtx, svc.Target, svc, e.cfg.CheckTimeout)
		cancel()

		if last.Status == domain.StatusUp {
			return e.synthesize(svc, attempt, start, last)
		}
		if attempt < maxRetries {
			select {
			case <-time.After(e.cfg.RetryDelay):
			case <-ctx.Done():
				return e.synthesize(svc, attempt, start, last)
			}
		}
	}

	if e.cfg.NetworkConnectivityCheck && !e.hasConnectivity(ctx) {
		return e.synthesize(svc, maxRetries, start, probe.Result{
			Status:  domain.StatusUnknown,
			Message: "Network connectivity issue: all probe attempts and connectivity checks failed",
		})
	}

	return e.synthesize(svc, maxRetries, start, last)
}

func (e *Engine) synthesize(svc domain.NestService, attempt int, start time.Time, r probe.Result) domain.ProbeResult {
	msg := r.Message
	if msg == "" {
		msg = "down"
	}
	return domain.ProbeResult{
		ServiceID:       svc.ID,
		NestID:          svc.NestID,
		Status:          r.Status,
		Message:         msg,
		ResponseTimeMS:  r.ResponseTimeMS,
		Timestamp:       time.Now(),
		CheckDurationMS: float64(time.Since(start).Milliseconds()),
		Attempt:         attempt,
		Metadata:        r.Metadata,
	}
}

// hasConnectivity HEADs the configured sanity-check URLs with a 3s timeout;
// any single success is sufficient.
func (e *Engine) hasConnectivity(ctx context.Context) bool {
	urls := e.cfg.NetworkTestURLs
	if len(urls) == 0 {
		urls = DefaultConfig().NetworkTestURLs
	}

	for _, u := range urls {
		checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		ok := headSucceeds(checkCtx, u)
		cancel()
		if ok {
			return true
		}
	}
	return false
}

func (e *Engine) persistResult(ctx context.Context, svc domain.NestService, result domain.ProbeResult) {
	if e.cfg.StoreMetrics {
		key := domain.MonitoringDataKey(svc.ID, result.Timestamp)
		if err := e.store.Put(ctx, svc.NestID, store.DataTypeMonitoringData, key, result); err != nil {
			e.logger.Error("failed to persist probe result", "service_id", svc.ID, "error", err)
		}
	}

	svc.LastStatus = result.Status
	svc.LastCheck = result.Timestamp
	svc.Message = result.Message
	svc.ResponseTimeMS = result.ResponseTimeMS
	svc.RetryCount = result.Attempt
	svc.UpdatedAt = time.Now()

	if err := e.store.Put(ctx, svc.NestID, store.DataTypeConfiguration, svc.ConfigurationKey(), svc); err != nil {
		e.logger.Error("failed to update service status", "service_id", svc.ID, "error", err)
	}
}

// Shutdown cancels all timers and waits up to grace for in-flight probes to
// finish.
func (e *Engine) Shutdown(grace time.Duration) {
	e.mu.Lock()
	for _, sched := range e.services {
		sched.ticker.Stop()
		sched.cancel()
	}
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(grace):
		e.logger.Warn("shutdown grace period elapsed with probes still in flight")
	}
	e.logger.Info("probe engine shutdown complete")
}
