package failover

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/m00npl/guardant/internal/telemetry"
	"github.com/m00npl/guardant/pkg/idgen"
	"github.com/m00npl/guardant/pkg/notify"
	"github.com/m00npl/guardant/pkg/store"
)

// Config tunes the controller's health-check and detection cadence.
type Config struct {
	HealthCheckInterval    time.Duration
	HealthCheckTimeout     time.Duration
	HealthCheckRetries     int
	DetectionInterval      time.Duration
	MaxConcurrentFailovers int
	MetricsRetentionPeriod time.Duration
}

// DefaultConfig returns the controller's documented default tuning.
func DefaultConfig() Config {
	return Config{
		HealthCheckInterval:    10 * time.Second,
		HealthCheckTimeout:     5 * time.Second,
		HealthCheckRetries:     3,
		DetectionInterval:      15 * time.Second,
		MaxConcurrentFailovers: 5,
		MetricsRetentionPeriod: 24 * time.Hour,
	}
}

// Controller is the Failover Controller's composition root: endpoint health
// monitoring, rule evaluation, failover execution, and recovery.
type Controller struct {
	cfg    Config
	store  store.Store
	router TrafficRouter
	sink   notify.Sink
	logger *slog.Logger
	client *http.Client

	mu        sync.Mutex
	endpoints map[string]*ServiceEndpoint
	buffers   map[string]*ringBuffer
	rules     []FailoverRule
	events    map[string]*FailoverEvent // all events, by ID
	active    map[string]string         // sourceEndpoint -> active event ID

	wg sync.WaitGroup
}

// NewController wires a Controller. sink may be nil, in which case
// notifications are silently skipped.
func NewController(cfg Config, st store.Store, router TrafficRouter, sink notify.Sink, logger *slog.Logger) *Controller {
	return &Controller{
		cfg:       cfg,
		store:     st,
		router:    router,
		sink:      sink,
		logger:    logger,
		client:    &http.Client{},
		endpoints: make(map[string]*ServiceEndpoint),
		buffers:   make(map[string]*ringBuffer),
		events:    make(map[string]*FailoverEvent),
		active:    make(map[string]string),
	}
}

// RegisterEndpoint persists e and makes it eligible for health checking.
func (c *Controller) RegisterEndpoint(ctx context.Context, e ServiceEndpoint) error {
	if e.ID == "" {
		e.ID = idgen.New(idgen.PrefixServiceEndpoint)
	}
	if e.Status == "" {
		e.Status = EndpointUnknown
	}

	if err := c.store.Put(ctx, namespace, dataType, endpointKey(e.ID), e); err != nil {
		return fmt.Errorf("persisting endpoint %s: %w", e.ID, err)
	}

	c.mu.Lock()
	copy := e
	c.endpoints[e.ID] = &copy
	if _, ok := c.buffers[e.ID]; !ok {
		c.buffers[e.ID] = newRingBuffer(512)
	}
	c.mu.Unlock()
	return nil
}

// RegisterRule persists r and makes it eligible for evaluation.
func (c *Controller) RegisterRule(ctx context.Context, r FailoverRule) error {
	if r.ID == "" {
		r.ID = idgen.New(idgen.PrefixFailoverRule)
	}

	if err := c.store.Put(ctx, namespace, dataType, ruleKey(r.ID), r); err != nil {
		return fmt.Errorf("persisting rule %s: %w", r.ID, err)
	}

	c.mu.Lock()
	replaced := false
	for i, existing := range c.rules {
		if existing.ID == r.ID {
			c.rules[i] = r
			replaced = true
			break
		}
	}
	if !replaced {
		c.rules = append(c.rules, r)
	}
	c.mu.Unlock()
	return nil
}

// endpointSnapshot returns a copy of every registered endpoint.
func (c *Controller) endpointSnapshot() []ServiceEndpoint {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]ServiceEndpoint, 0, len(c.endpoints))
	for _, e := range c.endpoints {
		out = append(out, *e)
	}
	return out
}

func (c *Controller) endpoint(id string) (ServiceEndpoint, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.endpoints[id]
	if !ok {
		return ServiceEndpoint{}, false
	}
	return *e, true
}

func (c *Controller) setEndpointStatus(ctx context.Context, id string, status EndpointStatus, lastCheck time.Time) {
	c.mu.Lock()
	e, ok := c.endpoints[id]
	if !ok {
		c.mu.Unlock()
		return
	}
	changed := e.Status != status
	e.Status = status
	e.LastHealthCheck = lastCheck
	snapshot := *e
	c.mu.Unlock()

	if err := c.store.Put(ctx, namespace, dataType, endpointKey(id), snapshot); err != nil {
		c.logger.Warn("persisting endpoint status", "endpoint_id", id, "error", err)
	}
	if changed {
		c.logger.Info("endpoint status changed", "endpoint_id", id, "status", status)
	}
}

func (c *Controller) setEndpointLoad(ctx context.Context, id string, load float64) {
	c.mu.Lock()
	e, ok := c.endpoints[id]
	if !ok {
		c.mu.Unlock()
		return
	}
	e.CurrentLoad = load
	snapshot := *e
	c.mu.Unlock()

	if err := c.store.Put(ctx, namespace, dataType, endpointKey(id), snapshot); err != nil {
		c.logger.Warn("persisting endpoint load", "endpoint_id", id, "error", err)
	}
}

func (c *Controller) ringBuffer(endpointID string) *ringBuffer {
	c.mu.Lock()
	defer c.mu.Unlock()
	rb, ok := c.buffers[endpointID]
	if !ok {
		rb = newRingBuffer(512)
		c.buffers[endpointID] = rb
	}
	return rb
}

// Run starts the health-check and rule-detection loops and blocks until ctx
// is cancelled.
func (c *Controller) Run(ctx context.Context) {
	c.wg.Add(2)
	go c.runHealthLoop(ctx)
	go c.runDetectionLoop(ctx)
	<-ctx.Done()
}

// Shutdown waits up to grace for in-flight work to finish.
func (c *Controller) Shutdown(grace time.Duration) {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(grace):
		c.logger.Warn("failover controller shutdown grace period elapsed with work still in flight")
	}
}

func (c *Controller) notify(ctx context.Context, channel notify.Channel, title, body string, fields map[string]string) {
	if c.sink == nil {
		return
	}
	if err := c.sink.Send(ctx, channel, notify.Payload{Title: title, Body: body, Fields: fields}); err != nil {
		c.logger.Warn("notification delivery failed", "title", title, "error", err)
	}
}
