package failover

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/m00npl/guardant/pkg/store/memstore"
)

type fakeRouter struct {
	mu              sync.Mutex
	redirectAllN    int
	percentageCalls []float64
	validateReady   bool
}

func (f *fakeRouter) RedirectAll(ctx context.Context, source, target ServiceEndpoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.redirectAllN++
	return nil
}

func (f *fakeRouter) RedirectPercentage(ctx context.Context, source, target ServiceEndpoint, pct float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.percentageCalls = append(f.percentageCalls, pct)
	return nil
}

func (f *fakeRouter) ValidateReady(ctx context.Context, target ServiceEndpoint) (bool, error) {
	return f.validateReady, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nil, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func newTestController(t *testing.T, router TrafficRouter) (*Controller, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.HealthCheckInterval = 20 * time.Millisecond
	cfg.DetectionInterval = 20 * time.Millisecond
	cfg.HealthCheckTimeout = 500 * time.Millisecond

	c := NewController(cfg, memstore.New(), router, nil, testLogger())
	return c, srv
}

func TestController_EvaluateRulesTriggersImmediateFailover(t *testing.T) {
	router := &fakeRouter{}
	c, srv := newTestController(t, router)
	ctx := context.Background()

	a := ServiceEndpoint{Name: "api-a", URL: srv.URL, Priority: 1, CurrentLoad: 80, Status: EndpointHealthy, HealthCheckPath: "/"}
	b := ServiceEndpoint{Name: "api-b", URL: srv.URL, Priority: 2, CurrentLoad: 0, Status: EndpointHealthy, HealthCheckPath: "/"}
	if err := c.RegisterEndpoint(ctx, a); err != nil {
		t.Fatalf("RegisterEndpoint a: %v", err)
	}
	if err := c.RegisterEndpoint(ctx, b); err != nil {
		t.Fatalf("RegisterEndpoint b: %v", err)
	}

	var sourceID string
	for _, e := range c.endpointSnapshot() {
		if e.Name == "api-a" {
			sourceID = e.ID
		}
	}

	// Inject a high error rate directly into A's ring buffer rather than
	// waiting out real probe failures.
	rb := c.ringBuffer(sourceID)
	now := time.Now()
	for i := 0; i < 20; i++ {
		rb.add(Sample{Timestamp: now, Healthy: i >= 15, ResponseTime: time.Millisecond})
	}

	rule := FailoverRule{
		ServicePattern: "^api-a$",
		TriggerConditions: []TriggerCondition{
			{Metric: MetricErrorRate, Operator: OpGT, Threshold: 10},
		},
		FailoverStrategy: FailoverStrategy{
			TargetSelection: SelectHighestPriority,
			Execution:       ExecuteImmediate,
		},
		Priority: 1,
		Enabled: true,
	}
	if err := c.RegisterRule(ctx, rule); err != nil {
		t.Fatalf("RegisterRule: %v", err)
	}

	c.evaluateRules(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for {
		c.mu.Lock()
		completed := 0
		for _, ev := range c.events {
			if ev.Status == EventCompleted {
				completed++
			}
		}
		c.mu.Unlock()
		if completed > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.events) != 1 {
		t.Fatalf("expected exactly one failover event, got %d", len(c.events))
	}
	for _, ev := range c.events {
		if ev.SourceEndpoint != sourceID {
			t.Fatalf("expected source %s, got %s", sourceID, ev.SourceEndpoint)
		}
		if ev.Status != EventCompleted {
			t.Fatalf("expected completed status, got %s", ev.Status)
		}
	}

	router.mu.Lock()
	defer router.mu.Unlock()
	if router.redirectAllN != 1 {
		t.Fatalf("expected exactly one RedirectAll call, got %d", router.redirectAllN)
	}
}

func TestController_TriggerFailoverIsReentrantSafe(t *testing.T) {
	router := &fakeRouter{}
	c, srv := newTestController(t, router)
	ctx := context.Background()
	_ = srv

	source := ServiceEndpoint{ID: "src", Name: "api-src", Status: EndpointHealthy}
	target := ServiceEndpoint{ID: "tgt", Name: "api-tgt", Status: EndpointHealthy}
	c.mu.Lock()
	cp1, cp2 := source, target
	c.endpoints["src"] = &cp1
	c.endpoints["tgt"] = &cp2
	c.mu.Unlock()

	rule := FailoverRule{ID: "r1", ServicePattern: "api-src"}

	id1 := c.triggerFailover(ctx, source, rule)
	id2 := c.triggerFailover(ctx, source, rule)

	if id1 != id2 {
		t.Fatalf("expected re-entrant trigger to return the same event ID, got %s and %s", id1, id2)
	}
}

func TestController_CooldownSkipsRecentlyFailedOverEndpoint(t *testing.T) {
	router := &fakeRouter{}
	c, _ := newTestController(t, router)

	rule := FailoverRule{ID: "r1", CooldownPeriod: time.Hour}
	c.mu.Lock()
	c.events["ev1"] = &FailoverEvent{
		ID:             "ev1",
		SourceEndpoint: "src",
		RuleID:         "r1",
		Status:         EventCompleted,
		Timestamp:      time.Now().Add(-time.Minute),
		Duration:       0,
	}
	c.mu.Unlock()

	if !c.inCooldown("src", rule) {
		t.Fatal("expected endpoint to be in cooldown shortly after a completed failover")
	}
}
