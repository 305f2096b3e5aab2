package monitor

import (
	"context"
	"log/slog"
	"io"
	"testing"
	"time"

	"github.com/m00npl/guardant/pkg/domain"
	"github.com/m00npl/guardant/pkg/store"
	"github.com/m00npl/guardant/pkg/store/memstore"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegisterServicePersistsConfiguration(t *testing.T) {
	st := memstore.New()
	e := NewEngine(DefaultConfig(), st, testLogger())
	ctx := context.Background()

	svc := domain.NestService{
		ID: "svc1", NestID: "nest-a", Type: domain.ServiceTypeHeartbeat, IntervalSeconds: 3600,
		HeartbeatConfig: &domain.HeartbeatConfig{ExpectedIntervalSeconds: 60},
	}
	if err := e.RegisterService(ctx, svc); err != nil {
		t.Fatalf("register: %v", err)
	}
	defer e.Shutdown(time.Second)

	var got domain.NestService
	if err := st.Get(ctx, "nest-a", store.DataTypeConfiguration, svc.ConfigurationKey(), &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "svc1" {
		t.Fatalf("got %+v", got)
	}
}

func TestReRegisterReplacesTimer(t *testing.T) {
	st := memstore.New()
	e := NewEngine(DefaultConfig(), st, testLogger())
	ctx := context.Background()

	svc := domain.NestService{
		ID: "svc1", NestID: "nest-a", Type: domain.ServiceTypeHeartbeat, IntervalSeconds: 3600,
		HeartbeatConfig: &domain.HeartbeatConfig{ExpectedIntervalSeconds: 60},
	}
	if err := e.RegisterService(ctx, svc); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := e.RegisterService(ctx, svc); err != nil {
		t.Fatalf("re-register: %v", err)
	}
	defer e.Shutdown(time.Second)

	e.mu.Lock()
	n := len(e.services)
	e.mu.Unlock()
	if n != 1 {
		t.Fatalf("got %d scheduled services, want exactly 1 after re-registration", n)
	}
}

func TestUnknownServiceTypeProducesDown(t *testing.T) {
	st := memstore.New()
	e := NewEngine(DefaultConfig(), st, testLogger())
	ctx := context.Background()

	svc := domain.NestService{ID: "svc1", NestID: "nest-a", Type: "not-a-real-type", Target: "whatever"}
	result := e.executeWithRetry(ctx, svc, time.Now())
	if result.Status != domain.StatusDown || result.Message != "Unknown service type" {
		t.Fatalf("got %+v, want down Unknown service type", result)
	}
	if result.Attempt != 1 {
		t.Fatalf("got attempt %d, want 1", result.Attempt)
	}
}
