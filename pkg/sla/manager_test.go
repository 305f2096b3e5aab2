package sla

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/m00npl/guardant/pkg/domain"
	"github.com/m00npl/guardant/pkg/store"
	"github.com/m00npl/guardant/pkg/store/memstore"
)

func testManager() *Manager {
	logger := slog.New(slog.NewTextHandler(nil, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	return NewManager(memstore.New(), logger)
}

func TestManager_CreateTargetRejectsOutOfRangeValues(t *testing.T) {
	m := testManager()
	_, err := m.CreateTarget(context.Background(), SLATarget{
		NestID:              "nest-1",
		Window:              WindowMonthly,
		UptimeTargetPercent: 150, // out of [0,100]
	})
	if err == nil {
		t.Fatal("expected validation error for uptime target out of range")
	}
}

func TestManager_CreateTargetPersistsAndAssignsID(t *testing.T) {
	m := testManager()
	target, err := m.CreateTarget(context.Background(), SLATarget{
		NestID:                    "nest-1",
		Window:                    WindowMonthly,
		UptimeTargetPercent:       99.9,
		ResponseTimeTargetMS:      200,
		ErrorRateTargetPercent:    1,
		AvailabilityTargetPercent: 99,
	})
	if err != nil {
		t.Fatalf("CreateTarget: %v", err)
	}
	if target.ID == "" {
		t.Fatal("expected an assigned ID")
	}

	loaded, err := m.GetTarget(context.Background(), "nest-1", target.ID)
	if err != nil {
		t.Fatalf("GetTarget: %v", err)
	}
	if loaded.ID != target.ID {
		t.Fatalf("expected loaded target to match, got %+v", loaded)
	}
}

func TestManager_MeasureReadsOnlyMatchingServiceAndWindow(t *testing.T) {
	m := testManager()
	ctx := context.Background()

	start := time.Now().Truncate(time.Minute)
	end := start.Add(10 * time.Minute)
	serviceA := "svc-a"
	serviceB := "svc-b"

	ts := start
	for i := 0; i < 10; i++ {
		if err := m.store.Put(ctx, "nest-1", store.DataTypeMonitoringData, domain.MonitoringDataKey(serviceA, ts), domain.ProbeResult{
			ServiceID: serviceA, NestID: "nest-1", Status: domain.StatusUp, Timestamp: ts,
		}); err != nil {
			t.Fatalf("seeding monitoring data: %v", err)
		}
		ts = ts.Add(time.Minute)
	}

	// Down samples for another service inside the window, and for serviceA
	// outside it, must both be ignored.
	for _, r := range []domain.ProbeResult{
		{ServiceID: serviceB, NestID: "nest-1", Status: domain.StatusDown, Timestamp: start.Add(time.Minute)},
		{ServiceID: serviceA, NestID: "nest-1", Status: domain.StatusDown, Timestamp: end.Add(time.Minute)},
	} {
		if err := m.store.Put(ctx, "nest-1", store.DataTypeMonitoringData, domain.MonitoringDataKey(r.ServiceID, r.Timestamp), r); err != nil {
			t.Fatalf("seeding monitoring data: %v", err)
		}
	}

	target := SLATarget{
		ID:                        "sla-a",
		NestID:                    "nest-1",
		ServiceID:                 &serviceA,
		UptimeTargetPercent:       99,
		ErrorRateTargetPercent:    1,
		AvailabilityTargetPercent: 99,
		Window:                    WindowMonthly,
	}

	measurement, err := m.Measure(ctx, target, start, end, 0, 0)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if measurement.Uptime.Actual != 100 {
		t.Fatalf("expected 100%% uptime over 10 up samples across 10 minutes, got %v", measurement.Uptime.Actual)
	}
	if measurement.ErrorRate.Actual != 0 {
		t.Fatalf("expected other-service and out-of-window down samples to be ignored, got error rate %v", measurement.ErrorRate.Actual)
	}
}
