package sla

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/m00npl/guardant/pkg/domain"
	"github.com/m00npl/guardant/pkg/idgen"
	"github.com/m00npl/guardant/pkg/store"
)

// Manager is the SLA Manager's composition root: target lifecycle,
// windowed measurement against stored probe results, and report assembly.
type Manager struct {
	store  store.Store
	logger *slog.Logger
}

// NewManager wires a Manager over st.
func NewManager(st store.Store, logger *slog.Logger) *Manager {
	return &Manager{store: st, logger: logger}
}

// CreateTarget validates and persists t, assigning an ID if absent.
func (m *Manager) CreateTarget(ctx context.Context, t SLATarget) (SLATarget, error) {
	if err := ValidateTarget(t); err != nil {
		return SLATarget{}, err
	}

	if t.ID == "" {
		t.ID = idgen.New(idgen.PrefixSLATarget)
	}
	t.Version++
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	if err := m.store.Put(ctx, t.NestID, dataType, targetKey(t.ID), t); err != nil {
		return SLATarget{}, fmt.Errorf("persisting sla target %s: %w", t.ID, err)
	}
	return t, nil
}

// GetTarget loads a target by ID.
func (m *Manager) GetTarget(ctx context.Context, nestID, id string) (SLATarget, error) {
	var t SLATarget
	if err := m.store.Get(ctx, nestID, dataType, targetKey(id), &t); err != nil {
		return SLATarget{}, fmt.Errorf("loading sla target %s: %w", id, err)
	}
	return t, nil
}

// ListTargets lists every persisted target for a nest. DataTypeSLAData also
// holds measurements; rows lacking a Window are not targets and are
// skipped.
func (m *Manager) ListTargets(ctx context.Context, nestID string) ([]SLATarget, error) {
	var all []SLATarget
	if err := m.store.ListByType(ctx, nestID, dataType, &all); err != nil {
		return nil, fmt.Errorf("listing sla targets for %s: %w", nestID, err)
	}

	out := make([]SLATarget, 0, len(all))
	for _, t := range all {
		if t.Window != "" {
			out = append(out, t)
		}
	}
	return out, nil
}

// Measure derives and persists an SLAMeasurement for target over
// [start, end], reading probe results through the Tenant Data Store.
// scheduledDowntime and nominalInterval feed the uptime-exclusion and
// gap-detection calculations respectively; both may be zero.
func (m *Manager) Measure(ctx context.Context, target SLATarget, start, end time.Time, scheduledDowntime, nominalInterval time.Duration) (SLAMeasurement, error) {
	var all []domain.ProbeResult
	if err := m.store.ListByType(ctx, target.NestID, store.DataTypeMonitoringData, &all); err != nil {
		return SLAMeasurement{}, fmt.Errorf("loading monitoring data for %s: %w", target.NestID, err)
	}

	samples := make([]domain.ProbeResult, 0, len(all))
	for _, r := range all {
		if target.ServiceID != nil && r.ServiceID != *target.ServiceID {
			continue
		}
		if r.Timestamp.Before(start) || r.Timestamp.After(end) {
			continue
		}
		samples = append(samples, r)
	}

	measurement := aggregate(target, samples, start, end, scheduledDowntime, nominalInterval)
	measurement.ID = idgen.New(idgen.PrefixSLAMeasurement)
	measurement.CreatedAt = time.Now()

	if err := m.store.Put(ctx, target.NestID, dataType, measurementKey(measurement.ID), measurement); err != nil {
		return SLAMeasurement{}, fmt.Errorf("persisting sla measurement %s: %w", measurement.ID, err)
	}
	return measurement, nil
}

// Measurements lists every persisted measurement for a nest. Callers narrow
// to one target or window themselves; ListByType has no server-side filter.
func (m *Manager) Measurements(ctx context.Context, nestID string) ([]SLAMeasurement, error) {
	var all []SLAMeasurement
	if err := m.store.ListByType(ctx, nestID, dataType, &all); err != nil {
		return nil, fmt.Errorf("listing sla measurements for %s: %w", nestID, err)
	}

	out := make([]SLAMeasurement, 0, len(all))
	for _, meas := range all {
		if meas.SLATargetID != "" {
			out = append(out, meas)
		}
	}
	return out, nil
}

// GenerateReport assembles a Report for target over [start, end] from
// matching persisted measurements.
func (m *Manager) GenerateReport(ctx context.Context, target SLATarget, start, end time.Time) (Report, error) {
	all, err := m.Measurements(ctx, target.NestID)
	if err != nil {
		return Report{}, err
	}

	matching := make([]SLAMeasurement, 0, len(all))
	for _, meas := range all {
		if meas.SLATargetID != target.ID {
			continue
		}
		if meas.WindowStart.Before(start) || meas.WindowEnd.After(end) {
			continue
		}
		matching = append(matching, meas)
	}

	return BuildReport(target.ID, matching, start, end), nil
}
