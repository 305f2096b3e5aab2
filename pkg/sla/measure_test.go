package sla

import (
	"math"
	"testing"
	"time"

	"github.com/m00npl/guardant/pkg/domain"
)

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func TestAggregate_ThirtyDayWindowComputesComplianceScore75(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 30) // 43200 minutes

	samples := make([]domain.ProbeResult, 0, 43200)
	ts := start
	respMS := 50.0
	for i := 0; i < 43100; i++ {
		samples = append(samples, domain.ProbeResult{Status: domain.StatusUp, Timestamp: ts, ResponseTimeMS: &respMS})
		ts = ts.Add(time.Minute)
	}
	for i := 0; i < 100; i++ {
		samples = append(samples, domain.ProbeResult{Status: domain.StatusDown, Timestamp: ts})
		ts = ts.Add(time.Minute)
	}

	target := SLATarget{
		ID:                        "sla_1",
		NestID:                    "nest-1",
		UptimeTargetPercent:       99.9,
		ResponseTimeTargetMS:      200,
		ResponseTimePercentile:    95,
		ErrorRateTargetPercent:    1,
		AvailabilityTargetPercent: 99,
		Window:                    WindowMonthly,
	}

	m := aggregate(target, samples, start, end, 0, 0)

	if !almostEqual(m.Uptime.Actual, 99.768, 0.01) {
		t.Fatalf("expected uptime actual ~=99.768, got %v", m.Uptime.Actual)
	}
	if m.Uptime.Compliant {
		t.Fatal("expected uptime non-compliant against a 99.9 target")
	}
	if !m.ResponseTime.Compliant {
		t.Fatalf("expected response time compliant, got actual=%v target=%v", m.ResponseTime.Actual, m.ResponseTime.Target)
	}
	if !m.ErrorRate.Compliant {
		t.Fatalf("expected error rate compliant, got actual=%v", m.ErrorRate.Actual)
	}
	if !m.Availability.Compliant {
		t.Fatalf("expected availability compliant, got actual=%v", m.Availability.Actual)
	}
	if m.OverallCompliance {
		t.Fatal("expected overall compliance false since uptime failed")
	}
	if m.ComplianceScore != 75 {
		t.Fatalf("expected complianceScore 75 (3 of 4 metrics compliant), got %v", m.ComplianceScore)
	}
}

func TestAggregate_UptimeExcludesScheduledDowntime(t *testing.T) {
	start := time.Now().Truncate(time.Minute)
	end := start.Add(100 * time.Minute)

	samples := make([]domain.ProbeResult, 0, 90)
	ts := start
	for i := 0; i < 90; i++ {
		samples = append(samples, domain.ProbeResult{Status: domain.StatusUp, Timestamp: ts})
		ts = ts.Add(time.Minute)
	}

	target := SLATarget{ExcludeScheduledMaintenance: true, UptimeTargetPercent: 99}
	m := aggregate(target, samples, start, end, 10*time.Minute, 0)

	// totalMinutes = 100 - 10 = 90; uptime = 90/90*100 = 100
	if !almostEqual(m.Uptime.Actual, 100, 0.01) {
		t.Fatalf("expected uptime 100%% after excluding scheduled downtime, got %v", m.Uptime.Actual)
	}
}

func TestAggregate_UnknownSamplesDoNotCountAsDown(t *testing.T) {
	start := time.Now().Truncate(time.Minute)
	end := start.Add(10 * time.Minute)

	samples := []domain.ProbeResult{
		{Status: domain.StatusUp, Timestamp: start},
		{Status: domain.StatusUnknown, Timestamp: start.Add(time.Minute)},
		{Status: domain.StatusUnknown, Timestamp: start.Add(2 * time.Minute)},
	}

	target := SLATarget{ErrorRateTargetPercent: 50}
	m := aggregate(target, samples, start, end, 0, 0)

	if m.ErrorRate.Actual != 0 {
		t.Fatalf("expected unknown samples excluded from error rate, got %v", m.ErrorRate.Actual)
	}
}

func TestPercentile_NearestRank(t *testing.T) {
	values := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	if got := percentile(values, 95); got != 100 {
		t.Fatalf("expected p95 of 10 evenly spaced values to be 100, got %v", got)
	}
	if got := percentile(values, 50); got != 50 {
		t.Fatalf("expected p50 to be 50, got %v", got)
	}
	if got := percentile(nil, 95); got != 0 {
		t.Fatalf("expected 0 for empty input, got %v", got)
	}
}

func TestEvaluatePenalties_FiresOnUnfavorableBreach(t *testing.T) {
	m := SLAMeasurement{
		Uptime: MetricResult{Actual: 99.5},
	}
	table := []PenaltyRule{
		{Metric: MetricUptime, Threshold: 99.9, PenaltyPercent: 5},
	}
	applied := evaluatePenalties(table, m)
	if len(applied) != 1 {
		t.Fatalf("expected 1 penalty applied for uptime below threshold, got %d", len(applied))
	}
}

func TestEvaluateCredits_FiresOnFavorableClearance(t *testing.T) {
	m := SLAMeasurement{
		Availability: MetricResult{Actual: 99.99},
	}
	table := []CreditRule{
		{Metric: MetricAvailability, Threshold: 99.95, CreditPercent: 2},
	}
	earned := evaluateCredits(table, m)
	if len(earned) != 1 {
		t.Fatalf("expected 1 credit earned for availability above threshold, got %d", len(earned))
	}
}
