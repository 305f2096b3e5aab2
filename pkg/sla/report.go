package sla

import (
	"fmt"
	"time"
)

// BuildReport aggregates measurements (already sorted or not — sorted here
// by WindowStart) into a single report covering [start, end].
func BuildReport(targetID string, measurements []SLAMeasurement, start, end time.Time) Report {
	sorted := make([]SLAMeasurement, len(measurements))
	copy(sorted, measurements)
	sortMeasurementsByWindowStart(sorted)

	report := Report{
		SLATargetID:  targetID,
		WindowStart:  start,
		WindowEnd:    end,
		Measurements: sorted,
		Trend:        trend(sorted),
		Incidents:    incidents(sorted),
	}
	report.Summary = summarize(sorted)
	return report
}

func sortMeasurementsByWindowStart(m []SLAMeasurement) {
	for i := 1; i < len(m); i++ {
		for j := i; j > 0 && m[j].WindowStart.Before(m[j-1].WindowStart); j-- {
			m[j], m[j-1] = m[j-1], m[j]
		}
	}
}

// trend compares the most recent measurement's complianceScore against the
// one before it. A move of more than trendThresholdPercent of the prior
// score counts as improving/degrading; anything smaller is stable.
func trend(measurements []SLAMeasurement) TrendDirection {
	if len(measurements) < 2 {
		return TrendStable
	}
	prev := measurements[len(measurements)-2].ComplianceScore
	curr := measurements[len(measurements)-1].ComplianceScore

	if prev == 0 {
		if curr == 0 {
			return TrendStable
		}
		return TrendImproving
	}

	deltaPercent := (curr - prev) / prev * 100
	switch {
	case deltaPercent > trendThresholdPercent:
		return TrendImproving
	case deltaPercent < -trendThresholdPercent:
		return TrendDegrading
	default:
		return TrendStable
	}
}

func incidents(measurements []SLAMeasurement) []Incident {
	var out []Incident
	for _, m := range measurements {
		if m.OverallCompliance {
			continue
		}
		var failed []Metric
		if !m.Uptime.Compliant {
			failed = append(failed, MetricUptime)
		}
		if !m.ResponseTime.Compliant {
			failed = append(failed, MetricResponseTime)
		}
		if !m.ErrorRate.Compliant {
			failed = append(failed, MetricErrorRate)
		}
		if !m.Availability.Compliant {
			failed = append(failed, MetricAvailability)
		}
		out = append(out, Incident{
			MeasurementID: m.ID,
			WindowStart:   m.WindowStart,
			WindowEnd:     m.WindowEnd,
			FailedMetrics: failed,
		})
	}
	return out
}

func summarize(measurements []SLAMeasurement) string {
	if len(measurements) == 0 {
		return "no measurements in this window"
	}
	var compliant int
	var scoreSum float64
	for _, m := range measurements {
		if m.OverallCompliance {
			compliant++
		}
		scoreSum += m.ComplianceScore
	}
	avg := scoreSum / float64(len(measurements))
	return fmt.Sprintf("%d/%d windows fully compliant, average compliance score %.1f", compliant, len(measurements), avg)
}
