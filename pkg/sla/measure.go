package sla

import (
	"sort"
	"time"

	"github.com/m00npl/guardant/pkg/domain"
)

// nominalGapFactor is the multiple of the nominal sample interval beyond
// which an inter-sample gap is recorded as a data-quality gap.
const nominalGapFactor = 3

// aggregate derives an SLAMeasurement's metrics from samples collected
// within [start, end]. scheduledDowntime is subtracted from the window's
// total minutes when target.ExcludeScheduledMaintenance is set.
// nominalInterval, when non-zero, drives gap detection.
func aggregate(target SLATarget, samples []domain.ProbeResult, start, end time.Time, scheduledDowntime time.Duration, nominalInterval time.Duration) SLAMeasurement {
	sort.Slice(samples, func(i, j int) bool { return samples[i].Timestamp.Before(samples[j].Timestamp) })

	var upCount, downCount, unknownCount int
	var responseTimes []float64
	for _, s := range samples {
		switch s.Status {
		case domain.StatusUp:
			upCount++
			if s.ResponseTimeMS != nil {
				responseTimes = append(responseTimes, *s.ResponseTimeMS)
			}
		case domain.StatusDown:
			downCount++
		case domain.StatusUnknown:
			unknownCount++
		}
	}

	totalMinutes := end.Sub(start).Minutes()
	if target.ExcludeScheduledMaintenance {
		totalMinutes -= scheduledDowntime.Minutes()
	}
	if totalMinutes <= 0 {
		totalMinutes = 1
	}

	uptimeActual := float64(upCount) / totalMinutes * 100
	errorRateActual := float64(downCount) / totalMinutes * 100
	availabilityActual := float64(upCount) / totalMinutes * 100
	responseTimeActual := percentile(responseTimes, target.ResponseTimePercentile)

	m := SLAMeasurement{
		SLATargetID: target.ID,
		NestID:      target.NestID,
		WindowStart: start,
		WindowEnd:   end,
		Uptime: MetricResult{
			Actual:    uptimeActual,
			Target:    target.UptimeTargetPercent,
			Compliant: uptimeActual >= target.UptimeTargetPercent,
		},
		ResponseTime: MetricResult{
			Actual:    responseTimeActual,
			Target:    target.ResponseTimeTargetMS,
			Compliant: responseTimeActual <= target.ResponseTimeTargetMS,
		},
		ErrorRate: MetricResult{
			Actual:    errorRateActual,
			Target:    target.ErrorRateTargetPercent,
			Compliant: errorRateActual <= target.ErrorRateTargetPercent,
		},
		Availability: MetricResult{
			Actual:    availabilityActual,
			Target:    target.AvailabilityTargetPercent,
			Compliant: availabilityActual >= target.AvailabilityTargetPercent,
		},
		DataQuality: dataQuality(samples, start, end, nominalInterval),
		CreatedAt:   start,
	}

	compliantCount := 0
	for _, compliant := range []bool{m.Uptime.Compliant, m.ResponseTime.Compliant, m.ErrorRate.Compliant, m.Availability.Compliant} {
		if compliant {
			compliantCount++
		}
	}
	m.OverallCompliance = compliantCount == 4
	m.ComplianceScore = 100 * float64(compliantCount) / 4

	m.AppliedPenalties = evaluatePenalties(target.PenaltyTable, m)
	m.EarnedCredits = evaluateCredits(target.CreditTable, m)

	return m
}

// percentile returns the pth percentile (0-100) of values using the
// nearest-rank method. Returns 0 for an empty input.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := int((p/100)*float64(len(sorted)) + 0.999999)
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

func dataQuality(samples []domain.ProbeResult, start, end time.Time, nominalInterval time.Duration) DataQuality {
	windowMinutes := end.Sub(start).Minutes()
	expected := windowMinutes
	if nominalInterval > 0 {
		expected = end.Sub(start).Seconds() / nominalInterval.Seconds()
	}

	dq := DataQuality{}
	if expected > 0 {
		dq.Completeness = float64(len(samples)) / expected
		if dq.Completeness > 1 {
			dq.Completeness = 1
		}
	}

	if nominalInterval <= 0 || len(samples) < 2 {
		return dq
	}

	threshold := time.Duration(nominalGapFactor) * nominalInterval
	for i := 1; i < len(samples); i++ {
		gap := samples[i].Timestamp.Sub(samples[i-1].Timestamp)
		if gap > threshold {
			dq.Gaps = append(dq.Gaps, Gap{Start: samples[i-1].Timestamp, End: samples[i].Timestamp})
		}
	}
	return dq
}
