package sla

// evaluatePenalties returns every PenaltyRule whose metric breached
// threshold in the unfavorable direction for this measurement.
func evaluatePenalties(table []PenaltyRule, m SLAMeasurement) []PenaltyRule {
	var applied []PenaltyRule
	for _, rule := range table {
		actual, favorableAboveThreshold := metricActual(rule.Metric, m)
		breached := actual < rule.Threshold
		if !favorableAboveThreshold {
			breached = actual > rule.Threshold
		}
		if breached {
			applied = append(applied, rule)
		}
	}
	return applied
}

// evaluateCredits returns every CreditRule whose metric cleared threshold
// in the favorable direction for this measurement.
func evaluateCredits(table []CreditRule, m SLAMeasurement) []CreditRule {
	var earned []CreditRule
	for _, rule := range table {
		actual, favorableAboveThreshold := metricActual(rule.Metric, m)
		cleared := actual >= rule.Threshold
		if !favorableAboveThreshold {
			cleared = actual <= rule.Threshold
		}
		if cleared {
			earned = append(earned, rule)
		}
	}
	return earned
}

// metricActual returns a measurement's actual value for metric, and whether
// higher values are favorable for that metric (true for uptime/
// availability, false for responseTime/errorRate).
func metricActual(metric Metric, m SLAMeasurement) (actual float64, favorableAboveThreshold bool) {
	switch metric {
	case MetricUptime:
		return m.Uptime.Actual, true
	case MetricAvailability:
		return m.Availability.Actual, true
	case MetricResponseTime:
		return m.ResponseTime.Actual, false
	case MetricErrorRate:
		return m.ErrorRate.Actual, false
	default:
		return 0, true
	}
}
