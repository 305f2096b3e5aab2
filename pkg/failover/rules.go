package failover

import (
	"context"
	"regexp"
	"sort"
	"time"
)

func (c *Controller) runDetectionLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.DetectionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.evaluateRules(ctx)
		}
	}
}

func (c *Controller) rulesSnapshot() []FailoverRule {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]FailoverRule, len(c.rules))
	copy(out, c.rules)
	return out
}

func (c *Controller) evaluateRules(ctx context.Context) {
	rules := c.rulesSnapshot()
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority < rules[j].Priority })

	cutoff := time.Now().Add(-60 * time.Second)

	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		pattern, err := regexp.Compile(rule.ServicePattern)
		if err != nil {
			c.logger.Warn("invalid servicePattern, skipping rule", "rule_id", rule.ID, "pattern", rule.ServicePattern, "error", err)
			continue
		}

		for _, e := range c.endpointSnapshot() {
			if !pattern.MatchString(e.Name) {
				continue
			}
			if c.inCooldown(e.ID, rule) {
				continue
			}

			metrics := c.ringBuffer(e.ID).metricsSince(cutoff)
			if !evaluateConditions(rule.TriggerConditions, metrics) {
				continue
			}

			if c.activeFailoverCount() >= c.cfg.MaxConcurrentFailovers {
				c.logger.Warn("max concurrent failovers reached, skipping trigger", "endpoint_id", e.ID, "rule_id", rule.ID)
				continue
			}

			c.triggerFailover(ctx, e, rule)
		}
	}
}

// inCooldown reports whether a failover for endpointID under rule was
// triggered within the last rule.CooldownPeriod.
func (c *Controller) inCooldown(endpointID string, rule FailoverRule) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-rule.CooldownPeriod)
	for _, ev := range c.events {
		if ev.SourceEndpoint != endpointID || ev.RuleID != rule.ID {
			continue
		}
		if ev.Timestamp.After(cutoff) {
			return true
		}
	}
	return false
}

func (c *Controller) activeFailoverCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.active)
}

func evaluateConditions(conditions []TriggerCondition, m Metrics) bool {
	for _, cond := range conditions {
		if !evaluateCondition(cond, m) {
			return false
		}
	}
	return len(conditions) > 0
}

func evaluateCondition(cond TriggerCondition, m Metrics) bool {
	var actual float64
	switch cond.Metric {
	case MetricResponseTime:
		actual = float64(m.ResponseTime.Milliseconds())
	case MetricErrorRate:
		actual = m.ErrorRate
	case MetricAvailability:
		actual = m.Availability
	default:
		return false
	}

	switch cond.Operator {
	case OpGT:
		return actual > cond.Threshold
	case OpGTE:
		return actual >= cond.Threshold
	case OpLT:
		return actual < cond.Threshold
	case OpLTE:
		return actual <= cond.Threshold
	case OpEQ:
		return actual == cond.Threshold
	case OpNEQ:
		return actual != cond.Threshold
	default:
		return false
	}
}
