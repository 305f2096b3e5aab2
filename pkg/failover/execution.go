package failover

import (
	"context"
	"fmt"
	"time"

	"github.com/m00npl/guardant/internal/telemetry"
	"github.com/m00npl/guardant/pkg/idgen"
	"github.com/m00npl/guardant/pkg/notify"
)

const gradualSteps = 5

// triggerFailover initiates a failover from source under rule. If source
// already has an active, non-terminal event, that event's ID is returned
// instead of starting a second failover for the same source.
func (c *Controller) triggerFailover(ctx context.Context, source ServiceEndpoint, rule FailoverRule) string {
	c.mu.Lock()
	if existingID, ok := c.active[source.ID]; ok {
		c.mu.Unlock()
		return existingID
	}

	event := &FailoverEvent{
		ID:             idgen.New(idgen.PrefixFailoverEvent),
		SourceEndpoint: source.ID,
		RuleID:         rule.ID,
		TriggerReason:  fmt.Sprintf("rule %s matched pattern %q", rule.ID, rule.ServicePattern),
		Status:         EventTriggered,
		Timestamp:      time.Now(),
	}
	c.active[source.ID] = event.ID
	c.events[event.ID] = event
	c.mu.Unlock()

	telemetry.ActiveFailovers.Inc()
	c.persistEvent(ctx, event)

	go c.runFailover(ctx, source, rule, event)
	return event.ID
}

func (c *Controller) runFailover(ctx context.Context, source ServiceEndpoint, rule FailoverRule, event *FailoverEvent) {
	start := time.Now()

	c.setEventStatus(ctx, event, EventInProgress, nil)

	target, err := selectTarget(source, c.endpointSnapshot(), rule.FailoverStrategy.TargetSelection)
	if err != nil {
		c.logger.Error("failover target selection failed", "event_id", event.ID, "error", err)
		c.finishEvent(ctx, event, EventFailed, start)
		return
	}

	c.mu.Lock()
	event.TargetEndpoint = target.ID
	c.mu.Unlock()
	c.persistEvent(ctx, event)

	c.notify(ctx, notify.ChannelSlack, "failover triggered",
		fmt.Sprintf("%s -> %s (rule %s)", source.ID, target.ID, rule.ID),
		map[string]string{"source": source.ID, "target": target.ID, "rule_id": rule.ID})

	execErr := c.executeStrategy(ctx, source, target, rule.FailoverStrategy)
	telemetry.FailoversTriggeredTotal.WithLabelValues(string(rule.FailoverStrategy.Execution)).Inc()

	if execErr != nil {
		c.logger.Error("failover execution failed", "event_id", event.ID, "error", execErr)
		c.finishEvent(ctx, event, EventFailed, start)
		return
	}

	c.setEndpointStatus(ctx, source.ID, EndpointUnhealthy, time.Now())
	c.finishEvent(ctx, event, EventCompleted, start)

	if rule.RecoveryStrategy.Type == RecoveryAutomatic {
		go c.monitorRecovery(context.Background(), source, target, rule)
	}
}

func (c *Controller) executeStrategy(ctx context.Context, source, target ServiceEndpoint, strategy FailoverStrategy) error {
	switch strategy.Execution {
	case ExecuteImmediate, "":
		return c.executeImmediate(ctx, source, target)
	case ExecuteGradual:
		return c.executeGradual(ctx, source, target, strategy)
	case ExecuteBlueGreen:
		return c.executeBlueGreen(ctx, source, target, strategy)
	default:
		return fmt.Errorf("unknown execution strategy %q", strategy.Execution)
	}
}

func (c *Controller) executeImmediate(ctx context.Context, source, target ServiceEndpoint) error {
	if err := c.router.RedirectAll(ctx, source, target); err != nil {
		return fmt.Errorf("redirecting all traffic: %w", err)
	}
	c.setEndpointLoad(ctx, target.ID, target.CurrentLoad+source.CurrentLoad)
	c.setEndpointLoad(ctx, source.ID, 0)
	return nil
}

func (c *Controller) executeGradual(ctx context.Context, source, target ServiceEndpoint, strategy FailoverStrategy) error {
	stepInterval := strategy.DrainTimeout / gradualSteps
	for step := 1; step <= gradualSteps; step++ {
		pct := float64(step) * (100.0 / gradualSteps)
		if err := c.router.RedirectPercentage(ctx, source, target, pct); err != nil {
			return fmt.Errorf("redirecting %.0f%% traffic: %w", pct, err)
		}
		if step < gradualSteps {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(stepInterval):
			}
		}
	}
	c.setEndpointLoad(ctx, target.ID, target.CurrentLoad+source.CurrentLoad)
	c.setEndpointLoad(ctx, source.ID, 0)
	return nil
}

func (c *Controller) executeBlueGreen(ctx context.Context, source, target ServiceEndpoint, strategy FailoverStrategy) error {
	if strategy.ValidateTarget {
		ready, err := c.router.ValidateReady(ctx, target)
		if err != nil {
			return fmt.Errorf("validating target readiness: %w", err)
		}
		if !ready {
			return fmt.Errorf("target %s failed readiness validation", target.ID)
		}
	}
	return c.executeImmediate(ctx, source, target)
}

func (c *Controller) setEventStatus(ctx context.Context, event *FailoverEvent, status EventStatus, recoveredAt *time.Time) {
	c.mu.Lock()
	event.Status = status
	if recoveredAt != nil {
		event.RecoveredAt = *recoveredAt
	}
	snapshot := *event
	c.mu.Unlock()
	c.persistEvent(ctx, &snapshot)
}

func (c *Controller) finishEvent(ctx context.Context, event *FailoverEvent, status EventStatus, start time.Time) {
	c.mu.Lock()
	event.Status = status
	event.Duration = time.Since(start)
	if status.IsTerminal() {
		delete(c.active, event.SourceEndpoint)
		telemetry.ActiveFailovers.Dec()
	}
	snapshot := *event
	c.mu.Unlock()

	c.persistEvent(ctx, &snapshot)
}

func (c *Controller) persistEvent(ctx context.Context, event *FailoverEvent) {
	if err := c.store.Put(ctx, namespace, dataType, eventKey(event.ID), *event); err != nil {
		c.logger.Warn("persisting failover event", "event_id", event.ID, "error", err)
	}
}
