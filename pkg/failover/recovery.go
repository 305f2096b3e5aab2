package failover

import (
	"context"
	"net/http"
	"time"

	"github.com/m00npl/guardant/pkg/notify"
)

// recoveryWallClockLimit bounds how long an automatic-recovery monitor keeps
// probing the original source before giving up and leaving the event in its
// current (non-recovered) state.
const recoveryWallClockLimit = 24 * time.Hour

// monitorRecovery watches source for ConsecutiveSuccessRequired consecutive
// healthy probes, then ramps traffic back from target to source per
// rule.RecoveryStrategy, or cuts over immediately if configured to.
func (c *Controller) monitorRecovery(ctx context.Context, source, target ServiceEndpoint, rule FailoverRule) {
	strategy := rule.RecoveryStrategy
	deadline := time.Now().Add(recoveryWallClockLimit)

	consecutive := 0
	ticker := time.NewTicker(c.cfg.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if time.Now().After(deadline) {
			c.logger.Warn("automatic recovery monitor exceeded wall-clock limit, abandoning", "endpoint_id", source.ID)
			return
		}

		ok := c.probeSourceHead(ctx, source)
		if !ok {
			consecutive = 0
			continue
		}
		consecutive++
		if consecutive < strategy.ConsecutiveSuccessRequired {
			continue
		}

		break
	}

	if strategy.RecoveryDelay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(strategy.RecoveryDelay):
		}
	}

	event := c.activeEventForSource(source.ID)
	if event == nil {
		return
	}
	c.setEventStatus(ctx, event, EventRecovering, nil)

	if err := c.rampBack(ctx, source, target, strategy); err != nil {
		c.logger.Error("recovery ramp-back failed", "endpoint_id", source.ID, "error", err)
		return
	}

	c.setEndpointStatus(ctx, source.ID, EndpointHealthy, time.Now())
	now := time.Now()
	c.mu.Lock()
	event.RecoveredAt = now
	c.mu.Unlock()
	c.finishEvent(ctx, event, EventRecovered, event.Timestamp)

	c.notify(ctx, notify.ChannelSlack, "failover recovered",
		source.ID+" restored to service", map[string]string{"source": source.ID, "target": target.ID})
}

func (c *Controller) probeSourceHead(ctx context.Context, source ServiceEndpoint) bool {
	checkCtx, cancel := context.WithTimeout(ctx, c.cfg.HealthCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodHead, source.URL+source.HealthCheckPath, nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (c *Controller) activeEventForSource(sourceID string) *FailoverEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	eventID, ok := c.active[sourceID]
	if !ok {
		return nil
	}
	return c.events[eventID]
}

// rampBack moves traffic from target back to source, either in one step or
// stepping from InitialPercentage to 100% by IncrementPercentage every
// IncrementInterval.
func (c *Controller) rampBack(ctx context.Context, source, target ServiceEndpoint, strategy RecoveryStrategy) error {
	if strategy.Immediate {
		return c.router.RedirectAll(ctx, target, source)
	}

	pct := strategy.InitialPercentage
	if pct <= 0 {
		pct = 10
	}
	increment := strategy.IncrementPercentage
	if increment <= 0 {
		increment = 20
	}

	for {
		if err := c.router.RedirectPercentage(ctx, target, source, pct); err != nil {
			return err
		}
		if pct >= 100 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(strategy.IncrementInterval):
		}
		pct += increment
		if pct > 100 {
			pct = 100
		}
	}
}
