package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/m00npl/guardant/pkg/domain"
)

const defaultHeartbeatToleranceSeconds = 0

// heartbeatProber implements the "heartbeat" service type: no network I/O,
// purely a comparison of now against the service's out-of-band LastHeartbeat
// field, which an external ingestion endpoint updates through the Tenant
// Data Store.
type heartbeatProber struct{}

func (p *heartbeatProber) Check(ctx context.Context, target string, svc domain.NestService, deadline time.Duration) Result {
	if svc.HeartbeatConfig == nil || svc.HeartbeatConfig.ExpectedIntervalSeconds <= 0 {
		return down("heartbeat not configured")
	}
	if svc.LastHeartbeat.IsZero() {
		return down("no heartbeat received yet")
	}

	tolerance := defaultHeartbeatToleranceSeconds
	if svc.HeartbeatConfig.ToleranceSeconds > 0 {
		tolerance = svc.HeartbeatConfig.ToleranceSeconds
	}

	age := time.Since(svc.LastHeartbeat)
	allowed := time.Duration(svc.HeartbeatConfig.ExpectedIntervalSeconds+tolerance) * time.Second

	if age <= allowed {
		return up("heartbeat current", 0)
	}
	return down(fmt.Sprintf("heartbeat stale: last seen %s ago, expected within %s", age.Round(time.Second), allowed))
}
