package failover

import "context"

// TrafficRouter is the external collaborator that actually redirects
// traffic. Implementation is platform-specific (load balancer API, DNS,
// service mesh); the controller never embeds that logic itself.
type TrafficRouter interface {
	// RedirectAll is idempotent and returns once the change is observable
	// downstream.
	RedirectAll(ctx context.Context, source, target ServiceEndpoint) error

	// RedirectPercentage shifts pct percent (0-100) of source's traffic to
	// target.
	RedirectPercentage(ctx context.Context, source, target ServiceEndpoint, pct float64) error

	// ValidateReady reports whether target is ready to receive traffic.
	ValidateReady(ctx context.Context, target ServiceEndpoint) (bool, error)
}
