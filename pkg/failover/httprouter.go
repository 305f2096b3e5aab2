package failover

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// WebhookRouter implements TrafficRouter by POSTing redirect instructions to
// an external control plane (load balancer API, DNS provider, service mesh)
// and validating readiness with a plain HTTP HEAD against the target's
// HealthCheckPath. It is the default TrafficRouter wired at startup; a
// deployment with a real load balancer integration supplies its own.
type WebhookRouter struct {
	controlURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewWebhookRouter creates a WebhookRouter. If controlURL is empty,
// RedirectAll and RedirectPercentage are no-ops that only log — useful for
// environments with no control plane configured yet.
func NewWebhookRouter(controlURL string, httpClient *http.Client, logger *slog.Logger) *WebhookRouter {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &WebhookRouter{controlURL: controlURL, httpClient: httpClient, logger: logger}
}

type redirectInstruction struct {
	Action     string  `json:"action"`
	SourceID   string  `json:"sourceId"`
	SourceURL  string  `json:"sourceUrl"`
	TargetID   string  `json:"targetId"`
	TargetURL  string  `json:"targetUrl"`
	Percentage float64 `json:"percentage,omitempty"`
}

func (r *WebhookRouter) post(ctx context.Context, instr redirectInstruction) error {
	if r.controlURL == "" {
		r.logger.Debug("traffic router control URL not configured, skipping redirect", "action", instr.Action, "source", instr.SourceID, "target", instr.TargetID)
		return nil
	}

	body, err := json.Marshal(instr)
	if err != nil {
		return fmt.Errorf("encoding redirect instruction: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.controlURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building redirect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delivering redirect instruction: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("control plane rejected redirect with status %d", resp.StatusCode)
	}
	return nil
}

// RedirectAll instructs the control plane to move all of source's traffic
// to target.
func (r *WebhookRouter) RedirectAll(ctx context.Context, source, target ServiceEndpoint) error {
	return r.post(ctx, redirectInstruction{
		Action: "redirect_all", SourceID: source.ID, SourceURL: source.URL,
		TargetID: target.ID, TargetURL: target.URL,
	})
}

// RedirectPercentage instructs the control plane to move pct percent of
// source's traffic to target.
func (r *WebhookRouter) RedirectPercentage(ctx context.Context, source, target ServiceEndpoint, pct float64) error {
	return r.post(ctx, redirectInstruction{
		Action: "redirect_percentage", SourceID: source.ID, SourceURL: source.URL,
		TargetID: target.ID, TargetURL: target.URL, Percentage: pct,
	})
}

// ValidateReady performs a plain HTTP HEAD against target's health check
// path and reports whether it returned a non-error status.
func (r *WebhookRouter) ValidateReady(ctx context.Context, target ServiceEndpoint) (bool, error) {
	url := target.URL + target.HealthCheckPath
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, fmt.Errorf("building readiness check for %s: %w", target.ID, err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return false, nil
	}
	defer resp.Body.Close()

	return resp.StatusCode < 400, nil
}
