package probe

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/m00npl/guardant/pkg/domain"
)

// cloudHealthProber implements the aws-health/azure-health/gcp-health
// service types: AWS and Azure publish an RSS-ish feed substring-scanned for
// incident keywords, GCP publishes JSON counted for unresolved incidents.
type cloudHealthProber struct {
	provider string
}

var cloudIncidentKeywords = []string{"degraded", "disruption", "outage", "incident"}

type gcpIncident struct {
	End string `json:"end"`
}

func (p *cloudHealthProber) Check(ctx context.Context, target string, svc domain.NestService, deadline time.Duration) Result {
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return down(err.Error())
	}

	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return down("Request timeout")
		}
		return down(err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return down(err.Error())
	}

	if p.provider == "gcp" {
		return p.checkGCP(body, elapsed)
	}
	return p.checkFeed(body, elapsed)
}

func (p *cloudHealthProber) checkFeed(body []byte, elapsed time.Duration) Result {
	lower := strings.ToLower(string(body))
	for _, kw := range cloudIncidentKeywords {
		if strings.Contains(lower, kw) {
			return down("status feed reports: " + kw)
		}
	}
	return up("no active incidents reported", float64(elapsed.Milliseconds()))
}

func (p *cloudHealthProber) checkGCP(body []byte, elapsed time.Duration) Result {
	var incidents []gcpIncident
	if err := json.Unmarshal(body, &incidents); err != nil {
		return down("invalid gcp status payload")
	}

	now := time.Now()
	unresolved := 0
	for _, inc := range incidents {
		if inc.End == "" {
			unresolved++
			continue
		}
		endTime, err := time.Parse(time.RFC3339, inc.End)
		if err != nil || endTime.After(now) {
			unresolved++
		}
	}

	if unresolved > 0 {
		return down("unresolved gcp incidents present")
	}
	return up("no unresolved incidents", float64(elapsed.Milliseconds()))
}
