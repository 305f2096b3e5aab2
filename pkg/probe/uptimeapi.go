package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/m00npl/guardant/pkg/domain"
)

// uptimeAPIProber implements the "uptime-api" service type: GET a JSON feed
// shaped like {monitors: [...]}, deriving overall status from the worst
// monitor present.
type uptimeAPIProber struct{}

type uptimeMonitor struct {
	Name         string `json:"name"`
	Status       string `json:"status"` // up | down | maintenance
	Availability float64 `json:"availability"`
	Incidents    int    `json:"incidents"`
}

type uptimeFeed struct {
	Monitors []uptimeMonitor `json:"monitors"`
}

func (p *uptimeAPIProber) Check(ctx context.Context, target string, svc domain.NestService, deadline time.Duration) Result {
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

	var feed uptimeFeed
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return down(fmt.Sprintf("invalid uptime feed: %v", err))
	}
	if feed.Monitors == nil {
		return down("uptime feed missing monitors")
	}

	metadata := map[string]any{}
	anyDown := false
	for _, m := range feed.Monitors {
		metadata[m.Name] = map[string]any{
			"availability": m.Availability,
			"incidents":    m.Incidents,
			"status":       m.Status,
		}
		if m.Status == "down" {
			anyDown = true
		}
	}

	if anyDown {
		return Result{Status: domain.StatusDown, Message: "one or more monitors down", Metadata: metadata}
	}
	res := up("all monitors up", float64(elapsed.Milliseconds()))
	res.Metadata = metadata
	return res
}
