package probe

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/m00npl/guardant/pkg/domain"
)

// httpProber implements the "web" service type: HEAD first, falling back to
// GET on 403/404/405. Response time is wall-clock until headers arrive.
type httpProber struct {
	expectStatusFromConfig bool
}

func (p *httpProber) Check(ctx context.Context, target string, svc domain.NestService, deadline time.Duration) Result {
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	client := &http.Client{
		Timeout: deadline,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return nil
		},
	}

	start := time.Now()
	resp, method, err := doWithFallback(ctx, client, target)
	elapsed := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return down("Request timeout")
		}
		return down(err.Error())
	}
	defer resp.Body.Close()

	msg := resp.Status
	if method == http.MethodGet {
		msg = resp.Status + " (GET fallback)"
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return up(msg, float64(elapsed.Milliseconds()))
	}
	return down(msg)
}

// doWithFallback issues HEAD, and retries with GET when the upstream
// responds 403, 404, or 405.
func doWithFallback(ctx context.Context, client *http.Client, target string) (*http.Response, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}

	switch resp.StatusCode {
	case http.StatusForbidden, http.StatusNotFound, http.StatusMethodNotAllowed:
		resp.Body.Close()
		getReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, "", err
		}
		getResp, err := client.Do(getReq)
		if err != nil {
			return nil, "", err
		}
		return getResp, http.MethodGet, nil
	default:
		return resp, http.MethodHead, nil
	}
}

// hostnameFromTarget strips the scheme from a URL-ish target, leaving the
// bare host (used by the ping executor).
func hostnameFromTarget(target string) string {
	t := strings.TrimPrefix(target, "https://")
	t = strings.TrimPrefix(t, "http://")
	if idx := strings.IndexAny(t, "/:"); idx != -1 {
		t = t[:idx]
	}
	return t
}
