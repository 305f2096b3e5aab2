package monitor

import (
	"context"
	"net/http"
)

// headSucceeds issues a HEAD request and reports whether it completed with
// any response at all (connectivity, not status, is what matters here).
func headSucceeds(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}
