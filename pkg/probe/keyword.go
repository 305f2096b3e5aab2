package probe

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/m00npl/guardant/pkg/domain"
)

const keywordMaxBodyBytes = 1 << 20 // 1 MiB

// keywordProber implements the "keyword" service type: GET the target, then
// test the body against the configured keyword.
type keywordProber struct{}

func (p *keywordProber) Check(ctx context.Context, target string, svc domain.NestService, deadline time.Duration) Result {
	if svc.KeywordConfig == nil || svc.KeywordConfig.Keyword == "" {
		return down("keyword not configured")
	}

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

	body, err := io.ReadAll(io.LimitReader(resp.Body, keywordMaxBodyBytes))
	if err != nil {
		return down(err.Error())
	}

	cfg := svc.KeywordConfig
	haystack := string(body)
	needle := cfg.Keyword
	if !cfg.CaseSensitive {
		haystack = strings.ToLower(haystack)
		needle = strings.ToLower(needle)
	}

	contains := strings.Contains(haystack, needle)
	if contains == cfg.MustContain {
		msg := "keyword present"
		if !cfg.MustContain {
			msg = "keyword absent"
		}
		return up(msg, float64(elapsed.Milliseconds()))
	}

	msg := "expected keyword present, was absent"
	if !cfg.MustContain {
		msg = "expected keyword absent, was present"
	}
	return down(msg)
}
