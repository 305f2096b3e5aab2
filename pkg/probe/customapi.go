package probe

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/m00npl/guardant/pkg/domain"
)

// customProber implements the "custom" service type. Two distinct shapes
// share the type: a plain HTTP check compared against ExpectedStatus, and
// the custom external monitoring API, selected by a "custom:" target prefix
// carrying base64-encoded JSON.
type customProber struct{}

const customAPITargetPrefix = "custom:"

func (p *customProber) Check(ctx context.Context, target string, svc domain.NestService, deadline time.Duration) Result {
	if strings.HasPrefix(target, customAPITargetPrefix) {
		return p.checkExternalAPI(ctx, target, deadline)
	}
	return p.checkPlainHTTP(ctx, target, svc, deadline)
}

func (p *customProber) checkPlainHTTP(ctx context.Context, target string, svc domain.NestService, deadline time.Duration) Result {
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	client := &http.Client{Timeout: deadline}
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
		msg += " (GET fallback)"
	}

	if svc.ExpectedStatus != 0 && resp.StatusCode != svc.ExpectedStatus {
		return down(fmt.Sprintf("expected status %d, got %d", svc.ExpectedStatus, resp.StatusCode))
	}
	if svc.ExpectedStatus == 0 && (resp.StatusCode < 200 || resp.StatusCode >= 400) {
		return down(msg)
	}
	return up(msg, float64(elapsed.Milliseconds()))
}

func (p *customProber) checkExternalAPI(ctx context.Context, target string, deadline time.Duration) Result {
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	encoded := strings.TrimPrefix(target, customAPITargetPrefix)
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return down(fmt.Sprintf("invalid custom target encoding: %v", err))
	}

	var spec domain.CustomAPISpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return down(fmt.Sprintf("invalid custom target payload: %v", err))
	}

	client := &http.Client{Timeout: deadline}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, spec.URL, nil)
	if err != nil {
		return down(err.Error())
	}

	start := time.Now()
	resp, err := client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return down("Request timeout")
		}
		return down(err.Error())
	}
	defer resp.Body.Close()

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return down(fmt.Sprintf("invalid json response: %v", err))
	}

	for _, field := range spec.Fields {
		value, ok := walkFieldPath(payload, string(field))
		if !ok {
			continue
		}
		if isDownSignal(value) {
			return down(fmt.Sprintf("field %q indicates down: %v", field, value))
		}
	}

	return up(resp.Status, float64(elapsed.Milliseconds()))
}

// isDownSignal applies the custom-field down heuristics: any non-"up"
// status string, a false boolean, or a numeric availability below 90.
func isDownSignal(value any) bool {
	switch v := value.(type) {
	case string:
		return strings.ToLower(v) != "up"
	case bool:
		return !v
	case float64:
		return v < 90
	}
	return false
}

// walkFieldPath resolves a dot/bracket-notation path like "status.monitors[0].state".
func walkFieldPath(payload map[string]any, path string) (any, bool) {
	segments := splitFieldPath(path)
	var cur any = payload
	for _, seg := range segments {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

func splitFieldPath(path string) []string {
	path = strings.ReplaceAll(path, "[", ".")
	path = strings.ReplaceAll(path, "]", "")
	var segs []string
	for _, s := range strings.Split(path, ".") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}
