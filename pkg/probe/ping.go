package probe

import (
	"context"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"github.com/m00npl/guardant/pkg/domain"
)

// commonPingPorts is the fixed fallback port set the ping executor probes
// when ICMP is blocked. Order matters only in that the first open port
// wins; iteration order here is the listed order.
var commonPingPorts = []string{"80", "443", "22", "21", "25", "53", "110", "993", "995"}

// pingProber implements the "ping" service type. The fall-through order —
// system ping, then common-port TCP probe, then HTTP then HTTPS HEAD — is
// load-bearing and must be preserved exactly.
type pingProber struct{}

func (p *pingProber) Check(ctx context.Context, target string, svc domain.NestService, deadline time.Duration) Result {
	host := hostnameFromTarget(target)

	if res, ok := p.systemPing(ctx, host); ok {
		return res
	}
	if res, ok := p.tcpPortFallback(ctx, host); ok {
		return res
	}
	if res, ok := p.httpFallback(ctx, "http://"+host, deadline); ok {
		return res
	}
	if res, ok := p.httpFallback(ctx, "https://"+host, deadline); ok {
		return res
	}
	return down("host unreachable")
}

func (p *pingProber) systemPing(ctx context.Context, host string) (Result, bool) {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	countFlag := "-c"
	if runtime.GOOS == "windows" {
		countFlag = "-n"
	}

	start := time.Now()
	cmd := exec.CommandContext(pingCtx, "ping", countFlag, "1", host)
	err := cmd.Run()
	elapsed := time.Since(start)
	if err != nil {
		return Result{}, false
	}
	return up("icmp reachable", float64(elapsed.Milliseconds())), true
}

func (p *pingProber) tcpPortFallback(ctx context.Context, host string) (Result, bool) {
	for _, port := range commonPingPorts {
		dialCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		start := time.Now()
		conn, err := (&net.Dialer{}).DialContext(dialCtx, "tcp", net.JoinHostPort(host, port))
		elapsed := time.Since(start)
		cancel()
		if err == nil {
			conn.Close()
			return up("tcp port "+port+" open", float64(elapsed.Milliseconds())), true
		}
	}
	return Result{}, false
}

func (p *pingProber) httpFallback(ctx context.Context, url string, deadline time.Duration) (Result, bool) {
	reqCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, url, nil)
	if err != nil {
		return Result{}, false
	}

	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return Result{}, false
	}
	resp.Body.Close()
	return up(resp.Status, float64(elapsed.Milliseconds())), true
}
