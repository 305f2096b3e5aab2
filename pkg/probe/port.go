package probe

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/m00npl/guardant/pkg/domain"
)

// portProber implements the "port" service type: TCP connect, with an
// optional banner-substring check. UDP is explicitly unimplemented.
type portProber struct{}

func (p *portProber) Check(ctx context.Context, target string, svc domain.NestService, deadline time.Duration) Result {
	if svc.PortConfig != nil && svc.PortConfig.UDP {
		return down("UDP monitoring not yet implemented")
	}

	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	start := time.Now()
	conn, err := (&net.Dialer{}).DialContext(ctx, "tcp", target)
	elapsed := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return down("Request timeout")
		}
		return down(err.Error())
	}
	defer conn.Close()

	banner := ""
	if svc.PortConfig != nil {
		banner = svc.PortConfig.Banner
	}
	if banner == "" {
		return up("connected", float64(elapsed.Milliseconds()))
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1024)
	n, _ := conn.Read(buf)

	if !strings.Contains(string(buf[:n]), banner) {
		return down("banner did not match")
	}
	return up("banner matched", float64(elapsed.Milliseconds()))
}
