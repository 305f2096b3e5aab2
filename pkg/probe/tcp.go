package probe

import (
	"context"
	"net"
	"time"

	"github.com/m00npl/guardant/pkg/domain"
)

// tcpProber implements the "tcp" service type: open a connection to
// host:port within the check timeout; up on connect, recording latency.
type tcpProber struct{}

func (p *tcpProber) Check(ctx context.Context, target string, svc domain.NestService, deadline time.Duration) Result {
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

	return up("connected", float64(elapsed.Milliseconds()))
}
