package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"time"

	"github.com/m00npl/guardant/pkg/domain"
)

const defaultSSLWarningDays = 30

// sslProber implements the "ssl" service type: TLS-connect with SNI and
// examine the peer certificate's expiry.
type sslProber struct{}

func (p *sslProber) Check(ctx context.Context, target string, svc domain.NestService, deadline time.Duration) Result {
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	host, port, err := net.SplitHostPort(target)
	if err != nil {
		host, port = target, "443"
	}

	warningDays := defaultSSLWarningDays
	if svc.SSLConfig != nil && svc.SSLConfig.WarningDays > 0 {
		warningDays = svc.SSLConfig.WarningDays
	}

	dialer := &tls.Dialer{
		Config: &tls.Config{ServerName: host},
	}

	start := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	elapsed := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return down("Request timeout")
		}
		return down(err.Error())
	}
	defer conn.Close()

	tlsConn, ok := conn.(*tls.Conn)
	if !ok {
		return down("connection did not negotiate TLS")
	}

	certs := tlsConn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return down("no peer certificate presented")
	}

	return classifyCertExpiry(certs[0], warningDays, time.Now(), elapsed)
}

// classifyCertExpiry holds the pure expiry-classification rule, kept
// separate from the network round-trip so it can be tested without a real
// TLS handshake: down when already expired or expiring within warningDays
// (inclusive), up otherwise.
func classifyCertExpiry(leaf *x509.Certificate, warningDays int, now time.Time, elapsed time.Duration) Result {
	if leaf.NotAfter.Before(now) {
		return down(fmt.Sprintf("certificate expired, valid_to=%s", leaf.NotAfter.Format(time.RFC3339)))
	}

	warnBy := now.Add(time.Duration(warningDays) * 24 * time.Hour)
	if !leaf.NotAfter.After(warnBy) {
		return down(fmt.Sprintf("certificate expires within %d days, valid_to=%s", warningDays, leaf.NotAfter.Format(time.RFC3339)))
	}

	return up(fmt.Sprintf("valid_to=%s", leaf.NotAfter.Format(time.RFC3339)), float64(elapsed.Milliseconds()))
}
