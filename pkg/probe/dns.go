package probe

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/m00npl/guardant/pkg/domain"
)

const defaultDNSResolver = "8.8.8.8:53"

// dnsProber implements the "dns" service type against an explicit resolver
// (net.Resolver with a custom Dial), avoiding a third-party DNS library —
// see DESIGN.md for why the standard library suffices here.
type dnsProber struct{}

func (p *dnsProber) Check(ctx context.Context, target string, svc domain.NestService, deadline time.Duration) Result {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	resolverAddr := defaultDNSResolver
	recordType := "A"
	var expected string
	if svc.DNSConfig != nil {
		if svc.DNSConfig.Resolver != "" {
			resolverAddr = svc.DNSConfig.Resolver
			if !strings.Contains(resolverAddr, ":") {
				resolverAddr += ":53"
			}
		}
		if svc.DNSConfig.RecordType != "" {
			recordType = strings.ToUpper(svc.DNSConfig.RecordType)
		}
		expected = svc.DNSConfig.ExpectedValue
	}

	resolver := &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
			d := net.Dialer{}
			return d.DialContext(ctx, network, resolverAddr)
		},
	}

	start := time.Now()
	matched, found, err := p.lookup(ctx, resolver, recordType, target, expected)
	elapsed := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return down("Request timeout")
		}
		return down(err.Error())
	}

	if !found {
		return down(fmt.Sprintf("no %s records found for %s", recordType, target))
	}
	if expected != "" && !matched {
		return down(fmt.Sprintf("no %s record matched expected value %q", recordType, expected))
	}
	return up(fmt.Sprintf("%s record resolved", recordType), float64(elapsed.Milliseconds()))
}

func (p *dnsProber) lookup(ctx context.Context, resolver *net.Resolver, recordType, target, expected string) (matched bool, found bool, err error) {
	switch recordType {
	case "A", "AAAA":
		ips, lerr := resolver.LookupIP(ctx, ipNetwork(recordType), target)
		if lerr != nil {
			return false, false, lerr
		}
		if len(ips) == 0 {
			return false, false, nil
		}
		for _, ip := range ips {
			if expected == "" || ip.String() == expected {
				return true, true, nil
			}
		}
		return false, true, nil

	case "CNAME":
		cname, lerr := resolver.LookupCNAME(ctx, target)
		if lerr != nil {
			return false, false, lerr
		}
		if cname == "" {
			return false, false, nil
		}
		return expected == "" || strings.TrimSuffix(cname, ".") == strings.TrimSuffix(expected, "."), true, nil

	case "MX":
		records, lerr := resolver.LookupMX(ctx, target)
		if lerr != nil {
			return false, false, lerr
		}
		if len(records) == 0 {
			return false, false, nil
		}
		for _, r := range records {
			if expected == "" || strings.TrimSuffix(r.Host, ".") == strings.TrimSuffix(expected, ".") {
				return true, true, nil
			}
		}
		return false, true, nil

	case "TXT":
		records, lerr := resolver.LookupTXT(ctx, target)
		if lerr != nil {
			return false, false, lerr
		}
		if len(records) == 0 {
			return false, false, nil
		}
		for _, r := range records {
			if expected == "" || r == expected {
				return true, true, nil
			}
		}
		return false, true, nil

	case "NS":
		records, lerr := resolver.LookupNS(ctx, target)
		if lerr != nil {
			return false, false, lerr
		}
		if len(records) == 0 {
			return false, false, nil
		}
		for _, r := range records {
			if expected == "" || strings.TrimSuffix(r.Host, ".") == strings.TrimSuffix(expected, ".") {
				return true, true, nil
			}
		}
		return false, true, nil

	default:
		return false, false, fmt.Errorf("unsupported dns record type %q", recordType)
	}
}

func ipNetwork(recordType string) string {
	if recordType == "AAAA" {
		return "ip6"
	}
	return "ip4"
}
