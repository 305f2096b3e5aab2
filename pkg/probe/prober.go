// Package probe implements the Probe Executors: one stateless, pure
// implementation per service type, dispatched by domain.ServiceType. No
// executor writes to the Tenant Data Store or mutates its input, and none
// is permitted to panic — every error is translated into a down Result
// before it leaves the executor.
package probe

import (
	"context"
	"time"

	"github.com/m00npl/guardant/pkg/domain"
)

// Result is what an executor hands back to its caller (the probe engine or
// the failover controller). It deliberately has no dependency on the
// persisted domain shapes beyond Status, so executors stay
// pure functions of (target, config, deadline).
type Result struct {
	Status         domain.Status
	Message        string
	ResponseTimeMS *float64
	Metadata       map[string]any
}

// Prober is the sealed capability every executor implements. Dispatch by
// service.Type happens once, in Registry.Get; no duck typing downstream.
type Prober interface {
	Check(ctx context.Context, target string, svc domain.NestService, deadline time.Duration) Result
}

// Registry resolves a domain.ServiceType to its Prober.
type Registry struct {
	probers map[domain.ServiceType]Prober
}

// NewRegistry builds the registry with every built-in executor wired in.
func NewRegistry() *Registry {
	r := &Registry{probers: make(map[domain.ServiceType]Prober)}
	r.register(domain.ServiceTypeWeb, &httpProber{})
	r.register(domain.ServiceTypeCustom, &customProber{})
	r.register(domain.ServiceTypeTCP, &tcpProber{})
	r.register(domain.ServiceTypePing, &pingProber{})
	r.register(domain.ServiceTypeDNS, &dnsProber{})
	r.register(domain.ServiceTypeSSL, &sslProber{})
	r.register(domain.ServiceTypeKeyword, &keywordProber{})
	r.register(domain.ServiceTypePort, &portProber{})
	r.register(domain.ServiceTypeHeartbeat, &heartbeatProber{})
	r.register(domain.ServiceTypeGitHub, &githubProber{})
	r.register(domain.ServiceTypeUptimeAPI, &uptimeAPIProber{})
	r.register(domain.ServiceTypeAWSHealth, &cloudHealthProber{provider: "aws"})
	r.register(domain.ServiceTypeAzureHealth, &cloudHealthProber{provider: "azure"})
	r.register(domain.ServiceTypeGCPHealth, &cloudHealthProber{provider: "gcp"})
	r.register(domain.ServiceTypeKubernetes, &kubernetesProber{})
	r.register(domain.ServiceTypeDocker, &dockerProber{})
	return r
}

func (r *Registry) register(t domain.ServiceType, p Prober) {
	r.probers[t] = p
}

// Get returns the Prober for t, or (nil, false) for an unknown type.
func (r *Registry) Get(t domain.ServiceType) (Prober, bool) {
	p, ok := r.probers[t]
	return p, ok
}

// down builds a down Result carrying msg. Executors never
// throw; every internal error funnels through here.
func down(msg string) Result {
	return Result{Status: domain.StatusDown, Message: msg}
}

func up(msg string, responseTimeMS float64) Result {
	rt := responseTimeMS
	return Result{Status: domain.StatusUp, Message: msg, ResponseTimeMS: &rt}
}
