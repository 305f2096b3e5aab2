// Package domain holds the persisted entity shapes shared across the probe,
// monitor, failover, job, and SLA components. Keeping them in one package
// avoids import cycles between those components, which all need to read or
// write the same wire shapes through the Tenant Data Store.
package domain

import (
	"strconv"
	"time"
)

// ServiceType discriminates which probe executor handles a NestService.
type ServiceType string

const (
	ServiceTypeWeb        ServiceType = "web"
	ServiceTypeTCP        ServiceType = "tcp"
	ServiceTypePing       ServiceType = "ping"
	ServiceTypeDNS        ServiceType = "dns"
	ServiceTypeSSL        ServiceType = "ssl"
	ServiceTypeKeyword    ServiceType = "keyword"
	ServiceTypePort       ServiceType = "port"
	ServiceTypeHeartbeat  ServiceType = "heartbeat"
	ServiceTypeGitHub     ServiceType = "github"
	ServiceTypeUptimeAPI  ServiceType = "uptime-api"
	ServiceTypeCustom     ServiceType = "custom"
	ServiceTypeAWSHealth  ServiceType = "aws-health"
	ServiceTypeAzureHealth ServiceType = "azure-health"
	ServiceTypeGCPHealth  ServiceType = "gcp-health"
	ServiceTypeKubernetes ServiceType = "kubernetes"
	ServiceTypeDocker     ServiceType = "docker"
)

// Status is the three-valued probe outcome. Unknown is reserved for "we
// could not determine" and must never be counted as a failure by SLA or
// failover calculations.
type Status string

const (
	StatusUp      Status = "up"
	StatusDown    Status = "down"
	StatusUnknown Status = "unknown"
)

// DNSConfig configures the dns executor.
type DNSConfig struct {
	RecordType    string `json:"recordType,omitempty"`
	ExpectedValue string `json:"expectedValue,omitempty"`
	Resolver      string `json:"resolver,omitempty"`
}

// SSLConfig configures the ssl executor.
type SSLConfig struct {
	WarningDays int `json:"warningDays,omitempty" validate:"gte=0"`
}

// KeywordConfig configures the keyword executor.
type KeywordConfig struct {
	Keyword       string `json:"keyword" validate:"required"`
	CaseSensitive bool   `json:"caseSensitive,omitempty"`
	MustContain   bool   `json:"mustContain"`
}

// PortConfig configures the port executor.
type PortConfig struct {
	Banner string `json:"banner,omitempty"`
	UDP    bool   `json:"udp,omitempty"`
}

// HeartbeatConfig configures the heartbeat executor.
type HeartbeatConfig struct {
	ExpectedIntervalSeconds int `json:"expectedIntervalSeconds" validate:"required,gt=0"`
	ToleranceSeconds        int `json:"toleranceSeconds,omitempty" validate:"gte=0"`
}

// GitHubConfig configures the github executor.
type GitHubConfig struct {
	Token string `json:"token,omitempty" validate:"required"`
}

// UptimeConfig configures the uptime-api executor.
type UptimeConfig struct{}

// CustomFieldPath is one dot/bracket-notation path the custom executor walks
// to derive a down signal from an arbitrary external monitoring API payload.
type CustomFieldPath string

// CustomAPISpec is the decoded form of a "custom:<base64-json>" target,
// carrying the upstream URL and the field paths to inspect.
type CustomAPISpec struct {
	URL    string            `json:"url"`
	Fields []CustomFieldPath `json:"fields"`
}

// CloudConfig configures the aws-health/azure-health/gcp-health executors.
type CloudConfig struct {
	Provider string `json:"provider" validate:"required,oneof=aws azure gcp"` // aws | azure | gcp
}

// KubernetesConfig configures the kubernetes executor.
type KubernetesConfig struct {
	Namespace     string   `json:"namespace" validate:"required"`
	LabelSelector string   `json:"labelSelector,omitempty"`
	PodNames      []string `json:"podNames,omitempty"`
}

// DockerConfig configures the docker executor.
type DockerConfig struct {
	ContainerNames []string `json:"containerNames" validate:"required,min=1"`
}

// NestService is a monitored target owned by exactly one nest.
type NestService struct {
	ID              string      `json:"id"`
	NestID          string      `json:"nestId"`
	Name            string      `json:"name"`
	Order           int         `json:"order,omitempty"`
	Tags            []string    `json:"tags,omitempty"`
	AlertingEnabled bool        `json:"alertingEnabled"`
	Type            ServiceType `json:"type"`
	Target          string      `json:"target"`
	IntervalSeconds int         `json:"interval"`

	// ExpectedStatus is consulted only by the "custom" executor's plain-HTTP
	// mode (target not prefixed "custom:"), comparing against the response
	// status code instead of the web executor's generic success heuristic.
	ExpectedStatus int `json:"expectedStatus,omitempty"`

	GitHub           *GitHubConfig     `json:"github,omitempty"`
	UptimeConfig     *UptimeConfig     `json:"uptimeConfig,omitempty"`
	DNSConfig        *DNSConfig        `json:"dnsConfig,omitempty"`
	SSLConfig        *SSLConfig        `json:"sslConfig,omitempty"`
	CloudConfig      *CloudConfig      `json:"cloudConfig,omitempty"`
	KubernetesConfig *KubernetesConfig `json:"kubernetesConfig,omitempty"`
	DockerConfig     *DockerConfig     `json:"dockerConfig,omitempty"`
	KeywordConfig    *KeywordConfig    `json:"keywordConfig,omitempty"`
	HeartbeatConfig  *HeartbeatConfig  `json:"heartbeatConfig,omitempty"`
	PortConfig       *PortConfig       `json:"portConfig,omitempty"`

	// Last-known fields, updated by the Probe Engine only.
	LastStatus      Status    `json:"lastStatus,omitempty"`
	LastCheck       time.Time `json:"lastCheck,omitempty"`
	Message         string    `json:"message,omitempty"`
	ResponseTimeMS  *float64  `json:"responseTime,omitempty"`
	RetryCount      int       `json:"retryCount,omitempty"`
	LastHeartbeat   time.Time `json:"lastHeartbeat,omitempty"`

	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// ConfigurationKey returns this service's configuration row key.
func (s NestService) ConfigurationKey() string {
	return "service:" + s.ID
}

// ProbeResult is the atomic output of one executed check attempt.
type ProbeResult struct {
	ServiceID     string         `json:"serviceId"`
	NestID        string         `json:"nestId"`
	Status        Status         `json:"status"`
	Message       string         `json:"message"`
	ResponseTimeMS *float64      `json:"responseTime,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
	CheckDurationMS float64      `json:"checkDuration"`
	Attempt       int            `json:"attempt"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// MonitoringDataKey returns the storage key for one stored ProbeResult.
func MonitoringDataKey(serviceID string, ts time.Time) string {
	return "check:" + serviceID + ":" + strconv.FormatInt(ts.UnixMilli(), 10)
}
