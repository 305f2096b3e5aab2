// Package failover implements the Failover Controller: endpoint health
// monitoring, rule-driven failover triggering, traffic redirection, and
// automatic recovery with ramp-up.
package failover

import "time"

// EndpointStatus is the health classification of a ServiceEndpoint.
type EndpointStatus string

const (
	EndpointHealthy     EndpointStatus = "healthy"
	EndpointDegraded    EndpointStatus = "degraded"
	EndpointUnhealthy   EndpointStatus = "unhealthy"
	EndpointMaintenance EndpointStatus = "maintenance"
	EndpointUnknown     EndpointStatus = "unknown"
)

// ServiceEndpoint is a named upstream GuardAnt itself routes to. It is not
// a NestService — it models infrastructure, stored under the reserved
// system namespace rather than a tenant's.
type ServiceEndpoint struct {
	ID              string
	Name            string
	URL             string
	Region          string
	Priority        int // lower wins
	Capacity        float64
	CurrentLoad     float64
	HealthCheckPath string
	Status          EndpointStatus
	LastHealthCheck time.Time
}

// ComparisonOp is the operator a TriggerCondition evaluates with.
type ComparisonOp string

const (
	OpGT  ComparisonOp = "gt"
	OpGTE ComparisonOp = "gte"
	OpLT  ComparisonOp = "lt"
	OpLTE ComparisonOp = "lte"
	OpEQ  ComparisonOp = "eq"
	OpNEQ ComparisonOp = "neq"
)

// MetricName is one of the metrics derived from an endpoint's ring buffer.
type MetricName string

const (
	MetricResponseTime MetricName = "response_time"
	MetricErrorRate    MetricName = "error_rate"
	MetricAvailability MetricName = "availability"
)

// TriggerCondition is one AND'd clause of a FailoverRule.
type TriggerCondition struct {
	Metric    MetricName
	Operator  ComparisonOp
	Threshold float64
}

// TargetSelectionStrategy picks a failover target among healthy candidates.
type TargetSelectionStrategy string

const (
	SelectHighestPriority TargetSelectionStrategy = "highest_priority"
	SelectLowestLoad      TargetSelectionStrategy = "lowest_load"
	SelectRandom          TargetSelectionStrategy = "random"
)

// ExecutionStrategyType selects how traffic is actually redirected.
type ExecutionStrategyType string

const (
	ExecuteImmediate  ExecutionStrategyType = "immediate"
	ExecuteGradual    ExecutionStrategyType = "gradual"
	ExecuteBlueGreen  ExecutionStrategyType = "blue_green"
)

// FailoverStrategy bundles target selection and execution policy.
type FailoverStrategy struct {
	TargetSelection TargetSelectionStrategy
	Execution       ExecutionStrategyType
	DrainTimeout    time.Duration // gradual: total time split into 5 steps
	ValidateTarget  bool          // blue_green: HEAD-check target before cutover
}

// RecoveryStrategyType selects automatic vs manual recovery.
type RecoveryStrategyType string

const (
	RecoveryAutomatic RecoveryStrategyType = "automatic"
	RecoveryManual    RecoveryStrategyType = "manual"
)

// RecoveryStrategy configures automatic-recovery ramp-up.
type RecoveryStrategy struct {
	Type                       RecoveryStrategyType
	ConsecutiveSuccessRequired int
	RecoveryDelay              time.Duration
	InitialPercentage          float64
	IncrementPercentage        float64
	IncrementInterval          time.Duration
	Immediate                  bool // cut over at once instead of ramping
}

// FailoverRule selects endpoints by name pattern and conditions that, when
// all satisfied, trigger a failover.
type FailoverRule struct {
	ID                string
	ServicePattern    string // regex over endpoint names
	TriggerConditions []TriggerCondition
	FailoverStrategy  FailoverStrategy
	RecoveryStrategy  RecoveryStrategy
	CooldownPeriod    time.Duration
	MaxFailovers      int
	TimeWindow        time.Duration
	Priority          int
	Enabled           bool
}

// EventStatus is the FailoverEvent lifecycle state.
type EventStatus string

const (
	EventTriggered  EventStatus = "triggered"
	EventInProgress EventStatus = "in_progress"
	EventCompleted  EventStatus = "completed"
	EventFailed     EventStatus = "failed"
	EventRecovering EventStatus = "recovering"
	EventRecovered  EventStatus = "recovered"
)

// IsTerminal reports whether status leaves activeFailovers.
func (s EventStatus) IsTerminal() bool {
	return s == EventFailed || s == EventRecovered
}

// FailoverEvent is the state record of one failover, created and mutated
// only by the controller until it reaches a terminal status.
type FailoverEvent struct {
	ID             string
	SourceEndpoint string
	TargetEndpoint string
	RuleID         string
	TriggerReason  string
	Conditions     []TriggerCondition
	Status         EventStatus
	Timestamp      time.Time
	Duration       time.Duration
	RecoveredAt    time.Time
}

// Sample is one ring-buffer entry recording an endpoint health check.
type Sample struct {
	Timestamp    time.Time
	Healthy      bool
	ResponseTime time.Duration
	Status       EndpointStatus
}

// Metrics is the derived view over the last 60s of an endpoint's samples.
type Metrics struct {
	ResponseTime time.Duration
	ErrorRate    float64
	Availability float64
}
