package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Probe Engine metrics.
var (
	ProbesExecutedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "guardant",
			Subsystem: "probe",
			Name:      "executed_total",
			Help:      "Total number of probe attempts executed, by service type and outcome status.",
		},
		[]string{"type", "status"},
	)

	ProbeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "guardant",
			Subsystem: "probe",
			Name:      "check_duration_seconds",
			Help:      "Wall-clock duration of a single probe attempt.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"type"},
	)

	ProbesDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "guardant",
			Subsystem: "probe",
			Name:      "ticks_dropped_total",
			Help:      "Total number of scheduled probe ticks dropped because the previous run was still in flight.",
		},
	)
)

// Job System metrics.
var (
	JobsEnqueuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "guardant",
			Subsystem: "jobs",
			Name:      "enqueued_total",
			Help:      "Total number of jobs enqueued, by priority queue.",
		},
		[]string{"queue"},
	)

	JobsCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "guardant",
			Subsystem: "jobs",
			Name:      "completed_total",
			Help:      "Total number of job executions that reached a terminal state.",
		},
		[]string{"queue", "status"},
	)

	JobQueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "guardant",
			Subsystem: "jobs",
			Name:      "queue_depth",
			Help:      "Current number of pending executions per priority queue.",
		},
		[]string{"queue"},
	)
)

// Failover Controller metrics.
var (
	FailoversTriggeredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "guardant",
			Subsystem: "failover",
			Name:      "triggered_total",
			Help:      "Total number of failovers triggered, by strategy.",
		},
		[]string{"strategy"},
	)

	ActiveFailovers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "guardant",
			Subsystem: "failover",
			Name:      "active",
			Help:      "Current number of in-progress failovers.",
		},
	)
)

// SLA Manager metrics.
var (
	SLAMeasurementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "guardant",
			Subsystem: "sla",
			Name:      "measurements_total",
			Help:      "Total number of SLA measurements recorded, by compliance outcome.",
		},
		[]string{"compliant"},
	)

	SLAComplianceScore = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "guardant",
			Subsystem: "sla",
			Name:      "compliance_score",
			Help:      "Most recently computed compliance score for an SLA target.",
		},
		[]string{"sla_target_id"},
	)
)

// All returns every GuardAnt-specific metric for registration.
func All() []prometheus.Collector {
	return []prometheus.Collector{
		ProbesExecutedTotal,
		ProbeDuration,
		ProbesDroppedTotal,
		JobsEnqueuedTotal,
		JobsCompletedTotal,
		JobQueueDepth,
		FailoversTriggeredTotal,
		ActiveFailovers,
		SLAMeasurementsTotal,
		SLAComplianceScore,
	}
}

// NewMetricsRegistry creates a Prometheus registry with Go/process collectors
// plus every GuardAnt metric.
func NewMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	for _, c := range All() {
		reg.MustRegister(c)
	}
	return reg
}
