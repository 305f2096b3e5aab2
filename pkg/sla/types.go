// Package sla implements the SLA Manager: target lifecycle, windowed
// measurement derived from stored probe results, compliance scoring, and
// report generation.
package sla

import "time"

// Metric is one of the four contractual SLA dimensions.
type Metric string

const (
	MetricUptime       Metric = "uptime"
	MetricResponseTime Metric = "responseTime"
	MetricErrorRate    Metric = "errorRate"
	MetricAvailability Metric = "availability"
)

// Window is the measurement period an SLATarget is evaluated over.
type Window string

const (
	WindowMonthly   Window = "monthly"
	WindowQuarterly Window = "quarterly"
	WindowYearly    Window = "yearly"
)

// PenaltyRule fires when a metric's actual value breaches threshold in the
// unfavorable direction (below threshold for uptime/availability, above
// threshold for responseTime/errorRate).
type PenaltyRule struct {
	Metric         Metric  `json:"metric"`
	Threshold      float64 `json:"threshold"`
	PenaltyPercent float64 `json:"penaltyPercent"`
	Description    string  `json:"description,omitempty"`
}

// CreditRule fires when a metric's actual value clears threshold in the
// favorable direction.
type CreditRule struct {
	Metric      Metric  `json:"metric"`
	Threshold   float64 `json:"threshold"`
	CreditPercent float64 `json:"creditPercent"`
	Description string  `json:"description,omitempty"`
}

// SLATarget is a per-(nestId, serviceId?) contract. A nil ServiceID applies
// the target across every service owned by the nest.
type SLATarget struct {
	ID        string  `json:"id"`
	NestID    string  `json:"nestId" validate:"required"`
	ServiceID *string `json:"serviceId,omitempty"`

	UptimeTargetPercent float64 `json:"uptimeTarget" validate:"gte=0,lte=100"`
	ResponseTimeTargetMS float64 `json:"responseTimeTarget" validate:"gte=0"`
	ResponseTimePercentile float64 `json:"responseTimePercentile" validate:"gte=0,lte=100"`
	ErrorRateTargetPercent float64 `json:"errorRateTarget" validate:"gte=0,lte=100"`
	AvailabilityTargetPercent float64 `json:"availabilityTarget" validate:"gte=0,lte=100"`

	Window Window `json:"window" validate:"required,oneof=monthly quarterly yearly"`

	PenaltyTable []PenaltyRule `json:"penaltyTable,omitempty"`
	CreditTable  []CreditRule  `json:"creditTable,omitempty"`

	ReportingFrequency          string   `json:"reportingFrequency,omitempty"`
	Stakeholders                []string `json:"stakeholders,omitempty"`
	ExcludeScheduledMaintenance bool     `json:"excludeScheduledMaintenance,omitempty"`

	Active  bool `json:"active"`
	Version int  `json:"version"`

	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// MetricResult is one metric's measured value for a window.
type MetricResult struct {
	Actual    float64 `json:"actual"`
	Target    float64 `json:"target"`
	Compliant bool    `json:"compliant"`
}

// Gap is one interval between samples wider than 3x the nominal check
// interval — evidence the window's data is incomplete.
type Gap struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DataQuality reports how trustworthy a measurement's inputs were.
type DataQuality struct {
	Completeness float64 `json:"completeness"`
	Gaps         []Gap   `json:"gaps,omitempty"`
}

// SLAMeasurement is an immutable record of one window's compliance.
type SLAMeasurement struct {
	ID          string `json:"id"`
	SLATargetID string `json:"slaTargetId"`
	NestID      string `json:"nestId"`

	WindowStart time.Time `json:"windowStart"`
	WindowEnd   time.Time `json:"windowEnd"`

	Uptime       MetricResult `json:"uptime"`
	ResponseTime MetricResult `json:"responseTime"`
	ErrorRate    MetricResult `json:"errorRate"`
	Availability MetricResult `json:"availability"`

	OverallCompliance bool    `json:"overallCompliance"`
	ComplianceScore   float64 `json:"complianceScore"`

	AppliedPenalties []PenaltyRule `json:"appliedPenalties,omitempty"`
	EarnedCredits    []CreditRule  `json:"earnedCredits,omitempty"`

	DataQuality DataQuality `json:"dataQuality"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// TrendDirection classifies how complianceScore moved between two
// consecutive measurements.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendStable    TrendDirection = "stable"
	TrendDegrading TrendDirection = "degrading"
)

// trendThresholdPercent is the minimum complianceScore delta, as a fraction
// of the prior score, that counts as improving/degrading rather than stable.
const trendThresholdPercent = 10.0

// Incident summarizes one non-compliant measurement inside a report window.
type Incident struct {
	MeasurementID string    `json:"measurementId"`
	WindowStart   time.Time `json:"windowStart"`
	WindowEnd     time.Time `json:"windowEnd"`
	FailedMetrics []Metric  `json:"failedMetrics"`
}

// ServiceBreakdown is one service's contribution to a multi-service report.
type ServiceBreakdown struct {
	ServiceID       string  `json:"serviceId"`
	ComplianceScore float64 `json:"complianceScore"`
}

// Report aggregates measurements over a reporting window.
type Report struct {
	SLATargetID     string             `json:"slaTargetId"`
	WindowStart     time.Time          `json:"windowStart"`
	WindowEnd       time.Time          `json:"windowEnd"`
	Summary         string             `json:"summary"`
	Measurements    []SLAMeasurement   `json:"measurements"`
	Trend           TrendDirection     `json:"trend"`
	Incidents       []Incident         `json:"incidents,omitempty"`
	ServiceBreakdown []ServiceBreakdown `json:"serviceBreakdown,omitempty"`
}

// ReportFormat selects the external file generator's output encoding.
type ReportFormat string

const (
	FormatJSON ReportFormat = "json"
	FormatPDF  ReportFormat = "pdf"
	FormatCSV  ReportFormat = "csv"
)

// ReportFileRequest is handed to a FileGenerator; GuardAnt's core only
// produces this value and the structured Report it wraps — rendering is an
// external collaborator's job.
type ReportFileRequest struct {
	Report Report       `json:"report"`
	Format ReportFormat `json:"format"`
}

// FileGenerator renders a ReportFileRequest to a durable artifact and
// returns a location descriptor (path, URL, etc).
type FileGenerator interface {
	Generate(req ReportFileRequest) (string, error)
}
