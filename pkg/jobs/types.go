// Package jobs implements the Background Job System: five fixed
// priority queues, concurrency-bounded execution, retry/backoff policy, and
// cron/interval/once scheduling.
package jobs

import (
	"context"
	"time"
)

// Priority is one of the five fixed queues. Within a queue the oldest
// pending job is dispatched first; each queue has its own dispatcher, and
// no ordering is enforced across queues.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityNormal   Priority = "normal"
	PriorityLow      Priority = "low"
	PriorityBulk     Priority = "bulk"
)

// priorityOrder lists the five queues from highest to lowest priority; the
// Manager creates queues and starts their dispatchers in this order.
var priorityOrder = []Priority{PriorityCritical, PriorityHigh, PriorityNormal, PriorityLow, PriorityBulk}

// BackoffStrategy selects the retry delay formula.
type BackoffStrategy string

const (
	BackoffFixed       BackoffStrategy = "fixed"
	BackoffLinear      BackoffStrategy = "linear"
	BackoffExponential BackoffStrategy = "exponential"
)

// RetryConfig is the per-job retry policy.
type RetryConfig struct {
	MaxAttempts int
	Strategy    BackoffStrategy
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      bool
}

// Schedule installs recurring or delayed submission for a job.
type Schedule struct {
	Cron     string        // non-empty selects cron scheduling
	Interval time.Duration // non-zero selects interval scheduling
	Once     time.Time     // non-zero selects one-shot scheduling
}

// Job is a unit of work submitted to a priority queue.
type Job struct {
	ID             string
	Type           string
	Priority       Priority
	Data           any
	Delay          time.Duration
	Schedule       *Schedule
	Retry          RetryConfig
	Timeout        time.Duration
	MaxConcurrency int
	Dependencies   []string
}

// ExecutionStatus is the lifecycle state of one JobExecution.
type ExecutionStatus string

const (
	ExecutionPending   ExecutionStatus = "pending"
	ExecutionRunning   ExecutionStatus = "running"
	ExecutionCompleted ExecutionStatus = "completed"
	ExecutionFailed    ExecutionStatus = "failed"
	ExecutionRetrying  ExecutionStatus = "retrying"
	ExecutionCancelled ExecutionStatus = "cancelled"
	ExecutionPaused    ExecutionStatus = "paused"
	ExecutionScheduled ExecutionStatus = "scheduled"
)

// Metrics records timing for one execution.
type Metrics struct {
	QueuedAt    time.Time
	StartedAt   time.Time
	CompletedAt time.Time
}

// Execution is one run of a Job.
type Execution struct {
	JobID       string
	Attempt     int
	StartedAt   time.Time
	CompletedAt time.Time
	Status      ExecutionStatus
	Metrics     Metrics
	Err         error
}

// Handle is passed to a Processor; it exposes the execution's context,
// which is cancelled when the execution times out or the Manager's Run
// context is cancelled. CancelJob does not cancel it.
type Handle struct {
	ctx       context.Context
	execution *Execution
}

// Context returns the execution's cancellation context.
func (h *Handle) Context() context.Context { return h.ctx }

// Execution returns the execution record being run.
func (h *Handle) Execution() *Execution { return h.execution }

// Processor executes a Job's Data and returns a JobError on failure, or nil
// on success.
type Processor func(h *Handle, job Job) error

// JobError carries the Recoverable classification the retry policy
// consults.
type JobError struct {
	Message     string
	Recoverable bool
}

func (e *JobError) Error() string { return e.Message }
