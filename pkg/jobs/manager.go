package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/m00npl/guardant/internal/telemetry"
)

// QueueConfig tunes one priority queue's concurrency, timeout, and rate limit.
type QueueConfig struct {
	MaxConcurrency     int
	DefaultTimeout     time.Duration
	RateLimitPerSecond float64
}

// Manager is the Job System's composition root: five priority queues, a
// processor registry, and the dispatcher/scheduler goroutines that drive
// them.
type Manager struct {
	logger     *slog.Logger
	limiter    *RateLimiter
	queues     map[Priority]*queue
	processors map[string]Processor

	mu        sync.Mutex
	cancelled map[string]bool
	timers    map[string]*time.Timer

	wg sync.WaitGroup
}

// NewManager builds a Manager with one queue per fixed priority.
func NewManager(logger *slog.Logger, limiter *RateLimiter, cfgs map[Priority]QueueConfig) *Manager {
	m := &Manager{
		logger:     logger,
		limiter:    limiter,
		queues:     make(map[Priority]*queue),
		processors: make(map[string]Processor),
		cancelled:  make(map[string]bool),
		timers:     make(map[string]*time.Timer),
	}
	for _, p := range priorityOrder {
		cfg := cfgs[p]
		m.queues[p] = newQueue(p, cfg.MaxConcurrency, cfg.DefaultTimeout, cfg.RateLimitPerSecond)
	}
	return m
}

// RegisterProcessor binds jobType to the function that executes it.
func (m *Manager) RegisterProcessor(jobType string, proc Processor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processors[jobType] = proc
}

// Submit installs job per its Schedule/Delay, or enqueues it immediately.
func (m *Manager) Submit(job Job) error {
	q, ok := m.queues[job.Priority]
	if !ok {
		return fmt.Errorf("unknown priority %q for job %s", job.Priority, job.ID)
	}

	switch {
	case job.Schedule != nil:
		return m.installSchedule(job, q)
	case job.Delay > 0:
		m.mu.Lock()
		m.timers[job.ID] = time.AfterFunc(job.Delay, func() { q.enqueue(job, 1) })
		m.mu.Unlock()
	default:
		q.enqueue(job, 1)
		telemetry.JobsEnqueuedTotal.WithLabelValues(string(job.Priority)).Inc()
	}
	return nil
}

func (m *Manager) installSchedule(job Job, q *queue) error {
	sched := job.Schedule
	switch {
	case sched.Interval > 0:
		m.mu.Lock()
		m.timers[job.ID] = time.AfterFunc(sched.Interval, func() {
			q.enqueue(job, 1)
			telemetry.JobsEnqueuedTotal.WithLabelValues(string(job.Priority)).Inc()
			m.reinstallInterval(job, q)
		})
		m.mu.Unlock()
		return nil

	case !sched.Once.IsZero():
		delay := time.Until(sched.Once)
		if delay < 0 {
			delay = 0
		}
		m.mu.Lock()
		m.timers[job.ID] = time.AfterFunc(delay, func() {
			q.enqueue(job, 1)
			telemetry.JobsEnqueuedTotal.WithLabelValues(string(job.Priority)).Inc()
		})
		m.mu.Unlock()
		return nil

	case sched.Cron != "":
		next, err := nextCronFire(sched.Cron, time.Now())
		if err != nil {
			return fmt.Errorf("parsing cron schedule for job %s: %w", job.ID, err)
		}
		m.mu.Lock()
		m.timers[job.ID] = time.AfterFunc(time.Until(next), func() {
			q.enqueue(job, 1)
			telemetry.JobsEnqueuedTotal.WithLabelValues(string(job.Priority)).Inc()
			m.reinstallCron(job, q)
		})
		m.mu.Unlock()
		return nil
	}
	return fmt.Errorf("schedule for job %s specifies neither cron, interval, nor once", job.ID)
}

func (m *Manager) reinstallInterval(job Job, q *queue) {
	if m.isCancelled(job.ID) {
		return
	}
	m.mu.Lock()
	m.timers[job.ID] = time.AfterFunc(job.Schedule.Interval, func() {
		q.enqueue(job, 1)
		telemetry.JobsEnqueuedTotal.WithLabelValues(string(job.Priority)).Inc()
		m.reinstallInterval(job, q)
	})
	m.mu.Unlock()
}

func (m *Manager) reinstallCron(job Job, q *queue) {
	if m.isCancelled(job.ID) {
		return
	}
	next, err := nextCronFire(job.Schedule.Cron, time.Now())
	if err != nil {
		m.logger.Error("recomputing cron schedule", "job_id", job.ID, "error", err)
		return
	}
	m.mu.Lock()
	m.timers[job.ID] = time.AfterFunc(time.Until(next), func() {
		q.enqueue(job, 1)
		telemetry.JobsEnqueuedTotal.WithLabelValues(string(job.Priority)).Inc()
		m.reinstallCron(job, q)
	})
	m.mu.Unlock()
}

// CancelJob cancels any pending schedule and removes all non-running pending
// executions from the queues. A running execution runs to natural
// completion: CancelJob does not cancel the context its Handle carries,
// which is cancelled only by the execution timeout or by cancelling the
// ctx passed to Run.
func (m *Manager) CancelJob(jobID string) {
	m.mu.Lock()
	m.cancelled[jobID] = true
	if t, ok := m.timers[jobID]; ok {
		t.Stop()
		delete(m.timers, jobID)
	}
	m.mu.Unlock()

	for _, q := range m.queues {
		q.cancelPending(jobID)
	}
}

func (m *Manager) isCancelled(jobID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancelled[jobID]
}

// PauseQueue stops a queue from running jobs; it still accepts enqueues.
func (m *Manager) PauseQueue(p Priority) {
	if q, ok := m.queues[p]; ok {
		q.setPaused(true)
	}
}

// ResumeQueue re-enables dispatch for a paused queue.
func (m *Manager) ResumeQueue(p Priority) {
	if q, ok := m.queues[p]; ok {
		q.setPaused(false)
	}
}

// Run starts one dispatcher goroutine per queue and blocks until ctx is
// cancelled. Each dispatcher admits at most one job from its own queue per
// tick; the queues are dispatched independently of one another, so a
// pending higher-priority job does not hold back a lower-priority queue.
func (m *Manager) Run(ctx context.Context) {
	for _, p := range priorityOrder {
		m.wg.Add(1)
		go m.runQueueDispatcher(ctx, m.queues[p])
	}
	<-ctx.Done()
}

func (m *Manager) runQueueDispatcher(ctx context.Context, q *queue) {
	defer m.wg.Done()

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			telemetry.JobQueueDepth.WithLabelValues(string(q.priority)).Set(float64(q.depth()))
			m.dispatchOne(ctx, q)
		}
	}
}

func (m *Manager) dispatchOne(ctx context.Context, q *queue) {
	if q.isPaused() {
		return
	}

	allowed, err := m.limiter.Allow(ctx, q.priority, q.rateLimitPerSecond)
	if err != nil {
		m.logger.Warn("rate limiter error, admitting by default", "queue", q.priority, "error", err)
		allowed = true
	}
	if !allowed {
		return
	}

	select {
	case q.sem <- struct{}{}:
	default:
		return
	}

	item, ok := q.popNext()
	if !ok {
		<-q.sem
		return
	}
	if m.isCancelled(item.job.ID) {
		<-q.sem
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() { <-q.sem }()
		m.execute(ctx, q, item)
	}()
}

func (m *Manager) execute(ctx context.Context, q *queue, item pendingItem) {
	m.mu.Lock()
	proc, ok := m.processors[item.job.Type]
	m.mu.Unlock()
	if !ok {
		m.logger.Error("no processor registered for job type", "job_id", item.job.ID, "type", item.job.Type)
		telemetry.JobsCompletedTotal.WithLabelValues(string(q.priority), string(ExecutionFailed)).Inc()
		return
	}

	timeout := item.job.Timeout
	if timeout <= 0 {
		timeout = q.defaultTimeout
	}
	if timeout <= 0 {
		timeout = time.Minute
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	execution := &Execution{
		JobID:     item.job.ID,
		Attempt:   item.attempt,
		StartedAt: time.Now(),
		Status:    ExecutionRunning,
	}
	handle := &Handle{ctx: execCtx, execution: execution}

	err := proc(handle, item.job)
	execution.CompletedAt = time.Now()

	if err == nil {
		execution.Status = ExecutionCompleted
		telemetry.JobsCompletedTotal.WithLabelValues(string(q.priority), string(ExecutionCompleted)).Inc()
		return
	}

	execution.Err = err
	if execCtx.Err() != nil {
		err = &JobError{Message: "job timed out", Recoverable: true}
	}

	maxAttempts := item.job.Retry.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	if !Recoverable(err) || item.attempt >= maxAttempts {
		execution.Status = ExecutionFailed
		telemetry.JobsCompletedTotal.WithLabelValues(string(q.priority), string(ExecutionFailed)).Inc()
		return
	}

	execution.Status = ExecutionRetrying
	telemetry.JobsCompletedTotal.WithLabelValues(string(q.priority), string(ExecutionRetrying)).Inc()

	delay := Delay(item.job.Retry, item.attempt)
	nextAttempt := item.attempt + 1
	m.mu.Lock()
	m.timers[item.job.ID+":retry"] = time.AfterFunc(delay, func() {
		if !m.isCancelled(item.job.ID) {
			q.enqueue(item.job, nextAttempt)
		}
	})
	m.mu.Unlock()
}

// Shutdown cancels all timers and waits up to grace for the dispatchers and
// in-flight executions to drain (callers default grace to 30s). Dispatchers
// stop only once the ctx passed to Run is cancelled.
func (m *Manager) Shutdown(grace time.Duration) {
	m.mu.Lock()
	for _, t := range m.timers {
		t.Stop()
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(grace):
		m.logger.Warn("job system shutdown grace period elapsed with executions still in flight")
	}
}
