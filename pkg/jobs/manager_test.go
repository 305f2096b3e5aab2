package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager() *Manager {
	cfgs := map[Priority]QueueConfig{
		PriorityCritical: {MaxConcurrency: 2, DefaultTimeout: time.Second},
		PriorityHigh:     {MaxConcurrency: 2, DefaultTimeout: time.Second},
		PriorityNormal:   {MaxConcurrency: 2, DefaultTimeout: time.Second},
		PriorityLow:      {MaxConcurrency: 2, DefaultTimeout: time.Second},
		PriorityBulk:     {MaxConcurrency: 2, DefaultTimeout: time.Second},
	}
	return NewManager(testLogger(), NewRateLimiter(nil), cfgs)
}

func TestManager_SubmitImmediateRunsProcessor(t *testing.T) {
	m := newTestManager()

	var ran atomic.Bool
	done := make(chan struct{})
	m.RegisterProcessor("noop", func(h *Handle, job Job) error {
		ran.Store(true)
		close(done)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	if err := m.Submit(Job{ID: "j1", Type: "noop", Priority: PriorityNormal}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("processor never ran")
	}

	if !ran.Load() {
		t.Fatal("processor did not run")
	}
}

func TestManager_RecoverableFailureRetriesUntilMaxAttempts(t *testing.T) {
	m := newTestManager()

	var attempts atomic.Int32
	done := make(chan struct{})
	m.RegisterProcessor("flaky", func(h *Handle, job Job) error {
		n := attempts.Add(1)
		if n < 3 {
			return errors.New("temporary failure")
		}
		close(done)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	job := Job{
		ID:       "flaky-job",
		Type:     "flaky",
		Priority: PriorityNormal,
		Retry: RetryConfig{
			MaxAttempts: 5,
			Strategy:    BackoffFixed,
			BaseDelay:   10 * time.Millisecond,
		},
	}
	if err := m.Submit(job); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("job never succeeded, attempts=%d", attempts.Load())
	}

	if attempts.Load() != 3 {
		t.Fatalf("attempts = %d, want 3", attempts.Load())
	}
}

func TestManager_NonRecoverableFailureDoesNotRetry(t *testing.T) {
	m := newTestManager()

	var attempts atomic.Int32
	m.RegisterProcessor("bad-input", func(h *Handle, job Job) error {
		attempts.Add(1)
		return &JobError{Message: "validation failed", Recoverable: false}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	job := Job{
		ID:       "bad-job",
		Type:     "bad-input",
		Priority: PriorityNormal,
		Retry:    RetryConfig{MaxAttempts: 5, Strategy: BackoffFixed, BaseDelay: 5 * time.Millisecond},
	}
	if err := m.Submit(job); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	time.Sleep(200 * time.Millisecond)

	if got := attempts.Load(); got != 1 {
		t.Fatalf("attempts = %d, want exactly 1 (no retry for non-recoverable error)", got)
	}
}

func TestManager_CancelJobPreventsPendingExecution(t *testing.T) {
	m := newTestManager()

	var ran atomic.Bool
	m.RegisterProcessor("cancellable", func(h *Handle, job Job) error {
		ran.Store(true)
		return nil
	})
	m.PauseQueue(PriorityNormal)

	if err := m.Submit(Job{ID: "to-cancel", Type: "cancellable", Priority: PriorityNormal}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	m.CancelJob("to-cancel")
	m.ResumeQueue(PriorityNormal)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	time.Sleep(150 * time.Millisecond)

	if ran.Load() {
		t.Fatal("cancelled job should never have run")
	}
}

func TestManager_PauseQueueBlocksDispatchUntilResumed(t *testing.T) {
	m := newTestManager()

	var mu sync.Mutex
	var order []string
	block := make(chan struct{})
	m.RegisterProcessor("task", func(h *Handle, job Job) error {
		mu.Lock()
		order = append(order, job.ID)
		mu.Unlock()
		return nil
	})
	_ = block

	m.PauseQueue(PriorityLow)
	if err := m.Submit(Job{ID: "p1", Type: "task", Priority: PriorityLow}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	ranWhilePaused := len(order)
	mu.Unlock()
	if ranWhilePaused != 0 {
		t.Fatal("job ran while queue was paused")
	}

	m.ResumeQueue(PriorityLow)
	time.Sleep(150 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(order) != 1 {
		t.Fatalf("expected job to run after resume, order = %v", order)
	}
}

func TestManager_ShutdownWaitsForInFlightExecution(t *testing.T) {
	m := newTestManager()

	started := make(chan struct{})
	release := make(chan struct{})
	m.RegisterProcessor("slow", func(h *Handle, job Job) error {
		close(started)
		<-release
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	if err := m.Submit(Job{ID: "slow-job", Type: "slow", Priority: PriorityNormal}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	go m.Run(ctx)

	<-started
	close(release)
	cancel()

	doneShutdown := make(chan struct{})
	go func() {
		m.Shutdown(2 * time.Second)
		close(doneShutdown)
	}()

	select {
	case <-doneShutdown:
	case <-time.After(3 * time.Second):
		t.Fatal("Shutdown did not return")
	}
}
