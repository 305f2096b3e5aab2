package jobs

import (
	"sync"
	"time"
)

// pendingItem is one job awaiting dispatch, FIFO within its queue
// (oldest-first among equal-priority pending jobs).
type pendingItem struct {
	job        Job
	attempt    int
	enqueuedAt time.Time
}

// queue is one of the five fixed priority queues: its own concurrency
// bound, default timeout, and rate limit.
type queue struct {
	priority           Priority
	maxConcurrency     int
	defaultTimeout     time.Duration
	rateLimitPerSecond float64

	mu     sync.Mutex
	items  []pendingItem
	paused bool

	sem chan struct{}
}

func newQueue(p Priority, maxConcurrency int, defaultTimeout time.Duration, rateLimitPerSecond float64) *queue {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &queue{
		priority:           p,
		maxConcurrency:     maxConcurrency,
		defaultTimeout:     defaultTimeout,
		rateLimitPerSecond: rateLimitPerSecond,
		sem:                make(chan struct{}, maxConcurrency),
	}
}

func (q *queue) enqueue(job Job, attempt int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, pendingItem{job: job, attempt: attempt, enqueuedAt: time.Now()})
}

// popNext removes and returns the oldest pending item, if any and the queue
// is not paused.
func (q *queue) popNext() (pendingItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.paused || len(q.items) == 0 {
		return pendingItem{}, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

func (q *queue) depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *queue) setPaused(paused bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.paused = paused
}

func (q *queue) isPaused() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.paused
}

// cancelPending marks every non-running pending execution of jobID as
// removed from the queue; returns how many were removed.
func (q *queue) cancelPending(jobID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.items[:0]
	removed := 0
	for _, item := range q.items {
		if item.job.ID == jobID {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	q.items = kept
	return removed
}
