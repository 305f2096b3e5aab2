package jobs

import "testing"

func TestQueue_PopNextIsFIFO(t *testing.T) {
	q := newQueue(PriorityNormal, 4, 0, 0)
	q.enqueue(Job{ID: "a"}, 1)
	q.enqueue(Job{ID: "b"}, 1)
	q.enqueue(Job{ID: "c"}, 1)

	for _, want := range []string{"a", "b", "c"} {
		item, ok := q.popNext()
		if !ok {
			t.Fatalf("expected an item, queue empty early")
		}
		if item.job.ID != want {
			t.Fatalf("popNext() = %q, want %q", item.job.ID, want)
		}
	}

	if _, ok := q.popNext(); ok {
		t.Fatal("expected queue to be empty")
	}
}

func TestQueue_PausedQueueYieldsNothing(t *testing.T) {
	q := newQueue(PriorityNormal, 1, 0, 0)
	q.enqueue(Job{ID: "a"}, 1)
	q.setPaused(true)

	if _, ok := q.popNext(); ok {
		t.Fatal("paused queue should not yield pending items")
	}

	q.setPaused(false)
	if _, ok := q.popNext(); !ok {
		t.Fatal("unpaused queue should yield the pending item")
	}
}

func TestQueue_CancelPendingRemovesAllMatchingAndReportsCount(t *testing.T) {
	q := newQueue(PriorityNormal, 1, 0, 0)
	q.enqueue(Job{ID: "a"}, 1)
	q.enqueue(Job{ID: "b"}, 1)
	q.enqueue(Job{ID: "a"}, 2)

	removed := q.cancelPending("a")
	if removed != 2 {
		t.Fatalf("cancelPending removed %d, want 2", removed)
	}
	if q.depth() != 1 {
		t.Fatalf("depth() = %d, want 1", q.depth())
	}

	item, ok := q.popNext()
	if !ok || item.job.ID != "b" {
		t.Fatalf("remaining item = %+v, ok=%v, want job b", item, ok)
	}
}

func TestNewQueue_ClampsNonPositiveConcurrencyToOne(t *testing.T) {
	q := newQueue(PriorityBulk, 0, 0, 0)
	if cap(q.sem) != 1 {
		t.Fatalf("sem capacity = %d, want 1", cap(q.sem))
	}
}
