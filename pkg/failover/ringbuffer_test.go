package failover

import (
	"testing"
	"time"
)

func TestRingBuffer_RecentHealthyAverageRequiresN(t *testing.T) {
	rb := newRingBuffer(10)
	rb.add(Sample{Healthy: true, ResponseTime: 100 * time.Millisecond})
	rb.add(Sample{Healthy: true, ResponseTime: 200 * time.Millisecond})

	if _, ok := rb.recentHealthyAverage(3); ok {
		t.Fatal("expected false with fewer than 3 healthy samples")
	}

	rb.add(Sample{Healthy: true, ResponseTime: 300 * time.Millisecond})
	avg, ok := rb.recentHealthyAverage(3)
	if !ok {
		t.Fatal("expected true with 3 healthy samples")
	}
	if avg != 200*time.Millisecond {
		t.Fatalf("expected 200ms average, got %v", avg)
	}
}

func TestRingBuffer_RecentHealthyAverageSkipsUnhealthy(t *testing.T) {
	rb := newRingBuffer(10)
	rb.add(Sample{Healthy: true, ResponseTime: 100 * time.Millisecond})
	rb.add(Sample{Healthy: false, ResponseTime: 5 * time.Second})
	rb.add(Sample{Healthy: true, ResponseTime: 300 * time.Millisecond})

	avg, ok := rb.recentHealthyAverage(2)
	if !ok {
		t.Fatal("expected true with 2 healthy samples")
	}
	if avg != 200*time.Millisecond {
		t.Fatalf("expected 200ms average ignoring the unhealthy sample, got %v", avg)
	}
}

func TestRingBuffer_CapacityTrimsOldestSamples(t *testing.T) {
	rb := newRingBuffer(2)
	rb.add(Sample{Healthy: true, ResponseTime: 1 * time.Millisecond})
	rb.add(Sample{Healthy: true, ResponseTime: 2 * time.Millisecond})
	rb.add(Sample{Healthy: true, ResponseTime: 3 * time.Millisecond})

	if len(rb.samples) != 2 {
		t.Fatalf("expected capacity to trim to 2 samples, got %d", len(rb.samples))
	}
	if rb.samples[0].ResponseTime != 2*time.Millisecond {
		t.Fatalf("expected oldest sample dropped, got %v", rb.samples[0].ResponseTime)
	}
}

func TestRingBuffer_MetricsSinceComputesErrorRateAndAvailability(t *testing.T) {
	rb := newRingBuffer(100)
	now := time.Now()
	for i := 0; i < 100; i++ {
		healthy := i >= 5 // first 5 fail, rest succeed
		rb.add(Sample{Timestamp: now, Healthy: healthy, ResponseTime: 50 * time.Millisecond})
	}

	m := rb.metricsSince(now.Add(-time.Minute))
	if m.ErrorRate != 5.0 {
		t.Fatalf("expected 5%% error rate, got %v", m.ErrorRate)
	}
	if m.Availability != 95.0 {
		t.Fatalf("expected 95%% availability, got %v", m.Availability)
	}
}

func TestRingBuffer_MetricsSinceExcludesSamplesBeforeCutoff(t *testing.T) {
	rb := newRingBuffer(100)
	old := time.Now().Add(-time.Hour)
	rb.add(Sample{Timestamp: old, Healthy: false, ResponseTime: time.Second})
	recent := time.Now()
	rb.add(Sample{Timestamp: recent, Healthy: true, ResponseTime: time.Millisecond})

	m := rb.metricsSince(recent.Add(-time.Second))
	if m.ErrorRate != 0 {
		t.Fatalf("expected the old failing sample excluded, got error rate %v", m.ErrorRate)
	}
}
