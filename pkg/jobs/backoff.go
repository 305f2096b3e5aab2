package jobs

import (
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Delay computes the retry delay before the given attempt's successor:
// exponential = min(base·2^(attempt-1), max), linear = base·attempt,
// fixed = base; jitter (when enabled) multiplies by U(0.5,1.0).
func Delay(cfg RetryConfig, attempt int) time.Duration {
	var d time.Duration
	switch cfg.Strategy {
	case BackoffExponential:
		d = exponentialDelay(cfg.BaseDelay, cfg.MaxDelay, attempt)
	case BackoffLinear:
		d = cfg.BaseDelay * time.Duration(attempt)
		if cfg.MaxDelay > 0 && d > cfg.MaxDelay {
			d = cfg.MaxDelay
		}
	default: // BackoffFixed
		d = cfg.BaseDelay
		if cfg.MaxDelay > 0 && d > cfg.MaxDelay {
			d = cfg.MaxDelay
		}
	}

	if cfg.Jitter {
		d = time.Duration(float64(d) * (0.5 + rand.Float64()*0.5))
	}
	return d
}

// exponentialDelay drives cenkalti/backoff/v5's ExponentialBackOff with
// randomization disabled (jitter is applied separately, by our own formula)
// to get the doubling sequence capped at max.
func exponentialDelay(base, max time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = base
	b.MaxInterval = max
	b.Multiplier = 2
	b.RandomizationFactor = 0

	var d time.Duration
	for i := 0; i < attempt; i++ {
		d = b.NextBackOff()
	}
	return d
}
