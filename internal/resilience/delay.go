package resilience

import (
	"context"
	"math/rand/v2"
	"time"
)

// Jitter produces randomized pauses between browser actions.
type Jitter struct {
	Min time.Duration
	Max time.Duration
}

// NewJitter returns a Jitter over [minMs, maxMs] milliseconds.
func NewJitter(minMs, maxMs int) Jitter {
	return Jitter{
		Min: time.Duration(minMs) * time.Millisecond,
		Max: time.Duration(maxMs) * time.Millisecond,
	}
}

// Next returns a random duration in [Min, Max].
func (j Jitter) Next() time.Duration {
	lo, hi := j.Min, j.Max
	if hi < lo {
		lo, hi = hi, lo
	}
	if lo < 0 {
		lo = 0
	}
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo+1)
}

// Sleep pauses for Next(). It returns ctx.Err() if ctx ends first.
func (j Jitter) Sleep(ctx context.Context) error {
	return Sleep(ctx, j.Next())
}

// Scaled returns a Jitter with both bounds multiplied by f.
func (j Jitter) Scaled(f float64) Jitter {
	return Jitter{
		Min: time.Duration(float64(j.Min) * f),
		Max: time.Duration(float64(j.Max) * f),
	}
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
