package gather

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces a minimum delay between consecutive network requests.
// One Pacer is shared by every network call the gatherer makes for the
// lifetime of the engine, so the search backend sees at most one
// request per interval regardless of how many records are processed.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a pacer with the given minimum inter-request delay.
// A non-positive delay disables pacing.
func NewPacer(delay time.Duration) *Pacer {
	if delay <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(delay), 1)}
}

// Wait blocks until the next request slot, or until ctx is cancelled.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
