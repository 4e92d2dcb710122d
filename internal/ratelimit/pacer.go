package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"BookAnnotator/internal/ports"
)

// Pacer spaces outbound calls at least interval apart. The first call passes
// immediately; every later call waits for the previous slot to expire.
type Pacer struct {
	limiter  *rate.Limiter
	name     string
	interval time.Duration
}

var _ ports.Pacer = (*Pacer)(nil)

// NewPacer builds a pacer with burst 1. A non-positive interval disables pacing.
func NewPacer(name string, interval time.Duration) *Pacer {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Pacer{
		limiter:  rate.NewLimiter(limit, 1),
		name:     name,
		interval: interval,
	}
}

// Wait blocks until the next call may proceed or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("pacer %s: %w", p.name, err)
	}
	return nil
}

// Name returns the pacer name.
func (p *Pacer) Name() string {
	return p.name
}

// Interval returns the configured spacing.
func (p *Pacer) Interval() time.Duration {
	return p.interval
}
