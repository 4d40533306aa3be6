package service

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// pacer keeps a quiet period between the end of one entity's remote calls
// and the start of the next entity's.
type pacer struct {
	gap time.Duration
	lim *rate.Limiter
}

func newPacer(gap time.Duration) *pacer {
	return &pacer{gap: gap}
}

// wait blocks until gap has passed since the last mark, or ctx ends.
func (p *pacer) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.lim == nil {
		return nil
	}
	return p.lim.Wait(ctx)
}

// mark starts a new quiet period at the current time. The limiter is
// replaced so that time spent inside an entity never counts toward the gap.
func (p *pacer) mark() {
	if p.gap <= 0 {
		return
	}
	p.lim = rate.NewLimiter(rate.Every(p.gap), 1)
	p.lim.Allow()
}
