package ratelimit

import (
	"context"
	"time"

	"github.com/guidanceapp/incident-report/model"
)

// Countdown emits the remaining cooldown seconds once per second until
// it reaches zero or ctx is cancelled, then closes the channel. The
// emitted value is recomputed from the state on every tick; it is a
// display aid only, never the source of truth for admission.
func Countdown(ctx context.Context, state model.SubmissionState, now func() time.Time) <-chan int {
	return countdown(ctx, state, now, time.Second)
}

func countdown(ctx context.Context, state model.SubmissionState, now func() time.Time, interval time.Duration) <-chan int {
	out := make(chan int)
	go func() {
		defer close(out)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			remaining := RemainingCooldown(state, now())
			select {
			case out <- remaining:
			case <-ctx.Done():
				return
			}
			if remaining == 0 {
				return
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
