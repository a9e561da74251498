package netutil

import (
	"context"
	"go.uber.org/zap"
	"time"
)

// DefaultRetryInterval is the fixed wait between reconnection attempts.
const DefaultRetryInterval = 5 * time.Second

// RetryForever calls fn until it succeeds. It sleeps interval between
// attempts and only gives up when ctx is done. Callers must not hold any
// lock while calling it.
func RetryForever(
	ctx context.Context,
	interval time.Duration,
	log *zap.SugaredLogger,
	what string,
	fn func(ctx context.Context) error,
) error {
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		log.Warnw(what+" failed, retrying",
			"attempt", attempt,
			"retryIn", interval,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
