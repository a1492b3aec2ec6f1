package adapters

import (
	"context"
	"errors"
	"time"

	"github.com/signal-noise/workbench/internal/pkg/httpx"
	"github.com/signal-noise/workbench/internal/pkg/logger"
)

// Backoff is the fixed retry schedule for every adapter: the first call
// plus up to 3 retries, sleeping a jittered 250ms/1s/4s before each retry.
var Backoff = []time.Duration{250 * time.Millisecond, 1 * time.Second, 4 * time.Second}

// BadRequest marks an adapter error as non-retryable (a 4xx-equivalent
// failure the retry policy must not spend attempts on).
type BadRequest struct{ Err error }

func (e *BadRequest) Error() string { return e.Err.Error() }
func (e *BadRequest) Unwrap() error  { return e.Err }

// WithRetry runs fn up to len(Backoff)+1 times, stopping early on a
// *BadRequest or a non-retryable error. Grounded on the OpenAI client's
// doWithClient retry loop.
func WithRetry(ctx context.Context, log *logger.Logger, op string, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		var bad *BadRequest
		if errors.As(err, &bad) {
			return bad.Err
		}
		if attempt >= len(Backoff) {
			return lastErr
		}
		if !httpx.IsRetryableError(err) {
			return lastErr
		}

		sleep := httpx.JitterSleep(Backoff[attempt])
		if log != nil {
			log.Warn("adapter call failed, retrying", "op", op, "attempt", attempt+1, "sleep_ms", sleep.Milliseconds(), "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
	}
}
