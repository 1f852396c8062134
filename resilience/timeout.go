package resilience

import (
	"context"
	"errors"
	"time"
)

// Do runs op and returns its result, or ErrTimeout once d elapses.
//
// The goroutine running op cannot be stopped from outside; on timeout it is
// abandoned with a cancelled context and its result is discarded. Operations
// should therefore honor ctx. With d <= 0, op runs inline without a bound.
func Do[T any](ctx context.Context, d time.Duration, op func(context.Context) (T, error)) (T, error) {
	if d <= 0 {
		return op(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type outcome struct {
		val T
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		v, err := op(ctx)
		done <- outcome{val: v, err: err}
	}()

	select {
	case out := <-done:
		return out.val, out.err
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, ErrTimeout
		}
		return zero, ctx.Err()
	}
}
