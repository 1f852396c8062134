// Package resilience provides the small set of failure-handling helpers used
// by the health checker.
//
// # Patterns
//
//   - Do: bounds a single operation. Used to cap how long one probe may
//     hold up a checker tick.
//
//   - Retry: re-runs an operation with constant or exponential backoff. Used
//     for snapshot writes, where a rename can fail transiently on busy
//     filesystems.
//
// # Usage
//
//	passed, err := resilience.Do(ctx, 2*time.Second, func(ctx context.Context) (bool, error) {
//	    return pingDatabase(ctx)
//	})
//	if errors.Is(err, resilience.ErrTimeout) {
//	    // the operation is still running in the background
//	}
//
//	retry := resilience.NewRetry(resilience.RetryConfig{
//	    MaxAttempts:  3,
//	    InitialDelay: 10 * time.Millisecond,
//	    Strategy:     resilience.BackoffConstant,
//	})
//	err = retry.Execute(ctx, func(ctx context.Context) error {
//	    return store.Write(pid, name, data)
//	})
package resilience
