// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"fmt"
	"time"
)

// RetryPolicy bounds how often and how fast an operation is retried.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int
	// BaseBackoff is the wait before the second attempt; it doubles afterwards.
	BaseBackoff time.Duration
}

// DefaultPullRetry is the policy used for image pulls.
var DefaultPullRetry = RetryPolicy{MaxAttempts: 3, BaseBackoff: 2 * time.Second}

// RetryWithBackoff retries op up to policy.MaxAttempts times with exponential backoff.
// It checks ctx between retries so a cancelled caller stops immediately.
//
// op returns (shouldRetry bool, err error). If shouldRetry is false, err is
// returned immediately (nil on success, non-nil on permanent failure).
// On retry exhaustion, the last error is returned.
func RetryWithBackoff(
	ctx context.Context,
	policy RetryPolicy,
	op func(attempt int) (retry bool, err error),
) error {
	var lastErr error
	for attempt := range policy.MaxAttempts {
		if attempt > 0 {
			wait := policy.BaseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return fmt.Errorf("retry aborted: %w", ctx.Err())
			case <-time.After(wait):
			}
		}

		retry, err := op(attempt)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// PullImageWithRetry pulls image, retrying transient engine failures.
// The returned result is the one from the last attempt.
func PullImageWithRetry(ctx context.Context, engine Engine, image string, policy RetryPolicy) (*CommandResult, error) {
	var last *CommandResult
	err := RetryWithBackoff(ctx, policy, func(int) (bool, error) {
		result, err := engine.PullImage(ctx, image)
		if result != nil {
			last = result
		}
		if err != nil {
			return IsTransientError(err), err
		}
		if !result.Succeeded() {
			return IsTransientResult(result), fmt.Errorf("pull %s: exit status %d", image, result.ExitCode)
		}
		return false, nil
	})
	return last, err
}
