// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"testing"
	"time"
)

var fastRetry = RetryPolicy{MaxAttempts: 3, BaseBackoff: 10 * time.Millisecond}

func TestRetryWithBackoff_SucceedsFirstAttempt(t *testing.T) {
	t.Parallel()
	calls := 0
	err := RetryWithBackoff(context.Background(), fastRetry, func(attempt int) (bool, error) {
		calls++
		return false, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestRetryWithBackoff_RetriesThenSucceeds(t *testing.T) {
	t.Parallel()
	calls := 0
	policy := RetryPolicy{MaxAttempts: 5, BaseBackoff: 10 * time.Millisecond}
	err := RetryWithBackoff(context.Background(), policy, func(attempt int) (bool, error) {
		calls++
		if attempt < 2 {
			return true, errors.New("transient")
		}
		return false, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetryWithBackoff_ExhaustsRetries(t *testing.T) {
	t.Parallel()
	calls := 0
	err := RetryWithBackoff(context.Background(), fastRetry, func(attempt int) (bool, error) {
		calls++
		return true, errors.New("always transient")
	})
	if err == nil || err.Error() != "always transient" {
		t.Fatalf("expected last error, got: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetryWithBackoff_ContextCancelledBetweenRetries(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := RetryWithBackoff(ctx, fastRetry, func(attempt int) (bool, error) {
		calls++
		if attempt == 0 {
			cancel()
			return true, errors.New("transient")
		}
		t.Fatal("should not reach second attempt")
		return false, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestRetryWithBackoff_NonTransientExitsImmediately(t *testing.T) {
	t.Parallel()
	calls := 0
	permanentErr := errors.New("permanent")
	err := RetryWithBackoff(context.Background(), fastRetry, func(attempt int) (bool, error) {
		calls++
		return false, permanentErr
	})
	if !errors.Is(err, permanentErr) {
		t.Fatalf("expected permanent error, got: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestPullImageWithRetry(t *testing.T) {
	t.Parallel()

	t.Run("transient failure retried", func(t *testing.T) {
		t.Parallel()
		recorder := NewMockCommandRecorder()
		recorder.Default = MockResponse{Stderr: "Could not resolve host: registry", ExitCode: 1}
		engine := newTestPodmanEngine(t, recorder)

		result, err := PullImageWithRetry(t.Context(), engine, "keystone:latest", fastRetry)
		if err == nil {
			t.Fatal("expected error after exhausting retries")
		}
		if result == nil || result.ExitCode != 1 {
			t.Errorf("expected last result to be returned, got %+v", result)
		}
		recorder.AssertInvocationCount(t, 3)
	})

	t.Run("permanent failure not retried", func(t *testing.T) {
		t.Parallel()
		recorder := NewMockCommandRecorder()
		recorder.Default = MockResponse{Stderr: "manifest unknown", ExitCode: 1}
		engine := newTestPodmanEngine(t, recorder)

		if _, err := PullImageWithRetry(t.Context(), engine, "keystone:missing", fastRetry); err == nil {
			t.Fatal("expected error")
		}
		recorder.AssertInvocationCount(t, 1)
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		recorder := NewMockCommandRecorder()
		engine := newTestPodmanEngine(t, recorder)

		if _, err := PullImageWithRetry(t.Context(), engine, "keystone:latest", fastRetry); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		recorder.AssertArgs(t, "pull", "keystone:latest")
	})
}
