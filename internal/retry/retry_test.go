package retry_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sendarcade/squadgames/internal/retry"
)

var errBoom = errors.New("boom")

// TestDo_SucceedsFirstAttempt confirms a passing op runs exactly once.
func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	p := retry.DefaultPolicy()
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("op called %d times, want 1", calls)
	}
}

// TestDo_SucceedsMidway confirms an op that fails once then succeeds consumes
// exactly two attempts and returns nil.
func TestDo_SucceedsMidway(t *testing.T) {
	calls := 0
	p := retry.DefaultPolicy()
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return errBoom
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("op called %d times, want 2", calls)
	}
}

// TestDo_ExhaustsAttempts confirms the default policy stops after 3 attempts
// and wraps the last error with the attempt count.
func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	p := retry.DefaultPolicy()
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errBoom
	})
	if calls != 3 {
		t.Errorf("op called %d times, want 3", calls)
	}
	if !errors.Is(err, errBoom) {
		t.Errorf("wrapped error should match the last op error, got %v", err)
	}
	if !strings.Contains(err.Error(), "3 attempts") {
		t.Errorf("error should report attempt count, got %q", err)
	}
}

// TestDo_NonRetryableStopsImmediately confirms the Retryable classifier halts
// the loop on the first terminal error, unwrapped.
func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	terminal := errors.New("funds already moved")
	calls := 0
	p := retry.Policy{
		MaxAttempts: 3,
		Retryable:   func(err error) bool { return !errors.Is(err, terminal) },
	}
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return terminal
	})
	if calls != 1 {
		t.Errorf("op called %d times, want 1", calls)
	}
	if !errors.Is(err, terminal) {
		t.Errorf("expected terminal error, got %v", err)
	}
	if strings.Contains(err.Error(), "attempts exhausted") {
		t.Errorf("terminal error should not be wrapped as exhaustion, got %q", err)
	}
}

// TestDo_ContextCanceled confirms cancellation aborts before the next attempt.
func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	p := retry.Policy{MaxAttempts: 5}
	err := p.Do(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return errBoom
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("op called %d times, want 1", calls)
	}
}

// TestDo_ZeroAttemptsRunsOnce guards the MaxAttempts<1 floor.
func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	p := retry.Policy{}
	_ = p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errBoom
	})
	if calls != 1 {
		t.Errorf("op called %d times, want 1", calls)
	}
}

// TestDo_Backoff confirms the constant delay applies between attempts only.
func TestDo_Backoff(t *testing.T) {
	p := retry.Policy{MaxAttempts: 3, Backoff: 10 * time.Millisecond}
	start := time.Now()
	_ = p.Do(context.Background(), func(ctx context.Context) error {
		return errBoom
	})
	elapsed := time.Since(start)
	// 2 sleeps between 3 attempts.
	if elapsed < 20*time.Millisecond {
		t.Errorf("elapsed %v, want >= 20ms from two backoff sleeps", elapsed)
	}
}

// TestDoValue confirms the generic variant forwards the value on success and
// zeroes it on exhaustion.
func TestDoValue(t *testing.T) {
	calls := 0
	got, err := retry.Do(context.Background(), retry.DefaultPolicy(), func(ctx context.Context) (uint64, error) {
		calls++
		if calls < 3 {
			return 0, errBoom
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if got != 42 {
		t.Errorf("value = %d, want 42", got)
	}

	got, err = retry.Do(context.Background(), retry.DefaultPolicy(), func(ctx context.Context) (uint64, error) {
		return 99, errBoom
	})
	if err == nil {
		t.Fatal("expected error after exhaustion")
	}
	if got != 0 {
		t.Errorf("value after exhaustion = %d, want zero", got)
	}
}
