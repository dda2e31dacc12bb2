package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ruleproof/ruleproof/internal/model"
)

func testCaller(retries int) (*Caller, *[]time.Duration) {
	var slept []time.Duration
	c := NewCaller(model.ResilienceConfig{
		RequestsPerSecond: 1000,
		Burst:             1000,
		BreakerThreshold:  100,
		BreakerCooldown:   time.Minute,
		CallRetries:       retries,
		BackoffBase:       100 * time.Millisecond,
	})
	c.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	c.jitter = func() float64 { return 0 }
	return c, &slept
}

func TestCaller_SucceedsFirstAttempt(t *testing.T) {
	c, slept := testCaller(3)

	calls := 0
	err := c.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if len(*slept) != 0 {
		t.Errorf("no backoff expected, slept %v", *slept)
	}
}

func TestCaller_RetriesWithExponentialBackoff(t *testing.T) {
	c, slept := testCaller(3)

	calls := 0
	err := c.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}
	if len(*slept) != len(want) {
		t.Fatalf("expected %d backoffs, got %v", len(want), *slept)
	}
	for i, d := range want {
		if (*slept)[i] != d {
			t.Errorf("backoff %d = %v, want %v", i, (*slept)[i], d)
		}
	}
}

func TestCaller_ExhaustionReturnsLastError(t *testing.T) {
	c, _ := testCaller(2)

	boom := errors.New("boom")
	err := c.Do(context.Background(), func(ctx context.Context) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped boom, got %v", err)
	}
}

func TestCaller_TimeoutCountsAsFailure(t *testing.T) {
	c, _ := testCaller(2)
	c.callTimeout = 10 * time.Millisecond

	calls := 0
	err := c.Do(context.Background(), func(ctx context.Context) error {
		calls++
		<-ctx.Done() // hang until the per-call timeout fires
		return ctx.Err()
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 2 {
		t.Errorf("timed-out calls should be retried, got %d calls", calls)
	}
}

func TestCaller_BreakerOpenShortCircuits(t *testing.T) {
	c, _ := testCaller(2)
	c.breaker = NewBreaker(1, time.Hour)
	c.breaker.Failure() // trip it

	calls := 0
	err := c.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	if !errors.Is(err, ErrBreakerOpen) {
		t.Errorf("expected ErrBreakerOpen, got %v", err)
	}
	if calls != 0 {
		t.Errorf("open breaker must prevent calls, got %d", calls)
	}
}

func TestCaller_CancelledContextStopsRetries(t *testing.T) {
	c, _ := testCaller(5)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := c.Do(ctx, func(cctx context.Context) error {
		calls++
		cancel()
		return errors.New("failed while cancelling")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("no retries after cancellation, got %d calls", calls)
	}
}
