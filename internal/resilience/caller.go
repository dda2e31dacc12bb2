package resilience

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/time/rate"

	"github.com/ruleproof/ruleproof/internal/model"
)

// Caller executes fallible operations behind a shared token bucket, a
// circuit breaker, and bounded exponential backoff with jitter. One Caller
// is shared by all workers so the external quota is respected globally.
type Caller struct {
	limiter     *rate.Limiter
	breaker     *Breaker
	maxRetries  int
	callTimeout time.Duration
	backoffBase time.Duration

	sleep  func(ctx context.Context, d time.Duration) error // injectable for tests
	jitter func() float64
}

// NewCaller builds a caller from resilience configuration.
func NewCaller(cfg model.ResilienceConfig) *Caller {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	retries := cfg.CallRetries
	if retries <= 0 {
		retries = 3
	}
	base := cfg.BackoffBase
	if base <= 0 {
		base = time.Second
	}

	return &Caller{
		limiter:     rate.NewLimiter(rate.Limit(rps), burst),
		breaker:     NewBreaker(cfg.BreakerThreshold, cfg.BreakerCooldown),
		maxRetries:  retries,
		callTimeout: cfg.CallTimeout,
		backoffBase: base,
		sleep:       sleepCtx,
		jitter:      rand.Float64,
	}
}

// Do runs op, retrying transient failures with exponential backoff and
// jitter. Every attempt waits for rate-limit clearance and breaker
// admission; a call that exceeds the per-call timeout counts as a failure
// rather than hanging. The last error is returned after exhaustion.
func (c *Caller) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, c.backoff(attempt)); err != nil {
				return err
			}
		}

		if !c.breaker.Allow() {
			lastErr = ErrBreakerOpen
			continue
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		callCtx := ctx
		cancel := context.CancelFunc(func() {})
		if c.callTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, c.callTimeout)
		}
		err := op(callCtx)
		cancel()

		if err == nil {
			c.breaker.Success()
			return nil
		}
		c.breaker.Failure()
		lastErr = err

		// the parent context ending is not a service failure to retry
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return fmt.Errorf("service call failed after %d attempts: %w", c.maxRetries, lastErr)
}

// BreakerState exposes the breaker position for diagnostics.
func (c *Caller) BreakerState() BreakerState {
	return c.breaker.State()
}

// backoff grows exponentially with the attempt number, with up to 50%
// added jitter so retries from concurrent workers do not align.
func (c *Caller) backoff(attempt int) time.Duration {
	d := c.backoffBase << uint(attempt-1)
	return d + time.Duration(c.jitter()*0.5*float64(d))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
