package core

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

const (
	defaultMaxRetries  = 3
	defaultBaseDelay   = 500 * time.Millisecond
	defaultMaxDelay    = 8 * time.Second
	backoffJitterRatio = 0.3

	// Successive delays always grow by at least this factor, jitter included.
	minBackoffGrowth = 1.3
)

// Gateway wraps every completion-service call with retry, exponential backoff,
// and failure classification. It is a pure control-flow wrapper; the only side
// effect is the network call performed by the supplied function.
type Gateway struct {
	logger     *zap.SugaredLogger
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	sleep      func(time.Duration) // injectable for tests
}

func NewGateway(logger *zap.SugaredLogger, maxRetries int) *Gateway {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &Gateway{
		logger:     logger,
		maxRetries: maxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
		sleep:      time.Sleep,
	}
}

// Do runs fn, retrying classified-retryable failures with exponential backoff
// and ±30% jitter. Non-retryable failures return immediately. Exhausting every
// attempt returns a *GatewayError carrying the op name and attempt count.
func (g *Gateway) Do(ctx context.Context, op string, fn func(ctx context.Context) (string, error)) (string, error) {
	var lastErr error
	var prevDelay time.Duration

	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return "", &GatewayError{Op: op, Attempts: attempt, Err: ctx.Err()}
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsRetryable(err) {
			g.logger.Warnw("completion call failed with non-retryable error",
				"op", op, "attempt", attempt+1, "error", err)
			return "", &GatewayError{Op: op, Attempts: attempt + 1, Err: err}
		}
		if attempt == g.maxRetries {
			break
		}

		delay := g.backoffDelay(attempt)
		// Independent per-attempt jitter could let a low-jittered delay follow
		// a high-jittered one; floor it so the sequence stays monotonic.
		if floor := time.Duration(float64(prevDelay) * minBackoffGrowth); delay < floor {
			delay = floor
		}
		prevDelay = delay
		g.logger.Warnw("completion call retrying",
			"op", op, "attempt", attempt+1, "max_retries", g.maxRetries,
			"sleep", delay.String(), "error", err)
		g.sleep(delay)
	}

	g.logger.Errorw("completion call exhausted retries",
		"op", op, "attempts", g.maxRetries+1, "error", lastErr)
	return "", &GatewayError{Op: op, Attempts: g.maxRetries + 1, Err: lastErr}
}

// backoffDelay is base × 2^attempt, capped, with ±30% random jitter so
// concurrent requests do not retry in lockstep.
func (g *Gateway) backoffDelay(attempt int) time.Duration {
	delay := g.baseDelay << uint(attempt)
	if delay > g.maxDelay {
		delay = g.maxDelay
	}
	jitter := 1 - backoffJitterRatio + rand.Float64()*2*backoffJitterRatio
	return time.Duration(float64(delay) * jitter)
}
