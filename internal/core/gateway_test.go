package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordingGateway(maxRetries int) (*Gateway, *[]time.Duration) {
	g := NewGateway(testLogger(), maxRetries)
	var delays []time.Duration
	g.sleep = func(d time.Duration) { delays = append(delays, d) }
	return g, &delays
}

func TestGatewaySuccessFirstAttempt(t *testing.T) {
	g, delays := recordingGateway(3)

	calls := 0
	result, err := g.Do(context.Background(), "test-op", func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *delays)
}

func TestGatewayRetriesThenSucceeds(t *testing.T) {
	g, delays := recordingGateway(3)

	calls := 0
	result, err := g.Do(context.Background(), "test-op", func(ctx context.Context) (string, error) {
		calls++
		if calls <= 2 {
			return "", errors.New("rate limit exceeded")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)

	// Two backoff sleeps, exponential with ±30% jitter.
	require.Len(t, *delays, 2)
	assert.GreaterOrEqual(t, (*delays)[0], 350*time.Millisecond)
	assert.LessOrEqual(t, (*delays)[0], 650*time.Millisecond)
	assert.LessOrEqual(t, (*delays)[1], 1300*time.Millisecond)
	// The second delay grows by at least 1.3x over the first, jitter included.
	assert.GreaterOrEqual(t, float64((*delays)[1]), float64((*delays)[0])*1.3)
}

func TestGatewayBackoffMonotonicGrowth(t *testing.T) {
	// Jitter is drawn per attempt; the growth floor must hold across every
	// draw, not just a lucky one.
	for i := 0; i < 500; i++ {
		g, delays := recordingGateway(3)

		calls := 0
		_, err := g.Do(context.Background(), "test-op", func(ctx context.Context) (string, error) {
			calls++
			if calls <= 2 {
				return "", errors.New("rate limit exceeded")
			}
			return "ok", nil
		})
		require.NoError(t, err)
		require.Len(t, *delays, 2)
		require.GreaterOrEqual(t, float64((*delays)[1]), float64((*delays)[0])*1.3)
	}
}

func TestGatewayNonRetryableFailsImmediately(t *testing.T) {
	g, delays := recordingGateway(3)

	calls := 0
	_, err := g.Do(context.Background(), "test-op", func(ctx context.Context) (string, error) {
		calls++
		return "", errors.New("invalid argument")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *delays)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "test-op", gwErr.Op)
	assert.Equal(t, 1, gwErr.Attempts)
}

func TestGatewayExhaustsRetries(t *testing.T) {
	g, delays := recordingGateway(3)

	calls := 0
	_, err := g.Do(context.Background(), "test-op", func(ctx context.Context) (string, error) {
		calls++
		return "", errors.New("service unavailable")
	})

	require.Error(t, err)
	assert.Equal(t, 4, calls)
	assert.Len(t, *delays, 3)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, 4, gwErr.Attempts)
}

func TestGatewayCanceledContext(t *testing.T) {
	g, _ := recordingGateway(3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := g.Do(ctx, "test-op", func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})

	require.Error(t, err)
	assert.Equal(t, 0, calls)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.False(t, IsRetryable(context.Canceled))
	assert.True(t, IsRetryable(errors.New("rate limit exceeded")))
	assert.True(t, IsRetryable(errors.New("RESOURCE EXHAUSTED")))
	assert.True(t, IsRetryable(errors.New("connection reset by peer")))
	assert.True(t, IsRetryable(errors.New("service unavailable")))
	assert.False(t, IsRetryable(errors.New("invalid api key")))
	assert.False(t, IsRetryable(errors.New("prompt blocked by safety settings")))
}
