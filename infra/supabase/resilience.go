package supabase

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// =============================================================================
// Retry Configuration
// =============================================================================

// RetryConfig configures retry behavior for idempotent (GET/HEAD) requests.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts
	MaxRetries int
	// InitialBackoff is the initial backoff duration
	InitialBackoff time.Duration
	// MaxBackoff is the maximum backoff duration
	MaxBackoff time.Duration
	// BackoffMultiplier is the multiplier for exponential backoff
	BackoffMultiplier float64
	// Jitter adds randomness to backoff (0.0 to 1.0)
	Jitter float64
}

// DefaultRetryConfig returns the defaults used when Config.Retry is zero.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        2,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        2 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            0.1,
	}
}

func (r RetryConfig) backoff(attempt int) time.Duration {
	backoff := float64(r.InitialBackoff) * math.Pow(r.BackoffMultiplier, float64(attempt-1))
	if backoff > float64(r.MaxBackoff) {
		backoff = float64(r.MaxBackoff)
	}
	if r.Jitter > 0 {
		backoff += backoff * r.Jitter * (rand.Float64()*2 - 1)
	}
	return time.Duration(backoff)
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func retryableError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// =============================================================================
// Circuit Breaker
// =============================================================================

// BreakerConfig configures the circuit breaker.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before opening
	FailureThreshold uint32
	// HalfOpenRequests is the number of trial requests allowed while half-open
	HalfOpenRequests uint32
	// OpenTimeout is how long the breaker stays open before probing again
	OpenTimeout time.Duration
	// OnStateChange is called when the breaker changes state
	OnStateChange func(from, to string)
}

// DefaultBreakerConfig returns the defaults used when Config.Breaker is zero.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		HalfOpenRequests: 2,
		OpenTimeout:      30 * time.Second,
	}
}

// ErrCircuitOpen is returned while the breaker rejects requests.
var ErrCircuitOpen = errors.New("supabase circuit breaker is open")

// errServerStatus marks a 5xx response so the breaker counts it as a failure
// while the caller still receives the body.
var errServerStatus = errors.New("supabase server error")

type rawResponse struct {
	body   []byte
	status int
}

func newBreaker(cfg BreakerConfig) *gobreaker.CircuitBreaker[rawResponse] {
	return gobreaker.NewCircuitBreaker[rawResponse](gobreaker.Settings{
		Name:        "supabase",
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			// client-side cancellation says nothing about upstream health
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			if cfg.OnStateChange != nil {
				cfg.OnStateChange(from.String(), to.String())
			}
		},
	})
}
