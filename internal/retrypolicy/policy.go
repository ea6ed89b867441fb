// Package retrypolicy wraps external collaborator calls with bounded,
// jittered exponential backoff. Every page fetch, generation, synthesis, and
// publish call goes through Do so transient upstream failures do not kill a
// pipeline run.
package retrypolicy

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"time"
)

// Policy controls retry behavior for one class of external call.
type Policy struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

// New builds a policy with the given attempt bound; non-positive values fall
// back to defaults (3 attempts, 250ms base, 5s cap).
func New(maxAttempts int, baseDelay, maxDelay time.Duration) *Policy {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if baseDelay <= 0 {
		baseDelay = 250 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 5 * time.Second
	}
	return &Policy{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		maxDelay:    maxDelay,
	}
}

// Default returns the policy used when no configuration is supplied.
func Default() *Policy {
	return New(0, 0, 0)
}

// ShouldRetry decides whether the error is retryable at the given attempt
// (0-based). Context cancellation is never retried.
func (p *Policy) ShouldRetry(err error, attempt int) bool {
	if err == nil {
		return false
	}
	if attempt >= p.maxAttempts-1 {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var permanent *PermanentError
	if errors.As(err, &permanent) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return true
}

// Backoff returns the wait duration before the next attempt (0-based).
func (p *Policy) Backoff(attempt int) time.Duration {
	delay := float64(p.baseDelay) * math.Pow(2, float64(attempt))
	if delay > float64(p.maxDelay) {
		delay = float64(p.maxDelay)
	}
	jitter := randomJitter(time.Duration(delay) / 2)
	return time.Duration(delay/2) + jitter
}

// Do invokes fn until it succeeds, the policy gives up, or ctx is done. The
// last error is returned on exhaustion.
func (p *Policy) Do(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if !p.ShouldRetry(err, attempt) {
			return err
		}
		select {
		case <-time.After(p.Backoff(attempt)):
		case <-ctx.Done():
			return fmt.Errorf("retry wait: %w", ctx.Err())
		}
	}
}

// PermanentError marks an error that retrying cannot fix (bad input,
// authorization failures). Do gives up on it immediately.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }

// Unwrap exposes the wrapped cause.
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so the policy will not retry it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	bound := big.NewInt(int64(limit))
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}
