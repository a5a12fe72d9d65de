package resilience

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/pkg/logger_i"
	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Policy retries transient upstream failures with exponential backoff.
// MaxAttempts counts the first call, so 1 means no retry.
type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64

	// timer is swapped in tests
	timer backoff.Timer
}

func NewPolicy(c config.RetryConfig) Policy {
	return Policy{
		MaxAttempts:    c.MaxAttempts,
		InitialBackoff: c.InitialBackoff,
		MaxBackoff:     c.MaxBackoff,
		Multiplier:     c.Multiplier,
	}
}

func SingleShot() Policy {
	return Policy{MaxAttempts: 1}
}

// Do runs fn until it succeeds, fails permanently or runs out of attempts.
// The last error is returned unchanged, or the context error when ctx ends
// while waiting.
func (p Policy) Do(ctx context.Context, op string, log *logger_i.Logger, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	b := backoff.WithContext(backoff.WithMaxRetries(p.exponential(), uint64(attempts-1)), ctx)

	attempt := 0
	operation := func() error {
		attempt++
		err := fn(ctx)
		if err != nil && !IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		if log != nil {
			log.Warn("Transient failure, retrying", "op", op, "attempt", attempt, "wait", wait, "error", err)
		}
	}
	return backoff.RetryNotifyWithTimer(operation, b, notify, p.timer)
}

// Backoff returns the wait before retry number attempt+1, capped at MaxBackoff.
func (p Policy) Backoff(attempt int) time.Duration {
	b := p.exponential()
	wait := b.NextBackOff()
	for i := 0; i < attempt; i++ {
		wait = b.NextBackOff()
	}
	return wait
}

func (p Policy) exponential() *backoff.ExponentialBackOff {
	maxInterval := p.MaxBackoff
	if maxInterval <= 0 {
		maxInterval = time.Duration(math.MaxInt64)
	}
	multiplier := p.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	return backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(p.InitialBackoff),
		backoff.WithRandomizationFactor(0),
		backoff.WithMultiplier(multiplier),
		backoff.WithMaxInterval(maxInterval),
		backoff.WithMaxElapsedTime(0),
	)
}

// IsTransient reports whether a failure from qdrant, Gemini or OpenAI is worth
// another attempt: unavailable, rate limited or timed out upstreams.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded:
			return true
		}
	}

	var gErr genai.APIError
	if errors.As(err, &gErr) {
		return retryableStatus(gErr.Code)
	}

	var oErr *openai.Error
	if errors.As(err, &oErr) {
		return retryableStatus(oErr.StatusCode)
	}
	return false
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
