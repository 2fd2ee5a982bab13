package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// BreakerOptions configures the circuit breaker placed in front of the generator.
type BreakerOptions struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	MinRequests      uint32
	FailureThreshold float64
}

// GuardOptions configures Guard. Zero values disable the corresponding protection.
type GuardOptions struct {
	Timeout           time.Duration
	RequestsPerMinute int
	Breaker           *BreakerOptions
}

// Guarded wraps a Generator with a per-call timeout, an optional rate limit and an
// optional circuit breaker. Calls are never retried.
type Guarded struct {
	next    Generator
	timeout time.Duration
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[string]
	logger  *zap.Logger
}

// Guard decorates next according to opts.
func Guard(next Generator, opts GuardOptions, logger *zap.Logger) *Guarded {
	if logger == nil {
		logger = zap.NewNop()
	}

	g := &Guarded{
		next:    next,
		timeout: opts.Timeout,
		logger:  logger,
	}

	if opts.RequestsPerMinute > 0 {
		g.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}

	if b := opts.Breaker; b != nil {
		g.cb = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
			Name:        "text-generation",
			MaxRequests: b.MaxRequests,
			Interval:    b.Interval,
			Timeout:     b.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests == 0 {
					return false
				}
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= b.MinRequests && failureRatio >= b.FailureThreshold
			},
			IsSuccessful: func(err error) bool {
				// caller cancellation says nothing about upstream health
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state changed",
					zap.String("name", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		})
	}

	return g
}

// GenerateContent implements Generator.
func (g *Guarded) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	if g.cb == nil {
		return g.call(ctx, prompt)
	}

	out, err := g.cb.Execute(func() (string, error) {
		return g.call(ctx, prompt)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return out, err
}

// Model implements Generator.
func (g *Guarded) Model() string {
	return g.next.Model()
}

func (g *Guarded) call(ctx context.Context, prompt string) (string, error) {
	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	out, err := g.next.GenerateContent(callCtx, prompt)
	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("%w after %s: %v", ErrTimeout, g.timeout, err)
	}

	return out, err
}
