package ai

import (
	"context"
	"errors"
)

var (
	// ErrTimeout is returned when a single generator call exceeds its deadline.
	ErrTimeout = errors.New("text generation timed out")
	// ErrUnavailable is returned while the circuit breaker rejects calls.
	ErrUnavailable = errors.New("text generation is temporarily unavailable")
)

// Generator turns a prompt into free text. The response is not guaranteed to be valid JSON.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}
