// Package embedding defines the gateway's boundary to the external embedding
// service. The routing core only consumes this contract; the model itself is
// an external collaborator.
package embedding

import (
	"context"
	"errors"
	"time"
)

// ErrDimensionMismatch is returned when the service yields vectors of
// inconsistent dimensionality across calls.
var ErrDimensionMismatch = errors.New("embedding: inconsistent vector dimension")

// DefaultTimeout bounds every call into the embedding service. The embedding
// call is the only I/O-bound operation in the routing core; a timeout degrades
// to zero-value semantic features upstream instead of blocking a decision.
const DefaultTimeout = 5 * time.Second

// Service converts text into fixed-dimension vectors.
type Service interface {
	// Embed returns the vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// BatchEmbed returns one vector per input text, in input order.
	BatchEmbed(ctx context.Context, texts []string) ([][]float32, error)
}

// WithTimeout wraps a Service so that every call is bounded by d.
// A non-positive d falls back to DefaultTimeout.
func WithTimeout(svc Service, d time.Duration) Service {
	if d <= 0 {
		d = DefaultTimeout
	}
	return &timeoutService{inner: svc, timeout: d}
}

type timeoutService struct {
	inner   Service
	timeout time.Duration
}

func (s *timeoutService) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.inner.Embed(ctx, text)
}

func (s *timeoutService) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.inner.BatchEmbed(ctx, texts)
}
