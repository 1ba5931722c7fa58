package embedding

import (
	"context"
	"fmt"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/SKDesing/AURA-OSINT-ADVANCED-ECOSYSTEM-sub001/pkg/observability/logging"
)

// NewOpenAIServiceOptions configures the OpenAI-compatible embedding client.
type NewOpenAIServiceOptions struct {
	Endpoint string // Base URL of the embedding endpoint
	APIKey   string // Optional credential; local endpoints usually run without one
	Model    string // Embedding model name sent on every request
}

// OpenAIService talks to any OpenAI-compatible /embeddings endpoint.
// Safe for concurrent use.
type OpenAIService struct {
	client openai.EmbeddingService
	model  string

	// dim remembers the dimensionality seen on the first successful call so
	// later calls can be validated against it. Guarded by mu; requests run
	// on arbitrary worker goroutines.
	mu  sync.Mutex
	dim int
}

// NewOpenAIService creates an embedding service backed by an
// OpenAI-compatible endpoint.
func NewOpenAIService(options NewOpenAIServiceOptions) *OpenAIService {
	opts := []option.RequestOption{option.WithBaseURL(options.Endpoint)}
	if options.APIKey != "" {
		opts = append(opts, option.WithAPIKey(options.APIKey))
	}
	return &OpenAIService{
		client: openai.NewEmbeddingService(opts...),
		model:  options.Model,
	}
}

// Embed returns the vector for a single text.
func (s *OpenAIService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.BatchEmbed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// BatchEmbed returns one vector per input text, in input order.
func (s *OpenAIService) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	res, err := s.client.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(s.model),
	})
	if err != nil {
		logging.Errorf("Embedding request failed (model=%s, inputs=%d): %v", s.model, len(texts), err)
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	if len(res.Data) != len(texts) {
		return nil, fmt.Errorf("embedding response: got %d vectors for %d inputs", len(res.Data), len(texts))
	}

	vecs := make([][]float32, len(res.Data))
	for i, d := range res.Data {
		vec := make([]float32, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float32(v)
		}
		if err := s.checkDim(len(vec)); err != nil {
			return nil, err
		}
		vecs[i] = vec
	}
	return vecs, nil
}

// checkDim validates a vector's dimensionality against the first one seen,
// adopting it on first use.
func (s *OpenAIService) checkDim(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dim == 0 {
		s.dim = n
		return nil
	}
	if n != s.dim {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, n, s.dim)
	}
	return nil
}
