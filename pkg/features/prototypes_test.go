package features

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder returns canned vectors per input text, falling back to a
// shared default. It counts calls so build-once behavior is observable.
type stubEmbedder struct {
	vectors    map[string][]float32
	fallback   []float32
	err        error
	embedCalls int
	batchCalls int
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.embedCalls++
	if s.err != nil {
		return nil, s.err
	}
	return s.lookup(text), nil
}

func (s *stubEmbedder) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	s.batchCalls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = s.lookup(t)
	}
	return out, nil
}

func (s *stubEmbedder) lookup(text string) []float32 {
	if v, ok := s.vectors[text]; ok {
		return v
	}
	return s.fallback
}

func TestBuildPrototypeIndexCentroids(t *testing.T) {
	svc := &stubEmbedder{
		vectors: map[string][]float32{
			"sample one": {1, 0},
			"sample two": {0, 1},
		},
		fallback: []float32{1, 0},
	}
	source := PrototypeSource{
		"bypass":   {"sample one", "sample two"},
		"escalate": {"other"},
	}

	idx, err := BuildPrototypeIndex(context.Background(), svc, source)
	require.NoError(t, err)

	assert.Equal(t, []string{"bypass", "escalate"}, idx.Classes())
	assert.Equal(t, 2, idx.SampleCount("bypass"))
	assert.Equal(t, 1, idx.SampleCount("escalate"))
	assert.Equal(t, 0, idx.SampleCount("missing"))

	// The bypass centroid is the average of its two samples.
	sims := idx.similarities([]float32{0.5, 0.5})
	require.Len(t, sims, 2)
	assert.Equal(t, "bypass", sims[0].class)
	assert.InDelta(t, 1.0, sims[0].sim, 1e-6)
}

func TestBuildPrototypeIndexEmptySource(t *testing.T) {
	_, err := BuildPrototypeIndex(context.Background(), &stubEmbedder{}, nil)
	assert.Error(t, err)
}

func TestBuildPrototypeIndexEmbeddingFailure(t *testing.T) {
	svc := &stubEmbedder{err: errors.New("endpoint down")}
	_, err := BuildPrototypeIndex(context.Background(), svc, PrototypeSource{"bypass": {"x"}})
	assert.Error(t, err)
}

func TestBuildPrototypeIndexDimensionMismatch(t *testing.T) {
	svc := &stubEmbedder{
		vectors: map[string][]float32{
			"a": {1, 0, 0},
			"b": {1, 0},
		},
	}
	_, err := BuildPrototypeIndex(context.Background(), svc, PrototypeSource{"bypass": {"a", "b"}})
	assert.Error(t, err)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1.0},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0.0},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1.0},
		{name: "zero magnitude", a: []float32{0, 0}, b: []float32{1, 1}, want: 0.0},
		{name: "length mismatch", a: []float32{1}, b: []float32{1, 1}, want: 0.0},
		{name: "empty", a: nil, b: nil, want: 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cosineSimilarity(tt.a, tt.b), 1e-6)
		})
	}
}
