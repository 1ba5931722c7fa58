package features

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/SKDesing/AURA-OSINT-ADVANCED-ECOSYSTEM-sub001/pkg/embedding"
	"github.com/SKDesing/AURA-OSINT-ADVANCED-ECOSYSTEM-sub001/pkg/observability/logging"
)

// PrototypeSource maps a routing class to the example texts its centroid is
// computed from.
type PrototypeSource map[string][]string

// classCentroid is one class's averaged embedding.
type classCentroid struct {
	class    string
	centroid []float32
	size     int
}

// PrototypeIndex holds one centroid per routing class. Built once, then
// read-only.
type PrototypeIndex struct {
	centroids []classCentroid
}

// BuildPrototypeIndex embeds every class's sample texts and averages them
// into centroids. Classes with no samples are skipped with a warning.
func BuildPrototypeIndex(ctx context.Context, svc embedding.Service, source PrototypeSource) (*PrototypeIndex, error) {
	if len(source) == 0 {
		return nil, fmt.Errorf("prototype source is empty")
	}

	// Deterministic build order.
	classes := make([]string, 0, len(source))
	for class := range source {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	idx := &PrototypeIndex{}
	for _, class := range classes {
		samples := source[class]
		if len(samples) == 0 {
			logging.Warnf("Prototype class %q has no samples, skipping", class)
			continue
		}

		vecs, err := svc.BatchEmbed(ctx, samples)
		if err != nil {
			return nil, fmt.Errorf("embedding prototype samples for class %q: %w", class, err)
		}
		if len(vecs) == 0 || len(vecs[0]) == 0 {
			return nil, fmt.Errorf("empty embeddings for prototype class %q", class)
		}

		dim := len(vecs[0])
		centroid := make([]float32, dim)
		for _, v := range vecs {
			if len(v) != dim {
				return nil, fmt.Errorf("%w in prototype class %q", embedding.ErrDimensionMismatch, class)
			}
			for i := range v {
				centroid[i] += v[i]
			}
		}
		for i := range centroid {
			centroid[i] /= float32(len(vecs))
		}

		idx.centroids = append(idx.centroids, classCentroid{
			class:    class,
			centroid: centroid,
			size:     len(vecs),
		})
	}

	if len(idx.centroids) == 0 {
		return nil, fmt.Errorf("no prototype class produced a centroid")
	}

	logging.Infof("Prototype index built: %d classes", len(idx.centroids))
	return idx, nil
}

// Classes returns the class names in index order.
func (idx *PrototypeIndex) Classes() []string {
	out := make([]string, len(idx.centroids))
	for i, c := range idx.centroids {
		out[i] = c.class
	}
	return out
}

// SampleCount returns how many examples the given class's centroid averages,
// or 0 for an unknown class.
func (idx *PrototypeIndex) SampleCount(class string) int {
	for _, c := range idx.centroids {
		if c.class == class {
			return c.size
		}
	}
	return 0
}

// classSimilarity is one class's cosine similarity to a query vector.
type classSimilarity struct {
	class string
	sim   float64
}

// similarities returns the cosine similarity of vec against every centroid,
// sorted best-first.
func (idx *PrototypeIndex) similarities(vec []float32) []classSimilarity {
	sims := make([]classSimilarity, len(idx.centroids))
	for i, c := range idx.centroids {
		sims[i] = classSimilarity{class: c.class, sim: cosineSimilarity(vec, c.centroid)}
	}
	sort.Slice(sims, func(i, j int) bool { return sims[i].sim > sims[j].sim })
	return sims
}

// cosineSimilarity computes cos(a, b). Returns 0 for zero-magnitude or
// mismatched vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
