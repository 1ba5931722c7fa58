package features

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/SKDesing/AURA-OSINT-ADVANCED-ECOSYSTEM-sub001/pkg/embedding"
	"github.com/SKDesing/AURA-OSINT-ADVANCED-ECOSYSTEM-sub001/pkg/observability/logging"
	"github.com/SKDesing/AURA-OSINT-ADVANCED-ECOSYSTEM-sub001/pkg/preintel"
)

var (
	errNoEmbedder  = errors.New("features: no embedding service configured")
	errBuildFailed = errors.New("features: prototype index build previously failed")
)

// Hints carries pre-intelligence results into extraction so language
// detection and risk scoring are not recomputed.
type Hints struct {
	Language    string
	RiskLexical *float64
}

// Extractor derives FeatureRecords from text. It owns the lazily-built
// prototype index; construction is guarded so concurrent first callers do
// not trigger redundant embedding calls.
type Extractor struct {
	embedder embedding.Service
	source   PrototypeSource

	mu         sync.Mutex
	index      *PrototypeIndex
	buildTried bool
}

// NewExtractor creates an extractor. embedder may be nil, in which case all
// semantic features stay at their zero values.
func NewExtractor(embedder embedding.Service, source PrototypeSource) *Extractor {
	return &Extractor{embedder: embedder, source: source}
}

// Extract derives the feature record for text. Semantic extraction failures
// degrade to zero similarities and an "unknown" top-1 class; Extract itself
// never fails.
func (e *Extractor) Extract(ctx context.Context, text string, hints *Hints) *FeatureRecord {
	risk := lexicalRisk(text)
	lang := ""
	if hints != nil {
		if hints.RiskLexical != nil {
			risk = *hints.RiskLexical
		}
		lang = hints.Language
	}
	if lang == "" || lang == "unknown" {
		lang = preintel.DetectLanguage(text)
	}

	record := &FeatureRecord{
		LexicalBucket:         riskBucket(risk),
		Lang:                  lang,
		EntCount:              countEntities(text),
		ForensicTerms:         countTerms(text, forensicTerms),
		TimelineMarkers:       countTimelineMarkers(text),
		LengthBucket:          lengthBucket(text),
		HasQuestion:           hasQuestion(text),
		RiskLexical:           risk,
		ContainsPolicyRequest: countTerms(text, policyTerms) > 0,
		TaskHint:              detectTaskHint(text),
	}

	e.applySemanticFeatures(ctx, text, record)
	return record
}

// applySemanticFeatures fills in the similarity fields, leaving zero values
// and the "unknown" sentinel on any failure.
func (e *Extractor) applySemanticFeatures(ctx context.Context, text string, record *FeatureRecord) {
	record.SimTop1Class = ClassUnknown

	idx, err := e.prototypeIndex(ctx)
	if err != nil {
		logging.Warnf("Semantic features unavailable (prototype index): %v", err)
		return
	}

	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		logging.Warnf("Semantic features unavailable (query embedding): %v", err)
		return
	}

	sims := idx.similarities(vec)
	for _, s := range sims {
		switch s.class {
		case ClassBypass:
			record.SimBypass = s.sim
		case ClassForensic:
			record.SimForensic = s.sim
		case ClassHarassment:
			record.SimHarassment = s.sim
		case ClassRagLLM:
			record.SimRagLLM = s.sim
		case ClassEscalate:
			record.SimEscalate = s.sim
		default:
			logging.Debugf("Ignoring similarity for unmapped prototype class %q", s.class)
		}
	}

	record.SimTop1 = sims[0].sim
	record.SimTop1Class = sims[0].class
	if len(sims) > 1 {
		record.SimTop2 = sims[1].sim
	}
	record.SimMarginTop2 = roundTo4(record.SimTop1 - record.SimTop2)
}

// prototypeIndex returns the once-built index. A failed build is not retried
// implicitly; RebuildPrototypeIndex is the explicit recovery path.
func (e *Extractor) prototypeIndex(ctx context.Context) (*PrototypeIndex, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.index != nil {
		return e.index, nil
	}
	if e.embedder == nil {
		return nil, errNoEmbedder
	}
	if e.buildTried {
		return nil, errBuildFailed
	}

	e.buildTried = true
	idx, err := BuildPrototypeIndex(ctx, e.embedder, e.source)
	if err != nil {
		return nil, err
	}
	e.index = idx
	return idx, nil
}

// RebuildPrototypeIndex discards the current index and builds a fresh one.
// This is an explicit, out-of-band operation; it never happens implicitly.
func (e *Extractor) RebuildPrototypeIndex(ctx context.Context) error {
	if e.embedder == nil {
		return errNoEmbedder
	}
	idx, err := BuildPrototypeIndex(ctx, e.embedder, e.source)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.index = idx
	e.buildTried = true
	e.mu.Unlock()
	return nil
}

func roundTo4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
