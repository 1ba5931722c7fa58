// Package preintel implements the pre-intelligence pipeline: language
// detection, near-duplicate detection, lossy pruning of low-information
// content, and a bounded result cache keyed by content hash. It runs in
// front of feature extraction and is strictly best-effort: internal failures
// degrade to returning the unmodified text.
package preintel

import (
	"context"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/SKDesing/AURA-OSINT-ADVANCED-ECOSYSTEM-sub001/pkg/hashutil"
	"github.com/SKDesing/AURA-OSINT-ADVANCED-ECOSYSTEM-sub001/pkg/observability/logging"
	"github.com/SKDesing/AURA-OSINT-ADVANCED-ECOSYSTEM-sub001/pkg/observability/metrics"
)

const (
	// duplicateThreshold marks text as a near-duplicate of recent content.
	duplicateThreshold = 0.85
	// pruningDedupCeiling disables pruning when the duplicate score is at or
	// above it; near-duplicates are handled by dedup, not pruning.
	pruningDedupCeiling = 0.8
	// defaultMaxPruningRatio caps how much of the text pruning may remove.
	defaultMaxPruningRatio = 0.3

	defaultCacheSize  = 4096
	defaultWindowSize = 128
)

// duplicateResponse replaces near-duplicate prompts. The deduplicated
// request is answered from prior work downstream.
const duplicateResponse = "Cette question a déjà été traitée récemment. Veuillez consulter les réponses précédentes."

// Options control which pipeline stages run for a single call.
type Options struct {
	EnablePruning   bool
	EnableDedup     bool
	EnableCache     bool
	MaxPruningRatio float64
}

// DefaultOptions enables every stage with the default pruning cap.
func DefaultOptions() Options {
	return Options{
		EnablePruning:   true,
		EnableDedup:     true,
		EnableCache:     true,
		MaxPruningRatio: defaultMaxPruningRatio,
	}
}

// Metadata describes what the pipeline did to one input.
type Metadata struct {
	OriginalTokens   int      `json:"originalTokens"`
	FinalTokens      int      `json:"finalTokens"`
	TokensSaved      int      `json:"tokensSaved"`
	LanguageDetected string   `json:"languageDetected"`
	PruningApplied   bool     `json:"pruningApplied"`
	CacheHit         bool     `json:"cacheHit"`
	SimhashScore     *float64 `json:"simhashScore,omitempty"`
	ProcessingTimeMs int64    `json:"processingTimeMs"`
}

// Result is the pipeline output: the (possibly rewritten) text, processing
// metadata, and the content hash of the processed text.
type Result struct {
	ProcessedText string   `json:"processedText"`
	Metadata      Metadata `json:"metadata"`
	Hash          string   `json:"hash"`
}

// CacheStats summarizes cache behavior since process start.
type CacheStats struct {
	Size    int     `json:"size"`
	HitRate float64 `json:"hitRate"`
}

// PipelineOptions size the pipeline's shared state.
type PipelineOptions struct {
	CacheSize       int // bounded LRU entries, default 4096
	DedupWindowSize int // recent simhashes kept for dedup, default 128
}

// Pipeline is the pre-intelligence pipeline. Safe for concurrent use; the
// result cache and the dedup window are the only shared state.
type Pipeline struct {
	cache  *lru.Cache[string, *Result]
	group  singleflight.Group
	window *dedupWindow
	tracer trace.Tracer

	cacheHits    atomic.Int64
	cacheMisses  atomic.Int64
	tokensTotal  atomic.Int64
	tokensSpared atomic.Int64
}

// NewPipeline creates a pipeline with bounded shared state.
func NewPipeline(opts PipelineOptions) *Pipeline {
	size := opts.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, *Result](size)
	if err != nil {
		// lru.New only fails on non-positive size, which is guarded above.
		panic(err)
	}
	return &Pipeline{
		cache:  cache,
		window: newDedupWindow(opts.DedupWindowSize),
		tracer: otel.Tracer("preintel"),
	}
}

// Run processes text through the configured stages. contextHint is carried
// for future context-aware stages and does not affect processing today.
// In dry-run mode the text is never mutated and nothing is cached, but
// language and timing metadata are still computed.
//
// Run never fails for recoverable reasons; detection or pruning problems
// degrade to returning the unmodified text with best-effort metadata.
func (p *Pipeline) Run(ctx context.Context, text, contextHint string, opts Options, dryRun bool) (*Result, error) {
	start := time.Now()
	operation := "full"
	if dryRun {
		operation = "dry"
	}

	ctx, span := p.tracer.Start(ctx, "preintel.run")
	defer span.End()
	defer func() {
		metrics.RecordPreintelLatency(operation, float64(time.Since(start).Milliseconds()))
	}()

	inputHash := hashutil.ContentHash(text)

	if opts.EnableCache {
		if cached, ok := p.cache.Get(inputHash); ok {
			p.recordCacheLookup(true)
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return withCacheHit(cached), nil
		}
	}

	if opts.EnableCache && !dryRun {
		// Single-flight: concurrent callers for the same uncached input share
		// one computation instead of each running the pipeline.
		v, _, _ := p.group.Do(inputHash, func() (interface{}, error) {
			if cached, ok := p.cache.Get(inputHash); ok {
				return withCacheHit(cached), nil
			}
			res := p.process(ctx, text, opts, dryRun, start)
			p.cache.Add(inputHash, res)
			return res, nil
		})
		res := v.(*Result)
		p.recordCacheLookup(res.Metadata.CacheHit)
		span.SetAttributes(
			attribute.Bool("cache_hit", res.Metadata.CacheHit),
			attribute.Int("tokens_saved", res.Metadata.TokensSaved),
			attribute.String("language", res.Metadata.LanguageDetected),
		)
		return res, nil
	}

	if opts.EnableCache {
		p.recordCacheLookup(false)
	}
	res := p.process(ctx, text, opts, dryRun, start)
	span.SetAttributes(
		attribute.Int("tokens_saved", res.Metadata.TokensSaved),
		attribute.String("language", res.Metadata.LanguageDetected),
	)
	return res, nil
}

// process runs the non-cached stages. A panic anywhere inside degrades to a
// pass-through result instead of aborting the call.
func (p *Pipeline) process(_ context.Context, text string, opts Options, dryRun bool, start time.Time) (res *Result) {
	originalTokens := hashutil.ApproxTokenCount(text)

	defer func() {
		if r := recover(); r != nil {
			logging.Errorf("Pre-intel stage failed, passing text through unmodified: %v", r)
			res = &Result{
				ProcessedText: text,
				Metadata: Metadata{
					OriginalTokens:   originalTokens,
					FinalTokens:      originalTokens,
					LanguageDetected: "unknown",
					ProcessingTimeMs: time.Since(start).Milliseconds(),
				},
				Hash: hashutil.ContentHash(text),
			}
		}
	}()

	processedText := text
	tokensSaved := 0
	pruningApplied := false
	var simhashScore *float64

	language := DetectLanguage(text)

	dedupSaved, pruneSaved := 0, 0

	if opts.EnableDedup {
		h := Simhash(text)
		score := p.window.score(h)
		simhashScore = &score
		if !dryRun {
			p.window.remember(h)
			if score > duplicateThreshold {
				processedText = duplicateResponse
				dedupSaved = originalTokens - hashutil.ApproxTokenCount(processedText)
				if dedupSaved < 0 {
					dedupSaved = 0
				}
				tokensSaved = dedupSaved
				logging.Debugf("Near-duplicate detected (score=%.3f), replaced with canned response", score)
			}
		}
	}

	if opts.EnablePruning && !dryRun && processedText == text {
		if simhashScore == nil || *simhashScore < pruningDedupCeiling {
			maxRatio := opts.MaxPruningRatio
			if maxRatio <= 0 {
				maxRatio = defaultMaxPruningRatio
			}
			pruned := applyPruning(processedText, maxRatio)
			if pruned.applied {
				processedText = pruned.text
				pruneSaved = pruned.tokensSaved
				tokensSaved += pruneSaved
				pruningApplied = true
			}
		}
	}

	finalTokens := hashutil.ApproxTokenCount(processedText)

	if !dryRun {
		metrics.RecordTokensSaved("dedup", dedupSaved)
		metrics.RecordTokensSaved("pruning", pruneSaved)
		p.publishEfficiency(originalTokens, tokensSaved)
	}

	return &Result{
		ProcessedText: processedText,
		Metadata: Metadata{
			OriginalTokens:   originalTokens,
			FinalTokens:      finalTokens,
			TokensSaved:      tokensSaved,
			LanguageDetected: language,
			PruningApplied:   pruningApplied,
			CacheHit:         false,
			SimhashScore:     simhashScore,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
		},
		Hash: hashutil.ContentHash(processedText),
	}
}

// ClearCache drops every cached result.
func (p *Pipeline) ClearCache() {
	p.cache.Purge()
}

// GetCacheStats reports the current cache size and the hit rate since
// process start.
func (p *Pipeline) GetCacheStats() CacheStats {
	hits := p.cacheHits.Load()
	misses := p.cacheMisses.Load()
	rate := 0.0
	if hits+misses > 0 {
		rate = float64(hits) / float64(hits+misses)
	}
	return CacheStats{Size: p.cache.Len(), HitRate: rate}
}

func (p *Pipeline) recordCacheLookup(hit bool) {
	if hit {
		p.cacheHits.Add(1)
	} else {
		p.cacheMisses.Add(1)
	}
	stats := p.GetCacheStats()
	metrics.SetCacheHitRatio("preintel", stats.HitRate)
}

func (p *Pipeline) publishEfficiency(originalTokens, saved int) {
	total := p.tokensTotal.Add(int64(originalTokens))
	spared := p.tokensSpared.Add(int64(saved))
	if total > 0 {
		metrics.TokensEfficiencyRatio.Set(float64(spared) / float64(total))
	}
}

// withCacheHit returns a copy of res with the cache-hit flag set,
// leaving the stored entry untouched.
func withCacheHit(res *Result) *Result {
	out := *res
	out.Metadata.CacheHit = true
	return &out
}
