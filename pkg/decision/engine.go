// Package decision applies the ordered routing rule set to extracted
// features and produces the gateway's routing decisions: which downstream
// processing path handles a request, with confidence, an auditable reason,
// and a deterministic feature fingerprint.
package decision

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/SKDesing/AURA-OSINT-ADVANCED-ECOSYSTEM-sub001/pkg/features"
	"github.com/SKDesing/AURA-OSINT-ADVANCED-ECOSYSTEM-sub001/pkg/hashutil"
	"github.com/SKDesing/AURA-OSINT-ADVANCED-ECOSYSTEM-sub001/pkg/observability/logging"
	"github.com/SKDesing/AURA-OSINT-ADVANCED-ECOSYSTEM-sub001/pkg/observability/metrics"
)

// bypassSavingsRatio estimates what fraction of the prompt's tokens a
// bypass route saves over running the general model.
var bypassSavingsRatio = map[string]float64{
	DecisionNER:        0.85,
	DecisionForensic:   0.80,
	DecisionHarassment: 0.90,
	DecisionNLP:        0.60,
}

// Decision is the immutable result of routing one request.
type Decision struct {
	Decision            string                  `json:"decision"`
	Confidence          float64                 `json:"confidence"`
	Bypass              bool                    `json:"bypass"`
	Reason              string                  `json:"reason"`
	FeaturesHash        string                  `json:"features_hash"`
	Features            *features.FeatureRecord `json:"features"`
	RuleID              string                  `json:"rule_id,omitempty"`
	RouterVersion       string                  `json:"router_version"`
	TokensSavedEstimate int                     `json:"tokens_saved_estimate,omitempty"`
}

// EngineOptions configure a decision engine.
type EngineOptions struct {
	// RulesPath locates the JSON rule document. A missing or malformed
	// document degrades to the built-in default configuration.
	RulesPath string
	// AuditLogDir receives the date-partitioned decision log.
	AuditLogDir string
}

// Engine evaluates the configured rule set against extracted features.
// Safe for concurrent use; per-request evaluation is stateless and the
// audit buffer serializes its own appends.
type Engine struct {
	cfg       *RouterConfig
	extractor *features.Extractor
	audit     *auditLog
	tracer    trace.Tracer
}

// NewEngine creates an engine with the given feature extractor. The rule
// configuration is loaded once here; a load failure is logged and replaced
// by the built-in default, never surfaced to the caller.
func NewEngine(extractor *features.Extractor, opts EngineOptions) *Engine {
	cfg, err := LoadRouterConfig(opts.RulesPath)
	if err != nil {
		logging.Warnf("Failed to load router config from %q, using defaults: %v", opts.RulesPath, err)
		cfg = DefaultRouterConfig()
	} else {
		logging.Infof("Router config loaded: version=%s, rules=%d, rules_hash=%s",
			cfg.Version, len(cfg.Rules), cfg.RulesHash)
	}

	return &Engine{
		cfg:       cfg,
		extractor: extractor,
		audit:     newAuditLog(opts.AuditLogDir),
		tracer:    otel.Tracer("decision"),
	}
}

// Config exposes the active router configuration.
func (e *Engine) Config() *RouterConfig {
	return e.cfg
}

// Decide extracts features for text and applies the rule set in order. The
// first rule whose conditions all pass and whose confidence meets the
// configured threshold wins; matching rules below the threshold are skipped
// in favor of later rules. With no winner the configured fallback applies.
//
// Decide never fails: every input produces a valid decision.
func (e *Engine) Decide(ctx context.Context, text string, hints *features.Hints, simulate bool) *Decision {
	ctx, span := e.tracer.Start(ctx, "decision.decide")
	defer span.End()

	record := e.extractor.Extract(ctx, text, hints)
	featuresHash := record.Fingerprint()

	for i := range e.cfg.Rules {
		rule := &e.cfg.Rules[i]
		if !rule.matches(record) {
			continue
		}
		if rule.Confidence < e.cfg.Settings.MinConfidenceThreshold {
			logging.Debugf("Rule %q matched below confidence threshold (%.2f < %.2f), trying next rule",
				rule.ID, rule.Confidence, e.cfg.Settings.MinConfidenceThreshold)
			continue
		}

		decision := e.buildDecision(text, rule.Decision, rule.Confidence, rule.Reason, featuresHash, record, rule.ID)
		e.finishDecision(span, decision, simulate)
		return decision
	}

	fb := e.cfg.Fallback
	decision := e.buildDecision(text, fb.Decision, fb.Confidence, fb.Reason, featuresHash, record, "")
	e.finishDecision(span, decision, simulate)
	return decision
}

// Simulate runs Decide without counting metrics; the decision is still
// audit-logged with its simulate flag set.
func (e *Engine) Simulate(ctx context.Context, text string, hints *features.Hints) *Decision {
	return e.Decide(ctx, text, hints, true)
}

// GetStats aggregates over the in-memory audit buffer.
func (e *Engine) GetStats() Stats {
	return e.audit.stats()
}

// Shutdown flushes any buffered audit entries.
func (e *Engine) Shutdown() {
	e.audit.flush()
}

func (e *Engine) buildDecision(text, label string, confidence float64, reason, featuresHash string, record *features.FeatureRecord, ruleID string) *Decision {
	bypass := IsBypass(label)
	estimate := 0
	if ratio, ok := bypassSavingsRatio[label]; ok && bypass {
		estimate = int(float64(hashutil.ApproxTokenCount(text)) * ratio)
	}
	return &Decision{
		Decision:            label,
		Confidence:          confidence,
		Bypass:              bypass,
		Reason:              reason,
		FeaturesHash:        featuresHash,
		Features:            record,
		RuleID:              ruleID,
		RouterVersion:       e.cfg.Version,
		TokensSavedEstimate: estimate,
	}
}

// finishDecision meters and audit-logs a freshly built decision.
func (e *Engine) finishDecision(span trace.Span, d *Decision, simulate bool) {
	span.SetAttributes(
		attribute.String("decision", d.Decision),
		attribute.Bool("bypass", d.Bypass),
		attribute.Float64("confidence", d.Confidence),
		attribute.Bool("simulate", simulate),
	)

	if !simulate {
		metrics.RecordDecision(d.Decision, d.Bypass, d.Confidence)
		metrics.RecordTokensSaved("routing", d.TokensSavedEstimate)
		if d.Decision == DecisionHarassment {
			metrics.RecordGuardrailTrigger(DecisionHarassment, "bypass")
		}
	}

	if e.cfg.Settings.LogDecisions {
		e.audit.append(auditEntry{
			Timestamp:    time.Now().UTC().Format(time.RFC3339Nano),
			Decision:     d.Decision,
			Confidence:   d.Confidence,
			Bypass:       d.Bypass,
			Reason:       d.Reason,
			RuleID:       d.RuleID,
			FeaturesHash: d.FeaturesHash,
			Simulate:     simulate,
		})
	}
}
