package decision

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SKDesing/AURA-OSINT-ADVANCED-ECOSYSTEM-sub001/pkg/features"
)

const testRulesDoc = `{
	"version": "1.1.0",
	"rules_hash": "test",
	"rules": [
		{"id": "harassment-lexical", "if": {"risk_lexical": ">=0.5"}, "decision": "harassment", "confidence": 0.95, "reason": "High lexical risk"},
		{"id": "forensic-timeline", "if": {"forensic_terms": ">=1", "timeline_markers": ">=2"}, "decision": "forensic", "confidence": 0.85, "reason": "Timeline analysis request"},
		{"id": "entity-extraction", "if": {"ent_count": ">=2", "risk_lexical": "<0.3"}, "decision": "ner", "confidence": 0.9, "reason": "Multiple entities requiring extraction"},
		{"id": "retrieval-required", "if": {"contains_policy_request": true, "has_question": true}, "decision": "rag+llm", "confidence": 0.8, "reason": "Question about platform data"}
	],
	"fallback": {"decision": "llm", "confidence": 0.5, "reason": "default fallback"},
	"settings": {"min_confidence_threshold": 0.6, "enable_fallback": true, "log_decisions": true}
}`

func writeRules(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "router-rules.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func newTestEngine(t *testing.T, doc string) *Engine {
	t.Helper()
	return NewEngine(features.NewExtractor(nil, nil), EngineOptions{
		RulesPath:   writeRules(t, doc),
		AuditLogDir: t.TempDir(),
	})
}

func TestDecideEntityExtraction(t *testing.T) {
	e := newTestEngine(t, testRulesDoc)

	d := e.Decide(context.Background(), "Identifie Jean Dupont, Marie Martin et Pierre Durand dans ce texte.", nil, false)

	assert.Equal(t, DecisionNER, d.Decision)
	assert.True(t, d.Bypass)
	assert.Equal(t, "entity-extraction", d.RuleID)
	assert.InDelta(t, 0.9, d.Confidence, 1e-9)
	assert.Equal(t, "1.1.0", d.RouterVersion)
	assert.Greater(t, d.TokensSavedEstimate, 0)
	assert.Len(t, d.FeaturesHash, features.FingerprintLength)
}

func TestDecideHarassment(t *testing.T) {
	e := newTestEngine(t, testRulesDoc)

	d := e.Decide(context.Background(), "Tu es stupide et je vais te faire du mal, espèce d'idiot.", nil, false)

	assert.Equal(t, DecisionHarassment, d.Decision)
	assert.True(t, d.Bypass)
	assert.Equal(t, "harassment-lexical", d.RuleID)
	assert.InDelta(t, 0.95, d.Confidence, 1e-9)
}

func TestDecideForensicTimeline(t *testing.T) {
	e := newTestEngine(t, testRulesDoc)

	d := e.Decide(context.Background(), "Analyse la timeline: 14h00 premiers messages, 14h30 pic d'activité juste avant la fin", nil, false)

	assert.Equal(t, DecisionForensic, d.Decision)
	assert.True(t, d.Bypass)
	assert.Equal(t, "forensic-timeline", d.RuleID)
}

func TestDecideFallback(t *testing.T) {
	e := newTestEngine(t, testRulesDoc)

	d := e.Decide(context.Background(), "Bonjour, comment allez-vous aujourd'hui?", nil, false)

	assert.Equal(t, DecisionLLM, d.Decision)
	assert.False(t, d.Bypass)
	assert.Empty(t, d.RuleID)
	assert.InDelta(t, 0.5, d.Confidence, 1e-9)
	assert.Zero(t, d.TokensSavedEstimate)
	assert.Equal(t, "default fallback", d.Reason)
}

func TestDecideBelowThresholdMatchContinues(t *testing.T) {
	doc := `{
		"version": "1.0.0",
		"rules": [
			{"id": "weak", "if": {}, "decision": "ner", "confidence": 0.4, "reason": "weak"},
			{"id": "strong", "if": {}, "decision": "nlp", "confidence": 0.9, "reason": "strong"}
		],
		"fallback": {"decision": "llm", "confidence": 0.5, "reason": "default fallback"},
		"settings": {"min_confidence_threshold": 0.6, "enable_fallback": true, "log_decisions": false}
	}`
	e := newTestEngine(t, doc)

	d := e.Decide(context.Background(), "n'importe quel texte", nil, false)

	assert.Equal(t, "strong", d.RuleID)
	assert.Equal(t, DecisionNLP, d.Decision)
}

func TestDecideMissingRulesFileUsesDefaults(t *testing.T) {
	e := NewEngine(features.NewExtractor(nil, nil), EngineOptions{
		RulesPath:   filepath.Join(t.TempDir(), "does-not-exist.json"),
		AuditLogDir: t.TempDir(),
	})

	d := e.Decide(context.Background(), "du texte quelconque", nil, false)

	assert.Equal(t, DecisionLLM, d.Decision)
	assert.False(t, d.Bypass)
	assert.Equal(t, "1.0.0", d.RouterVersion)
}

func TestSimulateMatchesDecide(t *testing.T) {
	e := newTestEngine(t, testRulesDoc)
	text := "Identifie Jean Dupont, Marie Martin et Pierre Durand dans ce texte."

	sim := e.Simulate(context.Background(), text, nil)
	real := e.Decide(context.Background(), text, nil, false)

	assert.Equal(t, real.Decision, sim.Decision)
	assert.Equal(t, real.Confidence, sim.Confidence)
	assert.Equal(t, real.RuleID, sim.RuleID)
	assert.Equal(t, real.FeaturesHash, sim.FeaturesHash)
}

func TestGetStats(t *testing.T) {
	e := newTestEngine(t, testRulesDoc)
	ctx := context.Background()

	e.Decide(ctx, "Identifie Jean Dupont, Marie Martin et Pierre Durand dans ce texte.", nil, false)
	e.Decide(ctx, "Bonjour, comment allez-vous aujourd'hui?", nil, false)

	stats := e.GetStats()
	assert.Equal(t, 2, stats.TotalDecisions)
	assert.InDelta(t, 0.5, stats.BypassRate, 1e-9)
	assert.InDelta(t, 0.7, stats.AvgConfidence, 1e-9)
}

func TestShutdownFlushesAuditLog(t *testing.T) {
	auditDir := t.TempDir()
	e := NewEngine(features.NewExtractor(nil, nil), EngineOptions{
		RulesPath:   writeRules(t, testRulesDoc),
		AuditLogDir: auditDir,
	})

	e.Decide(context.Background(), "Tu es stupide et je vais te faire du mal, espèce d'idiot.", nil, false)
	e.Shutdown()

	entries, err := os.ReadDir(auditDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(auditDir, entries[0].Name()))
	require.NoError(t, err)

	var entry auditEntry
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, DecisionHarassment, entry.Decision)
	assert.True(t, entry.Bypass)
	assert.NotEmpty(t, entry.ID)
	assert.NotEmpty(t, entry.Timestamp)
	assert.False(t, entry.Simulate)
}

func TestAuditLogFlushesAtBatchSize(t *testing.T) {
	dir := t.TempDir()
	log := newAuditLog(dir)

	for i := 0; i < auditFlushBatchSize; i++ {
		log.append(auditEntry{Decision: DecisionLLM, Confidence: 0.5})
	}

	// Auto-flush emptied the buffer into today's file.
	assert.Equal(t, 0, log.stats().TotalDecisions)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
