package decision

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SKDesing/AURA-OSINT-ADVANCED-ECOSYSTEM-sub001/pkg/features"
)

func TestIsBypass(t *testing.T) {
	assert.True(t, IsBypass(DecisionNER))
	assert.True(t, IsBypass(DecisionForensic))
	assert.True(t, IsBypass(DecisionNLP))
	assert.True(t, IsBypass(DecisionHarassment))
	assert.False(t, IsBypass(DecisionLLM))
	assert.False(t, IsBypass(DecisionRagLLM))
}

func mustCompile(t *testing.T, field, rawValue string) compiledCondition {
	t.Helper()
	cond, err := compileCondition(field, json.RawMessage(rawValue))
	require.NoError(t, err)
	return cond
}

func TestCompileConditionVariants(t *testing.T) {
	record := &features.FeatureRecord{
		RiskLexical:   0.5,
		EntCount:      3,
		LexicalBucket: "med",
		HasQuestion:   true,
	}

	tests := []struct {
		name  string
		field string
		raw   string
		want  bool
	}{
		{name: "gte met", field: "risk_lexical", raw: `">=0.5"`, want: true},
		{name: "gte not met", field: "risk_lexical", raw: `">=0.6"`, want: false},
		{name: "gt strict", field: "risk_lexical", raw: `">0.5"`, want: false},
		{name: "lte met", field: "risk_lexical", raw: `"<=0.5"`, want: true},
		{name: "lt not met", field: "risk_lexical", raw: `"<0.5"`, want: false},
		{name: "threshold with space", field: "ent_count", raw: `">= 2"`, want: true},
		{name: "string equality", field: "lexical_bucket", raw: `"med"`, want: true},
		{name: "string inequality", field: "lexical_bucket", raw: `"!high"`, want: true},
		{name: "string inequality not met", field: "lexical_bucket", raw: `"!med"`, want: false},
		{name: "bool equality", field: "has_question", raw: `true`, want: true},
		{name: "bool not met", field: "has_question", raw: `false`, want: false},
		{name: "number equality", field: "ent_count", raw: `3`, want: true},
		{name: "threshold on string field never matches", field: "lang", raw: `">=1"`, want: false},
		{name: "string value on numeric field never matches", field: "ent_count", raw: `"three"`, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond := mustCompile(t, tt.field, tt.raw)
			assert.Equal(t, tt.want, cond.evaluate(record))
		})
	}
}

func TestCompileConditionErrors(t *testing.T) {
	_, err := compileCondition("no_such_field", json.RawMessage(`">=1"`))
	assert.Error(t, err)

	_, err = compileCondition("risk_lexical", json.RawMessage(`">=abc"`))
	assert.Error(t, err)

	_, err = compileCondition("risk_lexical", json.RawMessage(`[1, 2]`))
	assert.Error(t, err)
}

func TestParseRouterConfig(t *testing.T) {
	doc := `{
		"version": "2.0.0",
		"rules_hash": "abc123",
		"rules": [
			{"id": "first", "if": {"risk_lexical": ">=0.5"}, "decision": "harassment", "confidence": 0.95, "reason": "high risk"},
			{"id": "second", "if": {"ent_count": ">=2", "risk_lexical": "<0.3"}, "decision": "ner", "confidence": 0.9, "reason": "entities"}
		],
		"fallback": {"decision": "llm", "confidence": 0.5, "reason": "default fallback"},
		"settings": {"min_confidence_threshold": 0.6, "enable_fallback": true, "log_decisions": true}
	}`

	cfg, err := ParseRouterConfig([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, "2.0.0", cfg.Version)
	assert.Equal(t, "abc123", cfg.RulesHash)
	require.Len(t, cfg.Rules, 2)
	assert.Equal(t, "first", cfg.Rules[0].ID)
	assert.Equal(t, "second", cfg.Rules[1].ID)
	assert.Len(t, cfg.Rules[1].Conditions, 2)
	assert.Equal(t, DecisionLLM, cfg.Fallback.Decision)
	assert.InDelta(t, 0.6, cfg.Settings.MinConfidenceThreshold, 1e-9)
}

func TestParseRouterConfigDropsUncompilableRules(t *testing.T) {
	doc := `{
		"version": "1.0.0",
		"rules": [
			{"id": "bad", "if": {"not_a_field": ">=1"}, "decision": "ner", "confidence": 0.9},
			{"id": "good", "if": {"ent_count": ">=2"}, "decision": "ner", "confidence": 0.9}
		],
		"fallback": {"decision": "llm", "confidence": 0.5},
		"settings": {"min_confidence_threshold": 0.6, "enable_fallback": true}
	}`

	cfg, err := ParseRouterConfig([]byte(doc))
	require.NoError(t, err)
	require.Len(t, cfg.Rules, 1)
	assert.Equal(t, "good", cfg.Rules[0].ID)
}

func TestParseRouterConfigMalformed(t *testing.T) {
	_, err := ParseRouterConfig([]byte(`{"rules": "nope"`))
	assert.Error(t, err)
}

func TestRuleMatchesIsConjunction(t *testing.T) {
	rule := Rule{
		ID: "conj",
		Conditions: []compiledCondition{
			mustCompile(t, "ent_count", `">=2"`),
			mustCompile(t, "risk_lexical", `"<0.3"`),
		},
	}

	assert.True(t, rule.matches(&features.FeatureRecord{EntCount: 2, RiskLexical: 0.1}))
	assert.False(t, rule.matches(&features.FeatureRecord{EntCount: 2, RiskLexical: 0.5}))
	assert.False(t, rule.matches(&features.FeatureRecord{EntCount: 1, RiskLexical: 0.1}))
}

func TestRuleWithNoConditionsMatchesEverything(t *testing.T) {
	rule := Rule{ID: "always"}
	assert.True(t, rule.matches(&features.FeatureRecord{}))
}

func TestDefaultRouterConfig(t *testing.T) {
	cfg := DefaultRouterConfig()
	assert.Empty(t, cfg.Rules)
	assert.Equal(t, DecisionLLM, cfg.Fallback.Decision)
	assert.True(t, cfg.Settings.EnableFallback)
	assert.False(t, IsBypass(cfg.Fallback.Decision))
}
