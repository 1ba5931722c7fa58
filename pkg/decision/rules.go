package decision

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/SKDesing/AURA-OSINT-ADVANCED-ECOSYSTEM-sub001/pkg/features"
	"github.com/SKDesing/AURA-OSINT-ADVANCED-ECOSYSTEM-sub001/pkg/observability/logging"
)

// Routing decision labels. Everything except llm and rag+llm bypasses the
// general model path.
const (
	DecisionNER        = "ner"
	DecisionForensic   = "forensic"
	DecisionNLP        = "nlp"
	DecisionHarassment = "harassment"
	DecisionRagLLM     = "rag+llm"
	DecisionLLM        = "llm"
)

// IsBypass reports whether a decision label skips the general model path.
func IsBypass(label string) bool {
	return label != DecisionLLM && label != DecisionRagLLM
}

// fieldKind classifies the value type of a feature field.
type fieldKind int

const (
	fieldString fieldKind = iota
	fieldNumber
	fieldBool
)

// fieldValue is one feature field's typed value at evaluation time.
type fieldValue struct {
	kind fieldKind
	num  float64
	str  string
	b    bool
}

// featureFields is the closed enumeration of rule-addressable feature
// fields. Conditions referencing anything else are rejected at load time.
var featureFields = map[string]func(*features.FeatureRecord) fieldValue{
	"lexical_bucket":          func(r *features.FeatureRecord) fieldValue { return fieldValue{kind: fieldString, str: r.LexicalBucket} },
	"lang":                    func(r *features.FeatureRecord) fieldValue { return fieldValue{kind: fieldString, str: r.Lang} },
	"ent_count":               func(r *features.FeatureRecord) fieldValue { return fieldValue{kind: fieldNumber, num: float64(r.EntCount)} },
	"forensic_terms":          func(r *features.FeatureRecord) fieldValue { return fieldValue{kind: fieldNumber, num: float64(r.ForensicTerms)} },
	"timeline_markers":        func(r *features.FeatureRecord) fieldValue { return fieldValue{kind: fieldNumber, num: float64(r.TimelineMarkers)} },
	"length_bucket":           func(r *features.FeatureRecord) fieldValue { return fieldValue{kind: fieldString, str: r.LengthBucket} },
	"has_question":            func(r *features.FeatureRecord) fieldValue { return fieldValue{kind: fieldBool, b: r.HasQuestion} },
	"risk_lexical":            func(r *features.FeatureRecord) fieldValue { return fieldValue{kind: fieldNumber, num: r.RiskLexical} },
	"contains_policy_request": func(r *features.FeatureRecord) fieldValue { return fieldValue{kind: fieldBool, b: r.ContainsPolicyRequest} },
	"task_hint":               func(r *features.FeatureRecord) fieldValue { return fieldValue{kind: fieldString, str: r.TaskHint} },
	"sim_bypass":              func(r *features.FeatureRecord) fieldValue { return fieldValue{kind: fieldNumber, num: r.SimBypass} },
	"sim_forensic":            func(r *features.FeatureRecord) fieldValue { return fieldValue{kind: fieldNumber, num: r.SimForensic} },
	"sim_harassment":          func(r *features.FeatureRecord) fieldValue { return fieldValue{kind: fieldNumber, num: r.SimHarassment} },
	"sim_rag_llm":             func(r *features.FeatureRecord) fieldValue { return fieldValue{kind: fieldNumber, num: r.SimRagLLM} },
	"sim_escalate":            func(r *features.FeatureRecord) fieldValue { return fieldValue{kind: fieldNumber, num: r.SimEscalate} },
	"sim_top1":                func(r *features.FeatureRecord) fieldValue { return fieldValue{kind: fieldNumber, num: r.SimTop1} },
	"sim_top1_class":          func(r *features.FeatureRecord) fieldValue { return fieldValue{kind: fieldString, str: r.SimTop1Class} },
	"sim_top2":                func(r *features.FeatureRecord) fieldValue { return fieldValue{kind: fieldNumber, num: r.SimTop2} },
	"sim_margin_top2":         func(r *features.FeatureRecord) fieldValue { return fieldValue{kind: fieldNumber, num: r.SimMarginTop2} },
}

// conditionKind is the typed variant a raw rule condition compiles to.
type conditionKind int

const (
	condThreshold conditionKind = iota
	condEqualsString
	condNotEqualsString
	condEqualsBool
	condEqualsNumber
)

type thresholdOp int

const (
	opGTE thresholdOp = iota
	opLTE
	opGT
	opLT
)

// compiledCondition is a rule condition parsed once at configuration load.
type compiledCondition struct {
	field string
	kind  conditionKind
	op    thresholdOp
	num   float64
	str   string
	b     bool
}

// evaluate applies the condition to a feature record. Type mismatches are
// non-matches, never errors: routing must always produce some decision.
func (c *compiledCondition) evaluate(record *features.FeatureRecord) bool {
	accessor, ok := featureFields[c.field]
	if !ok {
		// Unknown fields are filtered at load time; a miss here means the
		// enumeration changed underneath a live config. Fail the condition.
		return false
	}
	v := accessor(record)

	switch c.kind {
	case condThreshold:
		if v.kind != fieldNumber {
			return false
		}
		switch c.op {
		case opGTE:
			return v.num >= c.num
		case opLTE:
			return v.num <= c.num
		case opGT:
			return v.num > c.num
		default:
			return v.num < c.num
		}
	case condEqualsString:
		return v.kind == fieldString && v.str == c.str
	case condNotEqualsString:
		return v.kind == fieldString && v.str != c.str
	case condEqualsBool:
		return v.kind == fieldBool && v.b == c.b
	case condEqualsNumber:
		return v.kind == fieldNumber && v.num == c.num
	default:
		return false
	}
}

// compileCondition parses one raw condition value into its typed variant.
func compileCondition(field string, raw json.RawMessage) (compiledCondition, error) {
	if _, ok := featureFields[field]; !ok {
		return compiledCondition{}, fmt.Errorf("unknown feature field %q", field)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		for prefix, op := range map[string]thresholdOp{">=": opGTE, "<=": opLTE} {
			if strings.HasPrefix(s, prefix) {
				return compileThreshold(field, op, s[2:])
			}
		}
		if strings.HasPrefix(s, ">") {
			return compileThreshold(field, opGT, s[1:])
		}
		if strings.HasPrefix(s, "<") {
			return compileThreshold(field, opLT, s[1:])
		}
		if strings.HasPrefix(s, "!") {
			return compiledCondition{field: field, kind: condNotEqualsString, str: s[1:]}, nil
		}
		return compiledCondition{field: field, kind: condEqualsString, str: s}, nil
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return compiledCondition{field: field, kind: condEqualsBool, b: b}, nil
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return compiledCondition{field: field, kind: condEqualsNumber, num: n}, nil
	}

	return compiledCondition{}, fmt.Errorf("unsupported condition value %s for field %q", string(raw), field)
}

func compileThreshold(field string, op thresholdOp, rest string) (compiledCondition, error) {
	n, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
	if err != nil {
		return compiledCondition{}, fmt.Errorf("invalid threshold %q for field %q: %w", rest, field, err)
	}
	return compiledCondition{field: field, kind: condThreshold, op: op, num: n}, nil
}

// Rule is one compiled routing rule: an ordered conjunction of typed
// conditions plus the decision it produces.
type Rule struct {
	ID         string
	Conditions []compiledCondition
	Decision   string
	Confidence float64
	Reason     string
}

// matches reports whether every condition passes for the record.
func (r *Rule) matches(record *features.FeatureRecord) bool {
	for i := range r.Conditions {
		if !r.Conditions[i].evaluate(record) {
			return false
		}
	}
	return true
}

// Fallback is the decision returned when no rule wins.
type Fallback struct {
	Decision   string  `json:"decision"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Settings tune rule evaluation and decision logging.
type Settings struct {
	MinConfidenceThreshold float64 `json:"min_confidence_threshold"`
	EnableFallback         bool    `json:"enable_fallback"`
	LogDecisions           bool    `json:"log_decisions"`
}

// RouterConfig is the compiled routing configuration.
type RouterConfig struct {
	Version   string
	RulesHash string
	Rules     []Rule
	Fallback  Fallback
	Settings  Settings
}

// rawRule and rawRouterConfig mirror the JSON rule document on disk.
type rawRule struct {
	ID         string                     `json:"id"`
	If         map[string]json.RawMessage `json:"if"`
	Decision   string                     `json:"decision"`
	Confidence float64                    `json:"confidence"`
	Reason     string                     `json:"reason"`
}

type rawRouterConfig struct {
	Version   string    `json:"version"`
	RulesHash string    `json:"rules_hash"`
	Rules     []rawRule `json:"rules"`
	Fallback  Fallback  `json:"fallback"`
	Settings  Settings  `json:"settings"`
}

// LoadRouterConfig reads and compiles the JSON rule document. Rules whose
// conditions cannot be compiled are dropped with a warning; the remaining
// rules stay live.
func LoadRouterConfig(path string) (*RouterConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read router config: %w", err)
	}
	return ParseRouterConfig(data)
}

// ParseRouterConfig compiles a JSON rule document from memory.
func ParseRouterConfig(data []byte) (*RouterConfig, error) {
	var raw rawRouterConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse router config: %w", err)
	}

	cfg := &RouterConfig{
		Version:   raw.Version,
		RulesHash: raw.RulesHash,
		Fallback:  raw.Fallback,
		Settings:  raw.Settings,
	}

	for _, rr := range raw.Rules {
		rule := Rule{
			ID:         rr.ID,
			Decision:   rr.Decision,
			Confidence: rr.Confidence,
			Reason:     rr.Reason,
		}

		// Sort condition fields so compiled rules are deterministic; the
		// conjunction itself is order-insensitive.
		fields := make([]string, 0, len(rr.If))
		for f := range rr.If {
			fields = append(fields, f)
		}
		sort.Strings(fields)

		ok := true
		for _, f := range fields {
			cond, err := compileCondition(f, rr.If[f])
			if err != nil {
				logging.Warnf("Dropping rule %q: %v", rr.ID, err)
				ok = false
				break
			}
			rule.Conditions = append(rule.Conditions, cond)
		}
		if ok {
			cfg.Rules = append(cfg.Rules, rule)
		}
	}

	return cfg, nil
}

// DefaultRouterConfig is the built-in minimal configuration used when the
// rule document cannot be loaded: no rules, general-model fallback.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		Version:   "1.0.0",
		RulesHash: "default",
		Fallback: Fallback{
			Decision:   DecisionLLM,
			Confidence: 0.50,
			Reason:     "default fallback",
		},
		Settings: Settings{
			MinConfidenceThreshold: 0.60,
			EnableFallback:         true,
			LogDecisions:           true,
		},
	}
}
