// Package features derives the fixed-shape feature record the decision
// engine routes on: lexical counts and buckets plus semantic similarity
// against a small set of class prototypes.
package features

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/SKDesing/AURA-OSINT-ADVANCED-ECOSYSTEM-sub001/pkg/hashutil"
)

// Routing prototype classes. One centroid is maintained per class.
const (
	ClassBypass     = "bypass"
	ClassForensic   = "forensic"
	ClassHarassment = "harassment"
	ClassRagLLM     = "rag_llm"
	ClassEscalate   = "escalate"

	// ClassUnknown is the sentinel top-1 class when semantic features are
	// unavailable.
	ClassUnknown = "unknown"
)

// Length and risk bucket labels.
const (
	BucketShort  = "short"
	BucketMedium = "medium"
	BucketLong   = "long"

	RiskLow  = "low"
	RiskMed  = "med"
	RiskHigh = "high"
)

// FingerprintLength is the hex length of a feature fingerprint.
const FingerprintLength = 16

// FeatureRecord is the complete, fixed-shape feature set extracted from one
// input. It has no dynamically-named fields, so hashing and rule matching
// are total functions over it.
type FeatureRecord struct {
	LexicalBucket         string  `json:"lexical_bucket"`
	Lang                  string  `json:"lang"`
	EntCount              int     `json:"ent_count"`
	ForensicTerms         int     `json:"forensic_terms"`
	TimelineMarkers       int     `json:"timeline_markers"`
	LengthBucket          string  `json:"length_bucket"`
	HasQuestion           bool    `json:"has_question"`
	RiskLexical           float64 `json:"risk_lexical"`
	ContainsPolicyRequest bool    `json:"contains_policy_request"`
	TaskHint              string  `json:"task_hint"`
	SimBypass             float64 `json:"sim_bypass"`
	SimForensic           float64 `json:"sim_forensic"`
	SimHarassment         float64 `json:"sim_harassment"`
	SimRagLLM             float64 `json:"sim_rag_llm"`
	SimEscalate           float64 `json:"sim_escalate"`
	SimTop1               float64 `json:"sim_top1"`
	SimTop1Class          string  `json:"sim_top1_class"`
	SimTop2               float64 `json:"sim_top2"`
	SimMarginTop2         float64 `json:"sim_margin_top2"`
}

// Fingerprint returns a deterministic 16-hex-char hash of the record,
// computed over a sorted-key canonical JSON encoding. Any change to any
// field changes the fingerprint.
func (r *FeatureRecord) Fingerprint() string {
	raw, err := json.Marshal(r)
	if err != nil {
		// A flat struct of scalars cannot fail to marshal.
		return hashutil.ShortHash("", FingerprintLength)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return hashutil.ShortHash(string(raw), FingerprintLength)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(k)
		b.WriteString(`":`)
		b.Write(fields[k])
	}
	b.WriteByte('}')

	return hashutil.ShortHash(b.String(), FingerprintLength)
}
