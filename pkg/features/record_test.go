package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleRecord() *FeatureRecord {
	return &FeatureRecord{
		LexicalBucket:         RiskLow,
		Lang:                  "fr",
		EntCount:              2,
		ForensicTerms:         1,
		TimelineMarkers:       0,
		LengthBucket:          BucketShort,
		HasQuestion:           true,
		RiskLexical:           0.1,
		ContainsPolicyRequest: true,
		TaskHint:              "analyse",
		SimBypass:             0.91,
		SimForensic:           0.52,
		SimHarassment:         0.12,
		SimRagLLM:             0.33,
		SimEscalate:           0.08,
		SimTop1:               0.91,
		SimTop1Class:          ClassBypass,
		SimTop2:               0.52,
		SimMarginTop2:         0.39,
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	a := sampleRecord()
	b := sampleRecord()

	fp := a.Fingerprint()
	assert.Len(t, fp, FingerprintLength)
	assert.Equal(t, fp, b.Fingerprint())
	assert.Equal(t, fp, a.Fingerprint())
}

func TestFingerprintSensitiveToEveryFieldKind(t *testing.T) {
	base := sampleRecord().Fingerprint()

	numeric := sampleRecord()
	numeric.EntCount = 3
	assert.NotEqual(t, base, numeric.Fingerprint())

	str := sampleRecord()
	str.Lang = "en"
	assert.NotEqual(t, base, str.Fingerprint())

	boolean := sampleRecord()
	boolean.HasQuestion = false
	assert.NotEqual(t, base, boolean.Fingerprint())

	float := sampleRecord()
	float.SimTop1 = 0.92
	assert.NotEqual(t, base, float.Fingerprint())
}

func TestFingerprintZeroRecord(t *testing.T) {
	var r FeatureRecord
	assert.Len(t, r.Fingerprint(), FingerprintLength)
}
