package features

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// maxEntityCount caps the entity counter so one pathological input cannot
// dominate rule thresholds.
const maxEntityCount = 20

// Entity heuristics: proper names, dates, times, acronyms, mentions,
// hashtags, plus contact and French business identifiers.
var entityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b[A-Z][a-z]+ [A-Z][a-z]+\b`),                                 // proper names
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`),                                   // dates DD/MM/YYYY
	regexp.MustCompile(`\b\d{1,2}h\d{2}\b`),                                           // times 14h30
	regexp.MustCompile(`\b[A-Z]{2,}\b`),                                               // acronyms
	regexp.MustCompile(`@\w+`),                                                        // mentions
	regexp.MustCompile(`#\w+`),                                                        // hashtags
	regexp.MustCompile(`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`),          // emails
	regexp.MustCompile(`\b(?:\+33|0)[1-9][0-9]{8}\b`),                                 // FR phone numbers
	regexp.MustCompile(`\b\d{14}\b`),                                                  // SIRET
	regexp.MustCompile(`\b\d{9}\b`),                                                   // SIREN
}

var timelinePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`),
	regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
	regexp.MustCompile(`\b\d{1,2}h\d{2}\b`),
	regexp.MustCompile(`(?i)\b(hier|aujourd'hui|demain|yesterday|today|tomorrow)\b`),
	regexp.MustCompile(`(?i)\b(avant|après|pendant|during|before|after)\b`),
	regexp.MustCompile(`(?i)\b(début|fin|milieu|start|end|middle)\b`),
}

var questionLeadRE = regexp.MustCompile(`(?i)^(qui|que|quoi|où|quand|comment|pourquoi|what|who|where|when|how|why)\b`)

// forensicTerms flag timeline/correlation analysis vocabulary.
var forensicTerms = []string{
	"timeline", "chronologie", "séquence", "burst", "pic", "anomalie",
	"corrélation", "pattern", "tendance", "évolution", "historique",
}

// policyTerms flag requests that address the platform's own data or ask for
// a structured analysis task.
var policyTerms = []string{
	"selon nos données", "analyse", "extract", "résume", "classify",
	"identifie", "détermine", "évalue", "compare", "liste",
}

// taskHints are matched against the first three words of the input.
var taskHints = []string{
	"extract", "analyse", "classify", "identifie", "résume", "compare",
	"liste", "détermine", "évalue", "trouve", "cherche",
}

// riskTerms combine threat, violence and insult vocabulary across the
// platform's supported languages.
var riskTerms = []string{
	"menace", "danger", "attaque", "violence", "harcèlement",
	"threat", "attack", "harassment",
	"kill", "murder", "hurt", "harm", "destroy",
	"je vais te", "tu vas mourir", "on va te",
	"stupid", "stupide", "idiot", "moron", "worthless",
	"connard", "salope", "merde", "injure", "haineux", "toxique",
	"kill yourself", "kys",
}

func countEntities(text string) int {
	count := 0
	for _, p := range entityPatterns {
		count += len(p.FindAllStringIndex(text, -1))
	}
	if count > maxEntityCount {
		count = maxEntityCount
	}
	return count
}

// countTerms counts how many of the given terms appear in text at least once.
func countTerms(text string, terms []string) int {
	lower := strings.ToLower(text)
	count := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			count++
		}
	}
	return count
}

func countTimelineMarkers(text string) int {
	count := 0
	for _, p := range timelinePatterns {
		count += len(p.FindAllStringIndex(text, -1))
	}
	return count
}

// lexicalRisk scores risk-term density: min(1.0, hits/words * 10).
func lexicalRisk(text string) float64 {
	hits := countTerms(text, riskTerms)
	words := len(strings.Fields(text))
	if words == 0 {
		words = 1
	}
	risk := float64(hits) / float64(words) * 10
	if risk > 1.0 {
		risk = 1.0
	}
	return risk
}

func riskBucket(risk float64) string {
	switch {
	case risk < 0.3:
		return RiskLow
	case risk < 0.7:
		return RiskMed
	default:
		return RiskHigh
	}
}

func lengthBucket(text string) string {
	switch n := utf8.RuneCountInString(text); {
	case n < 100:
		return BucketShort
	case n < 500:
		return BucketMedium
	default:
		return BucketLong
	}
}

func hasQuestion(text string) bool {
	return strings.Contains(text, "?") || questionLeadRE.MatchString(strings.TrimSpace(text))
}

// detectTaskHint returns the first task verb whose prefix matches one of the
// first three words, or "" when none matches.
func detectTaskHint(text string) string {
	words := strings.Fields(strings.ToLower(text))
	if len(words) > 3 {
		words = words[:3]
	}
	for _, hint := range taskHints {
		for _, w := range words {
			if strings.HasPrefix(w, hint) {
				return hint
			}
		}
	}
	return ""
}
