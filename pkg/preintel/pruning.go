package preintel

import (
	"regexp"
	"strings"

	"github.com/SKDesing/AURA-OSINT-ADVANCED-ECOSYSTEM-sub001/pkg/hashutil"
)

// minPruningRatio is the floor below which pruning is considered not worth
// the lossy rewrite and the original text is kept.
const minPruningRatio = 0.05

// Filler terms stripped by lossy pruning. Case-insensitive, whole-word.
var fillerPatterns = compileFillerPatterns([]string{
	"basically", "actually", "literally", "you know", "like", "um", "uh",
})

func compileFillerPatterns(terms []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(terms))
	for _, term := range terms {
		patterns = append(patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(term)+`\b`))
	}
	return patterns
}

var whitespaceRE = regexp.MustCompile(`\s+`)

// pruneResult reports the outcome of a pruning attempt.
type pruneResult struct {
	text        string
	applied     bool
	tokensSaved int
}

// applyPruning strips filler terms and collapses whitespace. The pruned text
// is accepted only when the token-reduction ratio falls in
// (minPruningRatio, maxRatio]; otherwise the input is returned unchanged.
func applyPruning(text string, maxRatio float64) pruneResult {
	originalTokens := hashutil.ApproxTokenCount(text)
	if originalTokens == 0 {
		return pruneResult{text: text}
	}

	pruned := text
	for _, p := range fillerPatterns {
		pruned = p.ReplaceAllString(pruned, "")
	}
	pruned = strings.TrimSpace(whitespaceRE.ReplaceAllString(pruned, " "))

	finalTokens := hashutil.ApproxTokenCount(pruned)
	saved := originalTokens - finalTokens
	ratio := float64(saved) / float64(originalTokens)

	if ratio <= minPruningRatio || ratio > maxRatio {
		return pruneResult{text: text}
	}
	return pruneResult{text: pruned, applied: true, tokensSaved: saved}
}
