package preintel

import "strings"

// langSampleTokens bounds how much of the input the detector looks at.
const langSampleTokens = 50

// Closed stopword vocabularies per language family. Function words are the
// strongest cheap signal for language identification on short prompts.
var stopwordFamilies = map[string][]string{
	"en": {"the", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with", "by", "is", "are", "this", "that"},
	"fr": {"le", "la", "les", "et", "ou", "mais", "dans", "sur", "à", "pour", "de", "avec", "par", "est", "ce", "un", "une", "des"},
	"es": {"el", "la", "los", "las", "y", "o", "pero", "en", "con", "por", "para", "es", "un", "una", "que"},
}

var stopwordIndex map[string]map[string]struct{}

func init() {
	stopwordIndex = make(map[string]map[string]struct{}, len(stopwordFamilies))
	for lang, words := range stopwordFamilies {
		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			set[w] = struct{}{}
		}
		stopwordIndex[lang] = set
	}
}

// DetectLanguage guesses the language of text by counting stopword hits per
// family over the first langSampleTokens tokens. Majority wins; ties or no
// signal at all yield "unknown".
func DetectLanguage(text string) string {
	words := strings.Fields(strings.ToLower(text))
	if len(words) > langSampleTokens {
		words = words[:langSampleTokens]
	}

	counts := make(map[string]int, len(stopwordIndex))
	for _, w := range words {
		w = strings.Trim(w, ".,;:!?\"'()")
		for lang, set := range stopwordIndex {
			if _, ok := set[w]; ok {
				counts[lang]++
			}
		}
	}

	best, bestCount, tied := "unknown", 0, false
	for lang, c := range counts {
		switch {
		case c > bestCount:
			best, bestCount, tied = lang, c, false
		case c == bestCount && c > 0:
			tied = true
		}
	}
	if bestCount == 0 || tied {
		return "unknown"
	}
	return best
}
