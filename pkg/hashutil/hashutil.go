// Package hashutil provides the deterministic hashing and token estimation
// primitives shared across the gateway routing core. All functions are pure
// and stable across processes.
package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// charsPerToken is the fixed character-to-token ratio used for cheap token
// estimation. Matches the ~4 chars/token heuristic of common tokenizers.
const charsPerToken = 4

// ContentHash returns the hex-encoded SHA-256 digest of text.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ShortHash returns the first n hex characters of the content hash of text.
// n is clamped to the full digest length.
func ShortHash(text string, n int) string {
	h := ContentHash(text)
	if n <= 0 || n > len(h) {
		return h
	}
	return h[:n]
}

// ApproxTokenCount estimates the token count of text using a fixed
// characters-per-token ratio. Whitespace-only input counts as zero.
func ApproxTokenCount(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	n := len(trimmed) / charsPerToken
	if n == 0 {
		n = 1
	}
	return n
}

// ContextFingerprint computes a stable fingerprint over a set of identifiers
// plus an optional profile tag. The ids are sorted before hashing so callers
// do not need to care about ordering.
func ContextFingerprint(ids []string, profile string) string {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)

	var b strings.Builder
	for _, id := range sorted {
		b.WriteString(id)
		b.WriteByte('\n')
	}
	if profile != "" {
		b.WriteString("profile:")
		b.WriteString(profile)
	}
	return ContentHash(b.String())
}
