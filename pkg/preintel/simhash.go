package preintel

import (
	"math/bits"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// shingleSize is the word n-gram width used for simhash features. Trigrams
// keep short prompts distinguishable while still tolerating small edits.
const shingleSize = 3

// Simhash computes a 64-bit locality-sensitive hash of text over word
// trigram shingles. Texts that differ by a few words land within a small
// Hamming distance of each other.
func Simhash(text string) uint64 {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return 0
	}

	var votes [64]int
	addFeature := func(feature string) {
		h := xxhash.Sum64String(feature)
		for i := 0; i < 64; i++ {
			if h&(1<<uint(i)) != 0 {
				votes[i]++
			} else {
				votes[i]--
			}
		}
	}

	if len(words) < shingleSize {
		for _, w := range words {
			addFeature(w)
		}
	} else {
		for i := 0; i+shingleSize <= len(words); i++ {
			addFeature(strings.Join(words[i:i+shingleSize], " "))
		}
	}

	var hash uint64
	for i := 0; i < 64; i++ {
		if votes[i] > 0 {
			hash |= 1 << uint(i)
		}
	}
	return hash
}

// SimhashSimilarity maps the Hamming distance between two simhashes to a
// similarity score in [0,1], where 1 means identical.
func SimhashSimilarity(a, b uint64) float64 {
	return 1.0 - float64(bits.OnesCount64(a^b))/64.0
}

// dedupWindow holds the simhashes of recently processed content. It is the
// shared state backing near-duplicate detection and must tolerate concurrent
// pipeline runs.
type dedupWindow struct {
	mu     sync.Mutex
	hashes []uint64
	next   int
	filled bool
}

func newDedupWindow(size int) *dedupWindow {
	if size <= 0 {
		size = 128
	}
	return &dedupWindow{hashes: make([]uint64, size)}
}

// score returns the best similarity between h and the window contents.
// Returns 0 when the window is empty.
func (w *dedupWindow) score(h uint64) float64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := w.next
	if w.filled {
		n = len(w.hashes)
	}
	best := 0.0
	for i := 0; i < n; i++ {
		if s := SimhashSimilarity(h, w.hashes[i]); s > best {
			best = s
		}
	}
	return best
}

// remember records h as recently-seen content, evicting the oldest entry
// once the window is full.
func (w *dedupWindow) remember(h uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.hashes[w.next] = h
	w.next++
	if w.next == len(w.hashes) {
		w.next = 0
		w.filled = true
	}
}
