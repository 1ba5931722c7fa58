package decision

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SKDesing/AURA-OSINT-ADVANCED-ECOSYSTEM-sub001/pkg/observability/logging"
)

// auditFlushBatchSize triggers a flush once this many entries are buffered.
const auditFlushBatchSize = 100

// auditEntry is one line of the append-only decision log.
type auditEntry struct {
	ID           string  `json:"id"`
	Timestamp    string  `json:"timestamp"`
	Decision     string  `json:"decision"`
	Confidence   float64 `json:"confidence"`
	Bypass       bool    `json:"bypass"`
	Reason       string  `json:"reason"`
	RuleID       string  `json:"rule_id,omitempty"`
	FeaturesHash string  `json:"features_hash"`
	Simulate     bool    `json:"simulate"`
}

// auditLog buffers decision entries and flushes them to date-partitioned
// JSONL files. Appends from concurrent decisions are serialized by the
// mutex; a failed flush keeps the buffered entries for the next attempt.
type auditLog struct {
	mu      sync.Mutex
	dir     string
	entries []auditEntry
}

func newAuditLog(dir string) *auditLog {
	if dir == "" {
		dir = filepath.Join("logs", "router")
	}
	return &auditLog{dir: dir}
}

// append buffers an entry, flushing when the batch size is reached.
func (a *auditLog) append(entry auditEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()

	entry.ID = uuid.NewString()
	a.entries = append(a.entries, entry)
	if len(a.entries) >= auditFlushBatchSize {
		a.flushLocked()
	}
}

// flush writes all buffered entries out immediately.
func (a *auditLog) flush() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.flushLocked()
}

// flushLocked writes the buffer to today's log file. Caller holds the lock.
// On failure the buffer is left intact so entries are retried, not dropped.
func (a *auditLog) flushLocked() {
	if len(a.entries) == 0 {
		return
	}

	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		logging.Errorf("Failed to create audit log directory %s: %v", a.dir, err)
		return
	}

	day := time.Now().UTC().Format("2006-01-02")
	path := filepath.Join(a.dir, fmt.Sprintf("router-decisions-%s.jsonl", day))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		logging.Errorf("Failed to open audit log %s: %v", path, err)
		return
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for i, entry := range a.entries {
		if err := enc.Encode(entry); err != nil {
			// Keep the unwritten tail for the next flush.
			a.entries = a.entries[i:]
			logging.Errorf("Failed to write audit entry: %v", err)
			return
		}
	}
	a.entries = a.entries[:0]
}

// stats aggregates over the in-memory buffer (not the historical log).
func (a *auditLog) stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.entries) == 0 {
		return Stats{}
	}

	bypasses := 0
	totalConfidence := 0.0
	for _, e := range a.entries {
		if e.Bypass {
			bypasses++
		}
		totalConfidence += e.Confidence
	}
	n := float64(len(a.entries))
	return Stats{
		TotalDecisions: len(a.entries),
		BypassRate:     float64(bypasses) / n,
		AvgConfidence:  totalConfidence / n,
	}
}

// Stats summarizes buffered decisions.
type Stats struct {
	TotalDecisions int     `json:"totalDecisions"`
	BypassRate     float64 `json:"bypassRate"`
	AvgConfidence  float64 `json:"avgConfidence"`
}
