// Package searchlog implements §4.10: a per-query record of phase
// durations and outcome, plus the sliding-window percentile aggregation
// behind search_stats({window}).
package searchlog

import (
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/artemMprokhorov/hippograph-pro/domain/core/entities"
)

// defaultRetention is search_stats's default sliding window (§4.10).
const defaultRetention = 24 * time.Hour

// Logger accumulates SearchLog records in memory, evicting anything
// older than its retention window on each write. A single-process,
// single-user tool has no need to persist these records past the
// aggregation window itself (§1 scale: "retrieval over millions of
// nodes" is an explicit non-goal), so this never touches the store.
type Logger struct {
	mu        sync.Mutex
	records   []entities.SearchLog
	retention time.Duration
}

// NewLogger constructs a Logger. retention <= 0 uses the 24h default.
func NewLogger(retention time.Duration) *Logger {
	if retention <= 0 {
		retention = defaultRetention
	}
	return &Logger{retention: retention}
}

// Record writes one search_log entry (§3 SearchLog) and returns it.
func (l *Logger) Record(queryText string, at time.Time, durations entities.PhaseDurations, resultIDs []int64, degraded bool, reasons []string) entities.SearchLog {
	rec := entities.NewSearchLog(uuid.New().String(), HashQuery(queryText), at, durations, resultIDs, degraded, reasons)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	l.evictOlderThanLocked(at)
	return rec
}

func (l *Logger) evictOlderThanLocked(now time.Time) {
	cutoff := now.Add(-l.retention)
	kept := l.records[:0]
	for _, r := range l.records {
		if !r.Timestamp.Before(cutoff) {
			kept = append(kept, r)
		}
	}
	l.records = kept
}

// HashQuery implements Open Question Decision #3: an FNV-1a 64-bit hash
// over the lowercased, whitespace-collapsed query text. No third-party
// hash function in the retrieval pack fits this narrow, non-cryptographic
// need any better than the standard library's, so hash/fnv is used
// directly rather than pulling in a dependency for one function call.
func HashQuery(queryText string) uint64 {
	normalized := strings.Join(strings.Fields(strings.ToLower(queryText)), " ")
	h := fnv.New64a()
	_, _ = h.Write([]byte(normalized))
	return h.Sum64()
}

// PhasePercentiles is one percentile's reading across every phase.
type PhasePercentiles struct {
	Embedding time.Duration
	ANN       time.Duration
	Spreading time.Duration
	BM25      time.Duration
	Temporal  time.Duration
	Rerank    time.Duration
	Total     time.Duration
}

// Stats is search_stats({window})'s response shape (§6).
type Stats struct {
	Count          int
	ZeroResultRate float64
	DegradedRate   float64
	P50            PhasePercentiles
	P95            PhasePercentiles
	P99            PhasePercentiles
}

// Stats reports p50/p95/p99 latency and quality rates over the last
// window of recorded searches, relative to now.
func (l *Logger) Stats(window time.Duration, now time.Time) Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-window)
	var embedding, ann, spreading, bm25, temporal, rerank, total []time.Duration
	var zeroResults, degradedCount int
	n := 0

	for _, r := range l.records {
		if r.Timestamp.Before(cutoff) {
			continue
		}
		n++
		embedding = append(embedding, r.Durations.Embedding)
		ann = append(ann, r.Durations.ANN)
		spreading = append(spreading, r.Durations.Spreading)
		bm25 = append(bm25, r.Durations.BM25)
		temporal = append(temporal, r.Durations.Temporal)
		rerank = append(rerank, r.Durations.Rerank)
		total = append(total, r.Durations.Total)
		if r.ZeroResult {
			zeroResults++
		}
		if r.Degraded {
			degradedCount++
		}
	}
	if n == 0 {
		return Stats{}
	}

	at := func(p float64) PhasePercentiles {
		return PhasePercentiles{
			Embedding: percentile(embedding, p),
			ANN:       percentile(ann, p),
			Spreading: percentile(spreading, p),
			BM25:      percentile(bm25, p),
			Temporal:  percentile(temporal, p),
			Rerank:    percentile(rerank, p),
			Total:     percentile(total, p),
		}
	}

	return Stats{
		Count:          n,
		ZeroResultRate: float64(zeroResults) / float64(n),
		DegradedRate:   float64(degradedCount) / float64(n),
		P50:            at(0.50),
		P95:            at(0.95),
		P99:            at(0.99),
	}
}

// percentile returns the p-th percentile (0 < p <= 1) of durations using
// nearest-rank interpolation. The window this tool aggregates over is
// bounded (single-user, 24h default), so an exact sort beats a
// streaming/approximate quantile sketch.
func percentile(durations []time.Duration, p float64) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), durations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
