package entities

import "time"

// PhaseDurations records how long each retrieval phase took, for search
// logging and aggregate latency percentiles (§4.10).
type PhaseDurations struct {
	Embedding  time.Duration
	ANN        time.Duration
	Spreading  time.Duration
	BM25       time.Duration
	Temporal   time.Duration
	Rerank     time.Duration
	Total      time.Duration
}

// SearchLog is the per-query record written after every search.
type SearchLog struct {
	ID          string // uuid, assigned by infrastructure/searchlog
	QueryHash   uint64
	Timestamp   time.Time
	Durations   PhaseDurations
	ResultIDs   []int64
	ResultCount int
	ZeroResult  bool
	Degraded    bool
	DegradationReasons []string
}

// NewSearchLog constructs a search log record.
func NewSearchLog(id string, queryHash uint64, at time.Time, durations PhaseDurations, resultIDs []int64, degraded bool, reasons []string) SearchLog {
	return SearchLog{
		ID:                 id,
		QueryHash:          queryHash,
		Timestamp:          at,
		Durations:          durations,
		ResultIDs:          resultIDs,
		ResultCount:        len(resultIDs),
		ZeroResult:         len(resultIDs) == 0,
		Degraded:           degraded,
		DegradationReasons: reasons,
	}
}
