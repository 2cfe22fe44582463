package services

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/artemMprokhorov/hippograph-pro/domain/config"
)

// TemporalDirection tags which end of a detected time range a query is
// asking about, used as an ordering tie-break (§4.5 decompose_query).
type TemporalDirection string

const (
	DirectionNone    TemporalDirection = ""
	DirectionEarliest TemporalDirection = "earliest"
	DirectionLatest  TemporalDirection = "latest"
)

var temporalSignalPattern = regexp.MustCompile(`(?i)\b(before|after|first|last|earliest|latest|earlier|later|started|finished|began|ended)\b`)

var earliestWords = map[string]bool{
	"before": true, "first": true, "earliest": true, "earlier": true, "started": true, "began": true,
}
var latestWords = map[string]bool{
	"after": true, "last": true, "latest": true, "later": true, "finished": true, "ended": true,
}

// DecomposeQuery detects temporal phrases in a query, strips them from
// the text used for embedding and BM25, and returns a direction tag
// (§4.5). It never attempts to parse explicit dates itself — that is
// the external DateResolver's job — it only detects the presence of a
// temporal signal and a coarse earliest/latest intent.
func DecomposeQuery(text string) (stripped string, direction TemporalDirection, hasSignal bool) {
	matches := temporalSignalPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return text, DirectionNone, false
	}

	for _, m := range matches {
		lower := strings.ToLower(m)
		if earliestWords[lower] {
			direction = DirectionEarliest
			break
		}
		if latestWords[lower] {
			direction = DirectionLatest
			break
		}
	}

	stripped = temporalSignalPattern.ReplaceAllString(text, "")
	stripped = strings.Join(strings.Fields(stripped), " ")
	return stripped, direction, true
}

// RecencyFactor implements §4.5's recency_factor together with Open
// Question Decision #1 (SPEC_FULL.md §13): anchor categories are fully
// exempt (recency=1.0); for all other categories the half-life exponent
// is divided by the category multiplier, so a multiplier below 1 slows
// decay and a multiplier above 1 speeds it.
func RecencyFactor(category string, createdAt, now time.Time, cfg *config.DomainConfig) float64 {
	if cfg.IsAnchorCategory(category) {
		return 1.0
	}
	daysElapsed := now.Sub(createdAt).Hours() / 24
	if daysElapsed <= 0 {
		return 1.0
	}
	multiplier := cfg.CategoryMultiplier(category)
	if multiplier <= 0 {
		multiplier = 1.0
	}
	effectiveHalfLife := cfg.Temporal.HalfLifeDays / multiplier
	return math.Pow(0.5, daysElapsed/effectiveHalfLife)
}

// EventRange is a bi-temporal window; either end may be nil, meaning
// unknown (§9: missing ends are never guessed).
type EventRange struct {
	Start *time.Time
	End   *time.Time
}

// IsEmpty reports whether no event-time information is present at all.
func (r EventRange) IsEmpty() bool { return r.Start == nil && r.End == nil }

// TemporalScore computes the overlap of a node's event-time range with
// the query's detected range, scaled into [0,1] (§4.5 temporal_score).
// Per §9, if either range is missing entirely the score is zero rather
// than guessed.
func TemporalScore(queryRange, nodeRange EventRange) float64 {
	if queryRange.IsEmpty() || nodeRange.IsEmpty() {
		return 0
	}

	qStart, qEnd := boundedRange(queryRange)
	nStart, nEnd := boundedRange(nodeRange)

	overlapStart := maxTime(qStart, nStart)
	overlapEnd := minTime(qEnd, nEnd)
	if overlapEnd.Before(overlapStart) {
		return 0
	}

	overlap := overlapEnd.Sub(overlapStart)
	union := maxTime(qEnd, nEnd).Sub(minTime(qStart, nStart))
	if union <= 0 {
		return 1
	}
	return float64(overlap) / float64(union)
}

// boundedRange fills a missing end with the present end, treating a
// single timestamp as a zero-width range rather than extending to
// infinity (§9: never guess beyond what was given).
func boundedRange(r EventRange) (time.Time, time.Time) {
	switch {
	case r.Start != nil && r.End != nil:
		return *r.Start, *r.End
	case r.Start != nil:
		return *r.Start, *r.Start
	default:
		return *r.End, *r.End
	}
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

// EffectiveBlendWeights redistributes δ into α when the query carries no
// temporal signal, per §4.6 step 7 ("δ auto-enabled only when
// has_temporal_signal, else δ is redistributed to α").
func EffectiveBlendWeights(weights config.BlendWeights, hasTemporalSignal bool) config.BlendWeights {
	if hasTemporalSignal {
		return weights
	}
	return config.BlendWeights{
		Alpha: weights.Alpha + weights.Delta,
		Beta:  weights.Beta,
		Gamma: weights.Gamma,
		Delta: 0,
	}
}
