// Package config holds the domain-level tunables that entities and
// domain services consult directly (as opposed to pkg/config, which
// loads process-level configuration and produces a DomainConfig).
package config

import "time"

// ImportanceMultipliers maps an importance level to its activation multiplier.
var ImportanceMultipliers = map[string]float64{
	"critical": 2.0,
	"normal":   1.0,
	"low":      0.5,
}

// BlendWeights are the α/β/γ/δ weights of the retriever's score blend.
type BlendWeights struct {
	Alpha float64 // semantic similarity
	Beta  float64 // spreading activation
	Gamma float64 // BM25
	Delta float64 // temporal
}

// SpreadParams configure spreading activation (§4.6.2).
type SpreadParams struct {
	Iterations int
	Decay      float64
}

// BM25Params configure the BM25 index's scoring formula.
type BM25Params struct {
	K1 float64
	B  float64
}

// TemporalParams configure recency decay and the anchor carve-out.
type TemporalParams struct {
	HalfLifeDays     float64
	AnchorCategories []string
	// CategoryMultipliers slows or speeds decay per category; see
	// domain/services/temporal.go for the composition rule.
	CategoryMultipliers map[string]float64
}

// DuplicateParams configure near-duplicate detection at ingest.
type DuplicateParams struct {
	BlockThreshold float64
	WarnThreshold  float64
}

// SemanticEdgeParams configure the write-path's automatic semantic
// edge creation (§4: "create semantic + entity edges"), sized around
// the same ANN top-5 neighborhood the duplicate check already
// computes at ingest.
type SemanticEdgeParams struct {
	TopK      int
	Threshold float64
}

// RerankParams configure the optional cross-encoder rerank stage.
type RerankParams struct {
	Enabled bool
	Weight  float64
	TopN    int
}

// SleepParams configure the maintenance scheduler's triggers.
type SleepParams struct {
	LightEveryNewNodes int
	DeepInterval       time.Duration
}

// TimeoutParams configure the retriever's per-phase soft timeouts
// (§5): exceeding an optional phase's timeout degrades gracefully,
// exceeding Total returns RetrieverError::Timeout.
type TimeoutParams struct {
	Embed  time.Duration
	ANN    time.Duration
	BM25   time.Duration
	Rerank time.Duration
	Total  time.Duration
}

// DomainConfig is the full set of tunables a Node, Edge, or domain
// service may consult. It is threaded explicitly rather than read from
// a package-level global, so tests can construct variants freely.
type DomainConfig struct {
	Blend       BlendWeights
	Spread      SpreadParams
	BM25        BM25Params
	Temporal    TemporalParams
	Duplicate   DuplicateParams
	SemanticEdge SemanticEdgeParams
	Rerank      RerankParams
	HubThreshold int
	Sleep       SleepParams
	Timeouts    TimeoutParams

	EmbeddingDim int

	// MaxVersionsPerNode bounds NodeVersion history (invariant 6).
	MaxVersionsPerNode int

	// ReExtractEntitiesOnUpdate resolves Open Question #2: whether
	// update() re-runs entity extraction when content changes.
	ReExtractEntitiesOnUpdate bool
}

// DefaultDomainConfig returns the defaults named throughout spec §4 and §6.
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		Blend: BlendWeights{Alpha: 0.6, Beta: 0.10, Gamma: 0.15, Delta: 0.15},
		Spread: SpreadParams{
			Iterations: 3,
			Decay:      0.7,
		},
		BM25: BM25Params{K1: 1.5, B: 0.75},
		Temporal: TemporalParams{
			HalfLifeDays:     30,
			AnchorCategories: []string{"self-reflection", "milestone", "security", "relational-context"},
			CategoryMultipliers: map[string]float64{
				"self-reflection":     0.1,
				"milestone":           0.1,
				"security":            0.1,
				"relational-context":  0.1,
			},
		},
		Duplicate: DuplicateParams{BlockThreshold: 0.95, WarnThreshold: 0.90},
		SemanticEdge: SemanticEdgeParams{TopK: 5, Threshold: 0.5},
		Rerank:    RerankParams{Enabled: true, Weight: 0.3, TopN: 20},
		HubThreshold: 20,
		Sleep: SleepParams{
			LightEveryNewNodes: 50,
			DeepInterval:       24 * time.Hour,
		},
		Timeouts: TimeoutParams{
			Embed:  500 * time.Millisecond,
			ANN:    100 * time.Millisecond,
			BM25:   100 * time.Millisecond,
			Rerank: 300 * time.Millisecond,
			Total:  2 * time.Second,
		},
		EmbeddingDim:              384,
		MaxVersionsPerNode:        5,
		ReExtractEntitiesOnUpdate: false,
	}
}

// IsAnchorCategory reports whether category is exempt from temporal and
// stale-edge decay.
func (c *DomainConfig) IsAnchorCategory(category string) bool {
	for _, a := range c.Temporal.AnchorCategories {
		if a == category {
			return true
		}
	}
	return false
}

// CategoryMultiplier returns the decay-exponent multiplier for category,
// defaulting to 1.0 (no adjustment) when unlisted.
func (c *DomainConfig) CategoryMultiplier(category string) float64 {
	if m, ok := c.Temporal.CategoryMultipliers[category]; ok {
		return m
	}
	return 1.0
}

// ImportanceMultiplier returns the activation multiplier for an importance level.
func (c *DomainConfig) ImportanceMultiplier(level string) float64 {
	if m, ok := ImportanceMultipliers[level]; ok {
		return m
	}
	return 1.0
}
