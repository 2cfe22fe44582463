package ports

import (
	"context"

	"github.com/artemMprokhorov/hippograph-pro/domain/core/valueobjects"
)

// ScoredID pairs a node id with a similarity or relevance score.
type ScoredID struct {
	ID    int64
	Score float64
}

// ANNIndex is the approximate nearest-neighbour index over node
// embeddings (§4.2). All methods must be safe for concurrent read;
// mutation requires the store's writer lock to already be held by the
// caller.
type ANNIndex interface {
	Add(ctx context.Context, id int64, vector valueobjects.Embedding) error
	Remove(ctx context.Context, id int64) error
	Search(ctx context.Context, vector valueobjects.Embedding, k int) ([]ScoredID, error)
	// Rebuild reconstructs the index from the given id/vector pairs,
	// used on startup when the on-disk version mismatches (§4.2).
	Rebuild(ctx context.Context, vectors map[int64]valueobjects.Embedding) error
	// Count returns the number of indexed ids, for invariant-checking tests.
	Count() int
}

// BM25Index is the inverted index with Okapi BM25 scoring (§4.4).
type BM25Index interface {
	Add(ctx context.Context, id int64, text string) error
	Remove(ctx context.Context, id int64) error
	Search(ctx context.Context, terms []string, k int) ([]ScoredID, error)
	Rebuild(ctx context.Context, documents map[int64]string) error
	Count() int
}

// GraphCache is the in-memory adjacency used by spreading activation and
// graph analytics (§4.3): forward edges plus a reverse index.
type GraphCache interface {
	AddEdge(sourceID, targetID int64, weight float64, edgeType string) error
	RemoveEdge(sourceID, targetID int64, edgeType string) error
	Forward(id int64) []CachedEdge
	Reverse(id int64) []CachedEdge
	AllIDs() []int64
	Rebuild(edges []CachedEdgeRow) error
	Count() int
}

// CachedEdge is one adjacency entry.
type CachedEdge struct {
	NeighborID int64
	Weight     float64
	Type       string
}

// CachedEdgeRow is a full edge row used to rebuild the cache from scratch.
type CachedEdgeRow struct {
	SourceID int64
	TargetID int64
	Weight   float64
	Type     string
}

// EmbeddingCache holds normalized dense vectors keyed by node id,
// separate from the ANN index so a single node's vector can be looked
// up by id without an ANN search. IngestService keeps it in step with
// adds, updates and deletes; the retriever and find_similar do not
// read from it.
type EmbeddingCache interface {
	Get(id int64) (valueobjects.Embedding, bool)
	Set(id int64, vector valueobjects.Embedding)
	Delete(id int64)
	Rebuild(vectors map[int64]valueobjects.Embedding)
	Count() int
}
