// Package ann is the approximate nearest-neighbour index over node
// embeddings (§4.2). At personal-memory scale (thousands, not millions,
// of notes) an exhaustive cosine scan is both exact and fast enough;
// the interface is kept ANN-shaped so a real HNSW/IVF index can replace
// it without touching callers, the way nornicdb keeps its HNSW index
// behind the same SearchResult contract a flat index would use.
package ann

import (
	"context"
	"sort"
	"sync"

	"github.com/artemMprokhorov/hippograph-pro/application/ports"
	"github.com/artemMprokhorov/hippograph-pro/domain/core/valueobjects"
)

// Index is a flat, thread-safe in-memory cosine-similarity index.
type Index struct {
	mu      sync.RWMutex
	vectors map[int64]valueobjects.Embedding
}

// New constructs an empty index.
func New() *Index {
	return &Index{vectors: make(map[int64]valueobjects.Embedding)}
}

func (idx *Index) Add(ctx context.Context, id int64, vector valueobjects.Embedding) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.vectors[id] = vector
	return nil
}

func (idx *Index) Remove(ctx context.Context, id int64) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.vectors, id)
	return nil
}

// Search returns the k nearest ids by cosine similarity, highest first.
// Returning fewer than k is not an error (§4.2's degrade-gracefully
// failure policy); callers decide what "fewer results" means for them.
func (idx *Index) Search(ctx context.Context, vector valueobjects.Embedding, k int) ([]ports.ScoredID, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	results := make([]ports.ScoredID, 0, len(idx.vectors))
	for id, v := range idx.vectors {
		results = append(results, ports.ScoredID{ID: id, Score: vector.CosineSimilarity(v)})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (idx *Index) Rebuild(ctx context.Context, vectors map[int64]valueobjects.Embedding) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.vectors = make(map[int64]valueobjects.Embedding, len(vectors))
	for id, v := range vectors {
		idx.vectors[id] = v
	}
	return nil
}

func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}
