// Package embeddingcache holds normalized dense vectors keyed by node
// id (§4.2), separate from the ANN index so a single node's vector can
// be fetched directly (e.g. for find_similar) without an ANN search.
package embeddingcache

import (
	"sync"

	"github.com/artemMprokhorov/hippograph-pro/domain/core/valueobjects"
)

// Cache is a thread-safe map from node id to embedding.
type Cache struct {
	mu      sync.RWMutex
	vectors map[int64]valueobjects.Embedding
}

// New constructs an empty cache.
func New() *Cache {
	return &Cache{vectors: make(map[int64]valueobjects.Embedding)}
}

func (c *Cache) Get(id int64) (valueobjects.Embedding, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.vectors[id]
	return v, ok
}

func (c *Cache) Set(id int64, vector valueobjects.Embedding) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vectors[id] = vector
}

func (c *Cache) Delete(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.vectors, id)
}

func (c *Cache) Rebuild(vectors map[int64]valueobjects.Embedding) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vectors = make(map[int64]valueobjects.Embedding, len(vectors))
	for id, v := range vectors {
		c.vectors[id] = v
	}
}

func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.vectors)
}
