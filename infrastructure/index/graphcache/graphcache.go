// Package graphcache is the in-memory adjacency backing spreading
// activation and graph analytics (§4.3): a forward and reverse index
// over the store's edges, kept separate from the durable Store so
// read-heavy traversal never touches BadgerDB.
package graphcache

import (
	"sync"

	"github.com/artemMprokhorov/hippograph-pro/application/ports"
)

// Cache is a thread-safe forward/reverse adjacency list.
type Cache struct {
	mu      sync.RWMutex
	forward map[int64][]ports.CachedEdge
	reverse map[int64][]ports.CachedEdge
}

// New constructs an empty cache.
func New() *Cache {
	return &Cache{
		forward: make(map[int64][]ports.CachedEdge),
		reverse: make(map[int64][]ports.CachedEdge),
	}
}

func (c *Cache) AddEdge(sourceID, targetID int64, weight float64, edgeType string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.forward[sourceID] = upsert(c.forward[sourceID], targetID, weight, edgeType)
	c.reverse[targetID] = upsert(c.reverse[targetID], sourceID, weight, edgeType)
	return nil
}

func upsert(edges []ports.CachedEdge, neighborID int64, weight float64, edgeType string) []ports.CachedEdge {
	for i, e := range edges {
		if e.NeighborID == neighborID && e.Type == edgeType {
			edges[i].Weight = weight
			return edges
		}
	}
	return append(edges, ports.CachedEdge{NeighborID: neighborID, Weight: weight, Type: edgeType})
}

func (c *Cache) RemoveEdge(sourceID, targetID int64, edgeType string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.forward[sourceID] = remove(c.forward[sourceID], targetID, edgeType)
	c.reverse[targetID] = remove(c.reverse[targetID], sourceID, edgeType)
	return nil
}

func remove(edges []ports.CachedEdge, neighborID int64, edgeType string) []ports.CachedEdge {
	out := edges[:0]
	for _, e := range edges {
		if e.NeighborID == neighborID && e.Type == edgeType {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (c *Cache) Forward(id int64) []ports.CachedEdge {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ports.CachedEdge, len(c.forward[id]))
	copy(out, c.forward[id])
	return out
}

func (c *Cache) Reverse(id int64) []ports.CachedEdge {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ports.CachedEdge, len(c.reverse[id]))
	copy(out, c.reverse[id])
	return out
}

func (c *Cache) AllIDs() []int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[int64]struct{})
	for id := range c.forward {
		seen[id] = struct{}{}
	}
	for id := range c.reverse {
		seen[id] = struct{}{}
	}
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	return ids
}

func (c *Cache) Rebuild(edges []ports.CachedEdgeRow) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forward = make(map[int64][]ports.CachedEdge)
	c.reverse = make(map[int64][]ports.CachedEdge)
	for _, e := range edges {
		c.forward[e.SourceID] = upsert(c.forward[e.SourceID], e.TargetID, e.Weight, e.Type)
		c.reverse[e.TargetID] = upsert(c.reverse[e.TargetID], e.SourceID, e.Weight, e.Type)
	}
	return nil
}

func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	count := 0
	for _, edges := range c.forward {
		count += len(edges)
	}
	return count
}
