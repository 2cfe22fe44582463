package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/artemMprokhorov/hippograph-pro/application/ports"
	"github.com/artemMprokhorov/hippograph-pro/domain/core/entities"
	"github.com/artemMprokhorov/hippograph-pro/domain/core/valueobjects"
	pkgerrors "github.com/artemMprokhorov/hippograph-pro/pkg/errors"
)

// fakeStore is an in-memory ports.Store used across application/services
// tests, in the spirit of the teacher's tests/mocks package but hand-rolled
// rather than testify/mock, since the interface is large and most tests
// only exercise a handful of its methods at a time.
type fakeStore struct {
	nodes   map[int64]*entities.Node
	nextID  int64
	edges   map[string]*entities.Edge
	entities map[int64]*entities.Entity
	nextEntityID int64
	links   map[int64]map[int64]float64 // nodeID -> entityID -> confidence
	history map[int64][]entities.NodeVersion

	recordedAccess []int64
	snapshotCount  int
	restoreCount   int
	pageranks      map[int64]float64
	communities    map[int64]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nodes:    make(map[int64]*entities.Node),
		edges:    make(map[string]*entities.Edge),
		entities: make(map[int64]*entities.Entity),
		links:    make(map[int64]map[int64]float64),
		history:  make(map[int64][]entities.NodeVersion),
		pageranks: make(map[int64]float64),
		communities: make(map[int64]int),
	}
}

func edgeKey(source, target int64, edgeType entities.EdgeType) string {
	return fmt.Sprintf("%d|%d|%s", source, target, edgeType)
}

func (f *fakeStore) InsertNode(ctx context.Context, node *entities.Node) (int64, error) {
	f.nextID++
	node.AssignID(f.nextID)
	f.nodes[f.nextID] = node
	return f.nextID, nil
}

func (f *fakeStore) UpdateNode(ctx context.Context, id int64, fields ports.NodeUpdate) (int, error) {
	node, ok := f.nodes[id]
	if !ok {
		return 0, pkgerrors.NewNotFoundError("node not found")
	}
	version := 0
	if fields.Content != nil && node.ContentChanged(*fields.Content) {
		version = len(f.history[id]) + 1
		f.history[id] = append(f.history[id], entities.NewNodeVersion(id, version, node.Content(), time.Now()))
		if err := node.UpdateContent(*fields.Content, version); err != nil {
			return 0, err
		}
	}
	if fields.Category != nil {
		if err := node.SetCategory(*fields.Category); err != nil {
			return 0, err
		}
	}
	if fields.Importance != nil {
		if err := node.SetImportance(*fields.Importance); err != nil {
			return 0, err
		}
	}
	return version, nil
}

func (f *fakeStore) DeleteNode(ctx context.Context, id int64) error {
	delete(f.nodes, id)
	return nil
}

func (f *fakeStore) GetNode(ctx context.Context, id int64) (*entities.Node, error) {
	node, ok := f.nodes[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("node not found")
	}
	return node, nil
}

func (f *fakeStore) IterNodes(ctx context.Context, filter func(*entities.Node) bool, fn func(*entities.Node) bool) error {
	ids := make([]int64, 0, len(f.nodes))
	for id := range f.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		n := f.nodes[id]
		if filter != nil && !filter(n) {
			continue
		}
		if !fn(n) {
			break
		}
	}
	return nil
}

func (f *fakeStore) UpsertEntity(ctx context.Context, name string, entityType entities.EntityType) (int64, error) {
	for id, e := range f.entities {
		if e.Name() == name {
			return id, nil
		}
	}
	entity, err := entities.NewEntity(name, entityType)
	if err != nil {
		return 0, err
	}
	f.nextEntityID++
	entity.AssignID(f.nextEntityID)
	f.entities[f.nextEntityID] = entity
	return f.nextEntityID, nil
}

func (f *fakeStore) Link(ctx context.Context, nodeID, entityID int64, confidence float64) error {
	if f.links[nodeID] == nil {
		f.links[nodeID] = make(map[int64]float64)
	}
	f.links[nodeID][entityID] = confidence
	return nil
}

func (f *fakeStore) HasEntityOfType(ctx context.Context, nodeID int64, entityType string) (bool, error) {
	for entityID := range f.links[nodeID] {
		if string(f.entities[entityID].Type()) == entityType {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) EntitiesForNode(ctx context.Context, nodeID int64) ([]*entities.Entity, error) {
	var out []*entities.Entity
	for entityID := range f.links[nodeID] {
		out = append(out, f.entities[entityID])
	}
	return out, nil
}

func (f *fakeStore) NodesSharingEntities(ctx context.Context, nodeID int64) (map[int64]int, error) {
	mine := f.links[nodeID]
	shared := make(map[int64]int)
	for otherID, otherLinks := range f.links {
		if otherID == nodeID {
			continue
		}
		count := 0
		for entityID := range mine {
			if _, ok := otherLinks[entityID]; ok {
				count++
			}
		}
		if count > 0 {
			shared[otherID] = count
		}
	}
	return shared, nil
}

func (f *fakeStore) AddEdge(ctx context.Context, sourceID, targetID int64, weight float64, edgeType entities.EdgeType, relationName string) error {
	if err := f.upsertDirectedEdge(sourceID, targetID, weight, edgeType, relationName); err != nil {
		return err
	}
	if edgeType == entities.EdgeTypeSemantic || edgeType == entities.EdgeTypeEntity {
		return f.upsertDirectedEdge(targetID, sourceID, weight, edgeType, relationName)
	}
	return nil
}

func (f *fakeStore) upsertDirectedEdge(sourceID, targetID int64, weight float64, edgeType entities.EdgeType, relationName string) error {
	key := edgeKey(sourceID, targetID, edgeType)
	if existing, ok := f.edges[key]; ok {
		existing.MergeWeight(weight, time.Now())
		return nil
	}
	edge, err := entities.NewEdge(sourceID, targetID, weight, edgeType, relationName)
	if err != nil {
		return err
	}
	f.edges[key] = edge
	return nil
}

func (f *fakeStore) RemoveEdge(ctx context.Context, sourceID, targetID int64, edgeType entities.EdgeType) error {
	delete(f.edges, edgeKey(sourceID, targetID, edgeType))
	return nil
}

func (f *fakeStore) DecayEdge(ctx context.Context, sourceID, targetID int64, edgeType entities.EdgeType, factor float64, at time.Time) error {
	if e, ok := f.edges[edgeKey(sourceID, targetID, edgeType)]; ok {
		e.Decay(factor, at)
	}
	if e, ok := f.edges[edgeKey(targetID, sourceID, edgeType)]; ok {
		e.Decay(factor, at)
	}
	return nil
}

func (f *fakeStore) Neighbors(ctx context.Context, id int64) ([]ports.NeighborEdge, error) {
	var out []ports.NeighborEdge
	for _, e := range f.edges {
		if e.SourceID() == id {
			out = append(out, ports.NeighborEdge{TargetID: e.TargetID(), Weight: e.Weight(), Type: e.Type()})
		}
	}
	return out, nil
}

func (f *fakeStore) AllEdges(ctx context.Context) ([]ports.StoredEdge, error) {
	var out []ports.StoredEdge
	for _, e := range f.edges {
		out = append(out, ports.StoredEdge{
			SourceID: e.SourceID(), TargetID: e.TargetID(), Weight: e.Weight(),
			Type: e.Type(), RelationName: e.RelationName(),
			CreatedAt: e.CreatedAt(), LastTouchedAt: e.LastTouchedAt(),
		})
	}
	return out, nil
}

func (f *fakeStore) GetHistory(ctx context.Context, id int64) ([]entities.NodeVersion, error) {
	return f.history[id], nil
}

func (f *fakeStore) RestoreVersion(ctx context.Context, id int64, version int) error {
	node, ok := f.nodes[id]
	if !ok {
		return pkgerrors.NewNotFoundError("node not found")
	}
	for _, v := range f.history[id] {
		if v.Version == version {
			node.RestoreContent(v.Content, version)
			return nil
		}
	}
	return pkgerrors.NewNotFoundError("version not found")
}

func (f *fakeStore) RecordAccess(ctx context.Context, ids []int64, at time.Time) error {
	f.recordedAccess = append(f.recordedAccess, ids...)
	for _, id := range ids {
		if n, ok := f.nodes[id]; ok {
			n.RecordAccess(at)
		}
	}
	return nil
}

func (f *fakeStore) SetPageRank(ctx context.Context, scores map[int64]float64) error {
	for id, score := range scores {
		f.pageranks[id] = score
		if n, ok := f.nodes[id]; ok {
			_ = n.SetPageRank(score)
		}
	}
	return nil
}

func (f *fakeStore) SetCommunityID(ctx context.Context, assignments map[int64]int) error {
	for id, cid := range assignments {
		f.communities[id] = cid
		if n, ok := f.nodes[id]; ok {
			n.SetCommunityID(cid)
		}
	}
	return nil
}

func (f *fakeStore) NodeCount(ctx context.Context) (int, error)   { return len(f.nodes), nil }
func (f *fakeStore) EdgeCount(ctx context.Context) (int, error)   { return len(f.edges), nil }
func (f *fakeStore) EntityCount(ctx context.Context) (int, error) { return len(f.entities), nil }

func (f *fakeStore) Categories(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int)
	for _, n := range f.nodes {
		out[n.Category()]++
	}
	return out, nil
}

func (f *fakeStore) Snapshot(ctx context.Context) (ports.SnapshotToken, error) {
	f.snapshotCount++
	return ports.SnapshotToken("snap-1"), nil
}

func (f *fakeStore) Restore(ctx context.Context, token ports.SnapshotToken) error {
	f.restoreCount++
	return nil
}

func (f *fakeStore) Close() error { return nil }

// fakeANN is a brute-force ports.ANNIndex for tests.
type fakeANN struct {
	vectors map[int64]valueobjects.Embedding
}

func newFakeANN() *fakeANN { return &fakeANN{vectors: make(map[int64]valueobjects.Embedding)} }

func (a *fakeANN) Add(ctx context.Context, id int64, vector valueobjects.Embedding) error {
	a.vectors[id] = vector
	return nil
}
func (a *fakeANN) Remove(ctx context.Context, id int64) error { delete(a.vectors, id); return nil }
func (a *fakeANN) Search(ctx context.Context, vector valueobjects.Embedding, k int) ([]ports.ScoredID, error) {
	var out []ports.ScoredID
	for id, v := range a.vectors {
		out = append(out, ports.ScoredID{ID: id, Score: vector.CosineSimilarity(v)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out, nil
}
func (a *fakeANN) Rebuild(ctx context.Context, vectors map[int64]valueobjects.Embedding) error {
	a.vectors = vectors
	return nil
}
func (a *fakeANN) Count() int { return len(a.vectors) }

// fakeBM25 is a minimal ports.BM25Index stub; most retriever tests drive
// ranking through spreading activation and the ANN index instead.
type fakeBM25 struct {
	hits   map[int64]float64
	addErr error
}

func newFakeBM25() *fakeBM25 { return &fakeBM25{hits: make(map[int64]float64)} }

func (b *fakeBM25) Add(ctx context.Context, id int64, text string) error {
	if b.addErr != nil {
		return b.addErr
	}
	b.hits[id] = 0
	return nil
}
func (b *fakeBM25) Remove(ctx context.Context, id int64) error { delete(b.hits, id); return nil }
func (b *fakeBM25) Search(ctx context.Context, terms []string, k int) ([]ports.ScoredID, error) {
	var out []ports.ScoredID
	for id, score := range b.hits {
		out = append(out, ports.ScoredID{ID: id, Score: score})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}
func (b *fakeBM25) Rebuild(ctx context.Context, documents map[int64]string) error { return nil }
func (b *fakeBM25) Count() int                                                    { return len(b.hits) }

// fakeGraph is a minimal ports.GraphCache backed by adjacency maps.
type fakeGraph struct {
	forward map[int64][]ports.CachedEdge
	reverse map[int64][]ports.CachedEdge
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{forward: make(map[int64][]ports.CachedEdge), reverse: make(map[int64][]ports.CachedEdge)}
}

func (g *fakeGraph) AddEdge(sourceID, targetID int64, weight float64, edgeType string) error {
	g.forward[sourceID] = append(g.forward[sourceID], ports.CachedEdge{NeighborID: targetID, Weight: weight, Type: edgeType})
	g.reverse[targetID] = append(g.reverse[targetID], ports.CachedEdge{NeighborID: sourceID, Weight: weight, Type: edgeType})
	return nil
}
func (g *fakeGraph) RemoveEdge(sourceID, targetID int64, edgeType string) error { return nil }
func (g *fakeGraph) Forward(id int64) []ports.CachedEdge                       { return g.forward[id] }
func (g *fakeGraph) Reverse(id int64) []ports.CachedEdge                       { return g.reverse[id] }
func (g *fakeGraph) AllIDs() []int64                                           { return nil }
func (g *fakeGraph) Rebuild(edges []ports.CachedEdgeRow) error                 { return nil }
func (g *fakeGraph) Count() int                                                { return len(g.forward) }

// fakeEmbeddingCache is a minimal ports.EmbeddingCache.
type fakeEmbeddingCache struct {
	values map[int64]valueobjects.Embedding
}

func newFakeEmbeddingCache() *fakeEmbeddingCache {
	return &fakeEmbeddingCache{values: make(map[int64]valueobjects.Embedding)}
}

func (c *fakeEmbeddingCache) Get(id int64) (valueobjects.Embedding, bool) {
	v, ok := c.values[id]
	return v, ok
}
func (c *fakeEmbeddingCache) Set(id int64, vector valueobjects.Embedding) { c.values[id] = vector }
func (c *fakeEmbeddingCache) Delete(id int64)                             { delete(c.values, id) }
func (c *fakeEmbeddingCache) Rebuild(vectors map[int64]valueobjects.Embedding) {
	c.values = vectors
}
func (c *fakeEmbeddingCache) Count() int { return len(c.values) }

// fakeEmbedder returns a caller-supplied vector for a given text, or a
// deterministic hash-derived vector otherwise.
type fakeEmbedder struct {
	vectors map[string]valueobjects.Embedding
	err     error
}

func newFakeEmbedder() *fakeEmbedder { return &fakeEmbedder{vectors: make(map[string]valueobjects.Embedding)} }

func (e *fakeEmbedder) Encode(ctx context.Context, text string) (valueobjects.Embedding, error) {
	if e.err != nil {
		return valueobjects.Embedding{}, e.err
	}
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	return valueobjects.NormalizeToEmbedding([]float32{1, 0, 0, 0}), nil
}

// fakeDateResolver returns a fixed event-time range regardless of input,
// for tests that drive the retriever's temporal-scoring branch directly.
type fakeDateResolver struct {
	start, end *time.Time
	err        error
}

func (d *fakeDateResolver) Resolve(ctx context.Context, text string, base time.Time) (*time.Time, *time.Time, error) {
	return d.start, d.end, d.err
}

// fakeExtractor returns a fixed set of extracted entities.
type fakeExtractor struct {
	entities []ports.ExtractedEntity
	err      error
}

func (e *fakeExtractor) Extract(ctx context.Context, text string) ([]ports.ExtractedEntity, error) {
	return e.entities, e.err
}

// fakeReranker returns a caller-supplied score per text, or an error, for
// tests that drive the retriever's rerank-failure degradation branch.
type fakeReranker struct {
	scores []float32
	err    error
}

func (r *fakeReranker) Score(ctx context.Context, query string, texts []string) ([]float32, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.scores, nil
}
