package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/artemMprokhorov/hippograph-pro/application/ports"
	"github.com/artemMprokhorov/hippograph-pro/domain/core/entities"
)

func mustInsertNode(t *testing.T, store *fakeStore, content, category string) int64 {
	t.Helper()
	node, err := entities.NewNode(content, category, entities.ImportanceNormal)
	require.NoError(t, err)
	id, err := store.InsertNode(context.Background(), node)
	require.NoError(t, err)
	return id
}

func TestEntityLinker_Link_CreatesEntityEdgeBetweenNodesSharingEntities(t *testing.T) {
	store := newFakeStore()
	graph := newFakeGraph()
	linker := NewEntityLinker(store, graph, zap.NewNop())
	ctx := context.Background()

	nodeA := mustInsertNode(t, store, "met Alice at the conference", "work")
	nodeB := mustInsertNode(t, store, "Alice sent over the proposal", "work")

	extracted := []ports.ExtractedEntity{{Surface: "Alice", Type: string(entities.EntityTypePerson), Confidence: 0.9}}

	_, err := linker.Link(ctx, nodeA, extracted)
	require.NoError(t, err)

	result, err := linker.Link(ctx, nodeB, extracted)
	require.NoError(t, err)

	assert.Len(t, result.LinkedEntityIDs, 1)
	assert.Equal(t, 1, result.EdgesCreated)

	edge, ok := store.edges[edgeKey(nodeB, nodeA, entities.EdgeTypeEntity)]
	require.True(t, ok)
	assert.InDelta(t, entityEdgeWeight(1), edge.Weight(), 1e-9)

	reverse, ok := store.edges[edgeKey(nodeA, nodeB, entities.EdgeTypeEntity)]
	require.True(t, ok)
	assert.InDelta(t, entityEdgeWeight(1), reverse.Weight(), 1e-9)

	assert.Len(t, graph.Forward(nodeA), 1)
	assert.Len(t, graph.Forward(nodeB), 1)
}

func TestEntityLinker_Link_NoExtractedEntitiesIsNoop(t *testing.T) {
	store := newFakeStore()
	graph := newFakeGraph()
	linker := NewEntityLinker(store, graph, zap.NewNop())

	nodeA := mustInsertNode(t, store, "a note with nothing to extract", "misc")
	result, err := linker.Link(context.Background(), nodeA, nil)

	require.NoError(t, err)
	assert.Empty(t, result.LinkedEntityIDs)
	assert.Zero(t, result.EdgesCreated)
	assert.Zero(t, graph.Count())
}

func TestEntityLinker_Link_CanonicalizesSurfaceFormsToOneEntity(t *testing.T) {
	store := newFakeStore()
	graph := newFakeGraph()
	linker := NewEntityLinker(store, graph, zap.NewNop())
	ctx := context.Background()

	nodeA := mustInsertNode(t, store, "learning Python this week", "learning")
	_, err := linker.Link(ctx, nodeA, []ports.ExtractedEntity{{Surface: "  Python ", Type: string(entities.EntityTypeTech), Confidence: 0.8}})
	require.NoError(t, err)

	nodeB := mustInsertNode(t, store, "more python practice", "learning")
	result, err := linker.Link(ctx, nodeB, []ports.ExtractedEntity{{Surface: "python", Type: string(entities.EntityTypeTech), Confidence: 0.8}})
	require.NoError(t, err)

	assert.Len(t, result.LinkedEntityIDs, 1)
	assert.Equal(t, 1, store.nextEntityID, "both surface forms must canonicalize to the same entity")
}

func TestEntityEdgeWeight_CapsAtOne(t *testing.T) {
	assert.InDelta(t, 0.6, entityEdgeWeight(1), 1e-9)
	assert.InDelta(t, 1.0, entityEdgeWeight(10), 1e-9)
}
