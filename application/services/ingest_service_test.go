package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/artemMprokhorov/hippograph-pro/application/ports"
	"github.com/artemMprokhorov/hippograph-pro/domain/config"
	"github.com/artemMprokhorov/hippograph-pro/domain/core/entities"
	"github.com/artemMprokhorov/hippograph-pro/domain/core/valueobjects"
	pkgerrors "github.com/artemMprokhorov/hippograph-pro/pkg/errors"
)

func newIngestTestService(t *testing.T) (*IngestService, *fakeStore, *fakeANN, *fakeBM25, *fakeEmbedder) {
	t.Helper()
	store := newFakeStore()
	ann := newFakeANN()
	bm25 := newFakeBM25()
	graph := newFakeGraph()
	embCache := newFakeEmbeddingCache()
	embedder := newFakeEmbedder()
	extractor := &fakeExtractor{}
	linker := NewEntityLinker(store, graph, zap.NewNop())
	cfg := config.DefaultDomainConfig()

	svc := NewIngestService(store, ann, bm25, graph, embCache, embedder, extractor, ports.DateResolver(nil), linker, cfg, zap.NewNop(), nil)
	return svc, store, ann, bm25, embedder
}

// TestIngestService_Add_BlocksNearDuplicate covers scenario S1: a note
// whose embedding is at or above the block threshold against an existing
// node is rejected unless force is set (§4.8).
func TestIngestService_Add_BlocksNearDuplicate(t *testing.T) {
	svc, _, ann, _, embedder := newIngestTestService(t)
	ctx := context.Background()

	shared, err := valueobjects.NewEmbedding([]float32{1, 0, 0, 0}, 4)
	require.NoError(t, err)
	embedder.vectors["first note about the project kickoff"] = shared
	embedder.vectors["first note about the project kickoff, duplicate"] = shared
	ann.vectors[1] = shared // pretend node 1 already exists in the ANN index

	_, err = svc.Add(ctx, AddRequest{Content: "first note about the project kickoff, duplicate", Category: "work"})

	require.Error(t, err)
	assert.True(t, pkgerrors.IsDuplicate(err))
}

func TestIngestService_Add_ForceBypassesDuplicateBlock(t *testing.T) {
	svc, store, ann, _, embedder := newIngestTestService(t)
	ctx := context.Background()

	shared, err := valueobjects.NewEmbedding([]float32{1, 0, 0, 0}, 4)
	require.NoError(t, err)
	embedder.vectors["duplicate content"] = shared
	ann.vectors[1] = shared

	result, err := svc.Add(ctx, AddRequest{Content: "duplicate content", Category: "work", Force: true})

	require.NoError(t, err)
	assert.NotZero(t, result.ID)
	_, ok := store.nodes[result.ID]
	assert.True(t, ok)
}

func TestIngestService_Add_WarnsOnNearDuplicateBand(t *testing.T) {
	svc, _, ann, _, embedder := newIngestTestService(t)
	ctx := context.Background()

	// 0.92 cosine similarity sits inside [0.90, 0.95): a warning, not a block.
	a, err := valueobjects.NewEmbedding([]float32{1, 0, 0, 0}, 4)
	require.NoError(t, err)
	b := valueobjects.NormalizeToEmbedding([]float32{0.92, 0.3919183588453085, 0, 0})
	embedder.vectors["a similar but distinct note"] = b
	ann.vectors[1] = a

	result, err := svc.Add(ctx, AddRequest{Content: "a similar but distinct note", Category: "work"})

	require.NoError(t, err)
	assert.True(t, result.HasDuplicateWarning)
	assert.Equal(t, int64(1), result.DuplicateWarningID)
}

func TestIngestService_Add_CreatesSemanticEdgeAboveThreshold(t *testing.T) {
	svc, store, ann, bm25, embedder := newIngestTestService(t)
	ctx := context.Background()
	_ = bm25

	existingVec, err := valueobjects.NewEmbedding([]float32{0, 1, 0, 0}, 4)
	require.NoError(t, err)
	existing, err := entities.NewNode("an unrelated-looking but related note", "work", entities.ImportanceNormal)
	require.NoError(t, err)
	existing.SetEmbedding(existingVec)
	existingID, err := store.InsertNode(ctx, existing)
	require.NoError(t, err)
	ann.vectors[existingID] = existingVec

	// cosine 0.8: above SemanticEdge.Threshold (0.5), below the 0.90 duplicate-warning band
	closeVec := valueobjects.NormalizeToEmbedding([]float32{0, 0.8, 0.6, 0})
	embedder.vectors["a semantically close note"] = closeVec

	result, err := svc.Add(ctx, AddRequest{Content: "a semantically close note", Category: "work"})
	require.NoError(t, err)

	_, ok := store.edges[edgeKey(result.ID, existingID, entities.EdgeTypeSemantic)]
	assert.True(t, ok, "expected a semantic edge to the similar existing node")
}

func TestIngestService_Add_RejectsEmptyContent(t *testing.T) {
	svc, _, _, _, _ := newIngestTestService(t)
	_, err := svc.Add(context.Background(), AddRequest{Content: "", Category: "work"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

// TestIngestService_Add_RollsBackStoreInsertOnIndexFailure covers §4.1/
// §4.2: a post-InsertNode index failure must undo the store insert
// rather than leave the store and ANN/BM25 indexes disagreeing on the
// node's existence.
func TestIngestService_Add_RollsBackStoreInsertOnIndexFailure(t *testing.T) {
	svc, store, _, bm25, embedder := newIngestTestService(t)
	ctx := context.Background()
	bm25.addErr = errors.New("bm25 index unavailable")

	embedder.vectors["a note whose bm25 indexing fails"] = valueobjects.NormalizeToEmbedding([]float32{1, 1, 0, 0})

	before := len(store.nodes)
	_, err := svc.Add(ctx, AddRequest{Content: "a note whose bm25 indexing fails", Category: "work"})

	require.Error(t, err)
	assert.Len(t, store.nodes, before, "failed add must not leave an orphaned store row")
}

func TestIngestService_Delete_RemovesFromEveryIndex(t *testing.T) {
	svc, store, ann, bm25, embedder := newIngestTestService(t)
	ctx := context.Background()
	embedder.vectors["a note to delete"] = valueobjects.NormalizeToEmbedding([]float32{1, 1, 0, 0})

	result, err := svc.Add(ctx, AddRequest{Content: "a note to delete", Category: "misc"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, result.ID))

	_, stillInStore := store.nodes[result.ID]
	assert.False(t, stillInStore)
	assert.Equal(t, 0, ann.Count())
	assert.Equal(t, 0, bm25.Count())
}

func TestIngestService_SetImportance_PersistsViaNodeUpdate(t *testing.T) {
	svc, store, _, _, embedder := newIngestTestService(t)
	ctx := context.Background()
	embedder.vectors["importance note"] = valueobjects.NormalizeToEmbedding([]float32{1, 0, 1, 0})

	result, err := svc.Add(ctx, AddRequest{Content: "importance note", Category: "misc"})
	require.NoError(t, err)

	require.NoError(t, svc.SetImportance(ctx, result.ID, entities.ImportanceCritical))

	node, err := store.GetNode(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.ImportanceCritical, node.Importance())
}

func TestIngestService_RestoreVersion_RefreshesBM25ButNotEmbedding(t *testing.T) {
	svc, store, _, bm25, embedder := newIngestTestService(t)
	ctx := context.Background()
	originalVec := valueobjects.NormalizeToEmbedding([]float32{1, 0, 0, 1})
	embedder.vectors["original content"] = originalVec

	result, err := svc.Add(ctx, AddRequest{Content: "original content", Category: "misc"})
	require.NoError(t, err)

	updated := "updated content"
	_, err = svc.Update(ctx, UpdateRequest{ID: result.ID, Content: &updated})
	require.NoError(t, err)

	require.NoError(t, svc.RestoreVersion(ctx, result.ID, 1))

	node, err := store.GetNode(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, "original content", node.Content())
	assert.Equal(t, originalVec.Values(), node.Embedding().Values())
	assert.Equal(t, 1, bm25.Count())
}
