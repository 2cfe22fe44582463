package ann

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artemMprokhorov/hippograph-pro/domain/core/valueobjects"
)

func unitVec(dim, hot int) valueobjects.Embedding {
	values := make([]float32, dim)
	values[hot] = 1
	e, _ := valueobjects.NewEmbedding(values, dim)
	return e
}

func TestIndex_SearchReturnsClosestFirst(t *testing.T) {
	idx := New()
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, 1, unitVec(3, 0)))
	require.NoError(t, idx.Add(ctx, 2, unitVec(3, 1)))
	require.NoError(t, idx.Add(ctx, 3, unitVec(3, 0)))

	results, err := idx.Search(ctx, unitVec(3, 0), 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.InDelta(t, 1.0, results[1].Score, 1e-9)
}

func TestIndex_SearchReturnsFewerThanKWithoutError(t *testing.T) {
	idx := New()
	ctx := context.Background()
	require.NoError(t, idx.Add(ctx, 1, unitVec(3, 0)))

	results, err := idx.Search(ctx, unitVec(3, 0), 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestIndex_RemoveAndRebuild(t *testing.T) {
	idx := New()
	ctx := context.Background()
	require.NoError(t, idx.Add(ctx, 1, unitVec(3, 0)))
	require.NoError(t, idx.Add(ctx, 2, unitVec(3, 1)))

	require.NoError(t, idx.Remove(ctx, 1))
	assert.Equal(t, 1, idx.Count())

	require.NoError(t, idx.Rebuild(ctx, map[int64]valueobjects.Embedding{5: unitVec(3, 2)}))
	assert.Equal(t, 1, idx.Count())
}
