package graphcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artemMprokhorov/hippograph-pro/application/ports"
)

func TestCache_AddEdgeIsIdempotent(t *testing.T) {
	c := New()
	require.NoError(t, c.AddEdge(1, 2, 0.5, "semantic"))
	require.NoError(t, c.AddEdge(1, 2, 0.9, "semantic"))

	forward := c.Forward(1)
	require.Len(t, forward, 1)
	assert.Equal(t, 0.9, forward[0].Weight)
}

func TestCache_ReverseIndexPopulated(t *testing.T) {
	c := New()
	require.NoError(t, c.AddEdge(1, 2, 0.5, "semantic"))

	reverse := c.Reverse(2)
	require.Len(t, reverse, 1)
	assert.Equal(t, int64(1), reverse[0].NeighborID)
}

func TestCache_RemoveEdge(t *testing.T) {
	c := New()
	require.NoError(t, c.AddEdge(1, 2, 0.5, "semantic"))
	require.NoError(t, c.RemoveEdge(1, 2, "semantic"))

	assert.Empty(t, c.Forward(1))
	assert.Empty(t, c.Reverse(2))
}

func TestCache_RebuildReplacesContents(t *testing.T) {
	c := New()
	require.NoError(t, c.AddEdge(1, 2, 0.5, "semantic"))

	require.NoError(t, c.Rebuild([]ports.CachedEdgeRow{
		{SourceID: 3, TargetID: 4, Weight: 0.7, Type: "entity"},
	}))

	assert.Empty(t, c.Forward(1))
	require.Len(t, c.Forward(3), 1)
	assert.ElementsMatch(t, []int64{3, 4}, c.AllIDs())
}
