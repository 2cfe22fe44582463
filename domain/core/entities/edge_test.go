package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEdge(t *testing.T) {
	tests := []struct {
		name     string
		source   int64
		target   int64
		weight   float64
		edgeType EdgeType
		relName  string
		wantErr  bool
	}{
		{name: "valid semantic edge", source: 1, target: 2, weight: 0.5, edgeType: EdgeTypeSemantic},
		{name: "self loop rejected", source: 1, target: 1, weight: 0.5, edgeType: EdgeTypeSemantic, wantErr: true},
		{name: "weight above 1 rejected", source: 1, target: 2, weight: 1.5, edgeType: EdgeTypeSemantic, wantErr: true},
		{name: "weight below 0 rejected", source: 1, target: 2, weight: -0.1, edgeType: EdgeTypeSemantic, wantErr: true},
		{name: "unknown type rejected", source: 1, target: 2, weight: 0.5, edgeType: EdgeType("bogus"), wantErr: true},
		{name: "typed relation without name rejected", source: 1, target: 2, weight: 0.5, edgeType: EdgeTypeRelation, wantErr: true},
		{name: "typed relation with name ok", source: 1, target: 2, weight: 0.5, edgeType: EdgeTypeRelation, relName: "caused_by"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEdge(tt.source, tt.target, tt.weight, tt.edgeType, tt.relName)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.source, e.SourceID())
			assert.Equal(t, tt.target, e.TargetID())
		})
	}
}

func TestEdge_Reverse_MatchesPairingInvariant(t *testing.T) {
	e, err := NewEdge(1, 2, 0.7, EdgeTypeSemantic, "")
	require.NoError(t, err)

	rev := e.Reverse()
	assert.Equal(t, e.TargetID(), rev.SourceID())
	assert.Equal(t, e.SourceID(), rev.TargetID())
	assert.Equal(t, e.Weight(), rev.Weight())
	assert.Equal(t, e.Type(), rev.Type())
}

func TestEdge_IsPaired(t *testing.T) {
	semantic, _ := NewEdge(1, 2, 0.5, EdgeTypeSemantic, "")
	relation, _ := NewEdge(1, 2, 0.5, EdgeTypeRelation, "caused_by")

	assert.True(t, semantic.IsPaired())
	assert.False(t, relation.IsPaired())
}

func TestEdge_Touch_IsIdempotentUpdate(t *testing.T) {
	e, err := NewEdge(1, 2, 0.5, EdgeTypeSemantic, "")
	require.NoError(t, err)

	later := e.LastTouchedAt().Add(time.Minute)
	require.NoError(t, e.Touch(0.8, later))
	assert.Equal(t, 0.8, e.Weight())
	assert.Equal(t, later, e.LastTouchedAt())
}

func TestEdge_MergeWeight_TakesMax(t *testing.T) {
	e, err := NewEdge(1, 2, 0.5, EdgeTypeEntity, "")
	require.NoError(t, err)

	e.MergeWeight(0.3, time.Now())
	assert.Equal(t, 0.5, e.Weight(), "lower incoming weight is ignored")

	e.MergeWeight(0.9, time.Now())
	assert.Equal(t, 0.9, e.Weight())

	e.MergeWeight(1.5, time.Now())
	assert.Equal(t, 1.0, e.Weight(), "merged weight is capped at 1.0")
}

func TestEdge_Decay(t *testing.T) {
	e, err := NewEdge(1, 2, 1.0, EdgeTypeSemantic, "")
	require.NoError(t, err)

	e.Decay(0.95, time.Now())
	assert.InDelta(t, 0.95, e.Weight(), 1e-9)
}

func TestEdge_IsStale(t *testing.T) {
	e, err := NewEdge(1, 2, 0.5, EdgeTypeSemantic, "")
	require.NoError(t, err)

	now := e.LastTouchedAt().Add(100 * 24 * time.Hour)
	assert.True(t, e.IsStale(now, 90*24*time.Hour))
	assert.False(t, e.IsStale(e.LastTouchedAt().Add(time.Hour), 90*24*time.Hour))
}
