package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artemMprokhorov/hippograph-pro/domain/config"
)

func TestNewNode(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		category   string
		importance Importance
		wantErr    bool
	}{
		{name: "valid note", content: "Started neural network optimization", category: "work", importance: ImportanceNormal},
		{name: "empty content rejected", content: "", category: "work", importance: ImportanceNormal, wantErr: true},
		{name: "invalid importance rejected", content: "x", category: "work", importance: Importance("urgent"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := NewNode(tt.content, tt.category, tt.importance)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.content, n.Content())
			assert.Equal(t, tt.category, n.Category())
			assert.True(t, n.ID().IsZero(), "id is unassigned until AssignID")
		})
	}
}

func TestNode_AssignID_RaisesCreatedEvent(t *testing.T) {
	n, err := NewNode("note", "work", ImportanceNormal)
	require.NoError(t, err)

	n.AssignID(7)

	assert.EqualValues(t, 7, n.ID())
	evs := n.UncommittedEvents()
	require.Len(t, evs, 1)
	assert.Equal(t, "node.created", evs[0].EventType())

	n.MarkEventsCommitted()
	assert.Empty(t, n.UncommittedEvents())
}

func TestNode_UpdateContent_NoopOnUnchangedContent(t *testing.T) {
	n, err := NewNode("same content", "work", ImportanceNormal)
	require.NoError(t, err)
	n.AssignID(1)
	n.MarkEventsCommitted()

	err = n.UpdateContent("same content", 2)
	require.NoError(t, err)
	assert.Empty(t, n.UncommittedEvents(), "no event when content is unchanged")
}

func TestNode_UpdateContent_ChangedRaisesEvent(t *testing.T) {
	n, err := NewNode("original", "work", ImportanceNormal)
	require.NoError(t, err)
	n.AssignID(1)
	n.MarkEventsCommitted()

	err = n.UpdateContent("revised", 2)
	require.NoError(t, err)
	assert.Equal(t, "revised", n.Content())
	require.Len(t, n.UncommittedEvents(), 1)
}

func TestNode_SetEmotionalState_Bounds(t *testing.T) {
	n, err := NewNode("note", "work", ImportanceNormal)
	require.NoError(t, err)

	require.Error(t, n.SetEmotionalState(-1, 5, ""))
	require.Error(t, n.SetEmotionalState(5, 10.1, ""))
	require.NoError(t, n.SetEmotionalState(7, 3, "felt good"))
	assert.Equal(t, 7.0, n.EmotionalTone())
}

func TestNode_BoostToCritical(t *testing.T) {
	n, err := NewNode("note", "milestone", ImportanceNormal)
	require.NoError(t, err)

	changed := n.BoostToCritical()
	assert.True(t, changed)
	assert.Equal(t, ImportanceCritical, n.Importance())

	changed = n.BoostToCritical()
	assert.False(t, changed, "already critical, no-op")
}

func TestNode_ImportanceMultiplier(t *testing.T) {
	cfg := config.DefaultDomainConfig()

	critical, err := NewNode("a", "work", ImportanceCritical)
	require.NoError(t, err)
	normal, err := NewNode("b", "work", ImportanceNormal)
	require.NoError(t, err)

	assert.Equal(t, 2.0, critical.ImportanceMultiplier(cfg))
	assert.Equal(t, 1.0, normal.ImportanceMultiplier(cfg))
}

func TestNode_IsAnchor(t *testing.T) {
	cfg := config.DefaultDomainConfig()

	anchor, err := NewNode("a", "milestone", ImportanceNormal)
	require.NoError(t, err)
	nonAnchor, err := NewNode("b", "scratch", ImportanceNormal)
	require.NoError(t, err)

	assert.True(t, anchor.IsAnchor(cfg))
	assert.False(t, nonAnchor.IsAnchor(cfg))
}

func TestNode_RecordAccess(t *testing.T) {
	n, err := NewNode("note", "work", ImportanceNormal)
	require.NoError(t, err)

	at := time.Now().Add(time.Hour)
	n.RecordAccess(at)
	assert.EqualValues(t, 1, n.AccessCount())
	assert.Equal(t, at, n.LastAccessedAt())
}

func TestNode_SetPageRank_RejectsNegative(t *testing.T) {
	n, err := NewNode("note", "work", ImportanceNormal)
	require.NoError(t, err)

	require.Error(t, n.SetPageRank(-0.1))
	require.NoError(t, n.SetPageRank(0.42))
	assert.Equal(t, 0.42, n.PageRank())
}
