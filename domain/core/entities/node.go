// Package entities holds the rich domain model: Node, Edge, Entity, and
// their supporting value types.
package entities

import (
	"time"

	"github.com/artemMprokhorov/hippograph-pro/domain/config"
	"github.com/artemMprokhorov/hippograph-pro/domain/core/valueobjects"
	"github.com/artemMprokhorov/hippograph-pro/domain/events"
	pkgerrors "github.com/artemMprokhorov/hippograph-pro/pkg/errors"
)

// Importance is a node's retrieval-weight tier.
type Importance string

const (
	ImportanceCritical Importance = "critical"
	ImportanceNormal   Importance = "normal"
	ImportanceLow      Importance = "low"
)

// IsValid reports whether the importance level is one of the three known tiers.
func (i Importance) IsValid() bool {
	switch i {
	case ImportanceCritical, ImportanceNormal, ImportanceLow:
		return true
	default:
		return false
	}
}

// String returns the importance level as a plain string.
func (i Importance) String() string { return string(i) }

// Node is one note: the unit of storage, embedding, and retrieval.
// Fields are private; mutation happens only through the methods below so
// that every state change can validate invariants and raise the matching
// domain event.
type Node struct {
	id        valueobjects.NodeID
	content   string
	category  string
	importance Importance

	createdAt      time.Time
	lastAccessedAt time.Time
	tEventStart    *time.Time
	tEventEnd      *time.Time
	accessCount    int64

	emotionalTone       float64
	emotionalIntensity  float64
	emotionalReflection string

	pagerank    float64
	communityID *int

	embedding valueobjects.Embedding

	events []events.DomainEvent
}

// NewNode constructs a node for ingestion. The embedding is attached
// separately via SetEmbedding once the embedder has run, since embedding
// is an external call the constructor must not perform.
func NewNode(content, category string, importance Importance) (*Node, error) {
	if content == "" {
		return nil, pkgerrors.NewValidationError("content cannot be empty")
	}
	if !importance.IsValid() {
		return nil, pkgerrors.NewValidationError("importance must be critical, normal, or low")
	}

	now := time.Now()
	n := &Node{
		content:        content,
		category:       category,
		importance:     importance,
		createdAt:      now,
		lastAccessedAt: now,
		accessCount:    0,
	}
	return n, nil
}

// ReconstructNode rebuilds a node from persisted fields, preserving its
// assigned id and timestamps. Used by the store when loading from disk.
func ReconstructNode(
	id int64,
	content, category string,
	importance Importance,
	createdAt, lastAccessedAt time.Time,
	tEventStart, tEventEnd *time.Time,
	accessCount int64,
	emotionalTone, emotionalIntensity float64,
	emotionalReflection string,
	pagerank float64,
	communityID *int,
	embedding valueobjects.Embedding,
) *Node {
	return &Node{
		id:                  valueobjects.NodeID(id),
		content:             content,
		category:            category,
		importance:          importance,
		createdAt:           createdAt,
		lastAccessedAt:      lastAccessedAt,
		tEventStart:         tEventStart,
		tEventEnd:           tEventEnd,
		accessCount:         accessCount,
		emotionalTone:       emotionalTone,
		emotionalIntensity:  emotionalIntensity,
		emotionalReflection: emotionalReflection,
		pagerank:            pagerank,
		communityID:         communityID,
		embedding:           embedding,
	}
}

// AssignID is called once by the store, inside the writer lock, when a
// new node is persisted for the first time.
func (n *Node) AssignID(id int64) {
	n.id = valueobjects.NodeID(id)
	n.addEvent(events.NewNodeCreated(id, n.category))
}

func (n *Node) ID() valueobjects.NodeID        { return n.id }
func (n *Node) Content() string                { return n.content }
func (n *Node) Category() string               { return n.category }
func (n *Node) Importance() Importance         { return n.importance }
func (n *Node) CreatedAt() time.Time           { return n.createdAt }
func (n *Node) LastAccessedAt() time.Time      { return n.lastAccessedAt }
func (n *Node) AccessCount() int64             { return n.accessCount }
func (n *Node) EmotionalTone() float64         { return n.emotionalTone }
func (n *Node) EmotionalIntensity() float64    { return n.emotionalIntensity }
func (n *Node) EmotionalReflection() string    { return n.emotionalReflection }
func (n *Node) PageRank() float64              { return n.pagerank }
func (n *Node) Embedding() valueobjects.Embedding { return n.embedding }

// EventTimeRange returns the node's bi-temporal event window. Either end
// may be nil (§9: open-ended ranges are "unknown", never guessed).
func (n *Node) EventTimeRange() (start, end *time.Time) { return n.tEventStart, n.tEventEnd }

// CommunityID returns the maintenance-assigned cluster id, if any.
func (n *Node) CommunityID() (int, bool) {
	if n.communityID == nil {
		return 0, false
	}
	return *n.communityID, true
}

// SetEmbedding attaches the embedding produced by the external embedder.
func (n *Node) SetEmbedding(e valueobjects.Embedding) { n.embedding = e }

// SetEventTimeRange records a resolved bi-temporal window from the date resolver.
func (n *Node) SetEventTimeRange(start, end *time.Time) {
	n.tEventStart = start
	n.tEventEnd = end
}

// SetEmotionalState sets the optional emotional metadata supplied at ingest.
func (n *Node) SetEmotionalState(tone, intensity float64, reflection string) error {
	if tone < 0 || tone > 10 {
		return pkgerrors.NewValidationError("emotional_tone must be in [0,10]")
	}
	if intensity < 0 || intensity > 10 {
		return pkgerrors.NewValidationError("emotional_intensity must be in [0,10]")
	}
	n.emotionalTone = tone
	n.emotionalIntensity = intensity
	n.emotionalReflection = reflection
	return nil
}

// ContentChanged reports whether newContent differs from the current
// content, used by update() to decide whether to snapshot a version and
// (per Open Question #2) whether to re-run entity extraction.
func (n *Node) ContentChanged(newContent string) bool {
	return newContent != "" && newContent != n.content
}

// UpdateContent replaces the node's content. Callers are responsible for
// snapshotting the prior content into a NodeVersion before calling this,
// since the version cap (5) is enforced at the version-collection level,
// not here.
func (n *Node) UpdateContent(newContent string, newVersion int) error {
	if newContent == "" {
		return pkgerrors.NewValidationError("content cannot be empty")
	}
	if !n.ContentChanged(newContent) {
		return nil
	}
	n.content = newContent
	n.addEvent(events.NewNodeContentUpdated(int64(n.id), newVersion))
	return nil
}

// RestoreContent replaces content from a prior version without counting
// as a new edit (restore_version is a no-op on content when restoring
// the current latest version).
func (n *Node) RestoreContent(content string, fromVersion int) {
	n.content = content
	n.addEvent(events.NewNodeRestored(int64(n.id), fromVersion))
}

// SetCategory changes the node's category.
func (n *Node) SetCategory(category string) error {
	if category == "" {
		return pkgerrors.NewValidationError("category cannot be empty")
	}
	n.category = category
	return nil
}

// SetImportance changes the importance tier, raising ImportanceChanged.
func (n *Node) SetImportance(level Importance) error {
	if !level.IsValid() {
		return pkgerrors.NewValidationError("importance must be critical, normal, or low")
	}
	if level == n.importance {
		return nil
	}
	n.importance = level
	n.addEvent(events.NewImportanceChanged(int64(n.id), level.String()))
	return nil
}

// BoostToCritical upgrades importance to critical if it is lower
// (invariant 5's companion rule). SleepService's anchor-boost step does
// not call it; it sets the importance through Store.UpdateNode.
func (n *Node) BoostToCritical() bool {
	if n.importance == ImportanceCritical {
		return false
	}
	_ = n.SetImportance(ImportanceCritical)
	return true
}

// ImportanceMultiplier returns the activation multiplier for this node's
// current importance tier (invariant 4).
func (n *Node) ImportanceMultiplier(cfg *config.DomainConfig) float64 {
	return cfg.ImportanceMultiplier(n.importance.String())
}

// RecordAccess increments access_count and bumps last_accessed_at; called
// only on a search's successful, non-cancelled return (§5 ordering rule).
func (n *Node) RecordAccess(at time.Time) {
	n.accessCount++
	n.lastAccessedAt = at
}

// SetPageRank writes a maintenance-recomputed PageRank value.
func (n *Node) SetPageRank(pr float64) error {
	if pr < 0 {
		return pkgerrors.NewValidationError("pagerank must be non-negative")
	}
	n.pagerank = pr
	return nil
}

// SetCommunityID records a maintenance-assigned cluster id.
func (n *Node) SetCommunityID(id int) {
	n.communityID = &id
}

// IsAnchor reports whether this node's category is exempt from temporal
// and stale-edge decay (invariant 5).
func (n *Node) IsAnchor(cfg *config.DomainConfig) bool {
	return cfg.IsAnchorCategory(n.category)
}

// UncommittedEvents returns events raised since construction or the last
// MarkEventsCommitted call.
func (n *Node) UncommittedEvents() []events.DomainEvent { return n.events }

// MarkEventsCommitted clears the uncommitted event buffer after persistence.
func (n *Node) MarkEventsCommitted() { n.events = nil }

func (n *Node) addEvent(e events.DomainEvent) { n.events = append(n.events, e) }
