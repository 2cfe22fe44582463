// Package ports defines the interfaces application services depend on;
// concrete implementations live under infrastructure/. This is a port
// in hexagonal architecture — the domain and application layers never
// import an infrastructure package directly.
package ports

import (
	"context"
	"time"

	"github.com/artemMprokhorov/hippograph-pro/domain/core/entities"
)

// NeighborEdge is a single adjacency entry returned by Store.Neighbors.
type NeighborEdge struct {
	TargetID int64
	Weight   float64
	Type     entities.EdgeType
}

// NodeUpdate carries the optional fields update() may change; nil means
// "leave unchanged".
type NodeUpdate struct {
	Content    *string
	Category   *string
	Importance *entities.Importance
}

// SnapshotToken identifies a store snapshot taken for sleep-cycle
// rollback or explicit backup (§4.1, §9).
type SnapshotToken string

// Store is the persistent graph: nodes, typed edges, entities and
// versions, with every mutating operation atomic across its derived
// indices (§4.1). It does not hold the search log; search-log entries
// live in memory in infrastructure/searchlog.Logger.
type Store interface {
	// InsertNode persists a new node and assigns it a stable id.
	InsertNode(ctx context.Context, node *entities.Node) (int64, error)
	// UpdateNode applies a partial update, snapshotting the prior
	// content into a NodeVersion when content changes.
	UpdateNode(ctx context.Context, id int64, fields NodeUpdate) (version int, err error)
	// DeleteNode removes a node and, in the same commit, all incident
	// edges, node-entity links, and versions (invariant 7).
	DeleteNode(ctx context.Context, id int64) error
	// GetNode retrieves a node by id, or a StoreError::NotFound.
	GetNode(ctx context.Context, id int64) (*entities.Node, error)
	// IterNodes streams nodes matching filter to fn; fn returning false stops iteration.
	IterNodes(ctx context.Context, filter func(*entities.Node) bool, fn func(*entities.Node) bool) error

	// UpsertEntity canonicalizes and stores an entity, returning its id.
	UpsertEntity(ctx context.Context, name string, entityType entities.EntityType) (int64, error)
	// Link records a many-to-many node-entity association.
	Link(ctx context.Context, nodeID, entityID int64, confidence float64) error
	// HasEntityOfType reports whether nodeID is linked to any entity of entityType.
	HasEntityOfType(ctx context.Context, nodeID int64, entityType string) (bool, error)
	// EntitiesForNode returns every entity linked to nodeID.
	EntitiesForNode(ctx context.Context, nodeID int64) ([]*entities.Entity, error)
	// NodesSharingEntities returns, for each entity linked to nodeID,
	// the other node ids linked to it and the count of entities shared
	// with each (§4.7's shared_count).
	NodesSharingEntities(ctx context.Context, nodeID int64) (map[int64]int, error)

	// AddEdge is idempotent on (source,target,type): repeated calls
	// update weight and last_touched_at rather than duplicating rows.
	AddEdge(ctx context.Context, sourceID, targetID int64, weight float64, edgeType entities.EdgeType, relationName string) error
	// RemoveEdge deletes a single directed edge.
	RemoveEdge(ctx context.Context, sourceID, targetID int64, edgeType entities.EdgeType) error
	// DecayEdge multiplies an edge's weight by factor in place, unlike
	// AddEdge which merges by max; used by light-sleep's stale-edge
	// decay step (§4.9 step 3). A no-op if the edge does not exist.
	DecayEdge(ctx context.Context, sourceID, targetID int64, edgeType entities.EdgeType, factor float64, at time.Time) error
	// Neighbors returns the outgoing edges of a node.
	Neighbors(ctx context.Context, id int64) ([]NeighborEdge, error)
	// AllEdges returns every edge in the store, for maintenance algorithms
	// that need the full adjacency (PageRank, community detection).
	AllEdges(ctx context.Context) ([]StoredEdge, error)

	// GetHistory returns a node's retained versions, oldest first.
	GetHistory(ctx context.Context, id int64) ([]entities.NodeVersion, error)
	// RestoreVersion replaces a node's content with a retained version's
	// content, a no-op on content if it already equals the current one.
	RestoreVersion(ctx context.Context, id int64, version int) error

	// RecordAccess increments access_count and bumps last_accessed_at
	// for the given ids, applied only on a search's successful return.
	RecordAccess(ctx context.Context, ids []int64, at time.Time) error

	// SetPageRank and SetCommunityID are maintenance write-back hooks.
	SetPageRank(ctx context.Context, scores map[int64]float64) error
	SetCommunityID(ctx context.Context, assignments map[int64]int) error

	// NodeCount, EdgeCount, EntityCount support stats().
	NodeCount(ctx context.Context) (int, error)
	EdgeCount(ctx context.Context) (int, error)
	EntityCount(ctx context.Context) (int, error)
	Categories(ctx context.Context) (map[string]int, error)

	// Snapshot takes a copy-on-write snapshot and returns its token.
	Snapshot(ctx context.Context) (SnapshotToken, error)
	// Restore returns the store to a snapshot's state and signals
	// callers to rebuild derived indices from scratch.
	Restore(ctx context.Context, token SnapshotToken) error

	// Close releases underlying resources.
	Close() error
}

// StoredEdge is the full persisted edge row, used by maintenance passes
// that need every edge rather than one node's adjacency.
type StoredEdge struct {
	SourceID     int64
	TargetID     int64
	Weight       float64
	Type         entities.EdgeType
	RelationName string
	CreatedAt    time.Time
	LastTouchedAt time.Time
}
