// Package services orchestrates the domain model and ports into the
// ingest, retrieval, and maintenance pipelines (§4.6-§4.9), the way the
// teacher's application/services package wires repositories and domain
// aggregates into EdgeService/GraphLoader.
package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/artemMprokhorov/hippograph-pro/application/ports"
	"github.com/artemMprokhorov/hippograph-pro/domain/core/entities"
)

// EntityLinker implements §4.7: canonicalize extracted surface forms,
// upsert them as entities, link them to the node, and create the
// bidirectional entity edges that follow from entities shared with
// other nodes.
type EntityLinker struct {
	store ports.Store
	graph ports.GraphCache
	logger *zap.Logger
}

// NewEntityLinker constructs a linker over the store and graph cache it
// must keep in lock-step.
func NewEntityLinker(store ports.Store, graph ports.GraphCache, logger *zap.Logger) *EntityLinker {
	return &EntityLinker{store: store, graph: graph, logger: logger}
}

// LinkResult reports what a linking pass did, for ingest diagnostics.
type LinkResult struct {
	LinkedEntityIDs []int64
	EdgesCreated    int
}

// Link canonicalizes each extracted entity, upserts it, links it to
// nodeID, and then fans out bidirectional entity edges to every other
// node that shares at least one of those entities, weighted by shared
// entity count (§4.7).
func (l *EntityLinker) Link(ctx context.Context, nodeID int64, extracted []ports.ExtractedEntity) (LinkResult, error) {
	result := LinkResult{}
	if len(extracted) == 0 {
		return result, nil
	}

	for _, ext := range extracted {
		canonical := entities.CanonicalizeSurface(ext.Surface)
		if canonical == "" {
			continue
		}
		entityID, err := l.store.UpsertEntity(ctx, canonical, entities.EntityType(ext.Type))
		if err != nil {
			return result, fmt.Errorf("upsert entity %q: %w", canonical, err)
		}
		if err := l.store.Link(ctx, nodeID, entityID, ext.Confidence); err != nil {
			return result, fmt.Errorf("link node %d to entity %d: %w", nodeID, entityID, err)
		}
		result.LinkedEntityIDs = append(result.LinkedEntityIDs, entityID)
	}

	if len(result.LinkedEntityIDs) == 0 {
		return result, nil
	}

	shared, err := l.store.NodesSharingEntities(ctx, nodeID)
	if err != nil {
		return result, fmt.Errorf("find nodes sharing entities with %d: %w", nodeID, err)
	}

	for otherID, sharedCount := range shared {
		if otherID == nodeID {
			continue
		}
		weight := entityEdgeWeight(sharedCount)
		if err := l.store.AddEdge(ctx, nodeID, otherID, weight, entities.EdgeTypeEntity, ""); err != nil {
			return result, fmt.Errorf("add entity edge %d->%d: %w", nodeID, otherID, err)
		}
		l.mirrorIntoGraphCache(nodeID, otherID, weight)
		result.EdgesCreated++
	}

	l.logger.Debug("linked entities",
		zap.Int64("nodeID", nodeID),
		zap.Int("entityCount", len(result.LinkedEntityIDs)),
		zap.Int("edgesCreated", result.EdgesCreated),
	)
	return result, nil
}

// entityEdgeWeight implements §4.7's weight formula: min(1, 0.5 + 0.1 *
// shared_count). The store's AddEdge already merges by max with any
// existing weight (Edge.MergeWeight), so this only needs to compute the
// candidate weight for this link.
func entityEdgeWeight(sharedCount int) float64 {
	w := 0.5 + 0.1*float64(sharedCount)
	if w > 1 {
		w = 1
	}
	return w
}

// mirrorIntoGraphCache keeps the in-memory adjacency consistent with the
// store's auto-paired entity edge without a second store round trip;
// the graph cache's AddEdge is idempotent, matching AddEdge's own
// pairing contract (§3 invariant 1).
func (l *EntityLinker) mirrorIntoGraphCache(nodeID, otherID int64, weight float64) {
	_ = l.graph.AddEdge(nodeID, otherID, weight, string(entities.EdgeTypeEntity))
	_ = l.graph.AddEdge(otherID, nodeID, weight, string(entities.EdgeTypeEntity))
}
