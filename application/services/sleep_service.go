package services

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/artemMprokhorov/hippograph-pro/application/ports"
	"github.com/artemMprokhorov/hippograph-pro/domain/config"
	"github.com/artemMprokhorov/hippograph-pro/domain/core/entities"
	"github.com/artemMprokhorov/hippograph-pro/domain/services"
	pkgerrors "github.com/artemMprokhorov/hippograph-pro/pkg/errors"
)

// SleepMode selects a light or deep maintenance cycle (§4.9).
type SleepMode string

const (
	SleepLight SleepMode = "light"
	SleepDeep  SleepMode = "deep"
)

// staleEdgeAge is the "now - last_touched_at > 90 days" threshold of §4.9 step 3.
const staleEdgeAge = 90 * 24 * time.Hour

// minSharedEntitiesForRelation is the threshold at which deep sleep
// promotes an entity co-occurrence between two nodes into an explicit
// typed-relation edge (§4.9's "typed-relation extraction ... create
// typed edges"). The spec names an external relation extractor that
// HippoGraph's capability surface (§6) never defines beyond entity
// extraction, so this reuses the entity-sharing signal §4.7 already
// maintains rather than inventing a new port; see DESIGN.md.
const minSharedEntitiesForRelation = 2

// StepResult is one maintenance step's outcome (§6 run_sleep).
type StepResult struct {
	Name     string
	Changes  int
	Duration time.Duration
	Detail   string
}

// SleepReport is run_sleep()'s return value.
type SleepReport struct {
	Mode  SleepMode
	Steps []StepResult
}

// SleepService implements the background maintenance cycle of §4.9:
// anchor boosting, stale-edge decay, near-duplicate scanning, PageRank,
// and (in deep mode) community detection, typed-relation extraction,
// and cluster summaries, all under snapshot+rollback discipline.
type SleepService struct {
	store     ports.Store
	graph     ports.GraphCache
	ann       ports.ANNIndex
	extractor ports.EntityExtractor
	cfg       *config.DomainConfig
	logger    *zap.Logger
	tracer    trace.Tracer

	lastDeepSleepAt time.Time
}

// NewSleepService constructs a sleep service. lastDeepSleepAt seeds the
// "nodes added since last deep-sleep" window (§4.9); callers restoring
// from a previous process should pass the persisted timestamp.
func NewSleepService(store ports.Store, graph ports.GraphCache, ann ports.ANNIndex, extractor ports.EntityExtractor, cfg *config.DomainConfig, logger *zap.Logger, lastDeepSleepAt time.Time, tracer trace.Tracer) *SleepService {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("hippograph")
	}
	return &SleepService{store: store, graph: graph, ann: ann, extractor: extractor, cfg: cfg, logger: logger, lastDeepSleepAt: lastDeepSleepAt, tracer: tracer}
}

// Run executes one maintenance cycle. On any step's unrecoverable
// error, the snapshot taken at step 1 is restored and the failure is
// recorded in the returned error (§4.9 step 6, §7 MaintenanceError).
func (s *SleepService) Run(ctx context.Context, mode SleepMode, dryRun bool) (report SleepReport, err error) {
	ctx, span := s.tracer.Start(ctx, "SleepService.Run",
		trace.WithAttributes(
			attribute.String("mode", string(mode)),
			attribute.Bool("dry_run", dryRun),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	report = SleepReport{Mode: mode}

	snapStart := time.Now()
	token, err := s.store.Snapshot(ctx)
	if err != nil {
		return report, pkgerrors.NewStepFailed("snapshot", err)
	}
	report.Steps = append(report.Steps, StepResult{Name: "snapshot", Changes: 0, Duration: time.Since(snapStart)})

	var failed bool
	var finalErr error

	rollback := func(name string, cause error) {
		s.logger.Error("maintenance step failed, rolling back", zap.String("step", name), zap.Error(cause))
		if !dryRun {
			if restoreErr := s.store.Restore(ctx, token); restoreErr != nil {
				s.logger.Error("snapshot restore failed", zap.Error(restoreErr))
			} else if edges, edgesErr := s.store.AllEdges(ctx); edgesErr != nil {
				s.logger.Error("graph cache rebuild after restore failed", zap.Error(edgesErr))
			} else {
				rows := make([]ports.CachedEdgeRow, 0, len(edges))
				for _, e := range edges {
					rows = append(rows, ports.CachedEdgeRow{SourceID: e.SourceID, TargetID: e.TargetID, Weight: e.Weight, Type: string(e.Type)})
				}
				if rebuildErr := s.graph.Rebuild(rows); rebuildErr != nil {
					s.logger.Error("graph cache rebuild after restore failed", zap.Error(rebuildErr))
				}
			}
		}
		failed = true
		finalErr = pkgerrors.NewStepFailed(name, cause)
	}

	step := func(name string, fn func() (int, string, error)) {
		if failed {
			return
		}
		stepStart := time.Now()
		changes, detail, err := fn()
		report.Steps = append(report.Steps, StepResult{Name: name, Changes: changes, Duration: time.Since(stepStart), Detail: detail})
		if err != nil {
			rollback(name, err)
		}
	}

	step("boost_anchors", func() (int, string, error) {
		n, err := s.boostAnchors(ctx, dryRun)
		return n, "", err
	})
	step("decay_stale_edges", func() (int, string, error) {
		n, err := s.decayStaleEdges(ctx, dryRun)
		return n, "", err
	})
	step("scan_near_duplicates", func() (int, string, error) {
		pairs, err := s.scanNearDuplicates(ctx)
		return len(pairs), summarizePairs(pairs), err
	})
	step("recompute_pagerank", func() (int, string, error) {
		n, err := s.recomputePageRank(ctx, dryRun)
		return n, "", err
	})

	if mode == SleepDeep && !failed {
		step("detect_communities", func() (int, string, error) {
			n, err := s.detectCommunities(ctx, dryRun)
			return n, "", err
		})
		step("extract_typed_relations", func() (int, string, error) {
			n, err := s.extractTypedRelations(ctx, dryRun)
			return n, "", err
		})
		step("materialize_cluster_summaries", func() (int, string, error) {
			summaries, err := s.clusterSummaries(ctx)
			return len(summaries), summarizeClusters(summaries), err
		})
		if !failed && !dryRun {
			s.lastDeepSleepAt = time.Now()
		}
	}

	if failed {
		return report, finalErr
	}
	return report, nil
}

// boostAnchors implements §4.9 light-sleep step 2.
func (s *SleepService) boostAnchors(ctx context.Context, dryRun bool) (int, error) {
	changes := 0
	filter := func(n *entities.Node) bool {
		return s.cfg.IsAnchorCategory(n.Category()) && n.Importance() != entities.ImportanceCritical
	}
	var stepErr error
	err := s.store.IterNodes(ctx, filter, func(n *entities.Node) bool {
		changes++
		if dryRun {
			return true
		}
		critical := entities.ImportanceCritical
		if _, err := s.store.UpdateNode(ctx, int64(n.ID()), ports.NodeUpdate{Importance: &critical}); err != nil {
			stepErr = err
			return false
		}
		return true
	})
	if err != nil {
		return changes, err
	}
	return changes, stepErr
}

// pairedEdgeKey identifies one semantic or entity edge's unordered
// endpoint pair and type, the unit DecayEdge actually decays (it
// auto-pairs both directions per call), even though AllEdges returns
// the pair as two independent rows.
type pairedEdgeKey struct {
	pair     [2]int64
	edgeType entities.EdgeType
}

// decayStaleEdges implements §4.9 light-sleep step 3: edges untouched
// for over 90 days decay by 5%, unless either endpoint is an anchor
// category (invariant 5's "protected from stale-edge decay"). Semantic
// and entity edges are stored as two rows per pair (invariant 1), and
// store.DecayEdge decays both directions on its first call for those
// types, so the pair's second row must be skipped here rather than
// decayed again, and the cache synced to the decay's actual final
// weight rather than its own stale pre-loop weight.
func (s *SleepService) decayStaleEdges(ctx context.Context, dryRun bool) (int, error) {
	edges, err := s.store.AllEdges(ctx)
	if err != nil {
		return 0, err
	}
	categories := make(map[int64]string)
	lookupCategory := func(id int64) string {
		if c, ok := categories[id]; ok {
			return c
		}
		node, err := s.store.GetNode(ctx, id)
		c := ""
		if err == nil {
			c = node.Category()
		}
		categories[id] = c
		return c
	}

	now := time.Now()
	changes := 0
	finalWeights := make(map[pairedEdgeKey]float64)
	for _, e := range edges {
		if now.Sub(e.LastTouchedAt) <= staleEdgeAge {
			continue
		}
		if s.cfg.IsAnchorCategory(lookupCategory(e.SourceID)) || s.cfg.IsAnchorCategory(lookupCategory(e.TargetID)) {
			continue
		}

		paired := e.Type == entities.EdgeTypeSemantic || e.Type == entities.EdgeTypeEntity
		key := pairedEdgeKey{pair: pairKey(e.SourceID, e.TargetID), edgeType: e.Type}
		if paired {
			if finalWeight, seen := finalWeights[key]; seen {
				if !dryRun {
					_ = s.graph.AddEdge(e.SourceID, e.TargetID, finalWeight, string(e.Type))
				}
				continue
			}
		}

		changes++
		finalWeight := e.Weight * 0.95
		if dryRun {
			if paired {
				finalWeights[key] = finalWeight
			}
			continue
		}
		if err := s.store.DecayEdge(ctx, e.SourceID, e.TargetID, e.Type, 0.95, now); err != nil {
			return changes, err
		}
		_ = s.graph.AddEdge(e.SourceID, e.TargetID, finalWeight, string(e.Type))
		if paired {
			finalWeights[key] = finalWeight
		}
	}
	return changes, nil
}

// DuplicatePair is a near-duplicate finding logged but never acted on
// automatically (§4.9 light-sleep step 4).
type DuplicatePair struct {
	NodeA, NodeB int64
	Similarity   float64
}

// scanNearDuplicates flags pairs with cosine similarity at or above the
// block threshold, reusing the ANN index rather than an O(n^2) compare.
func (s *SleepService) scanNearDuplicates(ctx context.Context) ([]DuplicatePair, error) {
	var pairs []DuplicatePair
	seen := make(map[[2]int64]bool)
	err := s.store.IterNodes(ctx, nil, func(n *entities.Node) bool {
		if n.Embedding().IsZero() {
			return true
		}
		hits, err := s.ann.Search(ctx, n.Embedding(), 5)
		if err != nil {
			return true
		}
		id := int64(n.ID())
		for _, h := range hits {
			if h.ID == id || h.Score < s.cfg.Duplicate.BlockThreshold {
				continue
			}
			key := pairKey(id, h.ID)
			if seen[key] {
				continue
			}
			seen[key] = true
			pairs = append(pairs, DuplicatePair{NodeA: key[0], NodeB: key[1], Similarity: h.Score})
		}
		return true
	})
	return pairs, err
}

// recomputePageRank implements §4.9 light-sleep step 5.
func (s *SleepService) recomputePageRank(ctx context.Context, dryRun bool) (int, error) {
	edges, err := s.store.AllEdges(ctx)
	if err != nil {
		return 0, err
	}
	ids, adj := buildAdjacency(ctx, s.store, edges)
	scores := services.PageRank(ids, adj, 20, 0.85)
	if dryRun {
		return len(scores), nil
	}
	if err := s.store.SetPageRank(ctx, scores); err != nil {
		return 0, err
	}
	return len(scores), nil
}

// detectCommunities implements deep sleep's community detection step.
func (s *SleepService) detectCommunities(ctx context.Context, dryRun bool) (int, error) {
	edges, err := s.store.AllEdges(ctx)
	if err != nil {
		return 0, err
	}
	ids, adj := buildAdjacency(ctx, s.store, edges)
	assignments := services.DetectCommunities(ids, adj)
	if dryRun {
		return len(assignments), nil
	}
	if err := s.store.SetCommunityID(ctx, assignments); err != nil {
		return 0, err
	}
	return len(assignments), nil
}

// extractTypedRelations implements deep sleep's typed-relation pass for
// nodes added since the last deep sleep (§4.9).
func (s *SleepService) extractTypedRelations(ctx context.Context, dryRun bool) (int, error) {
	var freshIDs []int64
	filter := func(n *entities.Node) bool { return n.CreatedAt().After(s.lastDeepSleepAt) }
	if err := s.store.IterNodes(ctx, filter, func(n *entities.Node) bool {
		freshIDs = append(freshIDs, int64(n.ID()))
		return true
	}); err != nil {
		return 0, err
	}

	changes := 0
	seen := make(map[[2]int64]bool)
	for _, id := range freshIDs {
		shared, err := s.store.NodesSharingEntities(ctx, id)
		if err != nil {
			return changes, err
		}
		for otherID, sharedCount := range shared {
			if otherID == id || sharedCount < minSharedEntitiesForRelation {
				continue
			}
			key := pairKey(id, otherID)
			if seen[key] {
				continue
			}
			seen[key] = true
			changes++
			if dryRun {
				continue
			}
			if err := s.store.AddEdge(ctx, key[0], key[1], 1.0, entities.EdgeTypeRelation, "co-occurring-entities"); err != nil {
				return changes, err
			}
		}
	}
	return changes, nil
}

// ClusterSummary names the top-PageRank node as a community's label
// (§4.9 "cluster summary materialization").
type ClusterSummary struct {
	CommunityID int
	LabelNodeID int64
}

// clusterSummaries computes, per community, the node with the highest
// PageRank as its label. Data model §3 has no dedicated summary table,
// so this is surfaced only as run_sleep diagnostics rather than
// persisted state; see DESIGN.md.
func (s *SleepService) clusterSummaries(ctx context.Context) ([]ClusterSummary, error) {
	byCommunity := make(map[int][]int64)
	scores := make(map[int64]float64)
	err := s.store.IterNodes(ctx, nil, func(n *entities.Node) bool {
		if cid, ok := n.CommunityID(); ok {
			id := int64(n.ID())
			byCommunity[cid] = append(byCommunity[cid], id)
			scores[id] = n.PageRank()
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	var summaries []ClusterSummary
	for cid, ids := range byCommunity {
		if top, ok := services.TopByPageRank(ids, scores); ok {
			summaries = append(summaries, ClusterSummary{CommunityID: cid, LabelNodeID: top})
		}
	}
	return summaries, nil
}

func pairKey(a, b int64) [2]int64 {
	if a < b {
		return [2]int64{a, b}
	}
	return [2]int64{b, a}
}

func buildAdjacency(ctx context.Context, store ports.Store, edges []ports.StoredEdge) ([]int64, services.AdjacencyList) {
	adj := make(services.AdjacencyList)
	idSet := make(map[int64]struct{})
	for _, e := range edges {
		adj[e.SourceID] = append(adj[e.SourceID], services.WeightedEdge{Source: e.SourceID, Target: e.TargetID, Weight: e.Weight})
		idSet[e.SourceID] = struct{}{}
		idSet[e.TargetID] = struct{}{}
	}
	_ = store.IterNodes(ctx, nil, func(n *entities.Node) bool {
		idSet[int64(n.ID())] = struct{}{}
		return true
	})
	ids := make([]int64, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	return ids, adj
}

func summarizePairs(pairs []DuplicatePair) string {
	if len(pairs) == 0 {
		return ""
	}
	return fmt.Sprintf("%d near-duplicate pair(s) flagged, not deleted", len(pairs))
}

func summarizeClusters(summaries []ClusterSummary) string {
	if len(summaries) == 0 {
		return ""
	}
	return fmt.Sprintf("%d cluster label(s) computed", len(summaries))
}
