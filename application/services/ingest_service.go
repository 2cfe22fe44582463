package services

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/artemMprokhorov/hippograph-pro/application/ports"
	"github.com/artemMprokhorov/hippograph-pro/domain/config"
	"github.com/artemMprokhorov/hippograph-pro/domain/core/entities"
	"github.com/artemMprokhorov/hippograph-pro/domain/core/valueobjects"
	pkgerrors "github.com/artemMprokhorov/hippograph-pro/pkg/errors"
)

// AddRequest carries the Ingest API's add() parameters (§6).
type AddRequest struct {
	Content             string
	Category            string
	Importance          entities.Importance
	EmotionalTone       float64
	EmotionalIntensity  float64
	EmotionalReflection string
	Force               bool
}

// AddResult is add()'s return value, including the optional
// near-duplicate warning §4.8 describes for the 0.90-0.95 band.
type AddResult struct {
	ID                int64
	DuplicateWarningID int64
	HasDuplicateWarning bool
	Degraded          bool
	DegradationReason string
}

// IngestService implements the write path (§2): embed, duplicate
// check, persist, extract and link entities, create semantic and
// entity edges, and keep every derived index consistent in the same
// logical commit as the store write.
type IngestService struct {
	store     ports.Store
	ann       ports.ANNIndex
	bm25      ports.BM25Index
	graph     ports.GraphCache
	embCache  ports.EmbeddingCache
	embedder  ports.Embedder
	extractor ports.EntityExtractor
	dates     ports.DateResolver
	linker    *EntityLinker
	cfg       *config.DomainConfig
	logger    *zap.Logger
	tracer    trace.Tracer
}

// NewIngestService wires every port the write path touches.
func NewIngestService(
	store ports.Store,
	ann ports.ANNIndex,
	bm25 ports.BM25Index,
	graph ports.GraphCache,
	embCache ports.EmbeddingCache,
	embedder ports.Embedder,
	extractor ports.EntityExtractor,
	dates ports.DateResolver,
	linker *EntityLinker,
	cfg *config.DomainConfig,
	logger *zap.Logger,
	tracer trace.Tracer,
) *IngestService {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("hippograph")
	}
	return &IngestService{
		store: store, ann: ann, bm25: bm25, graph: graph, embCache: embCache,
		embedder: embedder, extractor: extractor, dates: dates, linker: linker,
		cfg: cfg, logger: logger, tracer: tracer,
	}
}

// Add runs the full ingestion pipeline for a new note (§2, §4.8).
func (s *IngestService) Add(ctx context.Context, req AddRequest) (result AddResult, err error) {
	ctx, span := s.tracer.Start(ctx, "IngestService.Add",
		trace.WithAttributes(
			attribute.String("category", req.Category),
			attribute.Int("content.length", len(req.Content)),
			attribute.Bool("force", req.Force),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if req.Content == "" {
		return AddResult{}, pkgerrors.NewInvalidInput("content", "cannot be empty")
	}
	importance := req.Importance
	if importance == "" {
		importance = entities.ImportanceNormal
	}

	node, err := entities.NewNode(req.Content, req.Category, importance)
	if err != nil {
		return AddResult{}, err
	}
	if req.EmotionalTone != 0 || req.EmotionalIntensity != 0 || req.EmotionalReflection != "" {
		if err := node.SetEmotionalState(req.EmotionalTone, req.EmotionalIntensity, req.EmotionalReflection); err != nil {
			return AddResult{}, err
		}
	}

	vector, embedErr := s.embedder.Encode(ctx, req.Content)
	if embedErr != nil {
		return AddResult{}, pkgerrors.NewEmbeddingFailed(embedErr)
	}
	node.SetEmbedding(vector)

	if s.dates != nil {
		if start, end, dateErr := s.dates.Resolve(ctx, req.Content, node.CreatedAt()); dateErr == nil {
			node.SetEventTimeRange(start, end)
		}
	}

	neighbors, err := s.ann.Search(ctx, vector, s.cfg.SemanticEdge.TopK)
	if err != nil {
		return AddResult{}, pkgerrors.NewStoreFailed(pkgerrors.ErrorTypeIngest, err)
	}

	result = AddResult{}
	if len(neighbors) > 0 {
		top := neighbors[0]
		switch {
		case top.Score >= s.cfg.Duplicate.BlockThreshold && !req.Force:
			return AddResult{}, pkgerrors.NewDuplicate(top.ID)
		case top.Score >= s.cfg.Duplicate.WarnThreshold:
			result.HasDuplicateWarning = true
			result.DuplicateWarningID = top.ID
		}
	}

	id, err := s.store.InsertNode(ctx, node)
	if err != nil {
		return AddResult{}, pkgerrors.NewStoreFailed(pkgerrors.ErrorTypeIngest, err)
	}
	result.ID = id

	// §4.1/§4.2: the store row and every derived index must observe
	// the new node together or not at all. A failure past this point
	// undoes the store insert rather than leaving a node the ANN/BM25
	// indexes don't know about.
	if err := s.ann.Add(ctx, id, vector); err != nil {
		s.rollbackInsert(ctx, id)
		return AddResult{}, pkgerrors.NewStoreFailed(pkgerrors.ErrorTypeIngest, err)
	}
	if err := s.bm25.Add(ctx, id, req.Content); err != nil {
		s.rollbackInsert(ctx, id)
		return AddResult{}, pkgerrors.NewStoreFailed(pkgerrors.ErrorTypeIngest, err)
	}
	s.embCache.Set(id, vector)

	if err := s.createSemanticEdges(ctx, id, vector, neighbors); err != nil {
		s.rollbackInsert(ctx, id)
		return AddResult{}, err
	}

	extracted, extractErr := s.extractor.Extract(ctx, req.Content)
	if extractErr != nil {
		result.Degraded = true
		result.DegradationReason = "entity extraction unavailable"
		extracted = nil
	}
	if len(extracted) > 0 {
		if _, err := s.linker.Link(ctx, id, extracted); err != nil {
			return AddResult{}, fmt.Errorf("link entities for node %d: %w", id, err)
		}
	}

	s.logger.Info("ingested node",
		zap.Int64("id", id),
		zap.String("category", req.Category),
		zap.Bool("degraded", result.Degraded),
	)
	return result, nil
}

// rollbackInsert undoes a partially-applied Add when a post-InsertNode
// step fails, so the store never keeps a node the ANN/BM25 indexes or
// graph cache don't also observe (§4.1, §4.2). Best-effort: index and
// cache removal can't themselves fail the caller's in-flight error, but
// failures are logged since a missed rollback reopens the same gap
// this routine exists to close.
func (s *IngestService) rollbackInsert(ctx context.Context, id int64) {
	if err := s.ann.Remove(ctx, id); err != nil {
		s.logger.Warn("rollback: ann.Remove failed", zap.Int64("id", id), zap.Error(err))
	}
	if err := s.bm25.Remove(ctx, id); err != nil {
		s.logger.Warn("rollback: bm25.Remove failed", zap.Int64("id", id), zap.Error(err))
	}
	s.embCache.Delete(id)
	for _, edge := range s.graph.Forward(id) {
		_ = s.graph.RemoveEdge(id, edge.NeighborID, edge.Type)
		_ = s.graph.RemoveEdge(edge.NeighborID, id, edge.Type)
	}
	if err := s.store.DeleteNode(ctx, id); err != nil {
		s.logger.Error("rollback: store.DeleteNode failed, store/index state may now diverge",
			zap.Int64("id", id), zap.Error(err))
	}
}

// createSemanticEdges pairs the new node with its ANN neighbors above
// SemanticEdge.Threshold, weighted by cosine similarity (§2's "create
// semantic ... edges"); AddEdge already auto-pairs both directions for
// EdgeTypeSemantic (invariant 1).
func (s *IngestService) createSemanticEdges(ctx context.Context, id int64, vector valueobjects.Embedding, neighbors []ports.ScoredID) error {
	for _, n := range neighbors {
		if n.ID == id || n.Score < s.cfg.SemanticEdge.Threshold {
			continue
		}
		weight := n.Score
		if weight > 1 {
			weight = 1
		}
		if err := s.store.AddEdge(ctx, id, n.ID, weight, entities.EdgeTypeSemantic, ""); err != nil {
			return pkgerrors.NewStoreFailed(pkgerrors.ErrorTypeIngest, err)
		}
		_ = s.graph.AddEdge(id, n.ID, weight, string(entities.EdgeTypeSemantic))
		_ = s.graph.AddEdge(n.ID, id, weight, string(entities.EdgeTypeSemantic))
	}
	return nil
}

// UpdateRequest carries update()'s optional fields (§6).
type UpdateRequest struct {
	ID       int64
	Content  *string
	Category *string
}

// Update applies a partial update, snapshotting a version on content
// change and optionally re-running entity extraction per Open Question
// Decision #2 (SPEC_FULL.md §13).
func (s *IngestService) Update(ctx context.Context, req UpdateRequest) (int, error) {
	version, err := s.store.UpdateNode(ctx, req.ID, ports.NodeUpdate{Content: req.Content, Category: req.Category})
	if err != nil {
		return 0, err
	}
	if version == 0 || req.Content == nil || !s.cfg.ReExtractEntitiesOnUpdate {
		return version, nil
	}

	extracted, err := s.extractor.Extract(ctx, *req.Content)
	if err != nil || len(extracted) == 0 {
		return version, nil
	}
	if _, err := s.linker.Link(ctx, req.ID, extracted); err != nil {
		return version, fmt.Errorf("re-link entities for node %d: %w", req.ID, err)
	}
	return version, nil
}

// Delete removes a node and its incident edges/links/versions from the
// store, then evicts it from every derived index in the same logical
// commit (invariant 7).
func (s *IngestService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteNode(ctx, id); err != nil {
		return err
	}
	if err := s.ann.Remove(ctx, id); err != nil {
		return pkgerrors.NewStoreFailed(pkgerrors.ErrorTypeIngest, err)
	}
	if err := s.bm25.Remove(ctx, id); err != nil {
		return pkgerrors.NewStoreFailed(pkgerrors.ErrorTypeIngest, err)
	}
	s.embCache.Delete(id)
	for _, neighbor := range s.graph.Forward(id) {
		_ = s.graph.RemoveEdge(id, neighbor.NeighborID, neighbor.Type)
	}
	for _, neighbor := range s.graph.Reverse(id) {
		_ = s.graph.RemoveEdge(neighbor.NeighborID, id, neighbor.Type)
	}
	return nil
}

// SetImportance changes a node's importance tier (§6).
func (s *IngestService) SetImportance(ctx context.Context, id int64, level entities.Importance) error {
	_, err := s.store.UpdateNode(ctx, id, ports.NodeUpdate{Importance: &level})
	return err
}

// FindSimilar implements find_similar(content, limit, threshold) (§6):
// embed the probe text and return ANN hits at or above threshold.
func (s *IngestService) FindSimilar(ctx context.Context, content string, limit int, threshold float64) ([]ports.ScoredID, error) {
	vector, err := s.embedder.Encode(ctx, content)
	if err != nil {
		return nil, pkgerrors.NewEmbeddingFailed(err)
	}
	hits, err := s.ann.Search(ctx, vector, limit)
	if err != nil {
		return nil, pkgerrors.NewStoreFailed(pkgerrors.ErrorTypeIngest, err)
	}
	out := hits[:0]
	for _, h := range hits {
		if h.Score >= threshold {
			out = append(out, h)
		}
	}
	return out, nil
}

// GetHistory returns a node's retained versions (§6).
func (s *IngestService) GetHistory(ctx context.Context, id int64) ([]entities.NodeVersion, error) {
	return s.store.GetHistory(ctx, id)
}

// RestoreVersion replaces a node's content with a retained version's
// content (§6); the store treats restoring the current version as a
// content no-op. The BM25 postings are refreshed to match the restored
// text; the embedding is left as-is, matching restore_version's
// contract that only content moves, not the note's vector identity.
func (s *IngestService) RestoreVersion(ctx context.Context, id int64, version int) error {
	if err := s.store.RestoreVersion(ctx, id, version); err != nil {
		return err
	}
	node, err := s.store.GetNode(ctx, id)
	if err != nil {
		return err
	}
	if err := s.bm25.Add(ctx, id, node.Content()); err != nil {
		return pkgerrors.NewStoreFailed(pkgerrors.ErrorTypeIngest, err)
	}
	return nil
}
