package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/artemMprokhorov/hippograph-pro/application/ports"
	"github.com/artemMprokhorov/hippograph-pro/domain/config"
	"github.com/artemMprokhorov/hippograph-pro/domain/core/entities"
	"github.com/artemMprokhorov/hippograph-pro/domain/core/valueobjects"
	"github.com/artemMprokhorov/hippograph-pro/domain/services"
	"github.com/artemMprokhorov/hippograph-pro/domain/specifications"
	pkgerrors "github.com/artemMprokhorov/hippograph-pro/pkg/errors"
)

// annSearchBreadth is N in §4.6 step 3: the ANN/BM25 candidate pool size
// fanned into spreading activation and blending.
const annSearchBreadth = 50

// blendShortlist is M in §4.6 step 8: how many blended candidates
// survive to the optional rerank and filter stages.
const blendShortlist = 20

// spreadEpsilon is ε in §4.6.2: spreading activation stops early once
// the largest per-iteration delta falls below this.
const spreadEpsilon = 1e-6

// DetailMode selects how much content a search result carries.
type DetailMode string

const (
	DetailBrief DetailMode = "brief"
	DetailFull  DetailMode = "full"
)

// SearchRequest carries the Query API's search() parameters (§6).
type SearchRequest struct {
	QueryText   string
	Filters     specifications.RetrievalFilters
	MaxResults  int
	DetailMode  DetailMode
	BlendOverride *config.BlendWeights
}

// SearchResult is one ranked candidate with its per-signal diagnostics (§4.6 step 12).
type SearchResult struct {
	ID             int64
	Score          float64
	SemanticSim    float64
	Activation     float64
	BM25Score      float64
	TemporalScore  float64
	RerankScore    float64
	PageRank       float64
	ContentPreview string
}

// SearchStats accompanies a SearchResponse (§6 Query API).
type SearchStats struct {
	TotalActivated     int
	EstimatedTokens    int
	HasMore            bool
	Durations          entities.PhaseDurations
	Degraded           bool
	DegradationReasons []string
}

// SearchResponse is search()'s full return value.
type SearchResponse struct {
	Results []SearchResult
	Stats   SearchStats
}

// Retriever orchestrates the hybrid pipeline of §4.6: ANN, spreading
// activation, BM25, temporal scoring, blend, rerank, decay, and filters.
type Retriever struct {
	store    ports.Store
	ann      ports.ANNIndex
	bm25     ports.BM25Index
	graph    ports.GraphCache
	embedder ports.Embedder
	reranker ports.Reranker
	dates    ports.DateResolver
	cfg      *config.DomainConfig
	logger   *zap.Logger
	tracer   trace.Tracer

	hasReranker bool

	entityCountCache map[int64]int
}

// NewRetriever wires every port the read path touches. hasReranker lets
// callers supply a NoopReranker while still signalling its absence,
// matching §4.6.3's "reranker unavailable" degradation path.
func NewRetriever(
	store ports.Store,
	ann ports.ANNIndex,
	bm25 ports.BM25Index,
	graph ports.GraphCache,
	embedder ports.Embedder,
	reranker ports.Reranker,
	hasReranker bool,
	dates ports.DateResolver,
	cfg *config.DomainConfig,
	logger *zap.Logger,
	tracer trace.Tracer,
) *Retriever {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("hippograph")
	}
	return &Retriever{
		store: store, ann: ann, bm25: bm25, graph: graph,
		embedder: embedder, reranker: reranker, hasReranker: hasReranker, dates: dates,
		cfg: cfg, logger: logger, tracer: tracer,
	}
}

// Search runs the full hybrid pipeline and returns the top max_results
// candidates (§4.6).
func (r *Retriever) Search(ctx context.Context, req SearchRequest) (resp SearchResponse, err error) {
	ctx, span := r.tracer.Start(ctx, "Retriever.Search",
		trace.WithAttributes(
			attribute.Int("query.length", len(req.QueryText)),
			attribute.Int("max_results", req.MaxResults),
			attribute.String("detail_mode", string(req.DetailMode)),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else if resp.Stats.Degraded {
			span.SetStatus(codes.Error, "search degraded")
		}
		span.SetAttributes(attribute.Int("result.count", len(resp.Results)))
		span.End()
	}()
	defer func() {
		if err == context.DeadlineExceeded {
			err = pkgerrors.NewTimeout(pkgerrors.ErrorTypeRetriever, "total")
		}
	}()

	if strings.TrimSpace(req.QueryText) == "" {
		return SearchResponse{}, pkgerrors.NewEmptyQuery()
	}
	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	if maxResults > 20 {
		maxResults = 20
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeouts.Total)
	defer cancel()

	r.entityCountCache = make(map[int64]int)
	var durations entities.PhaseDurations
	var degraded bool
	var reasons []string
	start := time.Now()

	// Step 1: temporal decomposition (cheap, synchronous, not timed as a phase).
	stripped, direction, hasTemporal := services.DecomposeQuery(req.QueryText)
	_ = direction // ordering tie-breaks are not exercised by the current API surface

	// Step 2: embed.
	if err := ctx.Err(); err != nil {
		return SearchResponse{}, err
	}
	qVec, embedOK := r.embedQuery(ctx, stripped, &durations, &degraded, &reasons)

	// Steps 3-5: ANN search feeding spreading activation, and the
	// independent BM25 search, fan out concurrently (neither branch
	// depends on the other's output) and join before blending.
	if err := ctx.Err(); err != nil {
		return SearchResponse{}, err
	}
	var (
		annHits    []ports.ScoredID
		activation map[int64]float64
		bm25Hits   []ports.ScoredID
		bm25Err    error
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if embedOK {
			annStart := time.Now()
			annCtx, annCancel := context.WithTimeout(groupCtx, r.cfg.Timeouts.ANN)
			hits, err := r.ann.Search(annCtx, qVec, annSearchBreadth)
			annCancel()
			durations.ANN = time.Since(annStart)
			if err == nil {
				annHits = hits
			}
		}
		spreadStart := time.Now()
		activation = r.spread(groupCtx, annHits)
		durations.Spreading = time.Since(spreadStart)
		return nil
	})
	group.Go(func() error {
		bm25Start := time.Now()
		bm25Ctx, bm25Cancel := context.WithTimeout(groupCtx, r.cfg.Timeouts.BM25)
		hits, err := r.bm25.Search(bm25Ctx, services.Tokenize(stripped), annSearchBreadth)
		bm25Cancel()
		durations.BM25 = time.Since(bm25Start)
		bm25Hits = hits
		bm25Err = err
		return nil
	})
	_ = group.Wait()

	semanticSim := make(map[int64]float64, len(annHits))
	for _, h := range annHits {
		semanticSim[h.ID] = h.Score
	}
	bm25Raw := make(map[int64]float64, len(bm25Hits))
	if bm25Err == nil {
		for _, h := range bm25Hits {
			bm25Raw[h.ID] = h.Score
		}
	}
	bm25Scores := services.MinMaxNormalize(bm25Raw)

	// Union of candidate ids across the three signals.
	candidateIDs := unionIDs(semanticSim, activation, bm25Scores)
	if len(candidateIDs) == 0 {
		return SearchResponse{
			Stats: SearchStats{Durations: durations, Degraded: degraded, DegradationReasons: reasons},
		}, nil
	}

	nodes := r.loadNodes(ctx, candidateIDs)

	// Step 6: temporal scoring.
	temporalStart := time.Now()
	temporalScores := r.temporalScores(ctx, req.QueryText, hasTemporal, nodes, &degraded, &reasons)
	durations.Temporal = time.Since(temporalStart)

	// Step 7: blend.
	weights := r.cfg.Blend
	if req.BlendOverride != nil {
		weights = *req.BlendOverride
	}
	weights = services.EffectiveBlendWeights(weights, hasTemporal)

	blended := make([]scoredCandidate, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		if _, ok := nodes[id]; !ok {
			continue
		}
		s := weights.Alpha*semanticSim[id] + weights.Beta*activation[id] + weights.Gamma*bm25Scores[id] + weights.Delta*temporalScores[id]
		blended = append(blended, scoredCandidate{id: id, blend: s})
	}
	sort.Slice(blended, func(i, j int) bool { return blended[i].blend > blended[j].blend })

	// Step 8: keep top-M.
	if len(blended) > blendShortlist {
		blended = blended[:blendShortlist]
	}

	// Step 9: optional rerank.
	if err := ctx.Err(); err != nil {
		return SearchResponse{}, err
	}
	rerankScores := map[int64]float64{}
	wRerank := 0.0
	if r.cfg.Rerank.Enabled && r.hasReranker {
		rerankStart := time.Now()
		scores, rerankErr := r.rerank(ctx, req.QueryText, blended, nodes)
		durations.Rerank = time.Since(rerankStart)
		switch {
		case rerankErr != nil:
			degraded = true
			reasons = append(reasons, "reranker failed")
		case scores != nil:
			rerankScores = scores
			wRerank = r.cfg.Rerank.Weight
		}
	} else if r.cfg.Rerank.Enabled && !r.hasReranker {
		degraded = true
		reasons = append(reasons, "reranker unavailable")
	}

	// Step 10: recency + importance decay.
	if err := ctx.Err(); err != nil {
		return SearchResponse{}, err
	}
	now := time.Now()
	results := make([]SearchResult, 0, len(blended))
	for _, b := range blended {
		node := nodes[b.id]
		final := b.blend
		if wRerank > 0 {
			final = (1-wRerank)*final + wRerank*rerankScores[b.id]
		}
		recency := services.RecencyFactor(node.Category(), node.CreatedAt(), now, r.cfg)
		final *= recency * node.ImportanceMultiplier(r.cfg)

		results = append(results, SearchResult{
			ID:            b.id,
			Score:         final,
			SemanticSim:   semanticSim[b.id],
			Activation:    activation[b.id],
			BM25Score:     bm25Scores[b.id],
			TemporalScore: temporalScores[b.id],
			RerankScore:   rerankScores[b.id],
			PageRank:      node.PageRank(),
		})
	}

	// Step 11: filters, then sort by final desc, tie-break pagerank then id.
	spec := req.Filters.BuildSpecification(func(nodeID int64, entityType string) bool {
		ok, _ := r.store.HasEntityOfType(ctx, nodeID, entityType)
		return ok
	})
	filtered := results[:0]
	for _, res := range results {
		if spec != nil && !spec.IsSatisfiedBy(nodes[res.ID]) {
			continue
		}
		filtered = append(filtered, res)
	}
	results = filtered

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].PageRank != results[j].PageRank {
			return results[i].PageRank > results[j].PageRank
		}
		return results[i].ID < results[j].ID
	})

	hasMore := len(results) > maxResults
	if hasMore {
		results = results[:maxResults]
	}

	// Step 12: content preview, access-count update (only on success).
	ids := make([]int64, 0, len(results))
	for i := range results {
		node := nodes[results[i].ID]
		results[i].ContentPreview = preview(node.Content(), req.DetailMode)
		ids = append(ids, results[i].ID)
	}
	if ctx.Err() == nil && len(ids) > 0 {
		_ = r.store.RecordAccess(ctx, ids, now)
	}

	durations.Total = time.Since(start)
	return SearchResponse{
		Results: results,
		Stats: SearchStats{
			TotalActivated:     len(activation),
			EstimatedTokens:    estimateTokens(results),
			HasMore:            hasMore,
			Durations:          durations,
			Degraded:           degraded,
			DegradationReasons: reasons,
		},
	}, nil
}

// embedQuery encodes the stripped query text, falling back to a
// BM25+temporal-only degraded mode when the embedder is unavailable
// (§4.6.3).
func (r *Retriever) embedQuery(ctx context.Context, text string, durations *entities.PhaseDurations, degraded *bool, reasons *[]string) (valueobjects.Embedding, bool) {
	if r.embedder == nil {
		*degraded = true
		*reasons = append(*reasons, "embedding service unavailable")
		return valueobjects.Embedding{}, false
	}
	embedStart := time.Now()
	embedCtx, embedCancel := context.WithTimeout(ctx, r.cfg.Timeouts.Embed)
	vec, err := r.embedder.Encode(embedCtx, text)
	embedCancel()
	durations.Embedding = time.Since(embedStart)
	if err != nil {
		*degraded = true
		*reasons = append(*reasons, "embedding service unavailable")
		return valueobjects.Embedding{}, false
	}
	return vec, true
}

// spread implements §4.6.2's accumulating spreading activation with the
// hub penalty of §4.6.1, seeded from the ANN hits' cosine scores.
func (r *Retriever) spread(ctx context.Context, annHits []ports.ScoredID) map[int64]float64 {
	activation := make(map[int64]float64, len(annHits))
	for _, h := range annHits {
		activation[h.ID] = h.Score
	}
	if len(activation) == 0 {
		return activation
	}

	decay := r.cfg.Spread.Decay
	for iter := 0; iter < r.cfg.Spread.Iterations; iter++ {
		delta := make(map[int64]float64)
		for u, au := range activation {
			if au == 0 {
				continue
			}
			hu := r.hubPenalty(ctx, u)
			for _, e := range r.graph.Forward(u) {
				if e.NeighborID == u {
					continue
				}
				hv := r.hubPenalty(ctx, e.NeighborID)
				delta[e.NeighborID] += au * e.Weight * decay * hu * hv
			}
		}
		if len(delta) == 0 {
			break
		}
		maxDelta := 0.0
		for v, d := range delta {
			newVal := activation[v] + d
			if newVal > 1 {
				newVal = 1
			}
			if diff := math.Abs(newVal - activation[v]); diff > maxDelta {
				maxDelta = diff
			}
			activation[v] = newVal
		}
		if maxDelta < spreadEpsilon {
			break
		}
	}

	max := 0.0
	for _, v := range activation {
		if v > max {
			max = v
		}
	}
	if max > 0 {
		for id, v := range activation {
			activation[id] = v / max
		}
	}
	return activation
}

// hubPenalty implements §4.6.1: notes linked to more than HubThreshold
// entities have their activation contribution penalized both as source
// and target, memoized per search since entity counts don't change
// mid-query.
func (r *Retriever) hubPenalty(ctx context.Context, id int64) float64 {
	count, ok := r.entityCountCache[id]
	if !ok {
		linked, err := r.store.EntitiesForNode(ctx, id)
		if err == nil {
			count = len(linked)
		}
		r.entityCountCache[id] = count
	}
	if count <= r.cfg.HubThreshold {
		return 1.0
	}
	return float64(r.cfg.HubThreshold) / float64(count)
}

// temporalScores resolves the query's event-time range (if any) and
// scores every candidate node's overlap with it (§4.5 temporal_score).
// Per §9, an unresolved or absent range scores every node zero rather
// than guessing; a date-resolver failure additionally records
// degradation (§7, §4.6.3) rather than failing the search outright.
func (r *Retriever) temporalScores(ctx context.Context, queryText string, hasTemporal bool, nodes map[int64]*entities.Node, degraded *bool, reasons *[]string) map[int64]float64 {
	out := make(map[int64]float64, len(nodes))
	if !hasTemporal || r.dates == nil {
		return out
	}
	start, end, err := r.dates.Resolve(ctx, queryText, time.Now())
	if err != nil {
		*degraded = true
		*reasons = append(*reasons, "date resolution unavailable")
		return out
	}
	queryRange := services.EventRange{Start: start, End: end}
	if queryRange.IsEmpty() {
		return out
	}
	for id, node := range nodes {
		nStart, nEnd := node.EventTimeRange()
		out[id] = services.TemporalScore(queryRange, services.EventRange{Start: nStart, End: nEnd})
	}
	return out
}

// scoredCandidate pairs a candidate id with its blended score between
// §4.6 steps 7 and 10.
type scoredCandidate struct {
	id    int64
	blend float64
}

// rerank cross-encodes the query against each shortlisted candidate's
// content and min-max normalizes the resulting scores (§4.6 step 9). A
// nil map with a nil error means there was nothing to rerank; a nil map
// with a non-nil error means the reranker call itself failed and the
// caller must record degradation (§4.6.3, §7).
func (r *Retriever) rerank(ctx context.Context, query string, blended []scoredCandidate, nodes map[int64]*entities.Node) (map[int64]float64, error) {
	rerankCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeouts.Rerank)
	defer cancel()

	texts := make([]string, 0, len(blended))
	ids := make([]int64, 0, len(blended))
	for _, b := range blended {
		node, ok := nodes[b.id]
		if !ok {
			continue
		}
		texts = append(texts, node.Content())
		ids = append(ids, b.id)
	}
	if len(texts) == 0 {
		return nil, nil
	}

	scores, err := r.reranker.Score(rerankCtx, query, texts)
	if err != nil {
		return nil, err
	}
	if len(scores) != len(ids) {
		return nil, fmt.Errorf("reranker returned %d scores for %d candidates", len(scores), len(ids))
	}
	raw := make(map[int64]float64, len(ids))
	for i, id := range ids {
		raw[id] = float64(scores[i])
	}
	return services.MinMaxNormalize(raw), nil
}

// loadNodes batch-fetches every candidate, skipping ids the store can no
// longer find (e.g. deleted between index read and fetch).
func (r *Retriever) loadNodes(ctx context.Context, ids []int64) map[int64]*entities.Node {
	out := make(map[int64]*entities.Node, len(ids))
	for _, id := range ids {
		node, err := r.store.GetNode(ctx, id)
		if err != nil {
			continue
		}
		out[id] = node
	}
	return out
}

// unionIDs collects every id appearing in any of the three signal maps.
func unionIDs(maps ...map[int64]float64) []int64 {
	seen := make(map[int64]struct{})
	for _, m := range maps {
		for id := range m {
			seen[id] = struct{}{}
		}
	}
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	return ids
}

// preview returns the first line of content, truncated to 200 chars, in
// brief mode; full mode returns the whole content (§4.6 step 12).
func preview(content string, mode DetailMode) string {
	if mode == DetailFull {
		return content
	}
	line := content
	if idx := strings.IndexByte(content, '\n'); idx >= 0 {
		line = content[:idx]
	}
	if len(line) > 200 {
		line = line[:200]
	}
	return line
}

// StatsResult answers the Query API's stats() call (§6).
type StatsResult struct {
	Nodes       int
	Edges       int
	Entities    int
	Categories  map[string]int
	TopPageRank []ports.ScoredID
	Communities int
}

// Stats reports store-wide counts and the top-pagerank nodes.
func (r *Retriever) Stats(ctx context.Context, topN int) (StatsResult, error) {
	nodeCount, err := r.store.NodeCount(ctx)
	if err != nil {
		return StatsResult{}, err
	}
	edgeCount, err := r.store.EdgeCount(ctx)
	if err != nil {
		return StatsResult{}, err
	}
	entityCount, err := r.store.EntityCount(ctx)
	if err != nil {
		return StatsResult{}, err
	}
	categories, err := r.store.Categories(ctx)
	if err != nil {
		return StatsResult{}, err
	}

	communities := map[int]struct{}{}
	var top []ports.ScoredID
	_ = r.store.IterNodes(ctx, nil, func(n *entities.Node) bool {
		if cid, ok := n.CommunityID(); ok {
			communities[cid] = struct{}{}
		}
		top = append(top, ports.ScoredID{ID: int64(n.ID()), Score: n.PageRank()})
		return true
	})
	sort.Slice(top, func(i, j int) bool { return top[i].Score > top[j].Score })
	if topN > 0 && len(top) > topN {
		top = top[:topN]
	}

	return StatsResult{
		Nodes: nodeCount, Edges: edgeCount, Entities: entityCount,
		Categories: categories, TopPageRank: top, Communities: len(communities),
	}, nil
}

// GetGraph returns a node's immediate neighborhood (§6 get_graph).
func (r *Retriever) GetGraph(ctx context.Context, id int64) ([]ports.NeighborEdge, error) {
	return r.store.Neighbors(ctx, id)
}

// estimateTokens gives a rough token budget the caller can use to decide
// how much of the result set to render, matching the Query API's
// estimated_tokens stat (§6). It approximates the common ~4
// chars-per-token heuristic rather than invoking a tokenizer, since the
// tokenizer itself is out of scope (§1).
func estimateTokens(results []SearchResult) int {
	chars := 0
	for _, r := range results {
		chars += len(r.ContentPreview)
	}
	return chars / 4
}
