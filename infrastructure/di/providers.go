// Package di assembles the concrete adapters behind every application
// port into a single Container, the way the teacher's internal/di
// splits a //go:build wireinject provider graph (wire.go) from the
// real constructors backing each provider (this file).
package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/artemMprokhorov/hippograph-pro/application/ports"
	"github.com/artemMprokhorov/hippograph-pro/application/services"
	"github.com/artemMprokhorov/hippograph-pro/infrastructure/acl"
	"github.com/artemMprokhorov/hippograph-pro/infrastructure/index/ann"
	"github.com/artemMprokhorov/hippograph-pro/infrastructure/index/bm25"
	"github.com/artemMprokhorov/hippograph-pro/infrastructure/index/embeddingcache"
	"github.com/artemMprokhorov/hippograph-pro/infrastructure/index/graphcache"
	badgerstore "github.com/artemMprokhorov/hippograph-pro/infrastructure/persistence/badger"
	"github.com/artemMprokhorov/hippograph-pro/infrastructure/searchlog"
	"github.com/artemMprokhorov/hippograph-pro/infrastructure/sleep"
	"github.com/artemMprokhorov/hippograph-pro/pkg/config"
	"github.com/artemMprokhorov/hippograph-pro/pkg/observability"
)

// ProvideLogger builds the process's structured logger from the
// configured log level.
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	return observability.NewLogger(cfg.LogLevel)
}

// ProvideMetrics builds the Prometheus registry under a fixed
// namespace; a second process on the same host scrapes a different
// port rather than sharing a registry.
func ProvideMetrics(cfg *config.Config) *observability.Metrics {
	return observability.NewMetrics("hippograph")
}

// ProvideHTTPClient is the shared client every capability adapter
// calls out on, bounded so a hung external service cannot block the
// pipeline indefinitely.
func ProvideHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

// ProvideBreakerConfig returns the circuit-breaker tuning shared by
// every capability adapter.
func ProvideBreakerConfig() acl.BreakerConfig {
	return acl.DefaultBreakerConfig()
}

// StoreHandle pairs the opened BadgerDB with the ports.Store built on
// top of it, so the container can Close the database at shutdown
// without exposing badger internals to callers that only need the
// port.
type StoreHandle struct {
	DB    *badgerdb.DB
	Store ports.Store
}

// Close releases the underlying database.
func (h *StoreHandle) Close() error {
	return h.DB.Close()
}

// ProvideStore opens BadgerDB at the configured path and wraps it as a
// ports.Store.
func ProvideStore(cfg *config.Config) (*StoreHandle, error) {
	db, err := badgerstore.Open(badgerstore.Options{DataDir: cfg.StorePath})
	if err != nil {
		return nil, fmt.Errorf("di: opening store: %w", err)
	}
	st, err := badgerstore.NewStore(db, cfg.DomainConfig().MaxVersionsPerNode)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("di: constructing store: %w", err)
	}
	return &StoreHandle{DB: db, Store: st}, nil
}

// ProvideANNIndex builds the in-memory approximate nearest-neighbor
// index (§4.3); it is rebuilt from the store at startup by whichever
// caller owns that sequencing, not here.
func ProvideANNIndex() ports.ANNIndex {
	return ann.New()
}

// ProvideBM25Index builds the in-memory inverted index (§4.5) using
// the configured k1/b.
func ProvideBM25Index(cfg *config.Config) ports.BM25Index {
	return bm25.New(cfg.BM25.K1, cfg.BM25.B)
}

// ProvideGraphCache builds the in-memory adjacency cache (§4.4).
func ProvideGraphCache() ports.GraphCache {
	return graphcache.New()
}

// ProvideEmbeddingCache builds the in-memory embedding cache (§4.2).
func ProvideEmbeddingCache() ports.EmbeddingCache {
	return embeddingcache.New()
}

// ProvideEmbedder builds the circuit-breaker-protected Embedder
// adapter. Unlike the extractor/reranker/date-resolver ports, there is
// no noop variant: the pipeline has no meaningful behavior without an
// embedding model, so a missing endpoint is a startup error.
func ProvideEmbedder(cfg *config.Config, client *http.Client, breaker acl.BreakerConfig, logger *zap.Logger) (ports.Embedder, error) {
	if cfg.Capabilities.Embedder == "" {
		return nil, fmt.Errorf("di: capabilities.embedder endpoint is required")
	}
	dim := cfg.DomainConfig().EmbeddingDim
	return acl.NewHTTPEmbedder(cfg.Capabilities.Embedder, dim, client, breaker, logger), nil
}

// ProvideEntityExtractor builds the HTTP adapter, or falls back to the
// always-empty extractor when no endpoint is configured (§6: entity
// extraction is optional).
func ProvideEntityExtractor(cfg *config.Config, client *http.Client, breaker acl.BreakerConfig, logger *zap.Logger) ports.EntityExtractor {
	if cfg.Capabilities.EntityExtractor == "" {
		return ports.NoopEntityExtractor{}
	}
	return acl.NewHTTPEntityExtractor(cfg.Capabilities.EntityExtractor, client, breaker, logger)
}

// RerankerBundle pairs a Reranker with whether it is the real adapter,
// matching NewRetriever's hasReranker parameter (§4.6.3).
type RerankerBundle struct {
	Reranker    ports.Reranker
	HasReranker bool
}

// ProvideRerankerBundle builds the HTTP adapter when both an endpoint
// and cfg.Rerank.Enabled are set, otherwise the noop variant with
// HasReranker false so the retriever reports the degradation reason
// rather than silently scoring everything zero.
func ProvideRerankerBundle(cfg *config.Config, client *http.Client, breaker acl.BreakerConfig, logger *zap.Logger) RerankerBundle {
	if !cfg.Rerank.Enabled || cfg.Capabilities.Reranker == "" {
		return RerankerBundle{Reranker: ports.NoopReranker{}, HasReranker: false}
	}
	return RerankerBundle{Reranker: acl.NewHTTPReranker(cfg.Capabilities.Reranker, client, breaker, logger), HasReranker: true}
}

// ProvideDateResolver builds the HTTP adapter, or the always-nil
// resolver when no endpoint is configured (§9: no resolver means every
// event-time range is left open-ended, never guessed).
func ProvideDateResolver(cfg *config.Config, client *http.Client, breaker acl.BreakerConfig, logger *zap.Logger) ports.DateResolver {
	if cfg.Capabilities.DateResolver == "" {
		return ports.NoopDateResolver{}
	}
	return acl.NewHTTPDateResolver(cfg.Capabilities.DateResolver, client, breaker, logger)
}

// ProvideEntityLinker wires §4.7 over the shared store and graph cache.
func ProvideEntityLinker(storeHandle *StoreHandle, graph ports.GraphCache, logger *zap.Logger) *services.EntityLinker {
	return services.NewEntityLinker(storeHandle.Store, graph, logger)
}

// ProvideTracerProvider builds the process's OTel TracerProvider. With no
// tracing.endpoint configured it still returns a usable provider, sampling
// nothing, so every span-wrapped service method works identically in
// development as in a fully wired deployment.
func ProvideTracerProvider(ctx context.Context, cfg *config.Config) (*sdktrace.TracerProvider, error) {
	return observability.NewTracerProvider(ctx, observability.TracingConfig{
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.Tracing.Environment,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRate:  cfg.Tracing.SampleRate,
	})
}

// ProvideTracer derives the shared tracer instance every traced service
// method calls Start on.
func ProvideTracer(tp *sdktrace.TracerProvider) trace.Tracer {
	return observability.Tracer(tp)
}

// ProvideIngestService wires the full write path (§2, §4.8).
func ProvideIngestService(
	storeHandle *StoreHandle,
	annIndex ports.ANNIndex,
	bm25Index ports.BM25Index,
	graph ports.GraphCache,
	embCache ports.EmbeddingCache,
	embedder ports.Embedder,
	extractor ports.EntityExtractor,
	dates ports.DateResolver,
	linker *services.EntityLinker,
	cfg *config.Config,
	logger *zap.Logger,
	tracer trace.Tracer,
) *services.IngestService {
	return services.NewIngestService(
		storeHandle.Store, annIndex, bm25Index, graph, embCache,
		embedder, extractor, dates, linker, cfg.DomainConfig(), logger, tracer,
	)
}

// ProvideRetriever wires the full read path (§4.6).
func ProvideRetriever(
	storeHandle *StoreHandle,
	annIndex ports.ANNIndex,
	bm25Index ports.BM25Index,
	graph ports.GraphCache,
	embedder ports.Embedder,
	rerankerBundle RerankerBundle,
	dates ports.DateResolver,
	cfg *config.Config,
	logger *zap.Logger,
	tracer trace.Tracer,
) *services.Retriever {
	return services.NewRetriever(
		storeHandle.Store, annIndex, bm25Index, graph, embedder,
		rerankerBundle.Reranker, rerankerBundle.HasReranker, dates,
		cfg.DomainConfig(), logger, tracer,
	)
}

// ProvideSleepService wires §4.9's maintenance pipeline. lastDeepSleepAt
// starts at the zero time, so the first deep sleep's typed-relation
// extraction covers every node rather than only recently changed ones.
func ProvideSleepService(
	storeHandle *StoreHandle,
	graph ports.GraphCache,
	annIndex ports.ANNIndex,
	extractor ports.EntityExtractor,
	cfg *config.Config,
	logger *zap.Logger,
	tracer trace.Tracer,
) *services.SleepService {
	return services.NewSleepService(storeHandle.Store, graph, annIndex, extractor, cfg.DomainConfig(), logger, time.Time{}, tracer)
}

// ProvideScheduler wires the sleep-cycle trigger (§4.9) around the
// sleep service.
func ProvideScheduler(sleepService *services.SleepService, cfg *config.Config, logger *zap.Logger) *sleep.Scheduler {
	return sleep.NewScheduler(sleepService, cfg.DomainConfig(), logger, time.Time{})
}

// ProvideSearchLogger wires the per-query phase log and
// search_stats({window}) aggregation (§4.10), retaining 24h of history.
func ProvideSearchLogger(cfg *config.Config) *searchlog.Logger {
	return searchlog.NewLogger(24 * time.Hour)
}
