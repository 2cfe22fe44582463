package di

import (
	"context"
	"fmt"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/artemMprokhorov/hippograph-pro/application/services"
	"github.com/artemMprokhorov/hippograph-pro/infrastructure/searchlog"
	"github.com/artemMprokhorov/hippograph-pro/infrastructure/sleep"
	"github.com/artemMprokhorov/hippograph-pro/pkg/config"
	"github.com/artemMprokhorov/hippograph-pro/pkg/observability"
)

// Container holds every long-lived dependency a HippoGraph process
// needs, assembled once at startup and handed to the CLI or daemon.
type Container struct {
	Config         *config.Config
	Logger         *zap.Logger
	Metrics        *observability.Metrics
	TracerProvider *sdktrace.TracerProvider
	StoreDB        *StoreHandle
	Ingest         *services.IngestService
	Retriever      *services.Retriever
	Sleep          *services.SleepService
	Scheduler      *sleep.Scheduler
	SearchLog      *searchlog.Logger
}

// New hand-assembles a Container from the provider functions in
// providers.go, in dependency order. It is the runtime entry point;
// wire.go's InitializeContainer exists for a future `wire gen` pass and
// is never compiled into the binary (build tag wireinject), the same
// split the teacher's infrastructure/di keeps between its aspirational
// wire.go and its hand-wired internal/di/container.go.
func New(cfg *config.Config) (*Container, error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("di: logger: %w", err)
	}

	metrics := ProvideMetrics(cfg)
	httpClient := ProvideHTTPClient()
	breaker := ProvideBreakerConfig()

	tracerProvider, err := ProvideTracerProvider(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("di: tracer provider: %w", err)
	}
	tracer := ProvideTracer(tracerProvider)

	storeHandle, err := ProvideStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("di: store: %w", err)
	}

	annIndex := ProvideANNIndex()
	bm25Index := ProvideBM25Index(cfg)
	graph := ProvideGraphCache()
	embCache := ProvideEmbeddingCache()

	embedder, err := ProvideEmbedder(cfg, httpClient, breaker, logger)
	if err != nil {
		storeHandle.Close()
		return nil, fmt.Errorf("di: embedder: %w", err)
	}
	extractor := ProvideEntityExtractor(cfg, httpClient, breaker, logger)
	rerankerBundle := ProvideRerankerBundle(cfg, httpClient, breaker, logger)
	dates := ProvideDateResolver(cfg, httpClient, breaker, logger)

	linker := ProvideEntityLinker(storeHandle, graph, logger)
	ingest := ProvideIngestService(storeHandle, annIndex, bm25Index, graph, embCache, embedder, extractor, dates, linker, cfg, logger, tracer)
	retriever := ProvideRetriever(storeHandle, annIndex, bm25Index, graph, embedder, rerankerBundle, dates, cfg, logger, tracer)
	sleepService := ProvideSleepService(storeHandle, graph, annIndex, extractor, cfg, logger, tracer)
	scheduler := ProvideScheduler(sleepService, cfg, logger)
	searchLog := ProvideSearchLogger(cfg)

	return &Container{
		Config:         cfg,
		Logger:         logger,
		Metrics:        metrics,
		TracerProvider: tracerProvider,
		StoreDB:        storeHandle,
		Ingest:         ingest,
		Retriever:      retriever,
		Sleep:          sleepService,
		Scheduler:      scheduler,
		SearchLog:      searchLog,
	}, nil
}

// Close releases every resource the container opened.
func (c *Container) Close() error {
	if c.TracerProvider != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.TracerProvider.Shutdown(shutdownCtx); err != nil && c.Logger != nil {
			c.Logger.Warn("tracer provider shutdown failed", zap.Error(err))
		}
	}
	if c.StoreDB != nil {
		return c.StoreDB.Close()
	}
	return nil
}
