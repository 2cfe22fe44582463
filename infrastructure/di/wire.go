//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"github.com/artemMprokhorov/hippograph-pro/pkg/config"
)

// SuperSet is the full provider graph: every component in Container,
// wired from a loaded Config down to the concrete adapters behind each
// application port.
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideHTTPClient,
	ProvideBreakerConfig,
	ProvideStore,
	ProvideANNIndex,
	ProvideBM25Index,
	ProvideGraphCache,
	ProvideEmbeddingCache,
	ProvideEmbedder,
	ProvideEntityExtractor,
	ProvideRerankerBundle,
	ProvideDateResolver,
	ProvideEntityLinker,
	ProvideTracerProvider,
	ProvideTracer,
	ProvideIngestService,
	ProvideRetriever,
	ProvideSleepService,
	ProvideScheduler,
	ProvideSearchLogger,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer builds a Container from a loaded Config. `wire
// gen` replaces this body with the generated wiring; until then it is
// never compiled in (build tag wireinject).
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil
}
