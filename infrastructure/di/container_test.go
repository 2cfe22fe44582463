package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artemMprokhorov/hippograph-pro/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.StorePath = t.TempDir()
	cfg.Capabilities.Embedder = "http://localhost:9/encode"
	return cfg
}

func TestNew_AssemblesEveryComponent(t *testing.T) {
	c, err := New(testConfig(t))
	require.NoError(t, err)
	defer c.Close()

	assert.NotNil(t, c.Logger)
	assert.NotNil(t, c.Metrics)
	assert.NotNil(t, c.TracerProvider)
	assert.NotNil(t, c.StoreDB)
	assert.NotNil(t, c.Ingest)
	assert.NotNil(t, c.Retriever)
	assert.NotNil(t, c.Sleep)
	assert.NotNil(t, c.Scheduler)
	assert.NotNil(t, c.SearchLog)
}

func TestNew_MissingEmbedderEndpointFails(t *testing.T) {
	cfg := testConfig(t)
	cfg.Capabilities.Embedder = ""

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNew_RerankerDisabledByDefaultHasNoop(t *testing.T) {
	c, err := New(testConfig(t))
	require.NoError(t, err)
	defer c.Close()

	assert.NotNil(t, c.Retriever, "retriever must build even without a reranker endpoint configured")
	assert.False(t, ProvideRerankerBundle(c.Config, nil, ProvideBreakerConfig(), c.Logger).HasReranker)
}

func TestClose_IsSafeOnNilStore(t *testing.T) {
	c := &Container{}
	assert.NoError(t, c.Close())
}
