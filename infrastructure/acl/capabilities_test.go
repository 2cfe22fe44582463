package acl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/artemMprokhorov/hippograph-pro/application/ports"
)

func TestHTTPEmbedder_Encode_ReturnsNormalizedVector(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req encodeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello world", req.Text)
		_ = json.NewEncoder(w).Encode(encodeResponse{Vector: []float32{1, 0, 0, 0}})
	}))
	defer server.Close()

	embedder := NewHTTPEmbedder(server.URL, 4, nil, DefaultBreakerConfig(), zap.NewNop())
	vec, err := embedder.Encode(context.Background(), "hello world")

	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0, 0}, vec.Values())
}

func TestHTTPEmbedder_Encode_PropagatesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	embedder := NewHTTPEmbedder(server.URL, 4, nil, DefaultBreakerConfig(), zap.NewNop())
	_, err := embedder.Encode(context.Background(), "hello")

	assert.Error(t, err)
}

func TestHTTPEntityExtractor_Extract_ReturnsEntities(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(extractResponse{Entities: []ports.ExtractedEntity{
			{Surface: "Alice", Type: "person", Confidence: 0.9},
		}})
	}))
	defer server.Close()

	extractor := NewHTTPEntityExtractor(server.URL, nil, DefaultBreakerConfig(), zap.NewNop())
	entities, err := extractor.Extract(context.Background(), "met Alice today")

	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "Alice", entities[0].Surface)
}

// TestHTTPEntityExtractor_Extract_SwallowsTransportErrors confirms the
// port's "total function" contract (§6): extraction never surfaces an
// error even when the breaker rejects or the request fails.
func TestHTTPEntityExtractor_Extract_SwallowsTransportErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	extractor := NewHTTPEntityExtractor(server.URL, nil, DefaultBreakerConfig(), zap.NewNop())
	entities, err := extractor.Extract(context.Background(), "anything")

	require.NoError(t, err)
	assert.Empty(t, entities)
}

func TestHTTPReranker_Score_ReturnsScoresInOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req scoreRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"a", "b"}, req.Texts)
		_ = json.NewEncoder(w).Encode(scoreResponse{Scores: []float32{0.2, 0.9}})
	}))
	defer server.Close()

	reranker := NewHTTPReranker(server.URL, nil, DefaultBreakerConfig(), zap.NewNop())
	scores, err := reranker.Score(context.Background(), "q", []string{"a", "b"})

	require.NoError(t, err)
	assert.Equal(t, []float32{0.2, 0.9}, scores)
}

func TestHTTPReranker_Score_PropagatesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	reranker := NewHTTPReranker(server.URL, nil, DefaultBreakerConfig(), zap.NewNop())
	_, err := reranker.Score(context.Background(), "q", []string{"a"})

	assert.Error(t, err)
}

func TestHTTPDateResolver_Resolve_ReturnsRange(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(resolveResponse{Start: &start, End: &end})
	}))
	defer server.Close()

	resolver := NewHTTPDateResolver(server.URL, nil, DefaultBreakerConfig(), zap.NewNop())
	gotStart, gotEnd, err := resolver.Resolve(context.Background(), "last June", time.Now())

	require.NoError(t, err)
	require.NotNil(t, gotStart)
	require.NotNil(t, gotEnd)
	assert.True(t, start.Equal(*gotStart))
	assert.True(t, end.Equal(*gotEnd))
}

func TestHTTPDateResolver_Resolve_ReturnsNilRangeWhenUnresolved(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(resolveResponse{})
	}))
	defer server.Close()

	resolver := NewHTTPDateResolver(server.URL, nil, DefaultBreakerConfig(), zap.NewNop())
	start, end, err := resolver.Resolve(context.Background(), "no date here", time.Now())

	require.NoError(t, err)
	assert.Nil(t, start)
	assert.Nil(t, end)
}

func TestNewBreaker_TripsAfterFailureThreshold(t *testing.T) {
	cfg := BreakerConfig{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, FailureThreshold: 0.5, MinRequests: 2}
	breaker := newBreaker("test", cfg, zap.NewNop())

	failing := func() (interface{}, error) { return nil, assertFailure }
	_, _ = breaker.Execute(failing)
	_, _ = breaker.Execute(failing)

	_, err := breaker.Execute(func() (interface{}, error) { return "should not run", nil })
	assert.Error(t, err, "circuit should be open after exceeding the failure threshold")
}

var assertFailure = &capError{}

type capError struct{}

func (e *capError) Error() string { return "forced failure" }
