// Package acl is an anti-corruption layer between HippoGraph's narrow
// capability ports (Embedder, EntityExtractor, Reranker, DateResolver)
// and whatever HTTP service backs each one. Every call is wrapped in
// its own circuit breaker so a flaky external service degrades the
// retriever or ingest pipeline instead of cascading into them.
package acl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/artemMprokhorov/hippograph-pro/application/ports"
	"github.com/artemMprokhorov/hippograph-pro/domain/core/valueobjects"
)

// BreakerConfig tunes the gobreaker wrapping each adapter. Mirrors the
// teacher's middleware.CircuitBreakerConfig shape.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns sensible defaults for an external AI
// service: a handful of half-open probes, a short reset window.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      3,
		Interval:         10 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      3,
	}
}

func newBreaker(name string, cfg BreakerConfig, logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(breakerName string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", breakerName),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}

func postJSON(ctx context.Context, client *http.Client, url string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("acl: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("acl: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("acl: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("acl: %s returned %d: %s", url, resp.StatusCode, string(data))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("acl: decode response: %w", err)
	}
	return nil
}

// HTTPEmbedder calls an external embedding service's /encode endpoint.
type HTTPEmbedder struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	dim     int
}

// NewHTTPEmbedder builds a circuit-breaker-protected Embedder adapter.
// dim is the vector dimension the embedding service is expected to
// return; a mismatch is treated as a request failure.
func NewHTTPEmbedder(baseURL string, dim int, client *http.Client, cfg BreakerConfig, logger *zap.Logger) *HTTPEmbedder {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPEmbedder{
		baseURL: baseURL,
		client:  client,
		breaker: newBreaker("embedder", cfg, logger),
		dim:     dim,
	}
}

type encodeRequest struct {
	Text string `json:"text"`
}

type encodeResponse struct {
	Vector []float32 `json:"vector"`
}

// Encode satisfies ports.Embedder.
func (h *HTTPEmbedder) Encode(ctx context.Context, text string) (valueobjects.Embedding, error) {
	result, err := h.breaker.Execute(func() (interface{}, error) {
		var resp encodeResponse
		if err := postJSON(ctx, h.client, h.baseURL+"/encode", encodeRequest{Text: text}, &resp); err != nil {
			return nil, err
		}
		return resp.Vector, nil
	})
	if err != nil {
		return valueobjects.Embedding{}, err
	}
	vector, _ := result.([]float32)
	return valueobjects.NewEmbedding(vector, h.dim)
}

// HTTPEntityExtractor calls an external NER service's /extract endpoint.
type HTTPEntityExtractor struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewHTTPEntityExtractor builds a circuit-breaker-protected
// EntityExtractor adapter.
func NewHTTPEntityExtractor(baseURL string, client *http.Client, cfg BreakerConfig, logger *zap.Logger) *HTTPEntityExtractor {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPEntityExtractor{
		baseURL: baseURL,
		client:  client,
		breaker: newBreaker("entity_extractor", cfg, logger),
		logger:  logger,
	}
}

type extractRequest struct {
	Text string `json:"text"`
}

type extractResponse struct {
	Entities []ports.ExtractedEntity `json:"entities"`
}

// Extract satisfies ports.EntityExtractor. Per the port's contract it is
// a total function: any transport or breaker failure is logged and
// folded into an empty result rather than propagated.
func (h *HTTPEntityExtractor) Extract(ctx context.Context, text string) ([]ports.ExtractedEntity, error) {
	result, err := h.breaker.Execute(func() (interface{}, error) {
		var resp extractResponse
		if err := postJSON(ctx, h.client, h.baseURL+"/extract", extractRequest{Text: text}, &resp); err != nil {
			return nil, err
		}
		return resp.Entities, nil
	})
	if err != nil {
		h.logger.Warn("entity extraction unavailable, continuing without entities", zap.Error(err))
		return nil, nil
	}
	entities, _ := result.([]ports.ExtractedEntity)
	return entities, nil
}

// HTTPReranker calls an external cross-encoder service's /score endpoint.
type HTTPReranker struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewHTTPReranker builds a circuit-breaker-protected Reranker adapter.
func NewHTTPReranker(baseURL string, client *http.Client, cfg BreakerConfig, logger *zap.Logger) *HTTPReranker {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPReranker{
		baseURL: baseURL,
		client:  client,
		breaker: newBreaker("reranker", cfg, logger),
	}
}

type scoreRequest struct {
	Query string   `json:"query"`
	Texts []string `json:"texts"`
}

type scoreResponse struct {
	Scores []float32 `json:"scores"`
}

// Score satisfies ports.Reranker. The retriever already treats a
// Reranker error as "skip rerank" (§4.6.3), so failures propagate
// unchanged rather than being swallowed here.
func (h *HTTPReranker) Score(ctx context.Context, query string, texts []string) ([]float32, error) {
	result, err := h.breaker.Execute(func() (interface{}, error) {
		var resp scoreResponse
		if err := postJSON(ctx, h.client, h.baseURL+"/score", scoreRequest{Query: query, Texts: texts}, &resp); err != nil {
			return nil, err
		}
		return resp.Scores, nil
	})
	if err != nil {
		return nil, err
	}
	scores, _ := result.([]float32)
	return scores, nil
}

// HTTPDateResolver calls an external date-parsing service's /resolve
// endpoint.
type HTTPDateResolver struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewHTTPDateResolver builds a circuit-breaker-protected DateResolver
// adapter.
func NewHTTPDateResolver(baseURL string, client *http.Client, cfg BreakerConfig, logger *zap.Logger) *HTTPDateResolver {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPDateResolver{
		baseURL: baseURL,
		client:  client,
		breaker: newBreaker("date_resolver", cfg, logger),
	}
}

type resolveRequest struct {
	Text string    `json:"text"`
	Base time.Time `json:"base"`
}

type resolveResponse struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// Resolve satisfies ports.DateResolver. §9 treats an unresolved range
// as "never guess", so breaker and transport failures surface as a
// plain error for the retriever to fold into its own degradation path.
func (h *HTTPDateResolver) Resolve(ctx context.Context, text string, base time.Time) (*time.Time, *time.Time, error) {
	result, err := h.breaker.Execute(func() (interface{}, error) {
		var resp resolveResponse
		if err := postJSON(ctx, h.client, h.baseURL+"/resolve", resolveRequest{Text: text, Base: base}, &resp); err != nil {
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		return nil, nil, err
	}
	resp, _ := result.(resolveResponse)
	return resp.Start, resp.End, nil
}

var (
	_ ports.Embedder        = (*HTTPEmbedder)(nil)
	_ ports.EntityExtractor = (*HTTPEntityExtractor)(nil)
	_ ports.Reranker        = (*HTTPReranker)(nil)
	_ ports.DateResolver    = (*HTTPDateResolver)(nil)
)
