package ports

import (
	"context"
	"time"

	"github.com/artemMprokhorov/hippograph-pro/domain/core/valueobjects"
)

// ExtractedEntity is one surface form the external extractor found.
type ExtractedEntity struct {
	Surface    string
	Type       string
	Confidence float64
}

// Embedder encodes text into a unit-normalized dense vector (§6). It is
// an external collaborator — the embedding model itself is out of
// scope — represented here as a narrow capability interface so the
// retriever branches on presence, not on subtype (§9).
type Embedder interface {
	Encode(ctx context.Context, text string) (valueobjects.Embedding, error)
}

// EntityExtractor extracts candidate entity mentions from text. It is a
// total function: extraction failures return an empty slice rather than
// an error (§6).
type EntityExtractor interface {
	Extract(ctx context.Context, text string) ([]ExtractedEntity, error)
}

// Reranker cross-encodes a query against candidate texts, returning one
// score per text in the same order. Optional; its absence is handled by
// the retriever (§4.6.3).
type Reranker interface {
	Score(ctx context.Context, query string, texts []string) ([]float32, error)
}

// DateResolver extracts an event-time range from text relative to a base
// time. Either return value may be nil (§9: bi-temporal ambiguity is
// never guessed).
type DateResolver interface {
	Resolve(ctx context.Context, text string, base time.Time) (start, end *time.Time, err error)
}

// NoopEntityExtractor is the "disabled" variant of EntityExtractor: it
// always returns no entities, matching the extractor's own documented
// total-function failure mode rather than a distinct disabled path.
type NoopEntityExtractor struct{}

func (NoopEntityExtractor) Extract(ctx context.Context, text string) ([]ExtractedEntity, error) {
	return nil, nil
}

// NoopReranker is the "disabled" variant of Reranker. The retriever
// checks availability through the hasReranker flag passed to
// NewRetriever rather than calling this
// directly, but it is kept so callers that always hold a Reranker value
// have a safe default.
type NoopReranker struct{}

func (NoopReranker) Score(ctx context.Context, query string, texts []string) ([]float32, error) {
	scores := make([]float32, len(texts))
	return scores, nil
}

// NoopDateResolver is the "disabled" variant of DateResolver: it never
// resolves a range, matching §9's open-ended-range policy.
type NoopDateResolver struct{}

func (NoopDateResolver) Resolve(ctx context.Context, text string, base time.Time) (*time.Time, *time.Time, error) {
	return nil, nil, nil
}
