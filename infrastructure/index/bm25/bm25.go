// Package bm25 is the inverted index with Okapi BM25 scoring (§4.4).
package bm25

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/artemMprokhorov/hippograph-pro/application/ports"
	"github.com/artemMprokhorov/hippograph-pro/domain/services"
)

// Index is a thread-safe in-memory inverted index, grounded on the
// standard term-frequency/document-frequency bookkeeping of a
// BM25 scorer: a per-term postings list plus document-length stats for
// the length-normalization term.
type Index struct {
	mu sync.RWMutex

	k1 float64
	b  float64

	postings     map[string]map[int64]int // term -> docID -> term frequency
	docLengths   map[int64]int
	totalLength  int
	docCount     int
}

// New constructs an empty index with the given BM25 parameters.
func New(k1, b float64) *Index {
	return &Index{
		k1:         k1,
		b:          b,
		postings:   make(map[string]map[int64]int),
		docLengths: make(map[int64]int),
	}
}

func (idx *Index) Add(ctx context.Context, id int64, text string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(id)

	tokens := services.Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	freqs := services.TermFrequencies(tokens)
	for term, freq := range freqs {
		if idx.postings[term] == nil {
			idx.postings[term] = make(map[int64]int)
		}
		idx.postings[term][id] = freq
	}
	idx.docLengths[id] = len(tokens)
	idx.totalLength += len(tokens)
	idx.docCount++
	return nil
}

func (idx *Index) Remove(ctx context.Context, id int64) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(id)
	return nil
}

func (idx *Index) removeLocked(id int64) {
	length, exists := idx.docLengths[id]
	if !exists {
		return
	}
	for term, docs := range idx.postings {
		if _, ok := docs[id]; ok {
			delete(docs, id)
			if len(docs) == 0 {
				delete(idx.postings, term)
			}
		}
	}
	delete(idx.docLengths, id)
	idx.totalLength -= length
	idx.docCount--
}

func (idx *Index) avgDocLength() float64 {
	if idx.docCount == 0 {
		return 0
	}
	return float64(idx.totalLength) / float64(idx.docCount)
}

// idf is the Okapi BM25 inverse-document-frequency term in its log(1+...)
// form, which stays positive, so a term appearing in every document still
// contributes; the floor at zero only guards against a negative value.
func (idx *Index) idf(term string) float64 {
	n := float64(idx.docCount)
	df := float64(len(idx.postings[term]))
	v := math.Log(1 + (n-df+0.5)/(df+0.5))
	if v < 0 {
		return 0
	}
	return v
}

func (idx *Index) Search(ctx context.Context, terms []string, k int) ([]ports.ScoredID, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.docCount == 0 || len(terms) == 0 {
		return nil, nil
	}

	avgLen := idx.avgDocLength()
	scores := make(map[int64]float64)
	for _, term := range terms {
		docs, ok := idx.postings[term]
		if !ok {
			continue
		}
		idf := idx.idf(term)
		for docID, tf := range docs {
			docLen := float64(idx.docLengths[docID])
			numerator := float64(tf) * (idx.k1 + 1)
			denominator := float64(tf) + idx.k1*(1-idx.b+idx.b*(docLen/avgLen))
			scores[docID] += idf * (numerator / denominator)
		}
	}

	results := make([]ports.ScoredID, 0, len(scores))
	for id, score := range scores {
		results = append(results, ports.ScoredID{ID: id, Score: score})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (idx *Index) Rebuild(ctx context.Context, documents map[int64]string) error {
	idx.mu.Lock()
	idx.postings = make(map[string]map[int64]int)
	idx.docLengths = make(map[int64]int)
	idx.totalLength = 0
	idx.docCount = 0
	idx.mu.Unlock()

	for id, text := range documents {
		if err := idx.Add(ctx, id, text); err != nil {
			return err
		}
	}
	return nil
}

func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.docCount
}
