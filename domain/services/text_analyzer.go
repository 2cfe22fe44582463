// Package services holds stateless domain logic that operates across
// entities rather than belonging to any single aggregate: tokenization,
// similarity, temporal scoring, and graph analytics.
package services

import (
	"strings"
	"unicode"
)

// Tokenize implements the BM25 index's tokenization policy (§4.4):
// lowercase, Unicode word segmentation. Stopwords are not removed here;
// BM25's own IDF term naturally discounts common words, and spec.md
// marks the stopword list optional.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// TermFrequencies counts token occurrences in a tokenized document.
func TermFrequencies(tokens []string) map[string]int {
	freq := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		freq[tok]++
	}
	return freq
}
