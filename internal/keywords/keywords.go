// Package keywords provides case-insensitive substring matching over
// free-text merchant context such as names, addresses and source labels.
package keywords

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Fold normalizes s to NFC and applies Unicode case folding, so that
// "SỈ", "sỉ" and a decomposed "sỉ" all compare equal.
func Fold(s string) string {
	// Casers keep state and must not be shared between goroutines.
	return cases.Fold().String(norm.NFC.String(s))
}

// Set is an immutable list of folded keywords.
type Set struct {
	words []string
}

// NewSet folds and stores the given keywords, dropping blanks.
func NewSet(words []string) Set {
	s := Set{words: make([]string, 0, len(words))}
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		s.words = append(s.words, Fold(w))
	}
	return s
}

// Match returns the first keyword contained in folded text, in declaration order.
func (s Set) Match(folded string) (string, bool) {
	for _, w := range s.words {
		if strings.Contains(folded, w) {
			return w, true
		}
	}
	return "", false
}

// Contains reports whether folded text contains any keyword.
func (s Set) Contains(folded string) bool {
	_, ok := s.Match(folded)
	return ok
}

// Len returns the number of keywords.
func (s Set) Len() int {
	return len(s.words)
}
