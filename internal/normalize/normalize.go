// Package normalize provides pluggable token-normalization, matching the
// contract in spec.md §4.1: normalize(token) -> token, idempotent and
// deterministic.
package normalize

import "github.com/blevesearch/go-porterstemmer"

// Normalizer reduces a token to its normalized (lemmatized) form.
type Normalizer interface {
	Normalize(token string) string
}

// Func adapts a plain function to the Normalizer interface.
type Func func(string) string

func (f Func) Normalize(token string) string { return f(token) }

// Identity is a no-op normalizer, used by tests and wherever lemmatization
// is disabled.
var Identity Normalizer = Func(func(s string) string { return s })

// stemmer wraps github.com/blevesearch/go-porterstemmer, the default
// English lemmatizer named in spec.md §4.1.
type stemmer struct{}

// Default returns the default English stemmer-backed normalizer.
func Default() Normalizer { return stemmer{} }

func (stemmer) Normalize(token string) string {
	if token == "" {
		return token
	}
	return porterstemmer.StemString(token)
}
