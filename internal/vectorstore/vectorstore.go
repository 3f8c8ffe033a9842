// Package vectorstore implements the Document Vector Store from spec.md
// §4.8: a persisted, per-document plain term-frequency vector (no tag
// weighting), used by the Searcher's cosine re-rank stage.
//
// Grounded on original_source/index/JSONtokenizer.py::compute_word_frequencies,
// the same counting logic without tag weighting.
package vectorstore

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"

	"github.com/google/renameio"

	"github.com/axelbigot/webidx/pkg/types"
)

// Store holds every document's term-frequency vector, keyed by DocID.
type Store struct {
	path    string
	vectors map[types.DocID]types.DocumentVector
}

// New creates an empty Store that persists to path.
func New(path string) *Store {
	return &Store{path: path, vectors: make(map[types.DocID]types.DocumentVector)}
}

// Load reads a previously persisted Store from path, or returns an empty
// Store if the file does not exist.
func Load(path string) (*Store, error) {
	s := New(path)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, types.WrapError("vectorstore.Load", types.ErrStorageIO, err)
	}
	var raw map[types.DocID]types.DocumentVector
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, types.WrapError("vectorstore.Load", types.ErrStorageIO, err)
	}
	s.vectors = raw
	return s, nil
}

// Set stores vec for doc.
func (s *Store) Set(doc types.DocID, vec types.DocumentVector) {
	s.vectors[doc] = vec
}

// Get returns the vector for doc, or nil if unknown.
func (s *Store) Get(doc types.DocID) types.DocumentVector {
	return s.vectors[doc]
}

// Len reports how many document vectors are held.
func (s *Store) Len() int {
	return len(s.vectors)
}

// Persist atomically writes the store to disk via write-to-temp-then-rename.
func (s *Store) Persist() error {
	data, err := json.Marshal(s.vectors)
	if err != nil {
		return types.WrapError("vectorstore.Persist", types.ErrStorageIO, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return types.WrapError("vectorstore.Persist", types.ErrStorageIO, err)
	}
	if err := renameio.WriteFile(s.path, data, 0o644); err != nil {
		return types.WrapError("vectorstore.Persist", types.ErrStorageIO, err)
	}
	return nil
}

// Cosine computes the cosine similarity between a query frequency vector
// and a document vector.
func Cosine(query map[string]uint64, doc types.DocumentVector) float64 {
	if len(query) == 0 || len(doc) == 0 {
		return 0
	}
	var dot, queryNorm, docNorm float64
	for token, qf := range query {
		queryNorm += float64(qf) * float64(qf)
		if df, ok := doc[token]; ok {
			dot += float64(qf) * float64(df)
		}
	}
	for _, df := range doc {
		docNorm += float64(df) * float64(df)
	}
	if queryNorm == 0 || docNorm == 0 {
		return 0
	}
	return dot / (math.Sqrt(queryNorm) * math.Sqrt(docNorm))
}
