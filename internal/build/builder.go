// Package build implements the InvertedIndex Builder from spec.md §4.4: it
// streams corpus documents through the Tokenizer and near-duplicate filter,
// accumulates an in-memory token buffer, and periodically flushes sorted
// runs to disk under posting-count or memory-pressure backpressure.
//
// Style is grounded on the teacher's internal/search/inverted.go (a
// mutex-guarded struct exposing Stats()); the flush thresholds are
// grounded on original_source/index/inverted_index.py.
package build

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/axelbigot/webidx/internal/apppaths"
	"github.com/axelbigot/webidx/internal/codec"
	"github.com/axelbigot/webidx/internal/mapper"
	"github.com/axelbigot/webidx/internal/simhash"
	"github.com/axelbigot/webidx/internal/tokenizer"
	"github.com/axelbigot/webidx/pkg/types"
)

// rawDocument mirrors the corpus input contract from spec.md §6.
type rawDocument struct {
	URL      string `json:"url"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// Builder accumulates postings in memory and flushes sorted runs to disk.
type Builder struct {
	mu sync.Mutex

	cfg       types.BuildConfig
	tok       *tokenizer.Tokenizer
	dupFilter *simhash.FilterSet
	indexDir  string

	buffer       map[string]*types.TokenEntry
	postingCount int

	runPaths    []string
	pagesIndexed int
	docsSkipped  int
}

// New constructs a Builder writing run files under indexDir.
func New(cfg types.BuildConfig, tok *tokenizer.Tokenizer, dupFilter *simhash.FilterSet, indexDir string) (*Builder, error) {
	if err := apppaths.EnsureDir(indexDir); err != nil {
		return nil, types.WrapError("build.New", types.ErrStorageIO, err)
	}
	return &Builder{
		cfg:      cfg,
		tok:      tok,
		dupFilter: dupFilter,
		indexDir: indexDir,
		buffer:   make(map[string]*types.TokenEntry),
	}, nil
}

// Ingest processes a single discovered document per spec.md §4.4's
// per-document procedure. Recoverable per-document errors (corpus format,
// HTML parse) are logged and the document is elided; data-integrity
// errors abort the build.
func (b *Builder) Ingest(doc mapper.Document) error {
	raw, err := os.ReadFile(doc.Path)
	if err != nil {
		log.Printf("build: %s: %v", doc.Path, err)
		b.docsSkipped++
		return nil
	}

	var parsed rawDocument
	if err := json.Unmarshal(raw, &parsed); err != nil {
		log.Printf("build: malformed corpus document %s: %v", doc.Path, types.WrapError("build.Ingest", types.ErrCorpusFormat, err))
		b.docsSkipped++
		return nil
	}

	result, err := b.tok.Tokenize(doc.Path, []byte(parsed.Content))
	if err != nil {
		// DataIntegrityError is fatal for the build, per spec.md §7.
		return err
	}

	if !b.dupFilter.Accept(result.Plain) {
		b.docsSkipped++
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for token, tagFreqs := range result.Tagged {
		entry, ok := b.buffer[token]
		if !ok {
			entry = &types.TokenEntry{}
			b.buffer[token] = entry
		}
		entry.DF++
		entry.Postings = append(entry.Postings, types.Posting{
			DocID:          doc.ID,
			Frequency:      tagFreqs.Sum(),
			TagFrequencies: tagFreqs,
		})
		b.postingCount++
	}
	b.pagesIndexed++

	if b.shouldFlushLocked() {
		return b.flushLocked()
	}
	return nil
}

func (b *Builder) shouldFlushLocked() bool {
	if b.postingCount == 0 {
		return false
	}
	if b.postingCount >= b.cfg.PostingsFlushCount {
		return true
	}
	return availableMemoryFraction() < b.cfg.MinAvailMemoryPerc
}

// Flush forces a flush of any buffered postings, used after the final
// document is ingested (spec.md §4.4: "after all documents are processed,
// flush any residual").
func (b *Builder) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.postingCount == 0 {
		return nil
	}
	return b.flushLocked()
}

// flushLocked writes the current buffer to a new run file, sorted by
// token, then clears the buffer. Must be called with b.mu held.
func (b *Builder) flushLocked() error {
	tokens := make([]string, 0, len(b.buffer))
	for t := range b.buffer {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)

	runPath := fmt.Sprintf("%s/run_%s.bin", b.indexDir, uuid.NewString())
	w, err := codec.CreateRunWriter(runPath)
	if err != nil {
		return err
	}

	for _, token := range tokens {
		if err := w.Write(token, *b.buffer[token]); err != nil {
			w.Close()
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	b.runPaths = append(b.runPaths, runPath)
	b.buffer = make(map[string]*types.TokenEntry)
	b.postingCount = 0
	return nil
}

// RunPaths returns the run files flushed so far.
func (b *Builder) RunPaths() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.runPaths))
	copy(out, b.runPaths)
	return out
}

// Stats reports build progress, in the teacher's Stats() map idiom.
func (b *Builder) Stats() map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return map[string]interface{}{
		"pages_indexed":        b.pagesIndexed,
		"docs_skipped":         b.docsSkipped,
		"runs_flushed":         len(b.runPaths),
		"buffered_posting_count": b.postingCount,
	}
}
