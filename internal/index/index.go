// Package index wires the PathMapper, Tokenizer, Builder, Merger,
// Partitioner, Document Vector Store, and Searcher together and owns the
// lifecycle state machine from spec.md §4.10.
//
// Wiring style is grounded on the teacher's cmd/memory-server/main.go
// initComponents, lifted into a reusable type since this design needs the
// state machine to be queryable by more than one entry point (build CLI,
// search CLI, MCP server).
package index

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gofrs/flock"

	"github.com/axelbigot/webidx/internal/apppaths"
	"github.com/axelbigot/webidx/internal/build"
	"github.com/axelbigot/webidx/internal/codec"
	"github.com/axelbigot/webidx/internal/mapper"
	"github.com/axelbigot/webidx/internal/merge"
	"github.com/axelbigot/webidx/internal/normalize"
	"github.com/axelbigot/webidx/internal/partition"
	"github.com/axelbigot/webidx/internal/search"
	"github.com/axelbigot/webidx/internal/simhash"
	"github.com/axelbigot/webidx/internal/tokenizer"
	"github.com/axelbigot/webidx/internal/vectorstore"
	"github.com/axelbigot/webidx/pkg/types"
)

// Index owns the full build-then-query lifecycle for one corpus.
type Index struct {
	mu    sync.RWMutex
	state types.State

	cfg      *types.Config
	paths    apppaths.AppPaths
	indexDir string
	lock     *flock.Flock

	pathMapper *mapper.PathMapper
	builder    *build.Builder
	searcher   *search.Searcher
}

// New creates an Index in the CREATED state for the given corpus root.
func New(cfg *types.Config, paths apppaths.AppPaths) (*Index, error) {
	name := cfg.Build.Name
	if name == "" {
		name = apppaths.Sanitize(cfg.Build.SourceDir)
	}

	idx := &Index{
		state:    types.StateCreated,
		cfg:      cfg,
		paths:    paths,
		indexDir: paths.IndexDir(name),
	}
	return idx, nil
}

// State returns the current lifecycle state.
func (idx *Index) State() types.State {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.state
}

func (idx *Index) requireState(op string, want types.State) error {
	if idx.state != want {
		return types.Errorf(op, types.ErrInvalidState, "expected state %s, got %s", want, idx.state)
	}
	return nil
}

// Build runs the full build pipeline: PathMapper walk, ingest+flush,
// merge, partition, and vectorize, in that order (spec.md §5: single
// phase at a time). An advisory lock on the index root is held for the
// duration, per spec.md §5's process-exclusive build requirement.
func (idx *Index) Build() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if err := idx.requireState("index.Build", types.StateCreated); err != nil {
		return err
	}

	if idx.cfg.Build.LoadExisting {
		loaded, err := idx.tryLoadExistingLocked()
		if err != nil {
			return err
		}
		if loaded {
			return nil
		}
		// ConfigError per spec.md §7: load_existing with a missing/partial
		// directory falls back to an automatic rebuild, with a warning.
		log.Printf("index: load_existing requested but %s has no complete partitioned index; rebuilding", idx.indexDir)
	}

	if err := apppaths.EnsureDir(idx.indexDir); err != nil {
		return types.WrapError("index.Build", types.ErrStorageIO, err)
	}

	idx.lock = flock.New(idx.indexDir + ".lock")
	locked, err := idx.lock.TryLock()
	if err != nil {
		return types.WrapError("index.Build", types.ErrStorageIO, err)
	}
	if !locked {
		return types.Errorf("index.Build", types.ErrInvalidState, "index root %s is locked by another build", idx.indexDir)
	}
	defer idx.lock.Unlock()

	idx.state = types.StateBuilding

	mapperPath := idx.paths.MapperPath(idx.cfg.Build.SourceDir)
	pathMapper, err := mapper.Load(mapperPath)
	if err != nil {
		return err
	}
	docs, err := pathMapper.Build(idx.cfg.Build.SourceDir)
	if err != nil {
		return err
	}
	idx.pathMapper = pathMapper

	lemmatizer := normalize.Default()
	tok := tokenizer.New(lemmatizer, idx.cfg.Build.MinTokenLen)
	dupFilter := simhash.NewFilterSet(idx.cfg.Build.SimHashThreshold, !idx.cfg.Build.NoDuplicateDetection)

	builder, err := build.New(idx.cfg.Build, tok, dupFilter, idx.indexDir)
	if err != nil {
		return err
	}
	idx.builder = builder

	for _, doc := range docs {
		if err := builder.Ingest(doc); err != nil {
			return err // DataIntegrityError and similar are fatal, spec.md §7.
		}
	}
	if err := builder.Flush(); err != nil {
		return err
	}
	if err := pathMapper.Persist(); err != nil {
		return err
	}
	idx.state = types.StateFlushedRuns
	log.Printf("index: flushed %d run(s), %v", len(builder.RunPaths()), builder.Stats())

	mergedPath := idx.indexDir + "/merged.bin"
	if err := merge.Merge(builder.RunPaths(), mergedPath, idx.cfg.Build.PostingsFlushCount); err != nil {
		return err
	}
	idx.state = types.StateMerged

	routingKeys, err := partition.Partition(mergedPath, idx.indexDir, idx.cfg.Build.PartitionPostingSize)
	if err != nil {
		return err
	}
	idx.state = types.StatePartitioned

	vecStorePath := idx.paths.VectorStorePath(idx.cfg.Build.SourceDir)
	vecStore := vectorstore.New(vecStorePath)
	for _, doc := range docs {
		raw, err := os.ReadFile(doc.Path)
		if err != nil {
			continue
		}
		result, err := tok.Tokenize(doc.Path, []byte(extractContent(raw)))
		if err != nil {
			continue
		}
		vec := make(types.DocumentVector, len(result.Plain))
		for token, freq := range result.Plain {
			vec[token] = freq
		}
		vecStore.Set(doc.ID, vec)
	}
	if err := vecStore.Persist(); err != nil {
		return err
	}
	idx.state = types.StateVectorized

	idx.searcher = search.New(pathMapper, vecStore, routingKeys, lemmatizer, normalize.Identity,
		pathMapper.Count(), idx.cfg.Search.PrimaryRankTop, idx.cfg.Search.PartitionCacheTTLSeconds)
	idx.state = types.StateQueryable

	return nil
}

// tryLoadExistingLocked attempts to reconstruct a QUERYABLE Searcher from
// already-persisted state (mapper, vector store, partition files) without
// re-walking or re-tokenizing the corpus, per spec.md §6's load_existing
// option. The caller holds idx.mu. Returns (false, nil) if any required
// piece of persisted state is missing, signalling the caller to fall back
// to a full Build().
func (idx *Index) tryLoadExistingLocked() (bool, error) {
	mapperPath := idx.paths.MapperPath(idx.cfg.Build.SourceDir)
	pathMapper, err := mapper.Load(mapperPath)
	if err != nil {
		return false, err
	}
	if pathMapper.Count() == 0 {
		return false, nil
	}

	vecStorePath := idx.paths.VectorStorePath(idx.cfg.Build.SourceDir)
	vecStore, err := vectorstore.Load(vecStorePath)
	if err != nil {
		return false, err
	}
	if vecStore.Len() == 0 {
		return false, nil
	}

	partitionPaths, err := filepath.Glob(filepath.Join(idx.indexDir, "partition_*.bin"))
	if err != nil {
		return false, types.WrapError("index.LoadExisting", types.ErrStorageIO, err)
	}
	if len(partitionPaths) == 0 {
		return false, nil
	}

	routingKeys := make([]partition.RoutingKey, 0, len(partitionPaths))
	for _, p := range partitionPaths {
		minToken, ok, err := peekFirstToken(p)
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}
		routingKeys = append(routingKeys, partition.RoutingKey{MinToken: minToken, Path: p})
	}
	if len(routingKeys) == 0 {
		return false, nil
	}
	sort.Slice(routingKeys, func(i, j int) bool { return routingKeys[i].MinToken < routingKeys[j].MinToken })

	idx.pathMapper = pathMapper
	lemmatizer := normalize.Default()
	idx.searcher = search.New(pathMapper, vecStore, routingKeys, lemmatizer, normalize.Identity,
		pathMapper.Count(), idx.cfg.Search.PrimaryRankTop, idx.cfg.Search.PartitionCacheTTLSeconds)
	idx.state = types.StateQueryable

	log.Printf("index: loaded existing index from %s (%d docs, %d partitions)",
		idx.indexDir, pathMapper.Count(), len(routingKeys))
	return true, nil
}

// peekFirstToken opens a partition file and reads just its first record's
// token, to recover the routing key without scanning the whole file.
func peekFirstToken(path string) (string, bool, error) {
	reader, err := codec.OpenRunReader(path)
	if err != nil {
		return "", false, types.WrapError("index.LoadExisting", types.ErrStorageIO, err)
	}
	defer reader.Close()

	token, _, ok, err := reader.Next()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Search answers a query. It is a programmer error to call Search before
// the index reaches QUERYABLE (spec.md §4.10).
func (idx *Index) Search(query string) (types.SearchResponse, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.state != types.StateQueryable {
		return types.SearchResponse{}, types.Errorf("index.Search", types.ErrInvalidState,
			"index is %s, not QUERYABLE", idx.state)
	}
	return idx.searcher.Search(query), nil
}

// GetPathByID resolves a DocID to its source file path, the second
// external-summary-layer operation named in spec.md §6.
func (idx *Index) GetPathByID(id types.DocID) string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.pathMapper == nil {
		return ""
	}
	return idx.pathMapper.GetPathByID(id)
}

// Destroy tears down the index. If persist is false, the index directory
// is removed; cleanup errors are logged, never panicked, per spec.md §9's
// redesign of the original's finalizer-based cleanup into scoped ownership.
func (idx *Index) Destroy() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if !idx.cfg.Build.Persist {
		if err := os.RemoveAll(idx.indexDir); err != nil {
			log.Printf("index.Destroy: %v", err)
		}
	}
	idx.state = types.StateDestroyed
}

// contentDoc mirrors the corpus input JSON shape, used only to pull the
// content field back out for vectorization. Malformed documents still
// carry a DocID from the mapper; for them extractContent returns "" and
// they get an empty vector.
type contentDoc struct {
	Content string `json:"content"`
}

func extractContent(raw []byte) string {
	var doc contentDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ""
	}
	return doc.Content
}
