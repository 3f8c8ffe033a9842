// Package mapper implements the PathMapper component from spec.md §4.3: it
// assigns stable integer DocIDs to corpus documents in discovery order and
// persists the path<->id and url<->id bimaps.
//
// This merges the Python original's separate PathMapper and URLMapper
// classes (original_source/index/path_mapper.py, url_mapper.py) into one
// type, per spec.md §4.3's unified get_id/get_id_by_url/get_url_by_id/
// get_path_by_id contract.
package mapper

import (
	"encoding/json"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/renameio"

	"github.com/axelbigot/webidx/pkg/types"
)

// Document describes one corpus file as discovered by the PathMapper walk.
type Document struct {
	ID   types.DocID
	Path string
	URL  string // empty if the JSON was malformed or had no url field
}

// persistedState is the PathMapper's on-disk JSON representation.
type persistedState struct {
	PathToID map[string]types.DocID `json:"path_to_id"`
	URLToID  map[string]types.DocID `json:"url_to_id"`
	NextID   types.DocID            `json:"next_id"`
}

// rawDocument mirrors the corpus input contract from spec.md §6.
type rawDocument struct {
	URL      string `json:"url"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// PathMapper assigns and persists stable DocIDs for a corpus root.
type PathMapper struct {
	mu         sync.RWMutex
	persistPath string
	pathToID   map[string]types.DocID
	idToPath   map[types.DocID]string
	urlToID    map[string]types.DocID
	idToURL    map[types.DocID]string
	nextID     types.DocID
}

// Load reads a previously persisted PathMapper from persistPath, or
// returns an empty mapper if the file does not exist.
func Load(persistPath string) (*PathMapper, error) {
	m := &PathMapper{
		persistPath: persistPath,
		pathToID:    make(map[string]types.DocID),
		idToPath:    make(map[types.DocID]string),
		urlToID:     make(map[string]types.DocID),
		idToURL:     make(map[types.DocID]string),
		nextID:      1,
	}

	data, err := os.ReadFile(persistPath)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, types.WrapError("mapper.Load", types.ErrStorageIO, err)
	}

	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, types.WrapError("mapper.Load", types.ErrStorageIO, err)
	}

	m.pathToID = state.PathToID
	m.urlToID = state.URLToID
	m.nextID = state.NextID
	for p, id := range m.pathToID {
		m.idToPath[id] = p
	}
	for u, id := range m.urlToID {
		m.idToURL[id] = u
	}
	return m, nil
}

// Build walks sourceDir recursively, assigning a DocID to every *.json file
// in discovery order, per spec.md §4.3. Returns the discovered documents in
// assignment order.
func (m *PathMapper) Build(sourceDir string) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var docs []Document

	err := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		if _, exists := m.pathToID[path]; exists {
			docs = append(docs, Document{ID: m.pathToID[path], Path: path, URL: m.idToURL[m.pathToID[path]]})
			return nil
		}

		id := m.nextID
		m.nextID++
		m.pathToID[path] = id
		m.idToPath[id] = path

		url, ok := readURL(path)
		if ok && url != "" {
			if _, taken := m.urlToID[url]; !taken {
				// First occurrence wins, per spec.md §4.3.
				m.urlToID[url] = id
				m.idToURL[id] = url
			}
		}

		docs = append(docs, Document{ID: id, Path: path, URL: m.idToURL[id]})
		return nil
	})
	if err != nil {
		return nil, types.WrapError("mapper.Build", types.ErrStorageIO, err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// readURL opens and parses a corpus JSON file, extracting its url field.
// Malformed JSON is logged and skipped for URL extraction (the caller
// still assigns the file a DocID), per spec.md §7's CorpusFormatError
// handling.
func readURL(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("mapper: %s: %v", path, err)
		return "", false
	}
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Printf("mapper: malformed corpus document %s: %v", path, err)
		return "", false
	}
	return raw.URL, true
}

// GetID returns the DocID for path, or -1 if unknown.
func (m *PathMapper) GetID(path string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.pathToID[path]; ok {
		return int64(id)
	}
	return -1
}

// GetIDByURL returns the DocID for url, or -1 if unknown.
func (m *PathMapper) GetIDByURL(url string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.urlToID[url]; ok {
		return int64(id)
	}
	return -1
}

// GetURLByID returns the url for id, or "" if unknown.
func (m *PathMapper) GetURLByID(id types.DocID) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.idToURL[id]
}

// GetPathByID returns the path for id, or "" if unknown.
func (m *PathMapper) GetPathByID(id types.DocID) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.idToPath[id]
}

// Count returns the number of distinct DocIDs assigned.
func (m *PathMapper) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.idToPath)
}

// Persist atomically writes the mapper state to its persistPath, via
// write-to-temp-then-rename (github.com/google/renameio) so a crash never
// leaves a partially written mapper file.
func (m *PathMapper) Persist() error {
	m.mu.RLock()
	state := persistedState{
		PathToID: m.pathToID,
		URLToID:  m.urlToID,
		NextID:   m.nextID,
	}
	m.mu.RUnlock()

	data, err := json.Marshal(state)
	if err != nil {
		return types.WrapError("mapper.Persist", types.ErrStorageIO, err)
	}

	if err := os.MkdirAll(filepath.Dir(m.persistPath), 0o755); err != nil {
		return types.WrapError("mapper.Persist", types.ErrStorageIO, err)
	}
	if err := renameio.WriteFile(m.persistPath, data, 0o644); err != nil {
		return types.WrapError("mapper.Persist", types.ErrStorageIO, err)
	}
	return nil
}
