package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/axelbigot/webidx/internal/apppaths"
	"github.com/axelbigot/webidx/pkg/types"
)

func writeCorpusDoc(t *testing.T, dir, name, url, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	body := `{"url": "` + url + `", "content": ` + jsonQuote(content) + `, "encoding": "utf-8"}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func jsonQuote(s string) string {
	out := []byte{'"'}
	for _, r := range s {
		if r == '"' {
			out = append(out, '\\', '"')
		} else {
			out = append(out, byte(r))
		}
	}
	out = append(out, '"')
	return string(out)
}

func newTestConfig(t *testing.T, corpusDir string) *types.Config {
	t.Helper()
	cfg := types.DefaultConfig()
	cfg.Build.SourceDir = corpusDir
	cfg.Build.Name = "test-index"
	cfg.Storage.AppDataDir = t.TempDir()
	cfg.Build.PostingsFlushCount = 1000
	cfg.Build.PartitionPostingSize = 1000
	cfg.Build.MinAvailMemoryPerc = 0
	return cfg
}

func TestIndex_BuildThenSearch_EndToEnd(t *testing.T) {
	corpusDir := t.TempDir()
	writeCorpusDoc(t, corpusDir, "a.json", "https://example.com/a", "<h1>Master of Software Engineering</h1>")
	writeCorpusDoc(t, corpusDir, "b.json", "https://example.com/b", "<p>master</p>")

	cfg := newTestConfig(t, corpusDir)
	paths, err := apppaths.New(cfg.Storage.AppDataDir)
	if err != nil {
		t.Fatalf("apppaths.New() error = %v", err)
	}

	idx, err := New(cfg, paths)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if idx.State() != types.StateCreated {
		t.Fatalf("initial state = %s, want CREATED", idx.State())
	}

	if err := idx.Build(); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if idx.State() != types.StateQueryable {
		t.Fatalf("state after Build() = %s, want QUERYABLE", idx.State())
	}

	resp, err := idx.Search("master of software engineering")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].URL != "https://example.com/a" {
		t.Errorf("Results = %+v, want exactly doc a", resp.Results)
	}
}

func TestIndex_Search_BeforeQueryableIsAnError(t *testing.T) {
	corpusDir := t.TempDir()
	cfg := newTestConfig(t, corpusDir)
	paths, err := apppaths.New(cfg.Storage.AppDataDir)
	if err != nil {
		t.Fatalf("apppaths.New() error = %v", err)
	}
	idx, err := New(cfg, paths)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := idx.Search("anything"); err == nil {
		t.Error("expected an error searching an index that has not been built")
	}
}

func TestIndex_LoadExisting_ReusesPersistedState(t *testing.T) {
	corpusDir := t.TempDir()
	writeCorpusDoc(t, corpusDir, "a.json", "https://example.com/a", "<h1>alderis</h1>")

	cfg := newTestConfig(t, corpusDir)
	paths, err := apppaths.New(cfg.Storage.AppDataDir)
	if err != nil {
		t.Fatalf("apppaths.New() error = %v", err)
	}

	first, err := New(cfg, paths)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := first.Build(); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	cfg2 := newTestConfig(t, corpusDir)
	cfg2.Storage.AppDataDir = cfg.Storage.AppDataDir
	cfg2.Build.LoadExisting = true

	second, err := New(cfg2, paths)
	if err != nil {
		t.Fatalf("New() (second) error = %v", err)
	}
	if err := second.Build(); err != nil {
		t.Fatalf("Build() (second, load_existing) error = %v", err)
	}
	if second.State() != types.StateQueryable {
		t.Fatalf("state = %s, want QUERYABLE", second.State())
	}

	resp, err := second.Search("alderis")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(resp.Results) != 1 {
		t.Errorf("len(Results) = %d, want 1", len(resp.Results))
	}
}

func TestIndex_LoadExisting_FallsBackToRebuildWhenMissing(t *testing.T) {
	corpusDir := t.TempDir()
	writeCorpusDoc(t, corpusDir, "a.json", "https://example.com/a", "<h1>alderis</h1>")

	cfg := newTestConfig(t, corpusDir)
	cfg.Build.LoadExisting = true
	paths, err := apppaths.New(cfg.Storage.AppDataDir)
	if err != nil {
		t.Fatalf("apppaths.New() error = %v", err)
	}

	idx, err := New(cfg, paths)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	// No persisted state exists yet under this fresh data dir, so Build()
	// must fall back to a full rebuild rather than failing.
	if err := idx.Build(); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if idx.State() != types.StateQueryable {
		t.Fatalf("state = %s, want QUERYABLE", idx.State())
	}
}

func TestIndex_GetPathByID(t *testing.T) {
	corpusDir := t.TempDir()
	writeCorpusDoc(t, corpusDir, "a.json", "https://example.com/a", "<h1>alderis</h1>")

	cfg := newTestConfig(t, corpusDir)
	paths, err := apppaths.New(cfg.Storage.AppDataDir)
	if err != nil {
		t.Fatalf("apppaths.New() error = %v", err)
	}
	idx, err := New(cfg, paths)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := idx.Build(); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	path := idx.GetPathByID(1)
	if path == "" {
		t.Error("GetPathByID(1) returned empty path")
	}
}
