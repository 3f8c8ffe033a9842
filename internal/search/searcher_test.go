package search

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/axelbigot/webidx/internal/codec"
	"github.com/axelbigot/webidx/internal/mapper"
	"github.com/axelbigot/webidx/internal/normalize"
	"github.com/axelbigot/webidx/internal/partition"
	"github.com/axelbigot/webidx/internal/vectorstore"
	"github.com/axelbigot/webidx/pkg/types"
)

// buildFixture wires a PathMapper, one partition file, and a vector store
// for two documents:
//   doc 1: url A, title "Master of Software Engineering"
//   doc 2: url B, a <p> containing only "master"
// mirroring the scenario where a conjunctive, multi-word query must reject
// documents missing any one query token.
func buildFixture(t *testing.T) (*Searcher, string) {
	t.Helper()
	dir := t.TempDir()

	m, err := mapper.Load(filepath.Join(dir, "mapper.json"))
	if err != nil {
		t.Fatal(err)
	}
	// Build() requires a real corpus walk; for this fixture we populate
	// the bimaps directly via two documents routed through a PathMapper
	// Build over tiny on-disk corpus files instead, to stay within the
	// package's exported surface.
	writeDoc(t, dir, "a.json", "https://example.com/a")
	writeDoc(t, dir, "b.json", "https://example.com/b")
	docs, err := m.Build(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("len(docs) = %d, want 2", len(docs))
	}

	path := filepath.Join(dir, "partition_a.bin")
	w, err := codec.CreateRunWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	tokens := map[string]types.TokenEntry{
		"master": {
			DF: 2,
			Postings: []types.Posting{
				{DocID: docs[0].ID, Frequency: 1, TagFrequencies: types.TagFrequencies{types.TagTitle: 1}},
				{DocID: docs[1].ID, Frequency: 1, TagFrequencies: types.TagFrequencies{types.TagOther: 1}},
			},
		},
		"of": {
			DF: 1,
			Postings: []types.Posting{
				{DocID: docs[0].ID, Frequency: 1, TagFrequencies: types.TagFrequencies{types.TagTitle: 1}},
			},
		},
		"software": {
			DF: 1,
			Postings: []types.Posting{
				{DocID: docs[0].ID, Frequency: 1, TagFrequencies: types.TagFrequencies{types.TagTitle: 1}},
			},
		},
		"engineering": {
			DF: 1,
			Postings: []types.Posting{
				{DocID: docs[0].ID, Frequency: 1, TagFrequencies: types.TagFrequencies{types.TagTitle: 1}},
			},
		},
	}
	for _, tok := range []string{"engineering", "master", "of", "software"} {
		if err := w.Write(tok, tokens[tok]); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	routingKeys := []partition.RoutingKey{{MinToken: "engineering", Path: path}}

	vecPath := filepath.Join(dir, "vectors.json")
	vecs := vectorstore.New(vecPath)
	vecs.Set(docs[0].ID, types.DocumentVector{"master": 1, "of": 1, "software": 1, "engineering": 1})
	vecs.Set(docs[1].ID, types.DocumentVector{"master": 1})

	s := New(m, vecs, routingKeys, normalize.Identity, normalize.Identity, m.Count(), 50, 0)
	return s, dir
}

func writeDoc(t *testing.T, dir, name, url string) {
	t.Helper()
	path := filepath.Join(dir, name)
	content := `{"url": "` + url + `", "content": "<html></html>", "encoding": "utf-8"}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSearcher_ConjunctiveFilterRejectsPartialMatch(t *testing.T) {
	s, _ := buildFixture(t)

	resp := s.Search("master of software engineering")
	if len(resp.Results) != 1 {
		t.Fatalf("len(Results) = %d, want 1", len(resp.Results))
	}
	if resp.Results[0].URL != "https://example.com/a" {
		t.Errorf("Results[0].URL = %q, want doc a", resp.Results[0].URL)
	}
}

func TestSearcher_SingleTokenMatchesBothDocs(t *testing.T) {
	s, _ := buildFixture(t)

	resp := s.Search("master")
	if len(resp.Results) != 2 {
		t.Fatalf("len(Results) = %d, want 2", len(resp.Results))
	}
}

func TestSearcher_EmptyQuery(t *testing.T) {
	s, _ := buildFixture(t)
	resp := s.Search("   ")
	if len(resp.Results) != 0 {
		t.Errorf("len(Results) = %d, want 0 for an empty query", len(resp.Results))
	}
}

func TestSearcher_UnknownTokenYieldsNoResults(t *testing.T) {
	s, _ := buildFixture(t)
	resp := s.Search("nonexistenttoken")
	if len(resp.Results) != 0 {
		t.Errorf("len(Results) = %d, want 0 for an unknown token", len(resp.Results))
	}
}
