package partition

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/axelbigot/webidx/internal/codec"
	"github.com/axelbigot/webidx/pkg/types"
)

func writeMergedRun(t *testing.T, path string, tokens []string) {
	t.Helper()
	w, err := codec.CreateRunWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, tok := range tokens {
		entry := types.TokenEntry{DF: 1, Postings: []types.Posting{{DocID: 1, Frequency: 1}}}
		if err := w.Write(tok, entry); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestPartition_SplitsOnPostingSizeThreshold(t *testing.T) {
	dir := t.TempDir()
	mergedPath := filepath.Join(dir, "merged.bin")
	writeMergedRun(t, mergedPath, []string{"alpha", "beta", "gamma", "delta"})

	keys, err := Partition(mergedPath, dir, 2)
	if err != nil {
		t.Fatalf("Partition() error = %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("len(keys) = %d, want 2", len(keys))
	}
	for _, k := range keys {
		if _, err := os.Stat(k.Path); err != nil {
			t.Errorf("partition file %s missing: %v", k.Path, err)
		}
	}
}

func TestPartition_DeletesMergedFile(t *testing.T) {
	dir := t.TempDir()
	mergedPath := filepath.Join(dir, "merged.bin")
	writeMergedRun(t, mergedPath, []string{"alpha"})

	if _, err := Partition(mergedPath, dir, 10); err != nil {
		t.Fatalf("Partition() error = %v", err)
	}
	if _, err := os.Stat(mergedPath); !os.IsNotExist(err) {
		t.Error("expected the merged file to be removed after partitioning")
	}
}

func TestPartition_RoutingKeysSortedByMinToken(t *testing.T) {
	dir := t.TempDir()
	mergedPath := filepath.Join(dir, "merged.bin")
	writeMergedRun(t, mergedPath, []string{"alpha", "beta", "gamma", "delta", "epsilon"})

	keys, err := Partition(mergedPath, dir, 2)
	if err != nil {
		t.Fatalf("Partition() error = %v", err)
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1].MinToken > keys[i].MinToken {
			t.Errorf("routing keys not sorted: %q > %q", keys[i-1].MinToken, keys[i].MinToken)
		}
	}
}

func TestLocate_LastPartitionWhoseMinIsLessOrEqual(t *testing.T) {
	keys := []RoutingKey{
		{MinToken: "alpha", Path: "p1"},
		{MinToken: "mango", Path: "p2"},
		{MinToken: "zebra", Path: "p3"},
	}

	tests := []struct {
		target string
		want   string
	}{
		{"alpha", "p1"},
		{"banana", "p1"},
		{"mango", "p2"},
		{"orange", "p2"},
		{"zebra", "p3"},
		{"zzzzz", "p3"},
		{"aaa", "p1"}, // less than every key, falls back to the first partition
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			got, ok := Locate(keys, tt.target)
			if !ok {
				t.Fatalf("Locate(%q) ok = false", tt.target)
			}
			if got.Path != tt.want {
				t.Errorf("Locate(%q) = %q, want %q", tt.target, got.Path, tt.want)
			}
		})
	}
}

func TestLocate_EmptyKeys(t *testing.T) {
	_, ok := Locate(nil, "anything")
	if ok {
		t.Error("Locate() on empty keys should return ok = false")
	}
}
