package types

import "testing"

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateCreated, "CREATED"},
		{StateBuilding, "BUILDING"},
		{StateFlushedRuns, "FLUSHED_RUNS"},
		{StateMerged, "MERGED"},
		{StatePartitioned, "PARTITIONED"},
		{StateVectorized, "VECTORIZED"},
		{StateQueryable, "QUERYABLE"},
		{StateDestroyed, "DESTROYED"},
		{State(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("State.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTagFrequencies_Sum(t *testing.T) {
	tf := TagFrequencies{TagH1: 2, TagOther: 3}
	if got := tf.Sum(); got != 5 {
		t.Errorf("Sum() = %d, want 5", got)
	}
}

func TestTagFrequencies_Clone(t *testing.T) {
	tf := TagFrequencies{TagH1: 2}
	clone := tf.Clone()
	clone[TagH1] = 99
	if tf[TagH1] != 2 {
		t.Error("Clone should not alias the original map")
	}
}

func TestTokenEntry_Merge(t *testing.T) {
	a := TokenEntry{DF: 1, Postings: []Posting{{DocID: 1, Frequency: 3}}}
	b := TokenEntry{DF: 1, Postings: []Posting{{DocID: 2, Frequency: 5}}}

	a.Merge(b)

	if a.DF != 2 {
		t.Errorf("DF = %d, want 2", a.DF)
	}
	if len(a.Postings) != 2 {
		t.Fatalf("len(Postings) = %d, want 2", len(a.Postings))
	}
	if a.Postings[0].DocID != 1 || a.Postings[1].DocID != 2 {
		t.Error("Merge should concatenate postings in stream order")
	}
}

func TestTagWeights_CoverAllWeightedTagsPlusOther(t *testing.T) {
	for _, tag := range WeightedTags {
		if _, ok := TagWeights[tag]; !ok {
			t.Errorf("TagWeights missing entry for %s", tag)
		}
	}
	if _, ok := TagWeights[TagOther]; !ok {
		t.Error("TagWeights missing entry for the other residual bucket")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig() returned nil")
	}
	if cfg.Build.PostingsFlushCount != 50000 {
		t.Errorf("Build.PostingsFlushCount = %d, want 50000", cfg.Build.PostingsFlushCount)
	}
	if cfg.Build.PartitionPostingSize != 5000 {
		t.Errorf("Build.PartitionPostingSize = %d, want 5000", cfg.Build.PartitionPostingSize)
	}
	if cfg.Build.SimHashThreshold != 0.95 {
		t.Errorf("Build.SimHashThreshold = %f, want 0.95", cfg.Build.SimHashThreshold)
	}
	if !cfg.Build.Persist {
		t.Error("Build.Persist should default to true")
	}
	if cfg.Search.PrimaryRankTop != 50 {
		t.Errorf("Search.PrimaryRankTop = %d, want 50", cfg.Search.PrimaryRankTop)
	}
}
