package types

// Config holds all configuration for the search engine.
type Config struct {
	Build   BuildConfig   `json:"build"`
	Search  SearchConfig  `json:"search"`
	Storage StorageConfig `json:"storage"`
	Log     LogConfig     `json:"log"`
}

// BuildConfig controls the InvertedIndex Builder, Merger and Partitioner.
type BuildConfig struct {
	SourceDir             string  `json:"source_dir"`
	Name                  string  `json:"name"`
	Persist               bool    `json:"persist"`
	LoadExisting          bool    `json:"load_existing"`
	NoDuplicateDetection  bool    `json:"no_duplicate_detection"`
	PostingsFlushCount    int     `json:"postings_flush_count"`
	PartitionPostingSize  int     `json:"partition_posting_size"`
	MinAvailMemoryPerc    float64 `json:"min_avail_memory_perc"`
	SimHashThreshold      float64 `json:"simhash_threshold"`
	MinTokenLen           int     `json:"min_token_len"`
}

// SearchConfig controls the Searcher.
type SearchConfig struct {
	UseSpellcheck  bool `json:"use_spellcheck"`
	PrimaryRankTop int  `json:"primary_rank_top"`
	PartitionCacheTTLSeconds int `json:"partition_cache_ttl_seconds"`
}

// StorageConfig describes where persisted index state lives.
type StorageConfig struct {
	AppDataDir string `json:"app_data_dir"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `json:"level"`
}

// DefaultConfig returns the default configuration, matching spec §4.4 and
// §6's documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Build: BuildConfig{
			PostingsFlushCount:   50_000,
			PartitionPostingSize: 5_000,
			MinAvailMemoryPerc:   0.5,
			SimHashThreshold:     0.95,
			MinTokenLen:          2,
			Persist:              true,
		},
		Search: SearchConfig{
			PrimaryRankTop:           50,
			PartitionCacheTTLSeconds: 300,
		},
		Storage: StorageConfig{
			AppDataDir: "",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
