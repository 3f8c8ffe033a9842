// Package types defines the core data types for the search engine.
package types

// DocID is a stable positive integer assigned to a corpus document by the
// PathMapper, in discovery order.
type DocID uint64

// TagBucket names one of the fixed set of HTML tags the Tokenizer weighs
// separately, plus the "other" residual bucket.
type TagBucket string

const (
	TagH1     TagBucket = "h1"
	TagH2     TagBucket = "h2"
	TagH3     TagBucket = "h3"
	TagTitle  TagBucket = "title"
	TagB      TagBucket = "b"
	TagStrong TagBucket = "strong"
	TagOther  TagBucket = "other"
)

// WeightedTags is the default set of tags the Tokenizer attributes text to
// directly; anything else falls into TagOther.
var WeightedTags = []TagBucket{TagH1, TagH2, TagH3, TagTitle, TagB, TagStrong}

// TagWeights assigns a scoring weight to each bucket, used by the Searcher's
// tag-weighted TF-IDF pass.
var TagWeights = map[TagBucket]float64{
	TagH1:     0.20,
	TagH2:     0.15,
	TagH3:     0.10,
	TagTitle:  0.40,
	TagB:      0.075,
	TagStrong: 0.055,
	TagOther:  0.02,
}

// TagFrequencies maps each bucket to the number of token occurrences
// attributed to it. Invariant: Sum() equals the token's total occurrences
// in the document, and Other >= 0.
type TagFrequencies map[TagBucket]uint64

// Sum returns the total occurrences across all buckets.
func (tf TagFrequencies) Sum() uint64 {
	var total uint64
	for _, v := range tf {
		total += v
	}
	return total
}

// Clone returns an independent copy.
func (tf TagFrequencies) Clone() TagFrequencies {
	out := make(TagFrequencies, len(tf))
	for k, v := range tf {
		out[k] = v
	}
	return out
}

// Posting records one document's occurrence of a token, with its
// tag-resolved frequency breakdown. Invariant: Frequency == TagFrequencies.Sum().
type Posting struct {
	DocID          DocID
	Frequency      uint64
	TagFrequencies TagFrequencies
}

// TokenEntry is a token's complete disk record: its document frequency and
// the ordered postings referencing it. Invariant: DF == len(Postings), and
// no two postings in a single entry share a DocID.
type TokenEntry struct {
	DF       uint64
	Postings []Posting
}

// Merge combines another TokenEntry's postings into this one, additively
// combining df and concatenating postings, per the K-way Merger's contract
// (spec §4.5): merging is append-only and never collapses duplicate doc_ids,
// since a single build tokenizes each document exactly once.
func (e *TokenEntry) Merge(other TokenEntry) {
	e.DF += other.DF
	e.Postings = append(e.Postings, other.Postings...)
}

// DocumentVector is a document's plain (untagged) term-frequency vector,
// used by the Searcher's cosine re-rank stage.
type DocumentVector map[string]uint64

// State is a position in the Index lifecycle state machine.
type State uint8

const (
	StateCreated State = iota
	StateBuilding
	StateFlushedRuns
	StateMerged
	StatePartitioned
	StateVectorized
	StateQueryable
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateBuilding:
		return "BUILDING"
	case StateFlushedRuns:
		return "FLUSHED_RUNS"
	case StateMerged:
		return "MERGED"
	case StatePartitioned:
		return "PARTITIONED"
	case StateVectorized:
		return "VECTORIZED"
	case StateQueryable:
		return "QUERYABLE"
	case StateDestroyed:
		return "DESTROYED"
	default:
		return "UNKNOWN"
	}
}

// SearchResult is a single ranked document returned by the Searcher.
type SearchResult struct {
	DocID DocID
	URL   string
}

// SearchResponse wraps a completed search with its human-readable timing.
type SearchResponse struct {
	Results    []SearchResult
	TimingInfo string
}
