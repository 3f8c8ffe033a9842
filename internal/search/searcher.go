// Package search implements the Searcher from spec.md §4.9: query
// normalization, tag-weighted TF-IDF scoring, a conjunctive filter, and a
// cosine re-rank over the top primary-rank candidates.
//
// Style (struct holding its dependencies, a Stats() introspection method)
// is grounded on the teacher's
// internal/search/engine.go and internal/search/inverted.go; the scoring
// formula itself is spec.md §4.9's tag-weighted TF-IDF, replacing the
// teacher's BM25/hybrid-embedding formula since this design has no
// embeddings.
package search

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	cache "github.com/patrickmn/go-cache"

	"github.com/axelbigot/webidx/internal/codec"
	"github.com/axelbigot/webidx/internal/mapper"
	"github.com/axelbigot/webidx/internal/normalize"
	"github.com/axelbigot/webidx/internal/partition"
	"github.com/axelbigot/webidx/internal/vectorstore"
	"github.com/axelbigot/webidx/pkg/types"
)

// Searcher answers queries against a QUERYABLE index.
type Searcher struct {
	pathMapper     *mapper.PathMapper
	vectors        *vectorstore.Store
	routingKeys    []partition.RoutingKey
	spellcheck     normalize.Normalizer
	lemmatizer     normalize.Normalizer
	pageCount      int
	primaryRankTop int
	partitionCache *cache.Cache
}

// New constructs a Searcher. spellcheck defaults to normalize.Identity
// when query spell-correction (spec.md §6 use_spellcheck) is disabled.
func New(pathMapper *mapper.PathMapper, vectors *vectorstore.Store, routingKeys []partition.RoutingKey, lemmatizer, spellcheck normalize.Normalizer, pageCount, primaryRankTop, cacheTTLSeconds int) *Searcher {
	ttl := time.Duration(cacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &Searcher{
		pathMapper:     pathMapper,
		vectors:        vectors,
		routingKeys:    routingKeys,
		spellcheck:     spellcheck,
		lemmatizer:     lemmatizer,
		pageCount:      pageCount,
		primaryRankTop: primaryRankTop,
		partitionCache: cache.New(ttl, 2*ttl),
	}
}

// Search answers a query per spec.md §4.9's six-step procedure. An empty
// query returns an empty result, not an error (spec.md §7 QueryError).
func (s *Searcher) Search(query string) types.SearchResponse {
	start := time.Now()

	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return types.SearchResponse{Results: nil, TimingInfo: ""}
	}

	// Step 1: normalize query. The index only ever stores normalized
	// (lemmatized) tokens, so the original/corrected/lemmatized forms of a
	// word cannot be unioned into one flat set and required all at once —
	// they are alternate spellings of the SAME word, only one of which
	// will typically be the form the index actually holds. Each word gets
	// its own OR-group of candidate forms; a document must match at least
	// one form per word, not every form of every word.
	type wordGroup struct {
		forms []string
	}
	var groups []wordGroup
	seenWords := make(map[string]bool, len(words))
	queryFreq := make(map[string]uint64, len(words))
	for _, w := range words {
		if seenWords[w] {
			continue
		}
		seenWords[w] = true

		formSet := map[string]struct{}{
			w:                         {},
			s.spellcheck.Normalize(w): {},
			s.lemmatizer.Normalize(w): {},
		}
		forms := make([]string, 0, len(formSet))
		for f := range formSet {
			forms = append(forms, f)
		}
		groups = append(groups, wordGroup{forms: forms})

		// Document vectors are built from the same lemmatizer (see
		// index.go's Build), so the cosine re-rank must compare against
		// the lemmatized form too.
		queryFreq[s.lemmatizer.Normalize(w)]++
	}

	// Step 2: tag-weighted TF-IDF scoring, per candidate form.
	formScores := make(map[string]map[types.DocID]float64)
	for _, g := range groups {
		for _, form := range g.forms {
			if _, done := formScores[form]; done {
				continue
			}
			entry := s.lookupToken(form)
			idf := 0.0
			if entry.DF > 0 {
				idf = math.Log(float64(s.pageCount) / float64(entry.DF))
			}
			scores := make(map[types.DocID]float64)
			for _, p := range entry.Postings {
				var tokenScore float64
				for tag, freq := range p.TagFrequencies {
					if freq == 0 {
						continue
					}
					weight := types.TagWeights[tag]
					tokenScore += weight * (1 + math.Log(float64(freq))) * idf
				}
				scores[p.DocID] = tokenScore
			}
			formScores[form] = scores
		}
	}

	// Step 3: conjunctive filter — a document survives only if, for every
	// query word, at least one of its candidate forms scored the
	// document; the word's contribution is the best-scoring form it
	// matched on.
	type candidate struct {
		doc   types.DocID
		total float64
	}
	candidateDocs := make(map[types.DocID]struct{})
	for _, scores := range formScores {
		for doc := range scores {
			candidateDocs[doc] = struct{}{}
		}
	}
	var candidates []candidate
	for doc := range candidateDocs {
		var total float64
		complete := true
		for _, g := range groups {
			matched := false
			var best float64
			for _, form := range g.forms {
				if v, ok := formScores[form][doc]; ok {
					if !matched || v > best {
						best = v
					}
					matched = true
				}
			}
			if !matched {
				complete = false
				break
			}
			total += best
		}
		if complete {
			candidates = append(candidates, candidate{doc: doc, total: total})
		}
	}

	// Step 4: primary rank, descending, top N.
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].total > candidates[j].total })
	if len(candidates) > s.primaryRankTop {
		candidates = candidates[:s.primaryRankTop]
	}

	// Step 5: cosine re-rank against the precomputed document vectors.
	type reranked struct {
		doc      types.DocID
		cosine   float64
		rankPos  int
	}
	rr := make([]reranked, len(candidates))
	for i, c := range candidates {
		docVec := s.vectors.Get(c.doc)
		rr[i] = reranked{doc: c.doc, cosine: vectorstore.Cosine(queryFreq, docVec), rankPos: i}
	}
	sort.SliceStable(rr, func(i, j int) bool {
		if rr[i].cosine != rr[j].cosine {
			return rr[i].cosine > rr[j].cosine
		}
		return rr[i].rankPos < rr[j].rankPos
	})

	// Step 6: map DocIDs to URLs, dropping empty URLs.
	results := make([]types.SearchResult, 0, len(rr))
	for _, r := range rr {
		url := s.pathMapper.GetURLByID(r.doc)
		if url == "" {
			continue
		}
		results = append(results, types.SearchResult{DocID: r.doc, URL: url})
	}

	return types.SearchResponse{
		Results:    results,
		TimingInfo: humanize.RelTime(start, time.Now(), "", ""),
	}
}

// lookupToken resolves a token's TokenEntry via routing-key binary search
// then a partition linear scan, per spec.md §4.9. Partition contents are
// cached per-process to avoid re-scanning the same file across queries. A
// missing token yields an empty TokenEntry (df=0), not an error.
func (s *Searcher) lookupToken(token string) types.TokenEntry {
	key, ok := partition.Locate(s.routingKeys, token)
	if !ok {
		return types.TokenEntry{}
	}

	entries := s.loadPartition(key.Path)
	if entry, found := entries[token]; found {
		return entry
	}
	return types.TokenEntry{}
}

func (s *Searcher) loadPartition(path string) map[string]types.TokenEntry {
	if cached, ok := s.partitionCache.Get(path); ok {
		return cached.(map[string]types.TokenEntry)
	}

	entries := make(map[string]types.TokenEntry)
	reader, err := codec.OpenRunReader(path)
	if err != nil {
		s.partitionCache.Set(path, entries, cache.DefaultExpiration)
		return entries
	}
	defer reader.Close()

	for {
		token, entry, ok, err := reader.Next()
		if err != nil || !ok {
			break
		}
		entries[token] = entry
	}

	s.partitionCache.Set(path, entries, cache.DefaultExpiration)
	return entries
}

// Stats reports searcher configuration, in the teacher's Stats() idiom.
func (s *Searcher) Stats() map[string]interface{} {
	return map[string]interface{}{
		"page_count":       s.pageCount,
		"partition_count":  len(s.routingKeys),
		"primary_rank_top": s.primaryRankTop,
	}
}
