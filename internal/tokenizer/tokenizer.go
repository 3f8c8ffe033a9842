// Package tokenizer converts a document's HTML bytes into per-tag token
// frequency maps, per spec.md §4.1.
//
// HTML parsing follows the recursive *html.Node walk idiom used by
// go-mizu-mizu/blueprints/lingo/pkg/seed/duome/parser.go; the per-tag /
// "other"-residual extraction algorithm is grounded on
// original_source/index/JSONtokenizer.py::tokenize_JSON_file_with_tags.
package tokenizer

import (
	"log"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/axelbigot/webidx/internal/normalize"
	"github.com/axelbigot/webidx/pkg/types"
)

var splitPattern = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Result is the output of tokenizing one document: per-token, per-tag
// frequencies, plus the plain (untagged) frequency map used by the
// Document Vector Store.
type Result struct {
	Tagged map[string]types.TagFrequencies
	Plain  map[string]uint64
}

// Tokenizer extracts token frequencies from HTML documents.
type Tokenizer struct {
	normalizer  normalize.Normalizer
	minTokenLen int
	weighted    map[types.TagBucket]struct{}
}

// New constructs a Tokenizer. minTokenLen is the minimum accepted token
// length after normalization (spec.md §3 default 2).
func New(n normalize.Normalizer, minTokenLen int) *Tokenizer {
	weighted := make(map[types.TagBucket]struct{}, len(types.WeightedTags))
	for _, t := range types.WeightedTags {
		weighted[t] = struct{}{}
	}
	return &Tokenizer{normalizer: n, minTokenLen: minTokenLen, weighted: weighted}
}

// Tokenize parses htmlBytes and produces the tagged and plain frequency
// maps. A parse failure is lenient: it logs a warning and returns an empty
// Result rather than propagating an error, per spec.md §4.1 step 1.
func (t *Tokenizer) Tokenize(docLabel string, htmlBytes []byte) (Result, error) {
	root, err := html.Parse(strings.NewReader(string(htmlBytes)))
	if err != nil {
		log.Printf("tokenizer: lenient parse failure for %s: %v", docLabel, err)
		return Result{Tagged: map[string]types.TagFrequencies{}, Plain: map[string]uint64{}}, nil
	}

	totalText := t.collectVisibleText(root)
	plain := t.frequencies(totalText)

	tagged := make(map[string]types.TagFrequencies, len(plain))
	weightedTotal := make(map[string]uint64, len(plain))

	t.walkWeightedTags(root, func(tag types.TagBucket, directText string) {
		for token, freq := range t.frequencies(directText) {
			entry, ok := tagged[token]
			if !ok {
				entry = make(types.TagFrequencies, len(types.WeightedTags)+1)
			}
			entry[tag] += freq
			tagged[token] = entry
			weightedTotal[token] += freq
		}
	})

	for token, total := range plain {
		entry, ok := tagged[token]
		if !ok {
			entry = make(types.TagFrequencies, len(types.WeightedTags)+1)
		}
		other := int64(total) - int64(weightedTotal[token])
		if other < 0 {
			return Result{}, types.Errorf("tokenizer.Tokenize", types.ErrDataIntegrity,
				"document %q: token %q has negative residual frequency (other=%d, total=%d, weighted=%d)",
				docLabel, token, other, total, weightedTotal[token])
		}
		entry[types.TagOther] = uint64(other)
		tagged[token] = entry
	}

	return Result{Tagged: tagged, Plain: plain}, nil
}

// frequencies tokenizes text: lowercase, split on non-alphanumeric runs,
// drop tokens shorter than minTokenLen, normalize, and count occurrences.
func (t *Tokenizer) frequencies(text string) map[string]uint64 {
	out := make(map[string]uint64)
	for _, raw := range splitPattern.Split(strings.ToLower(text), -1) {
		if len(raw) < t.minTokenLen {
			continue
		}
		tok := t.normalizer.Normalize(raw)
		if len(tok) < t.minTokenLen {
			continue
		}
		out[tok]++
	}
	return out
}

// collectVisibleText concatenates all visible text nodes with single-space
// separators, excluding comments, declarations, <script> and <style>.
func (t *Tokenizer) collectVisibleText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		case html.CommentNode, html.DoctypeNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// walkWeightedTags finds every element whose tag name is in the weighted
// set and invokes fn with the tag bucket and that element's DIRECT text
// children only — it does not recurse into nested elements, so text
// inside a nested weighted (or unweighted) tag is attributed to that
// inner tag instead, per spec.md §4.1 step 4.
func (t *Tokenizer) walkWeightedTags(n *html.Node, fn func(types.TagBucket, string)) {
	if n.Type == html.ElementNode {
		if _, ok := t.weighted[types.TagBucket(n.Data)]; ok {
			fn(types.TagBucket(n.Data), directText(n))
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		t.walkWeightedTags(c, fn)
	}
}

// directText concatenates only the immediate text-node children of n,
// ignoring text that lives inside nested element children.
func directText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}
