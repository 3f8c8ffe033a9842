// Package partition implements the Range Partitioner from spec.md §4.6: it
// streams the merged file into lexicographically-contiguous partition
// files, and records each partition's minimum token as a routing key for
// O(log N) point lookups at query time.
package partition

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/axelbigot/webidx/internal/codec"
	"github.com/axelbigot/webidx/pkg/types"
)

// RoutingKey pairs a partition's minimum token with the file that holds it.
type RoutingKey struct {
	MinToken string
	Path     string
}

// Partition streams mergedPath into indexDir/partition_<N>_<min_token>.bin
// files, and deletes mergedPath on success. A partition is written as soon
// as its buffered posting count reaches partitionPostingSize; entries are
// never split across partitions, so a partition can exceed that size by
// the postings of its last entry. The
// ordinal N is a uniqueness guarantee, not the routing mechanism: lookups
// always go through the returned RoutingKeys, never the filename.
func Partition(mergedPath, indexDir string, partitionPostingSize int) ([]RoutingKey, error) {
	reader, err := codec.OpenRunReader(mergedPath)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var keys []RoutingKey
	var buffer []struct {
		token string
		entry types.TokenEntry
	}
	postingCount := 0
	ordinal := 0

	flush := func() error {
		if len(buffer) == 0 {
			return nil
		}
		minToken := buffer[0].token
		path := filepath.Join(indexDir, fmt.Sprintf("partition_%05d_%s.bin", ordinal, sanitizeToken(minToken)))
		ordinal++
		w, err := codec.CreateRunWriter(path)
		if err != nil {
			return err
		}
		for _, rec := range buffer {
			if err := w.Write(rec.token, rec.entry); err != nil {
				w.Close()
				return err
			}
		}
		if err := w.Close(); err != nil {
			return err
		}
		keys = append(keys, RoutingKey{MinToken: minToken, Path: path})
		buffer = nil
		postingCount = 0
		return nil
	}

	for {
		token, entry, ok, err := reader.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		buffer = append(buffer, struct {
			token string
			entry types.TokenEntry
		}{token: token, entry: entry})
		postingCount += len(entry.Postings)

		if postingCount >= partitionPostingSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}

	reader.Close()
	if err := os.Remove(mergedPath); err != nil && !os.IsNotExist(err) {
		return nil, types.WrapError("partition.Partition", types.ErrStorageIO, err)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i].MinToken < keys[j].MinToken })
	return keys, nil
}

// sanitizeToken keeps partition filenames safe while preserving enough of
// the token for debuggability. It is not collision-free on its own — two
// distinct min-tokens can share the same truncated prefix — so Partition
// prefixes every filename with a strictly increasing ordinal to guarantee
// uniqueness regardless of what sanitizeToken produces.
func sanitizeToken(token string) string {
	out := make([]rune, 0, len(token))
	for _, r := range token {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			out = append(out, r)
		} else {
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "empty"
	}
	if len(out) > 48 {
		out = out[:48]
	}
	return string(out)
}

// Locate performs the binary search described in spec.md §4.6: "last
// partition whose min <= target", falling back to the first partition if
// target is less than all keys.
func Locate(keys []RoutingKey, target string) (RoutingKey, bool) {
	if len(keys) == 0 {
		return RoutingKey{}, false
	}
	idx := sort.Search(len(keys), func(i int) bool { return keys[i].MinToken > target })
	if idx == 0 {
		return keys[0], true
	}
	return keys[idx-1], true
}
