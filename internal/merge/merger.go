// Package merge implements the K-way Merger from spec.md §4.5: it merges N
// sorted run files into a single lexicographically-sorted merged.bin,
// combining postings across runs for identical tokens.
//
// The min-heap is github.com/emirpasic/gods/trees/binaryheap, promoted
// from a transitive dependency of the teacher's go.mod to direct use here
// (see DESIGN.md).
package merge

import (
	"os"

	"github.com/emirpasic/gods/trees/binaryheap"

	"github.com/axelbigot/webidx/internal/codec"
	"github.com/axelbigot/webidx/pkg/types"
)

// heapItem is one run's current head record, tracked so the merger knows
// which stream to pull the next record from after popping.
type heapItem struct {
	token      string
	entry      types.TokenEntry
	streamIdx  int
}

func compareHeapItems(a, b interface{}) int {
	ia, ib := a.(heapItem), b.(heapItem)
	switch {
	case ia.token < ib.token:
		return -1
	case ia.token > ib.token:
		return 1
	default:
		return 0
	}
}

// Merge merges runPaths into outputPath, token-ascending, and deletes the
// input runs on success, per spec.md §4.5's post-condition. Only one
// merged entry (the "pending" one) is held in memory at a time: it is
// written as soon as a record with a different token is popped. batchSize
// mirrors postings_flush_count and only lets the pending entry be written
// one pop earlier, once batchSize records have been folded into it and the
// heap's next token differs; no multi-entry batch is kept, and output
// writes are buffered by the codec's RunWriter.
func Merge(runPaths []string, outputPath string, batchSize int) error {
	readers := make([]*codec.RunReader, len(runPaths))
	for i, p := range runPaths {
		r, err := codec.OpenRunReader(p)
		if err != nil {
			closeAll(readers)
			return err
		}
		readers[i] = r
	}
	defer closeAll(readers)

	writer, err := codec.CreateRunWriter(outputPath)
	if err != nil {
		return err
	}

	heap := binaryheap.NewWith(compareHeapItems)
	for idx, r := range readers {
		if err := pushNext(heap, r, idx); err != nil {
			writer.Close()
			return err
		}
	}

	var pending *struct {
		token string
		entry types.TokenEntry
	}
	batchCount := 0

	flushPending := func() error {
		if pending == nil {
			return nil
		}
		if err := writer.Write(pending.token, pending.entry); err != nil {
			return err
		}
		pending = nil
		batchCount = 0
		return nil
	}

	for {
		top, ok := heap.Pop()
		if !ok {
			break
		}
		item := top.(heapItem)

		if err := pushNext(heap, readers[item.streamIdx], item.streamIdx); err != nil {
			writer.Close()
			return err
		}

		if pending != nil && pending.token == item.token {
			pending.entry.Merge(item.entry)
		} else {
			if err := flushPending(); err != nil {
				writer.Close()
				return err
			}
			pending = &struct {
				token string
				entry types.TokenEntry
			}{token: item.token, entry: item.entry}
		}
		batchCount++

		// Write pending early only once batchSize records have been folded
		// into it AND it can no longer grow, i.e. the heap is empty
		// (nothing left that could still merge into it) or the new heap
		// top differs from pending's token.
		if batchCount >= batchSize {
			if nextTop, ok := heap.Peek(); !ok || nextTop.(heapItem).token != pending.token {
				if err := flushPending(); err != nil {
					writer.Close()
					return err
				}
			}
		}
	}

	if err := flushPending(); err != nil {
		writer.Close()
		return err
	}

	if err := writer.Close(); err != nil {
		return err
	}

	closeAll(readers)
	for _, p := range runPaths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return types.WrapError("merge.Merge", types.ErrStorageIO, err)
		}
	}
	return nil
}

func pushNext(heap *binaryheap.Heap, r *codec.RunReader, streamIdx int) error {
	token, entry, ok, err := r.Next()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	heap.Push(heapItem{token: token, entry: entry, streamIdx: streamIdx})
	return nil
}

func closeAll(readers []*codec.RunReader) {
	for _, r := range readers {
		if r != nil {
			r.Close()
		}
	}
}
