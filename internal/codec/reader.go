package codec

import (
	"bufio"
	"io"
	"os"

	"github.com/axelbigot/webidx/pkg/types"
)

// RunReader is the explicit iterator-over-reader protocol named in
// spec.md §9 ("generator-style lazy sequences... become explicit iterator
// protocols over readers: next_entry(reader) -> (token, entry) | end").
type RunReader struct {
	file *os.File
	buf  *bufio.Reader
}

// OpenRunReader opens path for sequential record reading.
func OpenRunReader(path string) (*RunReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, types.WrapError("codec.OpenRunReader", types.ErrStorageIO, err)
	}
	return &RunReader{file: f, buf: bufio.NewReaderSize(f, 64*1024)}, nil
}

// Next returns the next (token, TokenEntry) record, or ok=false at
// end-of-stream (clean EOF or a truncated trailing record — both are
// treated as end-of-stream per spec.md §4.7).
func (r *RunReader) Next() (token string, entry types.TokenEntry, ok bool, err error) {
	token, entry, readErr := ReadRecord(r.buf)
	if readErr == io.EOF || readErr == ErrShortRead {
		return "", types.TokenEntry{}, false, nil
	}
	if readErr != nil {
		return "", types.TokenEntry{}, false, readErr
	}
	return token, entry, true, nil
}

// Close releases the underlying file handle. Every opened reader must be
// closed on every exit path, including error, per spec.md §5.
func (r *RunReader) Close() error {
	return r.file.Close()
}
