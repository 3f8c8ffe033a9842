package codec

import (
	"bufio"
	"os"

	"github.com/axelbigot/webidx/pkg/types"
)

// RunWriter appends (token, TokenEntry) records to a file, used while a
// run, merged, or partition file is actively being produced.
type RunWriter struct {
	file *os.File
	buf  *bufio.Writer
}

// CreateRunWriter creates (or truncates) path for sequential record
// writing.
func CreateRunWriter(path string) (*RunWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, types.WrapError("codec.CreateRunWriter", types.ErrStorageIO, err)
	}
	return &RunWriter{file: f, buf: bufio.NewWriterSize(f, 64*1024)}, nil
}

// Write appends one record.
func (w *RunWriter) Write(token string, entry types.TokenEntry) error {
	if _, err := w.buf.Write(EncodeRecord(token, entry)); err != nil {
		return types.WrapError("codec.RunWriter.Write", types.ErrStorageIO, err)
	}
	return nil
}

// Close flushes buffered output, syncs, and closes the file. Per spec.md
// §5/§7, a truncated write is fatal, so Close surfaces flush/sync errors
// rather than swallowing them.
func (w *RunWriter) Close() error {
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return types.WrapError("codec.RunWriter.Close", types.ErrStorageIO, err)
	}
	if err := w.file.Sync(); err != nil {
		w.file.Close()
		return types.WrapError("codec.RunWriter.Close", types.ErrStorageIO, err)
	}
	return w.file.Close()
}
