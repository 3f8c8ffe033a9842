package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for the search engine, grouped by the taxonomy in the
// error handling design: kinds, not concrete types.
var (
	// CorpusFormatError: JSON unparseable; the document still gets a DocID.
	ErrCorpusFormat = errors.New("corpus: malformed document")

	// HTMLParseError: lenient; produces an empty token map, never aborts.
	ErrHTMLParse = errors.New("tokenizer: html parse failure")

	// DataIntegrityError: fatal for the offending document's build.
	ErrDataIntegrity = errors.New("data integrity violation")

	// StorageError: I/O or codec truncation.
	ErrStorageIO = errors.New("storage I/O error")
	ErrCodec     = errors.New("codec error")

	// ConfigError: contradictory or invalid options.
	ErrConfig = errors.New("invalid configuration")

	// QueryError: malformed query-time state.
	ErrQuery = errors.New("query error")

	// Lifecycle errors.
	ErrInvalidState = errors.New("invalid index state")
	ErrNotFound     = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrClosed       = errors.New("closed")
)

// Error wraps an error with the operation that produced it and the kind
// of failure it represents.
type Error struct {
	Op      string // Operation that failed, e.g. "tokenizer.Tokenize"
	Kind    error  // Category of error (one of the sentinels above)
	Err     error  // Underlying error, if any
	Message string // Human-readable detail
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

// Errorf creates a new Error with a formatted message.
func Errorf(op string, kind error, format string, args ...any) error {
	return &Error{
		Op:      op,
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError wraps an error with operation and kind context.
func WrapError(op string, kind error, err error) error {
	return &Error{
		Op:   op,
		Kind: kind,
		Err:  err,
	}
}
