package pipeline

import (
	"errors"
	"fmt"

	"github.com/thesmithmode/Book-Summarizer-by-Gemini/internal/llm"
	"github.com/thesmithmode/Book-Summarizer-by-Gemini/internal/parser"
)

// ErrNoUsableFragments means extraction finished but every fragment came
// back empty, leaving nothing to assemble.
var ErrNoUsableFragments = errors.New("no chunk produced usable output")

// StageError wraps a consolidation or polishing failure with the phase it
// happened in. It escapes to the run's top-level handler, which decides
// between partial recovery and a fatal outcome.
type StageError struct {
	Phase Phase
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Phase, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// ErrorKind labels a run-fatal error so callers can branch on kind instead
// of matching message text.
type ErrorKind string

const (
	KindParse    ErrorKind = "parse"
	KindAuth     ErrorKind = "auth"
	KindAssembly ErrorKind = "assembly"
	KindStage    ErrorKind = "stage"
	KindInternal ErrorKind = "internal"
)

// KindOf classifies an error into the run error taxonomy.
func KindOf(err error) ErrorKind {
	var se *StageError
	switch {
	case parser.IsParseError(err):
		return KindParse
	case llm.IsAuthError(err):
		return KindAuth
	case errors.Is(err, ErrNoUsableFragments):
		return KindAssembly
	case errors.As(err, &se):
		return KindStage
	default:
		return KindInternal
	}
}
