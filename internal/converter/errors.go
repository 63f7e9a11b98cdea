package converter

import (
	"errors"
	"fmt"
)

// ErrUnsupportedInput is returned for input files with an unknown extension.
var ErrUnsupportedInput = errors.New("unsupported input file type")

// Kind identifies the pipeline stage that failed.
type Kind string

const (
	// KindLoad: the input could not be opened or parsed. No output exists.
	KindLoad Kind = "load"

	// KindNormalize: the scan was cancelled.
	KindNormalize Kind = "normalize"

	// KindSave: the output could not be written. The computed table is kept
	// on the Result so Save can be retried.
	KindSave Kind = "save"
)

// Error is the error type returned by the converter.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a converter error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == kind
}
