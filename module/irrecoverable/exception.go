package irrecoverable

import (
	"fmt"
)

// exception wraps an error so that it no longer matches any sentinel via
// errors.Is / errors.As. Used at package boundaries to mark unexpected
// failures that must not be mistaken for benign, documented error returns.
type exception struct {
	err error
}

func (e exception) Error() string {
	return "exception! " + e.err.Error()
}

// NewException wraps err as an exception, stripping its type information.
func NewException(err error) error {
	return exception{err: err}
}

// NewExceptionf is NewException with formatting.
func NewExceptionf(msg string, args ...any) error {
	return NewException(fmt.Errorf(msg, args...))
}
