package speedyf

import (
	"errors"
	"fmt"
)

// ErrIDGenerator reports an id generator that kept returning identifiers
// the project already uses.
var ErrIDGenerator = errors.New("speedyf: id generator keeps returning taken identifiers")

// DesignError wraps an error from one designer operation and names the
// operation for context.
type DesignError struct {
	Op  string // operation name, e.g. "AddDocument", "AddTextField"
	Err error  // underlying error
}

func (e *DesignError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("speedyf.%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("speedyf.%s: unknown error", e.Op)
}

func (e *DesignError) Unwrap() error {
	return e.Err
}

// newDesignError creates a new DesignError wrapping the given error with
// operation context.
func newDesignError(op string, err error) *DesignError {
	return &DesignError{Op: op, Err: err}
}
