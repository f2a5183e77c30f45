package fill

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownField reports a field ID the project does not declare.
	ErrUnknownField = errors.New("fill: unknown field")

	// ErrPartialStamp reports a commit rejected under WithoutPartial
	// because at least one field failed to stamp. The session returns to
	// accepting values, so the caller can fix the inputs and retry.
	ErrPartialStamp = errors.New("fill: some fields failed to stamp")
)

// StateError reports an operation called in a session state that does not
// allow it.
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("fill: cannot %s in %s state", e.Op, e.State)
}
