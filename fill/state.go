package fill

import "fmt"

// State tracks where a session is in its lifecycle.
//
// Open starts a session in StateCollectingAssignment, or directly in
// StateAwaitingFieldValues when the project declares no rules.
// SetAssignment moves to StateAwaitingFieldValues and may be repeated
// there. Commit passes through StateStamping and ends in StateCommitted;
// a rejected commit drops back to StateAwaitingFieldValues. Abort ends
// any unfinished session in StateAborted.
type State int

const (
	StateCollectingAssignment State = iota
	StateAwaitingFieldValues
	StateStamping
	StateCommitted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateCollectingAssignment:
		return "collecting-assignment"
	case StateAwaitingFieldValues:
		return "awaiting-field-values"
	case StateStamping:
		return "stamping"
	case StateCommitted:
		return "committed"
	case StateAborted:
		return "aborted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}
