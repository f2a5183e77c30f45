package project

import (
	"errors"
	"fmt"
)

// Validation sentinels. Each structural violation class gets its own
// sentinel so callers can branch on errors.Is without parsing messages.
var (
	// ErrUnknownVersion means the file declares a schema version this
	// package cannot read, or none at all.
	ErrUnknownVersion = errors.New("unknown schema version")

	// ErrDuplicateID means two fields, rules or variables share an
	// identifier.
	ErrDuplicateID = errors.New("duplicate identifier")

	// ErrBadDocument means a document entry is unusable: no pages, a page
	// list that disagrees with pageCount, or invalid page geometry.
	ErrBadDocument = errors.New("malformed document entry")

	// ErrPageOutOfRange means a field names a page index outside its
	// document.
	ErrPageOutOfRange = errors.New("page index out of range")

	// ErrBadGeometry means a field rectangle has no area or lies outside
	// its page.
	ErrBadGeometry = errors.New("malformed field geometry")

	// ErrBadKind means a field declares a kind outside the supported set.
	ErrBadKind = errors.New("unknown field kind")

	// ErrBadParams means a field's parameters are inconsistent with its
	// kind.
	ErrBadParams = errors.New("invalid field parameters")

	// ErrBadRule means a rule is structurally broken: no targets, an
	// unknown action, or a condition with no usable branch.
	ErrBadRule = errors.New("malformed rule")

	// ErrDanglingFieldRef means a cross-reference between fields and
	// rules names an ID that does not exist: a rule target without its
	// field, or a field's rule link without its rule.
	ErrDanglingFieldRef = errors.New("dangling reference")

	// ErrUndeclaredVariable means a condition reads a control variable the
	// project never declares.
	ErrUndeclaredVariable = errors.New("condition references undeclared variable")
)

// SchemaError locates a validation failure inside the design file. Path is
// a JSON-style locator such as "fields[2].rect"; Err wraps one of the
// package sentinels.
type SchemaError struct {
	Path string
	Err  error
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("project: %v", e.Err)
	}
	return fmt.Sprintf("project: %s: %v", e.Path, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// schemaErrorf builds a SchemaError at path wrapping sentinel, with detail
// appended for the human reading the message.
func schemaErrorf(path string, sentinel error, format string, args ...any) error {
	if format == "" {
		return &SchemaError{Path: path, Err: sentinel}
	}
	return &SchemaError{Path: path, Err: fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))}
}
