package stamp

import (
	"errors"
	"fmt"
)

// Per-field failure sentinels. Apply collects them in Result.Errors rather
// than aborting the document, so one bad payload never blocks the rest of
// the form.
var (
	// ErrValueKind means the supplied value's type does not match the
	// field's kind.
	ErrValueKind = errors.New("value type does not match field kind")

	// ErrBadImage means signature image data could not be decoded.
	ErrBadImage = errors.New("undecodable image data")

	// ErrUnknownOption means a single-select value is not among the
	// field's declared options.
	ErrUnknownOption = errors.New("option not declared by field")

	// ErrNoStaticText means a static-text field has no text to stamp.
	ErrNoStaticText = errors.New("static-text field without text")

	// ErrPageRange means a field's page does not exist in the source
	// document being stamped.
	ErrPageRange = errors.New("field page not present in document")

	// ErrUnsupportedKind means the field kind is outside the supported
	// set. Validated projects never carry one; the sentinel guards
	// hand-built projects.
	ErrUnsupportedKind = errors.New("unsupported field kind")
)

// FieldError ties a stamping failure to the field that caused it.
type FieldError struct {
	FieldID string
	Err     error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("stamp: field %s: %v", e.FieldID, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func fieldErrorf(id string, sentinel error, format string, args ...any) *FieldError {
	if format == "" {
		return &FieldError{FieldID: id, Err: sentinel}
	}
	return &FieldError{FieldID: id, Err: fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))}
}
