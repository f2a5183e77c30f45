package stamp

import (
	"fmt"

	"github.com/AdamNissen/speedyf/project"
)

// Value is the payload a filler supplies for one field. The set of
// implementations is closed: TextValue, ImageValue, OptionValue and
// MarkValue. Each field kind accepts exactly one of them, checked by
// CheckValueKind before any drawing happens.
type Value interface {
	fieldValue()
}

// TextValue fills a text-input field.
type TextValue struct {
	Text string
}

func (TextValue) fieldValue() {}

// ImageValue fills a signature field with an encoded image. PNG, JPEG, GIF
// and BMP data are accepted; everything is normalized before stamping.
type ImageValue struct {
	Data []byte
}

func (ImageValue) fieldValue() {}

// OptionValue picks one choice of a single-select field. The option must be
// one of the field's declared options.
type OptionValue struct {
	Option string
}

func (OptionValue) fieldValue() {}

// MarkValue ticks or leaves a shape-mark field. An unchecked mark stamps
// nothing.
type MarkValue struct {
	Checked bool
}

func (MarkValue) fieldValue() {}

// CheckValueKind verifies that v is the payload type the field kind
// accepts. Static-text fields take no value at all. The returned error
// wraps ErrValueKind.
func CheckValueKind(kind project.Kind, v Value) error {
	if v == nil {
		return nil
	}
	ok := false
	switch v.(type) {
	case TextValue:
		ok = kind == project.KindTextInput
	case ImageValue:
		ok = kind == project.KindSignature
	case OptionValue:
		ok = kind == project.KindSingleSelect
	case MarkValue:
		ok = kind == project.KindShapeMark
	}
	if !ok {
		return fmt.Errorf("%w: %T for %s field", ErrValueKind, v, kind)
	}
	return nil
}
