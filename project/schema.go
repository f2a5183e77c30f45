// Package project defines the design file format: a JSON document that
// records which PDFs a form is built on, where its fields sit, and the rules
// that switch fields on and off when the form is filled.
//
// A minimal design file looks like:
//
//	{
//	  "schemaVersion": "1.0",
//	  "documents": [
//	    {
//	      "path": "lease.pdf",
//	      "pageCount": 1,
//	      "pages": [{"w": 595.28, "h": 841.89}]
//	    }
//	  ],
//	  "fields": [
//	    {
//	      "id": "inst_4be31a0c",
//	      "page": 0,
//	      "rect": {"x": 72, "y": 72, "w": 200, "h": 20},
//	      "kind": "text-input",
//	      "prompt": "Tenant name"
//	    }
//	  ],
//	  "controlVariables": [{"name": "has_pets", "values": ["yes", "no"]}],
//	  "rules": [
//	    {
//	      "when": {"var": "has_pets", "eq": "no"},
//	      "action": "deactivate",
//	      "targets": ["inst_4be31a0c"]
//	    }
//	  ]
//	}
//
// All geometry is stored in page space: unrotated PDF points with the origin
// at the top-left corner and y growing downward. Load validates everything
// up front so later stages can trust the structure; Save produces canonical
// JSON whose bytes are stable across load/save cycles.
package project

import "github.com/AdamNissen/speedyf/coord"

// FormatVersion is the schema version this package writes. Readers accept
// any "1.x" version and ignore fields they do not know, so files written by
// newer minor versions still load.
const FormatVersion = "1.0"

// Project is the root of a design file.
type Project struct {
	SchemaVersion string     `json:"schemaVersion"`
	Documents     []Document `json:"documents"`
	Fields        []Field    `json:"fields"`
	Variables     []Variable `json:"controlVariables,omitempty"`
	Rules         []Rule     `json:"rules,omitempty"`
}

// Document records one source PDF by path plus the page geometry captured
// when the document was added. The geometry lets every later stage validate
// placements without reopening the PDF, and lets a filler detect that the
// file on disk no longer matches the design.
type Document struct {
	Path      string       `json:"path"`
	PageCount int          `json:"pageCount"`
	Pages     []coord.Page `json:"pages"`
}

// Kind identifies what a field stamps. The set is closed: unknown kinds are
// rejected at load time rather than carried along and failed at stamp time.
type Kind string

const (
	KindTextInput    Kind = "text-input"
	KindStaticText   Kind = "static-text"
	KindSignature    Kind = "signature"
	KindShapeMark    Kind = "shape-mark"
	KindSingleSelect Kind = "single-select"
)

// Valid reports whether k is one of the five supported kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindTextInput, KindStaticText, KindSignature, KindShapeMark, KindSingleSelect:
		return true
	}
	return false
}

// Field is one placed form field. Doc and Page index into the project's
// documents and that document's pages; Rect is page-space geometry.
type Field struct {
	ID     string     `json:"id"`
	Doc    int        `json:"doc,omitempty"`
	Page   int        `json:"page"`
	Rect   coord.Rect `json:"rect"`
	Kind   Kind       `json:"kind"`
	Params *Params    `json:"params,omitempty"`
	Prompt string     `json:"prompt,omitempty"`

	// Rule optionally names the rule that governs this field, the inverse
	// of that rule's target list. The link is declarative; activation
	// always follows the rule's targets.
	Rule string `json:"rule,omitempty"`
}

// Params carries per-kind presentation settings. The struct is a flat union:
// each kind reads the entries that apply to it and ignores the rest, which
// keeps the JSON schema to a single shape.
type Params struct {
	// Text styling, read by text-input, static-text and single-select.
	FontFamily  string  `json:"fontFamily,omitempty"`
	FontStyle   string  `json:"fontStyle,omitempty"`
	FontSize    float64 `json:"fontSize,omitempty"`
	Align       string  `json:"align,omitempty"`
	Color       *Color  `json:"color,omitempty"`
	Overflow    string  `json:"overflow,omitempty"`
	MinFontSize float64 `json:"minFontSize,omitempty"`

	// Text is the content of a static-text field.
	Text string `json:"text,omitempty"`

	// Options are the allowed choices of a single-select field.
	Options []string `json:"options,omitempty"`

	// Shape settings, read by shape-mark.
	Shape       string  `json:"shape,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`

	// Padding insets signature images from the field edge.
	Padding float64 `json:"padding,omitempty"`
}

// Overflow policies for text that is wider than its field.
const (
	OverflowTruncate = "truncate"
	OverflowShrink   = "shrink"
)

// Shapes a shape-mark field can draw.
const (
	ShapeRect  = "rect"
	ShapeLine  = "line"
	ShapeCheck = "check"
)

// Color is an opaque RGB color with 0-255 channels.
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Style is a partial restyle applied by an alt-style rule. Nil or zero
// entries leave the field's own parameters in place.
type Style struct {
	Color       *Color  `json:"color,omitempty"`
	FontStyle   string  `json:"fontStyle,omitempty"`
	FontSize    float64 `json:"fontSize,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
}

// Action says what a rule does to its target fields when its condition
// holds.
type Action string

const (
	ActionActivate   Action = "activate"
	ActionDeactivate Action = "deactivate"
	ActionAltStyle   Action = "alt-style"
)

// Valid reports whether a is a known rule action.
func (a Action) Valid() bool {
	switch a {
	case ActionActivate, ActionDeactivate, ActionAltStyle:
		return true
	}
	return false
}

// Rule activates, deactivates or restyles its target fields when When holds
// under the filler's variable assignment. Rules apply in declaration order.
type Rule struct {
	ID      string    `json:"id,omitempty"`
	When    Condition `json:"when"`
	Action  Action    `json:"action"`
	Targets []string  `json:"targets"`
	Style   *Style    `json:"style,omitempty"`
}

// Condition is a boolean expression over control variables. Exactly one
// branch is set per node: an equality test (Var and Eq), a membership test
// (Var and In), a conjunction (All) or a disjunction (Any).
type Condition struct {
	Var string      `json:"var,omitempty"`
	Eq  *string     `json:"eq,omitempty"`
	In  []string    `json:"in,omitempty"`
	All []Condition `json:"all,omitempty"`
	Any []Condition `json:"any,omitempty"`
}

// Variable declares a control variable a filler assigns before field values
// are collected. An empty Domain leaves the variable free-form; a non-empty
// Domain restricts assignments to the listed values.
type Variable struct {
	Name   string   `json:"name"`
	Domain []string `json:"values,omitempty"`
}

// Field returns the field with the given ID.
func (p *Project) Field(id string) (*Field, bool) {
	for i := range p.Fields {
		if p.Fields[i].ID == id {
			return &p.Fields[i], true
		}
	}
	return nil, false
}

// Variable returns the declared control variable with the given name.
func (p *Project) Variable(name string) (*Variable, bool) {
	for i := range p.Variables {
		if p.Variables[i].Name == name {
			return &p.Variables[i], true
		}
	}
	return nil, false
}

// FieldsOn returns the fields placed on one page of one document, in
// declaration order.
func (p *Project) FieldsOn(doc, page int) []*Field {
	var out []*Field
	for i := range p.Fields {
		if p.Fields[i].Doc == doc && p.Fields[i].Page == page {
			out = append(out, &p.Fields[i])
		}
	}
	return out
}
