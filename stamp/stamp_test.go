package stamp_test

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/AdamNissen/speedyf/coord"
	"github.com/AdamNissen/speedyf/internal/pdftest"
	"github.com/AdamNissen/speedyf/project"
	"github.com/AdamNissen/speedyf/rules"
	"github.com/AdamNissen/speedyf/stamp"
)

const (
	pageW = 595.28
	pageH = 841.89
)

func strptr(s string) *string { return &s }

// testProject wraps the fields in a validated single-document project whose
// recorded geometry matches pdftest.Source.
func testProject(t *testing.T, pages int, fields ...project.Field) *project.Project {
	t.Helper()
	doc := project.Document{Path: "source.pdf", PageCount: pages}
	for i := 0; i < pages; i++ {
		doc.Pages = append(doc.Pages, coord.Page{W: pageW, H: pageH})
	}
	p := &project.Project{
		SchemaVersion: project.FormatVersion,
		Documents:     []project.Document{doc},
		Fields:        fields,
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("test project invalid: %v", err)
	}
	return p
}

func apply(t *testing.T, src []byte, p *project.Project, values map[string]stamp.Value, act rules.ActivationSet) ([]byte, *stamp.Result) {
	t.Helper()
	var out bytes.Buffer
	res, err := stamp.Apply(&out, bytes.NewReader(src), p, 0, values, act, stamp.Config{NoCompression: true})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	return out.Bytes(), res
}

func noRules(t *testing.T) rules.ActivationSet {
	t.Helper()
	act, err := rules.Evaluate(nil, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	return act
}

func TestApplyStampsText(t *testing.T) {
	src := pdftest.Source(t, 1)
	p := testProject(t, 1, project.Field{
		ID:     "inst_name",
		Page:   0,
		Rect:   coord.Rect{X: 72, Y: 72, W: 200, H: 20},
		Kind:   project.KindTextInput,
		Prompt: "Tenant name",
	})
	out, res := apply(t, src, p, map[string]stamp.Value{
		"inst_name": stamp.TextValue{Text: "Jane Doe"},
	}, noRules(t))

	if !res.Ok() {
		t.Fatalf("result has errors: %v", res.Errors)
	}
	if len(res.Stamped) != 1 || res.Stamped[0] != "inst_name" {
		t.Errorf("Stamped = %v", res.Stamped)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Error("output is not a PDF")
	}
	if !bytes.Contains(out, []byte("(Jane Doe) Tj")) {
		t.Error("stamped text missing from content stream")
	}
	// Baseline sits inside the rect: x = 72+2, y = 841.89-(72+20-2.2).
	for _, coordStr := range []string{"74.00", "752.09"} {
		if !bytes.Contains(out, []byte(coordStr)) {
			t.Errorf("text coordinate %s missing from content stream", coordStr)
		}
	}
}

func TestApplyEmptyTextIsSkipped(t *testing.T) {
	src := pdftest.Source(t, 1)
	p := testProject(t, 1, project.Field{
		ID:   "inst_name",
		Page: 0,
		Rect: coord.Rect{X: 72, Y: 72, W: 200, H: 20},
		Kind: project.KindTextInput,
	})
	for name, values := range map[string]map[string]stamp.Value{
		"no value":    {},
		"empty value": {"inst_name": stamp.TextValue{}},
	} {
		t.Run(name, func(t *testing.T) {
			_, res := apply(t, src, p, values, noRules(t))
			if len(res.Skipped) != 1 || res.Skipped[0] != "inst_name" {
				t.Errorf("Skipped = %v", res.Skipped)
			}
			if len(res.Stamped) != 0 {
				t.Errorf("Stamped = %v", res.Stamped)
			}
		})
	}
}

func TestApplyDeactivatedFieldSkipped(t *testing.T) {
	src := pdftest.Source(t, 1)
	p := testProject(t, 1, project.Field{
		ID:   "inst_name",
		Page: 0,
		Rect: coord.Rect{X: 72, Y: 72, W: 200, H: 20},
		Kind: project.KindTextInput,
	})
	p.Variables = []project.Variable{{Name: "skip", Domain: []string{"yes", "no"}}}
	p.Rules = []project.Rule{{
		ID:      "rule_skip",
		When:    project.Condition{Var: "skip", Eq: strptr("yes")},
		Action:  project.ActionDeactivate,
		Targets: []string{"inst_name"},
	}}
	if err := p.Validate(); err != nil {
		t.Fatalf("test project invalid: %v", err)
	}
	act, err := rules.Evaluate(p.Rules, rules.Assignment{"skip": "yes"})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	out, res := apply(t, src, p, map[string]stamp.Value{
		"inst_name": stamp.TextValue{Text: "Jane Doe"},
	}, act)

	if len(res.Skipped) != 1 || res.Skipped[0] != "inst_name" {
		t.Errorf("Skipped = %v", res.Skipped)
	}
	if bytes.Contains(out, []byte("(Jane Doe)")) {
		t.Error("deactivated field was stamped anyway")
	}
}

func TestApplyAltStyleColor(t *testing.T) {
	src := pdftest.Source(t, 1)
	p := testProject(t, 1, project.Field{
		ID:   "inst_name",
		Page: 0,
		Rect: coord.Rect{X: 72, Y: 72, W: 200, H: 20},
		Kind: project.KindTextInput,
	})
	p.Variables = []project.Variable{{Name: "urgent", Domain: []string{"yes", "no"}}}
	p.Rules = []project.Rule{{
		ID:      "rule_red",
		When:    project.Condition{Var: "urgent", Eq: strptr("yes")},
		Action:  project.ActionAltStyle,
		Targets: []string{"inst_name"},
		Style:   &project.Style{Color: &project.Color{R: 200}},
	}}
	if err := p.Validate(); err != nil {
		t.Fatalf("test project invalid: %v", err)
	}
	act, err := rules.Evaluate(p.Rules, rules.Assignment{"urgent": "yes"})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	out, res := apply(t, src, p, map[string]stamp.Value{
		"inst_name": stamp.TextValue{Text: "Jane Doe"},
	}, act)

	if !res.Ok() {
		t.Fatalf("result has errors: %v", res.Errors)
	}
	// 200/255 as an RGB fill on the stamped text.
	if !bytes.Contains(out, []byte("0.784 0.000 0.000 rg")) {
		t.Error("alternate text color missing from content stream")
	}
}

func TestApplyStaticText(t *testing.T) {
	src := pdftest.Source(t, 1)
	p := testProject(t, 1, project.Field{
		ID:     "inst_clause",
		Page:   0,
		Rect:   coord.Rect{X: 72, Y: 110, W: 300, H: 16},
		Kind:   project.KindStaticText,
		Params: &project.Params{Text: "Approved as amended"},
	})
	out, res := apply(t, src, p, nil, noRules(t))
	if !res.Ok() {
		t.Fatalf("result has errors: %v", res.Errors)
	}
	if len(res.Stamped) != 1 {
		t.Errorf("Stamped = %v", res.Stamped)
	}
	if !bytes.Contains(out, []byte("(Approved as amended) Tj")) {
		t.Error("static text missing from content stream")
	}
}

func TestApplySingleSelect(t *testing.T) {
	src := pdftest.Source(t, 1)
	p := testProject(t, 1, project.Field{
		ID:     "inst_color",
		Page:   0,
		Rect:   coord.Rect{X: 72, Y: 140, W: 120, H: 16},
		Kind:   project.KindSingleSelect,
		Params: &project.Params{Options: []string{"Red", "Blue"}},
	})

	out, res := apply(t, src, p, map[string]stamp.Value{
		"inst_color": stamp.OptionValue{Option: "Blue"},
	}, noRules(t))
	if !res.Ok() {
		t.Fatalf("result has errors: %v", res.Errors)
	}
	if !bytes.Contains(out, []byte("(Blue) Tj")) {
		t.Error("selected option missing from content stream")
	}

	out, res = apply(t, src, p, map[string]stamp.Value{
		"inst_color": stamp.OptionValue{Option: "Green"},
	}, noRules(t))
	if !errors.Is(res.Errors["inst_color"], stamp.ErrUnknownOption) {
		t.Errorf("Errors[inst_color] = %v, want ErrUnknownOption", res.Errors["inst_color"])
	}
	if bytes.Contains(out, []byte("(Green")) {
		t.Error("undeclared option was stamped")
	}
}

func TestApplyMark(t *testing.T) {
	src := pdftest.Source(t, 1)
	p := testProject(t, 1, project.Field{
		ID:     "inst_tick",
		Page:   0,
		Rect:   coord.Rect{X: 72, Y: 180, W: 14, H: 14},
		Kind:   project.KindShapeMark,
		Params: &project.Params{StrokeWidth: 1.5},
	})

	out, res := apply(t, src, p, map[string]stamp.Value{
		"inst_tick": stamp.MarkValue{Checked: true},
	}, noRules(t))
	if !res.Ok() {
		t.Fatalf("result has errors: %v", res.Errors)
	}
	if len(res.Stamped) != 1 {
		t.Errorf("Stamped = %v", res.Stamped)
	}
	if !bytes.Contains(out, []byte("1.50 w")) {
		t.Error("mark stroke width missing from content stream")
	}

	_, res = apply(t, src, p, map[string]stamp.Value{
		"inst_tick": stamp.MarkValue{Checked: false},
	}, noRules(t))
	if len(res.Skipped) != 1 || res.Skipped[0] != "inst_tick" {
		t.Errorf("unchecked mark: Skipped = %v", res.Skipped)
	}
}

func TestApplySignature(t *testing.T) {
	src := pdftest.Source(t, 1)
	p := testProject(t, 1, project.Field{
		ID:   "inst_sig",
		Page: 0,
		Rect: coord.Rect{X: 340, Y: 700, W: 180, H: 60},
		Kind: project.KindSignature,
	})
	out, res := apply(t, src, p, map[string]stamp.Value{
		"inst_sig": stamp.ImageValue{Data: pdftest.PNG(t, 90, 30)},
	}, noRules(t))
	if !res.Ok() {
		t.Fatalf("result has errors: %v", res.Errors)
	}
	if len(res.Stamped) != 1 {
		t.Errorf("Stamped = %v", res.Stamped)
	}
	if !bytes.Contains(out, []byte("/Subtype /Image")) {
		t.Error("no image XObject in output")
	}
}

func TestApplyBadImageDoesNotSpoilOtherFields(t *testing.T) {
	src := pdftest.Source(t, 1)
	p := testProject(t, 1,
		project.Field{
			ID:   "inst_name",
			Page: 0,
			Rect: coord.Rect{X: 72, Y: 72, W: 200, H: 20},
			Kind: project.KindTextInput,
		},
		project.Field{
			ID:   "inst_sig",
			Page: 0,
			Rect: coord.Rect{X: 340, Y: 700, W: 180, H: 60},
			Kind: project.KindSignature,
		},
		project.Field{
			ID:   "inst_city",
			Page: 0,
			Rect: coord.Rect{X: 72, Y: 120, W: 200, H: 20},
			Kind: project.KindTextInput,
		},
	)
	out, res := apply(t, src, p, map[string]stamp.Value{
		"inst_name": stamp.TextValue{Text: "Jane Doe"},
		"inst_sig":  stamp.ImageValue{Data: []byte("corrupt bytes")},
		"inst_city": stamp.TextValue{Text: "Springfield"},
	}, noRules(t))

	if len(res.Errors) != 1 {
		t.Fatalf("Errors = %v, want exactly the bad signature", res.Errors)
	}
	if !errors.Is(res.Errors["inst_sig"], stamp.ErrBadImage) {
		t.Errorf("Errors[inst_sig] = %v, want ErrBadImage", res.Errors["inst_sig"])
	}
	var fe *stamp.FieldError
	if !errors.As(res.Errors["inst_sig"], &fe) || fe.FieldID != "inst_sig" {
		t.Errorf("error does not carry the field ID: %v", res.Errors["inst_sig"])
	}
	if len(res.Stamped) != 2 {
		t.Errorf("Stamped = %v, want both text fields", res.Stamped)
	}
	for _, want := range []string{"(Jane Doe) Tj", "(Springfield) Tj"} {
		if !bytes.Contains(out, []byte(want)) {
			t.Errorf("%s missing from content stream", want)
		}
	}
}

func TestApplyValueKindMismatch(t *testing.T) {
	src := pdftest.Source(t, 1)
	p := testProject(t, 1, project.Field{
		ID:   "inst_name",
		Page: 0,
		Rect: coord.Rect{X: 72, Y: 72, W: 200, H: 20},
		Kind: project.KindTextInput,
	})
	_, res := apply(t, src, p, map[string]stamp.Value{
		"inst_name": stamp.MarkValue{Checked: true},
	}, noRules(t))
	if !errors.Is(res.Errors["inst_name"], stamp.ErrValueKind) {
		t.Errorf("Errors[inst_name] = %v, want ErrValueKind", res.Errors["inst_name"])
	}
	if len(res.Stamped) != 0 {
		t.Errorf("Stamped = %v", res.Stamped)
	}
}

func TestApplyRotatedPages(t *testing.T) {
	display := coord.Rect{X: 72, Y: 72, W: 200, H: 20}
	// Device-space text coordinates for a box the viewer sees at
	// display(72,72,200,20): x = 74, baseline y = displayH-89.8.
	wantCoord := map[int]string{90: "505.48", 180: "752.09", 270: "505.48"}

	for _, rotation := range []int{90, 180, 270} {
		t.Run(fmt.Sprintf("rotate%d", rotation), func(t *testing.T) {
			src := pdftest.Rotated(t, pdftest.Source(t, 1), rotation)
			page := coord.Page{W: pageW, H: pageH, Rotation: rotation}
			rect := coord.FromDisplay(display, page)

			p := testProject(t, 1, project.Field{
				ID:   "inst_name",
				Page: 0,
				Rect: rect,
				Kind: project.KindTextInput,
			})
			p.Documents[0].Pages[0].Rotation = rotation
			if err := p.Validate(); err != nil {
				t.Fatalf("test project invalid: %v", err)
			}

			out, res := apply(t, src, p, map[string]stamp.Value{
				"inst_name": stamp.TextValue{Text: "Jane Doe"},
			}, noRules(t))
			if !res.Ok() {
				t.Fatalf("result has errors: %v", res.Errors)
			}
			if !bytes.Contains(out, []byte("(Jane Doe) Tj")) {
				t.Error("stamped text missing from content stream")
			}
			for _, coordStr := range []string{"74.00", wantCoord[rotation]} {
				if !bytes.Contains(out, []byte(coordStr)) {
					t.Errorf("text coordinate %s missing from content stream", coordStr)
				}
			}
		})
	}
}

func TestApplyMultiPage(t *testing.T) {
	src := pdftest.Source(t, 2)
	p := testProject(t, 2,
		project.Field{
			ID:   "inst_first",
			Page: 0,
			Rect: coord.Rect{X: 72, Y: 72, W: 200, H: 20},
			Kind: project.KindTextInput,
		},
		project.Field{
			ID:   "inst_second",
			Page: 1,
			Rect: coord.Rect{X: 72, Y: 72, W: 200, H: 20},
			Kind: project.KindTextInput,
		},
	)
	out, res := apply(t, src, p, map[string]stamp.Value{
		"inst_first":  stamp.TextValue{Text: "Page one entry"},
		"inst_second": stamp.TextValue{Text: "Page two entry"},
	}, noRules(t))

	if !res.Ok() {
		t.Fatalf("result has errors: %v", res.Errors)
	}
	if got := bytes.Count(out, []byte("/Type /Page\n")); got != 2 {
		t.Errorf("output has %d pages, want 2", got)
	}
	for _, want := range []string{"(Page one entry) Tj", "(Page two entry) Tj"} {
		if !bytes.Contains(out, []byte(want)) {
			t.Errorf("%s missing from content stream", want)
		}
	}
}

func TestApplyIsDeterministic(t *testing.T) {
	src := pdftest.Source(t, 1)
	p := testProject(t, 1, project.Field{
		ID:   "inst_name",
		Page: 0,
		Rect: coord.Rect{X: 72, Y: 72, W: 200, H: 20},
		Kind: project.KindTextInput,
	})
	values := map[string]stamp.Value{"inst_name": stamp.TextValue{Text: "Jane Doe"}}
	cfg := stamp.Config{
		NoCompression: true,
		CreationDate:  time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC),
	}

	render := func() []byte {
		var out bytes.Buffer
		res, err := stamp.Apply(&out, bytes.NewReader(src), p, 0, values, noRules(t), cfg)
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if !res.Ok() {
			t.Fatalf("result has errors: %v", res.Errors)
		}
		return out.Bytes()
	}

	first := render()
	second := render()
	if !bytes.Equal(first, second) {
		t.Error("identical inputs produced different bytes")
	}
}

func TestApplyFieldPageOutOfRange(t *testing.T) {
	src := pdftest.Source(t, 1)
	// Built by hand, bypassing Validate, the way a caller assembling a
	// Project in memory might.
	p := &project.Project{
		SchemaVersion: project.FormatVersion,
		Documents: []project.Document{{
			Path:      "source.pdf",
			PageCount: 1,
			Pages:     []coord.Page{{W: pageW, H: pageH}},
		}},
		Fields: []project.Field{
			{ID: "inst_offpage", Page: 3, Rect: coord.Rect{X: 72, Y: 72, W: 100, H: 20}, Kind: project.KindTextInput},
			{ID: "inst_ok", Page: 0, Rect: coord.Rect{X: 72, Y: 72, W: 100, H: 20}, Kind: project.KindTextInput},
		},
	}
	_, res := apply(t, src, p, map[string]stamp.Value{
		"inst_offpage": stamp.TextValue{Text: "lost"},
		"inst_ok":      stamp.TextValue{Text: "kept"},
	}, noRules(t))

	if !errors.Is(res.Errors["inst_offpage"], stamp.ErrPageRange) {
		t.Errorf("Errors[inst_offpage] = %v, want ErrPageRange", res.Errors["inst_offpage"])
	}
	if len(res.Stamped) != 1 || res.Stamped[0] != "inst_ok" {
		t.Errorf("Stamped = %v", res.Stamped)
	}
}

func TestApplyStaticTextWithoutParams(t *testing.T) {
	src := pdftest.Source(t, 1)
	p := &project.Project{
		SchemaVersion: project.FormatVersion,
		Documents: []project.Document{{
			Path:      "source.pdf",
			PageCount: 1,
			Pages:     []coord.Page{{W: pageW, H: pageH}},
		}},
		Fields: []project.Field{
			{ID: "inst_clause", Page: 0, Rect: coord.Rect{X: 72, Y: 110, W: 300, H: 16}, Kind: project.KindStaticText},
		},
	}
	_, res := apply(t, src, p, nil, noRules(t))
	if !errors.Is(res.Errors["inst_clause"], stamp.ErrNoStaticText) {
		t.Errorf("Errors[inst_clause] = %v, want ErrNoStaticText", res.Errors["inst_clause"])
	}
}

func TestApplyArgumentErrors(t *testing.T) {
	src := pdftest.Source(t, 1)
	p := testProject(t, 1, project.Field{
		ID:   "inst_name",
		Page: 0,
		Rect: coord.Rect{X: 72, Y: 72, W: 200, H: 20},
		Kind: project.KindTextInput,
	})
	var out bytes.Buffer

	if _, err := stamp.Apply(&out, bytes.NewReader(src), nil, 0, nil, noRules(t), stamp.Config{}); err == nil {
		t.Error("nil project accepted")
	}
	if _, err := stamp.Apply(&out, bytes.NewReader(src), p, 2, nil, noRules(t), stamp.Config{}); err == nil {
		t.Error("document index out of range accepted")
	}
	if _, err := stamp.Apply(&out, bytes.NewReader([]byte("not a pdf")), p, 0, nil, noRules(t), stamp.Config{}); err == nil {
		t.Error("unreadable source accepted")
	}
}
