// Package stamp renders filled field values onto copies of source PDF
// pages. Each source page is imported as a template into a fresh document,
// drawn at the size and orientation a viewer displays it, and the active
// fields are painted on top in display coordinates.
//
// Failures are isolated per field: a corrupt signature image or an unknown
// select option lands in Result.Errors under that field's ID while every
// healthy field still stamps. Only document-level problems, an unreadable
// source page or a write failure, abort the whole operation.
package stamp

import (
	"bytes"
	"fmt"
	"io"
	"slices"

	gofpdf "github.com/phpdave11/gofpdf"
	"github.com/phpdave11/gofpdf/contrib/gofpdi"

	"github.com/AdamNissen/speedyf/coord"
	"github.com/AdamNissen/speedyf/project"
	"github.com/AdamNissen/speedyf/rules"
)

// Result reports what one Apply pass did, field by field. Stamped and
// Skipped hold field IDs in declaration order; Errors maps the IDs of
// failed fields to what went wrong with each.
type Result struct {
	Stamped []string
	Skipped []string
	Errors  map[string]error
}

// Ok reports whether every visited field either stamped or was skipped
// cleanly.
func (r *Result) Ok() bool {
	return len(r.Errors) == 0
}

// Apply stamps one document of the project. It reads source pages from src,
// draws every active field that has a usable value, and writes the finished
// PDF to w. Fields are visited in declaration order.
//
// Fields without a value are skipped, not errors: a filler may legitimately
// leave optional fields empty. Deactivated fields are skipped regardless of
// value.
func Apply(w io.Writer, src io.ReadSeeker, proj *project.Project, docIndex int, values map[string]Value, act rules.ActivationSet, cfg Config) (*Result, error) {
	if proj == nil {
		return nil, fmt.Errorf("stamp: nil project")
	}
	if docIndex < 0 || docIndex >= len(proj.Documents) {
		return nil, fmt.Errorf("stamp: document index %d of %d", docIndex, len(proj.Documents))
	}
	cfg = cfg.withDefaults()
	doc := &proj.Documents[docIndex]

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	if cfg.NoCompression {
		pdf.SetCompression(false)
	}
	if !cfg.CreationDate.IsZero() {
		pdf.SetCreationDate(cfg.CreationDate)
	}
	imp := gofpdi.NewImporter()

	res := &Result{Errors: make(map[string]error)}

	// Fields pointing past the document cannot be reached by the page
	// loop below; report them instead of silently dropping them.
	for i := range proj.Fields {
		f := &proj.Fields[i]
		if f.Doc == docIndex && (f.Page < 0 || f.Page >= doc.PageCount) {
			res.Errors[f.ID] = fieldErrorf(f.ID, ErrPageRange, "page %d of %d", f.Page, doc.PageCount)
		}
	}

	for pageNum := 1; pageNum <= doc.PageCount; pageNum++ {
		var recorded coord.Page
		if pageNum-1 < len(doc.Pages) {
			recorded = doc.Pages[pageNum-1]
		}
		tplID, pw, ph, err := importPage(pdf, imp, src, pageNum)
		if err != nil {
			return nil, err
		}
		if pw == 0 || ph == 0 {
			pw, ph = recorded.W, recorded.H
		}
		page := coord.Page{W: pw, H: ph, Rotation: recorded.Rotation}
		addStampedPage(pdf, imp, tplID, page)

		for _, f := range proj.FieldsOn(docIndex, pageNum-1) {
			stampField(pdf, f, page, values[f.ID], act, cfg, res)
		}
	}

	if pdf.Err() {
		return nil, fmt.Errorf("stamp: rendering %s: %w", doc.Path, pdf.Error())
	}
	if err := pdf.Output(w); err != nil {
		return nil, fmt.Errorf("stamp: writing output: %w", err)
	}
	return res, nil
}

// importPage imports one source page as a template and reports its MediaBox
// size. The underlying importer panics on unreadable input, so the call is
// fenced and surfaced as an ordinary error.
func importPage(pdf *gofpdf.Fpdf, imp *gofpdi.Importer, src io.ReadSeeker, pageNum int) (tplID int, w, h float64, err error) {
	if _, err = src.Seek(0, io.SeekStart); err != nil {
		err = fmt.Errorf("stamp: seeking source: %w", err)
		return
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stamp: importing page %d: %v", pageNum, r)
		}
	}()
	rs := io.ReadSeeker(src)
	tplID = imp.ImportPageFromStream(pdf, &rs, pageNum, "/MediaBox")
	sizes := imp.GetPageSizes()
	if dims, ok := sizes[pageNum]; ok {
		if mb, ok := dims["/MediaBox"]; ok {
			w = mb["w"]
			h = mb["h"]
		}
	}
	return
}

// addStampedPage adds the output page at the size a viewer displays the
// source page and draws the imported template to match. A page stored with
// /Rotate is replayed by rotating the template content itself, which keeps
// the output page upright: stamping below happens in plain display
// coordinates with no per-field transforms.
//
// The rotation centers fall out of equating the template placement with
// the display mapping; each one pins the rotated content exactly onto the
// swapped-dimension page.
func addStampedPage(pdf *gofpdf.Fpdf, imp *gofpdi.Importer, tplID int, page coord.Page) {
	dw, dh := page.DisplaySize()
	pdf.AddPageFormat("P", gofpdf.SizeType{Wd: dw, Ht: dh})
	if page.Rotation == 0 {
		imp.UseImportedTemplate(pdf, tplID, 0, 0, page.W, page.H)
		return
	}
	pdf.TransformBegin()
	switch page.Rotation {
	case 90:
		pdf.TransformRotate(-90, page.H/2, page.H/2)
	case 180:
		pdf.TransformRotate(180, page.W/2, page.H/2)
	case 270:
		pdf.TransformRotate(90, page.W/2, page.W/2)
	}
	imp.UseImportedTemplate(pdf, tplID, 0, 0, page.W, page.H)
	pdf.TransformEnd()
}

// stampField stamps one field onto the current page, recording the outcome
// in res. All fallible work happens in stageField before the first drawing
// call, so a failed field leaves the page content untouched.
func stampField(pdf *gofpdf.Fpdf, f *project.Field, page coord.Page, v Value, act rules.ActivationSet, cfg Config, res *Result) {
	if !act.Active(f.ID) {
		res.Skipped = append(res.Skipped, f.ID)
		return
	}
	spec := resolveSpec(cfg, f.Params, act.Style(f.ID))
	disp := coord.ToDisplay(f.Rect, page)

	draw, err := stageField(pdf, f, disp, v, spec, cfg)
	if err != nil {
		res.Errors[f.ID] = err
		return
	}
	if draw == nil {
		res.Skipped = append(res.Skipped, f.ID)
		return
	}
	draw()
	res.Stamped = append(res.Stamped, f.ID)
}

// stageField validates the field's value and returns the deferred drawing
// step, or nil when there is nothing to stamp.
func stageField(pdf *gofpdf.Fpdf, f *project.Field, r coord.Rect, v Value, spec drawSpec, cfg Config) (func(), error) {
	if err := CheckValueKind(f.Kind, v); err != nil {
		return nil, &FieldError{FieldID: f.ID, Err: err}
	}
	switch f.Kind {
	case project.KindTextInput:
		tv, ok := v.(TextValue)
		if !ok || tv.Text == "" {
			return nil, nil
		}
		return func() { drawText(pdf, r, tv.Text, spec) }, nil

	case project.KindStaticText:
		if f.Params == nil || f.Params.Text == "" {
			return nil, fieldErrorf(f.ID, ErrNoStaticText, "")
		}
		text := f.Params.Text
		return func() { drawText(pdf, r, text, spec) }, nil

	case project.KindSingleSelect:
		ov, ok := v.(OptionValue)
		if !ok {
			return nil, nil
		}
		if f.Params == nil || !slices.Contains(f.Params.Options, ov.Option) {
			return nil, fieldErrorf(f.ID, ErrUnknownOption, "%q", ov.Option)
		}
		return func() { drawText(pdf, r, ov.Option, spec) }, nil

	case project.KindShapeMark:
		mv, ok := v.(MarkValue)
		if !ok || !mv.Checked {
			return nil, nil
		}
		return func() { drawMark(pdf, r, spec) }, nil

	case project.KindSignature:
		iv, ok := v.(ImageValue)
		if !ok {
			return nil, nil
		}
		img, err := normalizeImage(iv.Data, cfg.MaxImageDim)
		if err != nil {
			return nil, &FieldError{FieldID: f.ID, Err: err}
		}
		id := f.ID
		return func() { drawImage(pdf, id, r, img, spec) }, nil
	}
	return nil, fieldErrorf(f.ID, ErrUnsupportedKind, "%q", f.Kind)
}

// drawMark draws a shape-mark: an outline, a rule line, or a check stroke.
func drawMark(pdf *gofpdf.Fpdf, r coord.Rect, spec drawSpec) {
	pdf.SetDrawColor(spec.color.R, spec.color.G, spec.color.B)
	pdf.SetLineWidth(spec.strokeWidth)
	pdf.SetLineCapStyle("round")
	switch spec.shape {
	case project.ShapeRect:
		pdf.Rect(r.X, r.Y, r.W, r.H, "D")
	case project.ShapeLine:
		pdf.Line(r.X, r.Y+r.H/2, r.X+r.W, r.Y+r.H/2)
	default:
		// Check stroke: down into the corner, up and out.
		x1, y1 := r.X+0.15*r.W, r.Y+0.55*r.H
		x2, y2 := r.X+0.40*r.W, r.Y+0.80*r.H
		x3, y3 := r.X+0.85*r.W, r.Y+0.20*r.H
		pdf.Line(x1, y1, x2, y2)
		pdf.Line(x2, y2, x3, y3)
	}
}

// drawImage embeds a normalized signature image, aspect-fit inside the
// field rectangle. The field ID doubles as the image registry name; field
// IDs are unique per document, so registrations never collide.
func drawImage(pdf *gofpdf.Fpdf, name string, r coord.Rect, img *normalizedImage, spec drawSpec) {
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.data))
	fit := fitRect(r, img.w, img.h, spec.padding)
	pdf.ImageOptions(name, fit.X, fit.Y, fit.W, fit.H, false, opts, 0, "")
}
