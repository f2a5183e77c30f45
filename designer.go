package speedyf

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/AdamNissen/speedyf/coord"
	"github.com/AdamNissen/speedyf/project"
	"github.com/AdamNissen/speedyf/source"
)

// Designer assembles a project: documents, fields, control variables and
// rules. Every mutation is validated against the whole design before it
// sticks, so a designer session cannot produce a project that a filling
// session would reject. Designer is not safe for concurrent use.
type Designer struct {
	proj project.Project
	cfg  designerConfig
}

// OpenDesigner loads an existing design file for further editing.
func OpenDesigner(path string, opts ...Option) (*Designer, error) {
	p, err := project.LoadFile(path)
	if err != nil {
		return nil, err
	}
	d := NewDesigner(opts...)
	d.proj = *p
	return d, nil
}

// AddDocument probes the PDF at path and appends it to the project,
// returning its document index.
func (d *Designer) AddDocument(path string) (int, error) {
	info, err := source.Probe(path)
	if err != nil {
		return 0, newDesignError("AddDocument", err)
	}
	return d.AddDocumentInfo(info)
}

// AddDocumentInfo appends an already-probed document, for callers that
// probe sources themselves (for example from a stream).
func (d *Designer) AddDocumentInfo(info *source.Info) (int, error) {
	if info == nil {
		return 0, newDesignError("AddDocument", errors.New("nil probe result"))
	}
	d.proj.Documents = append(d.proj.Documents, info.Document())
	if err := d.proj.Validate(); err != nil {
		d.proj.Documents = d.proj.Documents[:len(d.proj.Documents)-1]
		return 0, newDesignError("AddDocument", err)
	}
	return len(d.proj.Documents) - 1, nil
}

// AddTextField places a fill-in text field. The rect is in page space: PDF
// points, origin at the top-left of the unrotated page.
func (d *Designer) AddTextField(doc, page int, r coord.Rect, prompt string, params *project.Params) (project.Field, error) {
	return d.addField("AddTextField", project.KindTextInput, doc, page, r, prompt, cloneParams(params))
}

// AddStaticText places a field that always stamps the given text.
func (d *Designer) AddStaticText(doc, page int, r coord.Rect, text string, params *project.Params) (project.Field, error) {
	p := cloneParams(params)
	if p == nil {
		p = &project.Params{}
	}
	p.Text = text
	return d.addField("AddStaticText", project.KindStaticText, doc, page, r, "", p)
}

// AddSignature places an image field for a drawn or scanned signature.
func (d *Designer) AddSignature(doc, page int, r coord.Rect, prompt string) (project.Field, error) {
	return d.addField("AddSignature", project.KindSignature, doc, page, r, prompt, nil)
}

// AddMark places a checkable mark. Shape is one of project.ShapeCheck,
// ShapeRect or ShapeLine; a zero strokeWidth uses the stamping default.
func (d *Designer) AddMark(doc, page int, r coord.Rect, shape string, strokeWidth float64) (project.Field, error) {
	return d.addField("AddMark", project.KindShapeMark, doc, page, r, "", &project.Params{Shape: shape, StrokeWidth: strokeWidth})
}

// AddSelect places a single-choice field over the given options.
func (d *Designer) AddSelect(doc, page int, r coord.Rect, prompt string, options ...string) (project.Field, error) {
	return d.addField("AddSelect", project.KindSingleSelect, doc, page, r, prompt, &project.Params{Options: slices.Clone(options)})
}

func (d *Designer) addField(op string, kind project.Kind, doc, page int, r coord.Rect, prompt string, params *project.Params) (project.Field, error) {
	id, err := d.nextID()
	if err != nil {
		return project.Field{}, newDesignError(op, err)
	}
	f := project.Field{ID: id, Doc: doc, Page: page, Rect: r, Kind: kind, Params: params, Prompt: prompt}
	d.proj.Fields = append(d.proj.Fields, f)
	if err := d.proj.Validate(); err != nil {
		d.proj.Fields = d.proj.Fields[:len(d.proj.Fields)-1]
		return project.Field{}, newDesignError(op, err)
	}
	return f, nil
}

func (d *Designer) nextID() (string, error) {
	for i := 0; i < 32; i++ {
		id := d.cfg.newID()
		if id == "" {
			continue
		}
		if _, taken := d.proj.Field(id); !taken {
			return id, nil
		}
	}
	return "", ErrIDGenerator
}

// PlaceCaptured maps a rectangle captured on a zoomed page view to the
// page-space rect the Add methods expect. scale is view pixels per point,
// e.g. 1.5 for a 150% view. The captured rect is in view coordinates of
// the rotated page as displayed.
func (d *Designer) PlaceCaptured(doc, page int, scale float64, captured coord.Rect) (coord.Rect, error) {
	if doc < 0 || doc >= len(d.proj.Documents) {
		return coord.Rect{}, newDesignError("PlaceCaptured", fmt.Errorf("%w: document %d", project.ErrBadDocument, doc))
	}
	pages := d.proj.Documents[doc].Pages
	if page < 0 || page >= len(pages) {
		return coord.Rect{}, newDesignError("PlaceCaptured", fmt.Errorf("%w: page %d", project.ErrPageOutOfRange, page))
	}
	view := coord.Capture{Scale: scale, Page: pages[page]}
	r, err := view.ToPage(captured)
	if err != nil {
		return coord.Rect{}, newDesignError("PlaceCaptured", err)
	}
	return r, nil
}

// DeclareVariable declares a control variable. An empty domain leaves the
// variable free-form.
func (d *Designer) DeclareVariable(name string, domain ...string) error {
	d.proj.Variables = append(d.proj.Variables, project.Variable{Name: name, Domain: slices.Clone(domain)})
	if err := d.proj.Validate(); err != nil {
		d.proj.Variables = d.proj.Variables[:len(d.proj.Variables)-1]
		return newDesignError("DeclareVariable", err)
	}
	return nil
}

// LinkRule records on a field which rule governs it, the inverse of the
// rule's target list. The link is declarative; activation always follows
// the rule's targets.
func (d *Designer) LinkRule(fieldID, ruleID string) error {
	f, ok := d.proj.Field(fieldID)
	if !ok {
		return newDesignError("LinkRule", fmt.Errorf("%w: %q", project.ErrDanglingFieldRef, fieldID))
	}
	prev := f.Rule
	f.Rule = ruleID
	if err := d.proj.Validate(); err != nil {
		f.Rule = prev
		return newDesignError("LinkRule", err)
	}
	return nil
}

// AddRule appends an activation rule. A rule without an ID gets a
// sequential one.
func (d *Designer) AddRule(r project.Rule) error {
	if r.ID == "" {
		for i := len(d.proj.Rules) + 1; ; i++ {
			id := fmt.Sprintf("rule_%d", i)
			if !slices.ContainsFunc(d.proj.Rules, func(existing project.Rule) bool { return existing.ID == id }) {
				r.ID = id
				break
			}
		}
	}
	d.proj.Rules = append(d.proj.Rules, r)
	if err := d.proj.Validate(); err != nil {
		d.proj.Rules = d.proj.Rules[:len(d.proj.Rules)-1]
		return newDesignError("AddRule", err)
	}
	return nil
}

// Project returns a validated deep copy of the design.
func (d *Designer) Project() (*project.Project, error) {
	p, err := project.Clone(&d.proj)
	if err != nil {
		return nil, newDesignError("Project", err)
	}
	return p, nil
}

// Save writes the design file.
func (d *Designer) Save(path string) error {
	if err := project.SaveFile(&d.proj, path); err != nil {
		return newDesignError("Save", err)
	}
	return nil
}

func cloneParams(p *project.Params) *project.Params {
	if p == nil {
		return nil
	}
	c := *p
	if p.Color != nil {
		col := *p.Color
		c.Color = &col
	}
	c.Options = slices.Clone(p.Options)
	return &c
}

// newInstanceID returns ids like "inst_9d2f1b77": a short hex slug cut
// from a random UUID, unique enough within one project and stable in
// saved files.
func newInstanceID() string {
	u := uuid.New()
	return fmt.Sprintf("inst_%x", u[:4])
}
