package project

import (
	"fmt"
	"strings"

	"github.com/AdamNissen/speedyf/coord"
)

// Validate checks every structural invariant of the design file: schema
// version, document geometry, field placement, parameter consistency, and
// rule wiring. It returns the first violation found as a *SchemaError.
//
// Load runs Validate automatically; callers that build a Project in memory
// run it before handing the project to a fill session.
func (p *Project) Validate() error {
	if err := checkVersion(p.SchemaVersion); err != nil {
		return err
	}
	if len(p.Documents) == 0 {
		return schemaErrorf("documents", ErrBadDocument, "at least one document required")
	}
	for i := range p.Documents {
		if err := p.validateDocument(i); err != nil {
			return err
		}
	}
	ids := make(map[string]bool, len(p.Fields))
	for i := range p.Fields {
		if err := p.validateField(i, ids); err != nil {
			return err
		}
	}
	vars := make(map[string]bool, len(p.Variables))
	for i, v := range p.Variables {
		path := fmt.Sprintf("controlVariables[%d]", i)
		if v.Name == "" {
			return schemaErrorf(path, ErrBadRule, "variable needs a name")
		}
		if vars[v.Name] {
			return schemaErrorf(path, ErrDuplicateID, "variable %q declared twice", v.Name)
		}
		vars[v.Name] = true
	}
	ruleIDs := make(map[string]bool, len(p.Rules))
	for i := range p.Rules {
		if err := p.validateRule(i, ids, vars, ruleIDs); err != nil {
			return err
		}
	}
	// Field rule links can only be checked once every rule ID is known.
	for i := range p.Fields {
		if link := p.Fields[i].Rule; link != "" && !ruleIDs[link] {
			return schemaErrorf(fmt.Sprintf("fields[%d].rule", i), ErrDanglingFieldRef, "%q", link)
		}
	}
	return nil
}

// checkVersion accepts the version this package writes and any later minor
// revision of the same major version. Unknown majors are a hard error: the
// file may mean something this code would silently misread.
func checkVersion(v string) error {
	if v == "" {
		return schemaErrorf("schemaVersion", ErrUnknownVersion, "missing")
	}
	major, _, ok := strings.Cut(v, ".")
	if !ok || major != "1" {
		return schemaErrorf("schemaVersion", ErrUnknownVersion, "%q", v)
	}
	return nil
}

func (p *Project) validateDocument(i int) error {
	d := &p.Documents[i]
	path := fmt.Sprintf("documents[%d]", i)
	if d.Path == "" {
		return schemaErrorf(path, ErrBadDocument, "missing path")
	}
	if d.PageCount < 1 {
		return schemaErrorf(path, ErrBadDocument, "pageCount %d", d.PageCount)
	}
	if len(d.Pages) != d.PageCount {
		return schemaErrorf(path, ErrBadDocument, "%d page entries for pageCount %d", len(d.Pages), d.PageCount)
	}
	for j, pg := range d.Pages {
		if pg.W <= 0 || pg.H <= 0 {
			return schemaErrorf(fmt.Sprintf("%s.pages[%d]", path, j), ErrBadDocument, "page size %g x %g", pg.W, pg.H)
		}
		if !coord.ValidRotation(pg.Rotation) {
			return schemaErrorf(fmt.Sprintf("%s.pages[%d]", path, j), ErrBadDocument, "rotation %d", pg.Rotation)
		}
	}
	return nil
}

func (p *Project) validateField(i int, seen map[string]bool) error {
	f := &p.Fields[i]
	path := fmt.Sprintf("fields[%d]", i)
	if f.ID == "" {
		return schemaErrorf(path, ErrBadRule, "field needs an id")
	}
	if seen[f.ID] {
		return schemaErrorf(path, ErrDuplicateID, "field %q declared twice", f.ID)
	}
	seen[f.ID] = true
	if f.Doc < 0 || f.Doc >= len(p.Documents) {
		return schemaErrorf(path, ErrBadDocument, "document index %d of %d", f.Doc, len(p.Documents))
	}
	doc := &p.Documents[f.Doc]
	if f.Page < 0 || f.Page >= doc.PageCount {
		return schemaErrorf(path, ErrPageOutOfRange, "page %d of %d", f.Page, doc.PageCount)
	}
	if !doc.Pages[f.Page].Contains(f.Rect) {
		return schemaErrorf(path+".rect", ErrBadGeometry,
			"(%g, %g, %g, %g) on %g x %g page",
			f.Rect.X, f.Rect.Y, f.Rect.W, f.Rect.H, doc.Pages[f.Page].W, doc.Pages[f.Page].H)
	}
	if !f.Kind.Valid() {
		return schemaErrorf(path, ErrBadKind, "%q", f.Kind)
	}
	return validateParams(f, path)
}

func validateParams(f *Field, path string) error {
	pr := f.Params
	switch f.Kind {
	case KindStaticText:
		if pr == nil || pr.Text == "" {
			return schemaErrorf(path, ErrBadParams, "static-text needs params.text")
		}
	case KindSingleSelect:
		if pr == nil || len(pr.Options) == 0 {
			return schemaErrorf(path, ErrBadParams, "single-select needs params.options")
		}
		seen := make(map[string]bool, len(pr.Options))
		for _, opt := range pr.Options {
			if opt == "" {
				return schemaErrorf(path, ErrBadParams, "empty option")
			}
			if seen[opt] {
				return schemaErrorf(path, ErrBadParams, "duplicate option %q", opt)
			}
			seen[opt] = true
		}
	}
	if pr == nil {
		return nil
	}
	ppath := path + ".params"
	switch pr.FontFamily {
	case "", "Helvetica", "Arial", "Courier", "Times":
	default:
		return schemaErrorf(ppath, ErrBadParams, "font family %q", pr.FontFamily)
	}
	switch pr.FontStyle {
	case "", "B", "I", "BI":
	default:
		return schemaErrorf(ppath, ErrBadParams, "font style %q", pr.FontStyle)
	}
	switch pr.Align {
	case "", "L", "C", "R":
	default:
		return schemaErrorf(ppath, ErrBadParams, "align %q", pr.Align)
	}
	switch pr.Overflow {
	case "", OverflowTruncate, OverflowShrink:
	default:
		return schemaErrorf(ppath, ErrBadParams, "overflow %q", pr.Overflow)
	}
	switch pr.Shape {
	case "", ShapeRect, ShapeLine, ShapeCheck:
	default:
		return schemaErrorf(ppath, ErrBadParams, "shape %q", pr.Shape)
	}
	if pr.FontSize < 0 || pr.MinFontSize < 0 || pr.StrokeWidth < 0 || pr.Padding < 0 {
		return schemaErrorf(ppath, ErrBadParams, "negative size")
	}
	if pr.MinFontSize > 0 && pr.FontSize > 0 && pr.MinFontSize > pr.FontSize {
		return schemaErrorf(ppath, ErrBadParams, "minFontSize %g above fontSize %g", pr.MinFontSize, pr.FontSize)
	}
	if pr.Color != nil && !validColor(*pr.Color) {
		return schemaErrorf(ppath, ErrBadParams, "color out of range")
	}
	return nil
}

func validColor(c Color) bool {
	return c.R >= 0 && c.R <= 255 && c.G >= 0 && c.G <= 255 && c.B >= 0 && c.B <= 255
}

func (p *Project) validateRule(i int, fields, vars, ruleIDs map[string]bool) error {
	r := &p.Rules[i]
	path := fmt.Sprintf("rules[%d]", i)
	if r.ID != "" {
		if ruleIDs[r.ID] {
			return schemaErrorf(path, ErrDuplicateID, "rule %q declared twice", r.ID)
		}
		ruleIDs[r.ID] = true
	}
	if !r.Action.Valid() {
		return schemaErrorf(path, ErrBadRule, "action %q", r.Action)
	}
	if r.Style != nil {
		if r.Action != ActionAltStyle {
			return schemaErrorf(path, ErrBadRule, "style is only valid with action %q", ActionAltStyle)
		}
		if r.Style.Color != nil && !validColor(*r.Style.Color) {
			return schemaErrorf(path+".style", ErrBadParams, "color out of range")
		}
	}
	if len(r.Targets) == 0 {
		return schemaErrorf(path, ErrBadRule, "no targets")
	}
	for _, id := range r.Targets {
		if !fields[id] {
			return schemaErrorf(path, ErrDanglingFieldRef, "%q", id)
		}
	}
	return validateCondition(r.When, path+".when", vars)
}

func validateCondition(c Condition, path string, vars map[string]bool) error {
	branches := 0
	if c.Eq != nil {
		branches++
	}
	if c.In != nil {
		branches++
	}
	if c.All != nil {
		branches++
	}
	if c.Any != nil {
		branches++
	}
	if branches != 1 {
		return schemaErrorf(path, ErrBadRule, "condition needs exactly one of eq, in, all, any")
	}
	switch {
	case c.Eq != nil, c.In != nil:
		if c.Var == "" {
			return schemaErrorf(path, ErrBadRule, "condition needs var")
		}
		if !vars[c.Var] {
			return schemaErrorf(path, ErrUndeclaredVariable, "%q", c.Var)
		}
		if c.In != nil && len(c.In) == 0 {
			return schemaErrorf(path, ErrBadRule, "membership test with no values")
		}
	case c.All != nil:
		if c.Var != "" {
			return schemaErrorf(path, ErrBadRule, "var is only valid with eq or in")
		}
		if len(c.All) == 0 {
			return schemaErrorf(path, ErrBadRule, "empty conjunction")
		}
		for j, sub := range c.All {
			if err := validateCondition(sub, fmt.Sprintf("%s.all[%d]", path, j), vars); err != nil {
				return err
			}
		}
	case c.Any != nil:
		if c.Var != "" {
			return schemaErrorf(path, ErrBadRule, "var is only valid with eq or in")
		}
		if len(c.Any) == 0 {
			return schemaErrorf(path, ErrBadRule, "empty disjunction")
		}
		for j, sub := range c.Any {
			if err := validateCondition(sub, fmt.Sprintf("%s.any[%d]", path, j), vars); err != nil {
				return err
			}
		}
	}
	return nil
}
