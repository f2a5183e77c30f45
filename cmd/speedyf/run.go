package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/AdamNissen/speedyf/fill"
	"github.com/AdamNissen/speedyf/project"
	"github.com/AdamNissen/speedyf/rules"
	"github.com/AdamNissen/speedyf/source"
	"github.com/AdamNissen/speedyf/stamp"
)

// skipChoice is the extra select entry that leaves a field empty.
const skipChoice = "(leave empty)"

// runFill loads the project, walks a fill session with values taken from
// flags or prompts, and writes the stamped PDF to cfg.OutPath. The output
// is rendered fully in memory first, so a rejected or failed commit leaves
// no file behind.
func runFill(cfg *Config, pr prompter) error {
	proj, err := project.LoadFile(cfg.ProjectPath)
	if err != nil {
		return err
	}
	if len(proj.Documents) != 1 {
		return fmt.Errorf("project has %d documents; the CLI fills single-document projects", len(proj.Documents))
	}

	var opts []fill.Option
	if cfg.SourcePath != "" {
		data, err := os.ReadFile(cfg.SourcePath)
		if err != nil {
			return err
		}
		opts = append(opts, fill.WithSourceBytes(0, data))
	}
	if cfg.Strict {
		opts = append(opts, fill.WithoutPartial())
	}

	s, err := fill.Open(proj, opts...)
	if err != nil {
		return err
	}
	defer s.Abort()

	if err := collectAssignment(s, proj, cfg, pr); err != nil {
		return err
	}
	if err := collectValues(s, proj, cfg, pr); err != nil {
		return err
	}

	var buf bytes.Buffer
	res, err := s.Commit(&buf)
	if res != nil {
		for _, id := range slices.Sorted(maps.Keys(res.Errors)) {
			log.Printf("field %s: %v", id, res.Errors[id])
		}
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfg.OutPath, buf.Bytes(), 0o644); err != nil {
		return err
	}
	log.Printf("stamped %d field(s), skipped %d, wrote %s", len(res.Stamped), len(res.Skipped), cfg.OutPath)
	if !res.Ok() {
		return fmt.Errorf("%d field(s) failed to stamp", len(res.Errors))
	}
	return nil
}

// collectAssignment resolves every declared control variable from --set
// presets or prompts and hands the assignment to the session. A preset
// outside a variable's domain is reprompted interactively and fatal under
// --no-input.
func collectAssignment(s *fill.Session, proj *project.Project, cfg *Config, pr prompter) error {
	presets, err := parsePairs(cfg.Sets)
	if err != nil {
		return err
	}
	if s.State() != fill.StateCollectingAssignment && len(presets) == 0 {
		return nil
	}

	a := rules.Assignment{}
	maps.Copy(a, presets)
	for _, v := range proj.Variables {
		if _, ok := a[v.Name]; ok {
			continue
		}
		if cfg.NoInput {
			return fmt.Errorf("control variable %s is not set; pass --set %s=...", v.Name, v.Name)
		}
		val, err := promptVariable(v, pr)
		if err != nil {
			return err
		}
		a[v.Name] = val
	}

	for {
		err := s.SetAssignment(a)
		if err == nil {
			return nil
		}
		var de *rules.DomainError
		if cfg.NoInput || !errors.As(err, &de) {
			return err
		}
		decl, ok := proj.Variable(de.Variable)
		if !ok {
			return err
		}
		log.Print(err)
		val, perr := promptVariable(*decl, pr)
		if perr != nil {
			return perr
		}
		a[de.Variable] = val
	}
}

func promptVariable(v project.Variable, pr prompter) (string, error) {
	if len(v.Domain) > 0 {
		return pr.Select(v.Name, v.Domain)
	}
	return pr.Input(v.Name, "free-form control variable")
}

// collectValues applies --value presets, then prompts for every active
// field that still has none. Preset IDs must exist in the project; presets
// on deactivated fields are kept but not stamped.
func collectValues(s *fill.Session, proj *project.Project, cfg *Config, pr prompter) error {
	presets, err := parsePairs(cfg.Values)
	if err != nil {
		return err
	}
	for _, id := range slices.Sorted(maps.Keys(presets)) {
		f, ok := proj.Field(id)
		if !ok {
			return fmt.Errorf("--value %s: unknown field", id)
		}
		v, err := presetValue(*f, presets[id])
		if err != nil {
			return fmt.Errorf("--value %s: %w", id, err)
		}
		if err := s.SetValue(id, v); err != nil {
			return fmt.Errorf("--value %s: %w", id, err)
		}
	}
	if cfg.NoInput {
		return nil
	}

	for _, f := range s.ActiveFields() {
		if f.Kind == project.KindStaticText {
			continue
		}
		if _, ok := presets[f.ID]; ok {
			continue
		}
		v, err := promptValue(f, pr)
		if err != nil {
			return err
		}
		if v == nil {
			continue
		}
		if err := s.SetValue(f.ID, v); err != nil {
			return err
		}
	}
	return nil
}

// presetValue converts one --value string by field kind. Mark presets are
// booleans; signature presets name an image file.
func presetValue(f project.Field, raw string) (stamp.Value, error) {
	switch f.Kind {
	case project.KindTextInput:
		return stamp.TextValue{Text: raw}, nil
	case project.KindSingleSelect:
		return stamp.OptionValue{Option: raw}, nil
	case project.KindShapeMark:
		checked, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%q is not a boolean", raw)
		}
		return stamp.MarkValue{Checked: checked}, nil
	case project.KindSignature:
		data, err := os.ReadFile(raw)
		if err != nil {
			return nil, err
		}
		return stamp.ImageValue{Data: data}, nil
	}
	return nil, fmt.Errorf("%s fields take no value", f.Kind)
}

// promptValue asks for one field's value. Empty answers skip the field; an
// unreadable signature path is reported and asked again.
func promptValue(f project.Field, pr prompter) (stamp.Value, error) {
	label := fieldLabel(f)
	switch f.Kind {
	case project.KindTextInput:
		text, err := pr.Input(label, "leave empty to skip")
		if err != nil || text == "" {
			return nil, err
		}
		return stamp.TextValue{Text: text}, nil
	case project.KindSingleSelect:
		choice, err := pr.Select(label, append(slices.Clone(f.Params.Options), skipChoice))
		if err != nil || choice == skipChoice {
			return nil, err
		}
		return stamp.OptionValue{Option: choice}, nil
	case project.KindShapeMark:
		checked, err := pr.Confirm(label)
		if err != nil {
			return nil, err
		}
		return stamp.MarkValue{Checked: checked}, nil
	case project.KindSignature:
		for {
			path, err := pr.Input(label+" (image file path)", "PNG, JPEG, GIF or BMP; leave empty to skip")
			if err != nil || path == "" {
				return nil, err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				log.Print(err)
				continue
			}
			return stamp.ImageValue{Data: data}, nil
		}
	}
	return nil, nil
}

func fieldLabel(f project.Field) string {
	if f.Prompt != "" {
		return f.Prompt
	}
	return f.ID
}

// runInspect prints the project summary and verifies each source file
// against the geometry recorded for it.
func runInspect(w io.Writer, cfg *Config) error {
	proj, err := project.LoadFile(cfg.ProjectPath)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "project %s (schema %s)\n", cfg.ProjectPath, proj.SchemaVersion)
	for i, doc := range proj.Documents {
		path := doc.Path
		if i == 0 && cfg.SourcePath != "" {
			path = cfg.SourcePath
		}
		fmt.Fprintf(w, "document %d: %s, %d page(s)\n", i, path, doc.PageCount)
		for j, p := range doc.Pages {
			fmt.Fprintf(w, "  page %d: %.2f x %.2f pt", j, p.W, p.H)
			if p.Rotation != 0 {
				fmt.Fprintf(w, ", rotated %d", p.Rotation)
			}
			fmt.Fprintln(w)
		}
		if info, err := source.Probe(path); err != nil {
			fmt.Fprintf(w, "  source: %v\n", err)
		} else if err := info.Check(doc); err != nil {
			fmt.Fprintf(w, "  source: %v\n", err)
		} else {
			fmt.Fprintf(w, "  source: ok (PDF %s)\n", info.Version)
		}
	}
	for _, f := range proj.Fields {
		fmt.Fprintf(w, "field %s: %s, doc %d page %d, rect (%.1f, %.1f) %.1f x %.1f",
			f.ID, f.Kind, f.Doc, f.Page, f.Rect.X, f.Rect.Y, f.Rect.W, f.Rect.H)
		if f.Prompt != "" {
			fmt.Fprintf(w, ", prompt %q", f.Prompt)
		}
		fmt.Fprintln(w)
	}
	for _, v := range proj.Variables {
		if len(v.Domain) > 0 {
			fmt.Fprintf(w, "variable %s: one of %s\n", v.Name, strings.Join(v.Domain, ", "))
		} else {
			fmt.Fprintf(w, "variable %s: free-form\n", v.Name)
		}
	}
	for _, r := range proj.Rules {
		fmt.Fprintf(w, "rule %s: %s %s\n", r.ID, r.Action, strings.Join(r.Targets, ", "))
	}
	return nil
}
