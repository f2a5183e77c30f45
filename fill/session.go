// Package fill runs filling sessions over saved projects. A session loads
// the project and its source documents, collects a control-variable
// assignment, resolves field activation, accepts typed field values, and
// commits stamped copies. Recoverable input errors (a value outside a
// variable's domain, a payload of the wrong type) leave the session state
// unchanged so callers can reprompt.
package fill

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"

	"github.com/AdamNissen/speedyf/project"
	"github.com/AdamNissen/speedyf/rules"
	"github.com/AdamNissen/speedyf/source"
	"github.com/AdamNissen/speedyf/stamp"
)

// Session is a single fill of one project. It is not safe for concurrent
// use.
type Session struct {
	proj    *project.Project
	sources [][]byte
	cfg     config

	state      State
	assignment rules.Assignment
	act        rules.ActivationSet
	values     map[string]stamp.Value
}

// Open validates the project, loads every source document and verifies it
// against the recorded geometry. The session keeps its own copy of the
// project, so later changes by the caller do not leak in.
func Open(proj *project.Project, opts ...Option) (*Session, error) {
	if proj == nil {
		return nil, errors.New("fill: nil project")
	}
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	p, err := project.Clone(proj)
	if err != nil {
		return nil, fmt.Errorf("fill: %w", err)
	}

	sources := make([][]byte, len(p.Documents))
	for i, doc := range p.Documents {
		data, ok := cfg.sourceBytes[i]
		if !ok {
			data, err = os.ReadFile(doc.Path)
			if err != nil {
				return nil, fmt.Errorf("fill: reading document %d: %w", i, err)
			}
		}
		if !cfg.skipCheck {
			info, err := source.ProbeReader(bytes.NewReader(data))
			if err != nil {
				return nil, fmt.Errorf("fill: document %d (%s): %w", i, doc.Path, err)
			}
			if err := info.Check(doc); err != nil {
				return nil, fmt.Errorf("fill: document %d: %w", i, err)
			}
		}
		sources[i] = data
	}

	s := &Session{
		proj:    p,
		sources: sources,
		cfg:     cfg,
		state:   StateCollectingAssignment,
		values:  make(map[string]stamp.Value),
	}
	// Without rules there is nothing an assignment could change, so the
	// session is immediately ready for values.
	if len(p.Rules) == 0 {
		act, err := rules.Evaluate(nil, nil)
		if err != nil {
			return nil, fmt.Errorf("fill: %w", err)
		}
		s.act = act
		s.state = StateAwaitingFieldValues
	}
	return s, nil
}

// State reports the session's lifecycle state.
func (s *Session) State() State { return s.state }

// SetAssignment checks the control-variable assignment against the
// declared domains, evaluates the project rules, and moves the session to
// accepting field values. It may be called again later to change the
// assignment; field values already set are kept, including values of
// fields the new assignment deactivates.
func (s *Session) SetAssignment(a rules.Assignment) error {
	if s.state != StateCollectingAssignment && s.state != StateAwaitingFieldValues {
		return &StateError{Op: "set assignment", State: s.state}
	}
	if err := rules.CheckAssignment(s.proj.Variables, a); err != nil {
		return err
	}
	var opts []rules.Option
	if s.cfg.firstMatch {
		opts = append(opts, rules.WithFirstMatch())
	}
	act, err := rules.Evaluate(s.proj.Rules, a, opts...)
	if err != nil {
		return err
	}
	s.assignment = maps.Clone(a)
	s.act = act
	s.state = StateAwaitingFieldValues
	return nil
}

// Assignment returns a copy of the current control-variable assignment.
func (s *Session) Assignment() rules.Assignment {
	return maps.Clone(s.assignment)
}

// ActiveFields lists the fields the current activation keeps on, in
// declaration order. Before any assignment is set every field counts as
// active.
func (s *Session) ActiveFields() []project.Field {
	fields := make([]project.Field, 0, len(s.proj.Fields))
	for _, f := range s.proj.Fields {
		if s.act.Active(f.ID) {
			fields = append(fields, f)
		}
	}
	return fields
}

// SetValue stores the payload for one field, or clears it when v is nil.
// The payload type must match the field kind. Values may be set on
// inactive fields too; they are kept by ID and stamp again if a later
// assignment reactivates the field.
func (s *Session) SetValue(fieldID string, v stamp.Value) error {
	if s.state != StateAwaitingFieldValues {
		return &StateError{Op: "set value", State: s.state}
	}
	f, ok := s.proj.Field(fieldID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, fieldID)
	}
	if v == nil {
		delete(s.values, fieldID)
		return nil
	}
	if err := stamp.CheckValueKind(f.Kind, v); err != nil {
		return err
	}
	s.values[fieldID] = v
	return nil
}

// Value returns the payload currently stored for a field.
func (s *Session) Value(fieldID string) (stamp.Value, bool) {
	v, ok := s.values[fieldID]
	return v, ok
}

// Commit stamps a single-document project into w. Projects with more
// documents must use CommitEach. When a commit is rejected with
// ErrPartialStamp the result still comes back alongside the error, so
// callers can report which fields failed.
func (s *Session) Commit(w io.Writer) (*stamp.Result, error) {
	if len(s.proj.Documents) != 1 {
		return nil, fmt.Errorf("fill: Commit writes one document, project has %d; use CommitEach", len(s.proj.Documents))
	}
	results, err := s.CommitEach(func(int, project.Document) (io.Writer, error) { return w, nil })
	if len(results) == 1 {
		return results[0], err
	}
	return nil, err
}

// CommitEach stamps every document, asking open for the output writer of
// each. All documents render into memory first; writers are only opened
// and written once rendering succeeded, so a failed document never leaves
// half the outputs behind. Per-field failures are reported in the results
// and do not stop the commit unless the session was opened
// WithoutPartial, in which case the commit is rejected, nothing is
// written, and the session keeps accepting values.
func (s *Session) CommitEach(open func(i int, doc project.Document) (io.Writer, error)) ([]*stamp.Result, error) {
	if s.state != StateAwaitingFieldValues {
		return nil, &StateError{Op: "commit", State: s.state}
	}
	s.state = StateStamping

	results := make([]*stamp.Result, len(s.proj.Documents))
	rendered := make([]*bytes.Buffer, len(s.proj.Documents))
	for i := range s.proj.Documents {
		var buf bytes.Buffer
		res, err := stamp.Apply(&buf, bytes.NewReader(s.sources[i]), s.proj, i, s.values, s.act, s.cfg.stampCfg)
		if err != nil {
			s.state = StateAborted
			return nil, fmt.Errorf("fill: document %d: %w", i, err)
		}
		results[i] = res
		rendered[i] = &buf
	}

	if s.cfg.noPartial {
		for i, res := range results {
			if !res.Ok() {
				s.state = StateAwaitingFieldValues
				return results, fmt.Errorf("fill: document %d: %w", i, ErrPartialStamp)
			}
		}
	}

	for i, doc := range s.proj.Documents {
		w, err := open(i, doc)
		if err != nil {
			s.state = StateAborted
			return results, fmt.Errorf("fill: opening output for document %d: %w", i, err)
		}
		if _, err := rendered[i].WriteTo(w); err != nil {
			s.state = StateAborted
			return results, fmt.Errorf("fill: writing document %d: %w", i, err)
		}
	}
	s.state = StateCommitted
	return results, nil
}

// Abort ends an unfinished session. Aborting after a successful commit
// does nothing.
func (s *Session) Abort() {
	if s.state == StateCommitted {
		return
	}
	s.state = StateAborted
}
