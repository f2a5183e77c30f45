package speedyf

import (
	"io"

	"github.com/AdamNissen/speedyf/fill"
	"github.com/AdamNissen/speedyf/project"
	"github.com/AdamNissen/speedyf/rules"
	"github.com/AdamNissen/speedyf/stamp"
)

// Fill is the one-shot filler for single-document projects: it loads the
// design file at projectPath, applies the control-variable assignment and
// the field values, and writes the stamped document to w. Interactive use
// and multi-document projects go through fill.Open directly.
func Fill(projectPath string, a rules.Assignment, values map[string]stamp.Value, w io.Writer, opts ...fill.Option) (*stamp.Result, error) {
	p, err := project.LoadFile(projectPath)
	if err != nil {
		return nil, err
	}
	s, err := fill.Open(p, opts...)
	if err != nil {
		return nil, err
	}
	defer s.Abort()

	if err := s.SetAssignment(a); err != nil {
		return nil, err
	}
	for id, v := range values {
		if err := s.SetValue(id, v); err != nil {
			return nil, err
		}
	}
	return s.Commit(w)
}
