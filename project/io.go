package project

import (
	"encoding/json"
	"fmt"
	"os"
)

// Load parses and validates a design file. Unknown JSON keys are ignored,
// which is what lets files written by later 1.x revisions load here; every
// key this version does know is validated strictly.
func Load(data []byte) (*Project, error) {
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("project: parsing design file: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Save validates p and renders it as indented canonical JSON. Key order and
// formatting are fixed, so loading and saving a file yields identical bytes.
func Save(p *Project) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("project: encoding design file: %w", err)
	}
	return append(data, '\n'), nil
}

// LoadFile reads and parses the design file at path.
func LoadFile(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("project: reading %s: %w", path, err)
	}
	p, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("%w (in %s)", err, path)
	}
	return p, nil
}

// SaveFile writes p to path, creating or truncating it.
func SaveFile(p *Project, path string) error {
	data, err := Save(p)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("project: writing %s: %w", path, err)
	}
	return nil
}

// Clone returns a deep copy of p by way of its canonical encoding. The copy
// shares no memory with the original, so a caller can edit one without
// disturbing sessions holding the other.
func Clone(p *Project) (*Project, error) {
	data, err := Save(p)
	if err != nil {
		return nil, err
	}
	return Load(data)
}
