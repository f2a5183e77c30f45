package speedyf

import "github.com/AdamNissen/speedyf/project"

// Option is a functional option for configuring a new design session via
// NewDesigner.
type Option func(*designerConfig)

type designerConfig struct {
	newID   func() string
	version string
}

// WithIDGenerator replaces the default instance-id generator. The
// generator must return a fresh identifier per call; tests and migration
// tools use this for deterministic ids.
func WithIDGenerator(gen func() string) Option {
	return func(c *designerConfig) {
		c.newID = gen
	}
}

// WithSchemaVersion sets the schema version written to saved design
// files. The default is the current project.FormatVersion.
func WithSchemaVersion(version string) Option {
	return func(c *designerConfig) {
		c.version = version
	}
}

// NewDesigner starts an empty design session.
//
// Example:
//
//	d := speedyf.NewDesigner()
//	doc, err := d.AddDocument("lease.pdf")
func NewDesigner(opts ...Option) *Designer {
	cfg := designerConfig{
		newID:   newInstanceID,
		version: project.FormatVersion,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Designer{
		proj: project.Project{SchemaVersion: cfg.version},
		cfg:  cfg,
	}
}
