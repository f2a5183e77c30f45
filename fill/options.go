package fill

import "github.com/AdamNissen/speedyf/stamp"

type config struct {
	sourceBytes map[int][]byte
	skipCheck   bool
	noPartial   bool
	firstMatch  bool
	stampCfg    stamp.Config
}

// Option adjusts how a session opens and commits.
type Option func(*config)

// WithSourceBytes supplies the bytes of one document instead of reading
// its recorded path from disk.
func WithSourceBytes(doc int, data []byte) Option {
	return func(c *config) {
		if c.sourceBytes == nil {
			c.sourceBytes = make(map[int][]byte)
		}
		c.sourceBytes[doc] = data
	}
}

// WithoutSourceCheck skips the probe that verifies each source still
// matches the geometry the project recorded.
func WithoutSourceCheck() Option {
	return func(c *config) { c.skipCheck = true }
}

// WithoutPartial makes Commit fail with ErrPartialStamp instead of
// writing output when any field could not be stamped.
func WithoutPartial() Option {
	return func(c *config) { c.noPartial = true }
}

// WithFirstMatchRules makes the first matching rule claim a field, instead
// of the default last-match-wins evaluation.
func WithFirstMatchRules() Option {
	return func(c *config) { c.firstMatch = true }
}

// WithStampConfig overrides the rendering defaults used at commit time.
func WithStampConfig(cfg stamp.Config) Option {
	return func(c *config) { c.stampCfg = cfg }
}
