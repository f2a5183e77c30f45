package stamp

import "time"

// Config tunes how fields are rendered. The zero value is ready to use;
// empty entries fall back to the defaults below, mirroring how field
// parameters themselves default when a design leaves them unset.
type Config struct {
	// FontFamily is used by text fields that do not set their own family.
	// One of the built-in families: Helvetica, Courier, Times.
	FontFamily string

	// FontSize is the default size in points for text fields.
	FontSize float64

	// MinFontSize is the floor for the shrink overflow policy when a
	// field sets none.
	MinFontSize float64

	// MaxImageDim caps signature images at this many pixels on their
	// longer side; larger images are downscaled before embedding.
	MaxImageDim int

	// StrokeWidth is the default line width in points for shape marks.
	StrokeWidth float64

	// NoCompression disables content stream compression in the output.
	// Mostly useful to inspect stamped text in tests.
	NoCompression bool

	// CreationDate pins the output's creation timestamp. When zero the
	// current time is used; pinning it makes repeated stampings of the
	// same inputs byte-identical.
	CreationDate time.Time
}

func (c Config) withDefaults() Config {
	if c.FontFamily == "" {
		c.FontFamily = "Helvetica"
	}
	if c.FontSize == 0 {
		c.FontSize = 11
	}
	if c.MinFontSize == 0 {
		c.MinFontSize = 6
	}
	if c.MaxImageDim == 0 {
		c.MaxImageDim = 2000
	}
	if c.StrokeWidth == 0 {
		c.StrokeWidth = 1.5
	}
	return c
}
