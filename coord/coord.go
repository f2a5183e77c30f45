// Package coord converts rectangles between the three spaces a placement
// travels through: capture space (scaled screen pixels on a displayed page),
// display space (the page as a viewer shows it, after /Rotate is applied),
// and page space (the unrotated page in PDF points).
//
// Page space is the canonical space. All stored geometry uses it, with the
// origin at the top-left corner of the unrotated page and y growing downward.
// A page's /Rotate entry only changes how viewers present the page, so a
// rectangle that round-trips capture -> page -> capture must come back to
// where it started regardless of rotation.
package coord

import (
	"fmt"
	"math"
)

// geomEps absorbs float noise when deciding whether a rectangle sits on the
// page. Placements a millionth of a point outside still count as inside.
const geomEps = 1e-6

// Rect is an axis-aligned rectangle. X and Y locate the top-left corner.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Page describes one source page: its unrotated size in PDF points and the
// clockwise /Rotate angle a viewer applies before showing it.
type Page struct {
	W        float64 `json:"w"`
	H        float64 `json:"h"`
	Rotation int     `json:"rotation,omitempty"`
}

// Capture ties a capture surface to the page it shows. Scale is the zoom
// factor of the surface: capture pixels per display point.
type Capture struct {
	Scale float64
	Page  Page
}

// InvalidGeometryError reports a rectangle that could not be mapped onto its
// page, either because it has no area or because it lies outside the page.
type InvalidGeometryError struct {
	Rect   Rect
	Page   Page
	Reason string
}

func (e *InvalidGeometryError) Error() string {
	return fmt.Sprintf("coord: rect (%g, %g, %g, %g) on %g x %g page: %s",
		e.Rect.X, e.Rect.Y, e.Rect.W, e.Rect.H, e.Page.W, e.Page.H, e.Reason)
}

// ValidRotation reports whether deg is one of the four rotations PDF allows.
func ValidRotation(deg int) bool {
	switch deg {
	case 0, 90, 180, 270:
		return true
	}
	return false
}

// DisplaySize returns the page size a viewer presents: rotations of 90 and
// 270 degrees swap width and height.
func (p Page) DisplaySize() (w, h float64) {
	if p.Rotation == 90 || p.Rotation == 270 {
		return p.H, p.W
	}
	return p.W, p.H
}

// Contains reports whether r lies fully on the unrotated page. Rectangles
// with non-positive size never count as contained.
func (p Page) Contains(r Rect) bool {
	if r.W <= 0 || r.H <= 0 {
		return false
	}
	return r.X >= -geomEps && r.Y >= -geomEps &&
		r.X+r.W <= p.W+geomEps && r.Y+r.H <= p.H+geomEps
}

// check validates r against p and builds the error the conversion entry
// points return.
func (p Page) check(r Rect) error {
	if r.W <= 0 || r.H <= 0 {
		return &InvalidGeometryError{Rect: r, Page: p, Reason: "zero or negative size"}
	}
	if !p.Contains(r) {
		return &InvalidGeometryError{Rect: r, Page: p, Reason: "outside page bounds"}
	}
	return nil
}

// ToDisplay maps a page-space rectangle to the space a viewer shows after
// applying p's rotation. Rotations outside {0, 90, 180, 270} behave as 0;
// callers validate rotation before storing it.
func ToDisplay(r Rect, p Page) Rect {
	switch p.Rotation {
	case 90:
		return Rect{X: p.H - r.Y - r.H, Y: r.X, W: r.H, H: r.W}
	case 180:
		return Rect{X: p.W - r.X - r.W, Y: p.H - r.Y - r.H, W: r.W, H: r.H}
	case 270:
		return Rect{X: r.Y, Y: p.W - r.X - r.W, W: r.H, H: r.W}
	}
	return r
}

// FromDisplay inverts ToDisplay: it maps a rectangle in the viewer's
// presentation of p back onto the unrotated page.
func FromDisplay(r Rect, p Page) Rect {
	switch p.Rotation {
	case 90:
		return Rect{X: r.Y, Y: p.H - r.X - r.W, W: r.H, H: r.W}
	case 180:
		return Rect{X: p.W - r.X - r.W, Y: p.H - r.Y - r.H, W: r.W, H: r.H}
	case 270:
		return Rect{X: p.W - r.Y - r.H, Y: r.X, W: r.H, H: r.W}
	}
	return r
}

// ToPage converts a rectangle drawn on the capture surface into page space.
// It returns an InvalidGeometryError when the result has no area or falls
// outside the page, so a stray drag off the edge is caught at capture time
// rather than at stamping time.
func (c Capture) ToPage(r Rect) (Rect, error) {
	if c.Scale <= 0 {
		return Rect{}, fmt.Errorf("coord: capture scale must be positive, got %g", c.Scale)
	}
	if !ValidRotation(c.Page.Rotation) {
		return Rect{}, fmt.Errorf("coord: rotation must be 0, 90, 180 or 270, got %d", c.Page.Rotation)
	}
	disp := Rect{X: r.X / c.Scale, Y: r.Y / c.Scale, W: r.W / c.Scale, H: r.H / c.Scale}
	page := FromDisplay(disp, c.Page)
	if err := c.Page.check(page); err != nil {
		return Rect{}, err
	}
	return page, nil
}

// FromPage converts a page-space rectangle back to the capture surface. It
// validates the input the same way ToPage validates its output, so the two
// form an exact round trip over valid rectangles.
func (c Capture) FromPage(r Rect) (Rect, error) {
	if c.Scale <= 0 {
		return Rect{}, fmt.Errorf("coord: capture scale must be positive, got %g", c.Scale)
	}
	if !ValidRotation(c.Page.Rotation) {
		return Rect{}, fmt.Errorf("coord: rotation must be 0, 90, 180 or 270, got %d", c.Page.Rotation)
	}
	if err := c.Page.check(r); err != nil {
		return Rect{}, err
	}
	disp := ToDisplay(r, c.Page)
	return Rect{X: disp.X * c.Scale, Y: disp.Y * c.Scale, W: disp.W * c.Scale, H: disp.H * c.Scale}, nil
}

// Clamp shifts and shrinks r as needed so it lies on the page. Callers that
// prefer snapping to rejecting use it before ToPage's validation runs.
func Clamp(r Rect, p Page) Rect {
	r.X = math.Max(0, math.Min(r.X, p.W))
	r.Y = math.Max(0, math.Min(r.Y, p.H))
	r.W = math.Min(r.W, p.W-r.X)
	r.H = math.Min(r.H, p.H-r.Y)
	return r
}
