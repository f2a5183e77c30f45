package stamp

import (
	gofpdf "github.com/phpdave11/gofpdf"

	"github.com/AdamNissen/speedyf/coord"
	"github.com/AdamNissen/speedyf/project"
)

// textInset keeps text off the left and right edges of its rectangle.
const textInset = 2.0

// drawText renders one line of text bottom-anchored inside r. The baseline
// sits above the bottom edge by a descender margin, the way a handwritten
// entry sits on a form's ruled line.
func drawText(pdf *gofpdf.Fpdf, r coord.Rect, text string, spec drawSpec) {
	pdf.SetFont(spec.fontFamily, spec.fontStyle, spec.fontSize)
	pdf.SetTextColor(spec.color.R, spec.color.G, spec.color.B)

	fitted, size := fitText(pdf, text, r.W-2*textInset, spec)
	pdf.SetFontSize(size)

	textW := pdf.GetStringWidth(fitted)
	x := r.X + textInset
	switch spec.align {
	case "C":
		x = r.X + (r.W-textW)/2
	case "R":
		x = r.X + r.W - textInset - textW
	}
	pdf.Text(x, baselineFor(r, size), fitted)
}

// fitText makes text fit the available width under the field's overflow
// policy. Truncation cuts whole runes from the end; shrinking steps the
// font size down by half points to the configured floor, then truncates if
// the floor still does not fit. Both paths are deterministic functions of
// the inputs, so re-stamping a document reproduces it exactly.
//
// The current font must be set before calling; the font size state is left
// at the returned size.
func fitText(pdf *gofpdf.Fpdf, text string, avail float64, spec drawSpec) (string, float64) {
	size := spec.fontSize
	if avail <= 0 {
		return "", size
	}
	pdf.SetFontSize(size)
	if pdf.GetStringWidth(text) <= avail {
		return text, size
	}
	if spec.overflow == project.OverflowShrink {
		for size > spec.minFontSize {
			size -= 0.5
			if size < spec.minFontSize {
				size = spec.minFontSize
			}
			pdf.SetFontSize(size)
			if pdf.GetStringWidth(text) <= avail {
				return text, size
			}
		}
	}
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		if pdf.GetStringWidth(string(runes)) <= avail {
			break
		}
	}
	return string(runes), size
}

// baselineFor leaves room for descenders between the baseline and the
// rectangle's bottom edge.
func baselineFor(r coord.Rect, fontSize float64) float64 {
	margin := fontSize * 0.2
	if margin < 1.5 {
		margin = 1.5
	}
	return r.Y + r.H - margin
}
