package stamp

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"

	// Decoders for the signature image formats fillers supply.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"

	"github.com/AdamNissen/speedyf/coord"
)

// normalizedImage is a signature payload after decoding: always PNG bytes,
// with pixel dimensions recorded for aspect-ratio fitting.
type normalizedImage struct {
	data []byte
	w, h int
}

// normalizeImage decodes raw signature data and re-encodes it as PNG,
// downscaling anything whose longer side exceeds maxDim. Every fallible
// step happens here, before any drawing, so a corrupt payload surfaces as
// a field error while the rest of the document stamps normally.
func normalizeImage(data []byte, maxDim int) (*normalizedImage, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty data", ErrBadImage)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: %s image is %dx%d", ErrBadImage, format, cfg.Width, cfg.Height)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadImage, err)
	}
	if w, h := capDims(cfg.Width, cfg.Height, maxDim); w != cfg.Width || h != cfg.Height {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
		img = dst
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: re-encoding: %v", ErrBadImage, err)
	}
	b := img.Bounds()
	return &normalizedImage{data: buf.Bytes(), w: b.Dx(), h: b.Dy()}, nil
}

// capDims scales (w, h) down proportionally until the longer side is at
// most maxDim. Images already inside the cap come back unchanged.
func capDims(w, h, maxDim int) (int, int) {
	long := w
	if h > long {
		long = h
	}
	if maxDim <= 0 || long <= maxDim {
		return w, h
	}
	scale := float64(maxDim) / float64(long)
	sw := int(float64(w) * scale)
	sh := int(float64(h) * scale)
	if sw < 1 {
		sw = 1
	}
	if sh < 1 {
		sh = 1
	}
	return sw, sh
}

// fitRect scales a w-by-h image uniformly to the largest size that fits
// inside r after the padding inset, centered both ways. The aspect ratio is
// always preserved; undersized images scale up.
func fitRect(r coord.Rect, w, h int, padding float64) coord.Rect {
	inner := coord.Rect{
		X: r.X + padding,
		Y: r.Y + padding,
		W: r.W - 2*padding,
		H: r.H - 2*padding,
	}
	if inner.W <= 0 || inner.H <= 0 || w <= 0 || h <= 0 {
		return coord.Rect{X: r.X, Y: r.Y}
	}
	scale := inner.W / float64(w)
	if s := inner.H / float64(h); s < scale {
		scale = s
	}
	fw := float64(w) * scale
	fh := float64(h) * scale
	return coord.Rect{
		X: inner.X + (inner.W-fw)/2,
		Y: inner.Y + (inner.H-fh)/2,
		W: fw,
		H: fh,
	}
}
