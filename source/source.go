// Package source probes PDF files before design and fill sessions. A probe
// records the geometry a project needs per document: page count and, per
// page, the media-box size in points plus the display rotation. The same
// probe later verifies that a file on disk still matches what a project
// recorded, so stamps cannot silently land on the wrong spot.
package source

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/AdamNissen/speedyf/coord"
	"github.com/AdamNissen/speedyf/project"
)

var (
	// ErrNotPDF reports input that could not be parsed as a PDF with at
	// least one page.
	ErrNotPDF = errors.New("source: not a readable PDF")

	// ErrMismatch reports a file whose geometry no longer matches the
	// document record in a project.
	ErrMismatch = errors.New("source: file does not match project record")
)

// Pages are compared with this much slack per dimension. Rewriting tools
// round media boxes; half a point is invisible at stamp time.
const dimTolerance = 0.5

// Info is the result of probing one PDF.
type Info struct {
	Path      string // empty when probed from a reader
	Version   string // PDF header version, e.g. "1.4"
	PageCount int
	Pages     []coord.Page
}

// Probe opens and probes the PDF at path.
func Probe(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	defer f.Close()
	info, err := ProbeReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w (in %s)", err, path)
	}
	info.Path = path
	return info, nil
}

// ProbeReader probes a PDF supplied as a seekable byte stream.
func ProbeReader(rs io.ReadSeeker) (*Info, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}

	info := &Info{PageCount: ctx.PageCount}
	if ctx.HeaderVersion != nil {
		info.Version = ctx.HeaderVersion.String()
	}
	pages, err := collectPages(ctx)
	if err != nil {
		return nil, err
	}
	if len(pages) != ctx.PageCount {
		return nil, fmt.Errorf("%w: page tree lists %d pages, trailer says %d", ErrNotPDF, len(pages), ctx.PageCount)
	}
	info.Pages = pages
	return info, nil
}

// Document converts the probe result into a project document record.
func (info *Info) Document() project.Document {
	pages := make([]coord.Page, len(info.Pages))
	copy(pages, info.Pages)
	return project.Document{Path: info.Path, PageCount: info.PageCount, Pages: pages}
}

// Check verifies that the probed file still matches a recorded document:
// same page count and, per page, the same size within the tolerance and
// the same rotation. Mismatches wrap ErrMismatch.
func (info *Info) Check(doc project.Document) error {
	if info.PageCount != doc.PageCount {
		return fmt.Errorf("%w: %s has %d pages, project records %d", ErrMismatch, doc.Path, info.PageCount, doc.PageCount)
	}
	for i, got := range info.Pages {
		if i >= len(doc.Pages) {
			break
		}
		want := doc.Pages[i]
		if math.Abs(got.W-want.W) > dimTolerance || math.Abs(got.H-want.H) > dimTolerance {
			return fmt.Errorf("%w: page %d of %s is %.2fx%.2f pt, project records %.2fx%.2f",
				ErrMismatch, i+1, doc.Path, got.W, got.H, want.W, want.H)
		}
		if got.Rotation != want.Rotation {
			return fmt.Errorf("%w: page %d of %s is rotated %d, project records %d",
				ErrMismatch, i+1, doc.Path, got.Rotation, want.Rotation)
		}
	}
	return nil
}

// inherited carries the attributes a page-tree node passes to its kids.
// MediaBox and Rotate are the two inheritable entries this probe needs.
type inherited struct {
	w, h    float64
	haveBox bool
	rot     int
}

// Cyclic Kids arrays would otherwise recurse forever.
const maxTreeDepth = 64

func collectPages(ctx *model.Context) ([]coord.Page, error) {
	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("%w: reading catalog: %v", ErrNotPDF, err)
	}
	obj, found := rootDict.Find("Pages")
	if !found {
		return nil, fmt.Errorf("%w: catalog has no page tree", ErrNotPDF)
	}
	root, err := ctx.DereferenceDict(obj)
	if err != nil || root == nil {
		return nil, fmt.Errorf("%w: page tree root: %v", ErrNotPDF, err)
	}

	pages := make([]coord.Page, 0, ctx.PageCount)
	var walk func(node types.Dict, inh inherited, depth int) error
	walk = func(node types.Dict, inh inherited, depth int) error {
		if depth > maxTreeDepth {
			return fmt.Errorf("%w: page tree deeper than %d", ErrNotPDF, maxTreeDepth)
		}
		if w, h, ok := mediaBoxSize(ctx, node); ok {
			inh.w, inh.h, inh.haveBox = w, h, true
		}
		if rot, ok := rotationEntry(ctx, node); ok {
			inh.rot = rot
		}
		kidsObj, found := node.Find("Kids")
		if dictType(ctx, node) == "Page" || !found {
			if !inh.haveBox {
				return fmt.Errorf("%w: page %d has no media box", ErrNotPDF, len(pages)+1)
			}
			pages = append(pages, coord.Page{W: inh.w, H: inh.h, Rotation: inh.rot})
			return nil
		}
		kids, err := ctx.DereferenceArray(kidsObj)
		if err != nil {
			return fmt.Errorf("%w: page tree kids: %v", ErrNotPDF, err)
		}
		for _, kid := range kids {
			kidDict, err := ctx.DereferenceDict(kid)
			if err != nil || kidDict == nil {
				return fmt.Errorf("%w: page tree kid: %v", ErrNotPDF, err)
			}
			if err := walk(kidDict, inh, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root, inherited{}, 0); err != nil {
		return nil, err
	}
	return pages, nil
}

func dictType(ctx *model.Context, d types.Dict) string {
	obj, found := d.Find("Type")
	if !found {
		return ""
	}
	name, err := ctx.DereferenceName(obj, model.V10, nil)
	if err != nil {
		return ""
	}
	return name.Value()
}

func mediaBoxSize(ctx *model.Context, d types.Dict) (w, h float64, ok bool) {
	obj, found := d.Find("MediaBox")
	if !found {
		return 0, 0, false
	}
	arr, err := ctx.DereferenceArray(obj)
	if err != nil || len(arr) != 4 {
		return 0, 0, false
	}
	var c [4]float64
	for i, o := range arr {
		n, err := ctx.DereferenceNumber(o)
		if err != nil {
			return 0, 0, false
		}
		c[i] = n
	}
	w = math.Abs(c[2] - c[0])
	h = math.Abs(c[3] - c[1])
	return w, h, w > 0 && h > 0
}

func rotationEntry(ctx *model.Context, d types.Dict) (int, bool) {
	obj, found := d.Find("Rotate")
	if !found {
		return 0, false
	}
	v, err := ctx.DereferenceInteger(obj)
	if err != nil || v == nil {
		return 0, false
	}
	return normalizeRotation(int(*v)), true
}

// normalizeRotation folds a /Rotate value into {0, 90, 180, 270}.
// Values off the quarter-turn grid read as 0.
func normalizeRotation(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	if deg%90 != 0 {
		return 0
	}
	return deg
}
