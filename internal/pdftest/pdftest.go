// Package pdftest builds small in-memory PDF fixtures for tests. Sources
// are generated uncompressed so assertions can grep content streams, and
// page rotation is injected by rewriting the page dictionaries of a
// generated file and rebuilding its xref table.
package pdftest

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"

	gofpdf "github.com/phpdave11/gofpdf"
)

// Source builds an uncompressed PDF with the given number of A4 pages. Each
// page carries a visible label and a frame so stamped overlays have
// something to sit on.
func Source(t *testing.T, pages int) []byte {
	t.Helper()
	return SourceSized(t, pages, 595.28, 841.89)
}

// SourceSized builds an uncompressed PDF with pages of the given size in
// points.
func SourceSized(t *testing.T, pages int, w, h float64) []byte {
	t.Helper()
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetCompression(false)
	pdf.SetAutoPageBreak(false, 0)
	for i := 1; i <= pages; i++ {
		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: w, Ht: h})
		pdf.SetFont("Helvetica", "", 14)
		pdf.Text(40, 40, fmt.Sprintf("source page %d", i))
		pdf.SetLineWidth(0.5)
		pdf.Rect(20, 20, w-40, h-40, "D")
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("pdftest: building source: %v", err)
	}
	return buf.Bytes()
}

// Rotated returns a copy of a generated source with /Rotate set on every
// page dictionary. It only understands the uncompressed files Source
// produces; offsets shift, so the xref table is rebuilt afterwards.
func Rotated(t *testing.T, data []byte, angle int) []byte {
	t.Helper()
	switch angle {
	case 90, 180, 270:
	default:
		t.Fatalf("pdftest: rotation angle %d", angle)
	}
	marker := []byte("/Type /Page\n")
	if !bytes.Contains(data, marker) {
		t.Fatal("pdftest: no page dictionaries found")
	}
	replacement := []byte(fmt.Sprintf("/Type /Page /Rotate %d\n", angle))
	out := bytes.ReplaceAll(data, marker, replacement)
	return rebuildXref(out)
}

// PNG encodes a w-by-h test image: a dark diagonal on a light background,
// enough structure to survive downscaling visibly.
func PNG(t *testing.T, w, h int) []byte {
	t.Helper()
	if w <= 0 || h <= 0 {
		t.Fatalf("pdftest: image size %dx%d", w, h)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{R: 235, G: 235, B: 235, A: 255}
			if dx := x - y*w/h; dx > -3 && dx < 3 {
				c = color.RGBA{R: 20, G: 20, B: 80, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("pdftest: encoding image: %v", err)
	}
	return buf.Bytes()
}

// WriteTemp writes data into the test's temp directory and returns its
// path.
func WriteTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("pdftest: writing %s: %v", path, err)
	}
	return path
}

// rebuildXref scans the body for object definitions and rewrites the xref
// table with their actual offsets, keeping the original trailer dictionary.
func rebuildXref(data []byte) []byte {
	objPattern := regexp.MustCompile(`(?m)^(\d+)\s+(\d+)\s+obj\b`)
	matches := objPattern.FindAllSubmatchIndex(data, -1)
	if len(matches) == 0 {
		return data
	}

	type objInfo struct {
		num, gen, offset int
	}
	var objects []objInfo
	maxObj := 0
	for _, m := range matches {
		num, _ := strconv.Atoi(string(data[m[2]:m[3]]))
		gen, _ := strconv.Atoi(string(data[m[4]:m[5]]))
		objects = append(objects, objInfo{num: num, gen: gen, offset: m[0]})
		if num > maxObj {
			maxObj = num
		}
	}

	xrefIdx := bytes.LastIndex(data, []byte("\nxref\n"))
	if xrefIdx < 0 {
		return data
	}
	trailerIdx := bytes.Index(data[xrefIdx:], []byte("trailer"))
	if trailerIdx < 0 {
		return data
	}
	trailerAbsIdx := xrefIdx + trailerIdx
	startxrefIdx := bytes.Index(data[trailerAbsIdx:], []byte("startxref"))
	if startxrefIdx < 0 {
		return data
	}
	trailerDict := bytes.TrimSpace(data[trailerAbsIdx+7 : trailerAbsIdx+startxrefIdx])

	body := data[:xrefIdx+1]

	var xref bytes.Buffer
	xref.WriteString("xref\n")
	fmt.Fprintf(&xref, "0 %d\n", maxObj+1)
	xref.WriteString("0000000000 65535 f \n")
	offsets := make(map[int]objInfo)
	for _, obj := range objects {
		offsets[obj.num] = obj
	}
	for i := 1; i <= maxObj; i++ {
		if obj, ok := offsets[i]; ok {
			fmt.Fprintf(&xref, "%010d %05d n \n", obj.offset, obj.gen)
		} else {
			xref.WriteString("0000000000 00000 f \n")
		}
	}

	var result bytes.Buffer
	result.Write(body)
	result.Write(xref.Bytes())
	result.WriteString("trailer\n")
	result.Write(trailerDict)
	fmt.Fprintf(&result, "\nstartxref\n%d\n%%%%EOF\n", len(body))
	return result.Bytes()
}
