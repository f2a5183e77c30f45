package source_test

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AdamNissen/speedyf/internal/pdftest"
	"github.com/AdamNissen/speedyf/source"
)

const (
	a4W = 595.28
	a4H = 841.89
)

func TestProbeReader(t *testing.T) {
	info, err := source.ProbeReader(bytes.NewReader(pdftest.Source(t, 3)))
	if err != nil {
		t.Fatalf("ProbeReader: %v", err)
	}
	if info.PageCount != 3 || len(info.Pages) != 3 {
		t.Fatalf("PageCount = %d, %d page records", info.PageCount, len(info.Pages))
	}
	if !strings.HasPrefix(info.Version, "1.") {
		t.Errorf("Version = %q", info.Version)
	}
	if info.Path != "" {
		t.Errorf("Path = %q for a reader probe", info.Path)
	}
	for i, p := range info.Pages {
		if math.Abs(p.W-a4W) > 0.5 || math.Abs(p.H-a4H) > 0.5 {
			t.Errorf("page %d is %.2fx%.2f, want A4", i+1, p.W, p.H)
		}
		if p.Rotation != 0 {
			t.Errorf("page %d rotation = %d", i+1, p.Rotation)
		}
	}
}

func TestProbeReaderCustomSize(t *testing.T) {
	info, err := source.ProbeReader(bytes.NewReader(pdftest.SourceSized(t, 1, 612, 792)))
	if err != nil {
		t.Fatalf("ProbeReader: %v", err)
	}
	p := info.Pages[0]
	if math.Abs(p.W-612) > 0.5 || math.Abs(p.H-792) > 0.5 {
		t.Errorf("page is %.2fx%.2f, want 612x792", p.W, p.H)
	}
}

// The fixtures keep /MediaBox on the page tree root only, so reading the
// rotation of a leaf also proves attribute inheritance works.
func TestProbeReaderRotated(t *testing.T) {
	for _, rotation := range []int{90, 180, 270} {
		t.Run(fmt.Sprintf("rotate%d", rotation), func(t *testing.T) {
			data := pdftest.Rotated(t, pdftest.Source(t, 2), rotation)
			info, err := source.ProbeReader(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("ProbeReader: %v", err)
			}
			for i, p := range info.Pages {
				if p.Rotation != rotation {
					t.Errorf("page %d rotation = %d, want %d", i+1, p.Rotation, rotation)
				}
				if math.Abs(p.W-a4W) > 0.5 || math.Abs(p.H-a4H) > 0.5 {
					t.Errorf("page %d is %.2fx%.2f, media box should be unrotated", i+1, p.W, p.H)
				}
			}
		})
	}
}

func TestProbeReaderRejectsJunk(t *testing.T) {
	for _, data := range [][]byte{
		[]byte("plain text, no PDF here"),
		{},
		[]byte("%PDF-1.4 truncated"),
	} {
		if _, err := source.ProbeReader(bytes.NewReader(data)); !errors.Is(err, source.ErrNotPDF) {
			t.Errorf("ProbeReader(%.20q): got %v, want ErrNotPDF", data, err)
		}
	}
}

func TestProbeFile(t *testing.T) {
	path := pdftest.WriteTemp(t, "lease.pdf", pdftest.Source(t, 1))
	info, err := source.Probe(path)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if info.Path != path {
		t.Errorf("Path = %q, want %q", info.Path, path)
	}
	if info.PageCount != 1 {
		t.Errorf("PageCount = %d", info.PageCount)
	}

	if _, err := source.Probe(filepath.Join(t.TempDir(), "absent.pdf")); err == nil {
		t.Error("Probe accepted a missing file")
	}
}

func TestDocumentCopiesPages(t *testing.T) {
	path := pdftest.WriteTemp(t, "lease.pdf", pdftest.Source(t, 2))
	info, err := source.Probe(path)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	doc := info.Document()
	if doc.Path != path || doc.PageCount != 2 || len(doc.Pages) != 2 {
		t.Fatalf("Document = %+v", doc)
	}
	doc.Pages[0].W = 1
	if info.Pages[0].W == 1 {
		t.Error("Document shares page storage with Info")
	}
}

func TestCheck(t *testing.T) {
	info, err := source.ProbeReader(bytes.NewReader(pdftest.Source(t, 2)))
	if err != nil {
		t.Fatalf("ProbeReader: %v", err)
	}
	good := info.Document()
	good.Path = "lease.pdf"
	if err := info.Check(good); err != nil {
		t.Errorf("Check of matching record: %v", err)
	}

	withinTolerance := info.Document()
	withinTolerance.Pages[0].W += 0.2
	if err := info.Check(withinTolerance); err != nil {
		t.Errorf("Check rejected a 0.2pt difference: %v", err)
	}

	wrongCount := info.Document()
	wrongCount.PageCount = 3
	if err := info.Check(wrongCount); !errors.Is(err, source.ErrMismatch) {
		t.Errorf("page count mismatch: got %v, want ErrMismatch", err)
	}

	wrongSize := info.Document()
	wrongSize.Pages[1].H -= 2
	if err := info.Check(wrongSize); !errors.Is(err, source.ErrMismatch) {
		t.Errorf("size mismatch: got %v, want ErrMismatch", err)
	}

	wrongRotation := info.Document()
	wrongRotation.Pages[0].Rotation = 90
	if err := info.Check(wrongRotation); !errors.Is(err, source.ErrMismatch) {
		t.Errorf("rotation mismatch: got %v, want ErrMismatch", err)
	}
}
