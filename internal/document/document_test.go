package document

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/jung-kurt/gofpdf"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 5), G: uint8(y * 5), B: 0x80, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// pdfBytes builds a two page PDF, 200x100 and 300x150 points
func pdfBytes(t *testing.T) []byte {
	t.Helper()
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: 200, Ht: 100},
	})
	pdf.AddPage()
	pdf.AddPageFormat("P", gofpdf.SizeType{Wd: 300, Ht: 150})
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestOpen_Image(t *testing.T) {
	ctx := context.Background()
	src, err := Open(ctx, "photo.png", pngBytes(t, 40, 20), Options{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	if src.PageCount() != 1 {
		t.Errorf("PageCount() = %d, want 1", src.PageCount())
	}
	w, h, err := src.PageSize(1)
	if err != nil || w != 40 || h != 20 {
		t.Errorf("PageSize(1) = %v, %v, %v", w, h, err)
	}

	t.Run("scale 1 copies pixels", func(t *testing.T) {
		img, err := src.Render(ctx, 1, 1)
		if err != nil {
			t.Fatal(err)
		}
		if got := img.RGBAAt(3, 4); got != (color.RGBA{R: 15, G: 20, B: 0x80, A: 0xff}) {
			t.Errorf("pixel = %v", got)
		}
	})

	t.Run("zoomed raster", func(t *testing.T) {
		img, err := src.Render(ctx, 1, 2)
		if err != nil {
			t.Fatal(err)
		}
		if img.Bounds().Dx() != 80 || img.Bounds().Dy() != 40 {
			t.Errorf("Bounds() = %v, want 80x40", img.Bounds())
		}
	})

	t.Run("only one page", func(t *testing.T) {
		if _, err := src.Render(ctx, 2, 1); !errors.Is(err, ErrRender) {
			t.Errorf("Render(2) error = %v, want ErrRender", err)
		}
	})
}

func TestOpen_Unsupported(t *testing.T) {
	for name, data := range map[string][]byte{
		"empty":   nil,
		"garbage": []byte("this is not a document"),
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := Open(context.Background(), name, data, Options{}); !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("Open() error = %v, want ErrUnsupportedFormat", err)
			}
		})
	}
	t.Run("broken pdf", func(t *testing.T) {
		data := []byte("%PDF-1.4\nnot really\n")
		if _, err := Open(context.Background(), "x.pdf", data, Options{}); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("Open() error = %v, want ErrUnsupportedFormat", err)
		}
	})
}

func TestOpen_PDF(t *testing.T) {
	ctx := context.Background()
	src, err := Open(ctx, "doc.pdf", pdfBytes(t), Options{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	if src.PageCount() != 2 {
		t.Fatalf("PageCount() = %d, want 2", src.PageCount())
	}
	w, h, err := src.PageSize(2)
	if err != nil || w != 300 || h != 150 {
		t.Errorf("PageSize(2) = %v, %v, %v", w, h, err)
	}

	t.Run("blank raster without a command", func(t *testing.T) {
		img, err := src.Render(ctx, 1, 1.5)
		if err != nil {
			t.Fatal(err)
		}
		if img.Bounds().Dx() != 300 || img.Bounds().Dy() != 150 {
			t.Errorf("Bounds() = %v, want 300x150", img.Bounds())
		}
		if got := img.RGBAAt(10, 10); got != (color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}) {
			t.Errorf("pixel = %v, want white", got)
		}
	})

	t.Run("page out of range", func(t *testing.T) {
		if _, err := src.Render(ctx, 3, 1); !errors.Is(err, ErrPageOutOfRange) {
			t.Errorf("Render(3) error = %v", err)
		}
	})
}

func TestOpen_PDFCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("failing command", func(t *testing.T) {
		if _, err := exec.LookPath("false"); err != nil {
			t.Skip("false not available")
		}
		src, err := Open(ctx, "doc.pdf", pdfBytes(t), Options{Command: []string{"false", "{file}"}})
		if err != nil {
			t.Fatal(err)
		}
		defer src.Close()
		if _, err := src.Render(ctx, 1, 1); !errors.Is(err, ErrRender) {
			t.Errorf("Render() error = %v, want ErrRender", err)
		}
	})

	t.Run("output is aligned to page space", func(t *testing.T) {
		if _, err := exec.LookPath("cat"); err != nil {
			t.Skip("cat not available")
		}
		raster := filepath.Join(t.TempDir(), "page.png")
		if err := os.WriteFile(raster, pngBytes(t, 50, 25), 0o644); err != nil {
			t.Fatal(err)
		}
		src, err := Open(ctx, "doc.pdf", pdfBytes(t), Options{Command: []string{"cat", raster}})
		if err != nil {
			t.Fatal(err)
		}
		img, err := src.Render(ctx, 1, 1)
		if err != nil {
			t.Fatal(err)
		}
		if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 100 {
			t.Errorf("Bounds() = %v, want 200x100", img.Bounds())
		}

		file := src.(*pdfSource).file
		if err := src.Close(); err != nil {
			t.Fatal(err)
		}
		if _, err := os.Stat(file); !os.IsNotExist(err) {
			t.Errorf("temporary file %s survived Close()", file)
		}
	})
}

type fakeSource struct {
	pages int
	fail  bool
	calls int
}

func (f *fakeSource) Name() string   { return "fake" }
func (f *fakeSource) PageCount() int { return f.pages }
func (f *fakeSource) Close() error   { return nil }

func (f *fakeSource) PageSize(page int) (float64, float64, error) {
	return 100, 50, nil
}

func (f *fakeSource) Render(ctx context.Context, page int, scale float64) (*image.RGBA, error) {
	f.calls++
	if f.fail {
		return nil, ErrRender
	}
	return image.NewRGBA(image.Rect(0, 0, int(100*scale), int(50*scale))), nil
}

func TestHost_Bounds(t *testing.T) {
	h := NewHost(&fakeSource{pages: 3})

	if got := h.SetPage(0); got != 1 {
		t.Errorf("SetPage(0) = %d, want 1", got)
	}
	if got := h.SetPage(10); got != 3 {
		t.Errorf("SetPage(10) = %d, want 3", got)
	}
	if got := h.Next(); got != 3 {
		t.Errorf("Next() on last page = %d", got)
	}
	h.SetPage(1)
	if got := h.Prev(); got != 1 {
		t.Errorf("Prev() on first page = %d", got)
	}

	if got := h.SetZoom(10); got != MaxZoom {
		t.Errorf("SetZoom(10) = %v", got)
	}
	if got := h.SetZoom(0.1); got != MinZoom {
		t.Errorf("SetZoom(0.1) = %v", got)
	}
	h.SetZoom(1)
	if got := h.ZoomIn(); got != 1.25 {
		t.Errorf("ZoomIn() = %v, want 1.25", got)
	}
	if got := h.ZoomOut(); got != 1 {
		t.Errorf("ZoomOut() = %v, want 1", got)
	}
}

func TestHost_Render(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{pages: 2}
	h := NewHost(src)

	first, err := h.Render(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.Render(ctx); err != nil || src.calls != 1 {
		t.Errorf("second render of the same page should be cached, calls = %d", src.calls)
	}

	t.Run("failure keeps previous raster", func(t *testing.T) {
		src.fail = true
		h.Next()
		h.ZoomIn()
		got, err := h.Render(ctx)
		if !errors.Is(err, ErrRender) {
			t.Fatalf("Render() error = %v", err)
		}
		if got != first {
			t.Error("previous raster was not kept")
		}
		if h.Page() != 1 || h.Zoom() != 1 {
			t.Errorf("page, zoom = %d, %v; want 1, 1", h.Page(), h.Zoom())
		}
	})
}
