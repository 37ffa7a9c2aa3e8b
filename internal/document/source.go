// Package document turns uploaded files into paged sources that render a
// base raster per page, and tracks the page and zoom being viewed.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"time"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrNoPages           = errors.New("document has no pages")
	ErrRender            = errors.New("page render failed")
	ErrPageOutOfRange    = errors.New("page out of range")
)

// maxPixels bounds the size of a single rendered raster
const maxPixels = 64 << 20

// Source is a paged document. Page numbers are 1-based; the page size at
// scale 1 is the coordinate space annotations live in.
type Source interface {
	Name() string
	PageCount() int
	PageSize(page int) (width, height float64, err error)
	Render(ctx context.Context, page int, scale float64) (*image.RGBA, error)
	Close() error
}

// Options configures how PDF pages are rasterized
type Options struct {
	// Command is the argv of an external rasterizer writing a PNG to stdout.
	// {file}, {page} and {dpi} are substituted. Empty renders blank pages.
	Command []string
	Timeout time.Duration
}

// DefaultCommand renders a page with poppler's pdftoppm
var DefaultCommand = []string{"pdftoppm", "-png", "-r", "{dpi}", "-f", "{page}", "-l", "{page}", "-singlefile", "{file}"}

// IsPDF reports whether data starts with a PDF header
func IsPDF(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(head, []byte("%PDF-"))
}

// Open sniffs data and returns the matching source. Nothing is retained
// when an error is returned.
func Open(ctx context.Context, name string, data []byte, opts Options) (Source, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrUnsupportedFormat)
	}
	if IsPDF(data) {
		return openPDF(ctx, name, data, opts)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, err)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, ErrNoPages
	}
	return &imageSource{name: name, format: format, img: img}, nil
}

type imageSource struct {
	name   string
	format string
	img    image.Image
}

func (s *imageSource) Name() string {
	return s.name
}

func (s *imageSource) PageCount() int {
	return 1
}

func (s *imageSource) PageSize(page int) (float64, float64, error) {
	if page != 1 {
		return 0, 0, fmt.Errorf("%w: %d", ErrPageOutOfRange, page)
	}
	b := s.img.Bounds()
	return float64(b.Dx()), float64(b.Dy()), nil
}

func (s *imageSource) Render(ctx context.Context, page int, scale float64) (*image.RGBA, error) {
	if page != 1 {
		return nil, fmt.Errorf("%w: %w: %d", ErrRender, ErrPageOutOfRange, page)
	}
	w, h, _ := s.PageSize(1)
	return scaled(s.img, w, h, scale)
}

func (s *imageSource) Close() error {
	return nil
}

// rasterSize returns the pixel size of a w×h page at scale
func rasterSize(w, h, scale float64) (int, int, error) {
	pw := int(math.Round(w * scale))
	ph := int(math.Round(h * scale))
	if pw < 1 || ph < 1 {
		return 0, 0, fmt.Errorf("%w: empty raster at scale %g", ErrRender, scale)
	}
	if pw*ph > maxPixels {
		return 0, 0, fmt.Errorf("%w: raster of %dx%d is too large", ErrRender, pw, ph)
	}
	return pw, ph, nil
}

// scaled resamples img to the raster size of a w×h page at scale. Scale 1
// is a plain copy.
func scaled(img image.Image, w, h, scale float64) (*image.RGBA, error) {
	pw, ph, err := rasterSize(w, h, scale)
	if err != nil {
		return nil, err
	}
	dst := image.NewRGBA(image.Rect(0, 0, pw, ph))
	b := img.Bounds()
	if b.Dx() == pw && b.Dy() == ph {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst, nil
	}
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst, nil
}
