package render

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Format is an export artifact format
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts png, jpeg (or jpg) and pdf, case-insensitively
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "png", "":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// Ext returns the file extension used for f
func (f Format) Ext() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return string(f)
}

// ContentType returns the MIME type of f
func (f Format) ContentType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPDF:
		return "application/pdf"
	}
	return "image/png"
}

// EncodeOptions tunes Encode
type EncodeOptions struct {
	JPEGQuality int
	// PageWidth and PageHeight are the PDF page size in points. When zero
	// the raster size is used at 72 dpi.
	PageWidth  float64
	PageHeight float64
}

// Encode writes img to w in the requested format
func Encode(w io.Writer, img image.Image, f Format, opts EncodeOptions) error {
	switch f {
	case FormatPNG:
		return EncodePNG(w, img)
	case FormatJPEG:
		return EncodeJPEG(w, img, opts.JPEGQuality)
	case FormatPDF:
		return EncodePDF(w, img, opts.PageWidth, opts.PageHeight)
	}
	return fmt.Errorf("unsupported export format %q", f)
}

func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("while encoding png: %w", err)
	}
	return nil
}

// EncodeJPEG flattens transparency onto white before encoding
func EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	if err := jpeg.Encode(w, flatten(img), &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("while encoding jpeg: %w", err)
	}
	return nil
}

// EncodePDF wraps img into a single page PDF whose page is exactly the
// image, sized width×height points.
func EncodePDF(w io.Writer, img image.Image, width, height float64) error {
	b := img.Bounds()
	if width <= 0 || height <= 0 {
		width, height = float64(b.Dx()), float64(b.Dy())
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, flatten(img)); err != nil {
		return fmt.Errorf("while encoding page raster: %w", err)
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("page", opts, &buf)
	pdf.ImageOptions("page", 0, 0, width, height, false, opts, 0, "")
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("while writing pdf: %w", err)
	}
	return nil
}

func flatten(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Over)
	return out
}
