package annotation

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/osfs"
	"github.com/go-git/go-billy/v6/util"

	"github.com/lewtec/rabisco/internal/domain"
	"github.com/lewtec/rabisco/internal/render"
)

// ExportOptions tunes page exports
type ExportOptions struct {
	// Scale is the raster resolution relative to page units
	Scale       float64
	JPEGQuality int
}

// Artifact is one exported page
type Artifact struct {
	Name   string
	Format render.Format
	Data   []byte
}

// ExportName builds the download name of a page, {base}_page{N}.{ext}
func ExportName(documentName string, page int, format render.Format) string {
	base := strings.TrimSuffix(filepath.Base(documentName), filepath.Ext(documentName))
	if base == "" || base == "." || base == "/" {
		base = "document"
	}
	return fmt.Sprintf("%s_page%d.%s", base, page, format.Ext())
}

// ExportPage renders page of doc, paints anns over it and encodes the result
func ExportPage(ctx context.Context, doc *LoadedDocument, page int, anns []domain.Annotation, format render.Format, opts ExportOptions) (*Artifact, error) {
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	base, err := doc.Source.Render(ctx, page, scale)
	if err != nil {
		return nil, fmt.Errorf("while rendering page %d: %w", page, err)
	}
	return ExportRaster(doc, page, base, scale, anns, format, opts)
}

// ExportRaster paints anns over base, a raster of page at scale, and encodes
// the result. The output has the size of base.
func ExportRaster(doc *LoadedDocument, page int, base image.Image, scale float64, anns []domain.Annotation, format render.Format, opts ExportOptions) (*Artifact, error) {
	w, h, err := doc.Source.PageSize(page)
	if err != nil {
		return nil, fmt.Errorf("while measuring page %d: %w", page, err)
	}
	img := render.Composite(base, anns, scale)

	var buf bytes.Buffer
	err = render.Encode(&buf, img, format, render.EncodeOptions{
		JPEGQuality: opts.JPEGQuality,
		PageWidth:   w,
		PageHeight:  h,
	})
	if err != nil {
		return nil, err
	}
	return &Artifact{Name: ExportName(doc.Name, page, format), Format: format, Data: buf.Bytes()}, nil
}

// Exporter keeps a copy of every exported artifact in a directory
type Exporter struct {
	fs billy.Filesystem
}

// NewExporter writes into fs
func NewExporter(fs billy.Filesystem) *Exporter {
	return &Exporter{fs: fs}
}

// NewDirExporter writes into the directory dir, creating it when needed
func NewDirExporter(dir string) (*Exporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("while creating export directory '%s': %w", dir, err)
	}
	return NewExporter(osfs.New(dir)), nil
}

// Write stores a under its name, replacing an older export of the same page
func (e *Exporter) Write(a *Artifact) (string, error) {
	if err := util.WriteFile(e.fs, a.Name, a.Data, 0o644); err != nil {
		return "", fmt.Errorf("while writing '%s': %w", a.Name, err)
	}
	path := e.fs.Join(e.fs.Root(), a.Name)
	log.Printf("export: wrote %s (%d bytes)", path, len(a.Data))
	return path, nil
}
