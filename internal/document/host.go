package document

import (
	"context"
	"image"
	"math"
)

const (
	MinZoom  = 0.5
	MaxZoom  = 3.0
	ZoomStep = 0.25
)

// Host tracks the page and zoom being viewed over a Source and keeps the
// last successfully rendered base raster.
type Host struct {
	src  Source
	page int
	zoom float64

	base     *image.RGBA
	basePage int
	baseZoom float64
}

// NewHost starts on page 1 at zoom 1
func NewHost(src Source) *Host {
	return &Host{src: src, page: 1, zoom: 1}
}

func (h *Host) Source() Source {
	return h.src
}

func (h *Host) Page() int {
	return h.page
}

func (h *Host) PageCount() int {
	return h.src.PageCount()
}

func (h *Host) Zoom() float64 {
	return h.zoom
}

// SetPage moves to page n clamped to 1..PageCount and returns the result
func (h *Host) SetPage(n int) int {
	if n < 1 {
		n = 1
	}
	if count := h.src.PageCount(); n > count {
		n = count
	}
	h.page = n
	return n
}

// SetZoom changes the zoom clamped to MinZoom..MaxZoom and returns the result
func (h *Host) SetZoom(z float64) float64 {
	if math.IsNaN(z) {
		return h.zoom
	}
	h.zoom = math.Min(math.Max(z, MinZoom), MaxZoom)
	return h.zoom
}

func (h *Host) Next() int {
	return h.SetPage(h.page + 1)
}

func (h *Host) Prev() int {
	return h.SetPage(h.page - 1)
}

func (h *Host) ZoomIn() float64 {
	return h.SetZoom(h.zoom + ZoomStep)
}

func (h *Host) ZoomOut() float64 {
	return h.SetZoom(h.zoom - ZoomStep)
}

// PageSize returns the current page size in page coordinates
func (h *Host) PageSize() (float64, float64, error) {
	return h.src.PageSize(h.page)
}

// Base returns the last rendered raster, nil before the first render
func (h *Host) Base() *image.RGBA {
	return h.base
}

// Stale reports whether the base raster does not match the current page
// and zoom.
func (h *Host) Stale() bool {
	return h.base == nil || h.basePage != h.page || h.baseZoom != h.zoom
}

// Render rasterizes the current page at the current zoom when the base is
// stale. On failure the previous raster stays and page and zoom go back to
// the values it was rendered with.
func (h *Host) Render(ctx context.Context) (*image.RGBA, error) {
	if !h.Stale() {
		return h.base, nil
	}
	img, err := h.src.Render(ctx, h.page, h.zoom)
	if err != nil {
		if h.base != nil {
			h.page, h.zoom = h.basePage, h.baseZoom
		}
		return h.base, err
	}
	h.base, h.basePage, h.baseZoom = img, h.page, h.zoom
	return img, nil
}
