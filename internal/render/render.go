// Package render rasterizes annotations onto page-sized RGBA surfaces: the
// live overlay shown while editing and the composited export image.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/lewtec/rabisco/internal/domain"
	"github.com/lewtec/rabisco/internal/geometry"
)

var (
	selectionColor = color.NRGBA{R: 0x00, G: 0x66, B: 0xff, A: 0xff}
	handleFill     = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

const (
	selectionDash  = 6.0
	selectionGap   = 4.0
	handleDrawSize = 8.0
)

// Scene is everything the overlay depends on. Annotations are in page
// coordinates; Scale maps them onto the surface.
type Scene struct {
	Annotations []domain.Annotation
	SelectedID  string
	EditingID   string
	Preview     *domain.Annotation
	Scale       float64
}

// NewSurface allocates a transparent surface for a page of the given
// size in pixels.
func NewSurface(w, h int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

// DrawOverlay clears dst and paints the scene in paint order. The annotation
// being text-edited is skipped; the selected one gets a dashed outline and
// its resize handles.
func DrawOverlay(dst *image.RGBA, scene Scene) {
	draw.Draw(dst, dst.Bounds(), image.Transparent, image.Point{}, draw.Src)
	scale := scaleOf(scene.Scale)
	p := newPainter(dst, scale)

	var selected *domain.Annotation
	for i := range scene.Annotations {
		a := scene.Annotations[i]
		if scene.EditingID != "" && a.ID == scene.EditingID {
			continue
		}
		drawAnnotation(dst, p, a)
		if scene.SelectedID != "" && a.ID == scene.SelectedID {
			selected = &scene.Annotations[i]
		}
	}
	if scene.Preview != nil {
		drawAnnotation(dst, p, *scene.Preview)
	}
	if selected != nil {
		drawSelection(p, *selected)
	}
}

// Composite copies base onto a new surface of the same size and paints every
// annotation over it. Nothing is skipped and no selection is drawn.
func Composite(base image.Image, anns []domain.Annotation, scale float64) *image.RGBA {
	b := base.Bounds()
	dst := NewSurface(b.Dx(), b.Dy())
	draw.Draw(dst, dst.Bounds(), base, b.Min, draw.Src)
	p := newPainter(dst, scaleOf(scale))
	for _, a := range anns {
		drawAnnotation(dst, p, a)
	}
	return dst
}

func drawAnnotation(dst *image.RGBA, p *painter, a domain.Annotation) {
	col := colorOf(a.Color, a.Opacity)
	stroke := a.StrokeWidth
	if stroke <= 0 {
		stroke = 1
	}

	switch a.Kind {
	case domain.KindText:
		drawText(dst, p, a)
	case domain.KindRectangle:
		r := domain.Rect{X: math.Min(a.X, a.X+a.Width), Y: math.Min(a.Y, a.Y+a.Height), W: math.Abs(a.Width), H: math.Abs(a.Height)}
		if a.HasFill() {
			p.fill(rectPoints(r))
			p.paint(colorOf(a.Fill, a.Opacity))
		}
		p.frame(r, stroke)
		p.paint(col)
	case domain.KindCircle:
		c := domain.Point{X: a.X, Y: a.Y}
		if a.HasFill() && a.Radius > 0 {
			p.disc(c, a.Radius)
			p.paint(colorOf(a.Fill, a.Opacity))
		}
		p.ring(c, a.Radius, stroke)
		p.paint(col)
	case domain.KindLine:
		p.polyline([]domain.Point{{X: a.X1, Y: a.Y1}, {X: a.X2, Y: a.Y2}}, stroke)
		p.paint(col)
	case domain.KindArrow:
		from := domain.Point{X: a.X1, Y: a.Y1}
		to := domain.Point{X: a.X2, Y: a.Y2}
		p.polyline([]domain.Point{from, to}, stroke)
		if head := ArrowHead(from, to, stroke); head != nil {
			p.fill(head)
		}
		p.paint(col)
	case domain.KindCheckmark:
		p.polyline(CheckmarkPath(a), math.Max(stroke, a.Size/10))
		p.paint(col)
	case domain.KindDraw, domain.KindHighlight:
		p.polyline(a.Points, stroke)
		p.paint(col)
	}
}

// ArrowHead returns the triangle drawn at the tip of an arrow from -> to.
// Its sides leave the tip at ±π/6 from the shaft with a length of
// max(10, 3×stroke). A zero-length arrow has no head.
func ArrowHead(from, to domain.Point, stroke float64) []domain.Point {
	dx, dy := to.X-from.X, to.Y-from.Y
	if dx == 0 && dy == 0 {
		return nil
	}
	angle := math.Atan2(dy, dx)
	l := math.Max(10, 3*stroke)
	return []domain.Point{
		to,
		{X: to.X - l*math.Cos(angle-math.Pi/6), Y: to.Y - l*math.Sin(angle-math.Pi/6)},
		{X: to.X - l*math.Cos(angle+math.Pi/6), Y: to.Y - l*math.Sin(angle+math.Pi/6)},
	}
}

// CheckmarkPath returns the two-segment tick inside the checkmark's box
func CheckmarkPath(a domain.Annotation) []domain.Point {
	s := a.Size
	return []domain.Point{
		{X: a.X + 0.15*s, Y: a.Y + 0.55*s},
		{X: a.X + 0.4*s, Y: a.Y + 0.8*s},
		{X: a.X + 0.85*s, Y: a.Y + 0.2*s},
	}
}

func drawSelection(p *painter, a domain.Annotation) {
	b, ok := geometry.Bounds(a)
	if !ok {
		return
	}
	// outline and handles keep a constant on-screen size
	px := 1 / p.scale
	dash, gap := selectionDash*px, selectionGap*px
	corners := append(rectPoints(b), rectPoints(b)[0])
	for i := 1; i < len(corners); i++ {
		dashed(p, corners[i-1], corners[i], dash, gap, px)
	}
	p.paint(selectionColor)

	hs := geometry.Handles(a)
	half := handleDrawSize / 2 * px
	for _, h := range hs {
		p.fill(rectPoints(domain.Rect{X: h.X - half, Y: h.Y - half, W: 2 * half, H: 2 * half}))
	}
	p.paint(handleFill)
	for _, h := range hs {
		p.frame(domain.Rect{X: h.X - half, Y: h.Y - half, W: 2 * half, H: 2 * half}, px)
	}
	p.paint(selectionColor)
}

func dashed(p *painter, from, to domain.Point, dash, gap, width float64) {
	dx, dy := to.X-from.X, to.Y-from.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return
	}
	ux, uy := dx/l, dy/l
	for t := 0.0; t < l; t += dash + gap {
		end := math.Min(t+dash, l)
		a := domain.Point{X: from.X + ux*t, Y: from.Y + uy*t}
		b := domain.Point{X: from.X + ux*end, Y: from.Y + uy*end}
		h := width / 2
		p.fill([]domain.Point{
			{X: a.X - uy*h, Y: a.Y + ux*h},
			{X: b.X - uy*h, Y: b.Y + ux*h},
			{X: b.X + uy*h, Y: b.Y - ux*h},
			{X: a.X + uy*h, Y: a.Y - ux*h},
		})
	}
}

func scaleOf(s float64) float64 {
	if s <= 0 {
		return 1
	}
	return s
}
