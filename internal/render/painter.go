package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"

	"github.com/lewtec/rabisco/internal/domain"
)

// painter accumulates polygons in page coordinates into a rasterizer and
// paints the union in one colour. Every polygon is added with the same
// winding so overlapping pieces of a stroke never cancel out.
type painter struct {
	dst   *image.RGBA
	z     *vector.Rasterizer
	scale float64
}

func newPainter(dst *image.RGBA, scale float64) *painter {
	b := dst.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.DrawOp = draw.Over
	return &painter{dst: dst, z: z, scale: scale}
}

// paint draws everything added since the last paint and resets the rasterizer
func (p *painter) paint(c color.Color) {
	b := p.dst.Bounds()
	p.z.Draw(p.dst, b, image.NewUniform(c), image.Point{})
	p.z.Reset(b.Dx(), b.Dy())
	p.z.DrawOp = draw.Over
}

func (p *painter) polygon(pts []domain.Point, clockwise bool) {
	if len(pts) < 3 {
		return
	}
	if (signedArea(pts) > 0) != clockwise {
		pts = reversed(pts)
	}
	min := p.dst.Bounds().Min
	ox, oy := float64(min.X), float64(min.Y)
	p.z.MoveTo(float32(pts[0].X*p.scale-ox), float32(pts[0].Y*p.scale-oy))
	for _, q := range pts[1:] {
		p.z.LineTo(float32(q.X*p.scale-ox), float32(q.Y*p.scale-oy))
	}
	p.z.ClosePath()
}

func (p *painter) fill(pts []domain.Point) {
	p.polygon(pts, true)
}

func (p *painter) disc(c domain.Point, r float64) {
	p.fill(circlePoints(c, r, p.segments(r)))
}

// ring adds an annulus of the given stroke width centred on radius r
func (p *painter) ring(c domain.Point, r, width float64) {
	outer := r + width/2
	inner := r - width/2
	n := p.segments(outer)
	p.polygon(circlePoints(c, outer, n), true)
	if inner > 0 {
		p.polygon(circlePoints(c, inner, n), false)
	}
}

// frame adds the outline of rect r drawn with the given stroke width
func (p *painter) frame(r domain.Rect, width float64) {
	h := width / 2
	p.polygon(rectPoints(domain.Rect{X: r.X - h, Y: r.Y - h, W: r.W + width, H: r.H + width}), true)
	if r.W > width && r.H > width {
		p.polygon(rectPoints(domain.Rect{X: r.X + h, Y: r.Y + h, W: r.W - width, H: r.H - width}), false)
	}
}

// polyline adds a stroke through pts with round joins and caps
func (p *painter) polyline(pts []domain.Point, width float64) {
	if len(pts) == 0 || width <= 0 {
		return
	}
	h := width / 2
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		dx, dy := b.X-a.X, b.Y-a.Y
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*h, dx/l*h
		p.fill([]domain.Point{
			{X: a.X + nx, Y: a.Y + ny},
			{X: b.X + nx, Y: b.Y + ny},
			{X: b.X - nx, Y: b.Y - ny},
			{X: a.X - nx, Y: a.Y - ny},
		})
	}
	for _, q := range pts {
		p.disc(q, h)
	}
}

// segments picks a polygon resolution for a circle of radius r
func (p *painter) segments(r float64) int {
	n := int(math.Pi * r * p.scale)
	if n < 16 {
		return 16
	}
	if n > 360 {
		return 360
	}
	return n
}

func circlePoints(c domain.Point, r float64, n int) []domain.Point {
	pts := make([]domain.Point, n)
	for i := range pts {
		t := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = domain.Point{X: c.X + r*math.Cos(t), Y: c.Y + r*math.Sin(t)}
	}
	return pts
}

func rectPoints(r domain.Rect) []domain.Point {
	return []domain.Point{
		{X: r.X, Y: r.Y},
		{X: r.X + r.W, Y: r.Y},
		{X: r.X + r.W, Y: r.Y + r.H},
		{X: r.X, Y: r.Y + r.H},
	}
}

func signedArea(pts []domain.Point) float64 {
	var sum float64
	for i, a := range pts {
		b := pts[(i+1)%len(pts)]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum / 2
}

func reversed(pts []domain.Point) []domain.Point {
	out := make([]domain.Point, len(pts))
	for i, q := range pts {
		out[len(pts)-1-i] = q
	}
	return out
}
