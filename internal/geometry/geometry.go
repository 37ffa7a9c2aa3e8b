// Package geometry computes bounding boxes, hit regions and resize handles
// of annotations. Every function is pure.
package geometry

import (
	"github.com/golang/geo/r2"

	"github.com/lewtec/rabisco/internal/domain"
)

const (
	// Padding keeps thin shapes (lines, paths) selectable
	Padding = 10.0
	// HitTolerance is the margin added around bounds when hit-testing
	HitTolerance = 10.0
	// HandleHalfSize is the half-width of the square hit area of a handle
	HandleHalfSize = 18.0

	// GlyphWidthRatio estimates the average advance of a glyph relative to the font size
	GlyphWidthRatio = 0.6
	// LineHeightRatio derives the text box height from the font size
	LineHeightRatio = 1.2
	// MinTextWidth is the floor of the estimated text width
	MinTextWidth = 20.0
)

// cornerOrder is the fixed order in which corner handles are checked
var cornerOrder = []domain.Handle{domain.HandleNW, domain.HandleNE, domain.HandleSW, domain.HandleSE}

// HandlePoint is the center of one resize handle
type HandlePoint struct {
	Handle domain.Handle
	domain.Point
}

// Bounds returns the axis-aligned bounding box of a. It returns false for a
// path annotation without points or for an unknown kind.
func Bounds(a domain.Annotation) (domain.Rect, bool) {
	switch a.Kind {
	case domain.KindText:
		w := textWidth(a)
		h := a.FontSize * LineHeightRatio * float64(lineCount(a.Text))
		return domain.Rect{X: a.X, Y: a.Y - a.FontSize, W: w, H: h}, true
	case domain.KindRectangle:
		return fromR2(r2.RectFromPoints(
			r2.Point{X: a.X, Y: a.Y},
			r2.Point{X: a.X + a.Width, Y: a.Y + a.Height},
		)), true
	case domain.KindCircle:
		return domain.Rect{X: a.X - a.Radius, Y: a.Y - a.Radius, W: 2 * a.Radius, H: 2 * a.Radius}, true
	case domain.KindCheckmark:
		return domain.Rect{X: a.X, Y: a.Y, W: a.Size, H: a.Size}, true
	case domain.KindLine, domain.KindArrow:
		r := r2.RectFromPoints(r2.Point{X: a.X1, Y: a.Y1}, r2.Point{X: a.X2, Y: a.Y2})
		return fromR2(r.ExpandedByMargin(Padding)), true
	case domain.KindDraw, domain.KindHighlight:
		if len(a.Points) == 0 {
			return domain.Rect{}, false
		}
		pts := make([]r2.Point, len(a.Points))
		for i, p := range a.Points {
			pts[i] = r2.Point{X: p.X, Y: p.Y}
		}
		return fromR2(r2.RectFromPoints(pts...).ExpandedByMargin(Padding)), true
	}
	return domain.Rect{}, false
}

// HitTest reports whether (x, y) falls inside the bounds of a expanded by
// HitTolerance.
func HitTest(x, y float64, a domain.Annotation) bool {
	b, ok := Bounds(a)
	if !ok {
		return false
	}
	return toR2(b).ExpandedByMargin(HitTolerance).ContainsPoint(r2.Point{X: x, Y: y})
}

// Handles returns the resize handles of a. Text has a single east handle;
// lines, arrows and paths have none.
func Handles(a domain.Annotation) []HandlePoint {
	b, ok := Bounds(a)
	if !ok {
		return nil
	}
	switch a.Kind {
	case domain.KindText:
		return []HandlePoint{{Handle: domain.HandleE, Point: domain.Point{X: b.X + b.W, Y: b.Y + b.H/2}}}
	case domain.KindRectangle, domain.KindCircle, domain.KindCheckmark:
		hs := make([]HandlePoint, 0, len(cornerOrder))
		for _, h := range cornerOrder {
			hs = append(hs, HandlePoint{Handle: h, Point: corner(b, h)})
		}
		return hs
	}
	return nil
}

// ResizeHandleAt returns the first handle of a whose square hit area
// contains (x, y).
func ResizeHandleAt(x, y float64, a domain.Annotation) (domain.Handle, bool) {
	for _, h := range Handles(a) {
		area := r2.RectFromCenterSize(
			r2.Point{X: h.X, Y: h.Y},
			r2.Point{X: 2 * HandleHalfSize, Y: 2 * HandleHalfSize},
		)
		if area.ContainsPoint(r2.Point{X: x, Y: y}) {
			return h.Handle, true
		}
	}
	return "", false
}

// TopmostAt returns the index of the last annotation in paint order that is
// hit at (x, y), or -1.
func TopmostAt(x, y float64, anns []domain.Annotation) int {
	for i := len(anns) - 1; i >= 0; i-- {
		if HitTest(x, y, anns[i]) {
			return i
		}
	}
	return -1
}

func corner(b domain.Rect, h domain.Handle) domain.Point {
	switch h {
	case domain.HandleNW:
		return domain.Point{X: b.X, Y: b.Y}
	case domain.HandleNE:
		return domain.Point{X: b.X + b.W, Y: b.Y}
	case domain.HandleSW:
		return domain.Point{X: b.X, Y: b.Y + b.H}
	default:
		return domain.Point{X: b.X + b.W, Y: b.Y + b.H}
	}
}

func textWidth(a domain.Annotation) float64 {
	longest := 0
	line := 0
	for _, r := range a.Text {
		if r == '\n' {
			line = 0
			continue
		}
		line++
		if line > longest {
			longest = line
		}
	}
	w := float64(longest) * a.FontSize * GlyphWidthRatio
	if w < MinTextWidth {
		return MinTextWidth
	}
	return w
}

func lineCount(s string) int {
	n := 1
	for _, r := range s {
		if r == '\n' {
			n++
		}
	}
	return n
}

func toR2(r domain.Rect) r2.Rect {
	return r2.RectFromPoints(r2.Point{X: r.X, Y: r.Y}, r2.Point{X: r.X + r.W, Y: r.Y + r.H})
}

func fromR2(r r2.Rect) domain.Rect {
	lo := r.Lo()
	size := r.Size()
	return domain.Rect{X: lo.X, Y: lo.Y, W: size.X, H: size.Y}
}
