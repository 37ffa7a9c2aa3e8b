package editor

import (
	"math"

	"github.com/lewtec/rabisco/internal/domain"
)

// Mode is the kind of pointer gesture in progress
type Mode string

const (
	ModeIdle     Mode = "idle"
	ModeDragging Mode = "dragging"
	ModeResizing Mode = "resizing"
	ModeCreating Mode = "creating"
)

// Gesture is the in-progress pointer interaction. Drag and resize always
// recompute the annotation from Snapshot, never incrementally.
type Gesture struct {
	Mode     Mode
	ID       string
	Handle   domain.Handle
	Tool     Tool
	Start    domain.Point
	Snapshot domain.Annotation
	Points   []domain.Point
}

const (
	// MinCreateDistance is the shortest drag that produces a shape
	MinCreateDistance = 2.0
	// MinRectSide is the smallest width or height a rectangle resize produces
	MinRectSide = 20.0
	// MinCircleRadius is the smallest radius a circle resize produces
	MinCircleRadius = 10.0
	// MinCheckmarkSize is the smallest size a checkmark resize produces
	MinCheckmarkSize = 20.0
	// MinFontSize and MaxFontSize bound text resizing
	MinFontSize = 12.0
	MaxFontSize = 72.0

	resizeFactor = 0.5
)

// Dragged returns snapshot translated by delta
func Dragged(snapshot domain.Annotation, delta domain.Point) domain.Annotation {
	a := snapshot.Clone()
	switch a.Kind {
	case domain.KindLine, domain.KindArrow:
		a.X1 += delta.X
		a.Y1 += delta.Y
		a.X2 += delta.X
		a.Y2 += delta.Y
	case domain.KindDraw, domain.KindHighlight:
		for i := range a.Points {
			a.Points[i] = a.Points[i].Add(delta)
		}
	default:
		a.X += delta.X
		a.Y += delta.Y
	}
	return a
}

// Resized returns snapshot after moving handle by delta. Kinds without
// resize handles are returned unchanged.
func Resized(snapshot domain.Annotation, handle domain.Handle, delta domain.Point) domain.Annotation {
	a := snapshot.Clone()
	switch a.Kind {
	case domain.KindText:
		if handle == domain.HandleE {
			a.FontSize = clamp(snapshot.FontSize+delta.X*resizeFactor, MinFontSize, MaxFontSize)
		}
	case domain.KindRectangle:
		resizeRect(&a, handle, delta)
	case domain.KindCircle:
		a.Radius = math.Max(snapshot.Radius+(delta.X+delta.Y)*resizeFactor, MinCircleRadius)
	case domain.KindCheckmark:
		a.Size = math.Max(snapshot.Size+(delta.X+delta.Y)*resizeFactor, MinCheckmarkSize)
	}
	return a
}

// resizeRect moves the edges touched by handle. When the floor kicks in the
// opposite edge stays where it was.
func resizeRect(a *domain.Annotation, handle domain.Handle, delta domain.Point) {
	switch handle {
	case domain.HandleNW, domain.HandleSW:
		right := a.X + a.Width
		a.Width = math.Max(a.Width-delta.X, MinRectSide)
		a.X = right - a.Width
	case domain.HandleNE, domain.HandleSE:
		a.Width = math.Max(a.Width+delta.X, MinRectSide)
	default:
		return
	}
	switch handle {
	case domain.HandleNW, domain.HandleNE:
		bottom := a.Y + a.Height
		a.Height = math.Max(a.Height-delta.Y, MinRectSide)
		a.Y = bottom - a.Height
	default:
		a.Height = math.Max(a.Height+delta.Y, MinRectSide)
	}
}

// Created builds the annotation a creation gesture of tool over points
// produces. The boolean is false when the gesture is too small to keep; the
// annotation is still returned so it can be previewed.
func Created(tool Tool, points []domain.Point, style Style) (domain.Annotation, bool) {
	if len(points) == 0 {
		return domain.Annotation{}, false
	}
	start := points[0]
	end := points[len(points)-1]
	long := distance(start, end) >= MinCreateDistance

	switch tool {
	case ToolText:
		return domain.Annotation{
			Kind:       domain.KindText,
			X:          start.X,
			Y:          start.Y,
			FontFamily: style.FontFamily,
			FontSize:   style.FontSize,
			Bold:       style.Bold,
			Italic:     style.Italic,
			Underline:  style.Underline,
			Color:      style.Color,
		}, true
	case ToolCheckmark:
		return domain.Annotation{
			Kind:        domain.KindCheckmark,
			X:           start.X - style.CheckmarkSize/2,
			Y:           start.Y - style.CheckmarkSize/2,
			Size:        style.CheckmarkSize,
			Color:       style.Color,
			StrokeWidth: style.StrokeWidth,
		}, true
	case ToolRectangle:
		return domain.Annotation{
			Kind:        domain.KindRectangle,
			X:           math.Min(start.X, end.X),
			Y:           math.Min(start.Y, end.Y),
			Width:       math.Abs(end.X - start.X),
			Height:      math.Abs(end.Y - start.Y),
			Color:       style.Color,
			StrokeWidth: style.StrokeWidth,
			Fill:        style.Fill,
		}, long
	case ToolCircle:
		return domain.Annotation{
			Kind:        domain.KindCircle,
			X:           start.X,
			Y:           start.Y,
			Radius:      distance(start, end),
			Color:       style.Color,
			StrokeWidth: style.StrokeWidth,
			Fill:        style.Fill,
		}, long
	case ToolLine, ToolArrow:
		kind := domain.KindLine
		if tool == ToolArrow {
			kind = domain.KindArrow
		}
		return domain.Annotation{
			Kind:        kind,
			X1:          start.X,
			Y1:          start.Y,
			X2:          end.X,
			Y2:          end.Y,
			Color:       style.Color,
			StrokeWidth: style.StrokeWidth,
		}, long
	case ToolDraw:
		return domain.Annotation{
			Kind:        domain.KindDraw,
			Points:      clonePoints(points),
			Color:       style.Color,
			StrokeWidth: style.StrokeWidth,
		}, len(points) >= 2
	case ToolHighlight:
		return domain.Annotation{
			Kind:        domain.KindHighlight,
			Points:      clonePoints(points),
			Color:       style.HighlightColor,
			StrokeWidth: style.HighlightWidth,
			Opacity:     style.HighlightOpacity,
		}, len(points) >= 2
	}
	return domain.Annotation{}, false
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func distance(a, b domain.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

func clonePoints(pts []domain.Point) []domain.Point {
	out := make([]domain.Point, len(pts))
	copy(out, pts)
	return out
}
