package domain

import (
	"context"
	"time"
)

// Kind tags the variant of an Annotation
type Kind string

const (
	KindText      Kind = "text"
	KindRectangle Kind = "rectangle"
	KindCircle    Kind = "circle"
	KindLine      Kind = "line"
	KindArrow     Kind = "arrow"
	KindCheckmark Kind = "checkmark"
	KindDraw      Kind = "freehand-draw"
	KindHighlight Kind = "highlight"
)

// Kinds lists every annotation kind in declaration order
var Kinds = []Kind{KindText, KindRectangle, KindCircle, KindLine, KindArrow, KindCheckmark, KindDraw, KindHighlight}

// Valid reports whether k is a known annotation kind
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// IsPath reports whether the kind is geometrically a list of points
func (k Kind) IsPath() bool {
	return k == KindDraw || k == KindHighlight
}

// Point is a position in page raster space
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by d
func (p Point) Add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y}
}

// Sub returns the vector from q to p
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Rect is an axis-aligned box with its origin at the top-left corner
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Center returns the geometric center of r
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Handle names a resize control point
type Handle string

const (
	HandleNW Handle = "nw"
	HandleNE Handle = "ne"
	HandleSW Handle = "sw"
	HandleSE Handle = "se"
	HandleE  Handle = "e"
)

// Annotation is one vector object drawn over a page. Kind selects which of
// the geometry and style fields are meaningful:
//
//   - text: X, Y (baseline anchor), Text, FontFamily, FontSize, Color, Bold, Italic, Underline
//   - rectangle: X, Y (top-left), Width, Height, Color, StrokeWidth, Fill
//   - circle: X, Y (center), Radius, Color, StrokeWidth, Fill
//   - line, arrow: X1, Y1, X2, Y2, Color, StrokeWidth
//   - checkmark: X, Y (anchor), Size, Color, StrokeWidth
//   - freehand-draw, highlight: Points, Color, StrokeWidth, Opacity (highlight only)
type Annotation struct {
	ID   string `json:"id"`
	Kind Kind   `json:"type"`

	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Radius float64 `json:"radius,omitempty"`
	Size   float64 `json:"size,omitempty"`
	X1     float64 `json:"x1,omitempty"`
	Y1     float64 `json:"y1,omitempty"`
	X2     float64 `json:"x2,omitempty"`
	Y2     float64 `json:"y2,omitempty"`
	Points []Point `json:"points,omitempty"`

	Text       string  `json:"text,omitempty"`
	FontFamily string  `json:"fontFamily,omitempty"`
	FontSize   float64 `json:"fontSize,omitempty"`
	Bold       bool    `json:"bold,omitempty"`
	Italic     bool    `json:"italic,omitempty"`
	Underline  bool    `json:"underline,omitempty"`

	Color       string  `json:"color,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	Fill        string  `json:"fill,omitempty"`
	Opacity     float64 `json:"opacity,omitempty"`
}

// Clone returns a deep copy of a
func (a Annotation) Clone() Annotation {
	c := a
	if a.Points != nil {
		c.Points = make([]Point, len(a.Points))
		copy(c.Points, a.Points)
	}
	return c
}

// HasFill reports whether the shape should be filled
func (a Annotation) HasFill() bool {
	return a.Fill != "" && a.Fill != "transparent" && a.Fill != "none"
}

// PageMap maps a 1-based page number to the annotations of that page in
// paint order. Later entries are painted on top.
type PageMap map[int][]Annotation

// Clone returns a deep copy of m
func (m PageMap) Clone() PageMap {
	c := make(PageMap, len(m))
	for page, anns := range m {
		cp := make([]Annotation, len(anns))
		for i, a := range anns {
			cp[i] = a.Clone()
		}
		c[page] = cp
	}
	return c
}

// Count returns the total number of annotations across every page
func (m PageMap) Count() int {
	n := 0
	for _, anns := range m {
		n += len(anns)
	}
	return n
}

// PageAnnotations is the persisted annotation list of one document page
type PageAnnotations struct {
	DocumentSHA256 string
	Page           int
	Annotations    []Annotation
	UpdatedAt      time.Time
}

// AnnotationRepository defines the storage operations for page annotations
type AnnotationRepository interface {
	// SavePage replaces the annotations stored for a document page
	SavePage(ctx context.Context, documentSHA256 string, page int, anns []Annotation) error

	// SaveAll replaces every stored page of a document with the given map
	SaveAll(ctx context.Context, documentSHA256 string, pages PageMap) error

	// Load retrieves every stored page of a document
	Load(ctx context.Context, documentSHA256 string) (PageMap, error)

	// GetPage retrieves one stored page, nil when nothing is stored
	GetPage(ctx context.Context, documentSHA256 string, page int) (*PageAnnotations, error)

	// CountByDocument returns the number of annotations stored for a document
	CountByDocument(ctx context.Context, documentSHA256 string) (int64, error)

	// CountByPage returns the number of annotations stored per page of a document
	CountByPage(ctx context.Context, documentSHA256 string) (map[int]int64, error)

	// DeleteForDocument removes every stored page of a document
	DeleteForDocument(ctx context.Context, documentSHA256 string) error
}
