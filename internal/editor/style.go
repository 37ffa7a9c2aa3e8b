package editor

import "fmt"

// Tool is the active creation or selection tool
type Tool string

const (
	ToolSelect    Tool = "select"
	ToolText      Tool = "text"
	ToolRectangle Tool = "rectangle"
	ToolCircle    Tool = "circle"
	ToolLine      Tool = "line"
	ToolArrow     Tool = "arrow"
	ToolCheckmark Tool = "checkmark"
	ToolDraw      Tool = "draw"
	ToolHighlight Tool = "highlight"
)

// Tools lists every tool in toolbar order
var Tools = []Tool{ToolSelect, ToolText, ToolRectangle, ToolCircle, ToolLine, ToolArrow, ToolCheckmark, ToolDraw, ToolHighlight}

// ParseTool validates a tool name
func ParseTool(s string) (Tool, error) {
	for _, t := range Tools {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tool %q", s)
}

// Style holds the defaults applied to newly created annotations
type Style struct {
	Color       string  `yaml:"color" json:"color"`
	StrokeWidth float64 `yaml:"stroke_width" json:"strokeWidth"`
	Fill        string  `yaml:"fill" json:"fill"`

	FontFamily string  `yaml:"font_family" json:"fontFamily"`
	FontSize   float64 `yaml:"font_size" json:"fontSize"`
	Bold       bool    `yaml:"bold" json:"bold"`
	Italic     bool    `yaml:"italic" json:"italic"`
	Underline  bool    `yaml:"underline" json:"underline"`

	CheckmarkSize float64 `yaml:"checkmark_size" json:"checkmarkSize"`

	HighlightColor   string  `yaml:"highlight_color" json:"highlightColor"`
	HighlightWidth   float64 `yaml:"highlight_width" json:"highlightWidth"`
	HighlightOpacity float64 `yaml:"highlight_opacity" json:"highlightOpacity"`
}

// DefaultStyle returns the style a fresh editor starts with
func DefaultStyle() Style {
	return Style{
		Color:            "#ff0000",
		StrokeWidth:      2,
		Fill:             "transparent",
		FontFamily:       "Helvetica",
		FontSize:         16,
		CheckmarkSize:    24,
		HighlightColor:   "#ffff00",
		HighlightWidth:   20,
		HighlightOpacity: 0.4,
	}
}

// WithDefaults fills zero fields of s from DefaultStyle
func (s Style) WithDefaults() Style {
	d := DefaultStyle()
	if s.Color == "" {
		s.Color = d.Color
	}
	if s.StrokeWidth <= 0 {
		s.StrokeWidth = d.StrokeWidth
	}
	if s.Fill == "" {
		s.Fill = d.Fill
	}
	if s.FontFamily == "" {
		s.FontFamily = d.FontFamily
	}
	if s.FontSize <= 0 {
		s.FontSize = d.FontSize
	}
	if s.CheckmarkSize <= 0 {
		s.CheckmarkSize = d.CheckmarkSize
	}
	if s.HighlightColor == "" {
		s.HighlightColor = d.HighlightColor
	}
	if s.HighlightWidth <= 0 {
		s.HighlightWidth = d.HighlightWidth
	}
	if s.HighlightOpacity <= 0 || s.HighlightOpacity > 1 {
		s.HighlightOpacity = d.HighlightOpacity
	}
	return s
}
