package render

import (
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ParseColor reads a CSS-like colour: #rgb, #rrggbb, #rrggbbaa,
// "transparent" or an SVG colour name. The boolean is false when s is not
// understood.
func ParseColor(s string) (color.NRGBA, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "", s == "none", s == "transparent":
		return color.NRGBA{}, s != ""
	case strings.HasPrefix(s, "#"):
		return parseHex(s[1:])
	}
	if c, ok := colornames.Map[s]; ok {
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}, true
	}
	return color.NRGBA{}, false
}

func parseHex(h string) (color.NRGBA, bool) {
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return color.NRGBA{}, false
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, true
}

// colorOf resolves the paint colour of s with opacity applied. Unknown
// colours fall back to black so a bad value never hides an annotation.
func colorOf(s string, opacity float64) color.NRGBA {
	c, ok := ParseColor(s)
	if !ok {
		c = color.NRGBA{A: 0xff}
	}
	if opacity > 0 && opacity < 1 {
		c.A = uint8(float64(c.A)*opacity + 0.5)
	}
	return c
}
