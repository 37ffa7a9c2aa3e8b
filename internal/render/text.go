package render

import (
	"image"
	"log"
	"math"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/lewtec/rabisco/internal/domain"
)

type faceKey struct {
	mono   bool
	bold   bool
	italic bool
}

var (
	fontsMu sync.Mutex
	fonts   = map[faceKey]*opentype.Font{}
)

func fontBytes(k faceKey) []byte {
	switch {
	case k.mono && k.bold && k.italic:
		return gomonobolditalic.TTF
	case k.mono && k.bold:
		return gomonobold.TTF
	case k.mono && k.italic:
		return gomonoitalic.TTF
	case k.mono:
		return gomono.TTF
	case k.bold && k.italic:
		return gobolditalic.TTF
	case k.bold:
		return gobold.TTF
	case k.italic:
		return goitalic.TTF
	}
	return goregular.TTF
}

// isMonospace maps the editor's font family names onto the two Go font
// families that are embedded.
func isMonospace(family string) bool {
	f := strings.ToLower(family)
	return strings.Contains(f, "courier") || strings.Contains(f, "mono")
}

// faceFor returns a new face for one drawing pass. Faces are not safe for
// concurrent use, the parsed fonts behind them are cached. It falls back to
// the fixed 7x13 face when the embedded fonts cannot be parsed.
func faceFor(family string, bold, italic bool, size float64) font.Face {
	style := faceKey{mono: isMonospace(family), bold: bold, italic: italic}
	fontsMu.Lock()
	ft, ok := fonts[style]
	if !ok {
		var err error
		ft, err = opentype.Parse(fontBytes(style))
		if err != nil {
			fontsMu.Unlock()
			log.Printf("render: while parsing font: %s", err)
			return basicfont.Face7x13
		}
		fonts[style] = ft
	}
	fontsMu.Unlock()

	face, err := opentype.NewFace(ft, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		log.Printf("render: while creating font face: %s", err)
		return basicfont.Face7x13
	}
	return face
}

func drawText(dst *image.RGBA, p *painter, a domain.Annotation) {
	if a.Text == "" || a.FontSize <= 0 {
		return
	}
	scale := p.scale
	size := a.FontSize * scale
	col := colorOf(a.Color, a.Opacity)
	face := faceFor(a.FontFamily, a.Bold, a.Italic, size)
	defer face.Close()

	d := &font.Drawer{Dst: dst, Src: image.NewUniform(col), Face: face}
	for i, line := range strings.Split(a.Text, "\n") {
		baseline := a.Y + float64(i)*a.FontSize*1.2
		d.Dot = fixed.Point26_6{
			X: fixed.Int26_6(math.Round(a.X * scale * 64)),
			Y: fixed.Int26_6(math.Round(baseline * scale * 64)),
		}
		d.DrawString(line)

		if a.Underline && line != "" {
			width := float64(d.MeasureString(line)) / 64 / scale
			thickness := math.Max(a.FontSize/15, 1/scale)
			p.fill(rectPoints(domain.Rect{X: a.X, Y: baseline + a.FontSize*0.12, W: width, H: thickness}))
		}
	}
	if a.Underline {
		p.paint(col)
	}
}
