package annotation

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os/exec"
	"testing"

	"github.com/jung-kurt/gofpdf"

	"github.com/lewtec/rabisco/internal/repository"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 0xf0, G: 0xf0, B: 0xf0, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// pdfBytes builds a PDF with the given number of 200x100 point pages
func pdfBytes(t *testing.T, pages int) []byte {
	t.Helper()
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: 200, Ht: 100},
	})
	for i := 0; i < pages; i++ {
		pdf.AddPage()
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func testConfig() *Config {
	config := DefaultConfig()
	config.Renderer.Disabled = true
	config.Export.Scale = 1
	return config
}

func newTestManager(t *testing.T) (*SessionManager, *repository.AnnotationRepository) {
	t.Helper()
	m, anns, _ := newTestManagerWithConfig(t, testConfig())
	return m, anns
}

func newTestManagerWithConfig(t *testing.T, config *Config) (*SessionManager, *repository.AnnotationRepository, *repository.DocumentRepository) {
	t.Helper()
	db := repository.SetupTestDB(t)
	t.Cleanup(func() { repository.CleanupTestDB(t, db) })
	anns := repository.NewAnnotationRepository(db)
	docs := repository.NewDocumentRepository(db)
	return NewSessionManager(config, docs, anns), anns, docs
}

// rasterizerConfig renders PDF pages with command. The test is skipped when
// the first argument is not installed.
func rasterizerConfig(t *testing.T, command ...string) *Config {
	t.Helper()
	if _, err := exec.LookPath(command[0]); err != nil {
		t.Skipf("%s not available", command[0])
	}
	config := testConfig()
	config.Renderer.Disabled = false
	config.Renderer.Command = command
	return config
}
