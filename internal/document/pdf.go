package document

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"log"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

var disableConfigDir sync.Once

func pdfConfig() *model.Configuration {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

type pdfSource struct {
	name string
	dims []types.Dim
	opts Options

	// file holds the document for the external rasterizer
	file string
}

func openPDF(ctx context.Context, name string, data []byte, opts Options) (*pdfSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conf := pdfConfig()
	dims, err := api.PageDims(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("%w: while reading pdf: %s", ErrUnsupportedFormat, err)
	}
	if len(dims) == 0 {
		return nil, ErrNoPages
	}

	s := &pdfSource{name: name, dims: dims, opts: opts}
	if len(opts.Command) == 0 {
		return s, nil
	}
	f, err := os.CreateTemp("", "rabisco-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("while creating temporary file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("while writing temporary file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("while closing temporary file: %w", err)
	}
	s.file = f.Name()
	return s, nil
}

func (s *pdfSource) Name() string {
	return s.name
}

func (s *pdfSource) PageCount() int {
	return len(s.dims)
}

func (s *pdfSource) PageSize(page int) (float64, float64, error) {
	if page < 1 || page > len(s.dims) {
		return 0, 0, fmt.Errorf("%w: %d", ErrPageOutOfRange, page)
	}
	d := s.dims[page-1]
	return d.Width, d.Height, nil
}

func (s *pdfSource) Render(ctx context.Context, page int, scale float64) (*image.RGBA, error) {
	w, h, err := s.PageSize(page)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	if s.file == "" {
		pw, ph, err := rasterSize(w, h, scale)
		if err != nil {
			return nil, err
		}
		dst := image.NewRGBA(image.Rect(0, 0, pw, ph))
		draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
		return dst, nil
	}

	img, err := s.exec(ctx, page, scale)
	if err != nil {
		return nil, fmt.Errorf("%w: page %d: %s", ErrRender, page, err)
	}
	// the rasterizer rounds differently, keep the raster aligned with page space
	return scaled(img, w, h, scale)
}

func (s *pdfSource) exec(ctx context.Context, page int, scale float64) (image.Image, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}
	dpi := strconv.Itoa(int(math.Round(72 * scale)))
	args := make([]string, len(s.opts.Command))
	for i, arg := range s.opts.Command {
		arg = strings.ReplaceAll(arg, "{file}", s.file)
		arg = strings.ReplaceAll(arg, "{page}", strconv.Itoa(page))
		arg = strings.ReplaceAll(arg, "{dpi}", dpi)
		args[i] = arg
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			log.Printf("document: %s: %s", args[0], msg)
		}
		return nil, fmt.Errorf("while running %s: %w", args[0], err)
	}
	img, err := png.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("while decoding rasterizer output: %w", err)
	}
	return img, nil
}

func (s *pdfSource) Close() error {
	if s.file == "" {
		return nil
	}
	err := os.Remove(s.file)
	s.file = ""
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("while removing temporary file: %w", err)
	}
	return nil
}
