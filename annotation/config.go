package annotation

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lewtec/rabisco/internal/document"
	"github.com/lewtec/rabisco/internal/editor"
	"github.com/lewtec/rabisco/internal/render"
)

type Config struct {
	Meta struct {
		Description string `yaml:"description"`
	} `yaml:"meta"`
	Server   ConfigServer   `yaml:"server"`
	Database string         `yaml:"database"`
	Export   ConfigExport   `yaml:"export"`
	Renderer ConfigRenderer `yaml:"renderer"`
	Editor   ConfigEditor   `yaml:"editor"`
	Session  ConfigSession  `yaml:"session"`
	Language string         `yaml:"language"`
}

type ConfigServer struct {
	Addr string `yaml:"addr"`
	// MaxUploadMB bounds the size of an uploaded document
	MaxUploadMB int64 `yaml:"max_upload_mb"`
}

type ConfigExport struct {
	Dir         string  `yaml:"dir"`
	Format      string  `yaml:"format"`
	JPEGQuality int     `yaml:"jpeg_quality"`
	Scale       float64 `yaml:"scale"`
}

type ConfigRenderer struct {
	// Command is the argv of the PDF page rasterizer, see document.Options
	Command []string      `yaml:"command"`
	Timeout time.Duration `yaml:"timeout"`
	// Disabled renders PDF pages blank instead of calling Command
	Disabled bool `yaml:"disabled"`
}

type ConfigEditor struct {
	HistoryLimit int          `yaml:"history_limit"`
	DefaultStyle editor.Style `yaml:"default_style"`
}

type ConfigSession struct {
	TTL time.Duration `yaml:"ttl"`
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *Config {
	var ret Config
	ret.applyDefaults()
	return &ret
}

func LoadConfig(filename string) (*Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

// ParseConfig decodes a YAML configuration, fills defaults and validates it
func ParseConfig(data []byte) (*Config, error) {
	var ret Config
	if err := yaml.Unmarshal(data, &ret); err != nil {
		return nil, fmt.Errorf("while parsing config: %w", err)
	}
	ret.applyDefaults()
	if err := ret.Validate(); err != nil {
		return nil, err
	}
	return &ret, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = 64
	}
	if c.Database == "" {
		c.Database = "rabisco.db"
	}
	if c.Export.Dir == "" {
		c.Export.Dir = "exports"
	}
	if c.Export.Format == "" {
		c.Export.Format = string(render.FormatPNG)
	}
	if c.Export.JPEGQuality == 0 {
		c.Export.JPEGQuality = 90
	}
	if c.Export.Scale == 0 {
		c.Export.Scale = 2
	}
	if len(c.Renderer.Command) == 0 && !c.Renderer.Disabled {
		c.Renderer.Command = document.DefaultCommand
	}
	if c.Renderer.Timeout == 0 {
		c.Renderer.Timeout = 30 * time.Second
	}
	if c.Editor.HistoryLimit == 0 {
		c.Editor.HistoryLimit = 200
	}
	c.Editor.DefaultStyle = c.Editor.DefaultStyle.WithDefaults()
	if c.Session.TTL == 0 {
		c.Session.TTL = 2 * time.Hour
	}
	if c.Language == "" {
		c.Language = "en"
	}
}

// Validate reports the first setting that cannot be used
func (c *Config) Validate() error {
	if _, err := render.ParseFormat(c.Export.Format); err != nil {
		return fmt.Errorf("export.format: %w", err)
	}
	if c.Export.JPEGQuality < 1 || c.Export.JPEGQuality > 100 {
		return fmt.Errorf("export.jpeg_quality must be between 1 and 100, got %d", c.Export.JPEGQuality)
	}
	if c.Export.Scale < 0.25 || c.Export.Scale > 8 {
		return fmt.Errorf("export.scale must be between 0.25 and 8, got %g", c.Export.Scale)
	}
	if c.Server.MaxUploadMB < 0 {
		return fmt.Errorf("server.max_upload_mb must not be negative")
	}
	if c.Renderer.Timeout < 0 {
		return fmt.Errorf("renderer.timeout must not be negative")
	}
	if c.Editor.HistoryLimit < 0 {
		return fmt.Errorf("editor.history_limit must not be negative")
	}
	if _, ok := render.ParseColor(c.Editor.DefaultStyle.Color); !ok {
		return fmt.Errorf("editor.default_style.color: invalid colour %q", c.Editor.DefaultStyle.Color)
	}
	if _, ok := render.ParseColor(c.Editor.DefaultStyle.HighlightColor); !ok {
		return fmt.Errorf("editor.default_style.highlight_color: invalid colour %q", c.Editor.DefaultStyle.HighlightColor)
	}
	if c.Session.TTL < 0 {
		return fmt.Errorf("session.ttl must not be negative")
	}
	if !HasLanguage(c.Language) {
		return fmt.Errorf("language %q has no translations", c.Language)
	}
	return nil
}

// DocumentOptions returns how documents are opened with this configuration.
// A rasterizer that is not installed falls back to blank pages.
func (c *Config) DocumentOptions() document.Options {
	if c.Renderer.Disabled || len(c.Renderer.Command) == 0 {
		return document.Options{}
	}
	if _, err := exec.LookPath(c.Renderer.Command[0]); err != nil {
		log.Printf("config: renderer %s not found, PDF pages render blank", c.Renderer.Command[0])
		return document.Options{}
	}
	return document.Options{Command: c.Renderer.Command, Timeout: c.Renderer.Timeout}
}

// SampleConfig is written by the init subcommand
const SampleConfig = `meta:
  description: |
    Annotate PDF pages and images, then export each page with the annotations
    flattened onto it.

server:
  addr: ":8080"
  max_upload_mb: 64

database: rabisco.db

export:
  dir: exports
  format: png # png, jpeg or pdf
  jpeg_quality: 90
  scale: 2 # raster resolution relative to PDF points or image pixels

renderer:
  # argv of the PDF page rasterizer. {file}, {page} and {dpi} are replaced,
  # the PNG is read from stdout.
  command: ["pdftoppm", "-png", "-r", "{dpi}", "-f", "{page}", "-l", "{page}", "-singlefile", "{file}"]
  timeout: 30s

editor:
  history_limit: 200
  default_style:
    color: "#ff0000"
    stroke_width: 2
    fill: transparent
    font_family: Helvetica
    font_size: 16
    checkmark_size: 24
    highlight_color: "#ffff00"
    highlight_width: 20
    highlight_opacity: 0.4

session:
  ttl: 2h

language: en
`
