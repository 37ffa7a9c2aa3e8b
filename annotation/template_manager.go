package annotation

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"sync"

	"github.com/abiosoft/mold"
)

type moldEngine interface {
	Render(w io.Writer, view string, data any) error
}

// TemplateManager renders pages inside the shared layout using mold
type TemplateManager struct {
	mu     sync.RWMutex
	engine moldEngine
}

// NewTemplateManager parses every template under templates/ in fsys.
// layout.html wraps every page.
func NewTemplateManager(fsys fs.FS, funcMap template.FuncMap) (*TemplateManager, error) {
	engine, err := mold.New(fsys,
		mold.WithRoot("templates"),
		mold.WithLayout("layout.html"),
		mold.WithFuncMap(funcMap),
	)
	if err != nil {
		return nil, fmt.Errorf("while parsing templates: %w", err)
	}
	return &TemplateManager{engine: engine}, nil
}

// Render renders a page template (mold will automatically handle layout inheritance)
func (tm *TemplateManager) Render(w io.Writer, pageName string, data interface{}) error {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	return tm.engine.Render(w, pageName, data)
}
