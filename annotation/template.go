package annotation

import (
	"context"
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net/http"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/russross/blackfriday/v2"
)

var (
	//go:embed templates/*.html
	templateFS embed.FS

	//go:embed assets/*
	assetsFS embed.FS

	// Template manager with mold for layout support
	templateManager *TemplateManager = nil

	// TemplateFuncMap contains custom template functions available globally
	TemplateFuncMap = template.FuncMap{
		"t": func(localizer *i18n.Localizer, messageID string) string {
			return localize(localizer, messageID, nil)
		},
		"markdown": func(text string) template.HTML {
			// Convert markdown to HTML using blackfriday v2
			return template.HTML(blackfriday.Run([]byte(text)))
		},
	}
)

func init() {
	var err error
	templateManager, err = NewTemplateManager(templateFS, TemplateFuncMap)
	if err != nil {
		panic(err)
	}
}

// RenderPageWithContext renders a page with context-aware i18n
func RenderPageWithContext(ctx context.Context, w io.Writer, pageName string, data map[string]any) error {
	if data == nil {
		data = make(map[string]any)
	}
	data["Localizer"] = GetLocalizerFromContext(ctx)
	data["Lang"] = LanguageFromContext(ctx)
	if _, ok := data["Title"]; !ok {
		data["Title"] = LocalizeWithContext(ctx, "app.title")
	}
	return templateManager.Render(w, pageName+".html", data)
}

// RenderPageWithRequest renders a page with request-aware i18n
// ALWAYS use this function for rendering pages to ensure proper i18n support
func RenderPageWithRequest(r *http.Request, w io.Writer, pageName string, data map[string]any) error {
	return RenderPageWithContext(r.Context(), w, pageName, data)
}

// AssetsHandler serves the embedded stylesheet, script and favicon
func AssetsHandler() http.Handler {
	sub, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
