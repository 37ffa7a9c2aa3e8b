package annotation

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lewtec/rabisco/internal/document"
	"github.com/lewtec/rabisco/internal/domain"
	"github.com/lewtec/rabisco/internal/editor"
	"github.com/lewtec/rabisco/internal/render"
	"github.com/lewtec/rabisco/internal/repository"
)

// maxEventBytes bounds one editor event, over HTTP or the websocket
const maxEventBytes = 1 << 20

type EditorApp struct {
	Database *sql.DB
	Config   *Config
	// Exporter keeps a copy of every export, nil only streams them
	Exporter *Exporter

	once        sync.Once
	documents   domain.DocumentRepository
	annotations domain.AnnotationRepository
	sessions    *SessionManager
}

func (a *EditorApp) init() {
	a.once.Do(func() {
		if a.Config == nil {
			a.Config = DefaultConfig()
		}
		a.documents = repository.NewDocumentRepository(a.Database)
		a.annotations = repository.NewAnnotationRepository(a.Database)
		a.sessions = NewSessionManager(a.Config, a.documents, a.annotations)
	})
}

// Sessions returns the open editing sessions
func (a *EditorApp) Sessions() *SessionManager {
	a.init()
	return a.sessions
}

func stringOr(str, or string) string {
	if str != "" {
		return str
	}
	return or
}

func pathParts(path string) []string {
	parts := strings.Split(path, "/")
	if len(parts) > 0 && parts[0] == "" {
		parts = parts[1:]
	}
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

type documentRow struct {
	*domain.Document
	Annotations int64
}

// recentDocuments lists the last opened documents with their annotation
// count, once per request
func (a *EditorApp) recentDocuments(r *http.Request) []documentRow {
	ctx := r.Context()
	docs, err := cached(ctx, "documents", func() ([]*domain.Document, error) {
		return a.documents.List(ctx, 20)
	})
	if err != nil {
		log.Printf("http: while listing documents: %s", err)
		return nil
	}
	rows := make([]documentRow, 0, len(docs))
	for _, doc := range docs {
		n, err := cached(ctx, "annotations:"+doc.SHA256, func() (int64, error) {
			return a.annotations.CountByDocument(ctx, doc.SHA256)
		})
		if err != nil {
			log.Printf("http: while counting annotations of %s: %s", doc.SHA256, err)
		}
		rows = append(rows, documentRow{Document: doc, Annotations: n})
	}
	return rows
}

func (a *EditorApp) renderIndex(w http.ResponseWriter, r *http.Request, status int, errorMessage string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	err := RenderPageWithRequest(r, w, "index", map[string]any{
		"Title":       LocalizeWithContext(r.Context(), "app.title"),
		"Description": a.Config.Meta.Description,
		"Documents":   a.recentDocuments(r),
		"Error":       errorMessage,
	})
	if err != nil {
		log.Printf("http: while rendering index: %s", err)
	}
}

func (a *EditorApp) GetHTTPHandler() http.Handler {
	a.init()
	mux := http.NewServeMux()
	mux.Handle("/assets/", http.StripPrefix("/assets/", AssetsHandler()))

	mux.HandleFunc("/help/", func(w http.ResponseWriter, r *http.Request) {
		if len(pathParts(r.URL.Path)) != 1 {
			http.NotFoundHandler().ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err := RenderPageWithRequest(r, w, "help", map[string]any{
			"Title":       LocalizeWithContext(r.Context(), "help.title"),
			"Description": a.Config.Meta.Description,
		})
		if err != nil {
			log.Printf("http: while rendering help: %s", err)
		}
	})

	mux.HandleFunc("/documents", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		a.handleUpload(w, r)
	})

	mux.HandleFunc("/edit/", func(w http.ResponseWriter, r *http.Request) {
		itemPath := pathParts(r.URL.Path)
		if len(itemPath) != 2 {
			http.NotFoundHandler().ServeHTTP(w, r)
			return
		}
		s, err := a.sessions.Get(itemPath[1])
		if err != nil {
			a.renderIndex(w, r, http.StatusNotFound, userMessage(r, err))
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err = RenderPageWithRequest(r, w, "editor", map[string]any{
			"Title":    s.Document.Name,
			"Session":  s.ID,
			"Document": s.Document.Name,
			"Tools":    editor.Tools,
			"Formats":  []render.Format{render.FormatPNG, render.FormatJPEG, render.FormatPDF},
			"Format":   a.Config.Export.Format,
		})
		if err != nil {
			log.Printf("http: while rendering editor: %s", err)
		}
	})

	mux.HandleFunc("/api/sessions/", func(w http.ResponseWriter, r *http.Request) {
		itemPath := pathParts(r.URL.Path)
		if len(itemPath) < 3 || len(itemPath) > 4 {
			http.NotFoundHandler().ServeHTTP(w, r)
			return
		}
		s, err := a.sessions.Get(itemPath[2])
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": userMessage(r, err)})
			return
		}
		if len(itemPath) == 3 {
			if r.Method != http.MethodDelete {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			if err := a.sessions.Close(r.Context(), s.ID); err != nil {
				log.Printf("http: while closing session %s: %s", s.ID, err)
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
		switch itemPath[3] {
		case "state":
			writeJSON(w, http.StatusOK, s.State())
		case "events":
			a.handleEvent(w, r, s)
		case "ws":
			a.serveWebSocket(w, r, s)
		case "base.png":
			data, err := s.BasePNG(r.Context())
			writePNG(w, r, data, err)
		case "overlay.png":
			data, err := s.OverlayPNG()
			writePNG(w, r, data, err)
		case "save":
			a.handleSave(w, r, s)
		default:
			http.NotFoundHandler().ServeHTTP(w, r)
		}
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFoundHandler().ServeHTTP(w, r)
			return
		}
		a.renderIndex(w, r, http.StatusOK, "")
	})

	var handler http.Handler = mux
	handler = requestCacheMiddleware(handler)
	handler = i18nMiddleware(handler)
	handler = HTTPLogger(handler)
	return handler
}

func (a *EditorApp) handleUpload(w http.ResponseWriter, r *http.Request) {
	limit := a.Config.Server.MaxUploadMB << 20
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.renderIndex(w, r, http.StatusRequestEntityTooLarge, LocalizeWithContext(r.Context(), "error.upload_too_large"))
			return
		}
		a.renderIndex(w, r, http.StatusBadRequest, LocalizeWithContext(r.Context(), "error.upload_missing"))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		a.renderIndex(w, r, http.StatusBadRequest, LocalizeWithContext(r.Context(), "error.upload_too_large"))
		return
	}

	s, err := a.sessions.Open(r.Context(), header.Filename, data)
	if err != nil {
		log.Printf("http: while opening upload %q: %s", header.Filename, err)
		msg := LocalizeWithContextAndData(r.Context(), "error.load_failed", map[string]interface{}{
			"Name": header.Filename,
		})
		if !errors.Is(err, document.ErrUnsupportedFormat) && !errors.Is(err, document.ErrNoPages) && !errors.Is(err, document.ErrRender) {
			msg = userMessage(r, err)
		}
		a.renderIndex(w, r, http.StatusUnprocessableEntity, msg)
		return
	}
	http.Redirect(w, r, "/edit/"+s.ID, http.StatusSeeOther)
}

func (a *EditorApp) handleEvent(w http.ResponseWriter, r *http.Request, s *Session) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxEventBytes)
	var ev Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, map[string]string{"error": LocalizeWithContext(r.Context(), "error.bad_event")})
		return
	}
	state, err := s.Apply(r.Context(), ev)
	status := http.StatusOK
	if err != nil {
		state.Error = userMessage(r, err)
		if errors.Is(err, ErrBadEvent) {
			status = http.StatusBadRequest
		}
	}
	writeJSON(w, status, state)
}

func (a *EditorApp) handleSave(w http.ResponseWriter, r *http.Request, s *Session) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	format, err := render.ParseFormat(stringOr(r.URL.Query().Get("format"), a.Config.Export.Format))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": LocalizeWithContextAndData(r.Context(), "error.bad_format", map[string]interface{}{
				"Format": r.URL.Query().Get("format"),
			}),
		})
		return
	}
	artifact, err := s.Export(r.Context(), format, ExportOptions{
		Scale:       a.Config.Export.Scale,
		JPEGQuality: a.Config.Export.JPEGQuality,
	})
	if err != nil {
		log.Printf("http: while exporting session %s: %s", s.ID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": LocalizeWithContextAndData(r.Context(), "error.save_failed", map[string]interface{}{
				"Error": err.Error(),
			}),
		})
		return
	}
	if a.Exporter != nil {
		if _, err := a.Exporter.Write(artifact); err != nil {
			log.Printf("http: %s", err)
		}
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": artifact.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Data)))
	w.Write(artifact.Data)
}

// userMessage turns err into a localized message for the browser
func userMessage(r *http.Request, err error) string {
	id := "error.internal"
	switch {
	case errors.Is(err, ErrSessionNotFound):
		id = "error.session_not_found"
	case errors.Is(err, ErrBadEvent):
		id = "error.bad_event"
	case errors.Is(err, document.ErrRender):
		id = "error.render_failed"
	}
	return LocalizeWithContext(r.Context(), id)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("http: while encoding response: %s", err)
	}
}

func writePNG(w http.ResponseWriter, r *http.Request, data []byte, err error) {
	if err != nil {
		log.Printf("http: while rendering %s: %s", r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": userMessage(r, err)})
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.Write(data)
}
