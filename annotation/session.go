package annotation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lewtec/rabisco/internal/document"
	"github.com/lewtec/rabisco/internal/domain"
	"github.com/lewtec/rabisco/internal/editor"
	"github.com/lewtec/rabisco/internal/render"
	"github.com/lewtec/rabisco/internal/store"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is one open document. Its methods lock the session, so the
// events of a session are applied one at a time.
type Session struct {
	ID       string
	Document *LoadedDocument

	mu    sync.Mutex
	host  *document.Host
	store *store.Store
	ctrl  *editor.Controller
	anns  domain.AnnotationRepository

	// saved is the store version last written to the database
	saved int

	baseVersion int
	basePNG     []byte
	baseOf      *image.RGBA

	lastUsed time.Time
}

// Apply handles one browser event and returns the resulting state. A
// failed page render is returned as an error next to a valid state: the
// previous raster stays on screen.
func (s *Session) Apply(ctx context.Context, ev Event) (StateView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()

	if err := s.apply(ev); err != nil {
		return s.state(), err
	}
	err := s.refresh(ctx)
	s.persist(ctx)
	return s.state(), err
}

// State returns the current state without changing anything
func (s *Session) State() StateView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state()
}

// BasePNG returns the page raster at the current zoom
func (s *Session) BasePNG(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refresh(ctx); err != nil && s.host.Base() == nil {
		return nil, err
	}
	base := s.host.Base()
	if base != s.baseOf || s.basePNG == nil {
		var buf bytes.Buffer
		if err := render.EncodePNG(&buf, base); err != nil {
			return nil, err
		}
		s.basePNG, s.baseOf = buf.Bytes(), base
	}
	return s.basePNG, nil
}

// OverlayPNG paints the annotations of the current page, the shape being
// created and the selection over a transparent raster the size of the base
func (s *Session) OverlayPNG() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	base := s.host.Base()
	if base == nil {
		return nil, fmt.Errorf("%w: page not rendered yet", document.ErrRender)
	}
	b := base.Bounds()
	dst := render.NewSurface(b.Dx(), b.Dy())
	render.DrawOverlay(dst, s.scene())

	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Export settles pending edits, saves them and composites the current page.
// The raster on screen is reused when its zoom matches the export scale and
// is the fallback when rendering at the export scale fails.
func (s *Session) Export(ctx context.Context, format render.Format, opts ExportOptions) (*Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()

	s.ctrl.Settle()
	s.persist(ctx)

	page, anns := s.host.Page(), s.store.Annotations()
	var base *image.RGBA
	if !s.host.Stale() {
		base = s.host.Base()
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	// the page on screen already is the raster the export needs
	if base != nil && scale == s.host.Zoom() {
		return ExportRaster(s.Document, page, base, s.host.Zoom(), anns, format, opts)
	}
	a, err := ExportPage(ctx, s.Document, page, anns, format, opts)
	if err != nil && base != nil && errors.Is(err, document.ErrRender) {
		log.Printf("session %s: export falls back to the page on screen: %s", s.ID, err)
		return ExportRaster(s.Document, page, base, s.host.Zoom(), anns, format, opts)
	}
	return a, err
}

// Close settles and saves pending edits and releases the document
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctrl.Settle()
	s.persist(ctx)
	return s.Document.Source.Close()
}

func (s *Session) scene() render.Scene {
	scene := render.Scene{
		Annotations: s.store.Annotations(),
		SelectedID:  s.store.Selected(),
		EditingID:   s.store.Editing(),
		Scale:       s.host.Zoom(),
	}
	if a, ok := s.ctrl.Preview(); ok {
		scene.Preview = &a
	}
	return scene
}

// refresh renders the base raster when page or zoom changed. On failure the
// host is back on the page it last rendered and the store follows it.
func (s *Session) refresh(ctx context.Context) error {
	stale := s.host.Stale()
	_, err := s.host.Render(ctx)
	s.store.SetPage(s.host.Page())
	if err != nil {
		log.Printf("session %s: %s", s.ID, err)
		return err
	}
	if stale {
		s.baseVersion++
	}
	return nil
}

// persist writes the page map when the committed state changed
func (s *Session) persist(ctx context.Context) {
	if s.anns == nil || s.store.Version() == s.saved || s.store.Dirty() {
		return
	}
	if err := s.anns.SaveAll(ctx, s.Document.SHA256, s.store.PageMap()); err != nil {
		log.Printf("session %s: while saving annotations: %s", s.ID, err)
		return
	}
	s.saved = s.store.Version()
}

func (s *Session) state() StateView {
	v := StateView{
		Session:     s.ID,
		Document:    s.Document.Name,
		Page:        s.host.Page(),
		PageCount:   s.host.PageCount(),
		Zoom:        s.host.Zoom(),
		Tool:        s.ctrl.Tool(),
		State:       s.ctrl.State(),
		Style:       s.ctrl.Style(),
		Selected:    s.store.Selected(),
		Annotations: s.store.Annotations(),
		CanUndo:     s.store.CanUndo(),
		CanRedo:     s.store.CanRedo(),
		Version:     s.store.Version(),
		BaseVersion: s.baseVersion,
	}
	if base := s.host.Base(); base != nil {
		v.Width, v.Height = base.Bounds().Dx(), base.Bounds().Dy()
	}
	if id := s.store.Editing(); id != "" {
		if a, ok := s.store.Get(id); ok {
			v.Editing = &a
		}
	}
	return v
}

// SessionManager owns the open sessions
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	docs domain.DocumentRepository
	anns domain.AnnotationRepository

	opts         document.Options
	style        editor.Style
	historyLimit int
	ttl          time.Duration
}

func NewSessionManager(config *Config, docs domain.DocumentRepository, anns domain.AnnotationRepository) *SessionManager {
	return &SessionManager{
		sessions:     map[string]*Session{},
		docs:         docs,
		anns:         anns,
		opts:         config.DocumentOptions(),
		style:        config.Editor.DefaultStyle,
		historyLimit: config.Editor.HistoryLimit,
		ttl:          config.Session.TTL,
	}
}

// Open loads data as a document and starts a session on its first page.
// Annotations stored for the same content are restored. Nothing is kept
// when an error is returned.
func (m *SessionManager) Open(ctx context.Context, name string, data []byte) (*Session, error) {
	doc, err := OpenDocument(ctx, name, data, m.opts)
	if err != nil {
		return nil, err
	}
	s, err := m.newSession(ctx, doc)
	if err != nil {
		doc.Source.Close()
		return nil, err
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	log.Printf("session %s: opened %s (%d pages)", s.ID, name, doc.Source.PageCount())
	return s, nil
}

// newSession registers doc only once its first page rendered, so a
// document that cannot be shown leaves nothing in the database.
func (m *SessionManager) newSession(ctx context.Context, doc *LoadedDocument) (*Session, error) {
	pages, err := m.anns.Load(ctx, doc.SHA256)
	if err != nil {
		return nil, fmt.Errorf("while loading annotations: %w", err)
	}

	st := store.New(1)
	st.MaxHistory = m.historyLimit
	st.Load(pages)

	s := &Session{
		ID:       uuid.NewString(),
		Document: doc,
		host:     document.NewHost(doc.Source),
		store:    st,
		ctrl:     editor.New(st, m.style),
		anns:     m.anns,
		saved:    st.Version(),
		lastUsed: time.Now(),
	}
	if err := s.refresh(ctx); err != nil {
		return nil, err
	}
	if _, err := m.docs.Create(ctx, doc.SHA256, doc.Name, doc.Source.PageCount()); err != nil {
		return nil, fmt.Errorf("while registering document: %w", err)
	}
	return s, nil
}

// Get returns the session with the given id
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Close ends the session with the given id
func (m *SessionManager) Close(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s.Close(ctx)
}

// CloseAll ends every session, saving their pending edits
func (m *SessionManager) CloseAll(ctx context.Context) {
	for _, id := range m.IDs() {
		if err := m.Close(ctx, id); err != nil {
			log.Printf("session %s: while closing: %s", id, err)
		}
	}
}

// IDs lists the open sessions
func (m *SessionManager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Expire closes the sessions idle for longer than the configured TTL and
// returns how many were closed
func (m *SessionManager) Expire(ctx context.Context, now time.Time) int {
	if m.ttl <= 0 {
		return 0
	}
	var idle []string
	m.mu.Lock()
	for id, s := range m.sessions {
		s.mu.Lock()
		if now.Sub(s.lastUsed) > m.ttl {
			idle = append(idle, id)
		}
		s.mu.Unlock()
	}
	m.mu.Unlock()

	n := 0
	for _, id := range idle {
		if err := m.Close(ctx, id); err == nil {
			log.Printf("session %s: expired", id)
			n++
		}
	}
	return n
}

// Run expires idle sessions until ctx is done
func (m *SessionManager) Run(ctx context.Context) {
	if m.ttl <= 0 {
		return
	}
	interval := m.ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Expire(ctx, now)
		}
	}
}
