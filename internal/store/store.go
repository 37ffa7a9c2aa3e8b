// Package store owns the page annotation map of an open document and its
// undo/redo history of serialized snapshots.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/lewtec/rabisco/internal/domain"
)

// Store is the single owner of the page annotation map. Every mutation
// targets the current page. A Store is not safe for concurrent use; callers
// serialize access.
type Store struct {
	page    int
	pages   domain.PageMap
	history [][]byte
	index   int

	selected string
	editing  string

	// MaxHistory caps the number of snapshots kept, 0 keeps everything
	MaxHistory int

	version int
}

// New creates an empty store scoped to page, with a single history entry
// holding the empty map.
func New(page int) *Store {
	s := &Store{
		page:  page,
		pages: domain.PageMap{},
	}
	s.history = [][]byte{s.snapshot()}
	return s
}

// Page returns the current page number
func (s *Store) Page() int {
	return s.page
}

// SetPage switches the page every operation is scoped to. Selection and
// text editing belong to the previous page and are cleared.
func (s *Store) SetPage(page int) {
	if page == s.page {
		return
	}
	s.page = page
	s.selected = ""
	s.editing = ""
}

// Annotations returns a copy of the current page's annotations in paint order
func (s *Store) Annotations() []domain.Annotation {
	anns := s.pages[s.page]
	out := make([]domain.Annotation, len(anns))
	for i, a := range anns {
		out[i] = a.Clone()
	}
	return out
}

// Get returns a copy of the annotation with the given id on the current page
func (s *Store) Get(id string) (domain.Annotation, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return domain.Annotation{}, false
	}
	return s.pages[s.page][i].Clone(), true
}

// PageMap returns a deep copy of the whole page annotation map
func (s *Store) PageMap() domain.PageMap {
	return s.pages.Clone()
}

// Load replaces the live map and restarts history from it
func (s *Store) Load(pages domain.PageMap) {
	s.pages = normalize(pages.Clone())
	s.selected = ""
	s.editing = ""
	s.history = [][]byte{s.snapshot()}
	s.index = 0
	s.version++
}

// Selected returns the selected annotation id, empty when nothing is selected
func (s *Store) Selected() string {
	return s.selected
}

// Select marks id as selected; an empty id deselects
func (s *Store) Select(id string) {
	if s.selected == id {
		return
	}
	s.selected = id
}

// Editing returns the id of the text annotation being edited
func (s *Store) Editing() string {
	return s.editing
}

// SetEditing marks id as the text annotation being edited; empty ends editing
func (s *Store) SetEditing(id string) {
	if s.editing == id {
		return
	}
	s.editing = id
}

// Add appends a to the current page, selects it and commits. An id is
// generated when a has none. The stored annotation is returned.
func (s *Store) Add(a domain.Annotation) domain.Annotation {
	a = a.Clone()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	s.pages[s.page] = append(s.pages[s.page], a)
	s.selected = a.ID
	s.Commit()
	return a.Clone()
}

// Update applies fn to the annotation with the given id. It does not commit
// so continuous gestures do not flood history.
func (s *Store) Update(id string, fn func(a *domain.Annotation)) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	a := &s.pages[s.page][i]
	fn(a)
	a.ID = id
	return true
}

// Replace swaps the annotation with the given id for a, keeping its id and
// position in paint order. It does not commit.
func (s *Store) Replace(id string, a domain.Annotation) bool {
	return s.Update(id, func(dst *domain.Annotation) {
		*dst = a.Clone()
	})
}

// Delete removes the annotation, clears selection and editing when they
// point at it and commits.
func (s *Store) Delete(id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	anns := s.pages[s.page]
	s.pages[s.page] = append(anns[:i:i], anns[i+1:]...)
	if len(s.pages[s.page]) == 0 {
		delete(s.pages, s.page)
	}
	if s.selected == id {
		s.selected = ""
	}
	if s.editing == id {
		s.editing = ""
	}
	s.Commit()
	return true
}

// ClearPage empties the current page and commits. Clearing an empty page
// produces no new history entry.
func (s *Store) ClearPage() {
	delete(s.pages, s.page)
	s.selected = ""
	s.editing = ""
	s.Commit()
}

// Commit pushes a snapshot of the whole map onto history, discarding any
// redo tail. A snapshot identical to the current entry is not pushed.
func (s *Store) Commit() {
	snap := s.snapshot()
	if len(s.history) > 0 && bytes.Equal(s.history[s.index], snap) {
		return
	}
	s.history = append(s.history[:s.index+1], snap)
	if s.MaxHistory > 0 && len(s.history) > s.MaxHistory {
		s.history = s.history[len(s.history)-s.MaxHistory:]
	}
	s.index = len(s.history) - 1
	s.version++
}

// CanUndo reports whether an older snapshot exists
func (s *Store) CanUndo() bool {
	return s.index > 0
}

// CanRedo reports whether a newer snapshot exists
func (s *Store) CanRedo() bool {
	return s.index < len(s.history)-1
}

// Undo restores the previous snapshot and clears selection and editing
func (s *Store) Undo() bool {
	if !s.CanUndo() {
		return false
	}
	if err := s.restore(s.index - 1); err != nil {
		log.Printf("store: undo: %s", err)
		return false
	}
	s.selected = ""
	s.editing = ""
	return true
}

// Redo restores the next snapshot, keeping selection and editing
func (s *Store) Redo() bool {
	if !s.CanRedo() {
		return false
	}
	if err := s.restore(s.index + 1); err != nil {
		log.Printf("store: redo: %s", err)
		return false
	}
	return true
}

// HistoryLen returns the number of snapshots in history
func (s *Store) HistoryLen() int {
	return len(s.history)
}

// HistoryIndex returns the position of the live state in history
func (s *Store) HistoryIndex() int {
	return s.index
}

// Version increases whenever the committed state changes (commit, undo,
// redo, load). Callers use it to detect unsaved changes.
func (s *Store) Version() int {
	return s.version
}

// Dirty reports whether the live map differs from the current history
// entry, which happens during a gesture that has not been committed yet.
func (s *Store) Dirty() bool {
	return !bytes.Equal(s.history[s.index], s.snapshot())
}

func (s *Store) restore(index int) error {
	var pages domain.PageMap
	if err := json.Unmarshal(s.history[index], &pages); err != nil {
		return fmt.Errorf("while decoding snapshot %d: %w", index, err)
	}
	if pages == nil {
		pages = domain.PageMap{}
	}
	s.pages = pages
	s.index = index
	s.version++
	return nil
}

func (s *Store) snapshot() []byte {
	data, err := json.Marshal(s.pages)
	if err != nil {
		// PageMap only holds plain values, this cannot happen
		panic(fmt.Sprintf("store: while encoding snapshot: %s", err))
	}
	return data
}

func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, a := range s.pages[s.page] {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func normalize(pages domain.PageMap) domain.PageMap {
	if pages == nil {
		return domain.PageMap{}
	}
	for page, anns := range pages {
		if len(anns) == 0 {
			delete(pages, page)
		}
	}
	return pages
}
