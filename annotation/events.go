package annotation

import (
	"errors"
	"fmt"

	"github.com/lewtec/rabisco/internal/domain"
	"github.com/lewtec/rabisco/internal/editor"
)

var ErrBadEvent = errors.New("bad event")

// Event is one input forwarded by the browser. X and Y are pixels of the
// displayed raster, which is the page at the current zoom.
type Event struct {
	Type  string        `json:"type"`
	X     float64       `json:"x"`
	Y     float64       `json:"y"`
	Key   string        `json:"key,omitempty"`
	Shift bool          `json:"shift,omitempty"`
	Text  string        `json:"text,omitempty"`
	Tool  string        `json:"tool,omitempty"`
	Style *editor.Style `json:"style,omitempty"`
	Page  int           `json:"page,omitempty"`
	Zoom  float64       `json:"zoom,omitempty"`
}

// StateView is what the browser needs to draw the editor after an event
type StateView struct {
	Session     string              `json:"session"`
	Document    string              `json:"document"`
	Page        int                 `json:"page"`
	PageCount   int                 `json:"pageCount"`
	Zoom        float64             `json:"zoom"`
	Width       int                 `json:"width"`
	Height      int                 `json:"height"`
	Tool        editor.Tool         `json:"tool"`
	State       editor.State        `json:"state"`
	Style       editor.Style        `json:"style"`
	Selected    string              `json:"selected,omitempty"`
	Editing     *domain.Annotation  `json:"editing,omitempty"`
	Annotations []domain.Annotation `json:"annotations"`
	CanUndo     bool                `json:"canUndo"`
	CanRedo     bool                `json:"canRedo"`
	Version     int                 `json:"version"`
	BaseVersion int                 `json:"baseVersion"`
	Error       string              `json:"error,omitempty"`
}

// apply routes ev to the controller, store or host of the session. The
// caller holds the session lock.
func (s *Session) apply(ev Event) error {
	zoom := s.host.Zoom()
	p := domain.Point{X: ev.X / zoom, Y: ev.Y / zoom}
	switch ev.Type {
	case "pointerdown":
		s.ctrl.PointerDown(p)
	case "pointermove":
		s.ctrl.PointerMove(p)
	case "pointerup":
		s.ctrl.PointerUp(p)
	case "pointercancel":
		s.ctrl.PointerCancel()
	case "dblclick":
		s.ctrl.DoubleClick(p)
	case "keydown":
		s.ctrl.KeyDown(ev.Key, ev.Shift)
	case "input":
		s.ctrl.Input(ev.Text)
	case "blur":
		s.ctrl.Blur()
	case "tool":
		tool, err := editor.ParseTool(ev.Tool)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrBadEvent, err)
		}
		s.ctrl.SetTool(tool)
	case "style":
		if ev.Style == nil {
			return fmt.Errorf("%w: style event without a style", ErrBadEvent)
		}
		s.ctrl.SetStyle(*ev.Style)
	case "undo":
		s.ctrl.Settle()
		s.store.Undo()
	case "redo":
		s.ctrl.Settle()
		s.store.Redo()
	case "delete":
		s.ctrl.Settle()
		if id := s.store.Selected(); id != "" {
			s.store.Delete(id)
		}
	case "clear":
		s.ctrl.Settle()
		s.store.ClearPage()
	case "page":
		s.ctrl.Settle()
		s.host.SetPage(ev.Page)
	case "zoom":
		s.ctrl.Settle()
		s.host.SetZoom(ev.Zoom)
	default:
		return fmt.Errorf("%w: unknown type %q", ErrBadEvent, ev.Type)
	}
	return nil
}
