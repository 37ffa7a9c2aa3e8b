// Package editor implements the pointer and keyboard state machine that
// turns user input into annotation store mutations.
package editor

import (
	"strings"

	"github.com/lewtec/rabisco/internal/domain"
	"github.com/lewtec/rabisco/internal/geometry"
	"github.com/lewtec/rabisco/internal/store"
)

// State names the controller state as seen from outside
type State string

const (
	StateIdle        State = "idle"
	StateToolArmed   State = "tool-armed"
	StateDragging    State = "dragging"
	StateResizing    State = "resizing"
	StateCreating    State = "creating"
	StateEditingText State = "editing-text"
)

// Controller routes input events to the store. It only reads annotations
// and calls store mutation methods.
type Controller struct {
	store   *store.Store
	tool    Tool
	style   Style
	gesture Gesture
}

// New creates a controller over s with the select tool active
func New(s *store.Store, style Style) *Controller {
	return &Controller{
		store:   s,
		tool:    ToolSelect,
		style:   style.WithDefaults(),
		gesture: Gesture{Mode: ModeIdle},
	}
}

// Store returns the store the controller mutates
func (c *Controller) Store() *store.Store {
	return c.store
}

func (c *Controller) Tool() Tool {
	return c.tool
}

func (c *Controller) Style() Style {
	return c.style
}

// Gesture returns a copy of the gesture in progress
func (c *Controller) Gesture() Gesture {
	g := c.gesture
	g.Points = clonePoints(g.Points)
	g.Snapshot = g.Snapshot.Clone()
	return g
}

// State reports the current state machine state
func (c *Controller) State() State {
	switch c.gesture.Mode {
	case ModeDragging:
		return StateDragging
	case ModeResizing:
		return StateResizing
	case ModeCreating:
		return StateCreating
	}
	if c.store.Editing() != "" {
		return StateEditingText
	}
	if c.tool != ToolSelect {
		return StateToolArmed
	}
	return StateIdle
}

// SetTool arms t. A pending text edit is committed first.
func (c *Controller) SetTool(t Tool) {
	c.FlushTextEdit()
	c.tool = t
}

// SetStyle replaces the style used for new annotations
func (c *Controller) SetStyle(s Style) {
	c.style = s.WithDefaults()
}

// Preview returns the shape a creation gesture would produce right now
func (c *Controller) Preview() (domain.Annotation, bool) {
	if c.gesture.Mode != ModeCreating {
		return domain.Annotation{}, false
	}
	a, _ := Created(c.gesture.Tool, c.gesture.Points, c.style)
	return a, true
}

// PointerDown starts a gesture at p, in page coordinates
func (c *Controller) PointerDown(p domain.Point) {
	if c.gesture.Mode != ModeIdle {
		c.finishGesture()
	}
	c.FlushTextEdit()

	switch c.tool {
	case ToolSelect:
		c.pointerDownSelect(p)
	case ToolText:
		a, _ := Created(ToolText, []domain.Point{p}, c.style)
		a = c.store.Add(a)
		c.store.SetEditing(a.ID)
		c.tool = ToolSelect
	case ToolCheckmark:
		a, _ := Created(ToolCheckmark, []domain.Point{p}, c.style)
		c.store.Add(a)
	default:
		c.store.Select("")
		c.gesture = Gesture{
			Mode:   ModeCreating,
			Tool:   c.tool,
			Start:  p,
			Points: []domain.Point{p},
		}
	}
}

func (c *Controller) pointerDownSelect(p domain.Point) {
	if id := c.store.Selected(); id != "" {
		if a, ok := c.store.Get(id); ok {
			if h, ok := geometry.ResizeHandleAt(p.X, p.Y, a); ok {
				c.gesture = Gesture{Mode: ModeResizing, ID: id, Handle: h, Start: p, Snapshot: a}
				return
			}
		}
	}
	anns := c.store.Annotations()
	i := geometry.TopmostAt(p.X, p.Y, anns)
	if i < 0 {
		c.store.Select("")
		return
	}
	c.store.Select(anns[i].ID)
	c.gesture = Gesture{Mode: ModeDragging, ID: anns[i].ID, Start: p, Snapshot: anns[i]}
}

// PointerMove advances the gesture in progress. Without one it does nothing.
func (c *Controller) PointerMove(p domain.Point) {
	g := &c.gesture
	switch g.Mode {
	case ModeDragging:
		c.store.Replace(g.ID, Dragged(g.Snapshot, p.Sub(g.Start)))
	case ModeResizing:
		c.store.Replace(g.ID, Resized(g.Snapshot, g.Handle, p.Sub(g.Start)))
	case ModeCreating:
		if g.Tool == ToolDraw || g.Tool == ToolHighlight {
			g.Points = append(g.Points, p)
		} else {
			g.Points = []domain.Point{g.Start, p}
		}
	}
}

// PointerUp ends the gesture at p. Any point is accepted, including ones
// outside the page.
func (c *Controller) PointerUp(p domain.Point) {
	if c.gesture.Mode == ModeIdle {
		return
	}
	c.PointerMove(p)
	c.finishGesture()
}

// PointerCancel ends the gesture without a final position. Drags and resizes
// keep what is visible; a creation is kept only when it is large enough.
func (c *Controller) PointerCancel() {
	c.finishGesture()
}

func (c *Controller) finishGesture() {
	g := c.gesture
	c.gesture = Gesture{Mode: ModeIdle}
	switch g.Mode {
	case ModeDragging, ModeResizing:
		c.store.Commit()
	case ModeCreating:
		if a, ok := Created(g.Tool, g.Points, c.style); ok {
			c.store.Add(a)
		}
	}
}

// DoubleClick enters text editing on the topmost text annotation at p
func (c *Controller) DoubleClick(p domain.Point) bool {
	if c.tool != ToolSelect {
		return false
	}
	if c.gesture.Mode != ModeIdle {
		c.finishGesture()
	}
	anns := c.store.Annotations()
	i := geometry.TopmostAt(p.X, p.Y, anns)
	if i < 0 || anns[i].Kind != domain.KindText {
		return false
	}
	c.store.Select(anns[i].ID)
	c.store.SetEditing(anns[i].ID)
	return true
}

// Input replaces the content of the text being edited
func (c *Controller) Input(text string) {
	id := c.store.Editing()
	if id == "" {
		return
	}
	c.store.Update(id, func(a *domain.Annotation) {
		a.Text = text
	})
}

// KeyDown handles a key press and reports whether it was consumed. Key
// names follow the DOM KeyboardEvent.key values.
func (c *Controller) KeyDown(key string, shift bool) bool {
	if c.store.Editing() != "" {
		switch {
		case key == "Escape", key == "Enter" && !shift:
			c.FlushTextEdit()
			return true
		}
		return false
	}
	switch key {
	case "Delete", "Backspace":
		if id := c.store.Selected(); id != "" {
			c.gesture = Gesture{Mode: ModeIdle}
			return c.store.Delete(id)
		}
	case "Escape":
		if c.gesture.Mode != ModeIdle {
			c.PointerCancel()
			return true
		}
		if c.tool != ToolSelect {
			c.tool = ToolSelect
			return true
		}
		if c.store.Selected() != "" {
			c.store.Select("")
			return true
		}
	}
	return false
}

// Blur ends text editing, removing the annotation when it has no content
func (c *Controller) Blur() {
	c.FlushTextEdit()
}

// FlushTextEdit ends any text edit synchronously: empty text is deleted and
// anything else is committed.
func (c *Controller) FlushTextEdit() {
	id := c.store.Editing()
	if id == "" {
		return
	}
	c.store.SetEditing("")
	a, ok := c.store.Get(id)
	if !ok {
		return
	}
	if strings.TrimSpace(a.Text) == "" {
		c.store.Delete(id)
		return
	}
	c.store.Commit()
}

// Settle ends every pending interaction so the store holds a committed
// state. It is called before switching pages and before exporting.
func (c *Controller) Settle() {
	c.finishGesture()
	c.FlushTextEdit()
}
