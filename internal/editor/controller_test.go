package editor

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lewtec/rabisco/internal/domain"
	"github.com/lewtec/rabisco/internal/geometry"
	"github.com/lewtec/rabisco/internal/store"
)

func pt(x, y float64) domain.Point {
	return domain.Point{X: x, Y: y}
}

func newController(t *testing.T) (*Controller, *store.Store) {
	t.Helper()
	s := store.New(1)
	return New(s, DefaultStyle()), s
}

func only(t *testing.T, s *store.Store) domain.Annotation {
	t.Helper()
	anns := s.Annotations()
	if len(anns) != 1 {
		t.Fatalf("expected exactly one annotation, got %d", len(anns))
	}
	return anns[0]
}

func TestController_RectangleScenario(t *testing.T) {
	c, s := newController(t)

	c.SetTool(ToolRectangle)
	c.PointerDown(pt(50, 50))
	c.PointerMove(pt(100, 100))
	if c.State() != StateCreating {
		t.Fatalf("State() = %s, want creating", c.State())
	}
	c.PointerUp(pt(150, 120))

	r := only(t, s)
	if r.Kind != domain.KindRectangle || r.X != 50 || r.Y != 50 || r.Width != 100 || r.Height != 70 {
		t.Fatalf("created %+v", r)
	}
	if s.Selected() != r.ID {
		t.Error("new shape should be selected")
	}

	c.SetTool(ToolSelect)
	c.PointerDown(pt(150, 120))
	if c.State() != StateResizing || c.Gesture().Handle != domain.HandleSE {
		t.Fatalf("State() = %s handle %q, want resizing se", c.State(), c.Gesture().Handle)
	}
	before := s.HistoryLen()
	c.PointerMove(pt(160, 125))
	if s.HistoryLen() != before {
		t.Error("intermediate frames must not be committed")
	}
	c.PointerUp(pt(170, 130))

	r = only(t, s)
	if r.X != 50 || r.Y != 50 || r.Width != 120 || r.Height != 80 {
		t.Errorf("after resize %+v", r)
	}
	if s.HistoryLen() != before+1 {
		t.Errorf("resize should add one history entry, got %d", s.HistoryLen()-before)
	}

	s.Undo()
	r = only(t, s)
	if r.Width != 100 || r.Height != 70 {
		t.Errorf("after undo %+v", r)
	}
}

func TestController_TextResizeScenario(t *testing.T) {
	c, s := newController(t)
	a := s.Add(domain.Annotation{Kind: domain.KindText, X: 10, Y: 40, Text: "Hello", FontSize: 24, Color: "#000000"})

	hs := geometry.Handles(a)
	if len(hs) != 1 {
		t.Fatalf("Handles() = %+v", hs)
	}
	e := hs[0].Point

	c.PointerDown(e)
	if c.State() != StateResizing {
		t.Fatalf("State() = %s, want resizing", c.State())
	}
	c.PointerUp(e.Add(pt(48, 0)))

	if got := only(t, s).FontSize; got != 48 {
		t.Errorf("FontSize = %v, want 48", got)
	}
}

func TestController_FreehandDragScenario(t *testing.T) {
	c, s := newController(t)

	c.SetTool(ToolDraw)
	c.PointerDown(pt(10, 10))
	c.PointerMove(pt(20, 15))
	c.PointerUp(pt(30, 12))

	path := only(t, s)
	want := []domain.Point{pt(10, 10), pt(20, 15), pt(30, 12)}
	if diff := cmp.Diff(want, path.Points); diff != "" {
		t.Fatalf("points (-want +got):\n%s", diff)
	}
	b0, _ := geometry.Bounds(path)

	c.SetTool(ToolSelect)
	c.PointerDown(pt(20, 12))
	if c.State() != StateDragging {
		t.Fatalf("State() = %s, want dragging", c.State())
	}
	c.PointerUp(pt(30, 22))

	path = only(t, s)
	want = []domain.Point{pt(20, 20), pt(30, 25), pt(40, 22)}
	if diff := cmp.Diff(want, path.Points); diff != "" {
		t.Errorf("points after drag (-want +got):\n%s", diff)
	}
	b1, _ := geometry.Bounds(path)
	if b1.X != b0.X+10 || b1.Y != b0.Y+10 || b1.W != b0.W || b1.H != b0.H {
		t.Errorf("bounds %+v, want %+v shifted by 10", b1, b0)
	}
}

func TestResized_RectangleFloor(t *testing.T) {
	snap := domain.Annotation{Kind: domain.KindRectangle, X: 50, Y: 50, Width: 100, Height: 70}
	tests := []struct {
		handle domain.Handle
		delta  domain.Point
		want   domain.Rect
	}{
		{domain.HandleSE, pt(-500, -500), domain.Rect{X: 50, Y: 50, W: 20, H: 20}},
		{domain.HandleSW, pt(500, -500), domain.Rect{X: 130, Y: 50, W: 20, H: 20}},
		{domain.HandleNE, pt(-500, 500), domain.Rect{X: 50, Y: 100, W: 20, H: 20}},
		{domain.HandleNW, pt(500, 500), domain.Rect{X: 130, Y: 100, W: 20, H: 20}},
		{domain.HandleNW, pt(-10, -5), domain.Rect{X: 40, Y: 45, W: 110, H: 75}},
		{domain.HandleSW, pt(10, 10), domain.Rect{X: 60, Y: 50, W: 90, H: 80}},
	}
	for _, tt := range tests {
		t.Run(string(tt.handle), func(t *testing.T) {
			got := Resized(snap, tt.handle, tt.delta)
			r := domain.Rect{X: got.X, Y: got.Y, W: got.Width, H: got.Height}
			if r != tt.want {
				t.Errorf("Resized(%s, %v) = %+v, want %+v", tt.handle, tt.delta, r, tt.want)
			}
			if got.Width < MinRectSide || got.Height < MinRectSide {
				t.Errorf("side below floor: %+v", r)
			}
		})
	}
}

func TestResized_OtherKinds(t *testing.T) {
	t.Run("text font size is clamped", func(t *testing.T) {
		text := domain.Annotation{Kind: domain.KindText, FontSize: 24}
		if got := Resized(text, domain.HandleE, pt(1000, 0)).FontSize; got != MaxFontSize {
			t.Errorf("FontSize = %v, want %v", got, MaxFontSize)
		}
		if got := Resized(text, domain.HandleE, pt(-1000, 0)).FontSize; got != MinFontSize {
			t.Errorf("FontSize = %v, want %v", got, MinFontSize)
		}
	})
	t.Run("circle radius", func(t *testing.T) {
		circle := domain.Annotation{Kind: domain.KindCircle, Radius: 30}
		if got := Resized(circle, domain.HandleSE, pt(10, 10)).Radius; got != 40 {
			t.Errorf("Radius = %v, want 40", got)
		}
		if got := Resized(circle, domain.HandleSE, pt(-100, -100)).Radius; got != MinCircleRadius {
			t.Errorf("Radius = %v, want %v", got, MinCircleRadius)
		}
	})
	t.Run("checkmark size", func(t *testing.T) {
		check := domain.Annotation{Kind: domain.KindCheckmark, Size: 24}
		if got := Resized(check, domain.HandleNE, pt(-100, 0)).Size; got != MinCheckmarkSize {
			t.Errorf("Size = %v, want %v", got, MinCheckmarkSize)
		}
	})
	t.Run("lines ignore resize", func(t *testing.T) {
		line := domain.Annotation{Kind: domain.KindLine, X1: 1, Y1: 2, X2: 3, Y2: 4}
		if diff := cmp.Diff(line, Resized(line, domain.HandleSE, pt(9, 9))); diff != "" {
			t.Errorf("line changed:\n%s", diff)
		}
	})
}

func TestResized_FromSnapshotDoesNotDrift(t *testing.T) {
	snap := domain.Annotation{Kind: domain.KindRectangle, X: 0, Y: 0, Width: 100, Height: 100}
	var got domain.Annotation
	for i := 1; i <= 1000; i++ {
		got = Resized(snap, domain.HandleSE, pt(float64(i)*0.1, float64(i)*0.1))
	}
	if got.Width != 200 || got.Height != 200 {
		t.Errorf("Width, Height = %v, %v; want 200, 200", got.Width, got.Height)
	}
}

func TestCreated(t *testing.T) {
	style := DefaultStyle()

	t.Run("tiny shapes are discarded", func(t *testing.T) {
		for _, tool := range []Tool{ToolRectangle, ToolCircle, ToolLine, ToolArrow} {
			if _, ok := Created(tool, []domain.Point{pt(10, 10), pt(11, 10)}, style); ok {
				t.Errorf("%s below minimum distance was kept", tool)
			}
		}
		for _, tool := range []Tool{ToolDraw, ToolHighlight} {
			if _, ok := Created(tool, []domain.Point{pt(10, 10)}, style); ok {
				t.Errorf("%s with one point was kept", tool)
			}
		}
	})

	t.Run("rectangle is normalised", func(t *testing.T) {
		a, ok := Created(ToolRectangle, []domain.Point{pt(150, 120), pt(50, 50)}, style)
		if !ok || a.X != 50 || a.Y != 50 || a.Width != 100 || a.Height != 70 {
			t.Errorf("Created() = %+v, %v", a, ok)
		}
	})

	t.Run("circle radius from drag", func(t *testing.T) {
		a, ok := Created(ToolCircle, []domain.Point{pt(0, 0), pt(30, 40)}, style)
		if !ok || a.X != 0 || a.Y != 0 || a.Radius != 50 {
			t.Errorf("Created() = %+v, %v", a, ok)
		}
	})

	t.Run("highlight uses highlight style", func(t *testing.T) {
		a, _ := Created(ToolHighlight, []domain.Point{pt(0, 0), pt(30, 0)}, style)
		if a.Color != style.HighlightColor || a.StrokeWidth != style.HighlightWidth || a.Opacity != style.HighlightOpacity {
			t.Errorf("Created() = %+v", a)
		}
	})
}

func TestController_TextTool(t *testing.T) {
	c, s := newController(t)

	c.SetTool(ToolText)
	c.PointerDown(pt(100, 100))
	if c.Tool() != ToolSelect {
		t.Errorf("text tool should be one-shot, tool = %s", c.Tool())
	}
	if c.State() != StateEditingText {
		t.Fatalf("State() = %s, want editing-text", c.State())
	}
	id := s.Editing()

	c.Input("Hello")
	if c.KeyDown("Enter", true) {
		t.Error("shift+Enter must be left to the text input")
	}
	c.KeyDown("Enter", false)
	if s.Editing() != "" {
		t.Error("Enter should end editing")
	}
	a, ok := s.Get(id)
	if !ok || a.Text != "Hello" {
		t.Fatalf("Get() = %+v, %v", a, ok)
	}
	if s.Dirty() {
		t.Error("text edit was not committed")
	}
}

func TestController_EmptyTextBlurDeletes(t *testing.T) {
	c, s := newController(t)

	c.SetTool(ToolText)
	c.PointerDown(pt(100, 100))
	if len(s.Annotations()) != 1 {
		t.Fatal("text annotation was not created")
	}
	c.Blur()

	if got := s.PageMap().Count(); got != 0 {
		t.Errorf("Count() = %d, want 0", got)
	}
	if s.Editing() != "" || s.Selected() != "" {
		t.Error("editing state should be cleared")
	}
}

func TestController_DoubleClickEditsText(t *testing.T) {
	c, s := newController(t)
	a := s.Add(domain.Annotation{Kind: domain.KindText, X: 10, Y: 40, Text: "Hi", FontSize: 20})
	s.Select("")

	if !c.DoubleClick(pt(15, 30)) {
		t.Fatal("DoubleClick() = false")
	}
	if s.Editing() != a.ID || s.Selected() != a.ID {
		t.Errorf("editing=%q selected=%q, want %q", s.Editing(), s.Selected(), a.ID)
	}

	t.Run("ignores other kinds", func(t *testing.T) {
		c, s := newController(t)
		s.Add(domain.Annotation{Kind: domain.KindRectangle, X: 0, Y: 0, Width: 50, Height: 50})
		if c.DoubleClick(pt(25, 25)) {
			t.Error("DoubleClick() on rectangle = true")
		}
	})
}

func TestController_PointerUpOutsidePage(t *testing.T) {
	c, s := newController(t)
	c.SetTool(ToolLine)
	c.PointerDown(pt(10, 10))
	c.PointerUp(pt(-400, 5000))

	l := only(t, s)
	if l.X2 != -400 || l.Y2 != 5000 {
		t.Errorf("line end = (%v, %v)", l.X2, l.Y2)
	}
	if c.State() != StateToolArmed {
		t.Errorf("State() = %s, want tool-armed", c.State())
	}
}

func TestController_PointerCancel(t *testing.T) {
	t.Run("discards a creation that is too small", func(t *testing.T) {
		c, s := newController(t)
		c.SetTool(ToolDraw)
		c.PointerDown(pt(10, 10))
		c.PointerCancel()
		if len(s.Annotations()) != 0 {
			t.Error("single point path was kept")
		}
		if c.Gesture().Mode != ModeIdle {
			t.Error("gesture did not terminate")
		}
	})

	t.Run("keeps a valid creation", func(t *testing.T) {
		c, s := newController(t)
		c.SetTool(ToolArrow)
		c.PointerDown(pt(10, 10))
		c.PointerMove(pt(60, 60))
		c.PointerCancel()
		if a := only(t, s); a.Kind != domain.KindArrow {
			t.Errorf("Kind = %s", a.Kind)
		}
	})

	t.Run("commits a drag", func(t *testing.T) {
		c, s := newController(t)
		s.Add(domain.Annotation{Kind: domain.KindCheckmark, X: 0, Y: 0, Size: 60})
		c.PointerDown(pt(30, 30))
		c.PointerMove(pt(40, 30))
		c.PointerCancel()
		if s.Dirty() {
			t.Error("cancelled drag left uncommitted state")
		}
		if a := only(t, s); a.X != 10 {
			t.Errorf("X = %v, want 10", a.X)
		}
	})
}

func TestController_Checkmark(t *testing.T) {
	c, s := newController(t)
	c.SetTool(ToolCheckmark)
	c.PointerDown(pt(100, 100))
	c.PointerUp(pt(100, 100))
	c.PointerDown(pt(200, 200))

	if got := len(s.Annotations()); got != 2 {
		t.Errorf("len(Annotations()) = %d, want 2", got)
	}
	if c.Tool() != ToolCheckmark {
		t.Errorf("Tool() = %s, checkmark stays armed", c.Tool())
	}
	a := s.Annotations()[0]
	b, _ := geometry.Bounds(a)
	if b.Center() != pt(100, 100) {
		t.Errorf("checkmark centered at %v", b.Center())
	}
}

func TestController_SelectAndDelete(t *testing.T) {
	c, s := newController(t)
	below := s.Add(domain.Annotation{Kind: domain.KindRectangle, X: 0, Y: 0, Width: 100, Height: 100})
	above := s.Add(domain.Annotation{Kind: domain.KindRectangle, X: 200, Y: 200, Width: 100, Height: 100})

	c.PointerDown(pt(50, 50))
	c.PointerUp(pt(50, 50))
	if s.Selected() != below.ID {
		t.Fatalf("Selected() = %q, want %q", s.Selected(), below.ID)
	}

	c.PointerDown(pt(500, 500))
	if s.Selected() != "" {
		t.Error("click on empty space should deselect")
	}
	if c.State() != StateIdle {
		t.Errorf("State() = %s, want idle", c.State())
	}

	s.Select(above.ID)
	if !c.KeyDown("Delete", false) {
		t.Fatal("KeyDown(Delete) not handled")
	}
	if _, ok := s.Get(above.ID); ok {
		t.Error("selected annotation was not deleted")
	}
	if c.KeyDown("Delete", false) {
		t.Error("Delete without selection should not be handled")
	}
}

func TestController_InvalidStatesAreNoops(t *testing.T) {
	c, s := newController(t)
	s.Add(domain.Annotation{Kind: domain.KindRectangle, X: 0, Y: 0, Width: 100, Height: 100})
	before := s.PageMap()
	history := s.HistoryLen()

	c.PointerMove(pt(10, 10))
	c.PointerUp(pt(10, 10))
	c.PointerCancel()
	c.Input("ignored")
	c.Blur()
	c.FlushTextEdit()

	if diff := cmp.Diff(before, s.PageMap()); diff != "" {
		t.Errorf("state changed (-want +got):\n%s", diff)
	}
	if s.HistoryLen() != history {
		t.Errorf("history grew to %d", s.HistoryLen())
	}
}

func TestController_Settle(t *testing.T) {
	c, s := newController(t)
	c.SetTool(ToolText)
	c.PointerDown(pt(10, 10))
	c.Input("note")
	c.Settle()

	if s.Editing() != "" || s.Dirty() {
		t.Error("Settle() left a pending edit")
	}
	if a := only(t, s); a.Text != "note" {
		t.Errorf("Text = %q", a.Text)
	}
}
