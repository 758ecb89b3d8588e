// Package ui turns user intent on the canvas into board actions. It has no
// widgets of its own: a front end feeds it pointer events and commands and
// draws the Scene it exposes.
package ui

import (
	"fmt"
	"sync"

	"LocalBoard/internal/shape"
	"LocalBoard/internal/state"
)

// Coordinator is the host or client the board talks to.
type Coordinator interface {
	ID() string
	Submit(a state.Action) bool
	Undo() bool
	Redo() bool
	Get(id string) (shape.Shape, bool)
	Shapes() []shape.Shape
	Ghosts() []shape.Shape
	TopmostAt(p shape.Point) (shape.Shape, bool)
	OnChange(fn func())
}

// Scene is everything a renderer needs for one frame.
type Scene struct {
	Shapes   []shape.Shape // live shapes, bottom to top
	Ghosts   []shape.Shape // unconfirmed edits, pending deletes excluded
	Selected *shape.Shape
	Preview  *shape.Shape // the shape being dragged out
}

// Board is the headless drawing surface: current tool, color and stroke,
// the in-progress track and the selection.
type Board struct {
	// OnChange is called whenever the scene may need redrawing.
	OnChange func()

	coord         Coordinator
	canvas        shape.Rect
	tool          Tool
	currentColor  shape.Color
	currentStroke float64
	track         []shape.Point
	drawing       bool
	selected      string
	status        string
	mu            sync.Mutex
}

// NewBoard creates a board drawing through coord, with moves kept inside
// canvas.
func NewBoard(coord Coordinator, canvas shape.Rect) *Board {
	b := &Board{
		coord:         coord,
		canvas:        canvas,
		tool:          ToolPen,
		currentColor:  shape.Black,
		currentStroke: DefaultStroke,
		status:        "Ready",
	}
	coord.OnChange(b.refresh)
	return b
}

func (b *Board) refresh() {
	if b.OnChange != nil {
		b.OnChange()
	}
}

// SetTool switches tools and abandons any track in progress.
func (b *Board) SetTool(t Tool) {
	b.mu.Lock()
	b.tool = t
	b.drawing = false
	b.track = nil
	b.mu.Unlock()
	b.refresh()
}

func (b *Board) Tool() Tool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tool
}

func (b *Board) SetColor(c shape.Color) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.currentColor = c
}

// SetStroke sets the width of new shapes, clamped to the slider range.
func (b *Board) SetStroke(w float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.currentStroke = min(max(w, MinStroke), MaxStroke)
}

func (b *Board) Stroke() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentStroke
}

func (b *Board) SetStatus(text string) {
	b.mu.Lock()
	b.status = text
	b.mu.Unlock()
	b.refresh()
}

func (b *Board) Status() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// StartTrack handles a primary press at p. Drawing tools begin a track;
// select picks the shape under p; the eraser deletes it.
func (b *Board) StartTrack(p shape.Point) {
	b.mu.Lock()
	tool := b.tool
	if _, draws := tool.Kind(); draws {
		b.drawing = true
		b.track = []shape.Point{p}
	}
	b.mu.Unlock()

	switch tool {
	case ToolSelect:
		b.Select(p)
	case ToolEraser:
		if b.Select(p) {
			b.DeleteSelected()
		}
	default:
		b.refresh()
	}
}

// Track extends the track to p. Freehand keeps every point; the other
// kinds keep the start and the latest point.
func (b *Board) Track(p shape.Point) {
	b.mu.Lock()
	if !b.drawing {
		b.mu.Unlock()
		return
	}
	if b.tool == ToolPen || len(b.track) < 2 {
		b.track = append(b.track, p)
	} else {
		b.track[1] = p
	}
	b.mu.Unlock()
	b.refresh()
}

// StopTrack finishes the track and submits the shape it describes. A track
// with a single point draws nothing.
func (b *Board) StopTrack() (shape.Shape, bool) {
	b.mu.Lock()
	s, ok := b.preview()
	b.drawing = false
	b.track = nil
	b.mu.Unlock()

	if !ok {
		b.refresh()
		return shape.Shape{}, false
	}
	accepted := b.coord.Submit(state.CreateAction(s))
	b.refresh()
	return s, accepted
}

// preview must be called with b.mu held.
func (b *Board) preview() (shape.Shape, bool) {
	kind, draws := b.tool.Kind()
	if !b.drawing || !draws || len(b.track) < 2 {
		return shape.Shape{}, false
	}
	return shape.New(kind, shape.NewID(), b.track, b.currentColor, b.currentStroke, b.coord.ID()), true
}

// Select picks the topmost live shape under p, or clears the selection.
func (b *Board) Select(p shape.Point) bool {
	s, ok := b.coord.TopmostAt(p)
	b.mu.Lock()
	b.selected = ""
	if ok {
		b.selected = s.ID
	}
	b.mu.Unlock()
	b.refresh()
	return ok
}

// SelectID selects a shape by id.
func (b *Board) SelectID(id string) bool {
	s, ok := b.coord.Get(id)
	if !ok || s.IsDeleted {
		return false
	}
	b.mu.Lock()
	b.selected = id
	b.mu.Unlock()
	b.refresh()
	return true
}

// Selected returns the current snapshot of the selected shape.
func (b *Board) Selected() (shape.Shape, bool) {
	b.mu.Lock()
	id := b.selected
	b.mu.Unlock()
	if id == "" {
		return shape.Shape{}, false
	}
	s, ok := b.coord.Get(id)
	if !ok || s.IsDeleted {
		return shape.Shape{}, false
	}
	return s, true
}

func (b *Board) modifySelected(edit func(shape.Shape) shape.Shape) bool {
	current, ok := b.Selected()
	if !ok {
		return false
	}
	next := edit(current)
	if next.Equal(current) {
		return false
	}
	return b.coord.Submit(state.ModifyAction(current, next))
}

// MoveSelected moves the selection by offset, kept inside the canvas.
func (b *Board) MoveSelected(offset shape.Point) bool {
	return b.modifySelected(func(s shape.Shape) shape.Shape {
		return s.WithMove(offset, b.canvas, b.coord.ID())
	})
}

// RecolorSelected repaints the selection.
func (b *Board) RecolorSelected(c shape.Color) bool {
	return b.modifySelected(func(s shape.Shape) shape.Shape {
		return s.WithUpdates(&c, nil, b.coord.ID())
	})
}

// ResizeSelected changes the selection's stroke width.
func (b *Board) ResizeSelected(w float64) bool {
	w = min(max(w, MinStroke), MaxStroke)
	return b.modifySelected(func(s shape.Shape) shape.Shape {
		return s.WithUpdates(nil, &w, b.coord.ID())
	})
}

// DeleteSelected soft-deletes the selection and clears it.
func (b *Board) DeleteSelected() bool {
	current, ok := b.Selected()
	if !ok {
		return false
	}
	b.mu.Lock()
	b.selected = ""
	b.mu.Unlock()
	return b.coord.Submit(state.DeleteAction(current, b.coord.ID()))
}

// ClearMine deletes every live shape this participant created and reports
// how many deletions were accepted.
func (b *Board) ClearMine() int {
	me := b.coord.ID()
	n := 0
	for _, s := range b.coord.Shapes() {
		if s.CreatedBy == me && b.coord.Submit(state.DeleteAction(s, me)) {
			n++
		}
	}
	b.SetStatus(fmt.Sprintf("Cleared %d drawings", n))
	return n
}

func (b *Board) Undo() bool { return b.coord.Undo() }
func (b *Board) Redo() bool { return b.coord.Redo() }

// Scene snapshots what should be drawn now.
func (b *Board) Scene() Scene {
	sc := Scene{Shapes: b.coord.Shapes()}
	for _, g := range b.coord.Ghosts() {
		// a pending delete already hid the shape
		if !g.IsDeleted {
			sc.Ghosts = append(sc.Ghosts, g)
		}
	}
	if s, ok := b.Selected(); ok {
		sc.Selected = &s
	}
	b.mu.Lock()
	if p, ok := b.preview(); ok {
		sc.Preview = &p
	}
	b.mu.Unlock()
	return sc
}

// Render walks the scene bottom to top: shapes, ghosts, then the preview.
func (b *Board) Render(v shape.Visitor) {
	sc := b.Scene()
	for _, s := range sc.Shapes {
		s.Accept(v)
	}
	for _, s := range sc.Ghosts {
		s.Accept(v)
	}
	if sc.Preview != nil {
		sc.Preview.Accept(v)
	}
}
