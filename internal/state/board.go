package state

import (
	"sort"

	"LocalBoard/internal/shape"
)

// Board is a ShapeId -> Shape mapping: the host's canonical map or a
// client's replica. Tombstoned shapes stay in the map so they can be
// resurrected. Board is not safe for concurrent use; each coordinator owns
// exactly one and serializes access to it.
type Board struct {
	shapes map[string]shape.Shape
	order  []string // insertion order, bottom to top
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{shapes: make(map[string]shape.Shape)}
}

// Get looks a shape up by id, tombstones included.
func (b *Board) Get(id string) (shape.Shape, bool) {
	s, ok := b.shapes[id]
	return s, ok
}

// Put stores s under its id, replacing whatever snapshot was there.
func (b *Board) Put(s shape.Shape) {
	if _, exists := b.shapes[s.ID]; !exists {
		b.order = append(b.order, s.ID)
	}
	b.shapes[s.ID] = s
}

// Apply stores the action's New snapshot. It reports false when the action
// carries nothing to store.
func (b *Board) Apply(a Action) bool {
	if a.New == nil || a.New.ID == "" {
		return false
	}
	b.Put(*a.New)
	return true
}

// Len counts every shape, tombstones included.
func (b *Board) Len() int { return len(b.shapes) }

// Shapes returns every shape bottom to top, tombstones included.
func (b *Board) Shapes() []shape.Shape {
	out := make([]shape.Shape, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.shapes[id])
	}
	return out
}

// Visible returns the live shapes bottom to top.
func (b *Board) Visible() []shape.Shape {
	out := make([]shape.Shape, 0, len(b.order))
	for _, id := range b.order {
		if s := b.shapes[id]; !s.IsDeleted {
			out = append(out, s)
		}
	}
	return out
}

// CreatedBy returns the live shapes owned by owner.
func (b *Board) CreatedBy(owner string) []shape.Shape {
	var out []shape.Shape
	for _, s := range b.Visible() {
		if s.CreatedBy == owner {
			out = append(out, s)
		}
	}
	return out
}

// TopmostAt returns the most recently added live shape hit by p.
func (b *Board) TopmostAt(p shape.Point) (shape.Shape, bool) {
	for i := len(b.order) - 1; i >= 0; i-- {
		s := b.shapes[b.order[i]]
		if !s.IsDeleted && s.IsHit(p) {
			return s, true
		}
	}
	return shape.Shape{}, false
}

// Snapshot copies the mapping.
func (b *Board) Snapshot() map[string]shape.Shape {
	out := make(map[string]shape.Shape, len(b.shapes))
	for id, s := range b.shapes {
		out[id] = s
	}
	return out
}

// Replace swaps the whole mapping for shapes. Order is by id since a map
// carries none.
func (b *Board) Replace(shapes map[string]shape.Shape) {
	b.shapes = make(map[string]shape.Shape, len(shapes))
	b.order = make([]string, 0, len(shapes))
	for id, s := range shapes {
		b.shapes[id] = s
		b.order = append(b.order, id)
	}
	sort.Strings(b.order)
}
