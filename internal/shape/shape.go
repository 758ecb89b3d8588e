// Package shape holds the whiteboard's geometric entities. Shapes are values:
// every mutation returns a new Shape carrying the same ID, so callers can keep
// the old value as a before-snapshot.
package shape

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Kind discriminates the shape variants.
type Kind int

const (
	Freehand Kind = iota + 1
	Line
	Rectangle
	Ellipse
	Triangle
)

var kindNames = map[Kind]string{
	Freehand:  "Freehand",
	Line:      "Line",
	Rectangle: "Rectangle",
	Ellipse:   "Ellipse",
	Triangle:  "Triangle",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Valid reports whether k is one of the known variants.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind maps a kind tag back to its Kind. Unknown tags report false.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// HitEpsilon is added to half the stroke thickness when hit testing.
const HitEpsilon = 4.0

// Shape is a drawn entity. Points holds the full stroke for Freehand and two
// opposite corners (or endpoints) for every other kind.
type Shape struct {
	ID             string
	Kind           Kind
	Points         []Point
	Color          Color
	Thickness      float64
	CreatedBy      string
	LastModifiedBy string
	IsDeleted      bool
}

// NewID returns a fresh shape identity.
func NewID() string {
	return uuid.NewString()
}

// New builds a shape of the given kind owned by owner. It panics on an
// unknown kind: the set of kinds is fixed at build time.
func New(kind Kind, id string, points []Point, color Color, thickness float64, owner string) Shape {
	if !kind.Valid() {
		panic(fmt.Sprintf("shape: unsupported kind %v", kind))
	}
	return Shape{
		ID:             id,
		Kind:           kind,
		Points:         clonePoints(points),
		Color:          color,
		Thickness:      thickness,
		CreatedBy:      owner,
		LastModifiedBy: owner,
	}
}

// clone copies s, including its point slice.
func (s Shape) clone() Shape {
	c := s
	c.Points = clonePoints(s.Points)
	return c
}

func clonePoints(points []Point) []Point {
	if points == nil {
		return nil
	}
	out := make([]Point, len(points))
	copy(out, points)
	return out
}

// WithUpdates overrides color and/or thickness when given.
func (s Shape) WithUpdates(color *Color, thickness *float64, editor string) Shape {
	c := s.clone()
	if color != nil {
		c.Color = *color
	}
	if thickness != nil {
		c.Thickness = *thickness
	}
	c.LastModifiedBy = editor
	return c
}

// WithMove translates the shape by offset, clamped so the bounding box stays
// inside bounds. A shape with a zero-extent box is returned as is.
func (s Shape) WithMove(offset Point, bounds Rect, editor string) Shape {
	box := s.BoundingBox()
	if box.IsEmpty() {
		return s
	}
	d := clampOffset(box, bounds, offset)
	c := s.clone()
	for i := range c.Points {
		c.Points[i] = c.Points[i].Add(d)
	}
	c.LastModifiedBy = editor
	return c
}

// WithDelete marks the shape as a tombstone.
func (s Shape) WithDelete(editor string) Shape {
	c := s.clone()
	c.IsDeleted = true
	c.LastModifiedBy = editor
	return c
}

// WithResurrect clears the tombstone flag.
func (s Shape) WithResurrect(editor string) Shape {
	c := s.clone()
	c.IsDeleted = false
	c.LastModifiedBy = editor
	return c
}

// Equal reports whether s and o are the same snapshot.
func (s Shape) Equal(o Shape) bool {
	return s.ID == o.ID && s.Kind == o.Kind && s.Color == o.Color &&
		s.Thickness == o.Thickness && s.CreatedBy == o.CreatedBy &&
		s.LastModifiedBy == o.LastModifiedBy && s.IsDeleted == o.IsDeleted &&
		slices.Equal(s.Points, o.Points)
}

// BoundingBox is the axis-aligned box around the defining points.
func (s Shape) BoundingBox() Rect {
	return boundsOf(s.Points)
}

// Tolerance is the hit distance around the stroke.
func (s Shape) Tolerance() float64 {
	return s.Thickness/2 + HitEpsilon
}
