package ui

import (
	"fmt"
	"strings"

	"LocalBoard/internal/shape"
)

// describer renders shapes as one text line each for the console front end.
type describer struct {
	lines  []string
	marker string
}

var _ shape.Visitor = (*describer)(nil)

func (d *describer) add(s shape.Shape, geometry string) {
	d.lines = append(d.lines, fmt.Sprintf("%s%-9s %s %s %s w=%g by %s",
		d.marker, s.Kind, short(s.ID), geometry, s.Color, s.Thickness, s.CreatedBy))
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func corners(s shape.Shape) string {
	if len(s.Points) < 2 {
		return "(?)"
	}
	a, b := s.Points[0], s.Points[1]
	return fmt.Sprintf("(%d,%d)-(%d,%d)", a.X, a.Y, b.X, b.Y)
}

func (d *describer) VisitFreehand(s shape.Shape) {
	d.add(s, fmt.Sprintf("%d points in %v", len(s.Points), s.BoundingBox()))
}

func (d *describer) VisitLine(s shape.Shape)      { d.add(s, corners(s)) }
func (d *describer) VisitRectangle(s shape.Shape) { d.add(s, corners(s)) }
func (d *describer) VisitEllipse(s shape.Shape)   { d.add(s, corners(s)) }

func (d *describer) VisitTriangle(s shape.Shape) {
	if len(s.Points) < 2 {
		d.add(s, "(?)")
		return
	}
	v := shape.TriangleVertices(s.Points[0], s.Points[1])
	parts := make([]string, len(v))
	for i, p := range v {
		parts[i] = fmt.Sprintf("(%d,%d)", p.X, p.Y)
	}
	d.add(s, strings.Join(parts, "-"))
}

// Describe lists the scene one shape per line; ghosts are prefixed with "~"
// and the selection with "*".
func Describe(sc Scene) []string {
	d := &describer{}
	for _, s := range sc.Shapes {
		d.marker = "  "
		if sc.Selected != nil && sc.Selected.ID == s.ID {
			d.marker = "* "
		}
		s.Accept(d)
	}
	d.marker = "~ "
	for _, s := range sc.Ghosts {
		s.Accept(d)
	}
	return d.lines
}
