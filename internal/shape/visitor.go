package shape

// Visitor receives a shape through the method matching its kind.
type Visitor interface {
	VisitFreehand(s Shape)
	VisitLine(s Shape)
	VisitRectangle(s Shape)
	VisitEllipse(s Shape)
	VisitTriangle(s Shape)
}

// Accept dispatches s to v by kind.
func (s Shape) Accept(v Visitor) {
	switch s.Kind {
	case Freehand:
		v.VisitFreehand(s)
	case Line:
		v.VisitLine(s)
	case Rectangle:
		v.VisitRectangle(s)
	case Ellipse:
		v.VisitEllipse(s)
	case Triangle:
		v.VisitTriangle(s)
	}
}
