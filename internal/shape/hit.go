package shape

import "math"

// IsHit reports whether p touches the drawn stroke of the shape. Closed
// shapes only answer for their outline band, not their interior.
func (s Shape) IsHit(p Point) bool {
	if len(s.Points) == 0 {
		return false
	}
	tol := s.Tolerance()
	switch s.Kind {
	case Freehand, Line:
		return hitPolyline(s.Points, p, tol)
	case Rectangle:
		return hitRectangle(s.Points, p, tol)
	case Ellipse:
		return hitEllipse(s.Points, p, tol)
	case Triangle:
		return hitPolyline(triangleOutline(s.Points), p, tol)
	}
	return false
}

func hitPolyline(points []Point, p Point, tol float64) bool {
	if len(points) == 1 {
		return distanceToSegment(p, points[0], points[0]) <= tol
	}
	for i := 1; i < len(points); i++ {
		if distanceToSegment(p, points[i-1], points[i]) <= tol {
			return true
		}
	}
	return false
}

// corners returns the first and last defining points.
func corners(points []Point) (Point, Point) {
	return points[0], points[len(points)-1]
}

func hitRectangle(points []Point, p Point, tol float64) bool {
	a, b := corners(points)
	minX, maxX := minMax(a.X, b.X)
	minY, maxY := minMax(a.Y, b.Y)
	x, y := float64(p.X), float64(p.Y)

	inOuter := x >= float64(minX)-tol && x <= float64(maxX)+tol &&
		y >= float64(minY)-tol && y <= float64(maxY)+tol
	if !inOuter {
		return false
	}
	innerMinX, innerMaxX := float64(minX)+tol, float64(maxX)-tol
	innerMinY, innerMaxY := float64(minY)+tol, float64(maxY)-tol
	if innerMinX >= innerMaxX || innerMinY >= innerMaxY {
		return true
	}
	inInner := x > innerMinX && x < innerMaxX && y > innerMinY && y < innerMaxY
	return !inInner
}

func hitEllipse(points []Point, p Point, tol float64) bool {
	a, b := corners(points)
	cx := float64(a.X+b.X) / 2
	cy := float64(a.Y+b.Y) / 2
	rx := math.Abs(float64(b.X-a.X)) / 2
	ry := math.Abs(float64(b.Y-a.Y)) / 2
	dx, dy := float64(p.X)-cx, float64(p.Y)-cy

	if !insideEllipse(dx, dy, rx+tol, ry+tol) {
		return false
	}
	innerX, innerY := rx-tol, ry-tol
	if innerX <= 0 || innerY <= 0 {
		return true
	}
	return !insideEllipse(dx, dy, innerX, innerY)
}

func insideEllipse(dx, dy, rx, ry float64) bool {
	return (dx*dx)/(rx*rx)+(dy*dy)/(ry*ry) <= 1
}

// TriangleVertices derives the apex and both base corners from the two
// defining corners. The apex sits at the horizontal midpoint of the first
// corner's edge.
func TriangleVertices(a, b Point) [3]Point {
	return [3]Point{
		{X: (a.X + b.X) / 2, Y: a.Y},
		{X: b.X, Y: b.Y},
		{X: a.X, Y: b.Y},
	}
}

func triangleOutline(points []Point) []Point {
	a, b := corners(points)
	v := TriangleVertices(a, b)
	return []Point{v[0], v[1], v[2], v[0]}
}
