package shape

import "math"

// Point is a canvas coordinate.
type Point struct {
	X int
	Y int
}

// Add returns p translated by o.
func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

// Rect represents a rectangular area on the canvas
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// NewRect builds the axis-aligned box spanned by two opposite corners.
func NewRect(a, b Point) Rect {
	minX, maxX := minMax(a.X, b.X)
	minY, maxY := minMax(a.Y, b.Y)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func (r Rect) MaxX() int { return r.X + r.Width }
func (r Rect) MaxY() int { return r.Y + r.Height }

// IsEmpty reports whether the box has zero extent in both directions.
func (r Rect) IsEmpty() bool {
	return r.Width == 0 && r.Height == 0
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.MaxX() &&
		p.Y >= r.Y && p.Y <= r.MaxY()
}

// ContainsRect reports whether o lies entirely inside r.
func (r Rect) ContainsRect(o Rect) bool {
	return o.X >= r.X && o.MaxX() <= r.MaxX() &&
		o.Y >= r.Y && o.MaxY() <= r.MaxY()
}

// Overlaps reports whether the two areas share at least one point.
func (r Rect) Overlaps(o Rect) bool {
	return !(r.MaxX() < o.X || o.MaxX() < r.X ||
		r.MaxY() < o.Y || o.MaxY() < r.Y)
}

// Union returns the smallest area covering both r and o.
func (r Rect) Union(o Rect) Rect {
	minX := min(r.X, o.X)
	minY := min(r.Y, o.Y)
	maxX := max(r.MaxX(), o.MaxX())
	maxY := max(r.MaxY(), o.MaxY())
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// clampOffset shrinks offset so that box moved by it stays within bounds.
// A box larger than bounds is pinned to the bounds' origin on that axis.
func clampOffset(box, bounds Rect, offset Point) Point {
	return Point{
		X: clampAxis(box.X, box.MaxX(), bounds.X, bounds.MaxX(), offset.X),
		Y: clampAxis(box.Y, box.MaxY(), bounds.Y, bounds.MaxY(), offset.Y),
	}
}

func clampAxis(lo, hi, boundLo, boundHi, d int) int {
	if hi+d > boundHi {
		d = boundHi - hi
	}
	if lo+d < boundLo {
		d = boundLo - lo
	}
	return d
}

func boundsOf(points []Point) Rect {
	if len(points) <= 1 {
		return Rect{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := points[0].X, points[0].Y
	for _, p := range points[1:] {
		minX = min(minX, p.X)
		maxX = max(maxX, p.X)
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func minMax(a, b int) (int, int) {
	if a < b {
		return a, b
	}
	return b, a
}

// distanceToSegment is the euclidean distance from p to the segment a-b.
func distanceToSegment(p, a, b Point) float64 {
	px, py := float64(p.X), float64(p.Y)
	ax, ay := float64(a.X), float64(a.Y)
	bx, by := float64(b.X), float64(b.Y)

	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(px-ax, py-ay)
	}
	t := ((px-ax)*dx + (py-ay)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(px-(ax+t*dx), py-(ay+t*dy))
}
