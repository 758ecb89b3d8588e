// Package export renders a board to PDF.
package export

import (
	"fmt"
	"io"
	"math"

	"github.com/jung-kurt/gofpdf"

	"LocalBoard/internal/shape"
)

const (
	pageMargin = 10.0 // mm
	ghostAlpha = 0.4
)

// Options controls the page layout.
type Options struct {
	// Canvas is the drawing area mapped onto the page.
	Canvas shape.Rect
	// Title is printed above the drawing when set.
	Title string
}

// WritePDF renders the live shapes bottom to top, then the ghosts
// translucent, onto a single landscape A4 page. Deleted shapes are skipped
// in both lists.
func WritePDF(w io.Writer, shapes, ghosts []shape.Shape, opts Options) error {
	p := render(shapes, ghosts, opts)
	if err := p.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// ExportPDF is WritePDF into a file at path.
func ExportPDF(path string, shapes, ghosts []shape.Shape, opts Options) error {
	p := render(shapes, ghosts, opts)
	if err := p.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	return nil
}

func render(shapes, ghosts []shape.Shape, opts Options) *gofpdf.Fpdf {
	p := gofpdf.New("L", "mm", "A4", "")
	p.SetTitle(opts.Title, true)
	p.AddPage()

	top := pageMargin
	if opts.Title != "" {
		p.SetFont("Helvetica", "B", 12)
		p.Text(pageMargin, pageMargin+4, opts.Title)
		top += 8
	}

	pageW, pageH := p.GetPageSize()
	v := &pdfVisitor{pdf: p, originX: pageMargin, originY: top, scale: 1}
	canvas := opts.Canvas
	if canvas.Width > 0 && canvas.Height > 0 {
		v.scale = math.Min((pageW-2*pageMargin)/float64(canvas.Width), (pageH-top-pageMargin)/float64(canvas.Height))
		v.canvasX, v.canvasY = float64(canvas.X), float64(canvas.Y)
		p.SetDrawColor(200, 200, 200)
		p.SetLineWidth(0.2)
		p.Rect(v.originX, v.originY, float64(canvas.Width)*v.scale, float64(canvas.Height)*v.scale, "D")
	}

	for _, s := range shapes {
		if !s.IsDeleted {
			s.Accept(v)
		}
	}
	// a pending delete is a tombstone ghost with nothing to draw
	var pending []shape.Shape
	for _, s := range ghosts {
		if !s.IsDeleted {
			pending = append(pending, s)
		}
	}
	if len(pending) > 0 {
		p.SetAlpha(ghostAlpha, "Normal")
		for _, s := range pending {
			s.Accept(v)
		}
		p.SetAlpha(1, "Normal")
	}
	return p
}

// pdfVisitor draws each kind with the matching gofpdf primitive.
type pdfVisitor struct {
	pdf              *gofpdf.Fpdf
	originX, originY float64
	canvasX, canvasY float64
	scale            float64
}

var _ shape.Visitor = (*pdfVisitor)(nil)

func (v *pdfVisitor) pt(p shape.Point) (float64, float64) {
	return v.originX + (float64(p.X)-v.canvasX)*v.scale, v.originY + (float64(p.Y)-v.canvasY)*v.scale
}

// pen sets color and width; it reports false for shapes with too few points
// to draw.
func (v *pdfVisitor) pen(s shape.Shape, minPoints int) bool {
	if len(s.Points) < minPoints {
		return false
	}
	_, r, g, b := s.Color.ARGB()
	v.pdf.SetDrawColor(int(r), int(g), int(b))
	v.pdf.SetLineWidth(math.Max(s.Thickness*v.scale, 0.1))
	v.pdf.SetLineCapStyle("round")
	v.pdf.SetLineJoinStyle("round")
	return true
}

func (v *pdfVisitor) polyline(points []shape.Point) {
	for i := 1; i < len(points); i++ {
		x1, y1 := v.pt(points[i-1])
		x2, y2 := v.pt(points[i])
		v.pdf.Line(x1, y1, x2, y2)
	}
}

func (v *pdfVisitor) VisitFreehand(s shape.Shape) {
	if v.pen(s, 2) {
		v.polyline(s.Points)
	}
}

func (v *pdfVisitor) VisitLine(s shape.Shape) {
	if v.pen(s, 2) {
		v.polyline(s.Points[:2])
	}
}

func (v *pdfVisitor) VisitRectangle(s shape.Shape) {
	if !v.pen(s, 2) {
		return
	}
	box := shape.NewRect(s.Points[0], s.Points[1])
	x, y := v.pt(shape.Point{X: box.X, Y: box.Y})
	v.pdf.Rect(x, y, float64(box.Width)*v.scale, float64(box.Height)*v.scale, "D")
}

func (v *pdfVisitor) VisitEllipse(s shape.Shape) {
	if !v.pen(s, 2) {
		return
	}
	box := shape.NewRect(s.Points[0], s.Points[1])
	rx, ry := float64(box.Width)/2*v.scale, float64(box.Height)/2*v.scale
	x, y := v.pt(shape.Point{X: box.X, Y: box.Y})
	v.pdf.Ellipse(x+rx, y+ry, rx, ry, 0, "D")
}

func (v *pdfVisitor) VisitTriangle(s shape.Shape) {
	if !v.pen(s, 2) {
		return
	}
	corners := shape.TriangleVertices(s.Points[0], s.Points[1])
	points := make([]gofpdf.PointType, 0, len(corners))
	for _, c := range corners {
		x, y := v.pt(c)
		points = append(points, gofpdf.PointType{X: x, Y: y})
	}
	v.pdf.Polygon(points, "D")
}
