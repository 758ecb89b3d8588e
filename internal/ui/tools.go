package ui

import (
	"fmt"
	"strings"

	"LocalBoard/internal/shape"
)

// Tool is what a press on the canvas does.
type Tool int

const (
	ToolPen Tool = iota
	ToolLine
	ToolRectangle
	ToolEllipse
	ToolTriangle
	ToolSelect
	ToolEraser
)

var toolNames = []string{"pen", "line", "rectangle", "ellipse", "triangle", "select", "eraser"}

func (t Tool) String() string {
	if t >= 0 && int(t) < len(toolNames) {
		return toolNames[t]
	}
	return fmt.Sprintf("Tool(%d)", int(t))
}

// ParseTool accepts a tool name, case-insensitively.
func ParseTool(s string) (Tool, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range toolNames {
		if name == s {
			return Tool(i), nil
		}
	}
	return 0, fmt.Errorf("unknown tool %q", s)
}

// Kind is the shape a drawing tool produces; ok is false for select and
// eraser.
func (t Tool) Kind() (shape.Kind, bool) {
	switch t {
	case ToolPen:
		return shape.Freehand, true
	case ToolLine:
		return shape.Line, true
	case ToolRectangle:
		return shape.Rectangle, true
	case ToolEllipse:
		return shape.Ellipse, true
	case ToolTriangle:
		return shape.Triangle, true
	}
	return 0, false
}

// Stroke widths offered by the size slider.
const (
	MinStroke     = 1.0
	MaxStroke     = 50.0
	DefaultStroke = 2.0
)

// Palette lists the swatches in toolbar order.
var Palette = []shape.Color{shape.Black, shape.Red, shape.Green, shape.Blue, shape.Yellow}
