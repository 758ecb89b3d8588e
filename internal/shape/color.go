package shape

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a 32-bit ARGB value.
type Color uint32

// Palette colors offered by the toolbar.
const (
	Black  Color = 0xFF000000
	White  Color = 0xFFFFFFFF
	Red    Color = 0xFFFF0000
	Green  Color = 0xFF00FF00
	Blue   Color = 0xFF0000FF
	Yellow Color = 0xFFFFFF00
)

var namedColors = map[string]Color{
	"black":  Black,
	"white":  White,
	"red":    Red,
	"green":  Green,
	"blue":   Blue,
	"yellow": Yellow,
}

// ARGB splits c into its channels.
func (c Color) ARGB() (a, r, g, b uint8) {
	return uint8(c >> 24), uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// String renders the color as an #AARRGGBB token.
func (c Color) String() string {
	return fmt.Sprintf("#%08X", uint32(c))
}

// ParseColor accepts an #AARRGGBB token or one of the palette names.
func ParseColor(s string) (Color, error) {
	if c, ok := namedColors[strings.ToLower(s)]; ok {
		return c, nil
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 8 {
		return 0, fmt.Errorf("color %q: want 8 hex digits", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("color %q: %w", s, err)
	}
	return Color(v), nil
}
