// Package colorutil provides shared color utilities for the flow canvas.
package colorutil

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Common colors used throughout the application.
var (
	Black       = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White       = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Yellow      = color.RGBA{R: 255, G: 235, B: 59, A: 255}
	Transparent = color.RGBA{}
)

// ParseHex parses "#rgb", "#rgba", "#rrggbb" or "#rrggbbaa".
func ParseHex(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(h) {
	case 3, 4:
		var b strings.Builder
		for _, r := range h {
			b.WriteRune(r)
			b.WriteRune(r)
		}
		h = b.String()
	case 6, 8:
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	if len(h) == 6 {
		h += "ff"
	}

	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.RGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}

// MustParseHex is ParseHex for compile-time constants; it panics on bad input.
func MustParseHex(s string) color.RGBA {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// WithAlpha returns c with its alpha replaced, as a non-premultiplied color.
func WithAlpha(c color.RGBA, alpha uint8) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: alpha}
}

// Hex formats a color as "#rrggbb", or "#rrggbbaa" when not opaque.
func Hex(c color.RGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
