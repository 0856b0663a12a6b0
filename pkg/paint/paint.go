// Package paint holds the RGBA colors attached to reactor layers and parts.
package paint

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a linear RGBA color with components in [0, 1].
type Color struct {
	R float64 `json:"r" yaml:"r"`
	G float64 `json:"g" yaml:"g"`
	B float64 `json:"b" yaml:"b"`
	A float64 `json:"a" yaml:"a"`
}

// RGB returns an opaque color.
func RGB(r, g, b float64) Color {
	return Color{R: r, G: g, B: b, A: 1}
}

// RGBA returns a color with an explicit alpha.
func RGBA(r, g, b, a float64) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// Valid reports whether every component lies in [0, 1].
func (c Color) Valid() bool {
	for _, v := range [4]float64{c.R, c.G, c.B, c.A} {
		if v < 0 || v > 1 {
			return false
		}
	}
	return true
}

// Bytes converts the color to 8-bit channels.
func (c Color) Bytes() (r, g, b, a uint8) {
	return toByte(c.R), toByte(c.G), toByte(c.B), toByte(c.A)
}

func toByte(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}

// Hex formats the color as #RRGGBB, or #RRGGBBAA when not opaque.
func (c Color) Hex() string {
	r, g, b, a := c.Bytes()
	if a == 255 {
		return fmt.Sprintf("#%02X%02X%02X", r, g, b)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", r, g, b, a)
}

func (c Color) String() string {
	return c.Hex()
}

// ParseHex parses #RRGGBB or #RRGGBBAA (the leading # is optional).
func ParseHex(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 && len(h) != 8 {
		return Color{}, fmt.Errorf("paint: invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("paint: invalid hex color %q: %w", s, err)
	}
	if len(h) == 6 {
		v = v<<8 | 0xFF
	}
	return Color{
		R: float64(v>>24&0xFF) / 255,
		G: float64(v>>16&0xFF) / 255,
		B: float64(v>>8&0xFF) / 255,
		A: float64(v&0xFF) / 255,
	}, nil
}

// Default is used for parts that have no assigned color.
var Default = RGB(0.121, 0.47, 0.705)

// Plasma is the default plasma color: translucent pink.
var Plasma = RGBA(1, 0.7, 0.8, 0.6)

// palette assigns distinct colors to consecutive layers.
var palette = []Color{
	RGB(0.4, 0.9, 0.4),
	RGB(0.6, 0.8, 0.6),
	RGB(0.1, 0.1, 0.9),
	RGB(0.4, 0.4, 0.8),
	RGB(0.5, 0.5, 0.8),
	RGB(0.91, 0.49, 0.13),
	RGB(0.61, 0.35, 0.71),
	RGB(0.1, 0.74, 0.61),
}

// Layer returns the palette color for the n-th (1-based) layer.
func Layer(n int) Color {
	if n < 1 {
		return Default
	}
	return palette[(n-1)%len(palette)]
}
