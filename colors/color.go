package colors

import (
	"image/color"
)

// Color is a linear RGB color with float64 components, nominally in [0,1].
// Components outside that range are kept as-is and only clamped when
// converted to 8-bit output.
type Color struct {
	R, G, B float64
}

func New(r, g, b float64) Color {
	return Color{R: r, G: g, B: b}
}

// RGBA implements color.Color. Channels are clamped to [0,1] and the
// result is fully opaque.
func (c Color) RGBA() (r, g, b, a uint32) {
	return uint32(clamp01(c.R) * 65535),
		uint32(clamp01(c.G) * 65535),
		uint32(clamp01(c.B) * 65535),
		0xffff
}

func Red() Color {
	return Color{R: 1, G: 0, B: 0}
}

func Blue() Color {
	return Color{R: 0, G: 0, B: 1}
}

func Green() Color {
	return Color{R: 0, G: 1, B: 0}
}

func White() Color {
	return Color{R: 1, G: 1, B: 1}
}

func Black() Color {
	return Color{}
}

// Add returns c + o (component-wise).
func (c Color) Add(o Color) Color {
	return Color{c.R + o.R, c.G + o.G, c.B + o.B}
}

// Mul returns c * o (component-wise).
func (c Color) Mul(o Color) Color {
	return Color{c.R * o.R, c.G * o.G, c.B * o.B}
}

// Scale returns c * s (scalar).
func (c Color) Scale(s float64) Color {
	return Color{c.R * s, c.G * s, c.B * s}
}

// Clamp01 clamps each component into [0,1].
func (c Color) Clamp01() Color {
	return Color{
		R: clamp01(c.R),
		G: clamp01(c.G),
		B: clamp01(c.B),
	}
}

// InUnitRange reports whether every channel lies in [0,1], boundaries included.
func (c Color) InUnitRange() bool {
	return inUnit(c.R) && inUnit(c.G) && inUnit(c.B)
}

// ToNRGBA returns the opaque 8-bit color, truncating toward zero.
func (c Color) ToNRGBA() color.NRGBA {
	return color.NRGBA{
		R: to8bit(c.R),
		G: to8bit(c.G),
		B: to8bit(c.B),
		A: 255,
	}
}

// --- helpers ---

func inUnit(x float64) bool {
	return x >= 0 && x <= 1
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// to8bit converts a channel to 0..255 as int(255 * clamp01(x)).
// NaN maps to 0.
func to8bit(x float64) uint8 {
	if x != x {
		return 0
	}
	return uint8(255.0 * clamp01(x))
}
