// Package palette derives the fixed-size, brightness-ordered color palettes
// that patterns are drawn from.
package palette

import (
	"slices"

	"github.com/samber/lo"
)

// Size is the number of colors in every derived palette.
const Size = 24

// Palette is an ordered list of colors. Derived palettes hold exactly Size
// unique entries sorted by descending luma; custom palettes may be shorter.
type Palette []Color

// Clone returns an independent copy.
func (p Palette) Clone() Palette {
	if p == nil {
		return nil
	}
	return slices.Clone(p)
}

// Hex returns the canonical text form of every entry.
func (p Palette) Hex() []string {
	return lo.Map(p, func(c Color, _ int) string { return c.Hex() })
}

// Contains reports whether c is an entry of p.
func (p Palette) Contains(c Color) bool {
	return slices.Contains(p, c)
}

// Grayscale returns the default palette: entry i has every channel set to
// 255-10i, clamped to the valid range.
func Grayscale() Palette {
	p := make(Palette, Size)
	for i := range p {
		p[i] = RGB(255-i*10, 255-i*10, 255-i*10)
	}
	return p
}
