package palette

import (
	"github.com/lucasb-eyer/go-colorful"
)

var (
	darkText  = MustParseHex("#000000")
	lightText = MustParseHex("#FFFFFF")
)

// Swatch describes one palette entry for display.
type Swatch struct {
	Index     int     `json:"index"`
	Hex       string  `json:"hex"`
	R         int     `json:"r"`
	G         int     `json:"g"`
	B         int     `json:"b"`
	Luma      float64 `json:"luma"`
	TextColor string  `json:"textColor"`
	Lightness float64 `json:"lightness"`
	Chroma    float64 `json:"chroma"`
	Hue       float64 `json:"hue"`
}

// TextColor picks black or white text for legibility on c.
func TextColor(c Color) Color {
	if c.Luma() > 128 {
		return darkText
	}
	return lightText
}

// Describe returns display metadata for every entry of p.
func Describe(p Palette) []Swatch {
	swatches := make([]Swatch, len(p))
	for i, c := range p {
		hue, chroma, lightness := colorful.Color{
			R: float64(c.R) / 255,
			G: float64(c.G) / 255,
			B: float64(c.B) / 255,
		}.Hcl()

		swatches[i] = Swatch{
			Index:     i,
			Hex:       c.Hex(),
			R:         int(c.R),
			G:         int(c.G),
			B:         int(c.B),
			Luma:      c.Luma(),
			TextColor: TextColor(c).Hex(),
			Lightness: lightness,
			Chroma:    chroma,
			Hue:       hue,
		}
	}
	return swatches
}
