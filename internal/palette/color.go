package palette

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"quilt/internal/logging"
)

// ErrMalformedHex is returned for strings that are not #RRGGBB.
var ErrMalformedHex = errors.New("malformed hex color")

// Color is an opaque 8-bit RGB color. Its canonical text form is "#RRGGBB"
// with uppercase digits.
type Color struct {
	R uint8
	G uint8
	B uint8
}

// RGB builds a Color, clamping each channel into [0,255].
func RGB(r, g, b int) Color {
	return Color{R: clampChannel(r), G: clampChannel(g), B: clampChannel(b)}
}

// ParseHex parses "#RRGGBB" or "RRGGBB", case-insensitively.
func ParseHex(value string) (Color, error) {
	digits := strings.TrimPrefix(value, "#")
	if len(digits) != 6 {
		return Color{}, fmt.Errorf("%w: %q", ErrMalformedHex, value)
	}

	n, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q", ErrMalformedHex, value)
	}

	return Color{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n)}, nil
}

// MustParseHex is ParseHex for package-level constants.
func MustParseHex(value string) Color {
	c, err := ParseHex(value)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseHexList parses every entry, skipping malformed ones.
func ParseHexList(values []string) []Color {
	colors := make([]Color, 0, len(values))
	for _, value := range values {
		c, err := ParseHex(strings.TrimSpace(value))
		if err != nil {
			logging.Logger().Debug("skipping palette entry", "value", value, "err", err)
			continue
		}
		colors = append(colors, c)
	}
	return colors
}

// Hex returns the canonical "#RRGGBB" form.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func (c Color) String() string {
	return c.Hex()
}

// RGBA implements image/color.Color. The color is always opaque.
func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	return r, g, b, 0xffff
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseHex(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Luma is the weighted brightness 0.299R + 0.587G + 0.114B.
func (c Color) Luma() float64 {
	return float64(int(c.R)*299+int(c.G)*587+int(c.B)*114) / 1000
}

// Scale multiplies every channel by factor, rounding half up and clamping.
func (c Color) Scale(factor float64) Color {
	return Color{
		R: clampChannel(roundHalfUp(float64(c.R) * factor)),
		G: clampChannel(roundHalfUp(float64(c.G) * factor)),
		B: clampChannel(roundHalfUp(float64(c.B) * factor)),
	}
}

// Lerp interpolates from a towards b by ratio, rounding half up per channel.
func Lerp(a, b Color, ratio float64) Color {
	mix := func(from, to uint8) uint8 {
		return clampChannel(roundHalfUp(float64(from) + (float64(to)-float64(from))*ratio))
	}
	return Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B)}
}

// Distance is the Euclidean distance between a and b in RGB space.
func Distance(a, b Color) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

func clampChannel(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
