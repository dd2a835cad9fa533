package quilt

import (
	"math"

	"quilt/internal/palette"
	"quilt/internal/prng"
)

// Tier is the contrast band that decides how far apart a square's two
// palette colors are drawn.
type Tier int

const (
	TierHigh Tier = iota
	TierMedium
	TierLowMedium
	TierLow
)

func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "HIGH"
	case TierMedium:
		return "MEDIUM"
	case TierLowMedium:
		return "LOW-MEDIUM"
	default:
		return "LOW"
	}
}

// TierFor maps a uniform draw in [0,1) onto the half-open tier bands
// [0,0.4) [0.4,0.75) [0.75,0.95) [0.95,1).
func TierFor(v float64) Tier {
	switch {
	case v < 0.4:
		return TierHigh
	case v < 0.75:
		return TierMedium
	case v < 0.95:
		return TierLowMedium
	default:
		return TierLow
	}
}

// PickPair draws the two palette colors of one square. The palette is
// luma-sorted, so low indices are the brightest. Indices are always bounded
// by the live palette length, which may be shorter than palette.Size.
func PickPair(rng *prng.Source, tier Tier, p palette.Palette) (palette.Color, palette.Color) {
	first, second := pairIndices(rng, tier, len(p))
	return p[first], p[second]
}

func pairIndices(rng *prng.Source, tier Tier, n int) (int, int) {
	length := float64(n)

	switch tier {
	case TierHigh:
		dark := floor(rng.Between(18, math.Min(23, length)))
		light := floor(rng.Between(0, math.Min(8, length)))
		return clampIndex(dark, n), clampIndex(light, n)
	case TierMedium:
		first := floor(rng.Scale(length))
		offset := floor(rng.Between(5, 10))
		return clampIndex(first, n), clampIndex((first+offset)%n, n)
	case TierLowMedium:
		first := floor(rng.Between(6, math.Min(18, length)))
		offset := floor(rng.Between(3, 5))
		return clampIndex(first, n), clampIndex(first+offset, n)
	default:
		first := floor(rng.Scale(length))
		offset := floor(rng.Between(1, 3))
		return clampIndex(first, n), clampIndex((first+offset)%n, n)
	}
}

func floor(v float64) int {
	return int(math.Floor(v))
}

func clampIndex(index, n int) int {
	return max(0, min(index, n-1))
}
