package palette

import (
	"cmp"
	"errors"
	"math"
	"slices"

	"github.com/samber/lo"
)

var (
	// ErrNoColors is returned when there is nothing to derive a palette from.
	ErrNoColors = errors.New("no colors to derive a palette from")
	// ErrExpansionStalled is returned when neither interpolation nor
	// brightness variants produce a new color.
	ErrExpansionStalled = errors.New("palette expansion made no progress")
)

const (
	brighten = 1.2
	darken   = 0.85
)

// Derive turns arbitrary colors into a palette of exactly Size unique colors
// sorted by descending luma.
func Derive(colors []Color) (Palette, error) {
	unique := Dedupe(colors)
	if len(unique) == 0 {
		return nil, ErrNoColors
	}

	var err error
	switch {
	case len(unique) < Size:
		unique, err = Expand(unique, Size)
		if err != nil {
			return nil, err
		}
	case len(unique) > Size:
		unique = SelectMostDistinct(unique, Size)
	}

	return Palette(SortByLuma(unique)), nil
}

// Dedupe drops repeated colors, keeping first occurrences in order.
func Dedupe(colors []Color) []Color {
	return lo.Uniq(colors)
}

// Expand grows a list of unique colors to exactly target entries.
//
// Each round interpolates neighbouring pairs of the colors present at the
// start of the round, cycling the ratio through 0.5, 0.65 and 0.8. A round in
// which interpolation adds nothing falls back to brightness variants of the
// round's source colors.
func Expand(colors []Color, target int) ([]Color, error) {
	if len(colors) == 0 {
		return nil, ErrNoColors
	}

	expanded := slices.Clone(colors)
	for len(expanded) < target {
		needed := target - len(expanded)
		source := slices.Clone(expanded)

		for i := 0; i < needed && len(expanded) < target; i++ {
			first := source[i%len(source)]
			second := source[(i+1)%len(source)]
			ratio := 0.5 + float64(i%3)*0.15
			candidate := Lerp(first, second, ratio)
			if !slices.Contains(expanded, candidate) {
				expanded = append(expanded, candidate)
			}
		}

		if len(expanded) < target && len(expanded) == len(source) {
			variants := source[:min(target-len(expanded), len(source))]
			for _, c := range variants {
				if len(expanded) >= target {
					break
				}
				factor := darken
				if len(expanded)%2 == 0 {
					factor = brighten
				}
				candidate := c.Scale(factor)
				if !slices.Contains(expanded, candidate) {
					expanded = append(expanded, candidate)
				}
			}
		}

		// The passes above can cycle forever on near-uniform input; widen to
		// every source color and both factors before giving up.
		if len(expanded) < target && len(expanded) == len(source) {
			expanded = appendAnyVariant(expanded, source, target)
		}

		if len(expanded) == len(source) {
			return nil, ErrExpansionStalled
		}
	}

	return expanded[:target], nil
}

func appendAnyVariant(expanded, source []Color, target int) []Color {
	for _, c := range source {
		if len(expanded) >= target {
			break
		}
		factors := [2]float64{darken, brighten}
		if len(expanded)%2 == 0 {
			factors = [2]float64{brighten, darken}
		}
		for _, factor := range factors {
			candidate := c.Scale(factor)
			if !slices.Contains(expanded, candidate) {
				expanded = append(expanded, candidate)
				break
			}
		}
	}
	return expanded
}

// SelectMostDistinct greedily picks target colors, starting from the first,
// each time adding the candidate whose nearest selected color is farthest
// away. Ties go to the earliest candidate.
func SelectMostDistinct(colors []Color, target int) []Color {
	if len(colors) == 0 {
		return nil
	}

	selected := []Color{colors[0]}
	remaining := slices.Clone(colors[1:])

	for len(selected) < target && len(remaining) > 0 {
		best := 0
		bestDistance := -1.0
		for i, candidate := range remaining {
			nearest := math.Inf(1)
			for _, s := range selected {
				nearest = math.Min(nearest, Distance(candidate, s))
			}
			if nearest > bestDistance {
				bestDistance = nearest
				best = i
			}
		}
		selected = append(selected, remaining[best])
		remaining = slices.Delete(remaining, best, best+1)
	}

	return selected
}

// SortByLuma returns colors ordered brightest first. Equal luma keeps input
// order.
func SortByLuma(colors []Color) []Color {
	sorted := slices.Clone(colors)
	slices.SortStableFunc(sorted, func(a, b Color) int {
		return cmp.Compare(b.Luma(), a.Luma())
	})
	return sorted
}
