package quilt

import (
	"quilt/internal/palette"
	"quilt/internal/prng"
)

// Role says why a patch got its fill.
type Role string

const (
	RoleCross  Role = "cross"
	RoleCenter Role = "center"
	RolePair   Role = "pair"
)

// Patch is one resolved rectangle of a pattern.
type Patch struct {
	Square   int           `json:"square"`
	Position int           `json:"position"` // 1..9, row-major within the square
	X        float64       `json:"x"`
	Y        float64       `json:"y"`
	Size     float64       `json:"size"`
	Fill     palette.Color `json:"fill"`
	Role     Role          `json:"role"`
	Tier     Tier          `json:"tier"`
}

// Surface receives patches in draw order.
type Surface interface {
	FillRect(x, y, w, h float64, fill palette.Color) error
}

// Derive replays state at the given canvas size and hands every patch to
// emit, squares row-major then patches row-major. rng is reseeded from
// state.Seed, so repeated calls emit identical sequences. Per square it draws
// the tier, the pair indices and then the light/dark flip.
func Derive(rng *prng.Source, state State, size float64, emit func(Patch) error) error {
	if len(state.Palette) == 0 {
		return ErrEmptyPalette
	}

	squareSize := size / GridSize
	patchSize := squareSize / PatchGrid
	cross := state.CrossSquare()

	rng.Seed(state.Seed)
	for row := 0; row < GridSize; row++ {
		for col := 0; col < GridSize; col++ {
			square := row*GridSize + col
			tier := TierFor(rng.Float64())
			first, second := PickPair(rng, tier, state.Palette)
			startWithLight := rng.Float64() > 0.5
			centerHighlight := state.HasCenterHighlight(square)

			originX := float64(col) * squareSize
			originY := float64(row) * squareSize
			for i := 0; i < PatchGrid; i++ {
				for j := 0; j < PatchGrid; j++ {
					position := i*PatchGrid + j + 1
					patch := Patch{
						Square:   square,
						Position: position,
						X:        originX + float64(j)*patchSize,
						Y:        originY + float64(i)*patchSize,
						Size:     patchSize,
						Tier:     tier,
					}

					switch {
					case square == cross && position%2 == 0:
						patch.Fill, patch.Role = state.HighlightColor, RoleCross
					case centerHighlight && i == 1 && j == 1:
						patch.Fill, patch.Role = state.HighlightColor, RoleCenter
					default:
						useFirst := (i+j)%2 == 0
						if startWithLight {
							useFirst = !useFirst
						}
						patch.Fill, patch.Role = second, RolePair
						if useFirst {
							patch.Fill = first
						}
					}

					if err := emit(patch); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// Draw replays state onto surface.
func Draw(rng *prng.Source, state State, surface Surface, size float64) error {
	return Derive(rng, state, size, func(p Patch) error {
		return surface.FillRect(p.X, p.Y, p.Size, p.Size, p.Fill)
	})
}
