// Package quilt lays out seeded patchwork patterns.
//
// A pattern is a 6x6 grid of squares, each split into 3x3 patches. One cross
// square paints its four edge-midpoint patches with the highlight color, a
// handful of other squares paint their center patch with it, and every other
// patch alternates between two palette colors chosen per square by a
// contrast tier. Everything is replayed from a single seed, so a State
// reproduces its pattern exactly.
package quilt

import (
	"errors"

	"quilt/internal/palette"
)

const (
	GridSize      = 6
	PatchGrid     = 3
	SquareCount   = GridSize * GridSize
	PatchCount    = SquareCount * PatchGrid * PatchGrid
	CanonicalSize = 450
)

var (
	// DefaultHighlight is used with the grayscale palette.
	DefaultHighlight = palette.MustParseHex("#808080")
	// ImageHighlight is used once a palette was extracted from an image.
	ImageHighlight = palette.MustParseHex("#E63946")
)

var (
	ErrNotGenerated = errors.New("pattern not generated yet")
	ErrInvalidState = errors.New("invalid pattern state")
	ErrEmptyPalette = errors.New("palette is empty")
)
