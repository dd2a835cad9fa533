package quilt

import (
	"fmt"

	"quilt/internal/palette"
)

// State fully determines a rendered pattern. It is the unit stored in
// history.
type State struct {
	Seed int64 `json:"seed"`
	Layout
	Palette        palette.Palette `json:"palette"`
	HighlightColor palette.Color   `json:"highlightColor"`
}

// Clone returns a deep copy.
func (s State) Clone() State {
	s.Layout = s.Layout.Clone()
	s.Palette = s.Palette.Clone()
	return s
}

// Validate checks the geometry and palette of s.
func (s State) Validate() error {
	if len(s.Palette) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidState, ErrEmptyPalette)
	}
	if !s.Layout.validate() {
		return fmt.Errorf("%w: cross (%d,%d) highlights %v", ErrInvalidState, s.CrossRow, s.CrossCol, s.CenterHighlights)
	}
	return nil
}
