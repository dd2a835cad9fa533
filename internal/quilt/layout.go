package quilt

import (
	"slices"

	"quilt/internal/prng"
)

const (
	minCenterHighlights = 3
	maxCenterHighlights = 8 // exclusive
)

// Layout is the highlight geometry of one generation.
type Layout struct {
	CrossRow         int   `json:"crossRow"`
	CrossCol         int   `json:"crossCol"`
	CenterHighlights []int `json:"centerHighlights"`
}

// CrossSquare returns the square index of the cross.
func (l Layout) CrossSquare() int {
	return l.CrossRow*GridSize + l.CrossCol
}

// HasCenterHighlight reports whether square carries a center highlight.
func (l Layout) HasCenterHighlight(square int) bool {
	return slices.Contains(l.CenterHighlights, square)
}

func (l Layout) Clone() Layout {
	l.CenterHighlights = slices.Clone(l.CenterHighlights)
	return l
}

// NewLayout reseeds rng and draws the cross square, the highlight count and
// each center highlight, in that order. Highlights are drawn without
// replacement from the squares other than the cross, keeping pool order
// stable as entries are removed.
func NewLayout(rng *prng.Source, seed int64) Layout {
	rng.Seed(seed)

	layout := Layout{
		CrossRow: floor(rng.Scale(GridSize)),
		CrossCol: floor(rng.Scale(GridSize)),
	}
	count := floor(rng.Between(minCenterHighlights, maxCenterHighlights))

	cross := layout.CrossSquare()
	pool := make([]int, 0, SquareCount-1)
	for square := 0; square < SquareCount; square++ {
		if square != cross {
			pool = append(pool, square)
		}
	}

	layout.CenterHighlights = make([]int, 0, count)
	for i := 0; i < count && len(pool) > 0; i++ {
		index := floor(rng.Scale(float64(len(pool))))
		layout.CenterHighlights = append(layout.CenterHighlights, pool[index])
		pool = slices.Delete(pool, index, index+1)
	}

	return layout
}

func (l Layout) validate() bool {
	if l.CrossRow < 0 || l.CrossRow >= GridSize || l.CrossCol < 0 || l.CrossCol >= GridSize {
		return false
	}
	cross := l.CrossSquare()
	seen := make(map[int]struct{}, len(l.CenterHighlights))
	for _, square := range l.CenterHighlights {
		if square < 0 || square >= SquareCount || square == cross {
			return false
		}
		if _, ok := seen[square]; ok {
			return false
		}
		seen[square] = struct{}{}
	}
	return true
}
