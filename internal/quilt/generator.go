package quilt

import (
	"sync"
	"time"

	"quilt/internal/palette"
	"quilt/internal/prng"
)

// Generator owns one seeded stream and the current pattern. It starts idle;
// drawing or exporting before the first generation fails with
// ErrNotGenerated. All methods are safe for concurrent use and serialise on
// the stream.
type Generator struct {
	mu        sync.Mutex
	rng       *prng.Source
	now       func() time.Time
	palette   palette.Palette
	highlight palette.Color
	seed      int64
	layout    Layout
	generated bool
}

func NewGenerator(p palette.Palette, highlight palette.Color) *Generator {
	return &Generator{
		rng:       prng.New(0),
		now:       time.Now,
		palette:   p.Clone(),
		highlight: highlight,
	}
}

// Generate starts a new pattern seeded from the wall clock.
func (g *Generator) Generate() (State, error) {
	return g.GenerateWithSeed(g.now().UnixMilli())
}

// GenerateWithSeed starts a new pattern from seed. Geometry only changes once
// the whole layout is drawn.
func (g *Generator) GenerateWithSeed(seed int64) (State, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.palette) == 0 {
		return State{}, ErrEmptyPalette
	}

	layout := NewLayout(g.rng, seed)
	g.seed = seed
	g.layout = layout
	g.generated = true
	return g.stateLocked(), nil
}

// UpdatePalette replaces the palette used by the next draw.
func (g *Generator) UpdatePalette(p palette.Palette) error {
	if len(p) == 0 {
		return ErrEmptyPalette
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.palette = p.Clone()
	return nil
}

// SetHighlightColor replaces the highlight used by the next draw.
func (g *Generator) SetHighlightColor(c palette.Color) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.highlight = c
}

func (g *Generator) Palette() palette.Palette {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.palette.Clone()
}

func (g *Generator) HighlightColor() palette.Color {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.highlight
}

func (g *Generator) Generated() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.generated
}

// State returns a deep copy of the current pattern.
func (g *Generator) State() (State, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.generated {
		return State{}, ErrNotGenerated
	}
	return g.stateLocked(), nil
}

// SetState overwrites seed, geometry, palette and highlight with a copy of
// state and leaves the generator ready to draw.
func (g *Generator) SetState(state State) error {
	if err := state.Validate(); err != nil {
		return err
	}

	state = state.Clone()

	g.mu.Lock()
	defer g.mu.Unlock()
	g.seed = state.Seed
	g.layout = state.Layout
	g.palette = state.Palette
	g.highlight = state.HighlightColor
	g.generated = true
	return nil
}

// Patches resolves every patch of the current pattern at size.
func (g *Generator) Patches(size float64) ([]Patch, error) {
	patches := make([]Patch, 0, PatchCount)
	err := g.derive(size, func(p Patch) error {
		patches = append(patches, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return patches, nil
}

// Draw replays the current pattern onto surface at size.
func (g *Generator) Draw(surface Surface, size float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.generated {
		return ErrNotGenerated
	}
	return Draw(g.rng, g.stateLocked(), surface, size)
}

func (g *Generator) derive(size float64, emit func(Patch) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.generated {
		return ErrNotGenerated
	}
	return Derive(g.rng, g.stateLocked(), size, emit)
}

func (g *Generator) stateLocked() State {
	return State{
		Seed:           g.seed,
		Layout:         g.layout.Clone(),
		Palette:        g.palette.Clone(),
		HighlightColor: g.highlight,
	}
}
