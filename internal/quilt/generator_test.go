package quilt

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"quilt/internal/palette"
	"quilt/internal/prng"
)

func TestNewLayoutIsReproducible(t *testing.T) {
	t.Parallel()

	cases := []struct {
		seed int64
		want Layout
	}{
		{seed: 12345, want: Layout{CrossRow: 0, CrossCol: 0, CenterHighlights: []int{23, 32, 4, 17, 19}}},
		{seed: 0, want: Layout{CrossRow: 1, CrossCol: 1, CenterHighlights: []int{24, 14, 22, 11, 23, 18, 20}}},
		{seed: 42, want: Layout{CrossRow: 1, CrossCol: 0, CenterHighlights: []int{8, 14, 0, 18, 4}}},
		{seed: 1700000000000, want: Layout{CrossRow: 2, CrossCol: 4, CenterHighlights: []int{21, 20, 18, 12, 2}}},
	}

	rng := prng.New(0)
	for _, tc := range cases {
		got := NewLayout(rng, tc.seed)
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("seed %d: unexpected layout (-want +got):\n%s", tc.seed, diff)
		}
	}
}

func TestNewLayoutHighlightsAreDisjoint(t *testing.T) {
	t.Parallel()

	rng := prng.New(0)
	for seed := int64(0); seed < 500; seed++ {
		layout := NewLayout(rng, seed*7919)
		count := len(layout.CenterHighlights)
		if count < 3 || count > 7 {
			t.Fatalf("seed %d: %d center highlights", seed, count)
		}
		if layout.HasCenterHighlight(layout.CrossSquare()) {
			t.Fatalf("seed %d: cross square %d is also a center highlight", seed, layout.CrossSquare())
		}
		if !layout.validate() {
			t.Fatalf("seed %d: invalid layout %+v", seed, layout)
		}
	}
}

func TestTierForUsesHalfOpenBands(t *testing.T) {
	t.Parallel()

	cases := []struct {
		v    float64
		want Tier
	}{
		{0, TierHigh},
		{0.3999999, TierHigh},
		{0.4, TierMedium},
		{0.7499999, TierMedium},
		{0.75, TierLowMedium},
		{0.9499999, TierLowMedium},
		{0.95, TierLow},
		{0.9999999, TierLow},
	}
	for _, tc := range cases {
		if got := TierFor(tc.v); got != tc.want {
			t.Fatalf("TierFor(%v) = %s, want %s", tc.v, got, tc.want)
		}
	}
}

func TestPairIndicesStayInsideShortPalettes(t *testing.T) {
	t.Parallel()

	rng := prng.New(99)
	for _, n := range []int{1, 2, 5, 7, 12, 19, palette.Size} {
		for _, tier := range []Tier{TierHigh, TierMedium, TierLowMedium, TierLow} {
			for i := 0; i < 200; i++ {
				first, second := pairIndices(rng, tier, n)
				if first < 0 || first >= n || second < 0 || second >= n {
					t.Fatalf("n=%d tier=%s: indices (%d,%d) out of range", n, tier, first, second)
				}
			}
		}
	}
}

func TestHighTierPairsDarkWithLight(t *testing.T) {
	t.Parallel()

	rng := prng.New(7)
	for i := 0; i < 200; i++ {
		dark, light := pairIndices(rng, TierHigh, palette.Size)
		if dark < 18 || dark > 22 {
			t.Fatalf("dark index %d outside [18,22]", dark)
		}
		if light < 0 || light > 7 {
			t.Fatalf("light index %d outside [0,7]", light)
		}
	}
}

func TestDrawBeforeGenerateFails(t *testing.T) {
	t.Parallel()

	g := NewGenerator(palette.Grayscale(), DefaultHighlight)
	if _, err := g.Patches(CanonicalSize); !errors.Is(err, ErrNotGenerated) {
		t.Fatalf("Patches: expected ErrNotGenerated, got %v", err)
	}
	if err := g.Draw(&countingSurface{}, CanonicalSize); !errors.Is(err, ErrNotGenerated) {
		t.Fatalf("Draw: expected ErrNotGenerated, got %v", err)
	}
	if _, err := g.State(); !errors.Is(err, ErrNotGenerated) {
		t.Fatalf("State: expected ErrNotGenerated, got %v", err)
	}
}

func TestDrawIsDeterministic(t *testing.T) {
	t.Parallel()

	g := NewGenerator(palette.Grayscale(), ImageHighlight)
	if _, err := g.GenerateWithSeed(12345); err != nil {
		t.Fatalf("generate: %v", err)
	}

	first, err := g.Patches(CanonicalSize)
	if err != nil {
		t.Fatalf("patches: %v", err)
	}
	second, err := g.Patches(CanonicalSize)
	if err != nil {
		t.Fatalf("patches: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("replay differs (-first +second):\n%s", diff)
	}
	if len(first) != PatchCount {
		t.Fatalf("expected %d patches, got %d", PatchCount, len(first))
	}
}

func TestPatchesForSeed12345(t *testing.T) {
	t.Parallel()

	g := NewGenerator(palette.Grayscale(), ImageHighlight)
	if _, err := g.GenerateWithSeed(12345); err != nil {
		t.Fatalf("generate: %v", err)
	}
	patches, err := g.Patches(CanonicalSize)
	if err != nil {
		t.Fatalf("patches: %v", err)
	}

	want := []string{
		"#D7D7D7", "#E63946", "#D7D7D7", "#E63946", "#D7D7D7", "#E63946", "#D7D7D7", "#E63946", "#D7D7D7",
		"#9B9B9B", "#B9B9B9", "#9B9B9B", "#B9B9B9", "#9B9B9B", "#B9B9B9", "#9B9B9B", "#B9B9B9", "#9B9B9B",
	}
	got := make([]string, 0, len(want))
	for _, p := range patches[:len(want)] {
		got = append(got, p.Fill.Hex())
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected fills (-want +got):\n%s", diff)
	}

	highlighted := 0
	for _, p := range patches {
		if p.Role != RolePair {
			highlighted++
			if p.Fill != ImageHighlight {
				t.Fatalf("highlight patch %+v has fill %s", p, p.Fill)
			}
		}
	}
	if highlighted != 4+5 {
		t.Fatalf("expected 9 highlighted patches, got %d", highlighted)
	}

	if patches[0].Tier != TierHigh || patches[9].Tier != TierLowMedium {
		t.Fatalf("unexpected tiers %s, %s", patches[0].Tier, patches[9].Tier)
	}

	last := patches[PatchCount-1]
	if last.X != 425 || last.Y != 425 || last.Size != 25 {
		t.Fatalf("unexpected last patch geometry %+v", last)
	}
}

func TestSetStateRoundTrip(t *testing.T) {
	t.Parallel()

	g := NewGenerator(palette.Grayscale(), DefaultHighlight)
	if _, err := g.GenerateWithSeed(424242); err != nil {
		t.Fatalf("generate: %v", err)
	}
	before, err := g.Patches(300)
	if err != nil {
		t.Fatalf("patches: %v", err)
	}

	state, err := g.State()
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if err := g.SetState(state); err != nil {
		t.Fatalf("set state: %v", err)
	}
	after, err := g.Patches(300)
	if err != nil {
		t.Fatalf("patches: %v", err)
	}
	if diff := cmp.Diff(before, after); diff != "" {
		t.Fatalf("round trip changed output (-before +after):\n%s", diff)
	}

	other := NewGenerator(palette.Palette{palette.RGB(1, 2, 3)}, ImageHighlight)
	if err := other.SetState(state); err != nil {
		t.Fatalf("set state on fresh generator: %v", err)
	}
	restored, err := other.Patches(300)
	if err != nil {
		t.Fatalf("patches: %v", err)
	}
	if diff := cmp.Diff(before, restored); diff != "" {
		t.Fatalf("restored generator differs (-want +got):\n%s", diff)
	}
}

func TestStateIsDeepCopied(t *testing.T) {
	t.Parallel()

	g := NewGenerator(palette.Grayscale(), DefaultHighlight)
	state, err := g.GenerateWithSeed(1)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	state.Palette[0] = palette.RGB(1, 1, 1)
	state.CenterHighlights[0] = 99

	current, err := g.State()
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if current.Palette[0] != palette.RGB(255, 255, 255) {
		t.Fatal("palette was shared with the caller")
	}
	if slices.Contains(current.CenterHighlights, 99) {
		t.Fatal("highlights were shared with the caller")
	}
}

func TestSetStateRejectsInvalidGeometry(t *testing.T) {
	t.Parallel()

	g := NewGenerator(palette.Grayscale(), DefaultHighlight)
	bad := []State{
		{Layout: Layout{CrossRow: 6}, Palette: palette.Grayscale()},
		{Layout: Layout{CrossRow: 1, CrossCol: 1, CenterHighlights: []int{7}}, Palette: palette.Grayscale()},
		{Layout: Layout{CenterHighlights: []int{3, 3}}, Palette: palette.Grayscale()},
		{Layout: Layout{CenterHighlights: []int{36}}, Palette: palette.Grayscale()},
		{Layout: Layout{CenterHighlights: []int{3}}},
	}
	for _, state := range bad {
		if err := g.SetState(state); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("SetState(%+v): expected ErrInvalidState, got %v", state, err)
		}
	}
	if g.Generated() {
		t.Fatal("rejected state left the generator generated")
	}
}

func TestUpdatePaletteAppliesOnNextDraw(t *testing.T) {
	t.Parallel()

	g := NewGenerator(palette.Grayscale(), ImageHighlight)
	if _, err := g.GenerateWithSeed(12345); err != nil {
		t.Fatalf("generate: %v", err)
	}

	short := palette.Grayscale()[:5]
	if err := g.UpdatePalette(short); err != nil {
		t.Fatalf("update palette: %v", err)
	}
	patches, err := g.Patches(CanonicalSize)
	if err != nil {
		t.Fatalf("patches: %v", err)
	}
	for _, p := range patches {
		if p.Role == RolePair && !short.Contains(p.Fill) {
			t.Fatalf("patch %+v uses color outside the short palette", p)
		}
	}

	if err := g.UpdatePalette(nil); !errors.Is(err, ErrEmptyPalette) {
		t.Fatalf("expected ErrEmptyPalette, got %v", err)
	}
}

func TestGenerateUsesClockSeed(t *testing.T) {
	t.Parallel()

	g := NewGenerator(palette.Grayscale(), DefaultHighlight)
	fixed := time.UnixMilli(1700000000000)
	g.now = func() time.Time { return fixed }

	state, err := g.Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if state.Seed != 1700000000000 {
		t.Fatalf("unexpected seed %d", state.Seed)
	}
	if diff := cmp.Diff([]int{21, 20, 18, 12, 2}, state.CenterHighlights); diff != "" {
		t.Fatalf("unexpected highlights (-want +got):\n%s", diff)
	}
}

func TestDrawMatchesPatches(t *testing.T) {
	t.Parallel()

	g := NewGenerator(palette.Grayscale(), ImageHighlight)
	if _, err := g.GenerateWithSeed(2024); err != nil {
		t.Fatalf("generate: %v", err)
	}
	surface := &countingSurface{}
	if err := g.Draw(surface, CanonicalSize); err != nil {
		t.Fatalf("draw: %v", err)
	}
	patches, err := g.Patches(CanonicalSize)
	if err != nil {
		t.Fatalf("patches: %v", err)
	}
	if len(surface.fills) != len(patches) {
		t.Fatalf("draw emitted %d rects, want %d", len(surface.fills), len(patches))
	}
	for i, p := range patches {
		if surface.fills[i] != p.Fill {
			t.Fatalf("rect %d fill %s, want %s", i, surface.fills[i], p.Fill)
		}
	}

	boom := errors.New("boom")
	if err := g.Draw(&countingSurface{err: boom}, CanonicalSize); !errors.Is(err, boom) {
		t.Fatalf("expected surface error, got %v", err)
	}
}

type countingSurface struct {
	fills []palette.Color
	err   error
}

func (s *countingSurface) FillRect(_, _, _, _ float64, fill palette.Color) error {
	if s.err != nil {
		return s.err
	}
	s.fills = append(s.fills, fill)
	return nil
}
