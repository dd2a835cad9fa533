// Package studio coordinates one editing session: the current palette, the
// pattern generator and the undo/redo timeline.
package studio

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"quilt/internal/history"
	"quilt/internal/logging"
	"quilt/internal/palette"
	"quilt/internal/quilt"
	"quilt/internal/render"
)

const EventStateChanged = "quilt:state"

const (
	SourceGrayscale = "grayscale"
	SourceImage     = "image"
	SourceCustom    = "custom"
)

var ErrNoValidColors = errors.New("no valid colors")

type Emitter func(eventName string, payload any)

type ChangeListener func(view View)

type View struct {
	SessionID     string           `json:"sessionId"`
	State         *quilt.State     `json:"state,omitempty"`
	Swatches      []palette.Swatch `json:"swatches"`
	PaletteSource string           `json:"paletteSource"`
	CanUndo       bool             `json:"canUndo"`
	CanRedo       bool             `json:"canRedo"`
	HistoryIndex  int              `json:"historyIndex"`
	HistoryLength int              `json:"historyLength"`
	HistoryLimit  int              `json:"historyLimit"`
	UpdatedAt     string           `json:"updatedAt"`
}

type Service struct {
	mu        sync.Mutex
	extractor *palette.Extractor
	generator *quilt.Generator
	history   *history.Store
	repo      *history.Repository
	sessionID string
	source    string
	updatedAt time.Time
	emit      Emitter
	onChange  ChangeListener
}

// NewService restores the most recent session from repo when there is one,
// otherwise it starts a new session with a grayscale pattern. repo may be
// nil.
func NewService(repo *history.Repository, extractor *palette.Extractor) *Service {
	if extractor == nil {
		extractor = palette.NewExtractor(nil)
	}

	service := &Service{
		extractor: extractor,
		generator: quilt.NewGenerator(palette.Grayscale(), quilt.DefaultHighlight),
		history:   history.NewStore(history.DefaultCapacity),
		repo:      repo,
		sessionID: uuid.NewString(),
		source:    SourceGrayscale,
	}

	if !service.loadSnapshot() {
		service.mu.Lock()
		if err := service.generateLocked(); err != nil {
			logging.Logger().Error("initial pattern generation failed", slog.Any("err", err))
		}
		view := service.viewLocked()
		service.mu.Unlock()
		service.persistSnapshot(view)
	}

	return service
}

func (s *Service) SetEmitter(emitter Emitter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emit = emitter
}

func (s *Service) SetOnChange(listener ChangeListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = listener
}

func (s *Service) GetState() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.viewLocked()
}

// Generate lays out a new pattern from a clock seed.
func (s *Service) Generate() (View, error) {
	return s.mutate(func() error {
		return s.generateLocked()
	})
}

// GenerateWithSeed lays out the pattern of seed with the current palette.
func (s *Service) GenerateWithSeed(seed int64) (View, error) {
	return s.mutate(func() error {
		if _, err := s.generator.GenerateWithSeed(seed); err != nil {
			return err
		}
		s.pushLocked()
		return nil
	})
}

// ApplyPalette swaps palette and highlight and lays out a new pattern.
func (s *Service) ApplyPalette(p palette.Palette, highlight palette.Color, source string) (View, error) {
	return s.mutate(func() error {
		return s.applyPaletteLocked(p, highlight, source)
	})
}

// SetPalette installs a custom palette as given and redraws the current
// layout with it. Malformed entries are skipped.
func (s *Service) SetPalette(hex []string) (View, error) {
	colors := palette.ParseHexList(hex)
	if len(colors) == 0 {
		return s.GetState(), ErrNoValidColors
	}

	return s.mutate(func() error {
		if err := s.generator.UpdatePalette(palette.Palette(colors)); err != nil {
			return err
		}
		s.source = SourceCustom
		s.pushLocked()
		return nil
	})
}

// SetHighlightColor redraws the current layout with a new highlight.
func (s *Service) SetHighlightColor(hex string) (View, error) {
	highlight, err := palette.ParseHex(hex)
	if err != nil {
		return s.GetState(), err
	}

	return s.mutate(func() error {
		s.generator.SetHighlightColor(highlight)
		s.pushLocked()
		return nil
	})
}

// ResetToGrayscale restores the default palette and highlight and lays out a
// new pattern.
func (s *Service) ResetToGrayscale() (View, error) {
	return s.ApplyPalette(palette.Grayscale(), quilt.DefaultHighlight, SourceGrayscale)
}

// LoadImage derives a palette from img and lays out a new pattern with the
// image highlight. Extraction failures degrade to the grayscale palette.
func (s *Service) LoadImage(img image.Image) (View, error) {
	p := s.extractor.ExtractFromImage(img)
	return s.ApplyPalette(p, quilt.ImageHighlight, SourceImage)
}

// LoadImageFile decodes path and calls LoadImage. Decoding errors leave the
// session untouched.
func (s *Service) LoadImageFile(path string) (View, error) {
	img, err := palette.LoadImage(path)
	if err != nil {
		return s.GetState(), fmt.Errorf("load image %s: %w", path, err)
	}
	return s.LoadImage(img)
}

func (s *Service) Undo() (View, bool) {
	return s.step(s.history.Undo, s.history.Redo)
}

func (s *Service) Redo() (View, bool) {
	return s.step(s.history.Redo, s.history.Undo)
}

// Patches resolves the current pattern at size.
func (s *Service) Patches(size float64) ([]quilt.Patch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generator.Patches(size)
}

// Seed returns the seed of the current pattern.
func (s *Service) Seed() (int64, error) {
	state, err := s.generator.State()
	if err != nil {
		return 0, err
	}
	return state.Seed, nil
}

// WriteSVG writes the current pattern at the canonical export size.
func (s *Service) WriteSVG(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.generator.State()
	if err != nil {
		return err
	}

	doc := render.NewSVG(w, quilt.CanonicalSize, fmt.Sprintf("Quilt pattern, seed %d", state.Seed))
	if err := s.generator.Draw(doc, quilt.CanonicalSize); err != nil {
		return fmt.Errorf("draw svg: %w", err)
	}
	return doc.Close()
}

// WritePNG rasterises the current pattern at size pixels square.
func (s *Service) WritePNG(w io.Writer, size int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.generator.Generated() {
		return quilt.ErrNotGenerated
	}

	raster, err := render.NewRaster(size)
	if err != nil {
		return err
	}
	defer raster.Close()

	if err := s.generator.Draw(raster, float64(size)); err != nil {
		return fmt.Errorf("draw raster: %w", err)
	}
	return raster.EncodePNG(w)
}

// step moves the history cursor and shows the state it lands on. A state the
// generator rejects is skipped by moving the cursor back with revert.
func (s *Service) step(move, revert func() (quilt.State, bool)) (View, bool) {
	s.mu.Lock()
	state, ok := move()
	if ok {
		if err := s.generator.SetState(state); err != nil {
			logging.Logger().Warn("history state rejected", slog.Any("err", err))
			revert()
			ok = false
		}
	}
	if !ok {
		view := s.viewLocked()
		s.mu.Unlock()
		return view, false
	}
	s.source = sourceFor(state)
	s.touchLocked()
	view := s.viewLocked()
	s.mu.Unlock()

	s.afterMutation(view)
	return view, true
}

func (s *Service) mutate(apply func() error) (View, error) {
	s.mu.Lock()
	if err := apply(); err != nil {
		view := s.viewLocked()
		s.mu.Unlock()
		return view, err
	}
	s.touchLocked()
	view := s.viewLocked()
	s.mu.Unlock()

	s.afterMutation(view)
	return view, nil
}

func (s *Service) applyPaletteLocked(p palette.Palette, highlight palette.Color, source string) error {
	if err := s.generator.UpdatePalette(p); err != nil {
		return err
	}
	s.generator.SetHighlightColor(highlight)
	s.source = source
	return s.generateLocked()
}

func (s *Service) generateLocked() error {
	if _, err := s.generator.Generate(); err != nil {
		return err
	}
	s.pushLocked()
	return nil
}

func (s *Service) pushLocked() {
	state, err := s.generator.State()
	if err != nil {
		return
	}
	s.history.Push(state)
}

func (s *Service) afterMutation(view View) {
	s.persistSnapshot(view)
	s.emitState(view)
	s.notifyChange(view)
}

func (s *Service) emitState(view View) {
	s.mu.Lock()
	emitter := s.emit
	s.mu.Unlock()

	if emitter != nil {
		emitter(EventStateChanged, view)
	}
}

func (s *Service) notifyChange(view View) {
	s.mu.Lock()
	listener := s.onChange
	s.mu.Unlock()

	if listener != nil {
		listener(view)
	}
}

func (s *Service) viewLocked() View {
	view := View{
		SessionID:     s.sessionID,
		PaletteSource: s.source,
		CanUndo:       s.history.CanUndo(),
		CanRedo:       s.history.CanRedo(),
		HistoryIndex:  s.history.Cursor(),
		HistoryLength: s.history.Len(),
		HistoryLimit:  s.history.Capacity(),
	}

	if state, err := s.generator.State(); err == nil {
		view.State = &state
		view.Swatches = palette.Describe(state.Palette)
	} else {
		view.Swatches = palette.Describe(s.generator.Palette())
	}

	if !s.updatedAt.IsZero() {
		view.UpdatedAt = s.updatedAt.UTC().Format(time.RFC3339)
	}

	return view
}

func (s *Service) touchLocked() {
	s.updatedAt = time.Now().UTC()
}

func (s *Service) loadSnapshot() bool {
	if s.repo == nil {
		return false
	}

	sessionID, snapshot, err := s.repo.Latest(context.Background())
	if err != nil {
		if !errors.Is(err, history.ErrSessionNotFound) {
			logging.Logger().Warn("restore history failed", slog.Any("err", err))
		}
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.history.Restore(snapshot)
	current, ok := s.history.Current()
	if !ok {
		return false
	}
	if err := s.generator.SetState(current); err != nil {
		logging.Logger().Warn("restored history state rejected", slog.Any("err", err))
		s.history.Restore(history.Snapshot{})
		return false
	}

	s.sessionID = sessionID
	s.source = sourceFor(current)
	s.touchLocked()
	logging.Logger().Info("restored history",
		slog.String("session", sessionID),
		slog.Int("states", s.history.Len()),
		slog.Int("cursor", s.history.Cursor()),
	)
	return true
}

func (s *Service) persistSnapshot(view View) {
	if s.repo == nil {
		return
	}

	if err := s.repo.Save(context.Background(), view.SessionID, s.history.Snapshot()); err != nil {
		logging.Logger().Warn("persist history failed", slog.String("session", view.SessionID), slog.Any("err", err))
	}
}

func sourceFor(state quilt.State) string {
	if slices.Equal(state.Palette, palette.Grayscale()) {
		return SourceGrayscale
	}
	if len(state.Palette) == palette.Size && state.HighlightColor == quilt.ImageHighlight {
		return SourceImage
	}
	return SourceCustom
}
