package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"quilt/internal/palette"
	"quilt/internal/quilt"
	"quilt/internal/studio"
	"quilt/internal/watch"
)

const maxPaletteCacheEntries = 32

type paletteCacheEntry struct {
	palette           palette.Palette
	sourceModUnixNano int64
	cachedAt          time.Time
}

type PaletteService struct {
	studio    *studio.Service
	extractor *palette.Extractor
	watcher   *watch.Service
	cacheMu   sync.RWMutex
	cache     map[string]paletteCacheEntry
}

func NewPaletteService(studioService *studio.Service, extractor *palette.Extractor) *PaletteService {
	if extractor == nil {
		extractor = palette.NewExtractor(nil)
	}

	service := &PaletteService{
		studio:    studioService,
		extractor: extractor,
		cache:     make(map[string]paletteCacheEntry),
	}
	service.watcher = watch.NewService(service.reload, watch.DefaultDelay)
	return service
}

func (s *PaletteService) Watcher() *watch.Service {
	return s.watcher
}

func (s *PaletteService) Grayscale() []palette.Swatch {
	return palette.Describe(palette.Grayscale())
}

// Preview extracts the palette of an image without applying it.
func (s *PaletteService) Preview(imagePath string) ([]palette.Swatch, error) {
	p, err := s.paletteFor(imagePath)
	if err != nil {
		return nil, err
	}
	return palette.Describe(p), nil
}

// ApplyImage extracts the palette of an image and lays out a new pattern
// with it.
func (s *PaletteService) ApplyImage(imagePath string) (studio.View, error) {
	p, err := s.paletteFor(imagePath)
	if err != nil {
		return s.studio.GetState(), err
	}
	return s.studio.ApplyPalette(p, quilt.ImageHighlight, studio.SourceImage)
}

// FollowImage applies an image and reapplies it whenever the file changes.
func (s *PaletteService) FollowImage(imagePath string) (studio.View, error) {
	view, err := s.ApplyImage(imagePath)
	if err != nil {
		return view, err
	}
	if err := s.watcher.Watch(imagePath); err != nil {
		return view, fmt.Errorf("follow image: %w", err)
	}
	return view, nil
}

func (s *PaletteService) StopFollowing() error {
	return s.watcher.Stop()
}

func (s *PaletteService) WatchStatus() watch.Status {
	return s.watcher.GetStatus()
}

func (s *PaletteService) reload(imagePath string) error {
	_, err := s.ApplyImage(imagePath)
	return err
}

func (s *PaletteService) paletteFor(imagePath string) (palette.Palette, error) {
	trimmedPath := strings.TrimSpace(imagePath)
	if trimmedPath == "" {
		return nil, errors.New("image path is required")
	}

	resolvedPath, err := filepath.Abs(trimmedPath)
	if err != nil {
		return nil, fmt.Errorf("resolve image path: %w", err)
	}

	sourceInfo, err := os.Stat(resolvedPath)
	if err != nil {
		return nil, errors.New("image not found")
	}
	if sourceInfo.IsDir() {
		return nil, errors.New("image path is a directory")
	}
	sourceModUnixNano := sourceInfo.ModTime().UnixNano()

	if cached, ok := s.loadCachedPalette(resolvedPath, sourceModUnixNano); ok {
		return cached, nil
	}

	img, err := palette.LoadImage(resolvedPath)
	if err != nil {
		return nil, err
	}
	p := s.extractor.ExtractFromImage(img)

	s.storeCachedPalette(resolvedPath, sourceModUnixNano, p)
	return p.Clone(), nil
}

func (s *PaletteService) loadCachedPalette(cacheKey string, sourceModUnixNano int64) (palette.Palette, bool) {
	s.cacheMu.RLock()
	entry, ok := s.cache[cacheKey]
	s.cacheMu.RUnlock()
	if !ok || entry.sourceModUnixNano != sourceModUnixNano {
		return nil, false
	}

	return entry.palette.Clone(), true
}

func (s *PaletteService) storeCachedPalette(cacheKey string, sourceModUnixNano int64, p palette.Palette) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	s.cache[cacheKey] = paletteCacheEntry{
		palette:           p.Clone(),
		sourceModUnixNano: sourceModUnixNano,
		cachedAt:          time.Now(),
	}

	if len(s.cache) <= maxPaletteCacheEntries {
		return
	}

	oldestKey := ""
	oldestAt := time.Now()
	for key, entry := range s.cache {
		if oldestKey == "" || entry.cachedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.cachedAt
		}
	}

	if oldestKey != "" {
		delete(s.cache, oldestKey)
	}
}
