package main

import (
	"quilt/internal/quilt"
	"quilt/internal/studio"
)

type QuiltService struct {
	studio *studio.Service
}

func NewQuiltService(studioService *studio.Service) *QuiltService {
	return &QuiltService{studio: studioService}
}

func (s *QuiltService) GetState() studio.View {
	return s.studio.GetState()
}

func (s *QuiltService) Generate() (studio.View, error) {
	return s.studio.Generate()
}

func (s *QuiltService) GenerateWithSeed(seed int64) (studio.View, error) {
	return s.studio.GenerateWithSeed(seed)
}

func (s *QuiltService) Undo() (studio.View, bool) {
	return s.studio.Undo()
}

func (s *QuiltService) Redo() (studio.View, bool) {
	return s.studio.Redo()
}

func (s *QuiltService) SetHighlightColor(hex string) (studio.View, error) {
	return s.studio.SetHighlightColor(hex)
}

func (s *QuiltService) SetPalette(hex []string) (studio.View, error) {
	return s.studio.SetPalette(hex)
}

func (s *QuiltService) ResetToGrayscale() (studio.View, error) {
	return s.studio.ResetToGrayscale()
}

func (s *QuiltService) Patches(size float64) ([]quilt.Patch, error) {
	if size <= 0 {
		size = quilt.CanonicalSize
	}
	return s.studio.Patches(size)
}
