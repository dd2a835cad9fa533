package main

import (
	"quilt/internal/exports"
	"quilt/internal/palette"
	"quilt/internal/quilt"
	"quilt/internal/studio"
	"quilt/internal/watch"
)

const defaultBootstrapExportsLimit = 20

type StartupSnapshot struct {
	Quilt         studio.View      `json:"quilt"`
	WatchStatus   watch.Status     `json:"watchStatus"`
	RecentExports []exports.Record `json:"recentExports"`
	ExportDir     string           `json:"exportDir"`
	CanonicalSize int              `json:"canonicalSize"`
	PaletteSize   int              `json:"paletteSize"`
}

type BootstrapService struct {
	studio  *studio.Service
	palette *PaletteService
	export  *ExportService
}

func NewBootstrapService(
	studioService *studio.Service,
	paletteService *PaletteService,
	exportService *ExportService,
) *BootstrapService {
	return &BootstrapService{
		studio:  studioService,
		palette: paletteService,
		export:  exportService,
	}
}

func (s *BootstrapService) GetInitialState(exportsLimit int) (StartupSnapshot, error) {
	if exportsLimit <= 0 {
		exportsLimit = defaultBootstrapExportsLimit
	}

	recent, err := s.export.ListExports(exportsLimit)
	if err != nil {
		return StartupSnapshot{}, err
	}

	return StartupSnapshot{
		Quilt:         s.studio.GetState(),
		WatchStatus:   s.palette.WatchStatus(),
		RecentExports: recent,
		ExportDir:     s.export.ExportDir(),
		CanonicalSize: quilt.CanonicalSize,
		PaletteSize:   palette.Size,
	}, nil
}
