package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"quilt/internal/exports"
	"quilt/internal/logging"
	"quilt/internal/quilt"
	"quilt/internal/render"
	"quilt/internal/studio"
)

type ExportService struct {
	studio    *studio.Service
	records   *exports.Repository
	exportDir string
	now       func() time.Time
}

func NewExportService(studioService *studio.Service, records *exports.Repository, exportDir string) *ExportService {
	return &ExportService{
		studio:    studioService,
		records:   records,
		exportDir: strings.TrimSpace(exportDir),
		now:       time.Now,
	}
}

// Export writes the current pattern into the export directory under its
// default timestamped name. size only applies to PNG exports; SVG is always
// written at the canonical size.
func (s *ExportService) Export(kind string, size int) (exports.Record, error) {
	parsed, err := render.ParseKind(kind)
	if err != nil {
		return exports.Record{}, err
	}
	return s.ExportTo(string(parsed), filepath.Join(s.exportDir, render.FileName(parsed, s.now())), size)
}

// ExportTo writes the current pattern to path.
func (s *ExportService) ExportTo(kind string, path string, size int) (exports.Record, error) {
	parsed, err := render.ParseKind(kind)
	if err != nil {
		return exports.Record{}, err
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return exports.Record{}, errors.New("export path is required")
	}

	if parsed == render.KindSVG || size <= 0 {
		size = quilt.CanonicalSize
	}

	var body bytes.Buffer
	switch parsed {
	case render.KindSVG:
		err = s.studio.WriteSVG(&body)
	default:
		err = s.studio.WritePNG(&body, size)
	}
	if err != nil {
		return exports.Record{}, fmt.Errorf("render %s: %w", parsed, err)
	}

	if err := writeFileAtomic(path, &body); err != nil {
		return exports.Record{}, err
	}

	seed, err := s.studio.Seed()
	if err != nil {
		return exports.Record{}, err
	}
	record := exports.Record{
		SessionID: s.studio.GetState().SessionID,
		Kind:      string(parsed),
		Path:      path,
		Seed:      seed,
		Size:      size,
	}

	logging.Logger().Info("exported pattern", slog.String("kind", record.Kind), slog.String("path", path))

	if s.records == nil {
		return record, nil
	}
	return s.records.Add(context.Background(), record)
}

// RenderSVG returns the current pattern as an SVG document.
func (s *ExportService) RenderSVG() (string, error) {
	var body strings.Builder
	if err := s.studio.WriteSVG(&body); err != nil {
		return "", err
	}
	return body.String(), nil
}

func (s *ExportService) ListExports(limit int) ([]exports.Record, error) {
	if s.records == nil {
		return []exports.Record{}, nil
	}
	return s.records.List(context.Background(), limit)
}

func (s *ExportService) ExportDir() string {
	return s.exportDir
}

// ServeHTTP serves previously exported files by name, and the live pattern
// at "current.svg" and "current.png".
func (s *ExportService) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		rw.Header().Set("Allow", "GET, HEAD")
		http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimSpace(req.URL.Query().Get("path"))
	if name == "" {
		name = filepath.Base(req.URL.Path)
	}

	switch name {
	case "current.svg":
		var body bytes.Buffer
		if err := s.studio.WriteSVG(&body); err != nil {
			http.Error(rw, err.Error(), http.StatusConflict)
			return
		}
		rw.Header().Set("Content-Type", "image/svg+xml")
		rw.Header().Set("Cache-Control", "no-store")
		_, _ = io.Copy(rw, &body)
		return
	case "current.png":
		size := quilt.CanonicalSize
		if value := req.URL.Query().Get("size"); value != "" {
			parsed, err := strconv.Atoi(value)
			if err != nil || parsed <= 0 || parsed > render.MaxRasterSize {
				http.Error(rw, "invalid size", http.StatusBadRequest)
				return
			}
			size = parsed
		}
		var body bytes.Buffer
		if err := s.studio.WritePNG(&body, size); err != nil {
			http.Error(rw, err.Error(), http.StatusConflict)
			return
		}
		rw.Header().Set("Content-Type", "image/png")
		rw.Header().Set("Cache-Control", "no-store")
		_, _ = io.Copy(rw, &body)
		return
	}

	resolvedPath, err := s.resolveExportPath(name)
	if err != nil {
		http.Error(rw, "export not found", http.StatusNotFound)
		return
	}

	rw.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeFile(rw, req, resolvedPath)
}

func (s *ExportService) resolveExportPath(requestedPath string) (string, error) {
	exportDir := strings.TrimSpace(s.exportDir)
	if exportDir == "" {
		return "", errors.New("export dir is not configured")
	}

	exportDirAbs, err := filepath.Abs(filepath.Clean(exportDir))
	if err != nil {
		return "", err
	}

	cleanRequested := filepath.Clean(requestedPath)
	if !filepath.IsAbs(cleanRequested) {
		cleanRequested = filepath.Join(exportDirAbs, cleanRequested)
	}

	resolvedPath, err := filepath.Abs(cleanRequested)
	if err != nil {
		return "", err
	}

	relativeToExports, err := filepath.Rel(exportDirAbs, resolvedPath)
	if err != nil {
		return "", err
	}

	if relativeToExports == ".." || strings.HasPrefix(relativeToExports, ".."+string(os.PathSeparator)) || filepath.IsAbs(relativeToExports) {
		return "", errors.New("requested path is outside export dir")
	}

	info, err := os.Stat(resolvedPath)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", errors.New("requested path is a directory")
	}

	return resolvedPath, nil
}

func writeFileAtomic(path string, body io.Reader) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".quilt-export-*")
	if err != nil {
		return fmt.Errorf("create temp export: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return fmt.Errorf("write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close export: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("move export into place: %w", err)
	}
	return nil
}
