// Package render provides the surfaces patterns are drawn onto: a raster
// canvas, an SVG document writer and an in-memory recorder.
package render

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/gogpu/gg"

	"quilt/internal/palette"
)

// MaxRasterSize bounds the edge length of a raster in pixels.
const MaxRasterSize = 4096

// ErrRasterSize is returned for edge lengths outside [1, MaxRasterSize].
var ErrRasterSize = errors.New("raster size out of range")

// Raster is a pixel canvas with a white background.
type Raster struct {
	dc *gg.Context
}

func NewRaster(size int) (*Raster, error) {
	if size <= 0 || size > MaxRasterSize {
		return nil, fmt.Errorf("%w: %d", ErrRasterSize, size)
	}

	dc := gg.NewContext(size, size)
	dc.ClearWithColor(gg.White)
	return &Raster{dc: dc}, nil
}

func (r *Raster) FillRect(x, y, w, h float64, fill palette.Color) error {
	r.dc.SetColor(fill)
	r.dc.DrawRectangle(x, y, w, h)
	if err := r.dc.Fill(); err != nil {
		return fmt.Errorf("fill rect: %w", err)
	}
	return nil
}

func (r *Raster) Image() image.Image {
	return r.dc.Image()
}

func (r *Raster) EncodePNG(w io.Writer) error {
	if err := r.dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func (r *Raster) Close() error {
	return r.dc.Close()
}
