package palette

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"quilt/internal/logging"
)

const (
	sampleQuality         = 10
	fallbackSampleQuality = 5
)

// Extractor derives palettes from images. It never fails: any sampling or
// derivation error is logged and the grayscale palette is returned instead.
type Extractor struct {
	sampler Sampler
}

func NewExtractor(sampler Sampler) *Extractor {
	if sampler == nil {
		sampler = NewMedianCut(DefaultSampleOptions())
	}
	return &Extractor{sampler: sampler}
}

// ExtractFromImage samples img and derives a palette of Size colors.
func (e *Extractor) ExtractFromImage(img image.Image) Palette {
	p, err := e.extract(img)
	if err != nil {
		logging.Logger().Warn("color extraction failed, using grayscale", slog.Any("err", err))
		return Grayscale()
	}
	return p
}

// ExtractFromColors derives a palette from already sampled colors.
func (e *Extractor) ExtractFromColors(colors []Color) Palette {
	p, err := Derive(colors)
	if err != nil {
		logging.Logger().Warn("palette derivation failed, using grayscale", slog.Any("err", err))
		return Grayscale()
	}
	return p
}

func (e *Extractor) extract(img image.Image) (p Palette, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, fmt.Errorf("sampler panic: %v", r)
		}
	}()

	if img == nil {
		return nil, errors.New("no image")
	}

	sampled, err := e.sampler.Sample(img, Size, sampleQuality)
	if err != nil || len(sampled) < Size {
		retry, retryErr := e.sampler.Sample(img, Size, fallbackSampleQuality)
		if retryErr != nil {
			return nil, fmt.Errorf("sample image: %w", retryErr)
		}
		sampled = retry
	}

	return Derive(sampled)
}
