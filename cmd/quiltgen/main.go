// Command quiltgen renders a quilt pattern without the desktop shell.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/gogpu/gg"

	"quilt/internal/logging"
	"quilt/internal/palette"
	"quilt/internal/quilt"
	"quilt/internal/render"
)

func main() {
	seed := flag.Int64("seed", 0, "pattern seed (default: current time in milliseconds)")
	imagePath := flag.String("image", "", "image or audio file to take the palette from")
	colors := flag.String("colors", "", "comma separated hex colors used as the palette")
	highlight := flag.String("highlight", "", "highlight hex color")
	svgPath := flag.String("svg", "", "write the pattern as SVG to this path (- for stdout)")
	pngPath := flag.String("png", "", "write the pattern as PNG to this path")
	size := flag.Int("size", quilt.CanonicalSize, fmt.Sprintf("PNG edge length in pixels, at most %d", render.MaxRasterSize))
	logLevel := flag.String("log-level", "warn", "log level: debug, info, warn or error")
	flag.Parse()

	logger := logging.NewConsole(os.Stderr, logging.ParseLevel(*logLevel))
	logging.SetLogger(logger)
	gg.SetLogger(logger)

	seedSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			seedSet = true
		}
	})

	p, defaultHighlight, err := resolvePalette(*imagePath, *colors)
	if err != nil {
		log.Fatal(err)
	}

	highlightColor := defaultHighlight
	if *highlight != "" {
		highlightColor, err = palette.ParseHex(*highlight)
		if err != nil {
			log.Fatalf("highlight: %v", err)
		}
	}

	generator := quilt.NewGenerator(p, highlightColor)
	var state quilt.State
	if seedSet {
		state, err = generator.GenerateWithSeed(*seed)
	} else {
		state, err = generator.Generate()
	}
	if err != nil {
		log.Fatal(err)
	}
	logger.Info("generated pattern",
		slog.Int64("seed", state.Seed),
		slog.Int("crossRow", state.CrossRow),
		slog.Int("crossCol", state.CrossCol),
		slog.Int("highlights", len(state.CenterHighlights)),
	)

	if *svgPath == "" && *pngPath == "" {
		*svgPath = "-"
	}

	if *svgPath != "" {
		if err := writeOutput(*svgPath, func(w io.Writer) error {
			return writeSVG(w, generator, state.Seed)
		}); err != nil {
			log.Fatalf("svg: %v", err)
		}
	}

	if *pngPath != "" {
		if err := writeOutput(*pngPath, func(w io.Writer) error {
			return writePNG(w, generator, *size)
		}); err != nil {
			log.Fatalf("png: %v", err)
		}
	}
}

func resolvePalette(imagePath string, colors string) (palette.Palette, palette.Color, error) {
	switch {
	case imagePath != "":
		img, err := palette.LoadImage(imagePath)
		if err != nil {
			return nil, palette.Color{}, err
		}
		return palette.NewExtractor(nil).ExtractFromImage(img), quilt.ImageHighlight, nil
	case colors != "":
		parsed := palette.ParseHexList(strings.Split(colors, ","))
		if len(parsed) == 0 {
			return nil, palette.Color{}, fmt.Errorf("no valid colors in %q", colors)
		}
		return palette.Palette(parsed), quilt.DefaultHighlight, nil
	default:
		return palette.Grayscale(), quilt.DefaultHighlight, nil
	}
}

func writeSVG(w io.Writer, generator *quilt.Generator, seed int64) error {
	doc := render.NewSVG(w, quilt.CanonicalSize, fmt.Sprintf("Quilt pattern, seed %d", seed))
	if err := generator.Draw(doc, quilt.CanonicalSize); err != nil {
		return err
	}
	return doc.Close()
}

func writePNG(w io.Writer, generator *quilt.Generator, size int) error {
	raster, err := render.NewRaster(size)
	if err != nil {
		return err
	}
	defer raster.Close()

	if err := generator.Draw(raster, float64(size)); err != nil {
		return err
	}
	return raster.EncodePNG(w)
}

func writeOutput(path string, write func(w io.Writer) error) error {
	if path == "-" {
		return write(os.Stdout)
	}

	var body bytes.Buffer
	if err := write(&body); err != nil {
		return err
	}
	return os.WriteFile(path, body.Bytes(), 0o644)
}
