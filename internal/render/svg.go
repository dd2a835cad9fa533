package render

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"quilt/internal/palette"
)

// SVG streams a vector document, one rect element per FillRect call. Call
// Close to finish the document.
type SVG struct {
	w   *bufio.Writer
	err error
}

func NewSVG(w io.Writer, size int, comment string) *SVG {
	s := &SVG{w: bufio.NewWriter(w)}
	s.printf("<svg width=\"%d\" height=\"%d\" xmlns=\"http://www.w3.org/2000/svg\">\n", size, size)
	if comment != "" {
		s.printf("  <!-- %s -->\n", comment)
	}
	return s
}

func (s *SVG) FillRect(x, y, w, h float64, fill palette.Color) error {
	s.printf("  <rect x=\"%s\" y=\"%s\" width=\"%s\" height=\"%s\" fill=\"%s\"/>\n",
		formatNumber(x), formatNumber(y), formatNumber(w), formatNumber(h), fill.Hex())
	return s.err
}

func (s *SVG) Close() error {
	s.printf("</svg>")
	if s.err != nil {
		return fmt.Errorf("write svg: %w", s.err)
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func (s *SVG) printf(format string, args ...any) {
	if s.err != nil {
		return
	}
	_, s.err = fmt.Fprintf(s.w, format, args...)
}

// formatNumber prints the shortest decimal that round-trips, without an
// exponent for the magnitudes a canvas uses.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
