package render

import "quilt/internal/palette"

type Rect struct {
	X    float64       `json:"x"`
	Y    float64       `json:"y"`
	W    float64       `json:"w"`
	H    float64       `json:"h"`
	Fill palette.Color `json:"fill"`
}

// Recorder keeps every rectangle it is asked to fill, in order.
type Recorder struct {
	Rects []Rect
}

func (r *Recorder) FillRect(x, y, w, h float64, fill palette.Color) error {
	r.Rects = append(r.Rects, Rect{X: x, Y: y, W: w, H: h, Fill: fill})
	return nil
}
