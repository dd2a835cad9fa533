package palette

import (
	"errors"
	"image"
	"math"
	"sort"

	"golang.org/x/image/draw"
)

// Sampler returns up to count dominant colors of img. quality is the pixel
// stride: 1 inspects every pixel, larger values skip more.
type Sampler interface {
	Sample(img image.Image, count int, quality int) ([]Color, error)
}

var defaultSampleOptions = SampleOptions{
	MaxDimension:     400,
	QuantizationBits: 5,
	AlphaThreshold:   125,
	IgnoreNearWhite:  true,
}

// SampleOptions tunes MedianCut. Zero values select defaults.
type SampleOptions struct {
	MaxDimension     int  `json:"maxDimension"`
	QuantizationBits int  `json:"quantizationBits"`
	AlphaThreshold   int  `json:"alphaThreshold"`
	IgnoreNearWhite  bool `json:"ignoreNearWhite"`
}

func DefaultSampleOptions() SampleOptions {
	return defaultSampleOptions
}

func (o SampleOptions) normalized() SampleOptions {
	normalized := o

	if normalized.MaxDimension <= 0 {
		normalized.MaxDimension = defaultSampleOptions.MaxDimension
	}
	normalized.MaxDimension = clampInt(normalized.MaxDimension, 32, 2048)

	if normalized.QuantizationBits <= 0 {
		normalized.QuantizationBits = defaultSampleOptions.QuantizationBits
	}
	normalized.QuantizationBits = clampInt(normalized.QuantizationBits, 4, 6)

	if normalized.AlphaThreshold <= 0 {
		normalized.AlphaThreshold = defaultSampleOptions.AlphaThreshold
	}
	normalized.AlphaThreshold = clampInt(normalized.AlphaThreshold, 0, 254)

	return normalized
}

// MedianCut is a Sampler that quantizes a downscaled copy of the image and
// recursively splits the color histogram along its widest channel.
type MedianCut struct {
	options SampleOptions
}

func NewMedianCut(options SampleOptions) *MedianCut {
	return &MedianCut{options: options.normalized()}
}

func (m *MedianCut) Sample(img image.Image, count int, quality int) ([]Color, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, errors.New("image has no pixels")
	}
	if count <= 0 {
		return nil, errors.New("color count must be positive")
	}
	if quality < 1 {
		quality = 1
	}

	sampled := downscale(toNRGBA(img), m.options.MaxDimension)
	bins, err := buildColorBins(sampled, quality, m.options)
	if err != nil {
		return nil, err
	}

	boxes := buildBoxes(bins, count)
	colors := boxesToColors(boxes)
	if len(colors) == 0 {
		return nil, errors.New("no color swatches extracted")
	}

	return colors, nil
}

type colorBin struct {
	rq    uint8
	gq    uint8
	bq    uint8
	rSum  int
	gSum  int
	bSum  int
	count int
}

type colorBox struct {
	bins       []colorBin
	population int
	rMin       uint8
	rMax       uint8
	gMin       uint8
	gMax       uint8
	bMin       uint8
	bMax       uint8
	volume     int
}

func toNRGBA(img image.Image) *image.NRGBA {
	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Bounds().Min == (image.Point{}) {
		return nrgba
	}
	bounds := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return dst
}

func downscale(src *image.NRGBA, maxDimension int) *image.NRGBA {
	width := src.Bounds().Dx()
	height := src.Bounds().Dy()
	longest := max(width, height)
	if longest <= maxDimension {
		return src
	}

	scale := float64(maxDimension) / float64(longest)
	targetWidth := max(int(math.Round(float64(width)*scale)), 1)
	targetHeight := max(int(math.Round(float64(height)*scale)), 1)

	dst := image.NewNRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

func buildColorBins(img *image.NRGBA, quality int, options SampleOptions) ([]colorBin, error) {
	width := img.Bounds().Dx()
	height := img.Bounds().Dy()
	if width <= 0 || height <= 0 {
		return nil, errors.New("sample image is empty")
	}

	bits := options.QuantizationBits
	shift := 8 - bits
	histogram := make(map[int]*colorBin)

	pixelCount := width * height
	for i := 0; i < pixelCount; i += quality {
		offset := (i/width)*img.Stride + (i%width)*4
		r := img.Pix[offset]
		g := img.Pix[offset+1]
		b := img.Pix[offset+2]
		a := img.Pix[offset+3]

		if int(a) < options.AlphaThreshold {
			continue
		}
		if options.IgnoreNearWhite && r > 250 && g > 250 && b > 250 {
			continue
		}

		rq := r >> shift
		gq := g >> shift
		bq := b >> shift
		index := int(rq)<<(2*bits) | int(gq)<<bits | int(bq)
		bin, ok := histogram[index]
		if !ok {
			bin = &colorBin{rq: rq, gq: gq, bq: bq}
			histogram[index] = bin
		}
		bin.rSum += int(r)
		bin.gSum += int(g)
		bin.bSum += int(b)
		bin.count++
	}

	if len(histogram) == 0 {
		return nil, errors.New("no eligible pixels after filtering")
	}

	indices := make([]int, 0, len(histogram))
	for index := range histogram {
		indices = append(indices, index)
	}
	sort.Ints(indices)

	bins := make([]colorBin, 0, len(indices))
	for _, index := range indices {
		bins = append(bins, *histogram[index])
	}
	return bins, nil
}

func buildBoxes(bins []colorBin, targetCount int) []colorBox {
	if len(bins) == 0 {
		return nil
	}

	boxes := []colorBox{newColorBox(bins)}
	for len(boxes) < targetCount {
		splittable := make([]int, 0, len(boxes))
		for index, box := range boxes {
			if box.canSplit() {
				splittable = append(splittable, index)
			}
		}
		if len(splittable) == 0 {
			break
		}

		sort.SliceStable(splittable, func(i, j int) bool {
			left := boxes[splittable[i]]
			right := boxes[splittable[j]]
			leftScore := float64(left.population) * math.Log(float64(left.volume)+1)
			rightScore := float64(right.population) * math.Log(float64(right.volume)+1)
			return leftScore > rightScore
		})

		split := false
		for _, index := range splittable {
			left, right, ok := splitColorBox(boxes[index])
			if !ok {
				continue
			}

			boxes[index] = boxes[len(boxes)-1]
			boxes = boxes[:len(boxes)-1]
			boxes = append(boxes, left, right)
			split = true
			break
		}

		if !split {
			break
		}
	}

	return boxes
}

func newColorBox(bins []colorBin) colorBox {
	box := colorBox{bins: bins}
	if len(bins) == 0 {
		return box
	}

	box.rMin, box.rMax = bins[0].rq, bins[0].rq
	box.gMin, box.gMax = bins[0].gq, bins[0].gq
	box.bMin, box.bMax = bins[0].bq, bins[0].bq

	for _, bin := range bins {
		box.population += bin.count
		box.rMin = min(box.rMin, bin.rq)
		box.rMax = max(box.rMax, bin.rq)
		box.gMin = min(box.gMin, bin.gq)
		box.gMax = max(box.gMax, bin.gq)
		box.bMin = min(box.bMin, bin.bq)
		box.bMax = max(box.bMax, bin.bq)
	}

	box.volume = int(box.rMax-box.rMin+1) * int(box.gMax-box.gMin+1) * int(box.bMax-box.bMin+1)
	return box
}

func (b colorBox) canSplit() bool {
	return len(b.bins) > 1 && (b.rMax > b.rMin || b.gMax > b.gMin || b.bMax > b.bMin)
}

func splitColorBox(box colorBox) (colorBox, colorBox, bool) {
	if !box.canSplit() {
		return colorBox{}, colorBox{}, false
	}

	axis := longestAxis(box)
	ordered := append([]colorBin(nil), box.bins...)
	sort.SliceStable(ordered, func(i, j int) bool {
		left := axisValue(ordered[i], axis)
		right := axisValue(ordered[j], axis)
		if left == right {
			return ordered[i].count > ordered[j].count
		}
		return left < right
	})

	half := box.population / 2
	cumulative := 0
	splitIndex := -1
	for index, bin := range ordered {
		cumulative += bin.count
		if cumulative >= half {
			splitIndex = index + 1
			break
		}
	}

	if splitIndex <= 0 || splitIndex >= len(ordered) {
		splitIndex = len(ordered) / 2
	}
	if splitIndex <= 0 || splitIndex >= len(ordered) {
		return colorBox{}, colorBox{}, false
	}

	left := newColorBox(append([]colorBin(nil), ordered[:splitIndex]...))
	right := newColorBox(append([]colorBin(nil), ordered[splitIndex:]...))
	if left.population == 0 || right.population == 0 {
		return colorBox{}, colorBox{}, false
	}

	return left, right, true
}

func longestAxis(box colorBox) int {
	rRange := box.rMax - box.rMin
	gRange := box.gMax - box.gMin
	bRange := box.bMax - box.bMin

	if rRange >= gRange && rRange >= bRange {
		return 0
	}
	if gRange >= rRange && gRange >= bRange {
		return 1
	}
	return 2
}

func axisValue(bin colorBin, axis int) uint8 {
	switch axis {
	case 0:
		return bin.rq
	case 1:
		return bin.gq
	default:
		return bin.bq
	}
}

type boxColor struct {
	color      Color
	population int
}

func boxesToColors(boxes []colorBox) []Color {
	weighted := make([]boxColor, 0, len(boxes))
	for _, box := range boxes {
		if box.population <= 0 {
			continue
		}

		var rSum, gSum, bSum int
		for _, bin := range box.bins {
			rSum += bin.rSum
			gSum += bin.gSum
			bSum += bin.bSum
		}

		weighted = append(weighted, boxColor{
			color: RGB(
				roundHalfUp(float64(rSum)/float64(box.population)),
				roundHalfUp(float64(gSum)/float64(box.population)),
				roundHalfUp(float64(bSum)/float64(box.population)),
			),
			population: box.population,
		})
	}

	sort.SliceStable(weighted, func(i, j int) bool {
		return weighted[i].population > weighted[j].population
	})

	colors := make([]Color, len(weighted))
	for i, w := range weighted {
		colors[i] = w.color
	}
	return colors
}

func clampInt(value int, minimum int, maximum int) int {
	if value < minimum {
		return minimum
	}
	if value > maximum {
		return maximum
	}
	return value
}
