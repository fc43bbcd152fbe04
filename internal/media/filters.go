package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

// Adjustments are percentage-based filter parameters. 100 means unchanged
// for brightness and contrast; grayscale is a 0..100 blend toward luminance.
type Adjustments struct {
	BrightnessPct int
	ContrastPct   int
	GrayscalePct  int
}

// ErrNoSourceImages indicates a collage was requested with no inputs.
var ErrNoSourceImages = errors.New("media: no source images")

const (
	collageSize   = 1200
	collageGutter = 8
	exportQuality = 85
)

// Adjust decodes the source, applies the adjustment parameters and exports a
// JPEG. A decode failure resolves to an explicit error, never a panic.
func Adjust(raw []byte, params Adjustments) ([]byte, error) {
	source, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	bounds := source.Bounds()
	target := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			target.Set(x-bounds.Min.X, y-bounds.Min.Y, adjustPixel(source.At(x, y), params))
		}
	}

	return encodeJPEG(target, exportQuality)
}

func adjustPixel(c color.Color, params Adjustments) color.RGBA {
	r16, g16, b16, a16 := c.RGBA()
	r := float64(r16 >> 8)
	g := float64(g16 >> 8)
	b := float64(b16 >> 8)

	if params.BrightnessPct != 0 && params.BrightnessPct != 100 {
		factor := float64(params.BrightnessPct) / 100
		r *= factor
		g *= factor
		b *= factor
	}
	if params.ContrastPct != 0 && params.ContrastPct != 100 {
		factor := float64(params.ContrastPct) / 100
		r = (r-128)*factor + 128
		g = (g-128)*factor + 128
		b = (b-128)*factor + 128
	}
	if params.GrayscalePct > 0 {
		blend := float64(params.GrayscalePct) / 100
		if blend > 1 {
			blend = 1
		}
		luma := 0.299*r + 0.587*g + 0.114*b
		r = r*(1-blend) + luma*blend
		g = g*(1-blend) + luma*blend
		b = b*(1-blend) + luma*blend
	}

	return color.RGBA{R: clamp8(r), G: clamp8(g), B: clamp8(b), A: uint8(a16 >> 8)}
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// Collage composites up to four images into fixed layout slots on a square
// surface and exports a JPEG. Layouts: one image fills the surface, two sit
// side by side, three put one on top and two below, four form a grid.
func Collage(sources [][]byte) ([]byte, error) {
	if len(sources) == 0 {
		return nil, ErrNoSourceImages
	}
	if len(sources) > 4 {
		sources = sources[:4]
	}

	decoded := make([]image.Image, 0, len(sources))
	for i, raw := range sources {
		img, _, err := image.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: source %d: %v", ErrDecodeFailed, i, err)
		}
		decoded = append(decoded, img)
	}

	surface := image.NewRGBA(image.Rect(0, 0, collageSize, collageSize))
	// White background keeps gutters visible on export.
	xdraw.Draw(surface, surface.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)

	for i, slot := range layoutSlots(len(decoded)) {
		xdraw.ApproxBiLinear.Scale(surface, slot, decoded[i], decoded[i].Bounds(), xdraw.Src, nil)
	}

	return encodeJPEG(surface, exportQuality)
}

func layoutSlots(count int) []image.Rectangle {
	full := collageSize
	half := (collageSize - collageGutter) / 2
	switch count {
	case 1:
		return []image.Rectangle{image.Rect(0, 0, full, full)}
	case 2:
		return []image.Rectangle{
			image.Rect(0, 0, half, full),
			image.Rect(half+collageGutter, 0, full, full),
		}
	case 3:
		return []image.Rectangle{
			image.Rect(0, 0, full, half),
			image.Rect(0, half+collageGutter, half, full),
			image.Rect(half+collageGutter, half+collageGutter, full, full),
		}
	default:
		return []image.Rectangle{
			image.Rect(0, 0, half, half),
			image.Rect(half+collageGutter, 0, full, half),
			image.Rect(0, half+collageGutter, half, full),
			image.Rect(half+collageGutter, half+collageGutter, full, full),
		}
	}
}
