// Package media implements the client-side image preparation pipeline:
// size-bounded compression for network transfer and AI submission, and the
// canvas-style adjustment/collage transforms.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

// Quality selects a compression profile.
type Quality string

const (
	// QualityStandard bounds images for everyday log photos.
	QualityStandard Quality = "standard"
	// QualityHigh preserves more detail for identification shots.
	QualityHigh Quality = "high"
)

// ErrDecodeFailed indicates the source bytes are not a decodable image.
var ErrDecodeFailed = errors.New("media: image decode failed")

// ErrUnknownQuality indicates an unrecognized compression profile.
var ErrUnknownQuality = errors.New("media: unknown quality profile")

type profile struct {
	maxDimension int
	startQuality int
	minQuality   int
	// maxBytes is the hard ceiling; Compress never returns a payload at or
	// above it, regardless of input size.
	maxBytes int
}

var profiles = map[Quality]profile{
	QualityStandard: {maxDimension: 1024, startQuality: 80, minQuality: 40, maxBytes: 900 * 1024},
	QualityHigh:     {maxDimension: 1600, startQuality: 90, minQuality: 50, maxBytes: 2 * 1024 * 1024},
}

// Compress decodes the raw image, downscales it to the profile's bounds and
// re-encodes JPEG under the profile's byte ceiling. Oversized inputs are
// repeatedly re-qualified and then re-scaled until they fit.
func Compress(raw []byte, quality Quality) ([]byte, error) {
	prof, ok := profiles[quality]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownQuality, quality)
	}

	source, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	dimension := prof.maxDimension
	for {
		scaled := scaleToFit(source, dimension)
		for q := prof.startQuality; q >= prof.minQuality; q -= 10 {
			encoded, err := encodeJPEG(scaled, q)
			if err != nil {
				return nil, err
			}
			if len(encoded) < prof.maxBytes {
				return encoded, nil
			}
		}
		if dimension <= 64 {
			// Pathological inputs: final attempt at the floor quality.
			return encodeJPEG(scaleToFit(source, dimension), prof.minQuality)
		}
		dimension /= 2
	}
}

// scaleToFit scales the image so its longer edge is at most maxDimension,
// never upscaling.
func scaleToFit(source image.Image, maxDimension int) *image.RGBA {
	bounds := source.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	longer := width
	if height > longer {
		longer = height
	}
	if longer > maxDimension {
		ratio := float64(maxDimension) / float64(longer)
		width = int(float64(width) * ratio)
		height = int(float64(height) * ratio)
		if width < 1 {
			width = 1
		}
		if height < 1 {
			height = 1
		}
	}

	target := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Scale(target, target.Bounds(), source, bounds, xdraw.Src, nil)
	return target
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
