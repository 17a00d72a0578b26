// Package point implements per-pixel intensity mappings. Every function
// returns a new buffer and leaves its input untouched.
package point

import (
	"fmt"
	"math"

	"github.com/MeKo-Tech/imagelab/internal/histogram"
	"github.com/MeKo-Tech/imagelab/internal/pixel"
)

// LinearStretch maps the input window [loIn, hiIn] onto [loOut, hiOut].
// The window is first clamped to the extrema of the image. Samples below the
// window map to loOut, samples above it to hiOut. An empty window (loIn ==
// hiIn after clamping) leaves the image unchanged.
func LinearStretch(b *pixel.Buffer, loIn, hiIn, loOut, hiOut uint8) (*pixel.Buffer, error) {
	if loIn > hiIn {
		return nil, fmt.Errorf("%w: input window [%d,%d]", pixel.ErrInvalidParameter, loIn, hiIn)
	}
	lo, hi := b.Extrema()
	if loIn < lo {
		loIn = lo
	}
	if hiIn > hi {
		hiIn = hi
	}
	if loIn >= hiIn {
		return b.Map(b.Mode(), identity), nil
	}

	var lut [256]uint8
	scale := (float64(hiOut) - float64(loOut)) / float64(hiIn-loIn)
	for i := range lut {
		switch p := uint8(i); {
		case p < loIn:
			lut[i] = loOut
		case p > hiIn:
			lut[i] = hiOut
		default:
			lut[i] = pixel.ClampU8(math.Round(float64(loOut) + float64(p-loIn)*scale))
		}
	}
	return mapLUT(b, &lut), nil
}

// Stretch maps the window [lo, hi] onto the full 0..255 range.
func Stretch(b *pixel.Buffer, lo, hi uint8) (*pixel.Buffer, error) {
	return LinearStretch(b, lo, hi, 0, 255)
}

// GammaCorrect maps p to round((p/255)^(1/gamma) * 255).
func GammaCorrect(b *pixel.Buffer, gamma float64) (*pixel.Buffer, error) {
	if !(gamma > 0) || math.IsInf(gamma, 0) {
		return nil, fmt.Errorf("%w: gamma %v must be positive", pixel.ErrInvalidParameter, gamma)
	}
	var lut [256]uint8
	inv := 1 / gamma
	for i := range lut {
		lut[i] = pixel.ClampU8(math.Round(math.Pow(float64(i)/255, inv) * 255))
	}
	return mapLUT(b, &lut), nil
}

// Threshold keeps the band lo <= p <= hi and zeroes everything else. With
// binary set, in-band samples become 255 and the result is a Binary buffer;
// otherwise in-band samples keep their value.
func Threshold(b *pixel.Buffer, lo, hi uint8, binary bool) (*pixel.Buffer, error) {
	if b.Mode() == pixel.Color {
		return nil, fmt.Errorf("%w: threshold needs a single channel", pixel.ErrUnsupportedMode)
	}
	if lo > hi {
		return nil, fmt.Errorf("%w: threshold band [%d,%d]", pixel.ErrInvalidParameter, lo, hi)
	}
	mode := b.Mode()
	if binary {
		mode = pixel.Binary
	}
	return b.Map(mode, func(p uint8) uint8 {
		if p < lo || p > hi {
			return 0
		}
		if binary {
			return 255
		}
		return p
	}), nil
}

// OtsuThreshold is Threshold(b, t, 255, true) with t the Otsu level, so
// samples at t already map to 255. The returned level is t itself.
func OtsuThreshold(b *pixel.Buffer) (*pixel.Buffer, uint8, error) {
	if b.Mode() == pixel.Color {
		return nil, 0, fmt.Errorf("%w: threshold needs a single channel", pixel.ErrUnsupportedMode)
	}
	h, err := histogram.Compute(b, 0)
	if err != nil {
		return nil, 0, err
	}
	level, err := histogram.OtsuLevel(h)
	if err != nil {
		return nil, 0, err
	}
	out, err := Threshold(b, level, 255, true)
	return out, level, err
}

// Equalize applies the histogram equalization LUT. Color buffers are
// equalized per channel.
func Equalize(b *pixel.Buffer) (*pixel.Buffer, error) {
	if b.Mode().Single() {
		h, err := histogram.Compute(b, 0)
		if err != nil {
			return nil, err
		}
		lut, err := histogram.EqualizationLUT(h)
		if err != nil {
			return nil, err
		}
		return mapLUT(b, &lut), nil
	}

	luts := make([][256]uint8, 3)
	for c := range luts {
		h, err := histogram.Compute(b, c)
		if err != nil {
			return nil, err
		}
		if luts[c], err = histogram.EqualizationLUT(h); err != nil {
			return nil, fmt.Errorf("channel %d: %w", c, err)
		}
	}
	src := b.Samples()
	for i, v := range src {
		src[i] = luts[i%3][v]
	}
	return pixel.FromSamples(b.Width(), b.Height(), b.Mode(), src), nil
}

// Negate maps p to 255-p on every channel.
func Negate(b *pixel.Buffer) *pixel.Buffer {
	return b.Map(b.Mode(), func(p uint8) uint8 { return 255 - p })
}

func identity(p uint8) uint8 { return p }

// mapLUT applies lut. Binary input stays binary only if the table sends 0
// and 255 to the extremes; otherwise the result is grayscale.
func mapLUT(b *pixel.Buffer, lut *[256]uint8) *pixel.Buffer {
	if b.Mode() != pixel.Binary {
		return b.MapLUT(lut)
	}
	if (lut[0] == 0 || lut[0] == 255) && (lut[255] == 0 || lut[255] == 255) {
		return b.MapLUT(lut)
	}
	return b.Map(pixel.Grayscale, func(p uint8) uint8 { return lut[p] })
}
