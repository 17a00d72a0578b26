package synth

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/MeKo-Tech/imagelab/internal/pixel"
	"github.com/anthonynsimon/bild/noise"
)

// NoiseKind selects a bild noise distribution.
type NoiseKind int

const (
	UniformNoise NoiseKind = iota
	GaussianNoise
	BinaryNoise
)

// ParseNoiseKind accepts "uniform", "gaussian" and "binary".
func ParseNoiseKind(s string) (NoiseKind, error) {
	switch strings.ToLower(s) {
	case "uniform":
		return UniformNoise, nil
	case "gaussian", "normal":
		return GaussianNoise, nil
	case "binary":
		return BinaryNoise, nil
	}
	return UniformNoise, fmt.Errorf("%w: unknown noise %q", pixel.ErrInvalidParameter, s)
}

func (k NoiseKind) fn() noise.Fn {
	switch k {
	case GaussianNoise:
		return noise.Gaussian
	case BinaryNoise:
		return noise.Binary
	default:
		return noise.Uniform
	}
}

// Noise fills an image with random samples. bild seeds its generator from
// the clock, so results differ between calls. Monochrome output is
// Grayscale, otherwise each channel is drawn independently.
func Noise(width, height int, kind NoiseKind, monochrome bool) (*pixel.Buffer, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	img := noise.Generate(width, height, &noise.Options{NoiseFn: kind.fn(), Monochrome: monochrome})
	b := pixel.FromImage(img)
	if monochrome {
		return pixel.ToGray(b), nil
	}
	return b, nil
}

// SaltPepper sets a fraction of the pixels of a single-channel buffer to 0
// or 255 with equal probability. The seed makes the pattern reproducible.
func SaltPepper(b *pixel.Buffer, fraction float64, seed int64) (*pixel.Buffer, error) {
	if b.Mode() == pixel.Color {
		return nil, fmt.Errorf("%w: salt and pepper needs a single-channel image", pixel.ErrUnsupportedMode)
	}
	if fraction < 0 || fraction > 1 {
		return nil, fmt.Errorf("%w: fraction %g outside [0,1]", pixel.ErrInvalidParameter, fraction)
	}

	rng := rand.New(rand.NewSource(seed))
	samples := b.Samples()
	for i := range samples {
		if rng.Float64() >= fraction {
			continue
		}
		if rng.Intn(2) == 0 {
			samples[i] = 0
		} else {
			samples[i] = 255
		}
	}
	return pixel.FromSamples(b.Width(), b.Height(), b.Mode(), samples), nil
}
