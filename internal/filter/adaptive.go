package filter

import (
	"fmt"
	"image"

	"github.com/MeKo-Tech/imagelab/internal/border"
	"github.com/MeKo-Tech/imagelab/internal/pixel"
	"github.com/disintegration/gift"
)

// AdaptiveMethod selects how the local mean is computed.
type AdaptiveMethod int

const (
	AdaptiveMean AdaptiveMethod = iota
	AdaptiveGaussian
)

// ParseAdaptiveMethod accepts "mean" and "gaussian".
func ParseAdaptiveMethod(s string) (AdaptiveMethod, error) {
	switch s {
	case "mean":
		return AdaptiveMean, nil
	case "gaussian":
		return AdaptiveGaussian, nil
	default:
		return 0, fmt.Errorf("%w: unknown adaptive method %q", pixel.ErrInvalidParameter, s)
	}
}

// Defaults of the adaptive threshold.
const (
	DefaultAdaptiveBlock = 11
	DefaultAdaptiveC     = 2
)

// AdaptiveThreshold binarizes each pixel against the mean of its
// block x block neighborhood minus c: p > mean-c becomes 255.
func AdaptiveThreshold(b *pixel.Buffer, method AdaptiveMethod, block, c int) (*pixel.Buffer, error) {
	if err := requireSingle(b, "adaptive threshold"); err != nil {
		return nil, err
	}
	if block < 3 || block%2 == 0 {
		return nil, fmt.Errorf("%w: block size %d must be odd and >= 3", pixel.ErrInvalidParameter, block)
	}

	var (
		mean *pixel.Buffer
		err  error
	)
	switch method {
	case AdaptiveMean:
		k, kerr := BoxKernel(block)
		if kerr != nil {
			return nil, kerr
		}
		mean, err = Blur(b, k, border.Policy{Kind: border.Reflect})
	case AdaptiveGaussian:
		mean = gaussianMean(b, block)
	default:
		err = fmt.Errorf("%w: adaptive method %d", pixel.ErrInvalidParameter, method)
	}
	if err != nil {
		return nil, err
	}

	src := b.Samples()
	m := mean.Samples()
	out := make([]uint8, len(src))
	for i, p := range src {
		if int(p) > int(m[i])-c {
			out[i] = 255
		}
	}
	return pixel.FromSamples(b.Width(), b.Height(), pixel.Binary, out), nil
}

// gaussianMean blurs with the sigma OpenCV derives from the block size.
func gaussianMean(b *pixel.Buffer, block int) *pixel.Buffer {
	sigma := 0.3*(float64(block-1)*0.5-1) + 0.8
	g := gift.New(gift.GaussianBlur(float32(sigma)))

	src := b.GrayImage()
	dst := image.NewGray(g.Bounds(src.Bounds()))
	g.Draw(dst, src)
	return pixel.FromGray(dst)
}
