package filter

import (
	"fmt"
	"math"

	"github.com/MeKo-Tech/imagelab/internal/border"
	"github.com/MeKo-Tech/imagelab/internal/pixel"
)

// GradientVariant selects the directional kernels of SobelPrewitt.
type GradientVariant int

const (
	Sobel GradientVariant = iota
	Prewitt
)

func (v GradientVariant) String() string {
	if v == Prewitt {
		return "prewitt"
	}
	return "sobel"
}

// ParseGradientVariant accepts "sobel" and "prewitt".
func ParseGradientVariant(s string) (GradientVariant, error) {
	switch s {
	case "sobel":
		return Sobel, nil
	case "prewitt":
		return Prewitt, nil
	default:
		return 0, fmt.Errorf("%w: unknown gradient %q", pixel.ErrInvalidParameter, s)
	}
}

// SobelPrewitt computes the gradient magnitude. With exact set it is
// sqrt(gx²+gy²), otherwise |gx|+|gy|. The result is clamped to 0..255.
func SobelPrewitt(b *pixel.Buffer, variant GradientVariant, exact bool, pol border.Policy) (*pixel.Buffer, error) {
	if err := requireSingle(b, "gradient"); err != nil {
		return nil, err
	}
	kx, ky := SobelX, SobelY
	if variant == Prewitt {
		kx, ky = PrewittX, PrewittY
	}

	return border.Apply(b, 1, pol, func(in *pixel.Buffer) (*pixel.Buffer, error) {
		gx, w, h := correlate(in, kx)
		gy, _, _ := correlate(in, ky)
		out := make([]uint8, len(gx))
		for i := range gx {
			out[i] = pixel.ClampU8(magnitude(gx[i], gy[i], exact))
		}
		return pixel.FromSamples(w, h, pixel.Grayscale, out), nil
	})
}

func magnitude(gx, gy float64, exact bool) float64 {
	if exact {
		return math.Hypot(gx, gy)
	}
	return math.Abs(gx) + math.Abs(gy)
}

// CannyHighRatio is the ratio between the high and low hysteresis thresholds.
const CannyHighRatio = 3

// Canny detects edges with a 3x3 Sobel aperture, non-maximum suppression
// and hysteresis between low and CannyHighRatio*low. Magnitudes are L1
// norms. The result is a Binary buffer.
func Canny(b *pixel.Buffer, low float64, pol border.Policy) (*pixel.Buffer, error) {
	if err := requireSingle(b, "canny"); err != nil {
		return nil, err
	}
	if low < 0 || math.IsNaN(low) {
		return nil, fmt.Errorf("%w: canny threshold %v", pixel.ErrInvalidParameter, low)
	}
	high := low * CannyHighRatio

	return border.Apply(b, 1, pol, func(in *pixel.Buffer) (*pixel.Buffer, error) {
		gx, w, h := correlate(in, SobelX)
		gy, _, _ := correlate(in, SobelY)

		mag := make([]float64, len(gx))
		for i := range gx {
			mag[i] = math.Abs(gx[i]) + math.Abs(gy[i])
		}

		at := func(x, y int) float64 {
			if x < 0 || y < 0 || x >= w || y >= h {
				return 0
			}
			return mag[y*w+x]
		}

		// non-maximum suppression along the quantized gradient direction
		const (
			none = iota
			weak
			strong
		)
		state := make([]uint8, len(mag))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				i := y*w + x
				m := mag[i]
				if m <= low {
					continue
				}
				dx1, dy1 := direction(gx[i], gy[i])
				if m < at(x+dx1, y+dy1) || m < at(x-dx1, y-dy1) {
					continue
				}
				if m > high {
					state[i] = strong
				} else {
					state[i] = weak
				}
			}
		}

		out := make([]uint8, len(mag))
		stack := make([]int, 0, 64)
		for i, s := range state {
			if s == strong && out[i] == 0 {
				out[i] = 255
				stack = append(stack, i)
			}
			for len(stack) > 0 {
				j := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				cx, cy := j%w, j/w
				for _, d := range neighbors8 {
					nx, ny := cx+d[0], cy+d[1]
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					k := ny*w + nx
					if out[k] == 0 && state[k] != none {
						out[k] = 255
						stack = append(stack, k)
					}
				}
			}
		}
		return pixel.FromSamples(w, h, pixel.Binary, out), nil
	})
}

// direction quantizes the gradient angle into one of four neighbor offsets.
// Image rows grow downwards, so a positive gy points to the next row.
func direction(gx, gy float64) (int, int) {
	angle := math.Atan2(gy, gx) * 180 / math.Pi
	if angle < 0 {
		angle += 180
	}
	switch {
	case angle < 22.5 || angle >= 157.5:
		return 1, 0
	case angle < 67.5:
		return 1, 1
	case angle < 112.5:
		return 0, 1
	default:
		return -1, 1
	}
}

var neighbors8 = [8][2]int{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}
