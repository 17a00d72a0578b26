// Package filter implements neighborhood operations over single-channel
// buffers: convolution, edge detection, rank filters, binary morphology,
// 4-neighbor logic filters and adaptive thresholding. Border handling is
// delegated to the border package.
package filter

import (
	"fmt"
	"math"

	"github.com/MeKo-Tech/imagelab/internal/border"
	"github.com/MeKo-Tech/imagelab/internal/pixel"
)

// Kernel is an immutable square matrix of odd size.
type Kernel struct {
	weights []float64
	size    int
}

// NewKernel validates rows and copies them into a Kernel.
func NewKernel(rows [][]float64) (Kernel, error) {
	n := len(rows)
	if n == 0 || n%2 == 0 {
		return Kernel{}, fmt.Errorf("%w: kernel size %d must be odd", pixel.ErrInvalidParameter, n)
	}
	w := make([]float64, 0, n*n)
	for i, r := range rows {
		if len(r) != n {
			return Kernel{}, fmt.Errorf("%w: kernel row %d has %d values, want %d", pixel.ErrInvalidParameter, i, len(r), n)
		}
		w = append(w, r...)
	}
	return Kernel{weights: w, size: n}, nil
}

func mustKernel(rows [][]float64) Kernel {
	k, err := NewKernel(rows)
	if err != nil {
		panic(err)
	}
	return k
}

func (k Kernel) Size() int   { return k.size }
func (k Kernel) Radius() int { return k.size / 2 }

// At returns the weight at column x, row y.
func (k Kernel) At(x, y int) float64 { return k.weights[y*k.size+x] }

// Sum returns the sum of all weights.
func (k Kernel) Sum() float64 {
	s := 0.0
	for _, v := range k.weights {
		s += v
	}
	return s
}

// Normalized divides every weight by the kernel sum. Zero-sum kernels are
// returned unchanged.
func (k Kernel) Normalized() Kernel {
	s := k.Sum()
	if s == 0 {
		return k
	}
	w := make([]float64, len(k.weights))
	for i, v := range k.weights {
		w[i] = v / s
	}
	return Kernel{weights: w, size: k.size}
}

// Preset kernels.
var (
	Box3 = mustKernel([][]float64{
		{1, 1, 1},
		{1, 1, 1},
		{1, 1, 1},
	})
	Gaussian3 = mustKernel([][]float64{
		{1, 2, 1},
		{2, 4, 2},
		{1, 2, 1},
	})
	Gaussian5 = mustKernel([][]float64{
		{1, 4, 6, 4, 1},
		{4, 16, 24, 16, 4},
		{6, 24, 36, 24, 6},
		{4, 16, 24, 16, 4},
		{1, 4, 6, 4, 1},
	})
	Sharpen = mustKernel([][]float64{
		{0, -1, 0},
		{-1, 5, -1},
		{0, -1, 0},
	})
	SharpenStrong = mustKernel([][]float64{
		{-1, -1, -1},
		{-1, 9, -1},
		{-1, -1, -1},
	})
	Laplacian = mustKernel([][]float64{
		{0, 1, 0},
		{1, -4, 1},
		{0, 1, 0},
	})
	SobelX = mustKernel([][]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	})
	SobelY = mustKernel([][]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	})
	PrewittX = mustKernel([][]float64{
		{-1, 0, 1},
		{-1, 0, 1},
		{-1, 0, 1},
	})
	PrewittY = mustKernel([][]float64{
		{-1, -1, -1},
		{0, 0, 0},
		{1, 1, 1},
	})
)

// BoxKernel returns a k x k kernel of ones.
func BoxKernel(k int) (Kernel, error) {
	if k < 1 || k%2 == 0 {
		return Kernel{}, fmt.Errorf("%w: box size %d must be odd and positive", pixel.ErrInvalidParameter, k)
	}
	w := make([]float64, k*k)
	for i := range w {
		w[i] = 1
	}
	return Kernel{weights: w, size: k}, nil
}

// Named returns a preset by name.
func Named(name string) (Kernel, error) {
	switch name {
	case "box", "blur":
		return Box3, nil
	case "gaussian", "gaussian3":
		return Gaussian3, nil
	case "gaussian5":
		return Gaussian5, nil
	case "sharpen":
		return Sharpen, nil
	case "sharpen-strong":
		return SharpenStrong, nil
	case "laplacian":
		return Laplacian, nil
	default:
		return Kernel{}, fmt.Errorf("%w: unknown kernel %q", pixel.ErrInvalidParameter, name)
	}
}

// Convolve correlates b with k as given (no normalization), rounds and
// clamps the result. Binary input produces a grayscale buffer.
func Convolve(b *pixel.Buffer, k Kernel, pol border.Policy) (*pixel.Buffer, error) {
	if err := requireSingle(b, "convolve"); err != nil {
		return nil, err
	}
	if k.size == 0 {
		return nil, fmt.Errorf("%w: empty kernel", pixel.ErrInvalidParameter)
	}
	return border.Apply(b, k.Radius(), pol, func(in *pixel.Buffer) (*pixel.Buffer, error) {
		vals, w, h := correlate(in, k)
		out := make([]uint8, len(vals))
		for i, v := range vals {
			out[i] = pixel.ClampU8(math.Round(v))
		}
		return pixel.FromSamples(w, h, pixel.Grayscale, out), nil
	})
}

// Blur convolves with the normalized kernel, so that a blur kernel keeps
// the mean intensity.
func Blur(b *pixel.Buffer, k Kernel, pol border.Policy) (*pixel.Buffer, error) {
	return Convolve(b, k.Normalized(), pol)
}

// correlate returns the valid-mode correlation of in with k.
func correlate(in *pixel.Buffer, k Kernel) ([]float64, int, int) {
	w, h := in.Width()-2*k.Radius(), in.Height()-2*k.Radius()
	if w <= 0 || h <= 0 {
		return nil, 0, 0
	}
	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			s := 0.0
			for ky := 0; ky < k.size; ky++ {
				for kx := 0; kx < k.size; kx++ {
					s += k.At(kx, ky) * float64(in.Gray(x+kx, y+ky))
				}
			}
			out[y*w+x] = s
		}
	}
	return out, w, h
}

func requireSingle(b *pixel.Buffer, op string) error {
	if b.Mode() == pixel.Color {
		return fmt.Errorf("%w: %s needs a grayscale or binary image", pixel.ErrUnsupportedMode, op)
	}
	return nil
}
