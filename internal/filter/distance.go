package filter

import (
	"fmt"
	"math"

	"github.com/MeKo-Tech/imagelab/internal/pixel"
)

// DistanceTransform replaces every foreground pixel (non-zero) with its
// Euclidean distance to the nearest background pixel, scaled so that
// maxDistance maps to 255. Background stays 0. Without any background
// pixel every foreground pixel saturates at 255. Pixels outside the image
// are not background.
//
// The squared distances come from two separable passes of the lower
// envelope of parabolas (Felzenszwalb and Huttenlocher), so the cost is
// linear in the pixel count.
func DistanceTransform(b *pixel.Buffer, maxDistance float64) (*pixel.Buffer, error) {
	if err := requireSingle(b, "distance transform"); err != nil {
		return nil, err
	}
	if !(maxDistance > 0) || math.IsInf(maxDistance, 0) {
		return nil, fmt.Errorf("%w: max distance %v", pixel.ErrInvalidParameter, maxDistance)
	}

	w, h := b.Width(), b.Height()
	inf := float64(w*w+h*h) + 1

	sq := make([]float64, w*h)
	for i, v := range b.Samples() {
		if v != 0 {
			sq[i] = inf
		}
	}

	line := make([]float64, max(w, h))
	out := make([]float64, max(w, h))
	for y := 0; y < h; y++ {
		row := sq[y*w : (y+1)*w]
		copy(line, row)
		envelope(line[:w], out[:w])
		copy(row, out[:w])
	}
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			line[y] = sq[y*w+x]
		}
		envelope(line[:h], out[:h])
		for y := 0; y < h; y++ {
			sq[y*w+x] = out[y]
		}
	}

	res := make([]uint8, w*h)
	for i, d := range sq {
		switch {
		case d == 0:
		case d >= inf:
			res[i] = 255
		default:
			res[i] = pixel.ClampU8(math.Round(255 * math.Sqrt(d) / maxDistance))
		}
	}
	return pixel.FromSamples(w, h, pixel.Grayscale, res), nil
}

// envelope computes the 1D squared distance transform of f into d.
func envelope(f, d []float64) {
	n := len(f)
	if n == 0 {
		return
	}
	v := make([]int, n)
	z := make([]float64, n+1)
	k := 0
	z[0], z[1] = math.Inf(-1), math.Inf(1)

	for q := 1; q < n; q++ {
		var s float64
		for {
			p := v[k]
			s = ((f[q] + float64(q*q)) - (f[p] + float64(p*p))) / float64(2*(q-p))
			if s > z[k] {
				break
			}
			k--
		}
		k++
		v[k] = q
		z[k] = s
		z[k+1] = math.Inf(1)
	}

	k = 0
	for q := 0; q < n; q++ {
		for z[k+1] < float64(q) {
			k++
		}
		dx := float64(q - v[k])
		d[q] = dx*dx + f[v[k]]
	}
}
