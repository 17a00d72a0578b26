package histogram

import (
	"fmt"

	"github.com/MeKo-Tech/imagelab/internal/pixel"
)

// EqualizationLUT maps each level through the normalized cumulative
// distribution: LUT[i] = floor((C[i]-cmin)*255/(n-cmin)), where cmin is the
// first non-zero cumulative count. A single-valued histogram has no spread
// to redistribute and yields ErrDegenerateImage.
func EqualizationLUT(h Histogram) ([Levels]uint8, error) {
	var lut [Levels]uint8

	cdf := h.Cumulative()
	n := cdf[Levels-1]
	if n == 0 {
		return lut, pixel.ErrEmptyHistogram
	}

	cmin := 0
	for _, c := range cdf {
		if c > 0 {
			cmin = c
			break
		}
	}
	if n == cmin {
		return lut, fmt.Errorf("%w: all %d samples share one level", pixel.ErrDegenerateImage, n)
	}

	den := n - cmin
	for i, c := range cdf {
		v := 0
		if c > cmin {
			v = (c - cmin) * 255 / den
		}
		lut[i] = pixel.ClampInt(v)
	}
	return lut, nil
}

// OtsuLevel returns the level t that maximizes the between-class variance of
// the split {<= t} / {> t}. Ties keep the lowest level.
func OtsuLevel(h Histogram) (uint8, error) {
	counts := h.Counts()
	total := 0
	sumAll := 0.0
	for i, c := range counts {
		total += c
		sumAll += float64(i * c)
	}
	if total == 0 {
		return 0, pixel.ErrEmptyHistogram
	}

	var (
		wB, sumB   float64
		best       float64
		level      int
		candidates int
	)
	for t := 0; t < Levels; t++ {
		wB += float64(counts[t])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(t * counts[t])

		mB := sumB / wB
		mF := (sumAll - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if candidates == 0 || between > best {
			best = between
			level = t
		}
		candidates++
	}
	return uint8(level), nil
}
