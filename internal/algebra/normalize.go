package algebra

import "math"

// Normalize maps integer results back into 0..255. When the maximum
// exceeds 255 the range [min, max] is mapped linearly onto [min', 255] with
// min' the minimum clamped at 0. When the minimum is below 0 the range is
// mapped onto [0, max'] with max' the maximum clamped at 255. Values
// already in range are returned unchanged. A degenerate range collapses onto
// the bound that was exceeded.
func Normalize(vals []int) []uint8 {
	out := make([]uint8, len(vals))
	if len(vals) == 0 {
		return out
	}

	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	switch {
	case hi > 255:
		dstLo := clamp(lo)
		remap(out, vals, lo, hi, dstLo, 255)
	case lo < 0:
		dstHi := clamp(hi)
		remap(out, vals, lo, hi, 0, dstHi)
	default:
		for i, v := range vals {
			out[i] = uint8(v)
		}
	}
	return out
}

func remap(out []uint8, vals []int, lo, hi, dstLo, dstHi int) {
	if hi == lo {
		fill := dstHi
		if lo < 0 {
			fill = dstLo
		}
		for i := range out {
			out[i] = uint8(fill)
		}
		return
	}
	scale := float64(dstHi-dstLo) / float64(hi-lo)
	for i, v := range vals {
		out[i] = uint8(clamp(int(math.Round(float64(dstLo) + float64(v-lo)*scale))))
	}
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
