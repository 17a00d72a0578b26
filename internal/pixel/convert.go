package pixel

// Luma returns the ITU-R 601 luma of an RGB triple, rounded.
func Luma(r, g, b uint8) uint8 {
	return uint8((299*int(r) + 587*int(g) + 114*int(b) + 500) / 1000)
}

// ToGray converts a buffer to Grayscale. Binary and grayscale buffers are
// retagged, color buffers are reduced with Luma.
func ToGray(b *Buffer) *Buffer {
	if b.mode != Color {
		return FromSamples(b.width, b.height, Grayscale, b.Samples())
	}
	out := make([]uint8, b.Len())
	for i := range out {
		j := i * 3
		out[i] = Luma(b.samples[j], b.samples[j+1], b.samples[j+2])
	}
	return FromSamples(b.width, b.height, Grayscale, out)
}

// ToBinary converts a buffer to Binary: samples at or above level become
// 255, the rest 0. Color buffers are reduced with Luma first.
func ToBinary(b *Buffer, level uint8) *Buffer {
	g := b
	if b.mode == Color {
		g = ToGray(b)
	}
	return g.Map(Binary, func(v uint8) uint8 {
		if v >= level {
			return 255
		}
		return 0
	})
}

// DefaultBinaryLevel splits the range in halves.
const DefaultBinaryLevel = 128

// ClampU8 rounds and clamps a float to the 8-bit range.
func ClampU8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// ClampInt clamps an integer to the 8-bit range.
func ClampInt(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
