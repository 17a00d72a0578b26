// Package pixel provides the immutable 8-bit image buffer shared by every
// transform in imagelab.
package pixel

import (
	"fmt"
	"image"
)

// Mode tags how the samples of a Buffer are interpreted.
type Mode int

const (
	Grayscale Mode = iota
	Color
	Binary
)

func (m Mode) String() string {
	switch m {
	case Grayscale:
		return "grayscale"
	case Color:
		return "color"
	case Binary:
		return "binary"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Channels returns the number of interleaved samples per pixel for the mode.
func (m Mode) Channels() int {
	if m == Color {
		return 3
	}
	return 1
}

// Single reports whether the mode stores one sample per pixel.
func (m Mode) Single() bool {
	return m == Grayscale || m == Binary
}

// ParseMode converts a mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "gray", "grayscale", "L":
		return Grayscale, nil
	case "color", "rgb", "RGB":
		return Color, nil
	case "binary", "1":
		return Binary, nil
	default:
		return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidParameter, s)
	}
}

// Buffer is a row-major 8-bit image with 1 or 3 interleaved channels.
// A Buffer never changes after construction; every transform returns a
// new one. Binary buffers hold only the values 0 and 255.
type Buffer struct {
	samples []uint8
	width   int
	height  int
	mode    Mode
}

// New validates and copies samples into a new Buffer.
func New(width, height int, mode Mode, samples []uint8) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrInvalidParameter, width, height)
	}
	if mode < Grayscale || mode > Binary {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedMode, mode)
	}
	want := width * height * mode.Channels()
	if len(samples) != want {
		return nil, fmt.Errorf("%w: got %d samples, want %d for %dx%d %v",
			ErrInvalidParameter, len(samples), want, width, height, mode)
	}
	if mode == Binary {
		for i, v := range samples {
			if v != 0 && v != 255 {
				return nil, fmt.Errorf("%w: binary sample %d has value %d", ErrInvalidParameter, i, v)
			}
		}
	}

	cp := make([]uint8, len(samples))
	copy(cp, samples)
	return &Buffer{samples: cp, width: width, height: height, mode: mode}, nil
}

// NewGray builds a grayscale buffer from rows of equal length.
func NewGray(rows [][]uint8) (*Buffer, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrInvalidParameter)
	}
	w := len(rows[0])
	samples := make([]uint8, 0, w*len(rows))
	for y, r := range rows {
		if len(r) != w {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidParameter, y, len(r), w)
		}
		samples = append(samples, r...)
	}
	return New(w, len(rows), Grayscale, samples)
}

// MustGray is NewGray for literals known to be well formed.
func MustGray(rows [][]uint8) *Buffer {
	b, err := NewGray(rows)
	if err != nil {
		panic(err)
	}
	return b
}

// Filled returns a buffer where every sample has value v.
func Filled(width, height int, mode Mode, v uint8) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrInvalidParameter, width, height)
	}
	s := make([]uint8, width*height*mode.Channels())
	for i := range s {
		s[i] = v
	}
	return New(width, height, mode, s)
}

func (b *Buffer) Width() int    { return b.width }
func (b *Buffer) Height() int   { return b.height }
func (b *Buffer) Mode() Mode    { return b.mode }
func (b *Buffer) Channels() int { return b.mode.Channels() }
func (b *Buffer) Len() int      { return b.width * b.height }

// Bounds returns the buffer rectangle anchored at the origin.
func (b *Buffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.width, b.height)
}

// In reports whether (x, y) lies inside the buffer.
func (b *Buffer) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.width && y < b.height
}

// At returns sample c of pixel (x, y). It panics when out of range, like a
// slice index would.
func (b *Buffer) At(x, y, c int) uint8 {
	return b.samples[(y*b.width+x)*b.mode.Channels()+c]
}

// Gray returns the first sample of pixel (x, y).
func (b *Buffer) Gray(x, y int) uint8 {
	return b.samples[(y*b.width+x)*b.mode.Channels()]
}

// Samples returns a copy of the raw interleaved samples.
func (b *Buffer) Samples() []uint8 {
	cp := make([]uint8, len(b.samples))
	copy(cp, b.samples)
	return cp
}

// Channel returns a copy of one channel plane.
func (b *Buffer) Channel(c int) ([]uint8, error) {
	n := b.mode.Channels()
	if c < 0 || c >= n {
		return nil, fmt.Errorf("%w: channel %d of %d", ErrInvalidParameter, c, n)
	}
	if n == 1 {
		return b.Samples(), nil
	}
	out := make([]uint8, b.Len())
	for i := range out {
		out[i] = b.samples[i*n+c]
	}
	return out, nil
}

// Extrema returns the smallest and largest sample over all channels.
func (b *Buffer) Extrema() (lo, hi uint8) {
	lo, hi = 255, 0
	for _, v := range b.samples {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Equal reports whether two buffers have identical shape, mode and samples.
func (b *Buffer) Equal(o *Buffer) bool {
	if b == nil || o == nil {
		return b == o
	}
	if b.width != o.width || b.height != o.height || b.mode != o.mode {
		return false
	}
	for i := range b.samples {
		if b.samples[i] != o.samples[i] {
			return false
		}
	}
	return true
}

// SameShape reports whether two buffers share width, height and mode.
func (b *Buffer) SameShape(o *Buffer) bool {
	return b.width == o.width && b.height == o.height && b.mode == o.mode
}

// Map applies f to every sample and returns the result as a new buffer of
// the given mode.
func (b *Buffer) Map(mode Mode, f func(uint8) uint8) *Buffer {
	out := make([]uint8, len(b.samples))
	for i, v := range b.samples {
		out[i] = f(v)
	}
	return &Buffer{samples: out, width: b.width, height: b.height, mode: mode}
}

// MapLUT applies a lookup table to every sample.
func (b *Buffer) MapLUT(lut *[256]uint8) *Buffer {
	return b.Map(b.mode, func(v uint8) uint8 { return lut[v] })
}

// Rows returns the buffer as a slice of sample rows; handy in tests.
func (b *Buffer) Rows() [][]uint8 {
	stride := b.width * b.mode.Channels()
	rows := make([][]uint8, b.height)
	for y := range rows {
		rows[y] = append([]uint8(nil), b.samples[y*stride:(y+1)*stride]...)
	}
	return rows
}
