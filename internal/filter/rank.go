package filter

import (
	"fmt"
	"slices"

	"github.com/MeKo-Tech/imagelab/internal/border"
	"github.com/MeKo-Tech/imagelab/internal/pixel"
)

// Median replaces each pixel with the median of its k x k neighborhood.
// k must be odd and at least 3.
func Median(b *pixel.Buffer, k int, pol border.Policy) (*pixel.Buffer, error) {
	if err := requireSingle(b, "median"); err != nil {
		return nil, err
	}
	if k < 3 || k%2 == 0 {
		return nil, fmt.Errorf("%w: median size %d must be odd and >= 3", pixel.ErrInvalidParameter, k)
	}
	r := k / 2
	mode := b.Mode()

	return border.Apply(b, r, pol, func(in *pixel.Buffer) (*pixel.Buffer, error) {
		w, h := in.Width()-2*r, in.Height()-2*r
		out := pixel.NewBuilder(w, h, mode)
		window := make([]uint8, k*k)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				n := 0
				for dy := 0; dy < k; dy++ {
					for dx := 0; dx < k; dx++ {
						window[n] = in.Gray(x+dx, y+dy)
						n++
					}
				}
				slices.Sort(window)
				out.SetGray(x, y, window[len(window)/2])
			}
		}
		return out.Freeze(), nil
	})
}

// MorphOp is a binary morphological operator.
type MorphOp int

const (
	Erode MorphOp = iota
	Dilate
	Open
	Close
)

func (o MorphOp) String() string {
	switch o {
	case Erode:
		return "erode"
	case Dilate:
		return "dilate"
	case Open:
		return "open"
	case Close:
		return "close"
	default:
		return fmt.Sprintf("morph(%d)", int(o))
	}
}

// ParseMorphOp converts an operator name.
func ParseMorphOp(s string) (MorphOp, error) {
	for _, op := range []MorphOp{Erode, Dilate, Open, Close} {
		if op.String() == s {
			return op, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown morphology %q", pixel.ErrInvalidParameter, s)
}

// plus is the 3x3 cross structuring element as (dx, dy) offsets.
var plus = [5][2]int{{0, 0}, {0, -1}, {-1, 0}, {1, 0}, {0, 1}}

// Morphology applies op with a plus-shaped 3x3 structuring element. Erode
// takes the neighborhood minimum and Dilate the maximum; neighbors outside
// the image do not take part. Open erodes then dilates, Close dilates then
// erodes. On binary input this is classic binary morphology; grayscale
// input gets the flat grayscale equivalent.
func Morphology(b *pixel.Buffer, op MorphOp) (*pixel.Buffer, error) {
	if err := requireSingle(b, "morphology"); err != nil {
		return nil, err
	}
	switch op {
	case Erode:
		return rankPlus(b, false), nil
	case Dilate:
		return rankPlus(b, true), nil
	case Open:
		return rankPlus(rankPlus(b, false), true), nil
	case Close:
		return rankPlus(rankPlus(b, true), false), nil
	default:
		return nil, fmt.Errorf("%w: morphology %d", pixel.ErrInvalidParameter, op)
	}
}

// MorphologyBordered runs op on a buffer padded by pol, so the outside of
// the image takes part through the synthesized border.
func MorphologyBordered(b *pixel.Buffer, op MorphOp, pol border.Policy) (*pixel.Buffer, error) {
	if err := requireSingle(b, "morphology"); err != nil {
		return nil, err
	}
	steps := 1
	if op == Open || op == Close {
		steps = 2
	}
	return border.Apply(b, steps, pol, func(in *pixel.Buffer) (*pixel.Buffer, error) {
		res, err := Morphology(in, op)
		if err != nil {
			return nil, err
		}
		return crop(res, steps), nil
	})
}

func rankPlus(b *pixel.Buffer, dilate bool) *pixel.Buffer {
	w, h := b.Width(), b.Height()
	out := pixel.NewBuilder(w, h, b.Mode())
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := b.Gray(x, y)
			for _, d := range plus[1:] {
				nx, ny := x+d[0], y+d[1]
				if !b.In(nx, ny) {
					continue
				}
				n := b.Gray(nx, ny)
				if (dilate && n > v) || (!dilate && n < v) {
					v = n
				}
			}
			out.SetGray(x, y, v)
		}
	}
	return out.Freeze()
}

// crop removes pad pixels from every side.
func crop(b *pixel.Buffer, pad int) *pixel.Buffer {
	w, h := b.Width()-2*pad, b.Height()-2*pad
	out := pixel.NewBuilder(w, h, b.Mode())
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < b.Channels(); c++ {
				out.Set(x, y, c, b.At(x+pad, y+pad, c))
			}
		}
	}
	return out.Freeze()
}
