// Package algebra combines same-shaped buffers pixel by pixel.
package algebra

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/imagelab/internal/pixel"
)

// Op is a pixelwise operation between two images.
type Op int

const (
	Add Op = iota
	Sub
	And
	Or
	Xor
	Not
)

var opNames = map[Op]string{
	Add: "add",
	Sub: "sub",
	And: "and",
	Or:  "or",
	Xor: "xor",
	Not: "not",
}

func (o Op) String() string {
	if n, ok := opNames[o]; ok {
		return n
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// Unary reports whether the op reads only its first operand.
func (o Op) Unary() bool { return o == Not }

func (o Op) bitwise() bool { return o == And || o == Or || o == Xor || o == Not }

// ParseOp converts an op name to an Op.
func ParseOp(s string) (Op, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for op, name := range opNames {
		if name == s {
			return op, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown op %q", pixel.ErrInvalidParameter, s)
}

// Combine applies op to a and b. Sub is the absolute difference and Not is
// the bitwise complement of a (b is ignored and may be nil). Both inputs
// must be single-channel with equal size and mode. Without normalize,
// out-of-range sums are clamped at 255.
func Combine(a, b *pixel.Buffer, op Op, normalize bool) (*pixel.Buffer, error) {
	if err := checkOperand(a); err != nil {
		return nil, err
	}
	if !op.Unary() {
		if b == nil {
			return nil, fmt.Errorf("%w: %v needs two images", pixel.ErrIncompatibleImages, op)
		}
		if err := checkOperand(b); err != nil {
			return nil, err
		}
		if !a.SameShape(b) {
			return nil, fmt.Errorf("%w: %dx%d %v vs %dx%d %v", pixel.ErrIncompatibleImages,
				a.Width(), a.Height(), a.Mode(), b.Width(), b.Height(), b.Mode())
		}
	}

	as := a.Samples()
	var bs []uint8
	if !op.Unary() {
		bs = b.Samples()
	}

	vals := make([]int, len(as))
	for i, p := range as {
		x := int(p)
		var y int
		if bs != nil {
			y = int(bs[i])
		}
		switch op {
		case Add:
			vals[i] = x + y
		case Sub:
			if x > y {
				vals[i] = x - y
			} else {
				vals[i] = y - x
			}
		case And:
			vals[i] = x & y
		case Or:
			vals[i] = x | y
		case Xor:
			vals[i] = x ^ y
		case Not:
			vals[i] = int(^p)
		default:
			return nil, fmt.Errorf("%w: op %d", pixel.ErrInvalidParameter, op)
		}
	}

	var out []uint8
	if normalize {
		out = Normalize(vals)
	} else {
		out = make([]uint8, len(vals))
		for i, v := range vals {
			out[i] = pixel.ClampInt(v)
		}
	}

	mode := pixel.Grayscale
	if a.Mode() == pixel.Binary && op.bitwise() {
		mode = pixel.Binary
	}
	return pixel.FromSamples(a.Width(), a.Height(), mode, out), nil
}

// CombineAll folds op over bufs from left to right.
func CombineAll(bufs []*pixel.Buffer, op Op, normalize bool) (*pixel.Buffer, error) {
	if len(bufs) == 0 {
		return nil, fmt.Errorf("%w: no images", pixel.ErrInvalidParameter)
	}
	if op.Unary() {
		if len(bufs) != 1 {
			return nil, fmt.Errorf("%w: %v takes one image, got %d", pixel.ErrIncompatibleImages, op, len(bufs))
		}
		return Combine(bufs[0], nil, op, normalize)
	}
	if len(bufs) < 2 {
		return nil, fmt.Errorf("%w: %v needs at least two images", pixel.ErrIncompatibleImages, op)
	}

	acc := bufs[0]
	for _, b := range bufs[1:] {
		if acc.Mode() != b.Mode() && acc.Mode().Single() && b.Mode().Single() {
			// an intermediate grayscale result may meet a binary operand
			b = pixel.ToGray(b)
			acc = pixel.ToGray(acc)
		}
		next, err := Combine(acc, b, op, normalize)
		if err != nil {
			return nil, err
		}
		acc = next
	}
	return acc, nil
}

func checkOperand(b *pixel.Buffer) error {
	if b == nil {
		return fmt.Errorf("%w: missing image", pixel.ErrIncompatibleImages)
	}
	if !b.Mode().Single() {
		return fmt.Errorf("%w: %v images are not supported", pixel.ErrIncompatibleImages, b.Mode())
	}
	return nil
}
