package point

import (
	"fmt"
	"math"
	"strings"

	"github.com/MeKo-Tech/imagelab/internal/algebra"
	"github.com/MeKo-Tech/imagelab/internal/pixel"
)

// ScalarOp is an arithmetic operation between an image and a constant.
type ScalarOp int

const (
	ScalarAdd ScalarOp = iota
	ScalarMultiply
	ScalarDivide
)

// ParseScalarOp accepts "add", "mul" and "div" and their symbols.
func ParseScalarOp(s string) (ScalarOp, error) {
	switch strings.ToLower(s) {
	case "add", "+":
		return ScalarAdd, nil
	case "mul", "multiply", "*":
		return ScalarMultiply, nil
	case "div", "divide", "/":
		return ScalarDivide, nil
	default:
		return 0, fmt.Errorf("%w: unknown scalar op %q", pixel.ErrInvalidParameter, s)
	}
}

// ScalarMath combines every sample with value. Division truncates toward
// zero and treats a zero divisor as 1. Results are clamped to 0..255, or
// passed through algebra.Normalize when normalize is set.
func ScalarMath(b *pixel.Buffer, op ScalarOp, value float64, normalize bool) (*pixel.Buffer, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, fmt.Errorf("%w: scalar %v", pixel.ErrInvalidParameter, value)
	}
	if op == ScalarDivide && value == 0 {
		value = 1
	}

	src := b.Samples()
	vals := make([]int, len(src))
	for i, p := range src {
		switch op {
		case ScalarAdd:
			vals[i] = int(math.Round(float64(p) + value))
		case ScalarMultiply:
			vals[i] = int(math.Round(float64(p) * value))
		case ScalarDivide:
			vals[i] = int(float64(p) / value)
		default:
			return nil, fmt.Errorf("%w: scalar op %d", pixel.ErrInvalidParameter, op)
		}
	}

	var out []uint8
	if normalize {
		out = algebra.Normalize(vals)
	} else {
		out = make([]uint8, len(vals))
		for i, v := range vals {
			out[i] = pixel.ClampInt(v)
		}
	}

	mode := b.Mode()
	if mode == pixel.Binary {
		mode = pixel.Grayscale
	}
	return pixel.FromSamples(b.Width(), b.Height(), mode, out), nil
}
