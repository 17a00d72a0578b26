// Package border extends buffers past their edges so that neighborhood
// operations can produce same-size output.
package border

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/imagelab/internal/pixel"
)

// Kind selects how pixels outside the buffer are synthesized.
type Kind int

const (
	// Constant pads with Value before filtering; the filter sees the fill.
	Constant Kind = iota
	// ConstantAfter filters the interior only and frames the result with Value.
	ConstantAfter
	// Reflect mirrors the buffer including the edge pixel (abc|cba).
	Reflect
	// Wrap tiles the buffer from the opposite edge.
	Wrap
)

func (k Kind) String() string {
	switch k {
	case Constant:
		return "constant"
	case ConstantAfter:
		return "constant-after"
	case Reflect:
		return "reflect"
	case Wrap:
		return "wrap"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Policy is a border strategy plus the fill value for the constant kinds.
type Policy struct {
	Kind  Kind
	Value uint8
}

func (p Policy) String() string {
	if p.Kind == Constant || p.Kind == ConstantAfter {
		return fmt.Sprintf("%s:%d", p.Kind, p.Value)
	}
	return p.Kind.String()
}

// Default is the policy used when callers do not choose one.
var Default = Policy{Kind: Reflect}

// Parse reads a policy such as "reflect", "wrap", "constant:0" or
// "constant-after:255".
func Parse(s string) (Policy, error) {
	name, val, hasVal := strings.Cut(strings.TrimSpace(s), ":")
	var p Policy
	switch strings.ToLower(name) {
	case "constant", "const":
		p.Kind = Constant
	case "constant-after", "after":
		p.Kind = ConstantAfter
	case "reflect", "mirror":
		p.Kind = Reflect
	case "wrap", "tile":
		p.Kind = Wrap
	default:
		return Policy{}, fmt.Errorf("%w: unknown border %q", pixel.ErrInvalidParameter, s)
	}
	if hasVal {
		if p.Kind != Constant && p.Kind != ConstantAfter {
			return Policy{}, fmt.Errorf("%w: border %q takes no value", pixel.ErrInvalidParameter, name)
		}
		v, err := strconv.Atoi(val)
		if err != nil || v < 0 || v > 255 {
			return Policy{}, fmt.Errorf("%w: border value %q", pixel.ErrInvalidParameter, val)
		}
		p.Value = uint8(v)
	}
	return p, nil
}

// Pad grows b by pad pixels on each side. ConstantAfter pads like Constant.
func Pad(b *pixel.Buffer, pad int, policy Policy) (*pixel.Buffer, error) {
	if pad < 0 {
		return nil, fmt.Errorf("%w: negative pad %d", pixel.ErrInvalidParameter, pad)
	}
	if pad == 0 {
		return b, nil
	}

	w, h, ch := b.Width(), b.Height(), b.Channels()
	pw, ph := w+2*pad, h+2*pad
	out := pixel.NewBuilder(pw, ph, b.Mode())
	fill := fillValue(b.Mode(), policy.Value)

	for y := 0; y < ph; y++ {
		sy, inY := policy.index(y-pad, h)
		for x := 0; x < pw; x++ {
			sx, inX := policy.index(x-pad, w)
			for c := 0; c < ch; c++ {
				if inX && inY {
					out.Set(x, y, c, b.At(sx, sy, c))
				} else {
					out.Set(x, y, c, fill)
				}
			}
		}
	}
	return out.Freeze(), nil
}

// index maps a possibly outside coordinate to a source coordinate. The
// boolean is false when the constant fill must be used instead.
func (p Policy) index(i, n int) (int, bool) {
	if i >= 0 && i < n {
		return i, true
	}
	switch p.Kind {
	case Reflect:
		return ReflectIndex(i, n), true
	case Wrap:
		return WrapIndex(i, n), true
	default:
		return 0, false
	}
}

// ReflectIndex folds i into [0, n) with period 2n, repeating the edge pixel.
func ReflectIndex(i, n int) int {
	period := 2 * n
	m := i % period
	if m < 0 {
		m += period
	}
	if m >= n {
		m = period - 1 - m
	}
	return m
}

// WrapIndex folds i into [0, n) modulo n.
func WrapIndex(i, n int) int {
	m := i % n
	if m < 0 {
		m += n
	}
	return m
}

func fillValue(mode pixel.Mode, v uint8) uint8 {
	if mode != pixel.Binary {
		return v
	}
	if v >= pixel.DefaultBinaryLevel {
		return 255
	}
	return 0
}
