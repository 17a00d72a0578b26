package filter

import (
	"fmt"

	"github.com/MeKo-Tech/imagelab/internal/border"
	"github.com/MeKo-Tech/imagelab/internal/pixel"
)

// Predicate decides the new value of a pixel from its 4-neighborhood:
// up, left, right, down and the center itself.
type Predicate func(up, left, right, down, center uint8) uint8

// HorizontalSuppress fills a pixel whose up and down neighbors agree,
// erasing one pixel wide horizontal lines.
func HorizontalSuppress(up, _, _, down, center uint8) uint8 {
	if up == down {
		return up
	}
	return center
}

// VerticalSuppress fills a pixel whose left and right neighbors agree,
// erasing one pixel wide vertical lines.
func VerticalSuppress(_, left, right, _, center uint8) uint8 {
	if left == right {
		return left
	}
	return center
}

// IsolatedOnly fills a pixel whose four neighbors all agree, erasing
// isolated points and nothing else.
func IsolatedOnly(up, left, right, down, center uint8) uint8 {
	if up == left && left == right && right == down {
		return up
	}
	return center
}

// ParsePredicate returns a built-in predicate by name.
func ParsePredicate(name string) (Predicate, error) {
	switch name {
	case "horizontal":
		return HorizontalSuppress, nil
	case "vertical":
		return VerticalSuppress, nil
	case "isolated":
		return IsolatedOnly, nil
	default:
		return nil, fmt.Errorf("%w: unknown logic predicate %q", pixel.ErrInvalidParameter, name)
	}
}

// Logic evaluates pred for every interior pixel. Pixels on the image edge,
// which miss at least one neighbor, are copied unchanged. Every decision
// reads the input buffer, never a partially written result.
func Logic(b *pixel.Buffer, pred Predicate) (*pixel.Buffer, error) {
	if err := requireSingle(b, "logic filter"); err != nil {
		return nil, err
	}
	if pred == nil {
		return nil, fmt.Errorf("%w: nil predicate", pixel.ErrInvalidParameter)
	}
	return logicPass(b, pred, rasterOrder(b.Width(), b.Height())), nil
}

// LogicBordered pads the image by one pixel with pol first, so edge pixels
// are decided by the synthesized border instead of passing through.
func LogicBordered(b *pixel.Buffer, pred Predicate, pol border.Policy) (*pixel.Buffer, error) {
	if err := requireSingle(b, "logic filter"); err != nil {
		return nil, err
	}
	if pred == nil {
		return nil, fmt.Errorf("%w: nil predicate", pixel.ErrInvalidParameter)
	}
	return border.Apply(b, 1, pol, func(in *pixel.Buffer) (*pixel.Buffer, error) {
		res := logicPass(in, pred, rasterOrder(in.Width(), in.Height()))
		return crop(res, 1), nil
	})
}

// logicPass visits pixels in the given order. The order cannot change the
// result because reads only ever touch src.
func logicPass(src *pixel.Buffer, pred Predicate, order []int) *pixel.Buffer {
	w, h := src.Width(), src.Height()
	mode := src.Mode()
	out := pixel.NewBuilder(w, h, mode)
	dst := out.Raw()
	for _, i := range order {
		x, y := i%w, i/w
		c := src.Gray(x, y)
		if x == 0 || y == 0 || x == w-1 || y == h-1 {
			dst[i] = c
			continue
		}
		v := pred(src.Gray(x, y-1), src.Gray(x-1, y), src.Gray(x+1, y), src.Gray(x, y+1), c)
		if mode == pixel.Binary && v != 0 && v != 255 {
			v = c
		}
		dst[i] = v
	}
	return out.Freeze()
}

func rasterOrder(w, h int) []int {
	order := make([]int, w*h)
	for i := range order {
		order[i] = i
	}
	return order
}
