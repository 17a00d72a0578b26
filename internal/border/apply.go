package border

import (
	"fmt"

	"github.com/MeKo-Tech/imagelab/internal/pixel"
)

// ValidFunc computes a "valid" neighborhood result: for an input of size
// w x h it returns (w-2*pad) x (h-2*pad), one pixel per full neighborhood.
type ValidFunc func(*pixel.Buffer) (*pixel.Buffer, error)

// Apply runs a valid-mode operation so that the result has the size of b.
// Constant, Reflect and Wrap pad b first and let fn consume the padding.
// ConstantAfter runs fn on b itself and frames the smaller result with the
// policy value.
func Apply(b *pixel.Buffer, pad int, policy Policy, fn ValidFunc) (*pixel.Buffer, error) {
	if pad < 0 {
		return nil, fmt.Errorf("%w: negative pad %d", pixel.ErrInvalidParameter, pad)
	}

	var out *pixel.Buffer
	if policy.Kind == ConstantAfter && pad > 0 {
		if b.Width() <= 2*pad || b.Height() <= 2*pad {
			// no full neighborhood fits; the frame covers everything
			return pixel.Filled(b.Width(), b.Height(), b.Mode(), fillValue(b.Mode(), policy.Value))
		}
		inner, err := fn(b)
		if err != nil {
			return nil, err
		}
		out, err = Pad(inner, pad, Policy{Kind: Constant, Value: policy.Value})
		if err != nil {
			return nil, err
		}
	} else {
		padded, err := Pad(b, pad, policy)
		if err != nil {
			return nil, err
		}
		out, err = fn(padded)
		if err != nil {
			return nil, err
		}
	}

	if out.Width() != b.Width() || out.Height() != b.Height() {
		return nil, fmt.Errorf("border: operation returned %dx%d for %dx%d input with pad %d",
			out.Width(), out.Height(), b.Width(), b.Height(), pad)
	}
	return out, nil
}
