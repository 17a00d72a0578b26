package pixel

import "errors"

// Error kinds returned by the engine. Callers match them with errors.Is;
// the concrete error carries detail through %w wrapping.
var (
	ErrInvalidParameter   = errors.New("invalid parameter")
	ErrIncompatibleImages = errors.New("incompatible images")
	ErrEmptyHistogram     = errors.New("empty histogram")
	ErrDegenerateImage    = errors.New("degenerate image")
	ErrUnsupportedMode    = errors.New("unsupported mode")
	ErrIndexOutOfRange    = errors.New("index out of range")
)
