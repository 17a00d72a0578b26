package pixel

// Builder is the writable counterpart of Buffer. Transforms fill a Builder
// and call Freeze exactly once; the Builder must not be used afterwards.
type Builder struct {
	samples []uint8
	width   int
	height  int
	mode    Mode
}

// NewBuilder allocates a zeroed builder.
func NewBuilder(width, height int, mode Mode) *Builder {
	return &Builder{
		samples: make([]uint8, width*height*mode.Channels()),
		width:   width,
		height:  height,
		mode:    mode,
	}
}

// Set writes sample c of pixel (x, y).
func (w *Builder) Set(x, y, c int, v uint8) {
	w.samples[(y*w.width+x)*w.mode.Channels()+c] = v
}

// SetGray writes the single sample of pixel (x, y).
func (w *Builder) SetGray(x, y int, v uint8) {
	w.samples[y*w.width+x] = v
}

// Raw exposes the sample slice for bulk writes.
func (w *Builder) Raw() []uint8 { return w.samples }

// Freeze hands the samples over to an immutable Buffer without copying.
func (w *Builder) Freeze() *Buffer {
	b := &Buffer{samples: w.samples, width: w.width, height: w.height, mode: w.mode}
	w.samples = nil
	return b
}

// FromSamples wraps freshly allocated samples without copying or checking
// binary values. The caller gives up ownership of samples.
func FromSamples(width, height int, mode Mode, samples []uint8) *Buffer {
	if len(samples) != width*height*mode.Channels() {
		panic("pixel: sample length does not match shape")
	}
	return &Buffer{samples: samples, width: width, height: height, mode: mode}
}
