// Package histogram computes intensity histograms, their statistics and the
// lookup tables derived from them.
package histogram

import (
	"fmt"
	"image"
	"math"

	"github.com/MeKo-Tech/imagelab/internal/pixel"
	bildhist "github.com/anthonynsimon/bild/histogram"
	"github.com/nfnt/resize"
)

// Levels is the number of intensity levels of an 8-bit channel.
const Levels = 256

// Histogram counts the occurrences of each intensity level in one channel.
type Histogram struct {
	bins bildhist.Histogram
}

// Compute counts the samples of the selected channel. The channel is ignored
// for grayscale and binary buffers; for color buffers it selects R, G or B.
func Compute(b *pixel.Buffer, channel int) (Histogram, error) {
	if b.Mode().Single() {
		channel = 0
	}
	plane, err := b.Channel(channel)
	if err != nil {
		return Histogram{}, err
	}

	bins := make([]int, Levels)
	for _, v := range plane {
		bins[v]++
	}
	return Histogram{bins: bildhist.Histogram{Bins: bins}}, nil
}

// FromCounts builds a histogram from explicit counts.
func FromCounts(counts [Levels]int) Histogram {
	bins := make([]int, Levels)
	copy(bins, counts[:])
	return Histogram{bins: bildhist.Histogram{Bins: bins}}
}

// Count returns the number of samples at level.
func (h Histogram) Count(level uint8) int {
	if h.bins.Bins == nil {
		return 0
	}
	return h.bins.Bins[level]
}

// Counts returns a copy of all bins.
func (h Histogram) Counts() [Levels]int {
	var out [Levels]int
	copy(out[:], h.bins.Bins)
	return out
}

// Total returns the number of sampled pixels.
func (h Histogram) Total() int {
	n := 0
	for _, c := range h.bins.Bins {
		n += c
	}
	return n
}

// Cumulative returns the cumulative distribution C[i] = sum of counts up to i.
func (h Histogram) Cumulative() [Levels]int {
	var out [Levels]int
	if h.bins.Bins == nil {
		return out
	}
	copy(out[:], h.bins.Cumulative().Bins)
	return out
}

// Render draws the histogram as bars on a width x height grayscale image.
func Render(h Histogram, width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: plot size %dx%d", pixel.ErrInvalidParameter, width, height)
	}
	if h.Total() == 0 {
		return nil, pixel.ErrEmptyHistogram
	}
	img := h.bins.Image()
	return resize.Resize(uint(width), uint(height), img, resize.NearestNeighbor), nil
}

// Mode is the most frequent level and its count.
type Mode struct {
	Level uint8
	Count int
}

// Stats summarizes a histogram.
type Stats struct {
	N      int
	Mode   Mode
	Mean   float64
	StdDev float64
	Min    uint8
	Max    uint8
}

// Statistics derives the summary in one pass over the bins. The mode is the
// lowest level reaching the maximum count.
func Statistics(h Histogram) (Stats, error) {
	var (
		n          int
		sum, sumSq float64
		st         Stats
		seen       bool
	)
	for level, c := range h.bins.Bins {
		if c == 0 {
			continue
		}
		k := float64(level)
		n += c
		sum += k * float64(c)
		sumSq += k * k * float64(c)
		if !seen {
			st.Min = uint8(level)
			seen = true
		}
		st.Max = uint8(level)
		if c > st.Mode.Count {
			st.Mode = Mode{Level: uint8(level), Count: c}
		}
	}
	if n == 0 {
		return Stats{}, pixel.ErrEmptyHistogram
	}

	st.N = n
	st.Mean = sum / float64(n)
	variance := sumSq/float64(n) - st.Mean*st.Mean
	if variance < 0 {
		variance = 0
	}
	st.StdDev = math.Sqrt(variance)
	return st, nil
}
