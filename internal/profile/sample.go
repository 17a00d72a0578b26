package profile

import (
	"encoding/csv"
	"fmt"
	"image"
	"io"
	"strconv"

	"github.com/MeKo-Tech/imagelab/internal/pixel"
)

// Sample is the value of one path pixel: one entry for single-channel
// buffers, three for color.
type Sample struct {
	Point  image.Point
	Values []uint8
}

// SampleAlong reads the buffer along pts. A point outside the buffer is an error;
// nothing is clamped.
func SampleAlong(b *pixel.Buffer, pts []image.Point) ([]Sample, error) {
	ch := b.Channels()
	out := make([]Sample, len(pts))
	for i, p := range pts {
		if !b.In(p.X, p.Y) {
			return nil, fmt.Errorf("%w: point %d (%d,%d) outside %dx%d",
				pixel.ErrIndexOutOfRange, i, p.X, p.Y, b.Width(), b.Height())
		}
		vals := make([]uint8, ch)
		for c := range vals {
			vals[c] = b.At(p.X, p.Y, c)
		}
		out[i] = Sample{Point: p, Values: vals}
	}
	return out, nil
}

// Sample reads the buffer along a drawn path.
func (p *Path) Sample(b *pixel.Buffer) ([]Sample, error) {
	return SampleAlong(b, p.pixels)
}

// WriteCSV writes samples as semicolon separated rows, preceded by a
// "sep=;" hint for spreadsheet applications.
func WriteCSV(w io.Writer, samples []Sample) error {
	if _, err := io.WriteString(w, "sep=;\n"); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	header := []string{"index", "x", "y", "value"}
	if len(samples) > 0 && len(samples[0].Values) == 3 {
		header = []string{"index", "x", "y", "r", "g", "b"}
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, s := range samples {
		rec := []string{strconv.Itoa(i), strconv.Itoa(s.Point.X), strconv.Itoa(s.Point.Y)}
		for _, v := range s.Values {
			rec = append(rec, strconv.Itoa(int(v)))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
