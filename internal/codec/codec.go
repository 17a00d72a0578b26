// Package codec moves images between files and pixel buffers.
package codec

import (
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/imagelab/internal/pixel"
	"github.com/disintegration/gift"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// LoadMode selects the buffer mode an image is converted to on load.
type LoadMode int

const (
	// Auto keeps gray images gray and everything else color.
	Auto LoadMode = iota
	Gray
	Color
	Binary
)

// ParseLoadMode accepts "auto", "gray", "color" and "binary".
func ParseLoadMode(s string) (LoadMode, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return Auto, nil
	case "gray", "grey", "grayscale":
		return Gray, nil
	case "color", "rgb":
		return Color, nil
	case "binary":
		return Binary, nil
	}
	return Auto, fmt.Errorf("%w: unknown load mode %q", pixel.ErrInvalidParameter, s)
}

// Load decodes the file at path, applying EXIF orientation.
func Load(path string, mode LoadMode) (*pixel.Buffer, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	return FromImage(img, mode), nil
}

// Decode reads an image from r.
func Decode(r io.Reader, mode LoadMode) (*pixel.Buffer, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return FromImage(img, mode), nil
}

// FromImage converts img to a buffer in the requested mode. Gray and
// binary conversion go through the gift grayscale filter.
func FromImage(img image.Image, mode LoadMode) *pixel.Buffer {
	switch mode {
	case Gray:
		return pixel.FromGray(grayscale(img))
	case Binary:
		return pixel.ToBinary(pixel.FromGray(grayscale(img)), pixel.DefaultBinaryLevel)
	case Color:
		b := pixel.FromImage(img)
		if b.Mode() == pixel.Color {
			return b
		}
		return expand(b)
	default:
		return pixel.FromImage(img)
	}
}

func grayscale(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	g := gift.New(gift.Grayscale())
	dst := image.NewGray(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return dst
}

// expand copies a single-channel buffer into all three color channels.
func expand(b *pixel.Buffer) *pixel.Buffer {
	out := pixel.NewBuilder(b.Width(), b.Height(), pixel.Color)
	for y := 0; y < b.Height(); y++ {
		for x := 0; x < b.Width(); x++ {
			v := b.Gray(x, y)
			out.Set(x, y, 0, v)
			out.Set(x, y, 1, v)
			out.Set(x, y, 2, v)
		}
	}
	return out.Freeze()
}

// Save encodes b to path; the format follows the file extension (png,
// jpg, gif, tif, bmp).
func Save(path string, b *pixel.Buffer) error {
	return SaveImage(path, b.Image())
}

// SaveImage encodes any image to path, used for plots and overlays.
func SaveImage(path string, img image.Image) error {
	if _, err := imaging.FormatFromFilename(path); err != nil {
		return fmt.Errorf("cannot save %s: %w", filepath.Base(path), err)
	}
	if err := imaging.Save(img, path, imaging.JPEGQuality(95)); err != nil {
		return fmt.Errorf("failed to save image %s: %w", path, err)
	}
	return nil
}

// Encode writes b to w in the named format ("png", "jpg", ...).
func Encode(w io.Writer, b *pixel.Buffer, format string) error {
	f, err := imaging.FormatFromExtension(format)
	if err != nil {
		return fmt.Errorf("cannot encode as %q: %w", format, err)
	}
	return imaging.Encode(w, b.Image(), f)
}
