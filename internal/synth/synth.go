// Package synth generates synthetic test images: perlin textures, ramps,
// geometric shapes and organic blobs.
package synth

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/MeKo-Tech/imagelab/internal/pixel"
	"github.com/MeKo-Tech/imagelab/internal/raster"
	"github.com/aquilax/go-perlin"
	"github.com/disintegration/gift"
	"github.com/paulmach/orb"
)

func checkSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: size %dx%d", pixel.ErrInvalidParameter, width, height)
	}
	return nil
}

// Perlin generates a grayscale Perlin noise texture.
// scale controls the feature size in pixels (smaller = more detail);
// seed makes the result deterministic.
func Perlin(width, height int, scale float64, seed int64) (*pixel.Buffer, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	if scale <= 0 {
		return nil, fmt.Errorf("%w: perlin scale %g", pixel.ErrInvalidParameter, scale)
	}
	return pixel.FromGray(perlinGray(width, height, scale, seed)), nil
}

func perlinGray(width, height int, scale float64, seed int64) *image.Gray {
	// alpha 2, beta 2, three octaves
	p := perlin.NewPerlin(2.0, 2.0, 3, seed)

	noise := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			val := p.Noise2D(float64(x)/scale, float64(y)/scale)
			// noise is roughly in [-1, 1]
			normalized := (val + 1.0) / 2.0
			noise.SetGray(x, y, color.Gray{Y: uint8(math.Max(0, math.Min(255, normalized*255)))})
		}
	}
	return noise
}

// Ramp generates a horizontal gradient from lo at the left edge to hi at
// the right edge.
func Ramp(width, height int, lo, hi uint8) (*pixel.Buffer, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	out := pixel.NewBuilder(width, height, pixel.Grayscale)
	for x := 0; x < width; x++ {
		v := float64(lo)
		if width > 1 {
			v += float64(int(hi)-int(lo)) * float64(x) / float64(width-1)
		}
		for y := 0; y < height; y++ {
			out.SetGray(x, y, pixel.ClampU8(v))
		}
	}
	return out.Freeze(), nil
}

// Shape is a filled disc or axis-aligned rectangle in pixel coordinates.
type Shape struct {
	// Disc when Radius > 0, otherwise the rectangle Min..Max.
	Center orb.Point
	Radius float64
	Min    orb.Point
	Max    orb.Point
	Value  uint8
}

// Shapes draws the shapes in order on a background of bg. Pixels are set
// when the shape covers their center, so the result only holds bg and the
// shape values.
func Shapes(width, height int, bg uint8, shapes ...Shape) (*pixel.Buffer, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	out := pixel.NewBuilder(width, height, pixel.Grayscale)
	raw := out.Raw()
	for i := range raw {
		raw[i] = bg
	}
	for _, s := range shapes {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				if s.covers(float64(x)+0.5, float64(y)+0.5) {
					out.SetGray(x, y, s.Value)
				}
			}
		}
	}
	return out.Freeze(), nil
}

func (s Shape) covers(x, y float64) bool {
	if s.Radius > 0 {
		return math.Hypot(x-s.Center[0], y-s.Center[1]) <= s.Radius
	}
	return x >= s.Min[0] && x <= s.Max[0] && y >= s.Min[1] && y <= s.Max[1]
}

// BlobParams controls Blobs.
type BlobParams struct {
	Count    int
	Radius   float64
	Sigma    float32 // blur applied to the disc mask before adding noise
	Scale    float64 // perlin feature size
	Strength float64 // 0 keeps discs, 1 adds the full noise amplitude
	Seed     int64
}

// Blobs renders Count organic shapes: discs on a grid are blurred, pushed
// around by Perlin noise and thresholded. The result is binary.
func Blobs(width, height int, p BlobParams) (*pixel.Buffer, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	if p.Count <= 0 || p.Radius <= 0 || p.Scale <= 0 {
		return nil, fmt.Errorf("%w: blob count, radius and scale must be positive", pixel.ErrInvalidParameter)
	}

	cv := raster.NewCanvas(width, height, color.Black)
	cols := int(math.Ceil(math.Sqrt(float64(p.Count))))
	rows := (p.Count + cols - 1) / cols
	for i := 0; i < p.Count; i++ {
		cx := (float64(i%cols) + 0.5) * float64(width) / float64(cols)
		cy := (float64(i/cols) + 0.5) * float64(height) / float64(rows)
		cv.FillDisc(orb.Point{cx, cy}, p.Radius, color.White)
	}

	mask := image.NewGray(cv.Bounds())
	g := gift.New(gift.Grayscale())
	if p.Sigma > 0 {
		g.Add(gift.GaussianBlur(p.Sigma))
	}
	g.Draw(mask, cv.Image())

	noise := perlinGray(width, height, p.Scale, p.Seed)
	for i, m := range mask.Pix {
		combined := float64(m) + (float64(noise.Pix[i])-128.0)*p.Strength
		if combined >= 128 {
			mask.Pix[i] = 255
		} else {
			mask.Pix[i] = 0
		}
	}

	b, err := pixel.New(width, height, pixel.Binary, mask.Pix)
	if err != nil {
		return nil, err
	}
	return b, nil
}
