// Package raster draws vector shapes (polygons, polylines, discs) onto
// RGBA canvases for plots and overlays.
package raster

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/paulmach/orb"
	"golang.org/x/image/vector"
)

// Canvas is an NRGBA image plus the rasterizer used to draw on it.
type Canvas struct {
	img *image.NRGBA
	ras *vector.Rasterizer
	w   int
	h   int
}

// NewCanvas creates a canvas filled with bg.
func NewCanvas(w, h int, bg color.Color) *Canvas {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	return &Canvas{img: img, ras: vector.NewRasterizer(w, h), w: w, h: h}
}

// NewCanvasFrom copies src onto a new canvas anchored at the origin.
func NewCanvasFrom(src image.Image) *Canvas {
	b := src.Bounds()
	img := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(img, img.Bounds(), src, b.Min, draw.Src)
	return &Canvas{img: img, ras: vector.NewRasterizer(b.Dx(), b.Dy()), w: b.Dx(), h: b.Dy()}
}

// Image returns the canvas image.
func (c *Canvas) Image() *image.NRGBA { return c.img }

// Bounds returns the canvas rectangle.
func (c *Canvas) Bounds() image.Rectangle { return c.img.Bounds() }

// FillPolygon fills every ring of poly with col using the nonzero rule.
// Coordinates are in pixels; (0.5, 0.5) is the center of the first pixel.
func (c *Canvas) FillPolygon(poly orb.Polygon, col color.Color) {
	if len(poly) == 0 {
		return
	}
	c.ras.Reset(c.w, c.h)
	drawn := false
	for _, ring := range poly {
		if len(ring) < 3 {
			continue
		}
		c.ras.MoveTo(float32(ring[0][0]), float32(ring[0][1]))
		for _, pt := range ring[1:] {
			c.ras.LineTo(float32(pt[0]), float32(pt[1]))
		}
		c.ras.ClosePath()
		drawn = true
	}
	if drawn {
		c.ras.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{})
	}
}

// StrokeLineString draws ls with the given width. Segments are filled as
// quads and joints as discs.
func (c *Canvas) StrokeLineString(ls orb.LineString, width float64, col color.Color) {
	if len(ls) == 0 {
		return
	}
	r := width / 2
	if len(ls) == 1 {
		c.FillDisc(ls[0], r, col)
		return
	}
	for i := 0; i < len(ls)-1; i++ {
		a, b := ls[i], ls[i+1]
		dx, dy := b[0]-a[0], b[1]-a[1]
		segLen := math.Hypot(dx, dy)
		if segLen == 0 {
			continue
		}
		nx, ny := -dy/segLen*r, dx/segLen*r
		c.FillPolygon(orb.Polygon{{
			{a[0] + nx, a[1] + ny},
			{b[0] + nx, b[1] + ny},
			{b[0] - nx, b[1] - ny},
			{a[0] - nx, a[1] - ny},
		}}, col)
	}
	if r > 0.75 {
		for _, p := range ls {
			c.FillDisc(p, r, col)
		}
	}
}

// StrokeRing draws the closed outline of ring.
func (c *Canvas) StrokeRing(ring orb.Ring, width float64, col color.Color) {
	if len(ring) == 0 {
		return
	}
	ls := orb.LineString(ring)
	if !ring.Closed() {
		ls = append(append(orb.LineString(nil), ring...), ring[0])
	}
	c.StrokeLineString(ls, width, col)
}

// FillDisc fills a circle approximated by a 16-gon.
func (c *Canvas) FillDisc(center orb.Point, radius float64, col color.Color) {
	if radius <= 0 {
		return
	}
	const sides = 16
	ring := make(orb.Ring, sides)
	for i := range ring {
		a := 2 * math.Pi * float64(i) / sides
		ring[i] = orb.Point{center[0] + radius*math.Cos(a), center[1] + radius*math.Sin(a)}
	}
	c.FillPolygon(orb.Polygon{ring}, col)
}

// Palette returns n well separated, saturated colors.
func Palette(n int) []color.Color {
	out := make([]color.Color, n)
	for i := range out {
		hue := math.Mod(float64(i)*360/float64(max(n, 1))+10, 360)
		out[i] = colorful.Hsv(hue, 0.85, 0.9).Clamped()
	}
	return out
}

// ChannelColors are the series colors of red, green and blue channels.
var ChannelColors = []color.Color{
	colorful.Color{R: 0.84, G: 0.15, B: 0.16},
	colorful.Color{R: 0.17, G: 0.63, B: 0.17},
	colorful.Color{R: 0.12, G: 0.47, B: 0.71},
}

// Ink is the default color for single series.
var Ink color.Color = colorful.Color{R: 0.1, G: 0.1, B: 0.1}
