package contour

import (
	"image"
	"image/color"

	"github.com/MeKo-Tech/imagelab/internal/pixel"
	"github.com/MeKo-Tech/imagelab/internal/raster"
	"github.com/paulmach/orb"
)

// Overlay draws every contour over the image, each in its own color with
// a translucent fill.
func Overlay(b *pixel.Buffer, cs []Contour) *image.NRGBA {
	cv := raster.NewCanvasFrom(b.Image())
	colors := raster.Palette(len(cs))
	for i, c := range cs {
		ring := centered(c.Ring)
		r, g, bl, _ := colors[i].RGBA()
		fill := color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(bl >> 8), A: 72}
		if len(ring) >= 3 {
			cv.FillPolygon(orb.Polygon{ring}, fill)
		}
		cv.StrokeRing(ring, 1, colors[i])
	}
	return cv.Image()
}

// centered moves vertices from pixel corners to pixel centers.
func centered(r orb.Ring) orb.Ring {
	out := make(orb.Ring, len(r))
	for i, p := range r {
		out[i] = orb.Point{p[0] + 0.5, p[1] + 0.5}
	}
	return out
}
