package profile

import (
	"fmt"
	"image"
	"image/color"

	"github.com/MeKo-Tech/imagelab/internal/pixel"
	"github.com/MeKo-Tech/imagelab/internal/raster"
	"github.com/paulmach/orb"
)

const plotMargin = 8

// Plot draws the profile as one polyline per channel on a width x height
// image. The vertical axis spans 0..255.
func Plot(samples []Sample, width, height int) (image.Image, error) {
	if width <= 2*plotMargin || height <= 2*plotMargin {
		return nil, fmt.Errorf("%w: plot size %dx%d", pixel.ErrInvalidParameter, width, height)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: empty profile", pixel.ErrInvalidParameter)
	}

	cv := raster.NewCanvas(width, height, color.White)
	pw := float64(width - 2*plotMargin)
	ph := float64(height - 2*plotMargin)

	frame := orb.Ring{
		{plotMargin, plotMargin},
		{plotMargin + pw, plotMargin},
		{plotMargin + pw, plotMargin + ph},
		{plotMargin, plotMargin + ph},
	}
	cv.StrokeRing(frame, 1, color.Gray{Y: 180})

	channels := len(samples[0].Values)
	colors := []color.Color{raster.Ink}
	if channels == 3 {
		colors = raster.ChannelColors
	}

	step := 0.0
	if len(samples) > 1 {
		step = pw / float64(len(samples)-1)
	}
	for c := 0; c < channels; c++ {
		ls := make(orb.LineString, len(samples))
		for i, s := range samples {
			ls[i] = orb.Point{
				plotMargin + float64(i)*step,
				plotMargin + ph - float64(s.Values[c])/255*ph,
			}
		}
		cv.StrokeLineString(ls, 1.5, colors[c%len(colors)])
	}
	return cv.Image(), nil
}
