package pixel

import (
	"image"
	"image/color"
)

// GrayImage copies a single-channel buffer into an *image.Gray. Color
// buffers are reduced with Luma.
func (b *Buffer) GrayImage() *image.Gray {
	g := b
	if b.mode == Color {
		g = ToGray(b)
	}
	img := image.NewGray(b.Bounds())
	copy(img.Pix, g.samples)
	return img
}

// Image returns the buffer as a standard library image: *image.Gray for
// single-channel buffers and *image.NRGBA for color.
func (b *Buffer) Image() image.Image {
	if b.mode.Single() {
		return b.GrayImage()
	}
	img := image.NewNRGBA(b.Bounds())
	for i := 0; i < b.Len(); i++ {
		j := i * 3
		img.Pix[i*4+0] = b.samples[j]
		img.Pix[i*4+1] = b.samples[j+1]
		img.Pix[i*4+2] = b.samples[j+2]
		img.Pix[i*4+3] = 255
	}
	return img
}

// FromGray copies an *image.Gray into a Grayscale buffer.
func FromGray(img *image.Gray) *Buffer {
	r := img.Bounds()
	w, h := r.Dx(), r.Dy()
	out := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w]
		copy(out[y*w:], row)
	}
	return FromSamples(w, h, Grayscale, out)
}

// FromImage converts any image into a buffer. Images whose color model is
// gray become Grayscale; everything else becomes Color with alpha dropped.
func FromImage(img image.Image) *Buffer {
	r := img.Bounds()
	w, h := r.Dx(), r.Dy()

	if g, ok := img.(*image.Gray); ok {
		return FromGray(g)
	}

	if img.ColorModel() == color.GrayModel || img.ColorModel() == color.Gray16Model {
		out := make([]uint8, w*h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out[y*w+x] = color.GrayModel.Convert(img.At(r.Min.X+x, r.Min.Y+y)).(color.Gray).Y
			}
		}
		return FromSamples(w, h, Grayscale, out)
	}

	out := make([]uint8, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(img.At(r.Min.X+x, r.Min.Y+y)).(color.NRGBA)
			i := (y*w + x) * 3
			out[i], out[i+1], out[i+2] = c.R, c.G, c.B
		}
	}
	return FromSamples(w, h, Color, out)
}
