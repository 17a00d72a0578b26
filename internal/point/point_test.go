package point

import (
	"testing"

	"github.com/MeKo-Tech/imagelab/internal/pixel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGammaCorrect_Scenario(t *testing.T) {
	img := pixel.MustGray([][]uint8{{0, 64}, {128, 255}})
	out, err := GammaCorrect(img, 2.0)
	require.NoError(t, err)
	// round(sqrt(p/255)*255)
	assert.Equal(t, [][]uint8{{0, 128}, {181, 255}}, out.Rows())

	// input is untouched
	assert.Equal(t, [][]uint8{{0, 64}, {128, 255}}, img.Rows())
}

func TestGammaCorrect_InvalidGamma(t *testing.T) {
	img := pixel.MustGray([][]uint8{{1}})
	for _, g := range []float64{0, -1} {
		_, err := GammaCorrect(img, g)
		assert.ErrorIs(t, err, pixel.ErrInvalidParameter)
	}
}

func TestGammaCorrect_BinaryStaysBinary(t *testing.T) {
	b, err := pixel.New(2, 1, pixel.Binary, []uint8{0, 255})
	require.NoError(t, err)
	out, err := GammaCorrect(b, 0.5)
	require.NoError(t, err)
	assert.Equal(t, pixel.Binary, out.Mode())
}

func TestLinearStretch(t *testing.T) {
	img := pixel.MustGray([][]uint8{{50, 100, 150, 200}})

	out, err := Stretch(img, 100, 150)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 0, 255, 255}, out.Samples())

	// window wider than the image is clamped to the extrema
	out, err = Stretch(img, 0, 255)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 85, 170, 255}, out.Samples())

	// empty window passes through
	out, err = Stretch(img, 120, 120)
	require.NoError(t, err)
	assert.True(t, img.Equal(out))

	_, err = Stretch(img, 200, 100)
	assert.ErrorIs(t, err, pixel.ErrInvalidParameter)
}

func TestLinearStretch_RoundTrip(t *testing.T) {
	rows := [][]uint8{
		{37, 40, 52, 61, 77},
		{88, 90, 101, 120, 133},
		{140, 141, 150, 160, 171},
	}
	img := pixel.MustGray(rows)
	lo, hi := img.Extrema()

	full, err := LinearStretch(img, lo, hi, 0, 255)
	require.NoError(t, err)
	back, err := LinearStretch(full, 0, 255, lo, hi)
	require.NoError(t, err)

	orig := img.Samples()
	for i, v := range back.Samples() {
		d := int(v) - int(orig[i])
		assert.LessOrEqual(t, d*d, 1, "sample %d: %d vs %d", i, v, orig[i])
	}
}

func TestThreshold(t *testing.T) {
	img := pixel.MustGray([][]uint8{{10, 100, 150, 250}})

	bin, err := Threshold(img, 100, 200, true)
	require.NoError(t, err)
	assert.Equal(t, pixel.Binary, bin.Mode())
	assert.Equal(t, []uint8{0, 255, 255, 0}, bin.Samples())

	band, err := Threshold(img, 100, 200, false)
	require.NoError(t, err)
	assert.Equal(t, pixel.Grayscale, band.Mode())
	assert.Equal(t, []uint8{0, 100, 150, 0}, band.Samples())

	_, err = Threshold(img, 5, 1, true)
	assert.ErrorIs(t, err, pixel.ErrInvalidParameter)

	c, err := pixel.New(1, 1, pixel.Color, []uint8{1, 2, 3})
	require.NoError(t, err)
	_, err = Threshold(c, 0, 10, true)
	assert.ErrorIs(t, err, pixel.ErrUnsupportedMode)
}

func TestThreshold_Idempotent(t *testing.T) {
	img := pixel.MustGray([][]uint8{{0, 12, 99}, {100, 180, 255}})
	once, err := Threshold(img, 90, 255, true)
	require.NoError(t, err)
	twice, err := Threshold(once, 90, 255, true)
	require.NoError(t, err)
	assert.True(t, once.Equal(twice))
}

func TestOtsuThreshold(t *testing.T) {
	img := pixel.MustGray([][]uint8{
		{10, 12, 14, 200},
		{11, 13, 210, 220},
	})
	out, level, err := OtsuThreshold(img)
	require.NoError(t, err)
	assert.Equal(t, uint8(14), level)
	assert.Equal(t, []uint8{0, 0, 255, 255, 0, 0, 255, 255}, out.Samples())
	assert.Equal(t, pixel.Binary, out.Mode())
}

func TestOtsuThreshold_LevelIsInBand(t *testing.T) {
	img := pixel.MustGray([][]uint8{{10, 10, 10, 50, 200, 200, 200}})
	out, level, err := OtsuThreshold(img)
	require.NoError(t, err)
	require.Equal(t, uint8(50), level)

	manual, err := Threshold(img, level, 255, true)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 0, 0, 255, 255, 255, 255}, out.Samples())
	assert.True(t, manual.Equal(out))
}

func TestEqualize(t *testing.T) {
	img := pixel.MustGray([][]uint8{{10, 10, 20, 30}})
	out, err := Equalize(img)
	require.NoError(t, err)
	// cdf 2,3,4; cmin 2; n 4
	assert.Equal(t, []uint8{0, 0, 127, 255}, out.Samples())

	flat, err := pixel.Filled(2, 2, pixel.Grayscale, 9)
	require.NoError(t, err)
	_, err = Equalize(flat)
	assert.ErrorIs(t, err, pixel.ErrDegenerateImage)
}

func TestNegate(t *testing.T) {
	c, err := pixel.New(1, 1, pixel.Color, []uint8{0, 100, 255})
	require.NoError(t, err)
	assert.Equal(t, []uint8{255, 155, 0}, Negate(c).Samples())
}

func TestScalarMath(t *testing.T) {
	img := pixel.MustGray([][]uint8{{0, 100, 200}})

	out, err := ScalarMath(img, ScalarAdd, 100, false)
	require.NoError(t, err)
	assert.Equal(t, []uint8{100, 200, 255}, out.Samples())

	out, err = ScalarMath(img, ScalarMultiply, 2, true)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 128, 255}, out.Samples())

	out, err = ScalarMath(img, ScalarDivide, 0, false)
	require.NoError(t, err)
	assert.True(t, img.Equal(out))

	out, err = ScalarMath(img, ScalarDivide, 3, false)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 33, 66}, out.Samples())

	_, err = ParseScalarOp("pow")
	assert.ErrorIs(t, err, pixel.ErrInvalidParameter)
}
