package synth

import (
	"testing"

	"github.com/MeKo-Tech/imagelab/internal/contour"
	"github.com/MeKo-Tech/imagelab/internal/pixel"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerlin_Deterministic(t *testing.T) {
	a, err := Perlin(32, 16, 8, 42)
	require.NoError(t, err)
	b, err := Perlin(32, 16, 8, 42)
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
	assert.Equal(t, pixel.Grayscale, a.Mode())

	lo, hi := a.Extrema()
	assert.Less(t, lo, hi, "perlin texture should not be flat")

	_, err = Perlin(0, 16, 8, 1)
	assert.ErrorIs(t, err, pixel.ErrInvalidParameter)
	_, err = Perlin(8, 8, 0, 1)
	assert.ErrorIs(t, err, pixel.ErrInvalidParameter)
}

func TestRamp(t *testing.T) {
	b, err := Ramp(5, 2, 0, 200)
	require.NoError(t, err)
	assert.Equal(t, [][]uint8{
		{0, 50, 100, 150, 200},
		{0, 50, 100, 150, 200},
	}, b.Rows())
}

func TestShapes(t *testing.T) {
	b, err := Shapes(6, 6, 0,
		Shape{Min: orb.Point{1, 1}, Max: orb.Point{4, 3}, Value: 255},
		Shape{Center: orb.Point{5, 5}, Radius: 0.8, Value: 100},
	)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), b.Gray(1, 1))
	assert.Equal(t, uint8(255), b.Gray(3, 2))
	assert.Equal(t, uint8(0), b.Gray(4, 1))
	assert.Equal(t, uint8(0), b.Gray(1, 3))
	assert.Equal(t, uint8(100), b.Gray(4, 4))
	assert.Equal(t, uint8(100), b.Gray(5, 5))

	cs, err := contour.Trace(b)
	require.NoError(t, err)
	assert.Len(t, cs, 2)
}

func TestBlobs(t *testing.T) {
	p := BlobParams{Count: 4, Radius: 10, Sigma: 2, Scale: 12, Strength: 0.3, Seed: 7}
	b, err := Blobs(80, 80, p)
	require.NoError(t, err)
	assert.Equal(t, pixel.Binary, b.Mode())

	again, err := Blobs(80, 80, p)
	require.NoError(t, err)
	assert.True(t, b.Equal(again))

	cs, err := contour.Trace(b)
	require.NoError(t, err)
	assert.NotEmpty(t, cs)

	_, err = Blobs(80, 80, BlobParams{Count: 0, Radius: 1, Scale: 1})
	assert.ErrorIs(t, err, pixel.ErrInvalidParameter)
}

func TestNoise(t *testing.T) {
	b, err := Noise(16, 8, BinaryNoise, true)
	require.NoError(t, err)
	assert.Equal(t, pixel.Grayscale, b.Mode())
	for _, v := range b.Samples() {
		assert.Contains(t, []uint8{0, 255}, v)
	}

	c, err := Noise(4, 4, UniformNoise, false)
	require.NoError(t, err)
	assert.Equal(t, pixel.Color, c.Mode())

	_, err = ParseNoiseKind("pink")
	assert.ErrorIs(t, err, pixel.ErrInvalidParameter)
}

func TestSaltPepper(t *testing.T) {
	base, err := pixel.Filled(20, 20, pixel.Grayscale, 128)
	require.NoError(t, err)

	noisy, err := SaltPepper(base, 0.25, 3)
	require.NoError(t, err)
	again, err := SaltPepper(base, 0.25, 3)
	require.NoError(t, err)
	assert.True(t, noisy.Equal(again))

	changed := 0
	for _, v := range noisy.Samples() {
		if v != 128 {
			assert.Contains(t, []uint8{0, 255}, v)
			changed++
		}
	}
	assert.Greater(t, changed, 0)
	assert.Less(t, changed, 400)

	same, err := SaltPepper(base, 0, 3)
	require.NoError(t, err)
	assert.True(t, base.Equal(same))

	_, err = SaltPepper(base, 2, 3)
	assert.ErrorIs(t, err, pixel.ErrInvalidParameter)
}
