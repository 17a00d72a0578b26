package contour

import (
	"bytes"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/MeKo-Tech/imagelab/internal/pixel"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func squareImage(t *testing.T) *pixel.Buffer {
	t.Helper()
	return pixel.MustGray([][]uint8{
		{0, 0, 0, 0, 0},
		{0, 255, 255, 255, 0},
		{0, 255, 255, 255, 0},
		{0, 255, 255, 255, 0},
		{0, 0, 0, 0, 0},
	})
}

func TestTrace_Square(t *testing.T) {
	cs, err := Trace(squareImage(t))
	require.NoError(t, err)
	require.Len(t, cs, 1)

	c := cs[0]
	assert.Equal(t, 9, c.Pixels)
	assert.Equal(t, orb.Ring{{1, 1}, {3, 1}, {3, 3}, {1, 3}}, c.Ring)

	m := Measure(c)
	assert.InDelta(t, 4.0, m.Area, 1e-9)
	assert.InDelta(t, 8.0, m.Perimeter, 1e-9)
	assert.InDelta(t, 4.0, m.HullArea, 1e-9)
	assert.InDelta(t, 1.0, m.W10, 1e-9)
	assert.InDelta(t, 2.0, m.Centroid[0], 1e-9)
	assert.InDelta(t, 2.0, m.Centroid[1], 1e-9)

	assert.InDelta(t, 2*math.Sqrt(4/math.Pi), m.W1, 1e-9)
	assert.InDelta(t, 8/math.Pi, m.W2, 1e-9)
	assert.InDelta(t, 8/(2*math.Sqrt(4*math.Pi))-1, m.W3, 1e-9)
	assert.InDelta(t, 2*math.Sqrt(4*math.Pi)/8, m.W9, 1e-9)
	assert.InDelta(t, 1.0, m.AspectRatio, 1e-9)
	assert.InDelta(t, 4.0/9, m.Extent, 1e-9)
}

func TestMeasure_RectangleBoxRatios(t *testing.T) {
	cs, err := Trace(pixel.MustGray([][]uint8{
		{0, 0, 0, 0, 0, 0},
		{0, 255, 255, 255, 255, 0},
		{0, 255, 255, 255, 255, 0},
		{0, 0, 0, 0, 0, 0},
	}))
	require.NoError(t, err)
	require.Len(t, cs, 1)

	m := Measure(cs[0])
	assert.InDelta(t, 3.0, m.Area, 1e-9)
	assert.InDelta(t, 2.0, m.AspectRatio, 1e-9)
	assert.InDelta(t, 3.0/8, m.Extent, 1e-9)
	assert.InDelta(t, 3.0, m.Moments.M00, 1e-9)
}

func TestTrace_ComponentsInRasterOrder(t *testing.T) {
	b := pixel.MustGray([][]uint8{
		{0, 0, 0, 9, 9},
		{1, 0, 0, 9, 9},
		{1, 1, 0, 0, 0},
	})
	cs, err := Trace(b)
	require.NoError(t, err)
	require.Len(t, cs, 2)
	assert.Equal(t, 4, cs[0].Pixels)
	assert.Equal(t, 3, cs[1].Pixels)
	assert.Equal(t, 3, cs[0].Start.X)
	assert.Equal(t, 0, cs[1].Start.X)
}

func TestTrace_Degenerate(t *testing.T) {
	t.Run("single pixel", func(t *testing.T) {
		cs, err := Trace(pixel.MustGray([][]uint8{{0, 0, 0}, {0, 255, 0}, {0, 0, 0}}))
		require.NoError(t, err)
		require.Len(t, cs, 1)
		assert.Equal(t, orb.Ring{{1, 1}}, cs[0].Ring)

		m := Measure(cs[0])
		assert.Zero(t, m.Area)
		assert.Zero(t, m.Perimeter)
		assert.Zero(t, m.W3)
		assert.Zero(t, m.W9)
		assert.Zero(t, m.W10)
		assert.Equal(t, 1, m.Pixels)
	})

	t.Run("horizontal stroke", func(t *testing.T) {
		cs, err := Trace(pixel.MustGray([][]uint8{{255, 255, 255}}))
		require.NoError(t, err)
		require.Len(t, cs, 1)
		assert.Equal(t, orb.Ring{{0, 0}, {2, 0}}, cs[0].Ring)
		assert.InDelta(t, 4.0, Measure(cs[0]).Perimeter, 1e-9)
	})

	t.Run("diagonal stroke", func(t *testing.T) {
		cs, err := Trace(pixel.MustGray([][]uint8{
			{255, 0, 0},
			{0, 255, 0},
			{0, 0, 255},
		}))
		require.NoError(t, err)
		require.Len(t, cs, 1)
		assert.Equal(t, orb.Ring{{0, 0}, {2, 2}}, cs[0].Ring)
		assert.InDelta(t, 4*math.Sqrt2, Measure(cs[0]).Perimeter, 1e-9)
	})

	t.Run("empty image", func(t *testing.T) {
		b, err := pixel.Filled(4, 4, pixel.Grayscale, 0)
		require.NoError(t, err)
		cs, err := Trace(b)
		require.NoError(t, err)
		assert.Empty(t, cs)
	})
}

func TestTrace_RejectsColor(t *testing.T) {
	b, err := pixel.Filled(2, 2, pixel.Color, 1)
	require.NoError(t, err)
	_, err = Trace(b)
	assert.ErrorIs(t, err, pixel.ErrUnsupportedMode)
}

func TestPolygonMoments_Rectangle(t *testing.T) {
	// 4 x 2 rectangle at the origin
	const a, b = 4.0, 2.0
	cw := orb.Ring{{0, 0}, {a, 0}, {a, b}, {0, b}}
	ccw := orb.Ring{{0, b}, {a, b}, {a, 0}, {0, 0}}

	for _, r := range []orb.Ring{cw, ccw} {
		m := PolygonMoments(r)
		assert.InDelta(t, a*b, m.M00, 1e-9)
		assert.InDelta(t, a*a*b/2, m.M10, 1e-9)
		assert.InDelta(t, a*b*b/2, m.M01, 1e-9)
		assert.InDelta(t, a*a*a*b/3, m.M20, 1e-9)
		assert.InDelta(t, a*a*b*b/4, m.M11, 1e-9)
		assert.InDelta(t, a*b*b*b/3, m.M02, 1e-9)
		assert.InDelta(t, a*a*a*b/12, m.Mu20, 1e-9)
		assert.InDelta(t, 0, m.Mu11, 1e-9)
		assert.InDelta(t, 0, m.Mu30, 1e-9)
		assert.InDelta(t, 0, m.Mu03, 1e-9)
	}
}

func TestMeasure_LShapeSolidity(t *testing.T) {
	c := Contour{Ring: orb.Ring{{0, 0}, {2, 0}, {2, 1}, {1, 1}, {1, 2}, {0, 2}}}
	m := Measure(c)
	assert.InDelta(t, 3.0, m.Area, 1e-9)
	assert.InDelta(t, 3.5, m.HullArea, 1e-9)
	assert.InDelta(t, 3.0/3.5, m.W10, 1e-9)
	assert.InDelta(t, 8.0, m.Perimeter, 1e-9)
}

func TestMeasure_InvariantsUnderTranslation(t *testing.T) {
	base := orb.Ring{{0, 0}, {5, 0}, {6, 3}, {1, 4}}
	moved := make(orb.Ring, len(base))
	for i, p := range base {
		moved[i] = orb.Point{p[0] + 17, p[1] + 9}
	}
	a := Measure(Contour{Ring: base})
	b := Measure(Contour{Ring: moved})
	assert.InDelta(t, a.M1, b.M1, 1e-9)
	assert.InDelta(t, a.M2, b.M2, 1e-9)
	assert.InDelta(t, a.M3, b.M3, 1e-9)
	assert.InDelta(t, a.Area, b.Area, 1e-9)
}

func TestConvexHull(t *testing.T) {
	r := orb.Ring{{0, 0}, {2, 0}, {1, 1}, {2, 2}, {0, 2}, {1, 0}}
	hull := ConvexHull(r)
	assert.Len(t, hull, 4)
	assert.ElementsMatch(t, []orb.Point{{0, 0}, {2, 0}, {2, 2}, {0, 2}}, []orb.Point(hull))
}

func TestWriteCSV(t *testing.T) {
	cs, err := Trace(squareImage(t))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, MeasureAll(cs)))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "sep=;", lines[0])
	assert.Equal(t, strings.Join(CSVHeader, ";"), lines[1])
	assert.Len(t, CSVHeader, 41)
	assert.Contains(t, lines[1], ";aspect_ratio;extent;")
	assert.True(t, strings.HasSuffix(lines[1], ";nu03"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "0;9;4.0000;8.0000;4.0000;2.0000;2.0000;1.0000;0.4444;"), lines[2])

	fields := strings.Split(lines[2], ";")
	require.Len(t, fields, len(CSVHeader))
	assert.Equal(t, "4", fields[slices.Index(CSVHeader, "m00")])
	assert.Equal(t, "8", fields[slices.Index(CSVHeader, "m10")])
}

func TestOverlay(t *testing.T) {
	b := squareImage(t)
	cs, err := Trace(b)
	require.NoError(t, err)

	img := Overlay(b, cs)
	assert.Equal(t, b.Bounds(), img.Bounds())
	// the outline runs through the square's corner pixel
	c := img.NRGBAAt(1, 1)
	assert.False(t, c.R == c.G && c.G == c.B, "corner pixel should be tinted, got %v", c)
	// far corner stays black
	assert.Equal(t, uint8(0), img.NRGBAAt(0, 4).R)
}
