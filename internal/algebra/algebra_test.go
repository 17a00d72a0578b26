package algebra

import (
	"testing"

	"github.com/MeKo-Tech/imagelab/internal/pixel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombine_Ops(t *testing.T) {
	a := pixel.MustGray([][]uint8{{200, 10, 0xF0}})
	b := pixel.MustGray([][]uint8{{100, 30, 0x0F}})

	tests := []struct {
		op   Op
		want []uint8
	}{
		{Add, []uint8{255, 40, 255}},
		{Sub, []uint8{100, 20, 0xE1}},
		{And, []uint8{200 & 100, 10 & 30, 0x00}},
		{Or, []uint8{200 | 100, 10 | 30, 0xFF}},
		{Xor, []uint8{200 ^ 100, 10 ^ 30, 0xFF}},
		{Not, []uint8{55, 245, 0x0F}},
	}
	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			out, err := Combine(a, b, tt.op, false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Samples())
		})
	}
}

func TestCombine_SubSymmetric(t *testing.T) {
	a := pixel.MustGray([][]uint8{{0, 50, 255}, {7, 8, 9}})
	b := pixel.MustGray([][]uint8{{255, 20, 0}, {9, 8, 7}})

	ab, err := Combine(a, b, Sub, false)
	require.NoError(t, err)
	ba, err := Combine(b, a, Sub, false)
	require.NoError(t, err)
	assert.True(t, ab.Equal(ba))
}

func TestCombine_AddNormalizeNoWrap(t *testing.T) {
	a, err := pixel.Filled(3, 2, pixel.Grayscale, 255)
	require.NoError(t, err)

	out, err := Combine(a, a, Add, true)
	require.NoError(t, err)
	for _, v := range out.Samples() {
		assert.Equal(t, uint8(255), v)
	}
}

func TestCombine_AddNormalizeScales(t *testing.T) {
	a := pixel.MustGray([][]uint8{{0, 100, 200}})
	b := pixel.MustGray([][]uint8{{0, 100, 200}})
	out, err := Combine(a, b, Add, true)
	require.NoError(t, err)
	// [0, 400] -> [0, 255]
	assert.Equal(t, []uint8{0, 128, 255}, out.Samples())
}

func TestCombine_Incompatible(t *testing.T) {
	a := pixel.MustGray([][]uint8{{1, 2}})
	b := pixel.MustGray([][]uint8{{1, 2, 3}})
	_, err := Combine(a, b, Add, false)
	assert.ErrorIs(t, err, pixel.ErrIncompatibleImages)

	bin, err := pixel.New(2, 1, pixel.Binary, []uint8{0, 255})
	require.NoError(t, err)
	_, err = Combine(a, bin, Add, false)
	assert.ErrorIs(t, err, pixel.ErrIncompatibleImages)

	c, err := pixel.New(1, 1, pixel.Color, []uint8{1, 2, 3})
	require.NoError(t, err)
	_, err = Combine(c, c, Add, false)
	assert.ErrorIs(t, err, pixel.ErrIncompatibleImages)

	_, err = Combine(a, nil, Or, false)
	assert.ErrorIs(t, err, pixel.ErrIncompatibleImages)

	out, err := Combine(a, nil, Not, false)
	require.NoError(t, err)
	assert.Equal(t, []uint8{254, 253}, out.Samples())
}

func TestCombine_BinaryStaysBinary(t *testing.T) {
	a, err := pixel.New(3, 1, pixel.Binary, []uint8{0, 255, 255})
	require.NoError(t, err)
	b, err := pixel.New(3, 1, pixel.Binary, []uint8{255, 255, 0})
	require.NoError(t, err)

	out, err := Combine(a, b, Xor, false)
	require.NoError(t, err)
	assert.Equal(t, pixel.Binary, out.Mode())
	assert.Equal(t, []uint8{255, 0, 255}, out.Samples())

	sum, err := Combine(a, b, Add, false)
	require.NoError(t, err)
	assert.Equal(t, pixel.Grayscale, sum.Mode())
}

func TestCombineAll(t *testing.T) {
	a := pixel.MustGray([][]uint8{{10}})
	b := pixel.MustGray([][]uint8{{20}})
	c := pixel.MustGray([][]uint8{{30}})

	out, err := CombineAll([]*pixel.Buffer{a, b, c}, Add, false)
	require.NoError(t, err)
	assert.Equal(t, []uint8{60}, out.Samples())

	_, err = CombineAll([]*pixel.Buffer{a}, Add, false)
	assert.ErrorIs(t, err, pixel.ErrIncompatibleImages)
	_, err = CombineAll(nil, Add, false)
	assert.ErrorIs(t, err, pixel.ErrInvalidParameter)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   []int
		want []uint8
	}{
		{"in range", []int{0, 17, 255}, []uint8{0, 17, 255}},
		{"over", []int{100, 300, 500}, []uint8{100, 178, 255}},
		{"under", []int{-100, 0, 100}, []uint8{0, 50, 100}},
		{"under and over", []int{-10, 300}, []uint8{0, 255}},
		{"flat over", []int{400, 400}, []uint8{255, 255}},
		{"flat under", []int{-4, -4}, []uint8{0, 0}},
		{"empty", nil, []uint8{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestParseOp(t *testing.T) {
	op, err := ParseOp("XOR")
	require.NoError(t, err)
	assert.Equal(t, Xor, op)

	_, err = ParseOp("mod")
	assert.ErrorIs(t, err, pixel.ErrInvalidParameter)
}
