package cmd

import (
	"bytes"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MeKo-Tech/imagelab/internal/border"
	"github.com/MeKo-Tech/imagelab/internal/codec"
	"github.com/MeKo-Tech/imagelab/internal/pixel"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeights(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		size    int
		sum     float64
		wantErr bool
	}{
		{name: "sharpen", input: "0,-1,0;-1,5,-1;0,-1,0", size: 3, sum: 1},
		{name: "spaces and trailing separator", input: " 1, 1, 1 ; 1,1,1; 1,1,1 ;", size: 3, sum: 9},
		{name: "single weight", input: "2", size: 1, sum: 2},
		{name: "even size", input: "1,2;3,4", wantErr: true},
		{name: "ragged rows", input: "1,2,3;4,5;6,7,8", wantErr: true},
		{name: "not a number", input: "x", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, err := parseWeights(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, pixel.ErrInvalidParameter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.size, k.Size())
			assert.InDelta(t, tt.sum, k.Sum(), 1e-9)
		})
	}
}

func TestParsePoints(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []image.Point
		wantErr bool
	}{
		{name: "two points", input: "0,0;5,3", want: []image.Point{{0, 0}, {5, 3}}},
		{name: "spaces", input: " 1 , 2 ; 3,4 ; 7,1;", want: []image.Point{{1, 2}, {3, 4}, {7, 1}}},
		{name: "single point", input: "1,2", wantErr: true},
		{name: "missing comma", input: "1;2", wantErr: true},
		{name: "not a number", input: "a,1;2,3", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePoints(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, pixel.ErrInvalidParameter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChannels(t *testing.T) {
	gray := pixel.MustGray([][]uint8{{1}})
	color, err := pixel.Filled(1, 1, pixel.Color, 5)
	require.NoError(t, err)

	got, err := channels(gray, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, got)
	assert.Equal(t, "gray", channelName(gray, 0))

	got, err = channels(color, -1)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, got)

	got, err = channels(color, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got)
	assert.Equal(t, "green", channelName(color, 1))

	_, err = channels(color, 3)
	assert.ErrorIs(t, err, pixel.ErrIndexOutOfRange)
}

func TestExpandInputs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.jpg", "notes.txt", filepath.Join("sub", "c.png")} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o644))
	}

	got, err := expandInputs([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.png"),
		filepath.Join(dir, "b.jpg"),
		filepath.Join(dir, "sub", "c.png"),
	}, got)

	got, err = expandInputs([]string{filepath.Join(dir, "*.png"), filepath.Join(dir, "a.png")})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.png")}, got)

	_, err = expandInputs([]string{filepath.Join(dir, "*.gif")})
	assert.Error(t, err)

	_, err = expandInputs([]string{filepath.Join(dir, "notes.txt")})
	assert.Error(t, err)
}

func TestBorderPolicy(t *testing.T) {
	t.Cleanup(func() {
		viper.Set("border", "reflect")
		viper.Set("border_value", 0)
	})

	tests := []struct {
		border  string
		value   int
		want    border.Policy
		wantErr bool
	}{
		{border: "reflect", want: border.Policy{Kind: border.Reflect}},
		{border: "wrap", value: 9, want: border.Policy{Kind: border.Wrap}},
		{border: "constant", value: 200, want: border.Policy{Kind: border.Constant, Value: 200}},
		{border: "constant:7", value: 200, want: border.Policy{Kind: border.Constant, Value: 7}},
		{border: "constant-after", value: 255, want: border.Policy{Kind: border.ConstantAfter, Value: 255}},
		{border: "constant", value: 256, wantErr: true},
		{border: "mirror-ish", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.border, func(t *testing.T) {
			viper.Set("border", tt.border)
			viper.Set("border_value", tt.value)
			got, err := borderPolicy()
			if tt.wantErr {
				assert.ErrorIs(t, err, pixel.ErrInvalidParameter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "x/y.png", outputPath("in/cells.png", "x/y.png", "gamma"))
	assert.Equal(t,
		filepath.Join(viper.GetString("output-dir"), "cells_gamma.tif"),
		outputPath(filepath.Join("in", "cells.tif"), "", "gamma"))
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestCommands_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	ramp := filepath.Join(dir, "ramp.png")

	execute(t, "synth", "ramp", ramp, "--width", "16", "--height", "6")
	b, err := codec.Load(ramp, codec.Auto)
	require.NoError(t, err)
	assert.Equal(t, pixel.Grayscale, b.Mode())
	assert.Equal(t, uint8(0), b.Gray(0, 0))
	assert.Equal(t, uint8(255), b.Gray(15, 5))

	out := execute(t, "histogram", ramp)
	assert.Contains(t, out, "channel")
	assert.Contains(t, out, "gray")

	gamma := filepath.Join(dir, "gamma.png")
	execute(t, "gamma", ramp, gamma, "--gamma", "2")
	g, err := codec.Load(gamma, codec.Gray)
	require.NoError(t, err)
	assert.Equal(t, 16, g.Width())
	assert.GreaterOrEqual(t, g.Gray(8, 0), b.Gray(8, 0))

	thr := filepath.Join(dir, "otsu.png")
	execute(t, "threshold", ramp, thr, "--otsu")
	bin, err := codec.Load(thr, codec.Gray)
	require.NoError(t, err)
	for _, v := range bin.Samples() {
		assert.Contains(t, []uint8{0, 255}, v)
	}

	csvPath := filepath.Join(dir, "measure.csv")
	overlay := filepath.Join(dir, "overlay.png")
	execute(t, "measure", thr, "--csv", csvPath, "--overlay", overlay)
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3, "sep line, header and one region")
	assert.True(t, strings.HasPrefix(lines[1], "contour;"))
	_, err = os.Stat(overlay)
	assert.NoError(t, err)

	outDir := filepath.Join(dir, "batch")
	execute(t, "batch", ramp, gamma, "--ops", "negate|median:3", "--progress=false", "--output-dir", outDir, "--suffix", "_neg")
	for _, name := range []string{"ramp_neg.png", "gamma_neg.png"} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, name)
	}
}
