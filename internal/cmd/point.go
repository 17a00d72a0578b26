package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/imagelab/internal/pixel"
	"github.com/MeKo-Tech/imagelab/internal/point"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var stretchCmd = &cobra.Command{
	Use:   "stretch <input> [output]",
	Short: "Linear contrast stretch",
	Long: `Map the input window [in-lo, in-hi] linearly onto [out-lo, out-hi].
The window is clipped to the darkest and brightest sample of the image, so
the defaults stretch the image to the full output range.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runStretch,
}

var gammaCmd = &cobra.Command{
	Use:   "gamma <input> [output]",
	Short: "Gamma correction",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runGamma,
}

var negateCmd = &cobra.Command{
	Use:   "negate <input> [output]",
	Short: "Invert every sample",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return transform(args, "negate", func(b *pixel.Buffer) (*pixel.Buffer, error) {
			return point.Negate(b), nil
		})
	},
}

var equalizeCmd = &cobra.Command{
	Use:   "equalize <input> [output]",
	Short: "Histogram equalization, per channel for color images",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return transform(args, "equalize", point.Equalize)
	},
}

var mathCmd = &cobra.Command{
	Use:   "math <input> [output]",
	Short: "Add, multiply or divide every sample by a scalar",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runMath,
}

func init() {
	rootCmd.AddCommand(stretchCmd, gammaCmd, negateCmd, equalizeCmd, mathCmd)

	stretchCmd.Flags().Int("in-lo", 0, "Lower bound of the input window")
	stretchCmd.Flags().Int("in-hi", 255, "Upper bound of the input window")
	stretchCmd.Flags().Int("out-lo", 0, "Lower bound of the output range")
	stretchCmd.Flags().Int("out-hi", 255, "Upper bound of the output range")

	gammaCmd.Flags().Float64("gamma", 1.0, "Gamma value (> 0); values above 1 brighten")

	mathCmd.Flags().String("op", "add", "Operation: add, mul or div")
	mathCmd.Flags().Float64("value", 0, "Scalar operand")
	mathCmd.Flags().Bool("normalize", false, "Rescale the result to 0..255 instead of clamping")

	bindFlags := []struct {
		cmd  *cobra.Command
		key  string
		flag string
	}{
		{stretchCmd, "stretch.in_lo", "in-lo"},
		{stretchCmd, "stretch.in_hi", "in-hi"},
		{stretchCmd, "stretch.out_lo", "out-lo"},
		{stretchCmd, "stretch.out_hi", "out-hi"},
		{gammaCmd, "gamma.value", "gamma"},
		{mathCmd, "math.op", "op"},
		{mathCmd, "math.value", "value"},
		{mathCmd, "math.normalize", "normalize"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, bf.cmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func levelFlag(key string) (uint8, error) {
	v := viper.GetInt(key)
	if v < 0 || v > 255 {
		return 0, fmt.Errorf("%w: %s=%d outside 0..255", pixel.ErrInvalidParameter, key, v)
	}
	return uint8(v), nil
}

func runStretch(cmd *cobra.Command, args []string) error {
	var levels [4]uint8
	for i, key := range []string{"stretch.in_lo", "stretch.in_hi", "stretch.out_lo", "stretch.out_hi"} {
		v, err := levelFlag(key)
		if err != nil {
			return err
		}
		levels[i] = v
	}

	return transform(args, "stretch", func(b *pixel.Buffer) (*pixel.Buffer, error) {
		lo, hi := b.Extrema()
		logger.Debug("Image extrema", "lo", lo, "hi", hi)
		return point.LinearStretch(b, levels[0], levels[1], levels[2], levels[3])
	})
}

func runGamma(cmd *cobra.Command, args []string) error {
	g := viper.GetFloat64("gamma.value")
	return transform(args, "gamma", func(b *pixel.Buffer) (*pixel.Buffer, error) {
		return point.GammaCorrect(b, g)
	})
}

func runMath(cmd *cobra.Command, args []string) error {
	op, err := point.ParseScalarOp(viper.GetString("math.op"))
	if err != nil {
		return err
	}
	value := viper.GetFloat64("math.value")
	normalize := viper.GetBool("math.normalize")

	return transform(args, "math", func(b *pixel.Buffer) (*pixel.Buffer, error) {
		return point.ScalarMath(b, op, value, normalize)
	})
}
