package cmd

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/imagelab/internal/filter"
	"github.com/MeKo-Tech/imagelab/internal/pixel"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var edgeCmd = &cobra.Command{
	Use:   "edge <input> [output]",
	Short: "Sobel, Prewitt or Canny edge detection",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runEdge,
}

func init() {
	rootCmd.AddCommand(edgeCmd)

	edgeCmd.Flags().String("method", "sobel", "Edge detector: sobel, prewitt or canny")
	edgeCmd.Flags().Bool("fast", false, "Use |gx|+|gy| instead of the euclidean gradient magnitude")
	edgeCmd.Flags().Float64("low", 20, fmt.Sprintf("Canny low hysteresis threshold (high is %d times the low)", filter.CannyHighRatio))

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"edge.method", "method"},
		{"edge.fast", "fast"},
		{"edge.low", "low"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, edgeCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runEdge(cmd *cobra.Command, args []string) error {
	pol, err := borderPolicy()
	if err != nil {
		return err
	}
	method := strings.ToLower(viper.GetString("edge.method"))

	if method == "canny" {
		low := viper.GetFloat64("edge.low")
		if low < 0 {
			return fmt.Errorf("%w: canny low threshold must not be negative", pixel.ErrInvalidParameter)
		}
		return transform(args, "canny", func(b *pixel.Buffer) (*pixel.Buffer, error) {
			return filter.Canny(single(b), low, pol)
		})
	}

	variant, err := filter.ParseGradientVariant(method)
	if err != nil {
		return err
	}
	exact := !viper.GetBool("edge.fast")
	return transform(args, variant.String(), func(b *pixel.Buffer) (*pixel.Buffer, error) {
		return filter.SobelPrewitt(single(b), variant, exact, pol)
	})
}
