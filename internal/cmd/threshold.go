package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/imagelab/internal/filter"
	"github.com/MeKo-Tech/imagelab/internal/pixel"
	"github.com/MeKo-Tech/imagelab/internal/point"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var thresholdCmd = &cobra.Command{
	Use:   "threshold <input> [output]",
	Short: "Band, Otsu or adaptive thresholding",
	Long: `Threshold a grayscale image.

By default pixels inside [lo, hi] become white and all others black.
--otsu picks the level that maximizes the between-class variance.
--adaptive compares every pixel with the mean or Gaussian-weighted mean
of its block minus C.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runThreshold,
}

func init() {
	rootCmd.AddCommand(thresholdCmd)

	thresholdCmd.Flags().Int("lo", 128, "Lower bound of the kept band")
	thresholdCmd.Flags().Int("hi", 255, "Upper bound of the kept band")
	thresholdCmd.Flags().Bool("keep", false, "Keep original values inside the band instead of producing a binary image")
	thresholdCmd.Flags().Bool("otsu", false, "Use Otsu's method")
	thresholdCmd.Flags().String("adaptive", "", "Use adaptive thresholding (mean, gaussian)")
	thresholdCmd.Flags().Int("block", filter.DefaultAdaptiveBlock, "Adaptive block size (odd, >= 3)")
	thresholdCmd.Flags().Int("c", filter.DefaultAdaptiveC, "Constant subtracted from the adaptive mean")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"threshold.lo", "lo"},
		{"threshold.hi", "hi"},
		{"threshold.keep", "keep"},
		{"threshold.otsu", "otsu"},
		{"threshold.adaptive", "adaptive"},
		{"threshold.block", "block"},
		{"threshold.c", "c"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, thresholdCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runThreshold(cmd *cobra.Command, args []string) error {
	otsu := viper.GetBool("threshold.otsu")
	adaptive := viper.GetString("threshold.adaptive")
	if otsu && adaptive != "" {
		return fmt.Errorf("--otsu and --adaptive are mutually exclusive")
	}

	switch {
	case otsu:
		return transform(args, "otsu", func(b *pixel.Buffer) (*pixel.Buffer, error) {
			out, level, err := point.OtsuThreshold(single(b))
			if err != nil {
				return nil, err
			}
			logger.Info("Otsu threshold", "level", level)
			return out, nil
		})

	case adaptive != "":
		method, err := filter.ParseAdaptiveMethod(adaptive)
		if err != nil {
			return err
		}
		block := viper.GetInt("threshold.block")
		c := viper.GetInt("threshold.c")
		return transform(args, "adaptive", func(b *pixel.Buffer) (*pixel.Buffer, error) {
			return filter.AdaptiveThreshold(single(b), method, block, c)
		})

	default:
		lo, err := levelFlag("threshold.lo")
		if err != nil {
			return err
		}
		hi, err := levelFlag("threshold.hi")
		if err != nil {
			return err
		}
		binary := !viper.GetBool("threshold.keep")
		return transform(args, "threshold", func(b *pixel.Buffer) (*pixel.Buffer, error) {
			return point.Threshold(single(b), lo, hi, binary)
		})
	}
}
