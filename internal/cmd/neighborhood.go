package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/imagelab/internal/filter"
	"github.com/MeKo-Tech/imagelab/internal/pixel"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var medianCmd = &cobra.Command{
	Use:   "median <input> [output]",
	Short: "Median filter",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runMedian,
}

var morphCmd = &cobra.Command{
	Use:   "morph <input> [output]",
	Short: "Erode, dilate, open or close with a 3x3 cross",
	Long: `Apply morphology with a plus-shaped 3x3 structuring element.

By default neighbors outside the image are ignored. --bordered pads the
image with the --border policy first so the border takes part.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runMorph,
}

var logicCmd = &cobra.Command{
	Use:   "logic <input> [output]",
	Short: "4-neighbor logic filter",
	Long: `Evaluate a predicate on the 4-neighborhood of every pixel.

Predicates: horizontal (a pixel whose upper and lower neighbor agree takes
their value, erasing one pixel wide horizontal lines), vertical (same for
left and right), isolated (a pixel whose four neighbors agree takes their
value). Decisions read the input only.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runLogic,
}

func init() {
	rootCmd.AddCommand(medianCmd, morphCmd, logicCmd)

	medianCmd.Flags().Int("size", 3, "Window size (odd, >= 3)")

	morphCmd.Flags().String("op", "erode", "Operation: erode, dilate, open or close")
	morphCmd.Flags().Int("iterations", 1, "Number of times the operation is applied")
	morphCmd.Flags().Bool("bordered", false, "Let the border policy take part")

	logicCmd.Flags().String("predicate", "isolated", "Predicate: horizontal, vertical or isolated")
	logicCmd.Flags().Bool("bordered", false, "Evaluate edge pixels against the border policy")

	bindFlags := []struct {
		cmd  *cobra.Command
		key  string
		flag string
	}{
		{medianCmd, "median.size", "size"},
		{morphCmd, "morph.op", "op"},
		{morphCmd, "morph.iterations", "iterations"},
		{morphCmd, "morph.bordered", "bordered"},
		{logicCmd, "logic.predicate", "predicate"},
		{logicCmd, "logic.bordered", "bordered"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, bf.cmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runMedian(cmd *cobra.Command, args []string) error {
	pol, err := borderPolicy()
	if err != nil {
		return err
	}
	k := viper.GetInt("median.size")
	return transform(args, "median", func(b *pixel.Buffer) (*pixel.Buffer, error) {
		return filter.Median(single(b), k, pol)
	})
}

func runMorph(cmd *cobra.Command, args []string) error {
	op, err := filter.ParseMorphOp(viper.GetString("morph.op"))
	if err != nil {
		return err
	}
	n := viper.GetInt("morph.iterations")
	if n < 1 {
		return fmt.Errorf("%w: iterations must be positive", pixel.ErrInvalidParameter)
	}
	bordered := viper.GetBool("morph.bordered")
	pol, err := borderPolicy()
	if err != nil {
		return err
	}

	return transform(args, op.String(), func(b *pixel.Buffer) (*pixel.Buffer, error) {
		b = single(b)
		var err error
		for i := 0; i < n; i++ {
			if bordered {
				b, err = filter.MorphologyBordered(b, op, pol)
			} else {
				b, err = filter.Morphology(b, op)
			}
			if err != nil {
				return nil, err
			}
		}
		return b, nil
	})
}

func runLogic(cmd *cobra.Command, args []string) error {
	pred, err := filter.ParsePredicate(viper.GetString("logic.predicate"))
	if err != nil {
		return err
	}
	bordered := viper.GetBool("logic.bordered")
	pol, err := borderPolicy()
	if err != nil {
		return err
	}

	return transform(args, "logic", func(b *pixel.Buffer) (*pixel.Buffer, error) {
		b = single(b)
		if bordered {
			return filter.LogicBordered(b, pred, pol)
		}
		return filter.Logic(b, pred)
	})
}
