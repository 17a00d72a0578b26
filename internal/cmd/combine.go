package cmd

import (
	"context"
	"fmt"
	"runtime"

	"github.com/MeKo-Tech/imagelab/internal/algebra"
	"github.com/MeKo-Tech/imagelab/internal/pixel"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var combineCmd = &cobra.Command{
	Use:   "combine <input>... --output <file>",
	Short: "Pixel-wise add, sub, and, or, xor or not of images",
	Long: `Fold an operation over images of equal size and mode, left to right.

sub is the absolute difference. not takes exactly one image. Without
--normalize results are clamped to 0..255; with it the full result range
is rescaled to 0..255.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCombine,
}

func init() {
	rootCmd.AddCommand(combineCmd)

	combineCmd.Flags().String("op", "add", "Operation: add, sub, and, or, xor, not")
	combineCmd.Flags().Bool("normalize", false, "Rescale the result range to 0..255")
	combineCmd.Flags().StringP("output", "o", "", "Output image path (default <output-dir>/<first>_<op>.<ext>)")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"combine.op", "op"},
		{"combine.normalize", "normalize"},
		{"combine.output", "output"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, combineCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

// loadAll decodes paths concurrently and keeps their order.
func loadAll(ctx context.Context, paths []string) ([]*pixel.Buffer, error) {
	bufs := make([]*pixel.Buffer, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := loadInput(path)
			if err != nil {
				return err
			}
			bufs[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return bufs, nil
}

func runCombine(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	op, err := algebra.ParseOp(viper.GetString("combine.op"))
	if err != nil {
		return err
	}
	normalize := viper.GetBool("combine.normalize")

	bufs, err := loadAll(cmd.Context(), args)
	if err != nil {
		return err
	}
	for i, b := range bufs {
		bufs[i] = single(b)
	}

	out, err := algebra.CombineAll(bufs, op, normalize)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("Combined images", "op", op.String(), "inputs", len(args), "normalize", normalize)
	return saveOutput(outputPath(args[0], viper.GetString("combine.output"), op.String()), out)
}
