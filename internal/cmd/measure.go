package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MeKo-Tech/imagelab/internal/codec"
	"github.com/MeKo-Tech/imagelab/internal/contour"
	"github.com/MeKo-Tech/imagelab/internal/pixel"
	"github.com/MeKo-Tech/imagelab/internal/point"
	"github.com/MeKo-Tech/imagelab/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var measureCmd = &cobra.Command{
	Use:   "measure <input>",
	Short: "Trace contours of a binary image and measure them",
	Long: `Trace the outer contour of every 8-connected white region and compute
area, perimeter, convex hull, centroid, shape factors and moment
invariants. Non-binary input is binarized at --level or with --otsu.

Results are written as CSV and optionally to a SQLite store and as an
overlay image with the contours drawn over the input.`,
	Args: cobra.ExactArgs(1),
	RunE: runMeasure,
}

func init() {
	rootCmd.AddCommand(measureCmd)

	measureCmd.Flags().Int("level", pixel.DefaultBinaryLevel, "Binarization level for non-binary input")
	measureCmd.Flags().Bool("otsu", false, "Binarize non-binary input with Otsu's method")
	measureCmd.Flags().String("csv", "", "CSV output path, - for stdout (default <output-dir>/<input>_measure.csv)")
	measureCmd.Flags().String("overlay", "", "Write the contours drawn over the input to this image path")
	measureCmd.Flags().String("store", "", "Also record the measurements in this SQLite database")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"measure.level", "level"},
		{"measure.otsu", "otsu"},
		{"measure.csv", "csv"},
		{"measure.overlay", "overlay"},
		{"measure.store", "store"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, measureCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func binarize(b *pixel.Buffer) (*pixel.Buffer, error) {
	b = single(b)
	if b.Mode() == pixel.Binary {
		return b, nil
	}
	if viper.GetBool("measure.otsu") {
		out, level, err := point.OtsuThreshold(b)
		if err != nil {
			return nil, err
		}
		logger.Info("Binarized with Otsu", "level", level)
		return out, nil
	}
	level, err := levelFlag("measure.level")
	if err != nil {
		return nil, err
	}
	return pixel.ToBinary(b, level), nil
}

func runMeasure(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	input := args[0]
	b, err := loadInput(input)
	if err != nil {
		return err
	}
	bin, err := binarize(b)
	if err != nil {
		return err
	}

	cs, err := contour.Trace(bin)
	if err != nil {
		return err
	}
	metrics := contour.MeasureAll(cs)
	logger.Info("Traced contours", "input", input, "contours", len(cs))

	csvPath := viper.GetString("measure.csv")
	if csvPath == "" {
		base := filepath.Base(input)
		csvPath = filepath.Join(viper.GetString("output-dir"), strings.TrimSuffix(base, filepath.Ext(base))+"_measure.csv")
	}
	if csvPath == "-" {
		if err := contour.WriteCSV(cmd.OutOrStdout(), metrics); err != nil {
			return err
		}
	} else if err := writeMeasureCSV(csvPath, metrics); err != nil {
		return err
	}

	if overlayPath := viper.GetString("measure.overlay"); overlayPath != "" {
		if err := ensureDir(overlayPath); err != nil {
			return err
		}
		if err := codec.SaveImage(overlayPath, contour.Overlay(b, cs)); err != nil {
			return err
		}
		logger.Info("Wrote overlay", "path", overlayPath)
	}

	if dbPath := viper.GetString("measure.store"); dbPath != "" {
		if err := storeMeasurements(dbPath, filepath.Base(input), cs, metrics); err != nil {
			return err
		}
	}
	return nil
}

func writeMeasureCSV(path string, metrics []contour.Metrics) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := contour.WriteCSV(f, metrics); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Info("Wrote measurements", "path", path)
	return nil
}

func storeMeasurements(dbPath, image string, cs []contour.Contour, metrics []contour.Metrics) error {
	w, err := store.New(dbPath, store.Metadata{
		Name:      "measure",
		Operation: "measure",
		Created:   time.Now(),
	})
	if err != nil {
		return err
	}
	for i, c := range cs {
		if err := w.WriteMeasurement(image, i, c, metrics[i]); err != nil {
			w.Close()
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}
	logger.Info("Recorded measurements", "store", dbPath, "run_id", w.RunID(), "contours", len(cs))
	return nil
}
