package cmd

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/imagelab/internal/codec"
	"github.com/MeKo-Tech/imagelab/internal/pixel"
	"github.com/MeKo-Tech/imagelab/internal/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var profileCmd = &cobra.Command{
	Use:   "profile <input>",
	Short: "Sample intensities along a polyline",
	Long: `Rasterize a polyline with Bresenham's algorithm and write the sample
values along it as CSV. Vertices are given as "x0,y0;x1,y1;...". Every
vertex must lie inside the image.`,
	Args: cobra.ExactArgs(1),
	RunE: runProfile,
}

func init() {
	rootCmd.AddCommand(profileCmd)

	profileCmd.Flags().String("points", "", "Polyline vertices: x0,y0;x1,y1;...")
	profileCmd.Flags().String("csv", "", "CSV output path, - for stdout (default <output-dir>/<input>_profile.csv)")
	profileCmd.Flags().String("plot", "", "Write a line plot of the profile to this image path")
	profileCmd.Flags().Int("plot-width", 640, "Plot width in pixels")
	profileCmd.Flags().Int("plot-height", 240, "Plot height in pixels")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"profile.points", "points"},
		{"profile.csv", "csv"},
		{"profile.plot", "plot"},
		{"profile.plot_width", "plot-width"},
		{"profile.plot_height", "plot-height"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, profileCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

// parsePoints reads "x0,y0;x1,y1;..." into at least two points.
func parsePoints(s string) ([]image.Point, error) {
	var pts []image.Point
	for _, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		xs, ys, ok := strings.Cut(pair, ",")
		if !ok {
			return nil, fmt.Errorf("%w: point %q must be x,y", pixel.ErrInvalidParameter, pair)
		}
		x, err := strconv.Atoi(strings.TrimSpace(xs))
		if err != nil {
			return nil, fmt.Errorf("%w: point %q: %v", pixel.ErrInvalidParameter, pair, err)
		}
		y, err := strconv.Atoi(strings.TrimSpace(ys))
		if err != nil {
			return nil, fmt.Errorf("%w: point %q: %v", pixel.ErrInvalidParameter, pair, err)
		}
		pts = append(pts, image.Pt(x, y))
	}
	if len(pts) < 2 {
		return nil, fmt.Errorf("%w: a profile needs at least two points, got %d", pixel.ErrInvalidParameter, len(pts))
	}
	return pts, nil
}

func runProfile(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	pts, err := parsePoints(viper.GetString("profile.points"))
	if err != nil {
		return err
	}
	b, err := loadInput(args[0])
	if err != nil {
		return err
	}

	path := profile.PathThrough(pts...)
	samples, err := path.Sample(b)
	if err != nil {
		return err
	}
	logger.Info("Sampled profile", "pixels", path.Len(), "length", path.Length())

	csvPath := viper.GetString("profile.csv")
	if csvPath == "" {
		base := filepath.Base(args[0])
		csvPath = filepath.Join(viper.GetString("output-dir"), strings.TrimSuffix(base, filepath.Ext(base))+"_profile.csv")
	}
	if err := writeProfileCSV(cmd.OutOrStdout(), csvPath, samples); err != nil {
		return err
	}

	if plotPath := viper.GetString("profile.plot"); plotPath != "" {
		img, err := profile.Plot(samples, viper.GetInt("profile.plot_width"), viper.GetInt("profile.plot_height"))
		if err != nil {
			return err
		}
		if err := ensureDir(plotPath); err != nil {
			return err
		}
		if err := codec.SaveImage(plotPath, img); err != nil {
			return err
		}
		logger.Info("Wrote profile plot", "path", plotPath)
	}
	return nil
}

func writeProfileCSV(stdout io.Writer, path string, samples []profile.Sample) error {
	if path == "-" {
		return profile.WriteCSV(stdout, samples)
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := profile.WriteCSV(f, samples); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Info("Wrote profile", "path", path, "samples", len(samples))
	return nil
}
