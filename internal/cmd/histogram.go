package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/MeKo-Tech/imagelab/internal/codec"
	"github.com/MeKo-Tech/imagelab/internal/histogram"
	"github.com/MeKo-Tech/imagelab/internal/pixel"
	"github.com/MeKo-Tech/imagelab/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var histogramCmd = &cobra.Command{
	Use:   "histogram <input>",
	Short: "Print histogram statistics and optionally plot the histogram",
	Long: `Compute the 256-bin histogram of an image and print count, extrema,
mean, standard deviation and mode. Color images report each of the R, G
and B channels unless --channel selects one.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistogram,
}

func init() {
	rootCmd.AddCommand(histogramCmd)

	histogramCmd.Flags().Int("channel", -1, "Color channel to analyze (0=R, 1=G, 2=B); -1 for all")
	histogramCmd.Flags().String("plot", "", "Write a histogram plot to this image path")
	histogramCmd.Flags().Int("plot-width", 512, "Plot width in pixels")
	histogramCmd.Flags().Int("plot-height", 200, "Plot height in pixels")
	histogramCmd.Flags().String("store", "", "Also record the statistics in this SQLite database")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"histogram.channel", "channel"},
		{"histogram.plot", "plot"},
		{"histogram.plot_width", "plot-width"},
		{"histogram.plot_height", "plot-height"},
		{"histogram.store", "store"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, histogramCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

// channels lists the channels to analyze for b; sel < 0 selects all.
func channels(b *pixel.Buffer, sel int) ([]int, error) {
	if b.Mode().Single() {
		return []int{0}, nil
	}
	if sel < 0 {
		return []int{0, 1, 2}, nil
	}
	if sel > 2 {
		return nil, fmt.Errorf("%w: channel %d", pixel.ErrIndexOutOfRange, sel)
	}
	return []int{sel}, nil
}

func channelName(b *pixel.Buffer, c int) string {
	if b.Mode().Single() {
		return "gray"
	}
	return [3]string{"red", "green", "blue"}[c]
}

func writeStatsTable(w io.Writer, names []string, stats []histogram.Stats) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "channel\tn\tmin\tmax\tmean\tstddev\tmode\tmode count")
	for i, st := range stats {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.3f\t%.3f\t%d\t%d\n",
			names[i], st.N, st.Min, st.Max, st.Mean, st.StdDev, st.Mode.Level, st.Mode.Count)
	}
	return tw.Flush()
}

func runHistogram(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	b, err := loadInput(args[0])
	if err != nil {
		return err
	}
	chans, err := channels(b, viper.GetInt("histogram.channel"))
	if err != nil {
		return err
	}

	var (
		names []string
		stats []histogram.Stats
		hists []histogram.Histogram
	)
	for _, c := range chans {
		h, err := histogram.Compute(b, c)
		if err != nil {
			return err
		}
		st, err := histogram.Statistics(h)
		if err != nil {
			return fmt.Errorf("%s: %w", channelName(b, c), err)
		}
		names = append(names, channelName(b, c))
		stats = append(stats, st)
		hists = append(hists, h)
	}

	if err := writeStatsTable(cmd.OutOrStdout(), names, stats); err != nil {
		return err
	}

	if plotPath := viper.GetString("histogram.plot"); plotPath != "" {
		for i, h := range hists {
			path := plotPath
			if len(hists) > 1 {
				ext := filepath.Ext(plotPath)
				path = strings.TrimSuffix(plotPath, ext) + "_" + names[i] + ext
			}
			img, err := histogram.Render(h, viper.GetInt("histogram.plot_width"), viper.GetInt("histogram.plot_height"))
			if err != nil {
				return err
			}
			if err := ensureDir(path); err != nil {
				return err
			}
			if err := codec.SaveImage(path, img); err != nil {
				return err
			}
			logger.Info("Wrote histogram plot", "path", path, "channel", names[i])
		}
	}

	if dbPath := viper.GetString("histogram.store"); dbPath != "" {
		w, err := store.New(dbPath, store.Metadata{Name: "histogram", Operation: "histogram"})
		if err != nil {
			return err
		}
		for i, c := range chans {
			if err := w.WriteStats(args[0], c, stats[i]); err != nil {
				w.Close()
				return err
			}
		}
		if err := w.Close(); err != nil {
			return err
		}
		logger.Info("Recorded statistics", "store", dbPath, "run_id", w.RunID())
	}
	return nil
}
