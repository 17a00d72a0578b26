package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/imagelab/internal/filter"
	"github.com/MeKo-Tech/imagelab/internal/pixel"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var filterCmd = &cobra.Command{
	Use:   "filter <input> [output]",
	Short: "Convolve with a preset, box or custom kernel",
	Long: `Convolve a single-channel image with a kernel.

Presets: box, gaussian, gaussian5, sharpen, sharpen-strong, laplacian.
--size N uses an N x N box kernel, --weights takes rows separated by ";"
and values separated by ",", e.g. "0,-1,0;-1,5,-1;0,-1,0".
Kernels with a non-zero sum are normalized unless --raw is set.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runFilter,
}

func init() {
	rootCmd.AddCommand(filterCmd)

	filterCmd.Flags().String("kernel", "gaussian", "Preset kernel name")
	filterCmd.Flags().Int("size", 0, "Box kernel size (odd); overrides --kernel")
	filterCmd.Flags().String("weights", "", "Custom kernel weights; overrides --kernel and --size")
	filterCmd.Flags().Bool("raw", false, "Do not normalize the kernel")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"filter.kernel", "kernel"},
		{"filter.size", "size"},
		{"filter.weights", "weights"},
		{"filter.raw", "raw"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, filterCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

// parseWeights reads "a,b,c;d,e,f;g,h,i" into a kernel.
func parseWeights(s string) (filter.Kernel, error) {
	var rows [][]float64
	for _, line := range strings.Split(s, ";") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var row []float64
		for _, field := range strings.Split(line, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return filter.Kernel{}, fmt.Errorf("%w: kernel weight %q", pixel.ErrInvalidParameter, field)
			}
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	return filter.NewKernel(rows)
}

func selectKernel() (filter.Kernel, error) {
	if w := viper.GetString("filter.weights"); w != "" {
		return parseWeights(w)
	}
	if n := viper.GetInt("filter.size"); n > 0 {
		return filter.BoxKernel(n)
	}
	return filter.Named(viper.GetString("filter.kernel"))
}

func runFilter(cmd *cobra.Command, args []string) error {
	k, err := selectKernel()
	if err != nil {
		return err
	}
	pol, err := borderPolicy()
	if err != nil {
		return err
	}
	raw := viper.GetBool("filter.raw")

	return transform(args, "filter", func(b *pixel.Buffer) (*pixel.Buffer, error) {
		if raw || k.Sum() == 0 {
			return filter.Convolve(single(b), k, pol)
		}
		return filter.Blur(single(b), k, pol)
	})
}
