package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "imagelab",
	Short: "Pixel transforms and neighborhood filters for 8-bit images",
	Long: `imagelab applies point transforms, neighborhood filters, image algebra
and contour measurements to grayscale, binary and color images.

Single operations have their own commands. The batch command runs an
operation chain such as "gray|median:3|otsu" over many files in parallel.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose logging")
	rootCmd.PersistentFlags().String("border", "reflect", "Border policy for neighborhood operations (constant, constant-after, reflect, wrap)")
	rootCmd.PersistentFlags().Int("border-value", 0, "Fill value for the constant border policies")
	rootCmd.PersistentFlags().String("output-dir", "./out", "Output directory when no output path is given")
	rootCmd.PersistentFlags().String("load-mode", "auto", "How inputs are loaded (auto, gray, color, binary)")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"verbose", "verbose"},
		{"border", "border"},
		{"border_value", "border-value"},
		{"output-dir", "output-dir"},
		{"load_mode", "load-mode"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, rootCmd.PersistentFlags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("IMAGELAB")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}
