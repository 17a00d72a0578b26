package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/MeKo-Tech/imagelab/internal/border"
	"github.com/MeKo-Tech/imagelab/internal/codec"
	"github.com/MeKo-Tech/imagelab/internal/pixel"
	"github.com/disintegration/imaging"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// borderPolicy reads --border and applies --border-value to the constant
// kinds unless the policy string already carries a value.
func borderPolicy() (border.Policy, error) {
	raw := viper.GetString("border")
	pol, err := border.Parse(raw)
	if err != nil {
		return border.Policy{}, err
	}
	if (pol.Kind == border.Constant || pol.Kind == border.ConstantAfter) && !strings.Contains(raw, ":") {
		v := viper.GetInt("border_value")
		if v < 0 || v > 255 {
			return border.Policy{}, fmt.Errorf("%w: border value %d", pixel.ErrInvalidParameter, v)
		}
		pol.Value = uint8(v)
	}
	return pol, nil
}

func loadMode() (codec.LoadMode, error) {
	return codec.ParseLoadMode(viper.GetString("load_mode"))
}

func loadInput(path string) (*pixel.Buffer, error) {
	mode, err := loadMode()
	if err != nil {
		return nil, err
	}
	b, err := codec.Load(path, mode)
	if err != nil {
		return nil, err
	}
	logger.Debug("Loaded image", "path", path, "size", fmt.Sprintf("%dx%d", b.Width(), b.Height()), "mode", b.Mode().String())
	return b, nil
}

// outputPath returns explicit when set, otherwise input's base name with
// suffix inside --output-dir.
func outputPath(input, explicit, suffix string) string {
	if explicit != "" {
		return explicit
	}
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	return filepath.Join(viper.GetString("output-dir"), strings.TrimSuffix(base, ext)+"_"+suffix+ext)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	return nil
}

func saveOutput(path string, b *pixel.Buffer) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := codec.Save(path, b); err != nil {
		return err
	}
	logger.Info("Wrote image", "path", path, "mode", b.Mode().String())
	return nil
}

// transform is the body of the single-operation commands: load args[0],
// run fn and write the result to args[1] or the derived output path.
func transform(args []string, suffix string, fn func(*pixel.Buffer) (*pixel.Buffer, error)) error {
	if logger == nil {
		initLogging()
	}

	in := args[0]
	var explicit string
	if len(args) > 1 {
		explicit = args[1]
	}

	b, err := loadInput(in)
	if err != nil {
		return err
	}
	out, err := fn(b)
	if err != nil {
		return fmt.Errorf("%s: %w", suffix, err)
	}
	return saveOutput(outputPath(in, explicit, suffix), out)
}

// expandInputs turns files, directories and glob patterns into a sorted,
// de-duplicated list of image files.
func expandInputs(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no such file: %s", arg)
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil {
				return nil, err
			}
			if !info.IsDir() {
				files = append(files, m)
				continue
			}
			err = filepath.WalkDir(m, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("failed to walk %s: %w", m, err)
			}
		}
	}

	images := lo.Filter(lo.Uniq(files), func(path string, _ int) bool {
		_, err := imaging.FormatFromFilename(path)
		return err == nil
	})
	if len(images) == 0 {
		return nil, fmt.Errorf("no image files in %s", strings.Join(args, ", "))
	}
	slices.Sort(images)
	return images, nil
}

// single reduces color input to luma for the operations that need one
// channel.
func single(b *pixel.Buffer) *pixel.Buffer {
	if b.Mode() != pixel.Color {
		return b
	}
	logger.Debug("Converting color input to grayscale")
	return pixel.ToGray(b)
}
