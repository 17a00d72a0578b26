package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"github.com/MeKo-Tech/imagelab/internal/codec"
	"github.com/MeKo-Tech/imagelab/internal/contour"
	"github.com/MeKo-Tech/imagelab/internal/pixel"
	"github.com/MeKo-Tech/imagelab/internal/worker"
)

// MeasurementSink receives the contours measured on each processed image.
// *store.Writer implements it.
type MeasurementSink interface {
	WriteMeasurement(image string, index int, c contour.Contour, m contour.Metrics) error
}

// Options configure a Processor.
type Options struct {
	OutputDir string
	// Format is the output extension ("png", "jpg", ...). Empty keeps the
	// input extension.
	Format   string
	Suffix   string
	LoadMode codec.LoadMode
	// Measure traces contours on the result and writes a CSV next to the
	// output image.
	Measure bool
	Sink    MeasurementSink
}

// Processor loads an image, runs the chain and writes the result.
type Processor struct {
	chain  Chain
	opts   Options
	logger *slog.Logger
}

// NewProcessor prepares a processor for chain.
func NewProcessor(chain Chain, opts Options, logger *slog.Logger) (*Processor, error) {
	if len(chain) == 0 {
		return nil, fmt.Errorf("%w: empty operation chain", pixel.ErrInvalidParameter)
	}
	if opts.OutputDir == "" {
		return nil, fmt.Errorf("output directory must be set")
	}
	return &Processor{chain: chain, opts: opts, logger: logger}, nil
}

// Chain returns the operations the processor applies.
func (p *Processor) Chain() Chain { return p.chain }

// OutputPath returns where the result for input is written.
func (p *Processor) OutputPath(input string) string {
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	if p.opts.Format != "" {
		ext = "." + strings.TrimPrefix(p.opts.Format, ".")
	}
	return filepath.Join(p.opts.OutputDir, name+p.opts.Suffix+ext)
}

// Process runs the chain on input and reports the output path and the
// number of contours measured. Existing outputs are kept, and reported as
// skipped, unless force is set. The context is checked between steps.
func (p *Processor) Process(ctx context.Context, input string, force bool) (worker.Output, error) {
	outPath := p.OutputPath(input)
	if !force {
		if _, err := os.Stat(outPath); err == nil {
			p.log().Info("Output already exists; skipping", "input", input, "path", outPath)
			return worker.Output{Path: outPath, Skipped: true}, nil
		}
	}

	if err := os.MkdirAll(p.opts.OutputDir, 0o755); err != nil {
		return worker.Output{}, fmt.Errorf("failed to create output dir: %w", err)
	}

	p.log().Debug("Loading image", "input", input)
	b, err := codec.Load(input, p.opts.LoadMode)
	if err != nil {
		return worker.Output{}, err
	}

	for _, step := range p.chain {
		if err := ctx.Err(); err != nil {
			return worker.Output{}, err
		}
		start := time.Now()
		if b, err = step.Apply(b); err != nil {
			return worker.Output{}, fmt.Errorf("%s: %w", filepath.Base(input), err)
		}
		p.log().Debug("Applied step", "input", input, "step", step.String(),
			"mode", b.Mode().String(), "elapsed", time.Since(start))
	}

	if err := codec.Save(outPath, b); err != nil {
		return worker.Output{}, err
	}
	out := worker.Output{Path: outPath}

	if p.opts.Measure {
		if out.Contours, err = p.measure(input, outPath, b); err != nil {
			return worker.Output{}, err
		}
		p.log().Info("Measured contours", "input", input, "contours", out.Contours)
	}

	p.log().Info("Processed image", "input", input, "path", outPath)
	return out, nil
}

func (p *Processor) measure(input, outPath string, b *pixel.Buffer) (int, error) {
	cs, err := contour.Trace(b)
	if err != nil {
		return 0, fmt.Errorf("failed to trace contours of %s: %w", input, err)
	}
	metrics := contour.MeasureAll(cs)

	csvPath := strings.TrimSuffix(outPath, filepath.Ext(outPath)) + ".csv"
	f, err := os.Create(csvPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", csvPath, err)
	}
	if err := contour.WriteCSV(f, metrics); err != nil {
		f.Close()
		return 0, fmt.Errorf("failed to write %s: %w", csvPath, err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("failed to close %s: %w", csvPath, err)
	}

	if p.opts.Sink != nil {
		name := filepath.Base(input)
		for i, c := range cs {
			if err := p.opts.Sink.WriteMeasurement(name, i, c, metrics[i]); err != nil {
				return 0, err
			}
		}
	}
	return len(cs), nil
}

func (p *Processor) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return slog.Default()
}
