package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/MeKo-Tech/imagelab/internal/pipeline"
	"github.com/MeKo-Tech/imagelab/internal/store"
	"github.com/MeKo-Tech/imagelab/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var batchCmd = &cobra.Command{
	Use:   "batch <input>...",
	Short: "Run an operation chain over many images in parallel",
	Long: `Run an operation chain over files, directories and glob patterns.

Operations are separated by "|" and take comma separated arguments after
":", for example "gray|median:3|otsu|open:2". Results are written to
--output-dir. Existing outputs are skipped unless --force is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().String("ops", "", "Operation chain, e.g. \"gray|median:3|otsu\"")
	batchCmd.Flags().IntP("workers", "w", 0, "Number of parallel workers (default: number of CPUs)")
	batchCmd.Flags().Bool("progress", true, "Show a progress bar")
	batchCmd.Flags().Bool("force", false, "Overwrite existing outputs")
	batchCmd.Flags().String("format", "", "Output format extension (default: same as input)")
	batchCmd.Flags().String("suffix", "", "Suffix appended to output file names")
	batchCmd.Flags().Bool("measure", false, "Trace and measure contours of every result")
	batchCmd.Flags().String("store", "", "Record measurements in this SQLite database (implies --measure)")
	batchCmd.Flags().Bool("allow-failures", false, "Exit successfully even if some images fail")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"batch.ops", "ops"},
		{"batch.workers", "workers"},
		{"batch.progress", "progress"},
		{"batch.force", "force"},
		{"batch.format", "format"},
		{"batch.suffix", "suffix"},
		{"batch.measure", "measure"},
		{"batch.store", "store"},
		{"batch.allow_failures", "allow-failures"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, batchCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runBatch(cmd *cobra.Command, args []string) error {
	ops := viper.GetString("batch.ops")
	workers := viper.GetInt("batch.workers")
	showProgress := viper.GetBool("batch.progress")
	force := viper.GetBool("batch.force")
	outputDir := viper.GetString("output-dir")
	dbPath := viper.GetString("batch.store")
	measure := viper.GetBool("batch.measure") || dbPath != ""
	allowFailures := viper.GetBool("batch.allow_failures")

	if logger == nil {
		initLogging()
	}

	if ops == "" {
		return fmt.Errorf("--ops is required; available operations: %v", pipeline.Names())
	}
	pol, err := borderPolicy()
	if err != nil {
		return err
	}
	chain, err := pipeline.Parse(ops, pol)
	if err != nil {
		return err
	}
	mode, err := loadMode()
	if err != nil {
		return err
	}

	inputs, err := expandInputs(args)
	if err != nil {
		return err
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	logger.Info("Starting batch",
		"ops", chain.String(),
		"images", len(inputs),
		"workers", workers,
		"output_dir", outputDir,
		"border", pol.String(),
		"measure", measure,
	)

	opts := pipeline.Options{
		OutputDir: outputDir,
		Format:    viper.GetString("batch.format"),
		Suffix:    viper.GetString("batch.suffix"),
		LoadMode:  mode,
		Measure:   measure,
	}

	var sw *store.Writer
	if dbPath != "" {
		sw, err = store.New(dbPath, store.Metadata{
			Name:      "batch",
			Operation: chain.String(),
			Border:    pol.String(),
			Created:   time.Now(),
		})
		if err != nil {
			return fmt.Errorf("failed to create measurement store: %w", err)
		}
		defer sw.Close()
		opts.Sink = sw
		logger.Info("Measurement store created", "path", dbPath, "run_id", sw.RunID())
	}

	proc, err := pipeline.NewProcessor(chain, opts, logger)
	if err != nil {
		return fmt.Errorf("failed to init processor: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received interrupt signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	tasks := make([]worker.Task, 0, len(inputs))
	for _, in := range inputs {
		tasks = append(tasks, worker.Task{Input: in, Force: force})
	}

	progress := worker.NewProgress(len(tasks), showProgress)
	pool := worker.New(worker.Config{
		Workers:    workers,
		Processor:  proc,
		OnProgress: progress.Callback(),
	})

	results := pool.Run(ctx, tasks)
	progress.Done()

	failed := worker.Failures(results)
	for _, r := range failed {
		logger.Error("Image processing failed", "input", r.Task.Input, "error", r.Err)
	}

	logger.Info(progress.Summary())
	if st := progress.Stats(); st.Skipped > 0 {
		logger.Info("Existing outputs were kept; pass --force to overwrite them", "kept", st.Skipped)
	}

	if sw != nil {
		if err := sw.Flush(); err != nil {
			return fmt.Errorf("failed to flush measurement store: %w", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("batch cancelled after %d of %d images", len(results), len(tasks))
	}
	if len(failed) > 0 {
		if allowFailures {
			logger.Warn("Some images failed, but continuing due to --allow-failures flag", "failed_count", len(failed))
			return nil
		}
		return fmt.Errorf("%d of %d images failed", len(failed), len(tasks))
	}
	return nil
}
