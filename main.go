package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fertiplan/dataset"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const version = "0.3.0"

var (
	// Global flags
	verbose    bool
	configPath string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "fertiplan",
	Short: "Fertilizer advisory service for wheat and rice",
	Long: `fertiplan recommends N, P and K requirement levels and per-acre quantity
ranges from a field's growth stage, soil, fertilization and irrigation history.

It also generates labeled synthetic datasets from the same rules for training
a learned model.

Run without a subcommand to start the HTTP API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var (
	genCrop    string
	genRows    int
	genSeed    uint64
	genWorkers int
	genFormat  string
	genOut     string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a synthetic labeled dataset",
	Long: `Draws random field contexts, labels them with the rule engine and writes
the rows as CSV or XLSX. A single crop uses that crop's layout
(days_since_sowing / days_since_transplanting); "all" writes the combined
training layout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd.Context())
	},
}

var mergeOut string

var mergeCmd = &cobra.Command{
	Use:   "merge FILE...",
	Short: "Standardise per-crop datasets and concatenate them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, closeFn, err := openOut(mergeOut)
		if err != nil {
			return err
		}
		n, err := dataset.MergeFiles(w, args...)
		if cerr := closeFn(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		logger.Info("datasets merged", zap.Strings("inputs", args), zap.Int("rows", n), zap.String("out", mergeOut))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "fertiplan version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")

	generateCmd.Flags().StringVar(&genCrop, "crop", "all", "Crop to generate: wheat, rice or all")
	generateCmd.Flags().IntVarP(&genRows, "rows", "n", 2000, "Rows per crop")
	generateCmd.Flags().Uint64Var(&genSeed, "seed", 42, "Random seed")
	generateCmd.Flags().IntVarP(&genWorkers, "workers", "w", 1, "Parallel generators (changes the rows drawn for a seed)")
	generateCmd.Flags().StringVarP(&genFormat, "format", "f", "csv", "Output format: csv or xlsx")
	generateCmd.Flags().StringVarP(&genOut, "out", "o", "-", "Output file, - for stdout")

	mergeCmd.Flags().StringVarP(&mergeOut, "out", "o", "-", "Output CSV file, - for stdout")

	rootCmd.AddCommand(serveCmd, generateCmd, mergeCmd, versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	app, err := newApp(connectCtx, cfg, logger)
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	defer app.close(context.Background())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("fertiplan API listening", zap.String("addr", srv.Addr), zap.String("version", version))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runGenerate(ctx context.Context) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	crops, layout, err := cropSelection(genCrop)
	if err != nil {
		return err
	}
	if genRows < 0 {
		return fmt.Errorf("rows must not be negative")
	}

	var seqs []iter.Seq2[dataset.Record, error]
	for i, c := range crops {
		s, err := dataset.NewSampler(c, cfg.Sampling)
		if err != nil {
			return err
		}
		seed := genSeed + uint64(i)
		if genWorkers <= 1 {
			seqs = append(seqs, s.Rows(seed, genRows))
			continue
		}
		recs, err := s.GenerateParallel(ctx, seed, genRows, genWorkers)
		if err != nil {
			return err
		}
		seqs = append(seqs, dataset.Slice(recs))
	}

	w, closeFn, err := openOut(genOut)
	if err != nil {
		return err
	}
	var n int
	switch genFormat {
	case "xlsx":
		n, err = dataset.WriteXLSX(w, layout, dataset.Concat(seqs...))
	case "csv":
		n, err = dataset.WriteCSV(w, layout, dataset.Concat(seqs...))
	default:
		err = fmt.Errorf("unknown format %q", genFormat)
	}
	if cerr := closeFn(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	logger.Info("dataset written",
		zap.String("crop", genCrop),
		zap.Int("rows", n),
		zap.Uint64("seed", genSeed),
		zap.String("out", genOut),
	)
	return nil
}

// openOut opens path for writing; "-" or "" means stdout.
func openOut(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
