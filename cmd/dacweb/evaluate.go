package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/jlonij/dac-web/internal/config"
	"github.com/jlonij/dac-web/internal/database"
	"github.com/jlonij/dac-web/internal/dataset"
	"github.com/jlonij/dac-web/internal/evaluate"
	"github.com/jlonij/dac-web/internal/linker"
	"github.com/jlonij/dac-web/internal/model"
	"github.com/jlonij/dac-web/internal/report"
	"github.com/spf13/cobra"
)

// NewEvaluateCmd creates the evaluate command.
func NewEvaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate <dataset>",
		Short: "Evaluate the entity linker against a labelled dataset",
		Long: `Evaluate sends every labelled mention of a dataset to the entity linker
and scores the predictions against the gold links.

A tab-delimited results file lists one row per evaluated mention with its
gold link, the prediction and whether it was correct. A summary of accuracy,
link recall, link precision and link F1-measure is printed to stdout, and the
run is stored in the history database for 'dacweb compare'.

Examples:
  # Evaluate the "test" dataset
  dacweb evaluate test

  # Write results elsewhere and print a Markdown summary
  dacweb evaluate -o out/test.tsv --markdown test

  # Keep going when the linker fails on a mention
  dacweb evaluate --continue-on-error test

  # Also keep a copy of the summary
  dacweb evaluate --summary-file out/test-summary.txt test`,
		Args: cobra.ExactArgs(1),
		RunE: runEvaluateCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultResultsFile,
		"Results file path (tab-delimited)")
	cmd.Flags().String("summary-file", "",
		"Also write the summary to this file")
	cmd.Flags().BoolP("json", "j", false,
		"Print the summary as JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Print the summary as Markdown (mutually exclusive with --json)")
	cmd.Flags().Bool("no-save", false,
		"Do not store the run in the history database")
	cmd.Flags().Bool("continue-on-error", false,
		"Record linker failures as incorrect predictions instead of aborting")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

func runEvaluateCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildEvaluateConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := linker.NewClient(linkerOptions(cfg, logger))
	if err != nil {
		return fmt.Errorf("failed to create service client: %w", err)
	}

	return runEvaluation(ctx, cmd, cfg, client, args[0], logger)
}

// buildEvaluateConfig adds the evaluate flags to the shared configuration.
func buildEvaluateConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()

	if cfg.ResultsFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.SummaryFile, err = flags.GetString("summary-file"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	noSave, err := flags.GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave
	if cfg.ContinueOnError, err = flags.GetBool("continue-on-error"); err != nil {
		return nil, err
	}
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}
	return cfg, nil
}

func linkerOptions(cfg *config.Config, logger *slog.Logger) linker.Options {
	return linker.Options{
		LinkerURL:    cfg.LinkerURL,
		NERURL:       cfg.NERURL,
		OCRSuffix:    cfg.OCRSuffix,
		ProxyAddress: cfg.ProxyAddress,
		Timeout:      cfg.Timeout,
		UserAgent:    cfg.UserAgent,
		Logger:       logger,
	}
}

// runEvaluation evaluates one dataset, writes the results file and the
// summary, and records the run.
func runEvaluation(ctx context.Context, cmd *cobra.Command, cfg *config.Config, l evaluate.Linker, name string, logger *slog.Logger) error {
	store := dataset.NewStore(cfg.DataDir, dataset.WithLogger(logger))
	ds, err := store.Load(name)
	if err != nil {
		return err
	}

	opts := []evaluate.Option{
		evaluate.WithLogger(logger),
		evaluate.WithContinueOnError(cfg.ContinueOnError),
	}
	if cfg.Verbose {
		stderr := cmd.ErrOrStderr()
		opts = append(opts, evaluate.WithProgress(func(done, total int) {
			fmt.Fprintf(stderr, "Evaluated %d/%d\n", done, total)
		}))
	}

	run := model.NewEvaluationRun(uuid.NewString(), name)
	if err := evaluate.New(l, opts...).Run(ctx, ds, run); err != nil {
		return err
	}

	if err := writeResultsFile(cfg.ResultsFile, run); err != nil {
		return err
	}

	if err := writeSummary(cmd.OutOrStdout(), cfg, run); err != nil {
		return err
	}

	if cfg.SaveToDB {
		if err := saveRun(ctx, cfg.DBDir, run, logger); err != nil {
			// The results file is already written; losing history is not fatal.
			logger.Error("failed to save evaluation run", "run", run.ID, "error", err)
		}
	}
	return nil
}

// summaryWriter selects the summary format.
func summaryWriter(out io.Writer, cfg *config.Config) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(out, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewSimpleWriter(out, report.WithRunInfo(cfg.Verbose))
	}
}

// writeSummary prints the summary and, when configured, copies it to the
// summary file.
func writeSummary(out io.Writer, cfg *config.Config, run *model.EvaluationRun) error {
	w := summaryWriter(out, cfg)
	if cfg.SummaryFile != "" {
		f, err := createOutputFile(cfg.SummaryFile)
		if err != nil {
			return fmt.Errorf("failed to create summary file: %w", err)
		}
		defer f.Close()
		w = report.NewMultiWriter(w, summaryWriter(f, cfg))
	}
	if _, err := w.Write(run); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

// createOutputFile creates path and its parent directories.
func createOutputFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644) //nolint:gosec // Results are shared with annotators
}

func writeResultsFile(path string, run *model.EvaluationRun) error {
	if path == "" {
		return errors.New("no results file path")
	}
	f, err := createOutputFile(path)
	if err != nil {
		return fmt.Errorf("failed to create results file: %w", err)
	}
	if _, err := report.NewResultsWriter(f).Write(run); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return f.Close()
}

func saveRun(ctx context.Context, dbDir string, run *model.EvaluationRun, logger *slog.Logger) error {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.SaveRun(ctx, run); err != nil {
		return err
	}
	logger.Info("evaluation run saved", "run", run.ID, "dataset", run.Dataset, "db", db.Path())
	return nil
}
