package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jlonij/dac-web/internal/database"
	"github.com/jlonij/dac-web/internal/evaluate"
	"github.com/jlonij/dac-web/internal/model"
	"github.com/jlonij/dac-web/internal/report"
	"github.com/spf13/cobra"
)

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [dataset]",
		Short: "Compare evaluation runs from the history database",
		Long: `Compare shows how the linker's results on a dataset changed between two
evaluation runs:
- Change of accuracy, link recall, link precision and F1
- Mentions that became correct
- Mentions that became incorrect

By default the latest two runs are compared. Use 'dacweb evaluate' to create
runs.

Examples:
  # Compare the latest two runs of the "test" dataset
  dacweb compare test

  # List the run history of a dataset
  dacweb compare --list test

  # Compare the latest run with a specific earlier run
  dacweb compare --with-run-id 0b4c... test

  # Also write the changed mentions as a tab-delimited file
  dacweb compare --tsv changes.tsv test

  # List all datasets with stored runs
  dacweb compare --list-datasets`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	cmd.Flags().BoolP("list", "l", false,
		"List the run history of the dataset")
	cmd.Flags().BoolP("list-datasets", "L", false,
		"List all datasets with stored runs")
	cmd.Flags().StringP("with-run-id", "i", "",
		"Compare the latest run with this run (use --list to see ids)")
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison in Markdown format")
	cmd.Flags().String("tsv", "",
		"Also write mentions whose correctness changed to this tab-delimited file")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

func runCompareCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()

	listDatasets, err := flags.GetBool("list-datasets")
	if err != nil {
		return err
	}
	// Validate arguments before opening the database.
	if !listDatasets && len(args) == 0 {
		return errors.New("dataset name is required (use --list-datasets to see available datasets)")
	}

	if dbDir, _ := flags.GetString("db-dir"); dbDir != "" {
		cfg.DBDir = dbDir
	}
	jsonOutput, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := flags.GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return errors.New("--json and --markdown are mutually exclusive")
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if listDatasets {
		return listEvaluatedDatasets(ctx, out, db)
	}

	name := args[0]
	listHistory, err := flags.GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		return listRunHistory(ctx, out, db, name)
	}

	withRunID, err := flags.GetString("with-run-id")
	if err != nil {
		return err
	}

	tsvPath, err := flags.GetString("tsv")
	if err != nil {
		return err
	}

	cmp, err := compareRuns(ctx, db, name, withRunID)
	if err != nil {
		return err
	}

	var w report.Writer
	switch {
	case jsonOutput:
		w = report.NewJSONWriter(out, report.WithPrettyPrint())
	case markdownOutput:
		w = report.NewMarkdownWriter(out)
	default:
		w = report.NewSimpleWriter(out)
	}
	if tsvPath != "" {
		f, err := createOutputFile(tsvPath)
		if err != nil {
			return fmt.Errorf("failed to create changes file: %w", err)
		}
		defer f.Close()
		w = report.NewMultiWriter(w, report.NewResultsWriter(f))
	}
	_, err = w.WriteComparison(cmp)
	return err
}

func listEvaluatedDatasets(ctx context.Context, out io.Writer, db *database.HistoryDB) error {
	names, err := db.ListDatasets(ctx)
	if err != nil {
		return err
	}

	if len(names) == 0 {
		fmt.Fprintln(out, "No evaluation runs found in the database.")
		fmt.Fprintln(out, "\nUse 'dacweb evaluate <dataset>' to evaluate a dataset.")
		return nil
	}

	fmt.Fprintf(out, "Evaluated datasets (%d):\n\n", len(names))
	for _, name := range names {
		fmt.Fprintf(out, "  • %s\n", name)
	}
	fmt.Fprintln(out, "\nUse 'dacweb compare --list <dataset>' to see the run history of a dataset.")
	return nil
}

func listRunHistory(ctx context.Context, out io.Writer, db *database.HistoryDB, name string) error {
	runs, err := db.GetRunHistory(ctx, name)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintf(out, "No evaluation runs found for %s\n", name)
		return nil
	}

	fmt.Fprintf(out, "Run history for %s (%d runs):\n\n", name, len(runs))
	fmt.Fprintf(out, "  %-36s  %-19s  %-9s  %-9s  %s\n", "ID", "Date", "Instances", "Accuracy", "F1")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 90))
	for _, meta := range runs {
		m := meta.Counts.Metrics()
		fmt.Fprintf(out, "  %-36s  %-19s  %-9d  %-9s  %s\n",
			meta.ID,
			meta.StartedAt.Local().Format("2006-01-02 15:04:05"),
			meta.Counts.Instances,
			m.Accuracy,
			m.F1,
		)
	}

	fmt.Fprintln(out, "\nUse 'dacweb compare <dataset>' to compare the latest two runs.")
	fmt.Fprintln(out, "Use 'dacweb compare --with-run-id <id> <dataset>' to compare with a specific run.")
	return nil
}

// compareRuns loads the latest run and the run to compare it with: the
// given run, or otherwise the one before the latest.
func compareRuns(ctx context.Context, db *database.HistoryDB, name, withRunID string) (*evaluate.Comparison, error) {
	latest, err := db.GetLatestRuns(ctx, name, 2)
	if err != nil {
		return nil, err
	}
	if len(latest) == 0 {
		return nil, fmt.Errorf("no evaluation runs found for %s", name)
	}

	current := latest[0]
	var previous *model.EvaluationRun
	if withRunID != "" {
		previous, err = db.GetRun(ctx, withRunID)
		if err != nil {
			return nil, err
		}
		if previous == nil {
			return nil, fmt.Errorf("run %s not found", withRunID)
		}
		if previous.Dataset != name {
			return nil, fmt.Errorf("run %s belongs to dataset %s, not %s", withRunID, previous.Dataset, name)
		}
		if previous.ID == current.ID {
			return nil, fmt.Errorf("run %s is the latest run; choose an earlier run to compare with", withRunID)
		}
	} else {
		if len(latest) < 2 {
			return nil, fmt.Errorf("at least 2 runs are required for comparison (found %d)", len(latest))
		}
		previous = latest[1]
	}

	return evaluate.Compare(previous, current), nil
}
