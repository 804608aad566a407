package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jlonij/dac-web/internal/evaluate"
	"github.com/jlonij/dac-web/internal/model"
)

const timeLayout = "2006-01-02 15:04:05"

// SimpleWriter outputs the plain text summary for terminals.
type SimpleWriter struct {
	baseWriter

	// runInfo prints the run identity before the metric summary.
	runInfo bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithRunInfo prints the dataset, run id and timing ahead of the summary.
func WithRunInfo(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.runInfo = show
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the metric summary of a run.
func (w *SimpleWriter) Write(run *model.EvaluationRun) (int, error) {
	var sb strings.Builder

	if w.runInfo {
		w.writeRunInfo(&sb, run)
	}

	c := run.Counts
	m := c.Metrics()

	sb.WriteString("---\n")
	sb.WriteString("Number of instances: " + strconv.Itoa(c.Instances) + "\n")
	sb.WriteString("Number of correct predictions: " + strconv.Itoa(c.CorrectInstances) + "\n")
	sb.WriteString("Prediction accuracy: " + FormatRatio(m.Accuracy) + "\n")
	sb.WriteString("---\n")
	sb.WriteString("Number of link instances: " + strconv.Itoa(c.LinkInstances) + "\n")
	sb.WriteString("Number of correct link predictions: " + strconv.Itoa(c.CorrectLinks) + "\n")
	sb.WriteString("Link recall: " + FormatRatio(m.Recall) + "\n")
	sb.WriteString("---\n")
	sb.WriteString("Number of correct link predictions: " + strconv.Itoa(c.CorrectLinks) + "\n")
	sb.WriteString("Number of link predictions: " + strconv.Itoa(c.PredictedLinks()) + "\n")
	sb.WriteString("Link precision: " + FormatRatio(m.Precision) + "\n")
	sb.WriteString("---\n")
	sb.WriteString("Link F1-measure: " + FormatRatio(m.F1) + "\n")
	sb.WriteString("---\n")

	if run.Failures > 0 {
		sb.WriteString(fmt.Sprintf("Linker failures recorded: %d\n", run.Failures))
	}

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeRunInfo(sb *strings.Builder, run *model.EvaluationRun) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Dataset:  %s\n", run.Dataset))
	sb.WriteString(fmt.Sprintf("Run:      %s\n", run.ID))
	sb.WriteString(fmt.Sprintf("Started:  %s\n", run.StartedAt.Format(timeLayout)))
	sb.WriteString(fmt.Sprintf("Duration: %s\n", run.Duration.Round(1e6)))
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// WriteComparison outputs a comparison of two runs as text.
func (w *SimpleWriter) WriteComparison(cmp *evaluate.Comparison) (int, error) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Run Comparison: %s\n", cmp.Dataset))
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("\nStatus: %s\n", formatDirection(cmp.Direction)))

	sb.WriteString(fmt.Sprintf("\nPrevious run: %s (%s)\n", cmp.Previous.ID, cmp.Previous.StartedAt.Format(timeLayout)))
	sb.WriteString(fmt.Sprintf("Current run:  %s (%s)\n", cmp.Current.ID, cmp.Current.StartedAt.Format(timeLayout)))

	sb.WriteString("\nMetrics:\n")
	sb.WriteString(fmt.Sprintf("  %-12s  %-10s  %-10s  %-10s\n", "Metric", "Previous", "Current", "Change"))
	sb.WriteString("  " + strings.Repeat("-", 48) + "\n")
	for _, row := range metricRows(cmp) {
		sb.WriteString(fmt.Sprintf("  %-12s  %-10s  %-10s  %-10s\n", row[0], row[1], row[2], row[3]))
	}

	if len(cmp.NewlyCorrect) > 0 {
		sb.WriteString(fmt.Sprintf("\nNewly Correct (%d):\n", len(cmp.NewlyCorrect)))
		for _, c := range cmp.NewlyCorrect {
			sb.WriteString(fmt.Sprintf("  [+] %d %s: %s -> %s\n", c.InstanceID, c.Entity, c.PreviousPrediction, c.CurrentPrediction))
		}
	}

	if len(cmp.NewlyIncorrect) > 0 {
		sb.WriteString(fmt.Sprintf("\nNewly Incorrect (%d):\n", len(cmp.NewlyIncorrect)))
		for _, c := range cmp.NewlyIncorrect {
			sb.WriteString(fmt.Sprintf("  [-] %d %s: %s -> %s (gold: %s)\n", c.InstanceID, c.Entity, c.PreviousPrediction, c.CurrentPrediction, c.Gold))
		}
	}

	if cmp.ChangedPrediction > 0 {
		sb.WriteString(fmt.Sprintf("\nChanged prediction, same outcome: %d\n", cmp.ChangedPrediction))
	}
	if cmp.Unchanged > 0 {
		sb.WriteString(fmt.Sprintf("\nUnchanged: %d instances\n", cmp.Unchanged))
	}
	if cmp.Added > 0 || cmp.Removed > 0 {
		sb.WriteString(fmt.Sprintf("\nOnly in current run: %d, only in previous run: %d\n", cmp.Added, cmp.Removed))
	}

	return w.output.Write([]byte(sb.String()))
}

func metricRows(cmp *evaluate.Comparison) [][]string {
	prev, cur := cmp.Previous.Metrics, cmp.Current.Metrics
	return [][]string{
		{"Accuracy", prev.Accuracy.String(), cur.Accuracy.String(), FormatDelta(cmp.Deltas.Accuracy)},
		{"Recall", prev.Recall.String(), cur.Recall.String(), FormatDelta(cmp.Deltas.Recall)},
		{"Precision", prev.Precision.String(), cur.Precision.String(), FormatDelta(cmp.Deltas.Precision)},
		{"F1", prev.F1.String(), cur.F1.String(), FormatDelta(cmp.Deltas.F1)},
	}
}

func formatDirection(direction string) string {
	switch direction {
	case evaluate.DirectionImproved:
		return "IMPROVED"
	case evaluate.DirectionWorsened:
		return "WORSENED"
	default:
		return "UNCHANGED"
	}
}
