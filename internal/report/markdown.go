package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jlonij/dac-web/internal/evaluate"
	"github.com/jlonij/dac-web/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// maxIncorrectRows bounds the incorrect-instances table.
const maxIncorrectRows = 100

// MarkdownWriter outputs evaluation summaries in Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the run summary in Markdown.
func (w *MarkdownWriter) Write(run *model.EvaluationRun) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Evaluation Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Dataset", "`" + run.Dataset + "`"},
			{"Run", "`" + run.ID + "`"},
			{"Started", run.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", run.Duration.Round(1e6).String()},
		},
	})
	md.PlainText("")

	w.writeMetrics(md, run)
	w.writeIncorrect(md, run)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeMetrics(md *markdown.Markdown, run *model.EvaluationRun) {
	c := run.Counts
	m := c.Metrics()

	md.H2("Metrics")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Measure", "Value"},
		Rows: [][]string{
			{"Instances", strconv.Itoa(c.Instances)},
			{"Correct predictions", strconv.Itoa(c.CorrectInstances)},
			{"**Accuracy**", "**" + m.Accuracy.String() + "**"},
			{"Link instances", strconv.Itoa(c.LinkInstances)},
			{"Correct link predictions", strconv.Itoa(c.CorrectLinks)},
			{"**Link recall**", "**" + m.Recall.String() + "**"},
			{"Link predictions", strconv.Itoa(c.PredictedLinks())},
			{"**Link precision**", "**" + m.Precision.String() + "**"},
			{"**Link F1-measure**", "**" + m.F1.String() + "**"},
		},
	})
	md.PlainText("")

	if c.Instances > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Prediction Outcome"),
			piechart.WithShowData(true),
		)
		if c.CorrectInstances > 0 {
			chart.LabelAndIntValue("Correct", uint64(c.CorrectInstances))
		}
		if wrong := c.Instances - c.CorrectInstances; wrong > 0 {
			chart.LabelAndIntValue("Incorrect", uint64(wrong))
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	switch {
	case c.Instances == 0:
		md.Note("The dataset has no labelled instances; no metric is defined.")
	case run.Failures > 0:
		md.Warningf("%d linker failure(s) were recorded as incorrect predictions.", run.Failures)
	case c.CorrectInstances == c.Instances:
		md.Tip("Every labelled instance was predicted correctly.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeIncorrect(md *markdown.Markdown, run *model.EvaluationRun) {
	md.H2("Incorrect Predictions")
	md.PlainText("")

	rows := make([][]string, 0)
	for _, r := range run.Records {
		if r.Correct {
			continue
		}
		if len(rows) == maxIncorrectRows {
			break
		}
		rows = append(rows, []string{
			strconv.Itoa(r.Position),
			r.Entity,
			truncateString(r.Gold, 60),
			truncateString(r.Prediction, 60),
		})
	}

	if len(rows) == 0 {
		md.PlainText("None.")
		md.PlainText("")
		return
	}

	md.Table(markdown.TableSet{
		Header: []string{"Id", "Entity", "Link", "Prediction"},
		Rows:   rows,
	})
	md.PlainText("")
}

// WriteComparison outputs the comparison of two runs in Markdown.
func (w *MarkdownWriter) WriteComparison(cmp *evaluate.Comparison) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Run Comparison: " + cmp.Dataset)
	md.PlainText("")

	switch cmp.Direction {
	case evaluate.DirectionImproved:
		md.Tip("Accuracy improved since the previous run.")
	case evaluate.DirectionWorsened:
		md.Warningf("Accuracy worsened since the previous run.")
	default:
		md.Note("Accuracy is unchanged.")
	}
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Run", "ID", "Date"},
		Rows: [][]string{
			{"Previous", "`" + cmp.Previous.ID + "`", cmp.Previous.StartedAt.Format(timeLayout)},
			{"Current", "`" + cmp.Current.ID + "`", cmp.Current.StartedAt.Format(timeLayout)},
		},
	})
	md.PlainText("")

	md.H2("Metrics")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Previous", "Current", "Change"},
		Rows:   metricRows(cmp),
	})
	md.PlainText("")

	writeChanges(md, "Newly Correct", cmp.NewlyCorrect)
	writeChanges(md, "Newly Incorrect", cmp.NewlyIncorrect)

	md.PlainTextf("Unchanged: %d, changed prediction with the same outcome: %d", cmp.Unchanged, cmp.ChangedPrediction)
	md.PlainText("")

	return len(md.String()), md.Build()
}

func writeChanges(md *markdown.Markdown, title string, changes []evaluate.InstanceChange) {
	if len(changes) == 0 {
		return
	}

	md.H2(fmt.Sprintf("%s (%d)", title, len(changes)))
	md.PlainText("")

	rows := make([][]string, len(changes))
	for i, c := range changes {
		rows[i] = []string{
			strconv.Itoa(c.InstanceID),
			c.Entity,
			truncateString(c.Gold, 50),
			truncateString(c.PreviousPrediction, 50),
			truncateString(c.CurrentPrediction, 50),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Id", "Entity", "Link", "Previous", "Current"},
		Rows:   rows,
	})
	md.PlainText("")
}
