package report

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/jlonij/dac-web/internal/evaluate"
	"github.com/jlonij/dac-web/internal/model"
)

// ResultsHeader is the header row of the results file.
var ResultsHeader = []string{"Id", "Entity", "Link", "Prediction", "Correct"}

// ResultsWriter writes the tab-delimited per-instance results file.
type ResultsWriter struct {
	baseWriter
}

// NewResultsWriter creates a ResultsWriter that outputs to the given writer.
func NewResultsWriter(output io.Writer) *ResultsWriter {
	return &ResultsWriter{baseWriter: newBaseWriter(output)}
}

// Write writes one row per evaluated instance, in evaluation order.
// Id is the position among evaluated instances.
func (w *ResultsWriter) Write(run *model.EvaluationRun) (int, error) {
	rows := make([][]string, 0, len(run.Records)+1)
	rows = append(rows, ResultsHeader)
	for _, r := range run.Records {
		rows = append(rows, []string{
			strconv.Itoa(r.Position),
			r.Entity,
			r.Gold,
			r.Prediction,
			correctFlag(r.Correct),
		})
	}
	return w.writeRows(rows)
}

// WriteComparison writes one row per instance whose correctness changed.
func (w *ResultsWriter) WriteComparison(cmp *evaluate.Comparison) (int, error) {
	rows := [][]string{{"Id", "Entity", "Link", "Previous", "Current", "Correct"}}
	for _, c := range cmp.NewlyCorrect {
		rows = append(rows, changeRow(c, true))
	}
	for _, c := range cmp.NewlyIncorrect {
		rows = append(rows, changeRow(c, false))
	}
	return w.writeRows(rows)
}

func changeRow(c evaluate.InstanceChange, correct bool) []string {
	return []string{
		strconv.Itoa(c.InstanceID),
		c.Entity,
		c.Gold,
		c.PreviousPrediction,
		c.CurrentPrediction,
		correctFlag(correct),
	}
}

func (w *ResultsWriter) writeRows(rows [][]string) (int, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	cw.Comma = '\t'
	if err := cw.WriteAll(rows); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}
