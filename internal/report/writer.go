package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/jlonij/dac-web/internal/evaluate"
	"github.com/jlonij/dac-web/internal/model"
)

// Writer renders evaluation output.
type Writer interface {
	// Write renders a completed evaluation run.
	// Returns the number of bytes written and any error encountered.
	Write(run *model.EvaluationRun) (int, error)

	// WriteComparison renders the comparison of two runs.
	WriteComparison(cmp *evaluate.Comparison) (int, error)
}

// MultiWriter writes to multiple Writers in order.
// It stops on the first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write renders the run with every writer and returns the total bytes written.
func (m *MultiWriter) Write(run *model.EvaluationRun) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(run)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteComparison renders the comparison with every writer.
func (m *MultiWriter) WriteComparison(cmp *evaluate.Comparison) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteComparison(cmp)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// FormatRatio formats a metric value the way the summary prints it:
// the shortest exact decimal with at least one fractional digit, or
// "undefined" when there is no value.
func FormatRatio(m model.Metric) string {
	if !m.Defined {
		return "undefined"
	}
	s := strconv.FormatFloat(m.Value, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// FormatDelta formats a metric change with an explicit sign.
func FormatDelta(m model.Metric) string {
	if !m.Defined {
		return "n/a"
	}
	if m.Value > 0 {
		return "+" + strconv.FormatFloat(m.Value, 'f', 4, 64)
	}
	return strconv.FormatFloat(m.Value, 'f', 4, 64)
}

func correctFlag(correct bool) string {
	if correct {
		return "1"
	}
	return "0"
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
