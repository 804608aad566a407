package report

import (
	"encoding/json"
	"io"

	"github.com/jlonij/dac-web/internal/evaluate"
	"github.com/jlonij/dac-web/internal/model"
)

// JSONWriter outputs runs and comparisons as JSON.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string

	// version is recorded in run reports when set.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables indented output with the given prefix and indent.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion records the tool version in run reports.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// JSONReport wraps a run with its derived metrics.
type JSONReport struct {
	Version string               `json:"version,omitempty"`
	Run     *model.EvaluationRun `json:"run"`
	Metrics model.Metrics        `json:"metrics"`
}

// NewJSONReport creates a JSONReport for the run.
func NewJSONReport(run *model.EvaluationRun, version string) *JSONReport {
	return &JSONReport{
		Version: version,
		Run:     run,
		Metrics: run.Counts.Metrics(),
	}
}

// Write outputs the run wrapped with its metrics.
func (w *JSONWriter) Write(run *model.EvaluationRun) (int, error) {
	return w.writeJSON(NewJSONReport(run, w.version))
}

// WriteComparison outputs the comparison as JSON.
func (w *JSONWriter) WriteComparison(cmp *evaluate.Comparison) (int, error) {
	return w.writeJSON(cmp)
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
