package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jlonij/dac-web/internal/evaluate"
	"github.com/jlonij/dac-web/internal/model"
)

// createTestRun returns a run over four instances: three links and one
// "none", with one link missed.
func createTestRun() *model.EvaluationRun {
	run := model.NewEvaluationRun("run-1", "test")
	run.StartedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	run.Duration = 1500 * time.Millisecond
	run.Counts = model.Counts{Instances: 4, CorrectInstances: 3, LinkInstances: 3, CorrectLinks: 2}
	run.Records = []model.EvaluationRecord{
		{Position: 0, InstanceID: 10, Entity: "Amsterdam", Gold: "http://x/A", Prediction: "http://x/A", Correct: true},
		{Position: 1, InstanceID: 11, Entity: "Rotterdam", Gold: "http://x/R", Prediction: "http://x/R", Correct: true},
		{Position: 2, InstanceID: 13, Entity: "Jan", Gold: "none", Prediction: "Not a person", Correct: true},
		{Position: 3, InstanceID: 14, Entity: "Pietersen", Gold: "http://x/P", Prediction: "No candidates", Correct: false},
	}
	return run
}

func createTestComparison() *evaluate.Comparison {
	previous := createTestRun()
	previous.ID = "run-0"
	previous.Records[3].Correct = true
	previous.Records[3].Prediction = "http://x/P"
	previous.Records[0].Correct = false
	previous.Records[0].Prediction = "http://x/B"
	return evaluate.Compare(previous, createTestRun())
}

func TestFormatRatio(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   model.Metric
		want string
	}{
		{model.Metric{Value: 0.75, Defined: true}, "0.75"},
		{model.Metric{Value: 1, Defined: true}, "1.0"},
		{model.Metric{Value: 0, Defined: true}, "0.0"},
		{model.Metric{Value: 2.0 / 3.0, Defined: true}, "0.6666666666666666"},
		{model.Metric{}, "undefined"},
	}
	for _, tt := range tests {
		if got := FormatRatio(tt.in); got != tt.want {
			t.Errorf("FormatRatio(%v) = %q, expected %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDelta(t *testing.T) {
	t.Parallel()

	if got := FormatDelta(model.Metric{Value: 0.25, Defined: true}); got != "+0.2500" {
		t.Errorf("got %q", got)
	}
	if got := FormatDelta(model.Metric{Value: -0.1, Defined: true}); got != "-0.1000" {
		t.Errorf("got %q", got)
	}
	if got := FormatDelta(model.Metric{}); got != "n/a" {
		t.Errorf("got %q", got)
	}
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("prints the metric summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
		want := []string{
			"---",
			"Number of instances: 4",
			"Number of correct predictions: 3",
			"Prediction accuracy: 0.75",
			"---",
			"Number of link instances: 3",
			"Number of correct link predictions: 2",
			"Link recall: 0.6666666666666666",
			"---",
			"Number of correct link predictions: 2",
			"Number of link predictions: 2",
			"Link precision: 1.0",
			"---",
		}
		if len(lines) != len(want)+2 {
			t.Fatalf("got %d lines, expected %d:\n%s", len(lines), len(want)+2, buf.String())
		}
		for i, w := range want {
			if lines[i] != w {
				t.Errorf("line %d = %q, expected %q", i, lines[i], w)
			}
		}
		if !strings.HasPrefix(lines[len(want)], "Link F1-measure: 0.") {
			t.Errorf("unexpected F1 line %q", lines[len(want)])
		}
		if lines[len(want)+1] != "---" {
			t.Errorf("expected closing rule, got %q", lines[len(want)+1])
		}
	})

	t.Run("marks undefined metrics", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		run := model.NewEvaluationRun("empty", "test")
		if _, err := NewSimpleWriter(&buf).Write(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "Prediction accuracy: undefined") {
			t.Errorf("expected undefined accuracy, got:\n%s", buf.String())
		}
	})

	t.Run("prints run info and failures", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		run := createTestRun()
		run.Failures = 2
		if _, err := NewSimpleWriter(&buf, WithRunInfo(true)).Write(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()
		for _, s := range []string{"Dataset:  test", "Run:      run-1", "Linker failures recorded: 2"} {
			if !strings.Contains(out, s) {
				t.Errorf("expected output to contain %q", s)
			}
		}
	})

	t.Run("writes comparison", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteComparison(createTestComparison()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()
		for _, s := range []string{"Run Comparison: test", "Status: UNCHANGED", "Newly Correct (1):", "Newly Incorrect (1):", "[-] 14 Pietersen"} {
			if !strings.Contains(out, s) {
				t.Errorf("expected output to contain %q:\n%s", s, out)
			}
		}
	})
}

func TestResultsWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewResultsWriter(&buf).Write(createTestRun()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := csv.NewReader(&buf)
	r.Comma = '\t'
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatalf("results are not valid TSV: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected header and 4 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != "Id,Entity,Link,Prediction,Correct" {
		t.Errorf("unexpected header %v", rows[0])
	}
	if strings.Join(rows[3], ",") != "2,Jan,none,Not a person,1" {
		t.Errorf("unexpected row %v", rows[3])
	}
	if rows[4][4] != "0" {
		t.Errorf("expected incorrect flag, got %q", rows[4][4])
	}
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes run report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()
		for _, s := range []string{"# Evaluation Report", "## Metrics", "0.7500", "```mermaid", "## Incorrect Predictions", "Pietersen"} {
			if !strings.Contains(out, s) {
				t.Errorf("expected output to contain %q", s)
			}
		}
		if strings.Contains(out, "| 0 | Amsterdam") {
			t.Error("correct records must not be listed as incorrect")
		}
	})

	t.Run("writes comparison", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteComparison(createTestComparison()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()
		for _, s := range []string{"# Run Comparison: test", "Newly Correct (1)", "Newly Incorrect (1)"} {
			if !strings.Contains(out, s) {
				t.Errorf("expected output to contain %q", s)
			}
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("wraps run with metrics", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint(), WithVersion("1.2.3")).Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got JSONReport
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got.Version != "1.2.3" || got.Run.ID != "run-1" {
			t.Errorf("unexpected report header: %+v", got)
		}
		if !got.Metrics.Accuracy.Defined || got.Metrics.Accuracy.Value != 0.75 {
			t.Errorf("unexpected accuracy %+v", got.Metrics.Accuracy)
		}
		if !strings.Contains(buf.String(), "\n  \"") {
			t.Error("expected indented output")
		}
	})

	t.Run("compact comparison", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteComparison(createTestComparison()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Count(buf.String(), "\n") != 1 {
			t.Error("expected single-line output")
		}
		var got evaluate.Comparison
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(got.NewlyIncorrect) != 1 || got.NewlyIncorrect[0].InstanceID != 14 {
			t.Errorf("unexpected newly incorrect %+v", got.NewlyIncorrect)
		}
	})
}

type failingWriter struct{}

func (failingWriter) Write(*model.EvaluationRun) (int, error) { return 0, errors.New("boom") }
func (failingWriter) WriteComparison(*evaluate.Comparison) (int, error) {
	return 0, errors.New("boom")
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all", func(t *testing.T) {
		t.Parallel()

		var a, b bytes.Buffer
		m := NewMultiWriter(NewSimpleWriter(&a), NewResultsWriter(&b))
		n, err := m.Write(createTestRun())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != a.Len()+b.Len() {
			t.Errorf("n = %d, expected %d", n, a.Len()+b.Len())
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		m := NewMultiWriter(failingWriter{}, NewSimpleWriter(&buf))
		if _, err := m.WriteComparison(createTestComparison()); err == nil {
			t.Fatal("expected error")
		}
		if buf.Len() != 0 {
			t.Error("expected later writers to be skipped")
		}
	})
}
