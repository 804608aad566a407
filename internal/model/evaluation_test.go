package model

import (
	"errors"
	"math"
	"testing"
)

func TestCountsMetrics(t *testing.T) {
	t.Parallel()

	t.Run("mixed outcome", func(t *testing.T) {
		t.Parallel()

		// Two exact link matches, one missed link, one correct no-link.
		c := Counts{Instances: 4, CorrectInstances: 3, LinkInstances: 3, CorrectLinks: 2}

		checks := []struct {
			name string
			fn   func() (float64, error)
			want float64
		}{
			{"accuracy", c.Accuracy, 0.75},
			{"recall", c.Recall, 2.0 / 3.0},
			{"precision", c.Precision, 1.0},
			{"f1", c.F1, 0.8},
		}
		for _, check := range checks {
			got, err := check.fn()
			if err != nil {
				t.Fatalf("%s: unexpected error: %v", check.name, err)
			}
			if math.Abs(got-check.want) > 1e-9 {
				t.Errorf("%s = %f, expected %f", check.name, got, check.want)
			}
		}
	})

	t.Run("zero denominators are undefined", func(t *testing.T) {
		t.Parallel()

		var c Counts
		for name, fn := range map[string]func() (float64, error){
			"accuracy":  c.Accuracy,
			"recall":    c.Recall,
			"precision": c.Precision,
			"f1":        c.F1,
		} {
			if _, err := fn(); !errors.Is(err, ErrUndefinedMetric) {
				t.Errorf("%s: expected ErrUndefinedMetric, got %v", name, err)
			}
		}
	})

	t.Run("f1 undefined when precision and recall are zero", func(t *testing.T) {
		t.Parallel()

		c := Counts{Instances: 1, LinkInstances: 1, FalseLinks: 1}
		if _, err := c.F1(); !errors.Is(err, ErrUndefinedMetric) {
			t.Errorf("expected ErrUndefinedMetric, got %v", err)
		}
	})

	t.Run("metrics marks undefined values", func(t *testing.T) {
		t.Parallel()

		m := Counts{Instances: 2, CorrectInstances: 2}.Metrics()
		if !m.Accuracy.Defined || m.Accuracy.Value != 1 {
			t.Errorf("accuracy = %+v, expected defined 1", m.Accuracy)
		}
		if m.Recall.Defined || m.Recall.String() != "undefined" {
			t.Errorf("recall = %+v, expected undefined", m.Recall)
		}
	})
}

func TestPredictionValue(t *testing.T) {
	t.Parallel()

	if got := (Prediction{Link: "http://a", Reason: "x"}).Value(); got != "http://a" {
		t.Errorf("Value() = %q, expected link", got)
	}
	if got := (Prediction{Reason: "No candidates found"}).Value(); got != "No candidates found" {
		t.Errorf("Value() = %q, expected reason", got)
	}
}
