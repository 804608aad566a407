package model

import (
	"fmt"
	"time"
)

// Prediction is the linker's answer for one mention.
type Prediction struct {
	// Link is the predicted link; empty when the linker declined to link.
	Link string `json:"link,omitempty"`

	// Reason explains why no link was predicted.
	Reason string `json:"reason,omitempty"`

	// Candidates are the alternatives the linker considered, if requested.
	Candidates []Candidate `json:"candidates,omitempty"`
}

// HasLink reports whether the prediction carries a link.
func (p Prediction) HasLink() bool {
	return p.Link != ""
}

// Value returns the link, or the no-link reason when there is no link.
func (p Prediction) Value() string {
	if p.HasLink() {
		return p.Link
	}
	return p.Reason
}

// Candidate is a possible resolution target offered to annotators.
type Candidate struct {
	ID          string  `json:"id"`
	Label       string  `json:"label,omitempty"`
	Probability float64 `json:"prob,omitempty"`
}

// EvaluationRecord is the audit row for one evaluated instance.
type EvaluationRecord struct {
	// Position is the ordinal of the record among evaluated instances.
	Position int `json:"position"`

	// InstanceID is the dataset id of the evaluated instance.
	InstanceID int `json:"instance_id"`

	// Entity is the mention text.
	Entity string `json:"entity"`

	// Gold is the gold value as rendered by Instance.GoldValue.
	Gold string `json:"gold"`

	// Prediction is the predicted link or the reason no link was given.
	Prediction string `json:"prediction"`

	// Correct is the binary correctness of the prediction.
	Correct bool `json:"correct"`
}

// Counts are the confusion counts aggregated over an evaluation pass.
type Counts struct {
	// Instances is the number of evaluated (gold-labelled) instances.
	Instances int `json:"instances"`

	// CorrectInstances counts instances whose prediction was correct.
	CorrectInstances int `json:"correct_instances"`

	// LinkInstances counts instances whose gold value is a link.
	LinkInstances int `json:"link_instances"`

	// CorrectLinks counts link instances predicted with the right link.
	CorrectLinks int `json:"correct_links"`

	// FalseLinks counts predicted links that were wrong or not expected.
	FalseLinks int `json:"false_links"`
}

// PredictedLinks is the number of links the linker produced that were scored.
func (c Counts) PredictedLinks() int {
	return c.CorrectLinks + c.FalseLinks
}

// Accuracy is the share of correctly predicted instances.
func (c Counts) Accuracy() (float64, error) {
	return ratio("accuracy", c.CorrectInstances, c.Instances)
}

// Recall is the share of link instances predicted with the right link.
func (c Counts) Recall() (float64, error) {
	return ratio("link recall", c.CorrectLinks, c.LinkInstances)
}

// Precision is the share of predicted links that were correct.
func (c Counts) Precision() (float64, error) {
	return ratio("link precision", c.CorrectLinks, c.PredictedLinks())
}

// F1 is the harmonic mean of link precision and recall.
func (c Counts) F1() (float64, error) {
	p, err := c.Precision()
	if err != nil {
		return 0, err
	}
	r, err := c.Recall()
	if err != nil {
		return 0, err
	}
	if p+r == 0 {
		return 0, fmt.Errorf("%w: link F1-measure (precision and recall are both zero)", ErrUndefinedMetric)
	}
	return 2 * p * r / (p + r), nil
}

func ratio(name string, num, den int) (float64, error) {
	if den == 0 {
		return 0, fmt.Errorf("%w: %s (zero denominator)", ErrUndefinedMetric, name)
	}
	return float64(num) / float64(den), nil
}

// Metric is a computed metric value that may be undefined.
type Metric struct {
	Value   float64 `json:"value"`
	Defined bool    `json:"defined"`
}

// String formats the metric, or "undefined" when it has no value.
func (m Metric) String() string {
	if !m.Defined {
		return "undefined"
	}
	return fmt.Sprintf("%.4f", m.Value)
}

func metricOf(v float64, err error) Metric {
	if err != nil {
		return Metric{}
	}
	return Metric{Value: v, Defined: true}
}

// Metrics are the summary metrics derived from Counts.
type Metrics struct {
	Accuracy  Metric `json:"accuracy"`
	Recall    Metric `json:"link_recall"`
	Precision Metric `json:"link_precision"`
	F1        Metric `json:"link_f1"`
}

// Metrics computes all summary metrics, marking undefined ones instead of failing.
func (c Counts) Metrics() Metrics {
	return Metrics{
		Accuracy:  metricOf(c.Accuracy()),
		Recall:    metricOf(c.Recall()),
		Precision: metricOf(c.Precision()),
		F1:        metricOf(c.F1()),
	}
}

// EvaluationRun is the complete result of one evaluation pass.
type EvaluationRun struct {
	// ID identifies the run in the history database.
	ID string `json:"id"`

	// Dataset is the name of the evaluated dataset.
	Dataset string `json:"dataset"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Duration is how long the run took.
	Duration time.Duration `json:"duration"`

	// Counts are the aggregated confusion counts.
	Counts Counts `json:"counts"`

	// Records are the per-instance audit rows in evaluation order.
	Records []EvaluationRecord `json:"records"`

	// Failures counts linker errors recorded instead of aborting the run.
	Failures int `json:"failures,omitempty"`
}

// NewEvaluationRun creates an empty run for the named dataset.
func NewEvaluationRun(id, dataset string) *EvaluationRun {
	return &EvaluationRun{
		ID:        id,
		Dataset:   dataset,
		StartedAt: time.Now(),
		Records:   make([]EvaluationRecord, 0),
	}
}
