package evaluate

import (
	"cmp"
	"slices"
	"time"

	"github.com/jlonij/dac-web/internal/model"
)

// Directions of change between two runs.
const (
	DirectionImproved  = "improved"
	DirectionWorsened  = "worsened"
	DirectionUnchanged = "unchanged"
)

// Comparison describes how a linker's results changed between two runs.
type Comparison struct {
	// Dataset is the evaluated dataset.
	Dataset string `json:"dataset"`

	// Previous and Current summarize the compared runs.
	Previous RunSummary `json:"previous_run"`
	Current  RunSummary `json:"current_run"`

	// Deltas are current minus previous for each metric.
	Deltas MetricDeltas `json:"deltas"`

	// Direction is improved, worsened or unchanged, judged on accuracy.
	Direction string `json:"direction"`

	// NewlyCorrect lists instances that were wrong and are now right.
	NewlyCorrect []InstanceChange `json:"newly_correct,omitempty"`

	// NewlyIncorrect lists instances that were right and are now wrong.
	NewlyIncorrect []InstanceChange `json:"newly_incorrect,omitempty"`

	// ChangedPrediction counts instances whose prediction changed without
	// changing correctness.
	ChangedPrediction int `json:"changed_prediction"`

	// Unchanged counts instances with the same prediction in both runs.
	Unchanged int `json:"unchanged"`

	// Added and Removed count instances evaluated in only one of the runs.
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// RunSummary identifies a run and its scores.
type RunSummary struct {
	ID        string        `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	Counts    model.Counts  `json:"counts"`
	Metrics   model.Metrics `json:"metrics"`
}

// MetricDeltas holds the change of each metric.
type MetricDeltas struct {
	Accuracy  model.Metric `json:"accuracy"`
	Recall    model.Metric `json:"link_recall"`
	Precision model.Metric `json:"link_precision"`
	F1        model.Metric `json:"link_f1"`
}

// InstanceChange is one instance whose correctness flipped.
type InstanceChange struct {
	InstanceID         int    `json:"instance_id"`
	Entity             string `json:"entity"`
	Gold               string `json:"gold"`
	PreviousPrediction string `json:"previous_prediction"`
	CurrentPrediction  string `json:"current_prediction"`
}

// Compare compares two runs of the same dataset. Records are matched by
// instance id, so runs over a grown or relabelled dataset still line up.
func Compare(previous, current *model.EvaluationRun) *Comparison {
	result := &Comparison{
		Dataset:  current.Dataset,
		Previous: summarize(previous),
		Current:  summarize(current),
	}

	result.Deltas = MetricDeltas{
		Accuracy:  delta(result.Previous.Metrics.Accuracy, result.Current.Metrics.Accuracy),
		Recall:    delta(result.Previous.Metrics.Recall, result.Current.Metrics.Recall),
		Precision: delta(result.Previous.Metrics.Precision, result.Current.Metrics.Precision),
		F1:        delta(result.Previous.Metrics.F1, result.Current.Metrics.F1),
	}

	switch d := result.Deltas.Accuracy; {
	case d.Defined && d.Value > 0:
		result.Direction = DirectionImproved
	case d.Defined && d.Value < 0:
		result.Direction = DirectionWorsened
	default:
		result.Direction = DirectionUnchanged
	}

	prev := make(map[int]model.EvaluationRecord, len(previous.Records))
	for _, r := range previous.Records {
		prev[r.InstanceID] = r
	}

	seen := make(map[int]bool, len(current.Records))
	for _, cur := range current.Records {
		seen[cur.InstanceID] = true
		old, ok := prev[cur.InstanceID]
		if !ok {
			result.Added++
			continue
		}

		change := InstanceChange{
			InstanceID:         cur.InstanceID,
			Entity:             cur.Entity,
			Gold:               cur.Gold,
			PreviousPrediction: old.Prediction,
			CurrentPrediction:  cur.Prediction,
		}
		switch {
		case !old.Correct && cur.Correct:
			result.NewlyCorrect = append(result.NewlyCorrect, change)
		case old.Correct && !cur.Correct:
			result.NewlyIncorrect = append(result.NewlyIncorrect, change)
		case old.Prediction != cur.Prediction:
			result.ChangedPrediction++
		default:
			result.Unchanged++
		}
	}
	for id := range prev {
		if !seen[id] {
			result.Removed++
		}
	}

	byID := func(a, b InstanceChange) int { return cmp.Compare(a.InstanceID, b.InstanceID) }
	slices.SortFunc(result.NewlyCorrect, byID)
	slices.SortFunc(result.NewlyIncorrect, byID)

	return result
}

func summarize(run *model.EvaluationRun) RunSummary {
	return RunSummary{
		ID:        run.ID,
		StartedAt: run.StartedAt,
		Counts:    run.Counts,
		Metrics:   run.Counts.Metrics(),
	}
}

func delta(previous, current model.Metric) model.Metric {
	if !previous.Defined || !current.Defined {
		return model.Metric{}
	}
	return model.Metric{Value: current.Value - previous.Value, Defined: true}
}
