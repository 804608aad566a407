package evaluate

import (
	"math"
	"testing"

	"github.com/jlonij/dac-web/internal/model"
)

func record(id int, prediction string, correct bool) model.EvaluationRecord {
	return model.EvaluationRecord{InstanceID: id, Entity: "e", Gold: "g", Prediction: prediction, Correct: correct}
}

func TestCompare(t *testing.T) {
	t.Parallel()

	previous := model.NewEvaluationRun("old", "test")
	previous.Counts = model.Counts{Instances: 4, CorrectInstances: 2, LinkInstances: 3, CorrectLinks: 1, FalseLinks: 1}
	previous.Records = []model.EvaluationRecord{
		record(1, "L1", true),
		record(2, "X", false),
		record(3, "L3", true),
		record(4, "reason a", false),
		record(5, "gone", true),
	}

	current := model.NewEvaluationRun("new", "test")
	current.Counts = model.Counts{Instances: 4, CorrectInstances: 3, LinkInstances: 3, CorrectLinks: 2}
	current.Records = []model.EvaluationRecord{
		record(1, "L1", true),
		record(2, "L2", true),
		record(3, "reason", false),
		record(4, "reason b", false),
		record(6, "new", true),
	}

	c := Compare(previous, current)

	if c.Direction != DirectionImproved {
		t.Errorf("direction = %s, expected improved", c.Direction)
	}
	if !c.Deltas.Accuracy.Defined || math.Abs(c.Deltas.Accuracy.Value-0.25) > 1e-9 {
		t.Errorf("accuracy delta = %v, expected 0.25", c.Deltas.Accuracy)
	}
	if len(c.NewlyCorrect) != 1 || c.NewlyCorrect[0].InstanceID != 2 {
		t.Errorf("newly correct = %+v", c.NewlyCorrect)
	}
	if len(c.NewlyIncorrect) != 1 || c.NewlyIncorrect[0].InstanceID != 3 {
		t.Errorf("newly incorrect = %+v", c.NewlyIncorrect)
	}
	if c.NewlyIncorrect[0].PreviousPrediction != "L3" || c.NewlyIncorrect[0].CurrentPrediction != "reason" {
		t.Errorf("change = %+v", c.NewlyIncorrect[0])
	}
	if c.ChangedPrediction != 1 || c.Unchanged != 1 {
		t.Errorf("changed = %d, unchanged = %d, expected 1 and 1", c.ChangedPrediction, c.Unchanged)
	}
	if c.Added != 1 || c.Removed != 1 {
		t.Errorf("added = %d, removed = %d, expected 1 and 1", c.Added, c.Removed)
	}

	t.Run("undefined metrics give undefined delta", func(t *testing.T) {
		t.Parallel()

		empty := model.NewEvaluationRun("e", "test")
		c := Compare(empty, current)
		if c.Deltas.Accuracy.Defined {
			t.Error("expected undefined delta")
		}
		if c.Direction != DirectionUnchanged {
			t.Errorf("direction = %s, expected unchanged", c.Direction)
		}
	})
}
