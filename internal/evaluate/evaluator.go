package evaluate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jlonij/dac-web/internal/model"
)

// Linker predicts the link for one mention of an article.
type Linker interface {
	Link(ctx context.Context, url, ne string) (model.Prediction, error)
}

// ProgressFunc is called after each evaluated instance with the number of
// instances done and the number to evaluate.
type ProgressFunc func(done, total int)

// Evaluator replays labelled instances through a Linker.
type Evaluator struct {
	// linker produces the predictions being evaluated.
	linker Linker

	// logger is used for structured logging during the run.
	logger *slog.Logger

	// continueOnError records linker failures as no-link predictions
	// instead of aborting the run.
	continueOnError bool

	// progress is notified after every instance, if set.
	progress ProgressFunc
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// WithContinueOnError keeps the run going when the linker fails for an
// instance. The failure is recorded as an incorrect prediction whose value
// is the error message.
func WithContinueOnError(continueOnError bool) Option {
	return func(e *Evaluator) {
		e.continueOnError = continueOnError
	}
}

// WithProgress sets a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Evaluator) {
		e.progress = fn
	}
}

// New creates an Evaluator for linker.
func New(linker Linker, opts ...Option) *Evaluator {
	e := &Evaluator{linker: linker}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Run evaluates every labelled instance of ds in order and fills run with
// the audit records and counts. Instances are evaluated sequentially.
func (e *Evaluator) Run(ctx context.Context, ds *model.Dataset, run *model.EvaluationRun) error {
	start := time.Now()
	total := countLabeled(ds)

	e.logger.Info("evaluation started",
		"dataset", run.Dataset,
		"instances", total,
	)

	for _, inst := range ds.Instances {
		if !inst.Labeled() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		position := run.Counts.Instances
		e.logger.Debug("evaluating instance",
			"position", position,
			"id", inst.ID,
			"ne", inst.NEString,
		)

		pred, err := e.linker.Link(ctx, inst.URL, inst.NEString)
		if err != nil {
			if !e.continueOnError {
				return fmt.Errorf("failed to link instance %d (%s): %w", inst.ID, inst.NEString, err)
			}
			e.logger.Warn("linker failed, recording as no link",
				"id", inst.ID,
				"error", err,
			)
			pred = model.Prediction{Reason: err.Error()}
			run.Failures++
		}

		correct := Classify(inst, pred, &run.Counts)
		run.Records = append(run.Records, model.EvaluationRecord{
			Position:   position,
			InstanceID: inst.ID,
			Entity:     inst.NEString,
			Gold:       inst.GoldValue(),
			Prediction: pred.Value(),
			Correct:    correct,
		})

		if e.progress != nil {
			e.progress(run.Counts.Instances, total)
		}
	}

	run.Duration = time.Since(start)
	e.logger.Info("evaluation completed",
		"dataset", run.Dataset,
		"instances", run.Counts.Instances,
		"correct", run.Counts.CorrectInstances,
		"failures", run.Failures,
		"duration", run.Duration,
	)
	return nil
}

// Classify scores pred against the gold links of inst, updates counts and
// reports whether the prediction is correct.
func Classify(inst model.Instance, pred model.Prediction, counts *model.Counts) bool {
	counts.Instances++

	if inst.ExpectsNoLink() {
		if pred.HasLink() {
			counts.FalseLinks++
			return false
		}
		counts.CorrectInstances++
		return true
	}

	counts.LinkInstances++
	if !pred.HasLink() {
		return false
	}
	if inst.AcceptsLink(pred.Link) {
		counts.CorrectInstances++
		counts.CorrectLinks++
		return true
	}
	counts.FalseLinks++
	return false
}

func countLabeled(ds *model.Dataset) int {
	n := 0
	for _, inst := range ds.Instances {
		if inst.Labeled() {
			n++
		}
	}
	return n
}
