package model

import "errors"

// Error taxonomy shared by the dataset store, navigation, annotation and
// evaluation packages. Callers wrap these with context using fmt.Errorf and
// test for them with errors.Is.
var (
	// ErrNotFound is returned when a dataset, instance id, index or url is missing.
	// A dataset file that exists but cannot be parsed is also reported as not found.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when an add would violate the uniqueness of an
	// article or mention within a dataset or across sibling datasets.
	ErrDuplicate = errors.New("already in data set")

	// ErrNoEntities is returned when the NER provider finds nothing in an article.
	ErrNoEntities = errors.New("no entities found for article")

	// ErrSave is returned when the replacement write fails its sanity check.
	// The persisted dataset is left untouched.
	ErrSave = errors.New("error saving data")

	// ErrConflict is returned by version-checked writes when the persisted
	// dataset changed since it was loaded.
	ErrConflict = errors.New("dataset modified concurrently")

	// ErrUndefinedMetric is returned when a metric has a zero denominator.
	ErrUndefinedMetric = errors.New("undefined metric")

	// ErrUnknownAction is returned for a navigation action that is not recognised.
	ErrUnknownAction = errors.New("unknown navigation action")
)
