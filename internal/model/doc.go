// Package model defines the data structures shared by the annotation and
// evaluation tooling.
//
// This package contains the following main types:
//   - Instance: one mention-in-article record carrying its gold links
//   - Dataset: the ordered, persisted sequence of instances for one split
//   - Article: a contiguous run of instances sharing the same article url
//   - EvaluationRecord, Counts and EvaluationRun: results of an evaluation pass
//
// The error taxonomy used across the repository lives in errors.go so that
// the store, the navigation and mutation engines and the HTTP layer can all
// classify failures with errors.Is without importing each other.
package model
