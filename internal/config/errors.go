package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoDataDir is returned when no data directory is configured.
	ErrNoDataDir = errors.New("no data directory specified")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxDelta is returned when a write size bound is not positive.
	// A zero bound would reject every write.
	ErrInvalidMaxDelta = errors.New("invalid max delta: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidExclusivityRule is returned for a rule without siblings or a
	// prefix listed twice.
	ErrInvalidExclusivityRule = errors.New("invalid exclusivity rule")
)
