// Package database provides SQLite-based storage for evaluation history.
//
// Every evaluation run can be saved with its counts and its per-instance
// records, so that later runs of the linker can be compared against
// earlier ones (see the compare command).
//
// SQLite via modernc.org/sqlite keeps the history in a single CGO-free file
// under the XDG data directory.
package database
