// Package dataset persists annotation datasets as JSON files.
//
// Each dataset lives in its own directory under the data directory:
//
//	<data_dir>/<name>/art.json   the persisted dataset
//	<data_dir>/<name>/temp.json  scratch file used during replacement
//
// Writes never modify art.json in place. The new content is written to
// temp.json first, and only when that file exists and its size differs from
// the current file by less than a caller-supplied bound is the original
// removed and the temp file renamed over it. The bound is a crude guard
// against truncated or doubled writes from racing annotators; it does not
// serialize concurrent edits, and the last valid writer wins.
//
// Store also offers version-checked writes (CompareAndSwap) keyed on a
// SHA3-256 digest of the persisted bytes, for callers that want concurrent
// edits reported as conflicts instead of silently overwritten.
package dataset
