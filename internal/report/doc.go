// Package report renders evaluation runs and run comparisons.
//
// Writers for the supported formats:
//   - ResultsWriter: the tab-delimited per-instance results file
//   - SimpleWriter: the plain text metric summary for terminals
//   - MarkdownWriter: a Markdown summary with tables and a pie chart
//   - JSONWriter: structured JSON for tooling
//
// All writers implement Writer and can be combined with MultiWriter.
package report
