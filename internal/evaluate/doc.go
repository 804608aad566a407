// Package evaluate measures an entity linker against gold annotations.
//
// Every labelled instance of a dataset is sent to the linker and the
// prediction is classified against the gold links:
//
//	gold link,  same link predicted      correct, correct link
//	gold link,  other link predicted     incorrect, false link
//	gold link,  no link predicted        incorrect
//	gold none,  no link predicted        correct
//	gold none,  link predicted           incorrect, false link
//
// Unlabelled instances are skipped. The resulting counts yield accuracy,
// link recall, link precision and link F1 (see model.Counts).
package evaluate
