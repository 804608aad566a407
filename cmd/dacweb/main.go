// Package main provides the entry point for the dacweb CLI.
//
// dacweb serves the annotation interface for entity linking datasets and
// evaluates the linker against their gold labels.
//
// Usage:
//
//	dacweb serve
//	dacweb evaluate <dataset>
//	dacweb compare <dataset>
//
// See --help for all available options.
package main

func main() {
	Execute()
}
