// Package config provides configuration structures and utilities for dacweb.
// It defines where datasets live, how the linker and NER services are
// reached, the HTTP server settings and the rules that keep articles
// exclusive across sibling datasets.
package config
