// Package linker talks to the external services the annotation tooling
// depends on: the entity linker, the named-entity recognizer and the
// article text (OCR) source.
//
// All three are reached with a single HTTP client, which can optionally be
// routed through a SOCKS5 proxy. Responses are JSON except for article
// text, which is returned as OCR XML/HTML and reduced to plain text here.
//
// Client implements evaluate.Linker and annotate.NERProvider.
package linker
