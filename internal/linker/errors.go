package linker

import "errors"

var (
	// ErrInvalidProxyAddress is returned when the proxy address is not host:port.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrUnexpectedStatus is returned when a service answers with a non-2xx status.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrEmptyResult is returned when the linker response holds no linked entity.
	ErrEmptyResult = errors.New("linker returned no result")

	// ErrNotConfigured is returned when a service URL is missing.
	ErrNotConfigured = errors.New("service URL not configured")
)
