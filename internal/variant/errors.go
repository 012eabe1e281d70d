package variant

import "errors"

var (
	// ErrInvalidCanonical is returned when the canonical origin is not an
	// absolute http or https URL with a host.
	ErrInvalidCanonical = errors.New("canonical origin must be an absolute http(s) URL")

	// ErrInvalidProxyAddress is returned when the proxy address format is invalid.
	// Expected format is "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
)
