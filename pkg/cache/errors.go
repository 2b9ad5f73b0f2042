package cache

import "errors"

// Sentinel errors for caching operations.
var (
	// ErrBackend is returned when the cache backend cannot be reached.
	ErrBackend = errors.New("cache backend unavailable")

	// ErrUnknownBackend is returned by Open for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown cache backend")
)
