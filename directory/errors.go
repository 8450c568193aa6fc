package directory

import "errors"

var (
	// ErrNotFound is returned by Lookup when no service exists at path
	// and the loader declines to spawn one; the handshake turns this
	// into a 404.
	ErrNotFound = errors.New("directory: service not found")

	// ErrNoLoader is returned when a Directory was constructed without
	// a Loader and a Lookup misses the cache.
	ErrNoLoader = errors.New("directory: no loader configured")

	// ErrEmptyPath is returned by Lookup (and by loaders) when given a
	// zero-length path; the directory has nothing to key a service
	// record on.
	ErrEmptyPath = errors.New("directory: empty path")
)
