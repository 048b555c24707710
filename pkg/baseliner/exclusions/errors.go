package exclusions

import "errors"

// Sentinel errors for exclusion loading and index access.
var (
	// ErrFormat indicates a baseline line that cannot be parsed into a
	// pattern and suffixes.
	ErrFormat = errors.New("malformed exclusion")
	// ErrPath indicates a baseline or import path that is not absolute and clean.
	ErrPath = errors.New("baseline path must be absolute and clean")
	// ErrNotFound indicates a baseline or import file that does not exist.
	ErrNotFound = errors.New("baseline file not found")
	// ErrUsage indicates an API misuse, such as suffix lookups on an index
	// that does not track suffixes.
	ErrUsage = errors.New("invalid exclusions usage")
)
