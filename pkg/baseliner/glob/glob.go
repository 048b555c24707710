// Package glob provides the path-matching capability used by baseline
// exclusions. A Matcher answers whether a slash-separated path matches a glob
// pattern; the dialect decides what the pattern syntax means.
//
// Two dialects are available:
//   - gobwas: github.com/gobwas/glob compiled with '/' as separator, so "*"
//     stays within one path segment and "**" crosses segments.
//   - doublestar: github.com/bmatcuk/doublestar/v4, where "**/" also matches
//     zero leading directories.
//
// Invalid patterns never match; they are not an error at query time.
package glob

import (
	"errors"
	"fmt"
	"strings"
)

// Matcher reports whether path matches pattern.
type Matcher interface {
	Match(pattern, path string) bool
}

// MatcherFunc adapts an ordinary function to the Matcher interface.
type MatcherFunc func(pattern, path string) bool

// Match calls f(pattern, path).
func (f MatcherFunc) Match(pattern, path string) bool {
	return f(pattern, path)
}

// Dialect names a glob syntax.
type Dialect string

const (
	// DialectGobwas selects github.com/gobwas/glob.
	DialectGobwas Dialect = "gobwas"
	// DialectDoublestar selects github.com/bmatcuk/doublestar/v4.
	DialectDoublestar Dialect = "doublestar"
)

// DefaultCacheSize is the number of compiled patterns kept by the gobwas matcher.
const DefaultCacheSize = 1024

// ErrUnknownDialect indicates that a dialect name could not be parsed.
var ErrUnknownDialect = errors.New("unknown glob dialect")

// ParseDialect parses a dialect name (case-insensitive). Empty selects gobwas.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(DialectGobwas):
		return DialectGobwas, nil
	case string(DialectDoublestar):
		return DialectDoublestar, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDialect, s)
	}
}

// New returns a Matcher for the given dialect.
// cacheSize only applies to dialects that compile patterns; values <= 0 use
// DefaultCacheSize.
func New(d Dialect, cacheSize int) (Matcher, error) {
	switch d {
	case DialectGobwas, "":
		return NewGobwas(cacheSize)
	case DialectDoublestar:
		return Doublestar{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, string(d))
	}
}

// Default returns the gobwas matcher with the default cache size.
func Default() Matcher {
	m, err := NewGobwas(DefaultCacheSize)
	if err != nil {
		// lru.New only fails for non-positive sizes.
		panic(err)
	}
	return m
}
