package glob

import "github.com/bmatcuk/doublestar/v4"

// Doublestar matches with github.com/bmatcuk/doublestar/v4.
type Doublestar struct{}

// Match reports whether path matches pattern. Malformed patterns never match.
func (Doublestar) Match(pattern, path string) bool {
	matched, err := doublestar.Match(pattern, path)
	return err == nil && matched
}

// Ensure Doublestar implements Matcher.
var _ Matcher = Doublestar{}
