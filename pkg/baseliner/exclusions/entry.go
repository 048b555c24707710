package exclusions

import (
	"fmt"
	"strings"

	"github.com/jamesainslie/baseliner/pkg/baseliner/glob"
)

// Suffix is an optional scope tag. The zero value is NoSuffix, which means
// "applies regardless of scope" and cannot collide with any declared name.
type Suffix struct {
	Name  string
	Valid bool
}

// NoSuffix is the absent suffix.
var NoSuffix = Suffix{}

// Named returns the suffix with the given name.
func Named(name string) Suffix {
	return Suffix{Name: name, Valid: true}
}

// SuffixOf converts a query string to a Suffix. Empty means NoSuffix.
func SuffixOf(name string) Suffix {
	if name == "" {
		return NoSuffix
	}
	return Named(name)
}

// String returns the suffix name, or "<none>" for NoSuffix.
func (s Suffix) String() string {
	if !s.Valid {
		return "<none>"
	}
	return s.Name
}

// Entry is one exclusion: a glob pattern and the suffixes it applies to.
//
// The suffix set only shrinks, through RemoveSuffix. The declared suffixes
// are kept separately so callers can tell what was removed.
type Entry struct {
	pattern  string
	declared []Suffix
	suffixes map[Suffix]struct{}
	line     int
}

// ParseEntry parses a baseline line of the form
//
//	pattern[|suffix[,suffix...]][# comment]
//
// Text after the first '#' is dropped. Without a '|' the entry applies to
// NoSuffix. An empty pattern or an empty suffix name is an ErrFormat.
func ParseEntry(line string) (*Entry, error) {
	body, _, _ := strings.Cut(line, "#")
	rawPattern, rawSuffixes, scoped := strings.Cut(body, "|")

	pattern := strings.TrimSpace(rawPattern)
	if pattern == "" {
		return nil, fmt.Errorf("%w: empty pattern in %q", ErrFormat, line)
	}

	if !scoped {
		return newEntry(pattern, []Suffix{NoSuffix}), nil
	}

	parts := strings.Split(rawSuffixes, ",")
	suffixes := make([]Suffix, 0, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" {
			return nil, fmt.Errorf("%w: empty suffix in %q", ErrFormat, line)
		}
		suffixes = append(suffixes, Named(name))
	}

	return newEntry(pattern, suffixes), nil
}

// NewEntry builds an entry from a pattern and suffix names.
// With no names the entry applies to NoSuffix.
func NewEntry(pattern string, suffixes ...string) (*Entry, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrFormat)
	}
	if len(suffixes) == 0 {
		return newEntry(pattern, []Suffix{NoSuffix}), nil
	}

	declared := make([]Suffix, 0, len(suffixes))
	for _, name := range suffixes {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("%w: empty suffix for %q", ErrFormat, pattern)
		}
		declared = append(declared, Named(name))
	}
	return newEntry(pattern, declared), nil
}

func newEntry(pattern string, declared []Suffix) *Entry {
	e := &Entry{
		pattern:  pattern,
		declared: make([]Suffix, 0, len(declared)),
		suffixes: make(map[Suffix]struct{}, len(declared)),
	}
	for _, s := range declared {
		if _, dup := e.suffixes[s]; dup {
			continue
		}
		e.suffixes[s] = struct{}{}
		e.declared = append(e.declared, s)
	}
	return e
}

// Clone returns a copy whose suffix set can be mutated independently.
func (e *Entry) Clone() *Entry {
	c := &Entry{
		pattern:  e.pattern,
		declared: append([]Suffix(nil), e.declared...),
		suffixes: make(map[Suffix]struct{}, len(e.suffixes)),
		line:     e.line,
	}
	for s := range e.suffixes {
		c.suffixes[s] = struct{}{}
	}
	return c
}

// unscoped returns a copy that applies to NoSuffix only.
func (e *Entry) unscoped() *Entry {
	c := newEntry(e.pattern, []Suffix{NoSuffix})
	c.line = e.line
	return c
}

// Pattern returns the glob pattern.
func (e *Entry) Pattern() string {
	return e.pattern
}

// Line returns the 1-based line the entry was declared on, or 0 when the
// entry was not loaded from a file.
func (e *Entry) Line() int {
	return e.line
}

// Matches reports whether the entry applies to suffix s and its pattern
// matches path.
func (e *Entry) Matches(m glob.Matcher, path string, s Suffix) bool {
	if !e.HasSuffix(s) {
		return false
	}
	return m.Match(e.pattern, path)
}

// HasSuffix reports whether s is still in the suffix set.
func (e *Entry) HasSuffix(s Suffix) bool {
	_, ok := e.suffixes[s]
	return ok
}

// RemoveSuffix discards s from the suffix set. Absent suffixes are ignored.
func (e *Entry) RemoveSuffix(s Suffix) {
	delete(e.suffixes, s)
}

// Empty reports whether every suffix has been removed.
func (e *Entry) Empty() bool {
	return len(e.suffixes) == 0
}

// Untouched reports whether no declared suffix has been removed.
func (e *Entry) Untouched() bool {
	return len(e.suffixes) == len(e.declared)
}

// Scoped reports whether the entry was declared with explicit suffixes.
func (e *Entry) Scoped() bool {
	for _, s := range e.declared {
		if s.Valid {
			return true
		}
	}
	return false
}

// Suffixes returns the remaining suffixes in declaration order.
func (e *Entry) Suffixes() []Suffix {
	out := make([]Suffix, 0, len(e.suffixes))
	for _, s := range e.declared {
		if e.HasSuffix(s) {
			out = append(out, s)
		}
	}
	return out
}

// Declared returns the suffixes the entry was created with.
func (e *Entry) Declared() []Suffix {
	return append([]Suffix(nil), e.declared...)
}

// Removed returns the declared suffixes that are no longer present.
func (e *Entry) Removed() []Suffix {
	var out []Suffix
	for _, s := range e.declared {
		if !e.HasSuffix(s) {
			out = append(out, s)
		}
	}
	return out
}

// Equal reports whether both entries have the same pattern and the same
// remaining suffix set, ignoring order.
func (e *Entry) Equal(other *Entry) bool {
	if e == nil || other == nil {
		return e == other
	}
	if e.pattern != other.pattern || len(e.suffixes) != len(other.suffixes) {
		return false
	}
	for s := range e.suffixes {
		if !other.HasSuffix(s) {
			return false
		}
	}
	return true
}

// String renders the entry in baseline syntax using its remaining suffixes.
func (e *Entry) String() string {
	names := suffixNames(e.Suffixes())
	if len(names) == 0 {
		return e.pattern
	}
	return e.pattern + "|" + strings.Join(names, ",")
}

// suffixNames returns the names of the named suffixes, skipping NoSuffix.
// It returns nil when there are none.
func suffixNames(suffixes []Suffix) []string {
	var names []string
	for _, s := range suffixes {
		if s.Valid {
			names = append(names, s.Name)
		}
	}
	return names
}
