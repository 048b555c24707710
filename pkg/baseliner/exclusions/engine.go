package exclusions

import (
	"github.com/spf13/afero"

	"github.com/jamesainslie/baseliner/pkg/baseliner/glob"
)

// Engine answers exclusion queries against a loaded baseline and records
// which entries were used.
//
// The "all" index never changes after New. The "unused" index starts as a
// deep copy and loses a suffix every time a query matches it; whatever is
// left after a run is the stale part of the baseline.
//
// An Engine is not safe for concurrent use. Callers serialize queries.
type Engine struct {
	source  string
	fs      afero.Fs
	matcher glob.Matcher
	opts    options

	all    Index
	unused Index

	queries int
	hits    int
}

// Stats summarizes an engine's baseline and the queries it has answered.
type Stats struct {
	// Files is the number of baseline files that declared entries.
	Files int
	// Entries is the number of loaded entries.
	Entries int
	// Used is the number of entries whose every suffix was matched.
	Used int
	// Partial is the number of entries matched for some suffixes only.
	Partial int
	// Unused is the number of entries never matched.
	Unused int
	// Queries is the number of IsExcluded calls.
	Queries int
	// Hits is the number of queries that reported an exclusion.
	Hits int
}

// UnusedEntry describes an entry that still has unmatched suffixes.
type UnusedEntry struct {
	File    string `json:"file" yaml:"file"`
	Pattern string `json:"pattern" yaml:"pattern"`
	Line    int    `json:"line" yaml:"line"`
	// Suffixes lists the unmatched suffix names. It is empty for entries
	// that apply regardless of suffix.
	Suffixes []string `json:"suffixes,omitempty" yaml:"suffixes,omitempty"`
	// Whole is true when no suffix of the entry was ever matched.
	Whole bool `json:"whole" yaml:"whole"`
}

// New loads the baseline at path and returns an engine over it.
func New(path string, opts ...Option) (*Engine, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}

	loader := &Loader{opts: o}
	all, err := loader.Load(path)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		source:  path,
		fs:      o.fs,
		matcher: o.matcher,
		opts:    o,
		all:     all,
		unused:  all.Clone(),
	}
	o.log().Info("exclusions engine ready",
		"path", path,
		"files", len(all.Files()),
		"entries", all.Len(),
	)
	return e, nil
}

// Source returns the path the engine was loaded from.
func (e *Engine) Source() string {
	return e.source
}

// IsExcluded reports whether path is excluded for any suffix.
func (e *Engine) IsExcluded(path string) bool {
	return e.isExcluded(path, NoSuffix)
}

// IsExcludedFor reports whether path is excluded for suffix. Entries
// declared without suffixes apply when no entry scoped to suffix matches.
// An empty suffix behaves like IsExcluded.
func (e *Engine) IsExcludedFor(path, suffix string) bool {
	return e.isExcluded(path, SuffixOf(suffix))
}

func (e *Engine) isExcluded(path string, s Suffix) bool {
	e.queries++

	m, ok := e.all.FindFirstMatch(e.matcher, path, s)
	if !ok && s.Valid {
		m, ok = e.all.FindFirstMatch(e.matcher, path, NoSuffix)
	}
	if !ok {
		return false
	}

	e.hits++
	e.unused.RemoveSuffix(m.File, m.Pattern, m.Suffix)
	return true
}

// Files returns the baseline files that declared entries, in load order.
func (e *Engine) Files() []string {
	return e.all.Files()
}

// SuffixAware reports whether the engine distinguishes suffixes.
func (e *Engine) SuffixAware() bool {
	return e.all.SuffixAware()
}

// Suffixes returns the suffix names declared in file.
func (e *Engine) Suffixes(file string) ([]string, error) {
	return e.all.Suffixes(file)
}

// PatternsFor returns the patterns of file that carry suffix.
func (e *Engine) PatternsFor(file, suffix string) ([]string, error) {
	return e.all.PatternsFor(file, suffix)
}

// Entries returns the loaded entries of file. The entries must not be mutated.
func (e *Engine) Entries(file string) []*Entry {
	return e.all.Entries(file)
}

// Unused lists every entry with unmatched suffixes, in load order.
func (e *Engine) Unused() []UnusedEntry {
	var out []UnusedEntry
	for _, file := range e.unused.Files() {
		for _, entry := range e.unused.Entries(file) {
			out = append(out, UnusedEntry{
				File:     file,
				Pattern:  entry.Pattern(),
				Line:     entry.Line(),
				Suffixes: suffixNames(entry.Suffixes()),
				Whole:    entry.Untouched(),
			})
		}
	}
	return out
}

// Stats returns counters for the baseline and the queries so far.
func (e *Engine) Stats() Stats {
	st := Stats{
		Files:   len(e.all.Files()),
		Entries: e.all.Len(),
		Queries: e.queries,
		Hits:    e.hits,
	}
	for _, file := range e.unused.Files() {
		for _, entry := range e.unused.Entries(file) {
			if entry.Untouched() {
				st.Unused++
			} else {
				st.Partial++
			}
		}
	}
	st.Used = st.Entries - st.Unused - st.Partial
	return st
}
