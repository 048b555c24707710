package exclusions

import (
	"fmt"

	"github.com/jamesainslie/baseliner/pkg/baseliner/glob"
)

// Match identifies the entry that answered a query.
type Match struct {
	// File is the baseline file the pattern was declared in.
	File string
	// Pattern is the matching glob pattern.
	Pattern string
	// Suffix is the suffix the query matched under.
	Suffix Suffix
}

// Index stores exclusion entries grouped by the file that declared them.
//
// Files and entries keep insertion order, and lookups scan in that order, so
// the first declared match wins. An Index is not safe for concurrent use.
type Index interface {
	// Add appends e to file's entries. Duplicates are kept.
	Add(file string, e *Entry)
	// Files returns every file that ever received an entry, in first-insertion order.
	Files() []string
	// Entries returns the live entries of file.
	Entries(file string) []*Entry
	// EntryByPattern returns the first live entry of file with the given pattern.
	EntryByPattern(file, pattern string) *Entry
	// RemoveSuffix removes s from the first entry of file with pattern that
	// still carries s, and evicts that entry once it has no suffixes left.
	RemoveSuffix(file, pattern string, s Suffix)
	// FindFirstMatch returns the first entry matching path under s.
	FindFirstMatch(m glob.Matcher, path string, s Suffix) (Match, bool)
	// Clone returns a deep copy; no entry is shared with the receiver.
	Clone() Index
	// SuffixAware reports whether the index distinguishes suffixes.
	SuffixAware() bool
	// Suffixes returns the distinct suffix names declared by file's live entries.
	Suffixes(file string) ([]string, error)
	// PatternsFor returns the patterns of file that carry suffix.
	PatternsFor(file, suffix string) ([]string, error)
	// Len returns the number of live entries across all files.
	Len() int
}

// NewIndex returns an empty index. A suffix-aware index keeps the suffix
// dimension; otherwise every entry is stored as applying to all suffixes.
func NewIndex(suffixAware bool) Index {
	if suffixAware {
		return &suffixIndex{store: newStore()}
	}
	return &plainIndex{store: newStore()}
}

// store is the file-ordered entry storage shared by both index variants.
type store struct {
	order  []string
	byFile map[string][]*Entry
}

func newStore() store {
	return store{byFile: make(map[string][]*Entry)}
}

func (st *store) add(file string, e *Entry) {
	if _, ok := st.byFile[file]; !ok {
		st.order = append(st.order, file)
	}
	st.byFile[file] = append(st.byFile[file], e)
}

func (st *store) Files() []string {
	return append([]string(nil), st.order...)
}

func (st *store) Entries(file string) []*Entry {
	return append([]*Entry(nil), st.byFile[file]...)
}

func (st *store) EntryByPattern(file, pattern string) *Entry {
	for _, e := range st.byFile[file] {
		if e.pattern == pattern {
			return e
		}
	}
	return nil
}

func (st *store) Len() int {
	n := 0
	for _, entries := range st.byFile {
		n += len(entries)
	}
	return n
}

func (st *store) removeSuffix(file, pattern string, s Suffix) {
	entries := st.byFile[file]
	for i, e := range entries {
		if e.pattern != pattern || !e.HasSuffix(s) {
			continue
		}
		e.RemoveSuffix(s)
		if e.Empty() {
			// The file key stays even when its last entry goes.
			st.byFile[file] = append(entries[:i:i], entries[i+1:]...)
		}
		return
	}
}

func (st *store) findFirstMatch(m glob.Matcher, path string, s Suffix) (Match, bool) {
	for _, file := range st.order {
		for _, e := range st.byFile[file] {
			if e.Matches(m, path, s) {
				return Match{File: file, Pattern: e.pattern, Suffix: s}, true
			}
		}
	}
	return Match{}, false
}

func (st *store) clone() store {
	c := store{
		order:  append([]string(nil), st.order...),
		byFile: make(map[string][]*Entry, len(st.byFile)),
	}
	for file, entries := range st.byFile {
		cloned := make([]*Entry, len(entries))
		for i, e := range entries {
			cloned[i] = e.Clone()
		}
		c.byFile[file] = cloned
	}
	return c
}

// suffixIndex tracks entries per file and suffix.
type suffixIndex struct {
	store
}

func (ix *suffixIndex) Add(file string, e *Entry) {
	ix.add(file, e)
}

func (ix *suffixIndex) RemoveSuffix(file, pattern string, s Suffix) {
	ix.removeSuffix(file, pattern, s)
}

func (ix *suffixIndex) FindFirstMatch(m glob.Matcher, path string, s Suffix) (Match, bool) {
	return ix.findFirstMatch(m, path, s)
}

func (ix *suffixIndex) Clone() Index {
	return &suffixIndex{store: ix.clone()}
}

func (ix *suffixIndex) SuffixAware() bool {
	return true
}

func (ix *suffixIndex) Suffixes(file string) ([]string, error) {
	entries, ok := ix.byFile[file]
	if !ok {
		return nil, fmt.Errorf("%w: no exclusions declared in %s", ErrUsage, file)
	}

	seen := make(map[string]struct{})
	var names []string
	for _, e := range entries {
		for _, s := range e.Suffixes() {
			if !s.Valid {
				continue
			}
			if _, dup := seen[s.Name]; dup {
				continue
			}
			seen[s.Name] = struct{}{}
			names = append(names, s.Name)
		}
	}
	return names, nil
}

func (ix *suffixIndex) PatternsFor(file, suffix string) ([]string, error) {
	if suffix == "" {
		return nil, fmt.Errorf("%w: empty suffix", ErrUsage)
	}
	entries, ok := ix.byFile[file]
	if !ok {
		return nil, fmt.Errorf("%w: no exclusions declared in %s", ErrUsage, file)
	}

	var patterns []string
	for _, e := range entries {
		if e.HasSuffix(Named(suffix)) {
			patterns = append(patterns, e.pattern)
		}
	}
	if patterns == nil {
		return nil, fmt.Errorf("%w: suffix %q is not declared in %s", ErrUsage, suffix, file)
	}
	return patterns, nil
}

// plainIndex ignores suffixes: every entry applies to every query.
type plainIndex struct {
	store
}

func (ix *plainIndex) Add(file string, e *Entry) {
	ix.add(file, e.unscoped())
}

func (ix *plainIndex) RemoveSuffix(file, pattern string, _ Suffix) {
	ix.removeSuffix(file, pattern, NoSuffix)
}

func (ix *plainIndex) FindFirstMatch(m glob.Matcher, path string, _ Suffix) (Match, bool) {
	return ix.findFirstMatch(m, path, NoSuffix)
}

func (ix *plainIndex) Clone() Index {
	return &plainIndex{store: ix.clone()}
}

func (ix *plainIndex) SuffixAware() bool {
	return false
}

func (ix *plainIndex) Suffixes(string) ([]string, error) {
	return nil, fmt.Errorf("%w: index does not track suffixes", ErrUsage)
}

func (ix *plainIndex) PatternsFor(string, string) ([]string, error) {
	return nil, fmt.Errorf("%w: index does not track suffixes", ErrUsage)
}

var (
	_ Index = (*suffixIndex)(nil)
	_ Index = (*plainIndex)(nil)
)
