package filter

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/jamesainslie/baseliner/pkg/baseliner/glob"
)

// Filter defines criteria for selecting candidates.
type Filter struct {
	// Include contains glob patterns. If non-empty, candidates must match at least one.
	Include []string

	// Exclude contains glob patterns. Matching candidates are skipped.
	Exclude []string

	// Extensions contains extensions to include (e.g. ".dll").
	// If non-empty, only candidates with matching extensions are included.
	Extensions []string

	// MinSize is the minimum size in bytes. 0 means no minimum.
	MinSize int64

	// MaxDepth limits how deep below the root candidates may be.
	// 0 means unlimited; 1 means files directly in the root.
	MaxDepth int

	// SortBy specifies the field Sort orders by.
	SortBy SortField

	// SortDescending reverses the sort order.
	SortDescending bool

	matcher glob.Matcher
	err     error
}

// Option is a functional option for configuring a Filter.
type Option func(*Filter)

// New creates a Filter. Without options it accepts everything and sorts
// by path ascending.
func New(opts ...Option) (*Filter, error) {
	f := &Filter{
		SortBy: SortPath,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.matcher == nil {
		f.matcher = glob.Default()
	}
	return f, nil
}

// WithMatcher sets the glob matcher used for include and exclude patterns.
func WithMatcher(m glob.Matcher) Option {
	return func(f *Filter) {
		f.matcher = m
	}
}

// WithInclude sets the include glob patterns.
func WithInclude(patterns ...string) Option {
	return func(f *Filter) {
		f.Include = nonEmpty(patterns)
	}
}

// WithExclude sets the exclude glob patterns.
func WithExclude(patterns ...string) Option {
	return func(f *Filter) {
		f.Exclude = nonEmpty(patterns)
	}
}

// WithExtensions adds extensions to include.
// Extensions are normalized: lowercase and prefixed with "." if missing.
func WithExtensions(extensions ...string) Option {
	return func(f *Filter) {
		for _, ext := range extensions {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			f.Extensions = append(f.Extensions, ext)
		}
	}
}

// WithTypeGroups adds the extensions of the named type groups.
// Unknown names make New fail with ErrUnknownTypeGroup.
func WithTypeGroups(groups ...string) Option {
	return func(f *Filter) {
		for _, group := range groups {
			group = strings.ToLower(strings.TrimSpace(group))
			if group == "" {
				continue
			}
			exts, ok := TypeGroups[group]
			if !ok {
				f.err = fmt.Errorf("%w: %q", ErrUnknownTypeGroup, group)
				return
			}
			f.Extensions = append(f.Extensions, exts...)
		}
	}
}

// WithMinSize sets the minimum size in bytes. Negative values become 0.
func WithMinSize(minSize int64) Option {
	return func(f *Filter) {
		f.MinSize = max(minSize, 0)
	}
}

// WithMaxDepth sets the maximum depth. Negative values become 0 (unlimited).
func WithMaxDepth(depth int) Option {
	return func(f *Filter) {
		f.MaxDepth = max(depth, 0)
	}
}

// WithSortBy sets the field to sort by.
func WithSortBy(field SortField) Option {
	return func(f *Filter) {
		f.SortBy = field
	}
}

// WithSortDescending sets whether to sort in descending order.
func WithSortDescending(desc bool) Option {
	return func(f *Filter) {
		f.SortDescending = desc
	}
}

// Match reports whether c passes every criterion.
func (f *Filter) Match(c Candidate) bool {
	return f.matchSize(c) &&
		f.matchExtension(c) &&
		f.MatchDepth(c.Depth) &&
		f.matchPatterns(c)
}

// MatchDepth reports whether a file at depth is within MaxDepth. Depth 0
// is a file directly in the root.
func (f *Filter) MatchDepth(depth int) bool {
	return f.MaxDepth <= 0 || depth < f.MaxDepth
}

func (f *Filter) matchSize(c Candidate) bool {
	return f.MinSize <= 0 || c.Size >= f.MinSize
}

func (f *Filter) matchExtension(c Candidate) bool {
	if len(f.Extensions) == 0 {
		return true
	}
	return slices.Contains(f.Extensions, c.Ext())
}

func (f *Filter) matchPatterns(c Candidate) bool {
	if f.matchesAny(c.Path, f.Exclude) {
		return false
	}
	if len(f.Include) > 0 && !f.matchesAny(c.Path, f.Include) {
		return false
	}
	return true
}

func (f *Filter) matchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if f.matcher.Match(pattern, path) {
			return true
		}
	}
	return false
}

// Sort returns a sorted copy of cs. The input is not modified.
func (f *Filter) Sort(cs []Candidate) []Candidate {
	out := slices.Clone(cs)
	slices.SortStableFunc(out, func(a, b Candidate) int {
		var c int
		switch f.SortBy {
		case SortSize:
			c = cmp.Compare(a.Size, b.Size)
			if c == 0 {
				c = strings.Compare(a.Path, b.Path)
			}
		default:
			c = strings.Compare(a.Path, b.Path)
		}
		if f.SortDescending {
			return -c
		}
		return c
	})
	return out
}

func nonEmpty(patterns []string) []string {
	var out []string
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
