// Package output renders check reports in various formats (pretty, plain,
// json, yaml, etc.).
//
// Formatters are looked up by name in a registry:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, report); err != nil {
//	    return err
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/baseliner/pkg/baseliner/exclusions"
	"github.com/jamesainslie/baseliner/pkg/baseliner/scanner"
)

// File is a checked file in a report.
type File struct {
	Path      string `json:"path" yaml:"path"`
	Size      int64  `json:"size" yaml:"size"`
	SizeHuman string `json:"size_human" yaml:"size_human"`
}

// Stale is an exclusion that was not fully used.
type Stale struct {
	File     string   `json:"file" yaml:"file"`
	Pattern  string   `json:"pattern" yaml:"pattern"`
	Line     int      `json:"line" yaml:"line"`
	Suffixes []string `json:"suffixes,omitempty" yaml:"suffixes,omitempty"`
	// Whole is true when no suffix of the exclusion was matched.
	Whole bool `json:"whole" yaml:"whole"`
}

// Stats holds the counters of a check.
type Stats struct {
	Checked     int64         `json:"checked" yaml:"checked"`
	DirsScanned int64         `json:"dirs_scanned" yaml:"dirs_scanned"`
	Excluded    int           `json:"excluded" yaml:"excluded"`
	Unexpected  int           `json:"unexpected" yaml:"unexpected"`
	Entries     int           `json:"entries" yaml:"entries"`
	Used        int           `json:"used" yaml:"used"`
	Partial     int           `json:"partial" yaml:"partial"`
	Unused      int           `json:"unused" yaml:"unused"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
}

// Report is the data every formatter renders.
type Report struct {
	// RunID is the history id of the check, if recorded.
	RunID string `json:"run_id,omitempty" yaml:"run_id,omitempty"`

	// Root is the checked directory.
	Root string `json:"root" yaml:"root"`

	// Baseline is the baseline file the check loaded.
	Baseline string `json:"baseline" yaml:"baseline"`

	// Suffix scoped the check, if set.
	Suffix string `json:"suffix,omitempty" yaml:"suffix,omitempty"`

	// Unexpected lists files no exclusion covered.
	Unexpected []File `json:"unexpected" yaml:"unexpected"`

	// Unused lists exclusions that were not fully used.
	Unused []Stale `json:"unused" yaml:"unused"`

	// Written lists regenerated baseline files.
	Written []string `json:"written,omitempty" yaml:"written,omitempty"`

	// Stats contains check statistics.
	Stats Stats `json:"stats" yaml:"stats"`

	// Warnings contains non-fatal problems, such as unreadable paths.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// NewReport builds a report from a scan result and the engine that answered it.
func NewReport(baseline string, res *scanner.Result, eng *exclusions.Engine) *Report {
	r := &Report{
		Root:     res.Root,
		Baseline: baseline,
		Suffix:   res.Suffix,
	}

	for _, f := range res.Unexpected {
		r.Unexpected = append(r.Unexpected, File{
			Path:      f.Path,
			Size:      f.Size,
			SizeHuman: humanize.IBytes(uint64(max(f.Size, 0))),
		})
	}
	for _, u := range eng.Unused() {
		r.Unused = append(r.Unused, Stale{
			File:     u.File,
			Pattern:  u.Pattern,
			Line:     u.Line,
			Suffixes: u.Suffixes,
			Whole:    u.Whole,
		})
	}
	for _, e := range res.Errors {
		r.Warnings = append(r.Warnings, fmt.Sprintf("%s: %s", e.Path, e.Err))
	}

	st := eng.Stats()
	r.Stats = Stats{
		Checked:     res.Checked,
		DirsScanned: res.DirsScanned,
		Excluded:    len(res.Excluded),
		Unexpected:  len(res.Unexpected),
		Entries:     st.Entries,
		Used:        st.Used,
		Partial:     st.Partial,
		Unused:      st.Unused,
		Duration:    res.Elapsed,
	}
	return r
}

// Passed reports whether the check found no unexpected files and no
// unused exclusions.
func (r *Report) Passed() bool {
	return len(r.Unexpected) == 0 && len(r.Unused) == 0
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	Format(w *bytes.Buffer, r *Report) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory, replacing any with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}

// suffixList renders suffixes for tabular output; "*" means any suffix.
func suffixList(s Stale) string {
	if len(s.Suffixes) == 0 {
		return "*"
	}
	return strings.Join(s.Suffixes, ",")
}

// formatDuration formats a duration in a human-friendly way.
func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "0s"
	case d < time.Millisecond:
		return "<1ms"
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return d.Round(10 * time.Millisecond).String()
	default:
		return d.Round(time.Second).String()
	}
}
