// Package scanner walks a directory tree in parallel and asks an exclusion
// checker about every candidate file, splitting the tree into excluded and
// unexpected files.
package scanner

import (
	"runtime"

	"github.com/jamesainslie/baseliner/pkg/baseliner/filter"
)

// DefaultSkipDirs are directory names never descended into.
var DefaultSkipDirs = []string{".git", ".hg", ".svn"}

// Options configures the scanner behavior.
type Options struct {
	// Root is the directory to check. Paths handed to the checker are
	// slash-separated and relative to Root.
	Root string

	// Suffix scopes every query. Empty queries without a suffix.
	Suffix string

	// Filter selects which files are checked. Nil checks every file.
	Filter *filter.Filter

	// SkipDirs lists directory names that are not descended into.
	SkipDirs []string

	// Workers is the number of concurrent directory walkers.
	Workers int

	// Follow makes the walk follow symbolic links.
	Follow bool

	// OnFile is called for every checked file. It is called with the
	// checker lock held and must not call back into the scanner.
	OnFile func(File)
}

// DefaultOptions returns options that check every file under root.
func DefaultOptions(root string) Options {
	return Options{
		Root:     root,
		SkipDirs: DefaultSkipDirs,
		Workers:  defaultWorkers(),
	}
}

// Validate applies defaults for unset values.
func (o *Options) Validate() error {
	if o.Root == "" {
		o.Root = "."
	}
	if o.Workers < 1 {
		o.Workers = defaultWorkers()
	}
	return nil
}

func defaultWorkers() int {
	return max(4, runtime.NumCPU())
}
