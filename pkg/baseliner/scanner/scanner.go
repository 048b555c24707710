package scanner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"

	"github.com/jamesainslie/baseliner/pkg/baseliner/filter"
	"github.com/jamesainslie/baseliner/pkg/baseliner/logging"
)

// Checker answers exclusion queries. *exclusions.Engine implements it.
// Implementations need not be safe for concurrent use; the scanner
// serializes every call.
type Checker interface {
	IsExcludedFor(path, suffix string) bool
}

// File is one checked file.
type File struct {
	Path     string `json:"path" yaml:"path"`
	Size     int64  `json:"size" yaml:"size"`
	Excluded bool   `json:"excluded" yaml:"excluded"`
}

// ScanError records a path that could not be read.
type ScanError struct {
	Path string `json:"path" yaml:"path"`
	Err  string `json:"error" yaml:"error"`
}

// Result is the outcome of a check.
type Result struct {
	Root        string        `json:"root" yaml:"root"`
	Suffix      string        `json:"suffix,omitempty" yaml:"suffix,omitempty"`
	Checked     int64         `json:"checked" yaml:"checked"`
	DirsScanned int64         `json:"dirs_scanned" yaml:"dirs_scanned"`
	Excluded    []File        `json:"excluded" yaml:"excluded"`
	Unexpected  []File        `json:"unexpected" yaml:"unexpected"`
	Elapsed     time.Duration `json:"elapsed" yaml:"elapsed"`
	Errors      []ScanError   `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Scanner checks files against a Checker.
type Scanner struct {
	opts    Options
	checker Checker

	dirsScanned atomic.Int64

	// mu serializes checker calls and guards the collections below.
	mu         sync.Mutex
	checked    int64
	excluded   []File
	unexpected []File
	errors     []ScanError
}

// New creates a Scanner. Options are validated and defaults are applied.
func New(checker Checker, opts Options) *Scanner {
	_ = opts.Validate()
	return &Scanner{opts: opts, checker: checker}
}

func (s *Scanner) log() *logging.Logger {
	return logging.Get("scanner")
}

// Scan walks Root and checks every regular file that passes the filter.
// It blocks until the walk completes or ctx is cancelled.
func (s *Scanner) Scan(ctx context.Context) (*Result, error) {
	start := time.Now()

	root, err := validateRoot(s.opts.Root)
	if err != nil {
		return nil, err
	}

	conf := fastwalk.Config{
		Follow:     s.opts.Follow,
		NumWorkers: s.opts.Workers,
	}

	s.log().Debug("scan started", "root", root, "suffix", s.opts.Suffix, "workers", s.opts.Workers)

	err = fastwalk.Walk(&conf, root, s.walkCallback(ctx, root))
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	res := s.result(root, start)
	s.log().Info("scan complete",
		"root", root,
		"checked", res.Checked,
		"excluded", len(res.Excluded),
		"unexpected", len(res.Unexpected),
		"errors", len(res.Errors),
		"elapsed", res.Elapsed,
	)
	return res, nil
}

// CheckPaths checks a list of paths without walking the file system.
// Absolute paths are made relative to Root; all paths are normalized to
// slash-separated relative form.
func (s *Scanner) CheckPaths(ctx context.Context, paths []string) (*Result, error) {
	start := time.Now()
	root, err := filepath.Abs(s.opts.Root)
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if filepath.IsAbs(p) {
			if rel, relErr := filepath.Rel(root, p); relErr == nil {
				p = rel
			}
		}
		rel := normalize(p)
		if rel == "" {
			continue
		}
		s.check(filter.NewCandidate(rel, 0))
	}
	return s.result(root, start), nil
}

// ReadPaths reads one path per line from r, skipping blank lines and
// lines starting with '#'.
func ReadPaths(r io.Reader) ([]string, error) {
	var paths []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		paths = append(paths, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read paths: %w", err)
	}
	return paths, nil
}

func (s *Scanner) walkCallback(ctx context.Context, root string) fs.WalkDirFunc {
	return func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			s.addError(p, err)
			return nil
		}

		if p == root {
			return nil
		}

		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			s.addError(p, relErr)
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			return s.handleDirectory(rel, d.Name())
		}

		if !d.Type().IsRegular() {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			s.addError(p, infoErr)
			return nil
		}
		s.check(filter.NewCandidate(rel, info.Size()))
		return nil
	}
}

func (s *Scanner) handleDirectory(rel, name string) error {
	if slices.Contains(s.opts.SkipDirs, name) {
		return fastwalk.SkipDir
	}
	// Children of rel sit one level deeper than rel itself.
	if s.opts.Filter != nil && !s.opts.Filter.MatchDepth(strings.Count(rel, "/")+1) {
		return fastwalk.SkipDir
	}
	s.dirsScanned.Add(1)
	return nil
}

func (s *Scanner) check(c filter.Candidate) {
	if s.opts.Filter != nil && !s.opts.Filter.Match(c) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f := File{Path: c.Path, Size: c.Size}
	f.Excluded = s.checker.IsExcludedFor(c.Path, s.opts.Suffix)

	s.checked++
	if f.Excluded {
		s.excluded = append(s.excluded, f)
	} else {
		s.unexpected = append(s.unexpected, f)
	}

	if s.opts.OnFile != nil {
		s.opts.OnFile(f)
	}
}

func (s *Scanner) addError(p string, err error) {
	s.log().Debug("scan error", "path", p, "error", err)
	s.mu.Lock()
	s.errors = append(s.errors, ScanError{Path: p, Err: err.Error()})
	s.mu.Unlock()
}

func (s *Scanner) result(root string, start time.Time) *Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &Result{
		Root:        root,
		Suffix:      s.opts.Suffix,
		Checked:     s.checked,
		DirsScanned: s.dirsScanned.Load(),
		Excluded:    s.sortFiles(s.excluded),
		Unexpected:  s.sortFiles(s.unexpected),
		Elapsed:     time.Since(start),
		Errors:      slices.Clone(s.errors),
	}
}

func (s *Scanner) sortFiles(files []File) []File {
	f := s.opts.Filter
	if f == nil {
		f, _ = filter.New()
	}

	cs := make([]filter.Candidate, len(files))
	byPath := make(map[string]File, len(files))
	for i, file := range files {
		cs[i] = filter.NewCandidate(file.Path, file.Size)
		byPath[file.Path] = file
	}

	out := make([]File, 0, len(files))
	for _, c := range f.Sort(cs) {
		out = append(out, byPath[c.Path])
	}
	return out
}

// validateRoot resolves the root path to absolute and verifies it is a directory.
func validateRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: %w", abs, errNotDir)
	}
	return abs, nil
}

var errNotDir = errors.New("not a directory")

func normalize(p string) string {
	p = strings.TrimSpace(filepath.ToSlash(p))
	if p == "" {
		return ""
	}
	cleaned := path.Clean(p)
	cleaned = strings.TrimPrefix(cleaned, "./")
	if cleaned == "." {
		return ""
	}
	return cleaned
}
