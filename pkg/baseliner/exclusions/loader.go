package exclusions

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// importPrefix introduces a line that pulls in another baseline file.
const importPrefix = "import:"

// Loader reads baseline files, follows their imports and fills an Index.
type Loader struct {
	opts options
}

// NewLoader returns a Loader configured by opts.
func NewLoader(opts ...Option) (*Loader, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Loader{opts: o}, nil
}

// Load reads the baseline at path and every file it imports.
//
// path must be absolute and clean. Each file is walked at most once per
// load, so diamond and cyclic imports terminate. Any error aborts the load
// and no index is returned.
func (l *Loader) Load(path string) (Index, error) {
	ld := &load{
		opts:    &l.opts,
		index:   NewIndex(l.opts.suffixAware),
		visited: make(map[string]struct{}),
	}
	if err := ld.file(path); err != nil {
		return nil, err
	}

	l.opts.log().Debug("baseline loaded",
		"path", path,
		"files", len(ld.index.Files()),
		"walked", len(ld.visited),
		"entries", ld.index.Len(),
		"suffix_aware", ld.index.SuffixAware(),
	)
	return ld.index, nil
}

// load is the state of a single Load call.
type load struct {
	opts    *options
	index   Index
	visited map[string]struct{}
}

func (ld *load) file(path string) error {
	if err := checkPath(path); err != nil {
		return err
	}

	exists, err := afero.Exists(ld.opts.fs, path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	if _, seen := ld.visited[path]; seen {
		return nil
	}
	ld.visited[path] = struct{}{}

	lines, err := readLines(ld.opts.fs, path)
	if err != nil {
		return err
	}

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if target, ok := strings.CutPrefix(line, importPrefix); ok {
			if err := ld.importFile(path, strings.TrimSpace(target)); err != nil {
				return fmt.Errorf("%s:%d: %w", path, i+1, err)
			}
			continue
		}

		entry, err := ParseEntry(line)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", path, i+1, err)
		}
		if ld.opts.scope != nil && !ld.opts.scope.MatchString(entry.pattern) {
			continue
		}
		entry.line = i + 1
		ld.index.Add(path, entry)
	}
	return nil
}

func (ld *load) importFile(from, target string) error {
	if target == "" {
		return fmt.Errorf("%w: empty import path", ErrFormat)
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(from), target)
	} else {
		target = filepath.Clean(target)
	}
	ld.opts.log().Debug("following import", "from", from, "path", target)
	return ld.file(target)
}

func checkPath(path string) error {
	if path == "" || !filepath.IsAbs(path) || filepath.Clean(path) != path {
		return fmt.Errorf("%w: %q", ErrPath, path)
	}
	return nil
}

// readLines returns the raw lines of path without their line terminators.
func readLines(fs afero.Fs, path string) ([]string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.TrimSuffix(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}
