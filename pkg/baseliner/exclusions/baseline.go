package exclusions

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Baseline is a regenerated baseline file.
type Baseline struct {
	// Source is the baseline file the lines were derived from.
	Source string
	// Name is the file name to write the lines under.
	Name string
	// Lines are the file contents without line terminators.
	Lines []string
}

// Path returns where the baseline is written inside dir. An empty dir means
// next to Source.
func (b Baseline) Path(dir string) string {
	if dir == "" {
		dir = filepath.Dir(b.Source)
	}
	return filepath.Join(dir, b.Name)
}

// GenerateBaseline rewrites every loaded baseline file so it only keeps the
// entries matched so far.
//
// Comments, blank lines and imports are copied as-is. An entry never
// matched is dropped. An entry matched for some of its suffixes is
// rewritten to list only those, keeping any trailing comment. Entries not
// tracked (fully used, or outside the scope filter) are kept. extra lines
// are appended to every file. Output files are named Updated<name>, or
// Updated<stem>.<tag><ext> when tag is set.
func (e *Engine) GenerateBaseline(tag string, extra []string) ([]Baseline, error) {
	return e.regenerate("Updated", tag, extra, func(raw string, entry *Entry) (string, bool) {
		switch {
		case entry == nil:
			return raw, true
		case entry.Untouched():
			return "", false
		default:
			return rewriteSuffixes(raw, suffixNames(entry.Removed())), true
		}
	})
}

// UnusedReport is the complement of GenerateBaseline: it keeps only what
// was never matched. Fully used entries are dropped, partially used ones
// list their unmatched suffixes and untouched ones are copied verbatim.
// Output files are named Unused<name>, or Unused<stem>.<tag><ext>.
func (e *Engine) UnusedReport(tag string) ([]Baseline, error) {
	return e.regenerate("Unused", tag, nil, func(raw string, entry *Entry) (string, bool) {
		switch {
		case entry == nil:
			return "", false
		case entry.Untouched():
			return raw, true
		default:
			return rewriteSuffixes(raw, suffixNames(entry.Suffixes())), true
		}
	})
}

// rewriteFunc decides the fate of an exclusion line given its entry in the
// unused index, nil when the entry is no longer tracked.
type rewriteFunc func(raw string, entry *Entry) (string, bool)

func (e *Engine) regenerate(prefix, tag string, extra []string, rewrite rewriteFunc) ([]Baseline, error) {
	files := e.unused.Files()
	out := make([]Baseline, 0, len(files))

	for _, file := range files {
		lines, err := readLines(e.fs, file)
		if err != nil {
			return nil, err
		}

		byLine := make(map[int]*Entry)
		for _, entry := range e.unused.Entries(file) {
			byLine[entry.Line()] = entry
		}

		kept := make([]string, 0, len(lines)+len(extra))
		for i, raw := range lines {
			line := strings.TrimSpace(raw)
			if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, importPrefix) {
				kept = append(kept, raw)
				continue
			}

			parsed, err := ParseEntry(line)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", file, i+1, err)
			}

			entry := byLine[i+1]
			if entry != nil && entry.Pattern() != parsed.Pattern() {
				// The file changed since it was loaded.
				entry = e.unused.EntryByPattern(file, parsed.Pattern())
			}

			if text, keep := rewrite(raw, entry); keep {
				kept = append(kept, text)
			}
		}
		kept = append(kept, extra...)

		out = append(out, Baseline{
			Source: file,
			Name:   outputName(prefix, file, tag),
			Lines:  kept,
		})
	}

	e.opts.log().Debug("baselines regenerated", "kind", prefix, "files", len(out), "tag", tag)
	return out, nil
}

// WriteBaselines writes each baseline under dir, or next to its source when
// dir is empty, and returns the written paths.
func WriteBaselines(fs afero.Fs, dir string, bs []Baseline) ([]string, error) {
	if fs == nil {
		return nil, fmt.Errorf("%w: nil file system", ErrUsage)
	}
	if dir != "" {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	paths := make([]string, 0, len(bs))
	for _, b := range bs {
		path := b.Path(dir)
		var content string
		if len(b.Lines) > 0 {
			content = strings.Join(b.Lines, "\n") + "\n"
		}
		if err := afero.WriteFile(fs, path, []byte(content), os.FileMode(0o644)); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func outputName(prefix, source, tag string) string {
	base := filepath.Base(source)
	if tag == "" {
		return prefix + base
	}
	ext := filepath.Ext(base)
	return prefix + strings.TrimSuffix(base, ext) + "." + tag + ext
}

// rewriteSuffixes replaces the suffix list of an exclusion line with names,
// keeping the pattern text and any trailing comment.
func rewriteSuffixes(raw string, names []string) string {
	code, comment, hasComment := strings.Cut(raw, "#")
	pattern, _, _ := strings.Cut(code, "|")

	trail := code[len(strings.TrimRight(code, " \t")):]
	line := strings.TrimRight(pattern, " \t")
	if len(names) > 0 {
		line += "|" + strings.Join(names, ",")
	}
	if hasComment {
		line += trail + "#" + comment
	}
	return line
}
