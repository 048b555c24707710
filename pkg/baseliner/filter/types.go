// Package filter narrows the candidate files a check looks at. It supports
// include and exclude globs, extensions and extension groups, depth and
// size limits, and sorting of the surviving candidates.
package filter

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/dustin/go-humanize"
)

// SortField specifies the field to sort candidates by.
type SortField int

const (
	// SortPath sorts candidates by relative path.
	SortPath SortField = iota
	// SortSize sorts candidates by size in bytes.
	SortSize
)

// Sort field string constants.
const (
	sortFieldPath = "path"
	sortFieldSize = "size"
)

// String returns the string representation of the sort field.
func (s SortField) String() string {
	switch s {
	case SortSize:
		return sortFieldSize
	default:
		return sortFieldPath
	}
}

// ErrInvalidSortField indicates that the sort field string could not be parsed.
var ErrInvalidSortField = errors.New("invalid sort field")

// ErrInvalidSize indicates that the size string could not be parsed.
var ErrInvalidSize = errors.New("invalid size format")

// ErrUnknownTypeGroup indicates a type group name that is not in TypeGroups.
var ErrUnknownTypeGroup = errors.New("unknown type group")

// ParseSortField parses "path" or "size" (case-insensitive).
func ParseSortField(s string) (SortField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", sortFieldPath:
		return SortPath, nil
	case sortFieldSize:
		return SortSize, nil
	default:
		return SortPath, fmt.Errorf("%w: %q", ErrInvalidSortField, s)
	}
}

// ParseSize parses a human-readable size such as "10MB", "512KiB" or "42".
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidSize)
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}
	return int64(n), nil
}

// TypeGroups maps type group names to the extensions of build outputs they cover.
var TypeGroups = map[string][]string{
	"binary": {
		".dll", ".exe", ".so", ".dylib", ".a", ".lib", ".o", ".obj", ".wasm",
	},
	"symbols": {
		".pdb", ".dbg", ".dwarf", ".sym", ".mdb",
	},
	"archive": {
		".zip", ".tar", ".gz", ".bz2", ".xz", ".7z", ".tgz", ".tar.gz", ".tar.xz",
	},
	"package": {
		".nupkg", ".snupkg", ".deb", ".rpm", ".jar", ".whl", ".msi", ".apk",
	},
	"script": {
		".sh", ".bash", ".ps1", ".cmd", ".bat", ".py",
	},
	"source": {
		".go", ".cs", ".fs", ".vb", ".c", ".cpp", ".h", ".hpp", ".rs", ".java", ".js", ".ts",
	},
	"doc": {
		".md", ".txt", ".pdf", ".html", ".xml", ".json", ".yaml", ".yml",
	},
	"log": {
		".log", ".binlog", ".trx",
	},
}

// Candidate describes a file considered by a check.
type Candidate struct {
	// Path is the slash-separated path relative to the check root.
	Path string

	// Size is the file size in bytes.
	Size int64

	// Depth is the number of directories between the root and the file.
	Depth int
}

// Name returns the base name of the candidate.
func (c Candidate) Name() string {
	return path.Base(c.Path)
}

// Ext returns the lowercased extension, recognizing compound archive
// extensions such as ".tar.gz".
func (c Candidate) Ext() string {
	name := strings.ToLower(c.Name())
	for _, compound := range []string{".tar.gz", ".tar.xz", ".tar.bz2"} {
		if strings.HasSuffix(name, compound) {
			return compound
		}
	}
	return path.Ext(name)
}

// NewCandidate builds a candidate from a slash-separated relative path.
func NewCandidate(rel string, size int64) Candidate {
	rel = strings.TrimPrefix(path.Clean("/"+rel), "/")
	return Candidate{
		Path:  rel,
		Size:  size,
		Depth: strings.Count(rel, "/"),
	}
}
