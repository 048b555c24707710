package exclusions

import (
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFiles creates each path with the given lines in an in-memory file system.
func writeFiles(t *testing.T, files map[string][]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, lines := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	}
	return fs
}

func patterns(ix Index, file string) []string {
	var out []string
	for _, e := range ix.Entries(file) {
		out = append(out, e.String())
	}
	return out
}

func TestLoader_Load(t *testing.T) {
	fs := writeFiles(t, map[string][]string{
		"/repo/baseline.txt": {
			"# header",
			"",
			"a/*.txt",
			"   b/*.log|x,y   # scoped",
			"\t# indented comment",
		},
	})

	l, err := NewLoader(WithFs(fs))
	require.NoError(t, err)

	ix, err := l.Load("/repo/baseline.txt")
	require.NoError(t, err)

	assert.Equal(t, []string{"/repo/baseline.txt"}, ix.Files())
	assert.Equal(t, []string{"a/*.txt", "b/*.log|x,y"}, patterns(ix, "/repo/baseline.txt"))

	entries := ix.Entries("/repo/baseline.txt")
	assert.Equal(t, 3, entries[0].Line())
	assert.Equal(t, 4, entries[1].Line())
}

func TestLoader_PathValidation(t *testing.T) {
	l, err := NewLoader(WithFs(afero.NewMemMapFs()))
	require.NoError(t, err)

	tests := []struct {
		name string
		path string
		want error
	}{
		{name: "empty", path: "", want: ErrPath},
		{name: "relative", path: "baseline.txt", want: ErrPath},
		{name: "unclean", path: "/repo/../repo/baseline.txt", want: ErrPath},
		{name: "trailing slash", path: "/repo/", want: ErrPath},
		{name: "missing", path: "/repo/missing.txt", want: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix, err := l.Load(tt.path)
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, ix)
		})
	}
}

func TestLoader_Imports(t *testing.T) {
	fs := writeFiles(t, map[string][]string{
		"/repo/eng/root.txt": {
			"import:common/shared.txt",
			"root/*",
			"import: /opt/extra.txt",
		},
		"/repo/eng/common/shared.txt": {
			"shared/*|sdk",
		},
		"/opt/extra.txt": {
			"extra/*",
		},
	})

	l, err := NewLoader(WithFs(fs))
	require.NoError(t, err)

	ix, err := l.Load("/repo/eng/root.txt")
	require.NoError(t, err)

	assert.Equal(t, []string{"/repo/eng/common/shared.txt", "/repo/eng/root.txt", "/opt/extra.txt"}, ix.Files())
	assert.Equal(t, []string{"shared/*|sdk"}, patterns(ix, "/repo/eng/common/shared.txt"))
	assert.Equal(t, []string{"root/*"}, patterns(ix, "/repo/eng/root.txt"))
	assert.Equal(t, []string{"extra/*"}, patterns(ix, "/opt/extra.txt"))
}

func TestLoader_ImportCycles(t *testing.T) {
	tests := []struct {
		name  string
		files map[string][]string
		root  string
		want  map[string][]string
	}{
		{
			name:  "self import",
			files: map[string][]string{"/b/self.txt": {"import:self.txt", "a/*"}},
			root:  "/b/self.txt",
			want:  map[string][]string{"/b/self.txt": {"a/*"}},
		},
		{
			name:  "import-only self import",
			files: map[string][]string{"/b/self.txt": {"import:./self.txt"}},
			root:  "/b/self.txt",
			want:  map[string][]string{},
		},
		{
			name: "two file cycle",
			files: map[string][]string{
				"/b/one.txt": {"one/*", "import:two.txt"},
				"/b/two.txt": {"import:one.txt", "two/*"},
			},
			root: "/b/one.txt",
			want: map[string][]string{"/b/one.txt": {"one/*"}, "/b/two.txt": {"two/*"}},
		},
		{
			name: "diamond",
			files: map[string][]string{
				"/b/top.txt":   {"import:left.txt", "import:right.txt"},
				"/b/left.txt":  {"import:base.txt"},
				"/b/right.txt": {"import:base.txt"},
				"/b/base.txt":  {"base/*"},
			},
			root: "/b/top.txt",
			want: map[string][]string{"/b/base.txt": {"base/*"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLoader(WithFs(writeFiles(t, tt.files)))
			require.NoError(t, err)

			ix, err := l.Load(tt.root)
			require.NoError(t, err)

			assert.Len(t, ix.Files(), len(tt.want))
			for file, want := range tt.want {
				assert.Equal(t, want, patterns(ix, file), file)
			}
		})
	}
}

func TestLoader_ErrorsCarryFileAndLine(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string][]string
		want    error
		wantMsg string
	}{
		{
			name:    "empty suffix",
			files:   map[string][]string{"/r/base.txt": {"# c", "a|x,,y"}},
			want:    ErrFormat,
			wantMsg: "/r/base.txt:2:",
		},
		{
			name:    "empty pattern",
			files:   map[string][]string{"/r/base.txt": {"ok/*", "|x"}},
			want:    ErrFormat,
			wantMsg: "/r/base.txt:2:",
		},
		{
			name:    "empty import",
			files:   map[string][]string{"/r/base.txt": {"import:   "}},
			want:    ErrFormat,
			wantMsg: "/r/base.txt:1:",
		},
		{
			name:    "missing import",
			files:   map[string][]string{"/r/base.txt": {"a", "b", "import:gone.txt"}},
			want:    ErrNotFound,
			wantMsg: "/r/base.txt:3:",
		},
		{
			name: "error in imported file",
			files: map[string][]string{
				"/r/base.txt":  {"import:child.txt"},
				"/r/child.txt": {"fine", "bad|"},
			},
			want:    ErrFormat,
			wantMsg: "/r/child.txt:2:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLoader(WithFs(writeFiles(t, tt.files)))
			require.NoError(t, err)

			ix, err := l.Load("/r/base.txt")
			require.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Nil(t, ix)
		})
	}
}

func TestLoader_ScopeFilter(t *testing.T) {
	fs := writeFiles(t, map[string][]string{
		"/r/base.txt": {
			"src/vstest/**",
			"src/roslyn/**",
			"src/vstest/*.dll|sdk",
			"other/src/vstest/*",
		},
	})

	l, err := NewLoader(WithFs(fs), WithScopeFilter(regexp.MustCompile(`^src/vstest/`)))
	require.NoError(t, err)

	ix, err := l.Load("/r/base.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"src/vstest/**", "src/vstest/*.dll|sdk"}, patterns(ix, "/r/base.txt"))
}

func TestLoader_ScopePattern(t *testing.T) {
	_, err := NewLoader(WithScopePattern("("))
	require.Error(t, err)

	l, err := NewLoader(WithScopePattern("  "))
	require.NoError(t, err)
	assert.Nil(t, l.opts.scope)
}

func TestLoader_NilCollaborators(t *testing.T) {
	_, err := NewLoader(WithFs(nil))
	require.ErrorIs(t, err, ErrUsage)

	_, err = NewLoader(WithMatcher(nil))
	require.ErrorIs(t, err, ErrUsage)
}

func TestLoader_PlainVariant(t *testing.T) {
	fs := writeFiles(t, map[string][]string{"/r/base.txt": {"a|x,y"}})

	l, err := NewLoader(WithFs(fs), WithSuffixAware(false))
	require.NoError(t, err)

	ix, err := l.Load("/r/base.txt")
	require.NoError(t, err)
	assert.False(t, ix.SuffixAware())
	assert.Equal(t, []string{"a"}, patterns(ix, "/r/base.txt"))
	assert.Equal(t, 1, ix.Entries("/r/base.txt")[0].Line())
}
