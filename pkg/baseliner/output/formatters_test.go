package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestJSONFormatter_Format(t *testing.T) {
	formatter := &JSONFormatter{}
	var buf bytes.Buffer

	require.NoError(t, formatter.Format(&buf, sampleReport()))

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))

	assert.Contains(t, parsed, "meta")
	assert.Contains(t, parsed, "stats")

	meta := parsed["meta"].(map[string]interface{})
	assert.Equal(t, false, meta["passed"])
	assert.Equal(t, "/repo/eng/baseline.txt", meta["baseline"])

	unexpected := parsed["unexpected"].([]interface{})
	require.Len(t, unexpected, 1)
	assert.Equal(t, "bin/extra.dll", unexpected[0].(map[string]interface{})["path"])

	unused := parsed["unused"].([]interface{})
	require.Len(t, unused, 2)
	first := unused[0].(map[string]interface{})
	assert.Equal(t, "obj/*.pdb", first["pattern"])
	assert.Equal(t, float64(3), first["line"])

	stats := parsed["stats"].(map[string]interface{})
	assert.Equal(t, "1.5s", stats["duration"])
}

func TestJSONFormatter_Format_EmptyListsAreArrays(t *testing.T) {
	formatter := &JSONFormatter{}
	var buf bytes.Buffer

	require.NoError(t, formatter.Format(&buf, passingReport()))

	out := buf.String()
	assert.Contains(t, out, `"unexpected": []`)
	assert.Contains(t, out, `"unused": []`)
	assert.Contains(t, out, `"passed": true`)
	assert.NotContains(t, out, "written")
}

func TestJSONLFormatter_Format(t *testing.T) {
	formatter := &JSONLFormatter{}
	var buf bytes.Buffer

	require.NoError(t, formatter.Format(&buf, sampleReport()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "unexpected", rec["kind"])
	assert.Equal(t, "bin/extra.dll", rec["path"])
	assert.NotContains(t, rec, "pattern")

	rec = nil
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &rec))
	assert.Equal(t, "unused", rec["kind"])
	assert.Equal(t, "old/**", rec["pattern"])
	assert.Equal(t, true, rec["whole"])
	assert.NotContains(t, rec, "path")
}

func TestYAMLFormatter_Format(t *testing.T) {
	formatter := &YAMLFormatter{}
	var buf bytes.Buffer

	require.NoError(t, formatter.Format(&buf, sampleReport()))

	var parsed document
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &parsed))

	assert.False(t, parsed.Meta.Passed)
	assert.Equal(t, "/repo/artifacts", parsed.Meta.Root)
	assert.Equal(t, int64(12), parsed.Stats.Checked)
	require.Len(t, parsed.Unused, 2)
	assert.Equal(t, []string{"x64"}, parsed.Unused[0].Suffixes)
	assert.True(t, parsed.Unused[1].Whole)
}

func TestPlainFormatter_Format(t *testing.T) {
	formatter := &PlainFormatter{}
	var buf bytes.Buffer

	require.NoError(t, formatter.Format(&buf, sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "KIND")
	assert.Contains(t, out, "bin/extra.dll")
	assert.Contains(t, out, "/repo/eng/baseline.txt:3 obj/*.pdb")
	assert.Contains(t, out, "FAIL: 12 checked, 11 excluded, 1 unexpected, 1 unused, 1 partial")

	buf.Reset()
	require.NoError(t, formatter.Format(&buf, passingReport()))
	assert.Contains(t, buf.String(), "PASS:")
}

func TestPathsFormatter_Format(t *testing.T) {
	r := sampleReport()
	r.Unexpected = append(r.Unexpected, File{Path: "lib/a b.so"})

	var buf bytes.Buffer
	require.NoError(t, (&PathsFormatter{}).Format(&buf, r))
	assert.Equal(t, "bin/extra.dll\nlib/a b.so\n", buf.String())

	buf.Reset()
	require.NoError(t, (&NullFormatter{}).Format(&buf, r))
	assert.Equal(t, "bin/extra.dll\x00lib/a b.so\x00", buf.String())
}

func TestPatternsFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&PatternsFormatter{}).Format(&buf, sampleReport()))
	assert.Equal(t, "obj/*.pdb|x64\nold/**\n", buf.String())
}

func TestTSVFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TSVFormatter{}).Format(&buf, sampleReport()))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "KIND\tPATH\tPATTERN\tLINE\tSUFFIXES\tSIZE", lines[0])
	assert.Equal(t, "unexpected\tbin/extra.dll\t\t\t\t2.0 KiB", lines[1])
	assert.Equal(t, "unused\t/repo/eng/baseline.txt\told/**\t7\t*\t", lines[3])
}

func TestCSVFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&CSVFormatter{}).Format(&buf, sampleReport()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "KIND", records[0][0])
	assert.Equal(t, []string{"unused", "/repo/eng/baseline.txt", "obj/*.pdb", "3", "x64", ""}, records[2])
}

func TestMarkdownFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&MarkdownFormatter{}).Format(&buf, sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "### Baseline check ❌ failed")
	assert.Contains(t, out, "| UNEXPECTED | SIZE |")
	assert.Contains(t, out, `| obj/\*.pdb | x64 |`)
	assert.Contains(t, out, `| old/\*\* | \* |`)

	buf.Reset()
	require.NoError(t, (&MarkdownFormatter{}).Format(&buf, passingReport()))
	assert.Contains(t, buf.String(), "✅ passed")
	assert.NotContains(t, buf.String(), "| UNEXPECTED")
}

func TestTemplateFormatter_Format(t *testing.T) {
	formatter := NewTemplateFormatter(`{{range .Unused}}{{.Pattern}}|{{join .Suffixes ","}}
{{end}}{{comma .Stats.Checked}} in {{duration .Stats.Duration}}`)
	var buf bytes.Buffer

	require.NoError(t, formatter.Format(&buf, sampleReport()))
	assert.Equal(t, "obj/*.pdb|x64\nold/**|\n12 in 1.5s", buf.String())
}

func TestTemplateFormatter_Funcs(t *testing.T) {
	formatter := NewTemplateFormatter(`{{range .Unexpected}}{{bytes .Size}}{{end}} {{comma .Stats.Excluded}}`)
	r := sampleReport()
	r.Stats.Excluded = 1234567

	var buf bytes.Buffer
	require.NoError(t, formatter.Format(&buf, r))
	assert.Equal(t, "2.0 KiB 1,234,567", buf.String())
}

func TestTemplateFormatter_Default(t *testing.T) {
	f, err := Get("template")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, sampleReport()))
	assert.Equal(t, "unexpected\tbin/extra.dll\nunused\tobj/*.pdb\nunused\told/**\n", buf.String())
}

func TestTemplateFormatter_InvalidTemplate(t *testing.T) {
	formatter := NewTemplateFormatter("{{.Missing")
	var buf bytes.Buffer
	require.Error(t, formatter.Format(&buf, sampleReport()))

	formatter.SetTemplate("{{.Root}}")
	require.NoError(t, formatter.Format(&buf, sampleReport()))
	assert.Equal(t, "/repo/artifacts", buf.String())
}

func TestPrettyFormatter_Format(t *testing.T) {
	formatter := &PrettyFormatter{}
	var buf bytes.Buffer

	r := sampleReport()
	r.Written = []string{"/repo/eng/Updatedbaseline.txt"}
	r.Warnings = []string{"locked: permission denied"}
	require.NoError(t, formatter.Format(&buf, r))

	out := buf.String()
	assert.Contains(t, out, "/repo/artifacts")
	assert.Contains(t, out, "bin/extra.dll")
	assert.Contains(t, out, "obj/*.pdb")
	assert.Contains(t, out, "Updatedbaseline.txt")
	assert.Contains(t, out, "permission denied")
	assert.Contains(t, out, "FAIL")

	buf.Reset()
	require.NoError(t, formatter.Format(&buf, passingReport()))
	assert.Contains(t, buf.String(), "PASS")
}
