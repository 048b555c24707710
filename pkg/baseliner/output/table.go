package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// tableRows returns the header and rows shared by the tabular formatters.
func tableRows(r *Report) (header []string, rows [][]string) {
	header = []string{"KIND", "PATH", "PATTERN", "LINE", "SUFFIXES", "SIZE"}
	for _, file := range r.Unexpected {
		rows = append(rows, []string{"unexpected", file.Path, "", "", "", file.SizeHuman})
	}
	for _, s := range r.Unused {
		rows = append(rows, []string{"unused", s.File, s.Pattern, strconv.Itoa(s.Line), suffixList(s), ""})
	}
	return header, rows
}

// TSVFormatter formats findings as tab-separated values.
type TSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *TSVFormatter) Format(w *bytes.Buffer, r *Report) error {
	header, rows := tableRows(r)
	w.WriteString(strings.Join(header, "\t"))
	w.WriteByte('\n')
	for _, row := range rows {
		w.WriteString(strings.Join(row, "\t"))
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("tsv", func() Formatter {
		return &TSVFormatter{}
	})
}

// Ensure TSVFormatter implements Formatter.
var _ Formatter = (*TSVFormatter)(nil)

// CSVFormatter formats findings as RFC 4180 comma-separated values.
type CSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *CSVFormatter) Format(w *bytes.Buffer, r *Report) error {
	header, rows := tableRows(r)

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return writer.Error()
}

func init() {
	Register("csv", func() Formatter {
		return &CSVFormatter{}
	})
}

// Ensure CSVFormatter implements Formatter.
var _ Formatter = (*CSVFormatter)(nil)

// MarkdownFormatter formats the report as GitHub-flavored Markdown, suitable
// for pull request comments.
type MarkdownFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *MarkdownFormatter) Format(w *bytes.Buffer, r *Report) error {
	status := "✅ passed"
	if !r.Passed() {
		status = "❌ failed"
	}
	fmt.Fprintf(w, "### Baseline check %s\n\n", status)
	fmt.Fprintf(w, "Checked %d files under `%s` against `%s`.\n\n", r.Stats.Checked, r.Root, r.Baseline)

	if len(r.Unexpected) > 0 {
		w.WriteString("| UNEXPECTED | SIZE |\n")
		w.WriteString("|------------|------|\n")
		for _, file := range r.Unexpected {
			fmt.Fprintf(w, "| %s | %s |\n", escapeMarkdown(file.Path), file.SizeHuman)
		}
		w.WriteString("\n")
	}

	if len(r.Unused) > 0 {
		w.WriteString("| UNUSED PATTERN | SUFFIXES | FILE |\n")
		w.WriteString("|----------------|----------|------|\n")
		for _, s := range r.Unused {
			fmt.Fprintf(w, "| %s | %s | %s:%d |\n",
				escapeMarkdown(s.Pattern), escapeMarkdown(suffixList(s)), escapeMarkdown(s.File), s.Line)
		}
		w.WriteString("\n")
	}
	return nil
}

// escapeMarkdown escapes characters that break table cells or render as emphasis.
func escapeMarkdown(s string) string {
	return strings.NewReplacer("|", `\|`, "*", `\*`, "_", `\_`).Replace(s)
}

func init() {
	Register("markdown", func() Formatter {
		return &MarkdownFormatter{}
	})
}

// Ensure MarkdownFormatter implements Formatter.
var _ Formatter = (*MarkdownFormatter)(nil)
