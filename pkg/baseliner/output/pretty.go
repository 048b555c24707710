package output

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// PrettyFormatter renders a styled report for terminals using lipgloss.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Report) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")
	w.WriteString(f.formatUnexpected(r))
	w.WriteString(f.formatUnused(r))
	if len(r.Written) > 0 {
		w.WriteString(f.formatWritten(r.Written))
	}
	w.WriteString(f.formatFooter(r))
	if len(r.Warnings) > 0 {
		w.WriteString("\n")
		w.WriteString(f.formatWarnings(r.Warnings))
	}
	w.WriteString("\n")
	return nil
}

func (f *PrettyFormatter) formatHeader(r *Report) string {
	lines := []string{
		LabelStyle.Render("Root:") + " " + ValueStyle.Render(r.Root),
		LabelStyle.Render("Baseline:") + " " + ValueStyle.Render(r.Baseline),
	}

	info := []string{
		LabelStyle.Render("Checked:") + " " + ValueStyle.Render(fmt.Sprintf("%s files in %s",
			humanize.Comma(r.Stats.Checked), formatDuration(r.Stats.Duration))),
	}
	if r.Suffix != "" {
		info = append(info, LabelStyle.Render("Suffix:")+" "+ValueStyle.Render(r.Suffix))
	}
	if r.RunID != "" {
		info = append(info, MutedStyle.Render("run "+shortID(r.RunID)))
	}
	lines = append(lines, strings.Join(info, "  "))

	return HeaderBox.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) formatUnexpected(r *Report) string {
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render(fmt.Sprintf("Unexpected files (%d)", len(r.Unexpected))))
	sb.WriteString("\n")

	if len(r.Unexpected) == 0 {
		sb.WriteString(SuccessStyle.Render("  every file is covered by an exclusion"))
		sb.WriteString("\n\n")
		return sb.String()
	}

	width := 8
	for _, file := range r.Unexpected {
		width = max(width, len(file.SizeHuman))
	}
	for _, file := range r.Unexpected {
		fmt.Fprintf(&sb, "  %s  %s\n",
			MutedStyle.Render(padLeft(file.SizeHuman, width)),
			ErrorStyle.Render(file.Path))
	}
	sb.WriteString("\n")
	return sb.String()
}

func (f *PrettyFormatter) formatUnused(r *Report) string {
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render(fmt.Sprintf("Unused exclusions (%d)", len(r.Unused))))
	sb.WriteString("\n")

	if len(r.Unused) == 0 {
		sb.WriteString(SuccessStyle.Render("  every exclusion was used"))
		sb.WriteString("\n\n")
		return sb.String()
	}

	file := ""
	for _, s := range r.Unused {
		if s.File != file {
			file = s.File
			sb.WriteString("  " + LabelStyle.Render(filepath.Base(file)) + "\n")
		}
		detail := "never matched"
		if !s.Whole {
			detail = "unused for " + suffixList(s)
		}
		fmt.Fprintf(&sb, "    %s %s  %s\n",
			MutedStyle.Render(fmt.Sprintf("%4d", s.Line)),
			PatternStyle.Render(s.Pattern),
			MutedStyle.Render(detail))
	}
	sb.WriteString("\n")
	return sb.String()
}

func (f *PrettyFormatter) formatWritten(paths []string) string {
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render("Written"))
	sb.WriteString("\n")
	for _, p := range paths {
		sb.WriteString("  " + PathStyle.Render(p) + "\n")
	}
	return sb.String()
}

func (f *PrettyFormatter) formatFooter(r *Report) string {
	status := SuccessStyle.Bold(true).Render("PASS")
	if !r.Passed() {
		status = ErrorStyle.Bold(true).Render("FAIL")
	}

	parts := []string{
		status,
		LabelStyle.Render("Excluded:") + " " + ValueStyle.Render(humanize.Comma(int64(r.Stats.Excluded))),
		LabelStyle.Render("Unexpected:") + " " + ValueStyle.Render(humanize.Comma(int64(r.Stats.Unexpected))),
		LabelStyle.Render("Exclusions:") + " " + ValueStyle.Render(fmt.Sprintf("%d used, %d partial, %d unused",
			r.Stats.Used, r.Stats.Partial, r.Stats.Unused)),
	}
	return FooterBox.Render(strings.Join(parts, "  "))
}

func (f *PrettyFormatter) formatWarnings(warnings []string) string {
	var sb strings.Builder
	sb.WriteString(WarningStyle.Bold(true).Render("Warnings:"))
	sb.WriteString("\n")
	for _, warning := range warnings {
		sb.WriteString(WarningStyle.Render("  " + warning))
		sb.WriteString("\n")
	}
	return sb.String()
}

// padLeft pads s with spaces on the left to width.
func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
