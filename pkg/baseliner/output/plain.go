package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"
)

// PlainFormatter formats the report as aligned plain text without styling.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	fmt.Fprintf(tw, "KIND\tDETAIL\tPATH\n")
	for _, file := range r.Unexpected {
		fmt.Fprintf(tw, "unexpected\t%s\t%s\n", file.SizeHuman, file.Path)
	}
	for _, s := range r.Unused {
		fmt.Fprintf(tw, "unused\t%s\t%s:%d %s\n", suffixList(s), s.File, s.Line, s.Pattern)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	status := "PASS"
	if !r.Passed() {
		status = "FAIL"
	}
	fmt.Fprintf(w, "%s: %d checked, %d excluded, %d unexpected, %d unused, %d partial\n",
		status, r.Stats.Checked, r.Stats.Excluded, r.Stats.Unexpected, r.Stats.Unused, r.Stats.Partial)
	return nil
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
