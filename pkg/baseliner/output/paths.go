package output

import (
	"bytes"
)

// PathsFormatter writes one unexpected path per line, for piping to other tools.
type PathsFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PathsFormatter) Format(w *bytes.Buffer, r *Report) error {
	for _, file := range r.Unexpected {
		w.WriteString(file.Path)
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("paths", func() Formatter {
		return &PathsFormatter{}
	})
}

// Ensure PathsFormatter implements Formatter.
var _ Formatter = (*PathsFormatter)(nil)

// NullFormatter writes unexpected paths separated by null bytes, for xargs -0.
type NullFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *NullFormatter) Format(w *bytes.Buffer, r *Report) error {
	for _, file := range r.Unexpected {
		w.WriteString(file.Path)
		w.WriteByte(0)
	}
	return nil
}

func init() {
	Register("null", func() Formatter {
		return &NullFormatter{}
	})
}

// Ensure NullFormatter implements Formatter.
var _ Formatter = (*NullFormatter)(nil)

// PatternsFormatter writes the unused exclusions in baseline syntax, one
// per line, so they can be pasted back into or removed from a baseline.
type PatternsFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PatternsFormatter) Format(w *bytes.Buffer, r *Report) error {
	for _, s := range r.Unused {
		w.WriteString(s.Pattern)
		if len(s.Suffixes) > 0 {
			w.WriteByte('|')
			w.WriteString(suffixList(s))
		}
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("patterns", func() Formatter {
		return &PatternsFormatter{}
	})
}

// Ensure PatternsFormatter implements Formatter.
var _ Formatter = (*PatternsFormatter)(nil)
