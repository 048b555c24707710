package output

import (
	"bytes"
	"encoding/json"
)

// document is the structured form shared by the JSON and YAML formatters.
type document struct {
	Meta       documentMeta  `json:"meta" yaml:"meta"`
	Stats      documentStats `json:"stats" yaml:"stats"`
	Unexpected []File        `json:"unexpected" yaml:"unexpected"`
	Unused     []Stale       `json:"unused" yaml:"unused"`
	Written    []string      `json:"written,omitempty" yaml:"written,omitempty"`
	Warnings   []string      `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

type documentMeta struct {
	RunID    string `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Root     string `json:"root" yaml:"root"`
	Baseline string `json:"baseline" yaml:"baseline"`
	Suffix   string `json:"suffix,omitempty" yaml:"suffix,omitempty"`
	Passed   bool   `json:"passed" yaml:"passed"`
}

type documentStats struct {
	Checked     int64  `json:"checked" yaml:"checked"`
	DirsScanned int64  `json:"dirs_scanned" yaml:"dirs_scanned"`
	Excluded    int    `json:"excluded" yaml:"excluded"`
	Unexpected  int    `json:"unexpected" yaml:"unexpected"`
	Entries     int    `json:"entries" yaml:"entries"`
	Used        int    `json:"used" yaml:"used"`
	Partial     int    `json:"partial" yaml:"partial"`
	Unused      int    `json:"unused" yaml:"unused"`
	Duration    string `json:"duration" yaml:"duration"`
}

func buildDocument(r *Report) document {
	unexpected := r.Unexpected
	if unexpected == nil {
		unexpected = []File{}
	}
	unused := r.Unused
	if unused == nil {
		unused = []Stale{}
	}

	return document{
		Meta: documentMeta{
			RunID:    r.RunID,
			Root:     r.Root,
			Baseline: r.Baseline,
			Suffix:   r.Suffix,
			Passed:   r.Passed(),
		},
		Stats: documentStats{
			Checked:     r.Stats.Checked,
			DirsScanned: r.Stats.DirsScanned,
			Excluded:    r.Stats.Excluded,
			Unexpected:  r.Stats.Unexpected,
			Entries:     r.Stats.Entries,
			Used:        r.Stats.Used,
			Partial:     r.Stats.Partial,
			Unused:      r.Stats.Unused,
			Duration:    r.Stats.Duration.String(),
		},
		Unexpected: unexpected,
		Unused:     unused,
		Written:    r.Written,
		Warnings:   r.Warnings,
	}
}

// JSONFormatter formats the report as a single indented JSON object.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildDocument(r))
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)

// JSONLFormatter writes one compact JSON object per finding, tagged with
// its kind, for streaming into tools like jq.
type JSONLFormatter struct{}

type jsonlRecord struct {
	Kind string `json:"kind"`
	*File
	*Stale
}

// Format writes the formatted output to the buffer.
func (f *JSONLFormatter) Format(w *bytes.Buffer, r *Report) error {
	for i := range r.Unexpected {
		if err := writeJSONL(w, jsonlRecord{Kind: "unexpected", File: &r.Unexpected[i]}); err != nil {
			return err
		}
	}
	for i := range r.Unused {
		if err := writeJSONL(w, jsonlRecord{Kind: "unused", Stale: &r.Unused[i]}); err != nil {
			return err
		}
	}
	return nil
}

func writeJSONL(w *bytes.Buffer, rec jsonlRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	w.Write(data)
	w.WriteByte('\n')
	return nil
}

func init() {
	Register("jsonl", func() Formatter {
		return &JSONLFormatter{}
	})
}

// Ensure JSONLFormatter implements Formatter.
var _ Formatter = (*JSONLFormatter)(nil)
