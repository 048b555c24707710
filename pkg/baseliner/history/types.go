// Package history records check runs in a Badger database so that
// results can be compared over time.
package history

import (
	"encoding/json"
	"time"
)

// Run is one recorded check.
type Run struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Root      string        `json:"root"`
	Baseline  string        `json:"baseline"`
	Suffix    string        `json:"suffix,omitempty"`
	Tag       string        `json:"tag,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
	Summary   Summary       `json:"summary"`

	// Unexpected lists files that no exclusion covered.
	Unexpected []string `json:"unexpected,omitempty"`
	// Unused lists exclusions that were never matched.
	Unused []Stale `json:"unused,omitempty"`
	// Written lists regenerated baseline files.
	Written []string `json:"written,omitempty"`
}

// Summary holds the counters of a run.
type Summary struct {
	Checked    int64 `json:"checked"`
	Excluded   int   `json:"excluded"`
	Unexpected int   `json:"unexpected"`
	Entries    int   `json:"entries"`
	Used       int   `json:"used"`
	Partial    int   `json:"partial"`
	Unused     int   `json:"unused"`
}

// Stale is an exclusion that still had unmatched suffixes after a run.
type Stale struct {
	File     string   `json:"file"`
	Pattern  string   `json:"pattern"`
	Line     int      `json:"line,omitempty"`
	Suffixes []string `json:"suffixes,omitempty"`
}

// Passed reports whether the run found neither unexpected files nor
// unused exclusions.
func (r *Run) Passed() bool {
	return r.Summary.Unexpected == 0 && r.Summary.Unused == 0 && r.Summary.Partial == 0
}

// Encode serializes the run for storage.
func (r *Run) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// Decode deserializes a stored run.
func (r *Run) Decode(data []byte) error {
	return json.Unmarshal(data, r)
}
