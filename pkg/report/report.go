// Package report collects the file names produced by a mirroring run
// and saves them as a pretty-printed JSON report.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultPath is where the report lands when no path is configured
const DefaultPath = "result.json"

// Entry is one mirrored file in the report
type Entry struct {
	FileName string `json:"file_name"`
}

// Report accumulates entries during a mirroring run
type Report struct {
	entries []Entry
}

// New creates an empty report
func New() *Report {
	return &Report{entries: make([]Entry, 0)}
}

// Append adds a file name to the end of the report
func (r *Report) Append(fileName string) {
	r.entries = append(r.entries, Entry{FileName: fileName})
}

// Len returns the number of entries collected so far
func (r *Report) Len() int {
	return len(r.entries)
}

// Entries returns a copy of the collected entries
func (r *Report) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Save writes the report as indented JSON, replacing the target file
// atomically so a failed run never leaves a truncated report behind.
func (r *Report) Save(path string) error {
	data, err := json.MarshalIndent(r.entries, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to replace report file: %w", err)
	}

	return nil
}
