package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/srimandarbha/conntracker/internal/snapshot"
)

// FileReporter rewrites a pretty-printed JSON document on every cycle.
// The write goes to a temp file which is renamed into place, so readers
// never observe a partial document.
type FileReporter struct {
	path string
}

func NewFileReporter(path string) *FileReporter {
	return &FileReporter{path: path}
}

func (r *FileReporter) Report(snap snapshot.Snapshot) error {
	payload, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", r.path, err)
	}

	return nil
}

func (r *FileReporter) Close() error { return nil }
