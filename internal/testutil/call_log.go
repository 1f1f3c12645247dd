package testutil

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// CallRecord is one external command invocation seen by a fake runner.
type CallRecord struct {
	Method    string
	Args      []string
	Timestamp time.Time
	Response  string
	ExitCode  int
	Error     error
}

// CallLogEntry represents a single call record in YAML format.
// It wraps CallRecord for serialization, handling error and time formatting.
type CallLogEntry struct {
	Method    string   `yaml:"method"`
	Args      []string `yaml:"args,omitempty"`
	Timestamp string   `yaml:"timestamp"`
	Response  string   `yaml:"response,omitempty"`
	Error     string   `yaml:"error,omitempty"`
	ExitCode  int      `yaml:"exit_code"`
}

// CallLog wraps []CallLogEntry for YAML serialization.
type CallLog struct {
	Entries []CallLogEntry `yaml:"entries"`
}

// WriteCallLog writes a slice of CallRecords to a YAML file. Tests dump the
// log on failure so the exact command sequence can be inspected.
func WriteCallLog(path string, records []CallRecord) error {
	log := CallLog{
		Entries: make([]CallLogEntry, 0, len(records)),
	}
	for _, r := range records {
		entry := CallLogEntry{
			Method:    r.Method,
			Args:      r.Args,
			Timestamp: r.Timestamp.Format(time.RFC3339Nano),
			Response:  r.Response,
			ExitCode:  r.ExitCode,
		}
		if r.Error != nil {
			entry.Error = r.Error.Error()
		}
		log.Entries = append(log.Entries, entry)
	}

	data, err := yaml.Marshal(log)
	if err != nil {
		return fmt.Errorf("marshaling call log to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing call log to %s: %w", path, err)
	}

	return nil
}

// ReadCallLog reads a YAML call log file.
func ReadCallLog(path string) (*CallLog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading call log from %s: %w", path, err)
	}

	var log CallLog
	if err := yaml.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("unmarshaling call log YAML: %w", err)
	}

	return &log, nil
}

// HasError returns true if the entry has a non-empty error string.
func (e CallLogEntry) HasError() bool {
	return e.Error != ""
}
