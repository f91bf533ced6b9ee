package history

import (
	"encoding/json"
	"fmt"
	"time"
)

// BackupVersion is the current backup document format version.
const BackupVersion = 1

// Backup is the export/import document: a versioned snapshot of the full
// run history.
type Backup struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	Records   []Record  `json:"records"`
}

// FormatError marks a backup document that failed shape validation.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid backup: %s", e.Reason)
}

// Export produces a backup document of the current history.
func (s *Store) Export() Backup {
	return Backup{
		Version:   BackupVersion,
		CreatedAt: time.Now().UTC(),
		Records:   s.List(),
	}
}

// Import validates a backup document and merges its records into the
// history. Existing records are never overwritten. Returns the number of
// records added.
func (s *Store) Import(data []byte) (int, error) {
	// Decode into a loose shape first so a wrong "records" type is a
	// format error rather than a generic JSON one.
	var probe struct {
		Version *int            `json:"version"`
		Records json.RawMessage `json:"records"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return 0, &FormatError{Reason: "not a JSON document"}
	}
	if probe.Version == nil {
		return 0, &FormatError{Reason: "missing version field"}
	}
	if *probe.Version != BackupVersion {
		return 0, &FormatError{Reason: fmt.Sprintf("unsupported version %d", *probe.Version)}
	}
	if len(probe.Records) == 0 {
		return 0, &FormatError{Reason: "missing records field"}
	}

	var records []Record
	if err := json.Unmarshal(probe.Records, &records); err != nil {
		return 0, &FormatError{Reason: "records is not a list of run records"}
	}

	return s.Merge(records)
}
