package history

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"riceguard/models"
)

// Log is an append-only, newest-first record of detection results backed
// by a single JSON file. The whole file is read-modify-written on every
// append, so all writes go through one mutex to avoid lost updates under
// concurrent requests.
type Log struct {
	path string
	mu   sync.Mutex
}

// NewLog creates a history log stored at path.
func NewLog(path string) *Log {
	return &Log{path: path}
}

// Append prepends a result to the log, newest first.
func (l *Log) Append(result models.DetectionResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.readLocked()
	if err != nil {
		return err
	}

	records = append([]models.DetectionResult{result}, records...)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	// Write-then-rename keeps the log intact if the process dies mid-write.
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("failed to replace history: %w", err)
	}
	return nil
}

// List returns all records, newest first.
func (l *Log) List() ([]models.DetectionResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readLocked()
}

func (l *Log) readLocked() ([]models.DetectionResult, error) {
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return []models.DetectionResult{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	if len(data) == 0 {
		return []models.DetectionResult{}, nil
	}

	var records []models.DetectionResult
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}
	return records, nil
}
