package driver

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// RunRecord records one completed timing run for the history file.
type RunRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Command   string    `json:"command"`
	Allocator string    `json:"allocator"`
	Timer     TimerKind `json:"timer"`
	Samples   []Sample  `json:"samples"`
}

// Store persists timing runs across driver invocations.
type Store interface {
	Save(run RunRecord) error
	LoadLatest() (*RunRecord, error)
	LoadAll() ([]RunRecord, error)
}

// FileStore implements Store using a JSON file.
type FileStore struct {
	path string
}

func NewFileStore(path string) (*FileStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Save(run RunRecord) error {
	runs, err := s.LoadAll()
	if err != nil {
		return err
	}

	runs = append(runs, run)

	data, err := json.MarshalIndent(runs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal runs: %w", err)
	}
	return os.WriteFile(s.path, data, 0644)
}

func (s *FileStore) LoadAll() ([]RunRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunRecord{}, nil
		}
		return nil, err
	}

	var runs []RunRecord
	if len(data) == 0 {
		return []RunRecord{}, nil
	}
	if err := json.Unmarshal(data, &runs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal runs: %w", err)
	}

	// Sort by timestamp just in case
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})

	return runs, nil
}

func (s *FileStore) LoadLatest() (*RunRecord, error) {
	runs, err := s.LoadAll()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[len(runs)-1], nil
}
