package quota

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Record is one caller's usage for a single day. Date is a day key, records
// from a previous day are discarded on read.
type Record struct {
	Count int    `json:"count"`
	Date  string `json:"date"`
}

// Store persists usage records keyed by caller. Implementations may fail to
// load corrupt state, the governor treats that as a fresh day.
type Store interface {
	Load() (map[string]Record, error)
	Save(map[string]Record) error
}

type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	return &FileStore{path: path}, nil
}

func (f *FileStore) Load() (map[string]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return map[string]Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read usage file: %w", err)
	}

	records := map[string]Record{}
	if len(data) == 0 {
		return records, nil
	}

	if err = json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse usage file: %w", err)
	}

	return records, nil
}

func (f *FileStore) Save(records map[string]Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal usage records: %w", err)
	}

	if err = os.WriteFile(f.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write usage file: %w", err)
	}

	return nil
}
