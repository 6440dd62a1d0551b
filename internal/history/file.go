package history

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

type fileRecords struct {
	Counts map[string]uint64 `json:"counts" toml:"counts"`
}

// FileStore keeps the history in a single TOML or JSON file, picked by
// the file extension (".json" is JSON, anything else TOML).
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) isJSON() bool {
	return strings.EqualFold(filepath.Ext(s.path), ".json")
}

func (s *FileStore) Load() (*History, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("[HISTORY] No existing history file, starting fresh")
			return New(), nil
		}
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	var records fileRecords
	if s.isJSON() {
		err = json.Unmarshal(data, &records)
	} else {
		err = toml.Unmarshal(data, &records)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}

	h := FromCounts(records.Counts)
	log.Printf("[HISTORY] Loaded %d usage records from %s", h.Len(), s.path)
	return h, nil
}

func (s *FileStore) Save(h *History) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	records := fileRecords{Counts: h.Counts()}

	var (
		data []byte
		err  error
	)
	if s.isJSON() {
		data, err = json.MarshalIndent(records, "", "  ")
	} else {
		data, err = toml.Marshal(records)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	tempFile := s.path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp history file: %w", err)
	}
	if err := os.Rename(tempFile, s.path); err != nil {
		return fmt.Errorf("failed to rename temp history file: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
