package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// DiskStore writes each RunResult as a JSON file named after its run ID.
type DiskStore struct {
	mu  sync.Mutex
	dir string
}

// NewDiskStore creates a DiskStore rooted at dir. An empty dir selects a
// temporary directory, created lazily on first use.
func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{dir: dir}
}

// Save writes a RunResult as a JSON file to disk.
func (s *DiskStore) Save(result *RunResult) error {
	path, err := s.path(result.ID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling run %s: %w", result.ID, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing run %s: %w", result.ID, err)
	}
	return nil
}

// Load reads a RunResult from disk.
func (s *DiskStore) Load(runID string) (*RunResult, error) {
	path, err := s.path(runID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run %s: %w", runID, err)
	}
	var result RunResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("unmarshalling run %s: %w", runID, err)
	}
	return &result, nil
}

// path maps a run ID to its file. Only UUIDs are accepted, so an ID can
// never name a file outside the store.
func (s *DiskStore) path(runID string) (string, error) {
	id, err := uuid.Parse(runID)
	if err != nil {
		return "", fmt.Errorf("invalid run id %q: %w", runID, err)
	}
	dir, err := s.ensureDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, id.String()+".json"), nil
}

func (s *DiskStore) ensureDir() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dir != "" {
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return "", fmt.Errorf("creating run directory: %w", err)
		}
		return s.dir, nil
	}
	dir, err := os.MkdirTemp("", "xarmour-runs-*")
	if err != nil {
		return "", fmt.Errorf("creating run directory: %w", err)
	}
	s.dir = dir
	return dir, nil
}
