package market

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/napolitain/solver-mutations/internal/models"
)

type snapshotFile struct {
	SavedAt time.Time     `json:"saved_at"`
	Prices  models.Prices `json:"prices"`
}

// Snapshot persists the last good prices to a JSON file
type Snapshot struct {
	path string
}

func NewSnapshot(path string) *Snapshot {
	return &Snapshot{path: path}
}

func (s *Snapshot) Path() string {
	return s.path
}

// Load reads the snapshot; a bare name -> quote object is also accepted
func (s *Snapshot) Load() (models.Prices, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read price snapshot: %w", err)
	}

	var file snapshotFile
	if err := json.Unmarshal(raw, &file); err == nil && file.Prices != nil {
		return file.Prices, nil
	}
	var prices models.Prices
	if err := json.Unmarshal(raw, &prices); err != nil {
		return nil, fmt.Errorf("failed to parse price snapshot: %w", err)
	}
	return prices, nil
}

// Save writes atomically through a temp file in the same directory
func (s *Snapshot) Save(prices models.Prices) error {
	raw, err := json.MarshalIndent(snapshotFile{SavedAt: time.Now().UTC(), Prices: prices}, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".prices-*.json")
	if err != nil {
		return fmt.Errorf("failed to write price snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write price snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write price snapshot: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}
