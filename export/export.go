package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"votechain/models"
)

// Snapshot is a read-only dump of a chain for inspection. It is never loaded
// back.
type Snapshot struct {
	CreatedAt  time.Time       `json:"created_at"`
	Difficulty int             `json:"difficulty"`
	Valid      bool            `json:"valid"`
	Error      string          `json:"error,omitempty"`
	Results    map[string]int  `json:"results,omitempty"`
	Blocks     []*models.Block `json:"blocks"`
}

// WriteSnapshot writes snap as indented JSON. The file is replaced atomically.
func WriteSnapshot(path string, snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save snapshot file: %w", err)
	}
	return nil
}
