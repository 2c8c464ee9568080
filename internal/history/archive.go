package history

import (
	"fmt"
	"os"
	"path/filepath"
)

// Archive keeps a copy of each batch's source invoice files so a run's
// inputs stay reproducible after the originals move on
type Archive struct {
	basePath string
}

// NewArchive creates an Archive rooted at basePath
func NewArchive(basePath string) (*Archive, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	return &Archive{basePath: basePath}, nil
}

// Store copies the given files into the archive under the run's ID and
// returns the archived paths
func (a *Archive) Store(runID string, files []string) ([]string, error) {
	runDir := filepath.Join(a.basePath, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("creating run directory: %w", err)
	}

	archived := make([]string, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}

		dest := filepath.Join(runDir, filepath.Base(file))
		if err := os.WriteFile(dest, data, 0644); err != nil {
			return nil, fmt.Errorf("archiving %s: %w", file, err)
		}
		archived = append(archived, dest)
	}

	return archived, nil
}

// Get retrieves an archived file by its run ID and base name
func (a *Archive) Get(runID string, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(a.basePath, runID, name))
	if err != nil {
		return nil, fmt.Errorf("reading archived file: %w", err)
	}
	return data, nil
}
