package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Manager handles writes into the destination directory. Every save goes
// through a temporary file, is synced to disk, and is renamed into place,
// so a file that exists under its final name is always complete.
type Manager struct {
	outputDir string
	saved     int
	mu        sync.Mutex
}

// NewManager creates a new storage manager, creating the destination
// directory (including parents) if it does not exist.
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{
		outputDir: outputDir,
	}, nil
}

// SaveAsset writes the asset content to outputDir/filename, truncating any
// existing file of the same name. Concurrent saves to distinct filenames
// never contend; identical filenames resolve to last writer wins.
func (m *Manager) SaveAsset(r io.Reader, filename string) error {
	target := filepath.Join(m.outputDir, filename)
	tempFile := target + ".tmp"

	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	if err != nil {
		out.Close()
		os.Remove(tempFile)
		return fmt.Errorf("failed to save asset data: %w", err)
	}

	// Flush durably before the rename makes the file visible.
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(tempFile)
		return fmt.Errorf("failed to sync file: %w", err)
	}

	if err := out.Close(); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tempFile, target); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.saved++
	m.mu.Unlock()

	return nil
}

// GetOutputDir returns the destination directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// GetSavedCount returns the number of assets written in this run
func (m *Manager) GetSavedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved
}
