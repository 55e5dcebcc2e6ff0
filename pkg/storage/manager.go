package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Manager owns the output directory downloads are written into
type Manager struct {
	outputDir string
}

// NewManager creates a new storage manager, creating outputDir with
// parents when it does not exist yet
func NewManager(outputDir string) (*Manager, error) {
	if outputDir == "" {
		outputDir = "."
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{outputDir: outputDir}, nil
}

// SafeName confines a server-declared filename to a single path element
func SafeName(name string) (string, error) {
	base := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(name, "\\", "/")))
	if base == "/" || base == "." || base == ".." || base == "" {
		return "", fmt.Errorf("invalid filename %q", name)
	}
	return base, nil
}

// Path returns the destination path for name inside the output directory
func (m *Manager) Path(name string) (string, error) {
	base, err := SafeName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(m.outputDir, base), nil
}

// Create opens name for writing, truncating any existing file
func (m *Manager) Create(name string) (*os.File, string, error) {
	path, err := m.Path(name)
	if err != nil {
		return nil, "", err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create file: %w", err)
	}

	return file, path, nil
}

// Remove deletes a file previously created by the manager. A missing file
// is not an error.
func (m *Manager) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// GetOutputDir returns the output directory, "." when none was given
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}
