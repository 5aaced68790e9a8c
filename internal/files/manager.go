// Package files stores uploaded spreadsheet blobs on the local
// filesystem and hands their bytes back to the pipeline.
package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Manager reads and writes upload blobs under a base directory. Storage
// paths handed out by Save are relative to that directory, so records
// stay valid when the directory moves.
type Manager struct {
	baseDir string
}

// NewManager creates a blob manager rooted at baseDir, creating the
// directory if needed.
func NewManager(baseDir string) (*Manager, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("upload directory not configured")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Manager{baseDir: baseDir}, nil
}

// Save writes an upload blob and returns its storage path. The id keeps
// paths unique across identically-named uploads.
func (m *Manager) Save(id, filename string, data []byte) (string, error) {
	rel := filepath.Join(id, filepath.Base(filename))
	full := filepath.Join(m.baseDir, rel)

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create blob directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	return rel, nil
}

// Read loads a blob by its storage path.
func (m *Manager) Read(storagePath string) ([]byte, error) {
	clean := filepath.Clean(storagePath)
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return nil, fmt.Errorf("invalid storage path: %s", storagePath)
	}

	data, err := os.ReadFile(filepath.Join(m.baseDir, clean))
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", storagePath, err)
	}
	return data, nil
}
