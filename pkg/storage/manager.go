package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Manager handles the import directory where generated .enex files and
// their companion marker files live.
type Manager struct {
	importDir string
}

// NewManager creates a manager for the given import directory.
func NewManager(importDir string) (*Manager, error) {
	if err := os.MkdirAll(importDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create import directory: %w", err)
	}
	return &Manager{importDir: importDir}, nil
}

// ImportDir returns the directory generated notes are written to.
func (m *Manager) ImportDir() string {
	return m.importDir
}

// PhotoNotePath returns the export path for a photo note. The space
// before the extension keeps titles appendable by hand, a convention
// the import workflow relies on.
func (m *Manager) PhotoNotePath(blogID, photoID string) string {
	return filepath.Join(m.importDir, fmt.Sprintf("%s %s .enex", blogID, photoID))
}

// BlogNotePath returns the export path for a blog note.
func (m *Manager) BlogNotePath(blogID string) string {
	return filepath.Join(m.importDir, fmt.Sprintf("%s .enex", blogID))
}

// WriteExport writes an export document atomically so a crashed run
// never leaves a half-written .enex behind.
func (m *Manager) WriteExport(path, content string) error {
	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename export file: %w", err)
	}
	return nil
}

// WriteDiagnostic writes a rendered body that needs inspection next to
// the export path, with the reason as a leading XML comment.
func (m *Manager) WriteDiagnostic(exportPath, reason, content string) (string, error) {
	path := replaceSuffix(exportPath, ".xml")
	body := fmt.Sprintf("<!-- %s -->\n%s", reason, content)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		return "", fmt.Errorf("failed to write diagnostic file: %w", err)
	}
	return path, nil
}

// StartMarker records the URL being worked on as <export>.txt before
// any network traffic happens. A marker left behind shows which note
// was in flight when a run died.
func (m *Manager) StartMarker(exportPath, url string) error {
	if err := os.WriteFile(markerPath(exportPath), []byte(url), 0644); err != nil {
		return fmt.Errorf("failed to write marker file: %w", err)
	}
	return nil
}

// FailMarker rewrites the marker with the failure details so the next
// manual pass over the import directory sees what went wrong.
func (m *Manager) FailMarker(exportPath, url string, cause error, details string) error {
	body := fmt.Sprintf("ERROR create-note failed\n\nurl: %s\nerror: %v\n\nerror details:\n%s",
		url, cause, details)
	if err := os.WriteFile(markerPath(exportPath), []byte(body), 0644); err != nil {
		return fmt.Errorf("failed to write marker file: %w", err)
	}
	return nil
}

// ClearMarker removes the marker after a successful export.
func (m *Manager) ClearMarker(exportPath string) error {
	err := os.Remove(markerPath(exportPath))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove marker file: %w", err)
	}
	return nil
}

func markerPath(exportPath string) string {
	return replaceSuffix(exportPath, ".txt")
}

func replaceSuffix(path, suffix string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + suffix
}
