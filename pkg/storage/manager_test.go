package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager(t *testing.T) {
	tempDir := t.TempDir()
	importDir := filepath.Join(tempDir, "import")

	manager, err := NewManager(importDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	// The constructor creates the import directory
	if _, err := os.Stat(importDir); err != nil {
		t.Fatalf("Import directory was not created: %v", err)
	}
	if manager.ImportDir() != importDir {
		t.Errorf("Expected import dir %q, got %q", importDir, manager.ImportDir())
	}
}

func TestExportPaths(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	photoPath := manager.PhotoNotePath("janedoe", "9001")
	if filepath.Base(photoPath) != "janedoe 9001 .enex" {
		t.Errorf("Unexpected photo note name: %q", filepath.Base(photoPath))
	}

	blogPath := manager.BlogNotePath("janedoe")
	if filepath.Base(blogPath) != "janedoe .enex" {
		t.Errorf("Unexpected blog note name: %q", filepath.Base(blogPath))
	}
}

func TestWriteExport(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	path := manager.PhotoNotePath("janedoe", "9001")
	if err := manager.WriteExport(path, "<en-export/>"); err != nil {
		t.Fatalf("Failed to write export: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read export: %v", err)
	}
	if string(data) != "<en-export/>" {
		t.Errorf("Unexpected export content: %q", data)
	}

	// No temp file is left behind
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("Expected temp file to be gone after rename")
	}
}

func TestMarkerLifecycle(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	path := manager.PhotoNotePath("janedoe", "9001")
	url := "https://www.flickr.com/photos/janedoe/9001/"

	if err := manager.StartMarker(path, url); err != nil {
		t.Fatalf("Failed to write marker: %v", err)
	}

	markerFile := strings.TrimSuffix(path, ".enex") + ".txt"
	data, err := os.ReadFile(markerFile)
	if err != nil {
		t.Fatalf("Failed to read marker: %v", err)
	}
	if string(data) != url {
		t.Errorf("Expected marker to hold the URL, got %q", data)
	}

	// Failure rewrites the marker with details
	cause := errors.New("photo not found")
	if err := manager.FailMarker(path, url, cause, "scanned 5000 positions"); err != nil {
		t.Fatalf("Failed to rewrite marker: %v", err)
	}
	data, err = os.ReadFile(markerFile)
	if err != nil {
		t.Fatalf("Failed to read marker: %v", err)
	}
	content := string(data)
	for _, want := range []string{"ERROR create-note failed", url, "photo not found", "scanned 5000 positions"} {
		if !strings.Contains(content, want) {
			t.Errorf("Marker missing %q in:\n%s", want, content)
		}
	}

	// Success removes the marker
	if err := manager.ClearMarker(path); err != nil {
		t.Fatalf("Failed to clear marker: %v", err)
	}
	if _, err := os.Stat(markerFile); !os.IsNotExist(err) {
		t.Error("Expected marker to be removed")
	}

	// Clearing twice is fine
	if err := manager.ClearMarker(path); err != nil {
		t.Errorf("Expected clearing a missing marker to succeed, got %v", err)
	}
}

func TestWriteDiagnostic(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	path := manager.PhotoNotePath("janedoe", "9001")
	diagPath, err := manager.WriteDiagnostic(path, "OK", "<en-note><div>x</div></en-note>")
	if err != nil {
		t.Fatalf("Failed to write diagnostic: %v", err)
	}

	if filepath.Base(diagPath) != "janedoe 9001 .xml" {
		t.Errorf("Unexpected diagnostic name: %q", filepath.Base(diagPath))
	}

	data, err := os.ReadFile(diagPath)
	if err != nil {
		t.Fatalf("Failed to read diagnostic: %v", err)
	}
	want := "<!-- OK -->\n<en-note><div>x</div></en-note>"
	if string(data) != want {
		t.Errorf("Unexpected diagnostic content:\n%s", data)
	}
}
