package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestManager(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "a", "b")

	manager, err := NewManager(tempDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if info, err := os.Stat(tempDir); err != nil || !info.IsDir() {
		t.Fatalf("Expected output directory to be created with parents")
	}

	if manager.GetOutputDir() != tempDir {
		t.Errorf("Expected output directory %s, got %s", tempDir, manager.GetOutputDir())
	}

	file, path, err := manager.Create("game.zip")
	if err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	if _, err := file.Write([]byte("payload")); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}
	file.Close()

	if path != filepath.Join(tempDir, "game.zip") {
		t.Errorf("Unexpected path %s", path)
	}

	if err := manager.Remove(path); err != nil {
		t.Fatalf("Failed to remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected file to be removed")
	}

	if err := manager.Remove(path); err != nil {
		t.Errorf("Removing a missing file should not fail: %v", err)
	}
}

func TestNewManagerDefaultsToWorkingDirectory(t *testing.T) {
	manager, err := NewManager("")
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	if manager.GetOutputDir() != "." {
		t.Errorf("Expected output directory ., got %s", manager.GetOutputDir())
	}
}

func TestCreateTruncatesExisting(t *testing.T) {
	tempDir := t.TempDir()
	manager, err := NewManager(tempDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	existing := filepath.Join(tempDir, "game.zip")
	if err := os.WriteFile(existing, []byte("a much longer previous content"), 0644); err != nil {
		t.Fatalf("Failed to seed file: %v", err)
	}

	file, _, err := manager.Create("game.zip")
	if err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	file.Write([]byte("new"))
	file.Close()

	content, _ := os.ReadFile(existing)
	if string(content) != "new" {
		t.Errorf("Expected truncated content \"new\", got %q", content)
	}
}

func TestSafeName(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"game.zip", "game.zip", false},
		{"../../etc/passwd", "passwd", false},
		{"/abs/path/rom.7z", "rom.7z", false},
		{`..\..\win.zip`, "win.zip", false},
		{"..", "", true},
		{"", "", true},
		{"/", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := SafeName(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("SafeName(%q) expected error, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("SafeName(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("SafeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
