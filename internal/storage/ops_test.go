package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Normal Name", "Normal Name"},
		{"Slash/Name", "SlashName"},
		{"Colon:Name", "ColonName"},
		{"Trailing Dot.", "Trailing Dot"},
		{"AC/DC", "ACDC"},
		{"<Invalid>", "Invalid"},
	}

	for _, tt := range tests {
		got := Sanitize(tt.input)
		if got != tt.expected {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "song.mp3")

	if FileExists(path) {
		t.Error("Expected missing file to not exist")
	}
	if FileExists(dir) {
		t.Error("Expected directory to not count as a file")
	}

	if err := WriteFile(path, []byte("data")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if !FileExists(path) {
		t.Error("Expected written file to exist")
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp3")
	dst := filepath.Join(dir, "nested", "dst.mp3")

	if err := WriteFile(src, []byte("audio bytes")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile failed: %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "audio bytes" {
		t.Errorf("Expected copied content, got %q", data)
	}

	srcHash, _ := HashFile(src)
	dstHash, _ := HashFile(dst)
	if srcHash != dstHash {
		t.Error("Expected identical hashes after copy")
	}
}

func TestCopyFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := CopyFile(filepath.Join(dir, "nope"), filepath.Join(dir, "dst")); err == nil {
		t.Error("Expected error for missing source")
	}
}
