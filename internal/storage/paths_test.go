package storage

import (
	"path/filepath"
	"testing"
)

func TestAudioPath(t *testing.T) {
	if got := AudioPath("/music", "dQw4w9WgXcQ"); got != filepath.Join("/music", "dQw4w9WgXcQ.mp3") {
		t.Errorf("AudioPath() = %s", got)
	}
}

func TestLibraryPath(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{".FLAC", filepath.Join("/music", "local-1.flac")},
		{"mp3", filepath.Join("/music", "local-1.mp3")},
		{"", filepath.Join("/music", "local-1")},
	}
	for _, tt := range tests {
		if got := LibraryPath("/music", "local-1", tt.ext); got != tt.want {
			t.Errorf("LibraryPath(%q) = %s, want %s", tt.ext, got, tt.want)
		}
	}
}

func TestPlaylistPath(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Road Trip", filepath.Join("/music", "playlists", "Road Trip.m3u")},
		{"AC/DC: Best?", filepath.Join("/music", "playlists", "ACDC Best.m3u")},
		{"...", filepath.Join("/music", "playlists", "playlist.m3u")},
	}
	for _, tt := range tests {
		if got := PlaylistPath("/music", tt.name); got != tt.want {
			t.Errorf("PlaylistPath(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestParseExtension(t *testing.T) {
	if ParseExtension("flac") != ".flac" || ParseExtension(".mp3") != ".mp3" || ParseExtension("") != "" {
		t.Error("ParseExtension mismatch")
	}
}
