package tagging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/cesargomez89/resonate/internal/domain"
)

func testCover(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode failed: %v", err)
	}
	return buf.Bytes()
}

func TestNewVorbisComment(t *testing.T) {
	song := domain.Song{
		ID:     "dQw4w9WgXcQ",
		Name:   "Test Title",
		Artist: "Solo Artist",
		Album:  "Test Album",
	}

	vc, err := newVorbisComment(song)
	if err != nil {
		t.Fatalf("newVorbisComment failed: %v", err)
	}
	if vc.Vendor != vendor {
		t.Errorf("Expected vendor %q, got %q", vendor, vc.Vendor)
	}

	check := func(name, expected string) {
		t.Helper()
		target := fmt.Sprintf("%s=%s", name, expected)
		for _, entry := range vc.Comments {
			if entry == target {
				return
			}
		}
		t.Errorf("Field %s not found in VorbisComment", target)
	}

	check("TITLE", "Test Title")
	check("ARTIST", "Solo Artist")
	check("ALBUM", "Test Album")
	check("URL", "https://music.youtube.com/watch?v=dQw4w9WgXcQ")
}

func TestNewVorbisComment_SkipsEmptyAndLocal(t *testing.T) {
	vc, err := newVorbisComment(domain.Song{ID: "local-123", Name: "Only Title"})
	if err != nil {
		t.Fatalf("newVorbisComment failed: %v", err)
	}
	if len(vc.Comments) != 1 {
		t.Errorf("Expected only the title comment, got %v", vc.Comments)
	}
}

func TestDetectMIME(t *testing.T) {
	if got := detectMIME(testCover(t)); got != "image/png" {
		t.Errorf("Expected image/png, got %s", got)
	}
	if got := detectMIME([]byte("plain text")); got != "text/plain" {
		t.Errorf("Expected parameters to be trimmed, got %s", got)
	}
}

func TestTagFile_Unsupported(t *testing.T) {
	if err := TagFile("song.ogg", domain.Song{Name: "x"}, nil); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestTagFile_InvalidFLAC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.flac")
	if err := os.WriteFile(path, []byte("not a flac stream"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := TagFile(path, domain.Song{Name: "x"}, nil); err == nil {
		t.Error("Expected error for invalid FLAC file")
	}
}

func TestTagFile_MP3RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.mp3")
	if err := os.WriteFile(path, make([]byte, 512), 0644); err != nil {
		t.Fatal(err)
	}

	song := domain.Song{ID: "abc", Name: "Round Trip", Artist: "Tester", Album: "Fixtures"}
	if err := TagFile(path, song, testCover(t)); err != nil {
		t.Fatalf("TagFile failed: %v", err)
	}

	md, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if md.Title != "Round Trip" {
		t.Errorf("Expected title Round Trip, got %q", md.Title)
	}
	if md.Artist != "Tester" {
		t.Errorf("Expected artist Tester, got %q", md.Artist)
	}
	if md.Album != "Fixtures" {
		t.Errorf("Expected album Fixtures, got %q", md.Album)
	}
	if len(md.Cover) == 0 {
		t.Error("Expected cover art to be read back")
	}
}

func TestRead_Untagged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "field recording.mp3")
	if err := os.WriteFile(path, make([]byte, 512), 0644); err != nil {
		t.Fatal(err)
	}

	md, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if md.Title != "field recording" {
		t.Errorf("Expected title from file name, got %q", md.Title)
	}
}

func TestRead_Missing(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "missing.mp3")); err == nil {
		t.Error("Expected error for missing file")
	}
}
