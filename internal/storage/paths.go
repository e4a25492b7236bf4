package storage

import (
	"path/filepath"
	"strings"

	"github.com/cesargomez89/resonate/internal/constants"
)

// AudioPath is where the downloaded audio of an external id lives.
func AudioPath(dir, externalID string) string {
	return filepath.Join(dir, externalID+constants.ExtMP3)
}

// LibraryPath places a file named after id with the given extension in dir.
func LibraryPath(dir, id, ext string) string {
	return filepath.Join(dir, id+ParseExtension(strings.ToLower(ext)))
}

// PlaylistPath is the m3u file for a playlist inside the library.
func PlaylistPath(dir, name string) string {
	base := Sanitize(name)
	if base == "" {
		base = "playlist"
	}
	return filepath.Join(dir, constants.PlaylistsDir, base+constants.ExtM3U)
}

// ParseExtension parses an extension string, ensuring it starts with a dot
func ParseExtension(ext string) string {
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		return "." + ext
	}
	return ext
}
