package tagging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// Metadata is what an imported file says about itself.
type Metadata struct {
	Title  string
	Artist string
	Album  string
	Cover  []byte
}

// Read extracts tags from an audio file. Files without tags yield metadata
// whose title is the base file name.
func Read(filePath string) (Metadata, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to open %s: %w", filePath, err)
	}
	defer f.Close()

	md := Metadata{Title: baseName(filePath)}

	m, err := tag.ReadFrom(f)
	if errors.Is(err, tag.ErrNoTagsFound) {
		return md, nil
	}
	if err != nil {
		return md, fmt.Errorf("failed to read tags: %w", err)
	}

	if t := strings.TrimSpace(m.Title()); t != "" {
		md.Title = t
	}
	md.Artist = strings.TrimSpace(m.Artist())
	if md.Artist == "" {
		md.Artist = strings.TrimSpace(m.AlbumArtist())
	}
	md.Album = strings.TrimSpace(m.Album())
	if pic := m.Picture(); pic != nil {
		md.Cover = pic.Data
	}
	return md, nil
}

func baseName(filePath string) string {
	base := filepath.Base(filePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
