package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cesargomez89/resonate/internal/audio"
	"github.com/cesargomez89/resonate/internal/constants"
	"github.com/cesargomez89/resonate/internal/domain"
	"github.com/cesargomez89/resonate/internal/storage"
	"github.com/cesargomez89/resonate/internal/tagging"
)

var ErrImportSource = errors.New("cannot import file")

// ImportOptions override what the file's own tags say.
type ImportOptions struct {
	Name       string `json:"name"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	PlaylistID int64  `json:"playlist_id"`
}

// ImportFile copies a local audio file into the library under a local id
// derived from its content, tags it and caches it. Importing the same bytes
// again returns the song already in the library. The song is attached to
// opts.PlaylistID when set.
func (s *LibraryService) ImportFile(src string, opts ImportOptions) (domain.Song, error) {
	if !storage.FileExists(src) {
		return domain.Song{}, fmt.Errorf("%w: %s does not exist", ErrImportSource, src)
	}
	if !audio.Supported(src) {
		return domain.Song{}, fmt.Errorf("%w: %w", ErrImportSource, audio.ErrUnsupportedFormat)
	}

	sum, err := storage.HashFile(src)
	if err != nil {
		return domain.Song{}, fmt.Errorf("%w: %w", ErrImportSource, err)
	}
	id := constants.LocalIDPrefix + sum[:constants.LocalIDHashLen]

	existing, err := s.DB.GetSongByExternalID(id)
	if err != nil {
		return domain.Song{}, fmt.Errorf("failed to look up imported song: %w", err)
	}
	if existing != nil && existing.Downloaded() && storage.FileExists(existing.File) {
		log := s.Logger.WithSong(existing.ID, existing.Name)
		log.Info("File already imported", "file_path", existing.File)
		s.attach(opts.PlaylistID, *existing, log)
		return *existing, nil
	}

	md, err := tagging.Read(src)
	if err != nil {
		s.Logger.Warn("Failed to read tags, using file name", "file_path", src, "error", err)
	}

	song := domain.Song{
		ID:     id,
		Name:   firstNonEmpty(opts.Name, md.Title),
		Artist: firstNonEmpty(opts.Artist, md.Artist),
		Album:  firstNonEmpty(opts.Album, md.Album),
	}
	song.Normalize()
	if song.Name == "" {
		song.Name = strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	}

	if d, err := audio.Duration(src); err == nil {
		song.Duration = int(d.Seconds())
	} else {
		s.Logger.Warn("Failed to probe duration", "file_path", src, "error", err)
	}

	dir := s.Library.Directory()
	if err := storage.EnsureDir(dir); err != nil {
		return domain.Song{}, fmt.Errorf("failed to create library directory: %w", err)
	}
	dst := storage.LibraryPath(dir, song.ID, filepath.Ext(src))
	if err := storage.CopyFile(src, dst); err != nil {
		return domain.Song{}, fmt.Errorf("failed to copy into library: %w", err)
	}
	song.File = dst

	// wav has no tag writer; the database row is the source of truth anyway
	if ext := strings.ToLower(filepath.Ext(dst)); ext == constants.ExtMP3 || ext == constants.ExtFLAC {
		if err := tagging.TagFile(dst, song, md.Cover); err != nil {
			s.Logger.Warn("Failed to tag imported file", "file_path", dst, "error", err)
		}
	}

	cached, err := s.Library.CacheNewSongs([]domain.Song{song})
	if err != nil {
		if rmErr := storage.RemoveFile(dst); rmErr != nil {
			s.Logger.Warn("Failed to remove orphaned import", "file_path", dst, "error", rmErr)
		}
		return domain.Song{}, fmt.Errorf("failed to cache imported song: %w", err)
	}
	song = cached[0]

	log := s.Logger.WithSong(song.ID, song.Name)
	log.Info("File imported", "file_path", dst)
	s.attach(opts.PlaylistID, song, log)
	return song, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
