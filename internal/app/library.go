package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/cesargomez89/resonate/internal/constants"
	"github.com/cesargomez89/resonate/internal/domain"
	"github.com/cesargomez89/resonate/internal/downloader"
	"github.com/cesargomez89/resonate/internal/httpclient"
	"github.com/cesargomez89/resonate/internal/logger"
	"github.com/cesargomez89/resonate/internal/storage"
	"github.com/cesargomez89/resonate/internal/store"
	"github.com/cesargomez89/resonate/internal/tagging"
)

// CoverFetcher returns the artwork at url.
type CoverFetcher func(ctx context.Context, url string) ([]byte, error)

// LibraryService keeps the store in step with the download scheduler.
type LibraryService struct {
	DB      *store.DB
	Library *store.Library
	Logger  *logger.Logger
	Covers  CoverFetcher
}

func NewLibraryService(db *store.DB, lib *store.Library, log *logger.Logger) *LibraryService {
	if log == nil {
		log = logger.Default()
	}
	return &LibraryService{
		DB:      db,
		Library: lib,
		Logger:  log.WithComponent("library"),
		Covers:  httpclient.New(nil, constants.DefaultCoverRate).GetBytes,
	}
}

// HandleDownloadEvent is registered with Scheduler.OnEvent.
func (s *LibraryService) HandleDownloadEvent(ev downloader.Event) {
	req := ev.Request
	log := s.Logger.WithRequest(req.ID, req.Song.ID)

	switch ev.Type {
	case downloader.EventCompleted:
		song, err := s.recordDownload(req.Song)
		if err != nil {
			log.Error("Failed to record download", "error", err)
			return
		}
		s.tag(song, log)
		s.attach(req.PlaylistID, song, log)

	case downloader.EventAlreadyDownloaded:
		s.attach(req.PlaylistID, req.Song, log)

	case downloader.EventFailed:
		log.Warn("Download not recorded", "error", ev.Err)
	}
}

// recordDownload persists the file of a song, caching it first when the
// search flow never did.
func (s *LibraryService) recordDownload(song domain.Song) (domain.Song, error) {
	existing, err := s.DB.GetSongByExternalID(song.ID)
	if err != nil {
		return song, err
	}
	if existing == nil {
		cached, err := s.Library.CacheNewSongs([]domain.Song{song})
		if err != nil {
			return song, fmt.Errorf("failed to cache song: %w", err)
		}
		if len(cached) == 1 {
			file := song.File
			song = cached[0]
			song.File = file
		}
	} else {
		file := song.File
		song = *existing
		song.File = file
	}

	if err := s.Library.MarkDownloaded(song); err != nil {
		return song, fmt.Errorf("failed to mark downloaded: %w", err)
	}
	return song, nil
}

// tag is best effort: an untagged file still plays.
func (s *LibraryService) tag(song domain.Song, log *logger.Logger) {
	var cover []byte
	if song.Cover != "" && s.Covers != nil {
		ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultHTTPTimeout)
		data, err := s.Covers(ctx, song.Cover)
		cancel()
		if err != nil {
			log.Warn("Failed to fetch cover", "error", err)
		}
		cover = data
	}

	if err := tagging.TagFile(song.File, song, cover); err != nil {
		log.Warn("Failed to tag file", "file_path", song.File, "error", err)
	}
}

func (s *LibraryService) attach(playlistID int64, song domain.Song, log *logger.Logger) {
	if playlistID == 0 {
		return
	}

	if song.SQLID == 0 {
		stored, err := s.DB.GetSongByExternalID(song.ID)
		if err != nil || stored == nil {
			log.Warn("Song not cached, cannot add to playlist", "playlist_id", playlistID, "error", err)
			return
		}
		song.SQLID = stored.SQLID
	}

	if err := s.DB.AddSongToPlaylist(playlistID, song.SQLID); err != nil {
		log.Error("Failed to add song to playlist", "playlist_id", playlistID, "error", err)
		return
	}
	log.Info("Song added to playlist", "playlist_id", playlistID)
}

// Songs dumps every cached song.
func (s *LibraryService) Songs() ([]domain.Song, error) {
	return s.DB.ListSongs()
}

func (s *LibraryService) Song(id int64) (*domain.Song, error) {
	return s.DB.GetSong(id)
}

// ClearCatalogCache forgets memoized remote lookups so the next online search
// asks the catalog again. Cached songs stay.
func (s *LibraryService) ClearCatalogCache() error {
	if err := s.DB.ClearCache(); err != nil {
		return fmt.Errorf("failed to clear catalog cache: %w", err)
	}
	s.Logger.Info("Catalog cache cleared")
	return nil
}

var (
	ErrSongNotFound = errors.New("song not found")
	ErrNotPlayable  = errors.New("song has not been downloaded")
)

// Resolve loads the stored copy of song, addressed by SQL id or external id,
// and checks that it can be played.
func (s *LibraryService) Resolve(song domain.Song) (domain.Song, error) {
	var (
		stored *domain.Song
		err    error
	)
	if song.SQLID != 0 {
		stored, err = s.DB.GetSong(song.SQLID)
	} else {
		stored, err = s.DB.GetSongByExternalID(song.ID)
	}
	if err != nil {
		return song, err
	}
	if stored == nil {
		return song, ErrSongNotFound
	}
	if !stored.Downloaded() || !storage.FileExists(stored.File) {
		return *stored, ErrNotPlayable
	}
	return *stored, nil
}

// NewDownloadRequest targets the library directory and carries over what the
// store already knows about song, so a downloaded song is recognised.
func (s *LibraryService) NewDownloadRequest(song domain.Song, playlistID int64) (domain.DownloadRequest, error) {
	stored, err := s.DB.GetSongByExternalID(song.ID)
	if err != nil {
		return domain.DownloadRequest{}, err
	}
	if stored != nil {
		song = *stored
		if song.Downloaded() && !storage.FileExists(song.File) {
			song.File = ""
		}
	}
	return domain.DownloadRequest{
		Song:       song,
		Directory:  s.Library.Directory(),
		PlaylistID: playlistID,
	}, nil
}
