package app

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/cesargomez89/resonate/internal/constants"
	"github.com/cesargomez89/resonate/internal/domain"
	"github.com/cesargomez89/resonate/internal/logger"
	"github.com/cesargomez89/resonate/internal/storage"
	"github.com/cesargomez89/resonate/internal/store"
)

var ErrPlaylistNotFound = errors.New("playlist not found")

// Queuer receives songs for playback.
type Queuer interface {
	Queue(song domain.Song)
}

type PlaylistService struct {
	DB     *store.DB
	Dir    string
	Logger *logger.Logger
}

func NewPlaylistService(db *store.DB, dir string, log *logger.Logger) *PlaylistService {
	if log == nil {
		log = logger.Default()
	}
	return &PlaylistService{DB: db, Dir: dir, Logger: log.WithComponent("playlists")}
}

func (s *PlaylistService) Create(name string) (*domain.Playlist, error) {
	pl, err := s.DB.CreatePlaylist(strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	s.Logger.Info("Playlist created", "playlist_id", pl.ID, "name", pl.Name)
	return pl, nil
}

// Search lists every playlist when name is empty.
func (s *PlaylistService) Search(name string) ([]domain.Playlist, error) {
	if strings.TrimSpace(name) == "" {
		return s.DB.ListPlaylists()
	}
	return s.DB.SearchPlaylists(name)
}

func (s *PlaylistService) Get(id int64) (*domain.Playlist, error) {
	pl, err := s.DB.GetPlaylist(id)
	if err != nil {
		return nil, err
	}
	if pl == nil {
		return nil, ErrPlaylistNotFound
	}
	return pl, nil
}

func (s *PlaylistService) AddSong(playlistID, songID int64) error {
	if _, err := s.Get(playlistID); err != nil {
		return err
	}
	return s.DB.AddSongToPlaylist(playlistID, songID)
}

func (s *PlaylistService) RemoveSong(playlistID, songID int64) error {
	return s.DB.RemoveSongFromPlaylist(playlistID, songID)
}

func (s *PlaylistService) Delete(id int64) error {
	return s.DB.DeletePlaylist(id)
}

// Shuffle appends the downloaded songs of a playlist to q in random order and
// returns how many were queued.
func (s *PlaylistService) Shuffle(id int64, q Queuer) (int, error) {
	pl, err := s.Get(id)
	if err != nil {
		return 0, err
	}

	songs := make([]domain.Song, 0, len(pl.Songs))
	for _, song := range pl.Songs {
		if song.Downloaded() {
			songs = append(songs, song)
		}
	}
	rand.Shuffle(len(songs), func(i, j int) {
		songs[i], songs[j] = songs[j], songs[i]
	})

	for _, song := range songs {
		q.Queue(song)
	}
	s.Logger.Info("Playlist shuffled into queue", "playlist_id", id, "queued", len(songs))
	return len(songs), nil
}

// Export writes the downloaded songs of a playlist as an m3u file next to the
// library and returns its path.
func (s *PlaylistService) Export(id int64) (string, error) {
	pl, err := s.Get(id)
	if err != nil {
		return "", err
	}

	playlistPath := storage.PlaylistPath(s.Dir, pl.Name)
	if err := storage.EnsureDir(filepath.Dir(playlistPath)); err != nil {
		return "", fmt.Errorf("failed to create playlists directory: %w", err)
	}

	f, err := os.Create(playlistPath) //nolint:gosec
	if err != nil {
		return "", fmt.Errorf("failed to create playlist file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString("#EXTM3U\n"); err != nil {
		return "", fmt.Errorf("failed to write playlist header: %w", err)
	}

	for _, song := range pl.Songs {
		if !song.Downloaded() {
			continue
		}
		relPath, err := filepath.Rel(filepath.Join(s.Dir, constants.PlaylistsDir), song.File)
		if err != nil {
			relPath = song.File
		}
		line := fmt.Sprintf("#EXTINF:%d,%s - %s\n%s\n", song.Duration, song.Artist, song.Name, filepath.ToSlash(relPath))
		if _, err := f.WriteString(line); err != nil {
			return "", fmt.Errorf("failed to write song to playlist: %w", err)
		}
	}

	return playlistPath, nil
}
