package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cesargomez89/resonate/internal/domain"
)

func (db *DB) CreatePlaylist(name string) (*domain.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("playlist name cannot be empty")
	}

	pl := &domain.Playlist{Name: name, CreatedAt: time.Now()}
	result, err := db.Exec("INSERT INTO playlists (name, created_at) VALUES (?, ?)", pl.Name, pl.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}

	pl.ID, err = result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return pl, nil
}

func (db *DB) ListPlaylists() ([]domain.Playlist, error) {
	var playlists []domain.Playlist
	if err := db.Select(&playlists, "SELECT id, name, created_at FROM playlists ORDER BY name"); err != nil {
		return nil, err
	}
	return playlists, nil
}

func (db *DB) SearchPlaylists(name string) ([]domain.Playlist, error) {
	var playlists []domain.Playlist
	like := "%" + escapeLike(strings.TrimSpace(name)) + "%"
	if err := db.Select(&playlists, `SELECT id, name, created_at FROM playlists WHERE name LIKE ? ESCAPE '\' ORDER BY name`, like); err != nil {
		return nil, err
	}
	return playlists, nil
}

// GetPlaylist loads a playlist together with its songs in insertion order.
func (db *DB) GetPlaylist(id int64) (*domain.Playlist, error) {
	var pl domain.Playlist
	err := db.Get(&pl, "SELECT id, name, created_at FROM playlists WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	query := `SELECT s.id, s.external_id, s.name, s.artist, s.album, s.duration, s.file, s.cover, s.created_at, s.updated_at
		FROM playlist_songs ps
		JOIN songs s ON s.id = ps.song_id
		WHERE ps.playlist_id = ?
		ORDER BY ps.position`
	if err := db.Select(&pl.Songs, query, id); err != nil {
		return nil, fmt.Errorf("failed to load playlist songs: %w", err)
	}
	return &pl, nil
}

// AddSongToPlaylist appends the song; adding a song twice is a no-op.
func (db *DB) AddSongToPlaylist(playlistID, songID int64) error {
	_, err := db.Exec(`INSERT OR IGNORE INTO playlist_songs (playlist_id, song_id, position)
		VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM playlist_songs WHERE playlist_id = ?))`,
		playlistID, songID, playlistID)
	if err != nil {
		return fmt.Errorf("failed to add song to playlist: %w", err)
	}
	return nil
}

func (db *DB) RemoveSongFromPlaylist(playlistID, songID int64) error {
	_, err := db.Exec("DELETE FROM playlist_songs WHERE playlist_id = ? AND song_id = ?", playlistID, songID)
	return err
}

func (db *DB) DeletePlaylist(id int64) error {
	_, err := db.Exec("DELETE FROM playlists WHERE id = ?", id)
	return err
}
