package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cesargomez89/resonate/internal/domain"
)

const songColumns = `id, external_id, name, artist, album, duration, file, cover, created_at, updated_at`

func (db *DB) CreateSong(song *domain.Song) error {
	song.Normalize()
	if song.ID == "" {
		return fmt.Errorf("song %q has no external id", song.Name)
	}

	now := time.Now()
	song.CreatedAt = now
	song.UpdatedAt = now

	query := `INSERT INTO songs (external_id, name, artist, album, duration, file, cover, created_at, updated_at)
		VALUES (:external_id, :name, :artist, :album, :duration, :file, :cover, :created_at, :updated_at)
		RETURNING id`

	rows, err := db.NamedQuery(query, song)
	if err != nil {
		return fmt.Errorf("failed to create song: %w", err)
	}
	defer rows.Close() //nolint:errcheck // deferred cleanup

	if rows.Next() {
		if err := rows.Scan(&song.SQLID); err != nil {
			return fmt.Errorf("failed to scan song id: %w", err)
		}
	} else if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating returning rows: %w", err)
	}

	return nil
}

// CacheSongs inserts every song whose external id is unknown and returns the
// input with SQL ids (and any already recorded file) filled in.
func (db *DB) CacheSongs(songs []domain.Song) ([]domain.Song, error) {
	if len(songs) == 0 {
		return nil, nil
	}

	tx, err := db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	now := time.Now()
	out := make([]domain.Song, 0, len(songs))
	for _, s := range songs {
		s.Normalize()
		if s.ID == "" {
			return nil, fmt.Errorf("song %q has no external id", s.Name)
		}

		_, err := tx.Exec(`INSERT INTO songs (external_id, name, artist, album, duration, file, cover, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(external_id) DO NOTHING`,
			s.ID, s.Name, s.Artist, s.Album, s.Duration, s.File, s.Cover, now, now)
		if err != nil {
			return nil, fmt.Errorf("failed to cache song %s: %w", s.ID, err)
		}

		var stored domain.Song
		if err := tx.Get(&stored, "SELECT "+songColumns+" FROM songs WHERE external_id = ?", s.ID); err != nil {
			return nil, fmt.Errorf("failed to reload song %s: %w", s.ID, err)
		}
		if stored.File == "" && s.File != "" {
			if _, err := tx.Exec("UPDATE songs SET file = ?, updated_at = ? WHERE id = ?", s.File, now, stored.SQLID); err != nil {
				return nil, fmt.Errorf("failed to record file for %s: %w", s.ID, err)
			}
			stored.File = s.File
		}
		out = append(out, stored)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit songs: %w", err)
	}
	return out, nil
}

func (db *DB) GetSong(id int64) (*domain.Song, error) {
	var song domain.Song
	err := db.Get(&song, "SELECT "+songColumns+" FROM songs WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &song, nil
}

func (db *DB) GetSongByExternalID(externalID string) (*domain.Song, error) {
	var song domain.Song
	err := db.Get(&song, "SELECT "+songColumns+" FROM songs WHERE external_id = ?", externalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &song, nil
}

// SearchSongs matches every whitespace separated term against name, artist
// or album.
func (db *DB) SearchSongs(text string, limit int) ([]domain.Song, error) {
	terms := strings.Fields(text)
	if len(terms) == 0 {
		return nil, nil
	}

	var (
		clauses []string
		args    []interface{}
	)
	for _, term := range terms {
		like := "%" + escapeLike(term) + "%"
		clauses = append(clauses, `(name LIKE ? ESCAPE '\' OR artist LIKE ? ESCAPE '\' OR album LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like)
	}
	args = append(args, limit)

	query := "SELECT " + songColumns + " FROM songs WHERE " + strings.Join(clauses, " AND ") + " ORDER BY name, id LIMIT ?"

	var songs []domain.Song
	if err := db.Select(&songs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to search songs: %w", err)
	}
	return songs, nil
}

func (db *DB) ListSongs() ([]domain.Song, error) {
	var songs []domain.Song
	if err := db.Select(&songs, "SELECT "+songColumns+" FROM songs ORDER BY name, id"); err != nil {
		return nil, err
	}
	return songs, nil
}

func (db *DB) ExternalIDs() (map[string]struct{}, error) {
	var ids []string
	if err := db.Select(&ids, "SELECT external_id FROM songs"); err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
	}
	return known, nil
}

// SetSongFile records the local file of a song, addressed by SQL id when
// known and by external id otherwise.
func (db *DB) SetSongFile(song domain.Song) error {
	var (
		result sql.Result
		err    error
	)
	if song.SQLID != 0 {
		result, err = db.Exec("UPDATE songs SET file = ?, updated_at = ? WHERE id = ?", song.File, time.Now(), song.SQLID)
	} else {
		result, err = db.Exec("UPDATE songs SET file = ?, updated_at = ? WHERE external_id = ?", song.File, time.Now(), song.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update song file: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("song %s not found", song.Key())
	}
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
