package store

import (
	"github.com/cesargomez89/resonate/internal/domain"
)

// Library is the storage collaborator consumed by the search aggregator and
// the download bookkeeping. All calls go through the single DB connection.
type Library struct {
	db    *DB
	dir   string
	limit int
}

func NewLibrary(db *DB, dir string, limit int) *Library {
	return &Library{db: db, dir: dir, limit: limit}
}

func (l *Library) SearchCached(text string) ([]domain.Song, error) {
	return l.db.SearchSongs(text, l.limit)
}

func (l *Library) AllKnownIDs() (map[string]struct{}, error) {
	return l.db.ExternalIDs()
}

func (l *Library) CacheNewSongs(songs []domain.Song) ([]domain.Song, error) {
	return l.db.CacheSongs(songs)
}

func (l *Library) MarkDownloaded(song domain.Song) error {
	return l.db.SetSongFile(song)
}

func (l *Library) Directory() string {
	return l.dir
}
