package store

import (
	"database/sql"
	"errors"
	"time"
)

// GetCache returns the payload stored under key, or nil when the entry is
// missing or past its expiry.
func (db *DB) GetCache(key string) ([]byte, error) {
	var data []byte
	err := db.Get(&data, `
		SELECT data FROM cache
		WHERE key = ? AND (expires_at IS NULL OR expires_at > ?)
	`, key, time.Now())
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return data, nil
}

// SetCache upserts key. A non-positive ttl never expires.
func (db *DB) SetCache(key string, data []byte, ttl time.Duration) error {
	var expiry sql.NullTime
	if ttl > 0 {
		expiry = sql.NullTime{Time: time.Now().Add(ttl), Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO cache (key, data, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at
	`, key, data, expiry)
	return err
}

// PurgeExpiredCache drops stale catalog responses and reports how many went.
func (db *DB) PurgeExpiredCache() (int64, error) {
	res, err := db.Exec("DELETE FROM cache WHERE expires_at IS NOT NULL AND expires_at <= ?", time.Now())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (db *DB) ClearCache() error {
	_, err := db.Exec("DELETE FROM cache")
	return err
}
