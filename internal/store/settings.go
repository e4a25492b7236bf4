package store

import (
	"database/sql"
	"errors"
	"time"
)

// Keys persisted by the preferences layer.
const (
	SettingVolume       = "volume"
	SettingOnlineSearch = "online_search"
	SettingLooping      = "looping"
)

// SettingsRepo is a string key/value table for user preferences that
// outlive a process.
type SettingsRepo struct {
	db *DB
}

func NewSettingsRepo(db *DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

// Lookup reports the stored value and whether the key was present.
func (r *SettingsRepo) Lookup(key string) (string, bool, error) {
	var value string
	err := r.db.Get(&value, "SELECT value FROM settings WHERE key = ?", key)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case err != nil:
		return "", false, err
	}
	return value, true, nil
}

func (r *SettingsRepo) Set(key, value string) error {
	_, err := r.db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now())
	return err
}

func (r *SettingsRepo) Delete(key string) error {
	_, err := r.db.Exec("DELETE FROM settings WHERE key = ?", key)
	return err
}
