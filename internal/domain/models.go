package domain

import (
	"fmt"
	"strings"
	"time"
)

// Song is a catalog entry. SQLID is zero until the song has been cached by the
// store; File is empty until the audio has been downloaded or imported.
type Song struct {
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	ID        string    `json:"id" db:"external_id"`
	Name      string    `json:"name" db:"name"`
	Artist    string    `json:"artist" db:"artist"`
	Album     string    `json:"album" db:"album"`
	File      string    `json:"file,omitempty" db:"file"`
	Cover     string    `json:"cover,omitempty" db:"cover"`
	SQLID     int64     `json:"sql_id" db:"id"`
	Duration  int       `json:"duration" db:"duration"`
}

// Key identifies a song independently of its metadata.
func (s Song) Key() string {
	if s.ID != "" {
		return "ext:" + s.ID
	}
	return fmt.Sprintf("sql:%d", s.SQLID)
}

// Same reports whether both values refer to the same catalog entry.
func (s Song) Same(other Song) bool {
	return s.Key() == other.Key()
}

// Downloaded reports whether a local file is attached.
func (s Song) Downloaded() bool {
	return s.File != ""
}

// Normalize trims metadata before it is persisted.
func (s *Song) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Artist = strings.TrimSpace(s.Artist)
	s.Album = strings.TrimSpace(s.Album)
}

// DownloadRequest pairs a song with the directory it is fetched into.
type DownloadRequest struct {
	SubmittedAt time.Time `json:"submitted_at"`
	ID          string    `json:"id"`
	Directory   string    `json:"directory"`
	Song        Song      `json:"song"`
	PlaylistID  int64     `json:"playlist_id,omitempty"`
}

// RequestState tracks a download request through the scheduler.
type RequestState string

const (
	RequestPending   RequestState = "pending"
	RequestQueued    RequestState = "queued"
	RequestInFlight  RequestState = "in_flight"
	RequestCompleted RequestState = "completed"
	RequestFailed    RequestState = "failed"
)

// Playlist is a named, ordered list of songs.
type Playlist struct {
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Name      string    `json:"name" db:"name"`
	Songs     []Song    `json:"songs,omitempty" db:"-"`
	ID        int64     `json:"id" db:"id"`
}
