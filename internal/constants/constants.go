// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultPort            = "8080"
	DefaultDBPath          = "resonate.db"
	DefaultMaxInFlight     = 4
	DefaultWorkers         = 4
	DefaultTickInterval    = 1 * time.Second
	DefaultVolume          = 0.2
	DefaultSearchRate      = 1.0
	DefaultSearchLimit     = 20
	DefaultCacheTTL        = 12 * time.Hour
	DefaultShutdownTimeout = 5 * time.Second
	DefaultSampleRate      = 44100
	DefaultHTTPTimeout     = 30 * time.Second
	DefaultRetryCount      = 3
	DefaultRetryBase       = 500 * time.Millisecond
	DefaultCoverRate       = 2.0
	AppDirName             = "resonate"
)

// Playback speed presets
const (
	SpeedSlow   = 0.85
	SpeedNormal = 1.0
	SpeedFast   = 1.4
)

// Remote catalog
const (
	UserAgent            = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"
	YouTubeMusicWatchURL = "https://music.youtube.com/watch?v=%s"
	LocalIDPrefix        = "local-"
	// LocalIDHashLen hex digits of the content hash follow LocalIDPrefix.
	LocalIDHashLen = 16
)

// Database
const (
	SongsTable         = "songs"
	PlaylistsTable     = "playlists"
	PlaylistSongsTable = "playlist_songs"
	CacheTable         = "cache"
)

// File Extensions
const (
	ExtFLAC = ".flac"
	ExtMP3  = ".mp3"
	ExtWAV  = ".wav"
	ExtM3U  = ".m3u"
)

// File Names
const (
	PlaylistsDir = "playlists"
)

// File Permissions
const (
	DirPermissions  = 0755
	FilePermissions = 0644
)

// Characters to sanitize from filesystem paths
const InvalidPathChars = "<>:\"/\\|?*"
