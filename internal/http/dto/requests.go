package dto

import (
	"fmt"
	"math"
	"strings"

	"github.com/cesargomez89/resonate/internal/constants"
	"github.com/cesargomez89/resonate/internal/domain"
)

// DownloadRequest asks for a song to be fetched, optionally into a playlist.
type DownloadRequest struct {
	Song       domain.Song `json:"song"`
	PlaylistID int64       `json:"playlist_id,omitempty"`
}

func (r *DownloadRequest) Validate() []ValidationError {
	return required("song.id", r.Song.ID)
}

// SongRequest names a cached song for the player.
type SongRequest struct {
	Song domain.Song `json:"song"`
}

func (r *SongRequest) Validate() []ValidationError {
	var errs []ValidationError
	if r.Song.ID == "" && r.Song.SQLID == 0 {
		errs = append(errs, ValidationError{Field: "song", Message: "needs an id or sql_id"})
	}
	return errs
}

// SpeedRequest takes either a preset name or an explicit factor.
type SpeedRequest struct {
	Preset string  `json:"preset,omitempty"`
	Speed  float64 `json:"speed,omitempty"`
}

var speedPresets = map[string]float64{
	"slow":   constants.SpeedSlow,
	"normal": constants.SpeedNormal,
	"fast":   constants.SpeedFast,
}

func (r *SpeedRequest) Validate() []ValidationError {
	if r.Preset != "" {
		if _, ok := speedPresets[strings.ToLower(r.Preset)]; !ok {
			return []ValidationError{{Field: "preset", Message: "must be one of slow, normal, fast"}}
		}
		return nil
	}
	if r.Speed <= 0 || math.IsNaN(r.Speed) || math.IsInf(r.Speed, 0) {
		return []ValidationError{{Field: "speed", Message: "must be positive"}}
	}
	return nil
}

// Factor resolves the preset, if any.
func (r *SpeedRequest) Factor() float64 {
	if f, ok := speedPresets[strings.ToLower(r.Preset)]; ok {
		return f
	}
	return r.Speed
}

// VolumeRequest is a percentage of the full linear gain.
type VolumeRequest struct {
	Volume float64 `json:"volume"`
}

func (r *VolumeRequest) Validate() []ValidationError {
	if r.Volume < 0 || r.Volume > 100 || math.IsNaN(r.Volume) {
		return []ValidationError{{Field: "volume", Message: fmt.Sprintf("must be between 0 and 100, got %v", r.Volume)}}
	}
	return nil
}

func (r *VolumeRequest) Linear() float64 {
	return r.Volume / 100
}

// VolumePercent converts a linear gain to the API scale.
func VolumePercent(linear float64) float64 {
	return math.Round(linear*1000) / 10
}

type LoopingRequest struct {
	Looping bool `json:"looping"`
}

type PlaylistRequest struct {
	Name string `json:"name"`
}

func (r *PlaylistRequest) Validate() []ValidationError {
	return required("name", r.Name)
}

type PlaylistSongRequest struct {
	SongID int64 `json:"song_id"`
}

func (r *PlaylistSongRequest) Validate() []ValidationError {
	if r.SongID <= 0 {
		return []ValidationError{{Field: "song_id", Message: "must be positive"}}
	}
	return nil
}

// ImportRequest points at a file on the server's filesystem.
type ImportRequest struct {
	Path       string `json:"path"`
	Name       string `json:"name,omitempty"`
	Artist     string `json:"artist,omitempty"`
	Album      string `json:"album,omitempty"`
	PlaylistID int64  `json:"playlist_id,omitempty"`
}

func (r *ImportRequest) Validate() []ValidationError {
	return required("path", r.Path)
}

type SettingsRequest struct {
	OnlineSearch *bool `json:"online_search,omitempty"`
}
