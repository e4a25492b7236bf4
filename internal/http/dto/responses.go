package dto

import (
	"github.com/cesargomez89/resonate/internal/domain"
	"github.com/cesargomez89/resonate/internal/playback"
)

type PlayerResponse struct {
	Current  *domain.Song  `json:"current,omitempty"`
	Pending  []domain.Song `json:"pending"`
	Progress float64       `json:"progress"`
	Speed    float64       `json:"speed"`
	Volume   float64       `json:"volume"`
	Paused   bool          `json:"paused"`
	Looping  bool          `json:"looping"`
	Idle     bool          `json:"idle"`
}

func NewPlayerResponse(st playback.Status) PlayerResponse {
	pending := st.Pending
	if pending == nil {
		pending = []domain.Song{}
	}
	return PlayerResponse{
		Current:  st.Current,
		Pending:  pending,
		Progress: st.Progress,
		Speed:    st.Speed,
		Volume:   VolumePercent(st.Volume),
		Paused:   st.Paused,
		Looping:  st.Looping,
		Idle:     st.Idle,
	}
}

type DownloadsResponse struct {
	InFlight    []domain.DownloadRequest `json:"in_flight"`
	Backlog     []domain.DownloadRequest `json:"backlog"`
	MaxInFlight int                      `json:"max_in_flight"`
}

type StateResponse struct {
	Key   string              `json:"key"`
	State domain.RequestState `json:"state"`
	Known bool                `json:"known"`
}

type SettingsResponse struct {
	OnlineSearch bool `json:"online_search"`
}

type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}
