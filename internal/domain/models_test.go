package domain

import (
	"testing"
)

func TestSong_Key(t *testing.T) {
	tests := []struct {
		name     string
		song     Song
		expected string
	}{
		{"external id", Song{ID: "abc123", SQLID: 7}, "ext:abc123"},
		{"sql id only", Song{SQLID: 7}, "sql:7"},
		{"uncached without id", Song{}, "sql:0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.song.Key(); got != tt.expected {
				t.Errorf("Key() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSong_SameIgnoresMetadata(t *testing.T) {
	a := Song{ID: "abc", Name: "One", Artist: "A"}
	b := Song{ID: "abc", Name: "Other", Artist: "B", SQLID: 4}
	c := Song{ID: "def", Name: "One", Artist: "A"}

	if !a.Same(b) {
		t.Error("Expected songs with equal external ids to be the same")
	}
	if a.Same(c) {
		t.Error("Expected songs with different external ids to differ")
	}
}

func TestSong_Downloaded(t *testing.T) {
	s := Song{ID: "abc"}
	if s.Downloaded() {
		t.Error("Expected song without file to not be downloaded")
	}
	s.File = "/music/abc.mp3"
	if !s.Downloaded() {
		t.Error("Expected song with file to be downloaded")
	}
}

func TestSong_Normalize(t *testing.T) {
	s := Song{Name: "  Name ", Artist: "Artist  ", Album: " Album"}
	s.Normalize()

	if s.Name != "Name" || s.Artist != "Artist" || s.Album != "Album" {
		t.Errorf("Normalize() left whitespace: %+v", s)
	}
}

func TestRequestState_Constants(t *testing.T) {
	tests := []struct {
		name     string
		state    RequestState
		expected string
	}{
		{"pending", RequestPending, "pending"},
		{"queued", RequestQueued, "queued"},
		{"in_flight", RequestInFlight, "in_flight"},
		{"completed", RequestCompleted, "completed"},
		{"failed", RequestFailed, "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.state) != tt.expected {
				t.Errorf("RequestState %s = %q, want %q", tt.name, tt.state, tt.expected)
			}
		})
	}
}
