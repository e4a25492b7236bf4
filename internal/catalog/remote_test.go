package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cesargomez89/resonate/internal/domain"
	"github.com/raitonoberu/ytmusic"
)

func TestConvertTrack(t *testing.T) {
	item := &ytmusic.TrackItem{
		VideoID:  "vid123",
		Title:    " Song Title ",
		Artists:  []ytmusic.Artist{{Name: "One"}, {Name: ""}, {Name: "Two"}},
		Album:    ytmusic.Album{Name: "Album"},
		Duration: 215,
		Thumbnails: []ytmusic.Thumbnail{
			{URL: "small", Width: 60, Height: 60},
			{URL: "large", Width: 544, Height: 544},
			{URL: "medium", Width: 120, Height: 120},
		},
	}

	song := convertTrack(item)

	if song.ID != "vid123" {
		t.Errorf("Expected ID vid123, got %s", song.ID)
	}
	if song.Name != "Song Title" {
		t.Errorf("Expected trimmed title, got %q", song.Name)
	}
	if song.Artist != "One, Two" {
		t.Errorf("Expected joined artists, got %q", song.Artist)
	}
	if song.Album != "Album" {
		t.Errorf("Expected album, got %q", song.Album)
	}
	if song.Duration != 215 {
		t.Errorf("Expected duration 215, got %d", song.Duration)
	}
	if song.Cover != "large" {
		t.Errorf("Expected largest thumbnail, got %q", song.Cover)
	}
	if song.Downloaded() {
		t.Error("Expected remote song to have no file")
	}
}

func TestYTMusic_EmptyQuery(t *testing.T) {
	_, err := NewYTMusic(10).Lookup(context.Background(), "   ")
	if !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("Expected ErrEmptyQuery, got %v", err)
	}
}

func TestLimited_Lookup(t *testing.T) {
	inner := NewMockRemote(domain.Song{ID: "1", Name: "Hit"})
	l := NewLimited(inner, 1000)

	for i := 0; i < 3; i++ {
		res, err := l.Lookup(context.Background(), "hit")
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		if len(res) != 1 {
			t.Errorf("Expected 1 result, got %d", len(res))
		}
	}
	if inner.Calls() != 3 {
		t.Errorf("Expected 3 calls, got %d", inner.Calls())
	}
}

func TestLimited_WaitHonoursContext(t *testing.T) {
	inner := NewMockRemote()
	l := NewLimited(inner, 0.001)

	// Consume the single burst token.
	if _, err := l.Lookup(context.Background(), "x"); err != nil {
		t.Fatalf("First lookup failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Lookup(ctx, "x"); err == nil {
		t.Error("Expected rate limiter to refuse within deadline")
	}
	if inner.Calls() != 1 {
		t.Errorf("Expected throttled lookup to skip remote, got %d calls", inner.Calls())
	}
}

func TestLimited_ZeroRateDisablesLimit(t *testing.T) {
	l := NewLimited(NewMockRemote(), 0)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for i := 0; i < 5; i++ {
		if _, err := l.Lookup(ctx, "x"); err != nil {
			t.Fatalf("Lookup %d failed: %v", i, err)
		}
	}
}

func TestMockRemote_Filters(t *testing.T) {
	m := NewMockRemote(
		domain.Song{ID: "1", Name: "Blue", Artist: "A"},
		domain.Song{ID: "2", Name: "Red", Artist: "Blue Band"},
		domain.Song{ID: "3", Name: "Green", Artist: "C"},
	)
	res, err := m.Lookup(context.Background(), "blue")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if len(res) != 2 {
		t.Errorf("Expected 2 matches, got %d", len(res))
	}
}
