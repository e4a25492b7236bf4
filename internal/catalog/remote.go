package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cesargomez89/resonate/internal/domain"
	"github.com/raitonoberu/ytmusic"
)

var ErrEmptyQuery = errors.New("empty query")

// Remote looks songs up in an external catalog.
type Remote interface {
	Lookup(ctx context.Context, query string) ([]domain.Song, error)
}

// YTMusic queries the YouTube Music track search.
type YTMusic struct {
	limit int
}

func NewYTMusic(limit int) *YTMusic {
	return &YTMusic{limit: limit}
}

func (y *YTMusic) Lookup(ctx context.Context, query string) ([]domain.Song, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	type result struct {
		res *ytmusic.SearchResult
		err error
	}
	// The client has no context support; the goroutine ends with its request.
	done := make(chan result, 1)
	go func() {
		res, err := ytmusic.TrackSearch(query).Next()
		done <- result{res: res, err: err}
	}()

	var r result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r = <-done:
	}
	if r.err != nil {
		return nil, fmt.Errorf("youtube music search failed: %w", r.err)
	}
	if r.res == nil {
		return nil, nil
	}

	songs := make([]domain.Song, 0, len(r.res.Tracks))
	for _, t := range r.res.Tracks {
		if t == nil || t.VideoID == "" {
			continue
		}
		songs = append(songs, convertTrack(t))
		if y.limit > 0 && len(songs) >= y.limit {
			break
		}
	}
	return songs, nil
}

func convertTrack(t *ytmusic.TrackItem) domain.Song {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}

	song := domain.Song{
		ID:       t.VideoID,
		Name:     t.Title,
		Artist:   strings.Join(names, ", "),
		Album:    t.Album.Name,
		Duration: t.Duration,
	}

	best := 0
	for _, th := range t.Thumbnails {
		if th.Width*th.Height >= best {
			best = th.Width * th.Height
			song.Cover = th.URL
		}
	}

	song.Normalize()
	return song
}
