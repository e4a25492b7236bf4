package catalog

import (
	"context"
	"strings"
	"sync"

	"github.com/cesargomez89/resonate/internal/domain"
)

// MockRemote serves a fixed song list, matching on name and artist.
type MockRemote struct {
	Err   error
	songs []domain.Song
	calls int
	mu    sync.Mutex
}

func NewMockRemote(songs ...domain.Song) *MockRemote {
	return &MockRemote{songs: songs}
}

func (m *MockRemote) Lookup(ctx context.Context, query string) ([]domain.Song, error) {
	m.mu.Lock()
	m.calls++
	err := m.Err
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	var out []domain.Song
	for _, s := range m.songs {
		if q == "" || strings.Contains(strings.ToLower(s.Name), q) || strings.Contains(strings.ToLower(s.Artist), q) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MockRemote) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var _ Remote = (*MockRemote)(nil)
