package search

import (
	"context"
	"errors"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cesargomez89/resonate/internal/catalog"
	"github.com/cesargomez89/resonate/internal/domain"
	"github.com/cesargomez89/resonate/internal/logger"
	"github.com/cesargomez89/resonate/internal/storage"
)

type memStorage struct {
	searchErr   error
	searchDelay time.Duration
	songs     map[string]domain.Song
	dir       string
	mu        sync.Mutex
	nextID    int64
}

func newMemStorage(dir string, songs ...domain.Song) *memStorage {
	m := &memStorage{songs: make(map[string]domain.Song), dir: dir}
	for _, s := range songs {
		m.nextID++
		s.SQLID = m.nextID
		m.songs[s.ID] = s
	}
	return m
}

func (m *memStorage) SearchCached(text string) ([]domain.Song, error) {
	time.Sleep(m.searchDelay)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	var out []domain.Song
	for _, s := range m.songs {
		if strings.Contains(strings.ToLower(s.Name), strings.ToLower(text)) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStorage) AllKnownIDs() (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make(map[string]struct{}, len(m.songs))
	for id := range m.songs {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (m *memStorage) CacheNewSongs(songs []domain.Song) ([]domain.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Song, 0, len(songs))
	for _, s := range songs {
		if existing, ok := m.songs[s.ID]; ok {
			out = append(out, existing)
			continue
		}
		m.nextID++
		s.SQLID = m.nextID
		m.songs[s.ID] = s
		out = append(out, s)
	}
	return out, nil
}

func (m *memStorage) Directory() string {
	return m.dir
}

// blockingRemote holds every lookup until released or cancelled.
type blockingRemote struct {
	release chan struct{}
	songs   []domain.Song
}

func (b *blockingRemote) Lookup(ctx context.Context, query string) ([]domain.Song, error) {
	select {
	case <-b.release:
		return b.songs, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func collect(t *testing.T, h *Handle) []domain.Song {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	songs, err := h.Collect(ctx)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	return songs
}

func ids(songs []domain.Song) []string {
	out := make([]string, len(songs))
	for i, s := range songs {
		out[i] = s.ID
	}
	sort.Strings(out)
	return out
}

func sameIDs(got []domain.Song, want ...string) bool {
	g := ids(got)
	sort.Strings(want)
	if len(g) != len(want) {
		return false
	}
	for i := range g {
		if g[i] != want[i] {
			return false
		}
	}
	return true
}

func cachedSongs() []domain.Song {
	return []domain.Song{
		{ID: "a", Name: "Love Song"},
		{ID: "b", Name: "Love Again"},
		{ID: "z", Name: "Unrelated"},
	}
}

func TestAggregator_CachedOnly(t *testing.T) {
	store := newMemStorage(t.TempDir(), cachedSongs()...)
	agg := NewAggregator(store, nil, logger.Discard())

	h := agg.Start(context.Background(), "love", Options{})
	got := collect(t, h)

	if !sameIDs(got, "a", "b") {
		t.Errorf("Expected cached results once, got %v", ids(got))
	}
	if _, ok, _ := h.Next(context.Background()); ok {
		t.Error("Expected sequence to stay terminated")
	}
	if err := h.Err(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestAggregator_EmptyRemoteYieldsCachedOnce(t *testing.T) {
	store := newMemStorage(t.TempDir(), cachedSongs()...)
	agg := NewAggregator(store, catalog.NewMockRemote(), logger.Discard())

	got := collect(t, agg.Start(context.Background(), "love", Options{Remote: true}))
	if !sameIDs(got, "a", "b") {
		t.Errorf("Expected a,b once, got %v", ids(got))
	}
}

func TestAggregator_RemoteSkipsKnownSongs(t *testing.T) {
	store := newMemStorage(t.TempDir(), cachedSongs()...)
	remote := catalog.NewMockRemote(
		domain.Song{ID: "b", Name: "Love Again"},
		domain.Song{ID: "c", Name: "Love Story"},
		domain.Song{ID: "c", Name: "Love Story"},
	)
	agg := NewAggregator(store, remote, logger.Discard())

	got := collect(t, agg.Start(context.Background(), "love", Options{Remote: true}))
	if !sameIDs(got, "a", "b", "c") {
		t.Errorf("Expected a,b,c exactly once, got %v", ids(got))
	}

	known, _ := store.AllKnownIDs()
	if _, ok := known["c"]; !ok {
		t.Error("Expected new remote song to be cached")
	}
	for _, s := range got {
		if s.ID == "c" && s.SQLID == 0 {
			t.Error("Expected published remote song to carry its SQL id")
		}
	}
}

func TestAggregator_InstantRemoteNotRepeatedByLocal(t *testing.T) {
	for i := 0; i < 20; i++ {
		store := newMemStorage(t.TempDir(), cachedSongs()...)
		store.searchDelay = 5 * time.Millisecond
		remote := catalog.NewMockRemote(domain.Song{ID: "new1", Name: "Love Fresh"})
		agg := NewAggregator(store, remote, logger.Discard())

		got := collect(t, agg.Start(context.Background(), "love", Options{Remote: true}))
		if !sameIDs(got, "a", "b", "new1") {
			t.Fatalf("run %d: expected a,b,new1 exactly once, got %v", i, ids(got))
		}
	}
}

func TestAggregator_RemoteMarksExistingFiles(t *testing.T) {
	dir := t.TempDir()
	path := storage.AudioPath(dir, "c")
	if err := os.WriteFile(path, []byte("audio"), 0644); err != nil {
		t.Fatal(err)
	}

	store := newMemStorage(dir)
	remote := catalog.NewMockRemote(domain.Song{ID: "c", Name: "Love Story"}, domain.Song{ID: "d", Name: "Love Me"})
	agg := NewAggregator(store, remote, logger.Discard())

	got := collect(t, agg.Start(context.Background(), "love", Options{Remote: true}))
	if len(got) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(got))
	}
	for _, s := range got {
		switch s.ID {
		case "c":
			if s.File != path {
				t.Errorf("Expected c marked downloaded, got %q", s.File)
			}
		case "d":
			if s.Downloaded() {
				t.Error("Expected d not downloaded")
			}
		}
	}
}

func TestAggregator_ProducerFailureStillTerminates(t *testing.T) {
	store := newMemStorage(t.TempDir(), cachedSongs()...)
	remote := catalog.NewMockRemote()
	remote.Err = errors.New("quota exceeded")
	agg := NewAggregator(store, remote, logger.Discard())

	h := agg.Start(context.Background(), "love", Options{Remote: true})
	got := collect(t, h)
	if !sameIDs(got, "a", "b") {
		t.Errorf("Expected cached results despite remote failure, got %v", ids(got))
	}
	if err := h.Err(); err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("Expected remote failure recorded, got %v", err)
	}
}

func TestAggregator_LocalFailureStillTerminates(t *testing.T) {
	store := newMemStorage(t.TempDir())
	store.searchErr = errors.New("database is locked")
	remote := catalog.NewMockRemote(domain.Song{ID: "r", Name: "Love Remote"})
	agg := NewAggregator(store, remote, logger.Discard())

	h := agg.Start(context.Background(), "love", Options{Remote: true})
	got := collect(t, h)
	if !sameIDs(got, "r") {
		t.Errorf("Expected remote results despite local failure, got %v", ids(got))
	}
	if h.Err() == nil {
		t.Error("Expected local failure recorded")
	}
}

func TestAggregator_RemoteWithoutCatalog(t *testing.T) {
	agg := NewAggregator(newMemStorage(t.TempDir()), nil, logger.Discard())
	h := agg.Start(context.Background(), "x", Options{Remote: true})
	collect(t, h)
	if !errors.Is(h.Err(), ErrNoRemote) {
		t.Errorf("Expected ErrNoRemote, got %v", h.Err())
	}
}

func TestAggregator_AbandonedHandleDoesNotBlock(t *testing.T) {
	store := newMemStorage(t.TempDir(), cachedSongs()...)
	remote := &blockingRemote{
		release: make(chan struct{}),
		songs:   []domain.Song{{ID: "n1", Name: "Love New"}, {ID: "n2", Name: "Love Newer"}},
	}
	agg := NewAggregator(store, remote, logger.Discard())

	abandoned := agg.Start(context.Background(), "love", Options{Remote: true})

	fresh := agg.Start(context.Background(), "love", Options{})
	if got := collect(t, fresh); !sameIDs(got, "a", "b") {
		t.Errorf("Expected second search to complete, got %v", ids(got))
	}

	close(remote.release)
	deadline := time.Now().Add(2 * time.Second)
	for !abandoned.Done() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !abandoned.Done() {
		t.Error("Expected producers of the abandoned search to finish without a consumer")
	}
}

func TestAggregator_CancelStopsRemote(t *testing.T) {
	store := newMemStorage(t.TempDir())
	remote := &blockingRemote{release: make(chan struct{})}
	agg := NewAggregator(store, remote, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	h := agg.Start(ctx, "love", Options{Remote: true})
	cancel()

	got := collect(t, h)
	if len(got) != 0 {
		t.Errorf("Expected no results, got %v", ids(got))
	}
	if !errors.Is(h.Err(), context.Canceled) {
		t.Errorf("Expected cancellation recorded, got %v", h.Err())
	}
}

func TestHandle_NextWaitsForProducers(t *testing.T) {
	h := newHandle("id", "q")
	h.add(1)

	if _, ok, more := h.Poll(); ok || !more {
		t.Errorf("Expected empty poll with more pending, got ok=%v more=%v", ok, more)
	}

	result := make(chan domain.Song, 1)
	go func() {
		s, ok, err := h.Next(context.Background())
		if err == nil && ok {
			result <- s
		}
		close(result)
	}()

	time.Sleep(10 * time.Millisecond)
	h.publish(domain.Song{ID: "late"})

	select {
	case s := <-result:
		if s.ID != "late" {
			t.Errorf("Expected late, got %s", s.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Next did not wake up on publish")
	}

	h.done()
	if _, ok, more := h.Poll(); ok || more {
		t.Errorf("Expected end of sequence, got ok=%v more=%v", ok, more)
	}
}

func TestHandle_PublishDropsRepeats(t *testing.T) {
	h := newHandle("id", "q")
	h.add(2)
	h.publish(domain.Song{ID: "1", SQLID: 7}, domain.Song{ID: "2"})
	h.publish(domain.Song{ID: "1", SQLID: 7}, domain.Song{ID: "3"})
	h.publish(domain.Song{ID: "2"})
	h.done()
	h.done()

	got := collect(t, h)
	if len(got) != 3 || !sameIDs(got, "1", "2", "3") {
		t.Errorf("Expected each song once, got %v", ids(got))
	}
}

func TestHandle_NextHonoursContext(t *testing.T) {
	h := newHandle("id", "q")
	h.add(1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, _, err := h.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline error, got %v", err)
	}
}

func TestHandle_OrderAndStream(t *testing.T) {
	h := newHandle("id", "q")
	h.add(2)
	h.publish(domain.Song{ID: "1"}, domain.Song{ID: "2"})
	h.done()
	h.publish(domain.Song{ID: "3"})
	h.done()

	var got []string
	for s := range h.Stream(context.Background()) {
		got = append(got, s.ID)
	}
	if strings.Join(got, ",") != "1,2,3" {
		t.Errorf("Expected insertion order, got %v", got)
	}
}
