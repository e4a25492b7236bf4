package search

import (
	"context"
	"errors"
	"sync"

	"github.com/cesargomez89/resonate/internal/domain"
)

// Handle is one running search. Results are consumed destructively in the
// order producers published them, and a song is delivered at most once.
type Handle struct {
	ID      string
	Query   string
	notify  chan struct{}
	buf     []domain.Song
	errs    []error
	seen    map[string]struct{}
	mu      sync.Mutex
	pending int
}

func newHandle(id, query string) *Handle {
	return &Handle{
		ID:     id,
		Query:  query,
		notify: make(chan struct{}),
		seen:   make(map[string]struct{}),
	}
}

// changedLocked wakes every waiter. Caller holds mu.
func (h *Handle) changedLocked() {
	close(h.notify)
	h.notify = make(chan struct{})
}

func (h *Handle) add(n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending += n
}

func (h *Handle) done() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending--
	h.changedLocked()
}

func (h *Handle) publish(songs ...domain.Song) {
	if len(songs) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	added := false
	for _, s := range songs {
		key := s.Key()
		if _, ok := h.seen[key]; ok {
			continue
		}
		h.seen[key] = struct{}{}
		h.buf = append(h.buf, s)
		added = true
	}
	if added {
		h.changedLocked()
	}
}

func (h *Handle) fail(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errs = append(h.errs, err)
}

// Poll returns the next buffered song without blocking. more is false once
// every producer finished and the buffer is drained.
func (h *Handle) Poll() (song domain.Song, ok bool, more bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.buf) > 0 {
		song = h.buf[0]
		h.buf[0] = domain.Song{}
		h.buf = h.buf[1:]
		return song, true, true
	}
	return domain.Song{}, false, h.pending > 0
}

// Next returns the next song, waiting while producers are outstanding. It
// reports false at the end of the sequence.
func (h *Handle) Next(ctx context.Context) (domain.Song, bool, error) {
	for {
		h.mu.Lock()
		if len(h.buf) > 0 {
			song := h.buf[0]
			h.buf[0] = domain.Song{}
			h.buf = h.buf[1:]
			h.mu.Unlock()
			return song, true, nil
		}
		if h.pending == 0 {
			h.mu.Unlock()
			return domain.Song{}, false, nil
		}
		wait := h.notify
		h.mu.Unlock()

		select {
		case <-ctx.Done():
			return domain.Song{}, false, ctx.Err()
		case <-wait:
		}
	}
}

// Stream delivers the sequence on a channel that is closed at the end or
// when ctx is cancelled.
func (h *Handle) Stream(ctx context.Context) <-chan domain.Song {
	out := make(chan domain.Song)
	go func() {
		defer close(out)
		for {
			song, ok, err := h.Next(ctx)
			if err != nil || !ok {
				return
			}
			select {
			case out <- song:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Done reports whether every producer has finished.
func (h *Handle) Done() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pending == 0
}

// Err joins the failures recorded by producers so far.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return errors.Join(h.errs...)
}

// Collect drains the whole sequence.
func (h *Handle) Collect(ctx context.Context) ([]domain.Song, error) {
	var songs []domain.Song
	for {
		song, ok, err := h.Next(ctx)
		if err != nil {
			return songs, err
		}
		if !ok {
			return songs, nil
		}
		songs = append(songs, song)
	}
}
