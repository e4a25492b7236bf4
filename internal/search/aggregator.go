package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cesargomez89/resonate/internal/catalog"
	"github.com/cesargomez89/resonate/internal/domain"
	"github.com/cesargomez89/resonate/internal/logger"
	"github.com/cesargomez89/resonate/internal/storage"
)

var ErrNoRemote = errors.New("remote search requested without a remote catalog")

// Storage is the slice of the library the aggregator reads and writes.
type Storage interface {
	SearchCached(text string) ([]domain.Song, error)
	AllKnownIDs() (map[string]struct{}, error)
	CacheNewSongs(songs []domain.Song) ([]domain.Song, error)
	Directory() string
}

type Options struct {
	Remote bool
}

// Aggregator merges cached and remote results into one sequence per search.
type Aggregator struct {
	storage Storage
	remote  catalog.Remote
	logger  *logger.Logger
}

func NewAggregator(storage Storage, remote catalog.Remote, log *logger.Logger) *Aggregator {
	if log == nil {
		log = logger.Default()
	}
	return &Aggregator{
		storage: storage,
		remote:  remote,
		logger:  log.WithComponent("search"),
	}
}

// Start launches the producers and returns at once. Producers stop when ctx
// is cancelled and never wait for the consumer.
func (a *Aggregator) Start(ctx context.Context, query string, opts Options) *Handle {
	h := newHandle(uuid.New().String(), query)
	log := &logger.Logger{Logger: a.logger.With("search_id", h.ID, "query", query)}

	localRead := make(chan struct{})
	h.add(1)
	go a.runLocal(h, localRead, log)

	if opts.Remote {
		h.add(1)
		go a.runRemote(ctx, h, localRead, log)
	}

	return h
}

// runLocal closes read once the cached search returned, so the remote
// producer can cache its results without them showing up here too.
func (a *Aggregator) runLocal(h *Handle, read chan<- struct{}, log *logger.Logger) {
	defer h.done()

	songs, err := a.storage.SearchCached(h.Query)
	close(read)
	if err != nil {
		log.Error("Cached search failed", "error", err)
		h.fail(fmt.Errorf("cached search: %w", err))
		return
	}
	log.Debug("Cached search finished", "results", len(songs))
	h.publish(songs...)
}

// runRemote filters out songs that were already known when the search began
// and holds its writes until the local read is done, so local and remote
// results never overlap.
func (a *Aggregator) runRemote(ctx context.Context, h *Handle, localRead <-chan struct{}, log *logger.Logger) {
	defer h.done()

	if a.remote == nil {
		h.fail(ErrNoRemote)
		return
	}

	known, err := a.storage.AllKnownIDs()
	if err != nil {
		log.Error("Failed to snapshot known songs", "error", err)
		h.fail(fmt.Errorf("remote search: %w", err))
		return
	}

	found, err := a.remote.Lookup(ctx, h.Query)
	if err != nil {
		log.Warn("Remote search failed", "error", err)
		h.fail(fmt.Errorf("remote search: %w", err))
		return
	}

	dir := a.storage.Directory()
	fresh := make([]domain.Song, 0, len(found))
	seen := make(map[string]struct{}, len(found))
	for _, s := range found {
		if _, ok := known[s.ID]; ok {
			continue
		}
		if _, ok := seen[s.ID]; ok {
			continue
		}
		seen[s.ID] = struct{}{}

		if path := storage.AudioPath(dir, s.ID); storage.FileExists(path) {
			s.File = path
		}
		fresh = append(fresh, s)
	}

	if len(fresh) == 0 {
		log.Debug("Remote search found nothing new", "results", len(found))
		return
	}

	select {
	case <-localRead:
	case <-ctx.Done():
		h.fail(fmt.Errorf("remote search: %w", ctx.Err()))
		return
	}

	cached, err := a.storage.CacheNewSongs(fresh)
	if err != nil {
		log.Error("Failed to cache remote results", "error", err)
		h.fail(fmt.Errorf("caching remote results: %w", err))
		return
	}
	log.Debug("Remote search finished", "results", len(found), "new", len(cached))
	h.publish(cached...)
}
