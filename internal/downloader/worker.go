package downloader

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cesargomez89/resonate/internal/domain"
)

// jobHooks is notified around every job a worker runs.
type jobHooks interface {
	started(req domain.DownloadRequest)
	finish(req domain.DownloadRequest, path string, err error)
}

// Worker runs its jobs one at a time, in submission order, on a single
// persistent goroutine.
type Worker struct {
	handler JobHandler
	logger  *slog.Logger
	hooks   jobHooks
	cond    *sync.Cond
	jobs    []domain.DownloadRequest
	wg      sync.WaitGroup
	mu      sync.Mutex
	id      int
	busy    bool
	running bool
	closed  bool
}

func newWorker(id int, handler JobHandler, hooks jobHooks, logger *slog.Logger) *Worker {
	w := &Worker{
		id:      id,
		handler: handler,
		hooks:   hooks,
		logger:  logger.With("worker", id),
	}
	w.cond = sync.NewCond(&w.mu)
	return w
}

func (w *Worker) start(ctx context.Context) {
	w.wg.Add(1)
	go w.loop(ctx)
}

// enqueue appends a job and marks the worker busy in the same critical
// section, so a concurrent dispatch never sees it idle with work pending.
func (w *Worker) enqueue(req domain.DownloadRequest) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false
	}
	w.jobs = append(w.jobs, req)
	w.busy = true
	w.cond.Signal()
	return true
}

// Idle reports whether the worker has nothing running and nothing queued.
func (w *Worker) Idle() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.busy
}

// Load is the number of jobs queued plus the one running.
func (w *Worker) Load() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := len(w.jobs)
	if w.running {
		n++
	}
	return n
}

func (w *Worker) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		w.mu.Lock()
		w.running = false
		for len(w.jobs) == 0 && !w.closed {
			w.busy = false
			w.cond.Wait()
		}
		if w.closed {
			w.busy = false
			w.jobs = nil
			w.mu.Unlock()
			return
		}
		req := w.jobs[0]
		w.jobs = w.jobs[1:]
		w.busy = true
		w.running = true
		w.mu.Unlock()

		w.hooks.started(req)
		path, err := w.run(ctx, req)
		w.hooks.finish(req, path, err)
	}
}

func (w *Worker) run(ctx context.Context, req domain.DownloadRequest) (path string, err error) {
	logger := w.logger.With(
		"request_id", req.ID,
		"song_id", req.Song.ID,
	)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic in download", "panic", r)
			err = fmt.Errorf("%w: panic: %v", ErrFetchFailed, r)
		}
	}()

	logger.Info("Running download")
	return w.handler.Handle(ctx, req, logger)
}

// close stops the loop after the running job, dropping queued jobs.
func (w *Worker) close() {
	w.mu.Lock()
	w.closed = true
	w.cond.Broadcast()
	w.mu.Unlock()
	w.wg.Wait()
}
