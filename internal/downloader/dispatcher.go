package downloader

import (
	"context"
	"log/slog"
)

// Pool owns a fixed set of workers and picks one per job.
type Pool struct {
	cancel  context.CancelFunc
	workers []*Worker
}

func newPool(size int, handler JobHandler, hooks jobHooks, logger *slog.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{cancel: cancel}
	for i := 0; i < size; i++ {
		w := newWorker(i, handler, hooks, logger)
		w.start(ctx)
		p.workers = append(p.workers, w)
	}
	return p
}

// pick prefers an idle worker and otherwise the one with the smallest load.
func (p *Pool) pick() *Worker {
	for _, w := range p.workers {
		if w.Idle() {
			return w
		}
	}

	var best *Worker
	bestLoad := 0
	for _, w := range p.workers {
		load := w.Load()
		if best == nil || load < bestLoad {
			best, bestLoad = w, load
		}
	}
	return best
}

// Size is the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// close cancels running fetches and waits for every worker to exit.
func (p *Pool) close() {
	p.cancel()
	for _, w := range p.workers {
		w.close()
	}
}
