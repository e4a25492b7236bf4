package downloader

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cesargomez89/resonate/internal/constants"
	"github.com/cesargomez89/resonate/internal/domain"
	"github.com/cesargomez89/resonate/internal/logger"
)

type Outcome string

const (
	Accepted Outcome = "accepted"
	Queued   Outcome = "queued"
	Rejected Outcome = "rejected"
)

type Reason string

const (
	ReasonNone              Reason = ""
	ReasonAlreadyDownloaded Reason = "already_downloaded"
	ReasonInFlight          Reason = "in_flight"
	ReasonAlreadyQueued     Reason = "already_queued"
	ReasonClosed            Reason = "closed"
)

// Admission is the immediate answer to Submit.
type Admission struct {
	Outcome   Outcome `json:"outcome"`
	Reason    Reason  `json:"reason,omitempty"`
	RequestID string  `json:"request_id"`
}

type EventType string

const (
	EventStarted           EventType = "started"
	EventCompleted         EventType = "completed"
	EventFailed            EventType = "failed"
	EventAlreadyDownloaded EventType = "already_downloaded"
)

// Event reports a request transition. On EventCompleted Request.Song.File
// holds the downloaded path; on EventFailed Err wraps ErrFetchFailed.
type Event struct {
	Time    time.Time
	Err     error
	Type    EventType
	Request domain.DownloadRequest
}

type Options struct {
	Logger      *logger.Logger
	MaxInFlight int
	Workers     int
}

// Scheduler admits download requests, keeps at most MaxInFlight of them on
// the worker pool and drains the rest from one FIFO backlog.
//
// Lock order is scheduler.mu before any worker mutex. Event handlers run
// outside both: EventAlreadyDownloaded on the submitting goroutine, the rest
// on the worker running the request.
type Scheduler struct {
	logger      *logger.Logger
	pool        *Pool
	inFlight    map[string]domain.DownloadRequest
	queued      map[string]struct{}
	states      map[string]domain.RequestState
	backlog     []domain.DownloadRequest
	handlers    []func(Event)
	maxInFlight int
	mu          sync.Mutex
	hmu         sync.RWMutex
	closed      bool
}

func NewScheduler(handler JobHandler, opts Options) *Scheduler {
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = constants.DefaultMaxInFlight
	}
	if opts.Workers <= 0 {
		opts.Workers = constants.DefaultWorkers
	}
	if opts.Workers < opts.MaxInFlight {
		// an in-flight request must never wait behind another on one worker
		opts.Logger.Warn("Raising worker count to the in-flight limit", "workers", opts.Workers, "max_in_flight", opts.MaxInFlight)
		opts.Workers = opts.MaxInFlight
	}

	s := &Scheduler{
		logger:      opts.Logger.WithComponent("downloader"),
		inFlight:    make(map[string]domain.DownloadRequest),
		queued:      make(map[string]struct{}),
		states:      make(map[string]domain.RequestState),
		maxInFlight: opts.MaxInFlight,
	}
	s.pool = newPool(opts.Workers, handler, s, s.logger.Logger)
	s.logger.Debug("Download pool started", "workers", s.pool.Size(), "max_in_flight", s.maxInFlight)
	return s
}

// New builds a scheduler around the idempotent fetch handler.
func New(fetcher Fetcher, opts Options) *Scheduler {
	return NewScheduler(&FetchHandler{Fetcher: fetcher}, opts)
}

// OnEvent registers a handler for every subsequent event. Handlers may be
// called concurrently from different workers.
func (s *Scheduler) OnEvent(fn func(Event)) {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	s.handlers = append(s.handlers, fn)
}

func (s *Scheduler) emit(ev Event) {
	s.hmu.RLock()
	handlers := s.handlers
	s.hmu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}

// Submit never blocks on a download. A song that already has a file is
// rejected but still produces EventAlreadyDownloaded.
func (s *Scheduler) Submit(req domain.DownloadRequest) Admission {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if req.SubmittedAt.IsZero() {
		req.SubmittedAt = time.Now()
	}
	log := s.logger.WithRequest(req.ID, req.Song.ID)

	if req.Song.Downloaded() {
		log.Debug("Song already downloaded")
		s.emit(Event{Type: EventAlreadyDownloaded, Request: req, Time: time.Now()})
		return Admission{Outcome: Rejected, Reason: ReasonAlreadyDownloaded, RequestID: req.ID}
	}

	key := req.Song.Key()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Admission{Outcome: Rejected, Reason: ReasonClosed, RequestID: req.ID}
	}
	if _, ok := s.inFlight[key]; ok {
		s.mu.Unlock()
		return Admission{Outcome: Rejected, Reason: ReasonInFlight, RequestID: req.ID}
	}
	if _, ok := s.queued[key]; ok {
		s.mu.Unlock()
		return Admission{Outcome: Rejected, Reason: ReasonAlreadyQueued, RequestID: req.ID}
	}

	if len(s.inFlight) >= s.maxInFlight {
		s.backlog = append(s.backlog, req)
		s.queued[key] = struct{}{}
		s.states[key] = domain.RequestQueued
		depth := len(s.backlog)
		s.mu.Unlock()

		log.Info("Download queued", "backlog", depth)
		return Admission{Outcome: Queued, RequestID: req.ID}
	}

	s.startLocked(req)
	s.mu.Unlock()

	log.Info("Download accepted")
	return Admission{Outcome: Accepted, RequestID: req.ID}
}

// startLocked moves req in flight and hands it to a worker. Caller holds mu.
func (s *Scheduler) startLocked(req domain.DownloadRequest) {
	key := req.Song.Key()
	s.inFlight[key] = req
	s.states[key] = domain.RequestInFlight
	s.pool.pick().enqueue(req)
}

func (s *Scheduler) started(req domain.DownloadRequest) {
	s.emit(Event{Type: EventStarted, Request: req, Time: time.Now()})
}

// finish is called by a worker once a job ends. Leaving the in-flight set and
// starting the oldest backlog entry happen in one critical section.
func (s *Scheduler) finish(req domain.DownloadRequest, path string, err error) {
	key := req.Song.Key()
	log := s.logger.WithRequest(req.ID, req.Song.ID)

	done := Event{Type: EventCompleted, Request: req, Time: time.Now()}
	if err != nil {
		done.Type = EventFailed
		done.Err = err
	} else {
		done.Request.Song.File = path
	}

	s.mu.Lock()
	delete(s.inFlight, key)
	if err != nil {
		s.states[key] = domain.RequestFailed
	} else {
		s.states[key] = domain.RequestCompleted
	}

	if !s.closed && len(s.backlog) > 0 {
		next := s.backlog[0]
		s.backlog[0] = domain.DownloadRequest{}
		s.backlog = s.backlog[1:]
		delete(s.queued, next.Song.Key())
		s.startLocked(next)
	}
	s.mu.Unlock()

	if err != nil {
		log.Error("Download failed", "error", err)
	} else {
		log.Info("Download completed", "file_path", path)
	}
	s.emit(done)
}

// State reports where the request for key stands. Unknown keys report
// RequestPending and false.
func (s *Scheduler) State(key string) (domain.RequestState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[key]
	if !ok {
		return domain.RequestPending, false
	}
	return st, true
}

// InFlight returns the in-flight requests, oldest first.
func (s *Scheduler) InFlight() []domain.DownloadRequest {
	s.mu.Lock()
	out := make([]domain.DownloadRequest, 0, len(s.inFlight))
	for _, req := range s.inFlight {
		out = append(out, req)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out
}

// Backlog returns the queued requests in dispatch order.
func (s *Scheduler) Backlog() []domain.DownloadRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.DownloadRequest, len(s.backlog))
	copy(out, s.backlog)
	return out
}

func (s *Scheduler) MaxInFlight() int {
	return s.maxInFlight
}

// Close stops accepting requests, cancels running fetches and waits for the
// workers to exit. Queued requests are dropped without events and forgotten,
// so State reports them unknown afterwards.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for key := range s.queued {
		delete(s.states, key)
	}
	s.backlog = nil
	s.queued = make(map[string]struct{})
	s.mu.Unlock()

	s.pool.close()
}
