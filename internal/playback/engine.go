package playback

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cesargomez89/resonate/internal/constants"
	"github.com/cesargomez89/resonate/internal/domain"
	"github.com/cesargomez89/resonate/internal/logger"
)

var (
	ErrDecode        = errors.New("failed to decode track")
	ErrNotDownloaded = errors.New("song has no local file")
	ErrInvalidSpeed  = errors.New("speed must be positive")
	ErrNoOutput      = errors.New("no audio output")
)

// Status is a point-in-time snapshot of the engine.
type Status struct {
	Current  *domain.Song  `json:"current,omitempty"`
	Pending  []domain.Song `json:"pending"`
	Progress float64       `json:"progress"`
	Speed    float64       `json:"speed"`
	Volume   float64       `json:"volume"`
	Paused   bool          `json:"paused"`
	Looping  bool          `json:"looping"`
	Idle     bool          `json:"idle"`
}

type Options struct {
	Logger       *logger.Logger
	OnProgress   func(Status)
	OnTrackError func(domain.Song, error)
	TickInterval time.Duration
}

// Engine owns the playback queue and advances it from a polling loop.
//
// current may also be retained as the queue head until the next tick loads
// it; staged marks that case so Pending never reports the current song.
type Engine struct {
	out          Output
	logger       *logger.Logger
	onProgress   func(Status)
	onTrackError func(domain.Song, error)
	current      *domain.Song
	stop         chan struct{}
	gen          uint64
	queue        []domain.Song
	wg           sync.WaitGroup
	interval     time.Duration
	progress     float64
	mu           sync.Mutex
	staged       bool
	looping      bool
	running      bool
}

func New(out Output, opts Options) (*Engine, error) {
	if out == nil {
		return nil, ErrNoOutput
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = constants.DefaultTickInterval
	}

	return &Engine{
		out:          out,
		logger:       opts.Logger.WithComponent("playback"),
		onProgress:   opts.OnProgress,
		onTrackError: opts.OnTrackError,
		interval:     opts.TickInterval,
	}, nil
}

// Start launches the polling loop. Calling it twice is a no-op.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	e.running = true
	e.stop = make(chan struct{})

	e.wg.Add(1)
	go e.loop(e.stop)
}

// Close stops the polling loop and silences the output.
func (e *Engine) Close() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.stop)
	e.mu.Unlock()

	e.wg.Wait()
	e.out.Skip()
}

func (e *Engine) loop(stop <-chan struct{}) {
	defer e.wg.Done()
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.tick()
		}
	}
}

// tick runs one polling step. The next track is decoded without holding
// e.mu; a Play or Skip that lands meanwhile bumps gen and wins.
func (e *Engine) tick() {
	e.mu.Lock()
	if !e.out.Idle() {
		if !e.out.Paused() && e.current != nil {
			e.progress += e.interval.Seconds() * e.out.Speed()
		}
		status := e.statusLocked()
		e.mu.Unlock()
		e.report(status)
		return
	}

	e.progress = 0
	next := e.nextLocked()
	gen := e.gen
	e.mu.Unlock()

	var loadErr error
	if next != nil {
		loadErr = e.load(*next)
	}

	e.mu.Lock()
	switch {
	case next != nil && e.gen != gen:
		// superseded; drop whatever the load started
		if loadErr == nil {
			e.out.Skip()
		}
	case loadErr != nil:
		e.current = nil
	case next != nil:
		e.logger.Debug("Now playing", "song_id", next.ID, "song_name", next.Name)
	}
	status := e.statusLocked()
	e.mu.Unlock()

	if loadErr != nil {
		e.logger.Error("Failed to load track", "song_id", next.ID, "song_name", next.Name, "error", loadErr)
		if e.onTrackError != nil {
			e.onTrackError(*next, loadErr)
		}
	}
	e.report(status)
}

func (e *Engine) report(status Status) {
	if e.onProgress != nil {
		e.onProgress(status)
	}
}

// nextLocked picks the track to load once the output went idle and makes it
// current. A load failure clears current so the following tick moves on.
func (e *Engine) nextLocked() *domain.Song {
	var next *domain.Song
	switch {
	case e.staged:
		next = e.popLocked()
		e.staged = false
	case e.looping && e.current != nil:
		next = e.current
	default:
		next = e.popLocked()
	}

	e.current = next
	if next == nil {
		return nil
	}
	s := *next
	return &s
}

func (e *Engine) load(song domain.Song) error {
	if !song.Downloaded() {
		return fmt.Errorf("%w: %s: %w", ErrDecode, song.Name, ErrNotDownloaded)
	}
	if err := e.out.Load(song.File); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecode, song.Name, err)
	}
	return nil
}

func (e *Engine) popLocked() *domain.Song {
	if len(e.queue) == 0 {
		return nil
	}
	s := e.queue[0]
	e.queue[0] = domain.Song{}
	e.queue = e.queue[1:]
	return &s
}

// Play makes song current right away, discarding what is sounding. The
// output resumes if it was paused.
func (e *Engine) Play(song domain.Song) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.gen++
	e.out.Play()
	e.queue = append([]domain.Song{song}, e.queue...)
	s := song
	e.current = &s
	e.staged = true
	e.progress = 0
	e.out.Skip()
}

// Queue appends song. With nothing current it becomes current immediately
// and starts on the next tick.
func (e *Engine) Queue(song domain.Song) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.queue = append(e.queue, song)
	if e.current == nil {
		s := e.queue[0]
		e.current = &s
		e.staged = true
	}
}

// Skip discards what is sounding and promotes the queue head, or clears
// current when the queue is empty.
func (e *Engine) Skip() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.gen++
	if e.staged {
		e.popLocked()
		e.staged = false
	}
	if len(e.queue) > 0 {
		s := e.queue[0]
		e.current = &s
		e.staged = true
	} else {
		e.current = nil
	}
	e.progress = 0
	e.out.Skip()
}

// Clear empties the pending queue. The current song keeps playing.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.staged && len(e.queue) > 0 {
		e.queue = e.queue[:1]
		return
	}
	e.queue = nil
}

func (e *Engine) Pause() {
	e.out.Pause()
}

func (e *Engine) Resume() {
	e.out.Play()
}

func (e *Engine) Paused() bool {
	return e.out.Paused()
}

func (e *Engine) SetSpeed(speed float64) error {
	if speed <= 0 {
		return ErrInvalidSpeed
	}
	e.out.SetSpeed(speed)
	return nil
}

func (e *Engine) Speed() float64 {
	return e.out.Speed()
}

// SetVolume takes a linear gain, clamped to [0, 1].
func (e *Engine) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	e.out.SetVolume(v)
}

func (e *Engine) Volume() float64 {
	return e.out.Volume()
}

func (e *Engine) SetLooping(looping bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.looping = looping
}

func (e *Engine) Looping() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.looping
}

// Progress is the number of seconds elapsed in the current track, scaled by
// the playback speed.
func (e *Engine) Progress() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progress
}

func (e *Engine) Current() (domain.Song, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return domain.Song{}, false
	}
	return *e.current, true
}

// IsPlaying reports whether song is the current track.
func (e *Engine) IsPlaying(song domain.Song) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current != nil && e.current.Same(song)
}

// Pending lists the songs waiting after the current one.
func (e *Engine) Pending() []domain.Song {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pendingLocked()
}

func (e *Engine) pendingLocked() []domain.Song {
	q := e.queue
	if e.staged && len(q) > 0 {
		q = q[1:]
	}
	out := make([]domain.Song, len(q))
	copy(out, q)
	return out
}

func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statusLocked()
}

func (e *Engine) statusLocked() Status {
	st := Status{
		Pending:  e.pendingLocked(),
		Progress: e.progress,
		Speed:    e.out.Speed(),
		Volume:   e.out.Volume(),
		Paused:   e.out.Paused(),
		Looping:  e.looping,
		Idle:     e.out.Idle(),
	}
	if e.current != nil {
		s := *e.current
		st.Current = &s
	}
	return st
}
