package audio

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/cesargomez89/resonate/internal/constants"
)

// SpeakerOutput plays one track at a time on the system audio device.
//
// Lock order is o.mu before the speaker lock. The end-of-track callback runs
// under the speaker lock, so it hands off to a goroutine before touching o.mu.
type SpeakerOutput struct {
	streamer  beep.StreamSeekCloser
	ctrl      *beep.Ctrl
	resampler *beep.Resampler
	volume    *effects.Volume
	baseRatio float64
	speed     float64
	linearVol float64
	rate      beep.SampleRate
	gen       uint64
	mu        sync.Mutex
	playing   bool
	paused    bool
}

// NewSpeakerOutput opens the audio device. Failure here is fatal for the
// caller: there is nothing to play through.
func NewSpeakerOutput(sampleRate int, volume float64) (*SpeakerOutput, error) {
	if sampleRate <= 0 {
		sampleRate = constants.DefaultSampleRate
	}
	rate := beep.SampleRate(sampleRate)
	if err := speaker.Init(rate, rate.N(time.Second/10)); err != nil {
		return nil, fmt.Errorf("failed to open audio device: %w", err)
	}

	return &SpeakerOutput{
		rate:      rate,
		speed:     constants.SpeedNormal,
		linearVol: clampVolume(volume),
	}, nil
}

func (o *SpeakerOutput) Load(path string) error {
	streamer, format, err := Open(path)
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.stopLocked()
	o.gen++
	gen := o.gen

	o.streamer = streamer
	o.baseRatio = float64(format.SampleRate) / float64(o.rate)
	o.resampler = beep.ResampleRatio(4, o.baseRatio*o.speed, streamer)
	o.ctrl = &beep.Ctrl{
		Streamer: beep.Seq(o.resampler, beep.Callback(func() {
			go o.finished(gen)
		})),
		Paused: o.paused,
	}
	o.volume = &effects.Volume{Streamer: o.ctrl, Base: 2}
	applyVolume(o.volume, o.linearVol)
	o.playing = true

	speaker.Play(o.volume)
	return nil
}

func (o *SpeakerOutput) finished(gen uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.gen {
		return
	}
	o.playing = false
	if o.streamer != nil {
		o.streamer.Close()
		o.streamer = nil
	}
}

// stopLocked drops the sounding track. Caller holds o.mu.
func (o *SpeakerOutput) stopLocked() {
	speaker.Clear()
	if o.streamer != nil {
		o.streamer.Close()
		o.streamer = nil
	}
	o.ctrl = nil
	o.resampler = nil
	o.volume = nil
	o.playing = false
}

func (o *SpeakerOutput) Idle() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return !o.playing
}

func (o *SpeakerOutput) Paused() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.paused
}

func (o *SpeakerOutput) Play() {
	o.setPaused(false)
}

func (o *SpeakerOutput) Pause() {
	o.setPaused(true)
}

func (o *SpeakerOutput) setPaused(paused bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paused = paused
	if o.ctrl != nil {
		speaker.Lock()
		o.ctrl.Paused = paused
		speaker.Unlock()
	}
}

func (o *SpeakerOutput) Skip() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.gen++
	o.stopLocked()
}

func (o *SpeakerOutput) SetSpeed(speed float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.speed = speed
	if o.resampler != nil {
		speaker.Lock()
		o.resampler.SetRatio(o.baseRatio * speed)
		speaker.Unlock()
	}
}

func (o *SpeakerOutput) Speed() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.speed
}

func (o *SpeakerOutput) SetVolume(v float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.linearVol = clampVolume(v)
	if o.volume != nil {
		speaker.Lock()
		applyVolume(o.volume, o.linearVol)
		speaker.Unlock()
	}
}

func (o *SpeakerOutput) Volume() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.linearVol
}

// Close stops playback and releases the device.
func (o *SpeakerOutput) Close() {
	o.mu.Lock()
	o.gen++
	o.stopLocked()
	o.mu.Unlock()
	speaker.Close()
}

func clampVolume(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// applyVolume maps a linear gain onto the exponential volume effect.
func applyVolume(vol *effects.Volume, linear float64) {
	level, silent := volumeLevel(linear)
	vol.Volume = level
	vol.Silent = silent
}

func volumeLevel(linear float64) (float64, bool) {
	if linear <= 0 {
		return 0, true
	}
	return math.Log2(linear), false
}
