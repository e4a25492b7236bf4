package playback

// Output is the audio device the engine drives. Implementations must be safe
// for concurrent use. Load runs outside the engine lock; every other method
// may be called while the engine holds it.
type Output interface {
	// Load replaces whatever is sounding with the file at path and starts it
	// unless paused.
	Load(path string) error
	// Idle reports that nothing is loaded or the loaded track has ended.
	Idle() bool
	Paused() bool
	Play()
	Pause()
	// Skip drops the sounding track.
	Skip()
	SetSpeed(speed float64)
	Speed() float64
	SetVolume(v float64)
	Volume() float64
}
