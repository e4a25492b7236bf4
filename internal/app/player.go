package app

import (
	"github.com/cesargomez89/resonate/internal/logger"
	"github.com/cesargomez89/resonate/internal/playback"
)

// Player is the playback engine plus the settings that survive restarts.
type Player struct {
	*playback.Engine
	prefs  *Preferences
	logger *logger.Logger
}

// NewPlayer applies the stored volume and looping flag to engine.
func NewPlayer(engine *playback.Engine, prefs *Preferences, log *logger.Logger) *Player {
	if log == nil {
		log = logger.Default()
	}
	p := &Player{Engine: engine, prefs: prefs, logger: log.WithComponent("player")}
	engine.SetVolume(prefs.Volume())
	engine.SetLooping(prefs.Looping())
	return p
}

func (p *Player) SetVolume(v float64) {
	p.Engine.SetVolume(v)
	if err := p.prefs.SetVolume(p.Engine.Volume()); err != nil {
		p.logger.Warn("Failed to persist volume", "error", err)
	}
}

func (p *Player) SetLooping(on bool) {
	p.Engine.SetLooping(on)
	if err := p.prefs.SetLooping(on); err != nil {
		p.logger.Warn("Failed to persist looping", "error", err)
	}
}
