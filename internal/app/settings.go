package app

import (
	"strconv"

	"github.com/cesargomez89/resonate/internal/logger"
	"github.com/cesargomez89/resonate/internal/store"
)

// Preferences persists user toggles in the settings table. Missing or
// malformed values fall back to the configured defaults.
type Preferences struct {
	repo     *store.SettingsRepo
	logger   *logger.Logger
	defaults Defaults
}

type Defaults struct {
	Volume       float64
	OnlineSearch bool
	Looping      bool
}

func NewPreferences(repo *store.SettingsRepo, defaults Defaults, log *logger.Logger) *Preferences {
	if log == nil {
		log = logger.Default()
	}
	return &Preferences{repo: repo, defaults: defaults, logger: log.WithComponent("settings")}
}

func (p *Preferences) Volume() float64 {
	v, ok := p.get(store.SettingVolume)
	if !ok {
		return p.defaults.Volume
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 || f > 1 {
		return p.defaults.Volume
	}
	return f
}

func (p *Preferences) SetVolume(v float64) error {
	return p.repo.Set(store.SettingVolume, strconv.FormatFloat(v, 'f', -1, 64))
}

func (p *Preferences) OnlineSearch() bool {
	return p.getBool(store.SettingOnlineSearch, p.defaults.OnlineSearch)
}

func (p *Preferences) SetOnlineSearch(on bool) error {
	return p.repo.Set(store.SettingOnlineSearch, strconv.FormatBool(on))
}

func (p *Preferences) Looping() bool {
	return p.getBool(store.SettingLooping, p.defaults.Looping)
}

func (p *Preferences) SetLooping(on bool) error {
	return p.repo.Set(store.SettingLooping, strconv.FormatBool(on))
}

func (p *Preferences) get(key string) (string, bool) {
	v, ok, err := p.repo.Lookup(key)
	if err != nil {
		p.logger.Warn("Failed to read setting", "key", key, "error", err)
		return "", false
	}
	return v, ok && v != ""
}

func (p *Preferences) getBool(key string, fallback bool) bool {
	v, ok := p.get(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
