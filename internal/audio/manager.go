package audio

import (
	"log/slog"
	"os"
	"sync"

	"github.com/jmylchreest/perch/internal/config"
	"github.com/jmylchreest/perch/internal/model"
)

var cues = []model.Cue{model.CueCreate, model.CueLock, model.CueUnlock, model.CueDelete}

// Manager maps interaction cues to sound files and plays them.
type Manager struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	player  *Player
	watcher *Watcher
	enabled bool
	sounds  map[model.Cue]string
	onError func(error)
}

// NewManager creates a manager from the audio configuration.
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	player := NewPlayer(logger)
	m := &Manager{
		logger:  logger,
		player:  player,
		watcher: NewWatcher(player, logger),
		sounds:  make(map[model.Cue]string),
	}
	m.configure(cfg)
	return m
}

func (m *Manager) configure(cfg *config.Config) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	sounds := make(map[model.Cue]string)
	for _, cue := range cues {
		path := cfg.SoundFor(string(cue))
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			m.logger.Warn("sound file not found", "cue", cue, "path", path)
			continue
		}
		if !Supported(path) {
			m.logger.Warn("unsupported sound file", "cue", cue, "path", path)
			continue
		}
		sounds[cue] = path
	}

	m.mu.Lock()
	m.enabled = cfg.Audio.Enabled
	m.sounds = sounds
	m.mu.Unlock()

	m.player.SetVolume(float64(cfg.Audio.Volume) / 100)
}

// SetErrorCallback sets a function called when asynchronous playback fails.
func (m *Manager) SetErrorCallback(fn func(error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onError = fn
}

// Start preloads configured sounds and watches them for changes.
func (m *Manager) Start() error {
	m.preload()
	if err := m.watcher.Start(); err != nil {
		return err
	}
	m.logger.Info("audio manager started", "sounds", len(m.Sounds()))
	return nil
}

// Stop releases the speaker and the watcher.
func (m *Manager) Stop() {
	m.watcher.Stop()
	m.player.Close()
}

// UpdateConfig reloads the sound mapping after a config change.
func (m *Manager) UpdateConfig(cfg *config.Config) {
	m.configure(cfg)
	m.player.ClearCache()
	m.watcher.Reset()
	m.preload()
	m.logger.Debug("audio configuration updated")
}

func (m *Manager) preload() {
	for cue, path := range m.Sounds() {
		if err := m.player.Preload(path); err != nil {
			m.logger.Warn("failed to preload sound", "cue", cue, "path", path, "error", err)
		}
		m.watcher.Watch(path)
	}
}

// Sounds returns a copy of the cue to file mapping.
func (m *Manager) Sounds() map[model.Cue]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[model.Cue]string, len(m.sounds))
	for k, v := range m.sounds {
		out[k] = v
	}
	return out
}

// PlayCue plays the sound for a cue. Cues without a sound are ignored.
func (m *Manager) PlayCue(cue model.Cue) error {
	m.mu.RLock()
	enabled := m.enabled
	path, ok := m.sounds[cue]
	m.mu.RUnlock()

	if !enabled || !ok {
		return nil
	}
	return m.player.Play(path)
}

// Play plays a cue without blocking the caller. Failures are logged.
func (m *Manager) Play(cue model.Cue) {
	go func() {
		if err := m.PlayCue(cue); err != nil {
			m.logger.Warn("failed to play cue", "cue", cue, "error", err)
			m.mu.RLock()
			onError := m.onError
			m.mu.RUnlock()
			if onError != nil {
				onError(err)
			}
		}
	}()
}
