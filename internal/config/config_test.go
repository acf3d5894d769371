package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 100, cfg.Widget.Size)
	assert.Equal(t, 300*time.Millisecond, cfg.Gesture.DoubleTapWindow.Duration())
	assert.Equal(t, 3*time.Second, cfg.Dimmer.IdleTimeout.Duration())
	assert.InDelta(t, 0.5, cfg.Dimmer.DimOpacity, 1e-9)
	assert.InDelta(t, 0.3, cfg.DeleteZone.Fraction, 1e-9)
	assert.Equal(t, "widget", cfg.Gesture.DoubleTapScope)
	assert.Equal(t, "dragged", cfg.Gesture.DeleteTarget)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perch.toml")
	content := `
[widget]
size = 64

[gesture]
double_tap_window = "250"
double_tap_scope = "global"

[dimmer]
idle_timeout = "5s"

[audio.sounds]
lock = "/tmp/lock.wav"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 64, cfg.Widget.Size)
	assert.Equal(t, 250*time.Millisecond, cfg.Gesture.DoubleTapWindow.Duration())
	assert.Equal(t, "global", cfg.Gesture.DoubleTapScope)
	assert.Equal(t, 5*time.Second, cfg.Dimmer.IdleTimeout.Duration())
	assert.Equal(t, "/tmp/lock.wav", cfg.SoundFor("lock"))
	// Untouched keys keep defaults
	assert.Equal(t, DefaultUnlockedGlyph, cfg.Widget.UnlockedGlyph)
	assert.Equal(t, "dragged", cfg.Gesture.DeleteTarget)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad toml", "[widget\nsize="},
		{"bad duration", "[gesture]\ndouble_tap_window = \"soon\""},
		{"size too small", "[widget]\nsize = 2"},
		{"fraction out of range", "[delete_zone]\nfraction = 1.5"},
		{"unknown scope", "[gesture]\ndouble_tap_scope = \"screen\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "perch.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0600))
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero window", func(c *Config) { c.Gesture.DoubleTapWindow = 0 }, true},
		{"window too long", func(c *Config) { c.Gesture.DoubleTapWindow = Duration(3 * time.Second) }, true},
		{"top delete target", func(c *Config) { c.Gesture.DeleteTarget = "top" }, false},
		{"bad delete target", func(c *Config) { c.Gesture.DeleteTarget = "middle" }, true},
		{"zero idle", func(c *Config) { c.Dimmer.IdleTimeout = 0 }, true},
		{"dim above one", func(c *Config) { c.Dimmer.DimOpacity = 1.2 }, true},
		{"negative scrim", func(c *Config) { c.Lock.ScrimOpacity = -0.1 }, true},
		{"negative screen", func(c *Config) { c.Screen.Height = -1 }, true},
		{"volume", func(c *Config) { c.Audio.Volume = 101 }, true},
		{"color scheme", func(c *Config) { c.Theme.ColorScheme = "sepia" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "perch.toml")

	cfg := DefaultConfig()
	cfg.Widget.Size = 120
	cfg.Dimmer.IdleTimeout = Duration(10 * time.Second)
	require.NoError(t, cfg.Save(path))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 120, loaded.Widget.Size)
	assert.Equal(t, 10*time.Second, loaded.Dimmer.IdleTimeout.Duration())
}

func TestGlyphFor(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "🔒", cfg.GlyphFor(true))
	assert.Equal(t, "🔓", cfg.GlyphFor(false))
}

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"300", 300 * time.Millisecond, false},
		{"300ms", 300 * time.Millisecond, false},
		{"3s", 3 * time.Second, false},
		{"1m", time.Minute, false},
		{"later", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.in))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration())
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "a.wav"), expandPath("~/a.wav"))
	assert.Equal(t, "/abs/a.wav", expandPath("/abs/a.wav"))
	assert.Equal(t, "", expandPath(""))
}
