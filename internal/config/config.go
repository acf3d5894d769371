// Package config handles configuration file loading and parsing.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultWidgetSize      = 100
	DefaultLockedGlyph     = "🔒"
	DefaultUnlockedGlyph   = "🔓"
	DefaultDoubleTapWindow = 300 * time.Millisecond
	DefaultIdleTimeout     = 3 * time.Second
	DefaultDimOpacity      = 0.5
	DefaultZoneFraction    = 0.3
	DefaultScrimOpacity    = 150.0 / 255.0
)

// Config is the perch configuration.
// Loaded from ~/.config/perch/perch.toml
type Config struct {
	Widget     WidgetConfig     `toml:"widget"`
	Gesture    GestureConfig    `toml:"gesture"`
	Dimmer     DimmerConfig     `toml:"dimmer"`
	DeleteZone DeleteZoneConfig `toml:"delete_zone"`
	Lock       LockConfig       `toml:"lock"`
	Screen     ScreenConfig     `toml:"screen"`
	Audio      AudioConfig      `toml:"audio"`
	Theme      ThemeConfig      `toml:"theme"`
	Notify     NotifyConfig     `toml:"notify"`
}

// WidgetConfig contains the appearance of a floating widget.
type WidgetConfig struct {
	Size          int    `toml:"size"`           // Side length in pixels
	LockedGlyph   string `toml:"locked_glyph"`   // Shown while locked
	UnlockedGlyph string `toml:"unlocked_glyph"` // Shown while draggable
}

// GestureConfig contains touch interpretation settings.
type GestureConfig struct {
	DoubleTapWindow Duration `toml:"double_tap_window"` // Max gap between releases
	DoubleTapScope  string   `toml:"double_tap_scope"`  // "widget" or "global"
	DeleteTarget    string   `toml:"delete_target"`     // "dragged" or "top"
}

// DimmerConfig contains inactivity dimming settings.
type DimmerConfig struct {
	IdleTimeout Duration `toml:"idle_timeout"`
	DimOpacity  float64  `toml:"dim_opacity"` // 0.0-1.0
}

// DeleteZoneConfig contains the delete band geometry.
type DeleteZoneConfig struct {
	Fraction float64 `toml:"fraction"` // Share of screen height from the top
}

// LockConfig contains lock mode settings.
type LockConfig struct {
	ScrimOpacity float64 `toml:"scrim_opacity"` // 0.0-1.0
}

// ScreenConfig overrides detected screen metrics. Zero means detect.
type ScreenConfig struct {
	Width   int `toml:"width"`
	Height  int `toml:"height"`
	Monitor int `toml:"monitor"` // 0 = first, 1+ = specific monitor
}

// AudioConfig contains audio cue settings.
type AudioConfig struct {
	Enabled bool        `toml:"enabled"`
	Volume  int         `toml:"volume"` // 0-100
	Sounds  SoundConfig `toml:"sounds"`
}

// SoundConfig contains per-cue sound file paths.
type SoundConfig struct {
	Create string `toml:"create"`
	Lock   string `toml:"lock"`
	Unlock string `toml:"unlock"`
	Delete string `toml:"delete"`
}

// ThemeConfig contains theme settings.
type ThemeConfig struct {
	Name        string `toml:"name"`         // Theme name without .css extension
	ColorScheme string `toml:"color_scheme"` // "system", "light", or "dark"
}

// NotifyConfig controls desktop notifications about daemon problems.
type NotifyConfig struct {
	Enabled     bool     `toml:"enabled"`
	MinInterval Duration `toml:"min_interval"` // Rate limit per message key
}

// DoubleTapScope controls which taps count towards a double-tap.
type DoubleTapScope string

const (
	DoubleTapScopeWidget DoubleTapScope = "widget"
	DoubleTapScopeGlobal DoubleTapScope = "global"
)

// DeleteTarget selects the widget removed when a drag is released in the delete zone.
type DeleteTarget string

const (
	DeleteTargetDragged DeleteTarget = "dragged"
	DeleteTargetTop     DeleteTarget = "top"
)

// ColorScheme represents the color scheme preference.
type ColorScheme string

const (
	ColorSchemeSystem ColorScheme = "system"
	ColorSchemeLight  ColorScheme = "light"
	ColorSchemeDark   ColorScheme = "dark"
)

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Widget: WidgetConfig{
			Size:          DefaultWidgetSize,
			LockedGlyph:   DefaultLockedGlyph,
			UnlockedGlyph: DefaultUnlockedGlyph,
		},
		Gesture: GestureConfig{
			DoubleTapWindow: Duration(DefaultDoubleTapWindow),
			DoubleTapScope:  string(DoubleTapScopeWidget),
			DeleteTarget:    string(DeleteTargetDragged),
		},
		Dimmer: DimmerConfig{
			IdleTimeout: Duration(DefaultIdleTimeout),
			DimOpacity:  DefaultDimOpacity,
		},
		DeleteZone: DeleteZoneConfig{
			Fraction: DefaultZoneFraction,
		},
		Lock: LockConfig{
			ScrimOpacity: DefaultScrimOpacity,
		},
		Audio: AudioConfig{
			Enabled: true,
			Volume:  80,
		},
		Theme: ThemeConfig{
			Name:        "default",
			ColorScheme: string(ColorSchemeSystem),
		},
		Notify: NotifyConfig{
			Enabled:     true,
			MinInterval: Duration(5 * time.Second),
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "perch", "perch.toml"), nil
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns the default config if the file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the specified path atomically.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Widget.Size < 16 || c.Widget.Size > 1000 {
		return fmt.Errorf("widget size must be between 16 and 1000, got %d", c.Widget.Size)
	}

	if c.Gesture.DoubleTapWindow.Duration() <= 0 || c.Gesture.DoubleTapWindow.Duration() > 2*time.Second {
		return fmt.Errorf("double_tap_window must be between 1ms and 2s, got %s", c.Gesture.DoubleTapWindow.Duration())
	}
	switch DoubleTapScope(c.Gesture.DoubleTapScope) {
	case DoubleTapScopeWidget, DoubleTapScopeGlobal:
	default:
		return fmt.Errorf("invalid double_tap_scope %q, must be %q or %q",
			c.Gesture.DoubleTapScope, DoubleTapScopeWidget, DoubleTapScopeGlobal)
	}
	switch DeleteTarget(c.Gesture.DeleteTarget) {
	case DeleteTargetDragged, DeleteTargetTop:
	default:
		return fmt.Errorf("invalid delete_target %q, must be %q or %q",
			c.Gesture.DeleteTarget, DeleteTargetDragged, DeleteTargetTop)
	}

	if c.Dimmer.IdleTimeout.Duration() <= 0 {
		return fmt.Errorf("idle_timeout must be positive, got %s", c.Dimmer.IdleTimeout.Duration())
	}
	if err := checkUnit("dim_opacity", c.Dimmer.DimOpacity); err != nil {
		return err
	}
	if c.DeleteZone.Fraction <= 0 || c.DeleteZone.Fraction >= 1 {
		return fmt.Errorf("delete_zone fraction must be between 0 and 1 (exclusive), got %g", c.DeleteZone.Fraction)
	}
	if err := checkUnit("scrim_opacity", c.Lock.ScrimOpacity); err != nil {
		return err
	}

	if c.Screen.Width < 0 || c.Screen.Height < 0 {
		return fmt.Errorf("screen dimensions cannot be negative")
	}
	if c.Screen.Monitor < 0 {
		return fmt.Errorf("monitor cannot be negative, got %d", c.Screen.Monitor)
	}

	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", c.Audio.Volume)
	}

	switch ColorScheme(c.Theme.ColorScheme) {
	case ColorSchemeSystem, ColorSchemeLight, ColorSchemeDark:
	default:
		return fmt.Errorf("invalid color_scheme %q", c.Theme.ColorScheme)
	}

	return nil
}

func checkUnit(name string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%s must be between 0.0 and 1.0, got %g", name, v)
	}
	return nil
}

// GlyphFor returns the widget glyph for the given lock state.
func (c *Config) GlyphFor(locked bool) string {
	if locked {
		return c.Widget.LockedGlyph
	}
	return c.Widget.UnlockedGlyph
}

// SoundFor returns the sound file path for a cue name, with ~ expanded.
func (c *Config) SoundFor(cue string) string {
	var path string
	switch cue {
	case "create":
		path = c.Audio.Sounds.Create
	case "lock":
		path = c.Audio.Sounds.Lock
	case "unlock":
		path = c.Audio.Sounds.Unlock
	case "delete":
		path = c.Audio.Sounds.Delete
	}
	return expandPath(path)
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
