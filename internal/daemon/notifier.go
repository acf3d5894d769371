package daemon

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/perch/internal/clock"
	"github.com/jmylchreest/perch/internal/dbus"
)

// NotificationLevel indicates the severity of a daemon notification.
type NotificationLevel int

const (
	// NotificationLevelInfo is for informational messages (low urgency).
	NotificationLevelInfo NotificationLevel = iota
	// NotificationLevelWarning is for warning messages (normal urgency).
	NotificationLevelWarning
	// NotificationLevelError is for error messages (critical urgency).
	NotificationLevelError
)

const appName = "perchd"

// Sender delivers a desktop notification.
type Sender interface {
	Send(note dbus.Notification) (uint32, error)
}

// Notifier sends desktop notifications about daemon events, rate limited
// per key so a failing host cannot flood the notification server.
type Notifier struct {
	mu     sync.Mutex
	logger *slog.Logger
	clock  clock.Clock
	sender Sender

	lastNotifyTime map[string]time.Time
	minInterval    time.Duration
	enabled        bool
}

// NewNotifier creates an enabled notifier. A nil sender makes every
// notification a logged no-op.
func NewNotifier(sender Sender, clk clock.Clock, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &Notifier{
		logger:         logger,
		clock:          clk,
		sender:         sender,
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    5 * time.Second,
		enabled:        true,
	}
}

// SetEnabled enables or disables notifications.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between notifications sharing a key.
func (n *Notifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify sends a notification unless one with the same key went out
// within the minimum interval. It reports whether it was sent.
func (n *Notifier) Notify(key, summary, body string, level NotificationLevel) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.enabled {
		return false
	}
	if n.sender == nil {
		n.logger.Debug("notification skipped: no sender", "summary", summary)
		return false
	}

	now := n.clock.Now()
	if last, ok := n.lastNotifyTime[key]; ok && now.Sub(last) < n.minInterval {
		n.logger.Debug("notification rate-limited", "key", key, "summary", summary)
		return false
	}
	n.lastNotifyTime[key] = now

	note := dbus.Notification{
		AppName: appName,
		Summary: summary,
		Body:    body,
		Timeout: 5000,
	}
	switch level {
	case NotificationLevelInfo:
		note.Urgency = dbus.UrgencyLow
		note.Icon = "dialog-information"
	case NotificationLevelWarning:
		note.Urgency = dbus.UrgencyNormal
		note.Icon = "dialog-warning"
	case NotificationLevelError:
		note.Urgency = dbus.UrgencyCritical
		note.Icon = "dialog-error"
	}

	if _, err := n.sender.Send(note); err != nil {
		n.logger.Warn("failed to send notification", "key", key, "error", err)
		return false
	}
	n.logger.Debug("sent notification", "key", key, "summary", summary, "level", level)
	return true
}

// NotifyConfigReloaded reports a successful configuration reload.
func (n *Notifier) NotifyConfigReloaded() {
	n.Notify("config-reload", "Configuration Reloaded",
		"perch configuration has been reloaded.", NotificationLevelInfo)
}

// NotifyConfigError reports a configuration file that failed to load.
func (n *Notifier) NotifyConfigError(err error) {
	n.Notify("config-error", "Configuration Error",
		"Keeping previous configuration: "+err.Error(), NotificationLevelWarning)
}

// NotifyPermissionNeeded explains why widgets cannot be shown.
func (n *Notifier) NotifyPermissionNeeded() {
	n.Notify("permission", "Overlay Permission Needed",
		"perch needs a compositor with wlr-layer-shell support to draw floating widgets.",
		NotificationLevelWarning)
}

// NotifyHostError reports a failed overlay operation. Failures of the
// same operation share one rate limit.
func (n *Notifier) NotifyHostError(op string, err error) {
	n.Notify("host-"+op, "Widget Error", err.Error(), NotificationLevelError)
}

// NotifyAudioError reports a failed sound cue.
func (n *Notifier) NotifyAudioError(err error) {
	n.Notify("audio-error", "Audio Error",
		"Failed to play sound: "+err.Error(), NotificationLevelWarning)
}
