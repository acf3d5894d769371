package theme

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes to CSS files in the user theme directory so the
// current theme can be reloaded without restarting the daemon.
type Watcher struct {
	mu     sync.RWMutex
	logger *slog.Logger

	dir      string
	debounce time.Duration

	onChangeCallback func()

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewWatcher creates a watcher for dir, usually ThemesDir().
func NewWatcher(dir string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		logger:   logger,
		dir:      dir,
		debounce: 200 * time.Millisecond,
	}
}

// SetDebounce sets how long the watcher waits for events to settle.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounce = d
}

// SetChangeCallback sets the callback invoked after CSS files change.
// It runs on the watcher goroutine; GTK work must be marshalled by the
// caller.
func (w *Watcher) SetChangeCallback(callback func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChangeCallback = callback
}

// Start begins watching. A missing directory is not an error: there is
// nothing to override the bundled themes with.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}
	if w.dir == "" {
		return nil
	}
	if _, err := os.Stat(w.dir); err != nil {
		w.logger.Debug("theme directory not found, not watching", "dir", w.dir)
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create theme watcher: %w", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.running = true
	go w.watchLoop(ctx, fsw, w.stopCh, w.doneCh)

	w.logger.Debug("theme watcher started", "dir", w.dir)
	return nil
}

// Stop stops watching the theme directory.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	done := w.doneCh
	w.mu.Unlock()

	<-done
	w.logger.Debug("theme watcher stopped")
}

// IsRunning returns whether the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

func (w *Watcher) watchLoop(ctx context.Context, fsw *fsnotify.Watcher, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer fsw.Close()

	var settle *time.Timer
	var settleC <-chan time.Time
	defer func() {
		if settle != nil {
			settle.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, ".css") || event.Op == fsnotify.Chmod {
				continue
			}
			w.mu.RLock()
			d := w.debounce
			w.mu.RUnlock()
			if settle == nil {
				settle = time.NewTimer(d)
			} else {
				settle.Reset(d)
			}
			settleC = settle.C
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("theme watcher error", "error", err)
		case <-settleC:
			settleC = nil
			w.mu.RLock()
			callback := w.onChangeCallback
			w.mu.RUnlock()
			w.logger.Info("theme files changed, reloading", "dir", w.dir)
			if callback != nil {
				callback()
			}
		}
	}
}
