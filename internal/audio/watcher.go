package audio

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher drops cached sounds when their files change on disk.
type Watcher struct {
	mu      sync.Mutex
	logger  *slog.Logger
	player  *Player
	fsw     *fsnotify.Watcher
	files   map[string]struct{}
	dirs    map[string]struct{}
	done    chan struct{}
	running bool
}

// NewWatcher creates a stopped watcher.
func NewWatcher(player *Player, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		logger: logger,
		player: player,
		files:  make(map[string]struct{}),
		dirs:   make(map[string]struct{}),
	}
}

// Watch tracks a sound file. Its directory is watched so editors that
// replace files by rename are noticed.
func (w *Watcher) Watch(path string) {
	if path == "" {
		return
	}
	path = filepath.Clean(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.files[path] = struct{}{}
	if w.running {
		w.addDirLocked(filepath.Dir(path))
	}
}

// Reset forgets all tracked files.
func (w *Watcher) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	clear(w.files)
}

// Start begins watching. It is a no-op if already running.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fsw = fsw
	w.done = make(chan struct{})
	w.running = true
	clear(w.dirs)
	for path := range w.files {
		w.addDirLocked(filepath.Dir(path))
	}

	go w.loop(fsw, w.done)
	w.logger.Debug("sound watcher started", "files", len(w.files))
	return nil
}

// Stop ends watching.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	w.running = false
	close(w.done)
	_ = w.fsw.Close()
	w.logger.Debug("sound watcher stopped")
}

func (w *Watcher) addDirLocked(dir string) {
	if _, ok := w.dirs[dir]; ok {
		return
	}
	if err := w.fsw.Add(dir); err != nil {
		w.logger.Debug("cannot watch sound directory", "dir", dir, "error", err)
		return
	}
	w.dirs[dir] = struct{}{}
}

func (w *Watcher) tracked(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.files[filepath.Clean(path)]
	return ok
}

func (w *Watcher) loop(fsw *fsnotify.Watcher, done <-chan struct{}) {
	for {
		select {
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !w.tracked(ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
				w.logger.Debug("sound file changed, invalidating cache", "path", ev.Name)
				w.player.Invalidate(filepath.Clean(ev.Name))
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("sound watcher error", "error", err)
		case <-done:
			return
		}
	}
}
