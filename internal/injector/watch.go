package injector

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for the settings file to
// settle before validating.
const DefaultDebounce = 500 * time.Millisecond

// Watcher re-validates the import lists whenever the settings file changes.
type Watcher struct {
	watcher  *fsnotify.Watcher
	in       *Injector
	filePath string
	debounce time.Duration
	onPass   func(*Report, error)
	done     chan struct{}
	stopped  chan struct{}
	mu       sync.Mutex
	running  bool
}

// NewWatcher creates a watcher for the injector's global settings file.
// onPass, if set, is called after every validate pass.
func NewWatcher(in *Injector, debounce time.Duration, onPass func(*Report, error)) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		watcher:  watcher,
		in:       in,
		filePath: in.SettingsPath(),
		debounce: debounce,
		onPass:   onPass,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}, nil
}

// Start begins watching. The watch ends when ctx is cancelled or Stop is
// called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	// Watch the directory: editors replace settings.json on save, which
	// drops a watch on the file itself.
	dir := filepath.Dir(w.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	go w.watch(ctx)
	return nil
}

// Done is closed once the watch loop has exited.
func (w *Watcher) Done() <-chan struct{} {
	return w.stopped
}

func (w *Watcher) watch(ctx context.Context) {
	defer close(w.stopped)

	filename := filepath.Base(w.filePath)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				timer.Reset(w.debounce)
			}

		case <-timer.C:
			w.pass(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.in.logger.Warn("settings watcher error", "error", err)

		case <-ctx.Done():
			return

		case <-w.done:
			return
		}
	}
}

// pass validates unless the file holds exactly what the injector wrote last.
func (w *Watcher) pass(ctx context.Context) {
	data, err := os.ReadFile(w.filePath)
	if err != nil {
		w.in.logger.Debug("settings file unreadable, skipping validate", "path", w.filePath, "error", err)
		return
	}
	if w.in.wroteLast(data) {
		w.in.logger.Debug("ignoring own write", "path", w.filePath)
		return
	}

	w.in.logger.Debug("settings changed, validating", "path", w.filePath)
	r, err := w.in.Validate(ctx)
	if err != nil {
		w.in.logger.Warn("validate failed", "error", err)
	} else if r.Changed() {
		w.in.logger.Info("cleaned import lists", "removed", r.Removed())
	}
	if w.onPass != nil {
		w.onPass(r, err)
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	w.running = false
	close(w.done)
	return w.watcher.Close()
}
