package jexpr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceInterval is the quiet period the watcher waits for before
// reloading.
const DefaultDebounceInterval = 100 * time.Millisecond

// ExtensionWatcher reloads an extension file when it changes and applies
// it to an engine. A failed reload keeps the previous registry.
type ExtensionWatcher struct {
	engine   *Engine
	path     string
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
	debounce *debouncer

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	reloaded func(error)
}

// NewExtensionWatcher creates a watcher for path. The directory holding
// path is watched so that editors which replace the file are seen.
func NewExtensionWatcher(engine *Engine, path string, interval time.Duration) (*ExtensionWatcher, error) {
	if interval <= 0 {
		interval = DefaultDebounceInterval
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve extensions path: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	return &ExtensionWatcher{
		engine:   engine,
		path:     abs,
		logger:   engine.logger,
		watcher:  watcher,
		debounce: newDebouncer(interval),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// OnReload registers a callback invoked after each reload attempt with its
// result.
func (w *ExtensionWatcher) OnReload(fn func(error)) {
	w.mu.Lock()
	w.reloaded = fn
	w.mu.Unlock()
}

// Reload loads the file and applies it to the engine.
func (w *ExtensionWatcher) Reload() error {
	set, err := LoadExtensions(w.path)
	if err == nil {
		err = w.engine.ApplyExtensions(set)
	}
	if err != nil {
		w.logger.Error("extension reload failed", "path", w.path, "error", err)
	}
	w.mu.Lock()
	notify := w.reloaded
	w.mu.Unlock()
	if notify != nil {
		notify(err)
	}
	return err
}

// Watch blocks until ctx is done or Stop is called.
func (w *ExtensionWatcher) Watch(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("extension watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(w.doneCh)
	}()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.logger.Info("extension watcher started", "path", w.path, "debounce_ms", w.debounce.interval.Milliseconds())

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("extension watcher stopped", "reason", ctx.Err())
			return nil
		case <-w.stopCh:
			w.logger.Info("extension watcher stopped")
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("extension file event", "path", event.Name, "op", event.Op.String())
			w.debounce.trigger(func() { _ = w.Reload() })
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.logger.Error("extension watcher error", "error", err)
		}
	}
}

// Stop ends Watch, cancels pending reloads and releases the watcher.
func (w *ExtensionWatcher) Stop() error {
	w.mu.Lock()
	running := w.running
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}
	w.debounce.stop()
	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("close watcher: %w", err)
	}
	return nil
}

func (w *ExtensionWatcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	return filepath.Clean(event.Name) == w.path
}

// debouncer runs the most recent callback once no trigger has arrived for
// interval.
type debouncer struct {
	interval time.Duration

	mu       sync.Mutex
	timer    *time.Timer
	callback func()
	stopped  bool
}

func newDebouncer(interval time.Duration) *debouncer {
	return &debouncer{interval: interval}
}

func (d *debouncer) trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.callback = callback
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.fire)
}

func (d *debouncer) fire() {
	d.mu.Lock()
	cb := d.callback
	d.callback = nil
	stopped := d.stopped
	d.mu.Unlock()
	if cb != nil && !stopped {
		cb()
	}
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.callback = nil
}
