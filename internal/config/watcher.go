package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hardstop/hardstop/internal/logging"
)

// ReloadFunc is invoked after a debounced file-change event. Returning an
// error logs it and keeps the watcher running with whatever config was
// last successfully loaded; it never crashes the watcher.
type ReloadFunc func() error

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	// Paths is the set of config files to watch (sources + suppression
	// registries). Both are watched under one debounce window so an
	// editor save touching either file triggers exactly one reload.
	Paths []string

	// DebounceMillis coalesces bursts of events from a single save.
	// Default: 500ms.
	DebounceMillis int
}

// Watcher watches the sources and suppression registry files for
// changes and triggers a debounced reload callback. No command in
// cmd/hardstop constructs one.
//
// Grounded on moolen-spectre/internal/config/integration_watcher.go's
// IntegrationWatcher: same ready-channel/debounce-timer/context-
// cancellation shape, generalized from one file to a fixed set.
type Watcher struct {
	cfg      WatcherConfig
	reload   ReloadFunc
	logger   *logging.Logger
	cancel   context.CancelFunc
	stopped  chan struct{}
	ready    chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher creates a watcher over cfg.Paths. reload is called once
// synchronously from Start (the initial load) and again after every
// debounced change.
func NewWatcher(cfg WatcherConfig, reload ReloadFunc) (*Watcher, error) {
	if len(cfg.Paths) == 0 {
		return nil, fmt.Errorf("at least one path must be watched")
	}
	if reload == nil {
		return nil, fmt.Errorf("reload callback cannot be nil")
	}
	if cfg.DebounceMillis == 0 {
		cfg.DebounceMillis = 500
	}
	return &Watcher{
		cfg:     cfg,
		reload:  reload,
		logger:  logging.GetLogger("config.watcher"),
		stopped: make(chan struct{}),
		ready:   make(chan struct{}),
	}, nil
}

// Start runs the initial reload synchronously, then watches cfg.Paths in
// a goroutine. Blocks until the watcher is initialized or ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.reload(); err != nil {
		return fmt.Errorf("initial config load failed: %w", err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	go w.watchLoop(watchCtx)

	select {
	case <-w.ready:
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for config watcher to initialize")
	}
	return nil
}

func (w *Watcher) signalReady() {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.ready:
	default:
		close(w.ready)
	}
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.stopped)
	defer w.signalReady()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Error("failed to create file watcher: %v", err)
		return
	}
	defer fsw.Close()

	for _, p := range w.cfg.Paths {
		if err := fsw.Add(p); err != nil {
			w.logger.Error("failed to watch config file %s: %v", p, err)
			return
		}
	}

	w.signalReady()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			relevant := event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create ||
				event.Op&fsnotify.Rename == fsnotify.Rename ||
				event.Op&fsnotify.Remove == fsnotify.Remove
			if !relevant {
				continue
			}
			if event.Op&fsnotify.Rename == fsnotify.Rename || event.Op&fsnotify.Remove == fsnotify.Remove {
				time.Sleep(50 * time.Millisecond)
				if err := fsw.Add(event.Name); err != nil {
					w.logger.Warn("failed to re-add watch after rename/remove on %s: %v", event.Name, err)
				}
			}
			w.scheduleReload()

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error: %v", err)
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(time.Duration(w.cfg.DebounceMillis)*time.Millisecond, func() {
		if err := w.reload(); err != nil {
			w.logger.Error("config reload failed, keeping previous config: %v", err)
			return
		}
		w.logger.Info("config reloaded")
	})
}

// Stop cancels the watch loop and waits up to 5s for it to exit.
func (w *Watcher) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}
	select {
	case <-w.stopped:
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for config watcher to stop")
	}
}
