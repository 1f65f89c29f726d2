// internal/watch/watch.go
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/boxflow/internal/config"
)

// Handler re-processes the files that changed. The first call receives
// every watched file.
type Handler func(ctx context.Context, paths []string) error

// Watcher re-runs a Handler whenever a watched file changes. Bursts of
// file events are coalesced by a debounce window, and handler runs are
// throttled by a token bucket.
type Watcher struct {
	logger   *zap.Logger
	paths    map[string]bool
	order    []string
	limiter  *rate.Limiter
	debounce time.Duration
	handler  Handler
}

// New validates paths and creates a Watcher. Paths are made absolute so
// events reported against the parent directory can be matched.
func New(logger *zap.Logger, cfg config.WatchConfig, paths []string, handler Handler) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, errors.New("watch: no files to watch")
	}
	if handler == nil {
		return nil, errors.New("watch: nil handler")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &Watcher{
		logger:   logger.Named("watch"),
		paths:    make(map[string]bool, len(paths)),
		debounce: cfg.Debounce,
		handler:  handler,
	}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("watch: cannot resolve %s: %w", p, err)
		}
		if !w.paths[abs] {
			w.paths[abs] = true
			w.order = append(w.order, abs)
		}
	}

	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	w.limiter = rate.NewLimiter(limit, burst)
	return w, nil
}

// Run calls the handler once for every file, then again for each batch of
// changes until ctx is cancelled. Handler errors are logged and do not stop
// the watcher. Run returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: failed to create file watcher: %w", err)
	}
	defer fw.Close()

	// Directories are watched instead of files so editors that replace a
	// file by renaming keep being followed.
	dirs := make(map[string]bool)
	for _, p := range w.order {
		dir := filepath.Dir(p)
		if dirs[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watch: cannot watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}

	w.logger.Info("Watching for changes", zap.Int("files", len(w.order)), zap.Int("dirs", len(dirs)))
	w.run(ctx, w.order)

	pending := make(map[string]bool)
	// Idle until the first event arms it.
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stopping watcher.")
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("File event", zap.String("path", ev.Name), zap.Stringer("op", ev.Op))
			pending[filepath.Clean(ev.Name)] = true
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("File watcher error", zap.Error(err))

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			sort.Strings(batch)
			clear(pending)

			if err := w.limiter.Wait(ctx); err != nil {
				// Only fails on cancellation.
				return nil
			}
			w.run(ctx, batch)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !w.paths[filepath.Clean(ev.Name)] {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

func (w *Watcher) run(ctx context.Context, paths []string) {
	start := time.Now()
	if err := w.handler(ctx, paths); err != nil {
		w.logger.Error("Re-layout failed", zap.Strings("paths", paths), zap.Error(err))
		return
	}
	w.logger.Debug("Re-layout complete", zap.Strings("paths", paths), zap.Duration("took", time.Since(start)))
}
