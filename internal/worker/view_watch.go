// Package worker contains background workers that maintain derived state.
package worker

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/matthewbaird/tapestry/internal/view"
)

// ViewWatcher polls a views directory and invalidates the cache entry for
// any view file whose mtime changed, so the next render re-parses it.
type ViewWatcher struct {
	dir      string
	cache    view.Cache
	interval time.Duration
	log      *zap.Logger

	mtimes map[string]time.Time
}

// NewViewWatcher creates a watcher over the given directory.
func NewViewWatcher(dir string, cache view.Cache, interval time.Duration, log *zap.Logger) *ViewWatcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ViewWatcher{
		dir:      dir,
		cache:    cache,
		interval: interval,
		log:      log,
		mtimes:   make(map[string]time.Time),
	}
}

// Run polls until the context is cancelled. The first scan primes the
// mtime table without invalidating anything.
func (w *ViewWatcher) Run(ctx context.Context) {
	w.scan(true)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.scan(false)
		}
	}
}

func (w *ViewWatcher) scan(prime bool) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.log.Debug("views dir scan failed", zap.Error(err))
		return
	}

	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		name := entry.Name()
		seen[name] = true
		prev, known := w.mtimes[name]
		w.mtimes[name] = info.ModTime()

		if prime || (known && prev.Equal(info.ModTime())) {
			continue
		}
		w.invalidate(name)
	}

	// Deleted files invalidate too.
	for name := range w.mtimes {
		if !seen[name] {
			delete(w.mtimes, name)
			if !prime {
				w.invalidate(name)
			}
		}
	}
}

func (w *ViewWatcher) invalidate(fileName string) {
	id := view.IDFor(strings.TrimSuffix(filepath.Base(fileName), ".md"))
	w.cache.Invalidate(id)
	w.log.Info("view changed, cache invalidated", zap.String("view_id", id))
}
