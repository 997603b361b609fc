// Package watch invalidates cached snapshots when content roots change
// on disk.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/sowilo/internal/contentservice"
	"github.com/starford/sowilo/internal/sse"
)

const debounce = 200 * time.Millisecond

// Watch starts an fsnotify watcher over every configured source root and
// processes change events until ctx is cancelled. Changes are debounced
// per source; each settled burst invalidates the source snapshot,
// rebuilds its search index (when one is configured), and publishes an
// SSE content.changed event. broker may be nil.
func Watch(ctx context.Context, svc *contentservice.Service, broker *sse.Broker, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Absolute root path per source, for attributing events.
	roots := make(map[string]string)
	for _, src := range svc.Store().Sources() {
		abs, err := filepath.Abs(src.Resolver.Root)
		if err != nil {
			logger.Warn("watcher: resolve root failed",
				slog.String("source", src.Name), slog.String("error", err.Error()))
			continue
		}
		if err := addDirsRecursive(w, abs); err != nil {
			logger.Warn("watcher: add root failed",
				slog.String("source", src.Name), slog.String("error", err.Error()))
			continue
		}
		roots[src.Name] = abs
	}

	logger.Info("watcher: started", slog.Int("sources", len(roots)))

	pending := make(map[string]struct{})
	var flushTimer *time.Timer
	var flushCh <-chan time.Time

	scheduleFlush := func() {
		if flushTimer == nil {
			flushTimer = time.NewTimer(debounce)
			flushCh = flushTimer.C
		} else {
			flushTimer.Reset(debounce)
		}
	}

	flush := func() {
		for source := range pending {
			delete(pending, source)
			svc.Store().Invalidate(source)
			if err := svc.RebuildIndex(source); err != nil {
				logger.Warn("watcher: index rebuild failed",
					slog.String("source", source), slog.String("error", err.Error()))
				continue
			}
			logger.Debug("watcher: source refreshed", slog.String("source", source))
			if broker != nil {
				broker.Publish(sse.ContentChanged(source))
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			if flushTimer != nil {
				flushTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-flushCh:
			flush()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			source := sourceFor(roots, ev.Name)
			if source == "" {
				continue
			}

			// New directories join the watch set so files created in
			// them keep producing events.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name), slog.String("error", addErr.Error()))
					}
				}
			}

			pending[source] = struct{}{}
			scheduleFlush()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// sourceFor maps an event path to the source whose root contains it.
func sourceFor(roots map[string]string, path string) string {
	for source, root := range roots {
		if path == root || strings.HasPrefix(path, root+string(os.PathSeparator)) {
			return source
		}
	}
	return ""
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
