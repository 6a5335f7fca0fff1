package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Voelzke/notehub/internal/storage"
)

// Watch starts an fsnotify watcher on the base directory and feeds change
// events into the adapter until ctx is cancelled.
//
// New directories created at runtime are automatically added to the watch
// list. Rename events are fired by fsnotify on the OLD path only; the new
// path arrives as a separate Create event when it lands in a watched dir,
// so a rename schedules a short debounced incremental pass for the affected
// owner to remove whatever row went stale.
func Watch(ctx context.Context, events *Events, base string, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, base); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("base", base))

	// Owners touched by a rename since the last reconcile pass.
	dirty := make(map[string]bool)
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func(owner string) {
		dirty[owner] = true
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			for owner := range dirty {
				if _, rerr := events.syncer.IncrementalSync(owner); rerr != nil {
					logger.Warn("watcher: reconcile failed",
						slog.String("owner", owner),
						slog.String("error", rerr.Error()))
				}
				delete(dirty, owner)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			abs := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(abs); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, abs); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", abs),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", abs))
					}
					// Index any documents already inside the new directory:
					// a directory moved into the tree arrives as one event.
					indexNewDir(events, abs, logger)
					continue
				}
			}

			switch {
			case ev.Op&fsnotify.Create != 0:
				events.HandleCreated(abs)
			case ev.Op&fsnotify.Write != 0:
				events.HandleWritten(abs)
			case ev.Op&fsnotify.Remove != 0:
				events.HandleDeleted(abs)
			case ev.Op&fsnotify.Rename != 0:
				if owner, _, inTree := events.parsePath(abs); inTree {
					events.HandleDeleted(abs)
					scheduleReconcile(owner)
				}
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// indexNewDir indexes any documents found under a newly created directory.
func indexNewDir(events *Events, dirPath string, logger *slog.Logger) {
	_ = filepath.WalkDir(dirPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(p, storage.DocExt) {
			return nil
		}
		logger.Debug("watcher: indexing from new dir", slog.String("path", p))
		events.HandleCreated(p)
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
}
