package media

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventCallback is called when the watcher notices a referenced backing
// file has gone missing. kind is currently always "missing".
type EventCallback func(kind string, name string)

// Watch starts an fsnotify watcher on the media directory and reports
// backing files that disappear while the app is running. known returns the
// set of file names currently referenced by live media items. Remove and
// rename events schedule a short debounced reconciliation pass that checks
// every referenced file against the directory and logs unreferenced
// leftovers as orphans.
//
// Missing files are only reported, never repaired: reads already degrade
// to empty bytes, and the record itself stays intact.
func Watch(ctx context.Context, dir string, logger *slog.Logger, known func() map[string]struct{}, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// The directory may not exist until the first large capture.
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("media watcher: started", slog.String("dir", dir))

	// reconcileTimer debounces bursts of remove/rename events.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
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
			logger.Info("media watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(dir, logger, known, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if strings.HasPrefix(name, ".") {
				// Temp files from atomic writes.
				continue
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if _, referenced := known()[name]; referenced {
				logger.Warn("media watcher: backing file vanished", slog.String("file", name))
				if cb != nil {
					cb("missing", name)
				}
			}
			scheduleReconcile()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("media watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcile compares the live reference set against the directory: every
// referenced file must exist on disk, and files nothing references are
// reported as orphans.
func reconcile(dir string, logger *slog.Logger, known func() map[string]struct{}, cb EventCallback) {
	refs := known()

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("media watcher: reconcile list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		disk[e.Name()] = struct{}{}
	}

	for name := range refs {
		if _, ok := disk[name]; !ok {
			logger.Warn("media watcher: referenced file missing", slog.String("file", name))
			if cb != nil {
				cb("missing", name)
			}
		}
	}

	for name := range disk {
		if _, ok := refs[name]; !ok {
			logger.Info("media watcher: orphan file", slog.String("file", name))
		}
	}
}
