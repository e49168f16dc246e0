package catalog

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/chefgenie/internal/storage"
)

// reloadDelay debounces bursts of writes from editors and deploy tools.
const reloadDelay = 200 * time.Millisecond

// ReloadCallback is called after a watcher-driven catalog swap.
type ReloadCallback func(c *Catalog)

// Watch starts an fsnotify watcher on the directory holding the catalog file
// and republishes the catalog into h whenever the file content changes,
// until ctx is cancelled. It calls cb (if non-nil) after each swap.
//
// The directory is watched rather than the file so that atomic
// write-and-rename replacements are picked up.
func Watch(ctx context.Context, h *Holder, store storage.Provider, path string, logger *slog.Logger, cb ReloadCallback) error {
	abs, err := store.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	// Prime the checksum so an untouched file does not trigger a reload.
	if data, readErr := store.Read(path); readErr == nil {
		_, _ = h.Replace(data)
	}

	logger.Info("catalog watcher: started", slog.String("path", abs))

	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("catalog watcher: stopped")
			return nil

		case <-timerCh:
			reload(h, store, path, logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDelay)
				timerCh = timer.C
			} else {
				timer.Reset(reloadDelay)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("catalog watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func reload(h *Holder, store storage.Provider, path string, logger *slog.Logger, cb ReloadCallback) {
	data, err := store.Read(path)
	if err != nil {
		// Mid-rename; the Create for the new file schedules another pass.
		logger.Debug("catalog watcher: read failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	changed, err := h.Replace(data)
	if err != nil {
		logger.Warn("catalog watcher: keeping previous catalog", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	if !changed {
		return
	}
	c := h.Current()
	logger.Info("catalog watcher: reloaded", slog.String("path", path), slog.Int("recipes", c.Len()))
	if cb != nil {
		cb(c)
	}
}
