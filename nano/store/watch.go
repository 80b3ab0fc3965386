package store

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"icednano/nano/design"
)

// DefaultDebounce is how long Watch waits for writes to settle.
const DefaultDebounce = 150 * time.Millisecond

// ReloadFunc receives the reloaded design, or the error that prevented it.
type ReloadFunc func(d *design.Design, err error)

// Watch reloads path whenever it changes on disk and hands the result to
// onReload. Bursts of events within debounce collapse into one reload. The
// parent directory is watched so atomic renames are seen. Watch blocks until
// ctx is done.
func Watch(ctx context.Context, path string, debounce time.Duration, logger *slog.Logger, onReload ReloadFunc) error {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "path", abs, "err", err)
		case <-timer.C:
			d, err := LoadFile(abs)
			if err != nil {
				logger.Warn("reload failed", "path", abs, "err", err)
			} else {
				logger.Info("reloaded design", "path", abs)
			}
			onReload(d, err)
		}
	}
}
