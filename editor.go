package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"icednano/app"
	"icednano/hal"
	"icednano/internal/config"
	"icednano/internal/logging"
	"icednano/internal/metrics"
	"icednano/nano/design"
	"icednano/nano/session"
	"icednano/nano/store"
)

const closeTimeout = 10 * time.Second

// runEditor opens the window, or runs headless, until the user quits or ctx
// ends. Unsaved changes are written back before it returns.
func runEditor(ctx context.Context, cfg config.Config, opts options, path string) error {
	host := hal.HostConfig{
		Width:   cfg.Window.Width,
		Height:  cfg.Window.Height,
		Scale:   cfg.Window.Scale,
		TPS:     cfg.Window.TPS,
		Title:   "icednano",
		SaveDir: cfg.Storage.SaveDir,
	}

	var (
		a       *app.App
		cleanup func()
	)
	newApp := func(h hal.HAL) func() error {
		var err error
		a, cleanup, err = startApp(ctx, h, cfg, opts, path)
		if err != nil {
			return func() error { return err }
		}
		return func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return a.Step()
		}
	}

	var err error
	if opts.headless {
		err = hal.RunHeadless(ctx, host, newApp, hal.HeadlessConfig{
			Enabled: true,
			Hz:      cfg.Headless.Hz,
			Ticks:   cfg.Headless.Ticks,
		})
	} else {
		err = hal.RunWindow(host, newApp)
	}
	if errors.Is(err, app.ErrQuit) {
		err = nil
	}

	if a != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		if cerr := a.Close(closeCtx); cerr != nil {
			err = errors.Join(err, cerr)
		}
		cancel()
	}
	if cleanup != nil {
		cleanup()
	}
	return err
}

// startApp builds the logger, metrics, autosave journal and saver around a
// new App on h. cleanup releases them after the App is closed.
func startApp(ctx context.Context, h hal.HAL, cfg config.Config, opts options, path string) (*app.App, func(), error) {
	logger, closeLog, err := logging.New(logging.Config{
		Level: cfg.Log.Level,
		Dir:   cfg.Log.Dir,
		JSON:  cfg.Log.JSON,
		Sink:  h.Logger(),
	})
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)

	m := metrics.New()
	mctx, stopMetrics := context.WithCancel(ctx)
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := m.Serve(mctx, cfg.Metrics.Addr, logger); err != nil {
				logger.Warn("metrics server stopped", "addr", cfg.Metrics.Addr, "err", err)
			}
		}()
	}

	journal, err := store.OpenJournal(store.JournalConfig{
		Path:     cfg.JournalDir(),
		Interval: cfg.Storage.AutosaveInterval,
		Keep:     cfg.Storage.JournalKeep,
		Logger:   logger,
	})
	if err != nil {
		logger.Warn("autosave disabled", "path", cfg.JournalDir(), "err", err)
		journal = nil
	}
	saver := store.NewSaver(4, logger)
	saver.Observe = m.ObserveSave

	cleanup := func() {
		stopMetrics()
		saver.Close()
		if journal != nil {
			if err := journal.Close(); err != nil {
				logger.Warn("close journal", "err", err)
			}
		}
		_ = closeLog()
	}

	d, recovered, err := loadDesign(ctx, path, journal, opts.recover, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	a, err := app.New(h, app.Config{
		Design: d,
		Path:   path,
		Session: session.Options{
			MailboxSlots: cfg.Editor.Mailbox,
			PickRadius:   cfg.Editor.PickRadius,
			Sensitivity:  cfg.Editor.Sensitivity,
			Zoom:         cfg.Editor.Zoom,
			Saver:        saver,
			Journal:      journal,
		},
		Logger:  logger,
		Metrics: m,
		Watch:   cfg.Storage.Watch,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if recovered {
		// The autosave differs from the file; mark it unsaved.
		a.Session().Post(session.Event{Kind: session.EventReplace, Design: d})
	}
	logger.Info("editor started", "design", d.Name, "path", path, "autosave", journal != nil)
	return a, cleanup, nil
}

// loadDesign reads path. A missing file starts a sample design that will be
// saved there. With fromAutosave set, the newest autosave of the design wins and
// recovered is true.
func loadDesign(ctx context.Context, path string, j *store.Journal, fromAutosave bool, logger *slog.Logger) (d *design.Design, recovered bool, err error) {
	if path == "" {
		d, err = app.SampleDesign("untitled")
		return d, false, err
	}
	d, err = store.LoadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		logger.Info("new design", "path", path)
		d, err = app.SampleDesign(name)
		return d, false, err
	}
	if err != nil {
		return nil, false, err
	}
	if !fromAutosave {
		return d, false, nil
	}
	if j == nil {
		return nil, false, fmt.Errorf("recover %s: autosave journal unavailable", path)
	}
	latest, err := j.Latest(ctx, d)
	if errors.Is(err, store.ErrNoAutosave) {
		logger.Info("no autosave to recover", "path", path)
		return d, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("recover %s: %w", path, err)
	}
	logger.Info("recovered autosave", "path", path, "design", latest.ID)
	return latest, true, nil
}
