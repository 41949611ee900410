package catalog

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/spigell/pr-pathways/internal/utils"
)

const defaultDebounce = 500 * time.Millisecond

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	Path     string
	Debounce time.Duration
	Options  []LoadOption
	Logger   *zap.Logger
	// OnReload is called after every reload attempt.
	OnReload func(ok bool)
}

// Watcher reloads a catalog file when it changes and swaps it into a Store.
// A catalog that fails to load never replaces the current one.
type Watcher struct {
	store    *Store
	path     string
	debounce time.Duration
	options  []LoadOption
	logger   *zap.Logger
	onReload func(ok bool)
}

func NewWatcher(store *Store, cfg WatcherConfig) *Watcher {
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Watcher{
		store:    store,
		path:     filepath.Clean(cfg.Path),
		debounce: debounce,
		options:  cfg.Options,
		logger:   logger.With(zap.String("catalog", cfg.Path)),
		onReload: cfg.OnReload,
	}
}

// Run watches the catalog directory until ctx is done. The directory is
// watched rather than the file so that editors replacing the file by rename
// are noticed.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating catalog watcher")
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return errors.Wrapf(err, "watching %s", filepath.Dir(w.path))
	}

	w.logger.Info("watching catalog for changes", zap.Duration("debounce", w.debounce))

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("catalog watcher error", zap.Error(err))
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}

			if err := utils.WaitFor(ctx, w.debounce); err != nil {
				return nil
			}
			w.drain(fw.Events)
			_ = w.Reload()
		}
	}
}

// Reload loads the catalog file once and swaps it in on success.
func (w *Watcher) Reload() error {
	next, err := LoadFile(w.path, w.options...)
	if err != nil {
		w.logger.Error("catalog reload failed; keeping current catalog", zap.Error(err))
		w.notify(false)
		return err
	}

	previous := w.store.Swap(next)

	fields := []zap.Field{
		zap.Int("programs", next.Len()),
		zap.String("version", next.Version()),
		zap.Int("diagnostics", len(next.Diagnostics())),
	}
	if previous != nil {
		fields = append(fields, zap.String("previous_version", previous.Version()))
	}
	w.logger.Info("catalog reloaded", fields...)
	w.notify(true)

	return nil
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

func (w *Watcher) drain(events <-chan fsnotify.Event) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func (w *Watcher) notify(ok bool) {
	if w.onReload != nil {
		w.onReload(ok)
	}
}
