package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/edaconf/edaconf/pkg/telemetry"
)

// debounceWindow coalesces the burst of fsnotify events editors emit for a
// single save into one reload.
const debounceWindow = 500 * time.Millisecond

// Watcher watches a manifest file and emits a signal whenever it changes.
// The parent directory is watched rather than the file itself so that
// rename-based atomic saves keep working.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	log     *telemetry.Logger
	changes chan struct{}
}

// NewWatcher creates a watcher for the manifest at path.
func NewWatcher(path string, log *telemetry.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		fsw.Close()
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, err
	}

	if log == nil {
		log = telemetry.NopLogger()
	}
	return &Watcher{
		path:    abs,
		watcher: fsw,
		log:     log.NewComponentLogger("watcher"),
		changes: make(chan struct{}, 1),
	}, nil
}

// Changes returns the channel that receives one signal per (debounced)
// manifest change.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Run pumps filesystem events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	var timer *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
			} else {
				timer.Reset(debounceWindow)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			w.log.Debug("manifest changed")
			select {
			case w.changes <- struct{}{}:
			default:
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("watch error")
		}
	}
}

// Close releases the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
