// Package watch feeds newly written recordings in a directory to a handler.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"scribe/internal/fileutil"
	"scribe/internal/logging"
)

const defaultDebounce = 2 * time.Second

// Handler processes one settled file. It runs on a single goroutine, so
// files are handled one at a time in the order they settle.
type Handler func(ctx context.Context, path string)

// Options configures a Watcher.
type Options struct {
	Dir       string
	Extension string
	// Debounce is how long a file must go without write events before it is
	// handed to the handler.
	Debounce time.Duration
	// Existing queues matching files already present when Run starts.
	Existing bool
}

// Watcher watches one directory (non-recursively).
type Watcher struct {
	opts    Options
	handler Handler
	logger  *slog.Logger
}

// New constructs a watcher.
func New(opts Options, handler Handler, logger *slog.Logger) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	return &Watcher{
		opts:    opts,
		handler: handler,
		logger:  logging.NewComponentLogger(logger, "watch"),
	}
}

// Run blocks until ctx is cancelled. It returns nil on cancellation and an
// error when the directory cannot be watched.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.opts.Dir)
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.opts.Dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch %s: not a directory", w.opts.Dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() {
		if err := fsw.Close(); err != nil {
			w.logger.Debug("close watcher", logging.Error(err))
		}
	}()
	if err := fsw.Add(w.opts.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.opts.Dir, err)
	}

	ready := make(chan string, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for path := range ready {
			if ctx.Err() != nil {
				continue
			}
			w.handler(ctx, path)
		}
	}()
	defer func() {
		close(ready)
		<-done
	}()

	pending := newDebouncer(w.opts.Debounce)
	if w.opts.Existing {
		w.queueExisting(pending)
	}

	tick := time.NewTicker(max(w.opts.Debounce/4, 10*time.Millisecond))
	defer tick.Stop()

	w.logger.Info("watching for recordings",
		logging.String("dir", w.opts.Dir),
		logging.String("extension", w.opts.Extension),
		logging.Duration("debounce", w.opts.Debounce),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped")
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return errors.New("watcher event channel closed")
			}
			w.handleEvent(pending, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return errors.New("watcher error channel closed")
			}
			logging.WarnWithContext(ctx, w.logger, "watcher error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "some file events may have been missed"),
			)
		case now := <-tick.C:
			for _, path := range pending.due(now) {
				select {
				case ready <- path:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}
}

func (w *Watcher) handleEvent(pending *debouncer, event fsnotify.Event) {
	if !fileutil.HasExtension(event.Name, w.opts.Extension) {
		return
	}
	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		pending.touch(event.Name, time.Now())
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		pending.forget(event.Name)
	}
}

func (w *Watcher) queueExisting(pending *debouncer) {
	entries, err := os.ReadDir(w.opts.Dir)
	if err != nil {
		w.logger.Warn("list existing files failed", logging.Error(err))
		return
	}
	now := time.Now()
	for _, entry := range entries {
		if entry.IsDir() || !fileutil.HasExtension(entry.Name(), w.opts.Extension) {
			continue
		}
		pending.touch(filepath.Join(w.opts.Dir, entry.Name()), now)
	}
}

// debouncer tracks the last write time per path.
type debouncer struct {
	quiet time.Duration
	last  map[string]time.Time
}

func newDebouncer(quiet time.Duration) *debouncer {
	return &debouncer{quiet: quiet, last: make(map[string]time.Time)}
}

func (d *debouncer) touch(path string, at time.Time) {
	d.last[path] = at
}

func (d *debouncer) forget(path string) {
	delete(d.last, path)
}

// due removes and returns, in name order, every path quiet for at least the
// debounce interval.
func (d *debouncer) due(now time.Time) []string {
	var out []string
	for path, at := range d.last {
		if now.Sub(at) >= d.quiet {
			out = append(out, path)
			delete(d.last, path)
		}
	}
	sort.Strings(out)
	return out
}
