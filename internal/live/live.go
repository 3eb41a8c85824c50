// Package live serves an index that can be replaced while it is being read.
//
// Each loaded index is published as an immutable Snapshot behind an atomic
// pointer. Readers call Current and keep using the snapshot they got; a
// reload swaps in a new snapshot and never touches the old one.
package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	searchindex "github.com/kamusis/docidx/internal/search/index"
)

// DefaultDebounce is how long Watch waits for a burst of file events to settle.
const DefaultDebounce = 250 * time.Millisecond

// Snapshot is one loaded generation of the index.
type Snapshot struct {
	Index      *searchindex.Index
	Generation uint64
	Path       string
	LoadedAt   time.Time
}

// ReloadStatus describes the outcome of a reload.
type ReloadStatus string

const (
	ReloadSwapped   ReloadStatus = "swapped"
	ReloadUnchanged ReloadStatus = "unchanged"
	ReloadFailed    ReloadStatus = "error"
)

// Options configures a Holder.
type Options struct {
	Logger   *slog.Logger
	Debounce time.Duration
	// OnReload, if set, is called after every reload attempt with the
	// snapshot being served afterwards.
	OnReload func(snap *Snapshot, status ReloadStatus, err error)
}

// Holder owns the current snapshot of the index at one path.
type Holder struct {
	path string
	opts Options
	log  *slog.Logger

	cur atomic.Pointer[Snapshot]
	mu  sync.Mutex // serializes reloads
}

// Open loads the index at path and returns a Holder serving it.
func Open(ctx context.Context, path string, opts Options) (*Holder, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve absolute path: %w", err)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	h := &Holder{path: abs, opts: opts, log: log.With("index", abs)}

	idx, err := searchindex.LoadFile(ctx, abs)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{Index: idx, Generation: 1, Path: abs, LoadedAt: time.Now()}
	h.cur.Store(snap)
	h.notify(snap, ReloadSwapped, nil)
	return h, nil
}

// Static wraps an already loaded index. Reload and Watch are not available.
func Static(idx *searchindex.Index) *Holder {
	h := &Holder{log: slog.Default()}
	h.cur.Store(&Snapshot{Index: idx, Generation: 1, LoadedAt: time.Now()})
	return h
}

// Path returns the absolute path of the index file, empty for Static holders.
func (h *Holder) Path() string { return h.path }

// Current returns the snapshot being served.
func (h *Holder) Current() *Snapshot { return h.cur.Load() }

// Reload loads the index file again and swaps it in. A failed load keeps the
// previous snapshot; identical content is not swapped.
func (h *Holder) Reload(ctx context.Context) (ReloadStatus, error) {
	if h.path == "" {
		return ReloadFailed, errors.New("index was not loaded from a file")
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	prev := h.cur.Load()
	idx, err := searchindex.LoadFile(ctx, h.path)
	if err != nil {
		h.notify(prev, ReloadFailed, err)
		return ReloadFailed, err
	}
	if idx.Digest() == prev.Index.Digest() {
		h.notify(prev, ReloadUnchanged, nil)
		return ReloadUnchanged, nil
	}
	snap := &Snapshot{Index: idx, Generation: prev.Generation + 1, Path: h.path, LoadedAt: time.Now()}
	h.cur.Store(snap)
	h.notify(snap, ReloadSwapped, nil)
	return ReloadSwapped, nil
}

func (h *Holder) notify(snap *Snapshot, status ReloadStatus, err error) {
	if h.opts.OnReload != nil {
		h.opts.OnReload(snap, status, err)
	}
}

// Watch reloads the index whenever its file changes, until ctx is done.
// The containing directory is watched so atomic renames over the file are
// seen. Reload failures are logged and the previous snapshot keeps serving.
func (h *Holder) Watch(ctx context.Context) error {
	if h.path == "" {
		return errors.New("index was not loaded from a file")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(h.path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	h.log.Info("watching index for changes")

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != h.path {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(h.opts.Debounce)
			pending = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			h.log.Warn("watcher error", "error", err)
		case <-pending:
			pending = nil
			status, err := h.Reload(ctx)
			switch {
			case err != nil:
				h.log.Error("index reload failed, keeping previous generation", "error", err)
			case status == ReloadSwapped:
				snap := h.Current()
				h.log.Info("index reloaded", "generation", snap.Generation, "documents", snap.Index.Len())
			default:
				h.log.Debug("index unchanged")
			}
		}
	}
}
