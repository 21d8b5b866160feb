package index

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"moss/internal/walker"
)

// Watcher turns filesystem events into incremental index updates. It runs
// on its own goroutine, separate from request handling, so an event burst
// cannot starve queries. Events are applied synchronously, one at a time;
// a slow reindex delays the next event but never drops it. Events lost to
// OS-level queue overflow are an accepted limitation.
type Watcher struct {
	store  *Store
	fsw    *fsnotify.Watcher
	walk   *walker.Walker
	logger *slog.Logger
	done   chan struct{}
}

// NewWatcher creates a watcher subscribed recursively to the store's root.
// The store's own data directory is excluded so persisting index state
// cannot trigger re-indexing of itself.
func NewWatcher(store *Store, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	w := &Watcher{
		store:  store,
		fsw:    fsw,
		walk:   walker.New(store.Root()),
		logger: logger,
		done:   make(chan struct{}),
	}

	if err := fsw.Add(store.Root()); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching root: %w", err)
	}
	count := 1
	err = w.walk.Walk(func(e walker.Entry) error {
		if !e.IsDir {
			return nil
		}
		if err := fsw.Add(filepath.Join(store.Root(), filepath.FromSlash(e.RelPath))); err != nil {
			return nil // Skip unwatchable directories
		}
		count++
		return nil
	})
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("adding watches: %w", err)
	}

	logger.Debug("added watches", "count", count)
	return w, nil
}

// Start runs the event loop on a dedicated goroutine.
func (w *Watcher) Start() {
	go w.loop()
}

// Close stops the event loop and releases OS watch handles.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// handleEvent translates one fsnotify event into a store call.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	rel, ok := w.relPath(event.Name)
	if !ok {
		return
	}

	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		if err := w.store.RemoveFile(rel); err != nil {
			w.logger.Error("remove failed", "path", rel, "error", err)
		}

	case event.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			if !w.walk.SkipDir(filepath.Base(rel), rel) {
				w.watchTree(event.Name, rel)
			}
			return
		}
		w.indexFile(rel, info.Size())

	case event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return
		}
		w.indexFile(rel, info.Size())
	}
}

// indexFile applies one file event, subject to the same file-level exclusion
// rules the walker enforces, so the watcher never indexes a file a walk
// would skip.
func (w *Watcher) indexFile(rel string, size int64) {
	if w.walk.SkipFile(rel, size) {
		return
	}
	if err := w.store.IndexFile(context.Background(), rel); err != nil {
		w.logger.Error("index failed", "path", rel, "error", err)
	}
}

// watchTree subscribes to a newly created directory and indexes anything
// already inside it (a moved-in tree arrives as one create event).
func (w *Watcher) watchTree(absPath, rel string) {
	if err := w.fsw.Add(absPath); err != nil {
		w.logger.Debug("cannot watch new directory", "path", rel, "error", err)
	}
	if err := w.store.IndexFile(context.Background(), rel); err != nil {
		w.logger.Error("index failed", "path", rel, "error", err)
	}

	entries, err := os.ReadDir(absPath)
	if err != nil {
		return
	}
	for _, entry := range entries {
		childAbs := filepath.Join(absPath, entry.Name())
		childRel := rel + "/" + entry.Name()
		if entry.IsDir() {
			if w.walk.SkipDir(entry.Name(), childRel) {
				continue
			}
			w.watchTree(childAbs, childRel)
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		w.indexFile(childRel, info.Size())
	}
}

// relPath maps an absolute event path to a slash-relative index path,
// rejecting anything outside the root or under an ignored directory.
func (w *Watcher) relPath(abs string) (string, bool) {
	rel, err := filepath.Rel(w.store.Root(), abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	rel = filepath.ToSlash(rel)

	segments := strings.Split(rel, "/")
	for i, seg := range segments[:len(segments)-1] {
		if w.walk.SkipDir(seg, strings.Join(segments[:i+1], "/")) {
			return "", false
		}
	}
	return rel, true
}
