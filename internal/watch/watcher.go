// Package watch reindexes a project when its source files change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/weaverhq/weaver/internal/retrieve"
	"github.com/weaverhq/weaver/internal/scanner"
)

// DefaultDebounce batches rapid edits into one reindex pass.
const DefaultDebounce = 500 * time.Millisecond

// ReindexFunc receives the freshly loaded source tree after a change
// batch settles.
type ReindexFunc func(ctx context.Context, files []retrieve.File) error

// Watcher monitors a project root and triggers wholesale reindexing.
type Watcher struct {
	root     string
	debounce time.Duration
	reindex  ReindexFunc
	logger   *slog.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

func New(root string, reindex ReindexFunc, opts ...Option) *Watcher {
	w := &Watcher{
		root:     root,
		debounce: DefaultDebounce,
		reindex:  reindex,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run blocks, watching for changes until ctx is cancelled. Reindex
// failures are logged and watching continues.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	defer watcher.Close()

	ignore := scanner.NewIgnoreMatcher(w.root)
	if err := addWatchDirs(watcher, w.root, ignore); err != nil {
		return fmt.Errorf("watch: add directories: %w", err)
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	dirty := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			rel, err := filepath.Rel(w.root, event.Name)
			if err != nil || rel == "." || ignoreEvent(rel, ignore) {
				continue
			}
			// Newly created directories need their own watch.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !scanner.HardIgnore(filepath.Base(event.Name)) {
						_ = watcher.Add(event.Name)
					}
					continue
				}
			}
			if scanner.SkipFile(filepath.Base(rel)) || scanner.LanguageForFile(rel) == "" {
				continue
			}
			dirty = true
			timer.Reset(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case <-timer.C:
			if !dirty {
				continue
			}
			dirty = false
			res := scanner.Load(scanner.LoadOptions{Root: w.root})
			if err := w.reindex(ctx, res.Files); err != nil {
				w.logger.Warn("reindex failed", "error", err)
			}
		}
	}
}

func addWatchDirs(watcher *fsnotify.Watcher, root string, ignore *scanner.IgnoreMatcher) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if scanner.HardIgnore(d.Name()) {
			return filepath.SkipDir
		}
		rel, _ := filepath.Rel(root, path)
		if rel != "." && ignore.Match(rel) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func ignoreEvent(rel string, ignore *scanner.IgnoreMatcher) bool {
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if scanner.HardIgnore(part) {
			return true
		}
	}
	return ignore.Match(rel)
}
