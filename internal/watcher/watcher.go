// Package watcher reports debounced batches of changed source files.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mvp-joe/carve/internal/ctxlog"
)

// DefaultDebounce is the quiet period before a batch is delivered.
const DefaultDebounce = 500 * time.Millisecond

// Options configures a FileWatcher.
type Options struct {
	// Extensions limits events to these file extensions (".rs"). Empty
	// accepts every file.
	Extensions []string
	// Skip reports directories that must not be watched (build output,
	// VCS metadata). Nil watches everything.
	Skip func(dir string) bool
	// Debounce overrides DefaultDebounce.
	Debounce time.Duration
}

// FileWatcher monitors directory trees and delivers changed files in
// batches once writes have settled.
type FileWatcher struct {
	watcher      *fsnotify.Watcher
	extensions   map[string]bool
	skip         func(string) bool
	debounceTime time.Duration
	callback     func(ctx context.Context, files []string)

	ctx    context.Context
	cancel context.CancelFunc

	accumulated   map[string]bool
	accumulatedMu sync.Mutex
	debounceTimer *time.Timer
	timerMu       sync.Mutex
	stopOnce      sync.Once
	doneCh        chan struct{}
}

// New creates a watcher over dirs, each watched recursively.
func New(dirs []string, opts Options) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	extMap := make(map[string]bool, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		extMap[ext] = true
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw := &FileWatcher{
		watcher:      w,
		extensions:   extMap,
		skip:         opts.Skip,
		debounceTime: debounce,
		accumulated:  make(map[string]bool),
		doneCh:       make(chan struct{}),
	}

	for _, dir := range dirs {
		if err := fw.addRecursive(context.Background(), dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}
	return fw, nil
}

// Start begins watching. callback receives each batch sorted; it runs on
// the watch goroutine, so events arriving meanwhile join the next batch.
func (fw *FileWatcher) Start(ctx context.Context, callback func(ctx context.Context, files []string)) error {
	if callback == nil {
		return nil
	}
	fw.callback = callback
	fw.ctx, fw.cancel = context.WithCancel(ctx)

	go fw.watch()
	return nil
}

// Stop ends watching and releases the underlying watcher. It is safe to
// call more than once.
func (fw *FileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		if fw.cancel != nil {
			fw.cancel()
			<-fw.doneCh
		} else {
			close(fw.doneCh)
		}
		err = fw.watcher.Close()
	})
	return err
}

// Done is closed once the watch goroutine has exited.
func (fw *FileWatcher) Done() <-chan struct{} {
	return fw.doneCh
}

func (fw *FileWatcher) watch() {
	defer close(fw.doneCh)
	log := ctxlog.FromContext(fw.ctx)

	fire := make(chan struct{}, 1)
	for {
		select {
		case <-fw.ctx.Done():
			fw.stopDebounceTimer()
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := fw.addRecursive(fw.ctx, event.Name); err != nil {
						log.Warn("failed to watch new directory", "dir", event.Name, "error", err)
					}
					continue
				}
			}

			if !fw.shouldProcess(event) {
				continue
			}

			fw.accumulatedMu.Lock()
			fw.accumulated[event.Name] = true
			fw.accumulatedMu.Unlock()

			fw.resetDebounceTimer(fire)

		case <-fire:
			fw.flush()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Warn("file watcher error", "error", err)
		}
	}
}

// flush delivers the accumulated batch, if any.
func (fw *FileWatcher) flush() {
	fw.accumulatedMu.Lock()
	if len(fw.accumulated) == 0 {
		fw.accumulatedMu.Unlock()
		return
	}
	files := make([]string, 0, len(fw.accumulated))
	for file := range fw.accumulated {
		files = append(files, file)
	}
	fw.accumulated = make(map[string]bool)
	fw.accumulatedMu.Unlock()

	sort.Strings(files)
	fw.callback(fw.ctx, files)
}

func (fw *FileWatcher) resetDebounceTimer(fire chan struct{}) {
	fw.timerMu.Lock()
	defer fw.timerMu.Unlock()

	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
	}
	fw.debounceTimer = time.AfterFunc(fw.debounceTime, func() {
		select {
		case fire <- struct{}{}:
		default:
		}
	})
}

func (fw *FileWatcher) stopDebounceTimer() {
	fw.timerMu.Lock()
	defer fw.timerMu.Unlock()

	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
		fw.debounceTimer = nil
	}
}

// shouldProcess keeps writes, creations, removals and renames of files with
// a monitored extension.
func (fw *FileWatcher) shouldProcess(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if len(fw.extensions) == 0 {
		return true
	}
	return fw.extensions[filepath.Ext(event.Name)]
}

// addRecursive watches root and every directory below it that skip allows.
func (fw *FileWatcher) addRecursive(ctx context.Context, root string) error {
	log := ctxlog.FromContext(ctx)
	return filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			log.Warn("failed to access directory", "dir", path, "error", err)
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		if path != root && fw.skip != nil && fw.skip(path) {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			log.Warn("failed to watch directory", "dir", path, "error", err)
		}
		return nil
	})
}
