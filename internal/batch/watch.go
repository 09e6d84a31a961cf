package batch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must be quiet before it is processed.
const DefaultDebounce = 200 * time.Millisecond

// Watcher re-runs the runner over Markdown files when they change.
type Watcher struct {
	runner   *Runner
	watcher  *fsnotify.Watcher
	log      *slog.Logger
	files    map[string]bool // explicitly watched files; empty means any Markdown file
	delay    time.Duration
	onResult func(FileResult)

	mu       sync.Mutex
	debounce map[string]*time.Timer
	pending  sync.WaitGroup
}

// NewWatcher watches roots: directories recursively, files through their
// parent directory. onResult, if set, is called after each processed file.
func NewWatcher(runner *Runner, roots []string, onResult func(FileResult)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		runner:   runner,
		watcher:  fw,
		log:      runner.logger().With("component", "watcher"),
		files:    make(map[string]bool),
		delay:    DefaultDebounce,
		onResult: onResult,
		debounce: make(map[string]*time.Timer),
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			fw.Close()
			return nil, &IOError{Op: "stat", Path: root, Err: err}
		}
		if !info.IsDir() {
			w.files[filepath.Clean(root)] = true
			if err := fw.Add(filepath.Dir(root)); err != nil {
				fw.Close()
				return nil, &IOError{Op: "watch", Path: root, Err: err}
			}
			continue
		}
		if err := w.addTree(root); err != nil {
			fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// SetDebounce changes the quiet period. Call it before Run.
func (w *Watcher) SetDebounce(d time.Duration) { w.delay = d }

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return &IOError{Op: "watch", Path: path, Err: err}
		}
		return nil
	})
}

// Run handles events until ctx is done, then stops pending work and
// releases the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	if event.Has(fsnotify.Create) && len(w.files) == 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() && !skipDir(info.Name()) {
			if err := w.addTree(path); err != nil {
				w.log.Warn("watch new directory failed", "path", path, "error", err)
			}
			return
		}
	}
	if !w.wanted(path) || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if prev, ok := w.debounce[path]; ok && prev.Stop() {
		w.pending.Done()
	}
	w.pending.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(w.delay, func() {
		defer w.pending.Done()
		w.mu.Lock()
		if w.debounce[path] == timer {
			delete(w.debounce, path)
		}
		w.mu.Unlock()

		res := w.runner.ProcessFile(path)
		if res.Status == StatusUpdated {
			w.log.Info("toc updated", "path", path, "headings", res.Headings)
		}
		if w.onResult != nil {
			w.onResult(res)
		}
	})
	w.debounce[path] = timer
}

func (w *Watcher) wanted(path string) bool {
	if len(w.files) > 0 {
		return w.files[path]
	}
	return IsMarkdownFile(path)
}

func (w *Watcher) stop() {
	w.mu.Lock()
	for path, timer := range w.debounce {
		if timer.Stop() {
			w.pending.Done()
		}
		delete(w.debounce, path)
	}
	w.mu.Unlock()
	w.pending.Wait()
	w.watcher.Close()
}
