// Package watch reports changes to individual files on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/corymhall/selenelsp/debug"
)

// Func is called from the watcher's goroutine for every event on a watched
// file.
type Func func(path string, op fsnotify.Op)

// Watcher watches files by watching their parent directories, so a file
// that is deleted and recreated keeps being reported.
type Watcher struct {
	fs   *fsnotify.Watcher
	done chan struct{}

	mu    sync.Mutex
	files map[string]Func
	dirs  map[string]int
}

func New(ctx context.Context) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	w := &Watcher{
		fs:    fsw,
		done:  make(chan struct{}),
		files: make(map[string]Func),
		dirs:  make(map[string]int),
	}
	go w.loop(ctx)
	return w, nil
}

// Watch calls fn for events on path, replacing any previous callback for
// it. The parent directory must exist.
func (w *Watcher) Watch(path string, fn Func) error {
	path = filepath.Clean(path)
	dir := filepath.Dir(path)

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.files[path]; ok {
		w.files[path] = fn
		return nil
	}
	if w.dirs[dir] == 0 {
		if err := w.fs.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	w.dirs[dir]++
	w.files[path] = fn
	return nil
}

func (w *Watcher) Unwatch(path string) {
	path = filepath.Clean(path)
	dir := filepath.Dir(path)

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.files[path]; !ok {
		return
	}
	delete(w.files, path)
	w.dirs[dir]--
	if w.dirs[dir] == 0 {
		delete(w.dirs, dir)
		_ = w.fs.Remove(dir)
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	err := w.fs.Close()
	<-w.done
	return err
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.mu.Lock()
			fn := w.files[filepath.Clean(ev.Name)]
			w.mu.Unlock()
			if fn != nil {
				debug.Debug.Log(ctx, "file changed", "path", ev.Name, "op", ev.Op.String())
				fn(ev.Name, ev.Op)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			debug.LogError(ctx, "file watcher", err)
		}
	}
}
