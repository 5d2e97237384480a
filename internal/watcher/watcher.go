// Package watcher notices when the tinc daemon rewrites its pid file.
//
// The daemon writes a fresh pid file, with a new control port and cookie,
// every time it starts. Watching it lets the next poll happen right away
// instead of waiting out the poll interval with stale credentials.
package watcher

import (
	"context"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events a single rewrite produces
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a file for changes
type Watcher struct {
	path     string
	onChange func()
	onRemove func()
	debounce time.Duration
}

// New creates a new file watcher; onChange runs after the file is written or recreated
func New(path string, onChange func()) *Watcher {
	return &Watcher{
		path:     path,
		onChange: onChange,
		debounce: DefaultDebounce,
	}
}

// WithDebounce sets the debounce duration
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// OnRemove sets a callback for when the file is deleted or renamed away
func (w *Watcher) OnRemove(fn func()) *Watcher {
	w.onRemove = fn
	return w
}

// Watch starts watching the file for changes.
// It blocks until the context is cancelled or the directory cannot be watched.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: the daemon replaces the file rather than editing it
	dir := filepath.Dir(w.path)
	filename := filepath.Base(w.path)

	if err := watcher.Add(dir); err != nil {
		return err
	}

	log.Printf("Watching %s for changes", w.path)

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	fire := func() {
		log.Printf("File changed: %s", w.path)
		w.onChange()
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Base(event.Name) != filename {
				continue
			}

			switch {
			case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
				mu.Lock()
				if timer == nil {
					timer = time.AfterFunc(w.debounce, fire)
				} else {
					timer.Reset(w.debounce)
				}
				mu.Unlock()

			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				log.Printf("File removed: %s", w.path)
				if w.onRemove != nil {
					w.onRemove()
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Watcher error: %v", err)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
