package include

import (
	"sync"

	"github.com/fsnotify/fsnotify"
)

// WatchingLoader caches template source text keyed by the path a caller
// loaded it from, and drops cache entries when fsnotify reports a create,
// write, rename, or remove under any watched directory. It exists for
// `lattice serve --watch` and other long-lived embedders that want to pick
// up edited templates without restarting; the core resolver itself is
// stateless and re-reads the filesystem on every ResolveAll call.
type WatchingLoader struct {
	mu    sync.Mutex
	cache map[string]string

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatchingLoader starts watching dirs for filesystem events and returns a
// loader whose invalidate-on-event behaviour runs in a background
// goroutine. Call Close to stop watching.
func NewWatchingLoader(dirs []string) (*WatchingLoader, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, err
		}
	}
	l := &WatchingLoader{
		cache:   make(map[string]string),
		watcher: w,
		done:    make(chan struct{}),
	}
	go l.run()
	return l, nil
}

func (l *WatchingLoader) run() {
	for {
		select {
		case ev, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Rename|fsnotify.Create) != 0 {
				l.invalidate(ev.Name)
			}
		case _, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
		case <-l.done:
			return
		}
	}
}

func (l *WatchingLoader) invalidate(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.cache, path)
}

// Get returns cached contents for path, if any are cached.
func (l *WatchingLoader) Get(path string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.cache[path]
	return v, ok
}

// Put caches contents for path, replacing any prior entry.
func (l *WatchingLoader) Put(path, contents string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache[path] = contents
}

// Close stops the background watch goroutine and releases the underlying
// fsnotify watcher.
func (l *WatchingLoader) Close() error {
	close(l.done)
	return l.watcher.Close()
}
