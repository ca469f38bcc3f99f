// Package watch monitors the session's cached artifact on disk. When the
// tracked file changes outside the session, a FileChanged event is published
// so the surface can offer a re-analysis.
package watch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/debugmate-ai/debugmate/internal/event"
	"github.com/debugmate-ai/debugmate/internal/logging"
	"github.com/debugmate-ai/debugmate/pkg/types"
)

// selfWriteWindow suppresses change events shortly after the session itself
// wrote the file, so a save does not echo back as an external change.
const selfWriteWindow = 500 * time.Millisecond

// Watcher follows the artifact the session last read or wrote. It retargets
// itself from FileRead and FileWritten bus events.
type Watcher struct {
	watcher *fsnotify.Watcher
	bus     *event.Bus
	ignore  []string
	log     zerolog.Logger

	mu         sync.RWMutex
	target     string // absolute path of the tracked file, empty when idle
	watchedDir string
	selfWrite  time.Time

	unsubs  []func()
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
}

// New creates a watcher bound to the bus. Ignore patterns use doublestar
// syntax and are matched against both the full path and the base name.
func New(bus *event.Bus, cfg *types.WatcherConfig) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	var ignore []string
	if cfg != nil {
		ignore = cfg.Ignore
	}

	w := &Watcher{
		watcher: fsw,
		bus:     bus,
		ignore:  ignore,
		log:     logging.Component("watch"),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}

	w.unsubs = append(w.unsubs,
		bus.Subscribe(event.FileRead, func(ev event.Event) {
			if data, ok := ev.Data.(event.FileReadData); ok {
				w.Track(data.Path)
			}
		}),
		bus.Subscribe(event.FileWritten, func(ev event.Event) {
			if data, ok := ev.Data.(event.FileWrittenData); ok {
				w.markSelfWrite()
				w.Track(data.Path)
			}
		}),
	)

	return w, nil
}

// Start begins delivering change events.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()
	go w.run()
}

// Track switches the watcher to a new file. The containing directory is
// watched rather than the file itself; editors that replace files on save
// would otherwise detach the watch.
func (w *Watcher) Track(path string) {
	if path == "" || w.ignored(path) {
		return
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.target == abs {
		return
	}

	if w.watchedDir != "" && w.watchedDir != dir {
		_ = w.watcher.Remove(w.watchedDir)
		w.watchedDir = ""
	}
	if w.watchedDir != dir {
		if err := w.watcher.Add(dir); err != nil {
			w.log.Warn().Err(err).Str("dir", dir).Msg("failed to watch directory")
			return
		}
		w.watchedDir = dir
	}

	w.target = abs
	w.log.Debug().Str("path", abs).Msg("tracking artifact")
}

// Target returns the currently tracked path, empty when idle.
func (w *Watcher) Target() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.target
}

func (w *Watcher) markSelfWrite() {
	w.mu.Lock()
	w.selfWrite = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.handleChange(ev.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("watcher error")
		}
	}
}

func (w *Watcher) handleChange(name string) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return
	}

	w.mu.RLock()
	target := w.target
	selfWrite := w.selfWrite
	w.mu.RUnlock()

	if target == "" || abs != target {
		return
	}
	if time.Since(selfWrite) < selfWriteWindow {
		return
	}

	w.log.Debug().Str("path", abs).Msg("artifact changed on disk")
	w.bus.PublishSync(event.Event{
		Type: event.FileChanged,
		Data: event.FileChangedData{Path: abs},
	})
}

// ignored reports whether a path matches any ignore pattern.
func (w *Watcher) ignored(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range w.ignore {
		if matched, _ := doublestar.Match(pattern, path); matched {
			return true
		}
		if matched, _ := doublestar.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

// Stop stops the watcher and detaches it from the bus.
func (w *Watcher) Stop() error {
	for _, unsub := range w.unsubs {
		unsub()
	}
	w.unsubs = nil

	w.mu.Lock()
	started := w.started
	w.mu.Unlock()

	select {
	case <-w.stopCh:
		// Already stopped
	default:
		close(w.stopCh)
	}

	if started {
		<-w.doneCh
	}

	return w.watcher.Close()
}
