// Package watch transcribes audio files as they appear in a directory.
// Files are picked up once writes have settled, so a file still being
// copied in is not fed to the pipeline half-written.
package watch

import (
	"context"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// TranscribeFunc runs one transcription for a discovered file
type TranscribeFunc func(ctx context.Context, path string) error

// settleDelay is how long a file must go without writes before it is
// considered complete
const settleDelay = 500 * time.Millisecond

type Watcher struct {
	dir     string
	fn      TranscribeFunc
	watcher *fsnotify.Watcher
	wg      sync.WaitGroup

	mu      sync.Mutex
	pending map[string]time.Time // path -> last write
	done    map[string]bool
}

func New(dir string, fn TranscribeFunc) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	return &Watcher{
		dir:     dir,
		fn:      fn,
		watcher: watcher,
		pending: make(map[string]time.Time),
		done:    make(map[string]bool),
	}, nil
}

// Run blocks until ctx is cancelled, transcribing each audio file
// created in the watched directory
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	log.Printf("watch: watching %s", w.dir)

	ticker := time.NewTicker(settleDelay / 2)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				w.wg.Wait()
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				w.wg.Wait()
				return nil
			}
			log.Printf("watch: watcher error: %v", err)

		case <-ticker.C:
			w.dispatchSettled(ctx)

		case <-ctx.Done():
			w.wg.Wait()
			return ctx.Err()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !isAudioFile(event.Name) {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done[event.Name] {
		return
	}
	w.pending[event.Name] = time.Now()
}

// dispatchSettled starts transcription for every pending file whose
// writes stopped long enough ago
func (w *Watcher) dispatchSettled(ctx context.Context) {
	w.mu.Lock()
	var ready []string
	for path, last := range w.pending {
		if time.Since(last) >= settleDelay {
			ready = append(ready, path)
			delete(w.pending, path)
			w.done[path] = true
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		w.wg.Add(1)
		go func(path string) {
			defer w.wg.Done()
			log.Printf("watch: transcribing %s", path)
			if err := w.fn(ctx, path); err != nil {
				log.Printf("watch: transcribe %s: %v", path, err)
			}
		}(path)
	}
}

func isAudioFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return true
	default:
		return false
	}
}
