package frames

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

const debounceDelay = 250 * time.Millisecond

// Watcher rescans the frames directory when files matching the extension
// are added, removed or rewritten, and hands the fresh playlist to OnChange.
// Events are debounced so a batch copy triggers a single rescan.
type Watcher struct {
	Dir      string
	Ext      string
	OnChange func(paths []string)

	mu       sync.Mutex
	debounce *time.Timer
}

// Run blocks until ctx is canceled. A directory that cannot be watched is
// logged and ignored; playback continues with the startup playlist.
func (w *Watcher) Run(ctx context.Context) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn().Err(err).Msg("frames watcher unavailable")
		return
	}
	defer fw.Close()
	defer w.stopPending()

	if err := fw.Add(w.Dir); err != nil {
		log.Warn().Err(err).Str("dir", w.Dir).Msg("cannot watch frames dir")
		return
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if !w.matches(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleRescan()

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("frames watcher error")
		}
	}
}

func (w *Watcher) matches(name string) bool {
	ext := w.Ext
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.EqualFold(filepath.Ext(name), ext)
}

// stopPending cancels a debounced rescan so it cannot fire into the player
// after Run has returned.
func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
		w.debounce = nil
	}
}

func (w *Watcher) scheduleRescan() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(debounceDelay, w.rescan)
}

func (w *Watcher) rescan() {
	paths, err := List(w.Dir, w.Ext)
	if err != nil {
		// Keep playing the last good playlist rather than going dark.
		log.Warn().Err(err).Msg("rescan produced no frames; keeping current playlist")
		return
	}
	log.Info().Int("frames", len(paths)).Msg("frames directory changed; playlist reloaded")
	if w.OnChange != nil {
		w.OnChange(paths)
	}
}
