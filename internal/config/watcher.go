package config

import (
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher watches the config file and calls notify after changes settle.
// It only signals; the consumer reloads the file itself so it never sees a
// half-written snapshot.
type Watcher struct {
	path     string
	debounce time.Duration
	notify   func()
	log      zerolog.Logger

	fsw  *fsnotify.Watcher
	quit chan struct{}
	done chan struct{}
}

func NewWatcher(log zerolog.Logger, path string, debounce time.Duration, notify func()) *Watcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		path:     path,
		debounce: debounce,
		notify:   notify,
		log:      log,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.path); err != nil {
		_ = fsw.Close()
		return err
	}
	w.fsw = fsw
	w.log.Info().Str("path", w.path).Dur("debounce", w.debounce).Msg("config watcher started")
	go w.watch()
	return nil
}

// Stop shuts the watcher down and waits for its loop to exit.
func (w *Watcher) Stop() error {
	if w.fsw == nil {
		return nil
	}
	close(w.quit)
	<-w.done
	return w.fsw.Close()
}

func (w *Watcher) watch() {
	defer close(w.done)

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.quit:
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			// Writes are the common case; some editors replace the file,
			// which shows up as create.
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if timer != nil {
					timer.Stop()
				}
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			}

		case <-timerC:
			timerC = nil
			w.log.Info().Str("path", w.path).Msg("config file changed")
			w.notify()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("config watcher error")
		}
	}
}
