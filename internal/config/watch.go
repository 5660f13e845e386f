package config

import (
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Tunables are the only fields a running gateway picks up from a config file
// change. Credentials and the listen address are process-lifetime; keeping
// this a narrow value type means a reload cannot hand them out.
type Tunables struct {
	Model   string
	Persona string
}

// Watcher delivers Tunables to a single handler whenever the config file
// changes, debounced because editors often write in several steps.
type Watcher struct {
	path     string
	fsw      *fsnotify.Watcher
	debounce time.Duration
	onChange func(Tunables)

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWatcher creates a watcher for the config file at path. The handler runs
// on the watcher goroutine after each successful reload.
func NewWatcher(path string, onChange func(Tunables)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		path:     path,
		fsw:      fsw,
		debounce: 300 * time.Millisecond,
		onChange: onChange,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. On failure the caller still owns the watcher and
// must Stop it to release the underlying file descriptor.
func (w *Watcher) Start() error {
	if err := w.fsw.Add(w.path); err != nil {
		return err
	}
	w.wg.Add(1)
	go w.loop()
	slog.Info("config watcher started", "path", w.path)
	return nil
}

// Stop closes the watcher. Safe to call whether or not Start succeeded.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.fsw.Close()
	})
	w.wg.Wait()
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	// Timer starts drained; each relevant event re-arms it.
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				timer.Reset(w.debounce)
			}

		case <-timer.C:
			w.reload()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Error("config watcher error", "error", err)
		}
	}
}

// reload re-parses the file and hands the handler only the tunable fields.
// A file that fails to parse leaves the running config untouched.
func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		slog.Error("config reload skipped, keeping current settings", "error", err)
		return
	}
	slog.Info("config reloaded", "path", w.path, "model", cfg.Model.Name)
	w.onChange(Tunables{
		Model:   cfg.Model.Name,
		Persona: cfg.Model.Persona,
	})
}
