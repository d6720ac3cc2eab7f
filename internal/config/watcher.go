package config

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Reload events arriving within this window collapse into one reload;
// editors often write a file several times per save.
const debounceDelay = 500 * time.Millisecond

// Watcher hot-reloads the config file and fans the new configuration out
// to registered callbacks. A reload that fails validation is logged and
// dropped; the previous configuration stays active.
type Watcher struct {
	mu        sync.RWMutex
	current   *Config
	callbacks []func(*Config)

	log     *zap.Logger
	watcher *fsnotify.Watcher
	stop    chan struct{}
	once    sync.Once
}

// NewWatcher starts watching the default config file.
func NewWatcher(initial *Config, log *zap.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating file watcher")
	}
	if err := fsWatcher.Add(DefaultFile); err != nil {
		_ = fsWatcher.Close()
		return nil, errors.Wrapf(err, "watching %s", DefaultFile)
	}

	w := &Watcher{
		current: initial,
		log:     log,
		watcher: fsWatcher,
		stop:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Current returns the active configuration.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback invoked with each valid reload.
func (w *Watcher) OnChange(fn func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

// Stop shuts the watcher down.
func (w *Watcher) Stop() {
	w.once.Do(func() {
		close(w.stop)
		_ = w.watcher.Close()
	})
}

func (w *Watcher) loop() {
	var debounce *time.Timer
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.log.Info("config file changed",
				zap.String("file", event.Name),
				zap.String("op", event.Op.String()),
			)
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("config watcher error", zap.Error(err))

		case <-w.stop:
			return
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(nil)
	if err != nil {
		w.log.Error("config reload rejected", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = cfg
	callbacks := make([]func(*Config), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	w.log.Info("configuration reloaded", zap.Int("callbacks", len(callbacks)))
	for _, fn := range callbacks {
		fn(cfg)
	}
}
