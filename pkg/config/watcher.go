// This file implements hot reloading of the single hippograph.yaml
// config file for long-lived processes (cmd/sleepd), the way the
// teacher's internal/config/watcher.go hot-reloads its own config
// directory in development.
package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher watches a single hippograph.yaml for changes and reloads it,
// notifying registered callbacks with the new Config. Reload goes
// through the same Load path as startup (defaults, then the file, then
// HIPPOGRAPH_* env overrides), so env overrides still win after a
// file edit.
//
// A reload only ever produces a new *Config value; it does not reach
// into already-constructed services (IngestService, Retriever,
// SleepService hold their own *domainconfig.DomainConfig snapshots
// taken at startup). Callers that want a field to actually take effect
// register a callback that applies it to the specific component that
// owns it, the way cmd/sleepd applies Sleep.* to its Scheduler.
type Watcher struct {
	yamlPath string

	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)

	logger   *zap.Logger
	watcher  *fsnotify.Watcher
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewWatcher starts watching yamlPath. yamlPath must already exist:
// there is nothing to hot-reload for a process running off defaults
// alone.
func NewWatcher(yamlPath string, initial *Config, logger *zap.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: creating file watcher: %w", err)
	}
	if err := fsWatcher.Add(yamlPath); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("config: watching %s: %w", yamlPath, err)
	}

	w := &Watcher{
		yamlPath: yamlPath,
		config:   initial,
		logger:   logger,
		watcher:  fsWatcher,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go w.loop()
	logger.Info("config hot reloading enabled", zap.String("path", yamlPath))
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.doneCh)
	defer w.watcher.Close()

	var debounce *time.Timer
	const debounceDelay = 500 * time.Millisecond
	reload := make(chan struct{}, 1)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.logger.Info("config file changed", zap.String("op", event.Op.String()))
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher error", zap.Error(err))
		case <-reload:
			w.reload()
		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) reload() {
	newCfg, err := Load(w.yamlPath)
	if err != nil {
		w.logger.Error("config reload failed, keeping previous config", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.config = newCfg
	callbacks := append([]func(*Config){}, w.callbacks...)
	w.mu.Unlock()

	w.logger.Info("config reloaded", zap.Strings("loaded_from", newCfg.LoadedFrom))
	for _, cb := range callbacks {
		cb(newCfg)
	}
}

// OnChange registers a callback invoked (synchronously, on the
// watcher's own goroutine) with the reloaded Config whenever the file
// changes on disk.
func (w *Watcher) OnChange(cb func(*Config)) {
	w.mu.Lock()
	w.callbacks = append(w.callbacks, cb)
	w.mu.Unlock()
}

// Config returns the most recently loaded configuration.
func (w *Watcher) Config() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// Stop halts the watcher and waits for its goroutine to exit. Safe to
// call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.doneCh
}
