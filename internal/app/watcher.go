package app

import (
	"os"
	"time"
)

// ConfigWatcher polls a config file for modification and reloads it into a
// State. Only the parsed result crosses back to the UI: listeners of
// EventConfigLoaded run on the watcher goroutine and must hand the config to
// the UI goroutine themselves.
type ConfigWatcher struct {
	state         *State
	path          string
	baseline      time.Time
	checkInterval time.Duration
	stopCh        chan struct{}
	doneCh        chan struct{}
}

// NewConfigWatcher creates a watcher for the state's config file. The
// current modification time (zero if the file is absent) is the baseline.
func NewConfigWatcher(state *State, checkInterval time.Duration) *ConfigWatcher {
	w := &ConfigWatcher{
		state:         state,
		path:          state.ConfigPath,
		checkInterval: checkInterval,
	}
	w.baseline, _ = w.modTime()
	return w
}

// Start begins watching in a background goroutine.
func (w *ConfigWatcher) Start() {
	// Fresh channels in case we're restarting
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	go w.watchLoop()
}

// Stop stops the watcher goroutine and waits for it to exit.
func (w *ConfigWatcher) Stop() {
	if w.stopCh == nil {
		return
	}
	close(w.stopCh)
	<-w.doneCh
	w.stopCh = nil
}

func (w *ConfigWatcher) watchLoop() {
	defer close(w.doneCh)
	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Check()
		}
	}
}

// Check reloads the config if the file changed since the last check and
// reports whether it did.
func (w *ConfigWatcher) Check() bool {
	mt, err := w.modTime()
	if err != nil || !mt.After(w.baseline) {
		return false
	}
	w.baseline = mt
	w.state.logger.Info("config changed, reloading", "path", w.path)
	_ = w.state.LoadConfig()
	return true
}

func (w *ConfigWatcher) modTime() (time.Time, error) {
	info, err := os.Stat(w.path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// Path returns the watched file.
func (w *ConfigWatcher) Path() string {
	return w.path
}
