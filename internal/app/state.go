// Package app provides application lifecycle management, configuration, and events.
package app

import (
	"log/slog"
	"sync"

	"flow-canvas/internal/config"
	"flow-canvas/internal/graph"
)

// State holds the application state shared between the window, the canvas
// widget and background watchers.
type State struct {
	mu sync.RWMutex

	ConfigPath string
	Config     *config.Config

	// Last config load failure, cleared by the next successful load.
	ConfigErr error

	listeners map[EventType][]EventListener
	logger    *slog.Logger
}

// EventType identifies different application events.
type EventType int

const (
	EventConfigLoaded EventType = iota
	EventConfigError
	EventEdgeConnected
	EventConnectionAttempted
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// Attempt is the payload of EventConnectionAttempted. Target is nil when
// the gesture ended without a valid target.
type Attempt struct {
	Start  *graph.Handle
	Target *graph.Handle
}

// NewState creates a new application state using the config at path.
func NewState(configPath string) *State {
	return &State{
		ConfigPath: configPath,
		Config:     config.Default(),
		listeners:  make(map[EventType][]EventListener),
		logger:     slog.Default(),
	}
}

// SetLogger sets the logger used for config reload messages.
func (s *State) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// LoadConfig reads the config file. A missing file keeps the defaults; an
// invalid one keeps the current config and emits EventConfigError.
func (s *State) LoadConfig() error {
	cfg, err := config.LoadOrDefault(s.ConfigPath)
	if err != nil {
		s.mu.Lock()
		s.ConfigErr = err
		s.mu.Unlock()
		s.logger.Warn("config not loaded", "path", s.ConfigPath, "err", err)
		s.Emit(EventConfigError, err)
		return err
	}
	s.SetConfig(cfg)
	return nil
}

// SetConfig installs cfg and emits EventConfigLoaded.
func (s *State) SetConfig(cfg *config.Config) {
	s.mu.Lock()
	s.Config = cfg
	s.ConfigErr = nil
	s.mu.Unlock()
	s.Emit(EventConfigLoaded, cfg)
}

// CurrentConfig returns the active config.
func (s *State) CurrentConfig() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Config
}

// OnEdgeConnected emits EventEdgeConnected. It makes State an
// editor.Notifier.
func (s *State) OnEdgeConnected(e *graph.Edge) {
	s.Emit(EventEdgeConnected, e)
}

// OnConnectionAttempted emits EventConnectionAttempted.
func (s *State) OnConnectionAttempted(start, target *graph.Handle) {
	s.Emit(EventConnectionAttempted, Attempt{Start: start, Target: target})
}
