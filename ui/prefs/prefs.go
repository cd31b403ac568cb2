// Package prefs provides JSON-based application preferences.
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"flow-canvas/internal/viewport"
)

const prefsFile = "preferences.json"

// Prefs stores application preferences as a key-value map.
type Prefs struct {
	mu     sync.RWMutex
	values map[string]interface{}
	path   string
}

// Keys used by the application.
const (
	KeyViewport     = "viewport"
	KeyWindowWidth  = "window.width"
	KeyWindowHeight = "window.height"
	KeyAnimateEdges = "view.animate_edges"
)

// Load reads preferences from ~/.config/flow-canvas/preferences.json.
// Returns a Prefs with defaults if the file doesn't exist.
func Load() *Prefs {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return LoadFrom(filepath.Join(configDir, "flow-canvas", prefsFile))
}

// LoadFrom reads preferences from path.
func LoadFrom(path string) *Prefs {
	p := &Prefs{
		values: make(map[string]interface{}),
		path:   path,
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		return p
	}
	_ = json.Unmarshal(data, &p.values)
	return p
}

// Save writes preferences to disk.
func (p *Prefs) Save() error {
	p.mu.RLock()
	data, err := json.MarshalIndent(p.values, "", "  ")
	p.mu.RUnlock()
	if err != nil {
		return err
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(p.path, data, 0o644)
}

// FloatWithFallback returns a float64 preference, or fallback if not set.
func (p *Prefs) FloatWithFallback(key string, fallback float64) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return fallback
}

// SetFloat stores a float64 preference.
func (p *Prefs) SetFloat(key string, val float64) {
	p.mu.Lock()
	p.values[key] = val
	p.mu.Unlock()
}

// Bool returns a bool preference, or fallback if not set.
func (p *Prefs) Bool(key string, fallback bool) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if b, ok := p.values[key].(bool); ok {
		return b
	}
	return fallback
}

// SetBool stores a bool preference.
func (p *Prefs) SetBool(key string, val bool) {
	p.mu.Lock()
	p.values[key] = val
	p.mu.Unlock()
}

// Viewport returns the saved pan/zoom state, if any.
func (p *Prefs) Viewport() (viewport.State, bool) {
	p.mu.RLock()
	v, ok := p.values[KeyViewport]
	p.mu.RUnlock()
	if !ok {
		return viewport.State{}, false
	}
	// Values read from disk are generic maps; round-trip them into the struct.
	data, err := json.Marshal(v)
	if err != nil {
		return viewport.State{}, false
	}
	var s viewport.State
	if err := json.Unmarshal(data, &s); err != nil || s.Scale <= 0 {
		return viewport.State{}, false
	}
	return s, true
}

// SetViewport stores the pan/zoom state.
func (p *Prefs) SetViewport(s viewport.State) {
	p.mu.Lock()
	p.values[KeyViewport] = s
	p.mu.Unlock()
}

// Path returns the preferences file location.
func (p *Prefs) Path() string {
	return p.path
}
