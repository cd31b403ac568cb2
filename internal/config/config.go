// Package config holds the numeric and visual parameters of a flow canvas.
//
// Only the numeric fields (hit radius, zoom bounds, grid spacing) feed the
// core logic; the rest is passed through to the renderer.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

// Config is the full canvas configuration.
type Config struct {
	Canvas  CanvasConfig  `toml:"canvas"`
	Zoom    ZoomConfig    `toml:"zoom"`
	Handles HandleConfig  `toml:"handles"`
	Nodes   NodeConfig    `toml:"nodes"`
	Edges   EdgeConfig    `toml:"edges"`
	Colors  ColorConfig   `toml:"colors"`
	Log     LoggingConfig `toml:"log"`
}

// CanvasConfig controls the background grid.
type CanvasConfig struct {
	GridSpacing   float64 `toml:"grid_spacing" validate:"gte=10"`
	GridDotRadius float64 `toml:"grid_dot_radius" validate:"gte=0.5"`
}

// ZoomConfig bounds and steps the scale factor.
type ZoomConfig struct {
	Min  float64 `toml:"min" validate:"gt=0"`
	Max  float64 `toml:"max" validate:"gtfield=Min"`
	Step float64 `toml:"step" validate:"gt=1"`
}

// HandleConfig sizes connection handles.
type HandleConfig struct {
	Radius       float64 `toml:"radius" validate:"gt=0"`        // model radius, world units
	HitRadius    float64 `toml:"hit_radius" validate:"gte=5"`   // effective touch radius, world units
	VisualRadius float64 `toml:"visual_radius" validate:"gt=0"` // drawn radius before zoom compensation
}

// NodeConfig sizes and decorates nodes.
type NodeConfig struct {
	DefaultWidth  float64 `toml:"default_width" validate:"gte=30"`
	DefaultHeight float64 `toml:"default_height" validate:"gte=30"`
	CornerRadius  float64 `toml:"corner_radius" validate:"gte=0"`
	IconSize      float64 `toml:"icon_size" validate:"gt=0"`
	LabelMargin   float64 `toml:"label_margin" validate:"gte=0"`
}

// EdgeConfig styles edges and the in-progress connection line.
type EdgeConfig struct {
	StrokeWidth   float64 `toml:"stroke_width" validate:"gte=1"`
	ArrowheadSize float64 `toml:"arrowhead_size" validate:"gte=3"`
	Arrowheads    bool    `toml:"arrowheads"`
	Curvature     float64 `toml:"curvature"`
	Animated      bool    `toml:"animated"` // flag given to edges created by gesture
}

// ColorConfig holds "#rrggbb[aa]" colors.
type ColorConfig struct {
	Background     string `toml:"background" validate:"hexcolor"`
	GridDot        string `toml:"grid_dot" validate:"hexcolor"`
	NodeBackground string `toml:"node_background" validate:"hexcolor"`
	NodeBorder     string `toml:"node_border" validate:"hexcolor"`
	NodeText       string `toml:"node_text" validate:"hexcolor"`
	DragHighlight  string `toml:"drag_highlight" validate:"hexcolor"`
	Edge           string `toml:"edge" validate:"hexcolor"`
	Arrowhead      string `toml:"arrowhead" validate:"omitempty,hexcolor"` // empty follows Edge
	TempConnection string `toml:"temp_connection" validate:"hexcolor"`
	HandleInput    string `toml:"handle_input" validate:"hexcolor"`
	HandleOutput   string `toml:"handle_output" validate:"hexcolor"`
	HandleBorder   string `toml:"handle_border" validate:"hexcolor"`
}

// LoggingConfig selects the log level ("debug", "info", "warn", "error").
type LoggingConfig struct {
	Level string `toml:"level" validate:"oneof=debug info warn error"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Canvas: CanvasConfig{GridSpacing: 50, GridDotRadius: 1.5},
		Zoom:   ZoomConfig{Min: 0.1, Max: 3.0, Step: 1.2},
		Handles: HandleConfig{
			Radius:       10,
			HitRadius:    15,
			VisualRadius: 8,
		},
		Nodes: NodeConfig{
			DefaultWidth:  55,
			DefaultHeight: 55,
			CornerRadius:  10,
			IconSize:      25,
			LabelMargin:   6,
		},
		Edges: EdgeConfig{
			StrokeWidth:   2,
			ArrowheadSize: 8,
			Arrowheads:    true,
			Curvature:     0.25,
			Animated:      true,
		},
		Colors: ColorConfig{
			Background:     "#444444",
			GridDot:        "#ffffff",
			NodeBackground: "#fafafa",
			NodeBorder:     "#dddddd",
			NodeText:       "#333333",
			DragHighlight:  "#ffeb3b",
			Edge:           "#b0bec5",
			TempConnection: "#ff9800",
			HandleInput:    "#90a4ae",
			HandleOutput:   "#90a4ae",
			HandleBorder:   "#cfd8dc",
		},
		Log: LoggingConfig{Level: "info"},
	}
}

// Normalize raises out-of-range numeric options to their minimums, the same
// floor the individual setters apply.
func (c *Config) Normalize() {
	c.Canvas.GridSpacing = atLeast(c.Canvas.GridSpacing, 10)
	c.Canvas.GridDotRadius = atLeast(c.Canvas.GridDotRadius, 0.5)
	c.Handles.HitRadius = atLeast(c.Handles.HitRadius, 5)
	c.Nodes.DefaultWidth = atLeast(c.Nodes.DefaultWidth, 30)
	c.Nodes.DefaultHeight = atLeast(c.Nodes.DefaultHeight, 30)
	c.Nodes.CornerRadius = atLeast(c.Nodes.CornerRadius, 0)
	c.Nodes.LabelMargin = atLeast(c.Nodes.LabelMargin, 0)
	c.Edges.StrokeWidth = atLeast(c.Edges.StrokeWidth, 1)
	c.Edges.ArrowheadSize = atLeast(c.Edges.ArrowheadSize, 3)
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func atLeast(v, min float64) float64 {
	if v < min {
		return min
	}
	return v
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the options that cannot be normalized, such as inverted
// zoom bounds or malformed colors.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ConfigDir returns the flow-canvas config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "flow-canvas")
}

// DefaultPath returns the path of the user config file.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads a TOML config file over the defaults. Missing keys keep their
// default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads path, falling back to defaults when the file does not
// exist. Any other error is returned alongside the defaults.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	cfg, err := Load(path)
	if err != nil {
		return Default(), err
	}
	return cfg, nil
}

// Save writes the config as TOML.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
