package render

import (
	"fmt"
	"image/color"

	"flow-canvas/internal/config"
	"flow-canvas/pkg/colorutil"
)

// Style is the resolved visual configuration of a frame. Sizes are the base
// values before zoom compensation.
type Style struct {
	Background     color.RGBA
	GridDot        color.RGBA
	NodeBackground color.RGBA
	NodeBorder     color.RGBA
	NodeText       color.RGBA
	DragHighlight  color.RGBA
	Edge           color.RGBA
	Arrowhead      color.RGBA
	TempConnection color.RGBA
	HandleInput    color.RGBA
	HandleOutput   color.RGBA
	HandleBorder   color.RGBA

	GridSpacing   float64
	GridDotRadius float64

	HandleRadius float64
	CornerRadius float64
	IconSize     float64
	LabelMargin  float64

	StrokeWidth   float64
	ArrowheadSize float64
	Arrowheads    bool
	Curvature     float64
}

// StyleFrom resolves a configuration into a Style. The config is expected to
// be normalized; colors that fail to parse are reported.
func StyleFrom(cfg *config.Config) (Style, error) {
	s := Style{
		GridSpacing:   cfg.Canvas.GridSpacing,
		GridDotRadius: cfg.Canvas.GridDotRadius,
		HandleRadius:  cfg.Handles.VisualRadius,
		CornerRadius:  cfg.Nodes.CornerRadius,
		IconSize:      cfg.Nodes.IconSize,
		LabelMargin:   cfg.Nodes.LabelMargin,
		StrokeWidth:   cfg.Edges.StrokeWidth,
		ArrowheadSize: cfg.Edges.ArrowheadSize,
		Arrowheads:    cfg.Edges.Arrowheads,
		Curvature:     cfg.Edges.Curvature,
	}

	c := cfg.Colors
	arrow := c.Arrowhead
	if arrow == "" {
		arrow = c.Edge
	}
	fields := []struct {
		dst *color.RGBA
		hex string
	}{
		{&s.Background, c.Background},
		{&s.GridDot, c.GridDot},
		{&s.NodeBackground, c.NodeBackground},
		{&s.NodeBorder, c.NodeBorder},
		{&s.NodeText, c.NodeText},
		{&s.DragHighlight, c.DragHighlight},
		{&s.Edge, c.Edge},
		{&s.Arrowhead, arrow},
		{&s.TempConnection, c.TempConnection},
		{&s.HandleInput, c.HandleInput},
		{&s.HandleOutput, c.HandleOutput},
		{&s.HandleBorder, c.HandleBorder},
	}
	for _, f := range fields {
		v, err := colorutil.ParseHex(f.hex)
		if err != nil {
			return Style{}, fmt.Errorf("style: %w", err)
		}
		*f.dst = v
	}
	return s, nil
}

// DefaultStyle is the style of the default configuration.
func DefaultStyle() Style {
	s, err := StyleFrom(config.Default())
	if err != nil {
		panic(err)
	}
	return s
}
