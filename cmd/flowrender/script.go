package main

import (
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"flow-canvas/internal/assets"
	"flow-canvas/internal/editor"
	"flow-canvas/internal/graph"
	"flow-canvas/internal/interaction"
	"flow-canvas/internal/render"
	"flow-canvas/pkg/geometry"

	"gopkg.in/yaml.v3"
)

// Script is a recorded editing session: a starting graph and a sequence of
// input steps, some of which write frames.
type Script struct {
	Width  float64   `yaml:"width"`
	Height float64   `yaml:"height"`
	Sample bool      `yaml:"sample"`
	Nodes  []NodeDef `yaml:"nodes"`
	Edges  []EdgeDef `yaml:"edges"`
	Steps  []Step    `yaml:"steps"`
}

// NodeDef adds a node. Label doubles as its reference in EdgeDef.
type NodeDef struct {
	Label      string  `yaml:"label"`
	X          float64 `yaml:"x"`
	Y          float64 `yaml:"y"`
	Width      float64 `yaml:"width"`
	Height     float64 `yaml:"height"`
	Inputs     int     `yaml:"inputs"`
	Outputs    int     `yaml:"outputs"`
	Icon       string  `yaml:"icon"`
	Background string  `yaml:"background"`
}

// EdgeDef connects output Output of node From to input Input of node To.
type EdgeDef struct {
	From   string `yaml:"from"`
	Output int    `yaml:"output"`
	To     string `yaml:"to"`
	Input  int    `yaml:"input"`
}

// Step is exactly one of its fields.
type Step struct {
	Pointer *PointerStep `yaml:"pointer,omitempty"`
	Zoom    *ZoomStep    `yaml:"zoom,omitempty"`
	Pan     *PanStep     `yaml:"pan,omitempty"`
	Frame   *FrameStep   `yaml:"frame,omitempty"`
	Cancel  bool         `yaml:"cancel,omitempty"`
}

type PointerStep struct {
	ID    int     `yaml:"id"`
	Phase string  `yaml:"phase"`
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
}

// ZoomStep multiplies the scale by Factor around the screen point (X, Y).
type ZoomStep struct {
	Factor float64 `yaml:"factor"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
}

type PanStep struct {
	DX float64 `yaml:"dx"`
	DY float64 `yaml:"dy"`
}

// FrameStep writes the current frame to File, relative to the output
// directory. Phase offsets animated edge dashes.
type FrameStep struct {
	File  string  `yaml:"file"`
	Phase float64 `yaml:"phase"`
}

// LoadScript reads a YAML script.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if s.Width <= 0 {
		s.Width = 800
	}
	if s.Height <= 0 {
		s.Height = 600
	}
	return &s, nil
}

// Player replays scripts against an editor.
type Player struct {
	Editor   *editor.Editor
	Style    render.Style
	Resolver assets.Resolver
	OutDir   string

	// Frames lists the files written so far.
	Frames []string
}

// Setup sizes the editor and builds the script's starting graph.
func (p *Player) Setup(s *Script) error {
	p.Editor.Resize(s.Width, s.Height)
	if s.Sample {
		if _, err := editor.LoadSample(p.Editor); err != nil {
			return err
		}
	}

	byLabel := make(map[string]*graph.Node)
	for _, n := range s.Nodes {
		node := p.Editor.AddNode(graph.NodeSpec{
			Position:   geometry.NewPoint2D(n.X, n.Y),
			Size:       geometry.NewSize(n.Width, n.Height),
			Label:      n.Label,
			Icon:       n.Icon,
			Background: n.Background,
			Inputs:     n.Inputs,
			Outputs:    n.Outputs,
		})
		if n.Label != "" {
			byLabel[n.Label] = node
		}
	}

	for i, e := range s.Edges {
		from, ok := byLabel[e.From]
		if !ok {
			return fmt.Errorf("edge %d: unknown node %q", i, e.From)
		}
		to, ok := byLabel[e.To]
		if !ok {
			return fmt.Errorf("edge %d: unknown node %q", i, e.To)
		}
		if e.Output >= len(from.Outputs) || e.Input >= len(to.Inputs) || e.Output < 0 || e.Input < 0 {
			return fmt.Errorf("edge %d: handle index out of range", i)
		}
		if _, err := p.Editor.Connect(from.Outputs[e.Output].ID, to.Inputs[e.Input].ID); err != nil {
			return fmt.Errorf("edge %d: %w", i, err)
		}
	}
	return nil
}

// Play runs every step of s in order.
func (p *Player) Play(s *Script) error {
	for i, st := range s.Steps {
		if err := p.step(st); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

func (p *Player) step(st Step) error {
	switch {
	case st.Pointer != nil:
		phase, err := interaction.ParsePhase(st.Pointer.Phase)
		if err != nil {
			return err
		}
		p.Editor.HandlePointer(interaction.PointerEvent{
			ID:    st.Pointer.ID,
			Phase: phase,
			X:     st.Pointer.X,
			Y:     st.Pointer.Y,
		})
	case st.Zoom != nil:
		if st.Zoom.Factor <= 0 {
			return fmt.Errorf("zoom factor must be positive, got %g", st.Zoom.Factor)
		}
		p.Editor.ZoomAt(st.Zoom.Factor, geometry.NewPoint2D(st.Zoom.X, st.Zoom.Y))
	case st.Pan != nil:
		p.Editor.Pan(geometry.NewPoint2D(st.Pan.DX, st.Pan.DY))
	case st.Frame != nil:
		return p.WriteFrame(st.Frame.File, st.Frame.Phase)
	case st.Cancel:
		p.Editor.CancelGesture()
	default:
		return errors.New("empty step")
	}
	return nil
}

// WriteFrame renders the editor and writes a PNG.
func (p *Player) WriteFrame(name string, phase float64) error {
	if name == "" {
		name = fmt.Sprintf("frame-%03d.png", len(p.Frames))
	}
	path := filepath.Join(p.OutDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	snap := p.Editor.Snapshot()
	img := render.Render(&snap, p.Style, p.Resolver, phase)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	p.Frames = append(p.Frames, path)
	return nil
}
