package editor

import (
	"flow-canvas/internal/graph"
	"flow-canvas/internal/interaction"
	"flow-canvas/internal/viewport"
	"flow-canvas/pkg/geometry"
)

// Snapshot is an immutable copy of everything a frame needs. It shares no
// pointers with the live model, so it can be rendered while the editor keeps
// processing events.
type Snapshot struct {
	Nodes       []*graph.Node // draw order, back to front
	Edges       []graph.Edge
	View        viewport.State
	Matrix      geometry.AffineTransform // world -> screen
	Visible     geometry.Rect            // world area covered by the viewport
	Interaction interaction.State
	Width       float64
	Height      float64

	handles map[string]*graph.Handle
	nodes   map[string]*graph.Node
}

// Handle looks up a handle in the snapshot.
func (s *Snapshot) Handle(id string) (*graph.Handle, bool) {
	h, ok := s.handles[id]
	return h, ok
}

// Node looks up a node in the snapshot.
func (s *Snapshot) Node(id string) (*graph.Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// ToScreen maps a world point with the snapshot's matrix.
func (s *Snapshot) ToScreen(p geometry.Point2D) geometry.Point2D {
	return s.Matrix.Apply(p)
}

func (e *Editor) snapshot() Snapshot {
	e.model.RecomputeHandleWorldPositions()

	s := Snapshot{
		View:        e.view.State(),
		Matrix:      e.view.Matrix(),
		Visible:     e.view.VisibleWorldRect(e.width, e.height),
		Interaction: e.machine.State(),
		Width:       e.width,
		Height:      e.height,
		handles:     make(map[string]*graph.Handle),
		nodes:       make(map[string]*graph.Node),
	}
	for _, n := range e.model.Nodes() {
		c := n.Clone()
		s.Nodes = append(s.Nodes, c)
		s.nodes[c.ID] = c
		for _, h := range c.Handles() {
			s.handles[h.ID] = h
		}
	}
	for _, edge := range e.model.Edges() {
		s.Edges = append(s.Edges, *edge)
	}
	return s
}
