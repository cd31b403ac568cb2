package graph

import "flow-canvas/pkg/geometry"

const (
	// MinNodeSize is the smallest width or height a node may have.
	MinNodeSize = 30.0
	// DefaultNodeSize is used when a node is added without a usable size.
	DefaultNodeSize = 55.0
)

// NodeSpec describes a node to add.
type NodeSpec struct {
	Position   geometry.Point2D // world-space center
	Size       geometry.Size
	Label      string
	Icon       string // opaque asset reference, may be empty
	Background string // opaque asset reference, may be empty
	Inputs     int
	Outputs    int
}

// Node is a positioned, sized vertex with connection handles.
type Node struct {
	ID         string
	Position   geometry.Point2D // world-space center
	Size       geometry.Size
	Label      string
	Icon       string
	Background string
	Inputs     []*Handle
	Outputs    []*Handle
}

// Bounds returns the node's axis-aligned world rectangle.
func (n *Node) Bounds() geometry.Rect {
	return geometry.RectAround(n.Position, n.Size)
}

// TopLeft returns the world position of the node's top-left corner.
func (n *Node) TopLeft() geometry.Point2D {
	return n.Position.Sub(n.Size.Half())
}

// Handles returns the node's inputs followed by its outputs.
func (n *Node) Handles() []*Handle {
	all := make([]*Handle, 0, len(n.Inputs)+len(n.Outputs))
	all = append(all, n.Inputs...)
	return append(all, n.Outputs...)
}

// Clone returns a deep copy of the node and its handles.
func (n *Node) Clone() *Node {
	c := *n
	c.Inputs = cloneHandles(n.Inputs)
	c.Outputs = cloneHandles(n.Outputs)
	return &c
}

func cloneHandles(hs []*Handle) []*Handle {
	if hs == nil {
		return nil
	}
	out := make([]*Handle, len(hs))
	for i, h := range hs {
		hc := *h
		out[i] = &hc
	}
	return out
}

// clampSize applies the default and minimum node dimensions.
func clampSize(s geometry.Size, fallback geometry.Size) geometry.Size {
	if s.Width <= 0 {
		s.Width = fallback.Width
	}
	if s.Height <= 0 {
		s.Height = fallback.Height
	}
	if s.Width < MinNodeSize {
		s.Width = MinNodeSize
	}
	if s.Height < MinNodeSize {
		s.Height = MinNodeSize
	}
	return s
}

// edgeOffsets spreads count handles evenly down an edge of the given height.
// A single handle sits at the vertical center.
func edgeOffsets(count int, x, height float64) []geometry.Point2D {
	offsets := make([]geometry.Point2D, count)
	for i := range offsets {
		offsets[i] = geometry.Point2D{X: x, Y: height * float64(i+1) / float64(count+1)}
	}
	return offsets
}
