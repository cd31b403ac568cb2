package graph

import "flow-canvas/pkg/geometry"

// DefaultHandleRadius is the radius of a handle in world units.
const DefaultHandleRadius = 10.0

// Direction says whether a handle receives or emits connections.
type Direction int

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	switch d {
	case Input:
		return "input"
	case Output:
		return "output"
	default:
		return "unknown"
	}
}

// Handle is a connection point on a node.
//
// World is derived state: it is recomputed from the owning node's position and
// size and must never be treated as authoritative.
type Handle struct {
	ID        string
	NodeID    string
	Direction Direction
	Offset    geometry.Point2D // relative to the owning node's top-left corner
	Radius    float64
	World     geometry.Point2D
}

// Contains reports whether p lies within the handle's radius plus tolerance.
func (h *Handle) Contains(p geometry.Point2D, tolerance float64) bool {
	dx := p.X - h.World.X
	dy := p.Y - h.World.Y
	r := h.Radius + tolerance
	return dx*dx+dy*dy <= r*r
}

func (h *Handle) updateWorld(n *Node) {
	h.World = n.TopLeft().Add(h.Offset)
}

// CanConnect is the structural connection rule: an output handle may connect
// to an input handle on a different node. The same predicate gates both
// candidate highlighting and edge creation.
func CanConnect(source, target *Handle) bool {
	if source == nil || target == nil {
		return false
	}
	if source.NodeID == target.NodeID {
		return false
	}
	return source.Direction == Output && target.Direction == Input
}
