// Package hittest resolves world-space points to handles and nodes.
//
// Nodes are searched front to back (reverse draw order) and the first match
// wins; there is no distance ranking across nodes. Handles take priority over
// node bodies because they are drawn on top.
package hittest

import (
	"flow-canvas/internal/graph"
	"flow-canvas/pkg/geometry"
)

// Scene is the read side of the graph model a hit test needs.
type Scene interface {
	Nodes() []*graph.Node
}

// HandleAt returns the front-most handle within its radius plus tolerance of
// p, or nil.
func HandleAt(s Scene, p geometry.Point2D, tolerance float64) *graph.Handle {
	nodes := s.Nodes()
	for i := len(nodes) - 1; i >= 0; i-- {
		for _, h := range nodes[i].Handles() {
			if h.Contains(p, tolerance) {
				return h
			}
		}
	}
	return nil
}

// NodeAt returns the front-most node whose bounds contain p, unless a handle
// is at p, in which case it returns nil.
func NodeAt(s Scene, p geometry.Point2D, tolerance float64) *graph.Node {
	if HandleAt(s, p, tolerance) != nil {
		return nil
	}
	nodes := s.Nodes()
	for i := len(nodes) - 1; i >= 0; i-- {
		if nodes[i].Bounds().Contains(p) {
			return nodes[i]
		}
	}
	return nil
}

// Tolerance converts an effective hit radius into the slack added to a
// handle's own radius. The result is never negative.
func Tolerance(hitRadius, handleRadius float64) float64 {
	if t := hitRadius - handleRadius; t > 0 {
		return t
	}
	return 0
}
