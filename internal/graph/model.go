// Package graph holds the node/handle/edge model of a flow canvas.
//
// Nodes live in an arena keyed by id. A single ordered id sequence is both the
// paint order and, reversed, the hit-test order; bringing a node to the front
// moves its id to the end. Handles reference their node by id, and every
// derived value (handle world positions, lookup indices) is rebuilt from the
// authoritative collections rather than maintained incrementally.
package graph

import (
	"log/slog"

	"flow-canvas/pkg/geometry"

	"github.com/google/uuid"
)

type edgeKey struct {
	source, target string
}

// Model owns the nodes and edges of one canvas. It is not safe for concurrent
// use; callers marshal access onto a single owner.
type Model struct {
	nodes map[string]*Node
	order []string
	edges []*Edge

	// Derived indices, rebuilt by reindex on every structural change.
	handles  map[string]*Handle
	edgeKeys map[edgeKey]*Edge

	defaultSize  geometry.Size
	handleRadius float64

	newID  func(prefix string) string
	logger *slog.Logger
}

// NewModel creates an empty model.
func NewModel() *Model {
	m := &Model{
		nodes:        make(map[string]*Node),
		defaultSize:  geometry.NewSize(DefaultNodeSize, DefaultNodeSize),
		handleRadius: DefaultHandleRadius,
		newID:        shortID,
		logger:       slog.Default(),
	}
	m.reindex()
	return m
}

// shortID returns prefix + "_" + the first 8 hex digits of a random UUID.
func shortID(prefix string) string {
	return prefix + "_" + uuid.NewString()[:8]
}

// SetLogger replaces the logger used for model diagnostics.
func (m *Model) SetLogger(logger *slog.Logger) {
	if logger != nil {
		m.logger = logger
	}
}

// SetDefaultNodeSize sets the size used for nodes added without one.
func (m *Model) SetDefaultNodeSize(s geometry.Size) {
	m.defaultSize = clampSize(s, geometry.NewSize(DefaultNodeSize, DefaultNodeSize))
}

// DefaultNodeSize returns the size used for nodes added without one.
func (m *Model) DefaultNodeSize() geometry.Size {
	return m.defaultSize
}

// SetHandleRadius sets the radius given to handles of nodes added afterwards.
func (m *Model) SetHandleRadius(r float64) {
	if r > 0 {
		m.handleRadius = r
	}
}

func (m *Model) uniqueID(prefix string, taken func(string) bool) string {
	for {
		id := m.newID(prefix)
		if !taken(id) {
			return id
		}
	}
}

// AddNode creates a node on top of the draw order.
func (m *Model) AddNode(spec NodeSpec) *Node {
	id := m.uniqueID("N", func(id string) bool { _, ok := m.nodes[id]; return ok })
	n := &Node{
		ID:         id,
		Position:   spec.Position,
		Size:       clampSize(spec.Size, m.defaultSize),
		Label:      spec.Label,
		Icon:       spec.Icon,
		Background: spec.Background,
	}

	if spec.Inputs > 0 {
		for _, off := range edgeOffsets(spec.Inputs, 0, n.Size.Height) {
			n.Inputs = append(n.Inputs, m.newHandle(n.ID, Input, off))
		}
	}
	if spec.Outputs > 0 {
		for _, off := range edgeOffsets(spec.Outputs, n.Size.Width, n.Size.Height) {
			n.Outputs = append(n.Outputs, m.newHandle(n.ID, Output, off))
		}
	}

	m.nodes[n.ID] = n
	m.order = append(m.order, n.ID)
	m.reindex()
	m.logger.Debug("added node", "node", n.ID, "label", n.Label,
		"inputs", len(n.Inputs), "outputs", len(n.Outputs))
	return n
}

func (m *Model) newHandle(nodeID string, dir Direction, offset geometry.Point2D) *Handle {
	id := m.uniqueID("H", func(id string) bool { _, ok := m.handles[id]; return ok })
	h := &Handle{
		ID:        id,
		NodeID:    nodeID,
		Direction: dir,
		Offset:    offset,
		Radius:    m.handleRadius,
	}
	// Reserve the id until the next reindex so sibling handles stay unique.
	m.handles[id] = h
	return h
}

// RemoveNode deletes a node, its handles and every edge touching it.
func (m *Model) RemoveNode(id string) bool {
	if _, ok := m.nodes[id]; !ok {
		return false
	}
	delete(m.nodes, id)
	for i, nid := range m.order {
		if nid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}

	kept := m.edges[:0]
	removed := 0
	for _, e := range m.edges {
		if e.Touches(id) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(m.edges); i++ {
		m.edges[i] = nil
	}
	m.edges = kept

	m.reindex()
	m.logger.Debug("removed node", "node", id, "edges_removed", removed)
	return true
}

// AddEdge connects an output handle to an input handle on another node.
// Violations return a *ConnectionRejectedError wrapping ErrConnectionRejected
// and leave the model untouched.
func (m *Model) AddEdge(sourceHandleID, targetHandleID string, animated bool) (*Edge, error) {
	reject := func(r RejectReason) error {
		return &ConnectionRejectedError{Reason: r, SourceID: sourceHandleID, TargetID: targetHandleID}
	}

	src, ok := m.handles[sourceHandleID]
	if !ok {
		return nil, reject(RejectUnknownHandle)
	}
	dst, ok := m.handles[targetHandleID]
	if !ok {
		return nil, reject(RejectUnknownHandle)
	}
	if src.NodeID == dst.NodeID {
		return nil, reject(RejectSelfLoop)
	}
	if src.Direction != Output || dst.Direction != Input {
		return nil, reject(RejectWrongDirection)
	}
	if _, exists := m.edgeKeys[edgeKey{src.ID, dst.ID}]; exists {
		return nil, reject(RejectDuplicate)
	}

	e := &Edge{
		ID:             m.uniqueID("E", m.hasEdge),
		SourceNodeID:   src.NodeID,
		SourceHandleID: src.ID,
		TargetNodeID:   dst.NodeID,
		TargetHandleID: dst.ID,
		Animated:       animated,
	}
	m.edges = append(m.edges, e)
	m.reindex()
	m.logger.Debug("added edge", "edge", e.ID, "source", src.ID, "target", dst.ID)
	return e, nil
}

func (m *Model) hasEdge(id string) bool {
	for _, e := range m.edges {
		if e.ID == id {
			return true
		}
	}
	return false
}

// RemoveEdge deletes a single edge.
func (m *Model) RemoveEdge(id string) bool {
	for i, e := range m.edges {
		if e.ID == id {
			m.edges = append(m.edges[:i], m.edges[i+1:]...)
			m.reindex()
			return true
		}
	}
	return false
}

// MoveNode sets a node's center and refreshes its handle positions.
func (m *Model) MoveNode(id string, center geometry.Point2D) bool {
	n, ok := m.nodes[id]
	if !ok {
		return false
	}
	n.Position = center
	for _, h := range n.Handles() {
		h.updateWorld(n)
	}
	return true
}

// BringToFront moves a node to the end of the draw order.
func (m *Model) BringToFront(id string) bool {
	for i, nid := range m.order {
		if nid != id {
			continue
		}
		if i == len(m.order)-1 {
			return true
		}
		m.order = append(m.order[:i], m.order[i+1:]...)
		m.order = append(m.order, id)
		return true
	}
	return false
}

// RecomputeHandleWorldPositions refreshes every handle from its owning node.
// It is O(handles) and is called unconditionally once per frame.
func (m *Model) RecomputeHandleWorldPositions() {
	for _, id := range m.order {
		n := m.nodes[id]
		for _, h := range n.Handles() {
			h.updateWorld(n)
		}
	}
}

// Node looks up a node by id.
func (m *Model) Node(id string) (*Node, bool) {
	n, ok := m.nodes[id]
	return n, ok
}

// Handle looks up a handle by id.
func (m *Model) Handle(id string) (*Handle, bool) {
	h, ok := m.handles[id]
	return h, ok
}

// HandlesOf returns the handles of a node, inputs first. It returns nil for
// an unknown node.
func (m *Model) HandlesOf(nodeID string) []*Handle {
	n, ok := m.nodes[nodeID]
	if !ok {
		return nil
	}
	return n.Handles()
}

// Nodes returns the nodes in draw order (back to front).
func (m *Model) Nodes() []*Node {
	out := make([]*Node, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.nodes[id])
	}
	return out
}

// Order returns the node ids in draw order.
func (m *Model) Order() []string {
	return append([]string(nil), m.order...)
}

// Edges returns the edges in creation order.
func (m *Model) Edges() []*Edge {
	return append([]*Edge(nil), m.edges...)
}

// NodeCount returns the number of nodes.
func (m *Model) NodeCount() int {
	return len(m.order)
}

// EdgeCount returns the number of edges.
func (m *Model) EdgeCount() int {
	return len(m.edges)
}

// reindex rebuilds the handle and edge-pair indices from the authoritative
// collections and refreshes handle world positions.
func (m *Model) reindex() {
	m.handles = make(map[string]*Handle)
	for _, id := range m.order {
		n := m.nodes[id]
		for _, h := range n.Handles() {
			m.handles[h.ID] = h
			h.updateWorld(n)
		}
	}
	m.edgeKeys = make(map[edgeKey]*Edge, len(m.edges))
	for _, e := range m.edges {
		m.edgeKeys[edgeKey{e.SourceHandleID, e.TargetHandleID}] = e
	}
}
