package graph

import (
	"errors"
	"fmt"
	"testing"

	"flow-canvas/pkg/geometry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestModel returns a model with predictable ids (N_1, H_2, ...).
func newTestModel() *Model {
	m := NewModel()
	seq := 0
	m.newID = func(prefix string) string {
		seq++
		return fmt.Sprintf("%s_%d", prefix, seq)
	}
	return m
}

func addPair(t *testing.T, m *Model) (a, b *Node) {
	t.Helper()
	a = m.AddNode(NodeSpec{Position: geometry.NewPoint2D(100, 100), Size: geometry.NewSize(60, 40), Label: "A", Inputs: 1, Outputs: 1})
	b = m.AddNode(NodeSpec{Position: geometry.NewPoint2D(300, 100), Size: geometry.NewSize(60, 40), Label: "B", Inputs: 1, Outputs: 1})
	return a, b
}

func TestAddNodePlacesHandles(t *testing.T) {
	m := newTestModel()
	n := m.AddNode(NodeSpec{Position: geometry.NewPoint2D(100, 200), Size: geometry.NewSize(60, 40), Inputs: 1, Outputs: 1})

	require.Len(t, n.Inputs, 1)
	require.Len(t, n.Outputs, 1)
	in, out := n.Inputs[0], n.Outputs[0]

	assert.Equal(t, Input, in.Direction)
	assert.Equal(t, Output, out.Direction)
	assert.Equal(t, n.ID, in.NodeID)
	assert.Equal(t, geometry.NewPoint2D(0, 20), in.Offset)
	assert.Equal(t, geometry.NewPoint2D(60, 20), out.Offset)
	assert.Equal(t, geometry.NewPoint2D(70, 200), in.World)
	assert.Equal(t, geometry.NewPoint2D(130, 200), out.World)
	assert.Equal(t, DefaultHandleRadius, in.Radius)

	got, ok := m.Handle(out.ID)
	require.True(t, ok)
	assert.Same(t, out, got)
}

func TestAddNodeSpreadsMultipleHandles(t *testing.T) {
	m := newTestModel()
	n := m.AddNode(NodeSpec{Size: geometry.NewSize(60, 90), Inputs: 2, Outputs: 3})

	require.Len(t, n.Inputs, 2)
	require.Len(t, n.Outputs, 3)
	assert.Equal(t, 30.0, n.Inputs[0].Offset.Y)
	assert.Equal(t, 60.0, n.Inputs[1].Offset.Y)
	assert.InDelta(t, 22.5, n.Outputs[0].Offset.Y, 1e-12)
	assert.InDelta(t, 67.5, n.Outputs[2].Offset.Y, 1e-12)
	assert.Len(t, m.handles, 5)
}

func TestAddNodeSizeDefaultsAndClamp(t *testing.T) {
	m := newTestModel()
	def := m.AddNode(NodeSpec{})
	assert.Equal(t, geometry.NewSize(DefaultNodeSize, DefaultNodeSize), def.Size)

	tiny := m.AddNode(NodeSpec{Size: geometry.NewSize(5, 100)})
	assert.Equal(t, geometry.NewSize(MinNodeSize, 100), tiny.Size)

	none := m.AddNode(NodeSpec{Inputs: 0, Outputs: 0})
	assert.Empty(t, none.Handles())
}

func TestAddEdgeAccepts(t *testing.T) {
	m := newTestModel()
	a, b := addPair(t, m)

	e, err := m.AddEdge(a.Outputs[0].ID, b.Inputs[0].ID, true)
	require.NoError(t, err)
	assert.Equal(t, a.ID, e.SourceNodeID)
	assert.Equal(t, b.ID, e.TargetNodeID)
	assert.True(t, e.Animated)
	assert.Equal(t, 1, m.EdgeCount())
}

func TestAddEdgeRejects(t *testing.T) {
	m := newTestModel()
	a, b := addPair(t, m)
	_, err := m.AddEdge(a.Outputs[0].ID, b.Inputs[0].ID, false)
	require.NoError(t, err)

	tests := []struct {
		name   string
		src    string
		dst    string
		reason RejectReason
	}{
		{"same node", a.Outputs[0].ID, a.Inputs[0].ID, RejectSelfLoop},
		{"input to input", a.Inputs[0].ID, b.Inputs[0].ID, RejectWrongDirection},
		{"output to output", a.Outputs[0].ID, b.Outputs[0].ID, RejectWrongDirection},
		{"reversed", b.Inputs[0].ID, a.Outputs[0].ID, RejectWrongDirection},
		{"duplicate", a.Outputs[0].ID, b.Inputs[0].ID, RejectDuplicate},
		{"unknown source", "H_missing", b.Inputs[0].ID, RejectUnknownHandle},
		{"unknown target", a.Outputs[0].ID, "H_missing", RejectUnknownHandle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := m.Edges()
			e, err := m.AddEdge(tt.src, tt.dst, false)
			assert.Nil(t, e)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConnectionRejected))

			var rej *ConnectionRejectedError
			require.True(t, errors.As(err, &rej))
			assert.Equal(t, tt.reason, rej.Reason)
			assert.Equal(t, tt.reason == RejectDuplicate, IsDuplicate(err))
			assert.Equal(t, before, m.Edges())
		})
	}
}

func TestRemoveNodeCascades(t *testing.T) {
	m := newTestModel()
	a, b := addPair(t, m)
	c := m.AddNode(NodeSpec{Position: geometry.NewPoint2D(500, 100), Inputs: 1, Outputs: 1})

	_, err := m.AddEdge(a.Outputs[0].ID, b.Inputs[0].ID, false)
	require.NoError(t, err)
	keep, err := m.AddEdge(a.Outputs[0].ID, c.Inputs[0].ID, false)
	require.NoError(t, err)
	_, err = m.AddEdge(b.Outputs[0].ID, c.Inputs[0].ID, false)
	require.NoError(t, err)

	require.True(t, m.RemoveNode(b.ID))

	assert.Equal(t, []*Edge{keep}, m.Edges())
	for _, h := range b.Handles() {
		_, ok := m.Handle(h.ID)
		assert.False(t, ok, "handle %s still reachable", h.ID)
	}
	_, ok := m.Node(b.ID)
	assert.False(t, ok)
	assert.Equal(t, []string{a.ID, c.ID}, m.Order())

	assert.False(t, m.RemoveNode(b.ID))
}

func TestBringToFrontMovesToEnd(t *testing.T) {
	m := newTestModel()
	a, b := addPair(t, m)
	c := m.AddNode(NodeSpec{})

	assert.True(t, m.BringToFront(a.ID))
	assert.Equal(t, []string{b.ID, c.ID, a.ID}, m.Order())
	assert.True(t, m.BringToFront(a.ID))
	assert.Equal(t, []string{b.ID, c.ID, a.ID}, m.Order())
	assert.False(t, m.BringToFront("N_missing"))
}

func TestRecomputeFollowsNodePosition(t *testing.T) {
	m := newTestModel()
	a, _ := addPair(t, m)

	a.Position = geometry.NewPoint2D(0, 0)
	m.RecomputeHandleWorldPositions()
	assert.Equal(t, geometry.NewPoint2D(-30, 0), a.Inputs[0].World)
	assert.Equal(t, geometry.NewPoint2D(30, 0), a.Outputs[0].World)

	require.True(t, m.MoveNode(a.ID, geometry.NewPoint2D(10, 10)))
	assert.Equal(t, geometry.NewPoint2D(-20, 10), a.Inputs[0].World)
	assert.False(t, m.MoveNode("N_missing", geometry.Point2D{}))
}

func TestRemoveEdge(t *testing.T) {
	m := newTestModel()
	a, b := addPair(t, m)
	e, err := m.AddEdge(a.Outputs[0].ID, b.Inputs[0].ID, false)
	require.NoError(t, err)

	assert.True(t, m.RemoveEdge(e.ID))
	assert.Zero(t, m.EdgeCount())
	assert.False(t, m.RemoveEdge(e.ID))

	// The pair is free again once the edge is gone.
	_, err = m.AddEdge(a.Outputs[0].ID, b.Inputs[0].ID, false)
	assert.NoError(t, err)
}

func TestCloneIsDeep(t *testing.T) {
	m := newTestModel()
	a, _ := addPair(t, m)
	c := a.Clone()

	if diff := cmp.Diff(a, c); diff != "" {
		t.Fatalf("clone differs (-orig +clone):\n%s", diff)
	}
	c.Position = geometry.NewPoint2D(1, 1)
	c.Inputs[0].World = geometry.NewPoint2D(1, 1)
	assert.NotEqual(t, a.Position, c.Position)
	assert.NotEqual(t, a.Inputs[0].World, c.Inputs[0].World)
}

func TestCanConnect(t *testing.T) {
	m := newTestModel()
	a, b := addPair(t, m)
	assert.True(t, CanConnect(a.Outputs[0], b.Inputs[0]))
	assert.False(t, CanConnect(b.Inputs[0], a.Outputs[0]))
	assert.False(t, CanConnect(a.Outputs[0], a.Inputs[0]))
	assert.False(t, CanConnect(nil, b.Inputs[0]))
}

func TestShortIDFormat(t *testing.T) {
	id := shortID("N")
	assert.Regexp(t, `^N_[0-9a-f]{8}$`, id)
}

func TestHandlesOf(t *testing.T) {
	m := newTestModel()
	a, _ := addPair(t, m)

	hs := m.HandlesOf(a.ID)
	require.Len(t, hs, 2)
	assert.Equal(t, Input, hs[0].Direction)
	assert.Equal(t, Output, hs[1].Direction)
	assert.Nil(t, m.HandlesOf("N_missing"))
}
