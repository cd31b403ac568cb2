// Package interaction turns a raw pointer-event stream into graph edits.
//
// One pointer at a time is primary and drives the gesture; further pointers
// are only tracked so that one can take over when the primary lifts. A
// takeover cancels any drag or connection instead of handing it to the new
// finger.
package interaction

import (
	"log/slog"

	"flow-canvas/internal/graph"
	"flow-canvas/internal/hittest"
	"flow-canvas/internal/viewport"
	"flow-canvas/pkg/geometry"
)

// Listener receives the side effects of connection gestures. Calls happen
// synchronously, before the machine returns to Idle.
type Listener interface {
	EdgeConnected(e *graph.Edge)
	ConnectionRejected(start, target *graph.Handle, err error)
	ConnectionAttempted(start, target *graph.Handle)
}

type pointer struct {
	id   int
	last geometry.Point2D // screen space
}

// Machine is the pointer-driven gesture state machine of one canvas.
type Machine struct {
	model *graph.Model
	view  *viewport.Transform

	listener  Listener
	tolerance float64
	animated  bool
	logger    *slog.Logger

	state    State
	pointers []pointer // in press order; pointers[0] is primary
	panLast  geometry.Point2D

	// copy of the connection's start handle, reported if the live handle
	// is removed mid-gesture
	start *graph.Handle
}

// NewMachine creates an idle machine over the given model and transform.
func NewMachine(model *graph.Model, view *viewport.Transform) *Machine {
	return &Machine{
		model:    model,
		view:     view,
		animated: true,
		logger:   slog.Default(),
	}
}

// SetListener sets the receiver of connection side effects.
func (m *Machine) SetListener(l Listener) {
	m.listener = l
}

// SetTolerance sets the slack added to each handle's radius during hit tests.
func (m *Machine) SetTolerance(t float64) {
	if t >= 0 {
		m.tolerance = t
	}
}

// SetAnimatedEdges controls the Animated flag of edges created by gestures.
func (m *Machine) SetAnimatedEdges(animated bool) {
	m.animated = animated
}

// SetLogger replaces the logger used for gesture diagnostics.
func (m *Machine) SetLogger(logger *slog.Logger) {
	if logger != nil {
		m.logger = logger
	}
}

// State returns the current gesture state.
func (m *Machine) State() State {
	return m.state
}

// Mode returns the current gesture mode.
func (m *Machine) Mode() Mode {
	return m.state.Mode
}

// Pointers returns the number of tracked pointers.
func (m *Machine) Pointers() int {
	return len(m.pointers)
}

// Reset drops every tracked pointer and returns to Idle without notifying.
func (m *Machine) Reset() {
	m.pointers = nil
	m.state = State{}
	m.start = nil
}

// Abort drops every tracked pointer and returns to Idle. A connection in
// progress ends as an attempt without a target.
func (m *Machine) Abort() {
	m.finish(nil)
	m.pointers = nil
}

// Handle feeds one pointer event through the machine and reports whether the
// canvas needs to be redrawn.
func (m *Machine) Handle(ev PointerEvent) bool {
	m.model.RecomputeHandleWorldPositions()

	switch ev.Phase {
	case PhaseDown:
		return m.down(ev)
	case PhaseMove:
		return m.move(ev)
	case PhaseUp:
		return m.up(ev)
	case PhaseCancel:
		return m.cancel(ev)
	}
	return false
}

func (m *Machine) indexOf(id int) int {
	for i, p := range m.pointers {
		if p.id == id {
			return i
		}
	}
	return -1
}

func (m *Machine) down(ev PointerEvent) bool {
	if m.indexOf(ev.ID) >= 0 {
		// A repeated press for a pointer we already track carries no new
		// information beyond its position.
		return m.move(PointerEvent{ID: ev.ID, Phase: PhaseMove, X: ev.X, Y: ev.Y})
	}
	m.pointers = append(m.pointers, pointer{id: ev.ID, last: ev.Point()})
	if len(m.pointers) > 1 {
		return false
	}
	m.begin(ev.Point())
	return true
}

func (m *Machine) begin(screen geometry.Point2D) {
	world := m.view.ToWorld(screen)

	if h := hittest.HandleAt(m.model, world, m.tolerance); h != nil {
		m.state = State{Mode: Connecting, StartHandleID: h.ID, Current: world}
		start := *h
		m.start = &start
		m.logger.Debug("connection started", "handle", h.ID, "node", h.NodeID)
		return
	}
	if n := hittest.NodeAt(m.model, world, m.tolerance); n != nil {
		m.state = State{Mode: DraggingNode, NodeID: n.ID, GrabOffset: world.Sub(n.Position)}
		m.model.BringToFront(n.ID)
		m.logger.Debug("node drag started", "node", n.ID)
		return
	}
	m.state = State{Mode: Panning}
	m.panLast = screen
}

func (m *Machine) move(ev PointerEvent) bool {
	i := m.indexOf(ev.ID)
	if i < 0 {
		return false
	}
	m.pointers[i].last = ev.Point()
	if i != 0 {
		return false
	}

	screen := ev.Point()
	switch m.state.Mode {
	case Connecting:
		world := m.view.ToWorld(screen)
		m.state.Current = world
		m.state.CandidateID = ""
		start, ok := m.model.Handle(m.state.StartHandleID)
		if !ok {
			m.finish(nil)
			return true
		}
		if c := hittest.HandleAt(m.model, world, m.tolerance); graph.CanConnect(start, c) {
			m.state.CandidateID = c.ID
		}
		return true

	case DraggingNode:
		world := m.view.ToWorld(screen)
		if !m.model.MoveNode(m.state.NodeID, world.Sub(m.state.GrabOffset)) {
			m.logger.Warn("dragged node disappeared", "node", m.state.NodeID)
			m.state = State{}
		}
		return true

	case Panning:
		m.view.Pan(screen.Sub(m.panLast))
		m.panLast = screen
		return true
	}
	return false
}

func (m *Machine) up(ev PointerEvent) bool {
	i := m.indexOf(ev.ID)
	if i < 0 {
		return false
	}
	m.pointers[i].last = ev.Point()
	m.pointers = append(m.pointers[:i], m.pointers[i+1:]...)
	if i != 0 {
		return false
	}

	if len(m.pointers) == 0 {
		release := ev.Point()
		m.finish(&release)
		return true
	}

	// Primary lifted with others still down: promote the earliest remaining
	// pointer. Drags and connections are cancelled rather than continued.
	next := m.pointers[0]
	switch m.state.Mode {
	case Connecting, DraggingNode:
		m.logger.Debug("gesture cancelled by pointer handoff", "mode", m.state.Mode, "pointer", next.id)
		m.finish(nil)
	case Panning:
		m.panLast = next.last
	}
	return true
}

func (m *Machine) cancel(ev PointerEvent) bool {
	if m.indexOf(ev.ID) < 0 && len(m.pointers) == 0 {
		return false
	}
	m.finish(nil)
	m.pointers = nil
	return true
}

// finish ends the current gesture. release is the screen position at which a
// connection is resolved; nil means the gesture was cancelled and has no
// target.
func (m *Machine) finish(release *geometry.Point2D) {
	if m.state.Mode == Connecting {
		m.finishConnection(release)
	}
	m.state = State{}
	m.start = nil
}

func (m *Machine) finishConnection(release *geometry.Point2D) {
	start, ok := m.model.Handle(m.state.StartHandleID)
	if !ok {
		m.logger.Warn("connection start handle disappeared", "handle", m.state.StartHandleID)
		if m.listener != nil && m.start != nil {
			m.listener.ConnectionAttempted(m.start, nil)
		}
		return
	}

	var target *graph.Handle
	if release != nil {
		world := m.view.ToWorld(*release)
		if h := hittest.HandleAt(m.model, world, m.tolerance); graph.CanConnect(start, h) {
			target = h
		}
	}

	if target != nil {
		e, err := m.model.AddEdge(start.ID, target.ID, m.animated)
		switch {
		case err == nil:
			m.logger.Info("edge connected", "edge", e.ID, "source", start.ID, "target", target.ID)
			if m.listener != nil {
				m.listener.EdgeConnected(e)
			}
		default:
			m.logger.Debug("edge not created", "source", start.ID, "target", target.ID, "err", err)
			if m.listener != nil {
				m.listener.ConnectionRejected(start, target, err)
			}
		}
	}

	if m.listener != nil {
		m.listener.ConnectionAttempted(start, target)
	}
}
