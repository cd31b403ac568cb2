// Package editor ties the viewport, graph model and gesture machine of one
// flow canvas together behind a single owner.
//
// An Editor is not safe for concurrent use. Hosts call it from their UI
// goroutine and hand Snapshots to the renderer.
package editor

import (
	"errors"
	"log/slog"

	"flow-canvas/internal/config"
	"flow-canvas/internal/graph"
	"flow-canvas/internal/hittest"
	"flow-canvas/internal/interaction"
	"flow-canvas/internal/metrics"
	"flow-canvas/internal/viewport"
	"flow-canvas/pkg/geometry"
)

// Editor is one canvas instance.
type Editor struct {
	cfg     config.Config
	view    *viewport.Transform
	model   *graph.Model
	machine *interaction.Machine

	notifier Notifier
	metrics  *metrics.Registry
	logger   *slog.Logger

	width, height float64

	// outcome of the connection gesture being finished, read by
	// ConnectionAttempted
	outcome string

	onInvalidate func()
}

// New creates an editor with the given configuration. A nil cfg uses the
// defaults.
func New(cfg *config.Config) *Editor {
	e := &Editor{
		view:    viewport.New(),
		model:   graph.NewModel(),
		metrics: metrics.NewRegistry(),
		logger:  slog.Default(),
	}
	e.machine = interaction.NewMachine(e.model, e.view)
	e.machine.SetListener(e)

	if cfg == nil {
		cfg = config.Default()
	}
	e.ApplyConfig(cfg)
	return e
}

// SetLogger replaces the logger of the editor and every component it owns.
func (e *Editor) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	e.logger = logger
	e.view.SetLogger(logger.With("component", "viewport"))
	e.model.SetLogger(logger.With("component", "graph"))
	e.machine.SetLogger(logger.With("component", "interaction"))
}

// SetNotifier sets the receiver of connection events. nil disables them.
func (e *Editor) SetNotifier(n Notifier) {
	e.notifier = n
}

// SetMetrics replaces the metrics registry.
func (e *Editor) SetMetrics(r *metrics.Registry) {
	if r != nil {
		e.metrics = r
		e.updateGauges()
	}
}

// Metrics returns the editor's metrics registry.
func (e *Editor) Metrics() *metrics.Registry {
	return e.metrics
}

// OnInvalidate sets a callback run whenever the canvas needs redrawing.
func (e *Editor) OnInvalidate(fn func()) {
	e.onInvalidate = fn
}

func (e *Editor) invalidate() {
	if e.onInvalidate != nil {
		e.onInvalidate()
	}
}

// Config returns a copy of the active configuration.
func (e *Editor) Config() config.Config {
	return e.cfg
}

// ApplyConfig replaces the configuration. Numeric options below their
// minimums are raised. Handle radius and default node size apply to nodes
// added afterwards.
func (e *Editor) ApplyConfig(cfg *config.Config) {
	c := *cfg
	c.Normalize()
	e.cfg = c

	e.view.SetBounds(c.Zoom.Min, c.Zoom.Max)
	e.view.SetZoomStep(c.Zoom.Step)
	e.model.SetDefaultNodeSize(geometry.NewSize(c.Nodes.DefaultWidth, c.Nodes.DefaultHeight))
	e.model.SetHandleRadius(c.Handles.Radius)
	e.machine.SetTolerance(hittest.Tolerance(c.Handles.HitRadius, c.Handles.Radius))
	e.machine.SetAnimatedEdges(c.Edges.Animated)
	e.metrics.ZoomScale.Set(e.view.Scale())

	e.invalidate()
}

// HandlePointer feeds one pointer event to the gesture machine and reports
// whether the canvas must be redrawn.
func (e *Editor) HandlePointer(ev interaction.PointerEvent) bool {
	before := e.machine.Mode()
	redraw := e.machine.Handle(ev)
	if after := e.machine.Mode(); before == interaction.Idle && after != interaction.Idle {
		e.metrics.RecordGesture(after.String())
	}
	if redraw {
		e.invalidate()
	}
	return redraw
}

// Mode returns the current gesture mode.
func (e *Editor) Mode() interaction.Mode {
	return e.machine.Mode()
}

// CancelGesture abandons any gesture in progress without notifications.
func (e *Editor) CancelGesture() {
	if e.machine.Mode() != interaction.Idle {
		e.machine.Reset()
		e.invalidate()
		return
	}
	e.machine.Reset()
}

// AddNode adds a node and returns it.
func (e *Editor) AddNode(spec graph.NodeSpec) *graph.Node {
	n := e.model.AddNode(spec)
	e.logger.Debug("node added", "node", n.ID, "label", n.Label)
	e.updateGauges()
	e.invalidate()
	return n
}

// AddNodeAtCenter adds a node of the default size at the world point under
// the center of the viewport.
func (e *Editor) AddNodeAtCenter(label, icon, background string, inputs, outputs int) *graph.Node {
	center := e.view.ToWorld(geometry.Point2D{X: e.width / 2, Y: e.height / 2})
	return e.AddNode(graph.NodeSpec{
		Position:   center,
		Label:      label,
		Icon:       icon,
		Background: background,
		Inputs:     inputs,
		Outputs:    outputs,
	})
}

// RemoveNode removes a node with its handles and incident edges. A drag of
// the node is dropped; a connection started from it ends as an attempt
// without a target.
func (e *Editor) RemoveNode(id string) bool {
	if !e.model.RemoveNode(id) {
		return false
	}
	st := e.machine.State()
	if st.NodeID == id {
		e.machine.Reset()
	} else if st.Mode == interaction.Connecting {
		if _, ok := e.model.Handle(st.StartHandleID); !ok {
			e.machine.Abort()
		}
	}
	e.updateGauges()
	e.invalidate()
	return true
}

// Connect adds an edge between two handles without a gesture. No
// notifications are sent.
func (e *Editor) Connect(sourceHandleID, targetHandleID string) (*graph.Edge, error) {
	edge, err := e.model.AddEdge(sourceHandleID, targetHandleID, e.cfg.Edges.Animated)
	if err != nil {
		return nil, err
	}
	e.updateGauges()
	e.invalidate()
	return edge, nil
}

// RemoveEdge removes an edge.
func (e *Editor) RemoveEdge(id string) bool {
	if !e.model.RemoveEdge(id) {
		return false
	}
	e.updateGauges()
	e.invalidate()
	return true
}

// Node looks up a live node.
func (e *Editor) Node(id string) (*graph.Node, bool) {
	return e.model.Node(id)
}

// Nodes returns the live nodes in draw order.
func (e *Editor) Nodes() []*graph.Node {
	return e.model.Nodes()
}

// Edges returns the live edges.
func (e *Editor) Edges() []*graph.Edge {
	return e.model.Edges()
}

func (e *Editor) center() geometry.Point2D {
	return geometry.Point2D{X: e.width / 2, Y: e.height / 2}
}

// ZoomIn zooms one step around the viewport center.
func (e *Editor) ZoomIn() bool {
	return e.zoomed(e.view.ZoomIn(e.center()))
}

// ZoomOut zooms out one step around the viewport center.
func (e *Editor) ZoomOut() bool {
	return e.zoomed(e.view.ZoomOut(e.center()))
}

// ZoomAt multiplies the scale around a screen anchor.
func (e *Editor) ZoomAt(multiplier float64, anchor geometry.Point2D) bool {
	return e.zoomed(e.view.ApplyZoom(multiplier, anchor))
}

func (e *Editor) zoomed(changed bool) bool {
	if changed {
		e.metrics.ZoomScale.Set(e.view.Scale())
		e.invalidate()
	}
	return changed
}

// Pan shifts the view by a screen-space delta.
func (e *Editor) Pan(delta geometry.Point2D) {
	e.view.Pan(delta)
	e.invalidate()
}

// ViewState returns the pan/zoom state.
func (e *Editor) ViewState() viewport.State {
	return e.view.State()
}

// SetViewState restores a pan/zoom state.
func (e *Editor) SetViewState(s viewport.State) {
	e.view.SetState(s)
	e.metrics.ZoomScale.Set(e.view.Scale())
	e.invalidate()
}

// ResetView returns to the identity transform.
func (e *Editor) ResetView() {
	e.view.Reset()
	e.metrics.ZoomScale.Set(e.view.Scale())
	e.invalidate()
}

// ToWorld maps a screen point to world space.
func (e *Editor) ToWorld(p geometry.Point2D) geometry.Point2D {
	return e.view.ToWorld(p)
}

// Resize records the viewport size in screen units.
func (e *Editor) Resize(width, height float64) {
	if width == e.width && height == e.height {
		return
	}
	e.width, e.height = width, height
	e.invalidate()
}

// Size returns the viewport size.
func (e *Editor) Size() (width, height float64) {
	return e.width, e.height
}

// Snapshot copies the state needed to draw one frame.
func (e *Editor) Snapshot() Snapshot {
	return e.snapshot()
}

func (e *Editor) updateGauges() {
	e.metrics.SetGraphSize(e.model.NodeCount(), e.model.EdgeCount())
}

// EdgeConnected implements interaction.Listener.
func (e *Editor) EdgeConnected(edge *graph.Edge) {
	e.outcome = metrics.OutcomeConnected
	e.metrics.RecordConnected()
	e.updateGauges()
	if e.notifier != nil {
		e.notifier.OnEdgeConnected(edge)
	}
}

// ConnectionRejected implements interaction.Listener.
func (e *Editor) ConnectionRejected(start, target *graph.Handle, err error) {
	e.outcome = metrics.OutcomeRejected
	reason := "unknown"
	var rej *graph.ConnectionRejectedError
	if errors.As(err, &rej) {
		reason = rej.Reason.String()
	}
	e.metrics.RecordRejected(reason)
}

// ConnectionAttempted implements interaction.Listener.
func (e *Editor) ConnectionAttempted(start, target *graph.Handle) {
	outcome := e.outcome
	if outcome == "" {
		outcome = metrics.OutcomeNoTarget
	}
	e.outcome = ""
	e.metrics.RecordAttempt(outcome)
	if e.notifier != nil {
		e.notifier.OnConnectionAttempted(start, target)
	}
}
