// Package canvas provides the flow editor widget.
//
// Fyne v2.5 reports touches through the same mouse callbacks with no
// per-finger id, so every event this widget emits carries pointer id 0.
// Multi-pointer handoff in the interaction machine is only reachable from
// its own tests and from flowrender scripts, which set ids explicitly.
package canvas

import (
	"image"
	"log/slog"
	"math"
	"sync"
	"time"

	"flow-canvas/internal/assets"
	"flow-canvas/internal/config"
	"flow-canvas/internal/editor"
	"flow-canvas/internal/interaction"
	"flow-canvas/internal/metrics"
	"flow-canvas/internal/render"
	"flow-canvas/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

const (
	// Dash travel of animated edges, in world units per second.
	animationSpeed = 30.0
	animationFPS   = 30
)

// FlowCanvas hosts an editor: it turns mouse and touch input into pointer
// events and paints the editor's snapshots.
//
// Editor calls are serialized by edMu, so input events and config reloads
// from a watcher goroutine never interleave. The raster callback only sees
// the last snapshot taken, guarded by mu.
type FlowCanvas struct {
	widget.BaseWidget

	edMu   sync.Mutex
	editor *editor.Editor
	res    assets.Resolver
	raster *fynecanvas.Raster
	logger *slog.Logger

	mu         sync.Mutex
	style      render.Style
	snap       editor.Snapshot
	animated   bool
	phase      float64
	metrics    *metrics.Registry
	lastOutput *image.RGBA

	// Primary pointer state
	down    bool
	lastPos fyne.Position

	stopAnim chan struct{}
}

var (
	_ fyne.Widget       = (*FlowCanvas)(nil)
	_ fyne.Draggable    = (*FlowCanvas)(nil)
	_ fyne.Scrollable   = (*FlowCanvas)(nil)
	_ desktop.Mouseable = (*FlowCanvas)(nil)
	_ desktop.Hoverable = (*FlowCanvas)(nil)
)

// NewFlowCanvas creates a widget for e. res may be nil.
func NewFlowCanvas(e *editor.Editor, style render.Style, res assets.Resolver) *FlowCanvas {
	fc := &FlowCanvas{
		editor: e,
		res:    res,
		style:  style,
		logger: slog.Default(),
	}

	fc.raster = fynecanvas.NewRaster(fc.draw)
	fc.raster.ScaleMode = fynecanvas.ImageScaleSmooth
	fc.raster.SetMinSize(fyne.NewSize(100, 100))

	e.OnInvalidate(fc.invalidate)
	fc.invalidate()

	fc.ExtendBaseWidget(fc)
	return fc
}

// SetLogger sets the logger for the widget.
func (fc *FlowCanvas) SetLogger(logger *slog.Logger) {
	fc.logger = logger
}

// Editor returns the hosted editor. Calls from outside the widget's own
// event handlers should go through Do.
func (fc *FlowCanvas) Editor() *editor.Editor {
	return fc.editor
}

// Do runs fn with exclusive access to the editor.
func (fc *FlowCanvas) Do(fn func(e *editor.Editor)) {
	fc.edMu.Lock()
	defer fc.edMu.Unlock()
	fn(fc.editor)
}

// ApplyConfig resolves the style of cfg and hands cfg to the editor. A
// config whose colors do not parse is rejected as a whole.
func (fc *FlowCanvas) ApplyConfig(cfg *config.Config) error {
	style, err := render.StyleFrom(cfg)
	if err != nil {
		fc.logger.Warn("config rejected", "err", err)
		return err
	}
	fc.mu.Lock()
	fc.style = style
	fc.mu.Unlock()
	fc.Do(func(e *editor.Editor) { e.ApplyConfig(cfg) })
	return nil
}

// invalidate takes a fresh snapshot and schedules a redraw.
func (fc *FlowCanvas) invalidate() {
	snap := fc.editor.Snapshot()
	animated := false
	for _, e := range snap.Edges {
		if e.Animated {
			animated = true
			break
		}
	}

	fc.mu.Lock()
	fc.snap = snap
	fc.animated = animated
	fc.metrics = fc.editor.Metrics()
	fc.mu.Unlock()

	if fc.raster != nil {
		fc.raster.Refresh()
	}
}

// draw is the raster drawing function. The frame is rendered at the widget's
// logical size and scaled to w x h by the raster.
func (fc *FlowCanvas) draw(w, h int) image.Image {
	fc.mu.Lock()
	snap := fc.snap
	style := fc.style
	phase := fc.phase
	m := fc.metrics
	fc.mu.Unlock()

	start := time.Now()
	output := render.Render(&snap, style, fc.res, phase)
	if m != nil {
		m.ObserveRender(time.Since(start))
	}
	if output.Bounds().Empty() {
		output = image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	}

	fc.mu.Lock()
	fc.lastOutput = output
	fc.mu.Unlock()
	return output
}

// RenderedOutput returns the last frame drawn.
func (fc *FlowCanvas) RenderedOutput() *image.RGBA {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.lastOutput
}

// Resize sets the widget size and the editor's viewport with it.
func (fc *FlowCanvas) Resize(size fyne.Size) {
	fc.BaseWidget.Resize(size)
	fc.Do(func(e *editor.Editor) { e.Resize(float64(size.Width), float64(size.Height)) })
}

// StartAnimation advances the dash phase of animated edges until
// StopAnimation is called.
func (fc *FlowCanvas) StartAnimation() {
	if fc.stopAnim != nil {
		return
	}
	stop := make(chan struct{})
	fc.stopAnim = stop
	go func() {
		ticker := time.NewTicker(time.Second / animationFPS)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if fc.advance(1.0 / animationFPS) {
					fc.raster.Refresh()
				}
			}
		}
	}()
}

// StopAnimation stops the animation goroutine.
func (fc *FlowCanvas) StopAnimation() {
	if fc.stopAnim == nil {
		return
	}
	close(fc.stopAnim)
	fc.stopAnim = nil
}

// Animating reports whether the animation goroutine is running.
func (fc *FlowCanvas) Animating() bool {
	return fc.stopAnim != nil
}

// advance moves the dash phase by dt seconds and reports whether any edge
// shows it.
func (fc *FlowCanvas) advance(dt float64) bool {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if !fc.animated {
		return false
	}
	fc.phase = math.Mod(fc.phase+animationSpeed*dt, render.EdgeDashOn+render.EdgeDashOff)
	return true
}

func (fc *FlowCanvas) pointer(phase interaction.Phase, pos fyne.Position) {
	ev := interaction.PointerEvent{Phase: phase, X: float64(pos.X), Y: float64(pos.Y)}
	fc.Do(func(e *editor.Editor) { e.HandlePointer(ev) })
}

// MouseDown implements desktop.Mouseable.
func (fc *FlowCanvas) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	fc.down = true
	fc.lastPos = ev.Position
	fc.pointer(interaction.PhaseDown, ev.Position)
}

// MouseUp implements desktop.Mouseable.
func (fc *FlowCanvas) MouseUp(ev *desktop.MouseEvent) {
	if !fc.down || ev.Button != desktop.MouseButtonPrimary {
		return
	}
	fc.down = false
	fc.pointer(interaction.PhaseUp, ev.Position)
}

// MouseIn implements desktop.Hoverable.
func (fc *FlowCanvas) MouseIn(*desktop.MouseEvent) {}

// MouseMoved implements desktop.Hoverable. Moves only matter while the
// primary button is held.
func (fc *FlowCanvas) MouseMoved(ev *desktop.MouseEvent) {
	if !fc.down {
		return
	}
	fc.lastPos = ev.Position
	fc.pointer(interaction.PhaseMove, ev.Position)
}

// MouseOut implements desktop.Hoverable.
func (fc *FlowCanvas) MouseOut() {}

// Dragged implements fyne.Draggable. Touch drivers deliver drags without a
// preceding MouseDown, so the first drag event starts the gesture at the
// drag origin.
func (fc *FlowCanvas) Dragged(ev *fyne.DragEvent) {
	if !fc.down {
		fc.down = true
		fc.pointer(interaction.PhaseDown, ev.Position.Subtract(ev.Dragged))
	}
	fc.lastPos = ev.Position
	fc.pointer(interaction.PhaseMove, ev.Position)
}

// DragEnd implements fyne.Draggable.
func (fc *FlowCanvas) DragEnd() {
	if !fc.down {
		return
	}
	fc.down = false
	fc.pointer(interaction.PhaseUp, fc.lastPos)
}

// Scrolled zooms one step around the cursor.
func (fc *FlowCanvas) Scrolled(ev *fyne.ScrollEvent) {
	anchor := geometry.Point2D{X: float64(ev.Position.X), Y: float64(ev.Position.Y)}
	fc.Do(func(e *editor.Editor) {
		step := e.Config().Zoom.Step
		switch {
		case ev.Scrolled.DY > 0:
			e.ZoomAt(step, anchor)
		case ev.Scrolled.DY < 0:
			e.ZoomAt(1/step, anchor)
		}
	})
}

// Cancel abandons the gesture in progress.
func (fc *FlowCanvas) Cancel() {
	if fc.down {
		fc.down = false
		fc.pointer(interaction.PhaseCancel, fc.lastPos)
		return
	}
	fc.Do(func(e *editor.Editor) { e.CancelGesture() })
}

// CreateRenderer implements fyne.Widget.
func (fc *FlowCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(fc.raster)
}
