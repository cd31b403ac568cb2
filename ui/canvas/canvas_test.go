package canvas

import (
	"testing"

	"flow-canvas/internal/config"
	"flow-canvas/internal/editor"
	"flow-canvas/internal/graph"
	"flow-canvas/internal/interaction"
	"flow-canvas/internal/render"
	"flow-canvas/pkg/geometry"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCanvas(t *testing.T) (*FlowCanvas, *graph.Node, *graph.Node) {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)

	e := editor.New(nil)
	n1 := e.AddNode(graph.NodeSpec{Position: geometry.NewPoint2D(100, 100), Size: geometry.NewSize(60, 40), Inputs: 1, Outputs: 1})
	n2 := e.AddNode(graph.NodeSpec{Position: geometry.NewPoint2D(300, 100), Size: geometry.NewSize(60, 40), Inputs: 1, Outputs: 1})

	fc := NewFlowCanvas(e, render.DefaultStyle(), nil)
	fc.Resize(fyne.NewSize(400, 300))
	return fc, n1, n2
}

func mouse(x, y float32, button desktop.MouseButton) *desktop.MouseEvent {
	return &desktop.MouseEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)},
		Button:     button,
	}
}

func TestResizeSetsEditorViewport(t *testing.T) {
	fc, _, _ := newTestCanvas(t)
	w, h := fc.Editor().Size()
	assert.Equal(t, 400.0, w)
	assert.Equal(t, 300.0, h)
}

func TestMouseConnectGesture(t *testing.T) {
	fc, _, _ := newTestCanvas(t)

	fc.MouseDown(mouse(130, 100, desktop.MouseButtonPrimary))
	assert.Equal(t, interaction.Connecting, fc.Editor().Mode())
	fc.MouseMoved(mouse(200, 120, desktop.MouseButtonPrimary))
	fc.MouseMoved(mouse(270, 100, desktop.MouseButtonPrimary))
	fc.MouseUp(mouse(270, 100, desktop.MouseButtonPrimary))
	fc.DragEnd() // a drag that ends with the button must not release twice

	assert.Equal(t, interaction.Idle, fc.Editor().Mode())
	assert.Len(t, fc.Editor().Edges(), 1)
}

func TestSecondaryButtonIgnored(t *testing.T) {
	fc, _, _ := newTestCanvas(t)
	fc.MouseDown(mouse(100, 100, desktop.MouseButtonSecondary))
	assert.Equal(t, interaction.Idle, fc.Editor().Mode())
}

func TestMovesWithoutButtonIgnored(t *testing.T) {
	fc, n1, _ := newTestCanvas(t)
	fc.MouseMoved(mouse(100, 100, 0))
	fc.MouseMoved(mouse(150, 150, 0))
	assert.Equal(t, geometry.NewPoint2D(100, 100), n1.Position)
}

func TestTouchDragMovesNode(t *testing.T) {
	fc, n1, _ := newTestCanvas(t)

	fc.Dragged(&fyne.DragEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(110, 110)},
		Dragged:    fyne.NewDelta(10, 5),
	})
	assert.Equal(t, interaction.DraggingNode, fc.Editor().Mode())
	fc.Dragged(&fyne.DragEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(130, 125)},
		Dragged:    fyne.NewDelta(20, 15),
	})
	fc.DragEnd()

	assert.Equal(t, interaction.Idle, fc.Editor().Mode())
	// Pressed at (100,105), released at (130,125).
	assert.InDelta(t, 130, n1.Position.X, 1e-9)
	assert.InDelta(t, 120, n1.Position.Y, 1e-9)
}

func TestScrollZoomsAtCursor(t *testing.T) {
	fc, _, _ := newTestCanvas(t)
	cursor := geometry.NewPoint2D(80, 60)
	before := fc.Editor().ToWorld(cursor)

	fc.Scrolled(&fyne.ScrollEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(80, 60)},
		Scrolled:   fyne.NewDelta(0, 1),
	})
	assert.InDelta(t, 1.2, fc.Editor().ViewState().Scale, 1e-9)
	after := fc.Editor().ToWorld(cursor)
	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)

	fc.Scrolled(&fyne.ScrollEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(80, 60)},
		Scrolled:   fyne.NewDelta(0, -1),
	})
	assert.InDelta(t, 1.0, fc.Editor().ViewState().Scale, 1e-9)
}

func TestCancelAbandonsConnection(t *testing.T) {
	fc, _, _ := newTestCanvas(t)
	fc.MouseDown(mouse(130, 100, desktop.MouseButtonPrimary))
	fc.MouseMoved(mouse(270, 100, desktop.MouseButtonPrimary))
	fc.Cancel()
	fc.MouseUp(mouse(270, 100, desktop.MouseButtonPrimary))

	assert.Equal(t, interaction.Idle, fc.Editor().Mode())
	assert.Empty(t, fc.Editor().Edges())
}

func TestDrawUsesLatestSnapshot(t *testing.T) {
	fc, _, _ := newTestCanvas(t)

	img := fc.draw(400, 300)
	require.Equal(t, 400, img.Bounds().Dx())
	assert.Same(t, fc.RenderedOutput(), img)

	bg := render.DefaultStyle().NodeBackground
	assert.Equal(t, bg, fc.RenderedOutput().RGBAAt(100, 100))

	// Dragging the node away updates the snapshot the raster sees.
	fc.MouseDown(mouse(100, 105, desktop.MouseButtonPrimary))
	fc.MouseMoved(mouse(100, 255, desktop.MouseButtonPrimary))
	fc.MouseUp(mouse(100, 255, desktop.MouseButtonPrimary))
	fc.draw(400, 300)
	assert.NotEqual(t, bg, fc.RenderedOutput().RGBAAt(100, 100))
	assert.Equal(t, bg, fc.RenderedOutput().RGBAAt(100, 250))
}

func TestDrawBeforeResize(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()
	fc := NewFlowCanvas(editor.New(nil), render.DefaultStyle(), nil)
	img := fc.draw(10, 10)
	assert.Equal(t, 10, img.Bounds().Dx())
}

func TestAdvanceOnlyWithAnimatedEdges(t *testing.T) {
	fc, n1, n2 := newTestCanvas(t)
	assert.False(t, fc.advance(0.1))

	_, err := fc.Editor().Connect(n1.Outputs[0].ID, n2.Inputs[0].ID)
	require.NoError(t, err)
	require.True(t, fc.advance(0.1))
	assert.InDelta(t, 3, fc.phase, 1e-9)

	for i := 0; i < 10; i++ {
		fc.advance(0.1)
	}
	assert.InDelta(t, 3, fc.phase, 1e-9, "phase wraps with the dash period")
}

func TestApplyConfig(t *testing.T) {
	fc, _, _ := newTestCanvas(t)

	cfg := config.Default()
	cfg.Colors.NodeBackground = "nope"
	assert.Error(t, fc.ApplyConfig(cfg))
	assert.Equal(t, 3.0, fc.Editor().Config().Zoom.Max, "rejected config not applied")

	cfg = config.Default()
	cfg.Zoom.Max = 2
	cfg.Colors.Background = "#000000"
	require.NoError(t, fc.ApplyConfig(cfg))
	assert.Equal(t, 2.0, fc.Editor().Config().Zoom.Max)
	fc.draw(400, 300)
	assert.Equal(t, uint8(0), fc.RenderedOutput().RGBAAt(5, 5).R)
}

func TestStartStopAnimation(t *testing.T) {
	fc, _, _ := newTestCanvas(t)
	require.False(t, fc.Animating())

	fc.StartAnimation()
	fc.StartAnimation()
	assert.True(t, fc.Animating())

	fc.StopAnimation()
	assert.False(t, fc.Animating())
	fc.StopAnimation()
}
