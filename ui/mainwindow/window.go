// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"log/slog"
	"strings"

	"flow-canvas/internal/app"
	"flow-canvas/internal/assets"
	"flow-canvas/internal/config"
	"flow-canvas/internal/editor"
	"flow-canvas/internal/graph"
	"flow-canvas/internal/render"
	"flow-canvas/ui/canvas"
	"flow-canvas/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

const (
	defaultWidth  = 1024
	defaultHeight = 720
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	state     *app.State
	prefs     *prefs.Prefs
	canvas    *canvas.FlowCanvas
	statusBar *widget.Label
	logger    *slog.Logger

	nodeCount   int
	animateItem *fyne.MenuItem
}

// New creates a new main window hosting e. The editor's notifier is set to
// the application state.
func New(fyneApp fyne.App, state *app.State, e *editor.Editor, res assets.Resolver, p *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow("Flow Canvas")

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		prefs:  p,
		logger: slog.Default().With("component", "mainwindow"),
	}

	style, err := render.StyleFrom(state.CurrentConfig())
	if err != nil {
		mw.logger.Warn("invalid colors, using defaults", "err", err)
		style = render.DefaultStyle()
	}
	e.SetNotifier(state)
	mw.canvas = canvas.NewFlowCanvas(e, style, res)

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.restorePrefs()

	win.SetCloseIntercept(func() {
		mw.savePrefs()
		mw.canvas.StopAnimation()
		win.Close()
	})

	return mw
}

// FlowCanvas returns the flow canvas widget.
func (mw *MainWindow) FlowCanvas() *canvas.FlowCanvas {
	return mw.canvas
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.statusBar = widget.NewLabel("Ready")

	content := container.NewBorder(
		mw.createToolbar(),                // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		mw.canvas,                         // center
	)
	mw.SetContent(content)

	mw.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyEscape {
			mw.canvas.Cancel()
		}
	})
	mw.Canvas().SetOnTypedRune(func(r rune) {
		switch r {
		case '+', '=':
			mw.onZoomIn()
		case '-':
			mw.onZoomOut()
		case '0':
			mw.onResetView()
		}
	})
}

// createToolbar creates the toolbar with zoom and node controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	return container.NewHBox(
		widget.NewLabel("Zoom:"),
		widget.NewButton("-", mw.onZoomOut),
		widget.NewButton("+", mw.onZoomIn),
		widget.NewButton("Reset", mw.onResetView),
		widget.NewSeparator(),
		widget.NewButton("Add Node", mw.onAddNode),
	)
}

func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Reload Config", func() { _ = mw.state.LoadConfig() }),
		fyne.NewMenuItem("Save Config", mw.onSaveConfig),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.Window.Close() }),
	)

	mw.animateItem = fyne.NewMenuItem("Animate Edges", mw.onToggleAnimation)
	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.onZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.onZoomOut),
		fyne.NewMenuItem("Reset View", mw.onResetView),
		fyne.NewMenuItemSeparator(),
		mw.animateItem,
	)

	graphMenu := fyne.NewMenu("Graph",
		fyne.NewMenuItem("Add Node", mw.onAddNode),
		fyne.NewMenuItem("Load Sample", mw.onLoadSample),
		fyne.NewMenuItem("Clear", mw.onClear),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("Metrics", mw.onShowMetrics),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, viewMenu, graphMenu, helpMenu))
}

// setupEventHandlers wires application events to the canvas and status bar.
// Config events arrive on the watcher goroutine; the canvas serializes the
// editor update.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventConfigLoaded, func(data interface{}) {
		cfg, ok := data.(*config.Config)
		if !ok {
			return
		}
		if err := mw.canvas.ApplyConfig(cfg); err != nil {
			mw.updateStatus("Config rejected: " + err.Error())
			return
		}
		mw.updateStatus("Config loaded")
	})

	mw.state.On(app.EventConfigError, func(data interface{}) {
		if err, ok := data.(error); ok {
			mw.updateStatus("Config error: " + err.Error())
		}
	})

	mw.state.On(app.EventEdgeConnected, func(data interface{}) {
		if e, ok := data.(*graph.Edge); ok {
			mw.updateStatus(fmt.Sprintf("Connected %s → %s", e.SourceNodeID, e.TargetNodeID))
		}
	})

	mw.state.On(app.EventConnectionAttempted, func(data interface{}) {
		if a, ok := data.(app.Attempt); ok && a.Target == nil {
			mw.updateStatus("No target under pointer")
		}
	})
}

func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

func (mw *MainWindow) restorePrefs() {
	w := mw.prefs.FloatWithFallback(prefs.KeyWindowWidth, defaultWidth)
	h := mw.prefs.FloatWithFallback(prefs.KeyWindowHeight, defaultHeight)
	mw.Resize(fyne.NewSize(float32(w), float32(h)))

	if vs, ok := mw.prefs.Viewport(); ok {
		mw.canvas.Do(func(e *editor.Editor) { e.SetViewState(vs) })
	}
	mw.setAnimation(mw.prefs.Bool(prefs.KeyAnimateEdges, true))
}

func (mw *MainWindow) savePrefs() {
	size := mw.Canvas().Size()
	mw.prefs.SetFloat(prefs.KeyWindowWidth, float64(size.Width))
	mw.prefs.SetFloat(prefs.KeyWindowHeight, float64(size.Height))
	mw.canvas.Do(func(e *editor.Editor) { mw.prefs.SetViewport(e.ViewState()) })
	mw.prefs.SetBool(prefs.KeyAnimateEdges, mw.canvas.Animating())
	if err := mw.prefs.Save(); err != nil {
		mw.logger.Warn("failed to save preferences", "path", mw.prefs.Path(), "err", err)
	}
}

func (mw *MainWindow) onZoomIn() {
	mw.canvas.Do(func(e *editor.Editor) { e.ZoomIn() })
	mw.showScale()
}

func (mw *MainWindow) onZoomOut() {
	mw.canvas.Do(func(e *editor.Editor) { e.ZoomOut() })
	mw.showScale()
}

func (mw *MainWindow) onResetView() {
	mw.canvas.Do(func(e *editor.Editor) { e.ResetView() })
	mw.showScale()
}

func (mw *MainWindow) showScale() {
	var scale float64
	mw.canvas.Do(func(e *editor.Editor) { scale = e.ViewState().Scale })
	mw.updateStatus(fmt.Sprintf("Zoom: %.0f%%", scale*100))
}

func (mw *MainWindow) onToggleAnimation() {
	mw.setAnimation(!mw.canvas.Animating())
	if mw.canvas.Animating() {
		mw.updateStatus("Edge animation on")
	} else {
		mw.updateStatus("Edge animation paused")
	}
}

// setAnimation starts or pauses the dash animation and syncs the menu check.
func (mw *MainWindow) setAnimation(on bool) {
	if on {
		mw.canvas.StartAnimation()
	} else {
		mw.canvas.StopAnimation()
	}
	mw.animateItem.Checked = on
	if menu := mw.MainMenu(); menu != nil {
		menu.Refresh()
	}
}

func (mw *MainWindow) onAddNode() {
	mw.nodeCount++
	label := fmt.Sprintf("Node %d", mw.nodeCount)
	mw.canvas.Do(func(e *editor.Editor) {
		e.AddNodeAtCenter(label, editor.SampleIcon, editor.SampleBackground, 1, 1)
	})
	mw.updateStatus("Added " + label)
}

func (mw *MainWindow) onLoadSample() {
	var err error
	mw.canvas.Do(func(e *editor.Editor) { _, err = editor.LoadSample(e) })
	if err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onClear() {
	mw.canvas.Do(func(e *editor.Editor) {
		for _, n := range e.Nodes() {
			e.RemoveNode(n.ID)
		}
	})
	mw.nodeCount = 0
	mw.updateStatus("Cleared")
}

func (mw *MainWindow) onSaveConfig() {
	if err := config.Save(mw.state.ConfigPath, mw.state.CurrentConfig()); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.updateStatus("Config saved to " + mw.state.ConfigPath)
}

func (mw *MainWindow) onShowMetrics() {
	var samples []string
	mw.canvas.Do(func(e *editor.Editor) {
		snap, err := e.Metrics().Snapshot()
		if err != nil {
			samples = append(samples, err.Error())
			return
		}
		for _, s := range snap {
			samples = append(samples, s.String())
		}
	})
	text := widget.NewLabel(strings.Join(samples, "\n"))
	dialog.ShowCustom("Metrics", "Close", container.NewVScroll(text), mw.Window)
}
