package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"flow-canvas/internal/editor"
	"flow-canvas/internal/interaction"
	"flow-canvas/internal/render"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const connectScript = `
width: 400
height: 300
nodes:
  - {label: A, x: 100, y: 100, width: 60, height: 40, inputs: 1, outputs: 1}
  - {label: B, x: 300, y: 100, width: 60, height: 40, inputs: 1, outputs: 1}
steps:
  - pointer: {phase: down, x: 130, y: 100}
  - pointer: {phase: move, x: 200, y: 160}
  - frame: {file: mid.png}
  - pointer: {phase: move, x: 270, y: 100}
  - pointer: {phase: up, x: 270, y: 100}
  - zoom: {factor: 2, x: 0, y: 0}
  - pan: {dx: -100, dy: 0}
  - frame: {file: done.png, phase: 5}
`

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadScript(t *testing.T) {
	s, err := LoadScript(writeScript(t, connectScript))
	require.NoError(t, err)
	assert.Equal(t, 400.0, s.Width)
	require.Len(t, s.Nodes, 2)
	assert.Equal(t, "B", s.Nodes[1].Label)
	require.Len(t, s.Steps, 8)
	assert.Equal(t, "down", s.Steps[0].Pointer.Phase)
	assert.Equal(t, 2.0, s.Steps[5].Zoom.Factor)
	assert.Equal(t, "done.png", s.Steps[7].Frame.File)

	s, err = LoadScript(writeScript(t, "steps: []\n"))
	require.NoError(t, err)
	assert.Equal(t, 800.0, s.Width)
	assert.Equal(t, 600.0, s.Height)

	_, err = LoadScript(writeScript(t, "width: [\n"))
	assert.Error(t, err)
}

func TestPlayerConnectsAndWritesFrames(t *testing.T) {
	s, err := LoadScript(writeScript(t, connectScript))
	require.NoError(t, err)

	ed := editor.New(nil)
	p := &Player{Editor: ed, Style: render.DefaultStyle(), OutDir: t.TempDir()}
	require.NoError(t, p.Setup(s))
	require.NoError(t, p.Play(s))

	assert.Len(t, ed.Edges(), 1)
	assert.Equal(t, interaction.Idle, ed.Mode())
	assert.InDelta(t, 2.0, ed.ViewState().Scale, 1e-9)

	require.Len(t, p.Frames, 2)
	f, err := os.Open(p.Frames[1])
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())
}

func TestSetupEdges(t *testing.T) {
	s, err := LoadScript(writeScript(t, `
nodes:
  - {label: A, x: 0, y: 0, inputs: 1, outputs: 1}
  - {label: B, x: 200, y: 0, inputs: 1, outputs: 1}
edges:
  - {from: A, to: B}
`))
	require.NoError(t, err)
	ed := editor.New(nil)
	require.NoError(t, (&Player{Editor: ed}).Setup(s))
	assert.Len(t, ed.Edges(), 1)

	for name, body := range map[string]string{
		"unknown node": "nodes: [{label: A, outputs: 1}]\nedges: [{from: A, to: Z}]\n",
		"bad index":    "nodes: [{label: A, outputs: 1}, {label: B, inputs: 1}]\nedges: [{from: A, output: 3, to: B}]\n",
		"wrong way":    "nodes: [{label: A, inputs: 1, outputs: 1}]\nedges: [{from: A, to: A}]\n",
	} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScript(writeScript(t, body))
			require.NoError(t, err)
			assert.Error(t, (&Player{Editor: editor.New(nil)}).Setup(s))
		})
	}
}

func TestPlayRejectsBadSteps(t *testing.T) {
	for name, body := range map[string]string{
		"phase": "steps: [{pointer: {phase: hover}}]\n",
		"zoom":  "steps: [{zoom: {factor: 0}}]\n",
		"empty": "steps: [{}]\n",
	} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScript(writeScript(t, body))
			require.NoError(t, err)
			assert.Error(t, (&Player{Editor: editor.New(nil)}).Play(s))
		})
	}
}

func TestRootCommand(t *testing.T) {
	color.NoColor = true
	out := t.TempDir()
	script := writeScript(t, connectScript)

	var buf bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{script, "-o", out, "--metrics"})
	require.NoError(t, cmd.Execute())

	text := buf.String()
	assert.Contains(t, text, "connected ")
	assert.Contains(t, text, "2 nodes, 1 edges")
	assert.Contains(t, text, `flowcanvas_connection_attempts_total{outcome="connected"} 1`)
	assert.FileExists(t, filepath.Join(out, "mid.png"))
	assert.FileExists(t, filepath.Join(out, "done.png"))
}

func TestRootCommandWritesFinalFrame(t *testing.T) {
	out := t.TempDir()
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{writeScript(t, "sample: true\n"), "-o", out})
	require.NoError(t, cmd.Execute())
	assert.FileExists(t, filepath.Join(out, "final.png"))
}
