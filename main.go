// Package main provides the entry point for the Flow Canvas application.
package main

import (
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"flow-canvas/internal/app"
	"flow-canvas/internal/assets"
	"flow-canvas/internal/config"
	"flow-canvas/internal/editor"
	"flow-canvas/internal/version"
	"flow-canvas/ui/mainwindow"
	"flow-canvas/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"
)

const (
	appTitle = "Flow Canvas"
	appID    = "io.flowcanvas.editor"
)

func main() {
	var (
		configPath string
		assetDir   string
		sample     bool
	)
	root := &cobra.Command{
		Use:     "flow-canvas",
		Short:   "Node and edge editor on a pannable, zoomable canvas",
		Version: version.String(),
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			run(configPath, assetDir, sample)
		},
	}
	root.Flags().StringVar(&configPath, "config", config.DefaultPath(), "path to config.toml")
	root.Flags().StringVar(&assetDir, "assets", filepath.Join(config.ConfigDir(), "assets"), "directory of node images")
	root.Flags().BoolVar(&sample, "sample", true, "start with the sample graph")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(configPath, assetDir string, sample bool) {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s", version.Banner(appTitle))

	appState := app.NewState(configPath)
	if err := appState.LoadConfig(); err != nil {
		log.Printf("Using default config: %v", err)
	}
	cfg := appState.CurrentConfig()
	setupLogging(cfg.Log.Level)
	appState.SetLogger(slog.Default().With("component", "app"))

	resolver := assets.NewFileResolver(assetDir)
	resolver.SetLogger(slog.Default().With("component", "assets"))

	ed := editor.New(cfg)
	ed.SetLogger(slog.Default())
	if sample {
		if _, err := editor.LoadSample(ed); err != nil {
			log.Printf("Failed to load sample graph: %v", err)
		}
	}

	a := fyneapp.NewWithID(appID)
	a.Settings().SetTheme(&app.FlowCanvasTheme{})

	win := mainwindow.New(a, appState, ed, resolver, prefs.Load())
	win.SetTitle(appTitle)

	watcher := setupConfigWatch(appState)
	defer watcher.Stop()

	win.ShowAndRun()
}

// setupLogging installs the default slog handler at the configured level.
func setupLogging(level string) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}

// setupConfigWatch reloads the config whenever the file changes on disk.
func setupConfigWatch(state *app.State) *app.ConfigWatcher {
	watcher := app.NewConfigWatcher(state, 2*time.Second)
	log.Printf("Config: watching %s", watcher.Path())
	watcher.Start()
	return watcher
}
