// Command flowrender replays a gesture script against a headless canvas and
// writes the rendered frames as PNG files.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"flow-canvas/internal/assets"
	"flow-canvas/internal/config"
	"flow-canvas/internal/editor"
	"flow-canvas/internal/graph"
	"flow-canvas/internal/render"
	"flow-canvas/internal/version"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	good   = color.New(color.FgGreen)
	warn   = color.New(color.FgYellow)
	bad    = color.New(color.FgRed)
	subtle = color.New(color.FgHiBlack)
)

type options struct {
	configPath  string
	assetDir    string
	outDir      string
	showMetrics bool
	verbose     bool
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:     "flowrender <script.yaml>",
		Short:   "Replay a gesture script and write PNG frames",
		Version: version.String(),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], opts)
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&opts.configPath, "config", "", "config.toml (defaults if empty)")
	cmd.Flags().StringVar(&opts.assetDir, "assets", ".", "directory node images are resolved against")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", "frames", "output directory")
	cmd.Flags().BoolVar(&opts.showMetrics, "metrics", false, "print metrics after the replay")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	return cmd
}

func run(cmd *cobra.Command, scriptPath string, opts options) error {
	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return err
		}
	}
	style, err := render.StyleFrom(cfg)
	if err != nil {
		return err
	}

	script, err := LoadScript(scriptPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	ed := editor.New(cfg)
	ed.SetLogger(logger)
	ed.SetNotifier(editor.NotifierFuncs{
		EdgeConnected: func(e *graph.Edge) {
			good.Fprintf(out, "connected %s -> %s\n", e.SourceHandleID, e.TargetHandleID)
		},
		ConnectionAttempted: func(start, target *graph.Handle) {
			if target == nil {
				warn.Fprintf(out, "connection from %s ended without a target\n", start.ID)
			}
		},
	})

	res := assets.NewFileResolver(opts.assetDir)
	res.SetLogger(logger)

	player := &Player{Editor: ed, Style: style, Resolver: res, OutDir: opts.outDir}
	if err := player.Setup(script); err != nil {
		return err
	}
	if err := player.Play(script); err != nil {
		return err
	}
	if len(player.Frames) == 0 {
		if err := player.WriteFrame("final.png", 0); err != nil {
			return err
		}
	}

	for _, f := range player.Frames {
		subtle.Fprintf(out, "wrote %s\n", f)
	}
	fmt.Fprintf(out, "%d nodes, %d edges\n", len(ed.Nodes()), len(ed.Edges()))

	if opts.showMetrics {
		samples, err := ed.Metrics().Snapshot()
		if err != nil {
			return err
		}
		for _, s := range samples {
			fmt.Fprintln(out, s.String())
		}
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		bad.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
