package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"icednano/internal/buildinfo"
	"icednano/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// options are the flags of the root command. Flags the user sets override
// the config file.
type options struct {
	configPath string
	headless   bool
	hz         int
	ticks      uint64
	width      int
	height     int
	scale      int
	saveDir    string
	logLevel   string
	logDir     string
	metrics    string
	watch      bool
	recover    bool
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "icednano.yaml"
	}
	return filepath.Join(dir, "icednano", "config.yaml")
}

func newRootCmd() *cobra.Command {
	var opts options
	root := &cobra.Command{
		Use:           "icednano [design.json]",
		Short:         "Edit DNA nanostructure designs",
		Long:          "icednano opens a design in a window with a 2D schematic and a 3D view side by side.",
		Version:       buildinfo.String(),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			err = runEditor(ctx, cfg, opts, path)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	f := root.Flags()
	root.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath(), "Config file (YAML).")
	f.BoolVar(&opts.headless, "headless", false, "Run without a window.")
	f.IntVar(&opts.hz, "hz", 60, "Tick rate in headless mode.")
	f.Uint64Var(&opts.ticks, "ticks", 0, "Stop after N ticks in headless mode (0 = run forever).")
	f.IntVar(&opts.width, "width", 0, "Framebuffer width in pixels.")
	f.IntVar(&opts.height, "height", 0, "Framebuffer height in pixels.")
	f.IntVar(&opts.scale, "scale", 0, "Window pixels per framebuffer pixel.")
	f.StringVar(&opts.saveDir, "save-dir", "", "Directory for new designs.")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error.")
	f.StringVar(&opts.logDir, "log-dir", "", "Directory for JSON log files.")
	f.StringVar(&opts.metrics, "metrics-addr", "", "Serve Prometheus metrics on this address.")
	f.BoolVar(&opts.watch, "watch", false, "Reload the design when its file changes on disk.")
	f.BoolVar(&opts.recover, "recover", false, "Start from the newest autosave of the design instead of the file.")

	root.AddCommand(newNewCmd(), newStatsCmd(), newRenderCmd())
	return root
}

func loadConfig(cmd *cobra.Command, opts options) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, err
	}
	f := cmd.Flags()
	if f.Changed("hz") {
		cfg.Headless.Hz = opts.hz
	}
	if f.Changed("ticks") {
		cfg.Headless.Ticks = opts.ticks
	}
	if f.Changed("width") {
		cfg.Window.Width = opts.width
	}
	if f.Changed("height") {
		cfg.Window.Height = opts.height
	}
	if f.Changed("scale") {
		cfg.Window.Scale = opts.scale
	}
	if f.Changed("save-dir") {
		cfg.Storage.SaveDir = opts.saveDir
	}
	if f.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if f.Changed("log-dir") {
		cfg.Log.Dir = opts.logDir
	}
	if f.Changed("metrics-addr") {
		cfg.Metrics.Addr = opts.metrics
	}
	if f.Changed("watch") {
		cfg.Storage.Watch = opts.watch
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
