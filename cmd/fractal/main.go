// Command fractal renders an animated fractal to a window, the terminal or
// a sequence of PNG files.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/gogpu/fractal"
	"github.com/gogpu/fractal/config"
	"github.com/gogpu/fractal/display"
	_ "github.com/gogpu/fractal/display/pngseq"
	_ "github.com/gogpu/fractal/display/term"
	_ "github.com/gogpu/fractal/display/window"
)

func main() {
	var (
		configPath = flag.String("config", "", "TOML configuration file")
		preset     = flag.String("preset", "", "preset name or index")
		backend    = flag.String("backend", "", "display backend: window, term or png (default: first available)")
		width      = flag.Int("width", 0, "frame width")
		height     = flag.Int("height", 0, "frame height")
		workers    = flag.Int("workers", 0, "render workers (default: GOMAXPROCS)")
		strategy   = flag.String("strategy", "", "work partition: rows or tiles")
		maxIter    = flag.Int("max-iter", 0, "iteration cap for every preset")
		frames     = flag.Int("frames", 0, "stop after this many frames (0: run until closed)")
		out        = flag.String("out", "frames", "output directory of the png backend")
		fps        = flag.Int("fps", display.DefaultFPS, "target frame rate")
		hud        = flag.Bool("hud", false, "draw the status overlay")
		verbose    = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	fractal.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := &config.Config{}
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	cfg.Fallback(config.Default())
	cfg.Override(&config.Config{
		Width:    *width,
		Height:   *height,
		Workers:  *workers,
		Strategy: *strategy,
		MaxIter:  *maxIter,
	})
	if *preset != "" {
		if err := selectPreset(cfg, *preset); err != nil {
			log.Fatalf("Invalid preset: %v", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	opts := display.Options{
		Width:  cfg.Width,
		Height: cfg.Height,
		Title:  "fractal",
		FPS:    *fps,
		Dir:    *out,
	}
	var (
		d   fractal.Display
		err error
	)
	if *backend == "" {
		var name string
		d, name, err = display.OpenDefault(opts)
		if err == nil {
			log.Printf("Using %s display", name)
		}
	} else {
		d, err = display.Open(*backend, opts)
	}
	if err != nil {
		log.Fatalf("Failed to open display: %v", err)
	}

	engineOpts, err := cfg.EngineOptions()
	if err != nil {
		_ = d.Close()
		log.Fatalf("Invalid config: %v", err)
	}
	engineOpts = append(engineOpts, fractal.WithDisplay(d), fractal.WithHUD(*hud))

	e, err := fractal.New(cfg.Width, cfg.Height, engineOpts...)
	if err != nil {
		_ = d.Close()
		log.Fatalf("Failed to create engine: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = run(ctx, e, d, opts, *frames)
	stop()

	// The display is closed before logging so a terminal is restored first.
	e.Close()
	_ = d.Close()
	if err != nil {
		log.Fatalf("Render failed: %v", err)
	}

	stats := e.Stats()
	log.Printf("Rendered %d frames, %v per frame", stats.Frames, stats.AverageRender())
}

// selectPreset picks a preset by name or by index.
func selectPreset(cfg *config.Config, preset string) error {
	if i, ok := cfg.Find(preset); ok {
		cfg.Preset = i
		return nil
	}
	i, err := strconv.Atoi(preset)
	if err != nil || i < 0 || i >= len(cfg.Presets) {
		return errors.New("no preset " + strconv.Quote(preset))
	}
	cfg.Preset = i
	return nil
}

// run drives the engine until ctx is done, the display stops, or the
// frame limit is reached.
func run(ctx context.Context, e *fractal.Engine, d fractal.Display, opts display.Options, limit int) error {
	start := time.Now()
	prev := start
	n := 0

	return display.Loop(d, opts, func() error {
		if ctx.Err() != nil || (limit > 0 && n >= limit) {
			return display.ErrStop
		}

		now := time.Now()
		if _, err := e.RenderFrame(now.Sub(start).Seconds(), now.Sub(prev).Seconds()); err != nil {
			return err
		}
		prev = now
		n++
		return nil
	})
}
