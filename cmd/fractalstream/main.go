// Command fractalstream serves an animated fractal to web browsers.
//
// Open http://localhost:8080/ to watch. Programs can read frames from
// /ws?encoding=zstd and decode them with the stream package.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gogpu/fractal"
	"github.com/gogpu/fractal/config"
	"github.com/gogpu/fractal/display"
	"github.com/gogpu/fractal/display/stream"
)

func main() {
	var (
		addr       = flag.String("addr", stream.DefaultAddr, "listen address")
		configPath = flag.String("config", "", "TOML configuration file")
		preset     = flag.String("preset", "julia-dynamic", "preset name")
		width      = flag.Int("width", 640, "frame width")
		height     = flag.Int("height", 480, "frame height")
		maxWidth   = flag.Int("max-width", 0, "downscale frames wider than this before sending")
		workers    = flag.Int("workers", 0, "render workers (default: GOMAXPROCS)")
		fps        = flag.Int("fps", 20, "frames per second")
		hud        = flag.Bool("hud", true, "draw the status overlay")
		origins    = flag.String("origins", "", "comma-separated extra allowed websocket origins")
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
	cfg.Override(&config.Config{Width: *width, Height: *height, Workers: *workers})
	if i, ok := cfg.Find(*preset); ok {
		cfg.Preset = i
	} else {
		log.Fatalf("No preset %q", *preset)
	}

	engineOpts, err := cfg.EngineOptions()
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	opts := display.Options{Addr: *addr, FPS: *fps, MaxWidth: *maxWidth}
	srv, err := stream.New(opts, splitList(*origins)...)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	e, err := fractal.New(cfg.Width, cfg.Height,
		append(engineOpts, fractal.WithDisplay(srv), fractal.WithHUD(*hud))...)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.ListenAndServe() }()

	start := time.Now()
	prev := start
	err = display.Loop(srv, opts, func() error {
		select {
		case <-ctx.Done():
			return display.ErrStop
		case err := <-serveErr:
			if err == nil {
				return display.ErrStop
			}
			return err
		default:
		}

		now := time.Now()
		_, err := e.RenderFrame(now.Sub(start).Seconds(), now.Sub(prev).Seconds())
		prev = now
		return err
	})

	e.Close()
	_ = srv.Close()
	if err != nil && !errors.Is(err, display.ErrClosed) {
		log.Fatalf("Stream failed: %v", err)
	}

	st := srv.Stats()
	log.Printf("Sent %d frames, dropped %d", st.Sent, st.Dropped)
}

func splitList(s string) []string {
	var out []string
	for field := range strings.SplitSeq(s, ",") {
		if field = strings.TrimSpace(field); field != "" {
			out = append(out, field)
		}
	}
	return out
}
