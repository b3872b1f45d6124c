// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package fractal

// Option configures an Engine during creation.
//
// Example:
//
//	// GOMAXPROCS workers, row bands, default Mandelbrot view
//	e, err := fractal.New(800, 600)
//
//	// Four workers, interleaved tiles, frames sent to a window
//	e, err := fractal.New(800, 600,
//		fractal.WithWorkers(4),
//		fractal.WithStrategy(fractal.InterleavedTiles),
//		fractal.WithDisplay(win))
type Option func(*engineOptions)

// engineOptions holds optional configuration for Engine creation.
type engineOptions struct {
	workers      int
	strategy     Strategy
	display      Display
	params       Params
	hud          bool
	paletteCache int
}

// defaultOptions returns the default engine options.
func defaultOptions() engineOptions {
	return engineOptions{
		workers:      0, // GOMAXPROCS
		strategy:     RowBands,
		params:       DefaultParams(),
		paletteCache: 8,
	}
}

// WithWorkers sets the number of worker goroutines.
// 0 or a negative value means runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(o *engineOptions) {
		o.workers = n
	}
}

// WithStrategy sets how frames are partitioned between workers.
func WithStrategy(s Strategy) Option {
	return func(o *engineOptions) {
		o.strategy = s
	}
}

// WithDisplay attaches a Display. Every rendered frame is presented to it,
// and if it implements Resizer its size changes are forwarded to the engine.
// The engine does not close the display.
func WithDisplay(d Display) Option {
	return func(o *engineOptions) {
		o.display = d
	}
}

// WithParams sets the initial fractal parameters.
func WithParams(p Params) Option {
	return func(o *engineOptions) {
		o.params = p
	}
}

// WithHUD draws a status line on the presented copy of every frame.
// The frame returned by RenderFrame is never drawn on.
func WithHUD(enabled bool) Option {
	return func(o *engineOptions) {
		o.hud = enabled
	}
}

// WithPaletteCache sets how many iteration limits keep a precomputed
// palette. 0 keeps all of them.
func WithPaletteCache(n int) Option {
	return func(o *engineOptions) {
		o.paletteCache = n
	}
}
