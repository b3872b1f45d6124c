// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package fractal renders escape-time fractals on a persistent pool of
// worker goroutines.
//
// # Overview
//
// An Engine owns a Frame (an RGBA pixel buffer), the fractal Params and a
// fixed set of workers. Every call to RenderFrame splits the frame into
// disjoint regions, wakes every worker once and returns when all of them
// have reported, so the caller always gets a complete frame.
//
// # Quick Start
//
//	import "github.com/gogpu/fractal"
//
//	e, err := fractal.New(800, 600)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer e.Close()
//
//	e.Zoom(4)
//	frame, err := e.RenderFrame(0, 0)
//	if err != nil {
//		log.Fatal(err)
//	}
//	frame.SavePNG("mandelbrot.png")
//
// # Partitioning
//
// RowBands gives each worker a contiguous band of rows. InterleavedTiles
// gives each worker one tile from every row of an N x N grid, which keeps
// the load even when a small part of the frame is much more expensive.
// The strategy is fixed per engine; the output never depends on it or on
// the number of workers.
//
// # Animation
//
// With Params.Animated set, the Julia constant of each frame is modulated
// by the time passed to RenderFrame. Only the copy handed to the workers
// changes; Engine.Params keeps returning the configured values.
//
// # Resizing
//
// Resize and SetWorkers only record a request. The next RenderFrame
// applies the latest request before dispatching, so a frame in flight
// never sees its buffer or pool replaced.
//
// # Displays
//
// Frames can be presented through a Display: see the display package for
// the window, terminal, websocket stream and PNG sequence backends.
package fractal

// Version information
const (
	// Version is the current version of the module
	Version = "0.3.0"
)
