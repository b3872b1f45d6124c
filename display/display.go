// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package display selects where rendered frames go.
//
// Backends live in sub-packages and register themselves from init:
//
//	import (
//		"github.com/gogpu/fractal/display"
//		_ "github.com/gogpu/fractal/display/window" // Register "window"
//		_ "github.com/gogpu/fractal/display/term"   // Register "term"
//	)
//
//	d, err := display.Open("window", display.Options{Width: 800, Height: 600})
//
// Backends that must own the main loop (windows, terminals) also implement
// Runner. Loop drives either kind.
package display

import (
	"errors"
	"image"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/fractal"
)

// Backend names.
const (
	BackendWindow = "window"
	BackendTerm   = "term"
	BackendStream = "stream"
	BackendPNG    = "png"
)

// Common display errors.
var (
	// ErrUnknownBackend is returned by Open for unregistered names.
	ErrUnknownBackend = errors.New("display: unknown backend")

	// ErrNoBackend is returned by OpenDefault when nothing could be opened.
	ErrNoBackend = errors.New("display: no backend available")

	// ErrClosed is returned by Present after Close.
	ErrClosed = errors.New("display: closed")

	// ErrStop ends Loop or Runner.Run without error when returned by step.
	ErrStop = errors.New("display: stop")
)

// Options configures a backend. Backends ignore fields they do not use.
type Options struct {
	// Width and Height are the initial output size in pixels.
	Width  int
	Height int

	// Title is the window title.
	Title string

	// FPS is the target frame rate of Loop and of Runner backends.
	// 0 means DefaultFPS.
	FPS int

	// Dir is the output directory of the PNG backend.
	Dir string

	// Addr is the listen address of the stream backend.
	Addr string

	// MaxWidth downscales wider frames before they leave the process
	// (stream and PNG backends). 0 disables scaling.
	MaxWidth int
}

// DefaultFPS is the frame rate used when Options.FPS is 0.
const DefaultFPS = 30

// Interval returns the frame period for o.FPS.
func (o Options) Interval() time.Duration {
	fps := o.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	return time.Second / time.Duration(fps)
}

// Runner is implemented by backends that must run the event loop
// themselves. Run calls step once per frame on the calling goroutine
// until step fails, the user closes the output, or the display is closed.
// A step returning ErrStop ends Run with a nil error.
type Runner interface {
	Run(step func() error) error
}

// Loop calls step once per frame until it returns an error.
// If d implements Runner the loop is delegated to it; otherwise step is
// driven by a ticker at opts.FPS. ErrStop ends the loop with nil.
func Loop(d fractal.Display, opts Options, step func() error) error {
	if r, ok := d.(Runner); ok {
		return r.Run(step)
	}

	ticker := time.NewTicker(opts.Interval())
	defer ticker.Stop()

	for range ticker.C {
		if err := step(); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
	return nil
}

// Scale returns img unchanged if it is at most maxWidth wide (or maxWidth
// is 0), and otherwise a bilinear downscale preserving the aspect ratio.
func Scale(img *image.RGBA, maxWidth int) *image.RGBA {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}

	h := max(1, b.Dy()*maxWidth/b.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
