// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package window presents frames in a desktop window using ebiten.
//
// The window owns the main loop: display.Loop hands control to Run, which
// blocks in ebiten.RunGame and calls the frame step from the game's Update.
// The window is resizable; its size is reported to the engine through
// fractal.Resizer so renders always match the window.
package window

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/gogpu/fractal"
	"github.com/gogpu/fractal/display"
)

func init() {
	display.Register(display.BackendWindow, func(opts display.Options) (fractal.Display, error) {
		return New(opts)
	})
}

// ErrNoDisplay is returned by New when no window system is reachable.
var ErrNoDisplay = errors.New("window: no window system available")

// DefaultTitle is used when Options.Title is empty.
const DefaultTitle = "fractal"

// Window is an ebiten-backed Display. It implements display.Runner and
// fractal.Resizer.
type Window struct {
	opts display.Options

	mu      sync.Mutex
	pix     []byte
	width   int
	height  int
	dirty   bool
	outW    int
	outH    int
	resized bool
	closed  bool

	image *ebiten.Image // used only from the ebiten goroutine
	err   error         // step error that ended the game
}

// New returns a window for opts. The window is shown by Run.
func New(opts display.Options) (*Window, error) {
	if headless() {
		return nil, ErrNoDisplay
	}
	return newWindow(opts), nil
}

func newWindow(opts display.Options) *Window {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	return &Window{opts: opts}
}

// headless reports whether an X11 or Wayland session is missing on
// platforms that need one.
func headless() bool {
	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd", "netbsd":
		return os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == ""
	}
	return false
}

// Present implements fractal.Display. The pixels are copied into a
// staging buffer and uploaded on the next draw.
func (w *Window) Present(f *fractal.Frame, _ fractal.FrameInfo) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return display.ErrClosed
	}

	data := f.Data()
	if cap(w.pix) < len(data) {
		w.pix = make([]byte, len(data))
	}
	w.pix = w.pix[:len(data)]
	copy(w.pix, data)
	w.width, w.height = f.Width(), f.Height()
	w.dirty = true
	return nil
}

// Resized implements fractal.Resizer with the latest window size.
func (w *Window) Resized() (width, height int, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.resized {
		return 0, 0, false
	}
	w.resized = false
	return w.outW, w.outH, w.outW > 0 && w.outH > 0
}

// Close implements fractal.Display. A running window exits at its next
// update.
func (w *Window) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *Window) isClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// Run implements display.Runner. It blocks until the window is closed,
// Esc is pressed, or step fails.
func (w *Window) Run(step func() error) error {
	width, height := w.opts.Width, w.opts.Height
	if width <= 0 || height <= 0 {
		width, height = 800, 600
	}

	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowTitle(w.opts.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	tps := w.opts.FPS
	if tps <= 0 {
		tps = display.DefaultFPS
	}
	ebiten.SetTPS(tps)

	fractal.Logger().Info("window: opening", "width", width, "height", height)
	if err := ebiten.RunGame(&game{w: w, step: step}); err != nil {
		return fmt.Errorf("window: %w", err)
	}
	if w.err != nil && !errors.Is(w.err, display.ErrStop) {
		return w.err
	}
	return nil
}

// game adapts a Window to ebiten.Game.
type game struct {
	w    *Window
	step func() error
}

func (g *game) Update() error {
	if g.w.isClosed() || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if err := g.step(); err != nil {
		g.w.err = err
		return ebiten.Termination
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	w := g.w

	w.mu.Lock()
	if w.width > 0 && w.height > 0 {
		if w.image == nil || w.image.Bounds().Dx() != w.width || w.image.Bounds().Dy() != w.height {
			if w.image != nil {
				w.image.Deallocate()
			}
			w.image = ebiten.NewImage(w.width, w.height)
			w.dirty = true
		}
		if w.dirty {
			w.image.WritePixels(w.pix)
			w.dirty = false
		}
	}
	w.mu.Unlock()

	if w.image == nil {
		return
	}

	op := &ebiten.DrawImageOptions{}
	sb, ib := screen.Bounds(), w.image.Bounds()
	if sb.Dx() != ib.Dx() || sb.Dy() != ib.Dy() {
		op.GeoM.Scale(float64(sb.Dx())/float64(ib.Dx()), float64(sb.Dy())/float64(ib.Dy()))
		op.Filter = ebiten.FilterLinear
	}
	screen.DrawImage(w.image, op)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.w.layout(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

// layout records the outside size and flags a resize when it changed.
func (w *Window) layout(width, height int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if width != w.outW || height != w.outH {
		w.outW, w.outH = width, height
		w.resized = true
	}
}
