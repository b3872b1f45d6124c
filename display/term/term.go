// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package term presents frames in a terminal with tcell.
//
// Each character cell shows two vertically stacked pixels using the upper
// half block rune: the foreground is the top pixel and the background the
// bottom one. The last row of the terminal is a status line. The frame
// size requested from the engine follows the terminal size, so resizing
// the terminal resizes the render.
package term

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/gogpu/fractal"
	"github.com/gogpu/fractal/display"
)

func init() {
	display.Register(display.BackendTerm, func(opts display.Options) (fractal.Display, error) {
		return New(opts)
	})
}

// halfBlock draws the top half of a cell in the foreground color.
const halfBlock = '▀'

// Terminal is a tcell-backed Display. It also implements display.Runner
// and fractal.Resizer.
type Terminal struct {
	mu       sync.Mutex
	screen   tcell.Screen
	interval time.Duration

	cols, rows int
	resized    bool
	closed     bool
	quit       chan struct{}
	quitOnce   sync.Once
}

// New initializes the controlling terminal.
func New(opts display.Options) (*Terminal, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("term: %w", err)
	}
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("term: %w", err)
	}
	return NewWithScreen(s, opts), nil
}

// NewWithScreen wraps an initialized screen.
func NewWithScreen(s tcell.Screen, opts display.Options) *Terminal {
	s.HideCursor()
	s.Clear()
	cols, rows := s.Size()
	return &Terminal{
		screen:   s,
		interval: opts.Interval(),
		cols:     cols,
		rows:     rows,
		resized:  true,
		quit:     make(chan struct{}),
	}
}

// PixelSize returns the frame size that fills a cols×rows terminal.
func PixelSize(cols, rows int) (width, height int) {
	return cols, max(rows-1, 0) * 2
}

// Resized implements fractal.Resizer. It reports the terminal size in
// pixels once after creation and after every resize event.
func (t *Terminal) Resized() (width, height int, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.resized {
		return 0, 0, false
	}
	t.resized = false
	width, height = PixelSize(t.cols, t.rows)
	return width, height, width > 0 && height > 0
}

// Present implements fractal.Display. The frame is sampled nearest
// neighbour when its size differs from the terminal.
func (t *Terminal) Present(f *fractal.Frame, info fractal.FrameInfo) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return display.ErrClosed
	}

	pw, ph := PixelSize(t.cols, t.rows)
	fw, fh := f.Width(), f.Height()
	if pw > 0 && ph > 0 {
		for cy := 0; cy < ph/2; cy++ {
			top := (cy * 2) * fh / ph
			bottom := (cy*2 + 1) * fh / ph
			for cx := 0; cx < pw; cx++ {
				x := cx * fw / pw
				style := tcell.StyleDefault.
					Foreground(cellColor(f, x, top)).
					Background(cellColor(f, x, bottom))
				t.screen.SetContent(cx, cy, halfBlock, nil, style)
			}
		}
	}

	t.drawStatus(info)
	t.screen.Show()
	return nil
}

func cellColor(f *fractal.Frame, x, y int) tcell.Color {
	c := f.RGBAAt(x, y)
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// drawStatus writes the last terminal row. Caller holds mu.
func (t *Terminal) drawStatus(info fractal.FrameInfo) {
	if t.rows < 1 {
		return
	}
	p := info.Params
	line := fmt.Sprintf(" %s  iter %d  %d workers  %v  fps %.1f  [q] quit",
		p.Kind, p.MaxIter, info.Workers, info.Elapsed.Round(time.Microsecond), info.FPS())

	style := tcell.StyleDefault.Reverse(true)
	y := t.rows - 1
	runes := []rune(line)
	for x := 0; x < t.cols; x++ {
		r := ' '
		if x < len(runes) {
			r = runes[x]
		}
		t.screen.SetContent(x, y, r, nil, style)
	}
}

// Run implements display.Runner. It handles terminal events on a
// separate goroutine and calls step on the calling goroutine at the
// configured frame rate. Esc, q and Ctrl-C end the loop.
func (t *Terminal) Run(step func() error) error {
	go t.pollEvents()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.quit:
			return nil
		case <-ticker.C:
			if err := step(); err != nil {
				if errors.Is(err, display.ErrStop) {
					return nil
				}
				return err
			}
		}
	}
}

func (t *Terminal) pollEvents() {
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			// Screen finalized.
			t.stop()
			return
		}
		if t.handle(ev) {
			t.stop()
			return
		}
	}
}

// handle processes one event and reports whether it requests exit.
func (t *Terminal) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		cols, rows := ev.Size()
		t.mu.Lock()
		t.cols, t.rows = cols, rows
		t.resized = true
		t.mu.Unlock()
		t.screen.Sync()
		fractal.Logger().Debug("term: resized", "cols", cols, "rows", rows)
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return true
		case tcell.KeyRune:
			return ev.Rune() == 'q' || ev.Rune() == 'Q'
		}
	}
	return false
}

func (t *Terminal) stop() {
	t.quitOnce.Do(func() { close(t.quit) })
}

// Close restores the terminal. It is safe to call more than once.
func (t *Terminal) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	t.stop()
	t.screen.Fini()
	return nil
}
