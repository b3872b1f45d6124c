// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package fractal

import (
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/gogpu/fractal/generator"
	"github.com/gogpu/fractal/internal/cache"
	"github.com/gogpu/fractal/internal/color"
	"github.com/gogpu/fractal/internal/hud"
	"github.com/gogpu/fractal/internal/parallel"
)

// Stats describes the work done by an Engine.
type Stats struct {
	// Frames is the number of frames rendered.
	Frames uint64

	// LastRender is the pool time of the most recent frame.
	LastRender time.Duration

	// TotalRender is the accumulated pool time of all frames.
	TotalRender time.Duration

	// LastDelta is the dt passed to the most recent RenderFrame.
	LastDelta float64

	// Resizes counts frame buffer replacements after creation.
	Resizes int

	// PoolRebuilds counts worker pool replacements after creation.
	PoolRebuilds int
}

// AverageRender returns TotalRender / Frames, or 0.
func (s Stats) AverageRender() time.Duration {
	if s.Frames == 0 {
		return 0
	}
	return s.TotalRender / time.Duration(s.Frames)
}

// Engine renders fractal frames on a persistent worker pool.
//
// Control methods (Translate, Zoom, Set*, Resize, SetWorkers) are safe to
// call from any goroutine at any time. They only change the state the next
// frame is rendered from: a frame in flight always completes with the
// parameters, size and pool it started with. RenderFrame calls are
// serialized.
//
// Example:
//
//	e, err := fractal.New(800, 600, fractal.WithStrategy(fractal.InterleavedTiles))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer e.Close()
//
//	e.Zoom(2)
//	frame, err := e.RenderFrame(0, 0)
type Engine struct {
	// mu guards the requested state below.
	mu sync.Mutex

	params  Params
	width   int // requested frame size
	height  int
	workers int // requested pool size
	closed  bool
	stats   Stats

	// renderMu serializes RenderFrame and Close and guards the render
	// state below.
	renderMu sync.Mutex

	frame    *Frame
	pool     *parallel.WorkerPool
	plan     parallel.Plan
	strategy Strategy
	display  Display
	overlay  *hud.Overlay
	hudFrame *Frame
	palettes *cache.Cache[int, *color.Palette]
}

// New creates an engine rendering width x height frames and starts its
// worker pool.
func New(width, height int, opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if err := o.params.Validate(); err != nil {
		return nil, err
	}
	frame, err := NewFrame(width, height)
	if err != nil {
		return nil, err
	}

	workers := o.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	e := &Engine{
		params:   o.params,
		width:    width,
		height:   height,
		workers:  workers,
		frame:    frame,
		strategy: o.strategy,
		display:  o.display,
		palettes: cache.New[int, *color.Palette](o.paletteCache),
	}

	if o.hud {
		e.overlay, err = hud.New(hud.DefaultSize)
		if err != nil {
			return nil, err
		}
	}

	e.pool = parallel.NewWorkerPool(workers)
	e.plan = e.strategy.Partition(width, height, workers)

	Logger().Info("fractal: engine started",
		"width", width, "height", height,
		"workers", workers, "strategy", e.strategy.String(),
		"kind", o.params.Kind.String())

	return e, nil
}

// RenderFrame renders one frame at animation time t (seconds) and returns
// it. dt is the time since the previous frame and is only reported.
//
// Queued resizes and worker count changes are applied first. If a Display
// is attached the frame is presented before RenderFrame returns; a Present
// failure is returned wrapped in ErrPresent together with the frame.
//
// The returned Frame is owned by the engine and is overwritten by the next
// call. Use Clone to keep it.
func (e *Engine) RenderFrame(t, dt float64) (*Frame, error) {
	e.renderMu.Lock()
	defer e.renderMu.Unlock()

	if r, ok := e.display.(Resizer); ok {
		if w, h, changed := r.Resized(); changed {
			if err := e.Resize(w, h); err != nil {
				Logger().Warn("fractal: ignoring display size", "err", err)
			}
		}
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrEngineClosed
	}
	width, height, workers := e.width, e.height, e.workers
	params := e.params
	e.mu.Unlock()

	if err := e.applyPending(width, height, workers); err != nil {
		return nil, err
	}

	gen, err := generator.For(params.Kind)
	if err != nil {
		return nil, err
	}
	params = params.Animate(t)

	palette := e.palettes.GetOrCreate(params.MaxIter, func() *color.Palette {
		return color.NewGrayPalette(params.MaxIter)
	})
	job := &renderJob{
		frame:   e.frame,
		params:  params,
		gen:     gen,
		palette: palette,
	}

	start := time.Now()
	if err := e.pool.Dispatch(job, e.plan); err != nil {
		Logger().Error("fractal: dispatch failed", "err", err)
		return nil, err
	}
	elapsed := time.Since(start)

	e.mu.Lock()
	e.stats.Frames++
	e.stats.LastRender = elapsed
	e.stats.TotalRender += elapsed
	e.stats.LastDelta = dt
	index := e.stats.Frames
	e.mu.Unlock()

	Logger().Debug("fractal: frame rendered",
		"index", index, "elapsed", elapsed, "pixels", e.plan.Pixels())

	if e.display == nil {
		return e.frame, nil
	}

	info := FrameInfo{
		Index:    index,
		Time:     t,
		Delta:    dt,
		Elapsed:  elapsed,
		Params:   params,
		Workers:  e.pool.Workers(),
		Strategy: e.strategy,
	}
	if err := e.display.Present(e.presentable(info), info); err != nil {
		Logger().Warn("fractal: present failed", "err", err)
		return e.frame, fmt.Errorf("%w: %w", ErrPresent, err)
	}
	return e.frame, nil
}

// applyPending replaces the frame, plan and pool when the requested size
// or worker count differs from the current ones. Caller holds renderMu.
func (e *Engine) applyPending(width, height, workers int) error {
	resized := width != e.frame.width || height != e.frame.height
	rebuilt := workers != e.pool.Workers()
	if !resized && !rebuilt {
		return nil
	}

	if resized {
		frame, err := NewFrame(width, height)
		if err != nil {
			return err
		}
		e.frame = frame
		e.hudFrame = nil
	}

	if rebuilt {
		e.pool.Close()
		e.pool = parallel.NewWorkerPool(workers)
	}

	e.plan = e.strategy.Partition(width, height, workers)

	e.mu.Lock()
	if resized {
		e.stats.Resizes++
	}
	if rebuilt {
		e.stats.PoolRebuilds++
	}
	e.mu.Unlock()

	Logger().Debug("fractal: render state rebuilt",
		"width", width, "height", height, "workers", workers,
		"resized", resized, "rebuilt", rebuilt)
	return nil
}

// presentable returns the frame to hand to the display: the engine frame
// itself, or a copy with the status overlay drawn on it.
func (e *Engine) presentable(info FrameInfo) *Frame {
	if e.overlay == nil {
		return e.frame
	}
	if e.hudFrame == nil {
		e.hudFrame = &Frame{width: e.frame.width, height: e.frame.height, data: make([]uint8, len(e.frame.data))}
	}
	copy(e.hudFrame.data, e.frame.data)
	e.overlay.Draw(e.hudFrame.RGBA(), statusLines(info))
	return e.hudFrame
}

// statusLines formats the overlay text for a frame.
func statusLines(info FrameInfo) []string {
	p := info.Params
	return []string{
		p.Kind.String() + "  iter " + strconv.Itoa(p.MaxIter) +
			"  " + strconv.Itoa(info.Workers) + " workers (" + info.Strategy.String() + ")",
		fmt.Sprintf("center %.6g %+.6gi  dpp %.3g", p.CenterX, p.CenterY, p.Density),
		fmt.Sprintf("render %v  fps %.1f", info.Elapsed.Round(time.Microsecond), info.FPS()),
	}
}

// Close stops the worker pool and waits for every worker to exit.
// It waits for a frame in flight to complete. Close is idempotent.
func (e *Engine) Close() {
	e.renderMu.Lock()
	defer e.renderMu.Unlock()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	frames := e.stats.Frames
	e.mu.Unlock()

	e.pool.Close()
	if e.overlay != nil {
		_ = e.overlay.Close()
	}
	e.frame = nil
	e.hudFrame = nil

	Logger().Info("fractal: engine stopped", "frames", frames)
}

// =============================================================================
// Control surface
// =============================================================================

// Translate moves the view by a fraction of the frame size.
func (e *Engine) Translate(dx, dy float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params.Translate(dx, dy, e.width, e.height)
}

// Zoom divides the density per pixel by factor; see View.Zoom.
func (e *Engine) Zoom(factor float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params.Zoom(factor)
}

// SetCenter moves the view center.
func (e *Engine) SetCenter(x, y float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params.SetCenter(x, y)
}

// ResetView restores the default view.
func (e *Engine) ResetView() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params.Reset()
}

// SetView replaces the view.
func (e *Engine) SetView(v View) error {
	if err := v.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params.View = v
	return nil
}

// SetGenerator selects the fractal kind.
func (e *Engine) SetGenerator(kind generator.Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %d", generator.ErrUnknownKind, int(kind))
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params.Kind = kind
	return nil
}

// SetMaxIter sets the iteration cap.
func (e *Engine) SetMaxIter(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxIter, n)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params.MaxIter = n
	return nil
}

// IncMaxIter raises the iteration cap by step, saturating.
func (e *Engine) IncMaxIter(step int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params.IncMaxIter(step)
}

// DecMaxIter lowers the iteration cap by step, saturating at 0.
func (e *Engine) DecMaxIter(step int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params.DecMaxIter(step)
}

// SetJulia sets the Julia constant.
func (e *Engine) SetJulia(x, y float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params.JuliaX, e.params.JuliaY = x, y
}

// SetPower sets the multiset exponent.
func (e *Engine) SetPower(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params.Power = n
}

// SetAnimated enables or disables animation.
func (e *Engine) SetAnimated(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params.Animated = on
}

// SetSpeed sets the animation speed.
func (e *Engine) SetSpeed(s float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params.Speed = s
}

// SetParams replaces all parameters.
func (e *Engine) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params = p
	return nil
}

// Resize queues a new frame size. It takes effect at the start of the next
// RenderFrame; the last request before a frame wins.
func (e *Engine) Resize(width, height int) error {
	if err := checkSize(width, height); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.width, e.height = width, height
	return nil
}

// SetWorkers queues a new pool size, applied like Resize.
// 0 or a negative value means runtime.GOMAXPROCS(0).
func (e *Engine) SetWorkers(n int) {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.workers = n
}

// Params returns a copy of the current parameters.
func (e *Engine) Params() Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params
}

// View returns the current view.
func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params.View
}

// Size returns the requested frame size, which the next frame will have.
func (e *Engine) Size() (width, height int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.width, e.height
}

// Workers returns the requested pool size.
func (e *Engine) Workers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.workers
}

// Strategy returns the partition strategy.
func (e *Engine) Strategy() Strategy {
	return e.strategy
}

// Stats returns a snapshot of the engine statistics.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}
