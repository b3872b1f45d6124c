// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package fractal

import "time"

// Display presents rendered frames.
//
// Present is called from the goroutine running RenderFrame after the frame
// is complete. The frame is reused by the next RenderFrame call, so a
// Display that keeps pixels past Present must copy them.
type Display interface {
	Present(f *Frame, info FrameInfo) error
	Close() error
}

// Resizer is implemented by displays whose output surface can change size.
// Resized reports the latest size and whether it changed since the previous
// call. The engine polls it before every frame and queues the new size.
type Resizer interface {
	Resized() (width, height int, ok bool)
}

// FrameInfo describes a presented frame.
type FrameInfo struct {
	// Index is the 1-based frame number.
	Index uint64

	// Time and Delta are the values passed to RenderFrame.
	Time  float64
	Delta float64

	// Elapsed is the time spent in the worker pool.
	Elapsed time.Duration

	// Params are the parameters the frame was rendered from, after animation.
	Params Params

	// Workers is the pool size that rendered the frame.
	Workers int

	// Strategy is the partition strategy that rendered the frame.
	Strategy Strategy
}

// FPS returns the frame rate implied by Delta, or 0.
func (i FrameInfo) FPS() float64 {
	if i.Delta <= 0 {
		return 0
	}
	return 1 / i.Delta
}
