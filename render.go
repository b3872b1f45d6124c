// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package fractal

import (
	"image"

	"github.com/gogpu/fractal/generator"
	"github.com/gogpu/fractal/internal/color"
)

// renderJob is the per-frame work handed to the pool.
// It is immutable while a dispatch is in flight.
type renderJob struct {
	frame   *Frame
	params  Params
	gen     generator.Generator
	palette *color.Palette
}

// Render implements parallel.Job. Each worker writes only the pixels of
// its own regions.
func (j *renderJob) Render(_ int, regions []image.Rectangle) {
	f := j.frame
	p := &j.params
	w, h := f.width, f.height
	data := f.data

	for _, r := range regions {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			off := f.Offset(r.Min.X, y)
			for x := r.Min.X; x < r.Max.X; x++ {
				fx, fy := p.PixelToPlane(x, y, w, h)
				iter := j.gen.Escape(fx, fy, p.JuliaX, p.JuliaY, p.Power, p.MaxIter)
				j.palette.Put(data[off:off+4], iter)
				off += 4
			}
		}
	}
}
