// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package color maps escape-time iteration counts to pixel colors.
//
// The mapping is a linear grayscale ramp: a point that never escaped
// (iter == maxIter) is black, and every other point gets the gray level
// floor(255*iter/maxIter). Palettes precompute the ramp into a lookup
// table so the per-pixel cost is one indexed load.
package color

// RGBA is an 8-bit non-premultiplied color.
type RGBA struct {
	R, G, B, A uint8
}

// Black is the color of points inside the set.
var Black = RGBA{0, 0, 0, 255}

// MaxTableSize is the largest iteration limit that gets a lookup table.
// Larger limits fall back to computing each color on demand.
const MaxTableSize = 1 << 16

// Gray returns the grayscale color for an escape count.
//
// iter == maxIter maps to black. maxIter <= 0 maps everything to black
// without dividing. Counts outside [0, maxIter] are clamped.
func Gray(iter, maxIter int) RGBA {
	if maxIter <= 0 || iter >= maxIter || iter <= 0 {
		return Black
	}
	//nolint:gosec // G115: 0 < iter < maxIter so the level is in [0,254]
	g := uint8(int64(255) * int64(iter) / int64(maxIter))
	return RGBA{g, g, g, 255}
}

// Palette is a precomputed grayscale ramp for one iteration limit.
// A Palette is immutable and safe for concurrent use.
type Palette struct {
	maxIter int
	table   []RGBA
}

// NewGrayPalette builds the palette for maxIter.
// Negative limits are treated as 0.
func NewGrayPalette(maxIter int) *Palette {
	if maxIter < 0 {
		maxIter = 0
	}
	p := &Palette{maxIter: maxIter}
	if maxIter > MaxTableSize {
		return p
	}

	p.table = make([]RGBA, maxIter+1)
	for i := range p.table {
		p.table[i] = Gray(i, maxIter)
	}
	return p
}

// MaxIter returns the iteration limit the palette was built for.
func (p *Palette) MaxIter() int {
	return p.maxIter
}

// At returns the color for an escape count.
func (p *Palette) At(iter int) RGBA {
	if p.table == nil || iter < 0 || iter >= len(p.table) {
		return Gray(iter, p.maxIter)
	}
	return p.table[iter]
}

// Put writes the color for iter into dst[0:4] as R, G, B, A.
func (p *Palette) Put(dst []uint8, iter int) {
	c := p.At(iter)
	dst[0] = c.R
	dst[1] = c.G
	dst[2] = c.B
	dst[3] = c.A
}
