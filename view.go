// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package fractal

import (
	"fmt"
	"math"
)

// MinZoomFactor is the smallest zoom factor magnitude Zoom accepts.
// Smaller factors are ignored.
const MinZoomFactor = 0.001

// Default view: the whole Mandelbrot set in an 800 pixel wide frame.
const (
	DefaultCenterX = -0.7
	DefaultCenterY = 0.0
	DefaultDensity = 0.0035
)

// View maps pixel coordinates to the complex plane.
//
// The frame center sits at (CenterX, CenterY) and every pixel spans
// Density plane units in both directions. Smaller densities zoom in.
type View struct {
	CenterX float64
	CenterY float64
	Density float64
}

// DefaultView returns the initial view.
func DefaultView() View {
	return View{CenterX: DefaultCenterX, CenterY: DefaultCenterY, Density: DefaultDensity}
}

// Translate moves the center by a fraction of the frame size.
// dx = 1 moves one full frame width to the right; dy = 1 moves one frame
// height up.
func (v *View) Translate(dx, dy float64, width, height int) {
	v.CenterX += dx * float64(width) * v.Density
	v.CenterY -= dy * float64(height) * v.Density
}

// Zoom divides the density by the magnitude of factor. Factors above 1
// zoom in. A factor with magnitude below MinZoomFactor, NaN or an infinite
// factor is a no-op, and so is a zoom whose density would underflow to 0
// or overflow to infinity.
func (v *View) Zoom(factor float64) {
	m := math.Abs(factor)
	if !(m >= MinZoomFactor) || math.IsInf(m, 1) {
		return
	}
	d := v.Density / m
	if d > 0 && !math.IsInf(d, 0) {
		v.Density = d
	}
}

// PixelToPlane returns the plane coordinate of pixel (x, y) in a
// width x height frame.
func (v View) PixelToPlane(x, y, width, height int) (fx, fy float64) {
	fx = v.CenterX + v.Density*(float64(x)-float64(width)/2)
	fy = v.CenterY + v.Density*(float64(y)-float64(height)/2)
	return fx, fy
}

// SetCenter moves the center to (x, y).
func (v *View) SetCenter(x, y float64) {
	v.CenterX = x
	v.CenterY = y
}

// SetDensity sets the plane units per pixel.
func (v *View) SetDensity(d float64) error {
	if !(d > 0) {
		return fmt.Errorf("%w: %v", ErrInvalidDensity, d)
	}
	v.Density = d
	return nil
}

// Reset restores the default view.
func (v *View) Reset() {
	*v = DefaultView()
}

// Validate reports whether the view can be rendered.
func (v View) Validate() error {
	if !(v.Density > 0) {
		return fmt.Errorf("%w: %v", ErrInvalidDensity, v.Density)
	}
	return nil
}
