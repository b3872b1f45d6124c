// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package generator

import "math"

// bailout is the squared escape radius.
const bailout = 4.0

// julia iterates z = z² + c with z0 = (ix, iy) and c = (cx, cy).
// The modulus check runs after each step, so a point that starts outside
// the radius still costs one iteration.
func julia(ix, iy, cx, cy float64, _, maxIter int) int {
	zr, zi := ix, iy
	mod := 0.0
	iter := 0

	for mod < bailout && iter < maxIter {
		zr, zi = zr*zr-zi*zi+cx, 2*zr*zi+cy
		mod = zr*zr + zi*zi
		iter++
	}

	return iter
}

// mandelbrot is julia started at the origin with the pixel as constant.
func mandelbrot(ix, iy, _, _ float64, power, maxIter int) int {
	return julia(0, 0, ix, iy, power, maxIter)
}

// juliaMultiset iterates z = |z|^n (cos nθ, sin nθ) + c with z0 = (ix, iy).
// A step whose result would leave the radius is not committed, so the
// returned count is the number of steps that stayed bounded.
func juliaMultiset(ix, iy, cx, cy float64, power, maxIter int) int {
	zr, zi := ix, iy
	n := float64(power)
	half := n / 2

	iter := 0
	for ; iter < maxIter; iter++ {
		theta := n * math.Atan2(zi, zr)
		r := math.Pow(zr*zr+zi*zi, half)
		x := r*math.Cos(theta) + cx
		y := r*math.Sin(theta) + cy
		if x*x+y*y > bailout {
			break
		}
		zr, zi = x, y
	}

	return iter
}
