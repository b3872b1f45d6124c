// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package fractal

import (
	"fmt"
	"math"

	"github.com/gogpu/fractal/generator"
)

// Default fractal parameters.
const (
	DefaultMaxIter = 50
	DefaultPower   = 2
	DefaultSpeed   = 1.0
	DefaultJuliaX  = -0.8
	DefaultJuliaY  = 0.156
)

// Params is the full set of values a frame is rendered from.
//
// Params is a value type. The engine hands every dispatch its own copy,
// so animation and control calls never touch a frame in flight.
type Params struct {
	View

	// Kind selects the escape-time routine.
	Kind generator.Kind

	// Animated enables time modulation of the Julia constant.
	Animated bool

	// Speed multiplies the animation time.
	Speed float64

	// MaxIter is the iteration cap. 0 renders an all-black frame.
	MaxIter int

	// JuliaX and JuliaY are the Julia constant. Ignored for Mandelbrot.
	JuliaX float64
	JuliaY float64

	// Power is the multiset exponent. Used only by JuliaMultiset.
	Power int
}

// DefaultParams returns a Mandelbrot view of the whole set.
func DefaultParams() Params {
	return Params{
		View:    DefaultView(),
		Kind:    generator.Mandelbrot,
		Speed:   DefaultSpeed,
		MaxIter: DefaultMaxIter,
		JuliaX:  DefaultJuliaX,
		JuliaY:  DefaultJuliaY,
		Power:   DefaultPower,
	}
}

// Validate reports whether the parameters can be rendered.
func (p Params) Validate() error {
	if err := p.View.Validate(); err != nil {
		return err
	}
	if p.MaxIter < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxIter, p.MaxIter)
	}
	if !p.Kind.Valid() {
		return fmt.Errorf("%w: %d", generator.ErrUnknownKind, int(p.Kind))
	}
	return nil
}

// Animate returns the parameters to render at time t (seconds).
//
// When Animated is set the Julia constant is scaled by the cosine and sine
// of t/π*Speed. p itself is never modified.
func (p Params) Animate(t float64) Params {
	if !p.Animated {
		return p
	}
	tp := t / (2 * math.Pi / 2) * p.Speed
	p.JuliaX *= math.Cos(tp)
	p.JuliaY *= math.Sin(tp)
	return p
}

// IncMaxIter raises MaxIter by step, saturating at math.MaxInt.
func (p *Params) IncMaxIter(step int) {
	if step <= 0 {
		return
	}
	if p.MaxIter > math.MaxInt-step {
		p.MaxIter = math.MaxInt
		return
	}
	p.MaxIter += step
}

// DecMaxIter lowers MaxIter by step, saturating at 0.
func (p *Params) DecMaxIter(step int) {
	if step <= 0 {
		return
	}
	if p.MaxIter < step {
		p.MaxIter = 0
		return
	}
	p.MaxIter -= step
}
