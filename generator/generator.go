// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package generator provides the escape-time routines used by the renderer.
//
// Each fractal kind is a pure function of the plane coordinate, the Julia
// constant, the multiset power and the iteration limit. The renderer looks
// the routine up once per frame with For and calls it once per pixel:
//
//	gen, err := generator.For(generator.Mandelbrot)
//	iter := gen.Escape(x, y, 0, 0, 2, 50)
//
// The result is always in [0, maxIter]; maxIter means the orbit stayed
// bounded.
package generator

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKind is returned for kinds outside the known set.
var ErrUnknownKind = errors.New("generator: unknown fractal kind")

// Kind identifies a fractal family.
type Kind int

const (
	// Mandelbrot iterates z = z² + c from the origin with c = pixel.
	Mandelbrot Kind = iota

	// Julia iterates z = z² + c from z = pixel with a fixed c.
	Julia

	// JuliaMultiset iterates z = zⁿ + c from z = pixel with a fixed c.
	JuliaMultiset
)

// kindNames holds the names used in configuration files.
var kindNames = [...]string{
	Mandelbrot:    "mandelbrot",
	Julia:         "julia",
	JuliaMultiset: "julia_multiset",
}

// String returns the configuration name of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k >= 0 && int(k) < len(kindNames)
}

// Kinds returns all known kinds in order.
func Kinds() []Kind {
	return []Kind{Mandelbrot, Julia, JuliaMultiset}
}

// ParseKind converts a configuration name to a Kind.
// Matching is case-insensitive; "multiset" is accepted for JuliaMultiset.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mandelbrot":
		return Mandelbrot, nil
	case "julia":
		return Julia, nil
	case "julia_multiset", "multiset":
		return JuliaMultiset, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
}

// Generator computes escape iterations for one point.
//
// (ix, iy) is the plane coordinate of the pixel, (cx, cy) the Julia
// constant (ignored by Mandelbrot) and power the multiset exponent (used
// only by JuliaMultiset). Implementations must be pure and safe for
// concurrent use.
type Generator interface {
	Escape(ix, iy, cx, cy float64, power, maxIter int) int
}

// Func adapts a plain function to the Generator interface.
type Func func(ix, iy, cx, cy float64, power, maxIter int) int

// Escape implements Generator.
func (f Func) Escape(ix, iy, cx, cy float64, power, maxIter int) int {
	return f(ix, iy, cx, cy, power, maxIter)
}

// table maps each kind to its routine.
var table = [...]Generator{
	Mandelbrot:    Func(mandelbrot),
	Julia:         Func(julia),
	JuliaMultiset: Func(juliaMultiset),
}

// For returns the generator for kind.
func For(kind Kind) (Generator, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
	return table[kind], nil
}
