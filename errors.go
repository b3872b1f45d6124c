// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package fractal

import "errors"

// Common engine errors.
var (
	// ErrInvalidDimensions is returned for frames with a non-positive side.
	ErrInvalidDimensions = errors.New("fractal: invalid frame dimensions")

	// ErrInvalidDensity is returned when the density per pixel is not positive.
	ErrInvalidDensity = errors.New("fractal: density per pixel must be positive")

	// ErrInvalidMaxIter is returned for a negative iteration limit.
	ErrInvalidMaxIter = errors.New("fractal: max iterations must not be negative")

	// ErrEngineClosed is returned by RenderFrame after Close.
	ErrEngineClosed = errors.New("fractal: engine is closed")

	// ErrPresent wraps errors returned by a Display.
	ErrPresent = errors.New("fractal: present failed")
)
