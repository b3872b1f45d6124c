// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package fractal

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
)

// Frame is a rectangular RGBA pixel buffer, 4 bytes per pixel, row-major
// with no padding between rows.
//
// The engine replaces its Frame on resize instead of reallocating it in
// place, so a Frame's size never changes after creation.
type Frame struct {
	width  int
	height int
	data   []uint8
}

// NewFrame creates a black, fully transparent frame of the given size.
func NewFrame(width, height int) (*Frame, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	return &Frame{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*4),
	}, nil
}

// checkSize rejects non-positive sizes and sizes whose byte length does
// not fit in an int.
func checkSize(width, height int) error {
	if width <= 0 || height <= 0 || width > math.MaxInt/4/height {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	return nil
}

// Width returns the width of the frame.
func (f *Frame) Width() int {
	return f.width
}

// Height returns the height of the frame.
func (f *Frame) Height() int {
	return f.height
}

// Stride returns the number of bytes per row.
func (f *Frame) Stride() int {
	return f.width * 4
}

// Data returns the raw pixel data (RGBA format).
func (f *Frame) Data() []uint8 {
	return f.data
}

// Offset returns the index of pixel (x, y) in Data.
func (f *Frame) Offset(x, y int) int {
	return (y*f.width + x) * 4
}

// RGBAAt returns the color of a single pixel.
// Out-of-range coordinates return transparent black.
func (f *Frame) RGBAAt(x, y int) color.RGBA {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return color.RGBA{}
	}
	i := f.Offset(x, y)
	return color.RGBA{R: f.data[i], G: f.data[i+1], B: f.data[i+2], A: f.data[i+3]}
}

// Clear fills the entire frame with a color.
func (f *Frame) Clear(c color.RGBA) {
	for i := 0; i < len(f.data); i += 4 {
		f.data[i+0] = c.R
		f.data[i+1] = c.G
		f.data[i+2] = c.B
		f.data[i+3] = c.A
	}
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	c := &Frame{width: f.width, height: f.height, data: make([]uint8, len(f.data))}
	copy(c.data, f.data)
	return c
}

// RGBA returns an *image.RGBA sharing the frame's memory.
// Writes through the image are visible in the frame.
func (f *Frame) RGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    f.data,
		Stride: f.Stride(),
		Rect:   image.Rect(0, 0, f.width, f.height),
	}
}

// ToImage copies the frame into a new image.RGBA.
func (f *Frame) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.width, f.height))
	copy(img.Pix, f.data)
	return img
}

// SavePNG saves the frame to a PNG file.
func (f *Frame) SavePNG(path string) error {
	out, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	if err := png.Encode(out, f.RGBA()); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// At implements the image.Image interface.
func (f *Frame) At(x, y int) color.Color {
	return f.RGBAAt(x, y)
}

// Bounds implements the image.Image interface.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.width, f.height)
}

// ColorModel implements the image.Image interface.
func (f *Frame) ColorModel() color.Model {
	return color.RGBAModel
}
