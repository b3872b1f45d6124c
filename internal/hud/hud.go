// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package hud draws the status overlay shown on presented frames.
package hud

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// DefaultSize is the default font size in pixels.
const DefaultSize = 12

// Overlay renders lines of text in the top-left corner of an image,
// white on a translucent black box.
//
// An Overlay is not safe for concurrent use.
type Overlay struct {
	face    font.Face
	padding int
	text    *image.Uniform
	box     *image.Uniform
}

// New creates an overlay using Go Mono at the given pixel size.
func New(size float64) (*Overlay, error) {
	if size <= 0 {
		size = DefaultSize
	}

	f, err := opentype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("hud: parse font: %w", err)
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("hud: create face: %w", err)
	}

	return &Overlay{
		face:    face,
		padding: int(size / 3),
		text:    image.NewUniform(color.RGBA{255, 255, 255, 255}),
		box:     image.NewUniform(color.RGBA{0, 0, 0, 160}),
	}, nil
}

// Bounds returns the rectangle Draw would cover for lines.
func (o *Overlay) Bounds(lines []string) image.Rectangle {
	if len(lines) == 0 {
		return image.Rectangle{}
	}

	var width fixed.Int26_6
	for _, l := range lines {
		if w := font.MeasureString(o.face, l); w > width {
			width = w
		}
	}

	lh := o.face.Metrics().Height.Ceil()
	return image.Rect(0, 0, width.Ceil()+2*o.padding, lh*len(lines)+2*o.padding)
}

// Draw renders lines onto dst, clipped to dst's bounds.
func (o *Overlay) Draw(dst draw.Image, lines []string) {
	if len(lines) == 0 {
		return
	}

	origin := dst.Bounds().Min
	box := o.Bounds(lines).Add(origin).Intersect(dst.Bounds())
	draw.Draw(dst, box, o.box, image.Point{}, draw.Over)

	m := o.face.Metrics()
	lh := m.Height.Ceil()
	d := &font.Drawer{
		Dst:  dst,
		Src:  o.text,
		Face: o.face,
	}
	for i, l := range lines {
		d.Dot = fixed.P(origin.X+o.padding, origin.Y+o.padding+i*lh+m.Ascent.Ceil())
		d.DrawString(l)
	}
}

// Close releases the font face.
func (o *Overlay) Close() error {
	return o.face.Close()
}
