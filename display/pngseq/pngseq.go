// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package pngseq writes every presented frame to a numbered PNG file.
//
// It is the headless backend: useful for batch renders, animations that
// are assembled later, and machines without a terminal or window system.
package pngseq

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"github.com/gogpu/fractal"
	"github.com/gogpu/fractal/display"
)

func init() {
	display.Register(display.BackendPNG, func(opts display.Options) (fractal.Display, error) {
		return New(opts)
	})
}

// DefaultDir is used when Options.Dir is empty.
const DefaultDir = "frames"

// Writer saves frames as <dir>/frame-000001.png, frame-000002.png, ...
type Writer struct {
	mu       sync.Mutex
	dir      string
	maxWidth int
	encoder  png.Encoder
	written  int
	closed   bool
}

// New creates the output directory and returns a Writer.
func New(opts display.Options) (*Writer, error) {
	dir := opts.Dir
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("pngseq: %w", err)
	}
	return &Writer{
		dir:      dir,
		maxWidth: opts.MaxWidth,
		encoder:  png.Encoder{CompressionLevel: png.BestSpeed},
	}, nil
}

// Present implements fractal.Display.
func (w *Writer) Present(f *fractal.Frame, info fractal.FrameInfo) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return display.ErrClosed
	}

	img := display.Scale(f.RGBA(), w.maxWidth)
	path := w.Path(info.Index)

	out, err := os.Create(path) //nolint:gosec // directory is user-provided intentionally
	if err != nil {
		return fmt.Errorf("pngseq: %w", err)
	}
	if err := w.encoder.Encode(out, img); err != nil {
		_ = out.Close()
		return fmt.Errorf("pngseq: encode %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("pngseq: %w", err)
	}

	w.written++
	fractal.Logger().Debug("pngseq: frame written", "path", path)
	return nil
}

// Path returns the file name used for frame index.
func (w *Writer) Path(index uint64) string {
	return filepath.Join(w.dir, fmt.Sprintf("frame-%06d.png", index))
}

// Written returns the number of files written.
func (w *Writer) Written() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// Close implements fractal.Display. Later Present calls fail.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}
