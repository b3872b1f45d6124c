// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pngseq

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/fractal"
	"github.com/gogpu/fractal/display"
)

func newFrame(t *testing.T, w, h int, c color.RGBA) *fractal.Frame {
	t.Helper()
	f, err := fractal.NewFrame(w, h)
	if err != nil {
		t.Fatal(err)
	}
	f.Clear(c)
	return f
}

func decode(t *testing.T, path string) image.Image {
	t.Helper()
	in, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()
	img, err := png.Decode(in)
	if err != nil {
		t.Fatal(err)
	}
	return img
}

func TestWriter_Present(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w, err := New(display.Options{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}

	f := newFrame(t, 8, 4, color.RGBA{200, 100, 50, 255})
	for i := uint64(1); i <= 3; i++ {
		if err := w.Present(f, fractal.FrameInfo{Index: i}); err != nil {
			t.Fatalf("Present(%d) error = %v", i, err)
		}
	}

	if w.Written() != 3 {
		t.Errorf("Written() = %d, want 3", w.Written())
	}
	img := decode(t, filepath.Join(dir, "frame-000002.png"))
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 4 {
		t.Errorf("bounds = %v", img.Bounds())
	}
	r, g, b, _ := img.At(3, 3).RGBA()
	if r>>8 != 200 || g>>8 != 100 || b>>8 != 50 {
		t.Errorf("pixel = %d,%d,%d", r>>8, g>>8, b>>8)
	}
}

func TestWriter_MaxWidth(t *testing.T) {
	dir := t.TempDir()
	w, err := New(display.Options{Dir: dir, MaxWidth: 10})
	if err != nil {
		t.Fatal(err)
	}

	if err := w.Present(newFrame(t, 40, 20, color.RGBA{255, 255, 255, 255}), fractal.FrameInfo{Index: 1}); err != nil {
		t.Fatal(err)
	}
	img := decode(t, w.Path(1))
	if img.Bounds().Dx() != 10 || img.Bounds().Dy() != 5 {
		t.Errorf("scaled bounds = %v, want 10x5", img.Bounds())
	}
}

func TestWriter_Closed(t *testing.T) {
	w, err := New(display.Options{Dir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	err = w.Present(newFrame(t, 2, 2, color.RGBA{}), fractal.FrameInfo{Index: 1})
	if !errors.Is(err, display.ErrClosed) {
		t.Errorf("Present after Close error = %v, want ErrClosed", err)
	}
}

func TestRegistered(t *testing.T) {
	if !display.IsRegistered(display.BackendPNG) {
		t.Fatal("png backend not registered")
	}
	d, err := display.Open(display.BackendPNG, display.Options{Dir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := d.(*Writer); !ok {
		t.Errorf("Open returned %T", d)
	}
}

func TestEngineIntegration(t *testing.T) {
	w, err := New(display.Options{Dir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	e, err := fractal.New(32, 24, fractal.WithWorkers(2), fractal.WithDisplay(w))
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	for i := range 2 {
		if _, err := e.RenderFrame(float64(i), 0.1); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := os.Stat(w.Path(2)); err != nil {
		t.Errorf("second frame not written: %v", err)
	}
}
