// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package display

import (
	"errors"
	"image"
	"slices"
	"testing"
	"time"

	"github.com/gogpu/fractal"
)

// nullDisplay is a Display that counts presented frames.
type nullDisplay struct {
	presented int
	closed    bool
}

func (d *nullDisplay) Present(*fractal.Frame, fractal.FrameInfo) error {
	d.presented++
	return nil
}

func (d *nullDisplay) Close() error {
	d.closed = true
	return nil
}

// runnerDisplay is a Display that owns the loop.
type runnerDisplay struct {
	nullDisplay
	ran bool
}

func (d *runnerDisplay) Run(step func() error) error {
	d.ran = true
	for {
		if err := step(); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
}

// registerTemp registers a backend for the duration of the test.
func registerTemp(t *testing.T, name string, f Factory) {
	t.Helper()
	Register(name, f)
	t.Cleanup(func() { Unregister(name) })
}

// =============================================================================
// Registry Tests
// =============================================================================

func TestRegistry_RegisterOpen(t *testing.T) {
	d := &nullDisplay{}
	registerTemp(t, "test-null", func(Options) (fractal.Display, error) { return d, nil })

	if !IsRegistered("test-null") {
		t.Fatal("IsRegistered(test-null) = false")
	}
	if !slices.Contains(Available(), "test-null") {
		t.Errorf("Available() = %v, missing test-null", Available())
	}

	got, err := Open("test-null", Options{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got != d {
		t.Error("Open() returned a different display")
	}
}

func TestRegistry_UnknownBackend(t *testing.T) {
	if _, err := Open("does-not-exist", Options{}); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Open() error = %v, want ErrUnknownBackend", err)
	}
}

func TestRegistry_FactoryError(t *testing.T) {
	boom := errors.New("no tty")
	registerTemp(t, "test-broken", func(Options) (fractal.Display, error) { return nil, boom })

	if _, err := Open("test-broken", Options{}); !errors.Is(err, boom) {
		t.Errorf("Open() error = %v, want wrapped factory error", err)
	}
}

func TestRegistry_AvailableSorted(t *testing.T) {
	registerTemp(t, "test-b", func(Options) (fractal.Display, error) { return &nullDisplay{}, nil })
	registerTemp(t, "test-a", func(Options) (fractal.Display, error) { return &nullDisplay{}, nil })

	if names := Available(); !slices.IsSorted(names) {
		t.Errorf("Available() = %v, not sorted", names)
	}
}

func TestOpenDefault_PriorityAndFallback(t *testing.T) {
	// Save and clear any real backends registered by other packages.
	registryMu.Lock()
	saved := factories
	factories = make(map[string]Factory)
	registryMu.Unlock()
	t.Cleanup(func() {
		registryMu.Lock()
		factories = saved
		registryMu.Unlock()
	})

	if _, _, err := OpenDefault(Options{}); !errors.Is(err, ErrNoBackend) {
		t.Errorf("OpenDefault() with no backends error = %v, want ErrNoBackend", err)
	}

	failing := errors.New("no display")
	Register(BackendWindow, func(Options) (fractal.Display, error) { return nil, failing })
	Register(BackendPNG, func(Options) (fractal.Display, error) { return &nullDisplay{}, nil })
	Register("zz-extra", func(Options) (fractal.Display, error) { return &nullDisplay{}, nil })

	_, name, err := OpenDefault(Options{})
	if err != nil {
		t.Fatalf("OpenDefault() error = %v", err)
	}
	if name != BackendPNG {
		t.Errorf("OpenDefault() chose %q, want %q", name, BackendPNG)
	}

	Unregister(BackendPNG)
	_, name, err = OpenDefault(Options{})
	if err != nil || name != "zz-extra" {
		t.Errorf("OpenDefault() = %q, %v; want zz-extra", name, err)
	}
}

// =============================================================================
// Loop Tests
// =============================================================================

func TestLoop_Ticker(t *testing.T) {
	d := &nullDisplay{}
	calls := 0
	err := Loop(d, Options{FPS: 1000}, func() error {
		calls++
		if calls == 5 {
			return ErrStop
		}
		return nil
	})
	if err != nil {
		t.Errorf("Loop() error = %v, want nil on ErrStop", err)
	}
	if calls != 5 {
		t.Errorf("step called %d times, want 5", calls)
	}
}

func TestLoop_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	err := Loop(&nullDisplay{}, Options{FPS: 1000}, func() error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("Loop() error = %v, want boom", err)
	}
}

func TestLoop_DelegatesToRunner(t *testing.T) {
	d := &runnerDisplay{}
	calls := 0
	err := Loop(d, Options{}, func() error {
		calls++
		if calls == 3 {
			return ErrStop
		}
		return nil
	})
	if err != nil || !d.ran || calls != 3 {
		t.Errorf("Loop() = %v, ran = %v, calls = %d", err, d.ran, calls)
	}
}

func TestOptions_Interval(t *testing.T) {
	if got := (Options{}).Interval(); got != time.Second/DefaultFPS {
		t.Errorf("Interval() = %v", got)
	}
	if got := (Options{FPS: 50}).Interval(); got != 20*time.Millisecond {
		t.Errorf("Interval() = %v", got)
	}
}

func TestScale(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	if Scale(img, 0) != img || Scale(img, 40) != img || Scale(img, 100) != img {
		t.Error("Scale should return the input when no scaling is needed")
	}

	got := Scale(img, 10)
	if got.Bounds() != image.Rect(0, 0, 10, 5) {
		t.Errorf("Scale bounds = %v, want 10x5", got.Bounds())
	}

	thin := Scale(image.NewRGBA(image.Rect(0, 0, 100, 1)), 10)
	if thin.Bounds().Dy() != 1 {
		t.Errorf("Scale height = %d, want at least 1", thin.Bounds().Dy())
	}
}
