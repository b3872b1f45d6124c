// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package display

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/fractal"
)

// Factory opens a backend.
type Factory func(Options) (fractal.Display, error)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
	// Priority order for OpenDefault (first that opens wins).
	// Interactive outputs first, the PNG sink last.
	backendPriority = []string{BackendWindow, BackendTerm, BackendPNG}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// A backend registered under an existing name replaces it.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the registered backend names in sorted order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Open opens the named backend.
func Open(name string, opts Options) (fractal.Display, error) {
	registryMu.RLock()
	factory, ok := factories[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownBackend, name, Available())
	}

	d, err := factory(opts)
	if err != nil {
		return nil, fmt.Errorf("display: open %s: %w", name, err)
	}

	fractal.Logger().Info("display: backend opened", "backend", name)
	return d, nil
}

// OpenDefault opens the first backend in priority order that succeeds,
// falling back to any other registered backend.
func OpenDefault(opts Options) (fractal.Display, string, error) {
	var errs []error

	tried := make(map[string]bool)
	try := func(name string) (fractal.Display, bool) {
		tried[name] = true
		d, err := Open(name, opts)
		if err != nil {
			errs = append(errs, err)
			fractal.Logger().Warn("display: backend unavailable", "backend", name, "err", err)
			return nil, false
		}
		return d, true
	}

	for _, name := range backendPriority {
		if !IsRegistered(name) {
			continue
		}
		if d, ok := try(name); ok {
			return d, name, nil
		}
	}

	for _, name := range Available() {
		if tried[name] {
			continue
		}
		if d, ok := try(name); ok {
			return d, name, nil
		}
	}

	return nil, "", errors.Join(append([]error{ErrNoBackend}, errs...)...)
}
