// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package config loads fractal presets and viewer settings from TOML.
//
// A configuration file holds viewer settings at the top level and a list
// of presets:
//
//	width = 1024
//	height = 768
//	strategy = "tiles"
//
//	[[presets]]
//	name = "dragon"
//	generator = "julia"
//	dynamic = true
//	speed = 0.5
//	center = { x = 0.0, y = 0.0 }
//	dpp = 0.004
//	max_iter = 120
//	julia = { x = -0.8, y = 0.156 }
//
// Zero values mean "not set". Fallback fills unset fields from another
// configuration (usually Default), and Override applies the set fields of
// another configuration (usually command-line flags).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/gogpu/fractal"
	"github.com/gogpu/fractal/generator"
	"github.com/gogpu/fractal/internal/parallel"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("config: invalid configuration")

// Default viewer settings.
const (
	DefaultWidth     = 800
	DefaultHeight    = 600
	DefaultZoom      = 2.0
	DefaultTranslate = 0.25
	DefaultStep      = 10
	DefaultSpeedStep = 0.1

	// DefaultPresetMaxIter is used for presets without max_iter.
	DefaultPresetMaxIter = 50
)

// Point is a plane coordinate.
type Point struct {
	X float64 `toml:"x"`
	Y float64 `toml:"y"`
}

// Preset is a named starting point for the viewer.
type Preset struct {
	Name      string  `toml:"name"`
	Generator string  `toml:"generator"`
	Dynamic   bool    `toml:"dynamic"`
	Speed     float64 `toml:"speed"`
	Center    Point   `toml:"center"`
	DPP       float64 `toml:"dpp"`
	MaxIter   int     `toml:"max_iter"`
	Julia     Point   `toml:"julia"`
	N         int     `toml:"n"`
}

// Config is the full viewer configuration.
type Config struct {
	Width     int      `toml:"width"`
	Height    int      `toml:"height"`
	Zoom      float64  `toml:"zoom"`
	Translate float64  `toml:"translate"`
	MaxIter   int      `toml:"max_iter"`
	Step      int      `toml:"step"`
	Speed     float64  `toml:"speed"`
	SpeedStep float64  `toml:"speed_step"`
	Workers   int      `toml:"workers"`
	Strategy  string   `toml:"strategy"`
	Preset    int      `toml:"preset"`
	Presets   []Preset `toml:"presets"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Width:     DefaultWidth,
		Height:    DefaultHeight,
		Zoom:      DefaultZoom,
		Translate: DefaultTranslate,
		Step:      DefaultStep,
		SpeedStep: DefaultSpeedStep,
		Strategy:  parallel.RowBands.String(),
		Presets: []Preset{
			{
				Name:      "mandelbrot",
				Generator: generator.Mandelbrot.String(),
				Center:    Point{X: fractal.DefaultCenterX, Y: fractal.DefaultCenterY},
				DPP:       fractal.DefaultDensity,
				MaxIter:   DefaultPresetMaxIter,
			},
			{
				Name:      "julia",
				Generator: generator.Julia.String(),
				DPP:       0.00425,
				MaxIter:   DefaultPresetMaxIter,
				Julia:     Point{X: fractal.DefaultJuliaX, Y: fractal.DefaultJuliaY},
			},
			{
				Name:      "julia-dynamic",
				Generator: generator.Julia.String(),
				Dynamic:   true,
				Speed:     0.5,
				DPP:       0.00425,
				MaxIter:   80,
				Julia:     Point{X: 0.7885, Y: 0.7885},
			},
			{
				Name:      "multiset",
				Generator: generator.JuliaMultiset.String(),
				DPP:       0.004,
				MaxIter:   DefaultPresetMaxIter,
				Julia:     Point{X: 0.4, Y: 0.2},
				N:         3,
			},
		},
	}
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return cfg, nil
}

// Parse decodes a TOML document. Presets without a max_iter (or with 0) get
// DefaultPresetMaxIter. Unknown keys are logged and ignored.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg)
	if err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}

	for i := range cfg.Presets {
		if cfg.Presets[i].MaxIter == 0 {
			cfg.Presets[i].MaxIter = DefaultPresetMaxIter
		}
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		fractal.Logger().Warn("config: unknown keys ignored", "keys", strings.Join(keys, ", "))
	}

	return &cfg, nil
}

// Encode writes the configuration as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Fallback fills every unset field of c from src. Presets are copied only
// when c has none, together with the selected preset index.
func (c *Config) Fallback(src *Config) {
	if src == nil {
		return
	}

	fallback(&c.Width, src.Width)
	fallback(&c.Height, src.Height)
	fallback(&c.Zoom, src.Zoom)
	fallback(&c.Translate, src.Translate)
	fallback(&c.MaxIter, src.MaxIter)
	fallback(&c.Step, src.Step)
	fallback(&c.Speed, src.Speed)
	fallback(&c.SpeedStep, src.SpeedStep)
	fallback(&c.Workers, src.Workers)
	fallback(&c.Strategy, src.Strategy)

	if len(c.Presets) == 0 {
		c.Presets = append([]Preset(nil), src.Presets...)
		c.Preset = src.Preset
	}
	c.clampPreset()
}

// Override applies every set field of src to c. A set max_iter or speed
// also replaces the value of every preset.
func (c *Config) Override(src *Config) {
	if src == nil {
		return
	}

	override(&c.Width, src.Width)
	override(&c.Height, src.Height)
	override(&c.Zoom, src.Zoom)
	override(&c.Translate, src.Translate)
	override(&c.MaxIter, src.MaxIter)
	override(&c.Step, src.Step)
	override(&c.Speed, src.Speed)
	override(&c.SpeedStep, src.SpeedStep)
	override(&c.Workers, src.Workers)
	override(&c.Strategy, src.Strategy)
	override(&c.Preset, src.Preset)

	for i := range c.Presets {
		if src.MaxIter != 0 {
			c.Presets[i].MaxIter = src.MaxIter
		}
		if src.Speed != 0 {
			c.Presets[i].Speed = src.Speed
		}
	}
	c.clampPreset()
}

// clampPreset resets an out-of-range preset index to the first preset.
func (c *Config) clampPreset() {
	if c.Preset < 0 || c.Preset >= len(c.Presets) {
		c.Preset = 0
	}
}

func fallback[T comparable](dst *T, src T) {
	var zero T
	if *dst == zero {
		*dst = src
	}
}

func override[T comparable](dst *T, src T) {
	var zero T
	if src != zero {
		*dst = src
	}
}

// Validate checks the configuration for values the viewer cannot use.
func (c *Config) Validate() error {
	var errs []error

	if c.Width < 0 || c.Height < 0 {
		errs = append(errs, fmt.Errorf("%w: size %dx%d", ErrInvalid, c.Width, c.Height))
	}
	if c.MaxIter < 0 || c.Step < 0 {
		errs = append(errs, fmt.Errorf("%w: max_iter %d, step %d", ErrInvalid, c.MaxIter, c.Step))
	}
	if c.Zoom < 0 || c.Translate < 0 {
		errs = append(errs, fmt.Errorf("%w: zoom %v, translate %v", ErrInvalid, c.Zoom, c.Translate))
	}
	if c.Strategy != "" {
		if _, err := parallel.ParseStrategy(c.Strategy); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", ErrInvalid, err))
		}
	}
	if len(c.Presets) == 0 {
		errs = append(errs, fmt.Errorf("%w: no presets", ErrInvalid))
	} else if c.Preset < 0 || c.Preset >= len(c.Presets) {
		errs = append(errs, fmt.Errorf("%w: preset %d out of range [0,%d)", ErrInvalid, c.Preset, len(c.Presets)))
	}
	for i, p := range c.Presets {
		if _, err := p.Params(); err != nil {
			errs = append(errs, fmt.Errorf("%w: preset %d (%s): %w", ErrInvalid, i, p.Name, err))
		}
	}

	return errors.Join(errs...)
}

// StrategyValue returns the parsed partition strategy, RowBands if unset.
func (c *Config) StrategyValue() (fractal.Strategy, error) {
	if c.Strategy == "" {
		return fractal.RowBands, nil
	}
	return fractal.ParseStrategy(c.Strategy)
}

// Active returns the selected preset.
func (c *Config) Active() (Preset, error) {
	if c.Preset < 0 || c.Preset >= len(c.Presets) {
		return Preset{}, fmt.Errorf("%w: preset %d out of range [0,%d)", ErrInvalid, c.Preset, len(c.Presets))
	}
	return c.Presets[c.Preset], nil
}

// Find returns the preset with the given name.
func (c *Config) Find(name string) (int, bool) {
	for i, p := range c.Presets {
		if strings.EqualFold(p.Name, name) {
			return i, true
		}
	}
	return 0, false
}

// Params converts the preset into engine parameters.
// An empty generator means Mandelbrot, a zero dpp the default density and
// a zero n the default power.
func (p Preset) Params() (fractal.Params, error) {
	params := fractal.DefaultParams()

	if p.Generator != "" {
		kind, err := generator.ParseKind(p.Generator)
		if err != nil {
			return params, err
		}
		params.Kind = kind
	}

	if p.DPP < 0 {
		return params, fmt.Errorf("%w: %v", fractal.ErrInvalidDensity, p.DPP)
	}
	if p.DPP > 0 {
		params.Density = p.DPP
	}
	if p.MaxIter < 0 {
		return params, fmt.Errorf("%w: %d", fractal.ErrInvalidMaxIter, p.MaxIter)
	}

	params.CenterX, params.CenterY = p.Center.X, p.Center.Y
	params.MaxIter = p.MaxIter
	params.Animated = p.Dynamic
	params.Speed = p.Speed
	params.JuliaX, params.JuliaY = p.Julia.X, p.Julia.Y
	if p.N != 0 {
		params.Power = p.N
	}

	return params, nil
}

// EngineOptions returns the engine options for the active preset and the
// viewer settings.
func (c *Config) EngineOptions() ([]fractal.Option, error) {
	preset, err := c.Active()
	if err != nil {
		return nil, err
	}
	params, err := preset.Params()
	if err != nil {
		return nil, fmt.Errorf("%w: preset %q: %w", ErrInvalid, preset.Name, err)
	}
	strategy, err := c.StrategyValue()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	return []fractal.Option{
		fractal.WithParams(params),
		fractal.WithStrategy(strategy),
		fractal.WithWorkers(c.Workers),
	}, nil
}
