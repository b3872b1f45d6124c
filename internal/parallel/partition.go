// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package parallel provides the persistent worker pool and the pixel
// partitioning used by the software fractal renderer.
//
// A frame is split into disjoint rectangles, one set per worker, by a
// Strategy. The resulting Plan is computed once per frame size and pool
// size and handed to WorkerPool.Dispatch for every frame:
//
//	pool := parallel.NewWorkerPool(0)
//	defer pool.Close()
//
//	plan := parallel.InterleavedTiles.Partition(800, 600, pool.Workers())
//	err := pool.Dispatch(job, plan)
//
// Because the rectangles of a plan never overlap, workers write into the
// shared frame without locks.
package parallel

import (
	"errors"
	"fmt"
	"image"
	"strings"
)

// ErrUnknownStrategy is returned by ParseStrategy for unrecognized names.
var ErrUnknownStrategy = errors.New("parallel: unknown partition strategy")

// Strategy selects how a frame is split between workers.
type Strategy int

const (
	// RowBands gives worker i of n the rows [i*h/n, (i+1)*h/n).
	// Cheap to compute, but rows crossing an expensive part of the
	// fractal make some bands much slower than others.
	RowBands Strategy = iota

	// InterleavedTiles divides the frame into an n x n grid and gives
	// worker i the tile in column (i+row) mod n of every grid row, so
	// each worker samples the whole width and height of the frame.
	InterleavedTiles
)

// String returns the strategy name as accepted by ParseStrategy.
func (s Strategy) String() string {
	switch s {
	case RowBands:
		return "rows"
	case InterleavedTiles:
		return "tiles"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy converts "rows" or "tiles" to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "rows", "row", "bands":
		return RowBands, nil
	case "tiles", "tile", "interleaved":
		return InterleavedTiles, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// Plan assigns a list of disjoint rectangles to each worker.
// Plan[i] is the work of worker i. Empty rectangles are never included.
type Plan [][]image.Rectangle

// Partition splits a width x height frame between the given number of workers.
// Non-positive sizes yield a plan of empty assignments; workers <= 0 yields nil.
func (s Strategy) Partition(width, height, workers int) Plan {
	if workers <= 0 {
		return nil
	}

	plan := make(Plan, workers)
	if width <= 0 || height <= 0 {
		return plan
	}

	switch s {
	case InterleavedTiles:
		partitionTiles(plan, width, height)
	default:
		partitionRows(plan, width, height)
	}

	return plan
}

// partitionRows fills plan with one horizontal band per worker.
func partitionRows(plan Plan, width, height int) {
	n := len(plan)
	for i := range n {
		y0 := i * height / n
		y1 := (i + 1) * height / n
		if y0 == y1 {
			continue
		}
		plan[i] = append(plan[i], image.Rect(0, y0, width, y1))
	}
}

// partitionTiles fills plan with one tile per grid row per worker.
// For a fixed grid row the map i -> (i+row) mod n is a permutation of the
// columns, so every tile is owned by exactly one worker.
func partitionTiles(plan Plan, width, height int) {
	n := len(plan)
	for row := range n {
		y0 := row * height / n
		y1 := (row + 1) * height / n
		if y0 == y1 {
			continue
		}

		for i := range n {
			col := (i + row) % n
			x0 := col * width / n
			x1 := (col + 1) * width / n
			if x0 == x1 {
				continue
			}
			plan[i] = append(plan[i], image.Rect(x0, y0, x1, y1))
		}
	}
}

// Workers returns the number of workers the plan was built for.
func (p Plan) Workers() int {
	return len(p)
}

// Pixels returns the total number of pixels covered by the plan.
func (p Plan) Pixels() int {
	total := 0
	for _, regions := range p {
		for _, r := range regions {
			total += r.Dx() * r.Dy()
		}
	}
	return total
}

// WorkerPixels returns the number of pixels assigned to worker i.
// Returns 0 if i is out of range.
func (p Plan) WorkerPixels(i int) int {
	if i < 0 || i >= len(p) {
		return 0
	}
	total := 0
	for _, r := range p[i] {
		total += r.Dx() * r.Dy()
	}
	return total
}
