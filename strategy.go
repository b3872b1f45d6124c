// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package fractal

import "github.com/gogpu/fractal/internal/parallel"

// Strategy selects how a frame is split between workers.
type Strategy = parallel.Strategy

const (
	// RowBands gives each worker one contiguous band of rows.
	RowBands = parallel.RowBands

	// InterleavedTiles gives each worker one tile of every grid row,
	// which balances expensive regions across workers.
	InterleavedTiles = parallel.InterleavedTiles
)

// ParseStrategy converts "rows" or "tiles" to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	return parallel.ParseStrategy(name)
}
