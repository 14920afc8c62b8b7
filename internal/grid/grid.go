// Package grid provides 2D row-major array types and the pure array helpers
// (summed-area tables, row medians) used by the background estimation
// pipeline. Grids are addressed as (row j, column i) with index j*W+i,
// matching the flat cell layout used throughout the repo.
package grid

import (
	"fmt"
)

// Grid is a row-major 2D array of float64 values.
type Grid struct {
	W, H int
	Data []float64
}

// NewGrid allocates a zeroed W×H grid.
func NewGrid(w, h int) *Grid {
	return &Grid{W: w, H: h, Data: make([]float64, w*h)}
}

// Idx returns the flat index for (row j, column i).
func (g *Grid) Idx(j, i int) int { return j*g.W + i }

// At returns the value at (row j, column i).
func (g *Grid) At(j, i int) float64 { return g.Data[j*g.W+i] }

// Set stores v at (row j, column i).
func (g *Grid) Set(j, i int, v float64) { g.Data[j*g.W+i] = v }

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	out := &Grid{W: g.W, H: g.H, Data: make([]float64, len(g.Data))}
	copy(out.Data, g.Data)
	return out
}

// SameShape reports whether both grids have identical dimensions.
func (g *Grid) SameShape(w, h int) bool { return g.W == w && g.H == h }

// BoolGrid is a row-major 2D array of validity flags (true = valid).
type BoolGrid struct {
	W, H int
	Data []bool
}

// NewBoolGrid allocates a W×H grid with every pixel invalid.
func NewBoolGrid(w, h int) *BoolGrid {
	return &BoolGrid{W: w, H: h, Data: make([]bool, w*h)}
}

// NewBoolGridFilled allocates a W×H grid with every pixel set to v.
func NewBoolGridFilled(w, h int, v bool) *BoolGrid {
	g := NewBoolGrid(w, h)
	if v {
		for i := range g.Data {
			g.Data[i] = true
		}
	}
	return g
}

// At returns the flag at (row j, column i).
func (g *BoolGrid) At(j, i int) bool { return g.Data[j*g.W+i] }

// Set stores v at (row j, column i).
func (g *BoolGrid) Set(j, i int, v bool) { g.Data[j*g.W+i] = v }

// SameShape reports whether both grids have identical dimensions.
func (g *BoolGrid) SameShape(w, h int) bool { return g.W == w && g.H == h }

// IntGrid is a row-major 2D array of integer-coded mask values. Codes >= 0
// denote pixels eligible to contribute to neighbourhood computations; code 0
// marks a fill target.
type IntGrid struct {
	W, H int
	Data []int
}

// NewIntGrid allocates a zeroed W×H grid.
func NewIntGrid(w, h int) *IntGrid {
	return &IntGrid{W: w, H: h, Data: make([]int, w*h)}
}

// At returns the code at (row j, column i).
func (g *IntGrid) At(j, i int) int { return g.Data[j*g.W+i] }

// Set stores v at (row j, column i).
func (g *IntGrid) Set(j, i int, v int) { g.Data[j*g.W+i] = v }

// SameShape reports whether both grids have identical dimensions.
func (g *IntGrid) SameShape(w, h int) bool { return g.W == w && g.H == h }

// checkShape returns a descriptive error when (w,h) differs from (ew,eh).
func checkShape(what string, w, h, ew, eh int) error {
	if w != ew || h != eh {
		return fmt.Errorf("%s shape %dx%d does not match %dx%d", what, w, h, ew, eh)
	}
	return nil
}
