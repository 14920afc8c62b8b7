// Package sweep provides helpers for parameter sweep runs over the gap
// fillers: CSV range parsing and residual scoring against a reference
// surface.
package sweep

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xtal-data/background.surface/internal/grid"
)

// ParseCSVFloat64s parses a comma-separated list of float64 values.
// Returns nil, nil for empty input strings.
func ParseCSVFloat64s(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ParseCSVInts parses a comma-separated list of int values.
// Returns nil, nil for empty input strings.
func ParseCSVInts(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid int '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// MaskedRMS computes the root-mean-square difference between two grids over
// the pixels selected by sel (true = include). Returns 0 when no pixel is
// selected.
func MaskedRMS(a, b *grid.Grid, sel *grid.BoolGrid) (float64, error) {
	if a.W != b.W || a.H != b.H || a.W != sel.W || a.H != sel.H {
		return 0, fmt.Errorf("masked rms: shapes %dx%d, %dx%d, %dx%d differ",
			a.W, a.H, b.W, b.H, sel.W, sel.H)
	}
	sum := 0.0
	n := 0
	for idx := range a.Data {
		if !sel.Data[idx] {
			continue
		}
		d := a.Data[idx] - b.Data[idx]
		sum += d * d
		n++
	}
	if n == 0 {
		return 0, nil
	}
	return math.Sqrt(sum / float64(n)), nil
}

// Invert returns a mask with every flag flipped, selecting the complement
// pixel set.
func Invert(m *grid.BoolGrid) *grid.BoolGrid {
	out := grid.NewBoolGrid(m.W, m.H)
	for idx, v := range m.Data {
		out.Data[idx] = !v
	}
	return out
}
