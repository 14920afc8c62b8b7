// Package background estimates a smooth background intensity surface over a
// 2D detector image. It provides two gap fillers for masked pixel regions
// (a summed-area box filler and a resolution-adaptive Gaussian filler) and a
// per-region scale fitter that adapts a global background model to observed
// shoebox data.
package background

import (
	"fmt"

	"github.com/xtal-data/background.surface/internal/grid"
)

// FillGaps fills masked-out pixels by iterative box averaging. Each
// iteration replaces every invalid pixel with the box sum of the current
// image divided by the full window area (2*halfX+1)*(2*halfY+1). The
// denominator is deliberately the full window area rather than the count of
// valid pixels in the window; filled values from earlier iterations
// contribute to later ones, giving a diffusion-like relaxation.
//
// iterations == 0 returns a copy of the input. An all-valid mask returns the
// input unchanged for any iteration count.
func FillGaps(data *grid.Grid, mask *grid.BoolGrid, halfX, halfY, iterations int) (*grid.Grid, error) {
	if !mask.SameShape(data.W, data.H) {
		return nil, fmt.Errorf("fill gaps: mask %dx%d vs data %dx%d: %w",
			mask.W, mask.H, data.W, data.H, ErrShapeMismatch)
	}
	if halfX < 0 || halfY < 0 {
		return nil, fmt.Errorf("fill gaps: half window (%d, %d) must be non-negative", halfX, halfY)
	}

	totalSize := float64((2*halfX + 1) * (2*halfY + 1))
	result := data.Clone()
	for iter := 0; iter < iterations; iter++ {
		summed, err := grid.SummedArea(result, halfX, halfY)
		if err != nil {
			return nil, fmt.Errorf("fill gaps: %w", err)
		}
		for idx := range result.Data {
			if !mask.Data[idx] {
				result.Data[idx] = summed.Data[idx] / totalSize
			}
		}
	}
	return result, nil
}
