package background

import (
	"fmt"

	"github.com/xtal-data/background.surface/internal/grid"
)

// FailedScale is the sentinel scale recorded for a shoebox whose fit failed.
const FailedScale = -1.0

// FitResult is the outcome of fitting one shoebox. A failed fit carries the
// sentinel scale and a non-nil error; failures never abort the batch.
type FitResult struct {
	Scale float64
	Err   error
}

// Fitter scales a precomputed full-detector background model to the
// observed data of each shoebox.
type Fitter struct {
	model *grid.Grid
}

// NewFitter copies the background model image; the caller's grid is not
// retained.
func NewFitter(model *grid.Grid) *Fitter {
	return &Fitter{model: model.Clone()}
}

// ComputeBackground fits one scale per shoebox and writes the scaled model
// into each shoebox's background buffer in place. Shoeboxes fail
// independently: a degenerate model window or inconsistent buffers mark that
// result with FailedScale and the batch continues.
func (f *Fitter) ComputeBackground(sboxes []*Shoebox) []FitResult {
	results := make([]FitResult, len(sboxes))
	for i, sbox := range sboxes {
		scale, err := f.compute(sbox)
		if err != nil {
			results[i] = FitResult{Scale: FailedScale, Err: err}
			continue
		}
		results[i] = FitResult{Scale: scale}
	}
	return results
}

// compute fits a single shoebox. The model sub-window is aligned with the
// shoebox (x, y) bounding box; sub-window pixels outside the model bounds
// contribute zero. The scale matches total observed flux to total model
// flux: scale = sumObserved / (frames * sumModel).
func (f *Fitter) compute(sbox *Shoebox) (float64, error) {
	if !sbox.IsConsistent() {
		return 0, fmt.Errorf("fit shoebox %v: %w", sbox.BBox, ErrInconsistentRegion)
	}

	xs := sbox.XSize()
	ys := sbox.YSize()
	zs := sbox.ZSize()

	model := grid.NewGrid(xs, ys)
	sumM := 0.0
	for j := 0; j < ys; j++ {
		for i := 0; i < xs; i++ {
			jj := sbox.BBox[2] + j
			ii := sbox.BBox[0] + i
			if jj >= 0 && ii >= 0 && jj < f.model.H && ii < f.model.W {
				v := f.model.At(jj, ii)
				model.Set(j, i, v)
				sumM += v
			}
		}
	}
	if sumM <= 0 {
		return 0, fmt.Errorf("fit shoebox %v: model window sum %g: %w", sbox.BBox, sumM, ErrDegenerateModel)
	}

	sumB := 0.0
	for idx, v := range sbox.Data {
		if sbox.Mask[idx] {
			sumB += v
		}
	}
	scale := sumB / (float64(zs) * sumM)

	for j := 0; j < ys; j++ {
		for i := 0; i < xs; i++ {
			value := model.At(j, i) * scale
			for k := 0; k < zs; k++ {
				sbox.Background[sbox.Index(k, j, i)] = value
			}
		}
	}
	return scale, nil
}
