package background

import (
	"fmt"
	"math"

	"github.com/xtal-data/background.surface/internal/geom"
	"github.com/xtal-data/background.surface/internal/grid"
)

// AdaptiveFiller fills masked pixels with a Gaussian-weighted mean over a
// square window, where the weights act on the difference in crystallographic
// resolution rather than spatial distance. The per-pixel bandwidth is
// derived from the local resolution gradient, so smoothing tightens where
// resolution changes rapidly (near the beam centre) and relaxes in flatter
// regions.
//
// The resolution map is computed once from the beam and panel geometry and
// shared read-only across all Fill calls.
type AdaptiveFiller struct {
	resolution *grid.Grid

	// Trace, when non-nil, is invoked with the iteration index at the start
	// of every filtering pass.
	Trace func(iteration int)
}

// NewAdaptiveFiller precomputes the per-pixel resolution map for the given
// geometry. Resolutions are sampled at pixel centres.
func NewAdaptiveFiller(beam geom.Beam, panel geom.Panel) *AdaptiveFiller {
	w, h := panel.ImageSize()
	s0 := beam.S0()
	res := grid.NewGrid(w, h)
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			res.Set(j, i, panel.ResolutionAtPixel(s0, float64(i)+0.5, float64(j)+0.5))
		}
	}
	return &AdaptiveFiller{resolution: res}
}

// Resolution returns the precomputed resolution map. Callers must treat it
// as read-only.
func (f *AdaptiveFiller) Resolution() *grid.Grid { return f.resolution }

// sigmaMap derives the per-pixel Gaussian bandwidth for a run: the mean
// absolute resolution difference to the up/down/left/right neighbours that
// exist (2 to 4 of them), scaled by the caller's sigma.
func (f *AdaptiveFiller) sigmaMap(sigma float64) *grid.Grid {
	res := f.resolution
	out := grid.NewGrid(res.W, res.H)
	for j := 0; j < res.H; j++ {
		for i := 0; i < res.W; i++ {
			d0 := res.At(j, i)
			dsum := 0.0
			dcnt := 0.0
			if j > 0 {
				dsum += math.Abs(res.At(j-1, i) - d0)
				dcnt++
			}
			if i > 0 {
				dsum += math.Abs(res.At(j, i-1) - d0)
				dcnt++
			}
			if j < res.H-1 {
				dsum += math.Abs(res.At(j+1, i) - d0)
				dcnt++
			}
			if i < res.W-1 {
				dsum += math.Abs(res.At(j, i+1) - d0)
				dcnt++
			}
			out.Set(j, i, sigma*dsum/dcnt)
		}
	}
	return out
}

// Fill mutates data in place, replacing every invalid pixel (or every pixel
// when fillAll is set, used for full re-smoothing passes) with the weighted
// mean of its window. Pixels update sequentially within a pass, and each
// pass consumes the previous pass's output.
//
// A window with no contributing neighbours is a precondition violation and
// aborts the call with ErrDegenerateWindow; choose kernelRadius large enough
// for the mask sparsity.
func (f *AdaptiveFiller) Fill(data *grid.Grid, mask *grid.BoolGrid, sigma float64, kernelRadius, iterations int, fillAll bool) error {
	if !data.SameShape(f.resolution.W, f.resolution.H) {
		return fmt.Errorf("adaptive fill: data %dx%d vs panel %dx%d: %w",
			data.W, data.H, f.resolution.W, f.resolution.H, ErrShapeMismatch)
	}
	if !mask.SameShape(data.W, data.H) {
		return fmt.Errorf("adaptive fill: mask %dx%d vs data %dx%d: %w",
			mask.W, mask.H, data.W, data.H, ErrShapeMismatch)
	}
	sigmaImage := f.sigmaMap(sigma)
	for iter := 0; iter < iterations; iter++ {
		if f.Trace != nil {
			f.Trace(iter)
		}
		if err := f.fillPass(data, sigmaImage, kernelRadius, func(j, i int) bool {
			return fillAll || !mask.At(j, i)
		}, nil); err != nil {
			return err
		}
	}
	return nil
}

// FillCoded is the integer-coded mask variant. Pixels with code 0 are fill
// targets; a neighbour contributes only when its code is non-negative, so
// invalid classes (code < 0) are excluded from contributing while remaining
// distinguishable from targets.
func (f *AdaptiveFiller) FillCoded(data *grid.Grid, mask *grid.IntGrid, sigma float64, kernelRadius, iterations int) error {
	if !data.SameShape(f.resolution.W, f.resolution.H) {
		return fmt.Errorf("adaptive fill: data %dx%d vs panel %dx%d: %w",
			data.W, data.H, f.resolution.W, f.resolution.H, ErrShapeMismatch)
	}
	if !mask.SameShape(data.W, data.H) {
		return fmt.Errorf("adaptive fill: mask %dx%d vs data %dx%d: %w",
			mask.W, mask.H, data.W, data.H, ErrShapeMismatch)
	}
	sigmaImage := f.sigmaMap(sigma)
	for iter := 0; iter < iterations; iter++ {
		if f.Trace != nil {
			f.Trace(iter)
		}
		if err := f.fillPass(data, sigmaImage, kernelRadius, func(j, i int) bool {
			return mask.At(j, i) == 0
		}, func(j, i int) bool {
			return mask.At(j, i) >= 0
		}); err != nil {
			return err
		}
	}
	return nil
}

// fillPass runs one filtering pass. target selects pixels to recompute;
// contributes, when non-nil, additionally gates neighbour contributions.
// A neighbour (jj, ii) contributes only when jj != j and ii != i, which
// excludes the whole row and column through the centre, not just the centre
// pixel itself.
func (f *AdaptiveFiller) fillPass(data, sigmaImage *grid.Grid, kernelRadius int, target func(j, i int) bool, contributes func(j, i int) bool) error {
	h := data.H
	w := data.W
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			if !target(j, i) {
				continue
			}
			j0 := j - kernelRadius
			if j0 < 0 {
				j0 = 0
			}
			j1 := j + kernelRadius
			if j1 > h {
				j1 = h
			}
			i0 := i - kernelRadius
			if i0 < 0 {
				i0 = 0
			}
			i1 := i + kernelRadius
			if i1 > w {
				i1 = w
			}
			d0 := f.resolution.At(j, i)
			sigma := sigmaImage.At(j, i)
			kernelData := 0.0
			kernelSum := 0.0
			for jj := j0; jj < j1; jj++ {
				for ii := i0; ii < i1; ii++ {
					if jj == j || ii == i {
						continue
					}
					if contributes != nil && !contributes(jj, ii) {
						continue
					}
					d := f.resolution.At(jj, ii)
					weight := math.Exp(-(d - d0) * (d - d0) / (2 * sigma * sigma))
					kernelData += data.At(jj, ii) * weight
					kernelSum += weight
				}
			}
			if kernelSum <= 0 {
				return fmt.Errorf("adaptive fill: pixel (%d, %d) with kernel radius %d: %w",
					j, i, kernelRadius, ErrDegenerateWindow)
			}
			data.Set(j, i, kernelData/kernelSum)
		}
	}
	return nil
}
