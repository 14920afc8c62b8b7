// Package polar reprojects detector images into a non-uniform (radius,
// azimuth) grid aligned with the incident beam direction. The sampling
// density is derived from the panel geometry so the polar grid never
// under-samples the most tightly curved region of the detector.
package polar

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/xtal-data/background.surface/internal/geom"
	"github.com/xtal-data/background.surface/internal/grid"
)

// poleCutoff excludes near-pole corner samples from the step-size scan,
// where adjacent-corner azimuth differences become singular.
const poleCutoff = 0.01

// Extents describes the derived polar sampling grid. It is reported to the
// construction trace hook and available from Transform.Extents.
type Extents struct {
	MinR, MaxR   float64
	MinA, MaxA   float64
	StepR, StepA float64
	CountR       int
	CountA       int
	Axis         r3.Vec
	Angle        float64
}

// Transform maps between a panel's cartesian pixel grid and a beam-aligned
// polar grid. It is constructed once per (beam, panel) pair and may be
// reused across many images.
type Transform struct {
	panel geom.Panel
	w, h  int

	// rc, ac hold the polar angle and azimuth of every pixel corner on a
	// (h+1)x(w+1) grid in the beam-aligned frame.
	rc, ac *grid.Grid

	ext Extents
}

// NewTransform builds the polar sampling grid for the given geometry. The
// optional trace hook is invoked once with the derived extents (replacing
// ad-hoc console output during tuning).
func NewTransform(beam geom.Beam, panel geom.Panel, trace func(Extents)) (*Transform, error) {
	w, h := panel.ImageSize()
	t := &Transform{
		panel: panel,
		w:     w,
		h:     h,
		rc:    grid.NewGrid(w+1, h+1),
		ac:    grid.NewGrid(w+1, h+1),
	}

	// Rotation aligning the beam's forward direction with +z. Identity when
	// already aligned.
	s0 := beam.S0()
	zAxis := r3.Vec{Z: 1}
	angle := geom.Angle(s0, zAxis)
	axis := zAxis
	if angle != 0 {
		axis = r3.Unit(r3.Cross(s0, zAxis))
	}
	rot := r3.NewRotation(angle, axis)

	for j := 0; j <= h; j++ {
		for i := 0; i <= w; i++ {
			xyz := rot.Rotate(r3.Unit(panel.PixelLabCoord(float64(i), float64(j))))
			t.rc.Set(j, i, math.Acos(clamp1(xyz.Z)))
			t.ac.Set(j, i, math.Atan2(xyz.Y, xyz.X))
		}
	}

	minR, maxR := minMax(t.rc.Data)
	minA, maxA := minMax(t.ac.Data)

	// For each axis take the smallest value that still bounds the local
	// angular change between any two adjacent corners, skipping near-pole
	// samples, then double it as a safety margin.
	stepR := maxR - minR
	stepA := maxA - minA
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			if t.rc.At(j, i) <= poleCutoff {
				continue
			}
			r1 := math.Abs(t.rc.At(j, i) - t.rc.At(j+1, i))
			r2 := math.Abs(t.rc.At(j, i) - t.rc.At(j, i+1))
			a1 := math.Abs(t.ac.At(j, i) - t.ac.At(j+1, i))
			a2 := math.Abs(t.ac.At(j, i) - t.ac.At(j, i+1))
			stepR = math.Min(stepR, math.Max(r1, r2))
			stepA = math.Min(stepA, math.Max(a1, a2))
		}
	}
	stepR *= 2
	stepA *= 2
	if stepR <= 0 || stepA <= 0 || math.IsNaN(stepR) || math.IsNaN(stepA) {
		return nil, fmt.Errorf("polar transform: degenerate step sizes (%g, %g)", stepR, stepA)
	}

	t.ext = Extents{
		MinR: minR, MaxR: maxR,
		MinA: minA, MaxA: maxA,
		StepR: stepR, StepA: stepA,
		CountR: int((maxR - minR) / stepR),
		CountA: int((maxA - minA) / stepA),
		Axis:   axis,
		Angle:  angle,
	}
	if t.ext.CountR <= 0 || t.ext.CountA <= 0 {
		return nil, fmt.Errorf("polar transform: empty sampling grid (%d x %d)", t.ext.CountR, t.ext.CountA)
	}
	if trace != nil {
		trace(t.ext)
	}
	return t, nil
}

// Extents returns the derived sampling grid parameters.
func (t *Transform) Extents() Extents { return t.ext }

// XY converts a polar-grid coordinate (rIndex, aIndex) to a cartesian pixel
// coordinate by intersecting the corresponding lab-frame ray with the panel.
func (t *Transform) XY(rIndex, aIndex float64) (x, y float64, err error) {
	r := t.ext.MinR + rIndex*t.ext.StepR
	a := t.ext.MinA + aIndex*t.ext.StepA
	dir := r3.Vec{
		X: math.Sin(r) * math.Cos(a),
		Y: math.Sin(r) * math.Sin(a),
		Z: math.Cos(r),
	}
	back := r3.NewRotation(-t.ext.Angle, t.ext.Axis)
	return t.panel.RayIntersection(back.Rotate(dir))
}

// XY2 converts a cartesian pixel coordinate (pj, pi) to its fractional
// polar-grid coordinate, returned as (aIndex, rIndex).
func (t *Transform) XY2(pj, pi float64) (aIndex, rIndex float64) {
	rot := r3.NewRotation(t.ext.Angle, t.ext.Axis)
	xyz := rot.Rotate(r3.Unit(t.panel.PixelLabCoord(pi, pj)))
	r := math.Acos(clamp1(xyz.Z))
	a := math.Atan2(xyz.Y, xyz.X)
	return (a - t.ext.MinA) / t.ext.StepA, (r - t.ext.MinR) / t.ext.StepR
}

// ToPolar resamples a cartesian image onto the polar grid. Each polar cell
// samples its centre via XY; the sample is accepted only when it falls
// strictly inside the image interior and all four surrounding pixels are
// mask-valid. Rejected cells keep zero value and an invalid mask.
func (t *Transform) ToPolar(data *grid.Grid, mask *grid.BoolGrid) (*grid.Grid, *grid.BoolGrid, error) {
	if !data.SameShape(t.w, t.h) {
		return nil, nil, fmt.Errorf("to polar: data %dx%d vs panel %dx%d", data.W, data.H, t.w, t.h)
	}
	if !mask.SameShape(data.W, data.H) {
		return nil, nil, fmt.Errorf("to polar: mask %dx%d vs data %dx%d", mask.W, mask.H, data.W, data.H)
	}
	result := grid.NewGrid(t.ext.CountA, t.ext.CountR)
	resultMask := grid.NewBoolGrid(t.ext.CountA, t.ext.CountR)
	for j := 0; j < t.ext.CountR; j++ {
		for i := 0; i < t.ext.CountA; i++ {
			x, y, err := t.XY(float64(j)+0.5, float64(i)+0.5)
			if err != nil {
				continue
			}
			if x < 0 || y < 0 || x >= float64(data.W-1) || y >= float64(data.H-1) {
				continue
			}
			x0 := int(math.Floor(x))
			y0 := int(math.Floor(y))
			x1 := x0 + 1
			y1 := y0 + 1
			if !mask.At(y0, x0) || !mask.At(y0, x1) || !mask.At(y1, x0) || !mask.At(y1, x1) {
				continue
			}
			px := x - float64(x0)
			py := y - float64(y0)
			f00 := data.At(y0, x0)
			f01 := data.At(y0, x1)
			f10 := data.At(y1, x0)
			f11 := data.At(y1, x1)
			result.Set(j, i, f00*(1-px)*(1-py)+f01*px*(1-py)+f10*(1-px)*py+f11*px*py)
			resultMask.Set(j, i, true)
		}
	}
	return result, resultMask, nil
}

// ToCartesian resamples a polar-grid image back onto the panel's pixel grid.
// Pixels whose polar coordinate falls outside the grid interior stay zero;
// no mask is propagated.
func (t *Transform) ToCartesian(polar *grid.Grid) (*grid.Grid, error) {
	if !polar.SameShape(t.ext.CountA, t.ext.CountR) {
		return nil, fmt.Errorf("to cartesian: polar %dx%d vs grid %dx%d",
			polar.W, polar.H, t.ext.CountA, t.ext.CountR)
	}
	result := grid.NewGrid(t.w, t.h)
	for j := 0; j < t.h; j++ {
		for i := 0; i < t.w; i++ {
			x, y := t.XY2(float64(j)+0.5, float64(i)+0.5)
			if x < 0 || y < 0 || x >= float64(polar.W-1) || y >= float64(polar.H-1) {
				continue
			}
			x0 := int(math.Floor(x))
			y0 := int(math.Floor(y))
			x1 := x0 + 1
			y1 := y0 + 1
			px := x - float64(x0)
			py := y - float64(y0)
			f00 := polar.At(y0, x0)
			f01 := polar.At(y0, x1)
			f10 := polar.At(y1, x0)
			f11 := polar.At(y1, x1)
			result.Set(j, i, f00*(1-px)*(1-py)+f01*px*(1-py)+f10*(1-px)*py+f11*px*py)
		}
	}
	return result, nil
}

func clamp1(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

func minMax(xs []float64) (lo, hi float64) {
	lo = math.Inf(1)
	hi = math.Inf(-1)
	for _, v := range xs {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
