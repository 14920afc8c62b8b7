// Package synthetic generates deterministic detector scenes for demos,
// parameter sweeps and tests: a flat-panel geometry, a smooth background
// surface and gap masks mimicking module boundaries and dead pixels.
package synthetic

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/xtal-data/background.surface/internal/geom"
	"github.com/xtal-data/background.surface/internal/grid"
)

// Geometry builds a beam and a perpendicular flat panel of the given pixel
// size with the beam centre at the panel centre. Distances are in mm,
// wavelength in angstroms.
func Geometry(w, h int, pixelSize, distance, wavelength float64) (*geom.MonoBeam, *geom.FlatPanel, error) {
	beam, err := geom.NewMonoBeam(r3.Vec{Z: 1}, wavelength)
	if err != nil {
		return nil, nil, err
	}
	origin := r3.Vec{
		X: -float64(w) / 2 * pixelSize,
		Y: -float64(h) / 2 * pixelSize,
		Z: distance,
	}
	panel, err := geom.NewFlatPanel(origin, r3.Vec{X: 1}, r3.Vec{Y: 1}, pixelSize, pixelSize, w, h)
	if err != nil {
		return nil, nil, err
	}
	return beam, panel, nil
}

// OffsetGeometry builds a beam and a panel fully offset to one side of the
// beam axis, so no pixel sits near the beam centre. Useful where the polar
// pole or diverging resolution values would otherwise fall on the panel.
func OffsetGeometry(w, h int, pixelSize, distance, wavelength float64) (*geom.MonoBeam, *geom.FlatPanel, error) {
	beam, err := geom.NewMonoBeam(r3.Vec{Z: 1}, wavelength)
	if err != nil {
		return nil, nil, err
	}
	origin := r3.Vec{
		X: float64(w) / 4 * pixelSize,
		Y: float64(h) / 4 * pixelSize,
		Z: distance,
	}
	panel, err := geom.NewFlatPanel(origin, r3.Vec{X: 1}, r3.Vec{Y: 1}, pixelSize, pixelSize, w, h)
	if err != nil {
		return nil, nil, err
	}
	return beam, panel, nil
}

// BackgroundImage evaluates a smooth scattering-angle dependent surface over
// the panel: a broad ring of scattered intensity on a constant baseline.
func BackgroundImage(beam geom.Beam, panel geom.Panel) *grid.Grid {
	w, h := panel.ImageSize()
	s0 := beam.S0()
	img := grid.NewGrid(w, h)
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			theta := geom.Angle(s0, panel.PixelLabCoord(float64(i)+0.5, float64(j)+0.5))
			// Ring centred at 2theta = 0.15 rad with a smooth falloff.
			d := (theta - 0.15) / 0.08
			img.Set(j, i, 20+80*math.Exp(-d*d))
		}
	}
	return img
}

// GapMask returns an all-valid mask with the given half-open row and column
// strips marked invalid, mimicking detector module gaps.
func GapMask(w, h int, rowStrips, colStrips [][2]int) *grid.BoolGrid {
	mask := grid.NewBoolGridFilled(w, h, true)
	for _, rs := range rowStrips {
		for j := rs[0]; j < rs[1] && j < h; j++ {
			if j < 0 {
				continue
			}
			for i := 0; i < w; i++ {
				mask.Set(j, i, false)
			}
		}
	}
	for _, cs := range colStrips {
		for i := cs[0]; i < cs[1] && i < w; i++ {
			if i < 0 {
				continue
			}
			for j := 0; j < h; j++ {
				mask.Set(j, i, false)
			}
		}
	}
	return mask
}

// ZeroGaps returns a copy of img with masked-out pixels zeroed, mimicking a
// raw image where gap pixels carry no signal.
func ZeroGaps(img *grid.Grid, mask *grid.BoolGrid) *grid.Grid {
	out := img.Clone()
	for idx := range out.Data {
		if !mask.Data[idx] {
			out.Data[idx] = 0
		}
	}
	return out
}
