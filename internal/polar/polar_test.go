package polar

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtal-data/background.surface/internal/grid"
	"github.com/xtal-data/background.surface/internal/synthetic"
)

const (
	testW = 120
	testH = 100
)

// offsetTransform builds a transform over a panel offset from the beam axis
// so no corner sits near the polar pole.
func offsetTransform(t *testing.T, trace func(Extents)) *Transform {
	t.Helper()
	beam, panel, err := synthetic.OffsetGeometry(testW, testH, 0.172, 150, 0.9795)
	require.NoError(t, err)
	tr, err := NewTransform(beam, panel, trace)
	require.NoError(t, err)
	return tr
}

func TestTransformExtents(t *testing.T) {
	var traced []Extents
	tr := offsetTransform(t, func(e Extents) { traced = append(traced, e) })

	require.Len(t, traced, 1, "trace hook fires once")
	ext := tr.Extents()
	assert.Equal(t, traced[0], ext)

	assert.Greater(t, ext.StepR, 0.0)
	assert.Greater(t, ext.StepA, 0.0)
	assert.Greater(t, ext.CountR, 0)
	assert.Greater(t, ext.CountA, 0)
	assert.Less(t, ext.MinR, ext.MaxR)
	assert.Less(t, ext.MinA, ext.MaxA)
	// The grid spans the extent at the chosen steps.
	assert.InDelta(t, (ext.MaxR-ext.MinR)/ext.StepR, float64(ext.CountR), 1.0)
	assert.InDelta(t, (ext.MaxA-ext.MinA)/ext.StepA, float64(ext.CountA), 1.0)
	// Beam along +z needs no rotation.
	assert.InDelta(t, 0, ext.Angle, 1e-9)
}

func TestXYAndXY2AreInverse(t *testing.T) {
	tr := offsetTransform(t, nil)
	ext := tr.Extents()

	probes := [][2]float64{
		{0.5, 0.5},
		{float64(ext.CountR) / 2, float64(ext.CountA) / 2},
		{float64(ext.CountR) - 1.5, float64(ext.CountA) - 1.5},
		{3.25, 7.75},
	}
	for _, p := range probes {
		rIdx, aIdx := p[0], p[1]
		x, y, err := tr.XY(rIdx, aIdx)
		require.NoError(t, err)
		gotA, gotR := tr.XY2(y, x)
		assert.InDelta(t, aIdx, gotA, 1e-6, "azimuth index for probe %v", p)
		assert.InDelta(t, rIdx, gotR, 1e-6, "radius index for probe %v", p)
	}
}

func TestToPolarUniformImage(t *testing.T) {
	tr := offsetTransform(t, nil)
	const c = 33.0
	data := grid.NewGrid(testW, testH)
	for idx := range data.Data {
		data.Data[idx] = c
	}
	mask := grid.NewBoolGridFilled(testW, testH, true)

	polar, polarMask, err := tr.ToPolar(data, mask)
	require.NoError(t, err)
	ext := tr.Extents()
	assert.Equal(t, ext.CountA, polar.W)
	assert.Equal(t, ext.CountR, polar.H)

	accepted := 0
	for idx, ok := range polarMask.Data {
		if ok {
			accepted++
			assert.InDelta(t, c, polar.Data[idx], 1e-9)
		} else {
			assert.Equal(t, 0.0, polar.Data[idx], "rejected cells stay zero")
		}
	}
	assert.Greater(t, accepted, (ext.CountA*ext.CountR)/4, "a good share of cells lands on the panel")
	assert.Less(t, accepted, ext.CountA*ext.CountR, "the rectangular panel cannot cover its polar bounding box")
}

func TestToPolarPropagatesMask(t *testing.T) {
	tr := offsetTransform(t, nil)
	data := grid.NewGrid(testW, testH)
	for idx := range data.Data {
		data.Data[idx] = 1
	}
	full := grid.NewBoolGridFilled(testW, testH, true)
	_, fullMask, err := tr.ToPolar(data, full)
	require.NoError(t, err)

	holed := grid.NewBoolGridFilled(testW, testH, true)
	for j := 40; j < 60; j++ {
		for i := 50; i < 70; i++ {
			holed.Set(j, i, false)
		}
	}
	_, holedMask, err := tr.ToPolar(data, holed)
	require.NoError(t, err)

	lost := 0
	for idx := range fullMask.Data {
		if fullMask.Data[idx] && !holedMask.Data[idx] {
			lost++
		}
		if !fullMask.Data[idx] {
			assert.False(t, holedMask.Data[idx], "masking pixels cannot validate new cells")
		}
	}
	assert.Greater(t, lost, 0, "cells sampling the hole become invalid")
}

func TestToPolarShapeMismatch(t *testing.T) {
	tr := offsetTransform(t, nil)
	_, _, err := tr.ToPolar(grid.NewGrid(testW-1, testH), grid.NewBoolGrid(testW-1, testH))
	assert.Error(t, err)
	_, _, err = tr.ToPolar(grid.NewGrid(testW, testH), grid.NewBoolGrid(testW, testH-1))
	assert.Error(t, err)
}

func TestToCartesianShapeMismatch(t *testing.T) {
	tr := offsetTransform(t, nil)
	_, err := tr.ToCartesian(grid.NewGrid(3, 3))
	assert.Error(t, err)
}

func TestPolarRoundTrip(t *testing.T) {
	beam, panel, err := synthetic.OffsetGeometry(testW, testH, 0.172, 150, 0.9795)
	require.NoError(t, err)
	tr, err := NewTransform(beam, panel, nil)
	require.NoError(t, err)

	truth := synthetic.BackgroundImage(beam, panel)
	mask := grid.NewBoolGridFilled(testW, testH, true)

	polar, _, err := tr.ToPolar(truth, mask)
	require.NoError(t, err)
	back, err := tr.ToCartesian(polar)
	require.NoError(t, err)

	// Compare away from the panel border, where the polar bounding box spills
	// off the panel, and skip pixels the inverse mapping rejected.
	const margin = 8
	maxErr := 0.0
	sumErr := 0.0
	n := 0
	for j := margin; j < testH-margin; j++ {
		for i := margin; i < testW-margin; i++ {
			if back.At(j, i) == 0 {
				continue
			}
			e := math.Abs(back.At(j, i) - truth.At(j, i))
			if e > maxErr {
				maxErr = e
			}
			sumErr += e
			n++
		}
	}
	require.Greater(t, n, (testW-2*margin)*(testH-2*margin)/2, "round trip covers most of the interior")
	assert.Less(t, maxErr, 2.0, "double resampling of a smooth surface stays close")
	assert.Less(t, sumErr/float64(n), 0.5)
}
