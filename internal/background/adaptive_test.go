package background

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtal-data/background.surface/internal/grid"
	"github.com/xtal-data/background.surface/internal/synthetic"
)

// offsetFiller builds a filler over a panel kept clear of the beam centre so
// every pixel has a finite resolution.
func offsetFiller(t *testing.T, w, h int) *AdaptiveFiller {
	t.Helper()
	beam, panel, err := synthetic.OffsetGeometry(w, h, 0.172, 150, 0.9795)
	require.NoError(t, err)
	return NewAdaptiveFiller(beam, panel)
}

func uniformGrid(w, h int, v float64) *grid.Grid {
	g := grid.NewGrid(w, h)
	for idx := range g.Data {
		g.Data[idx] = v
	}
	return g
}

func TestAdaptiveFillUniformNeighbourhoodIsExact(t *testing.T) {
	const v = 42.0
	filler := offsetFiller(t, 30, 24)
	data := uniformGrid(30, 24, v)
	data.Set(12, 15, -7) // stale value in the gap
	mask := grid.NewBoolGridFilled(30, 24, true)
	mask.Set(12, 15, false)

	err := filler.Fill(data, mask, 2.0, 4, 1, false)
	require.NoError(t, err)
	assert.InDelta(t, v, data.At(12, 15), 1e-9)
}

func TestAdaptiveFillLeavesValidPixelsUntouched(t *testing.T) {
	filler := offsetFiller(t, 20, 16)
	data := uniformGrid(20, 16, 5)
	data.Set(3, 4, 50)
	mask := grid.NewBoolGridFilled(20, 16, true)
	mask.Set(8, 8, false)

	err := filler.Fill(data, mask, 1.0, 3, 2, false)
	require.NoError(t, err)
	assert.Equal(t, 50.0, data.At(3, 4))
	assert.Equal(t, 5.0, data.At(0, 0))
}

func TestAdaptiveFillZeroIterations(t *testing.T) {
	filler := offsetFiller(t, 10, 10)
	data := uniformGrid(10, 10, 1)
	data.Set(5, 5, 99)
	mask := grid.NewBoolGridFilled(10, 10, true)
	mask.Set(5, 5, false)

	err := filler.Fill(data, mask, 1.0, 3, 0, false)
	require.NoError(t, err)
	assert.Equal(t, 99.0, data.At(5, 5))
}

func TestAdaptiveFillExcludesCentreRowAndColumn(t *testing.T) {
	// Contributions come only from window pixels off the target's row and
	// column. Give those pixels one value and the row/column another: the
	// filled value must match the off-axis value exactly.
	const offAxis = 11.0
	const onAxis = 1000.0
	filler := offsetFiller(t, 20, 20)
	data := uniformGrid(20, 20, onAxis)
	j, i, radius := 10, 10, 3
	for jj := j - radius; jj < j+radius; jj++ {
		for ii := i - radius; ii < i+radius; ii++ {
			if jj != j && ii != i {
				data.Set(jj, ii, offAxis)
			}
		}
	}
	mask := grid.NewBoolGridFilled(20, 20, true)
	mask.Set(j, i, false)

	err := filler.Fill(data, mask, 2.0, radius, 1, false)
	require.NoError(t, err)
	assert.InDelta(t, offAxis, data.At(j, i), 1e-9)
}

func TestAdaptiveFillDegenerateWindow(t *testing.T) {
	filler := offsetFiller(t, 8, 8)
	data := uniformGrid(8, 8, 1)
	mask := grid.NewBoolGrid(8, 8) // everything invalid

	// Radius 1 at the corner leaves no off-axis neighbour at all.
	err := filler.Fill(data, mask, 1.0, 1, 1, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDegenerateWindow))
}

func TestAdaptiveFillShapeMismatch(t *testing.T) {
	filler := offsetFiller(t, 10, 10)

	err := filler.Fill(grid.NewGrid(9, 10), grid.NewBoolGrid(9, 10), 1, 3, 1, false)
	assert.True(t, errors.Is(err, ErrShapeMismatch), "data vs panel")

	err = filler.Fill(grid.NewGrid(10, 10), grid.NewBoolGrid(10, 9), 1, 3, 1, false)
	assert.True(t, errors.Is(err, ErrShapeMismatch), "mask vs data")
}

func TestAdaptiveFillCoded(t *testing.T) {
	// Code 0 marks the target, negative codes are excluded from contributing,
	// positive codes contribute.
	const good = 7.0
	const bad = -500.0
	filler := offsetFiller(t, 20, 20)
	data := uniformGrid(20, 20, good)
	mask := grid.NewIntGrid(20, 20)
	for idx := range mask.Data {
		mask.Data[idx] = 1
	}
	j, i := 9, 9
	mask.Set(j, i, 0)
	// Poison half of the window with excluded pixels.
	for jj := j - 3; jj < j; jj++ {
		for ii := i - 3; ii < i+3; ii++ {
			if jj != j && ii != i {
				data.Set(jj, ii, bad)
				mask.Set(jj, ii, -1)
			}
		}
	}

	err := filler.FillCoded(data, mask, 2.0, 3, 1)
	require.NoError(t, err)
	assert.InDelta(t, good, data.At(j, i), 1e-9)
}

func TestAdaptiveFillTrace(t *testing.T) {
	filler := offsetFiller(t, 10, 10)
	var iters []int
	filler.Trace = func(iter int) { iters = append(iters, iter) }

	data := uniformGrid(10, 10, 1)
	mask := grid.NewBoolGridFilled(10, 10, true)
	mask.Set(4, 4, false)
	err := filler.Fill(data, mask, 1.0, 3, 3, false)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, iters)
}

func TestAdaptiveFillAllSmoothsEverything(t *testing.T) {
	filler := offsetFiller(t, 16, 16)
	data := uniformGrid(16, 16, 10)
	data.Set(8, 8, 100) // spike on a valid pixel
	mask := grid.NewBoolGridFilled(16, 16, true)

	err := filler.Fill(data, mask, 2.0, 3, 1, true)
	require.NoError(t, err)
	// The spike's replacement ignores its own row and column. Neighbours
	// recomputed earlier in the pass absorb a little of the spike, so the
	// result sits near the surrounding level rather than exactly on it.
	assert.InDelta(t, 10.0, data.At(8, 8), 3.0)
	assert.Less(t, data.At(8, 8), 20.0)
}

func TestAdaptiveResolutionMapShape(t *testing.T) {
	filler := offsetFiller(t, 14, 9)
	res := filler.Resolution()
	assert.Equal(t, 14, res.W)
	assert.Equal(t, 9, res.H)
	for _, v := range res.Data {
		assert.Greater(t, v, 0.0)
	}
}
