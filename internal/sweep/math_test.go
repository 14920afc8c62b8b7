package sweep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtal-data/background.surface/internal/grid"
)

func TestParseCSVFloat64s(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    []float64
		wantErr bool
	}{
		{"empty", "", nil, false},
		{"single", "1.5", []float64{1.5}, false},
		{"multiple", "0.5,1,2.25", []float64{0.5, 1, 2.25}, false},
		{"spaces", " 1 , 2 ", []float64{1, 2}, false},
		{"trailing_comma", "1,2,", []float64{1, 2}, false},
		{"garbage", "1,abc", nil, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseCSVFloat64s(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseCSVInts(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    []int
		wantErr bool
	}{
		{"empty", "", nil, false},
		{"single", "4", []int{4}, false},
		{"multiple", "4,8,16", []int{4, 8, 16}, false},
		{"negative", "-2,3", []int{-2, 3}, false},
		{"float_rejected", "1.5", nil, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseCSVInts(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMaskedRMS(t *testing.T) {
	a := grid.NewGrid(3, 1)
	b := grid.NewGrid(3, 1)
	sel := grid.NewBoolGrid(3, 1)
	a.Data = []float64{1, 5, 10}
	b.Data = []float64{1, 2, 2}

	// No selection: zero without error.
	rms, err := MaskedRMS(a, b, sel)
	require.NoError(t, err)
	assert.Equal(t, 0.0, rms)

	// Select the middle pixel only: |5-2| = 3.
	sel.Data[1] = true
	rms, err = MaskedRMS(a, b, sel)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, rms, 1e-12)

	// Select middle and last: sqrt((9+64)/2).
	sel.Data[2] = true
	rms, err = MaskedRMS(a, b, sel)
	require.NoError(t, err)
	assert.InDelta(t, 6.041523, rms, 1e-5)
}

func TestMaskedRMSShapeMismatch(t *testing.T) {
	_, err := MaskedRMS(grid.NewGrid(3, 2), grid.NewGrid(2, 3), grid.NewBoolGrid(3, 2))
	assert.Error(t, err)
	_, err = MaskedRMS(grid.NewGrid(3, 2), grid.NewGrid(3, 2), grid.NewBoolGrid(3, 3))
	assert.Error(t, err)
}

func TestInvert(t *testing.T) {
	m := grid.NewBoolGrid(2, 2)
	m.Set(0, 0, true)
	m.Set(1, 1, true)
	inv := Invert(m)
	assert.False(t, inv.At(0, 0))
	assert.True(t, inv.At(0, 1))
	assert.True(t, inv.At(1, 0))
	assert.False(t, inv.At(1, 1))
}
