package grid

import (
	"testing"
)

// naiveBoxSum is the reference implementation the summed-area table must
// match: direct summation over the clipped window.
func naiveBoxSum(g *Grid, j, i, hx, hy int) float64 {
	sum := 0.0
	for jj := j - hy; jj <= j+hy; jj++ {
		if jj < 0 || jj >= g.H {
			continue
		}
		for ii := i - hx; ii <= i+hx; ii++ {
			if ii < 0 || ii >= g.W {
				continue
			}
			sum += g.At(jj, ii)
		}
	}
	return sum
}

func TestSummedAreaMatchesNaive(t *testing.T) {
	g := NewGrid(7, 5)
	for idx := range g.Data {
		// Deterministic non-uniform values.
		g.Data[idx] = float64((idx*31)%17) - 3.5
	}

	testCases := []struct {
		name   string
		hx, hy int
	}{
		{"zero_window", 0, 0},
		{"unit_window", 1, 1},
		{"wide_window", 3, 1},
		{"tall_window", 1, 2},
		{"window_larger_than_image", 10, 10},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := SummedArea(g, tc.hx, tc.hy)
			if err != nil {
				t.Fatalf("SummedArea: %v", err)
			}
			for j := 0; j < g.H; j++ {
				for i := 0; i < g.W; i++ {
					want := naiveBoxSum(g, j, i, tc.hx, tc.hy)
					got := out.At(j, i)
					if diff := got - want; diff > 1e-9 || diff < -1e-9 {
						t.Errorf("box sum at (%d,%d): got %v, want %v", j, i, got, want)
					}
				}
			}
		})
	}
}

func TestSummedAreaRejectsNegativeWindow(t *testing.T) {
	g := NewGrid(3, 3)
	if _, err := SummedArea(g, -1, 0); err == nil {
		t.Error("expected error for negative hx")
	}
	if _, err := SummedArea(g, 0, -2); err == nil {
		t.Error("expected error for negative hy")
	}
}

func TestSummedAreaIntMatchesNaive(t *testing.T) {
	g := NewIntGrid(6, 4)
	for idx := range g.Data {
		g.Data[idx] = (idx * 7) % 3
	}
	out, err := SummedAreaInt(g, 2, 1)
	if err != nil {
		t.Fatalf("SummedAreaInt: %v", err)
	}
	ref := NewGrid(g.W, g.H)
	for idx, v := range g.Data {
		ref.Data[idx] = float64(v)
	}
	for j := 0; j < g.H; j++ {
		for i := 0; i < g.W; i++ {
			want := int(naiveBoxSum(ref, j, i, 2, 1))
			if got := out.At(j, i); got != want {
				t.Errorf("int box sum at (%d,%d): got %d, want %d", j, i, got, want)
			}
		}
	}
}
