package grid

import "fmt"

// SummedArea computes, for every pixel, the sum of the values inside the
// box [i-hx, i+hx] × [j-hy, j+hy] clipped to the image bounds. A prefix-sum
// table makes each box query O(1), so the cost is independent of the window
// size.
func SummedArea(g *Grid, hx, hy int) (*Grid, error) {
	if hx < 0 || hy < 0 {
		return nil, fmt.Errorf("summed area: half window (%d, %d) must be non-negative", hx, hy)
	}

	// (H+1)×(W+1) prefix table: table(j,i) = sum of g over rows<j, cols<i.
	tw := g.W + 1
	table := make([]float64, (g.H+1)*tw)
	for j := 0; j < g.H; j++ {
		rowSum := 0.0
		for i := 0; i < g.W; i++ {
			rowSum += g.At(j, i)
			table[(j+1)*tw+(i+1)] = table[j*tw+(i+1)] + rowSum
		}
	}

	out := NewGrid(g.W, g.H)
	for j := 0; j < g.H; j++ {
		j0 := j - hy
		if j0 < 0 {
			j0 = 0
		}
		j1 := j + hy + 1
		if j1 > g.H {
			j1 = g.H
		}
		for i := 0; i < g.W; i++ {
			i0 := i - hx
			if i0 < 0 {
				i0 = 0
			}
			i1 := i + hx + 1
			if i1 > g.W {
				i1 = g.W
			}
			out.Set(j, i, table[j1*tw+i1]-table[j0*tw+i1]-table[j1*tw+i0]+table[j0*tw+i0])
		}
	}
	return out, nil
}

// SummedAreaInt is SummedArea over an integer grid, used for mask indicator
// counts.
func SummedAreaInt(g *IntGrid, hx, hy int) (*IntGrid, error) {
	if hx < 0 || hy < 0 {
		return nil, fmt.Errorf("summed area: half window (%d, %d) must be non-negative", hx, hy)
	}

	tw := g.W + 1
	table := make([]int, (g.H+1)*tw)
	for j := 0; j < g.H; j++ {
		rowSum := 0
		for i := 0; i < g.W; i++ {
			rowSum += g.At(j, i)
			table[(j+1)*tw+(i+1)] = table[j*tw+(i+1)] + rowSum
		}
	}

	out := NewIntGrid(g.W, g.H)
	for j := 0; j < g.H; j++ {
		j0 := j - hy
		if j0 < 0 {
			j0 = 0
		}
		j1 := j + hy + 1
		if j1 > g.H {
			j1 = g.H
		}
		for i := 0; i < g.W; i++ {
			i0 := i - hx
			if i0 < 0 {
				i0 = 0
			}
			i1 := i + hx + 1
			if i1 > g.W {
				i1 = g.W
			}
			out.Set(j, i, table[j1*tw+i1]-table[j0*tw+i1]-table[j1*tw+i0]+table[j0*tw+i0])
		}
	}
	return out, nil
}
