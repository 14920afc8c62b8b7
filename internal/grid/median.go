package grid

import "sort"

// RowMedian computes the median of the valid pixels in each row. Rows with
// no valid pixels yield 0. For even counts the lower-middle element of the
// sorted values is taken.
func RowMedian(data *Grid, mask *BoolGrid) ([]float64, error) {
	if err := checkShape("mask", mask.W, mask.H, data.W, data.H); err != nil {
		return nil, err
	}
	result := make([]float64, data.H)
	pixels := make([]float64, 0, data.W)
	for j := 0; j < data.H; j++ {
		pixels = pixels[:0]
		for i := 0; i < data.W; i++ {
			if mask.At(j, i) {
				pixels = append(pixels, data.At(j, i))
			}
		}
		if len(pixels) == 0 {
			continue
		}
		sort.Float64s(pixels)
		result[j] = pixels[(len(pixels)-1)/2]
	}
	return result, nil
}
