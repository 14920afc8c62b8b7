package monitor

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/xtal-data/background.surface/internal/background"
)

// ScaleSummary aggregates the successful scales of one fitting run.
type ScaleSummary struct {
	Fitted int
	Failed int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// SummarizeScales computes summary statistics over the successful fit
// results. A run with no successful fits returns a zero summary with the
// failure count set.
func SummarizeScales(results []background.FitResult) ScaleSummary {
	var summary ScaleSummary
	scales := make([]float64, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
			continue
		}
		scales = append(scales, r.Scale)
	}
	summary.Fitted = len(scales)
	if len(scales) == 0 {
		return summary
	}

	summary.Mean = stat.Mean(scales, nil)
	if len(scales) > 1 {
		summary.StdDev = stat.StdDev(scales, nil)
	}
	summary.Min = floats.Min(scales)
	summary.Max = floats.Max(scales)
	return summary
}
