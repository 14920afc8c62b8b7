package monitor

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/xtal-data/background.surface/internal/background"
	"github.com/xtal-data/background.surface/internal/grid"
)

// viridisColors is the colour ramp shared by the report charts.
var viridisColors = []string{
	"#440154", "#482777", "#3e4989", "#31688e", "#26828e",
	"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725",
}

// defaultMaxPoints caps the number of model pixels embedded in a report to
// keep the HTML payload manageable for large detectors.
const defaultMaxPoints = 8000

// WriteModelReport renders a self-contained HTML report with the model
// surface (as a coloured scatter, downsampled by stride) and a bar chart of
// per-region fit scales. Either section may be omitted by passing a nil
// model or empty results.
func WriteModelReport(w io.Writer, model *grid.Grid, results []background.FitResult) error {
	page := components.NewPage()
	page.PageTitle = "Background model report"

	if model != nil && len(model.Data) > 0 {
		page.AddCharts(modelScatter(model))
	}
	if len(results) > 0 {
		page.AddCharts(scaleBars(results))
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render model report: %w", err)
	}
	return nil
}

// modelScatter builds a scatter chart of model pixel values on the detector
// plane.
func modelScatter(model *grid.Grid) *charts.Scatter {
	stride := 1
	if len(model.Data) > defaultMaxPoints {
		stride = int(math.Ceil(math.Sqrt(float64(len(model.Data)) / float64(defaultMaxPoints))))
	}

	data := make([]opts.ScatterData, 0, defaultMaxPoints)
	maxV := 0.0
	for j := 0; j < model.H; j += stride {
		for i := 0; i < model.W; i += stride {
			v := model.At(j, i)
			if v > maxV {
				maxV = v
			}
			data = append(data, opts.ScatterData{Value: []interface{}{i, j, v}})
		}
	}
	if maxV == 0 {
		maxV = 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Background model surface",
			Subtitle: fmt.Sprintf("%dx%d pixels, stride=%d", model.W, model.H, stride),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: model.W, Name: "column"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: model.H, Name: "row"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxV),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridisColors},
		}),
	)
	scatter.AddSeries("model", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	return scatter
}

// scaleBars builds a bar chart of per-region scales. Failed regions render
// as zero-height bars labelled in the subtitle count.
func scaleBars(results []background.FitResult) *charts.Bar {
	x := make([]string, len(results))
	y := make([]opts.BarData, len(results))
	failed := 0
	for i, r := range results {
		x[i] = fmt.Sprintf("%d", i)
		if r.Err != nil {
			failed++
			y[i] = opts.BarData{Value: 0}
			continue
		}
		y[i] = opts.BarData{Value: r.Scale}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Per-region background scales",
			Subtitle: fmt.Sprintf("%d regions, %d failed", len(results), failed),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).AddSeries("scale", y)
	return bar
}
