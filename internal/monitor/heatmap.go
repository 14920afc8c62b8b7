// Package monitor renders background model grids and fit results for
// offline inspection: PNG heatmaps via gonum/plot and self-contained HTML
// reports via go-echarts.
package monitor

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/xtal-data/background.surface/internal/grid"
)

// modelGrid adapts a grid.Grid to plotter.GridXYZ. Rows map to Y so the
// image renders with row 0 at the bottom.
type modelGrid struct {
	g *grid.Grid
}

func (m modelGrid) Dims() (c, r int)   { return m.g.W, m.g.H }
func (m modelGrid) Z(c, r int) float64 { return m.g.At(r, c) }
func (m modelGrid) X(c int) float64    { return float64(c) }
func (m modelGrid) Y(r int) float64    { return float64(r) }

// SaveHeatmapPNG renders the grid as a heatmap PNG at the given path.
func SaveHeatmapPNG(g *grid.Grid, title, path string) error {
	if g.W == 0 || g.H == 0 {
		return fmt.Errorf("heatmap: empty grid")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "column"
	p.Y.Label.Text = "row"

	hm := plotter.NewHeatMap(modelGrid{g}, palette.Heat(16, 1))
	p.Add(hm)

	if err := p.Save(8*vg.Inch, 8*vg.Inch*vg.Length(g.H)/vg.Length(g.W), path); err != nil {
		return fmt.Errorf("heatmap: save %s: %w", path, err)
	}
	return nil
}
