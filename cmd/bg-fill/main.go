// Command bg-fill runs the background gap-fill pipeline over a synthetic
// detector scene, fits per-region scales, and persists the resulting model
// snapshot and scales to a SQLite store for later reporting.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/xtal-data/background.surface/internal/background"
	"github.com/xtal-data/background.surface/internal/config"
	"github.com/xtal-data/background.surface/internal/grid"
	"github.com/xtal-data/background.surface/internal/monitor"
	"github.com/xtal-data/background.surface/internal/storage/sqlite"
	"github.com/xtal-data/background.surface/internal/synthetic"
	"github.com/xtal-data/background.surface/internal/version"
)

func main() {
	log.Printf("[BgFill] bg-fill %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)
	dbPath := flag.String("db", "background.db", "Path to the model store database")
	configPath := flag.String("config", "", "Optional tuning config JSON")
	width := flag.Int("width", 400, "Panel width in pixels")
	height := flag.Int("height", 300, "Panel height in pixels")
	pixelSize := flag.Float64("pixel-size", 0.172, "Pixel pitch (mm)")
	distance := flag.Float64("distance", 150.0, "Sample to detector distance (mm)")
	wavelength := flag.Float64("wavelength", 0.9795, "Beam wavelength (angstrom)")
	rowGaps := flag.String("row-gaps", "140-148", "Row gap strips as start-end,start-end")
	colGaps := flag.String("col-gaps", "190-196", "Column gap strips as start-end,start-end")
	regions := flag.Int("regions", 16, "Number of shoebox regions to fit (perfect square)")
	heatmap := flag.String("heatmap", "", "Optional path for a model heatmap PNG")
	flag.Parse()

	tuning := config.DefaultTuning()
	if *configPath != "" {
		cfg, err := config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("[BgFill] Failed to load config: %v", err)
		}
		cfg.Apply(&tuning)
	}

	beam, panel, err := synthetic.Geometry(*width, *height, *pixelSize, *distance, *wavelength)
	if err != nil {
		log.Fatalf("[BgFill] Bad geometry: %v", err)
	}

	rowStrips, err := parseStrips(*rowGaps)
	if err != nil {
		log.Fatalf("[BgFill] Bad -row-gaps: %v", err)
	}
	colStrips, err := parseStrips(*colGaps)
	if err != nil {
		log.Fatalf("[BgFill] Bad -col-gaps: %v", err)
	}

	truth := synthetic.BackgroundImage(beam, panel)
	mask := synthetic.GapMask(*width, *height, rowStrips, colStrips)
	observed := synthetic.ZeroGaps(truth, mask)

	// Box fill first to seed the gaps, then an adaptive pass to respect the
	// resolution structure.
	model, err := background.FillGaps(observed, mask, tuning.BoxHalfX, tuning.BoxHalfY, tuning.BoxIterations)
	if err != nil {
		log.Fatalf("[BgFill] Box fill failed: %v", err)
	}
	filler := background.NewAdaptiveFiller(beam, panel)
	filler.Trace = func(iter int) { log.Printf("[BgFill] Adaptive pass %d", iter) }
	if err := filler.Fill(model, mask, tuning.Sigma, tuning.KernelRadius, tuning.AdaptiveIterations, tuning.FillAll); err != nil {
		log.Fatalf("[BgFill] Adaptive fill failed: %v", err)
	}

	store, err := sqlite.Open(*dbPath)
	if err != nil {
		log.Fatalf("[BgFill] Failed to open store: %v", err)
	}
	defer store.Close()

	blob, err := sqlite.SerializeGrid(model)
	if err != nil {
		log.Fatalf("[BgFill] Failed to serialise model: %v", err)
	}
	paramsJSON, _ := json.Marshal(tuning)
	snap := &sqlite.ModelSnapshot{
		Width:      *width,
		Height:     *height,
		ParamsJSON: string(paramsJSON),
		GridBlob:   blob,
		Reason:     "box_fill+adaptive_fill",
	}
	if _, err := store.InsertModelSnapshot(snap); err != nil {
		log.Fatalf("[BgFill] Failed to persist snapshot: %v", err)
	}

	// Fit a grid of shoebox regions against the filled model and persist the
	// scales under a fresh run ID.
	sboxes := regionGrid(truth, mask, *regions)
	fitter := background.NewFitter(model)
	results := fitter.ComputeBackground(sboxes)

	scales := make([]sqlite.RegionScale, len(results))
	for i, r := range results {
		bboxJSON, _ := json.Marshal(sboxes[i].BBox)
		scales[i] = sqlite.RegionScale{
			RegionIndex: i,
			Scale:       r.Scale,
			Failed:      r.Err != nil,
			BBoxJSON:    string(bboxJSON),
		}
	}
	runID, err := store.InsertRegionScales("", scales)
	if err != nil {
		log.Fatalf("[BgFill] Failed to persist scales: %v", err)
	}

	summary := monitor.SummarizeScales(results)
	log.Printf("[BgFill] Run %s: model %s, %d regions fitted (%d failed), scale mean=%.4f stddev=%.4f",
		runID, snap.ModelID, summary.Fitted, summary.Failed, summary.Mean, summary.StdDev)

	if *heatmap != "" {
		if err := monitor.SaveHeatmapPNG(model, "Background model", *heatmap); err != nil {
			log.Fatalf("[BgFill] Failed to save heatmap: %v", err)
		}
		log.Printf("[BgFill] Wrote heatmap to %s", *heatmap)
	}
}

// regionGrid tiles the image with n (rounded down to a square count)
// shoeboxes filled with the observed data and mask.
func regionGrid(img *grid.Grid, mask *grid.BoolGrid, n int) []*background.Shoebox {
	side := 1
	for (side+1)*(side+1) <= n {
		side++
	}
	sboxes := make([]*background.Shoebox, 0, side*side)
	bw := img.W / side
	bh := img.H / side
	for by := 0; by < side; by++ {
		for bx := 0; bx < side; bx++ {
			x0 := bx * bw
			y0 := by * bh
			sbox := background.NewShoebox(x0, x0+bw, y0, y0+bh, 0, 1)
			for j := 0; j < bh; j++ {
				for i := 0; i < bw; i++ {
					idx := sbox.Index(0, j, i)
					sbox.Data[idx] = img.At(y0+j, x0+i)
					sbox.Mask[idx] = mask.At(y0+j, x0+i)
				}
			}
			sboxes = append(sboxes, sbox)
		}
	}
	return sboxes
}

// parseStrips parses "start-end,start-end" into half-open ranges.
func parseStrips(s string) ([][2]int, error) {
	if s == "" {
		return nil, nil
	}
	var out [][2]int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		bounds := strings.SplitN(part, "-", 2)
		if len(bounds) != 2 {
			return nil, fmt.Errorf("strip %q must be start-end", part)
		}
		lo, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
		if err != nil {
			return nil, fmt.Errorf("strip %q: %w", part, err)
		}
		hi, err := strconv.Atoi(strings.TrimSpace(bounds[1]))
		if err != nil {
			return nil, fmt.Errorf("strip %q: %w", part, err)
		}
		if hi < lo {
			return nil, fmt.Errorf("strip %q: end before start", part)
		}
		out = append(out, [2]int{lo, hi})
	}
	return out, nil
}
