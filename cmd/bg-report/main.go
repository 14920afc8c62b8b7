// Command bg-report renders the latest persisted background model snapshot
// (and optionally the region scales of a fitting run) as a PNG heatmap and
// a self-contained HTML report.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/xtal-data/background.surface/internal/background"
	"github.com/xtal-data/background.surface/internal/monitor"
	"github.com/xtal-data/background.surface/internal/storage/sqlite"
	"github.com/xtal-data/background.surface/internal/version"
)

func main() {
	log.Printf("[BgReport] bg-report %s (%s)", version.Version, version.GitSHA)
	dbPath := flag.String("db", "background.db", "Path to the model store database")
	outDir := flag.String("out", "report", "Output directory")
	runID := flag.String("run", "", "Optional run ID for region scale charts")
	snapshotID := flag.Int64("snapshot", 0, "Snapshot row ID (0 = latest)")
	flag.Parse()

	store, err := sqlite.Open(*dbPath)
	if err != nil {
		log.Fatalf("[BgReport] Failed to open store: %v", err)
	}
	defer store.Close()

	var snap *sqlite.ModelSnapshot
	if *snapshotID > 0 {
		snap, err = store.GetModelSnapshotByID(*snapshotID)
	} else {
		snap, err = store.GetLatestModelSnapshot()
	}
	if err != nil {
		log.Fatalf("[BgReport] Failed to load snapshot: %v", err)
	}

	model, err := sqlite.DeserializeGrid(snap.GridBlob)
	if err != nil {
		log.Fatalf("[BgReport] Failed to decode model %s: %v", snap.ModelID, err)
	}
	if model.W != snap.Width || model.H != snap.Height {
		log.Fatalf("[BgReport] Snapshot %s dimensions %dx%d do not match blob %dx%d",
			snap.ModelID, snap.Width, snap.Height, model.W, model.H)
	}

	var results []background.FitResult
	if *runID != "" {
		scales, err := store.ListRegionScales(*runID)
		if err != nil {
			log.Fatalf("[BgReport] Failed to load scales for run %s: %v", *runID, err)
		}
		results = make([]background.FitResult, len(scales))
		for i, rs := range scales {
			results[i] = background.FitResult{Scale: rs.Scale}
			if rs.Failed {
				results[i].Err = fmt.Errorf("region %d failed during fitting", rs.RegionIndex)
			}
		}
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("[BgReport] Failed to create output dir: %v", err)
	}

	pngPath := filepath.Join(*outDir, "model.png")
	if err := monitor.SaveHeatmapPNG(model, fmt.Sprintf("Background model %s", snap.ModelID), pngPath); err != nil {
		log.Fatalf("[BgReport] Failed to save heatmap: %v", err)
	}

	htmlPath := filepath.Join(*outDir, "report.html")
	f, err := os.Create(htmlPath)
	if err != nil {
		log.Fatalf("[BgReport] Failed to create report: %v", err)
	}
	defer f.Close()
	if err := monitor.WriteModelReport(f, model, results); err != nil {
		log.Fatalf("[BgReport] Failed to render report: %v", err)
	}

	log.Printf("[BgReport] Wrote %s and %s (model %s, %d region scales)",
		pngPath, htmlPath, snap.ModelID, len(results))
}
