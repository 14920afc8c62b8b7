// Package sqlite persists background model snapshots and per-run region
// scale results in a SQLite database. The schema is managed by embedded
// migrations so stores can be opened against a fresh or existing file.
package sqlite

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"embed"
	"encoding/gob"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/xtal-data/background.surface/internal/grid"
	"github.com/xtal-data/background.surface/internal/timeutil"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ModelSnapshot is one persisted background model image.
type ModelSnapshot struct {
	SnapshotID     *int64 // set by the database after insert
	ModelID        string // stable identifier; generated if empty
	TakenUnixNanos int64
	Width          int
	Height         int
	ParamsJSON     string // fill parameters used to produce the model
	GridBlob       []byte // gzip-compressed gob of the model grid
	Reason         string // e.g. "box_fill", "adaptive_fill", "manual"
}

// RegionScale is one persisted per-region fit result.
type RegionScale struct {
	RunID            string
	RegionIndex      int
	Scale            float64
	Failed           bool
	BBoxJSON         string
	CreatedUnixNanos int64
}

// ModelStore provides persistence for model snapshots and region scales.
type ModelStore struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Open opens (creating if necessary) the database at path and applies any
// pending migrations.
func Open(path string) (*ModelStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open model store: %w", err)
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &ModelStore{db: db, clock: timeutil.RealClock{}}, nil
}

// Close closes the underlying database.
func (s *ModelStore) Close() error { return s.db.Close() }

// migrateUp applies all pending embedded migrations.
func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}
	drv, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	// Note: m is not closed here because that would close the underlying DB
	// connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// InsertModelSnapshot stores a snapshot and returns its row ID. An empty
// ModelID is replaced with a generated UUID; a zero timestamp is replaced
// with the current time.
func (s *ModelStore) InsertModelSnapshot(snap *ModelSnapshot) (int64, error) {
	if snap.ModelID == "" {
		snap.ModelID = uuid.New().String()
	}
	if snap.TakenUnixNanos == 0 {
		snap.TakenUnixNanos = s.clock.Now().UnixNano()
	}
	if len(snap.GridBlob) == 0 {
		return 0, fmt.Errorf("insert model snapshot: empty grid blob")
	}

	res, err := s.db.Exec(`
		INSERT INTO bg_model_snapshot (
			model_id, taken_unix_nanos, width, height, params_json, grid_blob, reason
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, snap.ModelID, snap.TakenUnixNanos, snap.Width, snap.Height,
		snap.ParamsJSON, snap.GridBlob, snap.Reason)
	if err != nil {
		return 0, fmt.Errorf("insert model snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert model snapshot: %w", err)
	}
	snap.SnapshotID = &id
	log.Printf("[ModelStore] Persisted snapshot %s (%dx%d, reason=%s, blob=%d bytes)",
		snap.ModelID, snap.Width, snap.Height, snap.Reason, len(snap.GridBlob))
	return id, nil
}

// GetLatestModelSnapshot returns the most recent snapshot, or sql.ErrNoRows
// wrapped if none exists.
func (s *ModelStore) GetLatestModelSnapshot() (*ModelSnapshot, error) {
	row := s.db.QueryRow(`
		SELECT snapshot_id, model_id, taken_unix_nanos, width, height, params_json, grid_blob, reason
		FROM bg_model_snapshot
		ORDER BY taken_unix_nanos DESC, snapshot_id DESC
		LIMIT 1
	`)
	return scanSnapshot(row)
}

// GetModelSnapshotByID returns the snapshot with the given row ID.
func (s *ModelStore) GetModelSnapshotByID(id int64) (*ModelSnapshot, error) {
	row := s.db.QueryRow(`
		SELECT snapshot_id, model_id, taken_unix_nanos, width, height, params_json, grid_blob, reason
		FROM bg_model_snapshot
		WHERE snapshot_id = ?
	`, id)
	return scanSnapshot(row)
}

func scanSnapshot(row *sql.Row) (*ModelSnapshot, error) {
	var snap ModelSnapshot
	var id int64
	if err := row.Scan(&id, &snap.ModelID, &snap.TakenUnixNanos, &snap.Width,
		&snap.Height, &snap.ParamsJSON, &snap.GridBlob, &snap.Reason); err != nil {
		return nil, fmt.Errorf("scan model snapshot: %w", err)
	}
	snap.SnapshotID = &id
	return &snap, nil
}

// InsertRegionScales stores a batch of per-region fit results for one run
// in a single transaction. An empty RunID is replaced with a generated UUID;
// the (possibly generated) run ID is returned.
func (s *ModelStore) InsertRegionScales(runID string, scales []RegionScale) (string, error) {
	if runID == "" {
		runID = uuid.New().String()
	}
	now := s.clock.Now().UnixNano()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("insert region scales: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO bg_region_scale (
			run_id, region_index, scale, failed, bbox_json, created_unix_nanos
		) VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("insert region scales: %w", err)
	}
	defer stmt.Close()

	for _, rs := range scales {
		created := rs.CreatedUnixNanos
		if created == 0 {
			created = now
		}
		if _, err := stmt.Exec(runID, rs.RegionIndex, rs.Scale, rs.Failed, rs.BBoxJSON, created); err != nil {
			return "", fmt.Errorf("insert region scale %d: %w", rs.RegionIndex, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("insert region scales: %w", err)
	}
	return runID, nil
}

// ListRegionScales returns all region scales for a run ordered by region
// index.
func (s *ModelStore) ListRegionScales(runID string) ([]RegionScale, error) {
	rows, err := s.db.Query(`
		SELECT run_id, region_index, scale, failed, bbox_json, created_unix_nanos
		FROM bg_region_scale
		WHERE run_id = ?
		ORDER BY region_index
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list region scales: %w", err)
	}
	defer rows.Close()

	var out []RegionScale
	for rows.Next() {
		var rs RegionScale
		if err := rows.Scan(&rs.RunID, &rs.RegionIndex, &rs.Scale, &rs.Failed,
			&rs.BBoxJSON, &rs.CreatedUnixNanos); err != nil {
			return nil, fmt.Errorf("scan region scale: %w", err)
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}

// gridBlob is the gob wire form of a model grid.
type gridBlob struct {
	W, H int
	Data []float64
}

// SerializeGrid compresses a model grid using gob encoding and gzip.
func SerializeGrid(g *grid.Grid) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := gob.NewEncoder(gz)
	if err := enc.Encode(gridBlob{W: g.W, H: g.H, Data: g.Data}); err != nil {
		gz.Close()
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DeserializeGrid decompresses and decodes a model grid blob.
func DeserializeGrid(blob []byte) (*grid.Grid, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("empty grid blob")
	}
	gz, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	var gb gridBlob
	if err := gob.NewDecoder(gz).Decode(&gb); err != nil {
		return nil, fmt.Errorf("failed to decode grid blob: %w", err)
	}
	if len(gb.Data) != gb.W*gb.H {
		return nil, fmt.Errorf("grid blob has %d values for %dx%d", len(gb.Data), gb.W, gb.H)
	}
	return &grid.Grid{W: gb.W, H: gb.H, Data: gb.Data}, nil
}
