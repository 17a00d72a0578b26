package store

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"fmt"
	"sync"

	"github.com/MeKo-Tech/imagelab/internal/contour"
	"github.com/MeKo-Tech/imagelab/internal/histogram"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	// DefaultBatchSize is the number of measurements to buffer before flushing to the database.
	DefaultBatchSize = 100
)

// Writer writes measurements to a SQLite database. It is safe for
// concurrent use by batch workers.
type Writer struct {
	db        *sql.DB
	path      string
	batch     []Measurement
	metadata  Metadata
	batchSize int
	mu        sync.Mutex
}

// New creates a new measurement writer.
// The database is created if it doesn't exist, and the schema is initialized.
func New(path string, metadata Metadata) (*Writer, error) {
	if metadata.RunID == "" {
		metadata.RunID = uuid.NewString()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = 50000",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	if err := insertMetadata(db, metadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to insert metadata: %w", err)
	}

	return &Writer{
		db:        db,
		path:      path,
		batch:     make([]Measurement, 0, DefaultBatchSize),
		batchSize: DefaultBatchSize,
		metadata:  metadata,
	}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS metadata (
			name TEXT NOT NULL,
			value TEXT
		);

		CREATE TABLE IF NOT EXISTS measurements (
			image TEXT NOT NULL,
			contour INTEGER NOT NULL,
			pixels INTEGER NOT NULL,
			area REAL NOT NULL,
			perimeter REAL NOT NULL,
			hull_area REAL NOT NULL,
			cx REAL NOT NULL,
			cy REAL NOT NULL,
			aspect_ratio REAL, extent REAL,
			w1 REAL, w2 REAL, w3 REAL, w9 REAL, w10 REAL,
			m1 REAL, m2 REAL, m3 REAL,
			ring BLOB NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS measurement_index ON measurements (image, contour);

		CREATE TABLE IF NOT EXISTS stats (
			image TEXT NOT NULL,
			channel INTEGER NOT NULL,
			n INTEGER NOT NULL,
			mode_level INTEGER NOT NULL,
			mode_count INTEGER NOT NULL,
			mean REAL NOT NULL,
			stddev REAL NOT NULL,
			min INTEGER NOT NULL,
			max INTEGER NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS stats_index ON stats (image, channel);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

func insertMetadata(db *sql.DB, meta Metadata) error {
	if _, err := db.Exec("DELETE FROM metadata"); err != nil {
		return fmt.Errorf("failed to clear metadata: %w", err)
	}

	stmt, err := db.Prepare("INSERT INTO metadata (name, value) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare metadata insert: %w", err)
	}
	defer stmt.Close()

	for key, value := range meta.ToMap() {
		if _, err := stmt.Exec(key, value); err != nil {
			return fmt.Errorf("failed to insert metadata %q: %w", key, err)
		}
	}

	return nil
}

// WriteMeasurement adds a contour measurement to the batch. When the batch
// is full, it is automatically flushed.
func (w *Writer) WriteMeasurement(image string, index int, c contour.Contour, m contour.Metrics) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.batch = append(w.batch, Measurement{
		Image:   image,
		Index:   index,
		Contour: c,
		Metrics: m,
	})

	if len(w.batch) >= w.batchSize {
		return w.flushLocked()
	}

	return nil
}

// WriteStats stores the statistics of one channel, replacing earlier
// values for the same image and channel. Stats bypass the batch.
func (w *Writer) WriteStats(image string, channel int, st histogram.Stats) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, err := w.db.Exec(
		`INSERT OR REPLACE INTO stats (image, channel, n, mode_level, mode_count, mean, stddev, min, max)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		image, channel, st.N, int(st.Mode.Level), st.Mode.Count, st.Mean, st.StdDev, int(st.Min), int(st.Max),
	)
	if err != nil {
		return fmt.Errorf("failed to insert stats for %s channel %d: %w", image, channel, err)
	}
	return nil
}

// Flush writes any buffered measurements to the database.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked()
}

// flushLocked writes buffered measurements to the database. Must be called with lock held.
func (w *Writer) flushLocked() error {
	if len(w.batch) == 0 {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO measurements
		(image, contour, pixels, area, perimeter, hull_area, cx, cy, aspect_ratio, extent,
		 w1, w2, w3, w9, w10, m1, m2, m3, ring)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range w.batch {
		ring, err := encodeRing(rec.Contour.Ring)
		if err != nil {
			return fmt.Errorf("failed to encode contour %s#%d: %w", rec.Image, rec.Index, err)
		}

		m := rec.Metrics
		if _, err := stmt.Exec(
			rec.Image, rec.Index, m.Pixels, m.Area, m.Perimeter, m.HullArea,
			m.Centroid[0], m.Centroid[1], m.AspectRatio, m.Extent,
			m.W1, m.W2, m.W3, m.W9, m.W10, m.M1, m.M2, m.M3,
			ring,
		); err != nil {
			return fmt.Errorf("failed to insert contour %s#%d: %w", rec.Image, rec.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	w.batch = w.batch[:0]
	return nil
}

// RunID identifies the run recorded in the metadata table.
func (w *Writer) RunID() string { return w.metadata.RunID }

// Close flushes any remaining measurements and closes the database.
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		w.db.Close()
		return err
	}

	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

// encodeRing stores the ring vertices as gzip-compressed WKB.
func encodeRing(r orb.Ring) ([]byte, error) {
	raw, err := wkb.Marshal(orb.LineString(r))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)

	if _, err := gw.Write(raw); err != nil {
		gw.Close()
		return nil, err
	}

	if err := gw.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
