package store

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/MeKo-Tech/imagelab/internal/contour"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

// Reader reads measurements from a database written by Writer.
type Reader struct {
	db   *sql.DB
	path string
}

// OpenReader opens a measurement database for reading.
func OpenReader(path string) (*Reader, error) {
	db, err := sql.Open("sqlite", path+"?mode=ro&immutable=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='measurements'").Scan(&count)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to verify schema: %w", err)
	}
	if count == 0 {
		db.Close()
		return nil, fmt.Errorf("database does not contain measurements table")
	}

	return &Reader{
		db:   db,
		path: path,
	}, nil
}

// Images lists the images that have measurements, sorted by name.
func (r *Reader) Images() ([]string, error) {
	rows, err := r.db.Query("SELECT DISTINCT image FROM measurements ORDER BY image")
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan image row: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// Measurements returns the stored contours of image in contour order.
// Moments are not stored and stay zero.
func (r *Reader) Measurements(image string) ([]Measurement, error) {
	rows, err := r.db.Query(`SELECT contour, pixels, area, perimeter, hull_area, cx, cy,
		aspect_ratio, extent, w1, w2, w3, w9, w10, m1, m2, m3, ring
		FROM measurements WHERE image = ? ORDER BY contour`, image)
	if err != nil {
		return nil, fmt.Errorf("failed to query measurements: %w", err)
	}
	defer rows.Close()

	var out []Measurement
	for rows.Next() {
		var (
			rec  = Measurement{Image: image}
			m    contour.Metrics
			ring []byte
		)
		if err := rows.Scan(&rec.Index, &m.Pixels, &m.Area, &m.Perimeter, &m.HullArea,
			&m.Centroid[0], &m.Centroid[1], &m.AspectRatio, &m.Extent,
			&m.W1, &m.W2, &m.W3, &m.W9, &m.W10, &m.M1, &m.M2, &m.M3, &ring); err != nil {
			return nil, fmt.Errorf("failed to scan measurement row: %w", err)
		}

		rec.Contour.Ring, err = decodeRing(ring)
		if err != nil {
			return nil, fmt.Errorf("failed to decode contour %s#%d: %w", image, rec.Index, err)
		}
		rec.Contour.Pixels = m.Pixels
		m.Bound = rec.Contour.Ring.Bound()
		rec.Metrics = m
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating measurements: %w", err)
	}
	return out, nil
}

// Stats returns the stored channel statistics of image.
func (r *Reader) Stats(image string) ([]ChannelStats, error) {
	rows, err := r.db.Query(`SELECT channel, n, mode_level, mode_count, mean, stddev, min, max
		FROM stats WHERE image = ? ORDER BY channel`, image)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	var out []ChannelStats
	for rows.Next() {
		cs := ChannelStats{Image: image}
		var modeLevel, lo, hi int
		if err := rows.Scan(&cs.Channel, &cs.Stats.N, &modeLevel, &cs.Stats.Mode.Count,
			&cs.Stats.Mean, &cs.Stats.StdDev, &lo, &hi); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		cs.Stats.Mode.Level = uint8(modeLevel)
		cs.Stats.Min = uint8(lo)
		cs.Stats.Max = uint8(hi)
		out = append(out, cs)
	}
	return out, rows.Err()
}

// Metadata reads metadata from the database.
func (r *Reader) Metadata() (Metadata, error) {
	rows, err := r.db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to query metadata: %w", err)
	}
	defer rows.Close()

	metaMap := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return Metadata{}, fmt.Errorf("failed to scan metadata row: %w", err)
		}
		metaMap[name] = value
	}

	if err := rows.Err(); err != nil {
		return Metadata{}, fmt.Errorf("error iterating metadata: %w", err)
	}

	meta := Metadata{
		RunID:       metaMap["run_id"],
		Name:        metaMap["name"],
		Operation:   metaMap["operation"],
		Border:      metaMap["border"],
		Description: metaMap["description"],
		Version:     metaMap["version"],
	}
	if v, ok := metaMap["created"]; ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			meta.Created = t
		}
	}

	return meta, nil
}

// Close closes the database connection.
func (r *Reader) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

func decodeRing(data []byte) (orb.Ring, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gr.Close()

	raw, err := io.ReadAll(gr)
	if err != nil {
		return nil, err
	}

	geom, err := wkb.Unmarshal(raw)
	if err != nil {
		return nil, err
	}
	ls, ok := geom.(orb.LineString)
	if !ok {
		return nil, fmt.Errorf("unexpected geometry %s", geom.GeoJSONType())
	}
	return orb.Ring(ls), nil
}
