// Package store keeps contour measurements and histogram statistics in a
// SQLite database so batch runs can be queried afterwards.
package store

import (
	"time"

	"github.com/MeKo-Tech/imagelab/internal/contour"
	"github.com/MeKo-Tech/imagelab/internal/histogram"
)

// Metadata describes the run that produced a database.
type Metadata struct {
	RunID       string // Assigned by New when empty
	Name        string // Human-readable run identifier
	Operation   string // Operation chain applied before measuring
	Border      string // Border policy used by neighborhood operations
	Description string
	Version     string
	Created     time.Time
}

// ToMap converts Metadata to a map for database insertion.
func (m Metadata) ToMap() map[string]string {
	result := make(map[string]string)

	if m.RunID != "" {
		result["run_id"] = m.RunID
	}
	if m.Name != "" {
		result["name"] = m.Name
	}
	if m.Operation != "" {
		result["operation"] = m.Operation
	}
	if m.Border != "" {
		result["border"] = m.Border
	}
	if m.Description != "" {
		result["description"] = m.Description
	}
	if m.Version != "" {
		result["version"] = m.Version
	}
	if !m.Created.IsZero() {
		result["created"] = m.Created.UTC().Format(time.RFC3339)
	}

	return result
}

// Measurement is one stored contour of an image.
type Measurement struct {
	Image   string
	Index   int
	Contour contour.Contour
	Metrics contour.Metrics
}

// ChannelStats are the statistics of one channel of an image.
type ChannelStats struct {
	Image   string
	Channel int
	Stats   histogram.Stats
}
