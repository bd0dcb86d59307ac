// Package runlog persists a summary of every reassignment run so that
// utilization can be compared across runs.
package runlog

import (
	"context"
	"slices"
	"time"

	"github.com/kilianp07/tripshift/core/model"
)

// Record captures one run: its configuration, the trip counts and the
// utilization before and after reassignment.
type Record struct {
	ID          string             `json:"id"`
	Timestamp   time.Time          `json:"timestamp"`
	Cars        []string           `json:"cars"`
	Window      model.Window       `json:"window"`
	MinDuration string             `json:"min_duration"`
	PoolGrowth  string             `json:"pool_growth"`
	Input       int                `json:"input"`
	Assigned    int                `json:"assigned"`
	Dropped     int                `json:"dropped"`
	Filtered    int                `json:"filtered"`
	Opened      []string           `json:"opened,omitempty"`
	Before      map[string]float64 `json:"before"`
	After       map[string]float64 `json:"after"`
	FleetBefore float64            `json:"fleet_before"`
	FleetAfter  float64            `json:"fleet_after"`
}

// Query defines filters for retrieving records. Zero values disable a
// filter. Limit keeps the most recent records.
type Query struct {
	Start time.Time
	End   time.Time
	CarID string
	Limit int
}

// Store persists Records and supports querying. Query returns records in
// chronological order.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error            { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                    { return nil }

func (q Query) matches(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.CarID != "" && !slices.Contains(r.Cars, q.CarID) {
		return false
	}
	return true
}

func (q Query) limit(res []Record) []Record {
	if q.Limit > 0 && len(res) > q.Limit {
		return res[len(res)-q.Limit:]
	}
	return res
}
