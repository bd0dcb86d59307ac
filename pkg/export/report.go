// Package export renders itineraries and utilization comparisons.
package export

import (
	"time"

	"github.com/kilianp07/tripshift/core/fleet"
	"github.com/kilianp07/tripshift/core/model"
	"github.com/kilianp07/tripshift/core/utilization"
)

// CarRow is the utilization of one car before and after reassignment.
type CarRow struct {
	CarID          string  `json:"car_id" yaml:"car_id"`
	Before         float64 `json:"before" yaml:"before"`
	After          float64 `json:"after" yaml:"after"`
	Delta          float64 `json:"delta" yaml:"delta"`
	TripsBefore    int     `json:"trips_before" yaml:"trips_before"`
	TripsAfter     int     `json:"trips_after" yaml:"trips_after"`
	OccupiedBefore string  `json:"occupied_before" yaml:"occupied_before"`
	OccupiedAfter  string  `json:"occupied_after" yaml:"occupied_after"`
}

// ReportDoc is the serialisable view of a comparison.
type ReportDoc struct {
	RunID       string              `json:"run_id" yaml:"run_id"`
	Window      model.Window        `json:"window" yaml:"window"`
	Cars        []CarRow            `json:"cars" yaml:"cars"`
	FleetBefore float64             `json:"fleet_before" yaml:"fleet_before"`
	FleetAfter  float64             `json:"fleet_after" yaml:"fleet_after"`
	Before      utilization.Summary `json:"summary_before" yaml:"summary_before"`
	After       utilization.Summary `json:"summary_after" yaml:"summary_after"`
	Input       int                 `json:"input" yaml:"input"`
	Assigned    int                 `json:"assigned" yaml:"assigned"`
	Dropped     int                 `json:"dropped" yaml:"dropped"`
	Filtered    int                 `json:"filtered" yaml:"filtered"`
	Foreign     int                 `json:"foreign" yaml:"foreign"`
	Opened      []string            `json:"opened,omitempty" yaml:"opened,omitempty"`
}

// NewReportDoc flattens c. Rows follow the after order, which starts with
// the fleet order and ends with any overflow car.
func NewReportDoc(c *fleet.Comparison) ReportDoc {
	before, after := c.Before.Report, c.After.Report
	doc := ReportDoc{
		RunID:       c.Result.RunID,
		Window:      after.Window,
		FleetBefore: before.Fleet.InexactFloat64(),
		FleetAfter:  after.Fleet.InexactFloat64(),
		Before:      before.Summary,
		After:       after.Summary,
		Input:       c.Result.Input,
		Assigned:    c.Result.Assigned(),
		Dropped:     len(c.Result.Dropped),
		Filtered:    len(c.Result.Filtered),
		Foreign:     c.Foreign,
		Opened:      c.Result.Opened,
	}
	tripsBefore := counts(c.Before.Cars)
	tripsAfter := counts(c.After.Cars)
	for _, id := range after.Order {
		a := after.PerCar[id]
		row := CarRow{
			CarID:         id,
			After:         a.InexactFloat64(),
			TripsAfter:    tripsAfter[id],
			OccupiedAfter: after.Occupied[id].String(),
		}
		if b, ok := before.PerCar[id]; ok {
			row.Before = b.InexactFloat64()
			row.Delta = a.Sub(b).InexactFloat64()
			row.TripsBefore = tripsBefore[id]
			row.OccupiedBefore = before.Occupied[id].String()
		} else {
			row.OccupiedBefore = time.Duration(0).String()
		}
		doc.Cars = append(doc.Cars, row)
	}
	return doc
}

func counts(cars []fleet.Schedule) map[string]int {
	out := make(map[string]int, len(cars))
	for _, c := range cars {
		out[c.ID()] = c.Len()
	}
	return out
}
