// Package fleet compares car utilization as logged with utilization after
// reassignment.
package fleet

import (
	"github.com/shopspring/decimal"

	"github.com/kilianp07/tripshift/core/assign"
	"github.com/kilianp07/tripshift/core/model"
	"github.com/kilianp07/tripshift/core/utilization"
)

// Fleet is an ordered pool of cars observed over a fixed window. Car order
// is the preference order used by the assignment engine.
type Fleet struct {
	CarIDs []string
	Window model.Window
}

// New validates the pool and the window.
func New(carIDs []string, window model.Window) (*Fleet, error) {
	if err := assign.ValidatePool(carIDs); err != nil {
		return nil, err
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}
	ids := append([]string(nil), carIDs...)
	return &Fleet{CarIDs: ids, Window: window}, nil
}

// Snapshot is the schedule of every car and the resulting utilization.
type Snapshot struct {
	Cars   []Schedule
	Report *utilization.Report
}

// Before rebuilds the schedule as logged by grouping trips on their origin
// car. Trips of cars outside the fleet are ignored and their number is
// returned. It never looks at an assignment run.
func (f *Fleet) Before(trips []model.Trip) (*Snapshot, int, error) {
	groups := make([]*Logged, len(f.CarIDs))
	byID := make(map[string]*Logged, len(f.CarIDs))
	for i, id := range f.CarIDs {
		groups[i] = &Logged{id: id}
		byID[id] = groups[i]
	}
	foreign := 0
	for _, t := range trips {
		if err := t.Validate(); err != nil {
			return nil, 0, err
		}
		g, ok := byID[t.OriginCarID]
		if !ok {
			foreign++
			continue
		}
		g.trips = append(g.trips, t)
	}

	rep, err := utilization.Compute(f.Window, groups)
	if err != nil {
		return nil, 0, err
	}
	cars := make([]Schedule, len(groups))
	for i, g := range groups {
		cars[i] = g
	}
	return &Snapshot{Cars: cars, Report: rep}, foreign, nil
}

// After runs the engine over all trips and reports the new schedule.
func (f *Fleet) After(e *assign.Engine, trips []model.Trip) (*Snapshot, *assign.Result, error) {
	res, err := e.Assign(trips, f.CarIDs)
	if err != nil {
		return nil, nil, err
	}
	rep, err := utilization.Compute(f.Window, res.Ledgers)
	if err != nil {
		return nil, nil, err
	}
	cars := make([]Schedule, len(res.Ledgers))
	for i, l := range res.Ledgers {
		cars[i] = l
	}
	return &Snapshot{Cars: cars, Report: rep}, res, nil
}

// Comparison holds the logged and the reassigned schedules.
type Comparison struct {
	Before *Snapshot
	After  *Snapshot
	Result *assign.Result
	// Foreign counts trips logged on cars outside the fleet.
	Foreign int
}

// Compare computes Before and After as two independent reports.
func (f *Fleet) Compare(e *assign.Engine, trips []model.Trip) (*Comparison, error) {
	before, foreign, err := f.Before(trips)
	if err != nil {
		return nil, err
	}
	after, res, err := f.After(e, trips)
	if err != nil {
		return nil, err
	}
	return &Comparison{Before: before, After: after, Result: res, Foreign: foreign}, nil
}

// Delta returns after - before for every car present in both reports.
func (c *Comparison) Delta() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(c.After.Report.PerCar))
	for id, a := range c.After.Report.PerCar {
		if b, ok := c.Before.Report.PerCar[id]; ok {
			out[id] = a.Sub(b)
		}
	}
	return out
}
