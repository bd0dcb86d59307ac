package utilization

import (
	"runtime"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/tripshift/core/model"
)

// Summary holds descriptive statistics over the per car ratios.
type Summary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Report is the utilization of every car for one observation window.
type Report struct {
	Window   model.Window
	Order    []string
	PerCar   map[string]decimal.Decimal
	Occupied map[string]time.Duration
	// Fleet is the total occupied time divided by the window length times
	// the number of cars. It follows the same idle rule as per car ratios.
	Fleet   decimal.Decimal
	Summary Summary
}

// Occupant is a car whose occupied time can be measured.
type Occupant interface {
	ID() string
	Occupied() time.Duration
}

// Compute builds a report from the cars, in the given order. Cars are read
// only and disjoint so ratios are computed concurrently.
func Compute[O Occupant](window model.Window, cars []O) (*Report, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	period := window.Length()
	ratios := make([]decimal.Decimal, len(cars))
	occupied := make([]time.Duration, len(cars))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, c := range cars {
		g.Go(func() error {
			occupied[i] = c.Occupied()
			r, err := Ratio(occupied[i], period)
			if err != nil {
				return err
			}
			ratios[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep := &Report{
		Window:   window,
		Order:    make([]string, len(cars)),
		PerCar:   make(map[string]decimal.Decimal, len(cars)),
		Occupied: make(map[string]time.Duration, len(cars)),
	}
	var total time.Duration
	values := make([]float64, len(cars))
	for i, c := range cars {
		rep.Order[i] = c.ID()
		rep.PerCar[c.ID()] = ratios[i]
		rep.Occupied[c.ID()] = occupied[i]
		total += occupied[i]
		values[i] = ratios[i].InexactFloat64()
	}
	rep.Fleet = fleetRatio(total, period, len(cars))
	rep.Summary = summarize(values)
	return rep, nil
}

func fleetRatio(total, period time.Duration, cars int) decimal.Decimal {
	if total == 0 || cars == 0 {
		return Idle
	}
	capacity := decimal.NewFromInt(int64(period)).Mul(decimal.NewFromInt(int64(cars)))
	return decimal.NewFromInt(int64(total)).Div(capacity)
}

func summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	mean, std := stat.MeanStdDev(values, nil)
	if len(values) == 1 {
		std = 0
	}
	return Summary{Mean: mean, StdDev: std, Min: floats.Min(values), Max: floats.Max(values)}
}

// Float64s returns the per car ratios as plain floats.
func (r *Report) Float64s() map[string]float64 {
	out := make(map[string]float64, len(r.PerCar))
	for id, v := range r.PerCar {
		out[id] = v.InexactFloat64()
	}
	return out
}

// Ratio returns the ratio of the given car.
func (r *Report) Ratio(id string) (decimal.Decimal, bool) {
	v, ok := r.PerCar[id]
	return v, ok
}

// Equal reports whether both reports hold the same ratios for the same cars.
func (r *Report) Equal(o *Report) bool {
	if len(r.Order) != len(o.Order) || !r.Fleet.Equal(o.Fleet) {
		return false
	}
	for i, id := range r.Order {
		if o.Order[i] != id || !r.PerCar[id].Equal(o.PerCar[id]) {
			return false
		}
	}
	return true
}
