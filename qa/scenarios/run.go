package scenarios

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/kilianp07/tripshift/core/assign"
	"github.com/kilianp07/tripshift/core/fleet"
	"github.com/kilianp07/tripshift/core/logger"
	"github.com/kilianp07/tripshift/internal/eventbus"
)

// ErrMismatch marks a failed expectation.
var ErrMismatch = errors.New("expectation mismatch")

const defaultTolerance = 1e-6

// Outcome is the comparison produced by a scenario and its failed checks.
type Outcome struct {
	Comparison *fleet.Comparison
	Mismatches []string
}

// Err joins the mismatches, or returns nil when every check passed.
func (o *Outcome) Err() error {
	if len(o.Mismatches) == 0 {
		return nil
	}
	errs := make([]error, len(o.Mismatches))
	for i, m := range o.Mismatches {
		errs[i] = fmt.Errorf("%w: %s", ErrMismatch, m)
	}
	return errors.Join(errs...)
}

// Run executes sc. Setup errors are returned directly; failed expectations
// are reported in the outcome.
func Run(sc *Scenario, log logger.Logger, bus eventbus.EventBus) (*Outcome, error) {
	window, err := sc.ModelWindow()
	if err != nil {
		return nil, err
	}
	trips, err := sc.ModelTrips()
	if err != nil {
		return nil, err
	}
	cfg, err := sc.AssignConfig()
	if err != nil {
		return nil, err
	}
	f, err := fleet.New(sc.Cars, window)
	if err != nil {
		return nil, err
	}
	e, err := assign.NewEngine(cfg, log, bus)
	if err != nil {
		return nil, err
	}
	cmp, err := f.Compare(e, trips)
	if err != nil {
		return nil, err
	}
	out := &Outcome{Comparison: cmp}
	out.check(sc.Expected)
	return out, nil
}

func (o *Outcome) check(exp Expected) {
	res := o.Comparison.Result
	tol := exp.Tolerance
	if tol <= 0 {
		tol = defaultTolerance
	}
	count := func(name string, want *int, got int) {
		if want != nil && *want != got {
			o.failf("%s: want %d, got %d", name, *want, got)
		}
	}
	count("assigned", exp.Assigned, res.Assigned())
	count("dropped", exp.Dropped, len(res.Dropped))
	count("filtered", exp.Filtered, len(res.Filtered))

	if exp.Opened != nil && !slices.Equal(exp.Opened, res.Opened) {
		o.failf("opened: want %v, got %v", exp.Opened, res.Opened)
	}
	for _, id := range sortedKeys(exp.PerCar) {
		l := res.Ledger(id)
		if l == nil {
			o.failf("per_car %s: unknown car", id)
			continue
		}
		if l.Len() != exp.PerCar[id] {
			o.failf("per_car %s: want %d trips, got %d", id, exp.PerCar[id], l.Len())
		}
	}
	o.ratios("before", exp.Before, o.Comparison.Before.Report.Float64s(), tol)
	o.ratios("utilization", exp.Utilization, o.Comparison.After.Report.Float64s(), tol)
	if exp.FleetAfter != nil {
		got := o.Comparison.After.Report.Fleet.InexactFloat64()
		if math.Abs(got-*exp.FleetAfter) > tol {
			o.failf("fleet_after: want %.6f, got %.6f", *exp.FleetAfter, got)
		}
	}
}

func (o *Outcome) ratios(name string, want, got map[string]float64, tol float64) {
	for _, id := range sortedKeys(want) {
		g, ok := got[id]
		if !ok {
			o.failf("%s %s: unknown car", name, id)
			continue
		}
		if math.Abs(g-want[id]) > tol {
			o.failf("%s %s: want %.6f, got %.6f", name, id, want[id], g)
		}
	}
}

func (o *Outcome) failf(format string, args ...any) {
	o.Mismatches = append(o.Mismatches, fmt.Sprintf(format, args...))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
