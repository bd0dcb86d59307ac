// Package scenarios loads YAML fleet scenarios and checks assignment runs
// against their expectations.
package scenarios

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/tripshift/core/assign"
	"github.com/kilianp07/tripshift/core/model"
	"github.com/kilianp07/tripshift/infra/loader"
)

// TripDef is one logged trip. Timestamps use the loader layouts.
type TripDef struct {
	Car   string `yaml:"car"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// WindowDef is the observation window.
type WindowDef struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// Expected lists the checks applied after the run. Nil fields are not
// checked.
type Expected struct {
	Assigned    *int               `yaml:"assigned,omitempty"`
	Dropped     *int               `yaml:"dropped,omitempty"`
	Filtered    *int               `yaml:"filtered,omitempty"`
	Opened      []string           `yaml:"opened,omitempty"`
	PerCar      map[string]int     `yaml:"per_car,omitempty"`
	Before      map[string]float64 `yaml:"before,omitempty"`
	Utilization map[string]float64 `yaml:"utilization,omitempty"`
	FleetAfter  *float64           `yaml:"fleet_after,omitempty"`
	Tolerance   float64            `yaml:"tolerance,omitempty"`
}

type Scenario struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	Cars        []string  `yaml:"cars"`
	Window      WindowDef `yaml:"window"`
	MinDuration string    `yaml:"min_duration,omitempty"`
	PoolGrowth  string    `yaml:"pool_growth,omitempty"`
	Trips       []TripDef `yaml:"trips"`
	Expected    Expected  `yaml:"expected"`
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = path
	}
	return &sc, nil
}

// AssignConfig converts the scenario settings to an engine configuration.
func (sc *Scenario) AssignConfig() (assign.Config, error) {
	cfg := assign.Config{PoolGrowth: assign.PoolGrowth(sc.PoolGrowth)}
	if sc.MinDuration != "" {
		d, err := time.ParseDuration(sc.MinDuration)
		if err != nil {
			return cfg, fmt.Errorf("min_duration: %w", err)
		}
		cfg.MinDuration = d
	}
	return cfg, nil
}

// ModelWindow parses the observation window in UTC.
func (sc *Scenario) ModelWindow() (model.Window, error) {
	start, err := loader.ParseTimestamp(sc.Window.Start, time.UTC)
	if err != nil {
		return model.Window{}, fmt.Errorf("window start: %w", err)
	}
	end, err := loader.ParseTimestamp(sc.Window.End, time.UTC)
	if err != nil {
		return model.Window{}, fmt.Errorf("window end: %w", err)
	}
	w := model.Window{Start: start, End: end}
	return w, w.Validate()
}

// ModelTrips parses the trips in file order.
func (sc *Scenario) ModelTrips() ([]model.Trip, error) {
	trips := make([]model.Trip, 0, len(sc.Trips))
	for i, td := range sc.Trips {
		start, err := loader.ParseTimestamp(td.Start, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("trip %d: %w", i, err)
		}
		end, err := loader.ParseTimestamp(td.End, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("trip %d: %w", i, err)
		}
		trips = append(trips, model.Trip{
			Interval:    model.Interval{Start: start, End: end},
			OriginCarID: td.Car,
			Seq:         i,
		})
	}
	return trips, nil
}
