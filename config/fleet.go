package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kilianp07/tripshift/core/assign"
	"github.com/kilianp07/tripshift/core/model"
)

// DefaultTimezone is the zone trip timestamps are converted to.
const DefaultTimezone = "Europe/Oslo"

// ErrWindowRequired is returned when the observation window is not configured.
var ErrWindowRequired = errors.New("window start and end are required")

// WindowConfig bounds the observation period. Dates without an offset are
// read in the fleet timezone. Derive replaces both bounds with the span of
// the loaded trips and must be requested explicitly.
type WindowConfig struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Derive bool   `json:"derive"`
}

// FleetConfig lists the cars, in preference order, and the period they are
// observed over.
type FleetConfig struct {
	CarIDs   []string     `json:"car_ids"`
	Window   WindowConfig `json:"window"`
	Timezone string       `json:"timezone"`
}

func (c *FleetConfig) SetDefaults() {
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
}

func (c FleetConfig) Validate() error {
	if len(c.CarIDs) == 0 {
		return fmt.Errorf("car_ids is required")
	}
	if err := assign.ValidatePool(c.CarIDs); err != nil {
		return err
	}
	loc, err := c.Location()
	if err != nil {
		return err
	}
	if c.Window.Derive {
		if c.Window.Start != "" || c.Window.End != "" {
			return fmt.Errorf("window derive excludes start and end")
		}
		return nil
	}
	if !c.HasWindow() {
		return ErrWindowRequired
	}
	_, err = c.ModelWindow(loc)
	return err
}

// HasWindow reports whether both window bounds are configured.
func (c FleetConfig) HasWindow() bool {
	return c.Window.Start != "" && c.Window.End != ""
}

// Location loads the configured timezone.
func (c FleetConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ModelWindow parses the window in loc.
func (c FleetConfig) ModelWindow(loc *time.Location) (model.Window, error) {
	start, err := parseDate(c.Window.Start, loc)
	if err != nil {
		return model.Window{}, fmt.Errorf("window start: %w", err)
	}
	end, err := parseDate(c.Window.End, loc)
	if err != nil {
		return model.Window{}, fmt.Errorf("window end: %w", err)
	}
	w := model.Window{Start: start, End: end}
	if err := w.Validate(); err != nil {
		return model.Window{}, err
	}
	return w, nil
}

var dateLayouts = []string{time.DateTime, "2006-01-02T15:04:05", "2006-01-02 15:04", time.DateOnly}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
