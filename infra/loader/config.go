package loader

import (
	"errors"
	"unicode/utf8"
)

// Columns names the CSV header fields holding each trip attribute.
type Columns struct {
	Car   string `json:"car"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// Config describes the trip file layout.
type Config struct {
	Path      string  `json:"path"`
	Delimiter string  `json:"delimiter"`
	Columns   Columns `json:"columns"`
	// FilterWindow keeps only trips fully contained in the observation window.
	FilterWindow bool `json:"filter_window"`
}

// SetDefaults applies the layout of the trip exports.
func (c *Config) SetDefaults() {
	if c.Delimiter == "" {
		c.Delimiter = ";"
	}
	if c.Columns.Car == "" {
		c.Columns.Car = "car_id"
	}
	if c.Columns.Start == "" {
		c.Columns.Start = "start_ts"
	}
	if c.Columns.End == "" {
		c.Columns.End = "last_logout_ts"
	}
}

// Validate checks the delimiter and column names.
func (c Config) Validate() error {
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return errors.New("loader delimiter must be a single character")
	}
	if c.Columns.Car == "" || c.Columns.Start == "" || c.Columns.End == "" {
		return errors.New("loader columns car, start and end are required")
	}
	return nil
}

func (c Config) comma() rune {
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}
