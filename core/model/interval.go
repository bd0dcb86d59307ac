package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidInterval is returned when an interval ends before it starts.
	ErrInvalidInterval = errors.New("interval end before start")
	// ErrInvalidPeriod is returned when an observation window is empty or inverted.
	ErrInvalidPeriod = errors.New("observation period must be strictly positive")
)

// Interval is a closed time range [Start, End] booked by a single trip.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewInterval returns the interval or ErrInvalidInterval when end < start.
func NewInterval(start, end time.Time) (Interval, error) {
	iv := Interval{Start: start, End: end}
	if err := iv.Validate(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

// Validate checks that End is not before Start.
func (iv Interval) Validate() error {
	if iv.End.Before(iv.Start) {
		return fmt.Errorf("%w: %s > %s", ErrInvalidInterval,
			iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339))
	}
	return nil
}

// Duration returns End - Start.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Overlaps reports whether both intervals share time. Back-to-back intervals,
// where one ends exactly when the other starts, do not overlap.
func (iv Interval) Overlaps(o Interval) bool {
	return iv.Start.Before(o.End) && o.Start.Before(iv.End)
}

// Compare orders intervals by start, then by end.
func (iv Interval) Compare(o Interval) int {
	if c := iv.Start.Compare(o.Start); c != 0 {
		return c
	}
	return iv.End.Compare(o.End)
}
