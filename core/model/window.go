package model

import (
	"fmt"
	"time"
)

// Window is the fixed observation period utilization is measured against.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Validate ensures the window has a strictly positive length.
func (w Window) Validate() error {
	if !w.End.After(w.Start) {
		return fmt.Errorf("%w: [%s, %s]", ErrInvalidPeriod,
			w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
	}
	return nil
}

// Length returns End - Start.
func (w Window) Length() time.Duration {
	return w.End.Sub(w.Start)
}

// Contains reports whether the interval lies fully inside the window.
func (w Window) Contains(iv Interval) bool {
	return !iv.Start.Before(w.Start) && !iv.End.After(w.End)
}

func (w Window) String() string {
	return "[" + w.Start.Format(time.RFC3339) + ", " + w.End.Format(time.RFC3339) + "]"
}

// Span returns the window from the earliest start to the latest end of
// trips. It fails with ErrInvalidPeriod when trips is empty or has zero
// total extent.
func Span(trips []Trip) (Window, error) {
	if len(trips) == 0 {
		return Window{}, fmt.Errorf("%w: no trips", ErrInvalidPeriod)
	}
	w := Window{Start: trips[0].Start, End: trips[0].End}
	for _, t := range trips[1:] {
		if t.Start.Before(w.Start) {
			w.Start = t.Start
		}
		if t.End.After(w.End) {
			w.End = t.End
		}
	}
	return w, w.Validate()
}
