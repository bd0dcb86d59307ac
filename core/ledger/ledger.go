// Package ledger keeps the ordered list of trips held by one car.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/tripshift/core/model"
)

// ErrOverlap is returned when appending a trip that starts before the end of
// the previous one.
var ErrOverlap = errors.New("trip overlaps previous assignment")

// Ledger records the trips assigned to a single car in assignment order.
// The end of the most recent trip is tracked explicitly so availability can
// be checked without scanning the list.
type Ledger struct {
	id      string
	trips   []model.Trip
	lastEnd time.Time
	used    bool
}

// New returns an empty ledger for the given car.
func New(id string) *Ledger {
	return &Ledger{id: id}
}

// ID returns the car identifier.
func (l *Ledger) ID() string { return l.id }

// Trips returns a copy of the assigned trips.
func (l *Ledger) Trips() []model.Trip {
	out := make([]model.Trip, len(l.trips))
	copy(out, l.trips)
	return out
}

// Len returns the number of assigned trips.
func (l *Ledger) Len() int { return len(l.trips) }

// Empty reports whether no trip was assigned yet.
func (l *Ledger) Empty() bool { return !l.used }

// LastEnd returns the end of the most recent trip. ok is false while the
// ledger is empty.
func (l *Ledger) LastEnd() (end time.Time, ok bool) {
	return l.lastEnd, l.used
}

// CanAccept reports whether the trip can follow the current schedule.
func (l *Ledger) CanAccept(t model.Trip) bool {
	return !l.used || !t.Start.Before(l.lastEnd)
}

// Append adds the trip at the end of the ledger.
func (l *Ledger) Append(t model.Trip) error {
	if !l.CanAccept(t) {
		return fmt.Errorf("car %s: %w: starts %s, previous ends %s", l.id, ErrOverlap,
			t.Start.Format(time.RFC3339), l.lastEnd.Format(time.RFC3339))
	}
	l.trips = append(l.trips, t)
	l.lastEnd = t.End
	l.used = true
	return nil
}

// Occupied returns the summed duration of all trips.
func (l *Ledger) Occupied() time.Duration {
	var total time.Duration
	for _, t := range l.trips {
		total += t.Duration()
	}
	return total
}

// Clone returns a deep copy that can be handed to readers.
func (l *Ledger) Clone() *Ledger {
	cp := *l
	cp.trips = l.Trips()
	return &cp
}

// CheckNoOverlap verifies that consecutive trips do not overlap.
func (l *Ledger) CheckNoOverlap() error {
	for i := 1; i < len(l.trips); i++ {
		if l.trips[i].Start.Before(l.trips[i-1].End) {
			return fmt.Errorf("car %s trip %d: %w", l.id, i, ErrOverlap)
		}
	}
	return nil
}

// CloneAll clones every ledger of the slice.
func CloneAll(ls []*Ledger) []*Ledger {
	out := make([]*Ledger, len(ls))
	for i, l := range ls {
		out[i] = l.Clone()
	}
	return out
}
