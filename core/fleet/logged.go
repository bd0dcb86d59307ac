package fleet

import (
	"slices"
	"time"

	"github.com/kilianp07/tripshift/core/model"
	"github.com/kilianp07/tripshift/core/utilization"
)

// Schedule is the ordered list of trips of one car.
type Schedule interface {
	utilization.Occupant
	Trips() []model.Trip
	Len() int
}

// Logged holds the trips recorded against one car in the booking log.
// Unlike ledger.Ledger it does not reject overlapping trips: the log is
// reported as it was recorded.
type Logged struct {
	id    string
	trips []model.Trip
}

func (l *Logged) ID() string { return l.id }
func (l *Logged) Len() int   { return len(l.trips) }

// Trips returns the logged trips sorted by start.
func (l *Logged) Trips() []model.Trip {
	out := append([]model.Trip(nil), l.trips...)
	slices.SortStableFunc(out, func(a, b model.Trip) int { return a.Start.Compare(b.Start) })
	return out
}

// Occupied sums the duration of the logged trips.
func (l *Logged) Occupied() time.Duration {
	return utilization.Occupied(l.trips)
}

// Overlaps returns how many logged trips start before the previous one ended.
func (l *Logged) Overlaps() int {
	ts := l.Trips()
	n := 0
	for i := 1; i < len(ts); i++ {
		if ts[i].Start.Before(ts[i-1].End) {
			n++
		}
	}
	return n
}
